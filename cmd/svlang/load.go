package main

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/spf13/cobra"

	"svlang/internal/diagfmt"
	"svlang/internal/driver"
	"svlang/internal/project"
)

var (
	loadLibFiles   []string
	loadLibMaps    []string
	loadSearchDirs []string
	loadExtensions []string
	loadSingleUnit bool
	loadInheritMac bool
	loadLintOnly   bool
	loadJobs       int
	loadJSON       bool
	loadUseCache   bool
)

func init() {
	loadCmd.Flags().StringArrayVarP(&loadLibFiles, "lib", "v", nil, "library files as name=pattern")
	loadCmd.Flags().StringArrayVar(&loadLibMaps, "libmap", nil, "library map files")
	loadCmd.Flags().StringArrayVarP(&loadSearchDirs, "ydir", "y", nil, "search directories for missing modules")
	loadCmd.Flags().StringArrayVar(&loadExtensions, "libext", nil, "additional file extensions searched in -y directories")
	loadCmd.Flags().BoolVar(&loadSingleUnit, "single-unit", false, "treat all direct files as one compilation unit")
	loadCmd.Flags().BoolVar(&loadInheritMac, "libraries-inherit-macros", false, "library files see the single unit's macros (implies --single-unit)")
	loadCmd.Flags().BoolVar(&loadLintOnly, "lint-only", false, "treat every file as a library, suppressing unreferenced-module diagnostics")
	loadCmd.Flags().IntVarP(&loadJobs, "jobs", "j", 0, "parse worker count (0 = one per CPU)")
	loadCmd.Flags().BoolVar(&loadJSON, "json", false, "emit diagnostics as JSON")
	loadCmd.Flags().BoolVar(&loadUseCache, "cache", false, "record unit metadata in the user cache")
}

var loadCmd = &cobra.Command{
	Use:   "load [patterns...]",
	Short: "Resolve, load and parse sources",
	Long: `Load expands the given file patterns, assigns files to libraries via
library maps, parses everything (in parallel where worthwhile) and
discovers missing modules along the -y search directories. Without
patterns it loads whatever the nearest svlang.toml names.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(args)
		if err != nil {
			return err
		}
		maxDiags, _ := cmd.Flags().GetInt("max-diagnostics")
		opts.MaxDiagnostics, err = diagLimit(maxDiags)
		if err != nil {
			return err
		}

		if loadUseCache {
			cache, err := driver.OpenMetaCache("svlang")
			if err != nil {
				return fmt.Errorf("failed to open metadata cache: %w", err)
			}
			opts.Cache = cache
		}

		res, err := opts.Run(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if loadJSON {
			if err := diagfmt.JSON(out, res.Bag, res.Manager, diagfmt.JSONOpts{
				IncludePositions: true,
				IncludeNotes:     true,
				PathMode:         diagfmt.PathModeRelative,
			}); err != nil {
				return err
			}
		} else {
			diagfmt.Pretty(out, res.Bag, res.Manager, diagfmt.PrettyOpts{
				Color:      useColor(cmd),
				ShowNotes:  true,
				ShowSource: true,
				PathMode:   diagfmt.PathModeRelative,
			})
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		if !quiet && !loadJSON {
			fmt.Fprintf(out, "loaded %d files into %d units (%d libraries)\n",
				res.Manager.Len(), len(res.Trees), len(res.Loader.Libraries()))
		}
		if res.Bag.HasErrors() {
			return fmt.Errorf("loading failed with %d diagnostics", res.Bag.Len())
		}
		return nil
	},
}

// diagLimit narrows the flag value to the bag's capacity type.
func diagLimit(v int) (uint16, error) {
	limit, err := safecast.Conv[uint16](v)
	if err != nil {
		return 0, fmt.Errorf("invalid --max-diagnostics %d: %w", v, err)
	}
	return limit, nil
}

// loadOptions assembles driver options from flags, falling back to
// the nearest manifest when no patterns are given.
func loadOptions(args []string) (driver.Options, error) {
	if len(args) == 0 && len(loadLibFiles) == 0 && len(loadLibMaps) == 0 {
		manifest, ok, err := project.LoadManifest("")
		if err != nil {
			return driver.Options{}, err
		}
		if !ok {
			return driver.Options{}, fmt.Errorf("no patterns given and no svlang.toml found")
		}
		opts := driver.FromManifest(manifest)
		applyLoadFlags(&opts)
		return opts, nil
	}

	opts := driver.Options{
		Files:       args,
		LibraryMaps: loadLibMaps,
	}
	for _, spec := range loadLibFiles {
		name, pattern, ok := strings.Cut(spec, "=")
		if !ok || name == "" || pattern == "" {
			return driver.Options{}, fmt.Errorf("invalid --lib %q, want name=pattern", spec)
		}
		if opts.LibraryFiles == nil {
			opts.LibraryFiles = make(map[string][]string)
		}
		opts.LibraryFiles[name] = append(opts.LibraryFiles[name], pattern)
	}
	applyLoadFlags(&opts)
	return opts, nil
}

func applyLoadFlags(opts *driver.Options) {
	opts.SingleUnit = opts.SingleUnit || loadSingleUnit
	opts.LibrariesInheritMacros = loadInheritMac
	opts.OnlyLint = loadLintOnly
	opts.NumThreads = loadJobs
	opts.SearchDirs = append(opts.SearchDirs, loadSearchDirs...)
	opts.Extensions = append(opts.Extensions, loadExtensions...)
}
