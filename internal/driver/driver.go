// Package driver wires the loading pipeline together for the CLI:
// manifest or flag inputs in, parsed trees and a diagnostic bag out.
package driver

import (
	"context"
	"errors"
	"io/fs"
	"sort"

	"svlang/internal/diag"
	"svlang/internal/loader"
	"svlang/internal/project"
	"svlang/internal/source"
	"svlang/internal/syntax"
)

// Options selects what to load and how.
type Options struct {
	// Files are direct source patterns.
	Files []string
	// LibraryFiles maps library name to its source patterns.
	LibraryFiles map[string][]string
	// LibraryIncDirs maps library name to its include directory
	// patterns.
	LibraryIncDirs map[string][]string
	// LibraryMaps are library map document patterns.
	LibraryMaps []string
	// SearchDirs are dependency discovery roots.
	SearchDirs []string
	// Extensions are extra suffixes recognized during discovery.
	Extensions []string

	SingleUnit             bool
	LibrariesInheritMacros bool
	OnlyLint               bool
	NumThreads             int

	// BaseDir roots library map patterns; empty means the working
	// directory.
	BaseDir string
	// MaxDiagnostics caps the bag; 0 uses the bag default.
	MaxDiagnostics uint16
	// Cache, when set, serves per-file parse metadata from earlier
	// runs and records fresh metadata after loading.
	Cache *MetaCache
}

// FromManifest converts a loaded manifest into driver options.
// Patterns stay relative; BaseDir carries the manifest root.
func FromManifest(m *project.Manifest) Options {
	opts := Options{
		Files:       m.Config.Sources.Files,
		LibraryMaps: m.Config.Sources.LibraryMaps,
		SearchDirs:  m.Config.Sources.SearchDirs,
		Extensions:  m.Config.Sources.Extensions,
		SingleUnit:  m.Config.Sources.SingleUnit,
		BaseDir:     m.Root,
	}
	if len(m.Config.Libraries) > 0 {
		opts.LibraryFiles = make(map[string][]string, len(m.Config.Libraries))
		for name, lib := range m.Config.Libraries {
			opts.LibraryFiles[name] = lib.Files
			if len(lib.IncDirs) > 0 {
				if opts.LibraryIncDirs == nil {
					opts.LibraryIncDirs = make(map[string][]string)
				}
				opts.LibraryIncDirs[name] = lib.IncDirs
			}
		}
	}
	return opts
}

// Result is everything downstream stages need from a load.
type Result struct {
	Manager *source.Manager
	Loader  *loader.Loader
	Trees   []*syntax.Tree
	Bag     *diag.Bag
}

// Run executes the full loading pipeline. Load-tier failures become
// diagnostics in the result bag; the returned error is reserved for
// context cancellation.
func (opts Options) Run(ctx context.Context) (*Result, error) {
	manager := source.NewManagerWithBase(opts.BaseDir)
	bag := diag.NewBag(int(opts.MaxDiagnostics))
	// The same bad pattern can reach the loader twice, once from the
	// command line and once from a manifest; report through a dedup
	// filter so the bag carries each problem once.
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	ld := loader.New(manager, reporter)

	for _, pattern := range opts.LibraryMaps {
		ld.AddLibraryMaps(pattern, opts.BaseDir, true)
	}
	// Sorted for deterministic registration order, which decides
	// equal-rank ownership ties.
	for _, name := range sortedKeys(opts.LibraryFiles) {
		for _, pattern := range opts.LibraryFiles[name] {
			ld.AddLibraryFiles(name, resolve(opts.BaseDir, pattern))
		}
	}
	for _, name := range sortedKeys(opts.LibraryIncDirs) {
		for _, pattern := range opts.LibraryIncDirs[name] {
			ld.AddLibraryIncDirs(name, resolve(opts.BaseDir, pattern))
		}
	}
	for _, pattern := range opts.Files {
		ld.AddFiles(resolve(opts.BaseDir, pattern))
	}
	for _, pattern := range opts.SearchDirs {
		ld.AddSearchDirectories(resolve(opts.BaseDir, pattern))
	}
	for _, ext := range opts.Extensions {
		ld.AddSearchExtension(ext)
	}

	var meta loader.MetadataProvider
	if opts.Cache != nil {
		meta = metadataSource{cache: opts.Cache}
	}
	trees, err := ld.LoadAndParseSources(ctx, loader.Options{
		SingleUnit:             opts.SingleUnit,
		LibrariesInheritMacros: opts.LibrariesInheritMacros,
		OnlyLint:               opts.OnlyLint,
		NumThreads:             opts.NumThreads,
		Metadata:               meta,
	})
	if err != nil {
		return nil, err
	}

	for _, fe := range ld.Errors() {
		reporter.Report(loadErrorCode(fe), diag.SevError, source.Span{}, fe.Error(), nil)
	}
	bag.Sort()

	if opts.Cache != nil {
		storeMetadata(opts.Cache, manager, trees)
	}

	return &Result{Manager: manager, Loader: ld, Trees: trees, Bag: bag}, nil
}

func loadErrorCode(fe loader.FileError) diag.Code {
	switch {
	case errors.Is(fe, loader.ErrAmbiguousLibrary):
		return diag.LoadAmbiguousLibrary
	case errors.Is(fe, loader.ErrIncludeCycle):
		return diag.LoadIncludeCycle
	case errors.Is(fe, fs.ErrNotExist), errors.Is(fe, fs.ErrInvalid):
		return diag.LoadBadPattern
	default:
		return diag.LoadFileError
	}
}

func resolve(base, pattern string) string {
	if base == "" || pattern == "" {
		return pattern
	}
	if pattern[0] == '/' {
		return pattern
	}
	return base + "/" + pattern
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
