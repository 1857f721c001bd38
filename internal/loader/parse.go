package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"svlang/internal/source"
	"svlang/internal/syntax"
)

// Below this many files the parallel parse path costs more than it
// saves.
const minFilesForThreading = 4

// Options controls how registered sources are grouped and parsed.
type Options struct {
	// SingleUnit concatenates all direct files into one compilation
	// unit, preserving registration order.
	SingleUnit bool
	// LibrariesInheritMacros makes library files see the macros
	// defined by the single unit. Implies SingleUnit.
	LibrariesInheritMacros bool
	// OnlyLint marks every resulting tree as a library so that
	// unreferenced modules draw no diagnostics.
	OnlyLint bool
	// NumThreads caps parse parallelism; zero or negative means one
	// worker per CPU.
	NumThreads int
	// Metadata, when set, recalls extraction results from an earlier
	// run; a hit skips extraction for that buffer. Implementations
	// must be safe for concurrent use.
	Metadata MetadataProvider
}

// MetadataProvider serves previously extracted unit metadata, keyed
// however the implementation likes (typically by content hash). The
// returned tree must be fresh on every call: the loader takes
// ownership.
type MetadataProvider interface {
	Load(file *source.File) (*syntax.Tree, bool)
}

// loadResult is the outcome of loading one file entry. Exactly one of
// the three implementations comes back per entry.
type loadResult interface {
	isLoadResult()
}

// treeResult carries a fully parsed tree.
type treeResult struct {
	tree *syntax.Tree
}

// deferredResult carries a buffer whose parse must wait: either a
// member of the single unit, or a library file that inherits the
// unit's macros.
type deferredResult struct {
	id        source.FileID
	isLibrary bool
}

// errorResult carries a file that could not be read.
type errorResult struct {
	path string
	err  error
}

func (treeResult) isLoadResult()     {}
func (deferredResult) isLoadResult() {}
func (errorResult) isLoadResult()    {}

// LoadAndParseSources loads every registered entry, parses them into
// syntax trees, then probes the search directories to discover files
// for names referenced but nowhere defined, repeating until no new
// names surface. Per-file failures accumulate on the error list; the
// only returned error is context cancellation.
func (ld *Loader) LoadAndParseSources(ctx context.Context, opts Options) ([]*syntax.Tree, error) {
	if opts.LibrariesInheritMacros {
		opts.SingleUnit = true
	}

	// Ambiguous ownership is detected at registration but surfaced
	// here, once the entry is actually loaded.
	for i := range ld.fileEntries {
		entry := &ld.fileEntries[i]
		if entry.SecondLib != nil {
			ld.errors = append(ld.errors, FileError{
				Path: entry.Path,
				Err: fmt.Errorf("claimed by libraries %q and %q with equal specificity: %w",
					entry.Library.Name, entry.SecondLib.Name, ErrAmbiguousLibrary),
			})
		}
	}

	results := make([]loadResult, len(ld.fileEntries))
	if err := ld.runOverRange(ctx, len(ld.fileEntries), opts.NumThreads, func(i int) {
		results[i] = ld.loadAndParse(&ld.fileEntries[i], opts)
	}); err != nil {
		return nil, err
	}

	var trees []*syntax.Tree
	var unitBuffers []source.FileID
	var deferredLibs []source.FileID
	for _, res := range results {
		switch r := res.(type) {
		case treeResult:
			trees = append(trees, r.tree)
		case deferredResult:
			if r.isLibrary {
				deferredLibs = append(deferredLibs, r.id)
			} else {
				unitBuffers = append(unitBuffers, r.id)
			}
		case errorResult:
			ld.errors = append(ld.errors, FileError{Path: r.path, Err: r.err})
		case nil:
			// Cancellation can leave tail slots unfilled.
		default:
			panic(fmt.Sprintf("unhandled load result %T", res))
		}
	}

	var inherited []syntax.Macro
	if len(unitBuffers) > 0 {
		unit := syntax.FromBuffers(ld.sm, unitBuffers, nil)
		if opts.OnlyLint {
			unit.IsLibrary = true
		}
		trees = append(trees, unit)
		if opts.LibrariesInheritMacros {
			inherited = unit.DefinedMacros()
		}
	}

	if len(deferredLibs) > 0 {
		base := len(trees)
		trees = append(trees, make([]*syntax.Tree, len(deferredLibs))...)
		if err := ld.runOverRange(ctx, len(deferredLibs), opts.NumThreads, func(i int) {
			tree := syntax.FromBuffer(ld.sm, deferredLibs[i], inherited)
			tree.IsLibrary = true
			trees[base+i] = tree
		}); err != nil {
			return nil, err
		}
	}

	if len(ld.searchDirectories) > 0 {
		trees = ld.discoverMissing(trees, inherited, opts)
	}
	return trees, nil
}

// runOverRange invokes fn for each index in [0, n). The work splits
// into contiguous chunks across workers when n is large enough; each
// index writes only its own result slot, so no locking is needed.
func (ld *Loader) runOverRange(ctx context.Context, n, numThreads int, fn func(i int)) error {
	if n < minFilesForThreading || numThreads == 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
		}
		return nil
	}

	workers := numThreads
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (n + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		start := start
		end := start + chunk
		if end > n {
			end = n
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				fn(i)
			}
			return nil
		})
	}
	return g.Wait()
}

func (ld *Loader) loadAndParse(entry *FileEntry, opts Options) loadResult {
	id, err := ld.sm.ReadSource(entry.Path, entry.libraryName())
	if err != nil {
		return errorResult{path: entry.Path, err: err}
	}

	if !entry.IsLibraryFile && opts.SingleUnit {
		return deferredResult{id: id, isLibrary: false}
	}
	if opts.LibrariesInheritMacros {
		// Non-library files were consumed by the single unit above.
		return deferredResult{id: id, isLibrary: true}
	}

	tree, ok := ld.recallMetadata(id, opts)
	if !ok {
		tree = syntax.FromBuffer(ld.sm, id, nil)
	}
	if entry.IsLibraryFile || opts.OnlyLint {
		tree.IsLibrary = true
	}
	return treeResult{tree: tree}
}

// recallMetadata asks the provider for a previously extracted view of
// the buffer. Library visibility is the caller's to decide: it depends
// on how the file was registered this run, not on its content.
func (ld *Loader) recallMetadata(id source.FileID, opts Options) (*syntax.Tree, bool) {
	if opts.Metadata == nil {
		return nil, false
	}
	file := ld.sm.Get(id)
	if file == nil {
		return nil, false
	}
	tree, ok := opts.Metadata.Load(file)
	if !ok || tree == nil {
		return nil, false
	}
	tree.Files = []source.FileID{id}
	return tree, true
}

// discoverMissing runs the fixed-point search: any name referenced by
// the trees but never declared is probed as <dir>/<name><ext> across
// the search directories, most specific extension first. Each file
// found parses as a library tree and may itself introduce new missing
// names, so the probe repeats until a pass finds nothing.
func (ld *Loader) discoverMissing(trees []*syntax.Tree, inherited []syntax.Macro, opts Options) []*syntax.Tree {
	known := make(map[string]struct{})
	for _, tree := range trees {
		tree.AddKnownNames(known)
	}
	missing := make(map[string]struct{})
	for _, tree := range trees {
		tree.CollectMissingNames(known, missing)
	}

	for len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)

		next := make(map[string]struct{})
		for _, name := range names {
			id, ok := ld.probeSearchDirs(name)
			if !ok {
				continue
			}
			// A cached view cannot account for inherited macros, so it
			// only serves when there are none.
			var tree *syntax.Tree
			if len(inherited) == 0 {
				tree, _ = ld.recallMetadata(id, opts)
			}
			if tree == nil {
				tree = syntax.FromBuffer(ld.sm, id, inherited)
			}
			tree.IsLibrary = true
			trees = append(trees, tree)
			tree.AddKnownNames(known)
			tree.CollectMissingNames(known, next)
		}
		missing = next
	}
	return trees
}

// probeSearchDirs looks for name under each search directory in turn,
// trying every registered extension before moving to the next
// directory. Paths already in the cache are skipped: whatever they
// declare is known already.
func (ld *Loader) probeSearchDirs(name string) (source.FileID, bool) {
	for _, dir := range ld.searchDirectories {
		for _, ext := range ld.searchExtensions {
			path := filepath.Join(dir, name+ext)
			if ld.sm.IsCached(path) {
				continue
			}
			if id, err := ld.sm.ReadSource(path, ""); err == nil {
				return id, true
			}
		}
	}
	return 0, false
}
