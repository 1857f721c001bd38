// Package loader implements source resolution and loading: deciding
// which files take part in a compilation, which library each belongs
// to, how they group into compilation units, and parsing them with
// on-demand discovery of dependencies along search directories.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"svlang/internal/diag"
	"svlang/internal/glob"
	"svlang/internal/source"
	"svlang/internal/syntax"
)

// Sentinel errors surfaced through the loader's error list.
var (
	// ErrAmbiguousLibrary marks a file claimed by two libraries with
	// equal pattern specificity.
	ErrAmbiguousLibrary = errors.New("ambiguous library ownership")
	// ErrIncludeCycle marks a library map included (directly or not)
	// from itself.
	ErrIncludeCycle = errors.New("library map include cycle")
)

// Library is the named identity of a source library. Instances are
// owned by the Loader's registry and live for the whole session.
type Library struct {
	Name string
	// IncDirs are the include directories attached by library map
	// declarations.
	IncDirs []string
}

// FileEntry tracks one file to be loaded, unique by path.
type FileEntry struct {
	Path string
	// IsLibraryFile only ever transitions true -> false: a file seen
	// even once as directly specified stays a direct file.
	IsLibraryFile bool
	// Library owning the file, or nil for direct files.
	Library *Library
	// LibraryRank is the specificity of the pattern that claimed the
	// file for Library; lower is more specific.
	LibraryRank glob.Rank
	// SecondLib records an unresolved equal-rank claim. It is
	// surfaced as an ErrAmbiguousLibrary load error; the
	// first-registered library still wins.
	SecondLib *Library
}

// FileError is one non-fatal path-level failure. Callers inspect the
// loader's error list after loading; a non-empty list does not stop
// other work.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Loader orchestrates pattern expansion, library mapping, and parsing.
// Registration methods are not safe for concurrent use; parsing
// parallelism is internal.
type Loader struct {
	sm       *source.Manager
	reporter diag.Reporter

	fileEntries []FileEntry
	fileIndex   map[string]int // normalized path -> fileEntries index

	libraries   map[string]*Library
	libraryMaps []*syntax.LibraryMap
	visitedMaps map[string]struct{}

	searchDirectories []string
	searchExtensions  []string
	uniqueExtensions  map[string]struct{}

	errors []FileError
}

// New creates a Loader over the given source manager. Library map
// parse diagnostics go to r; nil means they are dropped.
func New(sm *source.Manager, r diag.Reporter) *Loader {
	if r == nil {
		r = diag.NopReporter{}
	}
	ld := &Loader{
		sm:               sm,
		reporter:         r,
		fileIndex:        make(map[string]int),
		libraries:        make(map[string]*Library),
		visitedMaps:      make(map[string]struct{}),
		uniqueExtensions: make(map[string]struct{}),
	}
	// Always searched when probing for library modules, before any
	// user-provided extensions.
	for _, ext := range []string{".v", ".sv"} {
		ld.uniqueExtensions[ext] = struct{}{}
		ld.searchExtensions = append(ld.searchExtensions, ext)
	}
	return ld
}

// AddFiles expands a pattern into direct (non-library) file entries.
// Expansion failures accumulate on the error list.
func (ld *Loader) AddFiles(pattern string) {
	ld.addFilesInternal(pattern, "", false, nil, false)
}

// AddLibraryFiles expands a pattern into file entries owned by the
// named library, creating the library identity if new.
func (ld *Loader) AddLibraryFiles(libName, pattern string) {
	ld.addFilesInternal(pattern, "", true, ld.getOrAddLibrary(libName), false)
}

// AddLibraryIncDirs expands a directory pattern and attaches the
// results as include directories of the named library, creating the
// library identity if new.
func (ld *Loader) AddLibraryIncDirs(libName, pattern string) {
	dirs, _, err := glob.Expand("", pattern, glob.ModeDirectories, false)
	if err != nil {
		ld.errors = append(ld.errors, FileError{Path: pattern, Err: err})
		return
	}
	lib := ld.getOrAddLibrary(libName)
	lib.IncDirs = append(lib.IncDirs, dirs...)
}

// AddSearchDirectories registers fallback directories for dependency
// discovery.
func (ld *Loader) AddSearchDirectories(pattern string) {
	dirs, _, err := glob.Expand("", pattern, glob.ModeDirectories, false)
	if err != nil {
		ld.errors = append(ld.errors, FileError{Path: pattern, Err: err})
		return
	}
	ld.searchDirectories = append(ld.searchDirectories, dirs...)
}

// AddSearchExtension registers an additional file suffix recognized
// during dependency discovery. Duplicates are ignored.
func (ld *Loader) AddSearchExtension(ext string) {
	if _, ok := ld.uniqueExtensions[ext]; ok {
		return
	}
	ld.uniqueExtensions[ext] = struct{}{}
	ld.searchExtensions = append(ld.searchExtensions, ext)
}

// AddLibraryMaps expands a pattern into library map files and
// processes each: library declarations register their file lists as
// library files rooted at the map's directory, include statements
// recurse into further maps. A map visited twice (an include cycle or
// a repeated registration) is skipped and recorded on the error list.
func (ld *Loader) AddLibraryMaps(pattern, basePath string, expandEnvVars bool) {
	files, _, err := glob.Expand(basePath, pattern, glob.ModeFiles, expandEnvVars)
	if err != nil {
		ld.errors = append(ld.errors, FileError{Path: pattern, Err: err})
		return
	}

	for _, path := range files {
		norm := source.NormalizePath(path)
		if _, seen := ld.visitedMaps[norm]; seen {
			ld.errors = append(ld.errors, FileError{Path: path, Err: ErrIncludeCycle})
			continue
		}
		ld.visitedMaps[norm] = struct{}{}

		id, err := ld.sm.ReadSource(path, "")
		if err != nil {
			ld.errors = append(ld.errors, FileError{Path: path, Err: err})
			continue
		}

		doc := syntax.ParseLibraryMap(ld.sm, id, ld.reporter)
		ld.libraryMaps = append(ld.libraryMaps, doc)

		parentDir := filepath.Dir(path)
		for _, member := range doc.Members {
			switch member.Kind {
			case syntax.MapMemberConfig, syntax.MapMemberEmpty:
				// Opaque to this subsystem.
			case syntax.MapMemberInclude:
				ld.AddLibraryMaps(member.Path.Pattern, parentDir, true)
			case syntax.MapMemberLibrary:
				ld.createLibrary(member, parentDir)
			default:
				panic(fmt.Sprintf("unhandled library map member kind %d", member.Kind))
			}
		}
	}
}

// LoadSources reads every registered file through the cache and
// returns the successfully read buffers, in registration order.
// Per-file failures accumulate on the error list.
func (ld *Loader) LoadSources() []*source.File {
	results := make([]*source.File, 0, len(ld.fileEntries))
	for i := range ld.fileEntries {
		entry := &ld.fileEntries[i]
		id, err := ld.sm.ReadSource(entry.Path, entry.libraryName())
		if err != nil {
			ld.errors = append(ld.errors, FileError{Path: entry.Path, Err: err})
			continue
		}
		results = append(results, ld.sm.Get(id))
	}
	return results
}

// Errors returns the accumulated path-level failures.
func (ld *Loader) Errors() []FileError {
	return ld.errors
}

// HasFiles reports whether any file entries are registered.
func (ld *Loader) HasFiles() bool {
	return len(ld.fileEntries) > 0
}

// FileEntries returns a read-only view of the registered entries.
func (ld *Loader) FileEntries() []FileEntry {
	return ld.fileEntries
}

// GetLibrary returns the library identity for name, if registered.
func (ld *Loader) GetLibrary(name string) (*Library, bool) {
	lib, ok := ld.libraries[name]
	return lib, ok
}

// Libraries returns all registered libraries sorted by name.
func (ld *Loader) Libraries() []*Library {
	out := make([]*Library, 0, len(ld.libraries))
	for _, lib := range ld.libraries {
		out = append(out, lib)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LibraryMaps returns the parsed map documents, kept alive for the
// session so diagnostics can reference locations inside them.
func (ld *Loader) LibraryMaps() []*syntax.LibraryMap {
	return ld.libraryMaps
}

func (ld *Loader) getOrAddLibrary(name string) *Library {
	if name == "" {
		return nil
	}
	lib, ok := ld.libraries[name]
	if !ok {
		lib = &Library{Name: name}
		ld.libraries[name] = lib
	}
	return lib
}

func (ld *Loader) createLibrary(member syntax.MapMember, basePath string) {
	if member.Name == "" {
		return
	}

	lib := ld.getOrAddLibrary(member.Name)
	for _, spec := range member.FilePaths {
		ld.addFilesInternal(spec.Pattern, basePath, true, lib, true)
	}
	for _, spec := range member.IncDirs {
		dirs, _, err := glob.Expand(basePath, spec.Pattern, glob.ModeDirectories, true)
		if err != nil {
			ld.errors = append(ld.errors, FileError{Path: spec.Pattern, Err: err})
			continue
		}
		lib.IncDirs = append(lib.IncDirs, dirs...)
	}
}

func (ld *Loader) addFilesInternal(pattern, basePath string, isLibraryFile bool, library *Library, expandEnvVars bool) {
	files, rank, err := glob.Expand(basePath, pattern, glob.ModeFiles, expandEnvVars)
	if err != nil {
		ld.errors = append(ld.errors, FileError{Path: pattern, Err: err})
		return
	}

	for _, path := range files {
		norm := source.NormalizePath(path)
		idx, exists := ld.fileIndex[norm]
		if !exists {
			ld.fileIndex[norm] = len(ld.fileEntries)
			ld.fileEntries = append(ld.fileEntries, FileEntry{
				Path:          norm,
				IsLibraryFile: isLibraryFile,
				Library:       library,
				LibraryRank:   rank,
			})
			continue
		}

		entry := &ld.fileEntries[idx]
		// Once seen as a direct file, always a direct file.
		entry.IsLibraryFile = entry.IsLibraryFile && isLibraryFile

		if library == nil {
			continue
		}
		switch {
		case entry.Library == nil || rank < entry.LibraryRank:
			// More specific pattern overrules the previous owner.
			entry.Library = library
			entry.LibraryRank = rank
			entry.SecondLib = nil
		case rank == entry.LibraryRank && library != entry.Library:
			// Ties are remembered, not resolved; the first-registered
			// library keeps the file and the conflict is reported at
			// load time.
			entry.SecondLib = library
		}
	}
}

func (e *FileEntry) libraryName() string {
	if e.Library == nil {
		return ""
	}
	return e.Library.Name
}
