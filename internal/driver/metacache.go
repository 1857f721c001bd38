package driver

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"svlang/internal/project"
	"svlang/internal/source"
	"svlang/internal/syntax"
)

// Current schema version - increment when MetaPayload format changes.
const metaCacheSchemaVersion uint16 = 1

// MetaCache persists per-unit parse metadata on disk, keyed by the
// content hash of the unit's files. Thread-safe for concurrent access.
type MetaCache struct {
	mu  sync.RWMutex
	dir string
}

// MetaPayload is the cached summary of one parsed compilation unit:
// enough to answer "what does this unit declare and reference"
// without reparsing.
type MetaPayload struct {
	// Schema version for safe invalidation when the format changes.
	Schema uint16

	Paths      []string
	FileHashes []project.Digest
	Library    string
	IsLibrary  bool

	Declarations   []string
	Classes        []string
	Instantiations []string
	PackageImports []string
	InterfacePorts []string
	ScopedRefs     []string
	Macros         []string
}

// Key aggregates the unit's file hashes into the cache key.
func (p *MetaPayload) Key() project.Digest {
	if len(p.FileHashes) == 0 {
		return project.Digest{}
	}
	return project.Combine(p.FileHashes[0], p.FileHashes[1:]...)
}

// OpenMetaCache initializes a cache at the standard user location.
func OpenMetaCache(app string) (*MetaCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenMetaCacheDir(filepath.Join(base, app))
}

// OpenMetaCacheDir initializes a cache rooted at an explicit
// directory.
func OpenMetaCacheDir(dir string) (*MetaCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &MetaCache{dir: dir}, nil
}

func (c *MetaCache) pathFor(key project.Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "units", hexKey+".mp")
}

// Put serializes and writes a payload, replacing atomically.
func (c *MetaCache) Put(key project.Digest, payload *MetaPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a payload; the bool reports a hit. A payload with a stale
// schema counts as a miss.
func (c *MetaCache) Get(key project.Digest, out *MetaPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != metaCacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *MetaCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// SnapshotTree converts a parsed tree into its cacheable summary.
func SnapshotTree(m *source.Manager, tree *syntax.Tree) *MetaPayload {
	payload := &MetaPayload{
		Schema:    metaCacheSchemaVersion,
		IsLibrary: tree.IsLibrary,
	}
	for _, id := range tree.Files {
		f := m.Get(id)
		if f == nil {
			continue
		}
		payload.Paths = append(payload.Paths, f.Path)
		payload.FileHashes = append(payload.FileHashes, project.Digest(f.Hash))
		if payload.Library == "" {
			payload.Library = f.Library
		}
	}
	payload.Declarations = refNames(tree.Meta.TopLevelDecls)
	payload.Classes = refNames(tree.Meta.ClassDecls)
	payload.Instantiations = refNames(tree.Meta.Instantiations)
	payload.PackageImports = refNames(tree.Meta.PackageImports)
	payload.InterfacePorts = refNames(tree.Meta.InterfacePorts)
	payload.ScopedRefs = refNames(tree.Meta.ScopedRefs)
	payload.Macros = macroNames(tree.Macros)
	return payload
}

// Tree rebuilds the metadata-only view of a cached unit. Spans are
// zero: a recalled tree feeds name resolution, never diagnostics.
// Library visibility and file IDs are the caller's to fill in.
func (p *MetaPayload) Tree() *syntax.Tree {
	tree := &syntax.Tree{}
	for _, name := range p.Macros {
		tree.Macros = append(tree.Macros, syntax.Macro{Name: name})
	}
	tree.Meta.TopLevelDecls = nameRefs(p.Declarations)
	tree.Meta.ClassDecls = nameRefs(p.Classes)
	tree.Meta.Instantiations = nameRefs(p.Instantiations)
	tree.Meta.PackageImports = nameRefs(p.PackageImports)
	tree.Meta.InterfacePorts = nameRefs(p.InterfacePorts)
	tree.Meta.ScopedRefs = nameRefs(p.ScopedRefs)
	return tree
}

func storeMetadata(c *MetaCache, m *source.Manager, trees []*syntax.Tree) {
	for _, tree := range trees {
		payload := SnapshotTree(m, tree)
		// A cache write failure never fails the load.
		_ = c.Put(payload.Key(), payload)
	}
}

// metadataSource adapts the disk cache to the loader's recall
// interface: single-buffer lookups keyed by content hash.
type metadataSource struct {
	cache *MetaCache
}

func (s metadataSource) Load(file *source.File) (*syntax.Tree, bool) {
	var payload MetaPayload
	hit, err := s.cache.Get(project.Combine(project.Digest(file.Hash)), &payload)
	if err != nil || !hit {
		return nil, false
	}
	return payload.Tree(), true
}

func refNames(refs []syntax.NameRef) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Name
	}
	return out
}

func nameRefs(names []string) []syntax.NameRef {
	if len(names) == 0 {
		return nil
	}
	out := make([]syntax.NameRef, len(names))
	for i, name := range names {
		out[i] = syntax.NameRef{Name: name}
	}
	return out
}

func macroNames(macros []syntax.Macro) []string {
	if len(macros) == 0 {
		return nil
	}
	out := make([]string, len(macros))
	for i, m := range macros {
		out[i] = m.Name
	}
	return out
}
