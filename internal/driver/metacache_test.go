package driver

import (
	"path/filepath"
	"testing"

	"svlang/internal/project"
)

func TestMetaCacheRoundtrip(t *testing.T) {
	cache, err := OpenMetaCacheDir(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}

	payload := &MetaPayload{
		Schema:         metaCacheSchemaVersion,
		Paths:          []string{"/rtl/top.sv"},
		FileHashes:     []project.Digest{project.HashBytes([]byte("module top; endmodule"))},
		Library:        "rtl_lib",
		IsLibrary:      true,
		Declarations:   []string{"top"},
		Instantiations: []string{"core"},
		ScopedRefs:     []string{"pkg"},
		Macros:         []string{"WIDTH"},
	}
	if err := cache.Put(payload.Key(), payload); err != nil {
		t.Fatal(err)
	}

	var got MetaPayload
	hit, err := cache.Get(payload.Key(), &got)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Fatal("expected a hit")
	}
	if got.Library != "rtl_lib" || !got.IsLibrary {
		t.Errorf("payload = %+v", got)
	}
	if len(got.Instantiations) != 1 || got.Instantiations[0] != "core" {
		t.Errorf("instantiations = %v", got.Instantiations)
	}
	if len(got.ScopedRefs) != 1 || got.ScopedRefs[0] != "pkg" {
		t.Errorf("scoped refs = %v", got.ScopedRefs)
	}
}

func TestMetaPayloadTree(t *testing.T) {
	payload := &MetaPayload{
		Schema:         metaCacheSchemaVersion,
		Declarations:   []string{"top"},
		Instantiations: []string{"core"},
		InterfacePorts: []string{"bus_if"},
		ScopedRefs:     []string{"pkg"},
		Macros:         []string{"WIDTH"},
	}
	tree := payload.Tree()
	if len(tree.Meta.TopLevelDecls) != 1 || tree.Meta.TopLevelDecls[0].Name != "top" {
		t.Errorf("decls = %v", tree.Meta.TopLevelDecls)
	}
	if len(tree.Meta.InterfacePorts) != 1 || tree.Meta.InterfacePorts[0].Name != "bus_if" {
		t.Errorf("interface ports = %v", tree.Meta.InterfacePorts)
	}
	if len(tree.Macros) != 1 || tree.Macros[0].Name != "WIDTH" {
		t.Errorf("macros = %v", tree.Macros)
	}

	// The recalled references must still drive discovery.
	known := map[string]struct{}{"core": {}}
	missing := make(map[string]struct{})
	tree.CollectMissingNames(known, missing)
	if _, ok := missing["bus_if"]; !ok {
		t.Errorf("missing = %v, want bus_if collected", missing)
	}
	if _, ok := missing["pkg"]; !ok {
		t.Errorf("missing = %v, want pkg collected", missing)
	}
}

func TestMetaCacheMiss(t *testing.T) {
	cache, err := OpenMetaCacheDir(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	var got MetaPayload
	hit, err := cache.Get(project.HashBytes([]byte("never stored")), &got)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("expected a miss")
	}
}

func TestMetaCacheStaleSchemaIsMiss(t *testing.T) {
	cache, err := OpenMetaCacheDir(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}

	payload := &MetaPayload{
		Schema:     metaCacheSchemaVersion + 1,
		FileHashes: []project.Digest{project.HashBytes([]byte("x"))},
	}
	if err := cache.Put(payload.Key(), payload); err != nil {
		t.Fatal(err)
	}
	var got MetaPayload
	hit, err := cache.Get(payload.Key(), &got)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("stale schema should read as a miss")
	}
}

func TestMetaCacheNilIsNoop(t *testing.T) {
	var cache *MetaCache
	if err := cache.Put(project.Digest{}, &MetaPayload{}); err != nil {
		t.Fatal(err)
	}
	hit, err := cache.Get(project.Digest{}, &MetaPayload{})
	if err != nil || hit {
		t.Errorf("nil cache: hit=%v err=%v", hit, err)
	}
}
