package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"svlang/internal/diag"
	"svlang/internal/project"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunLoadsAndParses(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rtl/top.sv", "module top; core c1(); endmodule\n")
	writeFile(t, dir, "deps/core.sv", "module core; endmodule\n")

	opts := Options{
		Files:      []string{"rtl/*.sv"},
		SearchDirs: []string{"deps"},
		BaseDir:    dir,
	}
	res, err := opts.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Items())
	}
	if len(res.Trees) != 2 {
		t.Fatalf("trees = %d, want top plus discovered core", len(res.Trees))
	}
}

func TestRunReportsLoadErrors(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		Files:   []string{"nonexistent.sv"},
		BaseDir: dir,
	}
	res, err := opts.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Bag.HasErrors() {
		t.Fatal("expected a load diagnostic")
	}
	if res.Bag.Items()[0].Code != diag.LoadBadPattern {
		t.Errorf("code = %v, want bad pattern", res.Bag.Items()[0].Code)
	}
}

func TestRunDeduplicatesRepeatedErrors(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		Files:   []string{"nonexistent.sv", "nonexistent.sv"},
		BaseDir: dir,
	}
	res, err := opts.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := len(res.Bag.Items()); got != 1 {
		t.Fatalf("diagnostics = %d, want the repeated pattern reported once", got)
	}
}

func TestRunFromManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rtl/a.sv", "module a; endmodule\n")
	writeFile(t, dir, "fast/b.sv", "module b; endmodule\n")
	writeFile(t, dir, "fast/inc/defs.svh", "`define FAST\n")
	writeFile(t, dir, "svlang.toml", `
[design]
name = "demo"

[sources]
files = ["rtl/*.sv"]
single_unit = true

[libraries.fastlib]
files = ["fast/*.sv"]
incdirs = ["fast/inc"]
`)

	m, ok, err := project.LoadManifest(dir)
	if err != nil || !ok {
		t.Fatalf("manifest: ok=%v err=%v", ok, err)
	}
	res, err := FromManifest(m).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Items())
	}
	if len(res.Trees) != 2 {
		t.Fatalf("trees = %d, want unit plus library", len(res.Trees))
	}
	lib, ok := res.Loader.GetLibrary("fastlib")
	if !ok {
		t.Fatal("fastlib should be registered")
	}
	want := filepath.ToSlash(filepath.Join(dir, "fast/inc"))
	if len(lib.IncDirs) != 1 || lib.IncDirs[0] != want {
		t.Errorf("incdirs = %v, want [%s]", lib.IncDirs, want)
	}
}

func TestRunPopulatesCache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.sv", "module a; endmodule\n")

	cache, err := OpenMetaCacheDir(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{
		Files:   []string{"a.sv"},
		BaseDir: dir,
		Cache:   cache,
	}
	res, err := opts.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	payload := SnapshotTree(res.Manager, res.Trees[0])
	var got MetaPayload
	hit, err := cache.Get(payload.Key(), &got)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Fatal("expected a cache hit for the loaded unit")
	}
	if len(got.Declarations) != 1 || got.Declarations[0] != "a" {
		t.Errorf("declarations = %v", got.Declarations)
	}
}

func TestRunServesCachedMetadata(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.sv", "module a; endmodule\n")

	cache, err := OpenMetaCacheDir(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}

	// Seed the cache under the file's content hash with a view that
	// disagrees with the buffer: the only way that view can surface is
	// through a cache read instead of a parse.
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	payload := &MetaPayload{
		Schema:       metaCacheSchemaVersion,
		Paths:        []string{path},
		FileHashes:   []project.Digest{project.HashBytes(content)},
		Declarations: []string{"recalled"},
	}
	if err := cache.Put(payload.Key(), payload); err != nil {
		t.Fatal(err)
	}

	opts := Options{
		Files:   []string{"a.sv"},
		BaseDir: dir,
		Cache:   cache,
	}
	res, err := opts.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Trees) != 1 {
		t.Fatalf("trees = %d, want 1", len(res.Trees))
	}
	decls := res.Trees[0].Meta.TopLevelDecls
	if len(decls) != 1 || decls[0].Name != "recalled" {
		t.Errorf("decls = %v, want the cached view", decls)
	}
}
