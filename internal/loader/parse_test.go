package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"svlang/internal/source"
	"svlang/internal/syntax"
)

func declNames(t *testing.T, trees []*syntax.Tree) map[string]bool {
	t.Helper()
	names := make(map[string]bool)
	for _, tree := range trees {
		for _, d := range tree.Meta.TopLevelDecls {
			names[d.Name] = true
		}
	}
	return names
}

func TestLoadAndParseBasic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.sv", "module a; endmodule\n")
	writeFile(t, dir, "b.sv", "module b; endmodule\n")

	ld := New(source.NewManager(), nil)
	ld.AddFiles(filepath.Join(dir, "*.sv"))

	trees, err := ld.LoadAndParseSources(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(trees) != 2 {
		t.Fatalf("trees = %d, want 2", len(trees))
	}
	for _, tree := range trees {
		if tree.IsLibrary {
			t.Error("direct files should not parse as libraries")
		}
	}
	names := declNames(t, trees)
	if !names["a"] || !names["b"] {
		t.Errorf("decls = %v, want a and b", names)
	}
}

func TestLoadAndParseParallel(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 12; i++ {
		writeFile(t, dir, fmt.Sprintf("m%02d.sv", i), fmt.Sprintf("module m%02d; endmodule\n", i))
	}

	ld := New(source.NewManager(), nil)
	ld.AddFiles(filepath.Join(dir, "*.sv"))

	trees, err := ld.LoadAndParseSources(context.Background(), Options{NumThreads: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(trees) != 12 {
		t.Fatalf("trees = %d, want 12", len(trees))
	}
	names := declNames(t, trees)
	for i := 0; i < 12; i++ {
		if !names[fmt.Sprintf("m%02d", i)] {
			t.Errorf("missing module m%02d", i)
		}
	}
}

func TestSingleUnitConcatenatesDirectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.sv", "module a; endmodule\n")
	writeFile(t, dir, "b.sv", "module b; endmodule\n")
	libFile := writeFile(t, dir, "lib.sv", "module c; endmodule\n")

	ld := New(source.NewManager(), nil)
	ld.AddFiles(filepath.Join(dir, "a.sv"))
	ld.AddFiles(filepath.Join(dir, "b.sv"))
	ld.AddLibraryFiles("extras", libFile)

	trees, err := ld.LoadAndParseSources(context.Background(), Options{SingleUnit: true})
	if err != nil {
		t.Fatal(err)
	}
	// One library tree plus one merged unit.
	if len(trees) != 2 {
		t.Fatalf("trees = %d, want 2", len(trees))
	}

	var unit, lib *syntax.Tree
	for _, tree := range trees {
		if tree.IsLibrary {
			lib = tree
		} else {
			unit = tree
		}
	}
	if unit == nil || lib == nil {
		t.Fatal("expected one unit tree and one library tree")
	}
	if len(unit.Files) != 2 {
		t.Errorf("unit files = %d, want 2", len(unit.Files))
	}
	names := declNames(t, []*syntax.Tree{unit})
	if !names["a"] || !names["b"] {
		t.Errorf("unit decls = %v, want a and b", names)
	}
}

func TestLibrariesInheritMacros(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "unit.sv", "`define WIDTH 8\nmodule top; endmodule\n")
	libFile := writeFile(t, dir, "lib.sv", "`define WIDTH 16\nmodule helper; endmodule\n")

	ld := New(source.NewManager(), nil)
	ld.AddFiles(filepath.Join(dir, "unit.sv"))
	ld.AddLibraryFiles("helpers", libFile)

	trees, err := ld.LoadAndParseSources(context.Background(), Options{LibrariesInheritMacros: true})
	if err != nil {
		t.Fatal(err)
	}

	var lib *syntax.Tree
	for _, tree := range trees {
		if tree.IsLibrary {
			lib = tree
		}
	}
	if lib == nil {
		t.Fatal("expected a library tree")
	}
	// The unit's WIDTH is visible, so the library's redefinition does
	// not register as a fresh macro.
	for _, m := range lib.DefinedMacros() {
		if m.Name == "WIDTH" {
			t.Error("inherited macro should not be redefined by the library tree")
		}
	}
}

func TestOnlyLintMarksAllTreesLibrary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.sv", "module a; endmodule\n")
	writeFile(t, dir, "b.sv", "module b; endmodule\n")

	ld := New(source.NewManager(), nil)
	ld.AddFiles(filepath.Join(dir, "*.sv"))

	trees, err := ld.LoadAndParseSources(context.Background(), Options{OnlyLint: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, tree := range trees {
		if !tree.IsLibrary {
			t.Error("lint mode should mark every tree as a library")
		}
	}
}

func TestSearchDirectoryDiscoveryFixedPoint(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.sv", "module top; alpha a1(); endmodule\n")
	// alpha pulls in beta, which must be found in a second pass.
	writeFile(t, dir, "deps/alpha.sv", "module alpha; beta b1(); endmodule\n")
	writeFile(t, dir, "deps/beta.v", "module beta; endmodule\n")

	ld := New(source.NewManager(), nil)
	ld.AddFiles(filepath.Join(dir, "top.sv"))
	ld.AddSearchDirectories(filepath.Join(dir, "deps"))

	trees, err := ld.LoadAndParseSources(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(trees) != 3 {
		t.Fatalf("trees = %d, want 3", len(trees))
	}
	names := declNames(t, trees)
	for _, want := range []string{"top", "alpha", "beta"} {
		if !names[want] {
			t.Errorf("missing discovered module %q", want)
		}
	}
	var libs int
	for _, tree := range trees {
		if tree.IsLibrary {
			libs++
		}
	}
	if libs != 2 {
		t.Errorf("library trees = %d, want 2 (the discovered ones)", libs)
	}
}

// recordedMetadata serves a canned tree for one path and counts hits.
type recordedMetadata struct {
	path string
	decl string
	hits int
}

func (r *recordedMetadata) Load(file *source.File) (*syntax.Tree, bool) {
	if file.Path != r.path {
		return nil, false
	}
	r.hits++
	tree := &syntax.Tree{}
	tree.Meta.TopLevelDecls = []syntax.NameRef{{Name: r.decl}}
	return tree, true
}

func TestMetadataRecallSkipsExtraction(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.sv", "module a; endmodule\n")
	writeFile(t, dir, "b.sv", "module b; endmodule\n")

	provider := &recordedMetadata{path: source.NormalizePath(path), decl: "recalled"}
	ld := New(source.NewManager(), nil)
	ld.AddFiles(filepath.Join(dir, "*.sv"))

	trees, err := ld.LoadAndParseSources(context.Background(), Options{Metadata: provider})
	if err != nil {
		t.Fatal(err)
	}
	if provider.hits != 1 {
		t.Fatalf("provider hits = %d, want 1", provider.hits)
	}
	names := declNames(t, trees)
	if !names["recalled"] || names["a"] {
		t.Errorf("decls = %v, want the recalled view instead of a fresh parse", names)
	}
	if !names["b"] {
		t.Errorf("decls = %v, missing the freshly parsed unit", names)
	}
}

func TestDiscoveryMutualReferenceTerminates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.sv", "module top; m1 u1(); endmodule\n")
	// m1 and m2 reference each other; the cache-skip keeps the second
	// pass from probing either file again.
	writeFile(t, dir, "deps/m1.sv", "module m1; m2 u2(); endmodule\n")
	writeFile(t, dir, "deps/m2.sv", "module m2; m1 u1(); endmodule\n")

	ld := New(source.NewManager(), nil)
	ld.AddFiles(filepath.Join(dir, "top.sv"))
	ld.AddSearchDirectories(filepath.Join(dir, "deps"))

	trees, err := ld.LoadAndParseSources(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(trees) != 3 {
		t.Fatalf("trees = %d, want 3", len(trees))
	}
	names := declNames(t, trees)
	for _, want := range []string{"top", "m1", "m2"} {
		if !names[want] {
			t.Errorf("missing discovered module %q", want)
		}
	}
}

func TestDiscoveryPrefersEarlierExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.sv", "module top; alpha a1(); endmodule\n")
	writeFile(t, dir, "deps/alpha.v", "module alpha; endmodule\n")
	writeFile(t, dir, "deps/alpha.sv", "module wrong; endmodule\n")

	ld := New(source.NewManager(), nil)
	ld.AddFiles(filepath.Join(dir, "top.sv"))
	ld.AddSearchDirectories(filepath.Join(dir, "deps"))

	trees, err := ld.LoadAndParseSources(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	names := declNames(t, trees)
	if !names["alpha"] {
		t.Error("alpha.v should have been probed before alpha.sv")
	}
	if names["wrong"] {
		t.Error("alpha.sv should not have been loaded")
	}
}

func TestDiscoveryLeavesUnresolvedNamesAlone(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.sv", "module top; ghost g1(); endmodule\n")

	ld := New(source.NewManager(), nil)
	ld.AddFiles(filepath.Join(dir, "top.sv"))
	ld.AddSearchDirectories(dir)

	trees, err := ld.LoadAndParseSources(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	// The unresolved reference is left for elaboration to report.
	if len(trees) != 1 {
		t.Fatalf("trees = %d, want 1", len(trees))
	}
	if len(ld.Errors()) != 0 {
		t.Errorf("unexpected errors: %v", ld.Errors())
	}
}

func TestDiscoverySkipsCachedPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.sv", "module top; alpha a1(); endmodule\n")
	alpha := writeFile(t, dir, "deps/alpha.sv", "module alpha; endmodule\n")

	ld := New(source.NewManager(), nil)
	ld.AddFiles(filepath.Join(dir, "top.sv"))
	ld.AddFiles(alpha)
	ld.AddSearchDirectories(filepath.Join(dir, "deps"))

	trees, err := ld.LoadAndParseSources(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	// alpha was loaded directly; the probe must not add it again.
	if len(trees) != 2 {
		t.Fatalf("trees = %d, want 2", len(trees))
	}
}

func TestCancelledContextStopsParse(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 8; i++ {
		writeFile(t, dir, fmt.Sprintf("m%d.sv", i), "module m; endmodule\n")
	}

	ld := New(source.NewManager(), nil)
	ld.AddFiles(filepath.Join(dir, "*.sv"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ld.LoadAndParseSources(ctx, Options{}); err == nil {
		t.Error("expected cancellation error")
	}
}
