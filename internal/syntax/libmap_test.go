package syntax

import (
	"slices"
	"testing"

	"svlang/internal/diag"
	"svlang/internal/source"
)

func parseMap(t *testing.T, src string) (*LibraryMap, *diag.Bag) {
	t.Helper()
	m := source.NewManager()
	id := m.AddVirtual("test.map", []byte(src))
	bag := diag.NewBag(16)
	doc := ParseLibraryMap(m, id, diag.BagReporter{Bag: bag})
	return doc, bag
}

func TestParseLibraryDeclaration(t *testing.T) {
	doc, bag := parseMap(t, `library rtl_lib "rtl/*.sv", "gates/*.v";`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if len(doc.Members) != 1 {
		t.Fatalf("members = %d", len(doc.Members))
	}
	lib := doc.Members[0]
	if lib.Kind != MapMemberLibrary || lib.Name != "rtl_lib" {
		t.Fatalf("member = %+v", lib)
	}
	pats := make([]string, 0, len(lib.FilePaths))
	for _, fp := range lib.FilePaths {
		pats = append(pats, fp.Pattern)
	}
	if !slices.Equal(pats, []string{"rtl/*.sv", "gates/*.v"}) {
		t.Fatalf("patterns = %v", pats)
	}
}

func TestParseLibraryIncdir(t *testing.T) {
	doc, bag := parseMap(t, `library ip "ip/top.sv" -incdir "ip/include", "ip/shared";`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	lib := doc.Members[0]
	if len(lib.FilePaths) != 1 || lib.FilePaths[0].Pattern != "ip/top.sv" {
		t.Fatalf("file paths = %+v", lib.FilePaths)
	}
	dirs := make([]string, 0, len(lib.IncDirs))
	for _, d := range lib.IncDirs {
		dirs = append(dirs, d.Pattern)
	}
	if !slices.Equal(dirs, []string{"ip/include", "ip/shared"}) {
		t.Fatalf("incdirs = %v", dirs)
	}
}

func TestParseIncludeAndEmpty(t *testing.T) {
	doc, bag := parseMap(t, `
;
include "shared/common.map";
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if len(doc.Members) != 2 {
		t.Fatalf("members = %d", len(doc.Members))
	}
	if doc.Members[0].Kind != MapMemberEmpty {
		t.Fatalf("first member = %+v", doc.Members[0])
	}
	inc := doc.Members[1]
	if inc.Kind != MapMemberInclude || inc.Path.Pattern != "shared/common.map" {
		t.Fatalf("include member = %+v", inc)
	}
}

func TestParseConfigSkipped(t *testing.T) {
	doc, bag := parseMap(t, `
config cfg;
  design rtl_lib.top;
endconfig
library l "a.sv";
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if len(doc.Members) != 2 {
		t.Fatalf("members = %d", len(doc.Members))
	}
	if doc.Members[0].Kind != MapMemberConfig {
		t.Fatalf("first member = %+v", doc.Members[0])
	}
	if doc.Members[1].Kind != MapMemberLibrary {
		t.Fatalf("second member = %+v", doc.Members[1])
	}
}

func TestParseUnclosedConfig(t *testing.T) {
	_, bag := parseMap(t, `config cfg; design a.b;`)
	if !bag.HasErrors() {
		t.Fatalf("expected unclosed config diagnostic")
	}
	if bag.Items()[0].Code != diag.MapUnclosedConfig {
		t.Fatalf("code = %v", bag.Items()[0].Code)
	}
}

func TestParseBadMemberRecovers(t *testing.T) {
	doc, bag := parseMap(t, `
bogus stuff here;
library ok "a.sv";
`)
	if !bag.HasErrors() {
		t.Fatalf("expected diagnostic for bogus member")
	}
	if len(doc.Members) != 1 || doc.Members[0].Name != "ok" {
		t.Fatalf("recovery failed: %+v", doc.Members)
	}
}

func TestParseMissingSemicolon(t *testing.T) {
	_, bag := parseMap(t, `include "a.map"`)
	if !bag.HasErrors() {
		t.Fatalf("expected missing-semicolon diagnostic")
	}
	if bag.Items()[0].Code != diag.MapExpectSemicolon {
		t.Fatalf("code = %v", bag.Items()[0].Code)
	}
}
