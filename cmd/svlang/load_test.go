package main

import (
	"testing"
)

func resetLoadFlags() {
	loadLibFiles = nil
	loadLibMaps = nil
	loadSearchDirs = nil
	loadExtensions = nil
	loadSingleUnit = false
	loadInheritMac = false
	loadLintOnly = false
	loadJobs = 0
}

func TestLoadOptionsLibParsing(t *testing.T) {
	resetLoadFlags()
	t.Cleanup(resetLoadFlags)

	loadLibFiles = []string{"rtl=rtl/*.sv", "rtl=extra/*.sv", "tb=tb/*.sv"}
	opts, err := loadOptions([]string{"top.sv"})
	if err != nil {
		t.Fatal(err)
	}
	if len(opts.LibraryFiles["rtl"]) != 2 || len(opts.LibraryFiles["tb"]) != 1 {
		t.Errorf("library files = %v", opts.LibraryFiles)
	}
	if len(opts.Files) != 1 || opts.Files[0] != "top.sv" {
		t.Errorf("files = %v", opts.Files)
	}
}

func TestLoadOptionsRejectsBadLibSpec(t *testing.T) {
	resetLoadFlags()
	t.Cleanup(resetLoadFlags)

	for _, spec := range []string{"rtl", "=x.sv", "rtl="} {
		loadLibFiles = []string{spec}
		if _, err := loadOptions([]string{"top.sv"}); err == nil {
			t.Errorf("spec %q should be rejected", spec)
		}
	}
}

func TestDiagLimit(t *testing.T) {
	got, err := diagLimit(100)
	if err != nil || got != 100 {
		t.Errorf("diagLimit(100) = %d, %v", got, err)
	}
	for _, v := range []int{-1, 1 << 16} {
		if _, err := diagLimit(v); err == nil {
			t.Errorf("diagLimit(%d) should fail", v)
		}
	}
}

func TestLoadOptionsInheritMacros(t *testing.T) {
	resetLoadFlags()
	t.Cleanup(resetLoadFlags)

	loadInheritMac = true
	loadSearchDirs = []string{"deps"}
	loadExtensions = []string{".svh"}
	opts, err := loadOptions([]string{"top.sv"})
	if err != nil {
		t.Fatal(err)
	}
	if !opts.LibrariesInheritMacros {
		t.Error("inherit-macros flag not applied")
	}
	if len(opts.SearchDirs) != 1 || len(opts.Extensions) != 1 {
		t.Errorf("opts = %+v", opts)
	}
}
