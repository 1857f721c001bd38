// Package syntax provides the syntax-level collaborators of the
// loading pipeline and the elaboration engine: a lightweight scanner,
// compilation-unit trees with the metadata the loader consumes
// (declared names, unresolved references, defined macros), library map
// documents, and parameter declaration/assignment nodes.
package syntax

import (
	"svlang/internal/source"
)

// Macro is a preprocessor definition carried across compilation units.
type Macro struct {
	Name string
	Span source.Span
}

// NameRef is a name occurrence with its location.
type NameRef struct {
	Name string
	Span source.Span
}

// Metadata is what the loader reads off a parsed tree: globally
// visible declarations and the references that may need other files.
type Metadata struct {
	// TopLevelDecls are module/interface/package/program declarations
	// visible to other units.
	TopLevelDecls []NameRef
	// ClassDecls are top-level class declarations.
	ClassDecls []NameRef
	// Instantiations are module/interface instantiations by name.
	Instantiations []NameRef
	// PackageImports are the package names in import statements.
	PackageImports []NameRef
	// InterfacePorts are interface-typed port declarations.
	InterfacePorts []NameRef
	// ScopedRefs are `X::...` scope references (class or package).
	ScopedRefs []NameRef
}

// Tree is one parsed compilation unit (one or more buffers sharing a
// macro namespace) or a single library file.
type Tree struct {
	Files []source.FileID
	// IsLibrary restricts downstream symbol visibility.
	IsLibrary bool
	// Macros defined by this unit, usable by later units.
	Macros []Macro
	Meta   Metadata
}

// FromBuffer parses a single buffer with an optional inherited macro
// set.
func FromBuffer(m *source.Manager, id source.FileID, inherited []Macro) *Tree {
	return FromBuffers(m, []source.FileID{id}, inherited)
}

// FromBuffers parses a set of buffers as one compilation unit with a
// shared macro namespace.
func FromBuffers(m *source.Manager, ids []source.FileID, inherited []Macro) *Tree {
	t := &Tree{Files: ids}
	names := source.NewInterner()

	defined := make(map[string]struct{}, len(inherited))
	for _, mac := range inherited {
		defined[mac.Name] = struct{}{}
	}

	for _, id := range ids {
		ex := newExtractor(m.Get(id), names)
		ex.run()

		for _, mac := range ex.macros {
			if _, ok := defined[mac.Name]; ok {
				continue
			}
			defined[mac.Name] = struct{}{}
			t.Macros = append(t.Macros, mac)
		}
		t.Meta.TopLevelDecls = append(t.Meta.TopLevelDecls, ex.meta.TopLevelDecls...)
		t.Meta.ClassDecls = append(t.Meta.ClassDecls, ex.meta.ClassDecls...)
		t.Meta.Instantiations = append(t.Meta.Instantiations, ex.meta.Instantiations...)
		t.Meta.PackageImports = append(t.Meta.PackageImports, ex.meta.PackageImports...)
		t.Meta.InterfacePorts = append(t.Meta.InterfacePorts, ex.meta.InterfacePorts...)
		t.Meta.ScopedRefs = append(t.Meta.ScopedRefs, ex.meta.ScopedRefs...)
	}

	return t
}

// DefinedMacros returns the macros this unit defines, for inheritance
// by later units.
func (t *Tree) DefinedMacros() []Macro {
	return t.Macros
}

// AddKnownNames inserts every globally visible declared name into set.
func (t *Tree) AddKnownNames(set map[string]struct{}) {
	for _, d := range t.Meta.TopLevelDecls {
		set[d.Name] = struct{}{}
	}
	for _, d := range t.Meta.ClassDecls {
		set[d.Name] = struct{}{}
	}
}

// CollectMissingNames adds every referenced name not present in known
// to missing.
func (t *Tree) CollectMissingNames(known, missing map[string]struct{}) {
	add := func(refs []NameRef) {
		for _, r := range refs {
			if r.Name == "" {
				continue
			}
			if _, ok := known[r.Name]; !ok {
				missing[r.Name] = struct{}{}
			}
		}
	}
	add(t.Meta.Instantiations)
	add(t.Meta.PackageImports)
	add(t.Meta.InterfacePorts)
	add(t.Meta.ScopedRefs)
}
