package elab

import (
	"svlang/internal/diag"
)

// Scope is the symbol table of one instantiated definition. Owned by
// the caller; the builder registers symbols into it as they are
// created, before their values resolve, so sibling declarations can
// see them.
type Scope struct {
	// DefinitionName is the instantiated definition, used in
	// diagnostics.
	DefinitionName string

	reporter diag.Reporter
	members  []Symbol
	index    map[string]Symbol
}

// NewScope creates a scope for the named definition. Diagnostics from
// elaboration inside the scope flow to r; nil drops them.
func NewScope(definitionName string, r diag.Reporter) *Scope {
	if r == nil {
		r = diag.NopReporter{}
	}
	return &Scope{
		DefinitionName: definitionName,
		reporter:       r,
		index:          make(map[string]Symbol),
	}
}

// AddMember registers a symbol. The first registration of a name wins
// the index slot; redeclaration is the semantic layer's problem, not
// handled here.
func (s *Scope) AddMember(sym Symbol) {
	s.members = append(s.members, sym)
	if _, ok := s.index[sym.SymbolName()]; !ok {
		s.index[sym.SymbolName()] = sym
	}
}

// Lookup finds a member by name.
func (s *Scope) Lookup(name string) (Symbol, bool) {
	sym, ok := s.index[name]
	return sym, ok
}

// Members returns the symbols in registration order.
func (s *Scope) Members() []Symbol {
	return s.members
}

// Reporter exposes the diagnostic sink reachable from this scope.
func (s *Scope) Reporter() diag.Reporter {
	return s.reporter
}
