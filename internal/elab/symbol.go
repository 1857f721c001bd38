package elab

import (
	"svlang/internal/source"
	"svlang/internal/syntax"
	"svlang/internal/types"
)

// Symbol is a bound member of an instantiated scope. Immutable once
// its resolve step completes.
type Symbol interface {
	SymbolName() string
	SymbolLoc() source.Span
}

// ParameterSymbol is the bound result of a value parameter at one
// instantiation.
type ParameterSymbol struct {
	Name     string
	Location source.Span
	IsLocal  bool
	IsPort   bool

	// TypeSyntax and InitSyntax carry the declaration syntax, when
	// any exists.
	TypeSyntax *syntax.Expr
	InitSyntax *syntax.Expr
	// Overridden marks that the initializer came from the
	// instantiation rather than the declaration default.
	Overridden bool

	typ   *types.Type
	value types.Value
}

func (p *ParameterSymbol) SymbolName() string     { return p.Name }
func (p *ParameterSymbol) SymbolLoc() source.Span { return p.Location }

// Type reports the resolved type; types.Error when binding failed.
func (p *ParameterSymbol) Type() *types.Type {
	if p.typ == nil {
		return types.Error
	}
	return p.typ
}

// Value reports the resolved constant; invalid when binding failed.
func (p *ParameterSymbol) Value() types.Value {
	return p.value
}

func (p *ParameterSymbol) setValue(v types.Value, t *types.Type) {
	p.value = v
	p.typ = t
}

// TypeParameterSymbol is the bound result of a type parameter at one
// instantiation.
type TypeParameterSymbol struct {
	Name     string
	Location source.Span
	IsLocal  bool
	IsPort   bool

	// DefaultSyntax is the declared default type syntax, if any.
	DefaultSyntax *syntax.Expr
	// OverrideSyntax is the instantiation's type argument, already
	// reinterpreted to type form.
	OverrideSyntax *syntax.Expr
	Overridden     bool

	target *types.Type
}

func (p *TypeParameterSymbol) SymbolName() string     { return p.Name }
func (p *TypeParameterSymbol) SymbolLoc() source.Span { return p.Location }

// TargetType reports the resolved target type; types.Error when
// binding failed.
func (p *TypeParameterSymbol) TargetType() *types.Type {
	if p.target == nil {
		return types.Error
	}
	return p.target
}
