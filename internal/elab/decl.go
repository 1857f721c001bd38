// Package elab binds the declared parameters of a definition to the
// actual arguments supplied at an instantiation site, producing
// parameter symbols in the instantiated scope. Value and type
// parameters follow the same protocol; diagnostics are always
// non-fatal and every parameter resolves to a usable symbol, possibly
// carrying an error type or value.
package elab

import (
	"svlang/internal/source"
	"svlang/internal/syntax"
	"svlang/internal/types"
)

// ParamDecl is one declared parameter in flattened form: one name per
// descriptor, declaration order preserved.
type ParamDecl struct {
	Name     string
	Location source.Span

	IsTypeParam  bool
	IsLocalParam bool
	// IsPortParam marks declarations from the parameter port list;
	// body parameters are never externally overridable by position.
	IsPortParam bool

	// HasSyntax distinguishes parsed declarations from synthesized
	// ones. When set, Type and Initializer carry the syntax; when
	// clear, the Given fields seed the symbol directly.
	HasSyntax   bool
	Type        *syntax.Expr
	Initializer *syntax.Expr

	GivenType        *types.Type
	GivenInitializer types.Value
	GivenDefault     *types.Type // type parameters only
}

// PortListDecls flattens a parameter port list into descriptors. A
// declaration without a parameter/localparam keyword inherits the
// keyword from the previous declaration; the list starts non-local.
func PortListDecls(list *syntax.ParamPortList) []ParamDecl {
	if list == nil {
		return nil
	}
	var out []ParamDecl
	local := false
	for _, d := range list.Decls {
		if d.HasKeyword {
			local = d.KeywordLocal
		}
		out = appendDecls(out, d, local, true)
	}
	return out
}

// BodyDecls flattens a parameter declaration from a definition body.
func BodyDecls(d *syntax.ParamDeclaration) []ParamDecl {
	return appendDecls(nil, d, d.KeywordLocal, false)
}

func appendDecls(out []ParamDecl, d *syntax.ParamDeclaration, local, port bool) []ParamDecl {
	for _, dcl := range d.Declarators {
		out = append(out, ParamDecl{
			Name:         dcl.Name,
			Location:     dcl.Span,
			IsTypeParam:  d.IsTypeParam,
			IsLocalParam: local,
			IsPortParam:  port,
			HasSyntax:    true,
			Type:         d.Type,
			Initializer:  dcl.Init,
		})
	}
	return out
}

// MakeValueDecl synthesizes a value parameter with no backing syntax.
func MakeValueDecl(name string, loc source.Span, typ *types.Type, init types.Value) ParamDecl {
	return ParamDecl{
		Name:             name,
		Location:         loc,
		IsPortParam:      true,
		GivenType:        typ,
		GivenInitializer: init,
	}
}

// MakeTypeDecl synthesizes a type parameter with no backing syntax.
func MakeTypeDecl(name string, loc source.Span, def *types.Type) ParamDecl {
	return ParamDecl{
		Name:         name,
		Location:     loc,
		IsTypeParam:  true,
		IsPortParam:  true,
		GivenDefault: def,
	}
}
