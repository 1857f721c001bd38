// Package types is the narrow type-system surface the elaboration
// engine queries: named types with an explicit error type, and
// constant values with coercion. The full expression type checker
// stays behind the elab evaluation interface.
package types

// Kind classifies a type.
type Kind uint8

const (
	KindError Kind = iota
	KindInt
	KindLogic
	KindReal
	KindString
	KindNamed // user-defined type referenced by name
)

func (k Kind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindInt:
		return "int"
	case KindLogic:
		return "logic"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindNamed:
		return "named"
	default:
		return "invalid"
	}
}

// Type is an immutable type descriptor. Builtins are shared singletons;
// named types carry the referenced name.
type Type struct {
	Kind Kind
	Name string
}

var (
	Error  = &Type{Kind: KindError, Name: "<error>"}
	Int    = &Type{Kind: KindInt, Name: "int"}
	Logic  = &Type{Kind: KindLogic, Name: "logic"}
	Real   = &Type{Kind: KindReal, Name: "real"}
	String = &Type{Kind: KindString, Name: "string"}
)

// Named returns a type referencing a user declaration by name.
func Named(name string) *Type {
	return &Type{Kind: KindNamed, Name: name}
}

func (t *Type) IsError() bool {
	return t == nil || t.Kind == KindError
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// Equal compares types structurally.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Kind == other.Kind && t.Name == other.Name
}

// Builtin resolves a builtin type keyword, if name is one.
func Builtin(name string) (*Type, bool) {
	switch name {
	case "int", "integer":
		return Int, true
	case "logic", "reg", "bit":
		return Logic, true
	case "real":
		return Real, true
	case "string":
		return String, true
	default:
		return nil, false
	}
}
