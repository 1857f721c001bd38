package syntax

import (
	"svlang/internal/source"
)

// ExprKind tags the expression shapes the elaboration engine has to
// distinguish. The parser cannot tell a bare identifier used as a type
// from a value expression, so names stay ExprName until elaboration
// decides.
type ExprKind uint8

const (
	ExprName ExprKind = iota
	ExprIntLiteral
	ExprRealLiteral
	ExprStringLiteral
	ExprDataType
	ExprOther // anything the narrow surface does not model
)

// Expr is an opaque expression or data type reference handed to the
// evaluator. Text carries the raw spelling.
type Expr struct {
	Kind ExprKind
	Text string
	Span source.Span
}

func (e *Expr) IsName() bool {
	return e != nil && e.Kind == ExprName
}

func (e *Expr) IsDataType() bool {
	return e != nil && e.Kind == ExprDataType
}

// AsDataType reinterprets a name expression as a type reference.
func (e *Expr) AsDataType() *Expr {
	return &Expr{Kind: ExprDataType, Text: e.Text, Span: e.Span}
}

func NameExpr(text string, span source.Span) *Expr {
	return &Expr{Kind: ExprName, Text: text, Span: span}
}

func IntLiteral(text string, span source.Span) *Expr {
	return &Expr{Kind: ExprIntLiteral, Text: text, Span: span}
}

func RealLiteral(text string, span source.Span) *Expr {
	return &Expr{Kind: ExprRealLiteral, Text: text, Span: span}
}

func StringLiteral(text string, span source.Span) *Expr {
	return &Expr{Kind: ExprStringLiteral, Text: text, Span: span}
}

func DataTypeExpr(text string, span source.Span) *Expr {
	return &Expr{Kind: ExprDataType, Text: text, Span: span}
}

// Declarator is one `name [= default]` entry of a parameter
// declaration. For type parameters Init holds the default type.
type Declarator struct {
	Name string
	Span source.Span
	Init *Expr
}

// ParamDeclaration declares one or more parameters sharing a keyword
// and declared type. In a parameter port list the keyword may be
// omitted and inherited from the previous declaration; HasKeyword
// records whether one was written.
type ParamDeclaration struct {
	IsTypeParam bool
	HasKeyword  bool
	// KeywordLocal is `localparam` (vs `parameter`); meaningful only
	// when HasKeyword is set.
	KeywordLocal bool
	// Type is the declared data type of value parameters, nil for
	// implicit.
	Type        *Expr
	Declarators []Declarator
	Span        source.Span
}

// ParamPortList is the parenthesized `#(...)` parameter list of a
// definition header.
type ParamPortList struct {
	Decls []*ParamDeclaration
	Span  source.Span
}

// ParamAssignment is one actual parameter argument at an instantiation,
// either ordered or named. A named assignment may carry a nil Expr,
// which means "use the default".
type ParamAssignment struct {
	Named    bool
	Name     string
	NameSpan source.Span
	Expr     *Expr
	Span     source.Span
}

// OrderedAssign builds an ordered (positional) assignment.
func OrderedAssign(expr *Expr) ParamAssignment {
	var sp source.Span
	if expr != nil {
		sp = expr.Span
	}
	return ParamAssignment{Expr: expr, Span: sp}
}

// NamedAssign builds a named assignment; expr may be nil.
func NamedAssign(name string, nameSpan source.Span, expr *Expr) ParamAssignment {
	sp := nameSpan
	if expr != nil {
		sp = sp.Cover(expr.Span)
	}
	return ParamAssignment{Named: true, Name: name, NameSpan: nameSpan, Expr: expr, Span: sp}
}
