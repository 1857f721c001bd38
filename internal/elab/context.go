package elab

import (
	"strconv"

	"svlang/internal/source"
	"svlang/internal/syntax"
	"svlang/internal/types"
)

// Evaluator is the expression-evaluation surface the engine consumes.
// The full constant evaluator lives in the semantic layer; tests use
// LiteralEvaluator.
type Evaluator interface {
	// EvalValue resolves an expression to a constant value.
	EvalValue(expr *syntax.Expr) (types.Value, bool)
	// EvalType resolves a data type reference to a type.
	EvalType(expr *syntax.Expr) (*types.Type, bool)
}

// Context carries the per-instantiation state into each CreateParam
// call. A zero Context means "no instantiation context": defaults
// resolve only when they need no evaluator.
type Context struct {
	// Eval resolves expressions; nil when the instantiation context
	// is unavailable.
	Eval Evaluator
	// ForceInvalid assigns error values/types to every non-local
	// parameter, used when the enclosing context is itself already
	// erroneous.
	ForceInvalid bool
	// SuppressErrors silences CreateParam diagnostics while still
	// producing error-flagged symbols.
	SuppressErrors bool
	// Overrides are value-parameter overrides forced by the
	// enclosing elaboration, outranking instance arguments and
	// defaults. Values are coerced to the declared type.
	Overrides map[string]types.Value
	// TypeOverrides is the counterpart for type parameters. It is
	// the one path that may retarget a localparam type.
	TypeOverrides map[string]*types.Type
	// InstanceLoc anchors missing-value diagnostics at the
	// instantiation site when known.
	InstanceLoc source.Span
}

// LiteralEvaluator resolves literal expressions and type keywords
// without a symbol table. Name-shaped value expressions fail; name-
// shaped types become named type references.
type LiteralEvaluator struct{}

func (LiteralEvaluator) EvalValue(expr *syntax.Expr) (types.Value, bool) {
	if expr == nil {
		return types.Value{}, false
	}
	switch expr.Kind {
	case syntax.ExprIntLiteral:
		v, err := strconv.ParseInt(expr.Text, 0, 64)
		if err != nil {
			return types.Value{}, false
		}
		return types.IntValue(v), true
	case syntax.ExprRealLiteral:
		v, err := strconv.ParseFloat(expr.Text, 64)
		if err != nil {
			return types.Value{}, false
		}
		return types.RealValue(v), true
	case syntax.ExprStringLiteral:
		s := expr.Text
		if unq, err := strconv.Unquote(s); err == nil {
			s = unq
		}
		return types.StringValue(s), true
	default:
		return types.Value{}, false
	}
}

func (LiteralEvaluator) EvalType(expr *syntax.Expr) (*types.Type, bool) {
	if !expr.IsDataType() {
		return nil, false
	}
	if t, ok := types.Builtin(expr.Text); ok {
		return t, true
	}
	return types.Named(expr.Text), true
}
