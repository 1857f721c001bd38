package types

import (
	"fmt"
	"strconv"
)

// ValueKind classifies a constant value.
type ValueKind uint8

const (
	ValueInvalid ValueKind = iota
	ValueInt
	ValueReal
	ValueString
)

// Value is a constant value produced by the evaluator. The zero Value
// is the invalid (error) value.
type Value struct {
	Kind ValueKind
	Int  int64
	Real float64
	Str  string
}

func IntValue(v int64) Value     { return Value{Kind: ValueInt, Int: v} }
func RealValue(v float64) Value  { return Value{Kind: ValueReal, Real: v} }
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

func (v Value) IsValid() bool {
	return v.Kind != ValueInvalid
}

func (v Value) String() string {
	switch v.Kind {
	case ValueInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueReal:
		return strconv.FormatFloat(v.Real, 'g', -1, 64)
	case ValueString:
		return strconv.Quote(v.Str)
	default:
		return "<invalid>"
	}
}

// Coerce converts v to the target type, as when an override-map value
// is forced onto a parameter with a declared type. An impossible
// conversion yields the invalid value.
func Coerce(v Value, target *Type) Value {
	if !v.IsValid() || target.IsError() {
		return Value{}
	}
	switch target.Kind {
	case KindInt, KindLogic:
		switch v.Kind {
		case ValueInt:
			return v
		case ValueReal:
			return IntValue(int64(v.Real))
		}
	case KindReal:
		switch v.Kind {
		case ValueReal:
			return v
		case ValueInt:
			return RealValue(float64(v.Int))
		}
	case KindString:
		if v.Kind == ValueString {
			return v
		}
	case KindNamed:
		// No structural knowledge of user types here; pass through.
		return v
	}
	return Value{}
}

// TypeOf reports the natural type of a constant value.
func TypeOf(v Value) *Type {
	switch v.Kind {
	case ValueInt:
		return Int
	case ValueReal:
		return Real
	case ValueString:
		return String
	default:
		return Error
	}
}

// Format implements fmt.Stringer-friendly debug rendering with kind.
func (v Value) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "%s(%s)", v.Kind.kindName(), v.String())
		return
	}
	fmt.Fprint(f, v.String())
}

func (k ValueKind) kindName() string {
	switch k {
	case ValueInt:
		return "int"
	case ValueReal:
		return "real"
	case ValueString:
		return "string"
	default:
		return "invalid"
	}
}
