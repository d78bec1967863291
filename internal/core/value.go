package core

import (
	"strconv"
	"strings"
)

// Kind discriminates the variants of a Value crossing the boundary.
type Kind uint8

const (
	// KindNull covers both null and undefined.
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a tagged dynamic value exchanged between Go and script code.
// Only the field matching Kind is meaningful.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Str   string
	List  []Value
}

// Null returns the unit value used for null and undefined.
func Null() Value { return Value{Kind: KindNull} }

// Int returns an integer-tagged value.
func Int(n int64) Value { return Value{Kind: KindInt, Int: n} }

// Float returns a float-tagged value.
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// Bool returns a boolean-tagged value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// String returns a string-tagged value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// List returns a list value holding the given elements.
func List(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: KindList, List: elems}
}

// IsNull reports whether v is the null/undefined unit.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// String renders v for diagnostics.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindString:
		return strconv.Quote(v.Str)
	case KindList:
		var b strings.Builder
		b.WriteByte('[')
		for i, e := range v.List {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.String())
		}
		b.WriteByte(']')
		return b.String()
	default:
		return "null"
	}
}
