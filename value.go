package tiptop

import (
	"strconv"
	"strings"
)

// Kind identifies the variant stored in a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Value is a single configuration value: null, bool, int, float, string,
// or a list of values (lists may nest).
//
// The zero Value is the null value.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating-point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List returns a list value holding the given elements.
func List(elems ...Value) Value {
	return Value{kind: KindList, list: elems}
}

// Floats returns a list value from a slice of float64.
func Floats(vals ...float64) Value {
	elems := make([]Value, len(vals))
	for i, v := range vals {
		elems[i] = Float(v)
	}
	return List(elems...)
}

// Ints returns a list value from a slice of int64.
func Ints(vals ...int64) Value {
	elems := make([]Value, len(vals))
	for i, v := range vals {
		elems[i] = Int(v)
	}
	return List(elems...)
}

// Strings returns a list value from a slice of strings.
func Strings(vals ...string) Value {
	elems := make([]Value, len(vals))
	for i, v := range vals {
		elems[i] = String(v)
	}
	return List(elems...)
}

// Kind reports which variant the value holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload. ok is false when the value is not a bool.
func (v Value) Bool() (val bool, ok bool) { return v.b, v.kind == KindBool }

// Int returns the integer payload. ok is false when the value is not an int.
func (v Value) Int() (val int64, ok bool) { return v.i, v.kind == KindInt }

// Float returns the numeric payload as float64. Integers convert; ok is
// false for every other kind.
func (v Value) Float() (val float64, ok bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// Str returns the string payload. ok is false when the value is not a string.
func (v Value) Str() (val string, ok bool) { return v.s, v.kind == KindString }

// List returns the list payload. ok is false when the value is not a list.
// The returned slice is shared; callers must not mutate it.
func (v Value) List() (elems []Value, ok bool) { return v.list, v.kind == KindList }

// Len returns the number of elements for a list value, zero otherwise.
func (v Value) Len() int { return len(v.list) }

// Index returns the i-th element of a list value.
// ok is false when the value is not a list or i is out of range.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindList || i < 0 || i >= len(v.list) {
		return Value{}, false
	}
	return v.list[i], true
}

// Equal reports structural equality. Floats compare by numeric value, not
// by textual representation. Int and Float are distinct kinds and never
// compare equal to each other.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String formats the value in the dialect's textual form: None/True/False,
// decimal integers, shortest round-trip floats, single-quoted strings, and
// bracketed comma-separated lists. parseValue(v.String()) recovers a value
// equal to v for the supported domain (strings must not embed quote
// characters, unquoted text must not contain dialect metacharacters).
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "None"
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return "'" + v.s + "'"
	case KindList:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.String())
		}
		sb.WriteByte(']')
		return sb.String()
	}
	return ""
}

// formatFloat emits the shortest decimal form that round-trips through
// parseValue back to the same float64. Plain integral floats keep a
// trailing ".0" so they re-parse as floats, not ints.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.ContainsAny(s, "IN") {
		s += ".0"
	}
	return s
}
