package meta

import (
	"math"
	"strconv"
	"strings"
)

// ConstKind tags a ConstValue.
type ConstKind uint8

const (
	ConstUnit ConstKind = iota
	ConstBool
	ConstInteger
	ConstFloat
	ConstString
	ConstVec
	ConstTuple
	ConstObject
)

func (k ConstKind) String() string {
	switch k {
	case ConstUnit:
		return "unit"
	case ConstBool:
		return "bool"
	case ConstInteger:
		return "integer"
	case ConstFloat:
		return "float"
	case ConstString:
		return "string"
	case ConstVec:
		return "vec"
	case ConstTuple:
		return "tuple"
	case ConstObject:
		return "object"
	default:
		return "invalid"
	}
}

// ConstValue is the compile-time value of a const item.
// Objects keep their keys in declaration order: Keys[i] names Items[i].
type ConstValue struct {
	Kind  ConstKind    `msgpack:"k"`
	Bool  bool         `msgpack:"b,omitempty"`
	Int   int64        `msgpack:"i,omitempty"`
	Float float64      `msgpack:"f,omitempty"`
	Str   string       `msgpack:"s,omitempty"`
	Items []ConstValue `msgpack:"items,omitempty"`
	Keys  []string     `msgpack:"keys,omitempty"`
}

func Unit() ConstValue                     { return ConstValue{Kind: ConstUnit} }
func Bool(v bool) ConstValue               { return ConstValue{Kind: ConstBool, Bool: v} }
func Integer(v int64) ConstValue           { return ConstValue{Kind: ConstInteger, Int: v} }
func Float(v float64) ConstValue           { return ConstValue{Kind: ConstFloat, Float: v} }
func String(v string) ConstValue           { return ConstValue{Kind: ConstString, Str: v} }
func Vec(items ...ConstValue) ConstValue   { return ConstValue{Kind: ConstVec, Items: items} }
func Tuple(items ...ConstValue) ConstValue { return ConstValue{Kind: ConstTuple, Items: items} }

// Object builds an object value; keys and values must have the same length.
func Object(keys []string, values []ConstValue) ConstValue {
	return ConstValue{Kind: ConstObject, Keys: keys, Items: values}
}

// Equal compares two values structurally.
func (v ConstValue) Equal(o ConstValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ConstUnit:
		return true
	case ConstBool:
		return v.Bool == o.Bool
	case ConstInteger:
		return v.Int == o.Int
	case ConstFloat:
		return v.Float == o.Float
	case ConstString:
		return v.Str == o.Str
	}
	if len(v.Items) != len(o.Items) || len(v.Keys) != len(o.Keys) {
		return false
	}
	for i := range v.Keys {
		if v.Keys[i] != o.Keys[i] {
			return false
		}
	}
	for i := range v.Items {
		if !v.Items[i].Equal(o.Items[i]) {
			return false
		}
	}
	return true
}

// Display renders the value the way template interpolation shows it:
// strings without quotes, floats always with a fractional part.
func (v ConstValue) Display() string {
	switch v.Kind {
	case ConstString:
		return v.Str
	case ConstFloat:
		return formatFloat(v.Float)
	}
	return v.String()
}

// String renders the value as source-like text.
func (v ConstValue) String() string {
	switch v.Kind {
	case ConstUnit:
		return "()"
	case ConstBool:
		return strconv.FormatBool(v.Bool)
	case ConstInteger:
		return strconv.FormatInt(v.Int, 10)
	case ConstFloat:
		return formatFloat(v.Float)
	case ConstString:
		return strconv.Quote(v.Str)
	case ConstVec:
		return "[" + joinValues(v.Items) + "]"
	case ConstTuple:
		if len(v.Items) == 1 {
			return "(" + v.Items[0].String() + ",)"
		}
		return "(" + joinValues(v.Items) + ")"
	case ConstObject:
		var sb strings.Builder
		sb.WriteString("#{")
		for i, k := range v.Keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			sb.WriteString(v.Items[i].String())
		}
		sb.WriteString("}")
		return sb.String()
	default:
		return "<invalid>"
	}
}

func joinValues(vs []ConstValue) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
