// Package meta describes compile-time metadata recorded for every indexed item.
package meta

import (
	"rook/internal/items"
	"rook/internal/source"
)

// Kind tags a Meta record.
type Kind uint8

const (
	KindTuple Kind = iota
	KindTupleVariant
	KindStruct
	KindStructVariant
	KindEnum
	KindFunction
	KindClosure
	KindAsyncBlock
	KindConst
	KindMacro
)

var kindNames = [...]string{
	KindTuple:         "struct",
	KindTupleVariant:  "variant",
	KindStruct:        "struct",
	KindStructVariant: "variant",
	KindEnum:          "enum",
	KindFunction:      "fn",
	KindClosure:       "closure",
	KindAsyncBlock:    "async block",
	KindConst:         "const",
	KindMacro:         "macro",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Source is where an item was declared.
type Source struct {
	File source.FileID
	Path string // file path, empty for virtual sources
	Span source.Span
}

// Meta is the metadata of one item path. Which fields are meaningful depends on Kind:
//   - Tuple, TupleVariant: Args (Enum for variants)
//   - Struct, StructVariant: Fields in declaration order (Enum for variants)
//   - Closure, AsyncBlock: Captures in first-use order
//   - Const: Value, filled once the const is evaluated
type Meta struct {
	Kind     Kind
	Item     items.Item
	Enum     items.Item
	Args     int
	Fields   []string
	Captures []string
	Value    ConstValue
	Source   *Source
}

// Hash is the type hash of the item.
func (m *Meta) Hash() uint64 {
	return m.Item.Hash()
}

// TypeOf returns the value type hash for kinds that construct a value type.
// Variants share their enum's type, consts and macros have none.
func (m *Meta) TypeOf() (uint64, bool) {
	switch m.Kind {
	case KindTupleVariant, KindStructVariant, KindConst, KindMacro:
		return 0, false
	}
	return m.Item.Hash(), true
}

// Span is the declaration span, or the zero span when the source is unknown.
func (m *Meta) Span() source.Span {
	if m.Source == nil {
		return source.Span{}
	}
	return m.Source.Span
}

// String renders the meta as e.g. `fn a::b`.
func (m *Meta) String() string {
	return m.Kind.String() + " " + m.Item.String()
}
