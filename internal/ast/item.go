package ast

import (
	"rook/internal/source"
)

// File is a parsed source file.
type File struct {
	Attrs []*Attribute // inner attributes
	Items []ItemEntry
	Sp    source.Span
}

func (f *File) Span() source.Span { return f.Sp }

// ItemEntry is an item plus the semicolon that may follow it.
type ItemEntry struct {
	Item Item
	Semi *source.Span
}

// Item is a declaration.
type Item interface {
	Node
	itemNode()
	Attributes() []*Attribute
}

type ItemUse struct {
	Attrs []*Attribute
	Path  *UsePath
	Sp    source.Span
}

type UseSegmentKind uint8

const (
	UseName UseSegmentKind = iota
	UseWildcard
	UseGroup
)

// UseSegment is a name, `*` or `{...}` group in a use path.
type UseSegment struct {
	Kind  UseSegmentKind
	Name  Ident
	Group []*UsePath
	Sp    source.Span
}

// UsePath is one import tree such as a::b::{c, d::*}.
type UsePath struct {
	Global   bool
	Segments []UseSegment
	Alias    *Ident
	Sp       source.Span
}

type ItemMod struct {
	Attrs []*Attribute
	Name  Ident
	Body  *ModBody // nil for `mod name;`
	Sp    source.Span
}

type ModBody struct {
	Items []ItemEntry
	Sp    source.Span
}

type StructKind uint8

const (
	StructUnit StructKind = iota
	StructTuple
	StructNamed
)

// StructBody is shared by structs and enum variants.
type StructBody struct {
	Kind   StructKind
	Fields []*Field
}

type Field struct {
	Attrs []*Attribute
	Name  Ident // tuple fields get a synthetic empty name
	Sp    source.Span
}

type ItemStruct struct {
	Attrs []*Attribute
	Name  Ident
	Body  StructBody
	Sp    source.Span
}

type ItemEnum struct {
	Attrs    []*Attribute
	Name     Ident
	Variants []*Variant
	Sp       source.Span
}

type Variant struct {
	Attrs []*Attribute
	Name  Ident
	Body  StructBody
	Sp    source.Span
}

type ItemConst struct {
	Attrs []*Attribute
	Name  Ident
	Expr  Expr
	Sp    source.Span
}

// FnArg is a function or closure parameter.
type FnArg struct {
	Self bool
	Pat  Pat // nil when Self
	Sp   source.Span
}

type ItemFn struct {
	Attrs []*Attribute
	Async bool
	Name  Ident
	Args  []*FnArg
	Body  *ExprBlock
	Sp    source.Span
}

// IsInstance reports whether the first argument is `self`.
func (f *ItemFn) IsInstance() bool {
	return len(f.Args) > 0 && f.Args[0].Self
}

type ItemImpl struct {
	Attrs []*Attribute
	Path  *Path
	Fns   []*ItemFn
	Sp    source.Span
}

type ItemMacroCall struct {
	Attrs []*Attribute
	Call  *MacroCall
	Sp    source.Span
}

func (i *ItemUse) Span() source.Span       { return i.Sp }
func (i *ItemMod) Span() source.Span       { return i.Sp }
func (i *ItemStruct) Span() source.Span    { return i.Sp }
func (i *ItemEnum) Span() source.Span      { return i.Sp }
func (i *ItemConst) Span() source.Span     { return i.Sp }
func (i *ItemFn) Span() source.Span        { return i.Sp }
func (i *ItemImpl) Span() source.Span      { return i.Sp }
func (i *ItemMacroCall) Span() source.Span { return i.Sp }
func (v *Variant) Span() source.Span       { return v.Sp }
func (f *Field) Span() source.Span         { return f.Sp }

func (*ItemUse) itemNode()       {}
func (*ItemMod) itemNode()       {}
func (*ItemStruct) itemNode()    {}
func (*ItemEnum) itemNode()      {}
func (*ItemConst) itemNode()     {}
func (*ItemFn) itemNode()        {}
func (*ItemImpl) itemNode()      {}
func (*ItemMacroCall) itemNode() {}

func (i *ItemUse) Attributes() []*Attribute       { return i.Attrs }
func (i *ItemMod) Attributes() []*Attribute       { return i.Attrs }
func (i *ItemStruct) Attributes() []*Attribute    { return i.Attrs }
func (i *ItemEnum) Attributes() []*Attribute      { return i.Attrs }
func (i *ItemConst) Attributes() []*Attribute     { return i.Attrs }
func (i *ItemFn) Attributes() []*Attribute        { return i.Attrs }
func (i *ItemImpl) Attributes() []*Attribute      { return i.Attrs }
func (i *ItemMacroCall) Attributes() []*Attribute { return i.Attrs }

// NeedsSemi reports whether the item syntactically requires a trailing ';'.
func NeedsSemi(item Item) bool {
	switch it := item.(type) {
	case *ItemUse, *ItemConst:
		return true
	case *ItemMod:
		return it.Body == nil
	case *ItemStruct:
		return it.Body.Kind != StructNamed
	case *ItemMacroCall:
		return it.Call.NeedsSemi()
	default:
		return false
	}
}
