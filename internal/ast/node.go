package ast

import (
	"rook/internal/source"
	"rook/internal/token"
)

// Node is any syntax tree node.
type Node interface {
	Span() source.Span
}

// Ident is an interned identifier.
type Ident struct {
	Name source.StringID
	Sp   source.Span
}

func (i Ident) Span() source.Span { return i.Sp }

// Label is a loop label such as 'outer.
type Label struct {
	Name source.StringID // without the leading quote
	Sp   source.Span
}

func (l Label) Span() source.Span { return l.Sp }

type SegmentKind uint8

const (
	SegIdent SegmentKind = iota
	SegSelf
	SegCrate
	SegSuper
)

// PathSegment is one component of a path.
type PathSegment struct {
	Kind  SegmentKind
	Ident Ident // only for SegIdent
	Sp    source.Span
}

// Path is a `::`-separated path such as std::float::parse.
type Path struct {
	Global   bool // leading ::
	Segments []PathSegment
	Sp       source.Span
}

func (p *Path) Span() source.Span { return p.Sp }

// Single returns the identifier when the path is a plain single name.
func (p *Path) Single() (Ident, bool) {
	if p.Global || len(p.Segments) != 1 || p.Segments[0].Kind != SegIdent {
		return Ident{}, false
	}
	return p.Segments[0].Ident, true
}

// Attribute is `#[path ...]` (outer) or `#![path ...]` (inner).
type Attribute struct {
	Inner bool
	Path  *Path
	Input []token.Token
	Sp    source.Span
}

func (a *Attribute) Span() source.Span { return a.Sp }

// MacroCall is `path!(...)`, `path![...]` or `path!{...}`.
// Input holds the tokens between the delimiters.
type MacroCall struct {
	Path    *Path
	Open    token.Kind
	Input   []token.Token
	InputSp source.Span
	Sp      source.Span
}

func (m *MacroCall) Span() source.Span { return m.Sp }

// NeedsSemi reports whether the call must be followed by ';' in item position.
func (m *MacroCall) NeedsSemi() bool {
	return m.Open != token.LBrace
}
