package ast

import (
	"rook/internal/source"
)

// Pat is a pattern.
type Pat interface {
	Node
	patNode()
}

// PatIgnore is `_`.
type PatIgnore struct {
	Sp source.Span
}

// PatPath binds a name (single segment) or matches a unit path.
type PatPath struct {
	Path *Path
}

// PatLit matches a literal; Expr is an ExprLit or a negated number.
type PatLit struct {
	Expr Expr
}

// PatTuple is `(a, b)` or `Path(a, b)`.
type PatTuple struct {
	Path  *Path
	Items []Pat
	Rest  bool
	Sp    source.Span
}

type PatVec struct {
	Items []Pat
	Rest  bool
	Sp    source.Span
}

type PatObjectField struct {
	Key ObjectKey
	Pat Pat // nil for shorthand binding
	Sp  source.Span
}

// PatObject is `#{a, b: x}` or `Path {a}`.
type PatObject struct {
	Path   *Path
	Fields []*PatObjectField
	Rest   bool
	Sp     source.Span
}

func (p *PatIgnore) Span() source.Span { return p.Sp }
func (p *PatPath) Span() source.Span   { return p.Path.Sp }
func (p *PatLit) Span() source.Span    { return p.Expr.Span() }
func (p *PatTuple) Span() source.Span  { return p.Sp }
func (p *PatVec) Span() source.Span    { return p.Sp }
func (p *PatObject) Span() source.Span { return p.Sp }

func (*PatIgnore) patNode() {}
func (*PatPath) patNode()   {}
func (*PatLit) patNode()    {}
func (*PatTuple) patNode()  {}
func (*PatVec) patNode()    {}
func (*PatObject) patNode() {}
