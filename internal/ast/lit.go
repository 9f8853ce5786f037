package ast

import (
	"fmt"
	"strconv"
	"strings"

	"rook/internal/source"
)

// Lit is a literal value inside an ExprLit.
type Lit interface {
	litNode()
}

type LitUnit struct{}

type LitBool struct{ Value bool }

type LitByte struct{ Value byte }

type LitChar struct{ Value rune }

// LitNumber keeps the source text; Value parses it on demand.
type LitNumber struct{ Text string }

type LitStr struct{ Value string }

type LitByteStr struct{ Value []byte }

// TemplatePart is either literal text or an interpolated expression.
type TemplatePart struct {
	Text string
	Expr Expr
}

type LitTemplate struct{ Parts []TemplatePart }

type LitTuple struct{ Items []Expr }

type LitVec struct{ Items []Expr }

// ObjectKey is an identifier or string key.
type ObjectKey struct {
	Ident  *Ident
	String string
	Sp     source.Span
}

type ObjectField struct {
	Key   ObjectKey
	Value Expr // nil for shorthand `#{a}`
	Sp    source.Span
}

// LitObject is `#{...}` (Path nil) or `Path {...}`.
type LitObject struct {
	Path   *Path
	Fields []*ObjectField
}

func (LitUnit) litNode()      {}
func (LitBool) litNode()      {}
func (LitByte) litNode()      {}
func (LitChar) litNode()      {}
func (LitNumber) litNode()    {}
func (LitStr) litNode()       {}
func (LitByteStr) litNode()   {}
func (*LitTemplate) litNode() {}
func (*LitTuple) litNode()    {}
func (*LitVec) litNode()      {}
func (*LitObject) litNode()   {}

// Number is a parsed numeric literal.
type Number struct {
	IsFloat bool
	Int     int64
	Float   float64
}

// Value parses the literal text.
func (n LitNumber) Value() (Number, error) {
	text := strings.ReplaceAll(n.Text, "_", "")
	lower := strings.ToLower(text)
	isRadix := strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b")
	if !isRadix && strings.ContainsAny(lower, ".e") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Number{}, fmt.Errorf("invalid float literal %q: %w", n.Text, err)
		}
		return Number{IsFloat: true, Float: f}, nil
	}
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return Number{}, fmt.Errorf("invalid integer literal %q: %w", n.Text, err)
	}
	return Number{Int: v}, nil
}
