// Package macros expands macro calls into source text. The worker parses the
// returned text as an expression or as items, depending on where the call
// appeared.
package macros

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rook/internal/items"
	"rook/internal/source"
	"rook/internal/token"
)

// ErrNotFound is returned by an Evaluator that does not know the macro.
var ErrNotFound = errors.New("macro not found")

// Kind is the syntactic position of a macro call.
type Kind uint8

const (
	KindExpr Kind = iota
	KindItem
)

func (k Kind) String() string {
	if k == KindItem {
		return "item"
	}
	return "expr"
}

// Request describes one macro call.
type Request struct {
	Name   string        // macro path, e.g. `stringify` or `util::repeat`
	Kind   Kind          // expression or item position
	Item   items.Item    // path reserved for the expansion
	Input  []token.Token // tokens between the delimiters
	Span   source.Span   // the whole call
	Source *source.File  // file the call appears in
}

// InputText returns the call input exactly as written.
func (r Request) InputText() string {
	if len(r.Input) == 0 {
		return ""
	}
	if r.Source != nil {
		start, end := r.Input[0].Span.Start, r.Input[len(r.Input)-1].Span.End
		if int(end) <= len(r.Source.Content) && start <= end {
			return string(r.Source.Content[start:end])
		}
	}
	parts := make([]string, len(r.Input))
	for i, tok := range r.Input {
		parts[i] = tok.Text
	}
	return strings.Join(parts, " ")
}

// Evaluator expands macros.
type Evaluator interface {
	Expand(ctx context.Context, req Request) (string, error)
}

// Chain tries evaluators in order and returns the first expansion of a known macro.
type Chain []Evaluator

func (c Chain) Expand(ctx context.Context, req Request) (string, error) {
	for _, ev := range c {
		if ev == nil {
			continue
		}
		out, err := ev.Expand(ctx, req)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return out, err
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, req.Name)
}
