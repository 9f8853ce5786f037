package macros

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"rook/internal/lexer"
	"rook/internal/token"
)

// Func expands one built-in macro.
type Func func(ctx context.Context, req Request) (string, error)

// Registry holds macros implemented in Go.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Builtins returns a registry with the standard macros:
//
//	stringify!(tokens)   the input as a string literal
//	file!()              path of the calling file
//	line!()              line of the call
//	concat!(lits, ...)   literals concatenated into one string
//	identity!(tokens)    the input unchanged
func Builtins() *Registry {
	r := NewRegistry()
	r.Register("stringify", stringify)
	r.Register("file", file)
	r.Register("line", line)
	r.Register("concat", concat)
	r.Register("identity", identity)
	return r
}

// Register adds or replaces a macro.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Names lists registered macros in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Expand(ctx context.Context, req Request) (string, error) {
	fn, ok := r.funcs[req.Name]
	if !ok {
		return "", ErrNotFound
	}
	return fn(ctx, req)
}

func stringify(_ context.Context, req Request) (string, error) {
	if req.Kind != KindExpr {
		return "", fmt.Errorf("stringify! produces an expression")
	}
	return lexer.Quote(req.InputText()), nil
}

func file(_ context.Context, req Request) (string, error) {
	if len(req.Input) != 0 {
		return "", fmt.Errorf("file! takes no arguments")
	}
	if req.Source == nil {
		return lexer.Quote(""), nil
	}
	return lexer.Quote(req.Source.Path), nil
}

func line(_ context.Context, req Request) (string, error) {
	if len(req.Input) != 0 {
		return "", fmt.Errorf("line! takes no arguments")
	}
	if req.Source == nil {
		return "0", nil
	}
	n := 1
	for _, off := range req.Source.LineIdx {
		if off >= req.Span.Start {
			break
		}
		n++
	}
	return strconv.Itoa(n), nil
}

func concat(_ context.Context, req Request) (string, error) {
	var sb strings.Builder
	expectComma := false
	for _, tok := range req.Input {
		if expectComma {
			if tok.Kind != token.Comma {
				return "", fmt.Errorf("concat!: expected `,`, found %q", tok.Text)
			}
			expectComma = false
			continue
		}
		switch tok.Kind {
		case token.StringLit:
			s, err := lexer.Unescape(tok.Text[1:len(tok.Text)-1], "")
			if err != nil {
				return "", fmt.Errorf("concat!: bad string %s: %w", tok.Text, err)
			}
			sb.WriteString(s)
		case token.NumberLit, token.KwTrue, token.KwFalse:
			sb.WriteString(tok.Text)
		default:
			return "", fmt.Errorf("concat!: expected a literal, found %q", tok.Text)
		}
		expectComma = true
	}
	return lexer.Quote(sb.String()), nil
}

func identity(_ context.Context, req Request) (string, error) {
	return req.InputText(), nil
}
