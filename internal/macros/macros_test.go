package macros

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"rook/internal/items"
	"rook/internal/lexer"
	"rook/internal/source"
	"rook/internal/token"
)

// request lexes input as the body of a call to name placed on the given line.
func request(t *testing.T, name, input string, line int) Request {
	t.Helper()
	prefix := ""
	for i := 1; i < line; i++ {
		prefix += "\n"
	}
	text := prefix + input
	fs := source.NewFileSet()
	id := fs.AddVirtual("macro.rk", []byte(text))
	f := fs.Get(id)
	lx := lexer.New(f, lexer.Options{})
	var toks []token.Token
	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			break
		}
		toks = append(toks, tok)
	}
	start := uint32(len(prefix))
	return Request{
		Name:   name,
		Input:  toks,
		Span:   source.Span{File: id, Start: start, End: uint32(len(text))},
		Source: f,
		Item:   items.Of("main").Extend(items.Component{Kind: items.KindMacro}),
	}
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
		want  string
	}{
		{"stringify", "a +  b", 1, `"a +  b"`},
		{"stringify", `"q"`, 1, `"\"q\""`},
		{"line", "", 3, "3"},
		{"file", "", 1, `"macro.rk"`},
		{"concat", `"a", 1, true, "\n"`, 1, `"a1true\n"`},
		{"identity", "1 + 2", 1, "1 + 2"},
	}
	reg := Builtins()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Expand(context.Background(), request(t, tt.name, tt.input, tt.line))
			if err != nil {
				t.Fatalf("Expand: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expand(%s!(%s)) = %s, want %s", tt.name, tt.input, got, tt.want)
			}
		})
	}
}

func TestBuiltinErrors(t *testing.T) {
	reg := Builtins()
	for _, tc := range []struct{ name, input string }{
		{"concat", "a"},
		{"concat", `"a" "b"`},
		{"line", "1"},
	} {
		if _, err := reg.Expand(context.Background(), request(t, tc.name, tc.input, 1)); err == nil {
			t.Errorf("%s!(%s): expected error", tc.name, tc.input)
		}
	}
	if _, err := reg.Expand(context.Background(), request(t, "nope", "", 1)); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown macro: err = %v, want ErrNotFound", err)
	}
}

func TestScriptEvaluator(t *testing.T) {
	fsys := fstest.MapFS{
		"double.risor":    {Data: []byte(`input + " * 2"`)},
		"util/last.risor": {Data: []byte(`tokens[len(tokens)-1]`)},
		"kind.risor":      {Data: []byte(`"\"" + kind + "\""`)},
		"bad.risor":       {Data: []byte(`42`)},
	}
	ev := NewScriptEvaluatorFS(fsys)
	ctx := context.Background()

	tests := []struct {
		name, input, want string
	}{
		{"double", "x + 1", "x + 1 * 2"},
		{"util::last", "a, b, c", "c"},
		{"kind", "", `"expr"`},
	}
	for _, tt := range tests {
		got, err := ev.Expand(ctx, request(t, tt.name, tt.input, 1))
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, got, tt.want)
		}
	}

	if _, err := ev.Expand(ctx, request(t, "bad", "", 1)); err == nil {
		t.Errorf("non-string result must fail")
	}
	if _, err := ev.Expand(ctx, request(t, "missing", "", 1)); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing script: err = %v, want ErrNotFound", err)
	}
}

func TestChain(t *testing.T) {
	scripts := NewScriptEvaluatorFS(fstest.MapFS{
		"stringify.risor": {Data: []byte(`"shadowed"`)},
		"answer.risor":    {Data: []byte(`"42"`)},
	})
	chain := Chain{Builtins(), scripts}
	ctx := context.Background()

	got, err := chain.Expand(ctx, request(t, "stringify", "x", 1))
	if err != nil || got != `"x"` {
		t.Fatalf("stringify = %q, %v; built-ins come first", got, err)
	}
	got, err = chain.Expand(ctx, request(t, "answer", "", 1))
	if err != nil || got != "42" {
		t.Fatalf("answer = %q, %v", got, err)
	}
	if _, err := chain.Expand(ctx, request(t, "nope", "", 1)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
