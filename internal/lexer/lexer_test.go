package lexer

import (
	"testing"

	"rook/internal/diag"
	"rook/internal/source"
	"rook/internal/token"
)

func lexAll(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("test.rk", []byte(src)))
	bag := diag.NewBag(0)
	lx := New(f, Options{Reporter: diag.BagReporter{Bag: bag}})
	var toks []token.Token
	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			return toks, bag
		}
		toks = append(toks, tok)
	}
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestLexKinds(t *testing.T) {
	cases := []struct {
		src  string
		want []token.Kind
	}{
		{"fn main() {}", []token.Kind{token.KwFn, token.Ident, token.LParen, token.RParen, token.LBrace, token.RBrace}},
		{"use a::b::*;", []token.Kind{token.KwUse, token.Ident, token.ColonColon, token.Ident, token.ColonColon, token.Star, token.Semicolon}},
		{"x => y == z != w", []token.Kind{token.Ident, token.FatArrow, token.Ident, token.EqEq, token.Ident, token.BangEq, token.Ident}},
		{"#![a] #[b]", []token.Kind{token.PoundBang, token.LBracket, token.Ident, token.RBracket, token.Pound, token.LBracket, token.Ident, token.RBracket}},
		{"'a: loop { break 'a; }", []token.Kind{token.Label, token.Colon, token.KwLoop, token.LBrace, token.KwBreak, token.Label, token.Semicolon, token.RBrace}},
		{"'a' '\\n' b'x' b\"xy\"", []token.Kind{token.CharLit, token.CharLit, token.ByteLit, token.ByteStringLit}},
		{"_ _x", []token.Kind{token.Underscore, token.Ident}},
		{"x.await?", []token.Kind{token.Ident, token.Dot, token.KwAwait, token.Question}},
		{"1..2", []token.Kind{token.NumberLit, token.DotDot, token.NumberLit}},
		{"/* a /* nested */ */ 1 // tail", []token.Kind{token.NumberLit}},
		{"`a {b} c`", []token.Kind{token.TemplateLit}},
		{"имя", []token.Kind{token.Ident}},
	}
	for _, tc := range cases {
		toks, bag := lexAll(t, tc.src)
		if bag.Len() != 0 {
			t.Errorf("%q: unexpected diagnostics %v", tc.src, bag.Codes())
		}
		got := kinds(toks)
		if len(got) != len(tc.want) {
			t.Errorf("%q: expected %v, got %v", tc.src, tc.want, got)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%q: token %d: expected %v, got %v", tc.src, i, tc.want[i], got[i])
			}
		}
	}
}

func TestLexNumbers(t *testing.T) {
	toks, _ := lexAll(t, "42 1_000 0xff 0b10 0o17 1.5 2e10 3.5e-2 t.0.1")
	want := []string{"42", "1_000", "0xff", "0b10", "0o17", "1.5", "2e10", "3.5e-2", "t", ".", "0", ".", "1"}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(toks), toks)
	}
	for i, w := range want {
		if toks[i].Text != w {
			t.Errorf("token %d: expected %q, got %q", i, w, toks[i].Text)
		}
	}
}

func TestLexErrors(t *testing.T) {
	cases := []struct {
		src  string
		code diag.Code
	}{
		{`"abc`, diag.LexUnterminatedString},
		{"/* open", diag.LexUnterminatedBlockComment},
		{"`abc {x}", diag.LexUnterminatedTemplate},
		{"0x", diag.LexBadNumber},
		{"$", diag.LexUnknownChar},
	}
	for _, tc := range cases {
		_, bag := lexAll(t, tc.src)
		if bag.Len() != 1 || bag.Items()[0].Code != tc.code {
			t.Errorf("%q: expected %v, got %v", tc.src, tc.code, bag.Codes())
		}
	}
}

func TestRangeLexer(t *testing.T) {
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("t.rk", []byte("`x {a + b} y`")))
	lx := NewRange(f, 4, 9, Options{})
	var got []token.Kind
	for tok := lx.Next(); tok.Kind != token.EOF; tok = lx.Next() {
		got = append(got, tok.Kind)
		if tok.Span.Start < 4 || tok.Span.End > 9 {
			t.Errorf("token %v escapes range: %v", tok.Kind, tok.Span)
		}
	}
	if len(got) != 3 || got[1] != token.Plus {
		t.Errorf("unexpected tokens %v", got)
	}
}

func TestUnescape(t *testing.T) {
	cases := []struct {
		in, extra, want string
		ok              bool
	}{
		{`plain`, "", "plain", true},
		{`a\nb\t`, "", "a\nb\t", true},
		{`\x41\u{1F600}`, "", "A\U0001F600", true},
		{`\{x\}`, "{}`", "{x}", true},
		{`\q`, "", "", false},
		{`\x4`, "", "", false},
	}
	for _, tc := range cases {
		got, err := Unescape(tc.in, tc.extra)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("%q: expected %q/%v, got %q/%v", tc.in, tc.want, tc.ok, got, err)
		}
	}
}
