package parser

import (
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"

	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/lexer"
	"rook/internal/token"
)

func (p *Parser) parseLiteralExpr() ast.Expr {
	tok := p.advance()
	var lit ast.Lit
	switch tok.Kind {
	case token.KwTrue, token.KwFalse:
		lit = ast.LitBool{Value: tok.Kind == token.KwTrue}
	case token.NumberLit:
		lit = ast.LitNumber{Text: tok.Text}
	case token.StringLit:
		s, ok := p.unquote(tok, "")
		if !ok {
			return nil
		}
		lit = ast.LitStr{Value: s}
	case token.ByteStringLit:
		s, ok := p.unquoteAt(tok, tok.Text[2:len(tok.Text)-1], "")
		if !ok {
			return nil
		}
		lit = ast.LitByteStr{Value: []byte(s)}
	case token.CharLit:
		s, ok := p.unquote(tok, "")
		if !ok {
			return nil
		}
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || size != len(s) {
			p.errAt(diag.LexBadChar, tok.Span, "character literal must contain exactly one character")
			return nil
		}
		lit = ast.LitChar{Value: r}
	case token.ByteLit:
		s, ok := p.unquoteAt(tok, tok.Text[2:len(tok.Text)-1], "")
		if !ok {
			return nil
		}
		if len(s) != 1 {
			p.errAt(diag.LexBadChar, tok.Span, "byte literal must contain exactly one byte")
			return nil
		}
		lit = ast.LitByte{Value: s[0]}
	case token.TemplateLit:
		tpl, ok := p.parseTemplate(tok)
		if !ok {
			return nil
		}
		lit = tpl
	default:
		p.errAt(diag.SynBadLiteral, tok.Span, "unexpected literal '"+tok.Text+"'")
		return nil
	}
	return &ast.ExprLit{Lit: lit, Sp: tok.Span}
}

// unquote strips the surrounding quotes of a string or char token and decodes escapes.
func (p *Parser) unquote(tok token.Token, extra string) (string, bool) {
	if len(tok.Text) < 2 {
		p.errAt(diag.SynBadLiteral, tok.Span, "malformed literal")
		return "", false
	}
	return p.unquoteAt(tok, tok.Text[1:len(tok.Text)-1], extra)
}

func (p *Parser) unquoteAt(tok token.Token, body, extra string) (string, bool) {
	s, err := lexer.Unescape(body, extra)
	if err != nil {
		p.errAt(diag.LexBadEscape, tok.Span, err.Error())
		return "", false
	}
	return s, true
}

// parseTemplate splits a backtick template into text parts and `{expr}` parts.
// Expressions are parsed in place from the same file so spans stay exact.
func (p *Parser) parseTemplate(tok token.Token) (*ast.LitTemplate, bool) {
	body := tok.Text[1 : len(tok.Text)-1]
	base := tok.Span.Start + 1
	tpl := &ast.LitTemplate{}
	var text strings.Builder
	flush := func() bool {
		if text.Len() == 0 {
			return true
		}
		s, ok := p.unquoteAt(tok, text.String(), "{}`")
		if !ok {
			return false
		}
		tpl.Parts = append(tpl.Parts, ast.TemplatePart{Text: s})
		text.Reset()
		return true
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			text.WriteByte(c)
			i++
			text.WriteByte(body[i])
			continue
		}
		if c != '{' {
			text.WriteByte(c)
			continue
		}
		end := matchingBrace(body, i)
		if end < 0 {
			p.errAt(diag.LexUnterminatedTemplate, tok.Span, "unclosed '{' in template")
			return nil, false
		}
		if !flush() {
			return nil, false
		}
		start, err := safecast.Conv[uint32](i + 1)
		if err != nil {
			p.errAt(diag.SynBadLiteral, tok.Span, "template too large")
			return nil, false
		}
		stop, _ := safecast.Conv[uint32](end)
		sub := newRangeParser(p.file, base+start, base+stop, p.opts)
		expr := sub.parseExpr()
		if expr == nil {
			return nil, false
		}
		if !sub.at(token.EOF) {
			sub.err(diag.SynTrailingInput, "unexpected input in template expression")
			return nil, false
		}
		tpl.Parts = append(tpl.Parts, ast.TemplatePart{Expr: expr})
		i = end
	}
	if !flush() {
		return nil, false
	}
	return tpl, true
}

// matchingBrace returns the index of the '}' closing the '{' at open, or -1.
func matchingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		case '"':
			for i++; i < len(s) && s[i] != '"'; i++ {
				if s[i] == '\\' {
					i++
				}
			}
		}
	}
	return -1
}
