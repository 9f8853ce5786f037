package parser

import (
	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/source"
	"rook/internal/token"
)

// parsePath parses `[::] seg (:: seg)*` where seg is an identifier, self, crate or super.
func (p *Parser) parsePath() (*ast.Path, bool) {
	path := &ast.Path{}
	start := p.peek().Span
	if p.eat(token.ColonColon) {
		path.Global = true
	}
	for {
		seg, ok := p.parsePathSegment()
		if !ok {
			return nil, false
		}
		path.Segments = append(path.Segments, seg)
		if !p.at(token.ColonColon) || !isSegmentStart(p.peekN(1).Kind) {
			break
		}
		p.advance() // ::
	}
	path.Sp = start.Cover(p.lastSpan)
	return path, true
}

func isSegmentStart(k token.Kind) bool {
	switch k {
	case token.Ident, token.KwCrate, token.KwSuper, token.KwSelf:
		return true
	}
	return false
}

func (p *Parser) parsePathSegment() (ast.PathSegment, bool) {
	tok := p.peek()
	switch tok.Kind {
	case token.Ident:
		id, _ := p.parseIdent()
		return ast.PathSegment{Kind: ast.SegIdent, Ident: id, Sp: id.Sp}, true
	case token.KwSelf:
		p.advance()
		return ast.PathSegment{Kind: ast.SegSelf, Sp: tok.Span}, true
	case token.KwCrate:
		p.advance()
		return ast.PathSegment{Kind: ast.SegCrate, Sp: tok.Span}, true
	case token.KwSuper:
		p.advance()
		return ast.PathSegment{Kind: ast.SegSuper, Sp: tok.Span}, true
	}
	p.err(diag.SynExpectIdentifier, "expected path segment, got '"+p.describe()+"'")
	return ast.PathSegment{}, false
}

// ===== атрибуты =====

// parseOuterAttributes collects `#[...]` attributes. `#{` is an object literal and is left alone.
func (p *Parser) parseOuterAttributes() []*ast.Attribute {
	var attrs []*ast.Attribute
	for p.at(token.Pound) && p.peekN(1).Kind == token.LBracket {
		if attr := p.parseAttribute(); attr != nil {
			attrs = append(attrs, attr)
		}
	}
	return attrs
}

// parseAttribute parses `#[path tokens]` or `#![path tokens]`.
func (p *Parser) parseAttribute() *ast.Attribute {
	start := p.advance() // # or #!
	attr := &ast.Attribute{Inner: start.Kind == token.PoundBang}
	if _, ok := p.expect(token.LBracket, diag.SynUnexpectedToken); !ok {
		return nil
	}
	path, ok := p.parsePath()
	if !ok {
		p.skipTo(token.RBracket)
		return nil
	}
	attr.Path = path
	input, _, ok := p.collectUntil(token.RBracket)
	if !ok {
		return nil
	}
	attr.Input = input
	attr.Sp = start.Span.Cover(p.lastSpan)
	return attr
}

// skipTo drops tokens up to and including the closer at depth zero.
func (p *Parser) skipTo(closer token.Kind) {
	_, _, _ = p.collectUntil(closer)
}

// collectUntil gathers balanced tokens until closer (consumed). The returned span covers
// the collected tokens (empty at the closer when nothing was collected).
func (p *Parser) collectUntil(closer token.Kind) ([]token.Token, source.Span, bool) {
	var toks []token.Token
	var stack []token.Kind
	from := p.peek().Span.Head()
	for {
		tok := p.peek()
		switch tok.Kind {
		case token.EOF:
			p.err(diag.SynUnclosedDelimiter, "expected '"+closer.String()+"', got end of file")
			return nil, from, false
		case token.LParen:
			stack = append(stack, token.RParen)
		case token.LBracket:
			stack = append(stack, token.RBracket)
		case token.LBrace:
			stack = append(stack, token.RBrace)
		case token.RParen, token.RBracket, token.RBrace:
			if len(stack) == 0 {
				if tok.Kind != closer {
					p.err(diag.SynUnclosedDelimiter, "mismatched closing delimiter '"+tok.Text+"'")
					return nil, from, false
				}
				sp := from
				if len(toks) > 0 {
					sp = toks[0].Span.Cover(toks[len(toks)-1].Span)
				}
				p.advance()
				return toks, sp, true
			}
			want := stack[len(stack)-1]
			if tok.Kind != want {
				p.err(diag.SynUnclosedDelimiter, "mismatched closing delimiter '"+tok.Text+"'")
				return nil, from, false
			}
			stack = stack[:len(stack)-1]
		}
		toks = append(toks, p.advance())
	}
}

// ===== макросы =====

// parseMacroCall parses `!(...)`, `![...]` or `!{...}` after an already parsed path.
func (p *Parser) parseMacroCall(path *ast.Path) (*ast.MacroCall, bool) {
	p.advance() // !
	open := p.peek()
	var closer token.Kind
	switch open.Kind {
	case token.LParen:
		closer = token.RParen
	case token.LBracket:
		closer = token.RBracket
	case token.LBrace:
		closer = token.RBrace
	default:
		p.err(diag.SynUnexpectedToken, "expected macro delimiter, got '"+p.describe()+"'")
		return nil, false
	}
	p.advance()
	input, inputSp, ok := p.collectUntil(closer)
	if !ok {
		return nil, false
	}
	return &ast.MacroCall{
		Path:    path,
		Open:    open.Kind,
		Input:   input,
		InputSp: inputSp,
		Sp:      path.Sp.Cover(p.lastSpan),
	}, true
}

// ===== use =====

func (p *Parser) parseUse(attrs []*ast.Attribute, start source.Span) (ast.Item, bool) {
	p.advance() // use
	path, ok := p.parseUsePath()
	if !ok {
		return nil, false
	}
	return &ast.ItemUse{Attrs: attrs, Path: path, Sp: start.Cover(p.lastSpan)}, true
}

// parseUsePath parses `[::] seg (:: seg)* [as alias]` where the last segment may be `*`
// or a `{...}` group of nested use paths.
func (p *Parser) parseUsePath() (*ast.UsePath, bool) {
	up := &ast.UsePath{}
	start := p.peek().Span
	if p.eat(token.ColonColon) {
		up.Global = true
	}
	for {
		tok := p.peek()
		switch tok.Kind {
		case token.Star:
			p.advance()
			up.Segments = append(up.Segments, ast.UseSegment{Kind: ast.UseWildcard, Sp: tok.Span})
		case token.LBrace:
			p.advance()
			seg := ast.UseSegment{Kind: ast.UseGroup}
			for !p.at(token.RBrace) && !p.at(token.EOF) {
				sub, ok := p.parseUsePath()
				if !ok {
					return nil, false
				}
				seg.Group = append(seg.Group, sub)
				if !p.eat(token.Comma) {
					break
				}
			}
			if _, ok := p.expect(token.RBrace, diag.SynUnclosedDelimiter); !ok {
				return nil, false
			}
			seg.Sp = tok.Span.Cover(p.lastSpan)
			up.Segments = append(up.Segments, seg)
		case token.Ident, token.KwSelf, token.KwCrate, token.KwSuper:
			p.advance()
			name := ast.Ident{Name: p.intern(tok.Text), Sp: tok.Span}
			up.Segments = append(up.Segments, ast.UseSegment{Kind: ast.UseName, Name: name, Sp: tok.Span})
		default:
			p.err(diag.SynExpectIdentifier, "expected import path segment, got '"+p.describe()+"'")
			return nil, false
		}
		last := up.Segments[len(up.Segments)-1]
		if last.Kind != ast.UseName || !p.at(token.ColonColon) {
			break
		}
		p.advance() // ::
	}
	// `as` is contextual: plain identifier text
	if tok := p.peek(); tok.Kind == token.Ident && tok.Text == "as" {
		p.advance()
		alias, ok := p.parseIdent()
		if !ok {
			return nil, false
		}
		up.Alias = &alias
	}
	up.Sp = start.Cover(p.lastSpan)
	return up, true
}
