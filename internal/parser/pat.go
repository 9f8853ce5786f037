package parser

import (
	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/source"
	"rook/internal/token"
)

// parsePat parses a pattern; nil means an error was reported.
func (p *Parser) parsePat() ast.Pat {
	tok := p.peek()
	switch tok.Kind {
	case token.Underscore:
		p.advance()
		return &ast.PatIgnore{Sp: tok.Span}
	case token.NumberLit, token.StringLit, token.ByteStringLit, token.CharLit, token.ByteLit,
		token.KwTrue, token.KwFalse:
		lit := p.parseLiteralExpr()
		if lit == nil {
			return nil
		}
		return &ast.PatLit{Expr: lit}
	case token.Minus:
		if p.peekN(1).Kind != token.NumberLit {
			break
		}
		p.advance()
		lit := p.parseLiteralExpr()
		if lit == nil {
			return nil
		}
		return &ast.PatLit{Expr: &ast.ExprUnary{Op: token.Minus, Expr: lit, Sp: tok.Span.Cover(lit.Span())}}
	case token.LParen:
		p.advance()
		items, rest, ok := p.parsePatList(token.RParen)
		if !ok {
			return nil
		}
		if len(items) == 0 && !rest {
			unit := &ast.ExprLit{Lit: ast.LitUnit{}, Sp: tok.Span.Cover(p.lastSpan)}
			return &ast.PatLit{Expr: unit}
		}
		return &ast.PatTuple{Items: items, Rest: rest, Sp: tok.Span.Cover(p.lastSpan)}
	case token.LBracket:
		p.advance()
		items, rest, ok := p.parsePatList(token.RBracket)
		if !ok {
			return nil
		}
		return &ast.PatVec{Items: items, Rest: rest, Sp: tok.Span.Cover(p.lastSpan)}
	case token.Pound:
		if p.peekN(1).Kind != token.LBrace {
			break
		}
		p.advance()
		return p.parseObjectPat(nil, tok.Span)
	case token.Ident, token.ColonColon, token.KwCrate, token.KwSuper, token.KwSelf:
		path, ok := p.parsePath()
		if !ok {
			return nil
		}
		switch p.peek().Kind {
		case token.LParen:
			p.advance()
			items, rest, ok := p.parsePatList(token.RParen)
			if !ok {
				return nil
			}
			return &ast.PatTuple{Path: path, Items: items, Rest: rest, Sp: path.Sp.Cover(p.lastSpan)}
		case token.LBrace:
			if !p.noStruct {
				return p.parseObjectPat(path, path.Sp)
			}
		}
		return &ast.PatPath{Path: path}
	}
	p.err(diag.SynExpectPattern, "expected pattern, got '"+p.describe()+"'")
	return nil
}

// parsePatList parses `p, p, ..` up to and including closer.
func (p *Parser) parsePatList(closer token.Kind) ([]ast.Pat, bool, bool) {
	var items []ast.Pat
	rest := false
	for !p.at(closer) && !p.at(token.EOF) {
		if p.eat(token.DotDot) {
			rest = true
			p.eat(token.Comma)
			break
		}
		pat := p.parsePat()
		if pat == nil {
			return nil, false, false
		}
		items = append(items, pat)
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(closer, diag.SynUnclosedDelimiter); !ok {
		return nil, false, false
	}
	return items, rest, true
}

func (p *Parser) parseObjectPat(path *ast.Path, start source.Span) ast.Pat {
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken); !ok {
		return nil
	}
	obj := &ast.PatObject{Path: path}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if p.eat(token.DotDot) {
			obj.Rest = true
			p.eat(token.Comma)
			break
		}
		key, ok := p.parseObjectKey()
		if !ok {
			return nil
		}
		field := &ast.PatObjectField{Key: key, Sp: key.Sp}
		if p.eat(token.Colon) {
			if field.Pat = p.parsePat(); field.Pat == nil {
				return nil
			}
			field.Sp = field.Sp.Cover(field.Pat.Span())
		} else if key.Ident == nil {
			p.err(diag.SynUnexpectedToken, "expected ':' after string key")
			return nil
		}
		obj.Fields = append(obj.Fields, field)
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedDelimiter); !ok {
		return nil
	}
	obj.Sp = start.Cover(p.lastSpan)
	return obj
}
