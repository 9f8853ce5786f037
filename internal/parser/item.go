package parser

import (
	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/source"
	"rook/internal/token"
)

func (p *Parser) parseItem() (ast.Item, bool) {
	return p.parseItemWithAttrs(p.parseOuterAttributes())
}

// parseItemWithAttrs выбирает по первому токену нужный распознаватель item.
func (p *Parser) parseItemWithAttrs(attrs []*ast.Attribute) (ast.Item, bool) {
	start := p.peek().Span
	if len(attrs) > 0 {
		start = attrs[0].Sp
	}

	switch p.peek().Kind {
	case token.KwUse:
		return p.parseUse(attrs, start)
	case token.KwMod:
		return p.parseMod(attrs, start)
	case token.KwStruct:
		return p.parseStruct(attrs, start)
	case token.KwEnum:
		return p.parseEnum(attrs, start)
	case token.KwConst:
		return p.parseConst(attrs, start)
	case token.KwFn, token.KwAsync:
		fn, ok := p.parseFn(attrs, start)
		return fn, ok
	case token.KwImpl:
		return p.parseImpl(attrs, start)
	case token.Ident, token.ColonColon, token.KwCrate, token.KwSuper, token.KwSelf:
		path, ok := p.parsePath()
		if !ok {
			return nil, false
		}
		if !p.at(token.Bang) {
			p.errAt(diag.SynExpectItem, path.Sp, "expected item, found path")
			return nil, false
		}
		call, ok := p.parseMacroCall(path)
		if !ok {
			return nil, false
		}
		return &ast.ItemMacroCall{Attrs: attrs, Call: call, Sp: start.Cover(call.Sp)}, true
	default:
		p.err(diag.SynExpectItem, "expected item, got '"+p.describe()+"'")
		return nil, false
	}
}

func (p *Parser) parseMod(attrs []*ast.Attribute, start source.Span) (ast.Item, bool) {
	p.advance() // mod
	name, ok := p.parseIdent()
	if !ok {
		return nil, false
	}
	item := &ast.ItemMod{Attrs: attrs, Name: name}
	if p.at(token.LBrace) {
		open := p.advance().Span
		items := p.parseItemEntries(token.RBrace)
		if _, ok := p.expect(token.RBrace, diag.SynUnclosedDelimiter); !ok {
			return nil, false
		}
		item.Body = &ast.ModBody{Items: items, Sp: open.Cover(p.lastSpan)}
	}
	item.Sp = start.Cover(p.lastSpan)
	return item, true
}

func (p *Parser) parseStruct(attrs []*ast.Attribute, start source.Span) (ast.Item, bool) {
	p.advance() // struct
	name, ok := p.parseIdent()
	if !ok {
		return nil, false
	}
	body, ok := p.parseStructBody()
	if !ok {
		return nil, false
	}
	return &ast.ItemStruct{Attrs: attrs, Name: name, Body: body, Sp: start.Cover(p.lastSpan)}, true
}

// parseStructBody parses nothing (unit), `(a, b)` or `{ a, b }`.
func (p *Parser) parseStructBody() (ast.StructBody, bool) {
	var body ast.StructBody
	var closer token.Kind
	switch {
	case p.eat(token.LParen):
		body.Kind, closer = ast.StructTuple, token.RParen
	case p.eat(token.LBrace):
		body.Kind, closer = ast.StructNamed, token.RBrace
	default:
		return body, true
	}
	for !p.at(closer) && !p.at(token.EOF) {
		fieldAttrs := p.parseOuterAttributes()
		name, ok := p.parseIdent()
		if !ok {
			return body, false
		}
		sp := name.Sp
		if len(fieldAttrs) > 0 {
			sp = fieldAttrs[0].Sp.Cover(sp)
		}
		body.Fields = append(body.Fields, &ast.Field{Attrs: fieldAttrs, Name: name, Sp: sp})
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(closer, diag.SynUnclosedDelimiter); !ok {
		return body, false
	}
	return body, true
}

func (p *Parser) parseEnum(attrs []*ast.Attribute, start source.Span) (ast.Item, bool) {
	p.advance() // enum
	name, ok := p.parseIdent()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken); !ok {
		return nil, false
	}
	item := &ast.ItemEnum{Attrs: attrs, Name: name}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		variantAttrs := p.parseOuterAttributes()
		vname, ok := p.parseIdent()
		if !ok {
			return nil, false
		}
		body, ok := p.parseStructBody()
		if !ok {
			return nil, false
		}
		vstart := vname.Sp
		if len(variantAttrs) > 0 {
			vstart = variantAttrs[0].Sp
		}
		item.Variants = append(item.Variants, &ast.Variant{
			Attrs: variantAttrs, Name: vname, Body: body, Sp: vstart.Cover(p.lastSpan),
		})
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedDelimiter); !ok {
		return nil, false
	}
	item.Sp = start.Cover(p.lastSpan)
	return item, true
}

func (p *Parser) parseConst(attrs []*ast.Attribute, start source.Span) (ast.Item, bool) {
	p.advance() // const
	name, ok := p.parseIdent()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken); !ok {
		return nil, false
	}
	expr := p.parseExpr()
	if expr == nil {
		return nil, false
	}
	return &ast.ItemConst{Attrs: attrs, Name: name, Expr: expr, Sp: start.Cover(p.lastSpan)}, true
}

func (p *Parser) parseImpl(attrs []*ast.Attribute, start source.Span) (ast.Item, bool) {
	p.advance() // impl
	path, ok := p.parsePath()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken); !ok {
		return nil, false
	}
	item := &ast.ItemImpl{Attrs: attrs, Path: path}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		fnAttrs := p.parseOuterAttributes()
		fnStart := p.peek().Span
		if len(fnAttrs) > 0 {
			fnStart = fnAttrs[0].Sp
		}
		if !p.atOr(token.KwFn, token.KwAsync) {
			p.err(diag.SynUnexpectedToken, "expected function in impl block, got '"+p.describe()+"'")
			p.resyncStmt()
			continue
		}
		fn, ok := p.parseFn(fnAttrs, fnStart)
		if !ok {
			p.resyncStmt()
			continue
		}
		item.Fns = append(item.Fns, fn)
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedDelimiter); !ok {
		return nil, false
	}
	item.Sp = start.Cover(p.lastSpan)
	return item, true
}

func (p *Parser) parseFn(attrs []*ast.Attribute, start source.Span) (*ast.ItemFn, bool) {
	fn := &ast.ItemFn{Attrs: attrs}
	if p.eat(token.KwAsync) {
		fn.Async = true
	}
	if _, ok := p.expect(token.KwFn, diag.SynUnexpectedToken); !ok {
		return nil, false
	}
	name, ok := p.parseIdent()
	if !ok {
		return nil, false
	}
	fn.Name = name
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken); !ok {
		return nil, false
	}
	args, ok := p.parseFnArgs(token.RParen)
	if !ok {
		return nil, false
	}
	fn.Args = args
	if !p.at(token.LBrace) {
		p.err(diag.SynUnexpectedToken, "expected function body, got '"+p.describe()+"'")
		return nil, false
	}
	fn.Body = p.parseBlockExpr(nil, false)
	fn.Sp = start.Cover(p.lastSpan)
	return fn, true
}

// parseFnArgs parses arguments up to and including closer.
func (p *Parser) parseFnArgs(closer token.Kind) ([]*ast.FnArg, bool) {
	var args []*ast.FnArg
	for !p.at(closer) && !p.at(token.EOF) {
		if p.at(token.KwSelf) {
			sp := p.advance().Span
			args = append(args, &ast.FnArg{Self: true, Sp: sp})
		} else {
			pat := p.parsePat()
			if pat == nil {
				return nil, false
			}
			args = append(args, &ast.FnArg{Pat: pat, Sp: pat.Span()})
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(closer, diag.SynUnclosedDelimiter); !ok {
		return nil, false
	}
	return args, true
}
