package parser

import (
	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/source"
	"rook/internal/token"
)

// Binding powers for binary operators. Assignment is right-associative.
const (
	precNone = iota
	precAssign
	precOr
	precAnd
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdd
	precMul
)

func binaryPrec(k token.Kind) int {
	switch k {
	case token.Assign, token.PlusAssign, token.MinusAssign, token.StarAssign, token.SlashAssign, token.PercentAssign:
		return precAssign
	case token.OrOr:
		return precOr
	case token.AndAnd:
		return precAnd
	case token.EqEq, token.BangEq, token.Lt, token.LtEq, token.Gt, token.GtEq:
		return precCompare
	case token.Pipe:
		return precBitOr
	case token.Caret:
		return precBitXor
	case token.Amp:
		return precBitAnd
	case token.Shl, token.Shr:
		return precShift
	case token.Plus, token.Minus:
		return precAdd
	case token.Star, token.Slash, token.Percent:
		return precMul
	}
	return precNone
}

// parseExpr parses a full expression; nil means an error was reported.
func (p *Parser) parseExpr() ast.Expr {
	return p.parseBinary(precAssign)
}

// parseExprNoStruct parses an expression where `Path {` does not start an object literal
// (if/while conditions, for iterators, match heads).
func (p *Parser) parseExprNoStruct() ast.Expr {
	saved := p.noStruct
	p.noStruct = true
	defer func() { p.noStruct = saved }()
	return p.parseExpr()
}

// parseExprAllowStruct re-enables object literals inside delimiters.
func (p *Parser) parseExprAllowStruct() ast.Expr {
	saved := p.noStruct
	p.noStruct = false
	defer func() { p.noStruct = saved }()
	return p.parseExpr()
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	lhs := p.parseUnary()
	if lhs == nil {
		return nil
	}
	return p.binaryRest(lhs, minPrec)
}

// binaryRest continues precedence climbing from an already parsed left operand.
func (p *Parser) binaryRest(lhs ast.Expr, minPrec int) ast.Expr {
	for {
		op := p.peek().Kind
		prec := binaryPrec(op)
		if prec == precNone || prec < minPrec {
			return lhs
		}
		p.advance()
		next := prec + 1
		if prec == precAssign {
			next = prec
		}
		rhs := p.parseBinary(next)
		if rhs == nil {
			return nil
		}
		lhs = &ast.ExprBinary{Lhs: lhs, Op: op, Rhs: rhs, Sp: lhs.Span().Cover(rhs.Span())}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	if p.atOr(token.Minus, token.Bang) {
		op := p.advance()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &ast.ExprUnary{Op: op.Kind, Expr: operand, Sp: op.Span.Cover(operand.Span())}
	}
	primary := p.parsePrimary()
	if primary == nil {
		return nil
	}
	return p.parsePostfix(primary)
}

func (p *Parser) parsePostfix(expr ast.Expr) ast.Expr {
	for {
		switch p.peek().Kind {
		case token.LParen:
			p.advance()
			args, ok := p.parseExprList(token.RParen)
			if !ok {
				return nil
			}
			expr = &ast.ExprCall{Func: expr, Args: args, Sp: expr.Span().Cover(p.lastSpan)}
		case token.LBracket:
			p.advance()
			index := p.parseExprAllowStruct()
			if index == nil {
				return nil
			}
			if _, ok := p.expect(token.RBracket, diag.SynUnclosedDelimiter); !ok {
				return nil
			}
			expr = &ast.ExprIndex{Target: expr, Index: index, Sp: expr.Span().Cover(p.lastSpan)}
		case token.Dot:
			p.advance()
			next := p.peek()
			switch next.Kind {
			case token.KwAwait:
				p.advance()
				expr = &ast.ExprAwait{Expr: expr, AwaitSp: next.Span, Sp: expr.Span().Cover(next.Span)}
			case token.Ident:
				field, _ := p.parseIdent()
				expr = &ast.ExprFieldAccess{Expr: expr, Field: field, Sp: expr.Span().Cover(field.Sp)}
			case token.NumberLit:
				p.advance()
				idx, ok := tupleIndex(next.Text)
				if !ok {
					p.errAt(diag.SynBadLiteral, next.Span, "invalid tuple index '"+next.Text+"'")
					return nil
				}
				expr = &ast.ExprFieldAccess{Expr: expr, Index: idx, IsIndex: true, Sp: expr.Span().Cover(next.Span)}
			default:
				p.err(diag.SynExpectIdentifier, "expected field name after '.', got '"+p.describe()+"'")
				return nil
			}
		case token.Question:
			q := p.advance()
			expr = &ast.ExprTry{Expr: expr, Sp: expr.Span().Cover(q.Span)}
		default:
			return expr
		}
	}
}

func tupleIndex(text string) (int, bool) {
	if text == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
		if n > 1<<16 {
			return 0, false
		}
	}
	return n, true
}

// parseExprList parses comma-separated expressions up to and including closer.
func (p *Parser) parseExprList(closer token.Kind) ([]ast.Expr, bool) {
	var list []ast.Expr
	for !p.at(closer) && !p.at(token.EOF) {
		e := p.parseExprAllowStruct()
		if e == nil {
			return nil, false
		}
		list = append(list, e)
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(closer, diag.SynUnclosedDelimiter); !ok {
		return nil, false
	}
	return list, true
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.NumberLit, token.StringLit, token.ByteStringLit, token.CharLit, token.ByteLit,
		token.TemplateLit, token.KwTrue, token.KwFalse:
		return p.parseLiteralExpr()
	case token.KwSelf:
		if p.peekN(1).Kind != token.ColonColon {
			p.advance()
			return &ast.ExprSelf{Sp: tok.Span}
		}
		return p.parsePathExpr()
	case token.Ident, token.ColonColon, token.KwCrate, token.KwSuper:
		return p.parsePathExpr()
	case token.LParen:
		return p.parseParenExpr()
	case token.LBracket:
		p.advance()
		items, ok := p.parseExprList(token.RBracket)
		if !ok {
			return nil
		}
		return &ast.ExprLit{Lit: &ast.LitVec{Items: items}, Sp: tok.Span.Cover(p.lastSpan)}
	case token.Pound:
		if p.peekN(1).Kind == token.LBrace {
			p.advance()
			return p.parseObjectLit(nil, tok.Span)
		}
		return p.parseAttributedExpr()
	case token.LBrace:
		return p.parseBlockExpr(nil, false)
	case token.KwAsync:
		return p.parseAsyncExpr()
	case token.Pipe, token.OrOr:
		return p.parseClosure(nil, false, tok.Span)
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile(nil)
	case token.KwLoop:
		return p.parseLoop(nil)
	case token.KwFor:
		return p.parseFor(nil)
	case token.KwMatch:
		return p.parseMatch()
	case token.KwSelect:
		return p.parseSelect()
	case token.Label:
		return p.parseLabeled()
	case token.KwReturn:
		p.advance()
		e := &ast.ExprReturn{Sp: tok.Span}
		if p.canStartOperand() {
			if e.Expr = p.parseExpr(); e.Expr == nil {
				return nil
			}
			e.Sp = e.Sp.Cover(e.Expr.Span())
		}
		return e
	case token.KwYield:
		p.advance()
		e := &ast.ExprYield{Sp: tok.Span}
		if p.canStartOperand() {
			if e.Expr = p.parseExpr(); e.Expr == nil {
				return nil
			}
			e.Sp = e.Sp.Cover(e.Expr.Span())
		}
		return e
	case token.KwBreak:
		p.advance()
		e := &ast.ExprBreak{Sp: tok.Span}
		if p.at(token.Label) {
			e.Label = p.parseLabel()
			e.Sp = e.Sp.Cover(e.Label.Sp)
		} else if p.canStartOperand() {
			if e.Expr = p.parseExpr(); e.Expr == nil {
				return nil
			}
			e.Sp = e.Sp.Cover(e.Expr.Span())
		}
		return e
	case token.KwContinue:
		p.advance()
		e := &ast.ExprContinue{Sp: tok.Span}
		if p.at(token.Label) {
			e.Label = p.parseLabel()
			e.Sp = e.Sp.Cover(e.Label.Sp)
		}
		return e
	}
	p.err(diag.SynExpectExpression, "expected expression, got '"+p.describe()+"'")
	return nil
}

// canStartOperand reports whether the next token may begin the optional operand of
// return/yield/break.
func (p *Parser) canStartOperand() bool {
	switch p.peek().Kind {
	case token.Semicolon, token.RBrace, token.RParen, token.RBracket, token.Comma, token.EOF,
		token.FatArrow:
		return false
	}
	return true
}

func (p *Parser) parseLabel() *ast.Label {
	tok := p.advance()
	return &ast.Label{Name: p.intern(tok.Text[1:]), Sp: tok.Span}
}

// parseLabeled parses `'label: loop|while|for|{...}`.
func (p *Parser) parseLabeled() ast.Expr {
	label := p.parseLabel()
	if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken); !ok {
		return nil
	}
	switch p.peek().Kind {
	case token.KwLoop:
		return p.parseLoop(label)
	case token.KwWhile:
		return p.parseWhile(label)
	case token.KwFor:
		return p.parseFor(label)
	case token.LBrace:
		return p.parseBlockExpr(label, false)
	}
	p.err(diag.SynExpectExpression, "expected loop or block after label, got '"+p.describe()+"'")
	return nil
}

func (p *Parser) parsePathExpr() ast.Expr {
	path, ok := p.parsePath()
	if !ok {
		return nil
	}
	switch {
	case p.at(token.Bang) && p.atMacroDelimiter(1):
		call, ok := p.parseMacroCall(path)
		if !ok {
			return nil
		}
		return &ast.ExprMacroCall{Call: call, Sp: call.Sp}
	case p.at(token.LBrace) && !p.noStruct:
		return p.parseObjectLit(path, path.Sp)
	}
	return &ast.ExprPath{Path: path}
}

func (p *Parser) atMacroDelimiter(n int) bool {
	switch p.peekN(n).Kind {
	case token.LParen, token.LBracket, token.LBrace:
		return true
	}
	return false
}

// parseParenExpr parses `()`, `(e)` and tuples `(a,)`, `(a, b)`.
func (p *Parser) parseParenExpr() ast.Expr {
	open := p.advance()
	if p.eat(token.RParen) {
		return &ast.ExprLit{Lit: ast.LitUnit{}, Sp: open.Span.Cover(p.lastSpan)}
	}
	first := p.parseExprAllowStruct()
	if first == nil {
		return nil
	}
	if p.eat(token.RParen) {
		return &ast.ExprGroup{Expr: first, Sp: open.Span.Cover(p.lastSpan)}
	}
	if _, ok := p.expect(token.Comma, diag.SynUnexpectedToken); !ok {
		return nil
	}
	rest, ok := p.parseExprList(token.RParen)
	if !ok {
		return nil
	}
	items := append([]ast.Expr{first}, rest...)
	return &ast.ExprLit{Lit: &ast.LitTuple{Items: items}, Sp: open.Span.Cover(p.lastSpan)}
}

// parseAttributedExpr parses `#[attr] expr`; only blocks, literals, closures and macro
// calls carry attributes.
func (p *Parser) parseAttributedExpr() ast.Expr {
	attrs := p.parseOuterAttributes()
	if len(attrs) == 0 {
		p.err(diag.SynExpectExpression, "expected expression, got '"+p.describe()+"'")
		return nil
	}
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}
	if !attachAttrs(expr, attrs) {
		p.errAt(diag.SynUnexpectedToken, attrs[0].Sp, "attributes are not allowed on this expression")
		return nil
	}
	return p.parsePostfix(expr)
}

func attachAttrs(expr ast.Expr, attrs []*ast.Attribute) bool {
	sp := attrs[0].Sp
	switch e := expr.(type) {
	case *ast.ExprBlock:
		e.Attrs, e.Sp = attrs, sp.Cover(e.Sp)
	case *ast.ExprLit:
		e.Attrs, e.Sp = attrs, sp.Cover(e.Sp)
	case *ast.ExprClosure:
		e.Attrs, e.Sp = attrs, sp.Cover(e.Sp)
	case *ast.ExprMacroCall:
		e.Attrs, e.Sp = attrs, sp.Cover(e.Sp)
	default:
		return false
	}
	return true
}

// parseObjectLit parses the `{ key: value, ... }` part of `#{...}` or `Path {...}`.
func (p *Parser) parseObjectLit(path *ast.Path, start source.Span) ast.Expr {
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken); !ok {
		return nil
	}
	obj := &ast.LitObject{Path: path}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		key, ok := p.parseObjectKey()
		if !ok {
			return nil
		}
		field := &ast.ObjectField{Key: key, Sp: key.Sp}
		if p.eat(token.Colon) {
			if field.Value = p.parseExprAllowStruct(); field.Value == nil {
				return nil
			}
			field.Sp = field.Sp.Cover(field.Value.Span())
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
	return &ast.ExprLit{Lit: obj, Sp: start.Cover(p.lastSpan)}
}

func (p *Parser) parseObjectKey() (ast.ObjectKey, bool) {
	tok := p.peek()
	switch tok.Kind {
	case token.Ident:
		id, _ := p.parseIdent()
		return ast.ObjectKey{Ident: &id, Sp: id.Sp}, true
	case token.StringLit:
		p.advance()
		s, ok := p.unquote(tok, "")
		if !ok {
			return ast.ObjectKey{}, false
		}
		return ast.ObjectKey{String: s, Sp: tok.Span}, true
	}
	p.err(diag.SynExpectIdentifier, "expected object key, got '"+p.describe()+"'")
	return ast.ObjectKey{}, false
}

func (p *Parser) parseAsyncExpr() ast.Expr {
	start := p.advance() // async
	switch p.peek().Kind {
	case token.LBrace:
		block := p.parseBlockExpr(nil, true)
		block.Sp = start.Span.Cover(block.Sp)
		return block
	case token.Pipe, token.OrOr:
		return p.parseClosure(nil, true, start.Span)
	}
	p.err(diag.SynUnexpectedToken, "expected block or closure after 'async', got '"+p.describe()+"'")
	return nil
}

// parseClosure parses `|args| body` or `|| body`.
func (p *Parser) parseClosure(attrs []*ast.Attribute, async bool, start source.Span) ast.Expr {
	c := &ast.ExprClosure{Attrs: attrs, Async: async}
	if !p.eat(token.OrOr) {
		p.advance() // |
		args, ok := p.parseFnArgs(token.Pipe)
		if !ok {
			return nil
		}
		c.Args = args
	}
	if c.Body = p.parseExpr(); c.Body == nil {
		return nil
	}
	c.Sp = start.Cover(c.Body.Span())
	return c
}
