package parser

import (
	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/token"
)

// parseBlockExpr parses `{ stmts }`. It always returns a block; statement errors are
// reported and skipped.
func (p *Parser) parseBlockExpr(label *ast.Label, async bool) *ast.ExprBlock {
	start := p.peek().Span
	if label != nil {
		start = label.Sp
	}
	block := p.parseBlock()
	return &ast.ExprBlock{Async: async, Label: label, Block: block, Sp: start.Cover(block.Sp)}
}

func (p *Parser) parseBlock() *ast.Block {
	open, ok := p.expect(token.LBrace, diag.SynUnexpectedToken)
	if !ok {
		return &ast.Block{Sp: p.lastSpan}
	}
	saved := p.noStruct
	p.noStruct = false
	defer func() { p.noStruct = saved }()

	block := &ast.Block{}
	for !p.at(token.RBrace) && !p.at(token.EOF) && !p.enough() {
		if p.eat(token.Semicolon) {
			continue
		}
		before := p.peek().Span
		stmt, ok := p.parseStmt()
		if !ok {
			p.resyncStmt()
			if p.peek().Span == before && !p.at(token.RBrace) {
				p.advance()
			}
			continue
		}
		block.Stmts = append(block.Stmts, stmt)
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter)
	block.Sp = open.Span.Cover(p.lastSpan)
	return block
}

func (p *Parser) atItemInBlock() bool {
	switch p.peek().Kind {
	case token.KwUse, token.KwMod, token.KwStruct, token.KwEnum, token.KwConst, token.KwFn, token.KwImpl:
		return true
	case token.KwAsync:
		return p.peekN(1).Kind == token.KwFn
	}
	return false
}

func (p *Parser) parseStmt() (ast.Stmt, bool) {
	if p.at(token.Pound) && p.peekN(1).Kind == token.LBracket {
		return p.parseAttributedStmt()
	}
	if p.at(token.KwLet) {
		return p.parseLocal(nil)
	}
	if p.atItemInBlock() {
		return p.parseItemStmt()
	}
	return p.parseExprStmt()
}

// parseAttributedStmt handles `#[..]` before a let, an item or an expression.
func (p *Parser) parseAttributedStmt() (ast.Stmt, bool) {
	// атрибуты разбираем заранее, затем решаем, что за ними стоит
	attrs := p.parseOuterAttributes()
	switch {
	case p.at(token.KwLet):
		return p.parseLocal(attrs)
	case p.atItemInBlock():
		item, ok := p.parseItemWithAttrs(attrs)
		if !ok {
			return nil, false
		}
		return p.finishItemStmt(item), true
	}
	expr := p.parsePrimary()
	if expr == nil {
		return nil, false
	}
	if !attachAttrs(expr, attrs) {
		p.errAt(diag.SynUnexpectedToken, attrs[0].Sp, "attributes are not allowed on this expression")
		return nil, false
	}
	if expr = p.parsePostfix(expr); expr == nil {
		return nil, false
	}
	if expr = p.binaryRest(expr, precAssign); expr == nil {
		return nil, false
	}
	return p.finishExprStmt(expr)
}

func (p *Parser) parseLocal(attrs []*ast.Attribute) (ast.Stmt, bool) {
	start := p.advance().Span // let
	if len(attrs) > 0 {
		start = attrs[0].Sp
	}
	pat := p.parsePat()
	if pat == nil {
		return nil, false
	}
	if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken); !ok {
		return nil, false
	}
	expr := p.parseExpr()
	if expr == nil {
		return nil, false
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon); !ok {
		return nil, false
	}
	return &ast.StmtLocal{Attrs: attrs, Pat: pat, Expr: expr, Sp: start.Cover(p.lastSpan)}, true
}

func (p *Parser) parseItemStmt() (ast.Stmt, bool) {
	item, ok := p.parseItemWithAttrs(nil)
	if !ok {
		return nil, false
	}
	return p.finishItemStmt(item), true
}

func (p *Parser) finishItemStmt(item ast.Item) ast.Stmt {
	stmt := &ast.StmtItem{Item: item}
	if p.at(token.Semicolon) {
		sp := p.advance().Span
		stmt.Semi = &sp
	} else if ast.NeedsSemi(item) {
		p.errAt(diag.SynExpectSemicolon, p.lastSpan.Tail(), "expected ';' after item")
	}
	return stmt
}

func (p *Parser) parseExprStmt() (ast.Stmt, bool) {
	expr := p.parseExpr()
	if expr == nil {
		return nil, false
	}
	return p.finishExprStmt(expr)
}

// finishExprStmt decides between `expr;`, a block-like statement and the tail expression.
func (p *Parser) finishExprStmt(expr ast.Expr) (ast.Stmt, bool) {
	switch {
	case p.eat(token.Semicolon):
		return &ast.StmtExpr{Expr: expr, Semi: true}, true
	case p.at(token.RBrace), ast.IsBlockLike(expr):
		return &ast.StmtExpr{Expr: expr}, true
	}
	p.errAt(diag.SynExpectSemicolon, p.lastSpan.Tail(), "expected ';' after expression")
	return nil, false
}
