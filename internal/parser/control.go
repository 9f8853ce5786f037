package parser

import (
	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/token"
)

// parseCondition parses `expr` or `let pat = expr` in if/while heads.
func (p *Parser) parseCondition() *ast.Condition {
	start := p.peek().Span
	cond := &ast.Condition{}
	if p.eat(token.KwLet) {
		if cond.Let = p.parsePat(); cond.Let == nil {
			return nil
		}
		if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken); !ok {
			return nil
		}
	}
	if cond.Expr = p.parseExprNoStruct(); cond.Expr == nil {
		return nil
	}
	cond.Sp = start.Cover(cond.Expr.Span())
	return cond
}

func (p *Parser) parseIf() ast.Expr {
	start := p.advance().Span // if
	cond := p.parseCondition()
	if cond == nil {
		return nil
	}
	e := &ast.ExprIf{Cond: cond, Then: p.parseBlockExpr(nil, false)}
	if p.eat(token.KwElse) {
		switch p.peek().Kind {
		case token.KwIf:
			if e.Else = p.parseIf(); e.Else == nil {
				return nil
			}
		case token.LBrace:
			e.Else = p.parseBlockExpr(nil, false)
		default:
			p.err(diag.SynUnexpectedToken, "expected 'if' or block after 'else', got '"+p.describe()+"'")
			return nil
		}
	}
	e.Sp = start.Cover(p.lastSpan)
	return e
}

func (p *Parser) parseWhile(label *ast.Label) ast.Expr {
	start := p.advance().Span // while
	if label != nil {
		start = label.Sp
	}
	cond := p.parseCondition()
	if cond == nil {
		return nil
	}
	body := p.parseBlockExpr(nil, false)
	return &ast.ExprWhile{Label: label, Cond: cond, Body: body, Sp: start.Cover(body.Sp)}
}

func (p *Parser) parseLoop(label *ast.Label) ast.Expr {
	start := p.advance().Span // loop
	if label != nil {
		start = label.Sp
	}
	body := p.parseBlockExpr(nil, false)
	return &ast.ExprLoop{Label: label, Body: body, Sp: start.Cover(body.Sp)}
}

func (p *Parser) parseFor(label *ast.Label) ast.Expr {
	start := p.advance().Span // for
	if label != nil {
		start = label.Sp
	}
	pat := p.parsePat()
	if pat == nil {
		return nil
	}
	if _, ok := p.expect(token.KwIn, diag.SynUnexpectedToken); !ok {
		return nil
	}
	iter := p.parseExprNoStruct()
	if iter == nil {
		return nil
	}
	body := p.parseBlockExpr(nil, false)
	return &ast.ExprFor{Label: label, Var: pat, Iter: iter, Body: body, Sp: start.Cover(body.Sp)}
}

// parseArmBody parses the body after `=>`; a trailing ',' is required unless the body
// is block-like or closes the branch list.
func (p *Parser) parseArmBody() (ast.Expr, bool) {
	body := p.parseExprAllowStruct()
	if body == nil {
		return nil, false
	}
	if !p.eat(token.Comma) && !p.at(token.RBrace) && !ast.IsBlockLike(body) {
		p.err(diag.SynUnexpectedToken, "expected ',' after branch, got '"+p.describe()+"'")
		return nil, false
	}
	return body, true
}

func (p *Parser) parseMatch() ast.Expr {
	start := p.advance().Span // match
	subject := p.parseExprNoStruct()
	if subject == nil {
		return nil
	}
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken); !ok {
		return nil
	}
	e := &ast.ExprMatch{Expr: subject}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		pat := p.parsePat()
		if pat == nil {
			return nil
		}
		branch := &ast.MatchBranch{Pat: pat}
		if p.eat(token.KwIf) {
			if branch.Guard = p.parseExprAllowStruct(); branch.Guard == nil {
				return nil
			}
		}
		if _, ok := p.expect(token.FatArrow, diag.SynUnexpectedToken); !ok {
			return nil
		}
		body, ok := p.parseArmBody()
		if !ok {
			return nil
		}
		branch.Body = body
		branch.Sp = pat.Span().Cover(body.Span())
		e.Branches = append(e.Branches, branch)
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedDelimiter); !ok {
		return nil
	}
	e.Sp = start.Cover(p.lastSpan)
	return e
}

// parseSelect parses `select { pat = future => body, default => body }`.
func (p *Parser) parseSelect() ast.Expr {
	start := p.advance().Span // select
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken); !ok {
		return nil
	}
	e := &ast.ExprSelect{}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if p.at(token.KwDefault) {
			dstart := p.advance().Span
			if e.Default != nil {
				p.errAt(diag.SynUnexpectedToken, dstart, "duplicate default branch in select")
				return nil
			}
			if _, ok := p.expect(token.FatArrow, diag.SynUnexpectedToken); !ok {
				return nil
			}
			body, ok := p.parseArmBody()
			if !ok {
				return nil
			}
			e.Default = &ast.SelectDefault{Body: body, Sp: dstart.Cover(body.Span())}
			continue
		}
		pat := p.parsePat()
		if pat == nil {
			return nil
		}
		if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken); !ok {
			return nil
		}
		fut := p.parseExprNoStruct()
		if fut == nil {
			return nil
		}
		if _, ok := p.expect(token.FatArrow, diag.SynUnexpectedToken); !ok {
			return nil
		}
		body, ok := p.parseArmBody()
		if !ok {
			return nil
		}
		e.Branches = append(e.Branches, &ast.SelectBranch{Pat: pat, Expr: fut, Body: body, Sp: pat.Span().Cover(body.Span())})
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedDelimiter); !ok {
		return nil
	}
	e.Sp = start.Cover(p.lastSpan)
	return e
}
