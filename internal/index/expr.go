package index

import (
	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/macros"
	"rook/internal/meta"
)

// block indexes a `{ ... }` body: a new anonymous block path and a plain scope.
func (ix *Indexer) block(b *ast.Block) error {
	return ix.items.WithBlock(func() error {
		return ix.scopes.WithScope(func() error {
			for _, stmt := range b.Stmts {
				if err := ix.stmt(stmt); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func (ix *Indexer) stmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.StmtLocal:
		if err := unsupportedAttrs(s.Attrs, "let"); err != nil {
			return err
		}
		// значение вычисляется до появления привязок
		if err := ix.expr(s.Expr); err != nil {
			return err
		}
		return ix.pat(s.Pat)
	case *ast.StmtItem:
		return ix.item(s.Item)
	case *ast.StmtExpr:
		return ix.expr(s.Expr)
	default:
		return diag.Internal(stmt.Span(), "unexpected statement %T", stmt)
	}
}

func (ix *Indexer) exprs(list []ast.Expr) error {
	for _, e := range list {
		if err := ix.expr(e); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Indexer) optExpr(e ast.Expr) error {
	if e == nil {
		return nil
	}
	return ix.expr(e)
}

func (ix *Indexer) expr(expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.ExprSelf:
		ix.scopes.MarkUse("self")
		return nil
	case *ast.ExprPath:
		if id, ok := e.Path.Single(); ok {
			ix.scopes.MarkUse(ix.name(id))
		}
		return nil
	case *ast.ExprBlock:
		return ix.exprBlock(e)
	case *ast.ExprGroup:
		return ix.expr(e.Expr)
	case *ast.ExprIf:
		return ix.exprIf(e)
	case *ast.ExprBinary:
		if lhs, ok := e.Lhs.(*ast.ExprIndex); ok && e.IsAssign() {
			if err := ix.expr(e.Rhs); err != nil {
				return err
			}
			if err := ix.expr(lhs.Index); err != nil {
				return err
			}
			return ix.expr(lhs.Target)
		}
		if err := ix.expr(e.Lhs); err != nil {
			return err
		}
		return ix.expr(e.Rhs)
	case *ast.ExprUnary:
		return ix.expr(e.Expr)
	case *ast.ExprMatch:
		return ix.exprMatch(e)
	case *ast.ExprClosure:
		return ix.closure(e)
	case *ast.ExprWhile:
		return ix.scopes.WithScope(func() error {
			if err := ix.condition(e.Cond); err != nil {
				return err
			}
			return ix.exprBlock(e.Body)
		})
	case *ast.ExprLoop:
		return ix.scopes.WithScope(func() error {
			return ix.exprBlock(e.Body)
		})
	case *ast.ExprFor:
		// итератор вычисляется в родительской области
		if err := ix.expr(e.Iter); err != nil {
			return err
		}
		return ix.scopes.WithScope(func() error {
			if err := ix.pat(e.Var); err != nil {
				return err
			}
			return ix.exprBlock(e.Body)
		})
	case *ast.ExprIndex:
		if err := ix.expr(e.Index); err != nil {
			return err
		}
		return ix.expr(e.Target)
	case *ast.ExprFieldAccess:
		return ix.expr(e.Expr)
	case *ast.ExprBreak:
		return ix.optExpr(e.Expr)
	case *ast.ExprContinue:
		return nil
	case *ast.ExprYield:
		if err := ix.scopes.MarkYield(e.Sp); err != nil {
			return err
		}
		return ix.optExpr(e.Expr)
	case *ast.ExprReturn:
		return ix.optExpr(e.Expr)
	case *ast.ExprAwait:
		if err := ix.scopes.MarkAwait(e.Sp); err != nil {
			return err
		}
		return ix.expr(e.Expr)
	case *ast.ExprTry:
		return ix.expr(e.Expr)
	case *ast.ExprSelect:
		return ix.exprSelect(e)
	case *ast.ExprCall:
		if err := ix.exprs(e.Args); err != nil {
			return err
		}
		return ix.expr(e.Func)
	case *ast.ExprLit:
		return ix.lit(e)
	case *ast.ExprMacroCall:
		if err := unsupportedAttrs(e.Attrs, "macro"); err != nil {
			return err
		}
		return ix.items.WithMacro(func() error {
			ix.env.Queue.Push(&ExpandMacro{
				Kind:         macros.KindExpr,
				Root:         ix.root,
				Item:         ix.items.Item(),
				Continuation: ix.Continuation(),
				Call:         e.Call,
				Span:         e.Sp,
				File:         ix.file,
			})
			return nil
		})
	default:
		return diag.Internal(expr.Span(), "unexpected expression %T", expr)
	}
}

func (ix *Indexer) exprBlock(e *ast.ExprBlock) error {
	if e.Async {
		return ix.asyncBlock(e)
	}
	if err := unsupportedAttrs(e.Attrs, "block"); err != nil {
		return err
	}
	return ix.block(e.Block)
}

func (ix *Indexer) asyncBlock(e *ast.ExprBlock) error {
	if err := unsupportedAttrs(e.Attrs, "async block"); err != nil {
		return err
	}
	return ix.items.WithAsyncBlock(func() error {
		c, err := ix.scopes.WithAsyncBlock(func() error {
			return ix.block(e.Block)
		})
		if err != nil {
			return err
		}
		call := meta.CallFor(c.IsGenerator, c.IsAsync)
		return ix.env.Query.IndexAsyncBlock(ix.items.Item(), e, c.Captures, call, ix.file)
	})
}

func (ix *Indexer) closure(e *ast.ExprClosure) error {
	if err := unsupportedAttrs(e.Attrs, "closure"); err != nil {
		return err
	}
	return ix.items.WithClosure(func() error {
		c, err := ix.scopes.WithClosure(e.Async, func() error {
			for _, arg := range e.Args {
				if arg.Self {
					return diag.Errorf(diag.IdxUnsupportedSelf, arg.Sp, "closures cannot take `self`")
				}
				if err := ix.pat(arg.Pat); err != nil {
					return err
				}
			}
			return ix.expr(e.Body)
		})
		if err != nil {
			return err
		}
		call := meta.CallFor(c.IsGenerator, c.IsAsync)
		return ix.env.Query.IndexClosure(ix.items.Item(), e, c.Captures, call, ix.file)
	})
}

// condition indexes the value first, then the `let` pattern if any.
func (ix *Indexer) condition(c *ast.Condition) error {
	if err := ix.expr(c.Expr); err != nil {
		return err
	}
	if c.Let != nil {
		return ix.pat(c.Let)
	}
	return nil
}

func (ix *Indexer) exprIf(e *ast.ExprIf) error {
	// привязки `if let` видны только в ветке then
	err := ix.scopes.WithScope(func() error {
		if err := ix.condition(e.Cond); err != nil {
			return err
		}
		return ix.exprBlock(e.Then)
	})
	if err != nil {
		return err
	}
	return ix.optExpr(e.Else)
}

func (ix *Indexer) exprMatch(e *ast.ExprMatch) error {
	if err := ix.expr(e.Expr); err != nil {
		return err
	}
	for _, br := range e.Branches {
		if err := ix.optExpr(br.Guard); err != nil {
			return err
		}
		err := ix.scopes.WithScope(func() error {
			if err := ix.pat(br.Pat); err != nil {
				return err
			}
			return ix.expr(br.Body)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (ix *Indexer) exprSelect(e *ast.ExprSelect) error {
	if err := ix.scopes.MarkAwait(e.Sp); err != nil {
		return err
	}
	for _, br := range e.Branches {
		// future вычисляется в родительской области
		if err := ix.expr(br.Expr); err != nil {
			return err
		}
		err := ix.scopes.WithScope(func() error {
			if err := ix.pat(br.Pat); err != nil {
				return err
			}
			return ix.expr(br.Body)
		})
		if err != nil {
			return err
		}
	}
	if e.Default == nil {
		return nil
	}
	return ix.scopes.WithScope(func() error {
		return ix.expr(e.Default.Body)
	})
}

func (ix *Indexer) lit(e *ast.ExprLit) error {
	if err := unsupportedAttrs(e.Attrs, "literal"); err != nil {
		return err
	}
	switch l := e.Lit.(type) {
	case *ast.LitTemplate:
		for _, part := range l.Parts {
			if err := ix.optExpr(part.Expr); err != nil {
				return err
			}
		}
	case *ast.LitTuple:
		return ix.exprs(l.Items)
	case *ast.LitVec:
		return ix.exprs(l.Items)
	case *ast.LitObject:
		for _, f := range l.Fields {
			if f.Value != nil {
				if err := ix.expr(f.Value); err != nil {
					return err
				}
				continue
			}
			if f.Key.Ident != nil {
				ix.scopes.MarkUse(ix.name(*f.Key.Ident))
			}
		}
	}
	return nil
}

func (ix *Indexer) pat(p ast.Pat) error {
	switch p := p.(type) {
	case *ast.PatPath:
		if id, ok := p.Path.Single(); ok {
			return ix.scopes.Declare(ix.name(id), id.Sp)
		}
	case *ast.PatTuple:
		return ix.pats(p.Items)
	case *ast.PatVec:
		return ix.pats(p.Items)
	case *ast.PatObject:
		for _, f := range p.Fields {
			if f.Pat != nil {
				if err := ix.pat(f.Pat); err != nil {
					return err
				}
				continue
			}
			if f.Key.Ident != nil {
				if err := ix.scopes.Declare(ix.name(*f.Key.Ident), f.Key.Sp); err != nil {
					return err
				}
			}
		}
	case *ast.PatIgnore, *ast.PatLit, nil:
	}
	return nil
}

func (ix *Indexer) pats(list []ast.Pat) error {
	for _, p := range list {
		if err := ix.pat(p); err != nil {
			return err
		}
	}
	return nil
}
