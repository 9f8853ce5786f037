package ast

import (
	"rook/internal/source"
	"rook/internal/token"
)

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement inside a block.
type Stmt interface {
	Node
	stmtNode()
}

type StmtLocal struct {
	Attrs []*Attribute
	Pat   Pat
	Expr  Expr
	Sp    source.Span
}

type StmtItem struct {
	Item Item
	Semi *source.Span
}

type StmtExpr struct {
	Expr Expr
	Semi bool
}

func (s *StmtLocal) Span() source.Span { return s.Sp }
func (s *StmtItem) Span() source.Span  { return s.Item.Span() }
func (s *StmtExpr) Span() source.Span  { return s.Expr.Span() }

func (*StmtLocal) stmtNode() {}
func (*StmtItem) stmtNode()  {}
func (*StmtExpr) stmtNode()  {}

// Block is `{ stmts }`.
type Block struct {
	Stmts []Stmt
	Sp    source.Span
}

// ExprBlock is a block expression, optionally `async`.
type ExprBlock struct {
	Attrs []*Attribute
	Async bool
	Label *Label
	Block *Block
	Sp    source.Span
}

type ExprLit struct {
	Attrs []*Attribute
	Lit   Lit
	Sp    source.Span
}

type ExprPath struct {
	Path *Path
}

type ExprSelf struct {
	Sp source.Span
}

type ExprBinary struct {
	Lhs Expr
	Op  token.Kind
	Rhs Expr
	Sp  source.Span
}

// IsAssign reports whether the operator assigns to Lhs.
func (e *ExprBinary) IsAssign() bool {
	switch e.Op {
	case token.Assign, token.PlusAssign, token.MinusAssign, token.StarAssign, token.SlashAssign, token.PercentAssign:
		return true
	}
	return false
}

type ExprUnary struct {
	Op   token.Kind // Minus or Bang
	Expr Expr
	Sp   source.Span
}

// Condition is an `if`/`while` condition, either an expression or `let pat = expr`.
type Condition struct {
	Let  Pat // nil for plain conditions
	Expr Expr
	Sp   source.Span
}

type ExprIf struct {
	Cond *Condition
	Then *ExprBlock
	Else Expr // *ExprBlock, *ExprIf or nil
	Sp   source.Span
}

type ExprWhile struct {
	Label *Label
	Cond  *Condition
	Body  *ExprBlock
	Sp    source.Span
}

type ExprLoop struct {
	Label *Label
	Body  *ExprBlock
	Sp    source.Span
}

type ExprFor struct {
	Label *Label
	Var   Pat
	Iter  Expr
	Body  *ExprBlock
	Sp    source.Span
}

type MatchBranch struct {
	Pat   Pat
	Guard Expr
	Body  Expr
	Sp    source.Span
}

type ExprMatch struct {
	Expr     Expr
	Branches []*MatchBranch
	Sp       source.Span
}

type SelectBranch struct {
	Pat  Pat
	Expr Expr
	Body Expr
	Sp   source.Span
}

type SelectDefault struct {
	Body Expr
	Sp   source.Span
}

type ExprSelect struct {
	Branches []*SelectBranch
	Default  *SelectDefault
	Sp       source.Span
}

type ExprClosure struct {
	Attrs []*Attribute
	Async bool
	Args  []*FnArg
	Body  Expr
	Sp    source.Span
}

type ExprAwait struct {
	Expr    Expr
	AwaitSp source.Span
	Sp      source.Span
}

type ExprYield struct {
	Expr Expr // optional
	Sp   source.Span
}

type ExprReturn struct {
	Expr Expr // optional
	Sp   source.Span
}

type ExprBreak struct {
	Label *Label
	Expr  Expr // optional
	Sp    source.Span
}

type ExprContinue struct {
	Label *Label
	Sp    source.Span
}

type ExprTry struct {
	Expr Expr
	Sp   source.Span
}

type ExprCall struct {
	Func Expr
	Args []Expr
	Sp   source.Span
}

// ExprFieldAccess is `expr.name` or `expr.0`.
type ExprFieldAccess struct {
	Expr    Expr
	Field   Ident
	Index   int
	IsIndex bool
	Sp      source.Span
}

type ExprIndex struct {
	Target Expr
	Index  Expr
	Sp     source.Span
}

type ExprGroup struct {
	Expr Expr
	Sp   source.Span
}

type ExprMacroCall struct {
	Attrs []*Attribute
	Call  *MacroCall
	Sp    source.Span
}

func (e *ExprBlock) Span() source.Span       { return e.Sp }
func (e *ExprLit) Span() source.Span         { return e.Sp }
func (e *ExprPath) Span() source.Span        { return e.Path.Sp }
func (e *ExprSelf) Span() source.Span        { return e.Sp }
func (e *ExprBinary) Span() source.Span      { return e.Sp }
func (e *ExprUnary) Span() source.Span       { return e.Sp }
func (e *ExprIf) Span() source.Span          { return e.Sp }
func (e *ExprWhile) Span() source.Span       { return e.Sp }
func (e *ExprLoop) Span() source.Span        { return e.Sp }
func (e *ExprFor) Span() source.Span         { return e.Sp }
func (e *ExprMatch) Span() source.Span       { return e.Sp }
func (e *ExprSelect) Span() source.Span      { return e.Sp }
func (e *ExprClosure) Span() source.Span     { return e.Sp }
func (e *ExprAwait) Span() source.Span       { return e.Sp }
func (e *ExprYield) Span() source.Span       { return e.Sp }
func (e *ExprReturn) Span() source.Span      { return e.Sp }
func (e *ExprBreak) Span() source.Span       { return e.Sp }
func (e *ExprContinue) Span() source.Span    { return e.Sp }
func (e *ExprTry) Span() source.Span         { return e.Sp }
func (e *ExprCall) Span() source.Span        { return e.Sp }
func (e *ExprFieldAccess) Span() source.Span { return e.Sp }
func (e *ExprIndex) Span() source.Span       { return e.Sp }
func (e *ExprGroup) Span() source.Span       { return e.Sp }
func (e *ExprMacroCall) Span() source.Span   { return e.Sp }

func (*ExprBlock) exprNode()       {}
func (*ExprLit) exprNode()         {}
func (*ExprPath) exprNode()        {}
func (*ExprSelf) exprNode()        {}
func (*ExprBinary) exprNode()      {}
func (*ExprUnary) exprNode()       {}
func (*ExprIf) exprNode()          {}
func (*ExprWhile) exprNode()       {}
func (*ExprLoop) exprNode()        {}
func (*ExprFor) exprNode()         {}
func (*ExprMatch) exprNode()       {}
func (*ExprSelect) exprNode()      {}
func (*ExprClosure) exprNode()     {}
func (*ExprAwait) exprNode()       {}
func (*ExprYield) exprNode()       {}
func (*ExprReturn) exprNode()      {}
func (*ExprBreak) exprNode()       {}
func (*ExprContinue) exprNode()    {}
func (*ExprTry) exprNode()         {}
func (*ExprCall) exprNode()        {}
func (*ExprFieldAccess) exprNode() {}
func (*ExprIndex) exprNode()       {}
func (*ExprGroup) exprNode()       {}
func (*ExprMacroCall) exprNode()   {}

// IsBlockLike reports whether expr ends with a block and may stand as a
// statement without a trailing ';'.
func IsBlockLike(expr Expr) bool {
	switch e := expr.(type) {
	case *ExprBlock, *ExprIf, *ExprWhile, *ExprLoop, *ExprFor, *ExprMatch, *ExprSelect:
		return true
	case *ExprMacroCall:
		return !e.Call.NeedsSemi()
	}
	return false
}
