package query

import (
	"math"
	"strings"

	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/items"
	"rook/internal/meta"
	"rook/internal/source"
	"rook/internal/token"
)

// constEval evaluates const expressions on demand. Consts may refer to
// consts declared later; a const that is reached again while it is being
// evaluated closes a cycle.
type constEval struct {
	q        *Query
	active   map[string]source.Span
	failures map[string]error
}

func newConstEval(q *Query) *constEval {
	return &constEval{
		q:        q,
		active:   make(map[string]source.Span),
		failures: make(map[string]error),
	}
}

// constFrame is the evaluation context of one const: its module and the
// `let` bindings of enclosing blocks.
type constFrame struct {
	module items.Item
	locals []map[string]meta.ConstValue
}

func (f *constFrame) lookupLocal(name string) (meta.ConstValue, bool) {
	for i := len(f.locals) - 1; i >= 0; i-- {
		if v, ok := f.locals[i][name]; ok {
			return v, true
		}
	}
	return meta.ConstValue{}, false
}

func (c *constEval) eval(e *IndexedEntry) (meta.ConstValue, error) {
	key := e.Item.Key()
	if err, ok := c.failures[key]; ok {
		return meta.ConstValue{}, err
	}
	if _, ok := c.active[key]; ok {
		return meta.ConstValue{}, diag.Errorf(diag.IdxConstCycle, e.Span, "const `%s` depends on itself", e.Item)
	}
	c.active[key] = e.Span
	defer delete(c.active, key)

	module, _ := e.Item.Parent()
	frame := &constFrame{module: module}
	v, err := c.expr(frame, e.Const)
	if err != nil {
		c.failures[key] = err
		return meta.ConstValue{}, err
	}
	return v, nil
}

func constErr(span source.Span, format string, args ...any) error {
	return diag.Errorf(diag.IdxConstEval, span, format, args...)
}

func (c *constEval) expr(f *constFrame, expr ast.Expr) (meta.ConstValue, error) {
	switch e := expr.(type) {
	case *ast.ExprLit:
		return c.lit(f, e)
	case *ast.ExprGroup:
		return c.expr(f, e.Expr)
	case *ast.ExprPath:
		return c.path(f, e.Path)
	case *ast.ExprUnary:
		return c.unary(f, e)
	case *ast.ExprBinary:
		return c.binary(f, e)
	case *ast.ExprBlock:
		if e.Async {
			return meta.ConstValue{}, constErr(e.Sp, "async blocks are not allowed in consts")
		}
		return c.block(f, e.Block)
	case *ast.ExprIf:
		return c.ifExpr(f, e)
	default:
		return meta.ConstValue{}, constErr(expr.Span(), "expression is not supported in const context")
	}
}

func (c *constEval) lit(f *constFrame, e *ast.ExprLit) (meta.ConstValue, error) {
	switch l := e.Lit.(type) {
	case ast.LitUnit:
		return meta.Unit(), nil
	case ast.LitBool:
		return meta.Bool(l.Value), nil
	case ast.LitStr:
		return meta.String(l.Value), nil
	case ast.LitNumber:
		n, err := l.Value()
		if err != nil {
			return meta.ConstValue{}, constErr(e.Sp, "%v", err)
		}
		if n.IsFloat {
			return meta.Float(n.Float), nil
		}
		return meta.Integer(n.Int), nil
	case *ast.LitTemplate:
		var sb strings.Builder
		for _, part := range l.Parts {
			if part.Expr == nil {
				sb.WriteString(part.Text)
				continue
			}
			v, err := c.expr(f, part.Expr)
			if err != nil {
				return meta.ConstValue{}, err
			}
			switch v.Kind {
			case meta.ConstString, meta.ConstInteger, meta.ConstFloat, meta.ConstBool:
				sb.WriteString(v.Display())
			default:
				return meta.ConstValue{}, constErr(part.Expr.Span(), "cannot format %s in template", v.Kind)
			}
		}
		return meta.String(sb.String()), nil
	case *ast.LitTuple:
		vs, err := c.list(f, l.Items)
		if err != nil {
			return meta.ConstValue{}, err
		}
		return meta.Tuple(vs...), nil
	case *ast.LitVec:
		vs, err := c.list(f, l.Items)
		if err != nil {
			return meta.ConstValue{}, err
		}
		return meta.Vec(vs...), nil
	case *ast.LitObject:
		if l.Path != nil {
			return meta.ConstValue{}, constErr(e.Sp, "typed objects are not supported in const context")
		}
		keys := make([]string, 0, len(l.Fields))
		values := make([]meta.ConstValue, 0, len(l.Fields))
		for _, field := range l.Fields {
			key := field.Key.String
			if field.Key.Ident != nil {
				key = c.q.name(*field.Key.Ident)
			}
			var (
				v   meta.ConstValue
				err error
			)
			if field.Value == nil {
				v, err = c.name(f, key, field.Key.Sp)
			} else {
				v, err = c.expr(f, field.Value)
			}
			if err != nil {
				return meta.ConstValue{}, err
			}
			keys = append(keys, key)
			values = append(values, v)
		}
		return meta.Object(keys, values), nil
	default:
		return meta.ConstValue{}, constErr(e.Sp, "literal is not supported in const context")
	}
}

func (c *constEval) list(f *constFrame, exprs []ast.Expr) ([]meta.ConstValue, error) {
	out := make([]meta.ConstValue, 0, len(exprs))
	for _, x := range exprs {
		v, err := c.expr(f, x)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *constEval) block(f *constFrame, b *ast.Block) (meta.ConstValue, error) {
	f.locals = append(f.locals, make(map[string]meta.ConstValue))
	defer func() { f.locals = f.locals[:len(f.locals)-1] }()

	result := meta.Unit()
	for i, stmt := range b.Stmts {
		switch s := stmt.(type) {
		case *ast.StmtLocal:
			pp, ok := s.Pat.(*ast.PatPath)
			var id ast.Ident
			if ok {
				id, ok = pp.Path.Single()
			}
			if !ok {
				return meta.ConstValue{}, constErr(s.Pat.Span(), "only simple bindings are supported in const context")
			}
			v, err := c.expr(f, s.Expr)
			if err != nil {
				return meta.ConstValue{}, err
			}
			f.locals[len(f.locals)-1][c.q.name(id)] = v
		case *ast.StmtExpr:
			v, err := c.expr(f, s.Expr)
			if err != nil {
				return meta.ConstValue{}, err
			}
			if i == len(b.Stmts)-1 && !s.Semi {
				result = v
			}
		default:
			return meta.ConstValue{}, constErr(stmt.Span(), "items are not supported in const context")
		}
	}
	return result, nil
}

func (c *constEval) ifExpr(f *constFrame, e *ast.ExprIf) (meta.ConstValue, error) {
	if e.Cond.Let != nil {
		return meta.ConstValue{}, constErr(e.Cond.Sp, "`if let` is not supported in const context")
	}
	cond, err := c.expr(f, e.Cond.Expr)
	if err != nil {
		return meta.ConstValue{}, err
	}
	if cond.Kind != meta.ConstBool {
		return meta.ConstValue{}, constErr(e.Cond.Sp, "condition must be a bool, found %s", cond.Kind)
	}
	if cond.Bool {
		return c.block(f, e.Then.Block)
	}
	if e.Else == nil {
		return meta.Unit(), nil
	}
	return c.expr(f, e.Else)
}

func (c *constEval) unary(f *constFrame, e *ast.ExprUnary) (meta.ConstValue, error) {
	v, err := c.expr(f, e.Expr)
	if err != nil {
		return meta.ConstValue{}, err
	}
	switch {
	case e.Op == token.Minus && v.Kind == meta.ConstInteger:
		if v.Int == math.MinInt64 {
			return meta.ConstValue{}, constErr(e.Sp, "integer overflow")
		}
		return meta.Integer(-v.Int), nil
	case e.Op == token.Minus && v.Kind == meta.ConstFloat:
		return meta.Float(-v.Float), nil
	case e.Op == token.Bang && v.Kind == meta.ConstBool:
		return meta.Bool(!v.Bool), nil
	case e.Op == token.Bang && v.Kind == meta.ConstInteger:
		return meta.Integer(^v.Int), nil
	}
	return meta.ConstValue{}, constErr(e.Sp, "unsupported unary operator on %s", v.Kind)
}

func (c *constEval) binary(f *constFrame, e *ast.ExprBinary) (meta.ConstValue, error) {
	if e.IsAssign() {
		return meta.ConstValue{}, constErr(e.Sp, "assignment is not supported in const context")
	}
	lhs, err := c.expr(f, e.Lhs)
	if err != nil {
		return meta.ConstValue{}, err
	}

	// && и || вычисляются лениво
	if e.Op == token.AndAnd || e.Op == token.OrOr {
		if lhs.Kind != meta.ConstBool {
			return meta.ConstValue{}, constErr(e.Lhs.Span(), "expected bool, found %s", lhs.Kind)
		}
		if (e.Op == token.AndAnd) != lhs.Bool {
			return lhs, nil
		}
		rhs, err := c.expr(f, e.Rhs)
		if err != nil {
			return meta.ConstValue{}, err
		}
		if rhs.Kind != meta.ConstBool {
			return meta.ConstValue{}, constErr(e.Rhs.Span(), "expected bool, found %s", rhs.Kind)
		}
		return rhs, nil
	}

	rhs, err := c.expr(f, e.Rhs)
	if err != nil {
		return meta.ConstValue{}, err
	}

	switch e.Op {
	case token.EqEq:
		return meta.Bool(lhs.Equal(rhs)), nil
	case token.BangEq:
		return meta.Bool(!lhs.Equal(rhs)), nil
	}

	if lhs.Kind != rhs.Kind {
		return meta.ConstValue{}, constErr(e.Sp, "mismatched operands %s and %s", lhs.Kind, rhs.Kind)
	}
	switch lhs.Kind {
	case meta.ConstInteger:
		return intOp(e, lhs.Int, rhs.Int)
	case meta.ConstFloat:
		return floatOp(e, lhs.Float, rhs.Float)
	case meta.ConstString:
		switch e.Op {
		case token.Plus:
			return meta.String(lhs.Str + rhs.Str), nil
		case token.Lt:
			return meta.Bool(lhs.Str < rhs.Str), nil
		case token.LtEq:
			return meta.Bool(lhs.Str <= rhs.Str), nil
		case token.Gt:
			return meta.Bool(lhs.Str > rhs.Str), nil
		case token.GtEq:
			return meta.Bool(lhs.Str >= rhs.Str), nil
		}
	case meta.ConstBool:
		switch e.Op {
		case token.Amp:
			return meta.Bool(lhs.Bool && rhs.Bool), nil
		case token.Pipe:
			return meta.Bool(lhs.Bool || rhs.Bool), nil
		case token.Caret:
			return meta.Bool(lhs.Bool != rhs.Bool), nil
		}
	}
	return meta.ConstValue{}, constErr(e.Sp, "unsupported operator `%s` on %s", e.Op, lhs.Kind)
}

func intOp(e *ast.ExprBinary, a, b int64) (meta.ConstValue, error) {
	overflow := func() (meta.ConstValue, error) {
		return meta.ConstValue{}, constErr(e.Sp, "integer overflow")
	}
	switch e.Op {
	case token.Plus:
		if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
			return overflow()
		}
		return meta.Integer(a + b), nil
	case token.Minus:
		if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
			return overflow()
		}
		return meta.Integer(a - b), nil
	case token.Star:
		if a != 0 && b != 0 {
			r := a * b
			if r/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
				return overflow()
			}
			return meta.Integer(r), nil
		}
		return meta.Integer(0), nil
	case token.Slash, token.Percent:
		if b == 0 {
			return meta.ConstValue{}, constErr(e.Sp, "division by zero")
		}
		if a == math.MinInt64 && b == -1 {
			return overflow()
		}
		if e.Op == token.Slash {
			return meta.Integer(a / b), nil
		}
		return meta.Integer(a % b), nil
	case token.Shl, token.Shr:
		if b < 0 || b >= 64 {
			return meta.ConstValue{}, constErr(e.Sp, "shift amount %d out of range", b)
		}
		if e.Op == token.Shl {
			return meta.Integer(a << uint(b)), nil
		}
		return meta.Integer(a >> uint(b)), nil
	case token.Amp:
		return meta.Integer(a & b), nil
	case token.Pipe:
		return meta.Integer(a | b), nil
	case token.Caret:
		return meta.Integer(a ^ b), nil
	case token.Lt:
		return meta.Bool(a < b), nil
	case token.LtEq:
		return meta.Bool(a <= b), nil
	case token.Gt:
		return meta.Bool(a > b), nil
	case token.GtEq:
		return meta.Bool(a >= b), nil
	}
	return meta.ConstValue{}, constErr(e.Sp, "unsupported operator `%s` on integer", e.Op)
}

func floatOp(e *ast.ExprBinary, a, b float64) (meta.ConstValue, error) {
	switch e.Op {
	case token.Plus:
		return meta.Float(a + b), nil
	case token.Minus:
		return meta.Float(a - b), nil
	case token.Star:
		return meta.Float(a * b), nil
	case token.Slash:
		return meta.Float(a / b), nil
	case token.Percent:
		return meta.Float(math.Mod(a, b)), nil
	case token.Lt:
		return meta.Bool(a < b), nil
	case token.LtEq:
		return meta.Bool(a <= b), nil
	case token.Gt:
		return meta.Bool(a > b), nil
	case token.GtEq:
		return meta.Bool(a >= b), nil
	}
	return meta.ConstValue{}, constErr(e.Sp, "unsupported operator `%s` on float", e.Op)
}

// name resolves a single identifier: block bindings first, then items.
func (c *constEval) name(f *constFrame, name string, span source.Span) (meta.ConstValue, error) {
	if v, ok := f.lookupLocal(name); ok {
		return v, nil
	}
	return c.resolve(f.module, false, []string{name}, span)
}

func (c *constEval) path(f *constFrame, p *ast.Path) (meta.ConstValue, error) {
	if id, ok := p.Single(); ok {
		return c.name(f, c.q.name(id), p.Sp)
	}

	base := f.module
	anchored := p.Global
	segs := p.Segments
	if p.Global {
		base = items.Item{}
	}
	// ведущие crate/super/self задают базу пути
	for len(segs) > 0 && segs[0].Kind != ast.SegIdent {
		switch segs[0].Kind {
		case ast.SegCrate:
			base = items.Item{}
		case ast.SegSelf:
		case ast.SegSuper:
			parent, ok := base.Parent()
			if !ok {
				return meta.ConstValue{}, constErr(segs[0].Sp, "`super` goes beyond the crate root")
			}
			base = parent
		}
		anchored = true
		segs = segs[1:]
	}
	names := make([]string, 0, len(segs))
	for _, s := range segs {
		if s.Kind != ast.SegIdent {
			return meta.ConstValue{}, constErr(s.Sp, "unexpected path segment in const expression")
		}
		names = append(names, c.q.name(s.Ident))
	}
	if len(names) == 0 {
		return meta.ConstValue{}, constErr(p.Sp, "path does not name a const")
	}
	return c.resolve(base, anchored, names, p.Sp)
}

// resolve looks names up relative to module, then each of its parents,
// then through the imports of module and its parents. An anchored path is
// only tried at module.
func (c *constEval) resolve(module items.Item, anchored bool, names []string, span source.Span) (meta.ConstValue, error) {
	if anchored {
		if v, ok, err := c.lookup(module.Join(names...), span); ok {
			return v, err
		}
		return meta.ConstValue{}, missing(names, span)
	}
	for at := module; ; {
		if v, ok, err := c.lookup(at.Join(names...), span); ok {
			return v, err
		}
		parent, ok := at.Parent()
		if !ok {
			break
		}
		at = parent
	}
	for at := module; ; {
		if imp, ok := c.q.Unit.LookupImport(at, names[0]); ok {
			if v, ok, err := c.lookup(imp.Target.Join(names[1:]...), span); ok {
				return v, err
			}
		}
		parent, ok := at.Parent()
		if !ok {
			break
		}
		at = parent
	}
	return meta.ConstValue{}, missing(names, span)
}

func missing(names []string, span source.Span) error {
	return diag.Errorf(diag.IdxMissingItem, span, "no const named `%s`", strings.Join(names, "::"))
}

func (c *constEval) lookup(item items.Item, span source.Span) (meta.ConstValue, bool, error) {
	if e, ok := c.q.indexed[item.Key()]; ok && e.Kind != IndexedConst {
		return meta.ConstValue{}, true, constErr(span, "`%s` is a %s, not a const", item, e.Kind)
	}
	if decl, ok := c.active[item.Key()]; ok {
		return meta.ConstValue{}, true, diag.Errorf(diag.IdxConstCycle, span, "const `%s` depends on itself", item).
			WithNote(decl, "const declared here")
	}
	m, ok, err := c.q.QueryMeta(item, UsedByName)
	if !ok {
		return meta.ConstValue{}, false, nil
	}
	if err != nil {
		return meta.ConstValue{}, true, err
	}
	if m.Kind != meta.KindConst {
		return meta.ConstValue{}, true, constErr(span, "`%s` is a %s, not a const", item, m.Kind)
	}
	return m.Value, true, nil
}
