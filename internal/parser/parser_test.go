package parser

import (
	"fmt"
	"testing"

	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/source"
	"rook/internal/token"
)

type snippet struct {
	file     *ast.File
	ok       bool
	bag      *diag.Bag
	interner *source.Interner
}

// parseSnippet — хелпер: разбирает исходник как файл
func parseSnippet(t *testing.T, src string) snippet {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.rk", []byte(src))
	bag := diag.NewBag(100)
	in := source.NewInterner()
	file, ok := ParseFile(fs.Get(id), Options{Reporter: diag.BagReporter{Bag: bag}, Interner: in})
	return snippet{file: file, ok: ok, bag: bag, interner: in}
}

func mustParse(t *testing.T, src string) snippet {
	t.Helper()
	s := parseSnippet(t, src)
	if !s.ok {
		for _, d := range s.bag.Items() {
			t.Errorf("unexpected diagnostic %s: %s", d.Code.ID(), d.Message)
		}
		t.Fatalf("parse failed for %q", src)
	}
	return s
}

func (s snippet) name(id ast.Ident) string {
	return s.interner.MustLookup(id.Name)
}

// fnBody returns the statements of the first function in the file.
func fnBody(t *testing.T, s snippet) []ast.Stmt {
	t.Helper()
	for _, entry := range s.file.Items {
		if fn, ok := entry.Item.(*ast.ItemFn); ok {
			return fn.Body.Block.Stmts
		}
	}
	t.Fatalf("no function in snippet")
	return nil
}

func tailExpr(t *testing.T, s snippet) ast.Expr {
	t.Helper()
	stmts := fnBody(t, s)
	if len(stmts) == 0 {
		t.Fatalf("empty body")
	}
	stmt, ok := stmts[len(stmts)-1].(*ast.StmtExpr)
	if !ok {
		t.Fatalf("last statement is %T, want *ast.StmtExpr", stmts[len(stmts)-1])
	}
	return stmt.Expr
}

func TestParseItems(t *testing.T) {
	s := mustParse(t, `
use std::float;
mod inline { fn f() {} }
mod external;
struct Unit;
struct Pair(a, b);
struct Point { x, y }
enum Shape { Circle(r), Rect { w, h }, Empty }
const LIMIT = 10;
async fn fetch(url) {}
impl Point { fn len(self) {} fn new(x, y) {} }
`)
	want := []string{"*ast.ItemUse", "*ast.ItemMod", "*ast.ItemMod", "*ast.ItemStruct", "*ast.ItemStruct",
		"*ast.ItemStruct", "*ast.ItemEnum", "*ast.ItemConst", "*ast.ItemFn", "*ast.ItemImpl"}
	if len(s.file.Items) != len(want) {
		t.Fatalf("got %d items, want %d", len(s.file.Items), len(want))
	}
	for i, entry := range s.file.Items {
		if got := fmt.Sprintf("%T", entry.Item); got != want[i] {
			t.Errorf("item %d: got %s, want %s", i, got, want[i])
		}
	}

	inline := s.file.Items[1].Item.(*ast.ItemMod)
	if inline.Body == nil || len(inline.Body.Items) != 1 {
		t.Fatalf("inline mod body not parsed")
	}
	if s.file.Items[2].Item.(*ast.ItemMod).Body != nil {
		t.Errorf("file mod must have no body")
	}
	kinds := []ast.StructKind{ast.StructUnit, ast.StructTuple, ast.StructNamed}
	for i, k := range kinds {
		if got := s.file.Items[3+i].Item.(*ast.ItemStruct).Body.Kind; got != k {
			t.Errorf("struct %d: kind %d, want %d", i, got, k)
		}
	}
	enum := s.file.Items[6].Item.(*ast.ItemEnum)
	if len(enum.Variants) != 3 || s.name(enum.Variants[1].Name) != "Rect" || len(enum.Variants[1].Body.Fields) != 2 {
		t.Errorf("enum variants parsed wrong: %+v", enum.Variants)
	}
	fetch := s.file.Items[8].Item.(*ast.ItemFn)
	if !fetch.Async || len(fetch.Args) != 1 {
		t.Errorf("async fn parsed wrong")
	}
	impl := s.file.Items[9].Item.(*ast.ItemImpl)
	if len(impl.Fns) != 2 || !impl.Fns[0].IsInstance() || impl.Fns[1].IsInstance() {
		t.Errorf("impl fns parsed wrong")
	}
}

func TestParseUsePaths(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		segments int
		last     ast.UseSegmentKind
		alias    bool
	}{
		{"simple", "use a::b::c;", 3, ast.UseName, false},
		{"wildcard", "use std::float::*;", 3, ast.UseWildcard, false},
		{"group", "use a::{b, c::*};", 2, ast.UseGroup, false},
		{"alias", "use a::b as c;", 2, ast.UseName, true},
		{"self", "use self::x;", 2, ast.UseName, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustParse(t, tt.input)
			use := s.file.Items[0].Item.(*ast.ItemUse)
			if len(use.Path.Segments) != tt.segments {
				t.Fatalf("got %d segments, want %d", len(use.Path.Segments), tt.segments)
			}
			if got := use.Path.Segments[tt.segments-1].Kind; got != tt.last {
				t.Errorf("last segment kind %d, want %d", got, tt.last)
			}
			if (use.Path.Alias != nil) != tt.alias {
				t.Errorf("alias presence mismatch")
			}
		})
	}
}

func TestParseMissingSemicolon(t *testing.T) {
	s := parseSnippet(t, "use a::b\nfn main() {}")
	if s.ok {
		t.Fatalf("expected failure")
	}
	codes := s.bag.Codes()
	if len(codes) != 1 || codes[0] != diag.SynExpectSemicolon {
		t.Fatalf("got codes %v, want [SynExpectSemicolon]", codes)
	}
	if len(s.file.Items) != 2 {
		t.Errorf("parser must keep both items, got %d", len(s.file.Items))
	}
}

func TestParseRecoversAfterBadItem(t *testing.T) {
	s := parseSnippet(t, "fn a() { let = ; }\n42;\nfn b() {}")
	if s.ok {
		t.Fatalf("expected errors")
	}
	var names []string
	for _, entry := range s.file.Items {
		if fn, ok := entry.Item.(*ast.ItemFn); ok {
			names = append(names, s.name(fn.Name))
		}
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("got functions %v, want [a b]", names)
	}
}

func TestParseMacroCalls(t *testing.T) {
	s := mustParse(t, "stringify!(a + (b * c));\ngen! { fn x() {} }\nfn main() { let v = concat![1, 2]; }")
	call := s.file.Items[0].Item.(*ast.ItemMacroCall).Call
	if call.Open != token.LParen || len(call.Input) != 7 {
		t.Fatalf("got %d input tokens, want 7", len(call.Input))
	}
	if call.Input[0].Text != "a" || call.Input[6].Text != ")" {
		t.Errorf("unexpected input bounds %q..%q", call.Input[0].Text, call.Input[6].Text)
	}
	if s.file.Items[1].Item.(*ast.ItemMacroCall).Call.NeedsSemi() {
		t.Errorf("brace macro must not need ';'")
	}
	local := fnBody(t, s)[0].(*ast.StmtLocal)
	if _, ok := local.Expr.(*ast.ExprMacroCall); !ok {
		t.Errorf("got %T, want macro call expression", local.Expr)
	}
}

func TestParsePrecedence(t *testing.T) {
	s := mustParse(t, "fn main() { a = b = 1 + 2 * 3 == 7 && !c }")
	assign, ok := tailExpr(t, s).(*ast.ExprBinary)
	if !ok || assign.Op != token.Assign {
		t.Fatalf("top must be assignment")
	}
	inner, ok := assign.Rhs.(*ast.ExprBinary)
	if !ok || inner.Op != token.Assign {
		t.Fatalf("assignment must be right-associative")
	}
	and, ok := inner.Rhs.(*ast.ExprBinary)
	if !ok || and.Op != token.AndAnd {
		t.Fatalf("expected && under assignment")
	}
	eq := and.Lhs.(*ast.ExprBinary)
	if eq.Op != token.EqEq {
		t.Fatalf("expected == under &&, got %s", eq.Op)
	}
	add := eq.Lhs.(*ast.ExprBinary)
	if add.Op != token.Plus {
		t.Fatalf("expected + under ==")
	}
	if mul := add.Rhs.(*ast.ExprBinary); mul.Op != token.Star {
		t.Fatalf("expected * as right operand of +")
	}
	if _, ok := and.Rhs.(*ast.ExprUnary); !ok {
		t.Fatalf("expected unary ! on the right of &&")
	}
}

func TestParsePostfix(t *testing.T) {
	s := mustParse(t, "async fn main() { f(x)[0].y.0.1.await? }")
	try, ok := tailExpr(t, s).(*ast.ExprTry)
	if !ok {
		t.Fatalf("expected try at top")
	}
	await, ok := try.Expr.(*ast.ExprAwait)
	if !ok {
		t.Fatalf("expected await under try")
	}
	idx1 := await.Expr.(*ast.ExprFieldAccess)
	if !idx1.IsIndex || idx1.Index != 1 {
		t.Fatalf("expected .1, got %+v", idx1)
	}
	idx0 := idx1.Expr.(*ast.ExprFieldAccess)
	if !idx0.IsIndex || idx0.Index != 0 {
		t.Fatalf("expected .0")
	}
	field := idx0.Expr.(*ast.ExprFieldAccess)
	if field.IsIndex || s.name(field.Field) != "y" {
		t.Fatalf("expected .y")
	}
	if _, ok := field.Expr.(*ast.ExprIndex); !ok {
		t.Fatalf("expected index expression")
	}
}

func TestParseClosuresAndAsync(t *testing.T) {
	s := mustParse(t, "fn main() { let a = |x, y| x + y; let b = || 1; let c = async || 2; let d = async { 3 }; }")
	stmts := fnBody(t, s)
	if len(stmts) != 4 {
		t.Fatalf("got %d statements", len(stmts))
	}
	a := stmts[0].(*ast.StmtLocal).Expr.(*ast.ExprClosure)
	if len(a.Args) != 2 || a.Async {
		t.Errorf("closure a parsed wrong")
	}
	b := stmts[1].(*ast.StmtLocal).Expr.(*ast.ExprClosure)
	if len(b.Args) != 0 {
		t.Errorf("closure b must have no args")
	}
	if c := stmts[2].(*ast.StmtLocal).Expr.(*ast.ExprClosure); !c.Async {
		t.Errorf("closure c must be async")
	}
	if d := stmts[3].(*ast.StmtLocal).Expr.(*ast.ExprBlock); !d.Async {
		t.Errorf("block d must be async")
	}
}

func TestParseControlFlow(t *testing.T) {
	s := mustParse(t, `fn main() {
	if let Some(x) = opt { x } else if y { 1 } else { 2 }
	'outer: for i in items { while true { break 'outer; } }
	loop { continue }
	match v { 1 if ok => a, Point { x, .. } => { x } _ => b }
	select { v = fut => v, default => 0 }
	Point { x: 1, y }
}`)
	stmts := fnBody(t, s)
	if len(stmts) != 6 {
		t.Fatalf("got %d statements, want 6", len(stmts))
	}
	iff := stmts[0].(*ast.StmtExpr).Expr.(*ast.ExprIf)
	if iff.Cond.Let == nil {
		t.Errorf("if let pattern missing")
	}
	if _, ok := iff.Else.(*ast.ExprIf); !ok {
		t.Errorf("else-if chain missing")
	}
	loop := stmts[1].(*ast.StmtExpr).Expr.(*ast.ExprFor)
	if loop.Label == nil || s.interner.MustLookup(loop.Label.Name) != "outer" {
		t.Errorf("for label missing")
	}
	sel := stmts[4].(*ast.StmtExpr).Expr.(*ast.ExprSelect)
	if len(sel.Branches) != 1 || sel.Default == nil {
		t.Errorf("select parsed wrong")
	}
	obj := stmts[5].(*ast.StmtExpr).Expr.(*ast.ExprLit).Lit.(*ast.LitObject)
	if obj.Path == nil || len(obj.Fields) != 2 || obj.Fields[1].Value != nil {
		t.Errorf("object literal parsed wrong")
	}
}

func TestParseStructLiteralDisabledInCondition(t *testing.T) {
	s := mustParse(t, "fn main() { if x { 1 } }")
	iff := tailExpr(t, s).(*ast.ExprIf)
	if _, ok := iff.Cond.Expr.(*ast.ExprPath); !ok {
		t.Fatalf("condition must be a path, got %T", iff.Cond.Expr)
	}
}

func TestParseTemplate(t *testing.T) {
	s := mustParse(t, "fn main() { `a {x + 1} b {#{k: \"v\"}.k} \\{c\\}` }")
	lit := tailExpr(t, s).(*ast.ExprLit).Lit.(*ast.LitTemplate)
	if len(lit.Parts) != 5 {
		t.Fatalf("got %d parts, want 5", len(lit.Parts))
	}
	if lit.Parts[0].Text != "a " || lit.Parts[2].Text != " b " || lit.Parts[4].Text != " {c}" {
		t.Errorf("text parts: %q %q %q", lit.Parts[0].Text, lit.Parts[2].Text, lit.Parts[4].Text)
	}
	if _, ok := lit.Parts[1].Expr.(*ast.ExprBinary); !ok {
		t.Errorf("part 1 must be a binary expression")
	}
}

func TestParseLiterals(t *testing.T) {
	s := mustParse(t, `fn main() { let v = [1, 2.5, "s\n", 'c', b'x', b"by", true, (), (1,), #{"k": 1}]; }`)
	vec := fnBody(t, s)[0].(*ast.StmtLocal).Expr.(*ast.ExprLit).Lit.(*ast.LitVec)
	if len(vec.Items) != 10 {
		t.Fatalf("got %d items", len(vec.Items))
	}
	lit := func(i int) ast.Lit { return vec.Items[i].(*ast.ExprLit).Lit }
	if str := lit(2).(ast.LitStr); str.Value != "s\n" {
		t.Errorf("string escape not decoded: %q", str.Value)
	}
	if c := lit(3).(ast.LitChar); c.Value != 'c' {
		t.Errorf("char literal wrong")
	}
	if b := lit(4).(ast.LitByte); b.Value != 'x' {
		t.Errorf("byte literal wrong")
	}
	if bs := lit(5).(ast.LitByteStr); string(bs.Value) != "by" {
		t.Errorf("byte string wrong")
	}
	if _, ok := lit(7).(ast.LitUnit); !ok {
		t.Errorf("unit literal wrong")
	}
	if tup := lit(8).(*ast.LitTuple); len(tup.Items) != 1 {
		t.Errorf("single tuple wrong")
	}
	if obj := lit(9).(*ast.LitObject); obj.Path != nil || obj.Fields[0].Key.String != "k" {
		t.Errorf("anonymous object wrong")
	}
}

func TestParseAttributes(t *testing.T) {
	s := mustParse(t, "#![allow(x)]\n#[test]\nfn f() { #[inline] { 1 } }")
	if len(s.file.Attrs) != 1 || !s.file.Attrs[0].Inner {
		t.Fatalf("inner attribute missing")
	}
	fn := s.file.Items[0].Item.(*ast.ItemFn)
	if len(fn.Attrs) != 1 {
		t.Fatalf("outer attribute missing")
	}
	block := tailExpr(t, s).(*ast.ExprBlock)
	if len(block.Attrs) != 1 {
		t.Fatalf("block attribute missing")
	}
}

func TestParseExprEntry(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(10)
	rep := diag.BagReporter{Bag: bag}
	id := fs.AddVirtual("<macro>", []byte("1 + 2"))
	if _, ok := ParseExpr(fs.Get(id), Options{Reporter: rep}); !ok {
		t.Fatalf("valid expression rejected")
	}
	id = fs.AddVirtual("<macro>", []byte("1 2"))
	if _, ok := ParseExpr(fs.Get(id), Options{Reporter: rep}); ok {
		t.Fatalf("trailing input accepted")
	}
	if codes := bag.Codes(); len(codes) != 1 || codes[0] != diag.SynTrailingInput {
		t.Fatalf("got %v", codes)
	}
}
