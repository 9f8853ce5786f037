package index

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/items"
	"rook/internal/macros"
	"rook/internal/meta"
	"rook/internal/parser"
	"rook/internal/query"
	"rook/internal/source"
)

type taskList struct{ tasks []Task }

func (l *taskList) Push(t Task) { l.tasks = append(l.tasks, t) }

type fakeLoader struct {
	fs    *source.FileSet
	files map[string]string // module path → content
}

func (l *fakeLoader) Load(root string, module []string) (*source.File, error) {
	key := items.Of(module...).String()
	content, ok := l.files[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, source.ErrModuleNotFound)
	}
	return l.fs.Get(l.fs.AddVirtual(key+source.Ext, []byte(content))), nil
}

type modVisitor struct{ files []*source.File }

func (v *modVisitor) VisitMod(file *source.File, _ source.Span) { v.files = append(v.files, file) }

type harness struct {
	t        *testing.T
	fs       *source.FileSet
	interner *source.Interner
	query    *query.Query
	queue    *taskList
	warnings *diag.Bag
	loader   *fakeLoader
	visitor  *modVisitor
	env      Env
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		fs:       source.NewFileSet(),
		interner: source.NewInterner(),
		queue:    &taskList{},
		warnings: diag.NewBag(50),
		visitor:  &modVisitor{},
	}
	h.query = query.New(query.NewUnit(), h.interner)
	h.loader = &fakeLoader{fs: h.fs, files: map[string]string{}}
	h.env = Env{
		Query:    h.query,
		Interner: h.interner,
		Loader:   h.loader,
		Loaded:   Loaded{},
		Queue:    h.queue,
		Visitor:  h.visitor,
		Warnings: diag.BagReporter{Bag: h.warnings},
	}
	return h
}

func (h *harness) parse(src string) (*source.File, *ast.File) {
	h.t.Helper()
	f := h.fs.Get(h.fs.AddVirtual("main.rk", []byte(src)))
	bag := diag.NewBag(20)
	file, ok := parser.ParseFile(f, parser.Options{Reporter: diag.BagReporter{Bag: bag}, Interner: h.interner})
	if !ok {
		for _, d := range bag.Items() {
			h.t.Errorf("%s: %s", d.Code.ID(), d.Message)
		}
		h.t.Fatalf("parse failed")
	}
	return f, file
}

// index parses src as a root file located at root and indexes it.
func (h *harness) index(root, src string) []error {
	h.t.Helper()
	f, file := h.parse(src)
	return New(h.env, root, f, items.Item{}).IndexFile(file)
}

func (h *harness) mustIndex(src string) {
	h.t.Helper()
	if errs := h.index("/src/main.rk", src); len(errs) != 0 {
		h.t.Fatalf("unexpected errors: %v", errs)
	}
}

func codes(errs []error) []diag.Code {
	var out []diag.Code
	for _, err := range errs {
		for _, e := range Flatten(err) {
			if de, ok := diag.AsError(e); ok {
				out = append(out, de.Code)
			} else {
				out = append(out, diag.UnknownCode)
			}
		}
	}
	return out
}

func (h *harness) buildItems() []string {
	var out []string
	for _, b := range h.query.Builds() {
		out = append(out, b.Item.String())
	}
	return out
}

func (h *harness) pendingItems() []string {
	var out []string
	for _, e := range h.query.Pending() {
		out = append(out, e.Item.String())
	}
	return out
}

func TestIndexFunctions(t *testing.T) {
	h := newHarness(t)
	h.mustIndex(`
fn main() {
    fn helper() { 1 }
    let c = |x| x;
}
mod util {
    fn inner() {}
}
`)
	if got, want := h.buildItems(), []string{"main"}; !slices.Equal(got, want) {
		t.Errorf("builds = %v, want %v", got, want)
	}
	want := []string{"main::$block0::helper", "main::$block0::$closure0", "util::inner"}
	if got := h.pendingItems(); !slices.Equal(got, want) {
		t.Errorf("pending = %v, want %v", got, want)
	}

	m, ok, err := h.query.QueryMeta(items.Parse("main::$block0::helper"), query.UsedByName)
	if err != nil || !ok || m.Kind != meta.KindFunction {
		t.Fatalf("QueryMeta(helper) = %v, %v, %v", m, ok, err)
	}
	if got := h.buildItems(); len(got) != 2 || got[1] != "main::$block0::helper" {
		t.Errorf("helper was not scheduled on query: %v", got)
	}
}

func TestIndexClosureCaptures(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"first use order", "fn f() { let a = 1; let b = 2; let c = || b + a + b; }", []string{"b", "a"}},
		{"params are local", "fn f() { let a = 1; let c = |a| a; }", nil},
		{"items are not captured", "fn f() { let c = || g(); }", nil},
		{"let value before binding", "fn f() { let x = 1; let c = || { let x = x; x }; }", []string{"x"}},
		{"for iterator in parent scope", "fn f() { let x = []; let c = || for x in x { x }; }", []string{"x"}},
		{"for variable shadows", "fn f() { let y = 1; let c = || for y in [] { y }; }", nil},
		{"object shorthand", "fn f() { let a = 1; let c = || #{a}; }", []string{"a"}},
		{"self", "fn f(self) { let c = || self; }", []string{"self"}},
		{"match guard", "fn f() { let g = 1; let c = |v| match v { x if g => x }; }", []string{"g"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			src := tt.src
			if tt.name == "self" {
				src = "impl T { " + src + " }"
			}
			h.mustIndex(src)
			var closure *query.IndexedEntry
			for _, e := range h.query.Pending() {
				if e.Kind == query.IndexedClosure {
					closure = e
				}
			}
			if closure == nil {
				t.Fatalf("no closure indexed; pending = %v", h.pendingItems())
			}
			if !slices.Equal(closure.Captures, tt.want) {
				t.Errorf("captures = %v, want %v", closure.Captures, tt.want)
			}
		})
	}
}

func TestIndexNestedClosureCaptures(t *testing.T) {
	h := newHarness(t)
	h.mustIndex("fn f() { let a = 1; let outer = || { let inner = || a; }; }")
	got := map[string][]string{}
	for _, e := range h.query.Pending() {
		got[e.Item.String()] = e.Captures
	}
	outer := got["f::$block0::$closure0"]
	inner := got["f::$block0::$closure0::$block0::$closure0"]
	if !slices.Equal(outer, []string{"a"}) || !slices.Equal(inner, []string{"a"}) {
		t.Fatalf("captures = %v", got)
	}
}

func TestIndexCallConventions(t *testing.T) {
	tests := []struct {
		src  string
		want meta.Call
	}{
		{"fn f() { 1 }", meta.CallImmediate},
		{"fn f() { yield 1; }", meta.CallGenerator},
		{"async fn f() { g().await }", meta.CallAsync},
		{"async fn f() { yield 1; }", meta.CallStream},
	}
	for _, tt := range tests {
		h := newHarness(t)
		h.mustIndex(tt.src)
		builds := h.query.Builds()
		if len(builds) != 1 || builds[0].Call != tt.want {
			t.Errorf("%s: builds = %+v, want call %s", tt.src, builds, tt.want)
		}
	}
}

func TestIndexAwaitOutsideAsync(t *testing.T) {
	h := newHarness(t)
	errs := h.index("/src/main.rk", "fn f() { g().await } async fn ok() { let c = || h().await; }")
	if got := codes(errs); !slices.Equal(got, []diag.Code{diag.ScopeAwaitOutsideAsync, diag.ScopeAwaitOutsideAsync}) {
		t.Fatalf("codes = %v", got)
	}
	if n := len(h.query.Builds()); n != 0 {
		t.Errorf("failed functions must not be scheduled, got %d builds", n)
	}
}

func TestIndexAsyncBlock(t *testing.T) {
	h := newHarness(t)
	h.mustIndex("fn f() { let x = 1; let fut = async { g(x).await }; }")
	pending := h.query.Pending()
	if len(pending) != 1 || pending[0].Kind != query.IndexedAsyncBlock {
		t.Fatalf("pending = %v", h.pendingItems())
	}
	e := pending[0]
	if e.Item.String() != "f::$block0::$async0" || e.Call != meta.CallAsync || !slices.Equal(e.Captures, []string{"x"}) {
		t.Errorf("async block = %s %s %v", e.Item, e.Call, e.Captures)
	}
}

func TestIndexInstanceFunctions(t *testing.T) {
	h := newHarness(t)
	h.mustIndex("struct Foo; impl Foo { fn get(self) { self } fn new() { Foo } }")
	builds := h.query.Builds()
	if len(builds) != 1 || builds[0].Kind != query.BuildInstanceFunction {
		t.Fatalf("builds = %+v", builds)
	}
	if builds[0].Item.String() != "Foo::get" || builds[0].ImplItem.String() != "Foo" {
		t.Errorf("instance build = %s impl %s", builds[0].Item, builds[0].ImplItem)
	}
	if got := h.pendingItems(); !slices.Equal(got, []string{"Foo::new"}) {
		t.Errorf("pending = %v", got)
	}
}

func TestIndexErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []diag.Code
	}{
		{"instance outside impl", "fn f(self) {}", []diag.Code{diag.IdxInstanceFnOutsideImpl}},
		{"closure self", "fn f() { let c = |self| 1; }", []diag.Code{diag.IdxUnsupportedSelf}},
		{"struct attrs", "#[derive] struct S;", []diag.Code{diag.IdxUnsupportedAttributes}},
		{"field attrs", "struct S { #[x] a }", []diag.Code{diag.IdxUnsupportedAttributes}},
		{"file attrs", "#![allow] fn f() {}", []diag.Code{diag.IdxUnsupportedFileAttrs}},
		{"literal attrs", "fn f() { #[x] 1 }", []diag.Code{diag.IdxUnsupportedAttributes}},
		{"duplicate", "struct S; enum S {}", []diag.Code{diag.IdxItemConflict}},
		{"consts are lazy", "const C = missing; fn f() {}", nil},
		{"independent failures", "#[a] fn f() {} struct S; struct S; fn g() {}",
			[]diag.Code{diag.IdxUnsupportedAttributes, diag.IdxItemConflict}},
		{"inline module keeps going", "mod m { #[a] fn f() {} struct S; struct S; }",
			[]diag.Code{diag.IdxUnsupportedAttributes, diag.IdxItemConflict}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			errs := h.index("/src/main.rk", tt.src)
			if got := codes(errs); !slices.Equal(got, tt.want) {
				t.Errorf("codes = %v, want %v (%v)", got, tt.want, errs)
			}
		})
	}
}

func TestIndexUnnecessarySemicolon(t *testing.T) {
	h := newHarness(t)
	h.mustIndex("fn f() {}; struct S; use a::b;")
	got := h.warnings.Codes()
	if !slices.Equal(got, []diag.Code{diag.IdxUnnecessarySemicolon}) {
		t.Fatalf("warnings = %v", got)
	}
}

func TestIndexUseEnqueuesImport(t *testing.T) {
	h := newHarness(t)
	h.mustIndex("use std::io; mod m { use a::*; }")
	var mods []string
	for _, task := range h.queue.tasks {
		imp, ok := task.(*Import)
		if !ok {
			t.Fatalf("unexpected task %T", task)
		}
		mods = append(mods, imp.Module.String())
	}
	if !slices.Equal(mods, []string{"", "m"}) {
		t.Fatalf("import modules = %q", mods)
	}
}

func TestIndexFileModules(t *testing.T) {
	h := newHarness(t)
	h.loader.files["a"] = "fn x() {}"
	h.mustIndex("mod a;")

	if len(h.queue.tasks) != 1 {
		t.Fatalf("tasks = %v", h.queue.tasks)
	}
	load, ok := h.queue.tasks[0].(*LoadFile)
	if !ok || load.Kind != LoadModule || load.Item.String() != "a" || load.Root != "/src/main.rk" {
		t.Fatalf("task = %+v", h.queue.tasks[0])
	}
	if len(h.visitor.files) != 1 || h.visitor.files[0] != load.File {
		t.Errorf("visitor saw %v", h.visitor.files)
	}

	// второй `mod a;` в том же проходе
	errs := h.index("/src/main.rk", "mod a;")
	if got := codes(errs); !slices.Equal(got, []diag.Code{diag.IdxModAlreadyLoaded}) {
		t.Errorf("second load codes = %v", got)
	}
	de, _ := diag.AsError(errs[0])
	if len(de.Notes) != 1 {
		t.Errorf("duplicate load must point at the first load")
	}

	errs = h.index("/src/main.rk", "mod missing;")
	if got := codes(errs); !slices.Equal(got, []diag.Code{diag.IdxModNotFound}) {
		t.Errorf("missing codes = %v", got)
	}
	if !errors.Is(errs[0], source.ErrModuleNotFound) {
		t.Errorf("missing module error should wrap the loader error")
	}

	errs = h.index("", "mod b;")
	if got := codes(errs); !slices.Equal(got, []diag.Code{diag.IdxUnsupportedModuleSource}) {
		t.Errorf("rootless codes = %v", got)
	}
}

func TestIndexMacroCalls(t *testing.T) {
	h := newHarness(t)
	h.mustIndex("gen!{ fn a() {} } fn main() { let x = 1; m!(x); }")

	var expands []*ExpandMacro
	for _, task := range h.queue.tasks {
		if e, ok := task.(*ExpandMacro); ok {
			expands = append(expands, e)
		}
	}
	if len(expands) != 2 {
		t.Fatalf("expand tasks = %d", len(expands))
	}
	if expands[0].Kind != macros.KindItem || expands[0].Item.String() != "$macro0" {
		t.Errorf("item macro = %s at %s", expands[0].Kind, expands[0].Item)
	}
	if m, ok := h.query.Unit.Meta(items.Parse("$macro0")); !ok || m.Kind != meta.KindMacro {
		t.Errorf("item macro must record macro meta")
	}
	if expands[1].Kind != macros.KindExpr || expands[1].Item.String() != "main::$block0::$macro0" {
		t.Errorf("expr macro = %s at %s", expands[1].Kind, expands[1].Item)
	}
	if got := expands[1].Continuation.Item().String(); got != "main::$block0::$macro0" {
		t.Errorf("continuation item = %s", got)
	}
}

func TestResumeFromContinuation(t *testing.T) {
	h := newHarness(t)
	h.mustIndex("fn main() { let a = 1; m!(); let later = || 2; }")

	var task *ExpandMacro
	for _, tk := range h.queue.tasks {
		if e, ok := tk.(*ExpandMacro); ok {
			task = e
		}
	}
	if task == nil {
		t.Fatalf("no macro task")
	}

	resumeClosure := func() *query.IndexedEntry {
		f := h.fs.Get(h.fs.AddVirtual("expansion", []byte("|| a")))
		expr, ok := parser.ParseExpr(f, parser.Options{Interner: h.interner})
		if !ok {
			t.Fatalf("parse expansion")
		}
		q := query.New(query.NewUnit(), h.interner)
		env := h.env
		env.Query = q
		if err := Resume(env, "", f, task.Continuation).IndexExpr(expr); err != nil {
			t.Fatalf("IndexExpr: %v", err)
		}
		pending := q.Pending()
		if len(pending) != 1 {
			t.Fatalf("pending = %d", len(pending))
		}
		return pending[0]
	}

	first, second := resumeClosure(), resumeClosure()
	if first.Item.String() != "main::$block0::$macro0::$closure0" {
		t.Errorf("expansion closure at %s", first.Item)
	}
	if !first.Item.Equal(second.Item) {
		t.Errorf("resuming twice differs: %s vs %s", first.Item, second.Item)
	}
	if !slices.Equal(first.Captures, []string{"a"}) {
		t.Errorf("captures = %v, want [a] from the snapshotted scope", first.Captures)
	}
	// вызов, записанный после макроса, не затронут
	if got := h.pendingItems(); !slices.Contains(got, "main::$block0::$closure1") {
		t.Errorf("pending = %v", got)
	}
}
