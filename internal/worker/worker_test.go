package worker

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/index"
	"rook/internal/items"
	"rook/internal/macros"
	"rook/internal/meta"
	"rook/internal/native"
	"rook/internal/query"
	"rook/internal/source"
	"rook/internal/trace"
)

type mapLoader struct {
	fs    *source.FileSet
	files map[string]string
	roots []string
}

func (l *mapLoader) Load(root string, module []string) (*source.File, error) {
	l.roots = append(l.roots, root)
	key := strings.Join(module, "/")
	content, ok := l.files[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, source.ErrModuleNotFound)
	}
	id := l.fs.Add("/src/"+key+source.Ext, []byte(content), 0)
	return l.fs.Get(id), nil
}

type fixture struct {
	t      *testing.T
	fs     *source.FileSet
	query  *query.Query
	loader *mapLoader
	errors *diag.Bag
	warns  *diag.Bag
	worker *Worker
}

func newFixture(t *testing.T, natives native.Context) *fixture {
	t.Helper()
	fs := source.NewFileSet()
	interner := source.NewInterner()
	f := &fixture{
		t:      t,
		fs:     fs,
		query:  query.New(query.NewUnit(), interner),
		loader: &mapLoader{fs: fs, files: map[string]string{}},
		errors: diag.NewBag(0),
		warns:  diag.NewBag(0),
	}
	f.worker = New(Config{
		Files:    fs,
		Interner: interner,
		Query:    f.query,
		Loader:   f.loader,
		Natives:  natives,
		Macros:   macros.Builtins(),
		Errors:   f.errors,
		Warnings: f.warns,
	})
	return f
}

// run indexes src as the root file /src/main.rk.
func (f *fixture) run(ctx context.Context, src string) {
	f.t.Helper()
	id := f.fs.Add("/src/main.rk", []byte(src), 0)
	f.worker.Push(&index.LoadFile{Kind: index.LoadRoot, File: f.fs.Get(id)})
	f.worker.Run(ctx)
}

func (f *fixture) mustRun(src string) {
	f.t.Helper()
	f.run(context.Background(), src)
	if f.errors.HasErrors() {
		for _, d := range f.errors.Items() {
			f.t.Errorf("%s: %s", d.Code.ID(), d.Message)
		}
		f.t.FailNow()
	}
}

func (f *fixture) parseCall(file *source.File) *ast.MacroCall {
	f.t.Helper()
	parsed, ok := f.worker.cfg.Parser.ParseFile(file, nil)
	if !ok || len(parsed.Items) != 1 {
		f.t.Fatalf("parse %s", file.Path)
	}
	call, ok := parsed.Items[0].Item.(*ast.ItemMacroCall)
	if !ok {
		f.t.Fatalf("not a macro call: %T", parsed.Items[0].Item)
	}
	return call.Call
}

func (f *fixture) codes() []diag.Code {
	return f.errors.Codes()
}

func (f *fixture) imports() []string {
	var out []string
	for _, imp := range f.query.Unit.Imports() {
		out = append(out, fmt.Sprintf("%s:%s=%s", imp.Module, imp.Local, imp.Target))
	}
	return out
}

func (f *fixture) builds() []string {
	var out []string
	for _, b := range f.query.Builds() {
		out = append(out, b.Item.String())
	}
	return out
}

func TestWorkerIndexesRootFile(t *testing.T) {
	f := newFixture(t, nil)
	f.mustRun("struct S; fn main() { let c = || 1; }")

	if got := f.builds(); !slices.Equal(got, []string{"main"}) {
		t.Errorf("builds = %q", got)
	}
	if m, ok := f.query.Unit.Meta(items.Of("S")); !ok || m.Kind != meta.KindTuple {
		t.Errorf("struct S must be recorded")
	}
	if f.worker.Len() != 0 {
		t.Errorf("queue not drained: %d", f.worker.Len())
	}
}

func TestWorkerFileModulesInheritRoot(t *testing.T) {
	f := newFixture(t, nil)
	f.loader.files["a"] = "fn x() {} mod b;"
	f.loader.files["a/b"] = "fn y() {}"
	f.mustRun("mod a;")

	if !slices.Equal(f.loader.roots, []string{"/src/main.rk", "/src/main.rk"}) {
		t.Errorf("loader roots = %q", f.loader.roots)
	}
	if len(f.worker.Loaded()) != 2 {
		t.Errorf("loaded = %v", f.worker.Loaded())
	}
	for _, it := range []string{"a::x", "a::b::y"} {
		if !f.query.Unit.ContainsPrefix(items.Parse(it)) {
			t.Errorf("%s not indexed", it)
		}
	}
}

func TestWorkerVirtualRootCannotLoadModules(t *testing.T) {
	f := newFixture(t, nil)
	id := f.fs.AddVirtual("<stdin>", []byte("mod a;"))
	f.worker.Push(&index.LoadFile{Kind: index.LoadRoot, File: f.fs.Get(id)})
	f.worker.Run(context.Background())
	if got := f.codes(); !slices.Equal(got, []diag.Code{diag.IdxUnsupportedModuleSource}) {
		t.Errorf("codes = %v", got)
	}
}

func TestWorkerImports(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"plain", "use a::b;", []string{":b=a::b"}},
		{"alias", "use a::b as c;", []string{":c=a::b"}},
		{"group", "use a::{b, c::d};", []string{":b=a::b", ":d=a::c::d"}},
		{"group self", "use a::{self, b};", []string{":a=a", ":b=a::b"}},
		{"relative", "mod m { use self::x; use super::y; }", []string{"m:x=m::x", "m:y=y"}},
		{"crate", "use crate::a;", []string{":a=a"}},
		{"global", "use ::a::b;", []string{":b=a::b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.mustRun(tt.src)
			if got := f.imports(); !slices.Equal(got, tt.want) {
				t.Errorf("imports = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWorkerWildcardImports(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		files map[string]string
		want  []string
		codes []diag.Code
	}{
		{
			name: "three children",
			src:  "mod a { fn z() {} fn x() {} fn y() {} } use a::*;",
			want: []string{":x=a::x", ":y=a::y", ":z=a::z"},
		},
		{
			name: "native prefix",
			src:  "use std::io::*;",
			want: []string{":dbg=std::io::dbg", ":print=std::io::print", ":println=std::io::println"},
		},
		{
			name:  "file module declared later",
			src:   "use a::*; mod a;",
			files: map[string]string{"a": "fn x() {}"},
			want:  []string{":x=a::x"},
		},
		{
			name:  "unknown prefix",
			src:   "use nope::*;",
			codes: []diag.Code{diag.IdxMissingModule},
		},
		{
			name:  "conflict with plain import",
			src:   "mod a { fn x() {} } use b::x; use a::*;",
			want:  []string{":x=b::x"},
			codes: []diag.Code{diag.IdxImportConflict},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, native.Std())
			for k, v := range tt.files {
				f.loader.files[k] = v
			}
			f.run(context.Background(), tt.src)
			if got := f.codes(); !slices.Equal(got, tt.codes) {
				t.Errorf("codes = %v, want %v", got, tt.codes)
			}
			if got := f.imports(); !slices.Equal(got, tt.want) {
				t.Errorf("imports = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWorkerImportErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []diag.Code
	}{
		{"super at root", "use super::x;", []diag.Code{diag.IdxMissingModule}},
		{"crate inside path", "use a::crate;", []diag.Code{diag.IdxUnsupportedSyntax}},
		{"duplicate local", "use a; use b::a;", []diag.Code{diag.IdxImportConflict}},
		{"group keeps going", "use a::{x, crate::y, z};", []diag.Code{diag.IdxUnsupportedSyntax}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.run(context.Background(), tt.src)
			if got := f.codes(); !slices.Equal(got, tt.want) {
				t.Errorf("codes = %v, want %v", got, tt.want)
			}
		})
	}

	f := newFixture(t, nil)
	f.run(context.Background(), "use a::{x, crate::y, z};")
	if got := f.imports(); !slices.Equal(got, []string{":x=a::x", ":z=a::z"}) {
		t.Errorf("siblings of a failing group entry: %q", got)
	}
}

func TestWorkerExpressionMacros(t *testing.T) {
	f := newFixture(t, nil)
	f.mustRun("fn main() { let x = 1; let s = stringify!(x + 1); let c = identity!(|| x); }")

	exp := f.worker.Expanded()
	if len(exp) != 2 {
		t.Fatalf("expanded = %d", len(exp))
	}
	if exp[0].Item.String() != "main::$block0::$macro0" || exp[1].Item.String() != "main::$block0::$macro1" {
		t.Errorf("expansion items = %s, %s", exp[0].Item, exp[1].Item)
	}
	if !exp[0].File.IsVirtual() {
		t.Errorf("macro output must live in a virtual file")
	}

	var closure *query.IndexedEntry
	for _, e := range f.query.Pending() {
		if e.Item.String() == "main::$block0::$macro1::$closure0" {
			closure = e
		}
	}
	if closure == nil {
		t.Fatalf("closure from expansion not indexed")
	}
	if !slices.Equal(closure.Captures, []string{"x"}) {
		t.Errorf("captures = %q", closure.Captures)
	}
}

func TestWorkerItemMacros(t *testing.T) {
	f := newFixture(t, nil)
	f.mustRun("identity!{ fn made() {} } mod m { identity!{ struct S; } }")

	if got := f.builds(); !slices.Equal(got, []string{"made"}) {
		t.Errorf("builds = %q", got)
	}
	if _, ok := f.query.Unit.Meta(items.Of("m", "S")); !ok {
		t.Errorf("m::S must be declared by the expansion")
	}
	if m, ok := f.query.Unit.Meta(items.Parse("$macro0")); !ok || m.Kind != meta.KindMacro {
		t.Errorf("macro call site must be recorded")
	}
}

func TestWorkerMacroErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want diag.Code
	}{
		{"unknown", "fn main() { nope!(); }", diag.IdxMacroNotFound},
		{"evaluation", "fn main() { concat!(x); }", diag.IdxMacroEval},
		{"bad output", "fn main() { identity!(+); }", diag.SynExpectExpression},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.run(context.Background(), tt.src)
			got := f.codes()
			if len(got) == 0 || got[0] != tt.want {
				t.Errorf("codes = %v, want %v first", got, tt.want)
			}
		})
	}
}

func TestWorkerMissingMacroComponent(t *testing.T) {
	f := newFixture(t, nil)
	ring := trace.NewRingTracer(64, trace.LevelError)
	ctx := trace.WithTracer(context.Background(), ring)

	id := f.fs.Add("/src/main.rk", []byte("m!{}"), 0)
	file := f.fs.Get(id)
	b := items.NewItems()
	_ = b.WithName("f", func() error { return nil })
	f.worker.Push(&index.ExpandMacro{
		Kind:         macros.KindItem,
		Item:         items.Of("f"),
		Continuation: index.Continuation{Items: b.Snapshot()},
		Call:         f.parseCall(file),
		File:         file,
	})
	f.worker.Run(ctx)

	if got := f.codes(); !slices.Equal(got, []diag.Code{diag.InternalMissingMacroKey}) {
		t.Fatalf("codes = %v", got)
	}
	var errs int
	for _, ev := range ring.Snapshot() {
		if ev.Kind == trace.KindError {
			errs++
		}
	}
	if errs != 1 {
		t.Errorf("internal failure must be traced once, got %d", errs)
	}
}

func TestWorkerContinuesAfterFailures(t *testing.T) {
	f := newFixture(t, nil)
	f.loader.files["a"] = "fn x() {}"
	f.run(context.Background(), "#[test] struct S; mod a; mod a; fn ok() {}")

	want := []diag.Code{diag.IdxUnsupportedAttributes, diag.IdxModAlreadyLoaded}
	if got := f.codes(); !slices.Equal(got, want) {
		t.Errorf("codes = %v, want %v", got, want)
	}
	if got := f.builds(); !slices.Equal(got, []string{"ok"}) {
		t.Errorf("builds = %q", got)
	}
	if !f.query.Unit.ContainsPrefix(items.Of("a", "x")) {
		t.Errorf("module a must still be indexed")
	}
}

func TestWorkerRunsTasksInOrder(t *testing.T) {
	f := newFixture(t, native.Std())
	f.loader.files["a"] = "fn x() {}"
	ring := trace.NewRingTracer(64, trace.LevelDebug)
	f.run(trace.WithTracer(context.Background(), ring), "mod a; use std::io;")

	var names []string
	for _, ev := range ring.Snapshot() {
		if ev.Kind == trace.KindPoint && ev.Scope == trace.ScopeNode {
			names = append(names, ev.Name)
		}
	}
	want := []string{"load file", "index", "load file", "import", "index"}
	if !slices.Equal(names, want) {
		t.Errorf("task order = %q, want %q", names, want)
	}
	if f.worker.Processed() != len(want) {
		t.Errorf("processed = %d", f.worker.Processed())
	}
}

func TestWorkerBoundsRecursiveMacros(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		script string
	}{
		{"expr", "fn main() { again!() }", `"again!()"`},
		{"item", "again!{}", `"again!{}"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.worker.cfg.Macros = macros.Chain{
				macros.Builtins(),
				macros.NewScriptEvaluatorFS(fstest.MapFS{
					"again.risor": &fstest.MapFile{Data: []byte(tt.script)},
				}),
			}
			f.run(context.Background(), tt.src)

			if got := f.codes(); !slices.Equal(got, []diag.Code{diag.IdxMacroRecursion}) {
				t.Fatalf("codes = %v", got)
			}
			// one expansion and one index task per level, plus the root
			if n := f.worker.Processed(); n > 2*MaxMacroDepth+4 {
				t.Errorf("processed %d tasks", n)
			}
		})
	}
}

func TestWorkerNestedMacrosWithinDepth(t *testing.T) {
	f := newFixture(t, nil)
	f.mustRun("fn main() { let v = identity!(identity!(1)); }")
	if len(f.worker.Expanded()) != 2 {
		t.Errorf("expanded = %d, want 2", len(f.worker.Expanded()))
	}
}

func TestWorkerStopsOnCancel(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	id := f.fs.Add("/src/main.rk", []byte("fn main() {}"), 0)
	f.worker.Push(&index.LoadFile{Kind: index.LoadRoot, File: f.fs.Get(id)})
	if err := f.worker.Run(ctx); err != context.Canceled {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if f.worker.Processed() != 0 || f.worker.Len() != 0 {
		t.Errorf("processed=%d queued=%d after cancel", f.worker.Processed(), f.worker.Len())
	}
	if f.query.Unit.Len() != 0 {
		t.Errorf("cancelled pass indexed %d metas", f.query.Unit.Len())
	}
}

// Closures are classified before macros in their body expand, so a use that
// only appears in the expansion is not recorded as a capture.
func TestWorkerMacroUseInsideClosureIsNotCaptured(t *testing.T) {
	f := newFixture(t, nil)
	f.mustRun("fn main() { let x = 1; let a = || x; let b = || identity!(x); }")

	var captures [][]string
	for _, e := range f.query.Pending() {
		name := e.Item.String()
		if strings.HasPrefix(name, "main::$block0::$closure") && strings.Count(name, "::") == 2 {
			captures = append(captures, e.Captures)
		}
	}
	if len(captures) != 2 {
		t.Fatalf("closures = %d, want 2", len(captures))
	}
	if !slices.Equal(captures[0], []string{"x"}) {
		t.Errorf("inline use: captures = %q", captures[0])
	}
	if len(captures[1]) != 0 {
		t.Errorf("use inside macro: captures = %q, want none", captures[1])
	}
}
