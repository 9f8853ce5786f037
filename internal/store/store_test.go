package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"rook/internal/compile"
	"rook/internal/project"
	"rook/internal/project/dag"
	"rook/internal/source"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "unit.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func counts(t *testing.T, s *Store) map[string]int {
	t.Helper()
	out := make(map[string]int)
	for _, table := range tables {
		n, err := s.Count(context.Background(), table)
		if err != nil {
			t.Fatal(err)
		}
		out[table] = n
	}
	return out
}

func TestExporterStreamsPass(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"main.rk": "mod util; use util::Point; const N = 2 * 3; fn main() { let f = |x| x; nope!(); }",
		"util.rk": "struct Point { x, y }",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	ctx := context.Background()
	s := openTemp(t)
	ex, err := s.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	res, err := compile.Compile(ctx, []string{filepath.Join(dir, "main.rk")}, compile.Options{Visitor: ex})
	if err != nil {
		t.Fatal(err)
	}
	roots := []*source.File{res.Files.Get(0)}
	modules := project.BuildModuleMetas(roots, res.Loaded, res.Unit)
	dag.ModuleHashes(modules)
	err = ex.Finish(Snapshot{Files: res.Files, Unit: res.Unit, Modules: modules, Diagnostics: res.Errors.Items()})
	if err != nil {
		t.Fatal(err)
	}

	got := counts(t, s)
	want := map[string]int{
		"files":       res.Files.Len(),
		"metas":       res.Unit.Len(),
		"discovered":  1,
		"imports":     1,
		"modules":     2,
		"module_deps": 1,
		"diagnostics": res.Errors.Len(),
	}
	for table, n := range want {
		if got[table] != n {
			t.Errorf("%s rows = %d, want %d", table, got[table], n)
		}
	}
	if res.Errors.Len() == 0 {
		t.Errorf("unknown macro not reported")
	}

	var value string
	if err := s.db.QueryRowContext(ctx, "SELECT value FROM metas WHERE item = 'N'").Scan(&value); err != nil || value != "6" {
		t.Errorf("const N = %q, %v", value, err)
	}
	var fields string
	if err := s.db.QueryRowContext(ctx, "SELECT fields FROM metas WHERE item = 'util::Point'").Scan(&fields); err != nil || fields != `["x","y"]` {
		t.Errorf("Point fields = %q, %v", fields, err)
	}
	var dep string
	if err := s.db.QueryRowContext(ctx, "SELECT dep FROM module_deps WHERE module = 'crate'").Scan(&dep); err != nil || dep != "util" {
		t.Errorf("crate dep = %q, %v", dep, err)
	}
}

func TestWriteReplacesPreviousExport(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	export := func(src string) {
		fs := source.NewFileSet()
		root := fs.Get(fs.AddVirtual("main.rk", []byte(src)))
		res := compile.CompileSources(ctx, fs, []*source.File{root}, compile.Options{})
		if err := s.Write(ctx, Snapshot{Files: res.Files, Unit: res.Unit}); err != nil {
			t.Fatal(err)
		}
	}

	export("fn a() {} fn b() {} struct C;")
	export("struct D;")
	if n, err := s.Count(ctx, "metas"); err != nil || n != 1 {
		t.Errorf("metas = %d, %v", n, err)
	}
	if _, err := s.Count(ctx, "sqlite_master"); err == nil {
		t.Errorf("unknown table accepted")
	}
}

func TestAbort(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	if err := s.Write(ctx, Snapshot{}); err != nil {
		t.Fatal(err)
	}
	ex, err := s.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("m.rk", nil))
	ex.VisitMod(f, source.Span{})
	if err := ex.Abort(); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Count(ctx, "discovered"); n != 0 {
		t.Errorf("aborted export left %d rows", n)
	}
}
