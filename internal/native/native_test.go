package native

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rook/internal/items"
)

func TestStdPrelude(t *testing.T) {
	r := Std()
	if !r.ContainsPrefix(items.Of("std", "float")) {
		t.Fatalf("std::float missing")
	}
	got := r.IterComponents(items.Of("std", "io"))
	want := []string{"dbg", "print", "println"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("std::io children = %v, want %v", got, want)
	}
	e, ok := r.Lookup(items.Of("std", "float"))
	if !ok || e.Kind != EntryType || len(e.Instance) != 1 || e.Instance[0] != "to_integer" {
		t.Fatalf("std::float entry = %+v", e)
	}
	if e, ok := r.Lookup(items.Of("std")); !ok || e.Kind != EntryModule {
		t.Fatalf("implicit module std not registered")
	}
}

func TestRegistryConflicts(t *testing.T) {
	r := NewRegistry()
	if err := r.Function("m", "f"); err != nil {
		t.Fatal(err)
	}
	if err := r.Function("m", "f"); err == nil {
		t.Fatalf("duplicate function accepted")
	}
	if err := r.Module("m"); err != nil {
		t.Fatalf("re-declaring an implicit module must be allowed: %v", err)
	}
}

func TestManifestInstall(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "http.yaml")
	doc := `
modules:
  - path: http::client
    functions: [get, post]
    types:
      - name: Response
        instance: [status]
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRegistry()
	if err := r.Install(m); err != nil {
		t.Fatal(err)
	}
	got := r.IterComponents(items.Of("http", "client"))
	if strings.Join(got, ",") != "Response,get,post" {
		t.Fatalf("children = %v", got)
	}
	if !r.ContainsPrefix(items.Of("http")) {
		t.Fatalf("parent module missing")
	}
}

func TestManifestRejectsEmptyPath(t *testing.T) {
	if _, err := ParseManifest([]byte("modules:\n  - functions: [x]\n")); err == nil {
		t.Fatalf("module without path accepted")
	}
}
