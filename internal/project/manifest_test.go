package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseManifest(t *testing.T) {
	root := filepath.FromSlash("/work/app")
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name: "full",
			data: `
[package]
name = "app"

[run]
main = "src/main.rk"

[index]
max_diagnostics = 50
macros_dir = "macros"
natives = ["natives/host.yaml"]
cache = true
`,
		},
		{name: "minimal", data: "[package]\nname = \"app\"\n"},
		{name: "missing package", data: "[run]\nmain = \"main.rk\"\n", wantErr: "missing [package]"},
		{name: "bad name", data: "[package]\nname = \"my-app\"\n", wantErr: "invalid package name"},
		{name: "unknown key", data: "[package]\nname = \"app\"\nversion = \"1\"\n", wantErr: "unknown keys: package.version"},
		{name: "escaping main", data: "[package]\nname = \"app\"\n[run]\nmain = \"../x.rk\"\n", wantErr: "escapes project root"},
		{name: "negative limit", data: "[package]\nname = \"app\"\n[index]\nmax_diagnostics = -1\n", wantErr: "must not be negative"},
		{name: "syntax", data: "[package\n", wantErr: "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseManifest(filepath.Join(root, ManifestName), root, tt.data)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if m.Package.Name != "app" {
				t.Errorf("name = %q", m.Package.Name)
			}
		})
	}
}

func TestManifestPaths(t *testing.T) {
	root := filepath.FromSlash("/work/app")
	m, err := ParseManifest(filepath.Join(root, ManifestName), root, `
[package]
name = "app"
[run]
main = "src/main.rk"
[index]
macros_dir = "macros"
natives = ["host.yaml", "net.yaml"]
`)
	if err != nil {
		t.Fatal(err)
	}
	main, err := m.MainPath()
	if err != nil || main != filepath.Join(root, "src", "main.rk") {
		t.Errorf("main = %q, %v", main, err)
	}
	if got := m.MacrosPath(); got != filepath.Join(root, "macros") {
		t.Errorf("macros = %q", got)
	}
	if got := m.NativePaths(); len(got) != 2 || got[1] != filepath.Join(root, "net.yaml") {
		t.Errorf("natives = %q", got)
	}

	empty := &Manifest{Path: "rook.toml", Root: root}
	if _, err := empty.MainPath(); !errors.Is(err, ErrMainMissing) {
		t.Errorf("err = %v", err)
	}
	if empty.MacrosPath() != "" {
		t.Errorf("macros path without config")
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte("[package]\nname = \"demo\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	m, ok, err := Discover(nested)
	if err != nil || !ok {
		t.Fatalf("Discover = %v, %v", ok, err)
	}
	if m.Package.Name != "demo" || m.Root != dir {
		t.Errorf("manifest = %+v", m)
	}
}
