package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	// ErrPackageSectionMissing indicates that [package] is missing in the manifest.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrMainMissing indicates that no entry file was configured.
	ErrMainMissing = errors.New("missing [run].main")
)

// Manifest is a parsed rook.toml. Paths are kept as written; the *Path
// methods resolve them against Root.
type Manifest struct {
	Path    string // путь к самому rook.toml
	Root    string // каталог проекта
	Package PackageSection
	Run     RunSection
	Index   IndexSection
}

type PackageSection struct {
	Name string `toml:"name"`
}

type RunSection struct {
	Main string `toml:"main"`
}

// IndexSection configures the indexing pass.
type IndexSection struct {
	MaxDiagnostics int      `toml:"max_diagnostics"`
	MacrosDir      string   `toml:"macros_dir"`
	Natives        []string `toml:"natives"`
	Cache          bool     `toml:"cache"`
}

type manifestFile struct {
	Package PackageSection `toml:"package"`
	Run     RunSection     `toml:"run"`
	Index   IndexSection   `toml:"index"`
}

// ParseManifest decodes manifest text. root is the project directory used
// to validate relative paths.
func ParseManifest(path, root, data string) (*Manifest, error) {
	var cfg manifestFile
	meta, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slices.Sort(keys)
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	name := strings.TrimSpace(cfg.Package.Name)
	if !IsValidModuleIdent(name) {
		return nil, fmt.Errorf("%s: invalid package name %q", path, cfg.Package.Name)
	}
	if cfg.Index.MaxDiagnostics < 0 {
		return nil, fmt.Errorf("%s: [index].max_diagnostics must not be negative", path)
	}

	m := &Manifest{Path: path, Root: root, Package: PackageSection{Name: name}, Run: cfg.Run, Index: cfg.Index}
	m.Run.Main = strings.TrimSpace(m.Run.Main)
	checks := []struct{ key, value string }{
		{"[run].main", m.Run.Main},
		{"[index].macros_dir", m.Index.MacrosDir},
	}
	for _, n := range m.Index.Natives {
		checks = append(checks, struct{ key, value string }{"[index].natives", n})
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		if _, err := resolveWithin(root, c.value); err != nil {
			return nil, fmt.Errorf("%s: invalid %s: %w", path, c.key, err)
		}
	}
	return m, nil
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	// #nosec G304 -- path comes from FindManifest or the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(path, filepath.Dir(path), string(data))
}

// Discover finds rook.toml above startDir and loads it. ok is false when
// there is no manifest.
func Discover(startDir string) (m *Manifest, ok bool, err error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err = LoadManifest(path)
	return m, true, err
}

// MainPath is the absolute entry file.
func (m *Manifest) MainPath() (string, error) {
	if m.Run.Main == "" {
		return "", fmt.Errorf("%s: %w", m.Path, ErrMainMissing)
	}
	return resolveWithin(m.Root, m.Run.Main)
}

// MacrosPath is the script macro directory, or "" when none is configured.
func (m *Manifest) MacrosPath() string {
	if m.Index.MacrosDir == "" {
		return ""
	}
	p, _ := resolveWithin(m.Root, m.Index.MacrosDir)
	return p
}

// NativePaths are the configured native manifests.
func (m *Manifest) NativePaths() []string {
	out := make([]string, 0, len(m.Index.Natives))
	for _, n := range m.Index.Natives {
		if p, err := resolveWithin(m.Root, n); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// resolveWithin joins a relative path onto root and rejects paths that
// leave it.
func resolveWithin(root, rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%q must be relative", rel)
	}
	full := filepath.Join(root, filepath.Clean(filepath.FromSlash(rel)))
	if !pathWithin(root, full) {
		return "", fmt.Errorf("%q escapes project root", rel)
	}
	return full, nil
}

func pathWithin(root, path string) bool {
	if root == "" || path == "" {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
