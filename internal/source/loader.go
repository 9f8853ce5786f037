package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Ext is the file extension of Rook sources.
const Ext = ".rk"

// ErrModuleNotFound is returned when no candidate file exists for a module.
var ErrModuleNotFound = errors.New("module file not found")

// Loader locates the source of a filesystem module.
// root is the path of the root file that started the load chain and
// module is the item path of the module, one name per element.
type Loader interface {
	Load(root string, module []string) (*File, error)
}

// FileLoader resolves modules relative to the directory of the root file:
// a::b is looked up as <dir>/a/b/mod.rk and then <dir>/a/b.rk. Candidates
// that did not exist are remembered, since creating one changes the result.
type FileLoader struct {
	Files  *FileSet
	missed []string
}

// NewFileLoader returns a loader that registers loaded files in fs.
func NewFileLoader(fs *FileSet) *FileLoader {
	return &FileLoader{Files: fs}
}

func (l *FileLoader) Load(root string, module []string) (*File, error) {
	if len(module) == 0 {
		return nil, fmt.Errorf("empty module path: %w", ErrModuleNotFound)
	}
	candidates := Candidates(root, module)
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			l.missed = append(l.missed, candidate)
			continue
		}
		id, err := l.Files.Load(candidate)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", candidate, err)
		}
		return l.Files.Get(id), nil
	}
	return nil, fmt.Errorf("%s: %w", filepath.ToSlash(candidates[len(candidates)-1]), ErrModuleNotFound)
}

// Missed returns the candidate paths that were tried and not found, in
// the order they were tried.
func (l *FileLoader) Missed() []string {
	return l.missed
}

// Candidates lists the paths a FileLoader would try for module, in order.
func Candidates(root string, module []string) []string {
	base := filepath.Dir(root)
	for _, name := range module {
		base = filepath.Join(base, name)
	}
	return []string{filepath.Join(base, "mod"+Ext), base + Ext}
}
