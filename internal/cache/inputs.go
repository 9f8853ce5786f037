package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"rook/internal/macros"
	"rook/internal/project"
)

// Inputs are the files besides the sources that shape a pass: native
// module manifests and the macro script directory.
type Inputs struct {
	Natives   []string
	MacrosDir string
}

// Digest hashes the manifests in order and every script under MacrosDir by
// relative path and content. A missing macro directory hashes as empty.
func (in Inputs) Digest() (project.Digest, error) {
	var parts []project.Digest
	for _, path := range in.Natives {
		// #nosec G304 -- manifests are chosen by the user
		data, err := os.ReadFile(path)
		if err != nil {
			return project.Digest{}, fmt.Errorf("natives %s: %w", path, err)
		}
		parts = append(parts, project.HashBytes([]byte(path)), project.HashBytes(data))
	}
	parts = append(parts, project.HashBytes([]byte("macros:"+in.MacrosDir)))
	if in.MacrosDir != "" {
		err := filepath.WalkDir(in.MacrosDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, macros.ScriptExt) {
				return nil
			}
			rel, err := filepath.Rel(in.MacrosDir, path)
			if err != nil {
				return err
			}
			// #nosec G304 -- path comes from walking the macro directory
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			parts = append(parts, project.HashBytes([]byte(filepath.ToSlash(rel))), project.HashBytes(data))
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return project.Digest{}, fmt.Errorf("macros %s: %w", in.MacrosDir, err)
		}
	}
	return project.Combine(project.HashBytes([]byte("rook-inputs")), parts...), nil
}
