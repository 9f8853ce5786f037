package native

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"rook/internal/items"
)

// Manifest describes host modules in YAML:
//
//	modules:
//	  - path: http::client
//	    functions: [get, post]
//	    types:
//	      - name: Response
//	        instance: [status, text]
type Manifest struct {
	Modules []ManifestModule `yaml:"modules"`
}

type ManifestModule struct {
	Path      string         `yaml:"path"`
	Functions []string       `yaml:"functions"`
	Types     []ManifestType `yaml:"types"`
}

type ManifestType struct {
	Name     string   `yaml:"name"`
	Instance []string `yaml:"instance"`
}

// ParseManifest decodes a manifest document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("native manifest: %w", err)
	}
	for i, mod := range m.Modules {
		if strings.TrimSpace(mod.Path) == "" {
			return nil, fmt.Errorf("native manifest: module #%d has no path", i+1)
		}
	}
	return &m, nil
}

// LoadManifest reads and decodes a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	// #nosec G304 -- manifest path comes from the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("native manifest %s: %w", path, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Install registers every module of m into r.
func (r *Registry) Install(m *Manifest) error {
	for _, mod := range m.Modules {
		base := items.Parse(mod.Path)
		if _, err := r.add(EntryModule, base); err != nil {
			return err
		}
		for _, fn := range mod.Functions {
			if _, err := r.add(EntryFunction, base.Join(fn)); err != nil {
				return err
			}
		}
		for _, ty := range mod.Types {
			if err := r.Type(base.Join(ty.Name), ty.Instance...); err != nil {
				return err
			}
		}
	}
	return nil
}
