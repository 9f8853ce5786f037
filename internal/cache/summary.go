package cache

import (
	"errors"
	"fmt"
	"os"

	"rook/internal/compile"
	"rook/internal/diag"
	"rook/internal/items"
	"rook/internal/meta"
	"rook/internal/project"
	"rook/internal/project/dag"
	"rook/internal/query"
	"rook/internal/source"
)

// Current schema version - increment when Summary format changes
const schemaVersion uint16 = 2

// ErrStale means a cached summary no longer matches the sources on disk.
var ErrStale = errors.New("cache entry is stale")

// FileEntry is one file of the pass in FileSet order. Virtual files (macro
// output) carry their content since they cannot be re-read.
type FileEntry struct {
	Path    string
	Virtual bool
	Hash    project.Digest
	Content []byte
}

type MetaEntry struct {
	Kind     uint8
	Item     string
	Enum     string
	Args     int
	Fields   []string
	Captures []string
	Value    meta.ConstValue
	Source   *meta.Source
}

type ImportEntry struct {
	Module string
	Local  string
	Target string
	Span   source.Span
}

type BuildRecord struct {
	Kind uint8
	Item string
}

type ModuleEntry struct {
	Path        string
	Kind        uint8
	Imports     []string
	ContentHash project.Digest
	ModuleHash  project.Digest
}

// Summary is what a pass leaves behind once the AST is gone.
type Summary struct {
	Schema   uint16
	Roots    []string
	Files    []FileEntry
	Modules  []ModuleEntry
	Metas    []MetaEntry
	Imports  []ImportEntry
	Builds   []BuildRecord
	Pending  []string
	Errors   []diag.Diagnostic
	Warnings []diag.Diagnostic
	Tasks    int
	// Absent are module candidates that did not exist during the pass.
	Absent []string
}

// Key identifies a set of roots by path and content, together with the
// digest of everything else the pass read (see Inputs).
func Key(roots []*source.File, inputs project.Digest) project.Digest {
	parts := make([]project.Digest, 0, 2*len(roots)+1)
	parts = append(parts, inputs)
	for _, f := range roots {
		parts = append(parts, project.HashBytes([]byte(f.Path)), project.HashBytes(f.Content))
	}
	return project.Combine(project.HashBytes(fmt.Appendf(nil, "rook-unit-v%d", schemaVersion)), parts...)
}

// FromResult summarizes a finished pass over roots.
func FromResult(res *compile.Result, roots []*source.File) *Summary {
	s := &Summary{
		Schema:   schemaVersion,
		Errors:   res.Errors.Items(),
		Warnings: res.Warnings.Items(),
		Tasks:    res.Tasks,
		Absent:   res.Missed,
	}
	for _, f := range roots {
		s.Roots = append(s.Roots, f.Path)
	}
	for _, f := range res.Files.Files() {
		e := FileEntry{Path: f.Path, Virtual: f.IsVirtual(), Hash: project.HashBytes(f.Content)}
		if e.Virtual {
			e.Content = f.Content
		}
		s.Files = append(s.Files, e)
	}

	modules := project.BuildModuleMetas(roots, res.Loaded, res.Unit)
	dag.ModuleHashes(modules)
	for _, m := range modules {
		e := ModuleEntry{Path: m.Path, Kind: uint8(m.Kind), ContentHash: m.ContentHash, ModuleHash: m.ModuleHash}
		for _, imp := range m.Imports {
			e.Imports = append(e.Imports, imp.Path)
		}
		s.Modules = append(s.Modules, e)
	}

	for _, m := range res.Unit.Metas() {
		s.Metas = append(s.Metas, MetaEntry{
			Kind:     uint8(m.Kind),
			Item:     m.Item.String(),
			Enum:     m.Enum.String(),
			Args:     m.Args,
			Fields:   m.Fields,
			Captures: m.Captures,
			Value:    m.Value,
			Source:   m.Source,
		})
	}
	for _, imp := range res.Unit.Imports() {
		s.Imports = append(s.Imports, ImportEntry{
			Module: imp.Module.String(),
			Local:  imp.Local,
			Target: imp.Target.String(),
			Span:   imp.Span,
		})
	}
	for _, b := range res.Builds {
		s.Builds = append(s.Builds, BuildRecord{Kind: uint8(b.Kind), Item: b.Item.String()})
	}
	for _, p := range res.Pending {
		s.Pending = append(s.Pending, p.Item.String())
	}
	return s
}

// Restored is a summary turned back into the structures the printers use.
type Restored struct {
	Files    *source.FileSet
	Unit     *query.Unit
	Errors   *diag.Bag
	Warnings *diag.Bag
	Builds   []BuildRecord
	Pending  []string
	Modules  []project.ModuleMeta
	Tasks    int
}

// Restore rebuilds the file set and unit. Files are re-read from disk and
// must hash to the recorded digests, and module candidates that were absent
// must still be absent, otherwise ErrStale is returned.
func (s *Summary) Restore() (*Restored, error) {
	if s.Schema != schemaVersion {
		return nil, fmt.Errorf("%w: schema %d", ErrStale, s.Schema)
	}
	for _, p := range s.Absent {
		if _, err := os.Stat(p); err == nil {
			return nil, fmt.Errorf("%w: %s appeared", ErrStale, p)
		}
	}
	fs := source.NewFileSet()
	for _, e := range s.Files {
		if e.Virtual {
			fs.AddVirtual(e.Path, e.Content)
			continue
		}
		// #nosec G304 -- paths were recorded from a previous pass
		data, err := os.ReadFile(e.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStale, err)
		}
		f := fs.Get(fs.AddRaw(e.Path, data))
		if project.HashBytes(f.Content) != e.Hash {
			return nil, fmt.Errorf("%w: %s changed", ErrStale, e.Path)
		}
	}

	unit := query.NewUnit()
	for _, e := range s.Metas {
		m := &meta.Meta{
			Kind:     meta.Kind(e.Kind),
			Item:     items.Parse(e.Item),
			Enum:     items.Parse(e.Enum),
			Args:     e.Args,
			Fields:   e.Fields,
			Captures: e.Captures,
			Value:    e.Value,
			Source:   e.Source,
		}
		if err := unit.InsertMeta(m); err != nil {
			return nil, fmt.Errorf("restore %s: %w", e.Item, err)
		}
	}
	for _, e := range s.Imports {
		if err := unit.NewImportAs(items.Parse(e.Module), e.Local, items.Parse(e.Target), e.Span); err != nil {
			return nil, fmt.Errorf("restore import %s: %w", e.Local, err)
		}
	}

	r := &Restored{
		Files:    fs,
		Unit:     unit,
		Errors:   diag.NewBag(0),
		Warnings: diag.NewBag(0),
		Builds:   s.Builds,
		Pending:  s.Pending,
		Tasks:    s.Tasks,
	}
	for _, d := range s.Errors {
		r.Errors.Add(d)
	}
	for _, d := range s.Warnings {
		r.Warnings.Add(d)
	}
	for _, e := range s.Modules {
		m := project.ModuleMeta{
			Path:        e.Path,
			Kind:        project.ModuleKind(e.Kind),
			ContentHash: e.ContentHash,
			ModuleHash:  e.ModuleHash,
		}
		for _, p := range e.Imports {
			m.Imports = append(m.Imports, project.ImportMeta{Path: p})
		}
		r.Modules = append(r.Modules, m)
	}
	return r, nil
}

// Lookup returns the restored summary cached for roots and inputs. A missing
// or stale entry reports ok == false without an error.
func (c *DiskCache) Lookup(roots []*source.File, inputs project.Digest) (r *Restored, ok bool, err error) {
	var s Summary
	found, err := c.Get(Key(roots, inputs), &s)
	if err != nil || !found {
		return nil, false, err
	}
	r, err = s.Restore()
	if errors.Is(err, ErrStale) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// Store records the pass over roots. Interrupted passes are not cached.
func (c *DiskCache) Store(res *compile.Result, roots []*source.File, inputs project.Digest) error {
	if res.Interrupted != nil {
		return nil
	}
	return c.Put(Key(roots, inputs), FromResult(res, roots))
}
