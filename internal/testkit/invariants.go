// Package testkit holds structural checks shared by the parser, indexer and
// fuzz tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"rook/internal/ast"
	"rook/internal/query"
	"rook/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed file:
// 1) file.Sp lies within the file content
// 2) every item span is non-empty and fully contained in file.Sp
// 3) items appear in source order without overlapping
func CheckSpanInvariants(f *ast.File, sf *source.File) error {
	if f == nil || sf == nil {
		return fmt.Errorf("nil file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	// 1) file span sanity
	if f.Sp.File != sf.ID {
		return fmt.Errorf("file span points to different file id: got=%d want=%d", f.Sp.File, sf.ID)
	}
	if f.Sp.Start > f.Sp.End || f.Sp.End > lenContent {
		return fmt.Errorf("file span %v is outside content of %d bytes", f.Sp, lenContent)
	}

	// 2) item spans within file span; 3) ordered
	var prev source.Span
	for i, entry := range f.Items {
		if entry.Item == nil {
			return fmt.Errorf("nil item #%d", i)
		}
		sp := entry.Item.Span()
		if sp.End <= sp.Start {
			return fmt.Errorf("empty item span: %v", sp)
		}
		if sp.File != sf.ID {
			return fmt.Errorf("item span file mismatch: got=%d want=%d", sp.File, sf.ID)
		}
		if sp.Start < f.Sp.Start || sp.End > f.Sp.End {
			return fmt.Errorf("item span %v is outside file span %v", sp, f.Sp)
		}
		if i > 0 && sp.Start < prev.End {
			return fmt.Errorf("item span %v overlaps previous %v", sp, prev)
		}
		if entry.Semi != nil && entry.Semi.Start < sp.End {
			return fmt.Errorf("semicolon %v precedes end of item %v", *entry.Semi, sp)
		}
		prev = sp
	}
	return nil
}

// CheckUnitInvariants verifies what every finished pass must hold: each
// meta has a non-empty item whose source span lies in a known file, and
// every import points at a non-empty target.
func CheckUnitInvariants(unit *query.Unit, fs *source.FileSet) error {
	if unit == nil {
		return fmt.Errorf("nil unit")
	}
	for _, m := range unit.Metas() {
		if m.Item.IsEmpty() {
			return fmt.Errorf("%s with empty item", m.Kind)
		}
		if m.Source == nil {
			continue
		}
		f := fs.Get(m.Source.File)
		if f == nil {
			return fmt.Errorf("%s: unknown file %d", m.Item, m.Source.File)
		}
		end, err := safecast.Conv[uint32](len(f.Content))
		if err != nil {
			return fmt.Errorf("len content overflow: %w", err)
		}
		if sp := m.Source.Span; sp.Start > sp.End || sp.End > end {
			return fmt.Errorf("%s: span %v is outside %s", m.Item, sp, f.Path)
		}
	}
	for _, imp := range unit.Imports() {
		if imp.Target.IsEmpty() || imp.Local == "" {
			return fmt.Errorf("import %s::%s -> %s is incomplete", imp.Module, imp.Local, imp.Target)
		}
	}
	return nil
}
