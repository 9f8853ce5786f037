package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"rook/internal/diag"
	"rook/internal/meta"
	"rook/internal/project"
	"rook/internal/query"
	"rook/internal/source"
)

// Snapshot is the part of a finished pass that is exported.
type Snapshot struct {
	Files       *source.FileSet
	Unit        *query.Unit
	Modules     []project.ModuleMeta
	Diagnostics []diag.Diagnostic
}

// Exporter streams metas and module discoveries into an open transaction
// while a pass runs, then writes the rest of the snapshot in Finish. It
// satisfies compile.Visitor. The first failed write is kept and every
// later event is dropped.
type Exporter struct {
	ctx context.Context
	tx  *sql.Tx
	err error
}

// Begin starts an export that replaces the previous contents.
func (s *Store) Begin(ctx context.Context) (*Exporter, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin export: %w", err)
	}
	if err := clearTables(ctx, tx); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	return &Exporter{ctx: ctx, tx: tx}, nil
}

// Err is the first write failure, if any.
func (e *Exporter) Err() error {
	return e.err
}

func (e *Exporter) exec(query string, args ...any) {
	if e.err != nil {
		return
	}
	if _, err := e.tx.ExecContext(e.ctx, query, args...); err != nil {
		e.err = fmt.Errorf("export: %w", err)
	}
}

func (e *Exporter) VisitMod(file *source.File, span source.Span) {
	e.exec("INSERT INTO discovered (path, decl_file, decl_start, decl_end) VALUES (?, ?, ?, ?)",
		file.Path, int64(span.File), int64(span.Start), int64(span.End))
}

func (e *Exporter) VisitMeta(m *meta.Meta) {
	fields, err := json.Marshal(nonNil(m.Fields))
	if err != nil {
		e.err = err
		return
	}
	captures, err := json.Marshal(nonNil(m.Captures))
	if err != nil {
		e.err = err
		return
	}
	var fileID, start, end any
	if m.Source != nil {
		fileID, start, end = int64(m.Source.File), int64(m.Source.Span.Start), int64(m.Source.Span.End)
	}
	e.exec(`INSERT INTO metas (kind, item, enum, args, fields, captures, value, file_id, span_start, span_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item) DO UPDATE SET value = excluded.value`,
		m.Kind.String(), m.Item.String(), m.Enum.String(), m.Args, string(fields), string(captures),
		constValue(m), fileID, start, end)
}

// Finish writes files, imports, modules and diagnostics, upserts consts
// (they are evaluated after indexing) and commits.
func (e *Exporter) Finish(snap Snapshot) error {
	if snap.Files != nil {
		for _, f := range snap.Files.Files() {
			e.exec("INSERT INTO files (id, path, virtual, hash) VALUES (?, ?, ?, ?)",
				int64(f.ID), f.Path, f.IsVirtual(), hexDigest(project.HashBytes(f.Content)))
		}
	}
	if snap.Unit != nil {
		for _, m := range snap.Unit.Metas() {
			if m.Kind == meta.KindConst {
				e.VisitMeta(m)
			}
		}
		for _, imp := range snap.Unit.Imports() {
			e.exec("INSERT INTO imports (module, local, target) VALUES (?, ?, ?)",
				imp.Module.String(), imp.Local, imp.Target.String())
		}
	}
	for _, m := range snap.Modules {
		e.exec("INSERT INTO modules (path, kind, content_hash, module_hash) VALUES (?, ?, ?, ?)",
			m.DisplayName(), m.Kind.String(), hexDigest(m.ContentHash), hexDigest(m.ModuleHash))
		for _, dep := range m.Imports {
			e.exec("INSERT OR IGNORE INTO module_deps (module, dep) VALUES (?, ?)", m.DisplayName(), moduleName(dep.Path))
		}
	}
	for _, d := range snap.Diagnostics {
		e.exec("INSERT INTO diagnostics (severity, code, message, file_id, span_start, span_end) VALUES (?, ?, ?, ?, ?, ?)",
			d.Severity.String(), d.Code.ID(), d.Message, int64(d.Primary.File), int64(d.Primary.Start), int64(d.Primary.End))
	}

	if e.err != nil {
		_ = e.tx.Rollback()
		return e.err
	}
	if err := e.tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	return nil
}

// Abort discards everything written since Begin.
func (e *Exporter) Abort() error {
	return e.tx.Rollback()
}

// Write exports a snapshot in one go, for units that were not streamed.
func (s *Store) Write(ctx context.Context, snap Snapshot) error {
	e, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	if snap.Unit != nil {
		for _, m := range snap.Unit.Metas() {
			e.VisitMeta(m)
		}
	}
	return e.Finish(snap)
}

func constValue(m *meta.Meta) any {
	if m.Kind != meta.KindConst {
		return nil
	}
	return m.Value.String()
}

func hexDigest(d project.Digest) string {
	return hex.EncodeToString(d[:])
}

func moduleName(path string) string {
	if path == "" {
		return "crate"
	}
	return path
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
