// Package store exports an indexed unit into a SQLite database so other
// tools can query items, imports and diagnostics with plain SQL.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // register sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	id      INTEGER PRIMARY KEY,
	path    TEXT NOT NULL,
	virtual INTEGER NOT NULL,
	hash    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS metas (
	seq      INTEGER PRIMARY KEY,
	kind     TEXT NOT NULL,
	item     TEXT NOT NULL UNIQUE,
	enum     TEXT NOT NULL DEFAULT '',
	args     INTEGER NOT NULL DEFAULT 0,
	fields   TEXT NOT NULL DEFAULT '[]',
	captures TEXT NOT NULL DEFAULT '[]',
	value    TEXT,
	file_id  INTEGER,
	span_start INTEGER,
	span_end   INTEGER
);

CREATE TABLE IF NOT EXISTS discovered (
	seq      INTEGER PRIMARY KEY,
	path     TEXT NOT NULL,
	decl_file INTEGER NOT NULL,
	decl_start INTEGER NOT NULL,
	decl_end   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS imports (
	module TEXT NOT NULL,
	local  TEXT NOT NULL,
	target TEXT NOT NULL,
	PRIMARY KEY (module, local)
);

CREATE TABLE IF NOT EXISTS modules (
	path         TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	module_hash  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS module_deps (
	module TEXT NOT NULL,
	dep    TEXT NOT NULL,
	PRIMARY KEY (module, dep)
);

CREATE TABLE IF NOT EXISTS diagnostics (
	seq      INTEGER PRIMARY KEY,
	severity TEXT NOT NULL,
	code     TEXT NOT NULL,
	message  TEXT NOT NULL,
	file_id  INTEGER NOT NULL,
	span_start INTEGER NOT NULL,
	span_end   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_metas_kind ON metas(kind);
CREATE INDEX IF NOT EXISTS idx_imports_target ON imports(target);
`

var tables = []string{"files", "metas", "discovered", "imports", "modules", "module_deps", "diagnostics"}

// Querier abstracts *sql.DB and *sql.Tx so writers work in both contexts.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps a SQLite connection holding one exported unit.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, dbPath: dbPath}, nil
}

// Path is the database file.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Count returns the number of rows in one of the export tables.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	known := false
	for _, t := range tables {
		known = known || t == table
	}
	if !known {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	// #nosec G202 -- table is checked against the fixed list above
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}

func clearTables(ctx context.Context, q Querier) error {
	for _, t := range tables {
		if _, err := q.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}
	return nil
}
