// Package index walks syntax trees and records what they declare: item
// metadata and deferred builds in the query, plus follow-up tasks (file
// modules, imports, macro expansions) for the worker.
package index

import (
	"errors"
	"slices"

	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/items"
	"rook/internal/query"
	"rook/internal/scopes"
	"rook/internal/source"
)

// Visitor is notified when a file module is discovered.
type Visitor interface {
	VisitMod(file *source.File, span source.Span)
}

// LoadedModule records which declaration loaded a file module.
type LoadedModule struct {
	Item items.Item
	File *source.File
	Span source.Span
}

// Loaded maps module item keys to the declaration that loaded them.
type Loaded map[string]LoadedModule

// Env is the state shared by every indexer of one pass.
type Env struct {
	Query    *query.Query
	Interner *source.Interner
	Loader   source.Loader
	Loaded   Loaded
	Queue    Queue
	Visitor  Visitor
	Warnings diag.Reporter
}

// Indexer indexes fragments of one source file.
type Indexer struct {
	env       Env
	root      string
	file      *source.File
	items     *items.Items
	scopes    *scopes.Scopes
	implItems []items.Item
	depth     int
}

// New returns an indexer positioned at base. root is empty when the file has
// no filesystem location to load modules from.
func New(env Env, root string, file *source.File, base items.Item) *Indexer {
	return &Indexer{
		env:    env,
		root:   root,
		file:   file,
		items:  items.FromItem(base),
		scopes: scopes.New(),
	}
}

// Resume returns an indexer that continues from cont as if the indexed
// fragment had been written where cont was captured.
func Resume(env Env, root string, file *source.File, cont Continuation) *Indexer {
	c := cont.clone()
	return &Indexer{
		env:       env,
		root:      root,
		file:      file,
		items:     items.FromSnapshot(c.Items),
		scopes:    c.Scopes,
		implItems: c.ImplItems,
		depth:     c.Depth,
	}
}

// Item is the current item path.
func (ix *Indexer) Item() items.Item {
	return ix.items.Item()
}

// Continuation captures the current state for a deferred task.
func (ix *Indexer) Continuation() Continuation {
	return Continuation{
		Items:     ix.items.Snapshot(),
		Scopes:    ix.scopes.Snapshot(),
		ImplItems: slices.Clone(ix.implItems),
		Depth:     ix.depth,
	}
}

// IndexFile indexes every item of f. Items are independent: a failing item
// is reported and the rest are still indexed.
func (ix *Indexer) IndexFile(f *ast.File) []error {
	if len(f.Attrs) > 0 {
		return []error{diag.Errorf(diag.IdxUnsupportedFileAttrs, f.Attrs[0].Sp, "file attributes are not supported")}
	}
	return ix.entries(f.Items)
}

// IndexItem indexes a single item.
func (ix *Indexer) IndexItem(it ast.Item) error {
	return ix.item(it)
}

// IndexExpr indexes an expression, e.g. the expansion of an expression macro.
func (ix *Indexer) IndexExpr(e ast.Expr) error {
	return ix.expr(e)
}

func (ix *Indexer) entries(entries []ast.ItemEntry) []error {
	var errs []error
	for _, entry := range entries {
		if entry.Semi != nil && !ast.NeedsSemi(entry.Item) && ix.env.Warnings != nil {
			diag.ReportWarning(ix.env.Warnings, diag.IdxUnnecessarySemicolon, *entry.Semi,
				"unnecessary semicolon").Emit()
		}
		if err := ix.item(entry.Item); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (ix *Indexer) name(id ast.Ident) string {
	return ix.env.Interner.MustLookup(id.Name)
}

func unsupportedAttrs(attrs []*ast.Attribute, what string) error {
	if len(attrs) == 0 {
		return nil
	}
	return diag.Errorf(diag.IdxUnsupportedAttributes, attrs[0].Sp, "%s attributes are not supported", what)
}

// Flatten splits an error joined by errors.Join into its parts.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, Flatten(e)...)
		}
		return out
	}
	return []error{err}
}

func join(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
