// Package worker drains the indexing task queue: it parses loaded files,
// runs the indexer over them, resolves imports and expands macros until no
// work is left.
package worker

import (
	"context"
	"errors"
	"fmt"

	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/index"
	"rook/internal/items"
	"rook/internal/macros"
	"rook/internal/native"
	"rook/internal/query"
	"rook/internal/source"
	"rook/internal/trace"
)

// Task is a queued unit of work.
type Task = index.Task

// Expansion is the result of an expression macro that indexed cleanly.
type Expansion struct {
	Item items.Item
	Expr ast.Expr
	File *source.File
}

// Config wires a worker to its collaborators. Files, Query and Interner are
// required; the rest fall back to inert defaults.
type Config struct {
	Files    *source.FileSet
	Interner *source.Interner
	Query    *query.Query
	Parser   Parser
	Loader   source.Loader
	Natives  native.Context
	Macros   macros.Evaluator
	Visitor  index.Visitor
	Errors   *diag.Bag
	Warnings *diag.Bag
}

// Worker owns the queue and every piece of mutable indexing state for one pass.
type Worker struct {
	cfg    Config
	queue  []Task
	head   int
	loaded index.Loaded

	expanded []Expansion
	deferred []Task

	tracer trace.Tracer
	parent uint64
	tasks  int
}

// New returns a worker with an empty queue.
func New(cfg Config) *Worker {
	if cfg.Parser == nil {
		cfg.Parser = SourceParser{Interner: cfg.Interner}
	}
	if cfg.Natives == nil {
		cfg.Natives = native.NewRegistry()
	}
	if cfg.Macros == nil {
		cfg.Macros = macros.Builtins()
	}
	if cfg.Errors == nil {
		cfg.Errors = diag.NewBag(0)
	}
	if cfg.Warnings == nil {
		cfg.Warnings = diag.NewBag(0)
	}
	return &Worker{
		cfg:    cfg,
		loaded: index.Loaded{},
		tracer: trace.Nop,
	}
}

// Push appends t to the tail of the queue.
func (w *Worker) Push(t Task) {
	w.queue = append(w.queue, t)
}

// Len is the number of tasks still queued.
func (w *Worker) Len() int {
	return len(w.queue) - w.head
}

// Processed is the number of tasks run so far.
func (w *Worker) Processed() int {
	return w.tasks
}

// Loaded reports which declarations loaded file modules.
func (w *Worker) Loaded() index.Loaded {
	return w.loaded
}

// Expanded returns expression macro expansions in the order they were indexed.
func (w *Worker) Expanded() []Expansion {
	return w.expanded
}

// Run processes tasks in FIFO order until the queue is empty, including the
// tasks produced along the way. Failures are recorded and never stop the run.
// Wildcard imports whose module was not known yet run once more after
// everything else has drained. A cancelled ctx drops the remaining tasks and
// is returned.
func (w *Worker) Run(ctx context.Context) error {
	w.tracer = trace.FromContext(ctx)
	w.parent = trace.CurrentSpan(ctx)
	for {
		for w.head < len(w.queue) {
			if err := ctx.Err(); err != nil {
				w.queue = w.queue[:0]
				w.head = 0
				w.deferred = nil
				return err
			}
			t := w.queue[w.head]
			w.queue[w.head] = nil
			w.head++
			w.tasks++
			if w.tracer.Enabled() {
				name, detail := describe(t)
				trace.Point(w.tracer, trace.ScopeNode, name, detail, w.parent)
			}
			w.report(t, w.process(ctx, t))
		}
		w.queue = w.queue[:0]
		w.head = 0
		if len(w.deferred) == 0 {
			return nil
		}
		w.queue = append(w.queue, w.deferred...)
		w.deferred = nil
	}
}

func (w *Worker) process(ctx context.Context, t Task) error {
	switch t := t.(type) {
	case *index.LoadFile:
		return w.loadFile(t)
	case *index.Index:
		return w.index(t)
	case *index.Import:
		return w.resolveImport(t)
	case *index.ExpandMacro:
		return w.expandMacro(ctx, t)
	default:
		return diag.Internal(source.Span{}, "unknown task %T", t)
	}
}

func (w *Worker) env() index.Env {
	return index.Env{
		Query:    w.cfg.Query,
		Interner: w.cfg.Interner,
		Loader:   w.cfg.Loader,
		Loaded:   w.loaded,
		Queue:    w,
		Visitor:  w.cfg.Visitor,
		Warnings: diag.BagReporter{Bag: w.cfg.Warnings},
	}
}

func (w *Worker) errorReporter() diag.Reporter {
	return diag.BagReporter{Bag: w.cfg.Errors}
}

func (w *Worker) loadFile(t *index.LoadFile) error {
	if t.File == nil {
		return diag.Internal(source.Span{}, "missing queued source for `%s`", t.Item)
	}
	file, ok := w.cfg.Parser.ParseFile(t.File, w.errorReporter())
	if !ok {
		// синтаксические ошибки уже в мешке
		return nil
	}
	root := t.Root
	if t.Kind == index.LoadRoot {
		root = ""
		if !t.File.IsVirtual() {
			root = t.File.Path
		}
	}
	w.Push(&index.Index{Root: root, Item: t.Item, File: t.File, AST: file})
	return nil
}

func (w *Worker) index(t *index.Index) error {
	var ix *index.Indexer
	if t.Continuation != nil {
		ix = index.Resume(w.env(), t.Root, t.File, *t.Continuation)
	} else {
		ix = index.New(w.env(), t.Root, t.File, t.Item)
	}
	switch n := t.AST.(type) {
	case *ast.File:
		return errors.Join(ix.IndexFile(n)...)
	case ast.Item:
		return ix.IndexItem(n)
	case ast.Expr:
		if err := ix.IndexExpr(n); err != nil {
			return err
		}
		w.expanded = append(w.expanded, Expansion{Item: t.Item, Expr: n, File: t.File})
		return nil
	default:
		return diag.Internal(source.Span{}, "cannot index %T", t.AST)
	}
}

// report turns a task failure into diagnostics. Internal failures are also
// traced at error level.
func (w *Worker) report(t Task, err error) {
	if err == nil {
		return
	}
	fallback := taskSpan(t)
	for _, e := range index.Flatten(err) {
		d := diag.FromError(e, diag.InternalError, fallback)
		w.cfg.Errors.Add(d)
		if d.Code.IsInternal() {
			trace.Error(w.tracer, "internal", d.Message, w.parent)
		}
	}
}

func taskSpan(t Task) source.Span {
	if f := t.Source(); f != nil {
		return source.Span{File: f.ID}
	}
	return source.Span{}
}

func describe(t Task) (name, detail string) {
	switch t := t.(type) {
	case *index.LoadFile:
		path := "?"
		if t.File != nil {
			path = t.File.Path
		}
		return "load file", fmt.Sprintf("%s %s (%s)", t.Kind, itemName(t.Item), path)
	case *index.Index:
		return "index", itemName(t.Item)
	case *index.Import:
		return "import", itemName(t.Module)
	case *index.ExpandMacro:
		return "expand macro", itemName(t.Item)
	default:
		return fmt.Sprintf("%T", t), ""
	}
}

func itemName(it items.Item) string {
	if it.IsEmpty() {
		return "crate"
	}
	return it.String()
}
