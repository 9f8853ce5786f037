// Package compile runs the indexing pass over a set of root sources and
// collects everything it produced into a Result.
package compile

import (
	"context"
	"fmt"

	"rook/internal/diag"
	"rook/internal/index"
	"rook/internal/items"
	"rook/internal/macros"
	"rook/internal/meta"
	"rook/internal/native"
	"rook/internal/observ"
	"rook/internal/query"
	"rook/internal/source"
	"rook/internal/trace"
	"rook/internal/worker"
)

// Visitor observes the pass without influencing it.
type Visitor interface {
	index.Visitor
	VisitMeta(m *meta.Meta)
}

// NopVisitor ignores every event.
type NopVisitor struct{}

func (NopVisitor) VisitMod(*source.File, source.Span) {}
func (NopVisitor) VisitMeta(*meta.Meta)               {}

// Options configures a pass. The zero value indexes with the std prelude,
// the built-in macros and modules read from disk.
type Options struct {
	MaxDiagnostics int
	Jobs           int
	Natives        native.Context
	Macros         macros.Evaluator
	Loader         source.Loader
	Visitor        Visitor
}

// Result is everything one pass produced.
type Result struct {
	Files    *source.FileSet
	Interner *source.Interner
	Unit     *query.Unit
	Builds   []query.BuildEntry
	Pending  []*query.IndexedEntry
	Expanded []worker.Expansion
	Loaded   index.Loaded
	Errors   *diag.Bag
	Warnings *diag.Bag
	Tasks    int
	Timings  observ.Report
	// Missed lists module paths the file loader tried without finding.
	Missed []string
	// Interrupted is the context error when the pass was cancelled before
	// the queue drained; the result is then incomplete.
	Interrupted error
}

// HasErrors reports whether any error was recorded.
func (r *Result) HasErrors() bool {
	return r.Errors.HasErrors()
}

// Compile reads the root files at paths and indexes them.
func Compile(ctx context.Context, paths []string, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	timer := observ.NewTimer()
	idx := timer.Begin("load")
	roots, err := LoadRoots(ctx, fs, paths, opts.Jobs)
	timer.End(idx, fmt.Sprintf("%d files", len(roots)))
	if err != nil {
		return nil, err
	}
	return run(ctx, fs, roots, opts, timer), nil
}

// CompileSources indexes roots that are already in fs. Roots without a
// filesystem location cannot load file modules.
func CompileSources(ctx context.Context, fs *source.FileSet, roots []*source.File, opts Options) *Result {
	return run(ctx, fs, roots, opts, observ.NewTimer())
}

func run(ctx context.Context, fs *source.FileSet, roots []*source.File, opts Options, timer *observ.Timer) *Result {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "index", trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)

	if opts.Natives == nil {
		opts.Natives = native.Std()
	}
	if opts.Macros == nil {
		opts.Macros = macros.Builtins()
	}
	if opts.Loader == nil {
		opts.Loader = source.NewFileLoader(fs)
	}
	if opts.Visitor == nil {
		opts.Visitor = NopVisitor{}
	}

	interner := source.NewInterner()
	unit := query.NewUnit()
	unit.Observe(opts.Visitor.VisitMeta)
	q := query.New(unit, interner)
	res := &Result{
		Files:    fs,
		Interner: interner,
		Unit:     unit,
		Errors:   diag.NewBag(opts.MaxDiagnostics),
		Warnings: diag.NewBag(opts.MaxDiagnostics),
	}

	w := worker.New(worker.Config{
		Files:    fs,
		Interner: interner,
		Query:    q,
		Loader:   opts.Loader,
		Natives:  opts.Natives,
		Macros:   opts.Macros,
		Visitor:  opts.Visitor,
		Errors:   res.Errors,
		Warnings: res.Warnings,
	})
	for _, f := range roots {
		trace.Point(tracer, trace.ScopeModule, "root", f.Path, span.ID())
		w.Push(&index.LoadFile{Kind: index.LoadRoot, Item: items.Item{}, File: f})
	}

	timer.Track("index", func() string {
		res.Interrupted = w.Run(ctx)
		return fmt.Sprintf("%d tasks", w.Processed())
	})
	timer.Track("consts", func() string {
		errs := q.FinalizeConsts()
		for _, err := range errs {
			res.Errors.Add(diag.FromError(err, diag.IdxConstEval, source.Span{}))
		}
		return fmt.Sprintf("%d errors", len(errs))
	})

	res.Builds = q.Builds()
	res.Pending = q.Pending()
	res.Expanded = w.Expanded()
	res.Loaded = w.Loaded()
	res.Tasks = w.Processed()
	if fl, ok := opts.Loader.(*source.FileLoader); ok {
		res.Missed = fl.Missed()
	}
	res.Timings = timer.Report()

	span.End(fmt.Sprintf("%d metas, %d builds, %d errors", unit.Len(), len(res.Builds), res.Errors.Len()))
	return res
}
