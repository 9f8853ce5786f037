// Package query records indexed items: eager metadata in the Unit, lazily
// materialised entries (nested functions, closures, consts) and the queue of
// deferred builds consumed by code generation.
package query

import (
	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/items"
	"rook/internal/meta"
	"rook/internal/source"
)

// Used tells code generation whether a build was requested by a use site.
type Used uint8

const (
	Unused Used = iota
	UsedByName
)

func (u Used) String() string {
	if u == UsedByName {
		return "used"
	}
	return "unused"
}

// BuildKind tags a BuildEntry.
type BuildKind uint8

const (
	BuildFunction BuildKind = iota
	BuildInstanceFunction
	BuildClosure
	BuildAsyncBlock
)

func (k BuildKind) String() string {
	switch k {
	case BuildFunction:
		return "fn"
	case BuildInstanceFunction:
		return "instance fn"
	case BuildClosure:
		return "closure"
	case BuildAsyncBlock:
		return "async block"
	default:
		return "invalid"
	}
}

// BuildEntry is one body scheduled for code generation.
type BuildEntry struct {
	Item items.Item
	Kind BuildKind
	Call meta.Call
	Used Used

	Fn       *ast.ItemFn      // BuildFunction, BuildInstanceFunction
	Closure  *ast.ExprClosure // BuildClosure
	Block    *ast.ExprBlock   // BuildAsyncBlock
	Captures []string

	ImplItem     items.Item  // BuildInstanceFunction
	InstanceSpan source.Span // BuildInstanceFunction

	Source *source.File
}

// IndexedKind tags an IndexedEntry.
type IndexedKind uint8

const (
	IndexedFunction IndexedKind = iota
	IndexedClosure
	IndexedAsyncBlock
	IndexedConst
)

func (k IndexedKind) String() string {
	switch k {
	case IndexedFunction:
		return "fn"
	case IndexedClosure:
		return "closure"
	case IndexedAsyncBlock:
		return "async block"
	case IndexedConst:
		return "const"
	default:
		return "invalid"
	}
}

// IndexedEntry is an item known by path whose metadata is produced on first query.
type IndexedEntry struct {
	Kind   IndexedKind
	Item   items.Item
	Span   source.Span
	Source *source.File

	Fn       *ast.ItemFn
	Closure  *ast.ExprClosure
	Block    *ast.ExprBlock
	Captures []string
	Call     meta.Call

	Const ast.Expr
}

// Query owns the unit while indexing runs.
type Query struct {
	Unit     *Unit
	interner *source.Interner

	indexed      map[string]*IndexedEntry
	indexedOrder []string
	builds       []BuildEntry

	consts *constEval
}

// New returns a query over unit. The interner resolves identifiers found in
// struct bodies and const expressions.
func New(unit *Unit, interner *source.Interner) *Query {
	q := &Query{
		Unit:     unit,
		interner: interner,
		indexed:  make(map[string]*IndexedEntry),
	}
	q.consts = newConstEval(q)
	return q
}

func metaSource(f *source.File, span source.Span) *meta.Source {
	if f == nil {
		return &meta.Source{File: span.File, Span: span}
	}
	src := &meta.Source{File: f.ID, Span: span}
	if !f.IsVirtual() {
		src.Path = f.Path
	}
	return src
}

// checkFree fails when item already has metadata or an indexed entry.
func (q *Query) checkFree(item items.Item, span source.Span) error {
	if m, ok := q.Unit.Meta(item); ok {
		return conflict(item, span, m.Span())
	}
	if e, ok := q.indexed[item.Key()]; ok {
		return conflict(item, span, e.Span)
	}
	return nil
}

func (q *Query) insertMeta(m *meta.Meta) error {
	if e, ok := q.indexed[m.Item.Key()]; ok {
		return conflict(m.Item, m.Span(), e.Span)
	}
	return q.Unit.InsertMeta(m)
}

func (q *Query) name(id ast.Ident) string {
	s, _ := q.interner.Lookup(id.Name)
	return s
}

func (q *Query) fieldNames(body ast.StructBody) []string {
	names := make([]string, 0, len(body.Fields))
	for _, f := range body.Fields {
		names = append(names, q.name(f.Name))
	}
	return names
}

// IndexStruct records a struct. Unit and tuple structs become tuple metas.
func (q *Query) IndexStruct(item items.Item, st *ast.ItemStruct, src *source.File) error {
	m := &meta.Meta{Item: item, Source: metaSource(src, st.Sp)}
	if st.Body.Kind == ast.StructNamed {
		m.Kind = meta.KindStruct
		m.Fields = q.fieldNames(st.Body)
	} else {
		m.Kind = meta.KindTuple
		m.Args = len(st.Body.Fields)
	}
	return q.insertMeta(m)
}

// IndexEnum records an enum.
func (q *Query) IndexEnum(item items.Item, span source.Span, src *source.File) error {
	return q.insertMeta(&meta.Meta{Kind: meta.KindEnum, Item: item, Source: metaSource(src, span)})
}

// IndexVariant records a variant of enum.
func (q *Query) IndexVariant(item, enum items.Item, v *ast.Variant, src *source.File) error {
	m := &meta.Meta{Item: item, Enum: enum, Source: metaSource(src, v.Name.Sp)}
	if v.Body.Kind == ast.StructNamed {
		m.Kind = meta.KindStructVariant
		m.Fields = q.fieldNames(v.Body)
	} else {
		m.Kind = meta.KindTupleVariant
		m.Args = len(v.Body.Fields)
	}
	return q.insertMeta(m)
}

// IndexMacro records the path reserved for an item macro expansion.
func (q *Query) IndexMacro(item items.Item, span source.Span, src *source.File) error {
	return q.insertMeta(&meta.Meta{Kind: meta.KindMacro, Item: item, Source: metaSource(src, span)})
}

// IndexFunction records a top-level function and schedules its build.
func (q *Query) IndexFunction(item items.Item, fn *ast.ItemFn, call meta.Call, src *source.File) error {
	if err := q.insertMeta(&meta.Meta{Kind: meta.KindFunction, Item: item, Source: metaSource(src, fn.Sp)}); err != nil {
		return err
	}
	q.builds = append(q.builds, BuildEntry{
		Item: item, Kind: BuildFunction, Call: call, Used: UsedByName, Fn: fn, Source: src,
	})
	return nil
}

// IndexInstanceFunction records a method of implItem and schedules its build.
// Instance functions are always built: their use cannot be seen statically.
func (q *Query) IndexInstanceFunction(item, implItem items.Item, fn *ast.ItemFn, call meta.Call, src *source.File) error {
	if err := q.insertMeta(&meta.Meta{Kind: meta.KindFunction, Item: item, Source: metaSource(src, fn.Sp)}); err != nil {
		return err
	}
	q.builds = append(q.builds, BuildEntry{
		Item: item, Kind: BuildInstanceFunction, Call: call, Used: UsedByName, Fn: fn,
		ImplItem: implItem, InstanceSpan: fn.Sp, Source: src,
	})
	return nil
}

// IndexClosure records a closure for lazy building.
func (q *Query) IndexClosure(item items.Item, c *ast.ExprClosure, captures []string, call meta.Call, src *source.File) error {
	return q.Index(&IndexedEntry{
		Kind: IndexedClosure, Item: item, Span: c.Sp, Source: src,
		Closure: c, Captures: captures, Call: call,
	})
}

// IndexAsyncBlock records an async block for lazy building.
func (q *Query) IndexAsyncBlock(item items.Item, b *ast.ExprBlock, captures []string, call meta.Call, src *source.File) error {
	return q.Index(&IndexedEntry{
		Kind: IndexedAsyncBlock, Item: item, Span: b.Sp, Source: src,
		Block: b, Captures: captures, Call: call,
	})
}

// IndexConst records a const for lazy evaluation.
func (q *Query) IndexConst(item items.Item, expr ast.Expr, span source.Span, src *source.File) error {
	return q.Index(&IndexedEntry{Kind: IndexedConst, Item: item, Span: span, Source: src, Const: expr})
}

// Index records an entry whose metadata is produced by QueryMeta.
func (q *Query) Index(e *IndexedEntry) error {
	if err := q.checkFree(e.Item, e.Span); err != nil {
		return err
	}
	key := e.Item.Key()
	q.indexed[key] = e
	q.indexedOrder = append(q.indexedOrder, key)
	q.Unit.InsertName(e.Item)
	return nil
}

// QueryMeta returns the metadata of item, materialising an indexed entry on
// first use. Functions and closures materialised here are scheduled for build
// with the given use. ok is false when nothing is known about item.
func (q *Query) QueryMeta(item items.Item, used Used) (m *meta.Meta, ok bool, err error) {
	if m, ok := q.Unit.Meta(item); ok {
		return m, true, nil
	}
	key := item.Key()
	e, ok := q.indexed[key]
	if !ok {
		return nil, false, nil
	}

	m = &meta.Meta{Item: item, Source: metaSource(e.Source, e.Span)}
	switch e.Kind {
	case IndexedConst:
		value, err := q.consts.eval(e)
		if err != nil {
			return nil, true, err
		}
		m.Kind = meta.KindConst
		m.Value = value
	case IndexedFunction:
		m.Kind = meta.KindFunction
		q.builds = append(q.builds, BuildEntry{Item: item, Kind: BuildFunction, Call: e.Call, Used: used, Fn: e.Fn, Source: e.Source})
	case IndexedClosure:
		m.Kind = meta.KindClosure
		m.Captures = e.Captures
		q.builds = append(q.builds, BuildEntry{Item: item, Kind: BuildClosure, Call: e.Call, Used: used, Closure: e.Closure, Captures: e.Captures, Source: e.Source})
	case IndexedAsyncBlock:
		m.Kind = meta.KindAsyncBlock
		m.Captures = e.Captures
		q.builds = append(q.builds, BuildEntry{Item: item, Kind: BuildAsyncBlock, Call: e.Call, Used: used, Block: e.Block, Captures: e.Captures, Source: e.Source})
	default:
		return nil, true, diag.Internal(e.Span, "unknown indexed entry kind %d", e.Kind)
	}

	delete(q.indexed, key)
	q.Unit.replaceMeta(m)
	if q.Unit.observer != nil {
		q.Unit.observer(m)
	}
	return m, true, nil
}

// Builds returns the deferred build queue in scheduling order.
func (q *Query) Builds() []BuildEntry {
	return append([]BuildEntry(nil), q.builds...)
}

// Pending returns indexed entries that were never queried, in index order.
func (q *Query) Pending() []*IndexedEntry {
	var out []*IndexedEntry
	for _, k := range q.indexedOrder {
		if e, ok := q.indexed[k]; ok {
			out = append(out, e)
		}
	}
	return out
}

// FinalizeConsts evaluates every const that is still pending. A failure
// shared by several consts (a cycle, a broken dependency) is reported once.
func (q *Query) FinalizeConsts() []error {
	var errs []error
	seen := make(map[error]bool)
	for _, e := range q.Pending() {
		if e.Kind != IndexedConst {
			continue
		}
		if _, _, err := q.QueryMeta(e.Item, UsedByName); err != nil && !seen[err] {
			seen[err] = true
			errs = append(errs, err)
		}
	}
	return errs
}

// IndexNestedFunction records a function declared inside another body. It is
// built only once something queries it.
func (q *Query) IndexNestedFunction(item items.Item, fn *ast.ItemFn, call meta.Call, src *source.File) error {
	return q.Index(&IndexedEntry{Kind: IndexedFunction, Item: item, Span: fn.Sp, Source: src, Fn: fn, Call: call})
}
