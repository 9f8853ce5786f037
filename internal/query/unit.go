package query

import (
	"rook/internal/diag"
	"rook/internal/items"
	"rook/internal/meta"
	"rook/internal/source"
)

// Import is one resolved `use` entry: inside Module, Local refers to Target.
type Import struct {
	Module items.Item
	Local  string
	Target items.Item
	Span   source.Span
}

// Unit is the symbol table produced by indexing: metadata by item path,
// a tree of every known name, and the import table.
type Unit struct {
	metas       map[string]*meta.Meta
	order       []string
	names       *items.Names
	imports     map[string]*Import
	importOrder []string
	observer    func(*meta.Meta)
}

// NewUnit returns an empty unit.
func NewUnit() *Unit {
	return &Unit{
		metas:   make(map[string]*meta.Meta),
		names:   items.NewNames(),
		imports: make(map[string]*Import),
	}
}

// Observe registers fn to be called for every inserted meta.
func (u *Unit) Observe(fn func(*meta.Meta)) {
	u.observer = fn
}

// InsertMeta records m. A second meta for the same item is a conflict.
func (u *Unit) InsertMeta(m *meta.Meta) error {
	key := m.Item.Key()
	if existing, ok := u.metas[key]; ok {
		return conflict(m.Item, m.Span(), existing.Span())
	}
	u.metas[key] = m
	u.order = append(u.order, key)
	u.names.Insert(m.Item)
	if u.observer != nil {
		u.observer(m)
	}
	return nil
}

// replaceMeta overwrites the meta of an already recorded item (const values).
func (u *Unit) replaceMeta(m *meta.Meta) {
	key := m.Item.Key()
	if _, ok := u.metas[key]; !ok {
		u.order = append(u.order, key)
	}
	u.metas[key] = m
	u.names.Insert(m.Item)
}

func conflict(item items.Item, at, existing source.Span) *diag.Error {
	return diag.Errorf(diag.IdxItemConflict, at, "item `%s` is defined more than once", item).
		WithNote(existing, "first defined here")
}

// Meta returns the metadata of item.
func (u *Unit) Meta(item items.Item) (*meta.Meta, bool) {
	m, ok := u.metas[item.Key()]
	return m, ok
}

// Metas returns all metadata in insertion order.
func (u *Unit) Metas() []*meta.Meta {
	out := make([]*meta.Meta, 0, len(u.order))
	for _, k := range u.order {
		out = append(out, u.metas[k])
	}
	return out
}

// Len is the number of recorded metas.
func (u *Unit) Len() int {
	return len(u.order)
}

// InsertName records item as a known name without metadata (indexed, not yet queried).
func (u *Unit) InsertName(item items.Item) {
	u.names.Insert(item)
}

func (u *Unit) ContainsPrefix(prefix items.Item) bool {
	return u.names.ContainsPrefix(prefix)
}

func (u *Unit) IterComponents(prefix items.Item) []string {
	return u.names.IterComponents(prefix)
}

func importKey(module items.Item, local string) string {
	if module.IsEmpty() {
		return local
	}
	return module.Key() + "::" + local
}

// NewImport makes target visible in module under its last name.
func (u *Unit) NewImport(module, target items.Item, span source.Span) error {
	last, ok := target.Last()
	if !ok {
		return diag.Errorf(diag.IdxMissingItem, span, "empty import path")
	}
	return u.NewImportAs(module, last.String(), target, span)
}

// NewImportAs makes target visible in module as local. Importing the same
// local name twice into one module is a conflict.
func (u *Unit) NewImportAs(module items.Item, local string, target items.Item, span source.Span) error {
	key := importKey(module, local)
	if existing, ok := u.imports[key]; ok {
		return diag.Errorf(diag.IdxImportConflict, span, "`%s` is already imported into `%s` from `%s`",
			local, displayModule(module), existing.Target).
			WithNote(existing.Span, "previous import here")
	}
	u.imports[key] = &Import{Module: module, Local: local, Target: target, Span: span}
	u.importOrder = append(u.importOrder, key)
	return nil
}

func displayModule(module items.Item) string {
	if module.IsEmpty() {
		return "crate"
	}
	return module.String()
}

// LookupImport returns the import of local declared directly in module.
func (u *Unit) LookupImport(module items.Item, local string) (*Import, bool) {
	imp, ok := u.imports[importKey(module, local)]
	return imp, ok
}

// Imports returns all imports in declaration order.
func (u *Unit) Imports() []*Import {
	out := make([]*Import, 0, len(u.importOrder))
	for _, k := range u.importOrder {
		out = append(out, u.imports[k])
	}
	return out
}
