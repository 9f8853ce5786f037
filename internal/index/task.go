package index

import (
	"slices"

	"rook/internal/ast"
	"rook/internal/items"
	"rook/internal/macros"
	"rook/internal/scopes"
	"rook/internal/source"
)

// Task is one unit of follow-up work produced while indexing.
type Task interface {
	Source() *source.File
	taskNode()
}

// LoadKind tells whether a file is a compilation root or a file module.
type LoadKind uint8

const (
	LoadRoot LoadKind = iota
	LoadModule
)

func (k LoadKind) String() string {
	if k == LoadModule {
		return "module"
	}
	return "root"
}

// LoadFile parses File and indexes it at Item. Root is the path of the root
// file that file modules are resolved against; roots use their own path.
type LoadFile struct {
	Kind LoadKind
	Root string
	Item items.Item
	File *source.File
}

// Index runs the indexer over a parsed fragment. AST is an *ast.File, an
// ast.Item or an ast.Expr. A nil Continuation starts fresh at Item.
type Index struct {
	Root         string
	Item         items.Item
	Continuation *Continuation
	File         *source.File
	AST          ast.Node
}

// Import resolves one `use` declared in Module. Path and Prefix narrow the
// task to one subtree of Use already resolved up to Prefix; a nil Path means
// the whole declaration. Retried marks a wildcard import re-run after the
// rest of the pass because its module was unknown the first time.
type Import struct {
	Module  items.Item
	Use     *ast.ItemUse
	File    *source.File
	Prefix  items.Item
	Path    *ast.UsePath
	Retried bool
}

// ExpandMacro expands Call inside the context captured by Continuation.
type ExpandMacro struct {
	Kind         macros.Kind
	Root         string
	Item         items.Item
	Continuation Continuation
	Call         *ast.MacroCall
	Span         source.Span
	File         *source.File
}

func (t *LoadFile) Source() *source.File    { return t.File }
func (t *Index) Source() *source.File       { return t.File }
func (t *Import) Source() *source.File      { return t.File }
func (t *ExpandMacro) Source() *source.File { return t.File }

func (*LoadFile) taskNode()    {}
func (*Index) taskNode()       {}
func (*Import) taskNode()      {}
func (*ExpandMacro) taskNode() {}

// Queue receives follow-up tasks.
type Queue interface {
	Push(Task)
}

// Continuation is the ambient state a deferred task resumes from: the item
// path with its counters, the scope stack and the enclosing impl items.
// Depth counts the macro expansions the fragment is nested in.
type Continuation struct {
	Items     items.Snapshot
	Scopes    *scopes.Scopes
	ImplItems []items.Item
	Depth     int
}

// Item is the path the continuation resumes at.
func (c Continuation) Item() items.Item {
	return c.Items.Item()
}

func (c Continuation) clone() Continuation {
	out := Continuation{Items: c.Items, ImplItems: slices.Clone(c.ImplItems), Depth: c.Depth}
	if c.Scopes != nil {
		out.Scopes = c.Scopes.Snapshot()
	} else {
		out.Scopes = scopes.New()
	}
	return out
}
