package index

import (
	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/macros"
	"rook/internal/meta"
)

func (ix *Indexer) item(it ast.Item) error {
	switch it := it.(type) {
	case *ast.ItemUse:
		if err := unsupportedAttrs(it.Attrs, "use"); err != nil {
			return err
		}
		ix.env.Queue.Push(&Import{Module: ix.items.Item(), Use: it, File: ix.file})
		return nil
	case *ast.ItemEnum:
		return ix.enum(it)
	case *ast.ItemStruct:
		if err := unsupportedAttrs(it.Attrs, "struct"); err != nil {
			return err
		}
		if err := fieldAttrs(it.Body); err != nil {
			return err
		}
		return ix.items.WithName(ix.name(it.Name), func() error {
			return ix.env.Query.IndexStruct(ix.items.Item(), it, ix.file)
		})
	case *ast.ItemFn:
		if err := unsupportedAttrs(it.Attrs, "function"); err != nil {
			return err
		}
		return ix.fn(it)
	case *ast.ItemImpl:
		return ix.impl(it)
	case *ast.ItemMod:
		if err := unsupportedAttrs(it.Attrs, "module"); err != nil {
			return err
		}
		if it.Body == nil {
			return ix.fileMod(it)
		}
		return ix.items.WithName(ix.name(it.Name), func() error {
			return join(ix.entries(it.Body.Items))
		})
	case *ast.ItemConst:
		if err := unsupportedAttrs(it.Attrs, "const"); err != nil {
			return err
		}
		return ix.items.WithName(ix.name(it.Name), func() error {
			return ix.env.Query.IndexConst(ix.items.Item(), it.Expr, it.Sp, ix.file)
		})
	case *ast.ItemMacroCall:
		if err := unsupportedAttrs(it.Attrs, "macro"); err != nil {
			return err
		}
		return ix.items.WithMacro(func() error {
			item := ix.items.Item()
			if err := ix.env.Query.IndexMacro(item, it.Sp, ix.file); err != nil {
				return err
			}
			ix.env.Queue.Push(&ExpandMacro{
				Kind:         macros.KindItem,
				Root:         ix.root,
				Item:         item,
				Continuation: ix.Continuation(),
				Call:         it.Call,
				Span:         it.Sp,
				File:         ix.file,
			})
			return nil
		})
	default:
		return diag.Internal(it.Span(), "unexpected item %T", it)
	}
}

func fieldAttrs(body ast.StructBody) error {
	for _, f := range body.Fields {
		if err := unsupportedAttrs(f.Attrs, "field"); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Indexer) enum(it *ast.ItemEnum) error {
	if err := unsupportedAttrs(it.Attrs, "enum"); err != nil {
		return err
	}
	return ix.items.WithName(ix.name(it.Name), func() error {
		enum := ix.items.Item()
		if err := ix.env.Query.IndexEnum(enum, it.Sp, ix.file); err != nil {
			return err
		}
		for _, v := range it.Variants {
			if err := unsupportedAttrs(v.Attrs, "variant"); err != nil {
				return err
			}
			if err := fieldAttrs(v.Body); err != nil {
				return err
			}
			err := ix.items.WithName(ix.name(v.Name), func() error {
				return ix.env.Query.IndexVariant(ix.items.Item(), enum, v, ix.file)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// fn indexes a function declaration. Instance functions need an enclosing
// impl; functions declared at the root are built eagerly; the rest wait
// until something queries them.
func (ix *Indexer) fn(fn *ast.ItemFn) error {
	topLevel := ix.items.IsEmpty()
	return ix.items.WithName(ix.name(fn.Name), func() error {
		item := ix.items.Item()
		f, err := ix.scopes.WithFunction(fn.Async, func() error {
			for _, arg := range fn.Args {
				if arg.Self {
					if err := ix.scopes.Declare("self", arg.Sp); err != nil {
						return err
					}
					continue
				}
				if err := ix.pat(arg.Pat); err != nil {
					return err
				}
			}
			return ix.block(fn.Body.Block)
		})
		if err != nil {
			return err
		}
		call := meta.CallFor(f.IsGenerator, f.IsAsync)

		switch {
		case fn.IsInstance():
			if len(ix.implItems) == 0 {
				return diag.Errorf(diag.IdxInstanceFnOutsideImpl, fn.Sp,
					"instance function `%s` must be declared inside an impl block", item)
			}
			return ix.env.Query.IndexInstanceFunction(item, ix.implItems[len(ix.implItems)-1], fn, call, ix.file)
		case topLevel:
			return ix.env.Query.IndexFunction(item, fn, call, ix.file)
		default:
			return ix.env.Query.IndexNestedFunction(item, fn, call, ix.file)
		}
	})
}

func (ix *Indexer) impl(it *ast.ItemImpl) error {
	if err := unsupportedAttrs(it.Attrs, "impl"); err != nil {
		return err
	}
	names := make([]string, 0, len(it.Path.Segments))
	for _, seg := range it.Path.Segments {
		if seg.Kind != ast.SegIdent {
			return diag.Errorf(diag.IdxUnsupportedSyntax, seg.Sp, "only plain names are supported in impl paths")
		}
		names = append(names, ix.name(seg.Ident))
	}
	return ix.withNames(names, func() error {
		ix.implItems = append(ix.implItems, ix.items.Item())
		defer func() { ix.implItems = ix.implItems[:len(ix.implItems)-1] }()
		for _, fn := range it.Fns {
			if err := unsupportedAttrs(fn.Attrs, "function"); err != nil {
				return err
			}
			if err := ix.fn(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

// withNames pushes names one by one and runs fn at the innermost path.
func (ix *Indexer) withNames(names []string, fn func() error) error {
	if len(names) == 0 {
		return fn()
	}
	return ix.items.WithName(names[0], func() error {
		return ix.withNames(names[1:], fn)
	})
}

// fileMod handles `mod name;`: the module body lives in its own file, which
// is loaded now and indexed by a later task.
func (ix *Indexer) fileMod(m *ast.ItemMod) error {
	name := ix.name(m.Name)
	return ix.items.WithName(name, func() error {
		item := ix.items.Item()
		if ix.root == "" {
			return diag.Errorf(diag.IdxUnsupportedModuleSource, m.Sp,
				"cannot load module `%s`: the current source has no filesystem location", item)
		}
		names, ok := item.Names()
		if !ok {
			return diag.Errorf(diag.IdxUnsupportedModuleSource, m.Sp,
				"file module `%s` must be declared at module level", name)
		}
		if prev, ok := ix.env.Loaded[item.Key()]; ok {
			return diag.Errorf(diag.IdxModAlreadyLoaded, m.Sp, "module `%s` is already loaded", item).
				WithNote(prev.Span, "first loaded here")
		}
		file, err := ix.env.Loader.Load(ix.root, names)
		if err != nil {
			return diag.Errorf(diag.IdxModNotFound, m.Sp, "cannot load module `%s`: %v", item, err).WithCause(err)
		}
		ix.env.Loaded[item.Key()] = LoadedModule{Item: item, File: file, Span: m.Sp}
		if ix.env.Visitor != nil {
			ix.env.Visitor.VisitMod(file, m.Sp)
		}
		ix.env.Queue.Push(&LoadFile{Kind: LoadModule, Root: ix.root, Item: item, File: file})
		return nil
	})
}
