package worker

import (
	"errors"
	"slices"
	"strings"

	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/index"
	"rook/internal/items"
)

// importer resolves one use declaration into entries of the unit's import
// table. Entries are independent: a failing branch of a group does not stop
// its siblings.
type importer struct {
	w    *Worker
	task *index.Import
	errs []error
}

func (w *Worker) resolveImport(t *index.Import) error {
	if t.Use == nil || t.Use.Path == nil {
		return diag.Internal(taskSpan(t), "import task without a path")
	}
	r := &importer{w: w, task: t}
	if t.Path != nil {
		r.walk(t.Prefix, t.Path, true)
	} else {
		r.walk(items.Item{}, t.Use.Path, false)
	}
	return errors.Join(r.errs...)
}

func (r *importer) fail(err error) {
	r.errs = append(r.errs, err)
}

func (r *importer) text(seg ast.UseSegment) string {
	return r.w.cfg.Interner.MustLookup(seg.Name.Name)
}

// walk resolves p against base. Inside a group (nested) paths are relative
// to the group prefix and `self` names the prefix itself; at the top level
// paths are absolute unless they start with `self` or `super`.
func (r *importer) walk(base items.Item, p *ast.UsePath, nested bool) {
	name := base
	if p.Global {
		if nested {
			r.fail(diag.Errorf(diag.IdxUnsupportedSyntax, p.Sp, "`::` is not allowed inside an import group"))
			return
		}
		name = items.Item{}
	}
	leading := true
	for i, seg := range p.Segments {
		last := i == len(p.Segments)-1
		switch seg.Kind {
		case ast.UseWildcard:
			if !last {
				r.fail(diag.Errorf(diag.IdxUnsupportedWildcard, seg.Sp, "wildcard is only supported at the end of an import"))
				return
			}
			if p.Alias != nil {
				r.fail(diag.Errorf(diag.IdxUnsupportedSyntax, p.Alias.Sp, "a wildcard import cannot be renamed"))
				return
			}
			r.wildcard(name, p, seg)
			return
		case ast.UseGroup:
			if !last {
				r.fail(diag.Errorf(diag.IdxUnsupportedSyntax, seg.Sp, "an import group must end the path"))
				return
			}
			if p.Alias != nil {
				r.fail(diag.Errorf(diag.IdxUnsupportedSyntax, p.Alias.Sp, "an import group cannot be renamed"))
				return
			}
			for _, sub := range seg.Group {
				r.walk(name, sub, true)
			}
			return
		}

		text := r.text(seg)
		switch text {
		case "crate", "self", "super":
			if !leading || p.Global || (text != "super" && i > 0) || (text == "crate" && nested) {
				r.fail(diag.Errorf(diag.IdxUnsupportedSyntax, seg.Sp, "`%s` is not allowed here", text))
				return
			}
			switch text {
			case "crate":
				name = items.Item{}
			case "self":
				if !nested {
					name = r.task.Module
				}
			case "super":
				if i == 0 && !nested {
					name = r.task.Module
				}
				parent, ok := name.Parent()
				if !ok {
					r.fail(diag.Errorf(diag.IdxMissingModule, seg.Sp, "`super` used at the crate root"))
					return
				}
				name = parent
			}
		default:
			leading = false
			name = name.Join(text)
		}
		if last {
			r.add(name, p)
		}
	}
}

func (r *importer) add(target items.Item, p *ast.UsePath) {
	last, ok := target.Last()
	if !ok {
		r.fail(diag.Errorf(diag.IdxMissingItem, p.Sp, "cannot import the crate root"))
		return
	}
	local := last.String()
	if p.Alias != nil {
		local = r.w.cfg.Interner.MustLookup(p.Alias.Name)
	}
	if err := r.w.cfg.Query.Unit.NewImportAs(r.task.Module, local, target, p.Sp); err != nil {
		r.fail(err)
	}
}

// wildcard imports every named child of prefix known to the native registry
// or the unit so far. An unknown prefix gets one more chance once the queue
// has drained and every file module has been indexed.
func (r *importer) wildcard(prefix items.Item, p *ast.UsePath, seg ast.UseSegment) {
	natives, unit := r.w.cfg.Natives, r.w.cfg.Query.Unit
	if !natives.ContainsPrefix(prefix) && !unit.ContainsPrefix(prefix) {
		if !r.task.Retried {
			r.w.deferred = append(r.w.deferred, &index.Import{
				Module:  r.task.Module,
				Use:     r.task.Use,
				File:    r.task.File,
				Prefix:  prefix,
				Path:    &ast.UsePath{Segments: []ast.UseSegment{seg}, Sp: p.Sp},
				Retried: true,
			})
			return
		}
		r.fail(diag.Errorf(diag.IdxMissingModule, p.Sp, "missing module `%s`", itemName(prefix)))
		return
	}
	seen := map[string]bool{}
	var children []string
	for _, c := range slices.Concat(natives.IterComponents(prefix), unit.IterComponents(prefix)) {
		if strings.HasPrefix(c, "$") || seen[c] {
			continue
		}
		seen[c] = true
		children = append(children, c)
	}
	slices.Sort(children)
	for _, c := range children {
		target := prefix.Join(c)
		if err := unit.NewImport(r.task.Module, target, p.Sp); err != nil {
			r.fail(err)
		}
	}
}
