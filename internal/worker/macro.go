package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rook/internal/ast"
	"rook/internal/diag"
	"rook/internal/index"
	"rook/internal/items"
	"rook/internal/macros"
)

// MaxMacroDepth bounds how many macro expansions may nest inside each other.
const MaxMacroDepth = 64

// expandMacro evaluates a macro call and queues its output for indexing in
// the context captured at the call site. The output lives in a virtual file
// so that spans inside it can be reported.
func (w *Worker) expandMacro(ctx context.Context, t *index.ExpandMacro) error {
	if t.Call == nil || t.Call.Path == nil {
		return diag.Internal(t.Span, "macro task without a call")
	}
	cont := t.Continuation
	if cont.Depth >= MaxMacroDepth {
		return diag.Errorf(diag.IdxMacroRecursion, t.Span,
			"macro `%s!` expanded more than %d levels deep", w.pathName(t.Call.Path), MaxMacroDepth)
	}
	if t.Kind == macros.KindItem {
		// items produced by an item macro belong to the enclosing path, not
		// to the slot reserved for the call
		b := items.FromSnapshot(cont.Items)
		if !b.PopMacro() {
			return diag.Errorf(diag.InternalMissingMacroKey, t.Span,
				"expected a macro component at the end of `%s`", itemName(b.Item()))
		}
		cont.Items = b.Snapshot()
	}

	name := w.pathName(t.Call.Path)
	out, err := w.cfg.Macros.Expand(ctx, macros.Request{
		Name:   name,
		Kind:   t.Kind,
		Item:   t.Item,
		Input:  t.Call.Input,
		Span:   t.Span,
		Source: t.File,
	})
	if errors.Is(err, macros.ErrNotFound) {
		return diag.Errorf(diag.IdxMacroNotFound, t.Call.Path.Sp, "unknown macro `%s!`", name)
	}
	if err != nil {
		return diag.Errorf(diag.IdxMacroEval, t.Span, "macro `%s!` failed: %v", name, err).WithCause(err)
	}

	id := w.cfg.Files.AddVirtual(fmt.Sprintf("<macro %s>", itemName(t.Item)), []byte(out))
	file := w.cfg.Files.Get(id)

	var node ast.Node
	switch t.Kind {
	case macros.KindExpr:
		expr, ok := w.cfg.Parser.ParseExpr(file, w.errorReporter())
		if !ok {
			return nil
		}
		node = expr
	case macros.KindItem:
		parsed, ok := w.cfg.Parser.ParseFile(file, w.errorReporter())
		if !ok {
			return nil
		}
		node = parsed
	default:
		return diag.Internal(t.Span, "unknown macro kind %d", t.Kind)
	}
	cont.Depth++
	w.Push(&index.Index{
		Root:         t.Root,
		Item:         t.Item,
		Continuation: &cont,
		File:         file,
		AST:          node,
	})
	return nil
}

func (w *Worker) pathName(p *ast.Path) string {
	var sb strings.Builder
	if p.Global {
		sb.WriteString("::")
	}
	for i, seg := range p.Segments {
		if i > 0 {
			sb.WriteString("::")
		}
		switch seg.Kind {
		case ast.SegSelf:
			sb.WriteString("self")
		case ast.SegCrate:
			sb.WriteString("crate")
		case ast.SegSuper:
			sb.WriteString("super")
		default:
			sb.WriteString(w.cfg.Interner.MustLookup(seg.Ident.Name))
		}
	}
	return sb.String()
}
