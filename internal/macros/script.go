package macros

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"
)

// ScriptExt is the extension of user macro scripts.
const ScriptExt = ".risor"

// ScriptEvaluator runs user macros written as Risor scripts. The macro
// `a::b` lives in `a/b.risor` under the script root. A script sees the
// globals
//
//	input   string        call input as written
//	tokens  list[string]  call input as token texts
//	kind    string        "expr" or "item"
//	item    string        item path reserved for the expansion
//	file    string        path of the calling file
//
// and must evaluate to a string holding Rook source.
type ScriptEvaluator struct {
	fsys fs.FS
}

// NewScriptEvaluator loads scripts from dir on disk.
func NewScriptEvaluator(dir string) *ScriptEvaluator {
	return &ScriptEvaluator{fsys: os.DirFS(dir)}
}

// NewScriptEvaluatorFS loads scripts from fsys.
func NewScriptEvaluatorFS(fsys fs.FS) *ScriptEvaluator {
	return &ScriptEvaluator{fsys: fsys}
}

func scriptPath(name string) string {
	return path.Join(strings.Split(name, "::")...) + ScriptExt
}

func (e *ScriptEvaluator) Expand(ctx context.Context, req Request) (string, error) {
	p := scriptPath(req.Name)
	src, err := fs.ReadFile(e.fsys, p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("macros: loading %s: %w", p, err)
	}

	tokens := make([]object.Object, len(req.Input))
	for i, tok := range req.Input {
		tokens[i] = object.NewString(tok.Text)
	}
	file := ""
	if req.Source != nil {
		file = req.Source.Path
	}

	result, err := risor.Eval(ctx, string(src),
		risor.WithGlobal("input", object.NewString(req.InputText())),
		risor.WithGlobal("tokens", object.NewList(tokens)),
		risor.WithGlobal("kind", object.NewString(req.Kind.String())),
		risor.WithGlobal("item", object.NewString(req.Item.String())),
		risor.WithGlobal("file", object.NewString(file)),
	)
	if err != nil {
		return "", fmt.Errorf("macros: script %s: %w", p, err)
	}
	out, ok := result.(*object.String)
	if !ok {
		return "", fmt.Errorf("macros: script %s returned %s, want string", p, result.Type())
	}
	return out.Value(), nil
}
