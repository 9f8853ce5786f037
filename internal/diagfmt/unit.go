package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"rook/internal/meta"
	"rook/internal/query"
	"rook/internal/source"
)

// MetaJSON is one indexed item in JSON output.
type MetaJSON struct {
	Kind     string        `json:"kind"`
	Item     string        `json:"item"`
	Enum     string        `json:"enum,omitempty"`
	Args     int           `json:"args,omitempty"`
	Fields   []string      `json:"fields,omitempty"`
	Captures []string      `json:"captures,omitempty"`
	Value    string        `json:"value,omitempty"`
	Location *LocationJSON `json:"location,omitempty"`
}

// ImportJSON is one resolved `use` entry in JSON output.
type ImportJSON struct {
	Module string `json:"module"`
	Local  string `json:"local"`
	Target string `json:"target"`
}

// UnitOutput is the JSON document for an indexed unit.
type UnitOutput struct {
	Metas   []MetaJSON   `json:"metas"`
	Imports []ImportJSON `json:"imports"`
}

func moduleName(s string) string {
	if s == "" {
		return "crate"
	}
	return s
}

// BuildUnitOutput формирует JSON-представление юнита в порядке вставки.
func BuildUnitOutput(unit *query.Unit, fs *source.FileSet, mode PathMode) UnitOutput {
	out := UnitOutput{Metas: []MetaJSON{}, Imports: []ImportJSON{}}
	for _, m := range unit.Metas() {
		mj := MetaJSON{
			Kind:     m.Kind.String(),
			Item:     m.Item.String(),
			Args:     m.Args,
			Fields:   m.Fields,
			Captures: m.Captures,
		}
		if !m.Enum.IsEmpty() {
			mj.Enum = m.Enum.String()
		}
		if m.Kind == meta.KindConst {
			mj.Value = m.Value.String()
		}
		if m.Source != nil && fs != nil {
			loc := makeLocation(m.Source.Span, fs, mode, true)
			mj.Location = &loc
		}
		out.Metas = append(out.Metas, mj)
	}
	for _, imp := range unit.Imports() {
		out.Imports = append(out.Imports, ImportJSON{
			Module: moduleName(imp.Module.String()),
			Local:  imp.Local,
			Target: imp.Target.String(),
		})
	}
	return out
}

// UnitJSON пишет юнит в JSON.
func UnitJSON(w io.Writer, unit *query.Unit, fs *source.FileSet, mode PathMode) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildUnitOutput(unit, fs, mode))
}

// UnitPretty prints one aligned row per meta followed by the import table.
func UnitPretty(w io.Writer, unit *query.Unit, fs *source.FileSet, mode PathMode) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, m := range unit.Metas() {
		at := "-"
		if m.Source != nil && fs != nil {
			at = location(fs, m.Source.Span, mode)
		}
		detail := metaDetail(m)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Kind, m.Item, detail, at)
	}
	if imports := unit.Imports(); len(imports) > 0 {
		fmt.Fprintln(tw)
		for _, imp := range imports {
			fmt.Fprintf(tw, "use\t%s::%s\t-> %s\t\n", moduleName(imp.Module.String()), imp.Local, imp.Target)
		}
	}
	return tw.Flush()
}

func metaDetail(m *meta.Meta) string {
	switch m.Kind {
	case meta.KindTuple, meta.KindTupleVariant:
		return fmt.Sprintf("(%d)", m.Args)
	case meta.KindStruct, meta.KindStructVariant:
		return fmt.Sprintf("%v", m.Fields)
	case meta.KindClosure, meta.KindAsyncBlock:
		return fmt.Sprintf("captures %v", m.Captures)
	case meta.KindConst:
		return "= " + m.Value.String()
	}
	return ""
}
