package diag

import (
	"fmt"
	"sort"
	"strings"

	"rook/internal/source"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatShort renders diagnostics one per line as
// "path:line:col: SEVERITY CODE: message", sorted by location.
// Notes are rendered as indented lines after their diagnostic when includeNotes is set.
func FormatShort(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	type entry struct {
		head  shortDiagnostic
		notes []shortDiagnostic
	}
	rendered := make([]entry, 0, len(diags))
	for _, d := range diags {
		e := entry{head: shortFor(fs, d.Primary, d.Severity.String(), d.Code.ID(), d.Message)}
		if includeNotes {
			for _, n := range d.Notes {
				e.notes = append(e.notes, shortFor(fs, n.Span, "NOTE", d.Code.ID(), n.Msg))
			}
		}
		rendered = append(rendered, e)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i].head, rendered[j].head
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		return di.Code < dj.Code
	})

	var sb strings.Builder
	for _, e := range rendered {
		writeShort(&sb, e.head, "")
		for _, n := range e.notes {
			writeShort(&sb, n, "  ")
		}
	}
	return sb.String()
}

func shortFor(fs *source.FileSet, span source.Span, sev, code, msg string) shortDiagnostic {
	path := "<unknown>"
	var line, col uint32
	if f := fs.Get(span.File); f != nil {
		path = f.Path
		start, _ := fs.Resolve(span)
		line, col = start.Line, start.Col
	}
	return shortDiagnostic{Severity: sev, Code: code, Path: path, Line: line, Column: col, Message: msg}
}

func writeShort(sb *strings.Builder, d shortDiagnostic, indent string) {
	fmt.Fprintf(sb, "%s%s:%d:%d: %s %s: %s\n", indent, d.Path, d.Line, d.Column, d.Severity, d.Code, d.Message)
}
