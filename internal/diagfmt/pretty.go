package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"rook/internal/diag"
	"rook/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info *color.Color
	note, loc       *color.Color
	gutter          *color.Color
}

func newPalette(on bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan),
		note:   mk(color.FgBlue, color.Bold),
		loc:    mk(color.Bold),
		gutter: mk(color.FgBlue),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// затем строки контекста с подчёркиванием ^~~~ под Span и заметки в том же формате.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		mark := p.severity(d.Severity)
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			p.loc.Sprint(location(fs, d.Primary, opts.PathMode)),
			mark.Sprint(d.Severity.String()), d.Code.ID(), d.Message)
		snippet(w, fs, d.Primary, opts, p, mark, '^')
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"),
				location(fs, n.Span, opts.PathMode), n.Msg)
			snippet(w, fs, n.Span, opts, p, p.note, '-')
		}
	}
}

func location(fs *source.FileSet, span source.Span, mode PathMode) string {
	if fs == nil || fs.Get(span.File) == nil {
		return "<unknown>"
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", formatPath(fs, span.File, mode), start.Line, start.Col)
}

// snippet prints the lines around span with the span underlined. Widths are
// measured in terminal cells so wide runes and tabs keep the marker aligned.
func snippet(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts, p palette, mark *color.Color, head byte) {
	if fs == nil {
		return
	}
	f := fs.Get(span.File)
	if f == nil || len(f.Content) == 0 {
		return
	}
	start, end := fs.Resolve(span)
	ctx := max(int(opts.Context), 0)
	lines := len(f.LineIdx) + 1
	first := max(int(start.Line)-ctx, 1)
	last := min(int(start.Line)+ctx, lines)
	gw := len(strconv.Itoa(last))

	for n := first; n <= last; n++ {
		raw := f.GetLine(uint32(n))
		text := expandTabs(raw)
		if opts.Width > 0 {
			text = runewidth.Truncate(text, int(opts.Width), "…")
		}
		fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", gw, n), text)
		if uint32(n) != start.Line {
			continue
		}
		from := min(int(start.Col)-1, len(raw))
		to := len(raw)
		if end.Line == start.Line {
			to = min(max(int(end.Col)-1, from), len(raw))
		}
		pad := runewidth.StringWidth(expandTabs(raw[:from]))
		width := max(runewidth.StringWidth(expandTabs(raw[from:to])), 1)
		fmt.Fprintf(w, "%s %s%s\n", p.gutter.Sprintf("%*s |", gw, ""),
			strings.Repeat(" ", pad), mark.Sprint(string(head)+strings.Repeat("~", width-1)))
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}
