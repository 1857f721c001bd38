// Package diagfmt renders diagnostic bags for humans and tools:
// pretty terminal output with source excerpts and a JSON form for
// editor integrations.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"svlang/internal/diag"
	"svlang/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan, color.Bold)
	noteColor = color.New(color.FgBlue)
	lineColor = color.New(color.Faint)
)

// Pretty formats diagnostics in human-readable form, one block per
// diagnostic (callers usually bag.Sort() first):
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//	  <source line>
//	  ^~~~~
//
// followed by any notes in the same shape.
func Pretty(w io.Writer, bag *diag.Bag, m *source.Manager, opts PrettyOpts) {
	for _, d := range bag.Items() {
		writeHeading(w, m, d.Primary, severityTag(d.Severity, opts.Color), d.Code.ID(), d.Message, opts)
		if opts.ShowSource {
			writeExcerpt(w, m, d.Primary, opts)
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			tag := "note"
			if opts.Color {
				tag = noteColor.Sprint(tag)
			}
			writeHeading(w, m, n.Span, tag, "", n.Msg, opts)
			if opts.ShowSource {
				writeExcerpt(w, m, n.Span, opts)
			}
		}
	}
}

func severityTag(sev diag.Severity, colored bool) string {
	s := sev.String()
	if !colored {
		return s
	}
	switch sev {
	case diag.SevError:
		return errColor.Sprint(s)
	case diag.SevWarning:
		return warnColor.Sprint(s)
	default:
		return infoColor.Sprint(s)
	}
}

func writeHeading(w io.Writer, m *source.Manager, sp source.Span, tag, code, msg string, opts PrettyOpts) {
	line := fmt.Sprintf("%s: %s", tag, msg)
	if code != "" {
		line = fmt.Sprintf("%s %s: %s", tag, code, msg)
	}
	if loc := formatLocation(m, sp, opts.PathMode); loc != "" {
		line = loc + ": " + line
	}
	if opts.Width > 0 {
		line = runewidth.Truncate(line, int(opts.Width), "…")
	}
	fmt.Fprintln(w, line)
}

func formatLocation(m *source.Manager, sp source.Span, mode PathMode) string {
	if m == nil || sp == (source.Span{}) {
		return ""
	}
	f := m.Get(sp.File)
	if f == nil {
		return ""
	}
	start, _ := m.Resolve(sp)
	base := ""
	if mode == PathModeRelative {
		base = m.BaseDir()
	}
	return fmt.Sprintf("%s:%d:%d", f.FormatPath(mode.format(), base), start.Line, start.Col)
}

// writeExcerpt prints the source line holding the span's start with a
// caret underline covering the span (clamped to the line end).
func writeExcerpt(w io.Writer, m *source.Manager, sp source.Span, opts PrettyOpts) {
	if m == nil || sp == (source.Span{}) {
		return
	}
	f := m.Get(sp.File)
	if f == nil {
		return
	}
	start, end := m.Resolve(sp)
	text := f.GetLine(start.Line)
	if text == "" {
		return
	}

	shown := strings.ReplaceAll(text, "\t", "    ")
	if opts.Color {
		shown = lineColor.Sprint(shown)
	}
	fmt.Fprintf(w, "  %s\n", shown)

	// Underline width in display cells, tabs expanded the same way.
	prefix := text[:min(int(start.Col)-1, len(text))]
	pad := runewidth.StringWidth(strings.ReplaceAll(prefix, "\t", "    "))

	length := 1
	if end.Line == start.Line && end.Col > start.Col {
		from := min(int(start.Col)-1, len(text))
		to := min(int(end.Col)-1, len(text))
		length = runewidth.StringWidth(text[from:to])
		if length < 1 {
			length = 1
		}
	}
	underline := "^" + strings.Repeat("~", length-1)
	if opts.Color {
		underline = errColor.Sprint(underline)
	}
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", pad), underline)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
