package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"expose/internal/diag"
	"expose/internal/source"
)

// Pretty renders diagnostics in a human-readable form. It walks bag.Items()
// in order (callers sort beforehand) and prints, per diagnostic:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the offending source line with a ^~~~ underline, then notes and
// fix suggestions in the same shape.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := prettyPrinter{w: w, fs: fs, opts: opts}
	for _, d := range bag.Items() {
		p.diagnostic(d)
	}
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
}

func (p *prettyPrinter) diagnostic(d diag.Diagnostic) {
	head := fmt.Sprintf("%s %s", d.Severity, d.Code)
	fmt.Fprintf(p.w, "%s: %s: %s\n",
		p.location(d.Primary), p.paint(severityColor(d.Severity), head), d.Message)
	p.snippet(d.Primary, severityColor(d.Severity))

	if p.opts.ShowNotes {
		for _, n := range d.Notes {
			fmt.Fprintf(p.w, "%s: %s: %s\n",
				p.location(n.Span), p.paint(color.FgCyan, "NOTE"), n.Msg)
			p.snippet(n.Span, color.FgCyan)
		}
	}
	if p.opts.ShowFixes {
		for _, fx := range d.Fixes {
			fmt.Fprintf(p.w, "  %s: %s\n", p.paint(color.FgGreen, "help"), fx.Title)
			for _, e := range fx.Edits {
				if e.NewText != "" {
					fmt.Fprintf(p.w, "    %s: replace with %q\n", p.location(e.Span), e.NewText)
				} else {
					fmt.Fprintf(p.w, "    %s: remove\n", p.location(e.Span))
				}
			}
		}
	}
}

func (p *prettyPrinter) location(sp source.Span) string {
	path, pos := p.fs.Position(sp)
	if path == "" {
		return "<unknown>"
	}
	if p.opts.PathMode == PathModeBasename {
		path = filepath.Base(path)
	}
	return fmt.Sprintf("%s:%d:%d", path, pos.Line, pos.Col)
}

// snippet prints the first source line a span covers with an underline
// aligned by display width, so wide runes do not skew the carets.
func (p *prettyPrinter) snippet(sp source.Span, attr color.Attribute) {
	f := p.fs.Get(sp.File)
	if f == nil || sp.Empty() || int(sp.Start) >= len(f.Content) {
		return
	}
	start, end := lineBounds(f, sp.Start)
	line := strings.TrimRight(string(f.Content[start:end]), "\r\n")

	prefix := string(f.Content[start:sp.Start])
	spanEnd := min(sp.End, end)
	marked := string(f.Content[sp.Start:spanEnd])

	pad := strings.Repeat(" ", runewidth.StringWidth(prefix))
	width := max(runewidth.StringWidth(marked), 1)
	underline := "^" + strings.Repeat("~", width-1)

	fmt.Fprintf(p.w, "  %s\n  %s%s\n", line, pad, p.paint(attr, underline))
}

func (p *prettyPrinter) paint(attr color.Attribute, s string) string {
	if !p.opts.Color {
		return s
	}
	return color.New(attr, color.Bold).Sprint(s)
}

func severityColor(s diag.Severity) color.Attribute {
	switch s {
	case diag.SevError:
		return color.FgRed
	case diag.SevWarning:
		return color.FgYellow
	default:
		return color.FgCyan
	}
}

// lineBounds returns the byte range of the line containing off, excluding the
// trailing newline.
func lineBounds(f *source.File, off uint32) (uint32, uint32) {
	start := uint32(0)
	end := uint32(len(f.Content))
	for _, nl := range f.LineIdx {
		if nl < off {
			start = nl + 1
			continue
		}
		end = nl
		break
	}
	return start, end
}
