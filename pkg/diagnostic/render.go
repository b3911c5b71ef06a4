package diagnostic

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clown/pkg/position"
)

// TextFormatter renders diagnostics for a terminal, each with the offending source line
// and a caret underline.
type TextFormatter struct {
	// Sources holds the text of every file a diagnostic may point into.
	Sources map[string]string
	Color   bool
}

// Format implements Formatter
func (f *TextFormatter) Format(diagnostics *Diagnostics) ([]byte, error) {
	if diagnostics == nil {
		return nil, errors.Errorf("diagnostics is nil")
	}

	var buf bytes.Buffer
	for _, group := range [][]Diagnostic{diagnostics.Errors, diagnostics.Warnings, diagnostics.Hints} {
		for _, d := range group {
			f.render(&buf, d)
		}
	}
	return buf.Bytes(), nil
}

func (f *TextFormatter) paint(attrs ...color.Attribute) func(a ...interface{}) string {
	if !f.Color {
		return fmt.Sprint
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint
}

func (f *TextFormatter) render(buf *bytes.Buffer, d Diagnostic) {
	severity := f.paint(color.FgRed, color.Bold)
	switch d.Severity {
	case Warning:
		severity = f.paint(color.FgYellow, color.Bold)
	case Info, Hint:
		severity = f.paint(color.FgCyan, color.Bold)
	}
	faint := f.paint(color.Faint)
	bold := f.paint(color.Bold)

	fmt.Fprintf(buf, "%s: %s\n", severity(string(d.Severity)), bold(d.Message))
	fmt.Fprintf(buf, "  %s %s:%d:%d\n", faint("-->"), d.File, d.Line, d.Column)

	src, ok := f.Sources[d.File]
	if !ok {
		return
	}

	num := fmt.Sprintf("%d", d.Line)
	gutter := strings.Repeat(" ", len(num))
	line, pad, width := underline(src, d.Span)

	fmt.Fprintf(buf, "%s %s\n", gutter, faint("|"))
	fmt.Fprintf(buf, "%s %s %s\n", faint(num), faint("|"), line)
	fmt.Fprintf(buf, "%s %s %s%s\n", gutter, faint("|"), pad, severity(strings.Repeat("^", width)))
}

// underline returns the source line holding span.Start, the padding that lines a caret
// up under the span, and the display width of the span on that line. Tabs in the
// padding are kept so the caret lines up whatever the tab width.
func underline(src string, span position.Span) (line, pad string, width int) {
	start := span.Start
	if start > len(src) {
		start = len(src)
	}
	lineStart := strings.LastIndexByte(src[:start], '\n') + 1
	line = position.LineAt(src, start)

	var b strings.Builder
	for _, r := range src[lineStart:start] {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}

	end := span.End
	if lineEnd := lineStart + len(line); end > lineEnd {
		end = lineEnd
	}
	if end > start {
		width = runewidth.StringWidth(src[start:end])
	}
	if width < 1 {
		width = 1
	}
	return line, b.String(), width
}
