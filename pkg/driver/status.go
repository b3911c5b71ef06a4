package driver

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// FileStatus is how one file is shown in a summary.
type FileStatus struct {
	Symbol rune
	Style  StatusStyle
	Text   string
}

type StatusStyle struct {
	SymbolColor color.Attribute
	TextColor   color.Attribute
}

// Status definitions
var (
	UnchangedFile = FileStatus{
		Symbol: '•',
		Style: StatusStyle{
			SymbolColor: color.Faint,
			TextColor:   color.Faint,
		},
		Text: "no change",
	}

	ExpandedFile = FileStatus{
		Symbol: '✓',
		Style: StatusStyle{
			SymbolColor: color.FgGreen,
			TextColor:   color.Faint,
		},
		Text: "EXPANDED",
	}

	PendingFile = FileStatus{
		Symbol: '⟳',
		Style: StatusStyle{
			SymbolColor: color.FgYellow,
			TextColor:   color.Faint,
		},
		Text: "WOULD CHANGE",
	}

	FailedFile = FileStatus{
		Symbol: '✗',
		Style: StatusStyle{
			SymbolColor: color.FgRed,
			TextColor:   color.Faint,
		},
		Text: "FAILED",
	}
)

// Display configuration
const (
	fileIndent = 4  // spaces to indent file entries
	nameWidth  = 35 // base width for the file name
	countWidth = 15 // width for the expansion count
)

// StatusOf picks the status of f as reported in mode.
func StatusOf(f *FileResult, mode Mode) FileStatus {
	switch {
	case f.Err != nil:
		return FailedFile
	case !f.Changed():
		return UnchangedFile
	case mode == ModeWrite:
		return ExpandedFile
	}
	return PendingFile
}

// Summary writes one status line per file followed by the totals.
func Summary(w io.Writer, r *Report, mode Mode, colorize bool) error {
	paint := func(attr color.Attribute, s string) string {
		if !colorize {
			return s
		}
		c := color.New(attr)
		c.EnableColor()
		return c.Sprint(s)
	}

	for _, f := range r.Files {
		status := StatusOf(f, mode)

		count := ""
		if f.Expansions > 0 {
			count = fmt.Sprintf("[%d]", f.Expansions)
		}

		line := fmt.Sprintf("%s%s %-*s %-*s %s",
			strings.Repeat(" ", fileIndent),
			paint(status.Style.SymbolColor, string(status.Symbol)),
			nameWidth, f.Path,
			countWidth, count,
			paint(status.Style.TextColor, status.Text))
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%s %s\n", paint(color.Bold, "clown"), paint(color.Faint, "• "+r.String()))
	return err
}
