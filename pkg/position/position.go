// Package position tracks where tokens and syntax nodes came from in the source text.
package position

import (
	"fmt"
	"strings"

	"github.com/apparentlymart/go-textseg/v13/textseg"
)

// Place is a 1-based line and column. Columns count grapheme clusters, not bytes.
type Place struct {
	Line      int
	Character int
}

type Range struct {
	Start Place
	End   Place
}

// Span is a half-open byte range [Start, End) in the source text.
type Span struct {
	Start int
	End   int
}

func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// IsZero reports whether the span was never set.
func (s Span) IsZero() bool {
	return s == Span{}
}

func (s Span) Len() int {
	return s.End - s.Start
}

// Cover returns the smallest span containing both s and other. A zero span is the identity.
func (s Span) Cover(other Span) Span {
	if s.IsZero() {
		return other
	}
	if other.IsZero() {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Text returns the source text covered by the span, clamped to the bounds of src.
func (s Span) Text(src string) string {
	start, end := clamp(s.Start, len(src)), clamp(s.End, len(src))
	if end < start {
		return ""
	}
	return src[start:end]
}

// Range converts the span into line/column places within src.
func (s Span) Range(src string) Range {
	startLine, startCol := GetLineAndColumn(src, s.Start)
	endLine, endCol := GetLineAndColumn(src, s.End)
	return Range{
		Start: Place{Line: startLine, Character: startCol},
		End:   Place{Line: endLine, Character: endCol},
	}
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// GetLineAndColumn returns the 1-based line and column of offset in text.
func GetLineAndColumn(text string, offset int) (line, col int) {
	offset = clamp(offset, len(text))

	before := text[:offset]
	line = strings.Count(before, "\n") + 1

	lineStart := strings.LastIndexByte(before, '\n') + 1
	graphemes, err := textseg.TokenCount([]byte(before[lineStart:]), textseg.ScanGraphemeClusters)
	if err != nil {
		// invalid utf-8 still has a byte width
		graphemes = offset - lineStart
	}

	return line, graphemes + 1
}

// LineAt returns the full line of text containing offset, without its newline.
func LineAt(text string, offset int) string {
	offset = clamp(offset, len(text))
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	end := strings.IndexByte(text[offset:], '\n')
	if end < 0 {
		return text[start:]
	}
	return text[start : offset+end]
}

// IndentAt returns the leading whitespace of the line containing offset.
func IndentAt(text string, offset int) string {
	line := LineAt(text, offset)
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}
