package position_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/walteh/clown/pkg/position"
)

func TestGetLineAndColumn(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		offset   int
		wantLine int
		wantCol  int
	}{
		{
			name:     "empty text",
			text:     "",
			offset:   0,
			wantLine: 1,
			wantCol:  1,
		},
		{
			name:     "single line, middle position",
			text:     "Hello, World!",
			offset:   7,
			wantLine: 1,
			wantCol:  8,
		},
		{
			name:     "multiple lines, second line",
			text:     "Hello\nWorld\nTest zzz",
			offset:   8,
			wantLine: 2,
			wantCol:  3,
		},
		{
			name:     "offset past the end is clamped",
			text:     "ab\ncd",
			offset:   99,
			wantLine: 2,
			wantCol:  3,
		},
		{
			name:     "multi-byte graphemes count once",
			text:     "let é = ü;",
			offset:   len("let é = "),
			wantLine: 1,
			wantCol:  9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotLine, gotCol := position.GetLineAndColumn(tt.text, tt.offset)
			assert.Equal(t, tt.wantLine, gotLine, "line")
			assert.Equal(t, tt.wantCol, gotCol, "column")
		})
	}
}

func TestSpanCover(t *testing.T) {
	a := position.NewSpan(4, 8)
	b := position.NewSpan(2, 5)

	assert.Equal(t, position.NewSpan(2, 8), a.Cover(b))
	assert.Equal(t, a, position.Span{}.Cover(a), "zero span is the identity")
	assert.Equal(t, a, a.Cover(position.Span{}), "zero span is the identity")
}

func TestSpanTextAndRange(t *testing.T) {
	src := "first\n  second line"
	span := position.NewSpan(8, 14)

	assert.Equal(t, "second", span.Text(src))
	assert.Equal(t, position.Range{
		Start: position.Place{Line: 2, Character: 3},
		End:   position.Place{Line: 2, Character: 9},
	}, span.Range(src))
	assert.Equal(t, "  second line", position.LineAt(src, 10))
	assert.Equal(t, "  ", position.IndentAt(src, 10))
}
