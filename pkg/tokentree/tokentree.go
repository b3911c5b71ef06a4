// Package tokentree nests flat tokens into delimited groups.
//
// The model follows the proc-macro token tree: a stream is a sequence of groups,
// identifiers, single-character punctuation and literals. Multi-character operators
// are runs of Joint punctuation, so `!=` is `!` (Joint) followed by `=` (Alone).
package tokentree

import (
	"github.com/walteh/clown/pkg/position"
)

type Delimiter int

const (
	Parenthesis Delimiter = iota
	Bracket
	Brace
)

func (d Delimiter) Open() string {
	switch d {
	case Bracket:
		return "["
	case Brace:
		return "{"
	}
	return "("
}

func (d Delimiter) Close() string {
	switch d {
	case Bracket:
		return "]"
	case Brace:
		return "}"
	}
	return ")"
}

func (d Delimiter) String() string {
	switch d {
	case Bracket:
		return "bracket"
	case Brace:
		return "brace"
	}
	return "parenthesis"
}

// Spacing tells whether a Punct is immediately followed by another Punct.
type Spacing int

const (
	Alone Spacing = iota
	Joint
)

// Tree is one of Group, Ident, Punct or Literal.
type Tree interface {
	Span() position.Span
	String() string
	isTree()
}

// Stream is a sequence of token trees.
type Stream []Tree

// Span covers the first and last tree of the stream.
func (s Stream) Span() position.Span {
	if len(s) == 0 {
		return position.Span{}
	}
	return s[0].Span().Cover(s[len(s)-1].Span())
}

func (s Stream) String() string {
	return Print(s)
}

type Group struct {
	Delimiter Delimiter
	Stream    Stream
	OpenSpan  position.Span
	CloseSpan position.Span
}

func NewGroup(delim Delimiter, stream Stream, span position.Span) Group {
	return Group{Delimiter: delim, Stream: stream, OpenSpan: span, CloseSpan: span}
}

func (g Group) Span() position.Span { return g.OpenSpan.Cover(g.CloseSpan) }
func (g Group) String() string      { return Print(Stream{g}) }
func (Group) isTree()               {}

type Ident struct {
	Name string
	Pos  position.Span
}

func NewIdent(name string, span position.Span) Ident {
	return Ident{Name: name, Pos: span}
}

func (i Ident) Span() position.Span { return i.Pos }
func (i Ident) String() string      { return i.Name }
func (Ident) isTree()               {}

type Punct struct {
	Char    byte
	Spacing Spacing
	Pos     position.Span
}

func NewPunct(ch byte, spacing Spacing, span position.Span) Punct {
	return Punct{Char: ch, Spacing: spacing, Pos: span}
}

func (p Punct) Span() position.Span { return p.Pos }
func (p Punct) String() string      { return string(p.Char) }
func (Punct) isTree()               {}

// Literal is a number, string, byte string or character literal, kept verbatim.
type Literal struct {
	Text string
	Pos  position.Span
}

func NewLiteral(text string, span position.Span) Literal {
	return Literal{Text: text, Pos: span}
}

func (l Literal) Span() position.Span { return l.Pos }
func (l Literal) String() string      { return l.Text }
func (Literal) isTree()               {}

// Op builds the Punct run for a multi-character operator such as "::" or "+=".
func Op(op string, span position.Span) Stream {
	out := make(Stream, 0, len(op))
	for i := 0; i < len(op); i++ {
		spacing := Joint
		if i == len(op)-1 {
			spacing = Alone
		}
		out = append(out, NewPunct(op[i], spacing, span))
	}
	return out
}

// IsIdent reports whether t is the identifier name.
func IsIdent(t Tree, name string) bool {
	id, ok := t.(Ident)
	return ok && id.Name == name
}

// IsPunct reports whether t is the punctuation character ch.
func IsPunct(t Tree, ch byte) bool {
	p, ok := t.(Punct)
	return ok && p.Char == ch
}

// Respan returns a copy of the stream with every token moved to span.
func Respan(s Stream, span position.Span) Stream {
	out := make(Stream, len(s))
	for i, t := range s {
		switch t := t.(type) {
		case Group:
			t.Stream = Respan(t.Stream, span)
			t.OpenSpan, t.CloseSpan = span, span
			out[i] = t
		case Ident:
			t.Pos = span
			out[i] = t
		case Punct:
			t.Pos = span
			out[i] = t
		case Literal:
			t.Pos = span
			out[i] = t
		}
	}
	return out
}
