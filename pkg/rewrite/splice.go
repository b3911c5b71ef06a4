package rewrite

import (
	"sort"
	"strings"

	"github.com/walteh/clown/pkg/capture"
	"github.com/walteh/clown/pkg/position"
	"github.com/walteh/clown/pkg/tokentree"
)

// expanded is an annotated closure after expansion, located in the original source.
type expanded struct {
	span     position.Span
	bindings []*capture.Binding
}

// edit replaces span of the original source, either with text or with the rendering
// of a nested expansion. An empty span is an insertion.
type edit struct {
	span   position.Span
	text   string
	nested *expanded
}

// trailingSpace extends span over the blanks that follow it.
func (st *state) trailingSpace(span position.Span) position.Span {
	end := span.End
	for end < len(st.src) && strings.IndexByte(" \t\r\n", st.src[end]) >= 0 {
		end++
	}
	return position.NewSpan(span.Start, end)
}

// multiline returns the spans of the literals of s that contain a line break.
func multiline(s tokentree.Stream, src string) []position.Span {
	var out []position.Span
	for _, t := range s {
		switch t := t.(type) {
		case tokentree.Group:
			out = append(out, multiline(t.Stream, src)...)
		case tokentree.Literal:
			if strings.Contains(t.Pos.Text(src), "\n") {
				out = append(out, t.Pos)
			}
		}
	}
	return out
}

// splicer copies ranges of the source with edits applied.
type splicer struct {
	src      string
	unit     string
	edits    []edit
	literals []position.Span
}

// sort orders edits by start. Insertions come before the edit they share a start
// with, and an enclosing edit comes before the edits inside it.
func (p *splicer) sort() {
	sort.SliceStable(p.edits, func(i, j int) bool {
		a, b := p.edits[i].span, p.edits[j].span
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if (a.Len() == 0) != (b.Len() == 0) {
			return a.Len() == 0
		}
		return a.End > b.End
	})
}

// render lays out an expansion. Without bindings it is the closure text. Otherwise the
// closure is wrapped in a block that starts where the closure started, with one
// statement per line one level deeper than that line. extra is the indentation already
// added to the lines the expansion sits in.
func (p *splicer) render(e *expanded, extra string) string {
	if len(e.bindings) == 0 {
		return p.text(e.span, extra, e)
	}

	indent := position.IndentAt(p.src, e.span.Start) + extra
	deeper := extra + p.unit

	var b strings.Builder
	b.WriteString("{\n")
	for _, bd := range e.bindings {
		b.WriteString(indent + p.unit)
		b.WriteString("let " + bd.Name.Name + " = ")
		arg := p.text(bd.Span, deeper, nil)
		if bd.Kind == capture.Clone {
			b.WriteString("(" + arg + ").clone()")
		} else {
			b.WriteString(arg)
		}
		b.WriteString(";\n")
	}
	b.WriteString(indent + p.unit)
	b.WriteString(p.text(e.span, deeper, e))
	b.WriteString("\n")
	b.WriteString(indent)
	b.WriteString("}")
	return b.String()
}

// text copies span with the edits it contains applied. Edits inside an applied edit
// are left to that edit. self is the expansion being rendered, if any.
func (p *splicer) text(span position.Span, extra string, self *expanded) string {
	var b strings.Builder
	pos := span.Start
	for _, e := range p.edits {
		if e.span.Start > span.End {
			break
		}
		if e.nested != nil && e.nested == self {
			continue
		}
		if e.span.Start < pos || e.span.End > span.End {
			continue
		}
		p.copy(&b, pos, e.span.Start, extra)
		if e.nested != nil {
			b.WriteString(p.render(e.nested, extra))
		} else {
			b.WriteString(e.text)
		}
		pos = e.span.End
	}
	p.copy(&b, pos, span.End, extra)
	return b.String()
}

// copy writes src[from:to], adding extra after each line break that is not inside a
// literal and does not start a blank line.
func (p *splicer) copy(b *strings.Builder, from, to int, extra string) {
	if extra == "" {
		b.WriteString(p.src[from:to])
		return
	}
	for i := from; i < to; i++ {
		c := p.src[i]
		b.WriteByte(c)
		if c != '\n' || p.inLiteral(i) {
			continue
		}
		if next := i + 1; next < len(p.src) && (p.src[next] == '\n' || p.src[next] == '\r') {
			continue
		}
		b.WriteString(extra)
	}
}

func (p *splicer) inLiteral(offset int) bool {
	for _, l := range p.literals {
		if l.Start < offset && offset < l.End {
			return true
		}
	}
	return false
}
