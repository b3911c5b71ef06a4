// Package rewrite expands every annotated closure of a source file in place.
package rewrite

import (
	"context"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clown/pkg/capture"
	"github.com/walteh/clown/pkg/config"
	"github.com/walteh/clown/pkg/position"
	"github.com/walteh/clown/pkg/syntax"
	"github.com/walteh/clown/pkg/tokentree"
)

// Rewriter finds `#[clown]` closures and replaces them with their expansion.
type Rewriter struct {
	// Attribute is the attribute name that marks a closure. Empty means config.DefaultAttribute.
	Attribute string
	// Indent is one level of indentation for the hoisted block. Empty means DefaultIndent.
	Indent string
}

// Expansion is one rewritten closure.
type Expansion struct {
	// Span is the replaced byte range of the original source, attributes included.
	Span     position.Span
	Text     string
	Bindings []*capture.Binding
}

type Result struct {
	Filename   string
	Source     string
	Output     string
	Expansions []*Expansion
}

// Changed reports whether the output differs from the source.
func (r *Result) Changed() bool {
	return r.Output != r.Source
}

func (r *Rewriter) attribute() string {
	if r.Attribute == "" {
		return config.DefaultAttribute
	}
	return r.Attribute
}

func (r *Rewriter) indent() string {
	if r.Indent == "" {
		return DefaultIndent
	}
	return r.Indent
}

// Source rewrites every annotated closure in src.
//
// Only the attribute, the `move` keyword and the marker calls are touched; everything
// else inside a closure, comments and layout included, is copied from src. A closure
// with captures is wrapped in a block of `let` statements, one per line, and its
// continuation lines are shifted one level to the right.
//
// A source that does not tokenize is an error with no result. Otherwise the result is
// always returned: occurrences that fail to expand stay as written and their errors are
// collected into a *multierror.Error.
func (r *Rewriter) Source(ctx context.Context, filename, src string) (*Result, error) {
	stream, err := tokentree.Parse(filename, src)
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", filename, err)
	}

	st := &state{r: r, ctx: ctx, src: src, literals: multiline(stream, src)}
	st.collect(stream)

	var out strings.Builder
	last := 0
	for _, e := range st.expansions {
		out.WriteString(src[last:e.Span.Start])
		out.WriteString(e.Text)
		last = e.Span.End
	}
	out.WriteString(src[last:])

	zerolog.Ctx(ctx).Debug().
		Str("file", filename).
		Int("expansions", len(st.expansions)).
		Msg("rewrote source")

	return &Result{
		Filename:   filename,
		Source:     src,
		Output:     out.String(),
		Expansions: st.expansions,
	}, st.errs.ErrorOrNil()
}

type state struct {
	r          *Rewriter
	ctx        context.Context
	src        string
	literals   []position.Span
	expansions []*Expansion
	errs       *multierror.Error
}

// collect expands the outermost annotated closures of s. Closures nested inside them
// are expanded as part of their enclosing expansion.
func (st *state) collect(s tokentree.Stream) {
	for i := 0; i < len(s); {
		j, occ := st.r.match(s, i)
		if occ != nil {
			if err := st.expand(occ); err != nil {
				st.errs = multierror.Append(st.errs, err)
				i = j
				continue
			}
			i = occ.end
			continue
		}
		if j > i {
			i = j
			continue
		}
		if g, ok := s[i].(tokentree.Group); ok {
			st.collect(g.Stream)
		}
		i++
	}
}

func (st *state) expand(occ *occurrence) error {
	exp, edits, err := st.expandOccurrence(occ)
	if err != nil {
		return err
	}

	p := &splicer{src: st.src, unit: st.r.indent(), edits: edits, literals: st.literals}
	p.sort()
	text := p.render(exp, "")

	zerolog.Ctx(st.ctx).Debug().
		Stringer("span", exp.span).
		Int("bindings", len(exp.bindings)).
		Int("edits", len(edits)).
		Msg("expanded closure")

	st.expansions = append(st.expansions, &Expansion{Span: exp.span, Text: text, Bindings: exp.bindings})
	return nil
}

// expandOccurrence expands an occurrence and every annotated closure left in its
// output. Each nested closure gets its own table, so its markers are hoisted next to
// it. The returned edits belong to the occurrence and all of its nested ones.
func (st *state) expandOccurrence(occ *occurrence) (*expanded, []edit, error) {
	if occ.err != nil {
		return nil, nil, occ.err
	}

	c := occ.closure
	lpipe := c.Lpipe
	hadMove := c.Move != nil

	out, t, err := capture.ExpandClosure(st.ctx, c)
	if err != nil {
		return nil, nil, err
	}

	exp := &expanded{span: occ.span}
	for _, k := range capture.Kinds {
		exp.bindings = append(exp.bindings, t.Bindings(k)...)
	}

	edits := []edit{{span: st.trailingSpace(occ.drop)}}
	if !hadMove {
		edits = append(edits, edit{span: position.NewSpan(lpipe.Start, lpipe.Start), text: "move "})
	}
	for _, b := range exp.bindings {
		edits = append(edits, edit{span: b.Name.Pos, text: b.Name.Name})
	}

	inner, err := st.nested(out.Tokens())
	if err != nil {
		return nil, nil, err
	}
	return exp, append(edits, inner...), nil
}

// nested expands the annotated closures of s, an expansion's output.
func (st *state) nested(s tokentree.Stream) ([]edit, error) {
	var edits []edit

	for i := 0; i < len(s); {
		j, occ := st.r.match(s, i)
		if occ != nil {
			exp, inner, err := st.expandOccurrence(occ)
			if err != nil {
				return nil, err
			}
			edits = append(edits, edit{span: exp.span, nested: exp})
			edits = append(edits, inner...)
			i = occ.end
			continue
		}
		if j > i {
			i = j
			continue
		}
		if g, ok := s[i].(tokentree.Group); ok {
			inner, err := st.nested(g.Stream)
			if err != nil {
				return nil, err
			}
			edits = append(edits, inner...)
		}
		i++
	}

	return edits, nil
}

// occurrence is an attribute run carrying the expander attribute and the item after it.
type occurrence struct {
	end int
	// span covers the attribute run and the closure.
	span position.Span
	// drop is the expander attribute itself.
	drop    position.Span
	closure *syntax.ClosureExpr
	err     error
}

// match reads the run of outer attributes starting at s[i] and returns the index after
// the run. When the run carries the expander attribute, the item that follows is parsed
// and returned as an occurrence. The expander attribute is dropped from the closure;
// other attributes of the run stay on it.
func (r *Rewriter) match(s tokentree.Stream, i int) (int, *occurrence) {
	var (
		attrs  []syntax.Attribute
		marked bool
		mark   position.Span
	)

	j := i
	for j+1 < len(s) {
		pound, ok := s[j].(tokentree.Punct)
		if !ok || pound.Char != '#' {
			break
		}
		body, ok := s[j+1].(tokentree.Group)
		if !ok || body.Delimiter != tokentree.Bracket {
			break
		}
		a := syntax.Attribute{Pound: pound, Body: body}
		if r.isAttribute(a) {
			marked = true
			mark = a.Span()
		} else {
			attrs = append(attrs, a)
		}
		j += 2
	}
	if !marked {
		return j, nil
	}

	occ := &occurrence{}

	if j == len(s) {
		occ.err = errors.WithStack(&capture.ShapeError{Span: mark, Found: "nothing"})
		return j, occ
	}

	e, n, err := syntax.ParseExprPrefix(s[j:])
	if err != nil {
		occ.err = errors.WithStack(&capture.ShapeError{Span: s[j].Span(), Found: "tokens that are not an expression", Err: err})
		return j, occ
	}

	c, ok := e.(*syntax.ClosureExpr)
	if !ok {
		occ.err = errors.WithStack(&capture.ShapeError{Span: syntax.SpanOf(e), Found: capture.Describe(e)})
		return j, occ
	}

	c.Attrs = append(attrs, c.Attrs...)
	occ.closure = c
	occ.end = j + n
	occ.span = s[i].Span().Cover(s[occ.end-1].Span())
	occ.drop = mark
	return j, occ
}

// isAttribute accepts `#[name]` and `#[name(...)]`. The arguments are ignored.
func (r *Rewriter) isAttribute(a syntax.Attribute) bool {
	body := a.Body.Stream
	if len(body) == 0 || !tokentree.IsIdent(body[0], r.attribute()) {
		return false
	}
	switch len(body) {
	case 1:
		return true
	case 2:
		g, ok := body[1].(tokentree.Group)
		return ok && g.Delimiter == tokentree.Parenthesis
	}
	return false
}
