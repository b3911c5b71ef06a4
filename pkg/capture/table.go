package capture

import (
	"fmt"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clown/pkg/position"
	"github.com/walteh/clown/pkg/syntax"
	"github.com/walteh/clown/pkg/tokentree"
)

// Marker is one `honk!(...)` or `slip!(...)` occurrence.
type Marker struct {
	Kind Kind
	Args tokentree.Group
	// Span covers the whole call, keyword to closing delimiter.
	Span position.Span
}

// Binding is a hoisted expression and the name that replaced it.
type Binding struct {
	Name tokentree.Ident
	Expr syntax.Expr
	Kind Kind
	// Span is the span of the marked expression. The emitted `let` carries it.
	Span position.Span
}

// Table records the bindings of one expansion, in discovery order per kind.
//
// A table belongs to a single expansion and is not safe for concurrent use.
type Table struct {
	entries [2][]*Binding
	byName  map[string]*Binding
}

func NewTable() *Table {
	return &Table{byName: map[string]*Binding{}}
}

// Register parses the marker argument as one expression and records it under the
// next name for the marker's kind. The returned identifier replaces the call.
func (t *Table) Register(m Marker) (tokentree.Ident, error) {
	expr, err := syntax.ParseExpr(m.Args.Stream)
	if err != nil {
		return tokentree.Ident{}, errors.WithStack(&MarkerArgumentParseError{Kind: m.Kind, Span: m.Span, Err: err})
	}

	name := tokentree.NewIdent(fmt.Sprintf("__%s_%d", m.Kind.Keyword(), len(t.entries[m.Kind])), m.Span)
	span := syntax.SpanOf(expr)
	if span.IsZero() {
		span = m.Span
	}

	b := &Binding{Name: name, Expr: expr, Kind: m.Kind, Span: span}
	t.entries[m.Kind] = append(t.entries[m.Kind], b)
	t.byName[name.Name] = b

	return name, nil
}

// Bindings returns the bindings of kind k in discovery order.
func (t *Table) Bindings(k Kind) []*Binding {
	return append([]*Binding(nil), t.entries[k]...)
}

// Lookup finds a binding by generated name.
func (t *Table) Lookup(name string) (*Binding, bool) {
	b, ok := t.byName[name]
	return b, ok
}

// Len is the number of bindings of every kind.
func (t *Table) Len() int {
	return len(t.entries[Clone]) + len(t.entries[Move])
}
