// Package capture hoists marked sub-expressions out of a closure body.
//
// Inside a closure annotated with #[clown], `honk!(expr)` is replaced by a fresh name bound
// to `(expr).clone()` before the closure, and `slip!(expr)` by a fresh name bound to `expr`
// itself. The closure is forced into `move` mode, so it owns the bindings.
//
// Two cooperating passes share one Table: a visitor over the typed syntax tree of the
// body, and a scanner over the raw tokens of every other macro's arguments, since those
// arguments are never parsed into a tree.
package capture

// Kind tells how a marked expression is captured.
type Kind int

const (
	// Clone captures a duplicate of the value taken at the definition site.
	Clone Kind = iota
	// Move captures the value itself.
	Move
)

// Kinds lists every kind in emission order.
var Kinds = []Kind{Clone, Move}

// Keyword is the marker macro name for the kind.
func (k Kind) Keyword() string {
	if k == Move {
		return "slip"
	}
	return "honk"
}

func (k Kind) String() string {
	if k == Move {
		return "move"
	}
	return "clone"
}

// KindForKeyword maps a marker macro name to its kind.
func KindForKeyword(name string) (Kind, bool) {
	switch name {
	case "honk":
		return Clone, true
	case "slip":
		return Move, true
	}
	return 0, false
}
