package capture

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clown/pkg/syntax"
	"github.com/walteh/clown/pkg/tokentree"
)

// Expand is the attribute handler. The attribute arguments are ignored and item
// must be exactly one closure expression.
func Expand(ctx context.Context, attr, item tokentree.Stream) (tokentree.Stream, error) {
	e, err := syntax.ParseExpr(item)
	if err != nil {
		return nil, errors.WithStack(&ShapeError{Span: item.Span(), Found: "tokens that are not an expression", Err: err})
	}

	c, ok := e.(*syntax.ClosureExpr)
	if !ok {
		return nil, errors.WithStack(&ShapeError{Span: syntax.SpanOf(e), Found: Describe(e)})
	}

	out, _, err := ExpandClosure(ctx, c)
	if err != nil {
		return nil, err
	}
	return out.Tokens(), nil
}

// ExpandClosure forces c into move mode, replaces the markers of its body and
// returns the expression that stands in for c. The closure is rewritten in place.
func ExpandClosure(ctx context.Context, c *syntax.ClosureExpr) (syntax.Expr, *Table, error) {
	log := zerolog.Ctx(ctx)

	if c.Move == nil {
		move := tokentree.NewIdent("move", c.Lpipe)
		c.Move = &move
	}

	t := NewTable()
	body, err := syntax.Rewrite(c.Body, t.visit)
	if err != nil {
		return nil, nil, err
	}
	c.Body = body

	for _, k := range Kinds {
		for _, b := range t.Bindings(k) {
			log.Debug().
				Str("name", b.Name.Name).
				Stringer("kind", k).
				Stringer("span", b.Span).
				Str("expr", syntax.Print(b.Expr)).
				Msg("hoisting capture")
		}
	}

	return emit(t, c), t, nil
}

// Describe names the kind of an expression for diagnostics.
func Describe(e syntax.Expr) string {
	switch e.(type) {
	case *syntax.PathExpr:
		return "a path"
	case *syntax.LitExpr:
		return "a literal"
	case *syntax.MacroExpr:
		return "a macro invocation"
	case *syntax.CallExpr, *syntax.MethodCallExpr:
		return "a call"
	case *syntax.BlockExpr:
		return "a block"
	case *syntax.BinaryExpr, *syntax.UnaryExpr:
		return "an operator expression"
	case *syntax.IfExpr, *syntax.MatchExpr:
		return "a conditional"
	case *syntax.WhileExpr, *syntax.LoopExpr, *syntax.ForExpr:
		return "a loop"
	case *syntax.ParenExpr:
		return "a parenthesized expression"
	}
	return "an expression"
}
