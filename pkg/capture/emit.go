package capture

import (
	"github.com/walteh/clown/pkg/position"
	"github.com/walteh/clown/pkg/syntax"
	"github.com/walteh/clown/pkg/tokentree"
)

// emit wraps c in a block that binds every hoisted expression, clones first, then
// moves, each in discovery order. Without bindings c is returned as is.
func emit(t *Table, c *syntax.ClosureExpr) syntax.Expr {
	if t.Len() == 0 {
		return c
	}

	stmts := make([]syntax.Stmt, 0, t.Len()+1)
	for _, b := range t.Bindings(Clone) {
		stmts = append(stmts, let(b.Name, cloneOf(b.Expr, b.Span), b.Span))
	}
	for _, b := range t.Bindings(Move) {
		stmts = append(stmts, let(b.Name, b.Expr, b.Span))
	}
	stmts = append(stmts, &syntax.ExprStmt{X: c})

	span := syntax.SpanOf(c)
	return &syntax.BlockExpr{Block: &syntax.Block{
		Stmts:  stmts,
		Lbrace: position.NewSpan(span.Start, span.Start),
		Rbrace: position.NewSpan(span.End, span.End),
	}}
}

func let(name tokentree.Ident, init syntax.Expr, span position.Span) *syntax.LetStmt {
	return &syntax.LetStmt{
		Let:  span,
		Pat:  tokentree.Stream{name},
		Eq:   span,
		Init: init,
		Semi: span,
	}
}

// cloneOf builds `(x).clone()`.
func cloneOf(x syntax.Expr, span position.Span) syntax.Expr {
	return &syntax.MethodCallExpr{
		Receiver: &syntax.ParenExpr{X: x, Lparen: span, Rparen: span},
		Dot:      span,
		Method:   tokentree.NewIdent("clone", span),
		Lparen:   span,
		Rparen:   span,
	}
}
