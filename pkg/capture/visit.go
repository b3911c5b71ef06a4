package capture

import (
	"github.com/walteh/clown/pkg/syntax"
)

// visit is the syntax.RewriteFunc of the typed pass.
func (t *Table) visit(e syntax.Expr) (syntax.Expr, bool, error) {
	switch e := e.(type) {
	case *syntax.MacroExpr:
		if kind, ok := KindForKeyword(e.Name()); ok {
			name, err := t.Register(Marker{Kind: kind, Args: e.Args, Span: syntax.SpanOf(e)})
			if err != nil {
				return nil, false, err
			}
			return syntax.NewPath(name), false, nil
		}
		args, err := t.scan(e.Args.Stream)
		if err != nil {
			return nil, false, err
		}
		e.Args.Stream = args
		return e, false, nil

	case *syntax.ClosureExpr:
		// a nested closure owns its markers
		return e, false, nil
	}

	return e, true, nil
}
