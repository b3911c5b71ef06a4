package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clown/pkg/syntax"
	"github.com/walteh/clown/pkg/tokentree"
)

func renamePaths(from, to string, intoClosures bool) syntax.RewriteFunc {
	return func(e syntax.Expr) (syntax.Expr, bool, error) {
		switch e := e.(type) {
		case *syntax.PathExpr:
			if e.Name() == from {
				id := e.Path[0].(tokentree.Ident)
				id.Name = to
				return syntax.NewPath(id), false, nil
			}
		case *syntax.ClosureExpr:
			return e, intoClosures, nil
		}
		return e, true, nil
	}
}

func TestRewrite(t *testing.T) {
	tests := []struct {
		name         string
		src          string
		intoClosures bool
		want         string
	}{
		{
			name: "binary_and_call",
			src:  "a + f(a, b.a)",
			want: "z + f(z, b.a)",
		},
		{
			name: "skips_closures",
			src:  "f(a, |x| a)",
			want: "f(z, |x| a)",
		},
		{
			name:         "enters_closures",
			src:          "f(a, |x| a)",
			intoClosures: true,
			want:         "f(z, |x| z)",
		},
		{
			name: "statements",
			src:  "{ let b = a; if a { a } else { c }; for i in a { a += i; } a }",
			want: "{ let b = z; if z { z } else { c }; for i in z { z += i; } z }",
		},
		{
			name: "match_and_struct",
			src:  "match a { Some(a) if a => S { a, b: a }, _ => [a; 2] }",
			want: "match z { Some(a) if z => S { a, b: z }, _ => [z; 2] }",
		},
		{
			name: "macros_are_opaque",
			src:  "vec![a] + a",
			want: "vec![a] + z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := syntax.Rewrite(parse(t, tt.src), renamePaths("a", "z", tt.intoClosures))
			require.NoError(t, err)
			assert.Equal(t, tokentree.Print(stream(t, tt.want)), syntax.Print(out))
		})
	}
}

func TestRewriteReplacesRoot(t *testing.T) {
	out, err := syntax.Rewrite(parse(t, "a"), renamePaths("a", "z", false))
	require.NoError(t, err)
	assert.Equal(t, "z", syntax.Print(out))
}

func TestRewriteStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	_, err := syntax.Rewrite(parse(t, "f(a, b, c)"), func(e syntax.Expr) (syntax.Expr, bool, error) {
		calls++
		if p, ok := e.(*syntax.PathExpr); ok && p.Name() == "b" {
			return nil, false, boom
		}
		return e, true, nil
	})

	require.ErrorIs(t, err, boom)
	// f(...), f, a, b
	assert.Equal(t, 4, calls)
}

func TestInspect(t *testing.T) {
	var names []string
	syntax.Inspect(parse(t, "x.f(y, |z| w) + v"), func(e syntax.Expr) bool {
		if p, ok := e.(*syntax.PathExpr); ok {
			names = append(names, p.Name())
		}
		_, closure := e.(*syntax.ClosureExpr)
		return !closure
	})

	assert.Equal(t, []string{"x", "y", "v"}, names)
}
