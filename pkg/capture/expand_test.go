package capture_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clown/pkg/capture"
	"github.com/walteh/clown/pkg/syntax"
	"github.com/walteh/clown/pkg/tokentree"
)

func stream(t *testing.T, src string) tokentree.Stream {
	t.Helper()
	s, err := tokentree.Parse("test.rs", src)
	require.NoError(t, err, "tokenizing %q", src)
	return s
}

func closure(t *testing.T, src string) *syntax.ClosureExpr {
	t.Helper()
	e, err := syntax.ParseExpr(stream(t, src))
	require.NoError(t, err, "parsing %q", src)
	c, ok := e.(*syntax.ClosureExpr)
	require.True(t, ok, "got %T", e)
	return c
}

// countIdent counts identifiers named name anywhere in s.
func countIdent(s tokentree.Stream, name string) int {
	n := 0
	for _, tree := range s {
		switch tree := tree.(type) {
		case tokentree.Ident:
			if tree.Name == name {
				n++
			}
		case tokentree.Group:
			n += countIdent(tree.Stream, name)
		}
	}
	return n
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name string
		item string
		want string
	}{
		{
			name: "clone_and_move",
			item: "|| do_call(honk!(foo.bar), slip!(baz.bop))",
			want: "{ let __honk_0 = (foo.bar).clone(); let __slip_0 = baz.bop; move || do_call(__honk_0, __slip_0) }",
		},
		{
			name: "no_markers",
			item: "|a, b| a + b",
			want: "move |a, b| a + b",
		},
		{
			name: "already_move",
			item: "move || x",
			want: "move || x",
		},
		{
			name: "marker_is_the_body",
			item: "|| honk!(a)",
			want: "{ let __honk_0 = (a).clone(); move || __honk_0 }",
		},
		{
			name: "discovery_order_within_kind",
			item: "|| (slip!(c), honk!(b), slip!(a), honk!(d))",
			want: "{ let __honk_0 = (b).clone(); let __honk_1 = (d).clone(); let __slip_0 = c; let __slip_1 = a; move || (__slip_0, __honk_0, __slip_1, __honk_1) }",
		},
		{
			name: "nested_closure_untouched",
			item: "|| f(honk!(a), || honk!(b))",
			want: "{ let __honk_0 = (a).clone(); move || f(__honk_0, || honk!(b)) }",
		},
		{
			name: "marker_inside_foreign_macro",
			item: `|| println!("{}", slip!(c))`,
			want: `{ let __slip_0 = c; move || println!("{}", __slip_0) }`,
		},
		{
			name: "foreign_macro_groups_are_scanned",
			item: "|| vec![(honk!(a), [slip!(b)]), { honk!(c) }]",
			want: "{ let __honk_0 = (a).clone(); let __honk_1 = (c).clone(); let __slip_0 = b; move || vec![(__honk_0, [__slip_0]), { __honk_1 }] }",
		},
		{
			name: "scanner_enters_closures_in_macro_args",
			item: "|| m!(|| honk!(z))",
			want: "{ let __honk_0 = (z).clone(); move || m!(|| __honk_0) }",
		},
		{
			name: "typed_and_token_passes_share_counters",
			item: "|| (honk!(a), m!(honk!(b)), honk!(c))",
			want: "{ let __honk_0 = (a).clone(); let __honk_1 = (b).clone(); let __honk_2 = (c).clone(); move || (__honk_0, m!(__honk_1), __honk_2) }",
		},
		{
			name: "statement_position_marker",
			item: "|| { honk!(x); slip!(y) }",
			want: "{ let __honk_0 = (x).clone(); let __slip_0 = y; move || { __honk_0; __slip_0 } }",
		},
		{
			name: "keyword_without_call_is_plain",
			item: "|| honk + m!(slip, honk != 1) + slip!(x)",
			want: "{ let __slip_0 = x; move || honk + m!(slip, honk != 1) + __slip_0 }",
		},
		{
			name: "qualified_macro_is_not_a_marker",
			item: "|| foo::honk!(x)",
			want: "move || foo::honk!(x)",
		},
		{
			name: "marker_argument_is_not_rescanned",
			item: "|| honk!(honk!(a))",
			want: "{ let __honk_0 = (honk!(a)).clone(); move || __honk_0 }",
		},
		{
			name: "nested_blocks_and_control_flow",
			item: "|v: Vec<u8>| -> usize { if honk!(self.on) { for i in slip!(it) { v.push(i); } } v.len() }",
			want: "{ let __honk_0 = (self.on).clone(); let __slip_0 = it; move |v: Vec<u8>| -> usize { if __honk_0 { for i in __slip_0 { v.push(i); } } v.len() } }",
		},
		{
			name: "async_closure",
			item: "async || honk!(client).get().await",
			want: "{ let __honk_0 = (client).clone(); async move || __honk_0.get().await }",
		},
		{
			name: "raw_identifiers",
			item: "|| r#type + honk!(r#match)",
			want: "{ let __honk_0 = (r#match).clone(); move || r#type + __honk_0 }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			got, err := capture.Expand(ctx, nil, stream(t, tt.item))
			require.NoError(t, err)
			assert.Equal(t, tokentree.Print(stream(t, tt.want)), tokentree.Print(got))
		})
	}
}

func TestExpandNamesAreUsedOnce(t *testing.T) {
	ctx := context.Background()

	got, err := capture.Expand(ctx, nil, stream(t, "|| f(honk!(a), honk!(b), slip!(c), honk!(d), slip!(e))"))
	require.NoError(t, err)

	for _, name := range []string{"__honk_0", "__honk_1", "__honk_2", "__slip_0", "__slip_1"} {
		// one binding target, one reference
		assert.Equal(t, 2, countIdent(got, name), name)
	}
	assert.Zero(t, countIdent(got, "__honk_3"))
	assert.Zero(t, countIdent(got, "__slip_2"))
	assert.Zero(t, countIdent(got, "honk"))
	assert.Zero(t, countIdent(got, "slip"))
}

func TestExpandIgnoresUserNamesShapedLikeGenerated(t *testing.T) {
	ctx := context.Background()

	c := closure(t, "|| __honk_0 + honk!(a) + __slip_3")
	_, table, err := capture.ExpandClosure(ctx, c)
	require.NoError(t, err)

	require.Len(t, table.Bindings(capture.Clone), 1)
	assert.Empty(t, table.Bindings(capture.Move))
	b, ok := table.Lookup("__honk_0")
	require.True(t, ok)
	assert.Equal(t, "a", syntax.Print(b.Expr))
	_, ok = table.Lookup("__slip_3")
	assert.False(t, ok)
}

func TestExpandClosureKeepsAttributesAndParams(t *testing.T) {
	ctx := context.Background()

	c := closure(t, "#[inline] |x: u8, (a, b)| x + honk!(a)")
	out, table, err := capture.ExpandClosure(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	blk, ok := out.(*syntax.BlockExpr)
	require.True(t, ok, "got %T", out)
	tail := blk.Block.Stmts[len(blk.Block.Stmts)-1].(*syntax.ExprStmt)
	assert.Same(t, c, tail.X)
	require.Len(t, c.Attrs, 1)
	assert.Equal(t, "inline", c.Attrs[0].Name())
	require.Len(t, c.Params, 2)
	assert.NotNil(t, c.Move)
}

func TestExpandLeavesNestedItemsAlone(t *testing.T) {
	ctx := context.Background()

	// a nested fn cannot see the closure's captures, so its markers are not hoisted
	c := closure(t, "|| { fn helper() -> u8 { honk!(a) } struct S { f: [u8; 2] } helper() + slip!(b) }")
	out, table, err := capture.ExpandClosure(ctx, c)
	require.NoError(t, err)

	assert.Empty(t, table.Bindings(capture.Clone))
	require.Len(t, table.Bindings(capture.Move), 1)
	b, ok := table.Lookup("__slip_0")
	require.True(t, ok)
	assert.Equal(t, "b", syntax.Print(b.Expr))

	toks := out.Tokens()
	assert.Equal(t, 1, countIdent(toks, "honk"))
	assert.Equal(t, 1, countIdent(toks, "a"))
	assert.Zero(t, countIdent(toks, "slip"))
	assert.Zero(t, countIdent(toks, "__honk_0"))
}

func TestExpandBindingSpans(t *testing.T) {
	ctx := context.Background()
	src := "|| do_call(honk!(foo.bar), m!(slip!(baz)))"

	_, table, err := capture.ExpandClosure(ctx, closure(t, src))
	require.NoError(t, err)

	clone := table.Bindings(capture.Clone)[0]
	assert.Equal(t, "foo.bar", clone.Span.Text(src))
	assert.Equal(t, "honk!(foo.bar)", clone.Name.Pos.Text(src))

	move := table.Bindings(capture.Move)[0]
	assert.Equal(t, "baz", move.Span.Text(src))
	assert.Equal(t, "slip!(baz)", move.Name.Pos.Text(src))
}

func TestExpandErrors(t *testing.T) {
	tests := []struct {
		name      string
		item      string
		wantShape bool
		wantKind  capture.Kind
		wantFound string
	}{
		{name: "malformed_clone_argument", item: "|| honk!(,)", wantKind: capture.Clone},
		{name: "empty_move_argument", item: "|| f(slip!())", wantKind: capture.Move},
		{name: "two_expressions", item: "|| honk!(a b)", wantKind: capture.Clone},
		{name: "malformed_inside_foreign_macro", item: "|| m!(x, slip!(1 +))", wantKind: capture.Move},
		{name: "not_a_closure", item: "a + b", wantShape: true, wantFound: "an operator expression"},
		{name: "call_is_not_a_closure", item: "f(|| 1)", wantShape: true, wantFound: "a call"},
		{name: "statement_is_not_an_expression", item: "let x = 1;", wantShape: true, wantFound: "tokens that are not an expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			got, err := capture.Expand(ctx, nil, stream(t, tt.item))
			require.Error(t, err)
			assert.Nil(t, got)

			if tt.wantShape {
				var shape *capture.ShapeError
				require.True(t, errors.As(err, &shape), "got %T: %v", err, err)
				assert.Equal(t, tt.wantFound, shape.Found)
				return
			}

			var marker *capture.MarkerArgumentParseError
			require.True(t, errors.As(err, &marker), "got %T: %v", err, err)
			assert.Equal(t, tt.wantKind, marker.Kind)

			var perr *syntax.ParseError
			assert.True(t, errors.As(err, &perr), "marker error wraps the parse error")
		})
	}
}

func TestKindForKeyword(t *testing.T) {
	for _, k := range capture.Kinds {
		got, ok := capture.KindForKeyword(k.Keyword())
		require.True(t, ok)
		assert.Equal(t, k, got)
	}

	_, ok := capture.KindForKeyword("clown")
	assert.False(t, ok)
}
