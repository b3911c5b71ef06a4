package syntax_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clown/pkg/syntax"
	"github.com/walteh/clown/pkg/tokentree"
)

func stream(t *testing.T, src string) tokentree.Stream {
	t.Helper()
	s, err := tokentree.Parse("test.rs", src)
	require.NoError(t, err, "tokenizing %q", src)
	return s
}

func parse(t *testing.T, src string) syntax.Expr {
	t.Helper()
	e, err := syntax.ParseExpr(stream(t, src))
	require.NoError(t, err, "parsing %q", src)
	return e
}

// sexpr renders operator structure so precedence is visible.
func sexpr(e syntax.Expr) string {
	switch e := e.(type) {
	case *syntax.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", e.Op, sexpr(e.X), sexpr(e.Y))
	case *syntax.UnaryExpr:
		return fmt.Sprintf("(%s %s)", e.Op, sexpr(e.X))
	case *syntax.CastExpr:
		return fmt.Sprintf("(as %s %s)", sexpr(e.X), tokentree.Print(e.Type))
	case *syntax.RangeExpr:
		from, to := "_", "_"
		if e.From != nil {
			from = sexpr(e.From)
		}
		if e.To != nil {
			to = sexpr(e.To)
		}
		return fmt.Sprintf("(%s %s %s)", e.Op, from, to)
	case *syntax.TryExpr:
		return fmt.Sprintf("(? %s)", sexpr(e.X))
	case *syntax.FieldExpr:
		return fmt.Sprintf("(. %s %s)", sexpr(e.Base), e.Member)
	case *syntax.MethodCallExpr:
		var sb strings.Builder
		fmt.Fprintf(&sb, "(.%s %s", e.Method.Name, sexpr(e.Receiver))
		for _, a := range e.Args {
			sb.WriteString(" " + sexpr(a))
		}
		sb.WriteString(")")
		return sb.String()
	case *syntax.CallExpr:
		var sb strings.Builder
		fmt.Fprintf(&sb, "(call %s", sexpr(e.Func))
		for _, a := range e.Args {
			sb.WriteString(" " + sexpr(a))
		}
		sb.WriteString(")")
		return sb.String()
	case *syntax.LetExpr:
		return fmt.Sprintf("(let %s %s)", tokentree.Print(e.Pat), sexpr(e.X))
	}
	return syntax.Print(e)
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a + b * c", "(+ a (* b c))"},
		{"a * b + c", "(+ (* a b) c)"},
		{"a - b - c", "(- (- a b) c)"},
		{"a = b = c", "(= a (= b c))"},
		{"a || b && c", "(|| a (&& b c))"},
		{"a == b && c < d", "(&& (== a b) (< c d))"},
		{"a & b | c ^ d", "(| (& a b) (^ c d))"},
		{"x as u8 + 1", "(+ (as x u8) 1)"},
		{"-a.b()", "(- (.b a))"},
		{"!x?", "(! (? x))"},
		{"a..b + 1", "(.. a (+ b 1))"},
		{"..n", "(.. _ n)"},
		{"a..", "(.. a _)"},
		{"a += b << 2", "(+= a (<< b 2))"},
		{"*a.0", "(* (. a 0))"},
		{"&mut x", "(&mut x)"},
		{"a - -b", "(- a (- b))"},
		{"f(a)(b)", "(call (call f a) b)"},
		{"x.0.1", "(. (. x 0) 1)"},
		{"a.b(c, d).e", "(. (.b a c d) e)"},
		{"a <= b", "(<= a b)"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, sexpr(parse(t, tt.src)))
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []string{
		"foo(a, b)",
		"v.iter().map(|x| x + 1).collect::<Vec<_>>()",
		"move || honk!(a)",
		"#[clown] move |a, b: u8| a + b",
		"if a { b } else if c { d } else { e }",
		"match x { Some(y) => y, None => 0 }",
		"Foo { a: 1, b }",
		"Foo { a, ..base }",
		"[0; 4]",
		"[a, b, c]",
		"(a, b)",
		"(a,)",
		"()",
		"a..=b",
		"'a: loop { break 'a; }",
		"async move { f().await }",
		"|x| -> u8 { x }",
		"for i in 0..n { v.push(i); }",
		"while let Some(x) = it.next() { drop(x) }",
		"unsafe { *p }",
		"std::mem::take(&mut v)",
		"<T as Default>::default()",
		"vec![1, 2, 3]",
		"{ let x: Vec<u8> = Vec::new(); x }",
		"return",
		"break 'outer 1",
		"|m: &HashMap<K, Vec<V>>| m.len()",
		"|f: Box<dyn Fn(u8) -> u8 + Send>| f(1)",
		"x as *const u8",
		"r#type + r#match.r#fn(r#in)",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			assert.Equal(t, tokentree.Print(stream(t, src)), syntax.Print(parse(t, src)))
		})
	}
}

func TestParseClosure(t *testing.T) {
	e := parse(t, "#[clown] async move |a, (b, c): (u8, u8), mut d| -> u8 { a }")

	c, ok := e.(*syntax.ClosureExpr)
	require.True(t, ok, "got %T", e)
	require.Len(t, c.Attrs, 1)
	assert.Equal(t, "clown", c.Attrs[0].Name())
	assert.NotNil(t, c.Async)
	assert.NotNil(t, c.Move)
	require.Len(t, c.Params, 3)
	assert.Equal(t, "a", tokentree.Print(c.Params[0].Pat))
	assert.Empty(t, c.Params[0].Type)
	assert.Equal(t, "(b, c)", tokentree.Print(c.Params[1].Pat))
	assert.Equal(t, "(u8, u8)", tokentree.Print(c.Params[1].Type))
	assert.Equal(t, "mut d", tokentree.Print(c.Params[2].Pat))
	assert.Equal(t, "u8", tokentree.Print(c.Output))
	assert.IsType(t, &syntax.BlockExpr{}, c.Body)

	e = parse(t, "|| honk!(a).len()")
	c, ok = e.(*syntax.ClosureExpr)
	require.True(t, ok, "got %T", e)
	assert.Nil(t, c.Move)
	assert.Empty(t, c.Params)
	call, ok := c.Body.(*syntax.MethodCallExpr)
	require.True(t, ok, "got %T", c.Body)
	macro, ok := call.Receiver.(*syntax.MacroExpr)
	require.True(t, ok, "got %T", call.Receiver)
	assert.Equal(t, "honk", macro.Name())
}

func TestParseRawIdentifiers(t *testing.T) {
	e := parse(t, "|| r#type + honk!(r#match)")

	c, ok := e.(*syntax.ClosureExpr)
	require.True(t, ok, "got %T", e)
	bin, ok := c.Body.(*syntax.BinaryExpr)
	require.True(t, ok, "got %T", c.Body)
	assert.Equal(t, "+", bin.Op)

	path, ok := bin.X.(*syntax.PathExpr)
	require.True(t, ok, "got %T", bin.X)
	assert.Equal(t, "r#type", path.Name())

	macro, ok := bin.Y.(*syntax.MacroExpr)
	require.True(t, ok, "got %T", bin.Y)
	assert.Equal(t, "honk", macro.Name())
	require.Len(t, macro.Args.Stream, 1)
	assert.True(t, tokentree.IsIdent(macro.Args.Stream[0], "r#match"))
}

func TestParseMacroArgsAreOpaque(t *testing.T) {
	e := parse(t, "honk!(a b c)")

	m, ok := e.(*syntax.MacroExpr)
	require.True(t, ok, "got %T", e)
	assert.Equal(t, "honk", m.Name())
	assert.Equal(t, tokentree.Parenthesis, m.Args.Delimiter)
	assert.Len(t, m.Args.Stream, 3)
}

func TestParseBlockStatements(t *testing.T) {
	e := parse(t, "{ #![allow(x)] let a = 1; fn f() {} use a::{b, c}; honk!(x); if a {} #[inline] let Some(y) = z else { return }; b }")

	blk, ok := e.(*syntax.BlockExpr)
	require.True(t, ok, "got %T", e)
	stmts := blk.Block.Stmts
	require.Len(t, stmts, 8)

	assert.IsType(t, &syntax.ItemStmt{}, stmts[0])
	assert.IsType(t, &syntax.LetStmt{}, stmts[1])
	assert.Equal(t, "fn f() {}", syntax.Print(stmts[2]))
	assert.Equal(t, "use a::{ b, c };", syntax.Print(stmts[3]))

	macro, ok := stmts[4].(*syntax.ExprStmt)
	require.True(t, ok)
	assert.IsType(t, &syntax.MacroExpr{}, macro.X)
	assert.NotNil(t, macro.Semi)

	cond, ok := stmts[5].(*syntax.ExprStmt)
	require.True(t, ok)
	assert.IsType(t, &syntax.IfExpr{}, cond.X)
	assert.Nil(t, cond.Semi)

	let, ok := stmts[6].(*syntax.LetStmt)
	require.True(t, ok)
	require.Len(t, let.Attrs, 1)
	assert.Equal(t, "inline", let.Attrs[0].Name())
	assert.NotNil(t, let.Else)

	tail, ok := stmts[7].(*syntax.ExprStmt)
	require.True(t, ok)
	assert.Nil(t, tail.Semi)
	assert.Equal(t, "b", syntax.Print(tail.X))
}

func TestParseMatchArms(t *testing.T) {
	e := parse(t, "match x { 1 | 2 => a, _ if b => { c } _ => d }")

	m, ok := e.(*syntax.MatchExpr)
	require.True(t, ok, "got %T", e)
	require.Len(t, m.Arms, 3)
	assert.Equal(t, "1 | 2", tokentree.Print(m.Arms[0].Pat))
	assert.NotNil(t, m.Arms[0].Comma)
	assert.Equal(t, "b", syntax.Print(m.Arms[1].Guard))
	assert.IsType(t, &syntax.BlockExpr{}, m.Arms[1].Body)
	assert.Nil(t, m.Arms[1].Comma)
	assert.Nil(t, m.Arms[2].Guard)
}

func TestParseNoStructInCondition(t *testing.T) {
	e := parse(t, "if x == Foo { a }")

	i, ok := e.(*syntax.IfExpr)
	require.True(t, ok, "got %T", e)
	assert.Equal(t, "(== x Foo)", sexpr(i.Cond))
	require.Len(t, i.Then.Stmts, 1)

	e = parse(t, "if f(Foo { a }) { b }")
	i, ok = e.(*syntax.IfExpr)
	require.True(t, ok, "got %T", e)
	call, ok := i.Cond.(*syntax.CallExpr)
	require.True(t, ok, "got %T", i.Cond)
	assert.IsType(t, &syntax.StructExpr{}, call.Args[0])
}

func TestParseExprPrefix(t *testing.T) {
	s := stream(t, "#[clown] move || honk!(a); rest()")

	e, n, err := syntax.ParseExprPrefix(s)
	require.NoError(t, err)
	assert.IsType(t, &syntax.ClosureExpr{}, e)
	require.Less(t, n, len(s))
	assert.True(t, tokentree.IsPunct(s[n], ';'), "stopped at %s", s[n])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"", "expected expression, found end of input"},
		{"a +", "expected expression, found end of input"},
		{"foo(a b)", "expected `,`, found `b`"},
		{"a b", "unexpected `b`"},
		{"#[x] a", "attributes are only supported on closures here"},
		{"|x| -> u8 x", "expected block after closure return type, found `x`"},
		{"if a b", "expected `{` after `if` condition, found `b`"},
		{"match x { a => b c => d }", "expected `,`, found `c`"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := syntax.ParseExpr(stream(t, tt.src))
			require.Error(t, err)

			var perr *syntax.ParseError
			require.True(t, errors.As(err, &perr), "got %T", err)
			assert.Equal(t, tt.want, perr.Msg)
		})
	}
}
