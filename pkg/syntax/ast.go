// Package syntax is a typed syntax tree for the expression language the expander rewrites.
//
// Only expressions are modelled in detail. Patterns, types, labels and nested items are
// kept as opaque token streams, and macro invocations keep their arguments as an
// unparsed group, the same way a macro's input stays opaque until that macro expands.
package syntax

import (
	"github.com/walteh/clown/pkg/position"
	"github.com/walteh/clown/pkg/tokentree"
)

// Node is any expression or statement.
type Node interface {
	// Tokens renders the node back into a token stream. Spans are carried over from
	// the source tokens the node was parsed from.
	Tokens() tokentree.Stream
}

type Expr interface {
	Node
	exprNode()
}

type Stmt interface {
	Node
	stmtNode()
}

// SpanOf returns the source span covered by a node.
func SpanOf(n Node) position.Span {
	return n.Tokens().Span()
}

// Print renders a node as source text.
func Print(n Node) string {
	return tokentree.Print(n.Tokens())
}

// Attribute is an outer attribute `#[...]`.
type Attribute struct {
	Pound tokentree.Punct
	Body  tokentree.Group
}

// Name returns the first identifier inside the brackets, or "" if there is none.
func (a Attribute) Name() string {
	if len(a.Body.Stream) == 0 {
		return ""
	}
	if id, ok := a.Body.Stream[0].(tokentree.Ident); ok {
		return id.Name
	}
	return ""
}

func (a Attribute) Span() position.Span {
	return a.Pound.Pos.Cover(a.Body.Span())
}

type (
	// PathExpr is a variable or path such as `x`, `self`, `Vec::<u8>::new`.
	PathExpr struct {
		Path tokentree.Stream
	}

	LitExpr struct {
		Lit tokentree.Literal
	}

	// MacroExpr is `path!(...)`, `path![...]` or `path!{...}`. Args is never parsed.
	MacroExpr struct {
		Path tokentree.Stream
		Bang tokentree.Punct
		Args tokentree.Group
	}

	CallExpr struct {
		Func   Expr
		Args   []Expr
		Lparen position.Span
		Rparen position.Span
	}

	MethodCallExpr struct {
		Receiver  Expr
		Dot       position.Span
		Method    tokentree.Ident
		Turbofish tokentree.Stream // `::<...>`, empty when absent
		Args      []Expr
		Lparen    position.Span
		Rparen    position.Span
	}

	// FieldExpr is `base.name` or `base.0`. Member is an Ident or a Literal.
	FieldExpr struct {
		Base   Expr
		Dot    position.Span
		Member tokentree.Tree
	}

	IndexExpr struct {
		Base   Expr
		Index  Expr
		Lbrack position.Span
		Rbrack position.Span
	}

	TryExpr struct {
		X        Expr
		Question position.Span
	}

	AwaitExpr struct {
		X     Expr
		Dot   position.Span
		Await position.Span
	}

	// UnaryExpr is a prefix operation. Op is one of "!", "-", "*", "&", "&mut".
	UnaryExpr struct {
		Op     string
		OpSpan position.Span
		X      Expr
	}

	// BinaryExpr covers arithmetic, logic, comparison and (compound) assignment.
	BinaryExpr struct {
		Op     string
		OpSpan position.Span
		X      Expr
		Y      Expr
	}

	CastExpr struct {
		X    Expr
		As   position.Span
		Type tokentree.Stream
	}

	// RangeExpr is `a..b`, `a..=b`, `..b`, `a..` or `..`.
	RangeExpr struct {
		From   Expr
		To     Expr
		Op     string
		OpSpan position.Span
	}

	ParenExpr struct {
		X      Expr
		Lparen position.Span
		Rparen position.Span
	}

	TupleExpr struct {
		Elems  []Expr
		Lparen position.Span
		Rparen position.Span
	}

	ArrayExpr struct {
		Elems  []Expr
		Lbrack position.Span
		Rbrack position.Span
	}

	// RepeatExpr is `[elem; len]`.
	RepeatExpr struct {
		Elem   Expr
		Semi   position.Span
		Len    Expr
		Lbrack position.Span
		Rbrack position.Span
	}

	StructExpr struct {
		Path   tokentree.Stream
		Fields []*FieldValue
		Rest   Expr // `..base`; nil when absent
		DotDot position.Span
		Lbrace position.Span
		Rbrace position.Span
	}

	// BlockExpr is a block with an optional prefix such as a label, `unsafe` or `async move`.
	BlockExpr struct {
		Prefix tokentree.Stream
		Block  *Block
	}

	IfExpr struct {
		If       position.Span
		Cond     Expr
		Then     *Block
		ElseSpan position.Span
		Else     Expr // *IfExpr, *BlockExpr or nil
	}

	// LetExpr is the `let pat = x` of `if let` and `while let` conditions.
	LetExpr struct {
		Let position.Span
		Pat tokentree.Stream
		Eq  position.Span
		X   Expr
	}

	WhileExpr struct {
		Label tokentree.Stream
		While position.Span
		Cond  Expr
		Body  *Block
	}

	LoopExpr struct {
		Label tokentree.Stream
		Loop  position.Span
		Body  *Block
	}

	ForExpr struct {
		Label tokentree.Stream
		For   position.Span
		Pat   tokentree.Stream
		In    position.Span
		Iter  Expr
		Body  *Block
	}

	MatchExpr struct {
		Match  position.Span
		X      Expr
		Arms   []*Arm
		Lbrace position.Span
		Rbrace position.Span
	}

	// ClosureExpr is `async? move? |params| body`.
	ClosureExpr struct {
		Attrs  []Attribute
		Async  *tokentree.Ident
		Move   *tokentree.Ident
		Lpipe  position.Span
		Params []*Param
		Rpipe  position.Span
		Arrow  position.Span
		Output tokentree.Stream // return type; empty when absent
		Body   Expr
	}

	ReturnExpr struct {
		Return position.Span
		X      Expr
	}

	BreakExpr struct {
		Break position.Span
		Label tokentree.Stream
		X     Expr
	}

	ContinueExpr struct {
		Continue position.Span
		Label    tokentree.Stream
	}
)

type FieldValue struct {
	Name  tokentree.Tree
	Colon position.Span
	Value Expr // nil for shorthand `Foo { a }`
}

type Param struct {
	Pat   tokentree.Stream
	Colon position.Span
	Type  tokentree.Stream // empty when absent
}

type Arm struct {
	Attrs []Attribute
	Pat   tokentree.Stream
	If    position.Span
	Guard Expr
	Arrow position.Span
	Body  Expr
	Comma *position.Span
}

type Block struct {
	Stmts  []Stmt
	Lbrace position.Span
	Rbrace position.Span
}

type (
	LetStmt struct {
		Attrs    []Attribute
		Let      position.Span
		Pat      tokentree.Stream
		Colon    position.Span
		Type     tokentree.Stream // empty when absent
		Eq       position.Span
		Init     Expr // nil when absent
		ElseSpan position.Span
		Else     *Block // `let ... else { }`; nil when absent
		Semi     position.Span
	}

	// ExprStmt is an expression in statement position. The final expression of a
	// block has no semicolon.
	ExprStmt struct {
		Attrs []Attribute
		X     Expr
		Semi  *position.Span
	}

	// ItemStmt is a nested item (`fn`, `struct`, `use`, ...). It is never parsed.
	ItemStmt struct {
		Item tokentree.Stream
	}
)

func (*PathExpr) exprNode()       {}
func (*LitExpr) exprNode()        {}
func (*MacroExpr) exprNode()      {}
func (*CallExpr) exprNode()       {}
func (*MethodCallExpr) exprNode() {}
func (*FieldExpr) exprNode()      {}
func (*IndexExpr) exprNode()      {}
func (*TryExpr) exprNode()        {}
func (*AwaitExpr) exprNode()      {}
func (*UnaryExpr) exprNode()      {}
func (*BinaryExpr) exprNode()     {}
func (*CastExpr) exprNode()       {}
func (*RangeExpr) exprNode()      {}
func (*ParenExpr) exprNode()      {}
func (*TupleExpr) exprNode()      {}
func (*ArrayExpr) exprNode()      {}
func (*RepeatExpr) exprNode()     {}
func (*StructExpr) exprNode()     {}
func (*BlockExpr) exprNode()      {}
func (*IfExpr) exprNode()         {}
func (*LetExpr) exprNode()        {}
func (*WhileExpr) exprNode()      {}
func (*LoopExpr) exprNode()       {}
func (*ForExpr) exprNode()        {}
func (*MatchExpr) exprNode()      {}
func (*ClosureExpr) exprNode()    {}
func (*ReturnExpr) exprNode()     {}
func (*BreakExpr) exprNode()      {}
func (*ContinueExpr) exprNode()   {}

func (*LetStmt) stmtNode()  {}
func (*ExprStmt) stmtNode() {}
func (*ItemStmt) stmtNode() {}

// Name returns the identifier of a single-segment path, or "".
func (p *PathExpr) Name() string {
	return singleIdent(p.Path)
}

// Name returns the macro name when its path is a single identifier, or "".
func (m *MacroExpr) Name() string {
	return singleIdent(m.Path)
}

func singleIdent(s tokentree.Stream) string {
	if len(s) != 1 {
		return ""
	}
	if id, ok := s[0].(tokentree.Ident); ok {
		return id.Name
	}
	return ""
}

// NewPath returns a path expression naming a single identifier.
func NewPath(id tokentree.Ident) *PathExpr {
	return &PathExpr{Path: tokentree.Stream{id}}
}

// IsBlockLike reports whether e ends in a block and may stand as a statement without `;`.
func IsBlockLike(e Expr) bool {
	switch e.(type) {
	case *BlockExpr, *IfExpr, *WhileExpr, *LoopExpr, *ForExpr, *MatchExpr:
		return true
	}
	return false
}
