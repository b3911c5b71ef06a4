package syntax

import (
	"github.com/walteh/clown/pkg/position"
	"github.com/walteh/clown/pkg/tokentree"
)

type builder struct {
	out tokentree.Stream
}

func (b *builder) ident(name string, span position.Span) {
	b.out = append(b.out, tokentree.NewIdent(name, span))
}

func (b *builder) op(op string, span position.Span) {
	b.out = append(b.out, tokentree.Op(op, span)...)
}

func (b *builder) stream(s tokentree.Stream) {
	b.out = append(b.out, s...)
}

func (b *builder) tree(t tokentree.Tree) {
	b.out = append(b.out, t)
}

func (b *builder) node(n Node) {
	b.out = append(b.out, n.Tokens()...)
}

func (b *builder) attrs(attrs []Attribute) {
	for _, a := range attrs {
		b.out = append(b.out, a.Pound, a.Body)
	}
}

func (b *builder) list(exprs []Expr) {
	for i, e := range exprs {
		if i > 0 {
			b.op(",", position.Span{})
		}
		b.node(e)
	}
}

func (b *builder) group(delim tokentree.Delimiter, open, close position.Span, fill func(*builder)) {
	inner := &builder{}
	fill(inner)
	b.out = append(b.out, tokentree.Group{
		Delimiter: delim,
		Stream:    inner.out,
		OpenSpan:  open,
		CloseSpan: close,
	})
}

func build(fill func(*builder)) tokentree.Stream {
	b := &builder{}
	fill(b)
	return b.out
}

func (e *PathExpr) Tokens() tokentree.Stream { return e.Path }

func (e *LitExpr) Tokens() tokentree.Stream { return tokentree.Stream{e.Lit} }

func (e *MacroExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.stream(e.Path)
		b.tree(e.Bang)
		b.tree(e.Args)
	})
}

func (e *CallExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.node(e.Func)
		b.group(tokentree.Parenthesis, e.Lparen, e.Rparen, func(b *builder) { b.list(e.Args) })
	})
}

func (e *MethodCallExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.node(e.Receiver)
		b.op(".", e.Dot)
		b.tree(e.Method)
		b.stream(e.Turbofish)
		b.group(tokentree.Parenthesis, e.Lparen, e.Rparen, func(b *builder) { b.list(e.Args) })
	})
}

func (e *FieldExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.node(e.Base)
		b.op(".", e.Dot)
		b.tree(e.Member)
	})
}

func (e *IndexExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.node(e.Base)
		b.group(tokentree.Bracket, e.Lbrack, e.Rbrack, func(b *builder) { b.node(e.Index) })
	})
}

func (e *TryExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.node(e.X)
		b.op("?", e.Question)
	})
}

func (e *AwaitExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.node(e.X)
		b.op(".", e.Dot)
		b.ident("await", e.Await)
	})
}

func (e *UnaryExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		if e.Op == "&mut" {
			b.op("&", e.OpSpan)
			b.ident("mut", e.OpSpan)
		} else {
			b.op(e.Op, e.OpSpan)
		}
		b.node(e.X)
	})
}

func (e *BinaryExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.node(e.X)
		b.op(e.Op, e.OpSpan)
		b.node(e.Y)
	})
}

func (e *CastExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.node(e.X)
		b.ident("as", e.As)
		b.stream(e.Type)
	})
}

func (e *RangeExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		if e.From != nil {
			b.node(e.From)
		}
		b.op(e.Op, e.OpSpan)
		if e.To != nil {
			b.node(e.To)
		}
	})
}

func (e *ParenExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.group(tokentree.Parenthesis, e.Lparen, e.Rparen, func(b *builder) { b.node(e.X) })
	})
}

func (e *TupleExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.group(tokentree.Parenthesis, e.Lparen, e.Rparen, func(b *builder) {
			b.list(e.Elems)
			if len(e.Elems) == 1 {
				b.op(",", position.Span{})
			}
		})
	})
}

func (e *ArrayExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.group(tokentree.Bracket, e.Lbrack, e.Rbrack, func(b *builder) { b.list(e.Elems) })
	})
}

func (e *RepeatExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.group(tokentree.Bracket, e.Lbrack, e.Rbrack, func(b *builder) {
			b.node(e.Elem)
			b.op(";", e.Semi)
			b.node(e.Len)
		})
	})
}

func (e *StructExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.stream(e.Path)
		b.group(tokentree.Brace, e.Lbrace, e.Rbrace, func(b *builder) {
			for i, f := range e.Fields {
				if i > 0 {
					b.op(",", position.Span{})
				}
				b.tree(f.Name)
				if f.Value != nil {
					b.op(":", f.Colon)
					b.node(f.Value)
				}
			}
			if e.Rest != nil {
				if len(e.Fields) > 0 {
					b.op(",", position.Span{})
				}
				b.op("..", e.DotDot)
				b.node(e.Rest)
			}
		})
	})
}

func (blk *Block) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.group(tokentree.Brace, blk.Lbrace, blk.Rbrace, func(b *builder) {
			for _, s := range blk.Stmts {
				b.node(s)
			}
		})
	})
}

func (e *BlockExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.stream(e.Prefix)
		b.node(e.Block)
	})
}

func (e *IfExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.ident("if", e.If)
		b.node(e.Cond)
		b.node(e.Then)
		if e.Else != nil {
			b.ident("else", e.ElseSpan)
			b.node(e.Else)
		}
	})
}

func (e *LetExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.ident("let", e.Let)
		b.stream(e.Pat)
		b.op("=", e.Eq)
		b.node(e.X)
	})
}

func (e *WhileExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.stream(e.Label)
		b.ident("while", e.While)
		b.node(e.Cond)
		b.node(e.Body)
	})
}

func (e *LoopExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.stream(e.Label)
		b.ident("loop", e.Loop)
		b.node(e.Body)
	})
}

func (e *ForExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.stream(e.Label)
		b.ident("for", e.For)
		b.stream(e.Pat)
		b.ident("in", e.In)
		b.node(e.Iter)
		b.node(e.Body)
	})
}

func (e *MatchExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.ident("match", e.Match)
		b.node(e.X)
		b.group(tokentree.Brace, e.Lbrace, e.Rbrace, func(b *builder) {
			for _, arm := range e.Arms {
				b.attrs(arm.Attrs)
				b.stream(arm.Pat)
				if arm.Guard != nil {
					b.ident("if", arm.If)
					b.node(arm.Guard)
				}
				b.op("=>", arm.Arrow)
				b.node(arm.Body)
				if arm.Comma != nil {
					b.op(",", *arm.Comma)
				}
			}
		})
	})
}

func (e *ClosureExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.attrs(e.Attrs)
		if e.Async != nil {
			b.tree(*e.Async)
		}
		if e.Move != nil {
			b.tree(*e.Move)
		}
		if len(e.Params) == 0 {
			b.op("||", e.Lpipe.Cover(e.Rpipe))
		} else {
			b.op("|", e.Lpipe)
			for i, p := range e.Params {
				if i > 0 {
					b.op(",", position.Span{})
				}
				b.stream(p.Pat)
				if len(p.Type) > 0 {
					b.op(":", p.Colon)
					b.stream(p.Type)
				}
			}
			b.op("|", e.Rpipe)
		}
		if len(e.Output) > 0 {
			b.op("->", e.Arrow)
			b.stream(e.Output)
		}
		b.node(e.Body)
	})
}

func (e *ReturnExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.ident("return", e.Return)
		if e.X != nil {
			b.node(e.X)
		}
	})
}

func (e *BreakExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.ident("break", e.Break)
		b.stream(e.Label)
		if e.X != nil {
			b.node(e.X)
		}
	})
}

func (e *ContinueExpr) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.ident("continue", e.Continue)
		b.stream(e.Label)
	})
}

func (s *LetStmt) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.attrs(s.Attrs)
		b.ident("let", s.Let)
		b.stream(s.Pat)
		if len(s.Type) > 0 {
			b.op(":", s.Colon)
			b.stream(s.Type)
		}
		if s.Init != nil {
			b.op("=", s.Eq)
			b.node(s.Init)
			if s.Else != nil {
				b.ident("else", s.ElseSpan)
				b.node(s.Else)
			}
		}
		b.op(";", s.Semi)
	})
}

func (s *ExprStmt) Tokens() tokentree.Stream {
	return build(func(b *builder) {
		b.attrs(s.Attrs)
		b.node(s.X)
		if s.Semi != nil {
			b.op(";", *s.Semi)
		}
	})
}

func (s *ItemStmt) Tokens() tokentree.Stream { return s.Item }
