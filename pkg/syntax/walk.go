package syntax

// RewriteFunc is called on an expression before its children. It returns the
// expression to put in its place and whether Rewrite should continue into the
// children of that replacement.
type RewriteFunc func(Expr) (replacement Expr, descend bool, err error)

// Rewrite walks e depth-first and replaces every expression with the result of fn.
// Nodes are updated in place; the returned expression is the replacement for e itself.
func Rewrite(e Expr, fn RewriteFunc) (Expr, error) {
	r := &rewriter{fn: fn}
	return r.expr(e)
}

// RewriteBlock rewrites every statement of b in place.
func RewriteBlock(b *Block, fn RewriteFunc) error {
	r := &rewriter{fn: fn}
	return r.block(b)
}

// Inspect calls fn for every expression under e, stopping descent where fn returns false.
func Inspect(e Expr, fn func(Expr) bool) {
	_, _ = Rewrite(e, func(x Expr) (Expr, bool, error) {
		return x, fn(x), nil
	})
}

type rewriter struct {
	fn RewriteFunc
}

func (r *rewriter) expr(e Expr) (Expr, error) {
	if e == nil {
		return nil, nil
	}
	out, descend, err := r.fn(e)
	if err != nil {
		return nil, err
	}
	if !descend {
		return out, nil
	}
	if err := r.children(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *rewriter) exprs(es []Expr) error {
	for i := range es {
		x, err := r.expr(es[i])
		if err != nil {
			return err
		}
		es[i] = x
	}
	return nil
}

// each rewrites the expressions behind ptrs in order.
func (r *rewriter) each(ptrs ...*Expr) error {
	for _, p := range ptrs {
		x, err := r.expr(*p)
		if err != nil {
			return err
		}
		*p = x
	}
	return nil
}

func (r *rewriter) block(b *Block) error {
	if b == nil {
		return nil
	}
	for _, s := range b.Stmts {
		switch s := s.(type) {
		case *LetStmt:
			if err := r.each(&s.Init); err != nil {
				return err
			}
			if err := r.block(s.Else); err != nil {
				return err
			}
		case *ExprStmt:
			if err := r.each(&s.X); err != nil {
				return err
			}
		case *ItemStmt:
		}
	}
	return nil
}

func (r *rewriter) children(e Expr) error {
	switch e := e.(type) {
	case *PathExpr, *LitExpr, *MacroExpr, *ContinueExpr:
		return nil
	case *CallExpr:
		if err := r.each(&e.Func); err != nil {
			return err
		}
		return r.exprs(e.Args)
	case *MethodCallExpr:
		if err := r.each(&e.Receiver); err != nil {
			return err
		}
		return r.exprs(e.Args)
	case *FieldExpr:
		return r.each(&e.Base)
	case *IndexExpr:
		return r.each(&e.Base, &e.Index)
	case *TryExpr:
		return r.each(&e.X)
	case *AwaitExpr:
		return r.each(&e.X)
	case *UnaryExpr:
		return r.each(&e.X)
	case *BinaryExpr:
		return r.each(&e.X, &e.Y)
	case *CastExpr:
		return r.each(&e.X)
	case *RangeExpr:
		return r.each(&e.From, &e.To)
	case *ParenExpr:
		return r.each(&e.X)
	case *TupleExpr:
		return r.exprs(e.Elems)
	case *ArrayExpr:
		return r.exprs(e.Elems)
	case *RepeatExpr:
		return r.each(&e.Elem, &e.Len)
	case *StructExpr:
		for _, f := range e.Fields {
			if err := r.each(&f.Value); err != nil {
				return err
			}
		}
		return r.each(&e.Rest)
	case *BlockExpr:
		return r.block(e.Block)
	case *IfExpr:
		if err := r.each(&e.Cond); err != nil {
			return err
		}
		if err := r.block(e.Then); err != nil {
			return err
		}
		return r.each(&e.Else)
	case *LetExpr:
		return r.each(&e.X)
	case *WhileExpr:
		if err := r.each(&e.Cond); err != nil {
			return err
		}
		return r.block(e.Body)
	case *LoopExpr:
		return r.block(e.Body)
	case *ForExpr:
		if err := r.each(&e.Iter); err != nil {
			return err
		}
		return r.block(e.Body)
	case *MatchExpr:
		if err := r.each(&e.X); err != nil {
			return err
		}
		for _, arm := range e.Arms {
			if err := r.each(&arm.Guard, &arm.Body); err != nil {
				return err
			}
		}
		return nil
	case *ClosureExpr:
		return r.each(&e.Body)
	case *ReturnExpr:
		return r.each(&e.X)
	case *BreakExpr:
		return r.each(&e.X)
	}
	return nil
}
