package syntax

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clown/pkg/position"
	"github.com/walteh/clown/pkg/tokentree"
)

// ParseError reports a token stream that is not a well-formed expression.
type ParseError struct {
	Span position.Span
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Msg)
}

// ParseExpr parses a stream that must hold exactly one expression.
func ParseExpr(s tokentree.Stream) (Expr, error) {
	p := newParser(s, s.Span())
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return e, nil
}

// ParseExprPrefix parses one expression at the start of s and reports how many
// top-level trees it consumed. Trailing trees are left to the caller.
func ParseExprPrefix(s tokentree.Stream) (Expr, int, error) {
	p := newParser(s, s.Span())
	e, err := p.parseExpr()
	if err != nil {
		return nil, 0, err
	}
	return e, p.pos, nil
}

// ParseBlock parses the statements of a brace group.
func ParseBlock(g tokentree.Group) (*Block, error) {
	if g.Delimiter != tokentree.Brace {
		return nil, errors.WithStack(&ParseError{Span: g.OpenSpan, Msg: "expected `{`"})
	}
	return newParser(nil, position.Span{}).parseBlock(g)
}

var multiOps = []string{
	"<<=", ">>=", "...", "..=",
	"::", "->", "=>", "==", "!=", "<=", ">=", "&&", "||",
	"+=", "-=", "*=", "/=", "%=", "^=", "&=", "|=", "<<", ">>", "..",
}

var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3, "<": 3, ">": 3, "<=": 3, ">=": 3,
	"|":  4,
	"^":  5,
	"&":  6,
	"<<": 7, ">>": 7,
	"+": 8, "-": 8,
	"*": 9, "/": 9, "%": 9,
}

const castPrec = 10

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"^=": true, "&=": true, "|=": true, "<<=": true, ">>=": true,
}

var itemKeywords = map[string]bool{
	"fn": true, "struct": true, "enum": true, "trait": true, "impl": true, "mod": true,
	"use": true, "type": true, "static": true, "pub": true, "extern": true,
}

type parser struct {
	toks tokentree.Stream
	pos  int
	// end is reported when input runs out.
	end position.Span
	// noStruct forbids struct literals, as in the condition of `if`, `while`, `match` and `for`.
	noStruct bool
}

func newParser(s tokentree.Stream, end position.Span) *parser {
	return &parser{toks: s, end: position.NewSpan(end.End, end.End)}
}

func (p *parser) sub(g tokentree.Group) *parser {
	return &parser{toks: g.Stream, end: g.CloseSpan}
}

func (p *parser) errorf(span position.Span, format string, args ...any) error {
	return errors.WithStack(&ParseError{Span: span, Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.toks)
}

func (p *parser) peek(n int) tokentree.Tree {
	if p.pos+n >= len(p.toks) {
		return nil
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() tokentree.Tree {
	t := p.peek(0)
	p.pos++
	return t
}

func (p *parser) peekIdent(name string) bool {
	return tokentree.IsIdent(p.peek(0), name)
}

func (p *parser) peekGroup(delim tokentree.Delimiter) (tokentree.Group, bool) {
	g, ok := p.peek(0).(tokentree.Group)
	return g, ok && g.Delimiter == delim
}

// peekOp returns the longest operator spelled by the joint punctuation at the cursor.
func (p *parser) peekOp() string {
	var sb strings.Builder
	for i := p.pos; i < len(p.toks); i++ {
		punct, ok := p.toks[i].(tokentree.Punct)
		if !ok {
			break
		}
		sb.WriteByte(punct.Char)
		if punct.Spacing != tokentree.Joint {
			break
		}
	}
	run := sb.String()
	if run == "" {
		return ""
	}
	for _, op := range multiOps {
		if strings.HasPrefix(run, op) {
			return op
		}
	}
	return run[:1]
}

// takeOp consumes the punctuation of op.
func (p *parser) takeOp(op string) (tokentree.Stream, position.Span) {
	toks := p.toks[p.pos : p.pos+len(op)]
	p.pos += len(op)
	return toks, toks.Span()
}

func (p *parser) eatOp(op string) (position.Span, bool) {
	if p.peekOp() != op {
		return position.Span{}, false
	}
	_, span := p.takeOp(op)
	return span, true
}

func (p *parser) expectOp(op string) (position.Span, error) {
	if span, ok := p.eatOp(op); ok {
		return span, nil
	}
	return position.Span{}, p.unexpected("`" + op + "`")
}

func (p *parser) expectIdent() (tokentree.Ident, error) {
	if id, ok := p.peek(0).(tokentree.Ident); ok {
		p.pos++
		return id, nil
	}
	return tokentree.Ident{}, p.unexpected("identifier")
}

func (p *parser) expectEnd() error {
	if p.atEnd() {
		return nil
	}
	t := p.peek(0)
	return p.errorf(t.Span(), "unexpected %s", describe(t))
}

func (p *parser) unexpected(want string) error {
	if p.atEnd() {
		return p.errorf(p.end, "expected %s, found end of input", want)
	}
	t := p.peek(0)
	return p.errorf(t.Span(), "expected %s, found %s", want, describe(t))
}

func describe(t tokentree.Tree) string {
	switch t := t.(type) {
	case tokentree.Group:
		return "`" + t.Delimiter.Open() + "`"
	case tokentree.Ident:
		return "`" + t.Name + "`"
	}
	return "`" + t.String() + "`"
}

// collect consumes trees until stop reports true or input ends.
func (p *parser) collect(stop func() bool) tokentree.Stream {
	start := p.pos
	for !p.atEnd() && !stop() {
		p.pos++
	}
	return p.toks[start:p.pos]
}

func (p *parser) canStartExpr() bool {
	switch t := p.peek(0).(type) {
	case nil:
		return false
	case tokentree.Group:
		return t.Delimiter != tokentree.Brace || !p.noStruct
	case tokentree.Ident:
		return t.Name != "as" && t.Name != "else"
	case tokentree.Literal:
		return true
	case tokentree.Punct:
		switch p.peekOp() {
		case "!", "-", "*", "&", "&&", "|", "||", "'", "#", "::", "<", "..", "..=":
			return true
		}
	}
	return false
}

func (p *parser) parseExpr() (Expr, error) {
	return p.parseAssign()
}

func (p *parser) parseNoStruct() (Expr, error) {
	saved := p.noStruct
	p.noStruct = true
	defer func() { p.noStruct = saved }()
	return p.parseExpr()
}

func (p *parser) parseAssign() (Expr, error) {
	lhs, err := p.parseRange()
	if err != nil {
		return nil, err
	}
	op := p.peekOp()
	if !assignOps[op] {
		return lhs, nil
	}
	_, span := p.takeOp(op)
	rhs, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	return &BinaryExpr{Op: op, OpSpan: span, X: lhs, Y: rhs}, nil
}

func (p *parser) parseRange() (Expr, error) {
	var from Expr
	if op := p.peekOp(); op != ".." && op != "..=" {
		var err error
		if from, err = p.parseBinary(1); err != nil {
			return nil, err
		}
	}
	op := p.peekOp()
	if op != ".." && op != "..=" {
		return from, nil
	}
	_, span := p.takeOp(op)
	r := &RangeExpr{From: from, Op: op, OpSpan: span}
	if p.canStartExpr() {
		to, err := p.parseBinary(1)
		if err != nil {
			return nil, err
		}
		r.To = to
	} else if op == "..=" {
		return nil, p.unexpected("range end")
	}
	return r, nil
}

func (p *parser) parseBinary(minPrec int) (Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		if p.peekIdent("as") && castPrec >= minPrec {
			as := p.next().Span()
			typ, err := p.parseType()
			if err != nil {
				return nil, err
			}
			lhs = &CastExpr{X: lhs, As: as, Type: typ}
			continue
		}
		op := p.peekOp()
		prec := binaryPrec[op]
		if prec == 0 || prec < minPrec {
			return lhs, nil
		}
		_, span := p.takeOp(op)
		rhs, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = &BinaryExpr{Op: op, OpSpan: span, X: lhs, Y: rhs}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	switch op := p.peekOp(); op {
	case "!", "-", "*":
		_, span := p.takeOp(op)
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, OpSpan: span, X: x}, nil
	case "&", "&&":
		toks, _ := p.takeOp(op)
		outer := toks[0].Span()
		inner := toks[len(toks)-1].Span()
		refOp := "&"
		if p.peekIdent("mut") {
			inner = inner.Cover(p.next().Span())
			refOp = "&mut"
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		e := Expr(&UnaryExpr{Op: refOp, OpSpan: inner, X: x})
		if op == "&&" {
			e = &UnaryExpr{Op: "&", OpSpan: outer, X: e}
		}
		return e, nil
	}
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(x)
}

func (p *parser) parsePostfix(x Expr) (Expr, error) {
	for {
		switch t := p.peek(0).(type) {
		case tokentree.Group:
			switch t.Delimiter {
			case tokentree.Parenthesis:
				p.pos++
				args, _, err := p.sub(t).parseList()
				if err != nil {
					return nil, err
				}
				x = &CallExpr{Func: x, Args: args, Lparen: t.OpenSpan, Rparen: t.CloseSpan}
				continue
			case tokentree.Bracket:
				p.pos++
				sp := p.sub(t)
				index, err := sp.parseExpr()
				if err != nil {
					return nil, err
				}
				if err := sp.expectEnd(); err != nil {
					return nil, err
				}
				x = &IndexExpr{Base: x, Index: index, Lbrack: t.OpenSpan, Rbrack: t.CloseSpan}
				continue
			}
		case tokentree.Punct:
			switch p.peekOp() {
			case "?":
				span, _ := p.eatOp("?")
				x = &TryExpr{X: x, Question: span}
				continue
			case ".":
				dot, _ := p.eatOp(".")
				var err error
				if x, err = p.parseMember(x, dot); err != nil {
					return nil, err
				}
				continue
			}
		}
		return x, nil
	}
}

func (p *parser) parseMember(base Expr, dot position.Span) (Expr, error) {
	switch t := p.peek(0).(type) {
	case tokentree.Ident:
		p.pos++
		if t.Name == "await" {
			return &AwaitExpr{X: base, Dot: dot, Await: t.Pos}, nil
		}
		var turbofish tokentree.Stream
		if p.peekOp() == "::" {
			start := p.pos
			p.takeOp("::")
			if err := p.skipAngles(); err != nil {
				return nil, err
			}
			turbofish = p.toks[start:p.pos]
		}
		if g, ok := p.peekGroup(tokentree.Parenthesis); ok {
			p.pos++
			args, _, err := p.sub(g).parseList()
			if err != nil {
				return nil, err
			}
			return &MethodCallExpr{
				Receiver:  base,
				Dot:       dot,
				Method:    t,
				Turbofish: turbofish,
				Args:      args,
				Lparen:    g.OpenSpan,
				Rparen:    g.CloseSpan,
			}, nil
		}
		if turbofish != nil {
			return nil, p.unexpected("`(`")
		}
		return &FieldExpr{Base: base, Dot: dot, Member: t}, nil
	case tokentree.Literal:
		p.pos++
		// `x.0.1` lexes its index as the float `0.1`.
		if first, second, ok := strings.Cut(t.Text, "."); ok {
			inner := &FieldExpr{
				Base:   base,
				Dot:    dot,
				Member: tokentree.NewLiteral(first, position.NewSpan(t.Pos.Start, t.Pos.Start+len(first))),
			}
			split := position.NewSpan(t.Pos.Start+len(first), t.Pos.Start+len(first)+1)
			return &FieldExpr{
				Base:   inner,
				Dot:    split,
				Member: tokentree.NewLiteral(second, position.NewSpan(split.End, t.Pos.End)),
			}, nil
		}
		return &FieldExpr{Base: base, Dot: dot, Member: t}, nil
	}
	return nil, p.unexpected("field or method name")
}

// parseList parses comma separated expressions filling the whole parser input.
func (p *parser) parseList() ([]Expr, bool, error) {
	var (
		out      []Expr
		trailing bool
	)
	for !p.atEnd() {
		e, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		out = append(out, e)
		trailing = false
		if p.atEnd() {
			break
		}
		if _, err := p.expectOp(","); err != nil {
			return nil, false, err
		}
		trailing = true
	}
	return out, trailing, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch t := p.peek(0).(type) {
	case nil:
		return nil, p.unexpected("expression")
	case tokentree.Literal:
		p.pos++
		return &LitExpr{Lit: t}, nil
	case tokentree.Group:
		p.pos++
		return p.parseGroupExpr(t)
	case tokentree.Punct:
		switch p.peekOp() {
		case "|", "||":
			return p.parseClosure(nil)
		case "#":
			attrs, err := p.parseAttrs()
			if err != nil {
				return nil, err
			}
			if !p.atClosure() {
				return nil, p.errorf(attrs[0].Span(), "attributes are only supported on closures here")
			}
			return p.parseClosure(attrs)
		case "'":
			return p.parseLabeled()
		case "::", "<":
			return p.parsePathExpr()
		}
		return nil, p.unexpected("expression")
	case tokentree.Ident:
		return p.parseKeywordOrPath(t)
	}
	return nil, p.unexpected("expression")
}

func (p *parser) parseGroupExpr(g tokentree.Group) (Expr, error) {
	sp := p.sub(g)
	switch g.Delimiter {
	case tokentree.Brace:
		blk, err := p.parseBlock(g)
		if err != nil {
			return nil, err
		}
		return &BlockExpr{Block: blk}, nil
	case tokentree.Bracket:
		if sp.atEnd() {
			return &ArrayExpr{Lbrack: g.OpenSpan, Rbrack: g.CloseSpan}, nil
		}
		first, err := sp.parseExpr()
		if err != nil {
			return nil, err
		}
		if semi, ok := sp.eatOp(";"); ok {
			n, err := sp.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := sp.expectEnd(); err != nil {
				return nil, err
			}
			return &RepeatExpr{Elem: first, Semi: semi, Len: n, Lbrack: g.OpenSpan, Rbrack: g.CloseSpan}, nil
		}
		elems := []Expr{first}
		if !sp.atEnd() {
			if _, err := sp.expectOp(","); err != nil {
				return nil, err
			}
			rest, _, err := sp.parseList()
			if err != nil {
				return nil, err
			}
			elems = append(elems, rest...)
		}
		return &ArrayExpr{Elems: elems, Lbrack: g.OpenSpan, Rbrack: g.CloseSpan}, nil
	}
	elems, trailing, err := sp.parseList()
	if err != nil {
		return nil, err
	}
	if len(elems) == 1 && !trailing {
		return &ParenExpr{X: elems[0], Lparen: g.OpenSpan, Rparen: g.CloseSpan}, nil
	}
	return &TupleExpr{Elems: elems, Lparen: g.OpenSpan, Rparen: g.CloseSpan}, nil
}

func (p *parser) parseKeywordOrPath(t tokentree.Ident) (Expr, error) {
	switch t.Name {
	case "move":
		return p.parseClosure(nil)
	case "async":
		if p.atClosure() {
			return p.parseClosure(nil)
		}
		return p.parsePrefixedBlock()
	case "unsafe", "const":
		return p.parsePrefixedBlock()
	case "if":
		return p.parseIf()
	case "match":
		return p.parseMatch()
	case "while":
		return p.parseWhile(nil)
	case "loop":
		return p.parseLoop(nil)
	case "for":
		return p.parseFor(nil)
	case "let":
		return p.parseLetExpr()
	case "return":
		p.pos++
		r := &ReturnExpr{Return: t.Pos}
		if p.canStartExpr() {
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			r.X = x
		}
		return r, nil
	case "break":
		p.pos++
		b := &BreakExpr{Break: t.Pos}
		if p.peekOp() == "'" {
			b.Label = p.toks[p.pos : p.pos+2]
			p.pos += 2
		}
		if p.canStartExpr() {
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			b.X = x
		}
		return b, nil
	case "continue":
		p.pos++
		c := &ContinueExpr{Continue: t.Pos}
		if p.peekOp() == "'" {
			c.Label = p.toks[p.pos : p.pos+2]
			p.pos += 2
		}
		return c, nil
	}
	return p.parsePathExpr()
}

// atClosure reports whether the cursor is at `async? move? |`.
func (p *parser) atClosure() bool {
	i := 0
	if tokentree.IsIdent(p.peek(i), "async") {
		i++
	}
	if tokentree.IsIdent(p.peek(i), "move") {
		i++
	}
	return tokentree.IsPunct(p.peek(i), '|')
}

func (p *parser) parsePrefixedBlock() (Expr, error) {
	start := p.pos
	for {
		if _, ok := p.peek(0).(tokentree.Ident); !ok {
			break
		}
		p.pos++
	}
	g, ok := p.peekGroup(tokentree.Brace)
	if !ok {
		return nil, p.unexpected("`{`")
	}
	prefix := p.toks[start:p.pos]
	p.pos++
	blk, err := p.parseBlock(g)
	if err != nil {
		return nil, err
	}
	return &BlockExpr{Prefix: prefix, Block: blk}, nil
}

func (p *parser) parseLabeled() (Expr, error) {
	start := p.pos
	p.pos++ // '
	if _, err := p.expectIdent(); err != nil {
		return nil, err
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	label := p.toks[start:p.pos]
	switch {
	case p.peekIdent("while"):
		return p.parseWhile(label)
	case p.peekIdent("loop"):
		return p.parseLoop(label)
	case p.peekIdent("for"):
		return p.parseFor(label)
	}
	g, ok := p.peekGroup(tokentree.Brace)
	if !ok {
		return nil, p.unexpected("loop or block after label")
	}
	p.pos++
	blk, err := p.parseBlock(g)
	if err != nil {
		return nil, err
	}
	return &BlockExpr{Prefix: label, Block: blk}, nil
}

func (p *parser) parsePathExpr() (Expr, error) {
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	if p.peekOp() == "!" {
		if g, ok := p.peek(1).(tokentree.Group); ok {
			bang := p.next().(tokentree.Punct)
			p.pos++
			return &MacroExpr{Path: path, Bang: bang, Args: g}, nil
		}
	}
	if g, ok := p.peekGroup(tokentree.Brace); ok && !p.noStruct && looksLikeStruct(g) {
		p.pos++
		return p.parseStruct(path, g)
	}
	return &PathExpr{Path: path}, nil
}

// parsePath consumes `::`? ident (`::` ident | `::` <...>)*, or a qualified `<T as Trait>::...` path.
func (p *parser) parsePath() (tokentree.Stream, error) {
	start := p.pos
	switch p.peekOp() {
	case "<":
		if err := p.skipAngles(); err != nil {
			return nil, err
		}
		if _, err := p.expectOp("::"); err != nil {
			return nil, err
		}
	case "::":
		p.takeOp("::")
	}
	if _, err := p.expectIdent(); err != nil {
		return nil, err
	}
	for p.peekOp() == "::" {
		p.takeOp("::")
		if tokentree.IsPunct(p.peek(0), '<') {
			if err := p.skipAngles(); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := p.expectIdent(); err != nil {
			return nil, err
		}
	}
	return p.toks[start:p.pos], nil
}

// skipAngles consumes a balanced `<...>` run.
func (p *parser) skipAngles() error {
	if !tokentree.IsPunct(p.peek(0), '<') {
		return p.unexpected("`<`")
	}
	open := p.peek(0).Span()
	depth := 0
	for !p.atEnd() {
		t := p.next()
		punct, ok := t.(tokentree.Punct)
		if !ok {
			continue
		}
		switch punct.Char {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				return nil
			}
		case '-':
			// `->` inside `Fn(A) -> B`
			if punct.Spacing == tokentree.Joint && tokentree.IsPunct(p.peek(0), '>') {
				p.pos++
			}
		}
	}
	return p.errorf(open, "unclosed `<`")
}

func looksLikeStruct(g tokentree.Group) bool {
	s := g.Stream
	if len(s) == 0 {
		return true
	}
	if tokentree.IsPunct(s[0], '.') {
		return len(s) > 1 && tokentree.IsPunct(s[1], '.')
	}
	switch s[0].(type) {
	case tokentree.Ident, tokentree.Literal:
	default:
		return false
	}
	if len(s) == 1 || tokentree.IsPunct(s[1], ',') {
		return true
	}
	colon, ok := s[1].(tokentree.Punct)
	return ok && colon.Char == ':' && colon.Spacing == tokentree.Alone
}

func (p *parser) parseStruct(path tokentree.Stream, g tokentree.Group) (Expr, error) {
	sp := p.sub(g)
	st := &StructExpr{Path: path, Lbrace: g.OpenSpan, Rbrace: g.CloseSpan}
	for !sp.atEnd() {
		if span, ok := sp.eatOp(".."); ok {
			st.DotDot = span
			rest, err := sp.parseExpr()
			if err != nil {
				return nil, err
			}
			st.Rest = rest
			break
		}
		name := sp.peek(0)
		switch name.(type) {
		case tokentree.Ident, tokentree.Literal:
			sp.pos++
		default:
			return nil, sp.unexpected("field name")
		}
		f := &FieldValue{Name: name}
		if colon, ok := sp.eatOp(":"); ok {
			f.Colon = colon
			v, err := sp.parseExpr()
			if err != nil {
				return nil, err
			}
			f.Value = v
		}
		st.Fields = append(st.Fields, f)
		if sp.atEnd() {
			break
		}
		if _, err := sp.expectOp(","); err != nil {
			return nil, err
		}
	}
	if err := sp.expectEnd(); err != nil {
		return nil, err
	}
	return st, nil
}

// parseType consumes a type. Types are kept as tokens, so this only needs to find where one ends.
func (p *parser) parseType() (tokentree.Stream, error) {
	start := p.pos
	if err := p.skipType(); err != nil {
		return nil, err
	}
	return p.toks[start:p.pos], nil
}

func (p *parser) skipType() error {
	switch t := p.peek(0).(type) {
	case nil:
		return p.unexpected("type")
	case tokentree.Group:
		if t.Delimiter == tokentree.Brace {
			return p.unexpected("type")
		}
		p.pos++
		return nil
	case tokentree.Punct:
		switch p.peekOp() {
		case "&", "&&":
			p.takeOp(p.peekOp())
			if p.peekOp() == "'" {
				p.pos += 2
			}
			if p.peekIdent("mut") {
				p.pos++
			}
			return p.skipType()
		case "*":
			p.pos++
			if p.peekIdent("const") || p.peekIdent("mut") {
				p.pos++
			}
			return p.skipType()
		case "!":
			p.pos++
			return nil
		case "<", "::":
			_, err := p.parsePath()
			return err
		}
		return p.unexpected("type")
	case tokentree.Ident:
		switch t.Name {
		case "fn", "unsafe", "extern":
			for !p.peekIdent("fn") {
				if p.atEnd() {
					return p.unexpected("`fn`")
				}
				p.pos++
			}
			p.pos++
			if _, ok := p.peekGroup(tokentree.Parenthesis); !ok {
				return p.unexpected("`(`")
			}
			p.pos++
			return p.skipReturnType()
		case "impl", "dyn":
			p.pos++
			return p.skipBounds()
		}
		return p.skipTypePath()
	}
	return p.unexpected("type")
}

func (p *parser) skipReturnType() error {
	if _, ok := p.eatOp("->"); ok {
		return p.skipType()
	}
	return nil
}

func (p *parser) skipBounds() error {
	for {
		switch {
		case p.peekOp() == "'":
			p.pos += 2
		case p.peekOp() == "?":
			p.pos++
			if err := p.skipTypePath(); err != nil {
				return err
			}
		default:
			if _, ok := p.peekGroup(tokentree.Parenthesis); ok {
				p.pos++
			} else if err := p.skipTypePath(); err != nil {
				return err
			}
		}
		if _, ok := p.eatOp("+"); !ok {
			return nil
		}
	}
}

func (p *parser) skipTypePath() error {
	if _, err := p.parsePath(); err != nil {
		return err
	}
	for {
		if tokentree.IsPunct(p.peek(0), '<') && p.peekOp() == "<" {
			if err := p.skipAngles(); err != nil {
				return err
			}
			if p.peekOp() == "::" {
				p.takeOp("::")
				if _, err := p.parsePath(); err != nil {
					return err
				}
				continue
			}
		}
		break
	}
	// `Fn(A) -> B`
	if _, ok := p.peekGroup(tokentree.Parenthesis); ok {
		p.pos++
		return p.skipReturnType()
	}
	return nil
}

func (p *parser) parseAttrs() ([]Attribute, error) {
	var attrs []Attribute
	for p.peekOp() == "#" {
		pound := p.next().(tokentree.Punct)
		g, ok := p.peekGroup(tokentree.Bracket)
		if !ok {
			return nil, p.unexpected("`[`")
		}
		p.pos++
		attrs = append(attrs, Attribute{Pound: pound, Body: g})
	}
	return attrs, nil
}

func (p *parser) parseClosure(attrs []Attribute) (Expr, error) {
	c := &ClosureExpr{Attrs: attrs}
	if p.peekIdent("async") {
		id := p.next().(tokentree.Ident)
		c.Async = &id
	}
	if p.peekIdent("move") {
		id := p.next().(tokentree.Ident)
		c.Move = &id
	}
	if p.peekOp() == "||" {
		pipes, _ := p.takeOp("||")
		c.Lpipe, c.Rpipe = pipes[0].Span(), pipes[1].Span()
	} else {
		lpipe, err := p.expectOp("|")
		if err != nil {
			return nil, err
		}
		c.Lpipe = lpipe
		for p.peekOp() != "|" {
			param, err := p.parseParam()
			if err != nil {
				return nil, err
			}
			c.Params = append(c.Params, param)
			if _, ok := p.eatOp(","); !ok {
				break
			}
		}
		rpipe, err := p.expectOp("|")
		if err != nil {
			return nil, err
		}
		c.Rpipe = rpipe
	}
	if arrow, ok := p.eatOp("->"); ok {
		c.Arrow = arrow
		out, err := p.parseType()
		if err != nil {
			return nil, err
		}
		c.Output = out
		g, ok := p.peekGroup(tokentree.Brace)
		if !ok {
			return nil, p.unexpected("block after closure return type")
		}
		p.pos++
		blk, err := p.parseBlock(g)
		if err != nil {
			return nil, err
		}
		c.Body = &BlockExpr{Block: blk}
		return c, nil
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	c.Body = body
	return c, nil
}

func (p *parser) parseParam() (*Param, error) {
	pat := p.collect(func() bool {
		op := p.peekOp()
		return op == "," || op == "|" || op == ":"
	})
	if len(pat) == 0 {
		return nil, p.unexpected("closure parameter")
	}
	param := &Param{Pat: pat}
	if colon, ok := p.eatOp(":"); ok {
		param.Colon = colon
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		param.Type = typ
	}
	return param, nil
}

func (p *parser) parseBlockAfter(what string) (*Block, error) {
	g, ok := p.peekGroup(tokentree.Brace)
	if !ok {
		return nil, p.unexpected("`{` after " + what)
	}
	p.pos++
	return p.parseBlock(g)
}

func (p *parser) parseIf() (Expr, error) {
	e := &IfExpr{If: p.next().Span()}
	cond, err := p.parseNoStruct()
	if err != nil {
		return nil, err
	}
	e.Cond = cond
	if e.Then, err = p.parseBlockAfter("`if` condition"); err != nil {
		return nil, err
	}
	if !p.peekIdent("else") {
		return e, nil
	}
	e.ElseSpan = p.next().Span()
	if p.peekIdent("if") {
		e.Else, err = p.parseIf()
		return e, err
	}
	blk, err := p.parseBlockAfter("`else`")
	if err != nil {
		return nil, err
	}
	e.Else = &BlockExpr{Block: blk}
	return e, nil
}

func (p *parser) parseLetExpr() (Expr, error) {
	e := &LetExpr{Let: p.next().Span()}
	e.Pat = p.collect(func() bool { return p.peekOp() == "=" })
	eq, err := p.expectOp("=")
	if err != nil {
		return nil, err
	}
	e.Eq = eq
	// the scrutinee binds tighter than `&&` so let chains split correctly
	if e.X, err = p.parseBinary(binaryPrec["&&"] + 1); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) parseWhile(label tokentree.Stream) (Expr, error) {
	e := &WhileExpr{Label: label, While: p.next().Span()}
	cond, err := p.parseNoStruct()
	if err != nil {
		return nil, err
	}
	e.Cond = cond
	if e.Body, err = p.parseBlockAfter("`while` condition"); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) parseLoop(label tokentree.Stream) (Expr, error) {
	e := &LoopExpr{Label: label, Loop: p.next().Span()}
	var err error
	if e.Body, err = p.parseBlockAfter("`loop`"); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) parseFor(label tokentree.Stream) (Expr, error) {
	e := &ForExpr{Label: label, For: p.next().Span()}
	e.Pat = p.collect(func() bool { return p.peekIdent("in") })
	if !p.peekIdent("in") {
		return nil, p.unexpected("`in`")
	}
	e.In = p.next().Span()
	iter, err := p.parseNoStruct()
	if err != nil {
		return nil, err
	}
	e.Iter = iter
	if e.Body, err = p.parseBlockAfter("`for` iterator"); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) parseMatch() (Expr, error) {
	e := &MatchExpr{Match: p.next().Span()}
	x, err := p.parseNoStruct()
	if err != nil {
		return nil, err
	}
	e.X = x
	g, ok := p.peekGroup(tokentree.Brace)
	if !ok {
		return nil, p.unexpected("`{` after `match` scrutinee")
	}
	p.pos++
	e.Lbrace, e.Rbrace = g.OpenSpan, g.CloseSpan
	sp := p.sub(g)
	for !sp.atEnd() {
		arm, err := sp.parseArm()
		if err != nil {
			return nil, err
		}
		e.Arms = append(e.Arms, arm)
	}
	return e, nil
}

func (p *parser) parseArm() (*Arm, error) {
	attrs, err := p.parseAttrs()
	if err != nil {
		return nil, err
	}
	arm := &Arm{Attrs: attrs}
	arm.Pat = p.collect(func() bool { return p.peekOp() == "=>" || p.peekIdent("if") })
	if len(arm.Pat) == 0 {
		return nil, p.unexpected("pattern")
	}
	if p.peekIdent("if") {
		arm.If = p.next().Span()
		if arm.Guard, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if arm.Arrow, err = p.expectOp("=>"); err != nil {
		return nil, err
	}
	if arm.Body, err = p.parseExpr(); err != nil {
		return nil, err
	}
	if comma, ok := p.eatOp(","); ok {
		arm.Comma = &comma
	} else if !p.atEnd() && !IsBlockLike(arm.Body) {
		return nil, p.unexpected("`,`")
	}
	return arm, nil
}

func (p *parser) parseBlock(g tokentree.Group) (*Block, error) {
	sp := p.sub(g)
	blk := &Block{Lbrace: g.OpenSpan, Rbrace: g.CloseSpan}
	for !sp.atEnd() {
		if _, ok := sp.eatOp(";"); ok {
			continue
		}
		stmt, err := sp.parseStmt()
		if err != nil {
			return nil, err
		}
		blk.Stmts = append(blk.Stmts, stmt)
	}
	return blk, nil
}

func (p *parser) atItem() bool {
	t, ok := p.peek(0).(tokentree.Ident)
	if !ok {
		return false
	}
	if itemKeywords[t.Name] {
		return true
	}
	next := p.peek(1)
	switch t.Name {
	case "const", "union":
		_, ok := next.(tokentree.Ident)
		return ok
	case "unsafe", "async":
		for _, kw := range []string{"fn", "impl", "trait", "extern"} {
			if tokentree.IsIdent(next, kw) {
				return true
			}
		}
	case "macro_rules":
		return tokentree.IsPunct(next, '!')
	}
	return false
}

// parseItem consumes an item up to its body block or terminating `;`.
func (p *parser) parseItem(start int) Stmt {
	for !p.atEnd() {
		t := p.next()
		if tokentree.IsPunct(t, ';') {
			break
		}
		if g, ok := t.(tokentree.Group); ok && g.Delimiter == tokentree.Brace {
			p.eatOp(";")
			break
		}
	}
	return &ItemStmt{Item: p.toks[start:p.pos]}
}

func (p *parser) parseStmt() (Stmt, error) {
	start := p.pos
	if p.peekOp() == "#" && tokentree.IsPunct(p.peek(1), '!') {
		// inner attribute
		p.pos += 3
		return &ItemStmt{Item: p.toks[start:p.pos]}, nil
	}
	attrs, err := p.parseAttrs()
	if err != nil {
		return nil, err
	}
	if p.atItem() {
		return p.parseItem(start), nil
	}
	if p.peekIdent("let") {
		return p.parseLetStmt(attrs)
	}
	var x Expr
	if len(attrs) > 0 && p.atClosure() {
		// the attributes belong to the closure, not the statement
		x, err = p.parseClosure(attrs)
		attrs = nil
	} else {
		x, err = p.parseStmtExpr()
	}
	if err != nil {
		return nil, err
	}
	s := &ExprStmt{Attrs: attrs, X: x}
	if semi, ok := p.eatOp(";"); ok {
		s.Semi = &semi
		return s, nil
	}
	if p.atEnd() || IsBlockLike(x) || isBraceMacro(x) {
		return s, nil
	}
	return nil, p.unexpected("`;`")
}

func isBraceMacro(e Expr) bool {
	m, ok := e.(*MacroExpr)
	return ok && m.Args.Delimiter == tokentree.Brace
}

// parseStmtExpr parses an expression statement. A block-like expression at the
// start of a statement ends there unless a method call or `?` follows.
func (p *parser) parseStmtExpr() (Expr, error) {
	if !p.atBlockLike() {
		return p.parseExpr()
	}
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if op := p.peekOp(); op == "." || op == "?" {
		if x, err = p.parsePostfix(x); err != nil {
			return nil, err
		}
	}
	return x, nil
}

func (p *parser) atBlockLike() bool {
	switch t := p.peek(0).(type) {
	case tokentree.Group:
		return t.Delimiter == tokentree.Brace
	case tokentree.Punct:
		return t.Char == '\''
	case tokentree.Ident:
		switch t.Name {
		case "if", "match", "while", "loop", "for":
			return true
		case "unsafe", "const":
			_, ok := p.peek(1).(tokentree.Group)
			return ok
		case "async":
			return !p.atClosure()
		}
	}
	return false
}

func (p *parser) parseLetStmt(attrs []Attribute) (Stmt, error) {
	s := &LetStmt{Attrs: attrs, Let: p.next().Span()}
	s.Pat = p.collect(func() bool {
		op := p.peekOp()
		return op == ":" || op == "=" || op == ";"
	})
	if len(s.Pat) == 0 {
		return nil, p.unexpected("pattern")
	}
	var err error
	if colon, ok := p.eatOp(":"); ok {
		s.Colon = colon
		if s.Type, err = p.parseType(); err != nil {
			return nil, err
		}
	}
	if eq, ok := p.eatOp("="); ok {
		s.Eq = eq
		if s.Init, err = p.parseExpr(); err != nil {
			return nil, err
		}
		if p.peekIdent("else") {
			s.ElseSpan = p.next().Span()
			if s.Else, err = p.parseBlockAfter("`else`"); err != nil {
				return nil, err
			}
		}
	}
	if s.Semi, err = p.expectOp(";"); err != nil {
		return nil, err
	}
	return s, nil
}
