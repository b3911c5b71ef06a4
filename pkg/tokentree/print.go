package tokentree

import (
	"strings"
	"unicode"
)

// keywords that never end an operand. `self`, `true` and friends are absent on purpose.
var keywords = map[string]bool{
	"as": true, "async": true, "break": true, "const": true, "continue": true, "dyn": true,
	"else": true, "enum": true, "extern": true, "fn": true, "for": true, "if": true,
	"impl": true, "in": true, "let": true, "loop": true, "match": true, "mod": true,
	"move": true, "mut": true, "pub": true, "ref": true, "return": true, "static": true,
	"struct": true, "trait": true, "type": true, "unsafe": true, "use": true,
	"where": true, "while": true, "yield": true,
}

// IsKeyword reports whether name is a reserved word of the host language.
func IsKeyword(name string) bool {
	return keywords[name]
}

// Print renders a stream as a single line of source text.
//
// Spacing is a pure function of the tokens, so printing the same stream always yields
// the same text, and re-lexing the text yields the same tokens.
func Print(s Stream) string {
	var b strings.Builder
	printStream(&b, s)
	return b.String()
}

// operatorPairs are the two-character prefixes of multi-character operators.
var operatorPairs = map[string]bool{
	"::": true, "->": true, "=>": true, "==": true, "!=": true, "<=": true, ">=": true,
	"&&": true, "||": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"^=": true, "&=": true, "|=": true, "<<": true, ">>": true, "..": true, ".=": true,
}

// glues reports whether a and b print without a space because they form one
// operator or a lifetime.
func glues(a, b Tree) bool {
	p, ok := a.(Punct)
	if !ok || p.Spacing != Joint {
		return false
	}
	switch q := b.(type) {
	case Ident:
		return p.Char == '\''
	case Punct:
		return operatorPairs[string([]byte{p.Char, q.Char})]
	}
	return false
}

type printState struct {
	prev         Tree
	prefix       bool // prev was a prefix operator: `!x`, `&x`, `-1`, `#[..]`
	pathSep      bool // prev ended a `::`
	genericOpen  bool // prev was a `<` opening generic arguments
	genericClose bool // prev was a `>` closing generic arguments
	macroBang    bool // prev was the `!` of a macro call
	pipeOpen     bool // prev opened closure parameters
	inParams     bool
	genericDepth int
}

func printStream(b *strings.Builder, s Stream) {
	var st printState

	for i, cur := range s {
		var next Tree
		if i+1 < len(s) {
			next = s[i+1]
		}
		glued := st.prev != nil && glues(st.prev, cur)

		if st.needSpace(cur, next, glued) {
			b.WriteByte(' ')
		}

		if g, ok := cur.(Group); ok {
			printGroup(b, g)
		} else {
			b.WriteString(cur.String())
		}

		st.advance(cur, next, glued)
	}
}

func printGroup(b *strings.Builder, g Group) {
	b.WriteString(g.Delimiter.Open())
	if g.Delimiter == Brace && len(g.Stream) > 0 {
		b.WriteByte(' ')
		printStream(b, g.Stream)
		b.WriteByte(' ')
	} else {
		printStream(b, g.Stream)
	}
	b.WriteString(g.Delimiter.Close())
}

func (st *printState) endsOperand() bool {
	switch p := st.prev.(type) {
	case Ident:
		return !keywords[p.Name]
	case Literal:
		return true
	case Group:
		return p.Delimiter != Brace
	case Punct:
		return p.Char == '?' || st.genericClose
	}
	return false
}

func (st *printState) needSpace(cur, next Tree, glued bool) bool {
	if st.prev == nil || glued || st.prefix || st.pipeOpen || st.pathSep || st.genericOpen {
		return false
	}
	if IsPunct(st.prev, '.') {
		return false
	}

	switch c := cur.(type) {
	case Punct:
		switch c.Char {
		case ',', ';', '?':
			return false
		case '.', ':':
			return !st.endsOperand()
		case '|':
			return !st.inParams
		case '!':
			if _, isGroup := next.(Group); isGroup {
				if id, ok := st.prev.(Ident); ok && !keywords[id.Name] {
					return false
				}
			}
		case '>':
			if st.genericDepth > 0 {
				return false
			}
		case '<':
			if st.opensGeneric() && !glues(c, next) {
				return false
			}
		}
	case Group:
		if c.Delimiter == Brace {
			return true
		}
		return !st.endsOperand() && !st.macroBang
	}

	return true
}

func (st *printState) opensGeneric() bool {
	if st.pathSep {
		return true
	}
	id, ok := st.prev.(Ident)
	if !ok || id.Name == "" {
		return false
	}
	return unicode.IsUpper([]rune(id.Name)[0])
}

func (st *printState) advance(cur, next Tree, glued bool) {
	wasOperand := st.endsOperand()
	gluesNext := next != nil && glues(cur, next)

	prefix, pathSep, genericOpen, genericClose, macroBang, pipeOpen := false, false, false, false, false, false

	if p, ok := cur.(Punct); ok {
		switch p.Char {
		case '#':
			prefix = true
		case '!', '&', '*', '-':
			prefix = !glued && !gluesNext && !wasOperand
			if p.Char == '!' && wasOperand {
				_, isGroup := next.(Group)
				_, afterIdent := st.prev.(Ident)
				macroBang = isGroup && afterIdent
			}
		case ':':
			pathSep = glued && IsPunct(st.prev, ':')
		case '<':
			if !glued && !gluesNext && st.opensGeneric() {
				genericOpen = true
				st.genericDepth++
			}
		case '>':
			if st.genericDepth > 0 && !(glued && (IsPunct(st.prev, '-') || IsPunct(st.prev, '='))) {
				genericClose = true
				st.genericDepth--
			}
		case '|':
			switch {
			case st.inParams:
				st.inParams = false
			case !glued && !gluesNext && !wasOperand:
				pipeOpen = true
				st.inParams = true
			}
		}
	}

	st.prev = cur
	st.prefix = prefix
	st.pathSep = pathSep
	st.genericOpen = genericOpen
	st.genericClose = genericClose
	st.macroBang = macroBang
	st.pipeOpen = pipeOpen
}
