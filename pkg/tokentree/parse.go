package tokentree

import (
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clown/pkg/lexer"
	"github.com/walteh/clown/pkg/position"
)

// Error reports unbalanced delimiters.
type Error struct {
	Span position.Span
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

var delimiters = map[string]Delimiter{
	"(": Parenthesis, ")": Parenthesis,
	"[": Bracket, "]": Bracket,
	"{": Brace, "}": Brace,
}

// Parse lexes src and nests the tokens into a stream of token trees.
func Parse(filename, src string) (Stream, error) {
	tokens, err := lexer.Lex(filename, src)
	if err != nil {
		return nil, err
	}
	return Build(tokens)
}

// Build nests flat tokens into groups and assigns punctuation spacing.
func Build(tokens []lexer.Token) (Stream, error) {
	type frame struct {
		open   lexer.Token
		stream Stream
	}

	stack := []*frame{{}}

	for i, tok := range tokens {
		top := stack[len(stack)-1]

		switch tok.Kind {
		case lexer.Open:
			stack = append(stack, &frame{open: tok})

		case lexer.Close:
			if len(stack) == 1 {
				return nil, errors.WithStack(&Error{Span: tok.Span, Msg: "unexpected closing delimiter `" + tok.Text + "`"})
			}
			delim := delimiters[tok.Text]
			if delimiters[top.open.Text] != delim {
				return nil, errors.WithStack(&Error{
					Span: tok.Span,
					Msg:  "mismatched closing delimiter `" + tok.Text + "` for `" + top.open.Text + "`",
				})
			}
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			parent.stream = append(parent.stream, Group{
				Delimiter: delim,
				Stream:    top.stream,
				OpenSpan:  top.open.Span,
				CloseSpan: tok.Span,
			})

		case lexer.Ident:
			top.stream = append(top.stream, NewIdent(tok.Text, tok.Span))

		case lexer.Literal:
			top.stream = append(top.stream, NewLiteral(tok.Text, tok.Span))

		case lexer.Lifetime:
			quote := position.NewSpan(tok.Span.Start, tok.Span.Start+1)
			top.stream = append(top.stream,
				NewPunct('\'', Joint, quote),
				NewIdent(tok.Text[1:], position.NewSpan(quote.End, tok.Span.End)),
			)

		case lexer.Punct:
			spacing := Alone
			if i+1 < len(tokens) {
				next := tokens[i+1]
				if (next.Kind == lexer.Punct || next.Kind == lexer.Lifetime) && next.Span.Start == tok.Span.End {
					spacing = Joint
				}
			}
			top.stream = append(top.stream, NewPunct(tok.Text[0], spacing, tok.Span))
		}
	}

	if len(stack) > 1 {
		open := stack[len(stack)-1].open
		return nil, errors.WithStack(&Error{Span: open.Span, Msg: "unclosed delimiter `" + open.Text + "`"})
	}

	return stack[0].stream, nil
}
