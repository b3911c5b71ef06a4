// Package lexer splits source text into flat tokens using participle lexer rules.
package lexer

import (
	"github.com/alecthomas/participle/v2/lexer"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clown/pkg/position"
)

var (
	// Rules are tried in order, so longer and more specific patterns come first.
	Rules = []lexer.SimpleRule{
		{Name: "whitespace", Pattern: `\s+`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "BlockComment", Pattern: `/\*(?s:.*?)\*/`},
		{Name: "RawString", Pattern: `b?r"[^"]*"|b?r#"(?s:.*?)"#|b?r##"(?s:.*?)"##|b?r###"(?s:.*?)"###`},
		{Name: "RawIdent", Pattern: `r#[\p{L}_][\p{L}\p{N}_]*`},
		{Name: "String", Pattern: `b?"(?:[^"\\]|\\(?s:.))*"`},
		{Name: "Char", Pattern: `b?'(?:[^'\\\n]|\\(?:x[0-9a-fA-F]{2}|u\{[0-9a-fA-F]{1,6}\}|.))'`},
		{Name: "Lifetime", Pattern: `'[\p{L}_][\p{L}\p{N}_]*`},
		{Name: "Number", Pattern: `(?:0x[0-9a-fA-F_]+|0o[0-7_]+|0b[01_]+|[0-9][0-9_]*(?:\.[0-9][0-9_]*)?(?:[eE][+-]?[0-9_]+)?)(?:[iu](?:8|16|32|64|128|size)|f32|f64)?`},
		{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
		{Name: "Open", Pattern: `[(\[{]`},
		{Name: "Close", Pattern: `[)\]}]`},
		{Name: "Punct", Pattern: `[-+*/%^!&|=<>@.,;:#$?~\\]`},
	}

	// SourceLexer is the lexer definition shared by every Lex call.
	SourceLexer = lexer.MustSimple(Rules)
)

// Kind classifies a token.
type Kind int

const (
	Ident Kind = iota
	Punct
	Literal
	Lifetime
	Open
	Close
)

func (k Kind) String() string {
	switch k {
	case Ident:
		return "ident"
	case Punct:
		return "punct"
	case Literal:
		return "literal"
	case Lifetime:
		return "lifetime"
	case Open:
		return "open"
	case Close:
		return "close"
	}
	return "unknown"
}

// Token is a significant token: whitespace and comments are dropped.
type Token struct {
	Kind Kind
	Text string
	Span position.Span
}

// Error reports text the lexer could not match.
type Error struct {
	Filename string
	Span     position.Span
	Msg      string
}

func (e *Error) Error() string {
	return e.Filename + ": " + e.Msg
}

// Lex tokenizes src. The filename is only used in error messages.
func Lex(filename, src string) ([]Token, error) {
	lex, err := SourceLexer.LexString(filename, src)
	if err != nil {
		return nil, errors.Errorf("creating lexer: %w", err)
	}

	symbols := SourceLexer.Symbols()
	kinds := map[lexer.TokenType]Kind{
		symbols["Ident"]:     Ident,
		symbols["RawIdent"]:  Ident,
		symbols["Punct"]:     Punct,
		symbols["RawString"]: Literal,
		symbols["String"]:    Literal,
		symbols["Char"]:      Literal,
		symbols["Number"]:    Literal,
		symbols["Lifetime"]:  Lifetime,
		symbols["Open"]:      Open,
		symbols["Close"]:     Close,
	}

	var tokens []Token
	for {
		tok, err := lex.Next()
		if err != nil {
			lexErr := &Error{Filename: filename, Msg: err.Error()}
			var perr *lexer.Error
			if errors.As(err, &perr) {
				lexErr.Span = position.NewSpan(perr.Pos.Offset, perr.Pos.Offset+1)
				lexErr.Msg = perr.Msg
			}
			return nil, errors.WithStack(lexErr)
		}
		if tok.EOF() {
			return tokens, nil
		}

		kind, ok := kinds[tok.Type]
		if !ok {
			// whitespace and comments
			continue
		}

		tokens = append(tokens, Token{
			Kind: kind,
			Text: tok.Value,
			Span: position.NewSpan(tok.Pos.Offset, tok.Pos.Offset+len(tok.Value)),
		})
	}
}
