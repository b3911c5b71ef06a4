package tokentree

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes one line per token tree, indenting group contents.
func Dump(w io.Writer, s Stream) error {
	return dump(w, s, 0)
}

func dump(w io.Writer, s Stream, depth int) error {
	indent := strings.Repeat("  ", depth)
	for _, t := range s {
		var err error
		switch t := t.(type) {
		case Group:
			_, err = fmt.Fprintf(w, "%sgroup %s %s [%s]\n", indent, t.Delimiter, t.Delimiter.Open()+t.Delimiter.Close(), t.Span())
			if err == nil {
				err = dump(w, t.Stream, depth+1)
			}
		case Ident:
			_, err = fmt.Fprintf(w, "%sident %s [%s]\n", indent, t.Name, t.Pos)
		case Punct:
			spacing := "alone"
			if t.Spacing == Joint {
				spacing = "joint"
			}
			_, err = fmt.Fprintf(w, "%spunct %c %s [%s]\n", indent, t.Char, spacing, t.Pos)
		case Literal:
			_, err = fmt.Fprintf(w, "%sliteral %s [%s]\n", indent, t.Text, t.Pos)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
