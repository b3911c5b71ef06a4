package capture

import (
	"github.com/walteh/clown/pkg/tokentree"
)

// scan replaces every marker call in s with its generated name. Groups are always
// entered, closures included: at the token level nothing is known about them.
func (t *Table) scan(s tokentree.Stream) (tokentree.Stream, error) {
	out := make(tokentree.Stream, 0, len(s))

	for i := 0; i < len(s); i++ {
		switch tree := s[i].(type) {
		case tokentree.Group:
			inner, err := t.scan(tree.Stream)
			if err != nil {
				return nil, err
			}
			tree.Stream = inner
			out = append(out, tree)

		case tokentree.Ident:
			m, ok := markerAt(s, i)
			if !ok {
				out = append(out, tree)
				continue
			}
			name, err := t.Register(m)
			if err != nil {
				return nil, err
			}
			out = append(out, name)
			// keyword, `!` and the argument group
			i += 2

		default:
			out = append(out, tree)
		}
	}

	return out, nil
}

// markerAt matches `honk` `!` group or `slip` `!` group starting at s[i]. A keyword
// without both is an ordinary identifier.
func markerAt(s tokentree.Stream, i int) (Marker, bool) {
	id, ok := s[i].(tokentree.Ident)
	if !ok {
		return Marker{}, false
	}
	kind, ok := KindForKeyword(id.Name)
	if !ok || i+2 >= len(s) || !tokentree.IsPunct(s[i+1], '!') {
		return Marker{}, false
	}
	args, ok := s[i+2].(tokentree.Group)
	if !ok {
		return Marker{}, false
	}
	return Marker{Kind: kind, Args: args, Span: id.Pos.Cover(args.Span())}, true
}
