package capture

import (
	"fmt"

	"github.com/walteh/clown/pkg/position"
)

// ShapeError reports an annotated item that is not a closure expression.
type ShapeError struct {
	Span position.Span
	// Found describes what was annotated instead.
	Found string
	// Err is the parse failure when the item is not an expression at all.
	Err error
}

func (e *ShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: expected a closure expression, found %s: %v", e.Span, e.Found, e.Err)
	}
	return fmt.Sprintf("%s: expected a closure expression, found %s", e.Span, e.Found)
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}

// MarkerArgumentParseError reports a marker whose argument is not exactly one expression.
type MarkerArgumentParseError struct {
	Kind Kind
	Span position.Span
	Err  error
}

func (e *MarkerArgumentParseError) Error() string {
	return fmt.Sprintf("%s: %s! argument must be an expression: %v", e.Span, e.Kind.Keyword(), e.Err)
}

func (e *MarkerArgumentParseError) Unwrap() error {
	return e.Err
}
