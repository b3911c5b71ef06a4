// Package diagnostic turns expansion errors into positioned messages.
package diagnostic

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clown/pkg/capture"
	"github.com/walteh/clown/pkg/lexer"
	"github.com/walteh/clown/pkg/position"
	"github.com/walteh/clown/pkg/syntax"
	"github.com/walteh/clown/pkg/tokentree"
)

// Diagnostics represents diagnostic information that can be formatted in different ways
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Hints    []Diagnostic
}

// Add records diag under its severity.
func (d *Diagnostics) Add(diag Diagnostic) {
	switch diag.Severity {
	case Warning:
		d.Warnings = append(d.Warnings, diag)
	case Info, Hint:
		d.Hints = append(d.Hints, diag)
	default:
		d.Errors = append(d.Errors, diag)
	}
}

// Merge appends every diagnostic of other.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Hints = append(d.Hints, other.Hints...)
}

func (d *Diagnostics) Empty() bool {
	return len(d.Errors)+len(d.Warnings)+len(d.Hints) == 0
}

// Diagnostic represents a single diagnostic message
type Diagnostic struct {
	File     string
	Message  string
	Line     int
	Column   int
	EndLine  int
	EndCol   int
	Span     position.Span
	Severity DiagnosticSeverity
}

// DiagnosticSeverity represents the severity level of a diagnostic
type DiagnosticSeverity string

const (
	Error   DiagnosticSeverity = "error"
	Warning DiagnosticSeverity = "warning"
	Info    DiagnosticSeverity = "info"
	Hint    DiagnosticSeverity = "hint"
)

// FromError converts err into error diagnostics against src. A *multierror.Error
// yields one diagnostic per wrapped error. Errors that carry no span are reported at
// the start of the file.
func FromError(filename, src string, err error) *Diagnostics {
	out := &Diagnostics{}
	if err == nil {
		return out
	}

	errs := []error{err}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		errs = merr.Errors
	}

	for _, e := range errs {
		span, msg := describe(e)
		rng := span.Range(src)
		out.Add(Diagnostic{
			File:     filename,
			Message:  msg,
			Line:     rng.Start.Line,
			Column:   rng.Start.Character,
			EndLine:  rng.End.Line,
			EndCol:   rng.End.Character,
			Span:     span,
			Severity: Error,
		})
	}

	return out
}

// describe finds the most specific error in the chain. The expander errors come first
// because they wrap the parse error that caused them.
func describe(err error) (position.Span, string) {
	var (
		argErr   *capture.MarkerArgumentParseError
		shapeErr *capture.ShapeError
		parseErr *syntax.ParseError
		treeErr  *tokentree.Error
		lexErr   *lexer.Error
	)

	switch {
	case errors.As(err, &argErr):
		msg := fmt.Sprintf("`%s!` argument must be a single expression", argErr.Kind.Keyword())
		if errors.As(argErr.Err, &parseErr) {
			msg += ": " + parseErr.Msg
		}
		return argErr.Span, msg
	case errors.As(err, &shapeErr):
		return shapeErr.Span, "expected a closure expression, found " + shapeErr.Found
	case errors.As(err, &parseErr):
		return parseErr.Span, parseErr.Msg
	case errors.As(err, &treeErr):
		return treeErr.Span, treeErr.Msg
	case errors.As(err, &lexErr):
		return lexErr.Span, lexErr.Msg
	}
	return position.Span{}, err.Error()
}

// Formatter formats diagnostics into different output formats
type Formatter interface {
	// Format formats diagnostics into a specific output format
	Format(diagnostics *Diagnostics) ([]byte, error)
}

// VSCodeFormatter formats diagnostics into VSCode-compatible format
type VSCodeFormatter struct{}

// NewVSCodeFormatter creates a new VSCodeFormatter
func NewVSCodeFormatter() *VSCodeFormatter {
	return &VSCodeFormatter{}
}

type vscodePosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type vscodeRange struct {
	Start vscodePosition `json:"start"`
	End   vscodePosition `json:"end"`
}

type vscodeDiagnostic struct {
	File     string      `json:"file"`
	Severity int         `json:"severity"`
	Message  string      `json:"message"`
	Range    vscodeRange `json:"range"`
}

// Format implements Formatter
func (f *VSCodeFormatter) Format(diagnostics *Diagnostics) ([]byte, error) {
	if diagnostics == nil {
		return nil, errors.Errorf("diagnostics is nil")
	}

	// VSCode severities: Error = 1, Warning = 2, Information = 3, Hint = 4
	result := []vscodeDiagnostic{}
	for _, group := range []struct {
		diags    []Diagnostic
		severity int
	}{
		{diagnostics.Errors, 1},
		{diagnostics.Warnings, 2},
		{diagnostics.Hints, 4},
	} {
		for _, d := range group.diags {
			result = append(result, vscodeDiagnostic{
				File:     d.File,
				Severity: group.severity,
				Message:  d.Message,
				Range: vscodeRange{
					// VSCode is 0-based
					Start: vscodePosition{Line: d.Line - 1, Character: d.Column - 1},
					End:   vscodePosition{Line: d.EndLine - 1, Character: d.EndCol - 1},
				},
			})
		}
	}

	return json.Marshal(result)
}
