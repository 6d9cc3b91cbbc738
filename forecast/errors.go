package forecast

import (
	"errors"
	"fmt"

	"github.com/robinvdvleuten/beancount-forecast/ast"
)

// Kind classifies a forecast error.
type Kind int

const (
	// UnknownInterval is an interval keyword outside DAILY, WEEKLY, MONTHLY, YEARLY.
	UnknownInterval Kind = iota + 1
	// InvalidDate is an UNTIL date that is not a valid YYYY-MM-DD calendar date.
	InvalidDate
	// InvalidCount is a REPEAT or SKIP count that is not an integer in range.
	InvalidCount
	// ConflictingBounds is a directive with both UNTIL and REPEAT, or a repeated clause.
	ConflictingBounds
	// MalformedDirective is a directive with unexpected or missing words.
	MalformedDirective
	// MultipleDirectives is a narration carrying more than one directive.
	MultipleDirectives
	// MissingHorizon is an unbounded rule expanded without a horizon.
	MissingHorizon
)

func (k Kind) String() string {
	switch k {
	case UnknownInterval:
		return "unknown-interval"
	case InvalidDate:
		return "invalid-date"
	case InvalidCount:
		return "invalid-count"
	case ConflictingBounds:
		return "conflicting-bounds"
	case MalformedDirective:
		return "malformed-directive"
	case MultipleDirectives:
		return "multiple-directives"
	case MissingHorizon:
		return "missing-horizon"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText renders the kind by name in JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseError is returned when a recurrence directive cannot be parsed.
type ParseError struct {
	Kind      Kind
	Directive string // Directive text as written
	Message   string
	Err       error
}

func (e *ParseError) Error() string {
	if e.Directive == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid forecast directive %q: %s", e.Directive, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(kind Kind, directive, format string, args ...any) *ParseError {
	return &ParseError{
		Kind:      kind,
		Directive: directive,
		Message:   fmt.Sprintf(format, args...),
	}
}

// GenerationError is returned when a valid rule cannot produce occurrences.
type GenerationError struct {
	Kind    Kind
	Rule    *Rule
	Message string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("cannot generate occurrences for %s: %s", e.Rule, e.Message)
}

// KindOf returns the kind of a ParseError or GenerationError in err's chain,
// or 0 when there is none.
func KindOf(err error) Kind {
	var perr *ParseError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	var gerr *GenerationError
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return 0
}

// Diagnostic reports a template that could not be expanded. The template is
// still part of the output as a plain transaction.
type Diagnostic struct {
	Kind     Kind
	Pos      ast.Position
	Template *ast.Transaction
	Message  string
	Err      error
}

func (d *Diagnostic) Error() string {
	location := fmt.Sprintf("%s:%d", d.Pos.Filename, d.Pos.Line)
	if d.Pos.Filename == "" {
		location = d.Template.Date.String()
	}
	return fmt.Sprintf("%s: %s", location, d.Message)
}

func (d *Diagnostic) Unwrap() error {
	return d.Err
}

func (d *Diagnostic) GetPosition() ast.Position {
	return d.Pos
}

func (d *Diagnostic) GetDirective() ast.Directive {
	return d.Template
}

func newDiagnostic(template *ast.Transaction, err error) *Diagnostic {
	return &Diagnostic{
		Kind:     KindOf(err),
		Pos:      template.Pos,
		Template: template,
		Message:  err.Error(),
		Err:      err,
	}
}

// Diagnostics is the list of problems collected during one expansion pass.
type Diagnostics []*Diagnostic

// Errors returns the diagnostics as a slice of errors for the error renderers.
func (ds Diagnostics) Errors() []error {
	errs := make([]error, len(ds))
	for i, d := range ds {
		errs[i] = d
	}
	return errs
}

// Err joins all diagnostics into one error, or returns nil when there are none.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	return errors.Join(ds.Errors()...)
}
