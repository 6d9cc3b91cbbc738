package parser

import (
	"errors"
	"fmt"

	"github.com/robinvdvleuten/beancount-forecast/ast"
)

// ParseError represents a syntax error during parsing.
type ParseError struct {
	Pos        ast.Position
	Message    string
	Underlying error
}

func (e *ParseError) Error() string {
	location := fmt.Sprintf("%s:%d", e.Pos.Filename, e.Pos.Line)
	if e.Pos.Filename == "" {
		location = fmt.Sprintf("line %d", e.Pos.Line)
	}

	return fmt.Sprintf("%s: %s", location, e.Message)
}

func (e *ParseError) GetPosition() ast.Position {
	return e.Pos
}

func (e *ParseError) GetDirective() ast.Directive {
	return nil
}

func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// NewParseError wraps err as a ParseError for filename. Errors that already
// are parse errors keep their position.
func NewParseError(filename string, err error) *ParseError {
	var perr *ParseError
	if errors.As(err, &perr) {
		if perr.Pos.Filename == "" {
			perr.Pos.Filename = filename
		}
		return perr
	}

	return &ParseError{
		Pos: ast.Position{
			Filename: filename,
			Line:     1,
			Column:   1,
		},
		Message:    err.Error(),
		Underlying: err,
	}
}

func newErrorf(pos ast.Position, format string, args ...any) *ParseError {
	return &ParseError{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	}
}
