// Package errors renders ledger and forecast errors for people and programs.
// Domain error types stay in their packages (parser, forecast, autoaccounts),
// this package only handles presentation.
//
// Two renderers are provided:
//   - TextFormatter: bean-check style output for the command line
//   - JSONFormatter: structured output for the HTTP API and --format json
package errors

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/robinvdvleuten/beancount-forecast/ast"
	"github.com/robinvdvleuten/beancount-forecast/autoaccounts"
	"github.com/robinvdvleuten/beancount-forecast/forecast"
	"github.com/robinvdvleuten/beancount-forecast/formatter"
)

// Formatter formats errors for output in different formats.
type Formatter interface {
	// Format formats a single error.
	Format(err error) string

	// FormatAll formats multiple errors.
	FormatAll(errs []error) string
}

type positioned interface {
	error
	GetPosition() ast.Position
}

type withDirective interface {
	positioned
	GetDirective() ast.Directive
}

// TextFormatter formats errors for command-line output in bean-check style.
type TextFormatter struct {
	formatter *formatter.Formatter
	sources   map[string][]byte // Source content by filename, for error context
}

// TextFormatterOption is an option for configuring TextFormatter.
type TextFormatterOption func(*TextFormatter)

// WithSource registers the content of filename so positional errors without
// a directive can show the surrounding lines.
func WithSource(filename string, source []byte) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.sources[filename] = source
	}
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(f *formatter.Formatter, opts ...TextFormatterOption) *TextFormatter {
	if f == nil {
		f = formatter.New()
	}
	tf := &TextFormatter{formatter: f, sources: make(map[string][]byte)}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

// Format formats a single error in bean-check style.
func (tf *TextFormatter) Format(err error) string {
	if e, ok := err.(withDirective); ok && e.GetDirective() != nil {
		return tf.formatWithDirective(e.Error(), e.GetDirective())
	}

	if e, ok := err.(positioned); ok {
		pos := e.GetPosition()
		if source, ok := tf.sources[pos.Filename]; ok && pos.Line > 0 {
			return formatWithSourceContext(pos, e.Error(), source)
		}
	}

	return err.Error()
}

// FormatAll formats multiple errors, separating them with blank lines.
func (tf *TextFormatter) FormatAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf bytes.Buffer
	for i, err := range errs {
		buf.WriteString(tf.Format(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// formatWithSourceContext shows the message followed by the source lines
// around pos, with a caret under the offending column.
func formatWithSourceContext(pos ast.Position, message string, source []byte) string {
	var buf bytes.Buffer

	buf.WriteString(message)
	buf.WriteString("\n\n")

	lines := strings.Split(string(source), "\n")

	// Two lines before and one after, 0-based.
	start := max(pos.Line-3, 0)
	end := min(pos.Line, len(lines)-1)

	for i := start; i <= end; i++ {
		buf.WriteString("   ")
		buf.WriteString(lines[i])
		buf.WriteByte('\n')

		if i == pos.Line-1 && pos.Column > 0 {
			buf.WriteString("   ")
			buf.WriteString(strings.Repeat(" ", pos.Column-1))
			buf.WriteString("^\n")
		}
	}

	return buf.String()
}

// formatWithDirective shows the message followed by the offending directive,
// rendered by the ledger formatter and indented by three spaces.
func (tf *TextFormatter) formatWithDirective(message string, directive ast.Directive) string {
	var buf bytes.Buffer

	buf.WriteString(message)
	buf.WriteString("\n\n")

	var rendered bytes.Buffer
	f := formatter.New(
		formatter.WithCurrencyColumn(tf.formatter.CurrencyColumn),
		formatter.WithIndentation(tf.formatter.Indentation),
	)
	if err := f.FormatDirectives(context.Background(), ast.Directives{directive}, &rendered); err != nil {
		return message
	}

	for _, line := range strings.Split(rendered.String(), "\n") {
		if line == "" {
			continue
		}
		buf.WriteString("   ")
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	return buf.String()
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON represents an error in JSON format.
type ErrorJSON struct {
	Type     string            `json:"type" yaml:"type"`
	Kind     string            `json:"kind,omitempty" yaml:"kind,omitempty"`
	Message  string            `json:"message" yaml:"message"`
	Position *PositionJSON     `json:"position,omitempty" yaml:"position,omitempty"`
	Details  map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
}

// PositionJSON represents a file position in JSON format.
type PositionJSON struct {
	Filename string `json:"filename" yaml:"filename"`
	Line     int    `json:"line" yaml:"line"`
	Column   int    `json:"column" yaml:"column"`
}

// Format formats a single error as JSON.
func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.ToJSON(err))
	return string(data)
}

// FormatAll formats multiple errors as a JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	data, _ := json.MarshalIndent(jf.FormatAllToSlice(errs), "", "  ")
	return string(data)
}

// FormatAllToSlice returns errors as a slice of ErrorJSON structs.
func (jf *JSONFormatter) FormatAllToSlice(errs []error) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		result = append(result, jf.ToJSON(err))
	}
	return result
}

// ToJSON converts an error to its structured form.
func (jf *JSONFormatter) ToJSON(err error) ErrorJSON {
	errJSON := ErrorJSON{
		Type:    "error",
		Message: err.Error(),
	}

	if e, ok := err.(positioned); ok {
		if pos := e.GetPosition(); !pos.IsZero() {
			errJSON.Position = &PositionJSON{
				Filename: pos.Filename,
				Line:     pos.Line,
				Column:   pos.Column,
			}
		}
	}

	var (
		diag   *forecast.Diagnostic
		closed *autoaccounts.ClosedAccountError
	)
	switch {
	case stderrors.As(err, &diag):
		errJSON.Type = "forecast"
		errJSON.Kind = diag.Kind.String()
		errJSON.Message = diag.Message
		errJSON.Details = map[string]string{
			"date":      diag.Template.Date.String(),
			"narration": diag.Template.Narration,
		}
		if diag.Template.Payee != "" {
			errJSON.Details["payee"] = diag.Template.Payee
		}
	case stderrors.As(err, &closed):
		errJSON.Type = "validation"
		errJSON.Kind = "closed-account"
		errJSON.Details = map[string]string{
			"account":     string(closed.Account),
			"date":        closed.Date.String(),
			"closed_date": closed.ClosedDate.String(),
		}
	default:
		if kind := forecast.KindOf(err); kind != 0 {
			errJSON.Type = "forecast"
			errJSON.Kind = kind.String()
		} else if errJSON.Position != nil {
			errJSON.Type = "syntax"
		}
	}

	return errJSON
}
