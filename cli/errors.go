package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robinvdvleuten/beancount-forecast/errors"
	"github.com/robinvdvleuten/beancount-forecast/formatter"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors with terminal styling and source context.
type ErrorRenderer struct {
	text *errors.TextFormatter
}

// NewErrorRenderer creates a renderer that shows context from source, the
// content of filename.
func NewErrorRenderer(filename string, source []byte) *ErrorRenderer {
	var opts []errors.TextFormatterOption
	if source != nil {
		opts = append(opts, errors.WithSource(filename, source))
	}
	return &ErrorRenderer{
		text: errors.NewTextFormatter(formatter.New(formatter.WithIndentation(2)), opts...),
	}
}

// Render formats a single error with styling and context.
func (r *ErrorRenderer) Render(err error) string {
	plain := r.text.Format(err)

	message, context, found := strings.Cut(plain, "\n\n")
	if !found {
		return errorStyle.Render(plain)
	}

	var buf strings.Builder
	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	for _, line := range strings.Split(strings.TrimSuffix(context, "\n"), "\n") {
		if strings.TrimSpace(line) == "^" {
			caret := strings.Index(line, "^")
			buf.WriteString(line[:caret])
			buf.WriteString(errCaretStyle.Render("^"))
		} else {
			indent := len(line) - len(strings.TrimLeft(line, " "))
			buf.WriteString(line[:indent])
			buf.WriteString(errContextStyle.Render(line[indent:]))
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(r.Render(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}
