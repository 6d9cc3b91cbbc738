// Package formatter renders an AST back to Beancount text with amounts
// aligned on a common currency column.
//
// Format keeps the layout of an existing file: directives stay in source
// order, and comments and blank lines are carried over. Directives that share
// a source line with an earlier one, such as forecast occurrences cloned from
// a template, are written right after it. FormatDirectives writes a plain
// date-ordered listing instead.
package formatter

import (
	"cmp"
	"context"
	"io"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/beancount-forecast/ast"
	"github.com/robinvdvleuten/beancount-forecast/telemetry"
)

const (
	// DefaultCurrencyColumn is the default column position for currency alignment
	// (matches bean-format behavior)
	DefaultCurrencyColumn = 52

	// DefaultIndentation is the default indentation for postings and metadata
	DefaultIndentation = 2

	// MinimumSpacing is the minimum number of spaces between account/number and currency
	MinimumSpacing = 2

	// DateWidth is the width of a formatted date (YYYY-MM-DD)
	DateWidth = 10

	// BalanceKeywordWidth is the width of the "balance" keyword (7 chars) + space
	BalanceKeywordWidth = 8

	// PriceKeywordWidth is the width of the "price" keyword (5 chars) + space
	PriceKeywordWidth = 6
)

// CommentType represents the type of comment in a beancount file.
type CommentType int

const (
	// StandaloneComment appears on its own line before a directive
	StandaloneComment CommentType = iota
	// InlineComment appears at the end of a directive or posting line
	InlineComment
	// SectionComment is a standalone comment followed by a blank line (section header)
	SectionComment
)

// CommentBlock represents a comment in the source file.
type CommentBlock struct {
	Line    int         // Line number where comment appears (1-indexed)
	Content string      // Comment text (including semicolon)
	Type    CommentType // Type of comment
}

// BlankLine represents a blank line in the source file.
type BlankLine struct {
	Line int // Line number (1-indexed)
}

// LineContent represents content that can appear before a directive.
type LineContent interface {
	isLineContent()
	lineNumber() int
}

func (c CommentBlock) isLineContent()  {}
func (c CommentBlock) lineNumber() int { return c.Line }
func (b BlankLine) isLineContent()     {}
func (b BlankLine) lineNumber() int    { return b.Line }

// Formatter handles formatting of Beancount files with proper alignment.
type Formatter struct {
	// CurrencyColumn is the target column for currency alignment.
	// If set (non-zero), this overrides PrefixWidth and NumWidth.
	// If 0, it will be calculated from PrefixWidth + NumWidth, or auto-calculated.
	CurrencyColumn int

	// PrefixWidth is the width in characters to render the account name to.
	// If 0, a good value is selected automatically from the contents.
	PrefixWidth int

	// NumWidth is the width to render each number.
	// If 0, a good value is selected automatically from the contents.
	NumWidth int

	// Indentation is the number of spaces before postings and metadata.
	Indentation int

	// PreserveComments controls whether comments are preserved during formatting.
	// Default: true
	PreserveComments bool

	// PreserveBlanks controls whether blank lines are preserved during formatting.
	// Default: true
	PreserveBlanks bool

	// StringEscapeStyle controls how quoted strings are escaped.
	StringEscapeStyle StringEscapeStyle
}

// Option is a functional option for configuring a Formatter.
type Option func(*Formatter)

// WithCurrencyColumn sets a specific column for currency alignment.
// This overrides PrefixWidth and NumWidth if set.
func WithCurrencyColumn(col int) Option {
	return func(f *Formatter) {
		f.CurrencyColumn = col
	}
}

// WithPrefixWidth sets the width in characters to render account names to.
func WithPrefixWidth(width int) Option {
	return func(f *Formatter) {
		f.PrefixWidth = width
	}
}

// WithNumWidth sets the width to render each number.
func WithNumWidth(width int) Option {
	return func(f *Formatter) {
		f.NumWidth = width
	}
}

// WithIndentation sets the indentation of postings and metadata.
func WithIndentation(spaces int) Option {
	return func(f *Formatter) {
		f.Indentation = spaces
	}
}

// WithPreserveComments enables or disables comment preservation.
func WithPreserveComments(preserve bool) Option {
	return func(f *Formatter) {
		f.PreserveComments = preserve
	}
}

// WithPreserveBlanks enables or disables blank line preservation.
func WithPreserveBlanks(preserve bool) Option {
	return func(f *Formatter) {
		f.PreserveBlanks = preserve
	}
}

// WithStringEscapeStyle sets how quoted strings are escaped.
func WithStringEscapeStyle(style StringEscapeStyle) Option {
	return func(f *Formatter) {
		f.StringEscapeStyle = style
	}
}

// New creates a new Formatter with the given options.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		Indentation:       DefaultIndentation,
		PreserveComments:  true,
		PreserveBlanks:    true,
		StringEscapeStyle: EscapeStyleCStyle,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// widthMetrics holds calculated width information for formatting.
type widthMetrics struct {
	maxPrefixWidth int // Maximum width of account prefix (indentation + flag + account + spacing)
	maxNumWidth    int // Maximum width of numeric values
	currencyColumn int // Calculated currency column position
}

// calculateWidthMetrics performs a single pass through the directives to calculate all width metrics.
func (f *Formatter) calculateWidthMetrics(directives ast.Directives) widthMetrics {
	metrics := widthMetrics{}

	for _, directive := range directives {
		switch d := directive.(type) {
		case *ast.Transaction:
			for _, posting := range d.Postings {
				if posting.Amount != nil {
					prefixWidth := f.Indentation
					if posting.Flag != "" {
						prefixWidth += 2 // flag + space
					}
					prefixWidth += runewidth.StringWidth(string(posting.Account)) + MinimumSpacing
					metrics.maxPrefixWidth = max(metrics.maxPrefixWidth, prefixWidth)

					numWidth := len(posting.Amount.Value)
					metrics.maxNumWidth = max(metrics.maxNumWidth, numWidth)

					metrics.currencyColumn = max(metrics.currencyColumn, prefixWidth+numWidth)
				}
			}

		case *ast.Balance:
			if d.Amount != nil {
				width := DateWidth + 1 + BalanceKeywordWidth + runewidth.StringWidth(string(d.Account)) + MinimumSpacing
				numWidth := len(d.Amount.Value)
				metrics.maxNumWidth = max(metrics.maxNumWidth, numWidth)
				metrics.currencyColumn = max(metrics.currencyColumn, width+numWidth)
			}

		case *ast.Price:
			if d.Amount != nil {
				width := DateWidth + 1 + PriceKeywordWidth + len(d.Commodity) + MinimumSpacing
				numWidth := len(d.Amount.Value)
				metrics.maxNumWidth = max(metrics.maxNumWidth, numWidth)
				metrics.currencyColumn = max(metrics.currencyColumn, width+numWidth)
			}
		}
	}

	return metrics
}

// determineCurrencyColumn calculates the currency column based on configuration.
// Priority: explicit column > explicit widths (PrefixWidth/NumWidth) > auto-calculated from content > default.
func (f *Formatter) determineCurrencyColumn(directives ast.Directives) int {
	if f.CurrencyColumn > 0 {
		return f.CurrencyColumn
	}

	metrics := f.calculateWidthMetrics(directives)

	if f.PrefixWidth > 0 || f.NumWidth > 0 {
		prefixWidth := f.PrefixWidth
		if prefixWidth == 0 {
			prefixWidth = metrics.maxPrefixWidth
			if prefixWidth == 0 {
				prefixWidth = 40 // Default prefix width
			}
		}

		numWidth := f.NumWidth
		if numWidth == 0 {
			numWidth = metrics.maxNumWidth + MinimumSpacing
			if numWidth == MinimumSpacing {
				numWidth = 10 // Default number width
			}
		}

		return prefixWidth + numWidth
	}

	if metrics.currencyColumn > 0 {
		return metrics.currencyColumn + MinimumSpacing
	}
	return DefaultCurrencyColumn
}

// astItem represents any item in the AST with its position
type astItem struct {
	line      int
	option    *ast.Option
	include   *ast.Include
	plugin    *ast.Plugin
	directive ast.Directive
}

// printer carries the state of one formatting run.
type printer struct {
	*Formatter
	buf      strings.Builder
	column   int
	inline   map[int]string // Inline comments by source line
	consumed map[int]bool   // Lines whose inline comment was written
}

// Format writes tree in source order. Comments and blank lines found in
// source are carried over according to the formatter settings; source may be
// nil.
func (f *Formatter) Format(ctx context.Context, tree *ast.AST, source []byte, w io.Writer) error {
	timer := telemetry.FromContext(ctx).Start("formatter.format")
	defer timer.End()

	p := f.newPrinter(tree.Directives)

	var lineContentMap map[int][]LineContent
	if f.PreserveComments || f.PreserveBlanks {
		comments, blanks, inline := extractCommentsAndBlanks(source)

		if !f.PreserveComments {
			comments = nil
		} else {
			p.inline = inline
		}
		if !f.PreserveBlanks {
			blanks = nil
		}

		lineContentMap = buildLineContentMap(comments, blanks)
	}

	p.buf.Grow((len(tree.Options) + len(tree.Includes) + len(tree.Directives)) * 100)

	var items []astItem
	for _, opt := range tree.Options {
		items = append(items, astItem{line: opt.Pos.Line, option: opt})
	}
	for _, inc := range tree.Includes {
		items = append(items, astItem{line: inc.Pos.Line, include: inc})
	}
	for _, plugin := range tree.Plugins {
		items = append(items, astItem{line: plugin.Pos.Line, plugin: plugin})
	}
	for _, directive := range tree.Directives {
		if directive != nil {
			items = append(items, astItem{line: directive.Position().Line, directive: directive})
		}
	}

	// Stable so that items sharing a line keep their relative order.
	slices.SortStableFunc(items, func(a, b astItem) int {
		return cmp.Compare(a.line, b.line)
	})

	lastLine := 0
	for i, item := range items {
		switch {
		case item.line > lastLine:
			if lineContentMap != nil {
				p.outputPrecedingContent(item.line, lastLine, lineContentMap)
			}
			lastLine = item.line
		case i > 0 && item.directive != nil:
			p.buf.WriteByte('\n')
		}

		switch {
		case item.option != nil:
			p.formatOption(item.option)
		case item.include != nil:
			p.formatInclude(item.include)
		case item.plugin != nil:
			p.formatPlugin(item.plugin)
		default:
			p.formatDirective(item.directive)
		}
	}

	_, err := io.WriteString(w, p.buf.String())
	return err
}

// FormatDirectives writes directives in the given order, separated by blank
// lines, without any source layout.
func (f *Formatter) FormatDirectives(ctx context.Context, directives ast.Directives, w io.Writer) error {
	timer := telemetry.FromContext(ctx).Start("formatter.format")
	defer timer.End()

	p := f.newPrinter(directives)
	for i, d := range directives {
		if i > 0 {
			p.buf.WriteByte('\n')
		}
		p.formatDirective(d)
	}

	_, err := io.WriteString(w, p.buf.String())
	return err
}

// FormatHeader writes the options and plugins of tree, one per line.
func (f *Formatter) FormatHeader(tree *ast.AST, w io.Writer) error {
	p := f.newPrinter(nil)
	for _, opt := range tree.Options {
		p.formatOption(opt)
	}
	for _, plugin := range tree.Plugins {
		p.formatPlugin(plugin)
	}
	_, err := io.WriteString(w, p.buf.String())
	return err
}

func (f *Formatter) newPrinter(directives ast.Directives) *printer {
	return &printer{
		Formatter: f,
		column:    f.determineCurrencyColumn(directives),
		consumed:  make(map[int]bool),
	}
}

// determineCommentType checks if a comment is a section header by looking at the next line.
func determineCommentType(currentIndex int, lines []string) CommentType {
	if currentIndex+1 < len(lines) && strings.TrimSpace(lines[currentIndex+1]) == "" {
		return SectionComment
	}
	return StandaloneComment
}

// extractCommentsAndBlanks scans the source content and extracts all comments,
// blank lines and inline comments (keyed by line number).
func extractCommentsAndBlanks(sourceContent []byte) ([]CommentBlock, []BlankLine, map[int]string) {
	var comments []CommentBlock
	var blanks []BlankLine
	inline := make(map[int]string)

	if len(sourceContent) == 0 {
		return nil, nil, inline
	}

	lines := strings.Split(string(sourceContent), "\n")

	for i, line := range lines {
		lineNum := i + 1 // 1-indexed line numbers
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			blanks = append(blanks, BlankLine{Line: lineNum})
		case strings.HasPrefix(trimmed, ";"):
			comments = append(comments, CommentBlock{
				Line:    lineNum,
				Content: trimmed,
				Type:    determineCommentType(i, lines),
			})
		case strings.HasPrefix(line, "*") || (strings.HasPrefix(line, "#") && !isBeancountDirectiveLine(trimmed)):
			// Org-mode and markdown headers.
			comments = append(comments, CommentBlock{
				Line:    lineNum,
				Content: trimmed,
				Type:    determineCommentType(i, lines),
			})
		default:
			if comment := inlineComment(line); comment != "" {
				inline[lineNum] = comment
			}
		}
	}

	return comments, blanks, inline
}

// inlineComment returns the trailing "; ..." of a content line, ignoring
// semicolons inside strings.
func inlineComment(line string) string {
	inString := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			if inString {
				i++
			}
		case '"':
			inString = !inString
		case ';':
			if !inString {
				return strings.TrimSpace(line[i:])
			}
		}
	}
	return ""
}

// isBeancountDirectiveLine checks if a line looks like it starts with a Beancount directive.
// This helps distinguish between hash headers (# Options) and tag usage on directive lines.
func isBeancountDirectiveLine(line string) bool {
	if len(line) >= 10 && line[4] == '-' && line[7] == '-' {
		return true
	}
	return strings.HasPrefix(line, "option ") || strings.HasPrefix(line, "include ")
}

// buildLineContentMap creates a map from line numbers to the content (comments/blanks) on those lines.
func buildLineContentMap(comments []CommentBlock, blanks []BlankLine) map[int][]LineContent {
	lineMap := make(map[int][]LineContent)

	for _, comment := range comments {
		lineMap[comment.Line] = append(lineMap[comment.Line], comment)
	}

	for _, blank := range blanks {
		lineMap[blank.Line] = append(lineMap[blank.Line], blank)
	}

	return lineMap
}

// outputPrecedingContent outputs any comments or blank lines that appear between
// lastLine and currentLine in the source file.
func (p *printer) outputPrecedingContent(currentLine, lastLine int, lineContentMap map[int][]LineContent) {
	for line := lastLine + 1; line < currentLine; line++ {
		for _, item := range lineContentMap[line] {
			switch c := item.(type) {
			case CommentBlock:
				p.buf.WriteString(c.Content)
				p.buf.WriteByte('\n')
			case BlankLine:
				p.buf.WriteByte('\n')
			}
		}
	}
}

// endLine finishes an output line, appending the inline comment of the
// source line it came from the first time that line is written.
func (p *printer) endLine(sourceLine int) {
	if comment, ok := p.inline[sourceLine]; ok && sourceLine > 0 && !p.consumed[sourceLine] {
		p.consumed[sourceLine] = true
		p.buf.WriteString("  ")
		p.buf.WriteString(comment)
	}
	p.buf.WriteByte('\n')
}

// currentWidth is the display width of the line being written.
func (p *printer) currentWidth() int {
	s := p.buf.String()
	return runewidth.StringWidth(s[strings.LastIndexByte(s, '\n')+1:])
}

func (p *printer) quoted(s string) {
	p.buf.WriteByte('"')
	p.buf.WriteString(p.escapeString(s))
	p.buf.WriteByte('"')
}

func (p *printer) date(d *ast.Date) {
	p.buf.WriteString(d.Format(ast.DateFormat))
}

// formatDirective formats a directive based on its type.
func (p *printer) formatDirective(d ast.Directive) {
	switch directive := d.(type) {
	case *ast.Commodity:
		p.formatCommodity(directive)
	case *ast.Open:
		p.formatOpen(directive)
	case *ast.Close:
		p.formatClose(directive)
	case *ast.Balance:
		p.formatBalance(directive)
	case *ast.Pad:
		p.formatPad(directive)
	case *ast.Note:
		p.formatNote(directive)
	case *ast.Document:
		p.formatDocument(directive)
	case *ast.Price:
		p.formatPrice(directive)
	case *ast.Event:
		p.formatEvent(directive)
	case *ast.Custom:
		p.formatCustom(directive)
	case *ast.Transaction:
		p.formatTransaction(directive)
	default:
		panic("formatter: unhandled directive type " + d.Directive())
	}
}

func (p *printer) formatOption(opt *ast.Option) {
	p.buf.WriteString("option ")
	p.quoted(opt.Name)
	p.buf.WriteByte(' ')
	p.quoted(opt.Value)
	p.endLine(opt.Pos.Line)
}

func (p *printer) formatInclude(inc *ast.Include) {
	p.buf.WriteString("include ")
	p.quoted(inc.Filename)
	p.endLine(inc.Pos.Line)
}

func (p *printer) formatPlugin(plugin *ast.Plugin) {
	p.buf.WriteString("plugin ")
	p.quoted(plugin.Name)
	if plugin.Config != "" {
		p.buf.WriteByte(' ')
		p.quoted(plugin.Config)
	}
	p.endLine(plugin.Pos.Line)
}

func (p *printer) formatCommodity(c *ast.Commodity) {
	p.date(c.Date)
	p.buf.WriteString(" commodity ")
	p.buf.WriteString(c.Currency)
	p.endLine(c.Pos.Line)
	p.formatMetadata(c.Metadata)
}

func (p *printer) formatOpen(o *ast.Open) {
	p.date(o.Date)
	p.buf.WriteString(" open ")
	p.buf.WriteString(string(o.Account))

	// Constraint currencies use minimal spacing, they are not aligned.
	if len(o.ConstraintCurrencies) > 0 {
		p.buf.WriteByte(' ')
		p.buf.WriteString(strings.Join(o.ConstraintCurrencies, ", "))
	}

	if o.BookingMethod != "" {
		p.buf.WriteByte(' ')
		p.quoted(o.BookingMethod)
	}

	p.endLine(o.Pos.Line)
	p.formatMetadata(o.Metadata)
}

func (p *printer) formatClose(c *ast.Close) {
	p.date(c.Date)
	p.buf.WriteString(" close ")
	p.buf.WriteString(string(c.Account))
	p.endLine(c.Pos.Line)
	p.formatMetadata(c.Metadata)
}

func (p *printer) formatBalance(b *ast.Balance) {
	p.date(b.Date)
	p.buf.WriteString(" balance ")
	p.buf.WriteString(string(b.Account))
	p.formatAmountAligned(b.Amount)
	p.endLine(b.Pos.Line)
	p.formatMetadata(b.Metadata)
}

func (p *printer) formatPad(pad *ast.Pad) {
	p.date(pad.Date)
	p.buf.WriteString(" pad ")
	p.buf.WriteString(string(pad.Account))
	p.buf.WriteByte(' ')
	p.buf.WriteString(string(pad.AccountPad))
	p.endLine(pad.Pos.Line)
	p.formatMetadata(pad.Metadata)
}

func (p *printer) formatNote(n *ast.Note) {
	p.date(n.Date)
	p.buf.WriteString(" note ")
	p.buf.WriteString(string(n.Account))
	p.buf.WriteByte(' ')
	p.quoted(n.Description)
	p.endLine(n.Pos.Line)
	p.formatMetadata(n.Metadata)
}

func (p *printer) formatDocument(d *ast.Document) {
	p.date(d.Date)
	p.buf.WriteString(" document ")
	p.buf.WriteString(string(d.Account))
	p.buf.WriteByte(' ')
	p.quoted(d.PathToDocument)
	p.endLine(d.Pos.Line)
	p.formatMetadata(d.Metadata)
}

func (p *printer) formatPrice(pr *ast.Price) {
	p.date(pr.Date)
	p.buf.WriteString(" price ")
	p.buf.WriteString(pr.Commodity)
	p.formatAmountAligned(pr.Amount)
	p.endLine(pr.Pos.Line)
	p.formatMetadata(pr.Metadata)
}

func (p *printer) formatEvent(e *ast.Event) {
	p.date(e.Date)
	p.buf.WriteString(" event ")
	p.quoted(e.Name)
	p.buf.WriteByte(' ')
	p.quoted(e.Value)
	p.endLine(e.Pos.Line)
	p.formatMetadata(e.Metadata)
}

func (p *printer) formatCustom(c *ast.Custom) {
	p.date(c.Date)
	p.buf.WriteString(" custom ")
	p.quoted(c.Type)

	for _, v := range c.Values {
		p.buf.WriteByte(' ')
		switch {
		case v.String != nil:
			p.quoted(*v.String)
		case v.Boolean != nil:
			if *v.Boolean {
				p.buf.WriteString("TRUE")
			} else {
				p.buf.WriteString("FALSE")
			}
		case v.Amount != nil:
			p.buf.WriteString(v.Amount.String())
		case v.Number != nil:
			p.buf.WriteString(*v.Number)
		case v.Account != nil:
			p.buf.WriteString(string(*v.Account))
		case v.Date != nil:
			p.date(v.Date)
		}
	}

	p.endLine(c.Pos.Line)
	p.formatMetadata(c.Metadata)
}

// formatTransaction formats a transaction directive with proper structure.
// Format: date flag [payee] [narration] [links] [tags]
func (p *printer) formatTransaction(t *ast.Transaction) {
	p.date(t.Date)
	p.buf.WriteByte(' ')
	p.buf.WriteString(t.Flag)

	// The narration is always written when a payee is, so the payee is not
	// read back as the narration.
	if t.Payee != "" {
		p.buf.WriteByte(' ')
		p.quoted(t.Payee)
	}
	if t.Narration != "" || t.Payee != "" {
		p.buf.WriteByte(' ')
		p.quoted(t.Narration)
	}

	for _, link := range t.Links {
		p.buf.WriteString(" ^")
		p.buf.WriteString(string(link))
	}

	for _, tag := range t.Tags {
		p.buf.WriteString(" #")
		p.buf.WriteString(string(tag))
	}

	p.endLine(t.Pos.Line)
	p.formatMetadata(t.Metadata)

	for _, posting := range t.Postings {
		p.formatPosting(posting)
	}
}

// formatPosting formats a single posting with proper alignment.
// Handles both postings with explicit amounts and implied amounts (nil).
func (p *printer) formatPosting(posting *ast.Posting) {
	p.buf.WriteString(strings.Repeat(" ", p.Indentation))

	if posting.Flag != "" {
		p.buf.WriteString(posting.Flag)
		p.buf.WriteByte(' ')
	}

	p.buf.WriteString(string(posting.Account))

	if posting.Amount != nil {
		p.formatAmountAligned(posting.Amount)

		if posting.Cost != nil {
			p.buf.WriteByte(' ')
			p.formatCost(posting.Cost)
		}
	} else if posting.Cost != nil {
		p.buf.WriteByte(' ')
		p.formatCost(posting.Cost)
	}

	if posting.Price != nil {
		if posting.PriceTotal {
			p.buf.WriteString(" @@ ")
		} else {
			p.buf.WriteString(" @ ")
		}
		p.buf.WriteString(posting.Price.String())
	}

	p.endLine(posting.Pos.Line)
	p.formatMetadataIndented(posting.Metadata, 2*p.Indentation)
}

// formatAmountAligned formats an amount with proper alignment to the currency column.
func (p *printer) formatAmountAligned(amount *ast.Amount) {
	if amount == nil {
		return
	}

	padding := p.column - p.currentWidth() - len(amount.Value)
	if padding < MinimumSpacing {
		padding = MinimumSpacing
	}

	p.buf.WriteString(strings.Repeat(" ", padding))
	p.buf.WriteString(amount.String())
}

// formatCost formats a cost specification.
func (p *printer) formatCost(cost *ast.Cost) {
	if cost == nil {
		return
	}

	open, closing := "{", "}"
	if cost.IsTotal {
		open, closing = "{{", "}}"
	}
	p.buf.WriteString(open)

	var parts []string
	if cost.IsMerge {
		parts = append(parts, "*")
	}
	if cost.Amount != nil {
		parts = append(parts, cost.Amount.String())
	}
	if cost.Date != nil {
		parts = append(parts, cost.Date.Format(ast.DateFormat))
	}
	if cost.Label != "" {
		parts = append(parts, `"`+p.escapeString(cost.Label)+`"`)
	}
	p.buf.WriteString(strings.Join(parts, ", "))

	p.buf.WriteString(closing)
}

func (p *printer) formatMetadata(metadata []*ast.Metadata) {
	p.formatMetadataIndented(metadata, p.Indentation)
}

// formatMetadataIndented formats metadata entries. Quoted values are
// re-quoted, raw values (dates, numbers, accounts) are written as is.
func (p *printer) formatMetadataIndented(metadata []*ast.Metadata, indent int) {
	for _, m := range metadata {
		p.buf.WriteString(strings.Repeat(" ", indent))
		p.buf.WriteString(m.Key)
		p.buf.WriteString(": ")
		if m.Quoted {
			p.quoted(m.Value)
		} else {
			p.buf.WriteString(m.Value)
		}
		p.buf.WriteByte('\n')
	}
}
