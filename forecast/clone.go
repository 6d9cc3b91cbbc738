package forecast

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robinvdvleuten/beancount-forecast/ast"
)

// Metadata keys written on derived transactions.
const (
	IDKey       = "forecast-id"
	TemplateKey = "forecast-template"
)

// Defaults for derived transactions.
const (
	DefaultFlag = ast.FlagForecast
	DefaultTag  = "forecast"
)

// Namespace is the UUID namespace of forecast-id values.
var Namespace = uuid.MustParse("0b4d6a52-8f6e-4c3a-9d1b-7e2f5c8a1d90")

// TemplateRef identifies the template a derived transaction came from. It is
// built from the template's content rather than its file position so that
// identifiers survive edits elsewhere in the ledger.
type TemplateRef struct {
	Date      time.Time
	Payee     string
	Narration string // Narration with the directive stripped
	Rule      string // Canonical rule

	// Index tells apart templates that are otherwise identical, in input order.
	Index int
}

// NewTemplateRef returns the reference of a template with its parsed rule.
func NewTemplateRef(template *ast.Transaction, rule *Rule) TemplateRef {
	return TemplateRef{
		Date:      template.Date.Time,
		Payee:     template.Payee,
		Narration: StripDirective(template.Narration),
		Rule:      rule.String(),
	}
}

func (r TemplateRef) key() string {
	return strings.Join([]string{
		r.Date.Format(ast.DateFormat),
		r.Payee,
		r.Narration,
		r.Rule,
		strconv.Itoa(r.Index),
	}, "\x00")
}

// String renders the reference the way it is written in forecast-template
// metadata, e.g. `2024-01-15 "Rent" [MONTHLY]`.
func (r TemplateRef) String() string {
	var b strings.Builder
	b.WriteString(r.Date.Format(ast.DateFormat))
	if r.Payee != "" {
		fmt.Fprintf(&b, " %q", r.Payee)
	}
	fmt.Fprintf(&b, " %q %s", r.Narration, r.Rule)
	if r.Index > 0 {
		fmt.Fprintf(&b, " #%d", r.Index+1)
	}
	return b.String()
}

// ID returns the deterministic forecast-id of the occurrence on date.
func (r TemplateRef) ID(date time.Time) string {
	return uuid.NewSHA1(Namespace, []byte(r.key()+"\x00"+date.Format(ast.DateFormat))).String()
}

// CloneOptions controls how derived transactions are marked.
type CloneOptions struct {
	Flag string // Flag of derived transactions, DefaultFlag when empty
	Tag  string // Tag added to derived transactions, none when empty
}

// Clone returns a derived copy of template dated on. Postings are deep
// copied with amounts, costs and prices untouched. The directive is removed
// from the narration and forecast metadata is dropped, so a derived
// transaction is never a template itself. The template is not modified.
func Clone(template *ast.Transaction, ref TemplateRef, on time.Time, opts CloneOptions) *ast.Transaction {
	derived := template.Clone()

	derived.Date = ast.NewDateFromTime(on)
	derived.Narration = StripDirective(template.Narration)

	derived.Flag = opts.Flag
	if derived.Flag == "" {
		derived.Flag = DefaultFlag
	}

	if opts.Tag != "" && !derived.HasTag(ast.Tag(opts.Tag)) {
		derived.Tags = append(derived.Tags, ast.Tag(opts.Tag))
	}

	kept := derived.Metadata[:0]
	for _, m := range derived.Metadata {
		switch m.Key {
		case MetadataKey, IDKey, TemplateKey:
			continue
		}
		kept = append(kept, m)
	}
	derived.Metadata = kept

	derived.AddMetadata(
		ast.NewMetadata(IDKey, ref.ID(on)),
		ast.NewMetadata(TemplateKey, ref.String()),
	)

	return derived
}
