// Package forecast expands recurring transactions into dated forecast entries.
//
// A transaction becomes a template when its narration carries a recurrence
// directive in square brackets, or its metadata has a forecast entry:
//
//	2024-01-31 * "Landlord" "Rent [MONTHLY UNTIL 2024-06-30]"
//	  Assets:Checking  -1200.00 USD
//	  Expenses:Rent
//
// Expansion keeps the template in place and adds one derived transaction per
// occurrence after it, flagged '#', tagged #forecast and carrying
// forecast-id and forecast-template metadata. Problems with a single
// template are reported as diagnostics and never stop the pass.
//
//	out, diags := forecast.Expand(entries, horizon)
package forecast

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/robinvdvleuten/beancount-forecast/ast"
	"github.com/robinvdvleuten/beancount-forecast/telemetry"
)

// Expander expands templates. It holds configuration only and is safe for
// concurrent use.
type Expander struct {
	flag        string
	tag         string
	concurrency int
	log         zerolog.Logger
}

// Option configures an Expander.
type Option func(*Expander)

// WithFlag sets the flag of derived transactions.
func WithFlag(flag string) Option {
	return func(e *Expander) {
		e.flag = flag
	}
}

// WithTag sets the tag added to derived transactions. An empty tag adds none.
func WithTag(tag string) Option {
	return func(e *Expander) {
		e.tag = tag
	}
}

// WithConcurrency expands up to n templates in parallel. Output is identical
// to a sequential pass.
func WithConcurrency(n int) Option {
	return func(e *Expander) {
		if n < 1 {
			n = 1
		}
		e.concurrency = n
	}
}

// WithLogger sets the logger used for per-template debug output.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Expander) {
		e.log = log
	}
}

// New creates an Expander with the given options.
func New(opts ...Option) *Expander {
	e := &Expander{
		flag:        DefaultFlag,
		tag:         DefaultTag,
		concurrency: 1,
		log:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Expand runs a pass with default settings and no cancellation.
func Expand(entries ast.Directives, horizon time.Time) (ast.Directives, Diagnostics) {
	out, diags, _ := New().Expand(context.Background(), entries, horizon)
	return out, diags
}

// template is one transaction carrying a directive, with the outcome of its
// expansion.
type template struct {
	txn  *ast.Transaction
	rule *Rule
	ref  TemplateRef

	derived []*ast.Transaction
	diag    *Diagnostic
}

// Expand returns entries followed by the derived transactions of every
// template, stably sorted by date. Templates stay in the output unchanged;
// a template whose directive or occurrences are invalid is kept as a plain
// transaction and reported in the diagnostics. Occurrences whose forecast-id
// is already present in entries are not emitted again, so expanding an
// expanded ledger is a no-op.
//
// The error is non-nil only when ctx is cancelled.
func (e *Expander) Expand(ctx context.Context, entries ast.Directives, horizon time.Time) (ast.Directives, Diagnostics, error) {
	timer := telemetry.FromContext(ctx).Start("forecast.expand")
	defer timer.End()

	scan := timer.Child("forecast.scan")
	templates, existing := e.scan(entries)
	scan.End()

	e.log.Debug().
		Int("entries", len(entries)).
		Int("templates", len(templates)).
		Int("existing", len(existing)).
		Msg("scanned ledger for forecast templates")

	generate := timer.Child("forecast.generate")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, t := range templates {
		if t.diag != nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.generate(t, horizon)
			return nil
		})
	}
	err := g.Wait()
	generate.End()
	if err != nil {
		return nil, nil, err
	}

	merge := timer.Child("forecast.merge")
	defer merge.End()

	out := make(ast.Directives, len(entries), len(entries)+countDerived(templates))
	copy(out, entries)

	var diags Diagnostics
	for _, t := range templates {
		if t.diag != nil {
			e.log.Debug().
				Stringer("kind", t.diag.Kind).
				Str("date", t.txn.Date.String()).
				Msg(t.diag.Message)
			diags = append(diags, t.diag)
			continue
		}

		emitted := 0
		for _, d := range t.derived {
			id := d.Meta(IDKey).Value
			if existing[id] {
				continue
			}
			existing[id] = true
			out = append(out, d)
			emitted++
		}

		e.log.Debug().
			Str("template", t.ref.String()).
			Int("occurrences", len(t.derived)).
			Int("emitted", emitted).
			Msg("expanded forecast template")
	}

	ast.SortByDate(out)
	return out, diags, nil
}

// scan finds templates in input order and collects forecast-ids that are
// already present.
func (e *Expander) scan(entries ast.Directives) ([]*template, map[string]bool) {
	var templates []*template
	existing := make(map[string]bool)
	seen := make(map[string]int)

	for _, entry := range entries {
		switch d := entry.(type) {
		case *ast.Transaction:
			if m := d.Meta(IDKey); m != nil {
				existing[m.Value] = true
			}
			if d.Date == nil {
				continue
			}

			rule, err := ParseRule(d.Narration, d.Metadata)
			if err != nil {
				templates = append(templates, &template{txn: d, diag: newDiagnostic(d, err)})
				continue
			}
			if rule == nil {
				continue
			}

			ref := NewTemplateRef(d, rule)
			key := ref.key()
			ref.Index = seen[key]
			seen[key]++

			templates = append(templates, &template{txn: d, rule: rule, ref: ref})

		case *ast.Commodity, *ast.Open, *ast.Close, *ast.Balance, *ast.Pad,
			*ast.Note, *ast.Document, *ast.Price, *ast.Event, *ast.Custom:
			// Not expandable.

		default:
			panic("unhandled directive type " + entry.Directive())
		}
	}

	return templates, existing
}

func (e *Expander) generate(t *template, horizon time.Time) {
	dates, err := Occurrences(t.txn.Date.Time, t.rule, horizon)
	if err != nil {
		t.diag = newDiagnostic(t.txn, err)
		return
	}

	opts := CloneOptions{Flag: e.flag, Tag: e.tag}
	for date := range dates {
		t.derived = append(t.derived, Clone(t.txn, t.ref, date, opts))
	}
}

func countDerived(templates []*template) int {
	n := 0
	for _, t := range templates {
		n += len(t.derived)
	}
	return n
}
