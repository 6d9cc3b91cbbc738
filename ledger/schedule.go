package ledger

import (
	"strings"

	"github.com/robinvdvleuten/beancount-forecast/ast"
	"github.com/robinvdvleuten/beancount-forecast/forecast"
)

// Occurrence is one generated transaction in a schedule listing.
type Occurrence struct {
	Date      string    `json:"date" yaml:"date"`
	Payee     string    `json:"payee,omitempty" yaml:"payee,omitempty"`
	Narration string    `json:"narration" yaml:"narration"`
	Template  string    `json:"template" yaml:"template"`
	ID        string    `json:"id" yaml:"id"`
	Postings  []Posting `json:"postings" yaml:"postings"`
}

// Posting is a posting of an occurrence. Amount is empty when it is left
// for Beancount to infer.
type Posting struct {
	Account string `json:"account" yaml:"account"`
	Amount  string `json:"amount,omitempty" yaml:"amount,omitempty"`
}

// Schedule lists the derived transactions of the pass in date order.
func (r *Result) Schedule() []Occurrence {
	schedule := make([]Occurrence, 0, len(r.Derived))
	for _, txn := range r.Derived {
		schedule = append(schedule, NewOccurrence(txn))
	}
	return schedule
}

// NewOccurrence describes a derived transaction.
func NewOccurrence(txn *ast.Transaction) Occurrence {
	o := Occurrence{
		Date:      txn.Date.String(),
		Payee:     txn.Payee,
		Narration: txn.Narration,
		Postings:  make([]Posting, 0, len(txn.Postings)),
	}
	if m := txn.Meta(forecast.TemplateKey); m != nil {
		o.Template = m.Value
	}
	if m := txn.Meta(forecast.IDKey); m != nil {
		o.ID = m.Value
	}

	for _, p := range txn.Postings {
		o.Postings = append(o.Postings, Posting{
			Account: string(p.Account),
			Amount:  p.Amount.String(),
		})
	}
	return o
}

// Amounts joins the posting amounts of the occurrence that carry one.
func (o Occurrence) Amounts() string {
	var parts []string
	for _, p := range o.Postings {
		if p.Amount != "" {
			parts = append(parts, p.Account+" "+p.Amount)
		}
	}
	return strings.Join(parts, ", ")
}
