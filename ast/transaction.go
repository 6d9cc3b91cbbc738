package ast

// Flags used on transactions.
const (
	FlagCleared  = "*"
	FlagPending  = "!"
	FlagPadding  = "P"
	FlagForecast = "#"
)

// Transaction records a balanced set of postings at a date. The flag marks its
// status: '*' cleared, '!' pending, '#' forecast.
//
//	2014-05-05 * "Cafe Mogador" "Lamb tagine with wine"
//	  Liabilities:CreditCard:CapitalOne         -37.45 USD
//	  Expenses:Food:Restaurant
type Transaction struct {
	Pos       Position
	Date      *Date
	Flag      string
	Payee     string
	Narration string
	Links     []Link
	Tags      []Tag

	withMetadata

	Postings []*Posting
}

var _ Directive = &Transaction{}

func (t *Transaction) Position() Position { return t.Pos }
func (t *Transaction) date() *Date        { return t.Date }
func (t *Transaction) Directive() string  { return "transaction" }

// HasTag reports whether the transaction carries the tag.
func (t *Transaction) HasTag(tag Tag) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the transaction. Postings, amounts, costs,
// prices and metadata are copied so the result shares no pointers with t.
func (t *Transaction) Clone() *Transaction {
	c := &Transaction{
		Pos:       t.Pos,
		Flag:      t.Flag,
		Payee:     t.Payee,
		Narration: t.Narration,
	}
	if t.Date != nil {
		d := *t.Date
		c.Date = &d
	}
	if t.Links != nil {
		c.Links = append([]Link(nil), t.Links...)
	}
	if t.Tags != nil {
		c.Tags = append([]Tag(nil), t.Tags...)
	}
	c.Metadata = cloneMetadata(t.Metadata)
	if t.Postings != nil {
		c.Postings = make([]*Posting, len(t.Postings))
		for i, p := range t.Postings {
			c.Postings[i] = p.Clone()
		}
	}
	return c
}

// Posting is one leg of a transaction. The amount may be omitted on one
// posting, in which case it is inferred downstream.
//
//	Assets:Investments:Brokerage    10 HOOL {518.73 USD}
//	Assets:Investments:Cash        200 EUR @ 1.35 USD
//	Assets:Checking
type Posting struct {
	Pos        Position
	Flag       string
	Account    Account
	Amount     *Amount
	Cost       *Cost
	PriceTotal bool // @@ rather than @
	Price      *Amount

	withMetadata
}

// Clone returns a deep copy of the posting.
func (p *Posting) Clone() *Posting {
	c := &Posting{
		Pos:        p.Pos,
		Flag:       p.Flag,
		Account:    p.Account,
		Amount:     p.Amount.Clone(),
		Cost:       p.Cost.Clone(),
		PriceTotal: p.PriceTotal,
		Price:      p.Price.Clone(),
	}
	c.Metadata = cloneMetadata(p.Metadata)
	return c
}

func cloneMetadata(in []*Metadata) []*Metadata {
	if in == nil {
		return nil
	}
	out := make([]*Metadata, len(in))
	for i, m := range in {
		copied := *m
		out[i] = &copied
	}
	return out
}
