package ast

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DateFormat is the ISO 8601 layout used for every date in a ledger.
const DateFormat = "2006-01-02"

// Amount is a number with its currency. The value is kept as the literal
// string from the source so that copies are bit-for-bit identical.
type Amount struct {
	Value    string
	Currency string
}

// Decimal parses the amount's value.
func (a *Amount) Decimal() (decimal.Decimal, error) {
	if a == nil {
		return decimal.Zero, fmt.Errorf("amount is nil")
	}
	d, err := decimal.NewFromString(a.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount value %q: %w", a.Value, err)
	}
	return d, nil
}

// String renders the amount as "VALUE CURRENCY".
func (a *Amount) String() string {
	if a == nil {
		return ""
	}
	if a.Currency == "" {
		return a.Value
	}
	return a.Value + " " + a.Currency
}

// Clone returns a copy of the amount (nil-safe).
func (a *Amount) Clone() *Amount {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// Cost is the cost basis specification of a posting.
//
//	10 HOOL {518.73 USD}
//	10 HOOL {518.73 USD, 2014-05-01, "first-lot"}
//	10 HOOL {}
//	10 HOOL {*}
type Cost struct {
	IsMerge bool
	IsTotal bool // {{ }} total cost
	Amount  *Amount
	Date    *Date
	Label   string
}

// IsEmpty returns true if this is an empty cost specification {}.
func (c *Cost) IsEmpty() bool {
	return c != nil && !c.IsMerge && c.Amount == nil && c.Date == nil && c.Label == ""
}

// Clone returns a copy of the cost (nil-safe).
func (c *Cost) Clone() *Cost {
	if c == nil {
		return nil
	}
	copied := *c
	copied.Amount = c.Amount.Clone()
	if c.Date != nil {
		d := *c.Date
		copied.Date = &d
	}
	return &copied
}

// Account is a colon-separated account name such as Assets:US:BofA:Checking.
// The root segment is validated against the configured account types by
// consumers, the parser only checks the shape.
type Account string

// Root returns the first segment of the account.
func (a Account) Root() string {
	root, _, _ := strings.Cut(string(a), ":")
	return root
}

// Parent returns the account one level up, or "" for a root.
func (a Account) Parent() Account {
	i := strings.LastIndexByte(string(a), ':')
	if i < 0 {
		return ""
	}
	return a[:i]
}

func (a *Account) Capture(values []string) error {
	parts := strings.Split(values[0], ":")
	if len(parts) < 2 {
		return fmt.Errorf("account must have at least two segments: %s", values[0])
	}

	if !isValidRootSegment(parts[0]) {
		return fmt.Errorf("invalid account root %q", parts[0])
	}

	for i := 1; i < len(parts); i++ {
		if !isValidAccountSegment(parts[i]) {
			return fmt.Errorf("invalid account segment at position %d: %s", i, parts[i])
		}
	}

	*a = Account(values[0])
	return nil
}

// accountSegmentRegex validates ASCII account segments after the root.
var accountSegmentRegex = regexp.MustCompile(`^[A-Z0-9][A-Za-z0-9-]*$`)

func isValidRootSegment(segment string) bool {
	r, _ := utf8.DecodeRuneInString(segment)
	return segment != "" && unicode.IsUpper(r)
}

// isValidAccountSegment accepts ASCII segments matching accountSegmentRegex and
// non-ASCII segments starting with an upper-case or non-cased letter or digit.
func isValidAccountSegment(segment string) bool {
	if segment == "" {
		return false
	}
	if accountSegmentRegex.MatchString(segment) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(segment)
	if r < utf8.RuneSelf {
		return false
	}
	if !(unicode.IsUpper(r) || unicode.IsDigit(r) || (unicode.IsLetter(r) && !unicode.IsLower(r))) {
		return false
	}
	for _, c := range segment {
		if !(unicode.IsLetter(c) || unicode.IsDigit(c) || c == '-') {
			return false
		}
	}
	return true
}

// Date is a calendar date. The time component is always midnight UTC.
type Date struct {
	time.Time
}

func (d *Date) Capture(values []string) error {
	t, err := time.Parse(DateFormat, values[0])
	if err != nil {
		return fmt.Errorf("invalid date: %s", values[0])
	}
	d.Time = t
	return nil
}

// IsZero returns true if the Date is nil or represents the zero time.
func (d *Date) IsZero() bool {
	if d == nil {
		return true
	}
	return d.Time.IsZero()
}

// String formats the date as YYYY-MM-DD, or "" for a nil or zero date.
func (d *Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateFormat)
}

// Link is a ^link connecting related transactions. Stored without the caret.
type Link string

func (l *Link) Capture(values []string) error {
	*l = Link(strings.TrimPrefix(values[0], "^"))
	return nil
}

// Tag is a #tag. Stored without the hash.
type Tag string

func (t *Tag) Capture(values []string) error {
	*t = Tag(strings.TrimPrefix(values[0], "#"))
	return nil
}

// Metadata is a key/value pair attached to a directive or posting. Values are
// kept as written; Quoted records whether the value was a string literal so it
// can be written back the same way.
//
//	2014-05-05 * "Payment"
//	  invoice: "INV-2014-05-001"
//	  trip-start: 2024-01-15
type Metadata struct {
	Key    string
	Value  string
	Quoted bool
}
