package parser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/beancount-forecast/ast"
)

func TestParseTransaction(t *testing.T) {
	source := `
2024-01-15 * "Landlord" "Rent [MONTHLY]" #home ^lease
  invoice: "INV-1"
  Expenses:Rent      1500.00 USD
    note: "january"
  Assets:Checking
`

	tree, err := ParseString(context.Background(), source)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(tree.Directives))

	txn, ok := tree.Directives[0].(*ast.Transaction)
	assert.True(t, ok)
	assert.Equal(t, "2024-01-15", txn.Date.String())
	assert.Equal(t, "*", txn.Flag)
	assert.Equal(t, "Landlord", txn.Payee)
	assert.Equal(t, "Rent [MONTHLY]", txn.Narration)
	assert.Equal(t, []ast.Tag{"home"}, txn.Tags)
	assert.Equal(t, []ast.Link{"lease"}, txn.Links)
	assert.Equal(t, []*ast.Metadata{{Key: "invoice", Value: "INV-1", Quoted: true}}, txn.Metadata)

	assert.Equal(t, 2, len(txn.Postings))
	assert.Equal(t, ast.Account("Expenses:Rent"), txn.Postings[0].Account)
	assert.Equal(t, &ast.Amount{Value: "1500.00", Currency: "USD"}, txn.Postings[0].Amount)
	assert.Equal(t, "january", txn.Postings[0].Meta("note").Value)
	assert.Equal(t, ast.Account("Assets:Checking"), txn.Postings[1].Account)
	assert.Zero(t, txn.Postings[1].Amount)
}

func TestParseTransactionFlags(t *testing.T) {
	tests := []struct {
		name   string
		header string
		flag   string
	}{
		{"Cleared", `2024-01-01 * "x"`, "*"},
		{"Pending", `2024-01-01 ! "x"`, "!"},
		{"Forecast", `2024-01-01 # "x"`, "#"},
		{"TxnKeyword", `2024-01-01 txn "x"`, "*"},
		{"TxnKeywordWithFlag", `2024-01-01 txn ! "x"`, "!"},
		{"Padding", `2024-01-01 "x"`, "P"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := ParseString(context.Background(), tt.header+"\n  Assets:Cash 1 USD\n  Equity:Open\n")
			assert.NoError(t, err)
			txn := tree.Directives[0].(*ast.Transaction)
			assert.Equal(t, tt.flag, txn.Flag)
			assert.Equal(t, "x", txn.Narration)
		})
	}
}

func TestParsePostingCostAndPrice(t *testing.T) {
	source := `
2024-01-15 * "Buy"
  Assets:Brokerage   10 HOOL {518.73 USD, 2024-01-01, "lot-1"} @ 520.00 USD
  Assets:Cash       -200 EUR @@ 270.00 USD
  Assets:Other       5 HOOL {{2500 USD}}
  Assets:Merge       1 HOOL {*}
  Assets:Empty       1 HOOL {}
  ! Assets:Checking
`

	tree, err := ParseString(context.Background(), source)
	assert.NoError(t, err)
	txn := tree.Directives[0].(*ast.Transaction)
	assert.Equal(t, 6, len(txn.Postings))

	p := txn.Postings[0]
	assert.Equal(t, "518.73 USD", p.Cost.Amount.String())
	assert.Equal(t, "2024-01-01", p.Cost.Date.String())
	assert.Equal(t, "lot-1", p.Cost.Label)
	assert.Equal(t, "520.00 USD", p.Price.String())
	assert.False(t, p.PriceTotal)

	p = txn.Postings[1]
	assert.Equal(t, "-200 EUR", p.Amount.String())
	assert.True(t, p.PriceTotal)

	assert.True(t, txn.Postings[2].Cost.IsTotal)
	assert.True(t, txn.Postings[3].Cost.IsMerge)
	assert.True(t, txn.Postings[4].Cost.IsEmpty())
	assert.Equal(t, "!", txn.Postings[5].Flag)
}

func TestParseExpressionAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		expected string
	}{
		{"Plain", "100.50", "100.50"},
		{"Negative", "-50.00", "-50.00"},
		{"Addition", "2 + 3", "5"},
		{"Precedence", "2 + 3 * 4", "14"},
		{"Parentheses", "(2 + 3) * 4", "20"},
		{"UnaryMinus", "-(10 - 4)", "-6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := "2024-01-01 * \"x\"\n  Assets:Cash " + tt.amount + " USD\n  Equity:Open\n"
			tree, err := ParseString(context.Background(), source)
			assert.NoError(t, err)
			txn := tree.Directives[0].(*ast.Transaction)
			assert.Equal(t, tt.expected, txn.Postings[0].Amount.Value)
			assert.Equal(t, "USD", txn.Postings[0].Amount.Currency)
		})
	}
}

func TestParseDivisionByZero(t *testing.T) {
	_, err := ParseString(context.Background(), "2024-01-01 * \"x\"\n  Assets:Cash 1/0 USD\n")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")
}

func TestParseDirectives(t *testing.T) {
	source := `
option "title" "Home"
option "forecast_horizon" "2025-12-31"
plugin "beancount.plugins.forecast"
plugin "beancount.plugins.auto_accounts" "config"
include "other.beancount"

2024-01-01 open Assets:Checking USD,EUR "FIFO"
2024-01-01 commodity USD
  name: "US Dollar"
2024-01-02 balance Assets:Checking 100.00 USD
2024-01-02 pad Assets:Checking Equity:Opening-Balances
2024-01-03 note Assets:Checking "Called bank"
2024-01-03 document Assets:Checking "statements/jan.pdf"
2024-01-04 price HOOL 582.26 USD
2024-01-05 event "location" "Berlin"
2024-01-06 custom "budget" Expenses:Food "monthly" 400.00 USD TRUE 2024-02-01 12
2024-12-31 close Assets:Checking
`

	tree, err := ParseString(context.Background(), source)
	assert.NoError(t, err)

	assert.Equal(t, "Home", tree.Option("title"))
	assert.Equal(t, "2025-12-31", tree.Option("forecast_horizon"))
	assert.True(t, tree.HasPlugin("beancount.plugins.forecast"))
	assert.Equal(t, "config", tree.Plugins[1].Config)
	assert.Equal(t, "other.beancount", tree.Includes[0].Filename)

	kinds := make([]string, 0, len(tree.Directives))
	for _, d := range tree.Directives {
		kinds = append(kinds, d.Directive())
	}
	assert.Equal(t, []string{
		"open", "commodity", "balance", "pad", "note", "document", "price", "event", "custom", "close",
	}, kinds)

	open := tree.Directives[0].(*ast.Open)
	assert.Equal(t, []string{"USD", "EUR"}, open.ConstraintCurrencies)
	assert.Equal(t, "FIFO", open.BookingMethod)

	commodity := tree.Directives[1].(*ast.Commodity)
	assert.Equal(t, "US Dollar", commodity.Meta("name").Value)

	custom := tree.Directives[8].(*ast.Custom)
	assert.Equal(t, "budget", custom.Type)
	assert.Equal(t, 6, len(custom.Values))
	assert.Equal(t, any(ast.Account("Expenses:Food")), custom.Values[0].GetValue())
	assert.Equal(t, any("monthly"), custom.Values[1].GetValue())
	assert.Equal(t, "400.00 USD", custom.Values[2].Amount.String())
	assert.Equal(t, any(true), custom.Values[3].GetValue())
	assert.Equal(t, "2024-02-01", custom.Values[4].Date.String())
	assert.Equal(t, any("12"), custom.Values[5].GetValue())
}

func TestParseSortsByDateStable(t *testing.T) {
	source := `
2024-03-01 * "March"
2024-01-01 * "January A"
2024-01-01 close Assets:Old
2024-01-01 * "January B"
2024-01-01 open Assets:New
`
	tree, err := ParseString(context.Background(), source)
	assert.NoError(t, err)

	var got []string
	for _, d := range tree.Directives {
		switch d := d.(type) {
		case *ast.Transaction:
			got = append(got, d.Narration)
		default:
			got = append(got, d.Directive())
		}
	}
	assert.Equal(t, []string{"open", "January A", "January B", "close", "March"}, got)
}

func TestParsePushPop(t *testing.T) {
	source := `
pushtag #trip
pushmeta location: "Berlin"
2024-01-01 * "Inside"
  Assets:Cash -5 EUR
  Expenses:Food
popmeta location:
poptag #trip
2024-01-02 * "Outside"
  Assets:Cash -5 EUR
  Expenses:Food
`
	tree, err := ParseString(context.Background(), source)
	assert.NoError(t, err)

	inside := tree.Directives[0].(*ast.Transaction)
	outside := tree.Directives[1].(*ast.Transaction)
	assert.Equal(t, []ast.Tag{"trip"}, inside.Tags)
	assert.Equal(t, "Berlin", inside.Meta("location").Value)
	assert.Equal(t, 0, len(outside.Tags))
	assert.Zero(t, outside.Meta("location"))
}

func TestParseMetadataValues(t *testing.T) {
	source := `
2024-01-01 * "x"
  forecast: "MONTHLY UNTIL 2024-12-31"
  due: 2024-02-01
  count: 12
  account: Assets:Cash
  flag: TRUE
  Assets:Cash 1 USD
  Equity:Open
`
	tree, err := ParseString(context.Background(), source)
	assert.NoError(t, err)

	txn := tree.Directives[0].(*ast.Transaction)
	assert.Equal(t, []*ast.Metadata{
		{Key: "forecast", Value: "MONTHLY UNTIL 2024-12-31", Quoted: true},
		{Key: "due", Value: "2024-02-01"},
		{Key: "count", Value: "12"},
		{Key: "account", Value: "Assets:Cash"},
		{Key: "flag", Value: "TRUE"},
	}, txn.Metadata)
}

func TestParseOrgModeHeadersAndComments(t *testing.T) {
	source := `
* Accounts
; comment line
2024-01-01 open Assets:Cash ; inline
** Transactions
2024-01-02 * "x" ; inline
  Assets:Cash 1 USD ; posting comment
  Equity:Open
`
	tree, err := ParseString(context.Background(), source)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(tree.Directives))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		message string
		line    int
	}{
		{"UnknownDirective", "2024-01-01 frobnicate Assets:Cash\n", "unknown directive", 1},
		{"InvalidDate", "2024-13-45 open Assets:Cash\n", "invalid date", 1},
		{"MissingAccount", "2024-01-01 open USD\n", "expected account", 1},
		{"BadPosting", "2024-01-01 * \"x\"\n  \"oops\"\n", "expected posting", 2},
		{"UnterminatedString", "2024-01-01 * \"x\n", "unterminated string", 1},
		{"StrayToken", "open\n", "unexpected", 1},
		{"MissingCurrency", "2024-01-01 price HOOL 10\n", "expected currency", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytesWithFilename(context.Background(), "main.beancount", []byte(tt.source))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)

			var perr *ParseError
			assert.True(t, errors.As(err, &perr))
			assert.Equal(t, "main.beancount", perr.GetPosition().Filename)
			assert.Equal(t, tt.line, perr.GetPosition().Line)
		})
	}
}

func TestNewParseErrorWrapsPlainErrors(t *testing.T) {
	err := NewParseError("main.beancount", errors.New("boom"))
	assert.Equal(t, "main.beancount:1: boom", err.Error())
	assert.Zero(t, err.GetDirective())
}

func TestParseReader(t *testing.T) {
	tree, err := Parse(context.Background(), strings.NewReader("2024-01-01 open Assets:Cash\n"))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(tree.Directives))
}
