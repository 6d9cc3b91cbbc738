package ast

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestNewAmount(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		currency string
	}{
		{"Positive", "100.50", "USD"},
		{"Negative", "-42.00", "EUR"},
		{"Zero", "0.00", "GBP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := NewAmount(tt.value, tt.currency)
			assert.Equal(t, tt.value, amount.Value)
			assert.Equal(t, tt.currency, amount.Currency)
		})
	}
}

func TestNewDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Valid", "2024-01-15", false},
		{"LeapYear", "2024-02-29", false},
		{"NotLeapYear", "2023-02-29", true},
		{"Invalid", "2024-13-01", true},
		{"BadFormat", "01/15/2024", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, err := NewDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, date == nil)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.input, date.String())
		})
	}
}

func TestNewDateFromTime(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	date := NewDateFromTime(time.Date(2024, 3, 1, 23, 30, 0, 0, loc))
	assert.Equal(t, "2024-03-01", date.String())
	assert.Equal(t, time.UTC, date.Location())
	assert.Equal(t, 0, date.Hour())
}

func TestNewAccount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Simple", "Assets:Checking", false},
		{"Deep", "Assets:US:BofA:Checking", false},
		{"Digits", "Expenses:2024:Travel", false},
		{"Unicode", "Assets:Café", true},
		{"UnicodeUpper", "Assets:Émile", false},
		{"SingleSegment", "Assets", true},
		{"LowerRoot", "assets:Checking", true},
		{"LowerSegment", "Assets:checking", true},
		{"EmptySegment", "Assets::Checking", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := NewAccount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, Account(tt.input), account)
		})
	}
}

func TestNewTagAndLink(t *testing.T) {
	assert.Equal(t, Tag("trip"), NewTag("#trip"))
	assert.Equal(t, Tag("trip"), NewTag("trip"))
	assert.Equal(t, Link("invoice-42"), NewLink("^invoice-42"))
}

func TestNewTransaction(t *testing.T) {
	date := MustDate("2024-01-15")
	txn := NewTransaction(date, "Rent",
		WithFlag(FlagPending),
		WithPayee("Landlord"),
		WithTags("#home"),
		WithLinks("^lease"),
		WithTransactionMetadata(NewMetadata("invoice", "INV-1")),
		WithPostings(
			NewPosting("Expenses:Rent", WithAmount("1500.00", "USD")),
			NewPosting("Assets:Checking"),
		),
	)

	assert.Equal(t, "2024-01-15", txn.Date.String())
	assert.Equal(t, "Rent", txn.Narration)
	assert.Equal(t, FlagPending, txn.Flag)
	assert.Equal(t, "Landlord", txn.Payee)
	assert.Equal(t, []Tag{"home"}, txn.Tags)
	assert.Equal(t, []Link{"lease"}, txn.Links)
	assert.Equal(t, "INV-1", txn.Meta("invoice").Value)
	assert.True(t, txn.Meta("invoice").Quoted)
	assert.Equal(t, 2, len(txn.Postings))
	assert.Equal(t, "1500.00 USD", txn.Postings[0].Amount.String())
	assert.Zero(t, txn.Postings[1].Amount)
}

func TestNewTransactionDefaultFlag(t *testing.T) {
	txn := NewTransaction(MustDate("2024-01-15"), "Coffee")
	assert.Equal(t, FlagCleared, txn.Flag)
}

func TestPostingPrices(t *testing.T) {
	perUnit := NewPosting("Assets:Cash", WithAmount("200", "EUR"), WithPrice(NewAmount("1.35", "USD")))
	assert.False(t, perUnit.PriceTotal)
	assert.Equal(t, "1.35 USD", perUnit.Price.String())

	total := NewPosting("Assets:Cash", WithAmount("200", "EUR"), WithTotalPrice(NewAmount("270", "USD")))
	assert.True(t, total.PriceTotal)

	withCost := NewPosting("Assets:Brokerage", WithAmount("10", "HOOL"), WithCost(NewCost(NewAmount("518.73", "USD"))))
	assert.Equal(t, "518.73 USD", withCost.Cost.Amount.String())
	assert.False(t, withCost.Cost.IsEmpty())
}
