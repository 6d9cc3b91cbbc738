package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/beancount-forecast/ast"
	"github.com/robinvdvleuten/beancount-forecast/autoaccounts"
	"github.com/robinvdvleuten/beancount-forecast/config"
	"github.com/robinvdvleuten/beancount-forecast/forecast"
	"github.com/robinvdvleuten/beancount-forecast/parser"
)

const rentLedger = `
option "forecast_horizon" "2024-04-30"

2024-01-01 open Assets:Checking
2024-01-01 open Expenses:Rent

2024-01-31 * "Landlord" "Rent [MONTHLY]"
  Expenses:Rent  1000.00 USD
  Assets:Checking
`

func parse(t *testing.T, source string) *ast.AST {
	t.Helper()
	tree, err := parser.ParseString(context.Background(), source)
	assert.NoError(t, err)
	return tree
}

func derivedDates(result *Result) []string {
	dates := make([]string, len(result.Derived))
	for i, txn := range result.Derived {
		dates[i] = txn.Date.String()
	}
	return dates
}

func TestProcess(t *testing.T) {
	tree := parse(t, rentLedger)

	result, err := New().Process(context.Background(), tree, Overrides{})
	assert.NoError(t, err)

	assert.Equal(t, []string{"2024-02-29", "2024-03-31", "2024-04-30"}, derivedDates(result))
	assert.Equal(t, len(tree.Directives)+3, len(result.Entries))
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), result.Horizon)
	assert.Equal(t, "2024-04-30", result.Config.Horizon)
	assert.Zero(t, result.Errors())
	assert.NoError(t, result.Err())

	for _, txn := range result.Derived {
		assert.Equal(t, "#", txn.Flag)
		assert.True(t, txn.HasTag("forecast"))
	}
}

func TestProcessOverridesWinOverOptions(t *testing.T) {
	tree := parse(t, rentLedger)

	result, err := New().Process(context.Background(), tree, Overrides{
		Horizon: "2024-02-29",
		Flag:    "!",
		Tag:     "planned",
	})
	assert.NoError(t, err)

	assert.Equal(t, []string{"2024-02-29"}, derivedDates(result))
	assert.Equal(t, "!", result.Derived[0].Flag)
	assert.True(t, result.Derived[0].HasTag("planned"))
}

func TestProcessConfigIsBase(t *testing.T) {
	tree := parse(t, `
2024-01-31 * "Rent [MONTHLY]"
  Expenses:Rent  1000.00 USD
  Assets:Checking
`)
	cfg := config.Default()
	cfg.Horizon = "2m"

	now := func() time.Time { return time.Date(2024, 1, 31, 15, 0, 0, 0, time.UTC) }
	result, err := New(WithConfig(cfg), WithClock(now)).Process(context.Background(), tree, Overrides{})
	assert.NoError(t, err)
	assert.Equal(t, []string{"2024-02-29", "2024-03-31"}, derivedDates(result))
}

func TestProcessAutoAccounts(t *testing.T) {
	tree := parse(t, `
plugin "beancount.plugins.auto_accounts"

2024-01-31 * "Rent [MONTHLY REPEAT 1 TIME]"
  Expenses:Rent  1000.00 USD
  Assets:Checking
`)

	result, err := New().Process(context.Background(), tree, Overrides{})
	assert.NoError(t, err)
	assert.True(t, result.Config.AutoAccounts)
	assert.Equal(t, 2, len(result.Opened))
	assert.Equal(t, 1, len(result.Derived))
	assert.Equal(t, 4, len(result.Entries))
	assert.Equal(t, "TRUE", result.Opened[0].Meta(autoaccounts.MetadataKey).Value)
}

func TestProcessClosedAccounts(t *testing.T) {
	tree := parse(t, rentLedger+`
2024-03-15 close Expenses:Rent
`)

	result, err := New().Process(context.Background(), tree, Overrides{})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(result.Closed))

	var closed *autoaccounts.ClosedAccountError
	assert.True(t, errors.As(result.Closed[0], &closed))
	assert.Equal(t, "2024-03-31", closed.Date.String())

	var verr *ValidationErrors
	assert.True(t, errors.As(result.Err(), &verr))
	assert.Equal(t, "2 validation errors occurred", verr.Error())
}

func TestProcessDiagnostics(t *testing.T) {
	tree := parse(t, rentLedger+`
2024-01-05 * "Coffee [FORTNIGHTLY]"
  Expenses:Coffee  3.50 USD
  Assets:Checking
`)

	result, err := New().Process(context.Background(), tree, Overrides{})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(result.Diagnostics))
	assert.Equal(t, forecast.UnknownInterval, result.Diagnostics[0].Kind)
	assert.Equal(t, 3, len(result.Derived))

	errs := result.Errors()
	assert.Equal(t, 1, len(errs))
	assert.Equal(t, errs[0].Error(), result.Err().Error())
}

func TestProcessInvalidSettings(t *testing.T) {
	tree := parse(t, `option "forecast_flag" "XX"`)
	_, err := New().Process(context.Background(), tree, Overrides{})
	assert.Error(t, err)

	_, err = New().Process(context.Background(), parse(t, rentLedger), Overrides{Horizon: "soon"})
	assert.Error(t, err)
}

func TestProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Process(ctx, parse(t, rentLedger), Overrides{})
	assert.IsError(t, err, context.Canceled)
}

func TestProcessDoesNotModifyTree(t *testing.T) {
	tree := parse(t, rentLedger)
	before := len(tree.Directives)

	_, err := New().Process(context.Background(), tree, Overrides{AutoAccounts: true})
	assert.NoError(t, err)
	assert.Equal(t, before, len(tree.Directives))
}
