package ledger

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestSchedule(t *testing.T) {
	result, err := New().Process(context.Background(), parse(t, rentLedger), Overrides{Horizon: "2024-03-31"})
	assert.NoError(t, err)

	schedule := result.Schedule()
	assert.Equal(t, 2, len(schedule))

	first := schedule[0]
	assert.Equal(t, "2024-02-29", first.Date)
	assert.Equal(t, "Landlord", first.Payee)
	assert.Equal(t, "Rent", first.Narration)
	assert.Equal(t, `2024-01-31 "Landlord" "Rent" [MONTHLY]`, first.Template)
	assert.Equal(t, 36, len(first.ID))
	assert.Equal(t, []Posting{
		{Account: "Expenses:Rent", Amount: "1000.00 USD"},
		{Account: "Assets:Checking"},
	}, first.Postings)
	assert.Equal(t, "Expenses:Rent 1000.00 USD", first.Amounts())

	assert.NotEqual(t, first.ID, schedule[1].ID)
}

func TestScheduleEmpty(t *testing.T) {
	result, err := New().Process(context.Background(), parse(t, `2024-01-01 open Assets:Cash`), Overrides{})
	assert.NoError(t, err)
	assert.Equal(t, []Occurrence{}, result.Schedule())
}
