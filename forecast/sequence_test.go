package forecast

import (
	"math"
	"slices"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func dates(ss ...string) []time.Time {
	out := make([]time.Time, len(ss))
	for i, s := range ss {
		out[i] = date(s)
	}
	return out
}

func mustRule(t *testing.T, directive string) *Rule {
	t.Helper()
	rule, err := ParseDirective(directive)
	assert.NoError(t, err)
	return rule
}

func TestOccurrences(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		directive string
		horizon   string
		want      []time.Time
	}{
		{
			name:      "MonthlyToHorizon",
			start:     "2017-01-01",
			directive: "MONTHLY",
			horizon:   "2017-03-15",
			want:      dates("2017-02-01", "2017-03-01"),
		},
		{
			name:      "DailyIncludesHorizon",
			start:     "2024-01-30",
			directive: "DAILY",
			horizon:   "2024-02-02",
			want:      dates("2024-01-31", "2024-02-01", "2024-02-02"),
		},
		{
			name:      "WeeklyRepeat",
			start:     "2024-01-01",
			directive: "WEEKLY REPEAT 3 TIMES",
			want:      dates("2024-01-08", "2024-01-15", "2024-01-22"),
		},
		{
			name:      "UntilOnBoundaryIsIncluded",
			start:     "2024-01-15",
			directive: "MONTHLY UNTIL 2024-04-15",
			want:      dates("2024-02-15", "2024-03-15", "2024-04-15"),
		},
		{
			name:      "UntilBetweenBoundaries",
			start:     "2024-01-15",
			directive: "MONTHLY UNTIL 2024-04-14",
			want:      dates("2024-02-15", "2024-03-15"),
		},
		{
			name:      "UntilBeforeFirstOccurrence",
			start:     "2024-01-15",
			directive: "MONTHLY UNTIL 2024-02-01",
		},
		{
			name:      "HorizonCutsRepeat",
			start:     "2024-01-01",
			directive: "MONTHLY REPEAT 12 TIMES",
			horizon:   "2024-03-31",
			want:      dates("2024-02-01", "2024-03-01"),
		},
		{
			name:      "HorizonCutsUntil",
			start:     "2024-01-01",
			directive: "YEARLY UNTIL 2030-01-01",
			horizon:   "2026-06-30",
			want:      dates("2025-01-01", "2026-01-01"),
		},
		{
			name:      "HorizonBeforeStart",
			start:     "2024-06-01",
			directive: "MONTHLY",
			horizon:   "2024-01-01",
		},
		{
			name:      "MonthEndClamps",
			start:     "2024-01-31",
			directive: "MONTHLY REPEAT 4 TIMES",
			want:      dates("2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31"),
		},
		{
			name:      "LeapDayYearly",
			start:     "2024-02-29",
			directive: "YEARLY REPEAT 4 TIMES",
			want:      dates("2025-02-28", "2026-02-28", "2027-02-28", "2028-02-29"),
		},
		{
			name:      "SkipMonthly",
			start:     "2024-01-10",
			directive: "MONTHLY SKIP 2 TIMES REPEAT 3 TIMES",
			want:      dates("2024-04-10", "2024-07-10", "2024-10-10"),
		},
		{
			name:      "SkipWeekly",
			start:     "2024-01-01",
			directive: "WEEKLY SKIP 1 TIME",
			horizon:   "2024-02-01",
			want:      dates("2024-01-15", "2024-01-29"),
		},
		{
			name:      "YearBoundary",
			start:     "2024-11-30",
			directive: "MONTHLY REPEAT 3 TIMES",
			want:      dates("2024-12-30", "2025-01-30", "2025-02-28"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var horizon time.Time
			if tt.horizon != "" {
				horizon = date(tt.horizon)
			}

			seq, err := Occurrences(date(tt.start), mustRule(t, tt.directive), horizon)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, slices.Collect(seq))
		})
	}
}

func TestOccurrencesScenarios(t *testing.T) {
	t.Run("YearlyRepeatTwenty", func(t *testing.T) {
		seq, err := Occurrences(date("2017-01-10"), mustRule(t, "YEARLY REPEAT 20 TIMES"), date("2040-01-01"))
		assert.NoError(t, err)

		got := slices.Collect(seq)
		assert.Equal(t, 20, len(got))
		assert.Equal(t, date("2018-01-10"), got[0])
		assert.Equal(t, date("2037-01-10"), got[19])
	})

	t.Run("YearlyUntilNotOnBoundary", func(t *testing.T) {
		seq, err := Occurrences(date("2017-01-01"), mustRule(t, "YEARLY UNTIL 2036-12-31"), date("2040-01-01"))
		assert.NoError(t, err)

		got := slices.Collect(seq)
		assert.Equal(t, 19, len(got))
		assert.Equal(t, date("2018-01-01"), got[0])
		assert.Equal(t, date("2036-01-01"), got[18])
	})
}

func TestOccurrencesMissingHorizon(t *testing.T) {
	rule := mustRule(t, "MONTHLY")
	seq, err := Occurrences(date("2024-01-01"), rule, time.Time{})
	assert.Zero(t, seq)
	assert.Equal(t, MissingHorizon, KindOf(err))
	assert.Contains(t, err.Error(), "[MONTHLY]")

	// Bounded rules need no horizon.
	seq, err = Occurrences(date("2024-01-01"), mustRule(t, "MONTHLY REPEAT 2 TIMES"), time.Time{})
	assert.NoError(t, err)
	assert.Equal(t, dates("2024-02-01", "2024-03-01"), slices.Collect(seq))
}

func TestOccurrencesRestartable(t *testing.T) {
	seq, err := Occurrences(date("2024-01-01"), mustRule(t, "DAILY"), date("2024-01-05"))
	assert.NoError(t, err)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
	assert.Equal(t, 4, len(first))

	// Stopping early is honoured.
	var taken []time.Time
	for d := range seq {
		taken = append(taken, d)
		if len(taken) == 2 {
			break
		}
	}
	assert.Equal(t, dates("2024-01-02", "2024-01-03"), taken)
}

func TestOccurrencesIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, 1, 31, 18, 30, 0, 0, time.FixedZone("CET", 3600))
	seq, err := Occurrences(start, mustRule(t, "MONTHLY"), time.Date(2024, 2, 29, 1, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.Equal(t, dates("2024-02-29"), slices.Collect(seq))
}

func TestOccurrencesLargeCounts(t *testing.T) {
	t.Run("SkipOutOfRange", func(t *testing.T) {
		rule := &Rule{Interval: Daily, Skip: math.MaxInt}
		seq, err := Occurrences(date("2017-01-01"), rule, date("2018-01-01"))
		assert.Zero(t, seq)
		assert.Equal(t, InvalidCount, KindOf(err))
	})

	t.Run("LargestSkipEndsAtHorizon", func(t *testing.T) {
		seq, err := Occurrences(date("2017-01-01"), mustRule(t, "DAILY SKIP 100000 TIMES"), date("2018-01-01"))
		assert.NoError(t, err)
		assert.Zero(t, slices.Collect(seq))
	})

	t.Run("StopsAtYear9999", func(t *testing.T) {
		seq, err := Occurrences(date("2017-06-30"), mustRule(t, "YEARLY REPEAT 100000 TIMES"), time.Time{})
		assert.NoError(t, err)

		got := slices.Collect(seq)
		assert.Equal(t, 9999-2017, len(got))
		assert.Equal(t, date("9999-06-30"), got[len(got)-1])
	})

	t.Run("MonthlyStepBeyondRange", func(t *testing.T) {
		seq, err := Occurrences(date("2017-01-31"), mustRule(t, "MONTHLY SKIP 100000 TIMES REPEAT 100000 TIMES"), time.Time{})
		assert.NoError(t, err)
		assert.Zero(t, slices.Collect(seq))
	})

	t.Run("DatesStrictlyIncrease", func(t *testing.T) {
		seq, err := Occurrences(date("2024-01-31"), mustRule(t, "WEEKLY SKIP 99999 TIMES"), date("9999-12-31"))
		assert.NoError(t, err)

		prev := date("2024-01-31")
		for d := range seq {
			assert.True(t, d.After(prev))
			prev = d
		}
	})
}
