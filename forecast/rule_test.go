package forecast

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/beancount-forecast/ast"
)

func date(s string) time.Time {
	t, err := time.Parse(ast.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseRule(t *testing.T) {
	tests := []struct {
		name      string
		narration string
		want      *Rule
	}{
		{
			name:      "Monthly",
			narration: "Rent [MONTHLY]",
			want:      &Rule{Interval: Monthly, Source: "[MONTHLY]"},
		},
		{
			name:      "DailyAtStart",
			narration: "[DAILY] Coffee",
			want:      &Rule{Interval: Daily, Source: "[DAILY]"},
		},
		{
			name:      "Until",
			narration: "Insurance [YEARLY UNTIL 2036-12-31]",
			want: &Rule{
				Interval: Yearly,
				Bound:    Bound{Kind: Until, Until: date("2036-12-31")},
				Source:   "[YEARLY UNTIL 2036-12-31]",
			},
		},
		{
			name:      "Repeat",
			narration: "Loan [WEEKLY REPEAT 10 TIMES]",
			want: &Rule{
				Interval: Weekly,
				Bound:    Bound{Kind: Repeat, Count: 10},
				Source:   "[WEEKLY REPEAT 10 TIMES]",
			},
		},
		{
			name:      "Skip",
			narration: "Water bill [MONTHLY SKIP 2 TIMES]",
			want:      &Rule{Interval: Monthly, Skip: 2, Source: "[MONTHLY SKIP 2 TIMES]"},
		},
		{
			name:      "SkipSingularWithRepeat",
			narration: "Gym [MONTHLY SKIP 1 TIME REPEAT 3 TIMES]",
			want: &Rule{
				Interval: Monthly,
				Skip:     1,
				Bound:    Bound{Kind: Repeat, Count: 3},
				Source:   "[MONTHLY SKIP 1 TIME REPEAT 3 TIMES]",
			},
		},
		{
			name:      "CaseInsensitive",
			narration: "Rent [monthly until 2024-12-31]",
			want: &Rule{
				Interval: Monthly,
				Bound:    Bound{Kind: Until, Until: date("2024-12-31")},
				Source:   "[monthly until 2024-12-31]",
			},
		},
		{
			name:      "ExtraWhitespace",
			narration: "Rent [  MONTHLY   REPEAT  2   TIMES ]",
			want: &Rule{
				Interval: Monthly,
				Bound:    Bound{Kind: Repeat, Count: 2},
				Source:   "[  MONTHLY   REPEAT  2   TIMES ]",
			},
		},
		{
			name:      "OrdinaryBracketsIgnored",
			narration: "[Work] lunch [MONTHLY]",
			want:      &Rule{Interval: Monthly, Source: "[MONTHLY]"},
		},
		{name: "None", narration: "Regular coffee"},
		{name: "OrdinaryBracketsOnly", narration: "[Work] lunch"},
		{name: "EmptyBrackets", narration: "Lunch []"},
		{name: "Unclosed", narration: "Lunch [MONTHLY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := ParseRule(tt.narration, nil)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, rule)
		})
	}
}

func TestParseRuleErrors(t *testing.T) {
	tests := []struct {
		narration string
		kind      Kind
		message   string
	}{
		{"Salary [FORTNIGHTLY]", UnknownInterval, `unknown interval "FORTNIGHTLY"`},
		{"Rent [MONTHLY UNTIL 2024-02-30]", InvalidDate, `invalid UNTIL date "2024-02-30"`},
		{"Rent [MONTHLY UNTIL tomorrow]", InvalidDate, `invalid UNTIL date "tomorrow"`},
		{"Rent [MONTHLY UNTIL]", MalformedDirective, "UNTIL needs a date"},
		{"Rent [MONTHLY REPEAT 0 TIMES]", InvalidCount, `REPEAT count "0"`},
		{"Rent [MONTHLY REPEAT -2 TIMES]", InvalidCount, `REPEAT count "-2"`},
		{"Rent [MONTHLY REPEAT many TIMES]", InvalidCount, `REPEAT count "many"`},
		{"Rent [MONTHLY SKIP -1 TIMES]", InvalidCount, `SKIP count "-1"`},
		{"Coffee [DAILY SKIP 9223372036854775807 TIMES]", InvalidCount, `SKIP count "9223372036854775807"`},
		{"Coffee [DAILY SKIP 100001 TIMES]", InvalidCount, "between 0 and 100000"},
		{"Coffee [DAILY REPEAT 100001 TIMES]", InvalidCount, "between 1 and 100000"},
		{"Rent [MONTHLY REPEAT 99999999999999999999 TIMES]", InvalidCount, `REPEAT count "99999999999999999999"`},
		{"Rent [MONTHLY REPEAT 3]", MalformedDirective, "expected TIMES after REPEAT 3"},
		{"Rent [MONTHLY REPEAT 3 WEEKS]", MalformedDirective, `got "WEEKS"`},
		{"Rent [MONTHLY REPEAT]", MalformedDirective, "REPEAT needs a count"},
		{"Rent [MONTHLY EVERYDAY]", MalformedDirective, `unexpected "EVERYDAY"`},
		{"Rent [MONTHLY UNTIL 2024-12-31 REPEAT 3 TIMES]", ConflictingBounds, "UNTIL and REPEAT cannot be combined"},
		{"Rent [MONTHLY REPEAT 3 TIMES UNTIL 2024-12-31]", ConflictingBounds, "UNTIL and REPEAT cannot be combined"},
		{"Rent [MONTHLY SKIP 1 TIME SKIP 2 TIMES]", ConflictingBounds, "SKIP given more than once"},
		{"Rent [MONTHLY] and [WEEKLY]", MultipleDirectives, "2 recurrence directives"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.narration, func(t *testing.T) {
			rule, err := ParseRule(tt.narration, nil)
			assert.Zero(t, rule)
			assert.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Contains(t, err.Error(), tt.message)

			var perr *ParseError
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestParseRuleInvalidDateUnwraps(t *testing.T) {
	_, err := ParseRule("Rent [MONTHLY UNTIL 2024-13-01]", nil)
	var timeErr *time.ParseError
	assert.True(t, errors.As(err, &timeErr))
}

func TestParseRuleInvalidCountUnwraps(t *testing.T) {
	_, err := ParseRule("Rent [MONTHLY REPEAT x TIMES]", nil)
	var numErr *strconv.NumError
	assert.True(t, errors.As(err, &numErr))
}

func TestParseRuleFromMetadata(t *testing.T) {
	t.Run("Bare", func(t *testing.T) {
		rule, err := ParseRule("Rent", []*ast.Metadata{
			ast.NewMetadata("invoice", "INV-1"),
			ast.NewMetadata(MetadataKey, "MONTHLY REPEAT 3 TIMES"),
		})
		assert.NoError(t, err)
		assert.Equal(t, &Rule{
			Interval: Monthly,
			Bound:    Bound{Kind: Repeat, Count: 3},
			Source:   "MONTHLY REPEAT 3 TIMES",
		}, rule)
	})

	t.Run("Bracketed", func(t *testing.T) {
		rule, err := ParseRule("Rent", []*ast.Metadata{ast.NewMetadata(MetadataKey, "[weekly]")})
		assert.NoError(t, err)
		assert.Equal(t, Weekly, rule.Interval)
	})

	t.Run("NarrationWins", func(t *testing.T) {
		rule, err := ParseRule("Rent [DAILY]", []*ast.Metadata{ast.NewMetadata(MetadataKey, "YEARLY")})
		assert.NoError(t, err)
		assert.Equal(t, Daily, rule.Interval)
	})

	t.Run("Empty", func(t *testing.T) {
		rule, err := ParseRule("Rent", []*ast.Metadata{ast.NewMetadata(MetadataKey, "")})
		assert.NoError(t, err)
		assert.Zero(t, rule)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := ParseRule("Rent", []*ast.Metadata{ast.NewMetadata(MetadataKey, "HOURLY")})
		assert.Equal(t, UnknownInterval, KindOf(err))
	})
}

func TestParseDirective(t *testing.T) {
	rule, err := ParseDirective(" [YEARLY UNTIL 2030-01-01] ")
	assert.NoError(t, err)
	assert.Equal(t, "[YEARLY UNTIL 2030-01-01]", rule.Source)
	assert.Equal(t, Until, rule.Bound.Kind)

	_, err = ParseDirective("[]")
	assert.Equal(t, MalformedDirective, KindOf(err))
}

func TestRuleString(t *testing.T) {
	tests := []struct {
		directive string
		want      string
	}{
		{"monthly", "[MONTHLY]"},
		{"yearly until 2036-12-31", "[YEARLY UNTIL 2036-12-31]"},
		{"WEEKLY REPEAT 1 TIMES", "[WEEKLY REPEAT 1 TIME]"},
		{"DAILY REPEAT 5 TIME", "[DAILY REPEAT 5 TIMES]"},
		{"MONTHLY REPEAT 4 TIMES SKIP 1 TIME", "[MONTHLY SKIP 1 TIME REPEAT 4 TIMES]"},
	}

	for _, tt := range tests {
		t.Run(tt.directive, func(t *testing.T) {
			rule, err := ParseDirective(tt.directive)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, rule.String())

			again, err := ParseDirective(rule.String())
			assert.NoError(t, err)
			assert.Equal(t, rule.String(), again.String())
		})
	}

	var nilRule *Rule
	assert.Equal(t, "<nil>", nilRule.String())
}

func TestStripDirective(t *testing.T) {
	tests := []struct {
		narration string
		want      string
	}{
		{"Rent [MONTHLY]", "Rent"},
		{"[MONTHLY] Rent", "Rent"},
		{"Pay [MONTHLY UNTIL 2024-12-31] rent", "Pay rent"},
		{"[Work] lunch [WEEKLY]", "[Work] lunch"},
		{"Regular coffee", "Regular coffee"},
		{"  spaced   out  ", "  spaced   out  "},
		{"[DAILY]", ""},
		{"Pay  [MONTHLY]   rent", "Pay rent"},
		{"Rent  for  flat [MONTHLY]", "Rent  for  flat"},
		{"Rent [MONTHLY]  (2  rooms)", "Rent (2  rooms)"},
		{"Gym\t[WEEKLY]\tclass", "Gym class"},
	}

	for _, tt := range tests {
		t.Run(tt.narration, func(t *testing.T) {
			assert.Equal(t, tt.want, StripDirective(tt.narration))
		})
	}
}

func TestParseRuleCaseOfUnknownInterval(t *testing.T) {
	// Lower-case words in brackets are narration text unless they name a
	// known interval, so only the upper-case spelling is an error.
	rule, err := ParseRule("Payday [fortnightly]", nil)
	assert.NoError(t, err)
	assert.Zero(t, rule)
	assert.Equal(t, "Payday [fortnightly]", StripDirective("Payday [fortnightly]"))

	_, err = ParseRule("Payday [FORTNIGHTLY]", nil)
	assert.Equal(t, UnknownInterval, KindOf(err))

	rule, err = ParseRule("Payday [monthly]", nil)
	assert.NoError(t, err)
	assert.Equal(t, Monthly, rule.Interval)
}

func TestParseRuleCountCeiling(t *testing.T) {
	rule, err := ParseRule("Coffee [DAILY SKIP 100000 TIMES REPEAT 100000 TIMES]", nil)
	assert.NoError(t, err)
	assert.Equal(t, MaxCount, rule.Skip)
	assert.Equal(t, MaxCount, rule.Bound.Count)
}

func TestParseInterval(t *testing.T) {
	for _, interval := range []Interval{Daily, Weekly, Monthly, Yearly} {
		parsed, ok := ParseInterval(interval.String())
		assert.True(t, ok)
		assert.Equal(t, interval, parsed)
	}

	_, ok := ParseInterval("FORTNIGHTLY")
	assert.False(t, ok)
}
