package forecast

import (
	"fmt"
	"iter"
	"time"
)

// Occurrences returns the dates derived from start by rule, not including
// start itself. The k-th date is start plus k*(1+Skip) intervals, always
// computed from start so month-end dates do not drift; monthly and yearly
// steps clamp to the last day of a shorter target month.
//
// The sequence stops at the first of: the REPEAT count, a date after UNTIL,
// a date after horizon. A zero horizon means none, so an unbounded rule
// without one fails with MissingHorizon.
//
// Dates never go past the year 9999, and the sequence ends early rather than
// yield a date that is not after the previous one.
//
// The returned sequence is lazy and may be ranged over more than once.
func Occurrences(start time.Time, rule *Rule, horizon time.Time) (iter.Seq[time.Time], error) {
	if rule == nil {
		return nil, &GenerationError{Kind: MalformedDirective, Message: "no rule"}
	}
	if rule.Bound.Kind == Unbounded && horizon.IsZero() {
		return nil, &GenerationError{
			Kind:    MissingHorizon,
			Rule:    rule,
			Message: "rule has no UNTIL or REPEAT bound and no horizon was given",
		}
	}

	if rule.Skip < 0 || rule.Skip > MaxCount {
		return nil, &GenerationError{
			Kind:    InvalidCount,
			Rule:    rule,
			Message: fmt.Sprintf("SKIP count %d is outside 0 to %d", rule.Skip, MaxCount),
		}
	}

	anchor := dateOnly(start)
	step := 1 + rule.Skip
	limit := maxSteps(rule.Interval)

	var until time.Time
	if rule.Bound.Kind == Until {
		until = dateOnly(rule.Bound.Until)
	}
	if !horizon.IsZero() {
		horizon = dateOnly(horizon)
	}

	return func(yield func(time.Time) bool) {
		prev := anchor
		for k := 1; ; k++ {
			if rule.Bound.Kind == Repeat && k > rule.Bound.Count {
				return
			}
			if k > limit/step {
				return
			}

			date := advance(anchor, rule.Interval, k*step)
			if !date.After(prev) || date.Year() > maxYear {
				return
			}
			prev = date
			if !until.IsZero() && date.After(until) {
				return
			}
			if !horizon.IsZero() && date.After(horizon) {
				return
			}

			if !yield(date) {
				return
			}
		}
	}, nil
}

const maxYear = 9999

// maxSteps is the number of intervals spanning the whole date range, so
// k*step never needs to go beyond it.
func maxSteps(interval Interval) int {
	switch interval {
	case Daily:
		return maxYear * 366
	case Weekly:
		return maxYear * 53
	case Monthly:
		return maxYear * 12
	default:
		return maxYear
	}
}

// advance moves anchor forward by n intervals.
func advance(anchor time.Time, interval Interval, n int) time.Time {
	switch interval {
	case Daily:
		return anchor.AddDate(0, 0, n)
	case Weekly:
		return anchor.AddDate(0, 0, 7*n)
	case Monthly:
		return addMonths(anchor, n)
	case Yearly:
		return addMonths(anchor, 12*n)
	default:
		panic(fmt.Sprintf("unknown interval %d", int(interval)))
	}
}

// addMonths adds n calendar months, clamping the day of month: Jan 31 plus
// one month is Feb 28 (or 29), and Feb 29 plus one year is Feb 28.
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func dateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
