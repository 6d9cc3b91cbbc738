package forecast

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/robinvdvleuten/beancount-forecast/ast"
)

// MetadataKey is the transaction metadata entry that may carry a directive
// instead of the narration.
const MetadataKey = "forecast"

// Interval is the period between two occurrences.
type Interval int

const (
	Daily Interval = iota
	Weekly
	Monthly
	Yearly
)

func (i Interval) String() string {
	switch i {
	case Daily:
		return "DAILY"
	case Weekly:
		return "WEEKLY"
	case Monthly:
		return "MONTHLY"
	case Yearly:
		return "YEARLY"
	default:
		panic(fmt.Sprintf("unknown interval %d", int(i)))
	}
}

// MarshalText renders the interval keyword in JSON and YAML output.
func (i Interval) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// ParseInterval parses an interval keyword, ignoring case.
func ParseInterval(s string) (Interval, bool) {
	switch strings.ToUpper(s) {
	case "DAILY":
		return Daily, true
	case "WEEKLY":
		return Weekly, true
	case "MONTHLY":
		return Monthly, true
	case "YEARLY":
		return Yearly, true
	default:
		return 0, false
	}
}

// BoundKind tells which bound limits a rule.
type BoundKind int

const (
	// Unbounded rules continue until the horizon.
	Unbounded BoundKind = iota
	// Until rules stop at an end date, inclusive.
	Until
	// Repeat rules stop after a number of derived occurrences.
	Repeat
)

func (k BoundKind) String() string {
	switch k {
	case Until:
		return "until"
	case Repeat:
		return "repeat"
	default:
		return "unbounded"
	}
}

// MarshalText renders the bound kind by name in JSON and YAML output.
func (k BoundKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Bound limits how many occurrences a rule produces. Only the field matching
// Kind is meaningful.
type Bound struct {
	Kind  BoundKind `json:"kind" yaml:"kind"`
	Until time.Time `json:"until,omitzero" yaml:"until,omitempty"`
	Count int       `json:"count,omitempty" yaml:"count,omitempty"`
}

// Rule is a parsed recurrence directive.
//
//	[MONTHLY]                   → {Monthly, Skip 0, Unbounded}
//	[YEARLY UNTIL 2036-12-31]   → {Yearly, Skip 0, Until 2036-12-31}
//	[WEEKLY REPEAT 10 TIMES]    → {Weekly, Skip 0, Repeat 10}
//	[MONTHLY SKIP 2 TIMES]      → {Monthly, Skip 2, Unbounded}, every third month
type Rule struct {
	Interval Interval `json:"interval" yaml:"interval"`
	Skip     int      `json:"skip,omitempty" yaml:"skip,omitempty"`
	Bound    Bound    `json:"bound" yaml:"bound"`

	// Source is the directive as written, including brackets when it came
	// from the narration.
	Source string `json:"source" yaml:"source"`
}

// String renders the rule in canonical directive syntax.
func (r *Rule) String() string {
	if r == nil {
		return "<nil>"
	}

	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(r.Interval.String())
	if r.Skip > 0 {
		fmt.Fprintf(&b, " SKIP %d %s", r.Skip, times(r.Skip))
	}
	switch r.Bound.Kind {
	case Until:
		b.WriteString(" UNTIL ")
		b.WriteString(r.Bound.Until.Format(ast.DateFormat))
	case Repeat:
		fmt.Fprintf(&b, " REPEAT %d %s", r.Bound.Count, times(r.Bound.Count))
	}
	b.WriteByte(']')
	return b.String()
}

func times(n int) string {
	if n == 1 {
		return "TIME"
	}
	return "TIMES"
}

// ParseRule looks for a recurrence directive in a transaction's narration,
// then in its forecast metadata entry. It returns a nil rule and a nil error
// when neither carries one.
func ParseRule(narration string, meta []*ast.Metadata) (*Rule, error) {
	groups := directiveGroups(narration)
	switch {
	case len(groups) > 1:
		return nil, newParseError(MultipleDirectives, "",
			"narration %q has %d recurrence directives, expected at most one", narration, len(groups))
	case len(groups) == 1:
		g := groups[0]
		return parseDirective(narration[g.start:g.end], g.inner)
	}

	for _, m := range meta {
		if m.Key != MetadataKey {
			continue
		}
		value := strings.TrimSpace(m.Value)
		inner := strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")
		if strings.TrimSpace(inner) == "" {
			return nil, nil
		}
		return parseDirective(value, inner)
	}

	return nil, nil
}

// ParseDirective parses directive text such as "MONTHLY UNTIL 2024-12-31",
// with or without surrounding brackets.
func ParseDirective(text string) (*Rule, error) {
	text = strings.TrimSpace(text)
	inner := strings.TrimSuffix(strings.TrimPrefix(text, "["), "]")
	return parseDirective(text, inner)
}

func parseDirective(source, inner string) (*Rule, error) {
	words := strings.Fields(inner)
	if len(words) == 0 {
		return nil, newParseError(MalformedDirective, source, "empty directive")
	}

	interval, ok := ParseInterval(words[0])
	if !ok {
		return nil, newParseError(UnknownInterval, source,
			"unknown interval %q, expected one of DAILY, WEEKLY, MONTHLY, YEARLY", words[0])
	}

	rule := &Rule{Interval: interval, Source: source}
	seen := map[string]bool{}

	for i := 1; i < len(words); {
		keyword := strings.ToUpper(words[i])
		if seen[keyword] {
			return nil, newParseError(ConflictingBounds, source, "%s given more than once", keyword)
		}
		seen[keyword] = true

		switch keyword {
		case "UNTIL":
			if seen["REPEAT"] {
				return nil, newParseError(ConflictingBounds, source, "UNTIL and REPEAT cannot be combined")
			}
			if i+1 >= len(words) {
				return nil, newParseError(MalformedDirective, source, "UNTIL needs a date")
			}
			until, err := time.Parse(ast.DateFormat, words[i+1])
			if err != nil {
				return nil, &ParseError{
					Kind:      InvalidDate,
					Directive: source,
					Message:   fmt.Sprintf("invalid UNTIL date %q", words[i+1]),
					Err:       err,
				}
			}
			rule.Bound = Bound{Kind: Until, Until: until}
			i += 2

		case "REPEAT":
			if seen["UNTIL"] {
				return nil, newParseError(ConflictingBounds, source, "UNTIL and REPEAT cannot be combined")
			}
			n, next, err := parseCount(source, words, i, 1)
			if err != nil {
				return nil, err
			}
			rule.Bound = Bound{Kind: Repeat, Count: n}
			i = next

		case "SKIP":
			n, next, err := parseCount(source, words, i, 0)
			if err != nil {
				return nil, err
			}
			rule.Skip = n
			i = next

		default:
			return nil, newParseError(MalformedDirective, source, "unexpected %q", words[i])
		}
	}

	return rule, nil
}

// MaxCount is the largest REPEAT or SKIP count a directive may carry.
const MaxCount = 100_000

// parseCount parses "KEYWORD <n> TIME[S]" starting at words[i]. The count
// must be between min and MaxCount.
func parseCount(source string, words []string, i, min int) (int, int, error) {
	keyword := strings.ToUpper(words[i])
	if i+1 >= len(words) {
		return 0, 0, newParseError(MalformedDirective, source, "%s needs a count", keyword)
	}

	n, err := strconv.Atoi(words[i+1])
	if err != nil || n < min || n > MaxCount {
		perr := newParseError(InvalidCount, source, "%s count %q must be an integer between %d and %d", keyword, words[i+1], min, MaxCount)
		perr.Err = err
		return 0, 0, perr
	}

	if i+2 >= len(words) {
		return 0, 0, newParseError(MalformedDirective, source, "expected TIMES after %s %d", keyword, n)
	}
	switch strings.ToUpper(words[i+2]) {
	case "TIMES", "TIME":
	default:
		return 0, 0, newParseError(MalformedDirective, source, "expected TIMES after %s %d, got %q", keyword, n, words[i+2])
	}

	return n, i + 3, nil
}

type group struct {
	start, end int    // Byte span of the group including brackets
	inner      string // Text between the brackets
}

// directiveGroups returns the bracketed groups of a narration that look like
// directives: the first word is an interval keyword in any case, or an
// all upper-case word such as an unsupported interval. Groups like "[Work]"
// are ordinary narration text.
func directiveGroups(narration string) []group {
	var groups []group

	for offset := 0; offset < len(narration); {
		open := strings.IndexByte(narration[offset:], '[')
		if open < 0 {
			break
		}
		open += offset

		closing := strings.IndexByte(narration[open+1:], ']')
		if closing < 0 {
			break
		}
		closing += open + 1

		inner := narration[open+1 : closing]
		if isDirectiveCandidate(inner) {
			groups = append(groups, group{start: open, end: closing + 1, inner: inner})
		}
		offset = closing + 1
	}

	return groups
}

func isDirectiveCandidate(inner string) bool {
	words := strings.Fields(inner)
	if len(words) == 0 {
		return false
	}
	if _, ok := ParseInterval(words[0]); ok {
		return true
	}
	for _, r := range words[0] {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// StripDirective removes the recurrence directive from a narration and
// collapses the whitespace around the removed span to a single space. The
// rest of the narration is kept as written.
func StripDirective(narration string) string {
	groups := directiveGroups(narration)
	if len(groups) == 0 {
		return narration
	}

	var out string
	last := 0
	for i, g := range groups {
		segment := narration[last:g.start]
		if i > 0 {
			segment = strings.TrimLeftFunc(segment, unicode.IsSpace)
		}
		out = joinAround(out, strings.TrimRightFunc(segment, unicode.IsSpace))
		last = g.end
	}

	return joinAround(out, strings.TrimLeftFunc(narration[last:], unicode.IsSpace))
}

func joinAround(left, right string) string {
	if left == "" || right == "" {
		return left + right
	}
	return left + " " + right
}
