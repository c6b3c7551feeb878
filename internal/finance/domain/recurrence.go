package domain

import (
	"strings"
	"time"

	"github.com/sebuszqo/FamilyFinance/internal/dates"
)

type Pattern string

const (
	Weekly  Pattern = "weekly"
	Monthly Pattern = "monthly"
	Yearly  Pattern = "yearly"
)

// MaxOccurrenceIterations bounds the stepping loop inside a window.
const MaxOccurrenceIterations = 100

// ParsePattern maps a stored pattern to a Pattern. Anything unrecognized is
// treated as monthly.
func ParsePattern(s string) Pattern {
	switch Pattern(strings.ToLower(strings.TrimSpace(s))) {
	case Weekly:
		return Weekly
	case Yearly:
		return Yearly
	default:
		return Monthly
	}
}

func IsKnownPattern(s string) bool {
	switch Pattern(strings.ToLower(strings.TrimSpace(s))) {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Step returns the n-th occurrence counted from start. Monthly and yearly
// steps keep the start's day of month, clamped to the month's last day.
func (p Pattern) Step(start time.Time, n int) time.Time {
	switch p {
	case Weekly:
		return start.AddDate(0, 0, 7*n)
	case Yearly:
		return addMonthsClamped(start, 12*n)
	default:
		return addMonthsClamped(start, n)
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysInMonth(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

type Schedule struct {
	Start   time.Time
	Pattern Pattern
	End     *time.Time
}

// firstIndex returns the smallest n whose occurrence is not before from.
func (s Schedule) firstIndex(start, from time.Time) int {
	if !from.After(start) {
		return 0
	}
	var n int
	switch s.Pattern {
	case Weekly:
		n = int(from.Sub(start).Hours()/24) / 7
	case Yearly:
		n = from.Year() - start.Year() - 1
	default:
		n = (from.Year()-start.Year())*12 + int(from.Month()) - int(start.Month()) - 1
	}
	if n < 0 {
		n = 0
	}
	for s.Pattern.Step(start, n).Before(from) {
		n++
	}
	return n
}

// Occurrences lists the occurrence dates of s inside [periodStart, periodEnd],
// skipping anything before today and anything after the schedule's end date.
// The result is ordered and free of duplicates. All dates are calendar days
// at midnight UTC.
func (s Schedule) Occurrences(periodStart, periodEnd, today time.Time) []time.Time {
	start := dates.Day(s.Start)
	from := dates.Day(periodStart)
	if t := dates.Day(today); t.After(from) {
		from = t
	}
	to := dates.Day(periodEnd)
	if s.End != nil {
		if end := dates.Day(*s.End); end.Before(to) {
			to = end
		}
	}
	if to.Before(from) || to.Before(start) {
		return nil
	}

	var out []time.Time
	n := s.firstIndex(start, from)
	for i := 0; i < MaxOccurrenceIterations; i++ {
		d := s.Pattern.Step(start, n+i)
		if d.After(to) {
			break
		}
		if d.Before(from) {
			continue
		}
		if len(out) > 0 && !d.After(out[len(out)-1]) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// OccurrenceDates is Occurrences rendered as ISO dates.
func (s Schedule) OccurrenceDates(periodStart, periodEnd, today time.Time) []string {
	occurrences := s.Occurrences(periodStart, periodEnd, today)
	out := make([]string, len(occurrences))
	for i, d := range occurrences {
		out[i] = d.Format(dates.Layout)
	}
	return out
}

// DueBetween lists occurrences strictly after `after` and up to and
// including `until`, ignoring today. Used when posting past-due
// occurrences, so the window runs backwards from today.
func (s Schedule) DueBetween(after, until time.Time) []time.Time {
	from := dates.Day(after).AddDate(0, 0, 1)
	return s.Occurrences(from, until, from)
}
