package budget

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sebuszqo/FamilyFinance/internal/dates"
)

const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"

	StateOK       = "ok"
	StateWarning  = "warning"
	StateExceeded = "exceeded"
)

var (
	warningThreshold  = decimal.NewFromInt(80)
	exceededThreshold = decimal.NewFromInt(100)
	hundred           = decimal.NewFromInt(100)
)

type Budget struct {
	ID          string          `json:"id"`
	WorkspaceID string          `json:"workspace_id"`
	UserID      string          `json:"user_id"`
	Category    string          `json:"category"`
	Limit       decimal.Decimal `json:"limit_amount"`
	Period      string          `json:"period"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Status struct {
	Budget
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	Percentage  decimal.Decimal `json:"percentage"`
	State       string          `json:"state"`
	PeriodStart dates.Date      `json:"period_start"`
	PeriodEnd   dates.Date      `json:"period_end"`
}

// CategoryKey is the form used to match transactions to a budget: surrounding
// whitespace and letter case are ignored.
func CategoryKey(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// foldCategories merges totals whose categories share a CategoryKey.
func foldCategories(spent map[string]decimal.Decimal) map[string]decimal.Decimal {
	folded := make(map[string]decimal.Decimal, len(spent))
	for category, amount := range spent {
		key := CategoryKey(category)
		folded[key] = folded[key].Add(amount)
	}
	return folded
}

func IsValidPeriod(period string) bool {
	return period == PeriodWeekly || period == PeriodMonthly || period == PeriodYearly
}

// PeriodBounds returns the first and last calendar day of the period that
// contains now. Weeks start on Monday.
func PeriodBounds(period string, now time.Time) (time.Time, time.Time) {
	day := dates.Day(now)
	switch period {
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6)
	case PeriodYearly:
		start := time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, -1)
	default:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1)
	}
}

// Percentage is spent/limit*100 rounded to two places. A zero limit
// reports 0.
func Percentage(spent, limit decimal.Decimal) decimal.Decimal {
	if !limit.IsPositive() {
		return decimal.Zero
	}
	return spent.Div(limit).Mul(hundred).Round(2)
}

func StateFor(percentage decimal.Decimal) string {
	switch {
	case percentage.GreaterThanOrEqual(exceededThreshold):
		return StateExceeded
	case percentage.GreaterThanOrEqual(warningThreshold):
		return StateWarning
	default:
		return StateOK
	}
}

// Evaluate computes how much of the budget has been used.
func Evaluate(b Budget, spent decimal.Decimal, now time.Time) Status {
	start, end := PeriodBounds(b.Period, now)
	pct := Percentage(spent, b.Limit)
	return Status{
		Budget:      b,
		Spent:       spent,
		Remaining:   b.Limit.Sub(spent),
		Percentage:  pct,
		State:       StateFor(pct),
		PeriodStart: dates.Of(start),
		PeriodEnd:   dates.Of(end),
	}
}
