package budget

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPeriodBounds(t *testing.T) {
	tests := []struct {
		name      string
		period    string
		now       time.Time
		wantStart string
		wantEnd   string
	}{
		{"weekly midweek", PeriodWeekly, time.Date(2024, 3, 13, 18, 0, 0, 0, time.UTC), "2024-03-11", "2024-03-17"},
		{"weekly sunday", PeriodWeekly, time.Date(2024, 3, 17, 9, 0, 0, 0, time.UTC), "2024-03-11", "2024-03-17"},
		{"monthly leap february", PeriodMonthly, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), "2024-02-01", "2024-02-29"},
		{"yearly", PeriodYearly, time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC), "2024-01-01", "2024-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := PeriodBounds(tt.period, tt.now)
			assert.Equal(t, tt.wantStart, start.Format("2006-01-02"))
			assert.Equal(t, tt.wantEnd, end.Format("2006-01-02"))
		})
	}
}

func TestEvaluate_Thresholds(t *testing.T) {
	now := time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		limit, spent  string
		wantPct       string
		wantState     string
		wantRemaining string
	}{
		{"100", "79.99", "79.99", StateOK, "20.01"},
		{"100", "80", "80", StateWarning, "20"},
		{"200", "199.98", "99.99", StateWarning, "0.02"},
		{"100", "100", "100", StateExceeded, "0"},
		{"100", "150", "150", StateExceeded, "-50"},
		{"0", "25", "0", StateOK, "-25"},
		{"300", "100", "33.33", StateOK, "200"},
	}
	for _, tt := range tests {
		t.Run(tt.limit+"/"+tt.spent, func(t *testing.T) {
			b := Budget{Category: "Groceries", Limit: dec(tt.limit), Period: PeriodMonthly}
			s := Evaluate(b, dec(tt.spent), now)
			assert.True(t, s.Percentage.Equal(dec(tt.wantPct)), "percentage %s", s.Percentage)
			assert.Equal(t, tt.wantState, s.State)
			assert.True(t, s.Remaining.Equal(dec(tt.wantRemaining)), "remaining %s", s.Remaining)
			assert.Equal(t, "2024-03-01", s.PeriodStart.String())
			assert.Equal(t, "2024-03-31", s.PeriodEnd.String())
		})
	}
}
