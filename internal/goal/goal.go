package goal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sebuszqo/FamilyFinance/internal/dates"
)

const (
	CategoryGeneral    = "general"
	CategoryEmergency  = "emergency"
	CategoryRetirement = "retirement"
	CategoryEducation  = "education"
	CategoryTravel     = "travel"
	CategoryHome       = "home"
	CategoryVehicle    = "vehicle"

	maxNameLength = 100
)

var (
	validCategories = map[string]bool{
		CategoryGeneral:    true,
		CategoryEmergency:  true,
		CategoryRetirement: true,
		CategoryEducation:  true,
		CategoryTravel:     true,
		CategoryHome:       true,
		CategoryVehicle:    true,
	}
	hundred = decimal.NewFromInt(100)
)

type Goal struct {
	ID            string          `json:"id"`
	WorkspaceID   string          `json:"workspace_id"`
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Deadline      *dates.Date     `json:"deadline,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Progress is a goal with its derived figures.
type Progress struct {
	Goal
	ProgressPct     decimal.Decimal `json:"progress_pct"`
	Achieved        bool            `json:"achieved"`
	Remaining       decimal.Decimal `json:"remaining"`
	DaysRemaining   *int            `json:"days_remaining,omitempty"`
	MonthlyRequired decimal.Decimal `json:"monthly_required"`
}

func IsValidCategory(category string) bool {
	return validCategories[category]
}

// MonthsLeft counts calendar months from today to the deadline, never
// fewer than one.
func MonthsLeft(today, deadline time.Time) int {
	months := (deadline.Year()-today.Year())*12 + int(deadline.Month()) - int(today.Month())
	if deadline.Day() < today.Day() {
		months--
	}
	if months < 1 {
		return 1
	}
	return months
}

func Compute(g Goal, now time.Time) Progress {
	p := Progress{Goal: g, ProgressPct: decimal.Zero, Remaining: decimal.Zero, MonthlyRequired: decimal.Zero}

	p.Achieved = g.TargetAmount.IsPositive() && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
	if g.TargetAmount.IsPositive() {
		p.ProgressPct = g.CurrentAmount.Div(g.TargetAmount).Mul(hundred).Round(2)
		if p.ProgressPct.GreaterThan(hundred) {
			p.ProgressPct = hundred
		}
	}
	if !p.Achieved {
		p.Remaining = g.TargetAmount.Sub(g.CurrentAmount)
		if p.Remaining.IsNegative() {
			p.Remaining = decimal.Zero
		}
	}

	if g.Deadline != nil && !g.Deadline.IsZero() {
		today := dates.Day(now)
		days := int(g.Deadline.Sub(today).Hours() / 24)
		p.DaysRemaining = &days
		if !p.Achieved {
			months := MonthsLeft(today, g.Deadline.Time)
			p.MonthlyRequired = p.Remaining.Div(decimal.NewFromInt(int64(months))).Round(2)
		}
	}
	return p
}
