// Package insights turns workspace figures into a dashboard, alerts and
// tips. Everything here is threshold checks over numbers gathered by the
// service.
package insights

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sebuszqo/FamilyFinance/internal/budget"
	"github.com/sebuszqo/FamilyFinance/internal/goal"
)

const (
	AlertBudgetWarning   = "budget_warning"
	AlertBudgetExceeded  = "budget_exceeded"
	AlertGoalDeadline    = "goal_deadline"
	AlertUnusualSpending = "unusual_spending"
	AlertLowBalance      = "low_balance"

	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"

	goalDeadlineDays = 30
	topCategoryLimit = 5
	lowBalanceDays   = 30
)

var (
	hundred          = decimal.NewFromInt(100)
	unusualFactor    = decimal.NewFromFloat(1.5)
	minSavingsRate   = decimal.NewFromInt(10)
	maxCategoryShare = decimal.NewFromInt(30)
)

type MonthTotals struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Savings  decimal.Decimal `json:"savings"`
}

func NewMonthTotals(income, expenses decimal.Decimal) MonthTotals {
	return MonthTotals{Income: income, Expenses: expenses, Savings: income.Sub(expenses)}
}

// SavingsRate is savings as a percentage of income, 0 without income.
func (m MonthTotals) SavingsRate() decimal.Decimal {
	if !m.Income.IsPositive() {
		return decimal.Zero
	}
	return m.Savings.Div(m.Income).Mul(hundred).Round(2)
}

type CategorySpend struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	SharePct decimal.Decimal `json:"share_pct"`
}

type BudgetSummary struct {
	Total    int `json:"total"`
	OK       int `json:"ok"`
	Warning  int `json:"warning"`
	Exceeded int `json:"exceeded"`
}

type Dashboard struct {
	Month           string          `json:"month"`
	ThisMonth       MonthTotals     `json:"this_month"`
	LastMonth       MonthTotals     `json:"last_month"`
	SavingsTrendPct decimal.Decimal `json:"savings_trend_pct"`
	SavingsRatePct  decimal.Decimal `json:"savings_rate_pct"`
	Budgets         BudgetSummary   `json:"budgets"`
	TopCategories   []CategorySpend `json:"top_categories"`
}

type Alert struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

type Tip struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Priority int    `json:"priority"`
}

// SavingsTrend is the month-over-month change in savings, relative to the
// magnitude of last month's savings. Zero prior savings gives 0.
func SavingsTrend(this, last decimal.Decimal) decimal.Decimal {
	if last.IsZero() {
		return decimal.Zero
	}
	return this.Sub(last).Div(last.Abs()).Mul(hundred).Round(2)
}

// MonthBounds returns the first day of the month containing now, the first
// day of the previous month and the last day of the previous month.
func MonthBounds(now time.Time) (thisStart, lastStart, lastEnd time.Time) {
	thisStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastStart = thisStart.AddDate(0, -1, 0)
	lastEnd = thisStart.AddDate(0, 0, -1)
	return thisStart, lastStart, lastEnd
}

func SummarizeBudgets(statuses []budget.Status) BudgetSummary {
	s := BudgetSummary{Total: len(statuses)}
	for _, st := range statuses {
		switch st.State {
		case budget.StateExceeded:
			s.Exceeded++
		case budget.StateWarning:
			s.Warning++
		default:
			s.OK++
		}
	}
	return s
}

// TopCategories orders spending by amount, largest first, and keeps at
// most limit entries. Shares are relative to the total of all categories.
func TopCategories(spending map[string]decimal.Decimal, limit int) []CategorySpend {
	total := decimal.Zero
	for _, amount := range spending {
		total = total.Add(amount)
	}

	out := make([]CategorySpend, 0, len(spending))
	for category, amount := range spending {
		share := decimal.Zero
		if total.IsPositive() {
			share = amount.Div(total).Mul(hundred).Round(2)
		}
		out = append(out, CategorySpend{Category: category, Amount: amount, SharePct: share})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Category < out[j].Category
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AlertInput is everything the alert rules look at.
type AlertInput struct {
	Budgets       []budget.Status
	Goals         []goal.Progress
	ThisMonth     map[string]decimal.Decimal
	LastMonth     map[string]decimal.Decimal
	LowestBalance decimal.Decimal
	LowestDate    string
}

func displayName(category string) string {
	if category == "" {
		return "Uncategorized"
	}
	return category
}

// EvaluateAlerts applies the alert rules. Results are ordered by rule and
// then by name so repeated runs produce the same titles in the same order.
func EvaluateAlerts(in AlertInput) []Alert {
	var alerts []Alert

	for _, b := range in.Budgets {
		switch b.State {
		case budget.StateExceeded:
			alerts = append(alerts, Alert{
				Type:     AlertBudgetExceeded,
				Severity: SeverityCritical,
				Title:    fmt.Sprintf("Budget exceeded: %s", displayName(b.Category)),
				Message: fmt.Sprintf("You have spent %s of your %s %s budget for %s (%s%%).",
					b.Spent.StringFixed(2), b.Period, b.Limit.StringFixed(2), displayName(b.Category), b.Percentage.String()),
			})
		case budget.StateWarning:
			alerts = append(alerts, Alert{
				Type:     AlertBudgetWarning,
				Severity: SeverityWarning,
				Title:    fmt.Sprintf("Budget almost used: %s", displayName(b.Category)),
				Message: fmt.Sprintf("You have used %s%% of your %s budget for %s. %s left.",
					b.Percentage.String(), b.Period, displayName(b.Category), b.Remaining.StringFixed(2)),
			})
		}
	}

	for _, g := range in.Goals {
		if g.Achieved || g.DaysRemaining == nil || *g.DaysRemaining > goalDeadlineDays {
			continue
		}
		days := *g.DaysRemaining
		alert := Alert{
			Type:     AlertGoalDeadline,
			Severity: SeverityWarning,
			Title:    fmt.Sprintf("Goal deadline approaching: %s", g.Name),
			Message: fmt.Sprintf("%s is due in %d days and is %s%% complete. %s still needed.",
				g.Name, days, g.ProgressPct.String(), g.Remaining.StringFixed(2)),
		}
		if days < 0 {
			alert.Severity = SeverityCritical
			alert.Title = fmt.Sprintf("Goal deadline passed: %s", g.Name)
			alert.Message = fmt.Sprintf("%s passed its deadline %d days ago at %s%% complete.", g.Name, -days, g.ProgressPct.String())
		}
		alerts = append(alerts, alert)
	}

	categories := make([]string, 0, len(in.ThisMonth))
	for category := range in.ThisMonth {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		this := in.ThisMonth[category]
		last, ok := in.LastMonth[category]
		if !ok || !last.IsPositive() || !this.GreaterThan(last.Mul(unusualFactor)) {
			continue
		}
		alerts = append(alerts, Alert{
			Type:     AlertUnusualSpending,
			Severity: SeverityInfo,
			Title:    fmt.Sprintf("Unusual spending: %s", displayName(category)),
			Message: fmt.Sprintf("Spending on %s this month (%s) is more than 1.5x last month (%s).",
				displayName(category), this.StringFixed(2), last.StringFixed(2)),
		})
	}

	if in.LowestBalance.IsNegative() {
		alerts = append(alerts, Alert{
			Type:     AlertLowBalance,
			Severity: SeverityCritical,
			Title:    "Balance projected below zero",
			Message: fmt.Sprintf("Your balance is projected to reach %s on %s based on upcoming transactions.",
				in.LowestBalance.StringFixed(2), in.LowestDate),
		})
	}
	return alerts
}

// TipInput is everything the tip rules look at.
type TipInput struct {
	ThisMonth       MonthTotals
	TopCategory     *CategorySpend
	Goals           []goal.Progress
	Budgets         []budget.Status
	InvestmentCount int
}

// EvaluateTips applies the tip rules in priority order.
func EvaluateTips(in TipInput) []Tip {
	tips := []Tip{}

	if in.ThisMonth.SavingsRate().LessThan(minSavingsRate) {
		tips = append(tips, Tip{
			ID:       "savings-rate",
			Category: "savings",
			Title:    "Save at least 10% of your income",
			Message: fmt.Sprintf("You are saving %s%% of your income this month. Try setting aside 10%% as soon as money comes in.",
				in.ThisMonth.SavingsRate().String()),
		})
	}

	hasEmergency := false
	for _, g := range in.Goals {
		if g.Category == goal.CategoryEmergency {
			hasEmergency = true
			break
		}
	}
	if !hasEmergency {
		tips = append(tips, Tip{
			ID:       "emergency-fund",
			Category: "emergency",
			Title:    "Start an emergency fund",
			Message:  "An emergency fund covering three to six months of expenses protects you from surprises. Create an emergency goal to track it.",
		})
	}

	if in.TopCategory != nil && in.TopCategory.SharePct.GreaterThan(maxCategoryShare) {
		tips = append(tips, Tip{
			ID:       "top-category",
			Category: "spending",
			Title:    fmt.Sprintf("Review your %s spending", displayName(in.TopCategory.Category)),
			Message: fmt.Sprintf("%s accounts for %s%% of this month's spending. Look for ways to trim it.",
				displayName(in.TopCategory.Category), in.TopCategory.SharePct.String()),
		})
	}

	for _, b := range in.Budgets {
		if b.State == budget.StateExceeded {
			tips = append(tips, Tip{
				ID:       "budget-exceeded",
				Category: "budget",
				Title:    "Get back within budget",
				Message:  "At least one budget is exceeded. Adjust the limit to something realistic or cut back until the period resets.",
			})
			break
		}
	}

	if in.InvestmentCount == 0 {
		tips = append(tips, Tip{
			ID:       "start-investing",
			Category: "investment",
			Title:    "Put your savings to work",
			Message:  "You have no investments yet. Even small regular contributions to a diversified fund grow over time.",
		})
	}

	for i := range tips {
		tips[i].Priority = i + 1
	}
	return tips
}
