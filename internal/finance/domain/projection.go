package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sebuszqo/FamilyFinance/internal/dates"
)

const (
	SourceRecurring = "recurring"
	SourceIncoming  = "incoming"

	DefaultProjectionDays = 30
	MaxProjectionDays     = 365
)

type UpcomingTransaction struct {
	TransactionID string          `json:"transaction_id"`
	Date          dates.Date      `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Source        string          `json:"source"`
}

func (u UpcomingTransaction) Signed() decimal.Decimal {
	if u.Type == TypeExpense {
		return u.Amount.Neg()
	}
	return u.Amount
}

type BalancePoint struct {
	Date    dates.Date      `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

type Projection struct {
	StartingBalance decimal.Decimal `json:"starting_balance"`
	EndingBalance   decimal.Decimal `json:"ending_balance"`
	LowestBalance   decimal.Decimal `json:"lowest_balance"`
	LowestDate      dates.Date      `json:"lowest_date"`
	Points          []BalancePoint  `json:"points"`
}

// ClampDays normalises a requested projection length.
func ClampDays(days int) int {
	if days <= 0 {
		return DefaultProjectionDays
	}
	if days > MaxProjectionDays {
		return MaxProjectionDays
	}
	return days
}

// ExpandUpcoming turns recurring templates and pending incoming transactions
// into the dated items that fall within [today, today+days]. Occurrences
// that already exist as posted rows (the template's own date when it is not
// in the future, and anything up to its materialization watermark) are
// left out.
func ExpandUpcoming(scheduled []Transaction, today time.Time, days int) []UpcomingTransaction {
	today = dates.Day(today)
	end := today.AddDate(0, 0, days)

	var out []UpcomingTransaction
	for _, t := range scheduled {
		switch {
		case t.Status == StatusPending:
			d := t.Date.Time
			if d.Before(today) || d.After(end) {
				continue
			}
			out = append(out, newUpcoming(t, d, SourceIncoming))
		case t.IsRecurring:
			posted := dates.Day(t.Date.Time)
			if posted.After(today) {
				posted = posted.AddDate(0, 0, -1)
			}
			if t.LastMaterializedOn != nil && t.LastMaterializedOn.After(posted) {
				posted = t.LastMaterializedOn.Time
			}
			for _, d := range t.Schedule().Occurrences(today, end, today) {
				if !d.After(posted) {
					continue
				}
				out = append(out, newUpcoming(t, d, SourceRecurring))
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].Description < out[j].Description
	})
	return out
}

func newUpcoming(t Transaction, d time.Time, source string) UpcomingTransaction {
	return UpcomingTransaction{
		TransactionID: t.ID,
		Date:          dates.Of(d),
		Amount:        t.Amount,
		Type:          t.Type,
		Category:      t.Category,
		Description:   t.Description,
		Source:        source,
	}
}

// ProjectBalance rolls upcoming items into one balance point per day from
// today through today+days.
func ProjectBalance(starting decimal.Decimal, upcoming []UpcomingTransaction, today time.Time, days int) Projection {
	today = dates.Day(today)

	byDay := make(map[time.Time][]UpcomingTransaction, len(upcoming))
	for _, u := range upcoming {
		byDay[u.Date.Time] = append(byDay[u.Date.Time], u)
	}

	p := Projection{
		StartingBalance: starting,
		LowestBalance:   starting,
		LowestDate:      dates.Of(today),
		Points:          make([]BalancePoint, 0, days+1),
	}

	balance := starting
	for i := 0; i <= days; i++ {
		day := today.AddDate(0, 0, i)
		point := BalancePoint{Date: dates.Of(day), Income: decimal.Zero, Expense: decimal.Zero}
		for _, u := range byDay[day] {
			if u.Type == TypeExpense {
				point.Expense = point.Expense.Add(u.Amount)
			} else {
				point.Income = point.Income.Add(u.Amount)
			}
			balance = balance.Add(u.Signed())
		}
		point.Balance = balance
		if balance.LessThan(p.LowestBalance) {
			p.LowestBalance = balance
			p.LowestDate = point.Date
		}
		p.Points = append(p.Points, point)
	}
	p.EndingBalance = balance
	return p
}
