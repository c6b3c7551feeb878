package investments

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeStocks       = "stocks"
	TypeBonds        = "bonds"
	TypeMutualFunds  = "mutual_funds"
	TypeETF          = "etf"
	TypeCrypto       = "crypto"
	TypeRealEstate   = "real_estate"
	TypeFixedDeposit = "fixed_deposit"
	TypeGold         = "gold"
	TypeOther        = "other"

	DefaultProjectionYears = 10
	MaxProjectionYears     = 50
)

var (
	investmentTypes = []string{
		TypeStocks, TypeBonds, TypeMutualFunds, TypeETF, TypeCrypto,
		TypeRealEstate, TypeFixedDeposit, TypeGold, TypeOther,
	}
	hundred = decimal.NewFromInt(100)
)

type Investment struct {
	ID                 string          `json:"id"`
	WorkspaceID        string          `json:"workspace_id"`
	UserID             string          `json:"user_id"`
	Name               string          `json:"name"`
	Type               string          `json:"type"`
	Symbol             string          `json:"symbol,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	AmountInvested     decimal.Decimal `json:"amount_invested"`
	CurrentValue       decimal.Decimal `json:"current_value"`
	ExpectedReturnRate decimal.Decimal `json:"expected_return_rate"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type Allocation struct {
	Type          string          `json:"type"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	AllocationPct decimal.Decimal `json:"allocation_pct"`
}

type Portfolio struct {
	TotalInvested decimal.Decimal `json:"total_invested"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	Gain          decimal.Decimal `json:"gain"`
	GainPct       decimal.Decimal `json:"gain_pct"`
	Count         int             `json:"count"`
	Allocations   []Allocation    `json:"allocations"`
}

type NetWorthPoint struct {
	Year        int             `json:"year"`
	Cash        decimal.Decimal `json:"cash"`
	Investments decimal.Decimal `json:"investments"`
	NetWorth    decimal.Decimal `json:"net_worth"`
}

func InvestmentTypes() []string {
	out := make([]string, len(investmentTypes))
	copy(out, investmentTypes)
	return out
}

func IsValidType(t string) bool {
	for _, known := range investmentTypes {
		if known == t {
			return true
		}
	}
	return false
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

// Summarize totals the holdings. Allocations are ordered by value, largest
// first.
func Summarize(investments []Investment) Portfolio {
	p := Portfolio{
		TotalInvested: decimal.Zero,
		CurrentValue:  decimal.Zero,
		Count:         len(investments),
		Allocations:   []Allocation{},
	}

	byType := make(map[string]decimal.Decimal)
	for _, inv := range investments {
		p.TotalInvested = p.TotalInvested.Add(inv.AmountInvested)
		p.CurrentValue = p.CurrentValue.Add(inv.CurrentValue)
		byType[inv.Type] = byType[inv.Type].Add(inv.CurrentValue)
	}
	p.Gain = p.CurrentValue.Sub(p.TotalInvested)
	p.GainPct = percentOf(p.Gain, p.TotalInvested)

	for t, value := range byType {
		p.Allocations = append(p.Allocations, Allocation{Type: t, CurrentValue: value, AllocationPct: percentOf(value, p.CurrentValue)})
	}
	sort.Slice(p.Allocations, func(i, j int) bool {
		if !p.Allocations[i].CurrentValue.Equal(p.Allocations[j].CurrentValue) {
			return p.Allocations[i].CurrentValue.GreaterThan(p.Allocations[j].CurrentValue)
		}
		return p.Allocations[i].Type < p.Allocations[j].Type
	})
	return p
}

func ClampYears(years int) int {
	if years <= 0 {
		return DefaultProjectionYears
	}
	if years > MaxProjectionYears {
		return MaxProjectionYears
	}
	return years
}

// ProjectNetWorth compounds every holding annually at its expected return
// rate (a percentage) and adds the cash balance, which is held flat. Point 0
// is today.
func ProjectNetWorth(balance decimal.Decimal, investments []Investment, years int) []NetWorthPoint {
	values := make([]decimal.Decimal, len(investments))
	growth := make([]decimal.Decimal, len(investments))
	for i, inv := range investments {
		values[i] = inv.CurrentValue
		growth[i] = decimal.NewFromInt(1).Add(inv.ExpectedReturnRate.Div(hundred))
	}

	points := make([]NetWorthPoint, 0, years+1)
	for year := 0; year <= years; year++ {
		total := decimal.Zero
		for i := range values {
			if year > 0 {
				values[i] = values[i].Mul(growth[i])
			}
			total = total.Add(values[i])
		}
		total = total.Round(2)
		points = append(points, NetWorthPoint{
			Year:        year,
			Cash:        balance,
			Investments: total,
			NetWorth:    balance.Add(total),
		})
	}
	return points
}
