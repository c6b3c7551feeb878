package investments

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSummarize(t *testing.T) {
	p := Summarize([]Investment{
		{Type: TypeStocks, AmountInvested: dec("800"), CurrentValue: dec("1000")},
		{Type: TypeBonds, AmountInvested: dec("500"), CurrentValue: dec("500")},
		{Type: TypeStocks, AmountInvested: dec("200"), CurrentValue: dec("100")},
	})

	assert.Equal(t, 3, p.Count)
	assert.True(t, p.TotalInvested.Equal(dec("1500")))
	assert.True(t, p.CurrentValue.Equal(dec("1600")))
	assert.True(t, p.Gain.Equal(dec("100")))
	assert.True(t, p.GainPct.Equal(dec("6.67")), "gain pct %s", p.GainPct)

	require.Len(t, p.Allocations, 2)
	assert.Equal(t, TypeStocks, p.Allocations[0].Type)
	assert.True(t, p.Allocations[0].AllocationPct.Equal(dec("68.75")))
	assert.True(t, p.Allocations[1].AllocationPct.Equal(dec("31.25")))
}

func TestSummarize_Empty(t *testing.T) {
	p := Summarize(nil)
	assert.True(t, p.GainPct.IsZero())
	assert.NotNil(t, p.Allocations)
	assert.Equal(t, 0, p.Count)
}

func TestProjectNetWorth(t *testing.T) {
	points := ProjectNetWorth(dec("1000"), []Investment{
		{CurrentValue: dec("1000"), ExpectedReturnRate: dec("10")},
		{CurrentValue: dec("500"), ExpectedReturnRate: decimal.Zero},
	}, 2)

	require.Len(t, points, 3)
	assert.Equal(t, 0, points[0].Year)
	assert.True(t, points[0].NetWorth.Equal(dec("2500")))
	assert.True(t, points[1].Investments.Equal(dec("1600")))
	assert.True(t, points[2].NetWorth.Equal(dec("2710")))
	assert.True(t, points[2].Cash.Equal(dec("1000")))
}

func TestClampYears(t *testing.T) {
	assert.Equal(t, DefaultProjectionYears, ClampYears(0))
	assert.Equal(t, 5, ClampYears(5))
	assert.Equal(t, MaxProjectionYears, ClampYears(51))
	assert.Len(t, ProjectNetWorth(decimal.Zero, nil, ClampYears(500)), MaxProjectionYears+1)
}
