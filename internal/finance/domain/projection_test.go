package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebuszqo/FamilyFinance/internal/dates"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestExpandUpcoming(t *testing.T) {
	today := day(2024, 3, 10)
	watermark := dates.New(2024, 3, 10)

	scheduled := []Transaction{
		{
			ID: "rent", Type: TypeExpense, Amount: dec("1200"), Description: "Rent",
			Date: dates.New(2024, 1, 15), Status: StatusCompleted, IsRecurring: true, RecurrencePattern: "monthly",
		},
		{
			ID: "salary", Type: TypeIncome, Amount: dec("3000"), Description: "Salary",
			Date: dates.New(2024, 3, 10), Status: StatusCompleted, IsRecurring: true, RecurrencePattern: "monthly",
			LastMaterializedOn: &watermark,
		},
		{
			ID: "gym", Type: TypeExpense, Amount: dec("20"), Description: "Gym",
			Date: dates.New(2024, 3, 20), Status: StatusCompleted, IsRecurring: true, RecurrencePattern: "weekly",
		},
		{
			ID: "refund", Type: TypeIncome, Amount: dec("45.50"), Description: "Refund",
			Date: dates.New(2024, 3, 12), Status: StatusPending,
		},
		{
			ID: "late", Type: TypeIncome, Amount: dec("10"), Description: "Overdue",
			Date: dates.New(2024, 3, 1), Status: StatusPending,
		},
		{
			ID: "far", Type: TypeIncome, Amount: dec("10"), Description: "Far away",
			Date: dates.New(2024, 6, 1), Status: StatusPending,
		},
	}

	got := ExpandUpcoming(scheduled, today, 20)

	var summary []string
	for _, u := range got {
		summary = append(summary, u.Date.String()+" "+u.TransactionID+" "+u.Source)
	}
	assert.Equal(t, []string{
		"2024-03-12 refund incoming",
		"2024-03-15 rent recurring",
		"2024-03-20 gym recurring",
		"2024-03-27 gym recurring",
	}, summary)
}

func TestExpandUpcoming_TemplateDatedTodayIsNotRepeated(t *testing.T) {
	today := day(2024, 3, 10)
	scheduled := []Transaction{{
		ID: "sub", Type: TypeExpense, Amount: dec("9.99"), Description: "Streaming",
		Date: dates.New(2024, 3, 10), Status: StatusCompleted, IsRecurring: true, RecurrencePattern: "weekly",
	}}

	got := ExpandUpcoming(scheduled, today, 7)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-03-17", got[0].Date.String())
}

func TestProjectBalance(t *testing.T) {
	today := day(2024, 3, 10)
	upcoming := []UpcomingTransaction{
		{Date: dates.New(2024, 3, 10), Type: TypeExpense, Amount: dec("50")},
		{Date: dates.New(2024, 3, 12), Type: TypeExpense, Amount: dec("400")},
		{Date: dates.New(2024, 3, 12), Type: TypeIncome, Amount: dec("100")},
		{Date: dates.New(2024, 3, 14), Type: TypeIncome, Amount: dec("1000")},
	}

	p := ProjectBalance(dec("200"), upcoming, today, 5)

	require.Len(t, p.Points, 6)
	assert.True(t, p.StartingBalance.Equal(dec("200")))
	assert.True(t, p.Points[0].Balance.Equal(dec("150")))
	assert.True(t, p.Points[1].Balance.Equal(dec("150")))
	assert.True(t, p.Points[2].Balance.Equal(dec("-150")))
	assert.True(t, p.Points[2].Expense.Equal(dec("400")))
	assert.True(t, p.Points[2].Income.Equal(dec("100")))
	assert.True(t, p.Points[4].Balance.Equal(dec("850")))
	assert.True(t, p.EndingBalance.Equal(dec("850")))
	assert.True(t, p.LowestBalance.Equal(dec("-150")))
	assert.Equal(t, "2024-03-12", p.LowestDate.String())
}

func TestProjectBalance_NoUpcoming(t *testing.T) {
	p := ProjectBalance(dec("10"), nil, time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC), 2)
	require.Len(t, p.Points, 3)
	assert.Equal(t, "2024-01-01", p.Points[0].Date.String())
	assert.True(t, p.EndingBalance.Equal(dec("10")))
	assert.True(t, p.LowestBalance.Equal(dec("10")))
}

func TestClampDays(t *testing.T) {
	assert.Equal(t, DefaultProjectionDays, ClampDays(0))
	assert.Equal(t, DefaultProjectionDays, ClampDays(-3))
	assert.Equal(t, 90, ClampDays(90))
	assert.Equal(t, MaxProjectionDays, ClampDays(1000))
}

func TestTransactionValidate(t *testing.T) {
	end := dates.New(2024, 1, 1)
	tests := []struct {
		name    string
		tx      Transaction
		wantErr string
	}{
		{"bad type", Transaction{Type: "gift", Amount: dec("1"), Date: dates.New(2024, 1, 1)}, "Type must be 'income' or 'expense'"},
		{"zero amount", Transaction{Type: TypeIncome, Amount: decimal.Zero, Date: dates.New(2024, 1, 1)}, "Amount must be greater than zero"},
		{"missing date", Transaction{Type: TypeIncome, Amount: dec("1")}, "Date is required"},
		{"bad pattern", Transaction{Type: TypeIncome, Amount: dec("1"), Date: dates.New(2024, 1, 1), IsRecurring: true, RecurrencePattern: "daily"}, "Recurrence pattern must be 'weekly', 'monthly' or 'yearly'"},
		{"end before start", Transaction{Type: TypeIncome, Amount: dec("1"), Date: dates.New(2024, 2, 1), IsRecurring: true, RecurrencePattern: "weekly", RecurrenceEndDate: &end}, "Recurrence end date must not be before the transaction date"},
		{"pending recurring", Transaction{Type: TypeIncome, Amount: dec("1"), Date: dates.New(2024, 2, 1), Status: StatusPending, IsRecurring: true, RecurrencePattern: "weekly"}, "Incoming transactions cannot be recurring"},
		{"valid", Transaction{Type: TypeExpense, Amount: dec("1"), Date: dates.New(2024, 2, 1)}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				assert.Equal(t, StatusCompleted, tt.tx.Status)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
