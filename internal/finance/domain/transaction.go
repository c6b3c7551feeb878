package domain

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sebuszqo/FamilyFinance/internal/dates"
	"github.com/sebuszqo/FamilyFinance/internal/finance/errors"
)

const (
	TypeIncome  = "income"
	TypeExpense = "expense"

	StatusCompleted = "completed"
	StatusPending   = "pending"

	maxDescriptionLength = 200
)

type TransactionRepository interface {
	Save(ctx context.Context, transaction Transaction) error
	SaveWithTransaction(ctx context.Context, transaction Transaction, tx *sql.Tx) error
	BeginTransaction(ctx context.Context) (*sql.Tx, error)
	FindByID(ctx context.Context, workspaceID, transactionID string) (*Transaction, error)
	Update(ctx context.Context, transaction Transaction) error
	Delete(ctx context.Context, workspaceID, transactionID string) error
	GetTransactionsByType(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	GetTransactionsInDateRange(ctx context.Context, workspaceID string, startDate, endDate time.Time) ([]Transaction, error)
	GetTransactionSummaryByCategory(ctx context.Context, workspaceID string, startDate, endDate time.Time, transactionType string) ([]TransactionByCategorySummary, error)
	GetScheduled(ctx context.Context, workspaceID string) ([]Transaction, error)
	GetBalance(ctx context.Context, workspaceID string, asOf time.Time) (decimal.Decimal, error)
}

type Transaction struct {
	ID                  string          `json:"id"`
	WorkspaceID         string          `json:"workspace_id"`
	UserID              string          `json:"user_id"`
	Amount              decimal.Decimal `json:"amount"`
	Type                string          `json:"type"`
	Category            string          `json:"category"`
	Description         string          `json:"description"`
	Date                dates.Date      `json:"date"`
	Status              string          `json:"status"`
	IsRecurring         bool            `json:"is_recurring"`
	RecurrencePattern   string          `json:"recurrence_pattern,omitempty"`
	RecurrenceEndDate   *dates.Date     `json:"recurrence_end_date,omitempty"`
	LastMaterializedOn  *dates.Date     `json:"-"`
	RecurringTemplateID *string         `json:"recurring_template_id,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

type TransactionFilter struct {
	WorkspaceID string
	Type        string
	StartDate   time.Time
	EndDate     time.Time
	Limit       int
	Page        int
}

type TransactionByCategorySummary struct {
	Category    string          `json:"category"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Count       int             `json:"count"`
}

func IsValidTransactionType(transactionType string) bool {
	return transactionType == TypeIncome || transactionType == TypeExpense
}

func (t *Transaction) RoundToTwoDecimalPlaces() {
	t.Amount = t.Amount.Round(2)
}

// Signed returns the amount as it affects the balance.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Schedule returns the recurrence schedule of a recurring transaction.
func (t *Transaction) Schedule() Schedule {
	s := Schedule{Start: t.Date.Time, Pattern: ParsePattern(t.RecurrencePattern)}
	if t.RecurrenceEndDate != nil && !t.RecurrenceEndDate.IsZero() {
		end := t.RecurrenceEndDate.Time
		s.End = &end
	}
	return s
}

func (t *Transaction) Validate() error {
	if !IsValidTransactionType(t.Type) {
		return errors.NewValidationError("Type must be 'income' or 'expense'")
	}
	if !t.Amount.IsPositive() {
		return errors.NewValidationError("Amount must be greater than zero")
	}
	if len(t.Description) > maxDescriptionLength {
		return errors.NewValidationError("Description must be of length less than 200")
	}
	if t.Date.IsZero() {
		return errors.NewValidationError("Date is required")
	}
	if t.Status == "" {
		t.Status = StatusCompleted
	}
	if t.Status != StatusCompleted && t.Status != StatusPending {
		return errors.NewValidationError("Status must be 'completed' or 'pending'")
	}
	if t.IsRecurring {
		if t.Status == StatusPending {
			return errors.NewValidationError("Incoming transactions cannot be recurring")
		}
		if !IsKnownPattern(t.RecurrencePattern) {
			return errors.NewValidationError("Recurrence pattern must be 'weekly', 'monthly' or 'yearly'")
		}
		if t.RecurrenceEndDate != nil && !t.RecurrenceEndDate.IsZero() && t.RecurrenceEndDate.Before(t.Date.Time) {
			return errors.NewValidationError("Recurrence end date must not be before the transaction date")
		}
	} else {
		t.RecurrencePattern = ""
		t.RecurrenceEndDate = nil
	}
	return nil
}
