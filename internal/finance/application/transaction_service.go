package application

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/sebuszqo/FamilyFinance/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FamilyFinance/internal/finance/errors"
)

type TransactionService struct {
	repo domain.TransactionRepository
}

func NewTransactionService(repo domain.TransactionRepository) *TransactionService {
	return &TransactionService{repo: repo}
}

type TransactionSummary struct {
	Year         int                     `json:"year"`
	IncomeTotal  decimal.Decimal         `json:"income_total"`
	ExpenseTotal decimal.Decimal         `json:"expense_total"`
	Months       map[string]MonthSummary `json:"months"`
}

type MonthSummary struct {
	IncomeTotal  decimal.Decimal `json:"income_total"`
	ExpenseTotal decimal.Decimal `json:"expense_total"`
	Weeks        []WeekSummary   `json:"weeks"`
}

type WeekSummary struct {
	Week         int             `json:"week"`
	IncomeTotal  decimal.Decimal `json:"income_total"`
	ExpenseTotal decimal.Decimal `json:"expense_total"`
}

func (s *TransactionService) GetTransactionSummary(ctx context.Context, workspaceID string, startDate, endDate time.Time) (map[int]TransactionSummary, error) {
	transactions, err := s.repo.GetTransactionsInDateRange(ctx, workspaceID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	summary := make(map[int]TransactionSummary)

	for _, transaction := range transactions {
		year := transaction.Date.Year()
		month := transaction.Date.Month().String()
		_, week := transaction.Date.ISOWeek()

		yearSummary, exists := summary[year]
		if !exists {
			yearSummary = TransactionSummary{
				Year:         year,
				Months:       make(map[string]MonthSummary),
				IncomeTotal:  decimal.Zero,
				ExpenseTotal: decimal.Zero,
			}
		}

		monthSummary, exists := yearSummary.Months[month]
		if !exists {
			monthSummary = MonthSummary{
				IncomeTotal:  decimal.Zero,
				ExpenseTotal: decimal.Zero,
				Weeks:        []WeekSummary{},
			}
		}

		isIncome := transaction.Type == domain.TypeIncome
		if isIncome {
			yearSummary.IncomeTotal = yearSummary.IncomeTotal.Add(transaction.Amount)
			monthSummary.IncomeTotal = monthSummary.IncomeTotal.Add(transaction.Amount)
		} else {
			yearSummary.ExpenseTotal = yearSummary.ExpenseTotal.Add(transaction.Amount)
			monthSummary.ExpenseTotal = monthSummary.ExpenseTotal.Add(transaction.Amount)
		}

		found := false
		for i, weekSummary := range monthSummary.Weeks {
			if weekSummary.Week == week {
				if isIncome {
					monthSummary.Weeks[i].IncomeTotal = weekSummary.IncomeTotal.Add(transaction.Amount)
				} else {
					monthSummary.Weeks[i].ExpenseTotal = weekSummary.ExpenseTotal.Add(transaction.Amount)
				}
				found = true
				break
			}
		}
		if !found {
			weekSummary := WeekSummary{Week: week, IncomeTotal: decimal.Zero, ExpenseTotal: decimal.Zero}
			if isIncome {
				weekSummary.IncomeTotal = transaction.Amount
			} else {
				weekSummary.ExpenseTotal = transaction.Amount
			}
			monthSummary.Weeks = append(monthSummary.Weeks, weekSummary)
		}

		yearSummary.Months[month] = monthSummary
		summary[year] = yearSummary
	}

	return summary, nil
}

// prepareNew resets the fields only the server may set. The template link
// belongs to the materializer alone.
func prepareNew(transaction *domain.Transaction) {
	transaction.ID = uuid.NewString()
	transaction.RecurringTemplateID = nil
	transaction.LastMaterializedOn = nil
	transaction.RoundToTwoDecimalPlaces()
}

func (s *TransactionService) CreateTransaction(ctx context.Context, transaction *domain.Transaction) error {
	prepareNew(transaction)
	if err := transaction.Validate(); err != nil {
		return err
	}
	return s.repo.Save(ctx, *transaction)
}

func (s *TransactionService) CreateTransactionsBulk(ctx context.Context, transactions []*domain.Transaction, workspaceID, userID string) (err error) {
	validationErrors := &financeErrors.ValidationErrors{}
	for i, transaction := range transactions {
		prepareNew(transaction)
		transaction.WorkspaceID = workspaceID
		transaction.UserID = userID
		if vErr := transaction.Validate(); vErr != nil {
			validationErrors.Add(financeErrors.NewIndexedValidationError(i+1, vErr.Error()))
		}
	}
	if err := validationErrors.OrNil(); err != nil {
		return err
	}

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			safeRollback(tx)
			panic(p)
		} else if err != nil {
			safeRollback(tx)
		} else {
			err = tx.Commit()
		}
	}()

	for i, transaction := range transactions {
		if err = s.repo.SaveWithTransaction(ctx, *transaction, tx); err != nil {
			return fmt.Errorf("database error at transaction %d: %w", i+1, err)
		}
	}
	return nil
}

func safeRollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		log.Error().Err(err).Msg("Error during transaction rollback")
	}
}

func (s *TransactionService) GetTransaction(ctx context.Context, workspaceID, transactionID string) (*domain.Transaction, error) {
	return s.repo.FindByID(ctx, workspaceID, transactionID)
}

func (s *TransactionService) GetTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	transactions, err := s.repo.GetTransactionsByType(ctx, filter)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		return []domain.Transaction{}, nil
	}
	return transactions, nil
}

func (s *TransactionService) UpdateTransaction(ctx context.Context, transaction *domain.Transaction) error {
	existing, err := s.repo.FindByID(ctx, transaction.WorkspaceID, transaction.ID)
	if err != nil {
		return err
	}
	transaction.UserID = existing.UserID
	transaction.CreatedAt = existing.CreatedAt
	transaction.RecurringTemplateID = existing.RecurringTemplateID
	transaction.LastMaterializedOn = existing.LastMaterializedOn
	transaction.RoundToTwoDecimalPlaces()
	if err := transaction.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, *transaction)
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, workspaceID, transactionID string) error {
	return s.repo.Delete(ctx, workspaceID, transactionID)
}

func (s *TransactionService) GetTransactionSummaryByCategory(ctx context.Context, workspaceID string, startDate, endDate time.Time, transactionType string) ([]domain.TransactionByCategorySummary, error) {
	summary, err := s.repo.GetTransactionSummaryByCategory(ctx, workspaceID, startDate, endDate, transactionType)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return []domain.TransactionByCategorySummary{}, nil
	}
	return summary, nil
}
