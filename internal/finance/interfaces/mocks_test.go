package interfaces

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/sebuszqo/FamilyFinance/internal/auth"
	"github.com/sebuszqo/FamilyFinance/internal/finance/application"
	"github.com/sebuszqo/FamilyFinance/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FamilyFinance/internal/finance/errors"
)

const testWorkspaceID = "0b6f7d1e-1111-4c1e-9d55-3f3c2a1e0001"

func newRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("workspaceID", testWorkspaceID)
	return req.WithContext(auth.WithUser(req.Context(), "user-1", "user@example.com"))
}

type MockTransactionService struct {
	created      *domain.Transaction
	bulkErr      error
	transactions []domain.Transaction
	filter       domain.TransactionFilter
	err          error
}

func (m *MockTransactionService) CreateTransaction(ctx context.Context, transaction *domain.Transaction) error {
	if err := transaction.Validate(); err != nil {
		return err
	}
	m.created = transaction
	return m.err
}

func (m *MockTransactionService) CreateTransactionsBulk(ctx context.Context, transactions []*domain.Transaction, workspaceID, userID string) error {
	validationErrors := &financeErrors.ValidationErrors{}
	for i, transaction := range transactions {
		if err := transaction.Validate(); err != nil {
			validationErrors.Add(financeErrors.NewIndexedValidationError(i+1, err.Error()))
		}
	}
	if len(validationErrors.Errors) > 0 {
		return validationErrors
	}
	return m.bulkErr
}

func (m *MockTransactionService) GetTransaction(ctx context.Context, workspaceID, transactionID string) (*domain.Transaction, error) {
	for _, t := range m.transactions {
		if t.ID == transactionID {
			return &t, nil
		}
	}
	return nil, financeErrors.ErrTransactionNotFound
}

func (m *MockTransactionService) GetTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	m.filter = filter
	return m.transactions, m.err
}

func (m *MockTransactionService) UpdateTransaction(ctx context.Context, transaction *domain.Transaction) error {
	if _, err := m.GetTransaction(ctx, transaction.WorkspaceID, transaction.ID); err != nil {
		return err
	}
	return transaction.Validate()
}

func (m *MockTransactionService) DeleteTransaction(ctx context.Context, workspaceID, transactionID string) error {
	_, err := m.GetTransaction(ctx, workspaceID, transactionID)
	return err
}

func (m *MockTransactionService) GetTransactionSummary(ctx context.Context, workspaceID string, startDate, endDate time.Time) (map[int]application.TransactionSummary, error) {
	return map[int]application.TransactionSummary{}, m.err
}

func (m *MockTransactionService) GetTransactionSummaryByCategory(ctx context.Context, workspaceID string, startDate, endDate time.Time, transactionType string) ([]domain.TransactionByCategorySummary, error) {
	return []domain.TransactionByCategorySummary{}, m.err
}

type MockProjectionService struct {
	days       int
	projection *domain.Projection
}

func (m *MockProjectionService) Upcoming(ctx context.Context, workspaceID string, today time.Time, days int) ([]domain.UpcomingTransaction, error) {
	m.days = days
	return []domain.UpcomingTransaction{}, nil
}

func (m *MockProjectionService) ProjectedBalance(ctx context.Context, workspaceID string, today time.Time, days int) (*domain.Projection, error) {
	m.days = days
	return m.projection, nil
}

func (m *MockProjectionService) Occurrences(ctx context.Context, workspaceID, transactionID string, today time.Time, days int) ([]string, error) {
	return nil, financeErrors.ErrNotRecurring
}

type MockMaterializer struct {
	calls int
	fail  bool
}

func (m *MockMaterializer) MaterializeDue(ctx context.Context, today time.Time) (*application.MaterializeResult, error) {
	m.calls++
	if m.fail {
		return nil, errors.New("db down")
	}
	return &application.MaterializeResult{RecurringPosted: 3, IncomingPosted: 1}, nil
}
