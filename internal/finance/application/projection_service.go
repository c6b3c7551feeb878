package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sebuszqo/FamilyFinance/internal/dates"
	"github.com/sebuszqo/FamilyFinance/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FamilyFinance/internal/finance/errors"
)

type scheduleSource interface {
	FindByID(ctx context.Context, workspaceID, transactionID string) (*domain.Transaction, error)
	GetScheduled(ctx context.Context, workspaceID string) ([]domain.Transaction, error)
	GetBalance(ctx context.Context, workspaceID string, asOf time.Time) (decimal.Decimal, error)
}

type ProjectionService struct {
	repo scheduleSource
}

func NewProjectionService(repo scheduleSource) *ProjectionService {
	return &ProjectionService{repo: repo}
}

func (s *ProjectionService) Upcoming(ctx context.Context, workspaceID string, today time.Time, days int) ([]domain.UpcomingTransaction, error) {
	scheduled, err := s.repo.GetScheduled(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	upcoming := domain.ExpandUpcoming(scheduled, today, domain.ClampDays(days))
	if upcoming == nil {
		return []domain.UpcomingTransaction{}, nil
	}
	return upcoming, nil
}

func (s *ProjectionService) ProjectedBalance(ctx context.Context, workspaceID string, today time.Time, days int) (*domain.Projection, error) {
	days = domain.ClampDays(days)
	today = dates.Day(today)

	starting, err := s.repo.GetBalance(ctx, workspaceID, today)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.Upcoming(ctx, workspaceID, today, days)
	if err != nil {
		return nil, err
	}
	projection := domain.ProjectBalance(starting, upcoming, today, days)
	return &projection, nil
}

// Occurrences lists the future dates of a single recurring transaction
// between today and today+days.
func (s *ProjectionService) Occurrences(ctx context.Context, workspaceID, transactionID string, today time.Time, days int) ([]string, error) {
	transaction, err := s.repo.FindByID(ctx, workspaceID, transactionID)
	if err != nil {
		return nil, err
	}
	if !transaction.IsRecurring {
		return nil, financeErrors.ErrNotRecurring
	}
	today = dates.Day(today)
	occurrences := transaction.Schedule().OccurrenceDates(today, today.AddDate(0, 0, domain.ClampDays(days)), today)
	if occurrences == nil {
		return []string{}, nil
	}
	return occurrences, nil
}
