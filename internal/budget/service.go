package budget

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrBudgetNotFound = errors.New("budget not found")
	ErrBudgetExists   = errors.New("a budget for this category and period already exists")
	ErrInvalidBudget  = errors.New("invalid budget")
)

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidBudget
}

type Service interface {
	CreateBudget(ctx context.Context, b *Budget) error
	GetBudget(ctx context.Context, workspaceID, budgetID string) (*Budget, error)
	ListBudgets(ctx context.Context, workspaceID string) ([]Budget, error)
	UpdateBudget(ctx context.Context, b *Budget) error
	DeleteBudget(ctx context.Context, workspaceID, budgetID string) error
	Status(ctx context.Context, workspaceID string, now time.Time) ([]Status, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validate(b *Budget) error {
	b.Category = strings.TrimSpace(b.Category)
	if b.Category == "" {
		return &ValidationError{Msg: "Category is required"}
	}
	if b.Limit.IsNegative() {
		return &ValidationError{Msg: "Limit must not be negative"}
	}
	if b.Period == "" {
		b.Period = PeriodMonthly
	}
	if !IsValidPeriod(b.Period) {
		return &ValidationError{Msg: "Period must be 'weekly', 'monthly' or 'yearly'"}
	}
	b.Limit = b.Limit.Round(2)
	return nil
}

func (s *service) CreateBudget(ctx context.Context, b *Budget) error {
	if err := validate(b); err != nil {
		return err
	}
	b.ID = uuid.NewString()
	return s.repo.Create(ctx, b)
}

func (s *service) GetBudget(ctx context.Context, workspaceID, budgetID string) (*Budget, error) {
	if _, err := uuid.Parse(budgetID); err != nil {
		return nil, ErrBudgetNotFound
	}
	return s.repo.FindByID(ctx, workspaceID, budgetID)
}

func (s *service) ListBudgets(ctx context.Context, workspaceID string) ([]Budget, error) {
	return s.repo.List(ctx, workspaceID)
}

func (s *service) UpdateBudget(ctx context.Context, b *Budget) error {
	if _, err := uuid.Parse(b.ID); err != nil {
		return ErrBudgetNotFound
	}
	if err := validate(b); err != nil {
		return err
	}
	return s.repo.Update(ctx, b)
}

func (s *service) DeleteBudget(ctx context.Context, workspaceID, budgetID string) error {
	if _, err := uuid.Parse(budgetID); err != nil {
		return ErrBudgetNotFound
	}
	return s.repo.Delete(ctx, workspaceID, budgetID)
}

// Status evaluates every budget of the workspace against its current
// period. Spending is fetched once per distinct period.
func (s *service) Status(ctx context.Context, workspaceID string, now time.Time) ([]Status, error) {
	budgets, err := s.repo.List(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	spentByPeriod := make(map[string]map[string]decimal.Decimal)
	statuses := make([]Status, 0, len(budgets))
	for _, b := range budgets {
		spent, ok := spentByPeriod[b.Period]
		if !ok {
			start, end := PeriodBounds(b.Period, now)
			spent, err = s.repo.SpentByCategory(ctx, workspaceID, start, end)
			if err != nil {
				return nil, err
			}
			spent = foldCategories(spent)
			spentByPeriod[b.Period] = spent
		}
		amount, ok := spent[CategoryKey(b.Category)]
		if !ok {
			amount = decimal.Zero
		}
		statuses = append(statuses, Evaluate(b, amount, now))
	}
	return statuses, nil
}
