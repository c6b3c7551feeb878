package goal

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
	ErrInvalidGoal  = errors.New("invalid goal")
)

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidGoal
}

type Service interface {
	CreateGoal(ctx context.Context, g *Goal, now time.Time) (*Progress, error)
	GetGoal(ctx context.Context, workspaceID, goalID string, now time.Time) (*Progress, error)
	ListGoals(ctx context.Context, workspaceID string, now time.Time) ([]Progress, error)
	UpdateGoal(ctx context.Context, g *Goal, now time.Time) (*Progress, error)
	DeleteGoal(ctx context.Context, workspaceID, goalID string) error
	Contribute(ctx context.Context, workspaceID, goalID string, amount decimal.Decimal, now time.Time) (*Progress, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validate(g *Goal) error {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return &ValidationError{Msg: "Name is required"}
	}
	if utf8.RuneCountInString(g.Name) > maxNameLength {
		return &ValidationError{Msg: "Name must be at most 100 characters"}
	}
	g.Category = strings.ToLower(strings.TrimSpace(g.Category))
	if g.Category == "" {
		g.Category = CategoryGeneral
	}
	if !IsValidCategory(g.Category) {
		return &ValidationError{Msg: "Invalid goal category"}
	}
	if !g.TargetAmount.IsPositive() {
		return &ValidationError{Msg: "Target amount must be greater than zero"}
	}
	if g.CurrentAmount.IsNegative() {
		return &ValidationError{Msg: "Current amount must not be negative"}
	}
	if g.Deadline != nil && g.Deadline.IsZero() {
		g.Deadline = nil
	}
	g.TargetAmount = g.TargetAmount.Round(2)
	g.CurrentAmount = g.CurrentAmount.Round(2)
	return nil
}

func progressOf(g *Goal, err error, now time.Time) (*Progress, error) {
	if err != nil {
		return nil, err
	}
	p := Compute(*g, now)
	return &p, nil
}

func (s *service) CreateGoal(ctx context.Context, g *Goal, now time.Time) (*Progress, error) {
	if err := validate(g); err != nil {
		return nil, err
	}
	g.ID = uuid.NewString()
	return progressOf(g, s.repo.Create(ctx, g), now)
}

func (s *service) GetGoal(ctx context.Context, workspaceID, goalID string, now time.Time) (*Progress, error) {
	if _, err := uuid.Parse(goalID); err != nil {
		return nil, ErrGoalNotFound
	}
	g, err := s.repo.FindByID(ctx, workspaceID, goalID)
	return progressOf(g, err, now)
}

func (s *service) ListGoals(ctx context.Context, workspaceID string, now time.Time) ([]Progress, error) {
	goals, err := s.repo.List(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	out := make([]Progress, 0, len(goals))
	for _, g := range goals {
		out = append(out, Compute(g, now))
	}
	return out, nil
}

func (s *service) UpdateGoal(ctx context.Context, g *Goal, now time.Time) (*Progress, error) {
	if _, err := uuid.Parse(g.ID); err != nil {
		return nil, ErrGoalNotFound
	}
	if err := validate(g); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, g.WorkspaceID, g.ID)
	if err != nil {
		return nil, err
	}
	g.UserID = existing.UserID
	g.CreatedAt = existing.CreatedAt
	return progressOf(g, s.repo.Update(ctx, g), now)
}

func (s *service) DeleteGoal(ctx context.Context, workspaceID, goalID string) error {
	if _, err := uuid.Parse(goalID); err != nil {
		return ErrGoalNotFound
	}
	return s.repo.Delete(ctx, workspaceID, goalID)
}

func (s *service) Contribute(ctx context.Context, workspaceID, goalID string, amount decimal.Decimal, now time.Time) (*Progress, error) {
	if _, err := uuid.Parse(goalID); err != nil {
		return nil, ErrGoalNotFound
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Msg: "Contribution amount must be greater than zero"}
	}
	g, err := s.repo.AddContribution(ctx, workspaceID, goalID, amount.Round(2))
	return progressOf(g, err, now)
}
