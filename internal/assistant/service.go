package assistant

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sebuszqo/FamilyFinance/internal/budget"
	"github.com/sebuszqo/FamilyFinance/internal/insights"
	"github.com/sebuszqo/FamilyFinance/internal/logging"
)

var ErrInvalidChat = errors.New("invalid chat request")

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrInvalidChat }

var logger = logging.New("assistant")

type DashboardSource interface {
	Dashboard(ctx context.Context, workspaceID string, now time.Time) (*insights.Dashboard, error)
}

type BudgetSource interface {
	Status(ctx context.Context, workspaceID string, now time.Time) ([]budget.Status, error)
}

type Service interface {
	Chat(ctx context.Context, workspaceID string, messages []Message, now time.Time) (*ChatReply, error)
}

type service struct {
	completer  Completer
	dashboards DashboardSource
	budgets    BudgetSource
}

// NewService accepts a nil completer; Chat then fails with ErrNotConfigured.
func NewService(completer Completer, dashboards DashboardSource, budgets BudgetSource) Service {
	return &service{completer: completer, dashboards: dashboards, budgets: budgets}
}

func (s *service) Chat(ctx context.Context, workspaceID string, messages []Message, now time.Time) (*ChatReply, error) {
	if err := Validate(messages); err != nil {
		return nil, err
	}
	if s.completer == nil {
		return nil, ErrNotConfigured
	}

	var (
		dashboard *insights.Dashboard
		budgets   []budget.Status
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dashboard, err = s.dashboards.Dashboard(gctx, workspaceID, now)
		return err
	})
	g.Go(func() error {
		var err error
		budgets, err = s.budgets.Status(gctx, workspaceID, now)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	started := time.Now()
	reply, err := s.completer.Complete(ctx, SystemPrompt(dashboard, budgets), messages)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("workspaceID", workspaceID).Int("messages", len(messages)).
		Dur("duration", time.Since(started)).Msg("assistant replied")
	return &ChatReply{Reply: reply}, nil
}
