package insights

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sebuszqo/FamilyFinance/internal/budget"
	"github.com/sebuszqo/FamilyFinance/internal/dates"
	"github.com/sebuszqo/FamilyFinance/internal/finance/domain"
	"github.com/sebuszqo/FamilyFinance/internal/goal"
	investments "github.com/sebuszqo/FamilyFinance/internal/investment"
	"github.com/sebuszqo/FamilyFinance/internal/logging"
)

var logger = logging.New("insights")

type BudgetSource interface {
	Status(ctx context.Context, workspaceID string, now time.Time) ([]budget.Status, error)
}

type GoalSource interface {
	ListGoals(ctx context.Context, workspaceID string, now time.Time) ([]goal.Progress, error)
}

type PortfolioSource interface {
	Portfolio(ctx context.Context, workspaceID string) (*investments.Portfolio, error)
}

type ProjectionSource interface {
	ProjectedBalance(ctx context.Context, workspaceID string, today time.Time, days int) (*domain.Projection, error)
}

type Service interface {
	Dashboard(ctx context.Context, workspaceID string, now time.Time) (*Dashboard, error)
	GenerateAlerts(ctx context.Context, workspaceID, userID string, now time.Time) ([]Alert, error)
	ListAlerts(ctx context.Context, workspaceID string, unreadOnly bool) ([]Alert, error)
	MarkAlertRead(ctx context.Context, workspaceID, alertID string) error
	MarkAllAlertsRead(ctx context.Context, workspaceID string) (int64, error)
	DeleteAlert(ctx context.Context, workspaceID, alertID string) error
	Tips(ctx context.Context, workspaceID string, now time.Time) ([]Tip, error)
}

type service struct {
	repo        Repository
	budgets     BudgetSource
	goals       GoalSource
	portfolios  PortfolioSource
	projections ProjectionSource
}

func NewService(repo Repository, budgets BudgetSource, goals GoalSource, portfolios PortfolioSource, projections ProjectionSource) Service {
	return &service{repo: repo, budgets: budgets, goals: goals, portfolios: portfolios, projections: projections}
}

// monthFigures are the queries shared by the dashboard and tips.
type monthFigures struct {
	thisMonth MonthTotals
	lastMonth MonthTotals
	spending  map[string]decimal.Decimal
	budgets   []budget.Status
}

func (s *service) loadMonthFigures(ctx context.Context, g *errgroup.Group, workspaceID string, now time.Time, f *monthFigures) {
	today := dates.Day(now)
	thisStart, lastStart, lastEnd := MonthBounds(today)

	g.Go(func() error {
		totals, err := s.repo.MonthTotals(ctx, workspaceID, thisStart, today)
		f.thisMonth = totals
		return err
	})
	g.Go(func() error {
		totals, err := s.repo.MonthTotals(ctx, workspaceID, lastStart, lastEnd)
		f.lastMonth = totals
		return err
	})
	g.Go(func() error {
		spending, err := s.repo.CategorySpending(ctx, workspaceID, thisStart, today)
		f.spending = spending
		return err
	})
	g.Go(func() error {
		statuses, err := s.budgets.Status(ctx, workspaceID, now)
		f.budgets = statuses
		return err
	})
}

func (s *service) Dashboard(ctx context.Context, workspaceID string, now time.Time) (*Dashboard, error) {
	var f monthFigures
	g, gctx := errgroup.WithContext(ctx)
	s.loadMonthFigures(gctx, g, workspaceID, now, &f)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Dashboard{
		Month:           now.Format("2006-01"),
		ThisMonth:       f.thisMonth,
		LastMonth:       f.lastMonth,
		SavingsTrendPct: SavingsTrend(f.thisMonth.Savings, f.lastMonth.Savings),
		SavingsRatePct:  f.thisMonth.SavingsRate(),
		Budgets:         SummarizeBudgets(f.budgets),
		TopCategories:   TopCategories(f.spending, topCategoryLimit),
	}, nil
}

// GenerateAlerts evaluates the alert rules and stores the alerts that are
// not already waiting unread from earlier today. It returns the new ones.
func (s *service) GenerateAlerts(ctx context.Context, workspaceID, userID string, now time.Time) ([]Alert, error) {
	today := dates.Day(now)
	thisStart, lastStart, lastEnd := MonthBounds(today)

	var in AlertInput
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		statuses, err := s.budgets.Status(gctx, workspaceID, now)
		in.Budgets = statuses
		return err
	})
	g.Go(func() error {
		goals, err := s.goals.ListGoals(gctx, workspaceID, now)
		in.Goals = goals
		return err
	})
	g.Go(func() error {
		spending, err := s.repo.CategorySpending(gctx, workspaceID, thisStart, today)
		in.ThisMonth = spending
		return err
	})
	g.Go(func() error {
		spending, err := s.repo.CategorySpending(gctx, workspaceID, lastStart, lastEnd)
		in.LastMonth = spending
		return err
	})
	g.Go(func() error {
		projection, err := s.projections.ProjectedBalance(gctx, workspaceID, today, lowBalanceDays)
		if err != nil {
			return err
		}
		in.LowestBalance = projection.LowestBalance
		in.LowestDate = projection.LowestDate.String()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	created := []Alert{}
	for _, alert := range EvaluateAlerts(in) {
		exists, err := s.repo.UnreadAlertExists(ctx, workspaceID, alert.Type, alert.Title, today)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		alert.ID = uuid.NewString()
		alert.WorkspaceID = workspaceID
		alert.UserID = userID
		if err := s.repo.InsertAlert(ctx, &alert); err != nil {
			return nil, err
		}
		created = append(created, alert)
	}
	logger.Info().Str("workspace_id", workspaceID).Int("created", len(created)).Msg("alerts generated")
	return created, nil
}

func (s *service) ListAlerts(ctx context.Context, workspaceID string, unreadOnly bool) ([]Alert, error) {
	return s.repo.ListAlerts(ctx, workspaceID, unreadOnly)
}

func (s *service) MarkAlertRead(ctx context.Context, workspaceID, alertID string) error {
	if _, err := uuid.Parse(alertID); err != nil {
		return ErrAlertNotFound
	}
	return s.repo.MarkRead(ctx, workspaceID, alertID)
}

func (s *service) MarkAllAlertsRead(ctx context.Context, workspaceID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, workspaceID)
}

func (s *service) DeleteAlert(ctx context.Context, workspaceID, alertID string) error {
	if _, err := uuid.Parse(alertID); err != nil {
		return ErrAlertNotFound
	}
	return s.repo.DeleteAlert(ctx, workspaceID, alertID)
}

func (s *service) Tips(ctx context.Context, workspaceID string, now time.Time) ([]Tip, error) {
	var f monthFigures
	var goals []goal.Progress
	var portfolio *investments.Portfolio

	g, gctx := errgroup.WithContext(ctx)
	s.loadMonthFigures(gctx, g, workspaceID, now, &f)
	g.Go(func() error {
		var err error
		goals, err = s.goals.ListGoals(gctx, workspaceID, now)
		return err
	})
	g.Go(func() error {
		var err error
		portfolio, err = s.portfolios.Portfolio(gctx, workspaceID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	in := TipInput{
		ThisMonth:       f.thisMonth,
		Goals:           goals,
		Budgets:         f.budgets,
		InvestmentCount: portfolio.Count,
	}
	if top := TopCategories(f.spending, 1); len(top) > 0 {
		in.TopCategory = &top[0]
	}
	return EvaluateTips(in), nil
}
