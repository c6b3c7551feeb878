package investments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sebuszqo/FamilyFinance/internal/investment/marketdata"
	"github.com/sebuszqo/FamilyFinance/internal/logging"
)

var (
	ErrInvestmentNotFound = errors.New("investment not found")
	ErrInvalidInvestment  = errors.New("invalid investment")
	ErrMarketData         = errors.New("market data provider unavailable")
)

var logger = logging.New("investment")

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInvestment
}

// PriceSource is the market data client.
type PriceSource interface {
	Quotes(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
	VerifyTicker(ctx context.Context, ticker string) (*marketdata.VerifiedTicker, error)
}

type BalanceSource interface {
	GetBalance(ctx context.Context, workspaceID string, asOf time.Time) (decimal.Decimal, error)
}

type Service interface {
	CreateInvestment(ctx context.Context, inv *Investment) error
	GetInvestment(ctx context.Context, workspaceID, investmentID string) (*Investment, error)
	GetInvestments(ctx context.Context, workspaceID string) ([]Investment, error)
	UpdateInvestment(ctx context.Context, inv *Investment) error
	DeleteInvestment(ctx context.Context, workspaceID, investmentID string) error
	Portfolio(ctx context.Context, workspaceID string) (*Portfolio, error)
	NetWorthProjection(ctx context.Context, workspaceID string, years int, now time.Time) ([]NetWorthPoint, error)
	RefreshPrices(ctx context.Context) (int, error)
}

type service struct {
	repo     Repository
	prices   PriceSource
	balances BalanceSource
}

func NewInvestmentService(repo Repository, prices PriceSource, balances BalanceSource) Service {
	return &service{repo: repo, prices: prices, balances: balances}
}

func (s *service) validate(ctx context.Context, inv *Investment) error {
	inv.Name = strings.TrimSpace(inv.Name)
	if inv.Name == "" {
		return &ValidationError{Msg: "Investment name is required"}
	}
	inv.Type = strings.ToLower(strings.TrimSpace(inv.Type))
	if !IsValidType(inv.Type) {
		return &ValidationError{Msg: "Invalid investment type"}
	}
	if inv.AmountInvested.IsNegative() || inv.CurrentValue.IsNegative() || inv.Quantity.IsNegative() {
		return &ValidationError{Msg: "Amounts must not be negative"}
	}
	if inv.ExpectedReturnRate.LessThan(hundred.Neg()) || inv.ExpectedReturnRate.GreaterThan(hundred) {
		return &ValidationError{Msg: "Expected return rate must be between -100 and 100"}
	}

	inv.Symbol = strings.ToUpper(strings.TrimSpace(inv.Symbol))
	if inv.Symbol != "" && s.prices != nil {
		_, err := s.prices.VerifyTicker(ctx, inv.Symbol)
		switch {
		case err == nil:
		case errors.Is(err, marketdata.ErrNotConfigured):
			logger.Debug().Str("symbol", inv.Symbol).Msg("market data not configured, skipping ticker check")
		case errors.Is(err, marketdata.ErrTickerNotFound):
			return &ValidationError{Msg: "Unknown ticker symbol"}
		default:
			return fmt.Errorf("%w: verify %s: %v", ErrMarketData, inv.Symbol, err)
		}
	}

	inv.AmountInvested = inv.AmountInvested.Round(2)
	inv.CurrentValue = inv.CurrentValue.Round(2)
	if inv.CurrentValue.IsZero() {
		inv.CurrentValue = inv.AmountInvested
	}
	return nil
}

func (s *service) CreateInvestment(ctx context.Context, inv *Investment) error {
	if err := s.validate(ctx, inv); err != nil {
		return err
	}
	inv.ID = uuid.NewString()
	return s.repo.Create(ctx, inv)
}

func (s *service) GetInvestment(ctx context.Context, workspaceID, investmentID string) (*Investment, error) {
	return s.repo.FindByID(ctx, workspaceID, investmentID)
}

func (s *service) GetInvestments(ctx context.Context, workspaceID string) ([]Investment, error) {
	return s.repo.FindByWorkspace(ctx, workspaceID)
}

func (s *service) UpdateInvestment(ctx context.Context, inv *Investment) error {
	existing, err := s.repo.FindByID(ctx, inv.WorkspaceID, inv.ID)
	if err != nil {
		return err
	}
	if err := s.validate(ctx, inv); err != nil {
		return err
	}
	inv.UserID = existing.UserID
	inv.CreatedAt = existing.CreatedAt

	affected, err := s.repo.Update(ctx, inv)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInvestmentNotFound
	}
	return nil
}

func (s *service) DeleteInvestment(ctx context.Context, workspaceID, investmentID string) error {
	affected, err := s.repo.Delete(ctx, workspaceID, investmentID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInvestmentNotFound
	}
	return nil
}

func (s *service) Portfolio(ctx context.Context, workspaceID string) (*Portfolio, error) {
	investments, err := s.repo.FindByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	p := Summarize(investments)
	return &p, nil
}

func (s *service) NetWorthProjection(ctx context.Context, workspaceID string, years int, now time.Time) ([]NetWorthPoint, error) {
	investments, err := s.repo.FindByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	balance, err := s.balances.GetBalance(ctx, workspaceID, now)
	if err != nil {
		return nil, err
	}
	return ProjectNetWorth(balance, investments, ClampYears(years)), nil
}

// RefreshPrices revalues every holding with a symbol at quantity x latest
// price and reports how many rows changed. A failed row is logged and
// skipped.
func (s *service) RefreshPrices(ctx context.Context) (int, error) {
	holdings, err := s.repo.FindWithSymbol(ctx)
	if err != nil {
		return 0, err
	}
	if len(holdings) == 0 {
		return 0, nil
	}

	seen := make(map[string]bool)
	var symbols []string
	for _, h := range holdings {
		if !seen[h.Symbol] {
			seen[h.Symbol] = true
			symbols = append(symbols, h.Symbol)
		}
	}

	prices, err := s.prices.Quotes(ctx, symbols)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, h := range holdings {
		price, ok := prices[h.Symbol]
		if !ok {
			logger.Warn().Str("symbol", h.Symbol).Msg("no quote returned")
			continue
		}
		value := h.Quantity.Mul(price).Round(2)
		if value.Equal(h.CurrentValue) {
			continue
		}
		if err := s.repo.UpdateCurrentValue(ctx, h.ID, value); err != nil {
			logger.Error().Err(err).Str("investment_id", h.ID).Msg("failed to update investment value")
			continue
		}
		updated++
	}
	return updated, nil
}
