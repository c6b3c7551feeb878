package billing

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Store interface {
	Get(ctx context.Context, userID string) (*Subscription, error)
	FindUserByProviderID(ctx context.Context, providerID string) (string, error)
	Upsert(ctx context.Context, s *Subscription) error
}

type store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return &store{db: db}
}

// Get returns the stored subscription or a free one when the user has none.
func (s *store) Get(ctx context.Context, userID string) (*Subscription, error) {
	const q = `
        SELECT provider_subscription_id, status, plan, current_period_end, updated_at
        FROM subscriptions
        WHERE user_id = $1`
	sub := Subscription{UserID: userID}
	var end sql.NullTime
	err := s.db.QueryRowContext(ctx, q, userID).Scan(&sub.ProviderSubscriptionID, &sub.Status, &sub.Plan, &end, &sub.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return FreeSubscription(userID), nil
	}
	if err != nil {
		return nil, err
	}
	if end.Valid {
		sub.CurrentPeriodEnd = &end.Time
	}
	return &sub, nil
}

func (s *store) FindUserByProviderID(ctx context.Context, providerID string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM subscriptions WHERE provider_subscription_id = $1`, providerID).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUnknownSubscription
	}
	return userID, err
}

func (s *store) Upsert(ctx context.Context, sub *Subscription) error {
	const q = `
        INSERT INTO subscriptions (user_id, provider_subscription_id, status, plan, current_period_end, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        ON CONFLICT (user_id) DO UPDATE SET
            provider_subscription_id = EXCLUDED.provider_subscription_id,
            status = EXCLUDED.status,
            plan = EXCLUDED.plan,
            current_period_end = EXCLUDED.current_period_end,
            updated_at = NOW()`
	var end interface{}
	if sub.CurrentPeriodEnd != nil {
		end = *sub.CurrentPeriodEnd
	}
	_, err := s.db.ExecContext(ctx, q, sub.UserID, sub.ProviderSubscriptionID, sub.Status, sub.Plan, end)
	if err == nil {
		sub.UpdatedAt = time.Now()
	}
	return err
}
