package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sebuszqo/FamilyFinance/internal/logging"
)

var (
	ErrUnknownSubscription = errors.New("unknown subscription")
	ErrInvalidPayload      = errors.New("invalid webhook payload")
)

var logger = logging.New("billing")

type Provider interface {
	FetchSubscription(ctx context.Context, id string) (*ProviderSubscription, error)
}

type Service interface {
	Check(ctx context.Context, userID string, now time.Time) (*SubscriptionStatus, error)
	// ApplyWebhook stores the subscription carried by a verified event.
	// It reports false for events that carry no subscription.
	ApplyWebhook(ctx context.Context, raw []byte) (bool, error)
}

type service struct {
	store    Store
	provider Provider
}

func NewService(store Store, provider Provider) Service {
	return &service{store: store, provider: provider}
}

func apply(sub *Subscription, p *ProviderSubscription) {
	sub.ProviderSubscriptionID = p.ID
	if p.Status != "" {
		sub.Status = p.Status
	}
	if p.PlanID != "" {
		sub.Plan = p.PlanID
	}
	if end := p.PeriodEnd(); end != nil {
		sub.CurrentPeriodEnd = end
	}
}

func (s *service) Check(ctx context.Context, userID string, now time.Time) (*SubscriptionStatus, error) {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if sub.NeedsRefresh(now) {
		remote, err := s.provider.FetchSubscription(ctx, sub.ProviderSubscriptionID)
		if err != nil {
			// The stored row is still the best answer we have.
			logger.Warn().Err(err).Str("userID", userID).Msg("subscription refresh failed")
		} else {
			apply(sub, remote)
			if err := s.store.Upsert(ctx, sub); err != nil {
				return nil, err
			}
		}
	}

	status := sub.StatusAt(now)
	return &status, nil
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Subscription *struct {
			Entity ProviderSubscription `json:"entity"`
		} `json:"subscription"`
	} `json:"payload"`
}

func (s *service) ApplyWebhook(ctx context.Context, raw []byte) (bool, error) {
	var evt webhookEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return false, ErrInvalidPayload
	}
	if evt.Payload.Subscription == nil || evt.Payload.Subscription.Entity.ID == "" {
		logger.Debug().Str("event", evt.Event).Msg("webhook ignored")
		return false, nil
	}
	entity := evt.Payload.Subscription.Entity

	userID := entity.Notes["user_id"]
	if userID == "" {
		var err error
		if userID, err = s.store.FindUserByProviderID(ctx, entity.ID); err != nil {
			return false, err
		}
	}

	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	apply(sub, &entity)
	if err := s.store.Upsert(ctx, sub); err != nil {
		return false, err
	}

	logger.Info().Str("event", evt.Event).Str("userID", userID).Str("status", sub.Status).Msg("subscription updated from webhook")
	return true, nil
}
