package billing

import "time"

const (
	StatusActive   = "active"
	StatusTrialing = "trialing"
	StatusInactive = "inactive"

	PlanFree = "free"

	// StaleAfter is how long a stored status is trusted before the
	// provider is asked again.
	StaleAfter = time.Hour
)

type Subscription struct {
	UserID                 string     `json:"-"`
	ProviderSubscriptionID string     `json:"-"`
	Status                 string     `json:"status"`
	Plan                   string     `json:"plan"`
	CurrentPeriodEnd       *time.Time `json:"current_period_end"`
	UpdatedAt              time.Time  `json:"-"`
}

// SubscriptionStatus is what the API returns for the current user.
type SubscriptionStatus struct {
	Status           string     `json:"status"`
	Plan             string     `json:"plan"`
	CurrentPeriodEnd *time.Time `json:"current_period_end"`
	Active           bool       `json:"active"`
}

func FreeSubscription(userID string) *Subscription {
	return &Subscription{UserID: userID, Status: StatusInactive, Plan: PlanFree}
}

// IsActive reports whether the subscription is paid up at now.
func (s *Subscription) IsActive(now time.Time) bool {
	if s.Status != StatusActive && s.Status != StatusTrialing {
		return false
	}
	return s.CurrentPeriodEnd != nil && now.Before(*s.CurrentPeriodEnd)
}

// NeedsRefresh is true for linked subscriptions whose row is older than
// StaleAfter or has no period end yet.
func (s *Subscription) NeedsRefresh(now time.Time) bool {
	if s.ProviderSubscriptionID == "" {
		return false
	}
	return s.CurrentPeriodEnd == nil || now.Sub(s.UpdatedAt) > StaleAfter
}

func (s *Subscription) StatusAt(now time.Time) SubscriptionStatus {
	return SubscriptionStatus{
		Status:           s.Status,
		Plan:             s.Plan,
		CurrentPeriodEnd: s.CurrentPeriodEnd,
		Active:           s.IsActive(now),
	}
}
