package billing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebuszqo/FamilyFinance/internal/api"
	"github.com/sebuszqo/FamilyFinance/internal/auth"
)

type fakeStore struct {
	subs    map[string]Subscription
	upserts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{subs: make(map[string]Subscription)}
}

func (f *fakeStore) Get(ctx context.Context, userID string) (*Subscription, error) {
	s, ok := f.subs[userID]
	if !ok {
		return FreeSubscription(userID), nil
	}
	return &s, nil
}

func (f *fakeStore) FindUserByProviderID(ctx context.Context, providerID string) (string, error) {
	for id, s := range f.subs {
		if s.ProviderSubscriptionID == providerID {
			return id, nil
		}
	}
	return "", ErrUnknownSubscription
}

func (f *fakeStore) Upsert(ctx context.Context, s *Subscription) error {
	f.upserts++
	s.UpdatedAt = now
	f.subs[s.UserID] = *s
	return nil
}

type fakeProvider struct {
	sub   *ProviderSubscription
	err   error
	calls int
}

func (f *fakeProvider) FetchSubscription(ctx context.Context, id string) (*ProviderSubscription, error) {
	f.calls++
	return f.sub, f.err
}

func TestCheck_FreshRowSkipsProvider(t *testing.T) {
	store := newFakeStore()
	store.subs["u1"] = Subscription{UserID: "u1", ProviderSubscriptionID: "sub_1", Status: StatusActive, Plan: "family", CurrentPeriodEnd: at(48 * time.Hour), UpdatedAt: now.Add(-10 * time.Minute)}
	provider := &fakeProvider{}

	status, err := NewService(store, provider).Check(context.Background(), "u1", now)
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, 0, provider.calls)
}

func TestCheck_StaleRowIsRefreshed(t *testing.T) {
	store := newFakeStore()
	store.subs["u1"] = Subscription{UserID: "u1", ProviderSubscriptionID: "sub_1", Status: StatusActive, Plan: "family", CurrentPeriodEnd: at(-time.Hour), UpdatedAt: now.Add(-3 * time.Hour)}
	provider := &fakeProvider{sub: &ProviderSubscription{ID: "sub_1", Status: "active", PlanID: "family", CurrentEnd: now.Add(30 * 24 * time.Hour).Unix()}}

	status, err := NewService(store, provider).Check(context.Background(), "u1", now)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.True(t, status.Active)
	assert.Equal(t, 1, store.upserts)
}

func TestCheck_ProviderFailureFallsBackToStoredRow(t *testing.T) {
	store := newFakeStore()
	store.subs["u1"] = Subscription{UserID: "u1", ProviderSubscriptionID: "sub_1", Status: StatusActive, UpdatedAt: now.Add(-3 * time.Hour)}
	provider := &fakeProvider{err: errors.New("boom")}

	status, err := NewService(store, provider).Check(context.Background(), "u1", now)
	require.NoError(t, err)
	assert.False(t, status.Active)
	assert.Equal(t, StatusActive, status.Status)
	assert.Equal(t, 0, store.upserts)
}

func TestCheck_NoSubscription(t *testing.T) {
	status, err := NewService(newFakeStore(), &fakeProvider{}).Check(context.Background(), "u9", now)
	require.NoError(t, err)
	assert.Equal(t, PlanFree, status.Plan)
	assert.False(t, status.Active)
}

func TestApplyWebhook(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeProvider{})
	ctx := context.Background()

	applied, err := svc.ApplyWebhook(ctx, []byte(`{"event":"subscription.activated","payload":{"subscription":{"entity":{"id":"sub_9","plan_id":"family","status":"active","current_end":1712750400,"notes":{"user_id":"u1"}}}}}`))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "sub_9", store.subs["u1"].ProviderSubscriptionID)
	assert.Equal(t, "active", store.subs["u1"].Status)

	applied, err = svc.ApplyWebhook(ctx, []byte(`{"event":"subscription.cancelled","payload":{"subscription":{"entity":{"id":"sub_9","status":"cancelled"}}}}`))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "cancelled", store.subs["u1"].Status)
	assert.Equal(t, "family", store.subs["u1"].Plan)

	applied, err = svc.ApplyWebhook(ctx, []byte(`{"event":"payment.captured","payload":{}}`))
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = svc.ApplyWebhook(ctx, []byte(`{"event":"subscription.charged","payload":{"subscription":{"entity":{"id":"sub_unknown"}}}}`))
	assert.ErrorIs(t, err, ErrUnknownSubscription)

	_, err = svc.ApplyWebhook(ctx, []byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestHandler_WebhookSignature(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(NewService(store, &fakeProvider{}), "whsec", api.RespondJSON, api.RespondError)
	body := `{"event":"subscription.activated","payload":{"subscription":{"entity":{"id":"sub_1","status":"active","notes":{"user_id":"u1"}}}}}`

	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(body))
	req.Header.Set(signatureHeader, sign([]byte(body), "not-the-secret"))
	w := httptest.NewRecorder()
	h.Webhook(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, store.subs)

	req = httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(body))
	w = httptest.NewRecorder()
	h.Webhook(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(body))
	req.Header.Set(signatureHeader, sign([]byte(body), "whsec"))
	w = httptest.NewRecorder()
	h.Webhook(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "active", store.subs["u1"].Status)
}

func TestHandler_GetSubscription(t *testing.T) {
	h := NewHandler(NewService(newFakeStore(), &fakeProvider{}), "whsec", api.RespondJSON, api.RespondError)
	h.now = func() time.Time { return now }

	req := httptest.NewRequest(http.MethodGet, "/api/protected/subscription", nil)
	w := httptest.NewRecorder()
	h.GetSubscription(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = req.WithContext(auth.WithUser(req.Context(), "u1", "u1@example.com"))
	w = httptest.NewRecorder()
	h.GetSubscription(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"active":false`)
	assert.Contains(t, w.Body.String(), `"plan":"free"`)
}
