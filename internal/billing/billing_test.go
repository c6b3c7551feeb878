package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSubscription_IsActive(t *testing.T) {
	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{"active in period", Subscription{Status: StatusActive, CurrentPeriodEnd: at(time.Hour)}, true},
		{"trialing in period", Subscription{Status: StatusTrialing, CurrentPeriodEnd: at(time.Hour)}, true},
		{"active but expired", Subscription{Status: StatusActive, CurrentPeriodEnd: at(-time.Second)}, false},
		{"active without end", Subscription{Status: StatusActive}, false},
		{"cancelled", Subscription{Status: "cancelled", CurrentPeriodEnd: at(time.Hour)}, false},
		{"free", *FreeSubscription("u1"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.IsActive(now))
		})
	}
}

func TestSubscription_NeedsRefresh(t *testing.T) {
	fresh := Subscription{ProviderSubscriptionID: "sub_1", CurrentPeriodEnd: at(time.Hour), UpdatedAt: now.Add(-time.Minute)}
	assert.False(t, fresh.NeedsRefresh(now))

	stale := fresh
	stale.UpdatedAt = now.Add(-2 * time.Hour)
	assert.True(t, stale.NeedsRefresh(now))

	noEnd := fresh
	noEnd.CurrentPeriodEnd = nil
	assert.True(t, noEnd.NeedsRefresh(now))

	unlinked := stale
	unlinked.ProviderSubscriptionID = ""
	assert.False(t, unlinked.NeedsRefresh(now))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"subscription.charged"}`)
	assert.True(t, VerifyWebhookSignature(body, sign(body, "whsec"), "whsec"))
	assert.False(t, VerifyWebhookSignature(body, sign(body, "other"), "whsec"))
	assert.False(t, VerifyWebhookSignature([]byte(`{}`), sign(body, "whsec"), "whsec"))
	assert.False(t, VerifyWebhookSignature(body, "", "whsec"))
}
