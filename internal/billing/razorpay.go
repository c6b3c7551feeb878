package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrProviderNotConfigured = errors.New("payment provider credentials not configured")

// ProviderSubscription is the provider's view of a subscription entity.
type ProviderSubscription struct {
	ID         string            `json:"id"`
	PlanID     string            `json:"plan_id"`
	Status     string            `json:"status"`
	CurrentEnd int64             `json:"current_end"`
	Notes      map[string]string `json:"notes"`
}

func (p *ProviderSubscription) PeriodEnd() *time.Time {
	if p.CurrentEnd <= 0 {
		return nil
	}
	end := time.Unix(p.CurrentEnd, 0).UTC()
	return &end
}

type RazorpayClient struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

func NewRazorpayClient(keyID, keySecret, baseURL string) *RazorpayClient {
	return &RazorpayClient{
		keyID:      keyID,
		keySecret:  keySecret,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type httpError struct {
	Status int
	Body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("razorpay http error: %d", e.Status)
}

func (c *RazorpayClient) FetchSubscription(ctx context.Context, id string) (*ProviderSubscription, error) {
	if c.keyID == "" || c.keySecret == "" {
		return nil, ErrProviderNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/subscriptions/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 300 {
		return nil, &httpError{Status: res.StatusCode, Body: string(body)}
	}

	var out ProviderSubscription
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyWebhookSignature checks the hex HMAC-SHA256 of the raw body.
func VerifyWebhookSignature(rawBody []byte, signature string, webhookSecret string) bool {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
