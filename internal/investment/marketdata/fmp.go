package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL = "https://financialmodelingprep.com/api/v3"
	maxBatchSize   = 50
)

var (
	ErrNotConfigured  = errors.New("market data API key not configured")
	ErrTickerNotFound = errors.New("ticker not found")
)

type VerifiedTicker struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Exchange string `json:"exchange"`
}

type FinancialModelingPrepClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewFMPClient(apiKey string) *FinancialModelingPrepClient {
	return NewFMPClientWithBaseURL(apiKey, defaultBaseURL)
}

func NewFMPClientWithBaseURL(apiKey, baseURL string) *FinancialModelingPrepClient {
	return &FinancialModelingPrepClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *FinancialModelingPrepClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}
	query.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error querying API: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Quotes returns the latest price per symbol. Symbols the API does not
// know are missing from the result.
func (c *FinancialModelingPrepClient) Quotes(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(symbols))
	for start := 0; start < len(symbols); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(symbols) {
			end = len(symbols)
		}

		var results []struct {
			Symbol string          `json:"symbol"`
			Price  decimal.Decimal `json:"price"`
		}
		escaped := make([]string, 0, end-start)
		for _, s := range symbols[start:end] {
			escaped = append(escaped, url.PathEscape(s))
		}
		if err := c.get(ctx, "/quote/"+strings.Join(escaped, ","), url.Values{}, &results); err != nil {
			return nil, err
		}
		for _, r := range results {
			prices[strings.ToUpper(r.Symbol)] = r.Price
		}
	}
	return prices, nil
}

func (c *FinancialModelingPrepClient) VerifyTicker(ctx context.Context, ticker string) (*VerifiedTicker, error) {
	var results []struct {
		Symbol            string `json:"symbol"`
		Name              string `json:"name"`
		Currency          string `json:"currency"`
		ExchangeShortName string `json:"exchangeShortName"`
	}
	query := url.Values{}
	query.Set("query", ticker)
	query.Set("limit", "10")
	if err := c.get(ctx, "/search-ticker", query, &results); err != nil {
		return nil, err
	}

	for _, entry := range results {
		if strings.EqualFold(entry.Symbol, ticker) {
			return &VerifiedTicker{
				Symbol:   entry.Symbol,
				Name:     entry.Name,
				Currency: entry.Currency,
				Exchange: entry.ExchangeShortName,
			}, nil
		}
	}
	return nil, fmt.Errorf("ticker %s: %w", ticker, ErrTickerNotFound)
}
