package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotes(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		assert.Equal(t, "k3y", r.URL.Query().Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"symbol":"AAPL","price":189.84,"name":"Apple Inc."},{"symbol":"msft","price":415.1}]`)
	}))
	defer server.Close()

	client := NewFMPClientWithBaseURL("k3y", server.URL+"/")
	prices, err := client.Quotes(context.Background(), []string{"AAPL", "MSFT", "NOPE"})
	require.NoError(t, err)

	assert.Equal(t, []string{"/quote/AAPL,MSFT,NOPE"}, paths)
	assert.Equal(t, "189.84", prices["AAPL"].String())
	assert.Equal(t, "415.1", prices["MSFT"].String())
	_, ok := prices["NOPE"]
	assert.False(t, ok)
}

func TestQuotes_Batches(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	symbols := make([]string, 0, 120)
	for i := 0; i < 120; i++ {
		symbols = append(symbols, fmt.Sprintf("S%d", i))
	}
	_, err := NewFMPClientWithBaseURL("k", server.URL).Quotes(context.Background(), symbols)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestQuotes_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "limit reached", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewFMPClientWithBaseURL("k", server.URL).Quotes(context.Background(), []string{"AAPL"})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "error querying API: 429"))
}

func TestNotConfigured(t *testing.T) {
	_, err := NewFMPClient("").Quotes(context.Background(), []string{"AAPL"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerifyTicker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search-ticker", r.URL.Path)
		fmt.Fprint(w, `[{"symbol":"VOO.L","name":"Other","currency":"GBP","exchangeShortName":"LSE"},
			{"symbol":"VOO","name":"Vanguard S&P 500 ETF","currency":"USD","exchangeShortName":"AMEX"}]`)
	}))
	defer server.Close()

	client := NewFMPClientWithBaseURL("k", server.URL)
	ticker, err := client.VerifyTicker(context.Background(), "voo")
	require.NoError(t, err)
	assert.Equal(t, "Vanguard S&P 500 ETF", ticker.Name)
	assert.Equal(t, "AMEX", ticker.Exchange)

	_, err = client.VerifyTicker(context.Background(), "XYZ")
	assert.ErrorIs(t, err, ErrTickerNotFound)
	assert.EqualError(t, err, "ticker XYZ: ticker not found")
}
