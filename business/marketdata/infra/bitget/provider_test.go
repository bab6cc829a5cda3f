package bitget

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cex-arb/business/marketdata/domain"
	"github.com/fd1az/cex-arb/internal/apperror"
	"github.com/fd1az/cex-arb/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any) {}
func (m *mockLogger) With(args ...any) logger.LoggerInterface            { return m }

func tickersServer(t *testing.T, resp tickersResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != tickersEndpoint {
			t.Errorf("expected path %s, got %s", tickersEndpoint, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestProvider(t *testing.T, baseURL string) *Provider {
	t.Helper()
	p, err := NewProvider(Config{BaseURL: baseURL, Timeout: 5 * time.Second}, &mockLogger{})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	return p
}

func TestProvider_FetchQuotes(t *testing.T) {
	tickerTS := time.Now().Add(-2 * time.Second).UnixMilli()
	resp := tickersResponse{
		Code: "00000",
		Data: []ticker{
			{Symbol: "BTCUSDT", BidPr: "64000.5", AskPr: "64001", BidSz: "2", AskSz: "3",
				TsMilli: strconv.FormatInt(tickerTS, 10)},
			// Not in the requested set, must be filtered out.
			{Symbol: "SOLUSDT", BidPr: "150", AskPr: "151", BidSz: "100", AskSz: "100"},
		},
	}
	server := tickersServer(t, resp)
	defer server.Close()

	provider := newTestProvider(t, server.URL)

	quotes, err := provider.FetchQuotes(context.Background(), []domain.Symbol{domain.MustParseSymbol("BTC/USDT")})
	if err != nil {
		t.Fatalf("FetchQuotes failed: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(quotes))
	}

	q := quotes[0]
	if q.Venue != "bitget" {
		t.Errorf("Venue = %s, want bitget", q.Venue)
	}
	if !q.Bid.Equal(decimal.RequireFromString("64000.5")) {
		t.Errorf("Bid = %s, want 64000.5", q.Bid)
	}
	if got := q.Timestamp.UnixMilli(); got != tickerTS {
		t.Errorf("Timestamp = %d, want per-ticker ts %d", got, tickerTS)
	}
}

func TestProvider_FetchQuotes_TimestampFallback(t *testing.T) {
	resp := tickersResponse{
		Code: "00000",
		Data: []ticker{
			// No ts field: the provider falls back to fetch time.
			{Symbol: "BTCUSDT", BidPr: "64000", AskPr: "64001", BidSz: "2", AskSz: "3"},
		},
	}
	server := tickersServer(t, resp)
	defer server.Close()

	provider := newTestProvider(t, server.URL)

	before := time.Now()
	quotes, err := provider.FetchQuotes(context.Background(), []domain.Symbol{domain.MustParseSymbol("BTC/USDT")})
	if err != nil {
		t.Fatalf("FetchQuotes failed: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(quotes))
	}
	if quotes[0].Timestamp.Before(before) {
		t.Errorf("Timestamp = %v, want fetch-time fallback at or after %v", quotes[0].Timestamp, before)
	}
}

func TestProvider_FetchQuotes_APIError(t *testing.T) {
	server := tickersServer(t, tickersResponse{Code: "40001", Msg: "rate limited"})
	defer server.Close()

	provider := newTestProvider(t, server.URL)

	_, err := provider.FetchQuotes(context.Background(), []domain.Symbol{domain.MustParseSymbol("BTC/USDT")})
	if err == nil {
		t.Fatal("expected error for non-success code, got nil")
	}
	if !apperror.IsTransient(err) {
		t.Errorf("error class = %v, want transient", err)
	}
}
