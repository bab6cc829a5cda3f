package bybit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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
		if got := r.URL.Query().Get("category"); got != "spot" {
			t.Errorf("category param = %q, want spot", got)
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
	resp := tickersResponse{Time: time.Now().UnixMilli()}
	resp.Result.List = []ticker{
		{Symbol: "BTCUSDT", Bid1Price: "64000.5", Bid1Size: "2", Ask1Price: "64001", Ask1Size: "3"},
		{Symbol: "ETHUSDT", Bid1Price: "3400", Bid1Size: "10", Ask1Price: "3401", Ask1Size: "12"},
		// Not in the requested set, must be filtered out.
		{Symbol: "SOLUSDT", Bid1Price: "150", Bid1Size: "100", Ask1Price: "151", Ask1Size: "100"},
	}
	server := tickersServer(t, resp)
	defer server.Close()

	provider := newTestProvider(t, server.URL)
	symbols := []domain.Symbol{
		domain.MustParseSymbol("BTC/USDT"),
		domain.MustParseSymbol("ETH/USDT"),
	}

	quotes, err := provider.FetchQuotes(context.Background(), symbols)
	if err != nil {
		t.Fatalf("FetchQuotes failed: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}

	byBase := make(map[string]domain.Quote, len(quotes))
	for _, q := range quotes {
		if q.Venue != "bybit" {
			t.Errorf("Venue = %s, want bybit", q.Venue)
		}
		byBase[q.Symbol.Base] = q
	}
	btc := byBase["BTC"]
	if !btc.Bid.Equal(decimal.RequireFromString("64000.5")) {
		t.Errorf("BTC Bid = %s, want 64000.5", btc.Bid)
	}
	if !btc.AskQty.Equal(decimal.NewFromInt(3)) {
		t.Errorf("BTC AskQty = %s, want 3", btc.AskQty)
	}
}

func TestProvider_FetchQuotes_SkipsUnparseable(t *testing.T) {
	resp := tickersResponse{Time: time.Now().UnixMilli()}
	resp.Result.List = []ticker{
		{Symbol: "BTCUSDT", Bid1Price: "not-a-number", Bid1Size: "2", Ask1Price: "64001", Ask1Size: "3"},
		{Symbol: "ETHUSDT", Bid1Price: "3400", Bid1Size: "10", Ask1Price: "3401", Ask1Size: "12"},
	}
	server := tickersServer(t, resp)
	defer server.Close()

	provider := newTestProvider(t, server.URL)
	symbols := []domain.Symbol{
		domain.MustParseSymbol("BTC/USDT"),
		domain.MustParseSymbol("ETH/USDT"),
	}

	quotes, err := provider.FetchQuotes(context.Background(), symbols)
	if err != nil {
		t.Fatalf("FetchQuotes failed: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("expected 1 quote after skipping the bad ticker, got %d", len(quotes))
	}
	if quotes[0].Symbol.Base != "ETH" {
		t.Errorf("surviving quote = %s, want ETH/USDT", quotes[0].Symbol)
	}
}

func TestProvider_FetchQuotes_APIError(t *testing.T) {
	server := tickersServer(t, tickersResponse{RetCode: 10001, RetMsg: "params error"})
	defer server.Close()

	provider := newTestProvider(t, server.URL)

	_, err := provider.FetchQuotes(context.Background(), []domain.Symbol{domain.MustParseSymbol("BTC/USDT")})
	if err == nil {
		t.Fatal("expected error for non-zero retCode, got nil")
	}
	if !apperror.IsTransient(err) {
		t.Errorf("error class = %v, want transient", err)
	}
}

func TestProvider_FetchQuotes_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL)

	_, err := provider.FetchQuotes(context.Background(), []domain.Symbol{domain.MustParseSymbol("BTC/USDT")})
	if err == nil {
		t.Fatal("expected error for HTTP 503, got nil")
	}
	if !apperror.IsTransient(err) {
		t.Errorf("error class = %v, want transient", err)
	}
}
