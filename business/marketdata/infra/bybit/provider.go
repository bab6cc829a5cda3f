// Package bybit implements the QuoteProvider interface for the Bybit exchange
// using the v5 REST market API.
package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/cex-arb/business/marketdata/domain"
	"github.com/fd1az/cex-arb/internal/apperror"
	"github.com/fd1az/cex-arb/internal/httpclient"
	"github.com/fd1az/cex-arb/internal/logger"
)

const (
	tracerName = "bybit"

	// Bybit v5 REST API
	BaseAPIURL      = "https://api.bybit.com"
	tickersEndpoint = "/v5/market/tickers"

	httpTimeout = 10 * time.Second
)

// Config holds Bybit provider configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: BaseAPIURL,
		Timeout: httpTimeout,
	}
}

// Provider fetches spot top-of-book quotes from Bybit.
type Provider struct {
	client httpclient.Client
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewProvider creates a Bybit quote provider.
func NewProvider(cfg Config, log logger.LoggerInterface) (*Provider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseAPIURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = httpTimeout
	}

	tracer := otel.Tracer(tracerName)
	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("bybit"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Provider{
		client: client,
		logger: log,
		tracer: tracer,
	}, nil
}

// Name returns the venue identifier.
func (p *Provider) Name() string { return "bybit" }

// tickersResponse is the v5 market tickers envelope.
type tickersResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Category string   `json:"category"`
		List     []ticker `json:"list"`
	} `json:"result"`
	Time int64 `json:"time"`
}

// ticker is one spot instrument's top of book.
type ticker struct {
	Symbol    string `json:"symbol"`
	Bid1Price string `json:"bid1Price"`
	Bid1Size  string `json:"bid1Size"`
	Ask1Price string `json:"ask1Price"`
	Ask1Size  string `json:"ask1Size"`
}

// FetchQuotes returns quotes for the requested symbols. One tickers call
// covers the whole spot market, so the symbol set only drives filtering.
func (p *Provider) FetchQuotes(ctx context.Context, symbols []domain.Symbol) ([]domain.Quote, error) {
	ctx, span := p.tracer.Start(ctx, "bybit.fetch_quotes",
		trace.WithAttributes(attribute.Int("symbols", len(symbols))),
	)
	defer span.End()

	var result tickersResponse
	resp, err := p.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "tickers")),
		httpclient.WithResponseErrorHandler(bybitErrorHandler),
	).
		SetQueryParam("category", "spot").
		SetResult(&result).
		Get(ctx, tickersEndpoint)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.Transient(apperror.CodeTickerFetchFailed, "bybit tickers request", err)
	}
	if resp.IsError() {
		return nil, apperror.Transient(apperror.CodeVenueAPIError,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.String()), nil)
	}
	if result.RetCode != 0 {
		return nil, apperror.Transient(apperror.CodeVenueAPIError,
			fmt.Sprintf("bybit retCode %d: %s", result.RetCode, result.RetMsg), nil)
	}

	wanted := venueSymbolSet(symbols)
	ts := time.UnixMilli(result.Time)
	if result.Time == 0 {
		ts = time.Now()
	}

	quotes := make([]domain.Quote, 0, len(symbols))
	for _, t := range result.Result.List {
		sym, ok := wanted[t.Symbol]
		if !ok {
			continue
		}
		q, err := parseTicker(t, sym, ts)
		if err != nil {
			p.logger.Debug(ctx, "skipping unparseable ticker",
				"symbol", t.Symbol, "error", err)
			continue
		}
		quotes = append(quotes, q)
	}

	span.SetAttributes(attribute.Int("quotes", len(quotes)))
	return quotes, nil
}

// Close releases provider resources. The HTTP client has none to release.
func (p *Provider) Close() error { return nil }

func parseTicker(t ticker, sym domain.Symbol, ts time.Time) (domain.Quote, error) {
	bid, err := decimal.NewFromString(t.Bid1Price)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("bid price %q: %w", t.Bid1Price, err)
	}
	ask, err := decimal.NewFromString(t.Ask1Price)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("ask price %q: %w", t.Ask1Price, err)
	}
	bidQty, err := decimal.NewFromString(t.Bid1Size)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("bid size %q: %w", t.Bid1Size, err)
	}
	askQty, err := decimal.NewFromString(t.Ask1Size)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("ask size %q: %w", t.Ask1Size, err)
	}

	return domain.Quote{
		Venue:     "bybit",
		Symbol:    sym,
		Bid:       bid,
		Ask:       ask,
		BidQty:    bidQty,
		AskQty:    askQty,
		Timestamp: ts,
	}, nil
}

// venueSymbolSet maps Bybit instrument names ("BTCUSDT") back to symbols.
func venueSymbolSet(symbols []domain.Symbol) map[string]domain.Symbol {
	m := make(map[string]domain.Symbol, len(symbols))
	for _, s := range symbols {
		m[s.Base+s.Quote] = s
	}
	return m
}

// bybitAPIError represents an error payload from the v5 API.
type bybitAPIError struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
}

func (e *bybitAPIError) Error() string {
	return fmt.Sprintf("bybit API error %d: %s", e.RetCode, e.RetMsg)
}

func bybitErrorHandler(statusCode int, body []byte) error {
	if statusCode >= 400 {
		var apiErr bybitAPIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.RetCode != 0 {
			return &apiErr
		}
		return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	}
	return nil
}
