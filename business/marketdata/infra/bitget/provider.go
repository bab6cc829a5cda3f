// Package bitget implements the QuoteProvider interface for the Bitget
// exchange using the v2 spot REST API.
package bitget

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
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
	tracerName = "bitget"

	BaseAPIURL      = "https://api.bitget.com"
	tickersEndpoint = "/api/v2/spot/market/tickers"

	httpTimeout = 10 * time.Second
)

// Config holds Bitget provider configuration.
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

// Provider fetches spot top-of-book quotes from Bitget.
type Provider struct {
	client httpclient.Client
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewProvider creates a Bitget quote provider.
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
		httpclient.WithProviderName("bitget"),
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
func (p *Provider) Name() string { return "bitget" }

// tickersResponse is the v2 spot tickers envelope.
type tickersResponse struct {
	Code        string   `json:"code"`
	Msg         string   `json:"msg"`
	RequestTime int64    `json:"requestTime"`
	Data        []ticker `json:"data"`
}

// ticker is one spot instrument's top of book. Bitget reports a per-ticker
// timestamp in milliseconds.
type ticker struct {
	Symbol  string `json:"symbol"`
	BidPr   string `json:"bidPr"`
	AskPr   string `json:"askPr"`
	BidSz   string `json:"bidSz"`
	AskSz   string `json:"askSz"`
	TsMilli string `json:"ts"`
}

// FetchQuotes returns quotes for the requested symbols.
func (p *Provider) FetchQuotes(ctx context.Context, symbols []domain.Symbol) ([]domain.Quote, error) {
	ctx, span := p.tracer.Start(ctx, "bitget.fetch_quotes",
		trace.WithAttributes(attribute.Int("symbols", len(symbols))),
	)
	defer span.End()

	var result tickersResponse
	resp, err := p.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "tickers")),
		httpclient.WithResponseErrorHandler(bitgetErrorHandler),
	).
		SetResult(&result).
		Get(ctx, tickersEndpoint)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.Transient(apperror.CodeTickerFetchFailed, "bitget tickers request", err)
	}
	if resp.IsError() {
		return nil, apperror.Transient(apperror.CodeVenueAPIError,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.String()), nil)
	}
	if result.Code != "00000" {
		return nil, apperror.Transient(apperror.CodeVenueAPIError,
			fmt.Sprintf("bitget code %s: %s", result.Code, result.Msg), nil)
	}

	wanted := venueSymbolSet(symbols)
	now := time.Now()

	quotes := make([]domain.Quote, 0, len(symbols))
	for _, t := range result.Data {
		sym, ok := wanted[t.Symbol]
		if !ok {
			continue
		}
		q, err := parseTicker(t, sym, now)
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

func parseTicker(t ticker, sym domain.Symbol, fallback time.Time) (domain.Quote, error) {
	bid, err := decimal.NewFromString(t.BidPr)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("bid price %q: %w", t.BidPr, err)
	}
	ask, err := decimal.NewFromString(t.AskPr)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("ask price %q: %w", t.AskPr, err)
	}
	bidQty, err := decimal.NewFromString(t.BidSz)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("bid size %q: %w", t.BidSz, err)
	}
	askQty, err := decimal.NewFromString(t.AskSz)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("ask size %q: %w", t.AskSz, err)
	}

	ts := fallback
	if ms, err := strconv.ParseInt(t.TsMilli, 10, 64); err == nil && ms > 0 {
		ts = time.UnixMilli(ms)
	}

	return domain.Quote{
		Venue:     "bitget",
		Symbol:    sym,
		Bid:       bid,
		Ask:       ask,
		BidQty:    bidQty,
		AskQty:    askQty,
		Timestamp: ts,
	}, nil
}

// venueSymbolSet maps Bitget instrument names ("BTCUSDT") back to symbols.
func venueSymbolSet(symbols []domain.Symbol) map[string]domain.Symbol {
	m := make(map[string]domain.Symbol, len(symbols))
	for _, s := range symbols {
		m[s.Base+s.Quote] = s
	}
	return m
}

// bitgetAPIError represents an error payload from the v2 API.
type bitgetAPIError struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (e *bitgetAPIError) Error() string {
	return fmt.Sprintf("bitget API error %s: %s", e.Code, e.Msg)
}

func bitgetErrorHandler(statusCode int, body []byte) error {
	if statusCode >= 400 {
		var apiErr bitgetAPIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
			return &apiErr
		}
		return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	}
	return nil
}
