package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/cex-arb/business/marketdata/app"
	"github.com/fd1az/cex-arb/business/marketdata/domain"
	"github.com/fd1az/cex-arb/internal/apperror"
	"github.com/fd1az/cex-arb/internal/logger"
	"github.com/fd1az/cex-arb/internal/wsconn"
)

// Ensure Provider implements QuoteProvider.
var _ app.QuoteProvider = (*Provider)(nil)

const (
	tracerName = "binance"
	meterName  = "binance"

	// Binance WebSocket endpoints
	BaseWSURL     = "wss://stream.binance.com:9443"
	BaseWSURLAlt  = "wss://stream.binance.com:443"
	DataStreamURL = "wss://data-stream.binance.vision"
)

// ProviderConfig holds configuration for the Binance provider.
type ProviderConfig struct {
	WebSocketURL   string          // WebSocket base URL (empty = default)
	HTTPURL        string          // REST API base URL (empty = default)
	Symbols        []domain.Symbol // Symbols to subscribe
	StaleTimeout   time.Duration   // How long before stream data is considered stale
	EnableFallback bool            // Enable HTTP fallback when WS data is stale
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig(symbols []domain.Symbol) ProviderConfig {
	return ProviderConfig{
		Symbols:        symbols,
		StaleTimeout:   5 * time.Second,
		EnableFallback: true,
	}
}

// providerMetrics holds OTEL metric instruments.
type providerMetrics struct {
	messagesReceived metric.Int64Counter
	tickerUpdates    metric.Int64Counter
	parseErrors      metric.Int64Counter
	fallbackFetches  metric.Int64Counter
}

// Provider serves quotes from a local cache fed by bookTicker streams,
// falling back to REST when the stream goes quiet.
type Provider struct {
	config ProviderConfig
	logger logger.LoggerInterface

	conn   *wsconn.Client
	connMu sync.RWMutex

	httpClient *HTTPClient // nil when fallback disabled

	// Latest top of book per venue symbol ("BTCUSDT").
	cache   map[string]*cachedQuote
	cacheMu sync.RWMutex

	// Venue symbol -> domain symbol for the configured set.
	symbols map[string]domain.Symbol

	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a Binance quote provider. Connect must be called
// before quotes flow.
func NewProvider(cfg ProviderConfig, log logger.LoggerInterface) (*Provider, error) {
	if len(cfg.Symbols) == 0 {
		return nil, apperror.Structural(apperror.CodeConfigurationError,
			"binance provider needs at least one symbol")
	}

	var httpClient *HTTPClient
	if cfg.EnableFallback {
		var err error
		httpClient, err = NewHTTPClient(HTTPClientConfig{BaseURL: cfg.HTTPURL}, log)
		if err != nil {
			log.Warn(context.Background(), "failed to create HTTP fallback client", "error", err)
			// Continue without HTTP fallback
		}
	}

	p := &Provider{
		config:     cfg,
		logger:     log,
		httpClient: httpClient,
		cache:      make(map[string]*cachedQuote, len(cfg.Symbols)),
		symbols:    make(map[string]domain.Symbol, len(cfg.Symbols)),
		tracer:     otel.Tracer(tracerName),
	}
	for _, s := range cfg.Symbols {
		p.symbols[s.Base+s.Quote] = s
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return p, nil
}

func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	p.metrics = &providerMetrics{}

	var err error
	p.metrics.messagesReceived, err = meter.Int64Counter(
		"binance_messages_total",
		metric.WithDescription("Total stream messages received"),
	)
	if err != nil {
		return err
	}
	p.metrics.tickerUpdates, err = meter.Int64Counter(
		"binance_ticker_updates_total",
		metric.WithDescription("Book ticker updates applied"),
	)
	if err != nil {
		return err
	}
	p.metrics.parseErrors, err = meter.Int64Counter(
		"binance_parse_errors_total",
		metric.WithDescription("Message parse errors"),
	)
	if err != nil {
		return err
	}
	p.metrics.fallbackFetches, err = meter.Int64Counter(
		"binance_fallback_fetches_total",
		metric.WithDescription("REST fallback fetches"),
	)
	return err
}

// Name returns the venue identifier.
func (p *Provider) Name() string { return "binance" }

// Connect establishes the WebSocket connection. The combined stream URL
// auto-subscribes every configured symbol's bookTicker channel.
func (p *Provider) Connect(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "binance.connect",
		trace.WithAttributes(attribute.Int("symbols", len(p.symbols))),
	)
	defer span.End()

	wsURL, err := p.buildStreamURL()
	if err != nil {
		return err
	}

	wsCfg := wsconn.DefaultConfig(wsURL, "binance")
	conn, err := wsconn.New(wsCfg)
	if err != nil {
		return apperror.Transient(apperror.CodeVenueConnectionFailed,
			"failed to create wsconn", err)
	}
	conn.OnMessage(p.handleMessage)
	conn.OnStateChange(func(state wsconn.State, cause error) {
		if cause != nil {
			p.logger.Warn(context.Background(), "binance stream state change",
				"state", string(state), "error", cause)
			return
		}
		p.logger.Debug(context.Background(), "binance stream state change",
			"state", string(state))
	})

	if err := conn.Connect(ctx); err != nil {
		return apperror.Transient(apperror.CodeVenueConnectionFailed,
			"failed to connect to Binance", err)
	}

	p.connMu.Lock()
	p.conn = conn
	p.connMu.Unlock()

	p.logger.Info(ctx, "binance stream connected",
		"url", wsURL, "symbols", len(p.symbols))
	return nil
}

// buildStreamURL constructs the combined streams WebSocket URL.
func (p *Provider) buildStreamURL() (string, error) {
	base := p.config.WebSocketURL
	if base == "" {
		base = BaseWSURL
	}

	streams := make([]string, 0, len(p.symbols))
	for venueSym := range p.symbols {
		streams = append(streams, BookTickerStream(venueSym))
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = "/stream"
	u.RawQuery = "streams=" + strings.Join(streams, "/")
	return u.String(), nil
}

// handleMessage processes incoming WebSocket messages.
func (p *Provider) handleMessage(ctx context.Context, data []byte) {
	p.metrics.messagesReceived.Add(ctx, 1)

	var event StreamEvent
	if err := json.Unmarshal(data, &event); err != nil {
		// Might be a subscription response
		var resp WSResponse
		if json.Unmarshal(data, &resp) == nil {
			p.logger.Debug(ctx, "subscription response received")
			return
		}
		p.metrics.parseErrors.Add(ctx, 1)
		p.logger.Debug(ctx, "failed to parse message", "error", err)
		return
	}

	if !strings.HasSuffix(event.Stream, "@bookTicker") {
		return
	}
	var ticker BookTickerEvent
	if err := json.Unmarshal(event.Data, &ticker); err != nil {
		p.metrics.parseErrors.Add(ctx, 1)
		return
	}
	p.applyTicker(ctx, &ticker)
}

// applyTicker updates the quote cache from a stream or REST ticker.
func (p *Provider) applyTicker(ctx context.Context, event *BookTickerEvent) {
	if _, ok := p.symbols[event.Symbol]; !ok {
		return
	}

	bid, err := event.ParseBidPrice()
	if err != nil {
		p.metrics.parseErrors.Add(ctx, 1)
		p.logger.Debug(ctx, "failed to parse bid price", "symbol", event.Symbol, "error", err)
		return
	}
	ask, err := event.ParseAskPrice()
	if err != nil {
		p.metrics.parseErrors.Add(ctx, 1)
		return
	}
	bidQty, _ := event.ParseBidQty()
	askQty, _ := event.ParseAskQty()

	p.cacheMu.Lock()
	p.cache[event.Symbol] = &cachedQuote{
		bid:     bid,
		ask:     ask,
		bidQty:  bidQty,
		askQty:  askQty,
		updated: time.Now(),
	}
	p.cacheMu.Unlock()

	p.metrics.tickerUpdates.Add(ctx, 1, metric.WithAttributes(
		attribute.String("symbol", event.Symbol),
	))
}

// FetchQuotes serves the requested symbols from the stream cache. Symbols
// whose cache entry is stale or missing go through the REST fallback in one
// batched call.
func (p *Provider) FetchQuotes(ctx context.Context, symbols []domain.Symbol) ([]domain.Quote, error) {
	ctx, span := p.tracer.Start(ctx, "binance.fetch_quotes",
		trace.WithAttributes(attribute.Int("symbols", len(symbols))),
	)
	defer span.End()

	wanted := p.requestedVenueSymbols(symbols)
	now := time.Now()

	quotes := make([]domain.Quote, 0, len(wanted))
	var missing []string

	p.cacheMu.RLock()
	for _, venueSym := range wanted {
		cq, ok := p.cache[venueSym]
		if !ok || now.Sub(cq.updated) > p.config.StaleTimeout {
			missing = append(missing, venueSym)
			continue
		}
		quotes = append(quotes, p.toQuote(venueSym, cq))
	}
	p.cacheMu.RUnlock()

	if len(missing) > 0 && p.httpClient != nil {
		fetched, err := p.fetchViaHTTP(ctx, missing)
		if err != nil {
			// Stream quotes still count; the stale ones are just absent.
			p.logger.Warn(ctx, "REST fallback failed", "symbols", missing, "error", err)
		} else {
			quotes = append(quotes, fetched...)
		}
	}

	span.SetAttributes(
		attribute.Int("quotes", len(quotes)),
		attribute.Int("fallback", len(missing)),
	)
	return quotes, nil
}

// fetchViaHTTP fetches book tickers via REST and refreshes the cache.
func (p *Provider) fetchViaHTTP(ctx context.Context, venueSymbols []string) ([]domain.Quote, error) {
	p.metrics.fallbackFetches.Add(ctx, 1)
	p.logger.Debug(ctx, "stream data stale, using REST fallback", "symbols", venueSymbols)

	tickers, err := p.httpClient.GetBookTickers(ctx, venueSymbols)
	if err != nil {
		return nil, err
	}

	quotes := make([]domain.Quote, 0, len(tickers))
	for i := range tickers {
		event := tickers[i].ToEvent()
		p.applyTicker(ctx, event)

		p.cacheMu.RLock()
		cq, ok := p.cache[event.Symbol]
		p.cacheMu.RUnlock()
		if ok {
			quotes = append(quotes, p.toQuote(event.Symbol, cq))
		}
	}
	return quotes, nil
}

func (p *Provider) toQuote(venueSym string, cq *cachedQuote) domain.Quote {
	return domain.Quote{
		Venue:     "binance",
		Symbol:    p.symbols[venueSym],
		Bid:       cq.bid,
		Ask:       cq.ask,
		BidQty:    cq.bidQty,
		AskQty:    cq.askQty,
		Timestamp: cq.updated,
	}
}

// requestedVenueSymbols intersects the request with the configured set.
// A nil request means every configured symbol.
func (p *Provider) requestedVenueSymbols(symbols []domain.Symbol) []string {
	if len(symbols) == 0 {
		out := make([]string, 0, len(p.symbols))
		for venueSym := range p.symbols {
			out = append(out, venueSym)
		}
		return out
	}
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		venueSym := s.Base + s.Quote
		if _, ok := p.symbols[venueSym]; ok {
			out = append(out, venueSym)
		}
	}
	return out
}

// IsConnected reports whether the stream is up.
func (p *Provider) IsConnected() bool {
	p.connMu.RLock()
	defer p.connMu.RUnlock()
	return p.conn != nil && p.conn.IsConnected()
}

// Close closes the stream connection.
func (p *Provider) Close() error {
	p.connMu.Lock()
	defer p.connMu.Unlock()
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
