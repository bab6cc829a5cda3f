// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/cex-arb/business/arbitrage/domain"
	marketApp "github.com/fd1az/cex-arb/business/marketdata/app"
	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
	"github.com/fd1az/cex-arb/internal/apperror"
	"github.com/fd1az/cex-arb/internal/logger"
)

const (
	tracerName = "cex-arb/arbitrage"
	meterName  = "cex-arb/arbitrage"
)

// DetectorConfig holds the round loop settings.
type DetectorConfig struct {
	Symbols          []marketDomain.Symbol
	Interval         time.Duration
	RankThreshold    decimal.Decimal // fraction, strict >
	CyclesEnabled    bool
	SimulatorEnabled bool
}

// detectorMetrics holds OTEL metric instruments.
type detectorMetrics struct {
	rounds        metric.Int64Counter
	opportunities metric.Int64Counter
	trades        metric.Int64Counter
	roundDuration metric.Float64Histogram
}

// Stats aggregates session counters for reporting and shutdown logs.
type Stats struct {
	Rounds        uint64
	Opportunities uint64
	Trades        uint64
	StartedAt     time.Time
}

// Detector runs the detection round loop: snapshot, analyze, rank,
// simulate, report. Rounds are independent; a failed round never stops
// the loop.
type Detector struct {
	quotes    *marketApp.Service
	spread    *SpreadAnalyzer
	cycles    *CycleEngine
	simulator *Simulator
	config    DetectorConfig

	reporters []Reporter
	ledger    TradeLedger          // optional
	publisher OpportunityPublisher // optional
	alerter   Alerter              // optional

	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *detectorMetrics

	mu     sync.Mutex
	stats  Stats
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDetector creates the round loop orchestrator.
func NewDetector(
	quotes *marketApp.Service,
	spread *SpreadAnalyzer,
	cycles *CycleEngine,
	simulator *Simulator,
	config DetectorConfig,
	log logger.LoggerInterface,
) (*Detector, error) {
	d := &Detector{
		quotes:    quotes,
		spread:    spread,
		cycles:    cycles,
		simulator: simulator,
		config:    config,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
	if err := d.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return d, nil
}

func (d *Detector) initMetrics() error {
	meter := otel.Meter(meterName)
	d.metrics = &detectorMetrics{}

	var err error
	d.metrics.rounds, err = meter.Int64Counter(
		"arbitrage_rounds_total",
		metric.WithDescription("Detection rounds completed"),
	)
	if err != nil {
		return err
	}
	d.metrics.opportunities, err = meter.Int64Counter(
		"arbitrage_opportunities_total",
		metric.WithDescription("Opportunities above threshold"),
	)
	if err != nil {
		return err
	}
	d.metrics.trades, err = meter.Int64Counter(
		"arbitrage_simulated_trades_total",
		metric.WithDescription("Simulated trades executed"),
	)
	if err != nil {
		return err
	}
	d.metrics.roundDuration, err = meter.Float64Histogram(
		"arbitrage_round_duration_seconds",
		metric.WithDescription("Detection round duration"),
	)
	return err
}

// AddReporter registers a reporter. Must be called before Start.
func (d *Detector) AddReporter(r Reporter) {
	d.reporters = append(d.reporters, r)
}

// SetLedger wires the optional trade ledger.
func (d *Detector) SetLedger(l TradeLedger) { d.ledger = l }

// SetPublisher wires the optional opportunity publisher.
func (d *Detector) SetPublisher(p OpportunityPublisher) { d.publisher = p }

// SetAlerter wires the optional alerter.
func (d *Detector) SetAlerter(a Alerter) { d.alerter = a }

// Start begins the detection loop.
func (d *Detector) Start(ctx context.Context) error {
	d.logger.Info(ctx, "starting detector",
		"interval", d.config.Interval.String(),
		"symbols", len(d.config.Symbols),
		"cycles", d.config.CyclesEnabled,
		"simulator", d.config.SimulatorEnabled,
	)

	for _, r := range d.reporters {
		if err := r.Start(ctx); err != nil {
			return err
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.mu.Lock()
	d.stats.StartedAt = time.Now()
	d.mu.Unlock()

	go d.run(loopCtx)
	return nil
}

func (d *Detector) run(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.config.Interval)
	defer ticker.Stop()

	// First round immediately, then on the tick.
	d.round(ctx)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info(ctx, "detector stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			d.round(ctx)
		}
	}
}

func (d *Detector) round(ctx context.Context) {
	ctx, span := d.tracer.Start(ctx, "detection.round")
	defer span.End()
	started := time.Now()

	snap, err := d.quotes.Snapshot(ctx, d.config.Symbols)
	if err != nil {
		// Only context cancellation surfaces here; everything transient
		// was already skipped inside the snapshot.
		d.logger.Warn(ctx, "snapshot failed", "error", err)
		return
	}

	for _, r := range d.reporters {
		r.UpdateQuotes(snap)
	}
	d.reportVenueStatus(snap)

	if snap.IsEmpty() {
		d.logger.Debug(ctx, "empty snapshot, skipping round")
		d.finishRound(ctx, span, started, 0)
		return
	}

	opps := d.collect(ctx, snap)
	ranked := Rank(opps, d.config.RankThreshold)

	for _, r := range d.reporters {
		r.ReportOpportunities(ranked)
	}
	if d.publisher != nil && len(ranked) > 0 {
		if err := d.publisher.Publish(ctx, ranked); err != nil {
			d.logger.Warn(ctx, "publish failed", "error", err)
		}
	}
	if d.alerter != nil {
		for _, opp := range ranked {
			d.alerter.AlertOpportunity(ctx, opp)
		}
	}

	if d.config.SimulatorEnabled {
		d.simulate(ctx, ranked)
	}

	d.finishRound(ctx, span, started, len(ranked))
}

// reportVenueStatus treats a venue's presence in the snapshot as the
// connectivity signal: a venue that contributed no quotes this round is
// down or degraded from the detector's point of view.
func (d *Detector) reportVenueStatus(snap *marketDomain.Snapshot) {
	seen := make(map[string]bool)
	for _, venue := range snap.Venues() {
		seen[venue] = true
	}
	for _, p := range d.quotes.Providers() {
		for _, r := range d.reporters {
			r.UpdateConnectionStatus(p.Name(), seen[p.Name()], 0)
		}
	}
}

// collect runs the spread analysis across venues and, when enabled, the
// cycle search per venue.
func (d *Detector) collect(ctx context.Context, snap *marketDomain.Snapshot) []domain.Opportunity {
	var opps []domain.Opportunity

	for _, spreadOpp := range d.spread.Analyze(snap) {
		opps = append(opps, spreadOpp)
	}

	if d.config.CyclesEnabled && d.cycles != nil {
		for _, venue := range snap.Venues() {
			graph := domain.NewGraph()
			for sym, q := range snap.ByVenue(venue) {
				graph.AddQuote(sym, q.Bid, q.Ask)
			}
			for _, cycleOpp := range d.cycles.Search(venue, graph, snap.Taken) {
				opps = append(opps, cycleOpp)
			}
		}
	}
	return opps
}

func (d *Detector) simulate(ctx context.Context, ranked []domain.Opportunity) {
	now := time.Now()
	for _, opp := range ranked {
		spreadOpp, ok := opp.(domain.SpreadOpportunity)
		if !ok {
			continue // cycles are report-only
		}
		trade, err := d.simulator.Execute(ctx, spreadOpp, now)
		if err != nil {
			if apperror.IsRejection(err) {
				d.logger.Debug(ctx, "trade rejected", "reason", err)
				if apperror.GetCode(err) == apperror.CodeDailyCapReached {
					return
				}
				continue
			}
			d.logger.Warn(ctx, "simulation failed", "error", err)
			continue
		}

		d.metrics.trades.Add(ctx, 1, metric.WithAttributes(
			attribute.String("symbol", trade.Symbol.String()),
		))
		d.mu.Lock()
		d.stats.Trades++
		d.mu.Unlock()

		acct := d.simulator.AccountSnapshot()
		for _, r := range d.reporters {
			r.ReportTrade(*trade, acct)
		}
		if d.ledger != nil {
			if err := d.ledger.SaveTrade(ctx, *trade); err != nil {
				d.logger.Warn(ctx, "ledger save failed", "error", err)
			}
		}
		if d.alerter != nil {
			d.alerter.AlertTrade(ctx, *trade, acct)
		}
	}
}

func (d *Detector) finishRound(ctx context.Context, span trace.Span, started time.Time, found int) {
	elapsed := time.Since(started)
	span.SetAttributes(attribute.Int("opportunities", found))
	d.metrics.rounds.Add(ctx, 1)
	if found > 0 {
		d.metrics.opportunities.Add(ctx, int64(found))
	}
	d.metrics.roundDuration.Record(ctx, elapsed.Seconds())

	d.mu.Lock()
	d.stats.Rounds++
	d.stats.Opportunities += uint64(found)
	d.mu.Unlock()
}

// Stats returns a copy of the session counters.
func (d *Detector) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Stop gracefully shuts down the detector.
func (d *Detector) Stop() error {
	d.logger.Info(context.Background(), "stopping detector")
	if d.cancel != nil {
		d.cancel()
		<-d.done
	}

	stats := d.Stats()
	d.logger.Info(context.Background(), "session summary",
		"rounds", stats.Rounds,
		"opportunities", stats.Opportunities,
		"trades", stats.Trades,
		"uptime", time.Since(stats.StartedAt).Round(time.Second).String(),
	)

	var firstErr error
	for _, r := range d.reporters {
		if err := r.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
