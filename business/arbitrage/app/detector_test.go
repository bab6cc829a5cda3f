package app

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cex-arb/business/arbitrage/domain"
	marketApp "github.com/fd1az/cex-arb/business/marketdata/app"
	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
	"github.com/fd1az/cex-arb/internal/logger"
)

type stubProvider struct {
	name   string
	quotes []marketDomain.Quote
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) FetchQuotes(ctx context.Context, symbols []marketDomain.Symbol) ([]marketDomain.Quote, error) {
	return p.quotes, nil
}

func (p *stubProvider) Close() error { return nil }

type captureReporter struct {
	mu            sync.Mutex
	started       bool
	stopped       bool
	opportunities [][]domain.Opportunity
	trades        []domain.TradeRecord
	snapshots     int
	statuses      map[string]bool
}

func newCaptureReporter() *captureReporter {
	return &captureReporter{statuses: make(map[string]bool)}
}

func (r *captureReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	return nil
}

func (r *captureReporter) ReportOpportunities(opps []domain.Opportunity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opportunities = append(r.opportunities, opps)
}

func (r *captureReporter) ReportTrade(trade domain.TradeRecord, acct domain.AccountSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades = append(r.trades, trade)
}

func (r *captureReporter) UpdateQuotes(snap *marketDomain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots++
}

func (r *captureReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[name] = connected
}

func (r *captureReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return nil
}

func detectorLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

// detectorQuotes yields a 1% spread on BTC/USDT between the two venues.
func detectorQuotes(now time.Time) (bybit, bitget []marketDomain.Quote) {
	sym := marketDomain.MustParseSymbol("BTC/USDT")
	bybit = []marketDomain.Quote{{
		Venue: "bybit", Symbol: sym,
		Bid: decimal.RequireFromString("99.5"), Ask: decimal.RequireFromString("100"),
		BidQty: decimal.NewFromInt(10), AskQty: decimal.NewFromInt(10),
		Timestamp: now,
	}}
	bitget = []marketDomain.Quote{{
		Venue: "bitget", Symbol: sym,
		Bid: decimal.RequireFromString("101"), Ask: decimal.RequireFromString("101.5"),
		BidQty: decimal.NewFromInt(10), AskQty: decimal.NewFromInt(10),
		Timestamp: now,
	}}
	return bybit, bitget
}

func newTestDetector(t *testing.T, reporter *captureReporter, simEnabled bool) *Detector {
	t.Helper()
	now := time.Now()
	bybitQuotes, bitgetQuotes := detectorQuotes(now)

	quotes := marketApp.NewService(time.Minute, detectorLogger())
	quotes.Register(&stubProvider{name: "bybit", quotes: bybitQuotes}, 0)
	quotes.Register(&stubProvider{name: "bitget", quotes: bitgetQuotes}, 0)

	fees := marketDomain.NewFeeTable(marketDomain.Fees{
		TakerBuy:  decimal.Zero,
		TakerSell: decimal.Zero,
	}, nil)

	spread := NewSpreadAnalyzer(fees, decimal.RequireFromString("0.001"), decimal.NewFromInt(1000))
	simulator := NewSimulator(decimal.NewFromInt(1000), fees, SimulatorConfig{
		Slippage:       decimal.Zero,
		MaxDailyTrades: 20,
		MaxNotional:    decimal.NewFromInt(1000),
	}, detectorLogger())

	d, err := NewDetector(quotes, spread, nil, simulator, DetectorConfig{
		Symbols:          []marketDomain.Symbol{marketDomain.MustParseSymbol("BTC/USDT")},
		Interval:         time.Hour, // rounds driven manually
		RankThreshold:    decimal.RequireFromString("0.001"),
		CyclesEnabled:    false,
		SimulatorEnabled: simEnabled,
	}, detectorLogger())
	if err != nil {
		t.Fatalf("NewDetector() error: %v", err)
	}
	d.AddReporter(reporter)
	return d
}

func TestDetector_RoundFindsAndSimulates(t *testing.T) {
	reporter := newCaptureReporter()
	d := newTestDetector(t, reporter, true)

	d.round(context.Background())

	reporter.mu.Lock()
	defer reporter.mu.Unlock()

	if reporter.snapshots != 1 {
		t.Fatalf("snapshots = %d, want 1", reporter.snapshots)
	}
	if !reporter.statuses["bybit"] || !reporter.statuses["bitget"] {
		t.Errorf("statuses = %v, want both venues connected", reporter.statuses)
	}
	if len(reporter.opportunities) != 1 {
		t.Fatalf("opportunity reports = %d, want 1", len(reporter.opportunities))
	}

	// buy bybit@100, sell bitget@101: 1% net with zero fees
	opps := reporter.opportunities[0]
	if len(opps) != 1 {
		t.Fatalf("opportunities = %d, want 1", len(opps))
	}
	spreadOpp, ok := opps[0].(domain.SpreadOpportunity)
	if !ok {
		t.Fatalf("opportunity kind = %s, want spread", opps[0].Kind())
	}
	if spreadOpp.BuyVenue != "bybit" || spreadOpp.SellVenue != "bitget" {
		t.Errorf("direction = %s, want bybit->bitget", spreadOpp.Direction())
	}

	if len(reporter.trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(reporter.trades))
	}

	stats := d.Stats()
	if stats.Rounds != 1 || stats.Opportunities != 1 || stats.Trades != 1 {
		t.Errorf("stats = %+v, want 1 round, 1 opportunity, 1 trade", stats)
	}
}

func TestDetector_SimulatorDisabled(t *testing.T) {
	reporter := newCaptureReporter()
	d := newTestDetector(t, reporter, false)

	d.round(context.Background())

	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	if len(reporter.trades) != 0 {
		t.Fatalf("trades = %d, want 0 with simulator disabled", len(reporter.trades))
	}
	if len(reporter.opportunities) != 1 {
		t.Fatalf("opportunity reports = %d, want 1", len(reporter.opportunities))
	}
}

func TestDetector_StartStop(t *testing.T) {
	reporter := newCaptureReporter()
	d := newTestDetector(t, reporter, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := d.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	if !reporter.started {
		t.Error("reporter never started")
	}
	if !reporter.stopped {
		t.Error("reporter never stopped")
	}
	if d.Stats().Rounds == 0 {
		t.Error("no rounds ran before Stop")
	}
}
