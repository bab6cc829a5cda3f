package infra

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cex-arb/business/arbitrage/domain"
	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
	"github.com/fd1az/cex-arb/internal/logger"
	"github.com/fd1az/cex-arb/internal/notify"
)

type recordingSender struct {
	mu     sync.Mutex
	titles []string
}

func (s *recordingSender) Send(ctx context.Context, title, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = append(s.titles, title)
	return nil
}

func (s *recordingSender) Name() string { return "recording" }

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.titles)
}

func newTestAlerter(minNetRate string, cooldown time.Duration, now time.Time) (*TelegramAlerter, *recordingSender) {
	log := logger.New(io.Discard, logger.LevelDebug, "test", nil)
	sender := &recordingSender{}
	a := &TelegramAlerter{
		notifier:   notify.NewNotifier([]notify.Sender{sender}, log),
		minNetRate: decimal.RequireFromString(minNetRate),
		cooldown:   cooldown,
		log:        log,
		lastSent:   make(map[string]time.Time),
		now:        func() time.Time { return now },
	}
	return a, sender
}

func alertOpp(rate string) domain.SpreadOpportunity {
	return domain.SpreadOpportunity{
		Timestamp:  time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		Symbol:     marketDomain.MustParseSymbol("BTC/USDT"),
		BuyVenue:   "bybit",
		SellVenue:  "bitget",
		BuyPrice:   decimal.RequireFromString("67000"),
		SellPrice:  decimal.RequireFromString("67200"),
		ProfitRate: decimal.RequireFromString(rate),
	}
}

func TestTelegramAlerter_MinRateFilter(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a, sender := newTestAlerter("0.005", time.Minute, now)
	ctx := context.Background()

	a.AlertOpportunity(ctx, alertOpp("0.001"))
	if got := sender.count(); got != 0 {
		t.Fatalf("below-threshold opportunity sent %d alerts, want 0", got)
	}

	a.AlertOpportunity(ctx, alertOpp("0.006"))
	if got := sender.count(); got != 1 {
		t.Fatalf("above-threshold opportunity sent %d alerts, want 1", got)
	}
}

func TestTelegramAlerter_Cooldown(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a, sender := newTestAlerter("0", time.Minute, now)
	ctx := context.Background()

	a.AlertOpportunity(ctx, alertOpp("0.006"))
	a.AlertOpportunity(ctx, alertOpp("0.006"))
	if got := sender.count(); got != 1 {
		t.Fatalf("repeat within cooldown sent %d alerts, want 1", got)
	}

	// A different opportunity is not throttled.
	a.AlertOpportunity(ctx, alertOpp("0.008"))
	if got := sender.count(); got != 2 {
		t.Fatalf("distinct opportunity sent %d alerts, want 2", got)
	}

	// After the cooldown the same opportunity alerts again.
	a.now = func() time.Time { return now.Add(2 * time.Minute) }
	a.AlertOpportunity(ctx, alertOpp("0.006"))
	if got := sender.count(); got != 3 {
		t.Fatalf("repeat after cooldown sent %d alerts, want 3", got)
	}
}

func TestTelegramAlerter_AlertTrade(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a, sender := newTestAlerter("0.005", time.Minute, now)

	trade := domain.TradeRecord{
		Timestamp: now,
		Symbol:    marketDomain.MustParseSymbol("BTC/USDT"),
		Direction: "bybit->bitget",
		Quantity:  decimal.RequireFromString("0.5"),
		Profit:    decimal.RequireFromString("8.99"),
	}
	acct := domain.AccountSnapshot{
		Balance:     decimal.RequireFromString("1008.99"),
		TradesToday: 1,
	}

	a.AlertTrade(context.Background(), trade, acct)
	if got := sender.count(); got != 1 {
		t.Fatalf("trade sent %d alerts, want 1", got)
	}
}
