package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cex-arb/business/marketdata/domain"
	"github.com/fd1az/cex-arb/internal/logger"
)

type fakeProvider struct {
	name   string
	quotes []domain.Quote
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FetchQuotes(ctx context.Context, symbols []domain.Symbol) ([]domain.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

func (f *fakeProvider) Close() error { return nil }

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func quoteAt(venue, symbol, bid, ask string, ts time.Time) domain.Quote {
	return domain.Quote{
		Venue:     venue,
		Symbol:    domain.MustParseSymbol(symbol),
		Bid:       decimal.RequireFromString(bid),
		Ask:       decimal.RequireFromString(ask),
		BidQty:    decimal.NewFromInt(1),
		AskQty:    decimal.NewFromInt(1),
		Timestamp: ts,
	}
}

func TestService_Snapshot_MergesVenues(t *testing.T) {
	now := time.Now()
	svc := NewService(5*time.Second, testLogger())
	svc.Register(&fakeProvider{
		name:   "bybit",
		quotes: []domain.Quote{quoteAt("bybit", "BTC/USDT", "64000", "64001", now)},
	}, 0)
	svc.Register(&fakeProvider{
		name:   "bitget",
		quotes: []domain.Quote{quoteAt("bitget", "BTC/USDT", "64010", "64011", now)},
	}, 0)

	snap, err := svc.Snapshot(context.Background(), []domain.Symbol{domain.MustParseSymbol("BTC/USDT")})
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if snap.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", snap.Size())
	}
	byVenue := snap.BySymbol(domain.MustParseSymbol("BTC/USDT"))
	if _, ok := byVenue["bybit"]; !ok {
		t.Error("missing bybit quote")
	}
	if _, ok := byVenue["bitget"]; !ok {
		t.Error("missing bitget quote")
	}
}

func TestService_Snapshot_SkipsFailingVenue(t *testing.T) {
	now := time.Now()
	svc := NewService(5*time.Second, testLogger())
	svc.Register(&fakeProvider{name: "bybit", err: errors.New("connection refused")}, 0)
	svc.Register(&fakeProvider{
		name:   "bitget",
		quotes: []domain.Quote{quoteAt("bitget", "ETH/USDT", "3400", "3401", now)},
	}, 0)

	snap, err := svc.Snapshot(context.Background(), []domain.Symbol{domain.MustParseSymbol("ETH/USDT")})
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	// The failing venue is skipped, the round proceeds with the rest.
	if snap.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", snap.Size())
	}
}

func TestService_Snapshot_DropsStaleAndInvalid(t *testing.T) {
	now := time.Now()
	svc := NewService(2*time.Second, testLogger())
	svc.Register(&fakeProvider{
		name: "bybit",
		quotes: []domain.Quote{
			quoteAt("bybit", "BTC/USDT", "64000", "64001", now),                // fresh
			quoteAt("bybit", "ETH/USDT", "3400", "3401", now.Add(-10*time.Second)), // stale
			quoteAt("bybit", "XRP/USDT", "0", "0.51", now),                     // invalid
		},
	}, 0)

	snap, err := svc.Snapshot(context.Background(), nil)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if snap.Size() != 1 {
		t.Fatalf("Size() = %d, want 1 (stale and invalid dropped)", snap.Size())
	}
	if snap.BySymbol(domain.MustParseSymbol("BTC/USDT")) == nil {
		t.Error("fresh quote should survive")
	}
}

func TestService_Snapshot_AllVenuesDown(t *testing.T) {
	svc := NewService(5*time.Second, testLogger())
	svc.Register(&fakeProvider{name: "bybit", err: errors.New("down")}, 0)
	svc.Register(&fakeProvider{name: "bitget", err: errors.New("down")}, 0)

	snap, err := svc.Snapshot(context.Background(), nil)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	// Empty snapshot is a normal outcome.
	if !snap.IsEmpty() {
		t.Errorf("expected empty snapshot, got %d quotes", snap.Size())
	}
}

func TestService_Snapshot_BreakerShortCircuitsAfterFailures(t *testing.T) {
	failing := &fakeProvider{name: "bybit", err: errors.New("down")}
	svc := NewService(5*time.Second, testLogger())
	svc.Register(failing, 0)

	// Five consecutive failures trip the breaker.
	for i := 0; i < 5; i++ {
		if _, err := svc.Snapshot(context.Background(), nil); err != nil {
			t.Fatalf("Snapshot() error: %v", err)
		}
	}
	callsBefore := failing.calls

	if _, err := svc.Snapshot(context.Background(), nil); err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if failing.calls != callsBefore {
		t.Errorf("breaker open: provider should not be called, calls went %d -> %d",
			callsBefore, failing.calls)
	}
}
