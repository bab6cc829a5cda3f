package app

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cex-arb/business/arbitrage/domain"
	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
	"github.com/fd1az/cex-arb/internal/apperror"
	"github.com/fd1az/cex-arb/internal/logger"
)

func simLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func simOpp(buy, sell, maxQty string) domain.SpreadOpportunity {
	return domain.SpreadOpportunity{
		Timestamp:   time.Now(),
		Symbol:      marketDomain.MustParseSymbol("BTC/USDT"),
		BuyVenue:    "bybit",
		SellVenue:   "bitget",
		BuyPrice:    decimal.RequireFromString(buy),
		SellPrice:   decimal.RequireFromString(sell),
		MaxQuantity: decimal.RequireFromString(maxQty),
	}
}

func newSimulator(slippage string, maxTrades int) *Simulator {
	return NewSimulator(
		decimal.RequireFromString("1000"),
		defaultFees("0.001"),
		SimulatorConfig{
			Slippage:       decimal.RequireFromString(slippage),
			MaxDailyTrades: maxTrades,
			MaxNotional:    decimal.RequireFromString("1000"),
		},
		simLogger(),
	)
}

func TestSimulator_Execute(t *testing.T) {
	sim := newSimulator("0", 20)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	trade, err := sim.Execute(context.Background(), simOpp("100", "102", "5"), now)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	// cost = 100*1.001 = 100.1, revenue = 102*0.999 = 101.898,
	// unit profit = 1.798, qty = min(1000/100, 5) = 5.
	if !trade.Quantity.Equal(decimal.RequireFromString("5")) {
		t.Errorf("Quantity = %s, want 5", trade.Quantity)
	}
	if !trade.Profit.Equal(decimal.RequireFromString("8.99")) {
		t.Errorf("Profit = %s, want 8.99", trade.Profit)
	}
	if !trade.Fees.Equal(decimal.RequireFromString("1.01")) {
		t.Errorf("Fees = %s, want 1.01", trade.Fees)
	}
	if !trade.BalanceAfter.Equal(decimal.RequireFromString("1008.99")) {
		t.Errorf("BalanceAfter = %s, want 1008.99", trade.BalanceAfter)
	}

	acct := sim.AccountSnapshot()
	if acct.TradesToday != 1 {
		t.Errorf("TradesToday = %d, want 1", acct.TradesToday)
	}
	if !acct.DailyPnL.Equal(decimal.RequireFromString("8.99")) {
		t.Errorf("DailyPnL = %s, want 8.99", acct.DailyPnL)
	}
}

func TestSimulator_RejectsUnprofitableTrade(t *testing.T) {
	sim := newSimulator("0", 20)
	now := time.Now()

	// Spread of 0.1% cannot cover 0.1% taker fees on both legs.
	_, err := sim.Execute(context.Background(), simOpp("100", "100.1", "5"), now)
	if !apperror.IsRejection(err) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if apperror.GetCode(err) != apperror.CodeTradeRejected {
		t.Errorf("code = %s, want %s", apperror.GetCode(err), apperror.CodeTradeRejected)
	}

	acct := sim.AccountSnapshot()
	if acct.TradesToday != 0 {
		t.Errorf("rejected trade must not count, TradesToday = %d", acct.TradesToday)
	}
	if !acct.Balance.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("rejected trade must not touch the balance, got %s", acct.Balance)
	}
}

func TestSimulator_SlippageKillsMarginalSpread(t *testing.T) {
	// 2% gross survives zero slippage but not 1% against each leg.
	opp := simOpp("100", "102", "5")

	if _, err := newSimulator("0", 20).Execute(context.Background(), opp, time.Now()); err != nil {
		t.Fatalf("zero slippage should execute: %v", err)
	}
	_, err := newSimulator("0.01", 20).Execute(context.Background(), opp, time.Now())
	if !apperror.IsRejection(err) {
		t.Fatalf("1%% slippage should reject, got %v", err)
	}
}

func TestSimulator_DailyCap(t *testing.T) {
	sim := newSimulator("0", 1)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	opp := simOpp("100", "102", "5")

	if _, err := sim.Execute(context.Background(), opp, now); err != nil {
		t.Fatalf("first trade: %v", err)
	}
	_, err := sim.Execute(context.Background(), opp, now.Add(time.Minute))
	if apperror.GetCode(err) != apperror.CodeDailyCapReached {
		t.Fatalf("second trade: code = %s, want %s", apperror.GetCode(err), apperror.CodeDailyCapReached)
	}

	// Past UTC midnight the cap resets.
	nextDay := time.Date(2026, 3, 11, 0, 0, 1, 0, time.UTC)
	trade, err := sim.Execute(context.Background(), opp, nextDay)
	if err != nil {
		t.Fatalf("trade after rollover: %v", err)
	}
	if trade == nil {
		t.Fatal("expected a trade after rollover")
	}

	acct := sim.AccountSnapshot()
	if acct.TradesToday != 1 {
		t.Errorf("TradesToday after rollover = %d, want 1", acct.TradesToday)
	}
	// Total PnL spans both days.
	if !acct.TotalPnL.Equal(decimal.RequireFromString("17.98")) {
		t.Errorf("TotalPnL = %s, want 17.98", acct.TotalPnL)
	}
	if !acct.DailyPnL.Equal(decimal.RequireFromString("8.99")) {
		t.Errorf("DailyPnL = %s, want 8.99", acct.DailyPnL)
	}
}

func TestSimulator_TradeHistory(t *testing.T) {
	sim := newSimulator("0", 20)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	opp := simOpp("100", "102", "5")

	if _, err := sim.Execute(context.Background(), opp, now); err != nil {
		t.Fatalf("first trade: %v", err)
	}
	if _, err := sim.Execute(context.Background(), opp, now.Add(time.Minute)); err != nil {
		t.Fatalf("second trade: %v", err)
	}

	history := sim.TradeHistory(0)
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	// Oldest first, each record stamped with the balance it produced.
	if !history[0].BalanceAfter.Equal(decimal.RequireFromString("1008.99")) {
		t.Errorf("history[0].BalanceAfter = %s, want 1008.99", history[0].BalanceAfter)
	}
	if !history[1].BalanceAfter.Equal(decimal.RequireFromString("1017.98")) {
		t.Errorf("history[1].BalanceAfter = %s, want 1017.98", history[1].BalanceAfter)
	}

	if got := len(sim.TradeHistory(1)); got != 1 {
		t.Errorf("TradeHistory(1) length = %d, want 1", got)
	}
}

func TestSimulator_SeedHistory(t *testing.T) {
	sim := newSimulator("0", 20)
	sim.SeedHistory([]domain.TradeRecord{
		{Direction: "bybit->bitget", Profit: decimal.NewFromInt(3), BalanceAfter: decimal.RequireFromString("997")},
	})

	if _, err := sim.Execute(context.Background(), simOpp("100", "102", "5"), time.Now()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	history := sim.TradeHistory(0)
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if !history[0].BalanceAfter.Equal(decimal.RequireFromString("997")) {
		t.Errorf("seeded record must stay first, got BalanceAfter %s", history[0].BalanceAfter)
	}

	// Seeded trades never count against the session.
	acct := sim.AccountSnapshot()
	if acct.TradesToday != 1 {
		t.Errorf("TradesToday = %d, want 1", acct.TradesToday)
	}
	if !acct.Balance.Equal(decimal.RequireFromString("1008.99")) {
		t.Errorf("Balance = %s, want 1008.99", acct.Balance)
	}
}

func TestSimulator_NotionalBindsQuantity(t *testing.T) {
	sim := newSimulator("0", 20)

	// Deep book: 1000 notional / 100 = 10 units caps the trade.
	trade, err := sim.Execute(context.Background(), simOpp("100", "102", "50"), time.Now())
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !trade.Quantity.Equal(decimal.RequireFromString("10")) {
		t.Errorf("Quantity = %s, want 10", trade.Quantity)
	}
}
