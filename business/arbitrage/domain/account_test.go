package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
)

func TestNewAccount(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	acct := NewAccount(decimal.RequireFromString("1000"), now)

	if !acct.Balance.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("Balance = %s, want 1000", acct.Balance)
	}
	if acct.TradesToday != 0 {
		t.Errorf("TradesToday = %d, want 0", acct.TradesToday)
	}
	wantDay := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !acct.Day.Equal(wantDay) {
		t.Errorf("Day = %v, want %v", acct.Day, wantDay)
	}
}

func TestAccount_Apply(t *testing.T) {
	now := time.Now()
	acct := NewAccount(decimal.RequireFromString("1000"), now)

	trade := TradeRecord{
		Timestamp: now,
		Symbol:    marketDomain.MustParseSymbol("BTC/USDT"),
		Direction: "bybit->bitget",
		Quantity:  decimal.RequireFromString("0.001"),
		Profit:    decimal.RequireFromString("1.25"),
		Fees:      decimal.RequireFromString("0.12"),
	}
	booked := acct.Apply(trade)

	if !acct.Balance.Equal(decimal.RequireFromString("1001.25")) {
		t.Errorf("Balance = %s, want 1001.25", acct.Balance)
	}
	if !booked.BalanceAfter.Equal(acct.Balance) {
		t.Errorf("BalanceAfter = %s, want %s", booked.BalanceAfter, acct.Balance)
	}
	if len(acct.History) != 1 {
		t.Fatalf("History length = %d, want 1", len(acct.History))
	}
	if !acct.History[0].BalanceAfter.Equal(acct.Balance) {
		t.Errorf("History BalanceAfter = %s, want %s", acct.History[0].BalanceAfter, acct.Balance)
	}
	if !acct.DailyPnL.Equal(trade.Profit) {
		t.Errorf("DailyPnL = %s, want %s", acct.DailyPnL, trade.Profit)
	}
	if !acct.TotalPnL.Equal(trade.Profit) {
		t.Errorf("TotalPnL = %s, want %s", acct.TotalPnL, trade.Profit)
	}
	if acct.TradesToday != 1 {
		t.Errorf("TradesToday = %d, want 1", acct.TradesToday)
	}
}

func TestAccount_RollDay(t *testing.T) {
	start := time.Date(2025, 6, 1, 23, 50, 0, 0, time.UTC)
	acct := NewAccount(decimal.RequireFromString("1000"), start)
	acct.Apply(TradeRecord{Profit: decimal.RequireFromString("5")})

	// Same UTC date: no rollover.
	if acct.RollDay(start.Add(5 * time.Minute)) {
		t.Error("RollDay within the same date should return false")
	}
	if acct.TradesToday != 1 {
		t.Errorf("TradesToday = %d, want 1", acct.TradesToday)
	}

	// Past UTC midnight: counters reset, totals survive.
	if !acct.RollDay(start.Add(20 * time.Minute)) {
		t.Error("RollDay across midnight should return true")
	}
	if acct.TradesToday != 0 {
		t.Errorf("TradesToday after rollover = %d, want 0", acct.TradesToday)
	}
	if !acct.DailyPnL.IsZero() {
		t.Errorf("DailyPnL after rollover = %s, want 0", acct.DailyPnL)
	}
	if !acct.TotalPnL.Equal(decimal.RequireFromString("5")) {
		t.Errorf("TotalPnL after rollover = %s, want 5", acct.TotalPnL)
	}
	if !acct.Balance.Equal(decimal.RequireFromString("1005")) {
		t.Errorf("Balance after rollover = %s, want 1005", acct.Balance)
	}
}

func TestAccount_RollDay_NonUTCWallClock(t *testing.T) {
	// 23:30 UTC-5 on June 1 is 04:30 UTC on June 2; rollover follows UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	acct := NewAccount(decimal.RequireFromString("1000"),
		time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	if !acct.RollDay(time.Date(2025, 6, 1, 23, 30, 0, 0, loc)) {
		t.Error("expected rollover: local date unchanged but UTC date advanced")
	}
}

func TestAccount_History(t *testing.T) {
	acct := NewAccount(decimal.RequireFromString("1000"), time.Now())
	for i := 1; i <= 3; i++ {
		acct.Apply(TradeRecord{Profit: decimal.NewFromInt(int64(i))})
	}

	// Rollover keeps the history: it is append-only across days.
	acct.RollDay(time.Now().Add(48 * time.Hour))
	if len(acct.History) != 3 {
		t.Fatalf("History length after rollover = %d, want 3", len(acct.History))
	}

	recent := acct.RecentHistory(2)
	if len(recent) != 2 {
		t.Fatalf("RecentHistory(2) length = %d, want 2", len(recent))
	}
	// Oldest first: the last two trades left balances 1003 and 1006.
	if !recent[0].BalanceAfter.Equal(decimal.RequireFromString("1003")) {
		t.Errorf("recent[0].BalanceAfter = %s, want 1003", recent[0].BalanceAfter)
	}
	if !recent[1].BalanceAfter.Equal(decimal.RequireFromString("1006")) {
		t.Errorf("recent[1].BalanceAfter = %s, want 1006", recent[1].BalanceAfter)
	}

	if got := len(acct.RecentHistory(0)); got != 3 {
		t.Errorf("RecentHistory(0) length = %d, want full history 3", got)
	}

	// RecentHistory is a copy, not a view.
	recent[0].Profit = decimal.NewFromInt(99)
	if acct.History[1].Profit.Equal(decimal.NewFromInt(99)) {
		t.Error("mutating the returned slice must not touch the account history")
	}
}

func TestAccount_SeedHistory(t *testing.T) {
	acct := NewAccount(decimal.RequireFromString("1000"), time.Now())
	acct.Apply(TradeRecord{Profit: decimal.NewFromInt(5)})

	seeded := []TradeRecord{
		{Profit: decimal.NewFromInt(1), BalanceAfter: decimal.RequireFromString("901")},
		{Profit: decimal.NewFromInt(2), BalanceAfter: decimal.RequireFromString("903")},
	}
	acct.SeedHistory(seeded)

	if len(acct.History) != 3 {
		t.Fatalf("History length = %d, want 3", len(acct.History))
	}
	// Seeded trades come first, the session's own trade stays last.
	if !acct.History[0].BalanceAfter.Equal(decimal.RequireFromString("901")) {
		t.Errorf("History[0].BalanceAfter = %s, want 901", acct.History[0].BalanceAfter)
	}
	if !acct.History[2].BalanceAfter.Equal(decimal.RequireFromString("1005")) {
		t.Errorf("History[2].BalanceAfter = %s, want 1005", acct.History[2].BalanceAfter)
	}
	// Seeding never touches balances or counters.
	if !acct.Balance.Equal(decimal.RequireFromString("1005")) {
		t.Errorf("Balance = %s, want 1005", acct.Balance)
	}
	if acct.TradesToday != 1 {
		t.Errorf("TradesToday = %d, want 1", acct.TradesToday)
	}
}

func TestAccount_Snapshot(t *testing.T) {
	acct := NewAccount(decimal.RequireFromString("1000"), time.Now())
	snap := acct.Snapshot()

	acct.Apply(TradeRecord{Profit: decimal.RequireFromString("10")})

	// The snapshot is a copy, not a view.
	if !snap.Balance.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("snapshot Balance = %s, want 1000", snap.Balance)
	}
	if snap.TradesToday != 0 {
		t.Errorf("snapshot TradesToday = %d, want 0", snap.TradesToday)
	}
}
