// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
)

// TradeRecord is one simulated fill.
type TradeRecord struct {
	Timestamp    time.Time
	Symbol       marketDomain.Symbol
	Direction    string // "buyVenue->sellVenue"
	Quantity     decimal.Decimal
	BuyPrice     decimal.Decimal // slippage-adjusted
	SellPrice    decimal.Decimal // slippage-adjusted
	Profit       decimal.Decimal
	Fees         decimal.Decimal
	BalanceAfter decimal.Decimal
}

// Account is the virtual paper-trading account.
// Single-writer: only the simulator mutates it. Everyone else reads
// through Snapshot copies.
type Account struct {
	Balance     decimal.Decimal
	DailyPnL    decimal.Decimal
	TotalPnL    decimal.Decimal
	TradesToday int
	Day         time.Time // UTC midnight of the current trading day
	StartedAt   time.Time
	History     []TradeRecord // append-only, oldest first
}

// AccountSnapshot is an immutable copy of the account for reporting.
type AccountSnapshot struct {
	Balance     decimal.Decimal
	DailyPnL    decimal.Decimal
	TotalPnL    decimal.Decimal
	TradesToday int
	Day         time.Time
	StartedAt   time.Time
}

// NewAccount creates an account with the given starting balance.
func NewAccount(initialBalance decimal.Decimal, now time.Time) *Account {
	return &Account{
		Balance:   initialBalance,
		Day:       utcMidnight(now),
		StartedAt: now,
	}
}

// RollDay resets the daily counters when the UTC date has changed.
// Returns true when a rollover happened.
func (a *Account) RollDay(now time.Time) bool {
	day := utcMidnight(now)
	if day.Equal(a.Day) {
		return false
	}
	a.Day = day
	a.TradesToday = 0
	a.DailyPnL = decimal.Zero
	return true
}

// Apply books a trade into the account, stamps the resulting balance on
// the record, and appends it to the history. Returns the completed record.
func (a *Account) Apply(t TradeRecord) TradeRecord {
	a.Balance = a.Balance.Add(t.Profit)
	a.DailyPnL = a.DailyPnL.Add(t.Profit)
	a.TotalPnL = a.TotalPnL.Add(t.Profit)
	a.TradesToday++
	t.BalanceAfter = a.Balance
	a.History = append(a.History, t)
	return t
}

// RecentHistory returns a copy of the last limit trades, oldest first.
// A non-positive limit returns the whole history.
func (a *Account) RecentHistory(limit int) []TradeRecord {
	n := len(a.History)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]TradeRecord, n)
	copy(out, a.History[len(a.History)-n:])
	return out
}

// SeedHistory prepends trades persisted by an earlier session, oldest
// first. Balances and daily counters are untouched: seeded trades were
// already booked when they happened.
func (a *Account) SeedHistory(trades []TradeRecord) {
	if len(trades) == 0 {
		return
	}
	a.History = append(append([]TradeRecord{}, trades...), a.History...)
}

// Snapshot returns a copy safe to hand to other goroutines.
func (a *Account) Snapshot() AccountSnapshot {
	return AccountSnapshot{
		Balance:     a.Balance,
		DailyPnL:    a.DailyPnL,
		TotalPnL:    a.TotalPnL,
		TradesToday: a.TradesToday,
		Day:         a.Day,
		StartedAt:   a.StartedAt,
	}
}

func utcMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
