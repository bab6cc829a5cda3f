// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cex-arb/business/arbitrage/domain"
	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
	"github.com/fd1az/cex-arb/internal/apperror"
	"github.com/fd1az/cex-arb/internal/logger"
)

// SimulatorConfig holds paper-trading parameters.
type SimulatorConfig struct {
	Slippage       decimal.Decimal // fraction applied against us on both legs
	MaxDailyTrades int
	MaxNotional    decimal.Decimal // quote currency per trade
}

// Simulator executes spread opportunities against a virtual account.
// Execute is the only writer of the account; concurrent readers get
// consistent copies through AccountSnapshot.
type Simulator struct {
	mu      sync.RWMutex
	account *domain.Account
	fees    *marketDomain.FeeTable
	cfg     SimulatorConfig
	logger  logger.LoggerInterface
}

// NewSimulator creates a Simulator with a fresh account.
func NewSimulator(initialBalance decimal.Decimal, fees *marketDomain.FeeTable, cfg SimulatorConfig, log logger.LoggerInterface) *Simulator {
	return &Simulator{
		account: domain.NewAccount(initialBalance, time.Now()),
		fees:    fees,
		cfg:     cfg,
		logger:  log,
	}
}

// Execute paper-trades one spread opportunity. Rejections come back as
// rejection-class errors and are normal control flow, not failures.
func (s *Simulator) Execute(ctx context.Context, opp domain.SpreadOpportunity, now time.Time) (*domain.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rolled := s.account.RollDay(now); rolled {
		s.logger.Info(ctx, "daily counters reset", "day", s.account.Day.Format("2006-01-02"))
	}

	if s.account.TradesToday >= s.cfg.MaxDailyTrades {
		return nil, apperror.Rejection(apperror.CodeDailyCapReached,
			fmt.Sprintf("%d trades today", s.account.TradesToday))
	}

	one := decimal.NewFromInt(1)
	actualBuy := opp.BuyPrice.Mul(one.Add(s.cfg.Slippage))
	actualSell := opp.SellPrice.Mul(one.Sub(s.cfg.Slippage))

	buyFee := actualBuy.Mul(s.fees.For(opp.BuyVenue).TakerBuy)
	sellFee := actualSell.Mul(s.fees.For(opp.SellVenue).TakerSell)
	cost := actualBuy.Add(buyFee)
	revenue := actualSell.Sub(sellFee)
	unitProfit := revenue.Sub(cost)

	if !unitProfit.IsPositive() {
		return nil, apperror.Rejection(apperror.CodeTradeRejected,
			fmt.Sprintf("%s %s unprofitable after slippage and fees", opp.Symbol, opp.Direction()))
	}

	qty := s.cfg.MaxNotional.Div(actualBuy)
	if opp.MaxQuantity.LessThan(qty) {
		qty = opp.MaxQuantity
	}
	if !qty.IsPositive() {
		return nil, apperror.Rejection(apperror.CodeTradeRejected,
			fmt.Sprintf("%s %s zero executable quantity", opp.Symbol, opp.Direction()))
	}

	trade := domain.TradeRecord{
		Timestamp: now,
		Symbol:    opp.Symbol,
		Direction: opp.Direction(),
		Quantity:  qty,
		BuyPrice:  actualBuy,
		SellPrice: actualSell,
		Profit:    unitProfit.Mul(qty),
		Fees:      buyFee.Add(sellFee).Mul(qty),
	}
	trade = s.account.Apply(trade)

	s.logger.Info(ctx, "simulated trade executed",
		"symbol", opp.Symbol.String(),
		"direction", trade.Direction,
		"qty", trade.Quantity.String(),
		"profit", trade.Profit.Round(6).String(),
		"balance", trade.BalanceAfter.Round(4).String(),
		"trades_today", s.account.TradesToday,
	)
	return &trade, nil
}

// AccountSnapshot returns a consistent copy of the account for reporting.
func (s *Simulator) AccountSnapshot() domain.AccountSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account.Snapshot()
}

// TradeHistory returns a copy of the most recent trades, oldest first.
// A non-positive limit returns the whole history.
func (s *Simulator) TradeHistory(limit int) []domain.TradeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account.RecentHistory(limit)
}

// SeedHistory loads trades persisted by an earlier session into the
// account history, oldest first. Call before trading starts.
func (s *Simulator) SeedHistory(trades []domain.TradeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account.SeedHistory(trades)
}
