package infra

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cex-arb/business/arbitrage/domain"
	"github.com/fd1az/cex-arb/internal/logger"
	"github.com/fd1az/cex-arb/internal/notify"
)

// TelegramAlerter sends notable opportunities and simulated trades to a
// Telegram chat. Opportunity alerts are filtered by a minimum net rate
// and throttled by a per-description cooldown so a persistent spread
// does not flood the chat.
type TelegramAlerter struct {
	notifier   *notify.Notifier
	minNetRate decimal.Decimal // fraction, e.g. 0.005 for 0.5%
	cooldown   time.Duration
	log        logger.LoggerInterface

	mu       sync.Mutex
	lastSent map[string]time.Time
	now      func() time.Time
}

// NewTelegramAlerter creates an alerter. minNetRate is a fraction and
// cooldown bounds repeat alerts for the same opportunity.
func NewTelegramAlerter(token, chatID string, minNetRate decimal.Decimal, cooldown time.Duration, log logger.LoggerInterface) *TelegramAlerter {
	sender := notify.NewTelegramSender(token, chatID)
	return &TelegramAlerter{
		notifier:   notify.NewNotifier([]notify.Sender{sender}, log),
		minNetRate: minNetRate,
		cooldown:   cooldown,
		log:        log.With("component", "telegram_alerter"),
		lastSent:   make(map[string]time.Time),
		now:        time.Now,
	}
}

// AlertOpportunity notifies about one opportunity if it clears the
// minimum rate and is not in cooldown. Delivery failures are logged,
// not propagated: alerting never blocks detection.
func (a *TelegramAlerter) AlertOpportunity(ctx context.Context, opp domain.Opportunity) {
	if opp.NetProfitRate().LessThan(a.minNetRate) {
		return
	}

	key := opp.Describe()
	now := a.now()

	a.mu.Lock()
	if last, ok := a.lastSent[key]; ok && now.Sub(last) < a.cooldown {
		a.mu.Unlock()
		return
	}
	a.lastSent[key] = now
	a.pruneLocked(now)
	a.mu.Unlock()

	title := fmt.Sprintf("Opportunity: %s", opp.Kind())
	message := fmt.Sprintf("%s\nnet %s%%", key,
		opp.NetProfitRate().Mul(decimal.NewFromInt(100)).Round(4))

	if err := a.notifier.Notify(ctx, title, message); err != nil {
		a.log.Warn(ctx, "opportunity alert failed", "error", err)
	}
}

// AlertTrade notifies about a simulated fill. No filtering: fills are
// rare enough to always report.
func (a *TelegramAlerter) AlertTrade(ctx context.Context, trade domain.TradeRecord, acct domain.AccountSnapshot) {
	title := "Simulated trade"
	message := fmt.Sprintf("%s %s\nqty %s profit %s\nbalance %s (%d trades today)",
		trade.Symbol, trade.Direction,
		trade.Quantity.StringFixed(6), trade.Profit.StringFixed(4),
		acct.Balance.StringFixed(2), acct.TradesToday)

	if err := a.notifier.Notify(ctx, title, message); err != nil {
		a.log.Warn(ctx, "trade alert failed", "error", err)
	}
}

// pruneLocked drops cooldown entries older than two cooldown periods.
// Caller holds mu.
func (a *TelegramAlerter) pruneLocked(now time.Time) {
	if len(a.lastSent) < 256 {
		return
	}
	cutoff := now.Add(-2 * a.cooldown)
	for k, t := range a.lastSent {
		if t.Before(cutoff) {
			delete(a.lastSent, k)
		}
	}
}
