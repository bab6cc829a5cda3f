// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"
	"time"

	"github.com/fd1az/cex-arb/business/arbitrage/domain"
	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
)

// Reporter defines the interface for reporting detection results.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// ReportOpportunities delivers the ranked opportunities of one round.
	ReportOpportunities(opps []domain.Opportunity)

	// ReportTrade delivers a simulated fill and the account state after it.
	ReportTrade(trade domain.TradeRecord, acct domain.AccountSnapshot)

	// UpdateQuotes updates the current market display.
	UpdateQuotes(snap *marketDomain.Snapshot)

	// UpdateConnectionStatus updates a connection status display.
	UpdateConnectionStatus(name string, connected bool, latency time.Duration)

	// Stop gracefully shuts down the reporter.
	Stop() error
}

// TradeLedger persists simulated trades. Implementations must tolerate
// being nil-checked away: persistence is optional.
type TradeLedger interface {
	SaveTrade(ctx context.Context, trade domain.TradeRecord) error
	RecentTrades(ctx context.Context, limit int) ([]domain.TradeRecord, error)
	Close()
}

// OpportunityPublisher pushes ranked opportunities to downstream consumers.
type OpportunityPublisher interface {
	Publish(ctx context.Context, opps []domain.Opportunity) error
	Close() error
}

// Alerter sends out-of-band notifications for notable events.
type Alerter interface {
	AlertOpportunity(ctx context.Context, opp domain.Opportunity)
	AlertTrade(ctx context.Context, trade domain.TradeRecord, acct domain.AccountSnapshot)
}
