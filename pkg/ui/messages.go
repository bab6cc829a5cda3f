package ui

import (
	"time"

	"github.com/fd1az/cex-arb/business/arbitrage/domain"
	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
)

// Message types for TUI updates

// OpportunitiesMsg is sent after each detection round with the ranked set.
type OpportunitiesMsg struct {
	Opportunities []domain.Opportunity
}

// QuotesMsg is sent when a fresh market snapshot is taken.
type QuotesMsg struct {
	Snapshot *marketDomain.Snapshot
}

// TradeMsg is sent when the simulator executes a trade.
type TradeMsg struct {
	Trade   domain.TradeRecord
	Account domain.AccountSnapshot
}

// ConnectionStatusMsg is sent when a venue connection status changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // Current step name
	Status  string // "connecting", "connected", "failed"
	Message string // Optional message
}
