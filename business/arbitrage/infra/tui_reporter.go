package infra

import (
	"context"
	"time"

	"github.com/fd1az/cex-arb/business/arbitrage/domain"
	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
	"github.com/fd1az/cex-arb/pkg/ui"
)

// TUIReporter implements Reporter by forwarding events to the Bubble Tea
// program. The program itself is owned by main; the reporter only sends
// messages into it.
type TUIReporter struct{}

// NewTUIReporter creates a new TUIReporter.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{}
}

// Start marks venue startup steps as in progress.
func (r *TUIReporter) Start(ctx context.Context) error {
	ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
	return nil
}

// ReportOpportunities sends the ranked opportunities of a round to the TUI.
func (r *TUIReporter) ReportOpportunities(opps []domain.Opportunity) {
	ui.Send(ui.OpportunitiesMsg{Opportunities: opps})
}

// ReportTrade sends a simulated fill and the account state to the TUI.
func (r *TUIReporter) ReportTrade(trade domain.TradeRecord, acct domain.AccountSnapshot) {
	ui.Send(ui.TradeMsg{Trade: trade, Account: acct})
}

// UpdateQuotes sends the latest market snapshot to the TUI.
func (r *TUIReporter) UpdateQuotes(snap *marketDomain.Snapshot) {
	ui.Send(ui.QuotesMsg{Snapshot: snap})
}

// UpdateConnectionStatus sends venue connection state to the TUI.
func (r *TUIReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	ui.Send(ui.ConnectionStatusMsg{Name: name, Connected: connected, Latency: latency})
	status := "connecting"
	if connected {
		status = "connected"
	}
	ui.Send(ui.StartupMsg{Step: name, Status: status})
}

// Stop is a no-op: main owns the program lifecycle.
func (r *TUIReporter) Stop() error {
	return nil
}
