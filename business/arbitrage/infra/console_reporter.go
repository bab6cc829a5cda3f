// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fd1az/cex-arb/business/arbitrage/domain"
	marketDomain "github.com/fd1az/cex-arb/business/marketdata/domain"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{
		out: os.Stdout,
	}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "Arbitrage Detector Started")
	fmt.Fprintln(r.out, "==========================")
	return nil
}

// ReportOpportunities outputs the ranked opportunities of one round.
func (r *ConsoleReporter) ReportOpportunities(opps []domain.Opportunity) {
	if len(opps) == 0 {
		return
	}
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "OPPORTUNITIES (%d) at %s\n", len(opps), time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintln(r.out, "================================================================================")
	for i, opp := range opps {
		fmt.Fprintf(r.out, "%2d. [%s] %s\n", i+1, opp.Kind(), opp.Describe())
	}
	fmt.Fprintln(r.out, "================================================================================")
}

// ReportTrade outputs a simulated fill and the resulting account state.
func (r *ConsoleReporter) ReportTrade(trade domain.TradeRecord, acct domain.AccountSnapshot) {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "SIMULATED TRADE")
	fmt.Fprintf(r.out, "  Symbol:        %s\n", trade.Symbol)
	fmt.Fprintf(r.out, "  Direction:     %s\n", trade.Direction)
	fmt.Fprintf(r.out, "  Quantity:      %s\n", trade.Quantity.StringFixed(6))
	fmt.Fprintf(r.out, "  Buy / Sell:    %s / %s\n", trade.BuyPrice.StringFixed(4), trade.SellPrice.StringFixed(4))
	fmt.Fprintf(r.out, "  Fees:          %s\n", trade.Fees.StringFixed(4))
	fmt.Fprintf(r.out, "  Profit:        %s\n", trade.Profit.StringFixed(4))
	fmt.Fprintln(r.out, "  ---")
	fmt.Fprintf(r.out, "  Balance:       %s\n", acct.Balance.StringFixed(2))
	fmt.Fprintf(r.out, "  Daily P&L:     %s (%d trades today)\n", acct.DailyPnL.StringFixed(2), acct.TradesToday)
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
}

// UpdateQuotes outputs current quotes (no-op for console in detection mode).
func (r *ConsoleReporter) UpdateQuotes(snap *marketDomain.Snapshot) {
	// Console reporter only outputs opportunities and trades, not
	// continuous quote updates.
}

// UpdateConnectionStatus outputs connection status changes.
func (r *ConsoleReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	status := "disconnected"
	if connected {
		status = fmt.Sprintf("connected (%s)", latency)
	}
	fmt.Fprintf(r.out, "[%s] %s: %s\n", time.Now().Format("15:04:05"), name, status)
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Arbitrage Detector Stopped")
	return nil
}
