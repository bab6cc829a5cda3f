// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// AccountView holds the virtual account figures for display.
type AccountView struct {
	Balance     decimal.Decimal
	DailyPnL    decimal.Decimal
	TotalPnL    decimal.Decimal
	TradesToday int
	DailyCap    int
}

// AccountComponent renders the paper-trading account panel.
type AccountComponent struct {
	account *AccountView
}

// NewAccountComponent creates a new account component.
func NewAccountComponent() *AccountComponent {
	return &AccountComponent{}
}

// Update replaces the account figures.
func (a *AccountComponent) Update(view AccountView) {
	a.account = &view
}

// View renders the account component.
func (a *AccountComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	positiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	negativeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("PAPER ACCOUNT"))
	sb.WriteString("\n\n")

	if a.account == nil {
		sb.WriteString(dimStyle.Render("  No trades yet"))
		return sb.String()
	}

	pnlStyle := func(v decimal.Decimal) lipgloss.Style {
		if v.IsNegative() {
			return negativeStyle
		}
		return positiveStyle
	}

	sb.WriteString(fmt.Sprintf("  Balance:      %s\n", a.account.Balance.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("  Daily P&L:    %s\n",
		pnlStyle(a.account.DailyPnL).Render(a.account.DailyPnL.StringFixed(2))))
	sb.WriteString(fmt.Sprintf("  Total P&L:    %s\n",
		pnlStyle(a.account.TotalPnL).Render(a.account.TotalPnL.StringFixed(2))))

	trades := fmt.Sprintf("%d/%d", a.account.TradesToday, a.account.DailyCap)
	if a.account.DailyCap > 0 && a.account.TradesToday >= a.account.DailyCap {
		sb.WriteString(fmt.Sprintf("  Trades today: %s %s\n",
			warnStyle.Render(trades), warnStyle.Render("(cap reached)")))
	} else {
		sb.WriteString(fmt.Sprintf("  Trades today: %s\n", trades))
	}

	return sb.String()
}
