// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// QuoteRow is one venue's top of book for a symbol.
type QuoteRow struct {
	Symbol string
	Venue  string
	Bid    decimal.Decimal
	Ask    decimal.Decimal
	Age    time.Duration
}

// QuotesComponent renders the cross-venue quote table.
type QuotesComponent struct {
	rows  []QuoteRow
	taken time.Time
}

// NewQuotesComponent creates a new quotes component.
func NewQuotesComponent() *QuotesComponent {
	return &QuotesComponent{}
}

// Update replaces the quote rows.
func (q *QuotesComponent) Update(rows []QuoteRow, taken time.Time) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Symbol != rows[j].Symbol {
			return rows[i].Symbol < rows[j].Symbol
		}
		return rows[i].Venue < rows[j].Venue
	})
	q.rows = rows
	q.taken = taken
}

// View renders the quotes component.
func (q *QuotesComponent) View() string {
	if len(q.rows) == 0 {
		return "Waiting for market data..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	staleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("MARKET QUOTES"))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  %-10s  %-8s  %14s  %14s  %8s\n",
		"Symbol", "Venue", "Bid", "Ask", "Age"))
	sb.WriteString(dimStyle.Render("  " + strings.Repeat("─", 60)))
	sb.WriteString("\n")

	lastSymbol := ""
	for _, row := range q.rows {
		symbol := row.Symbol
		if symbol == lastSymbol {
			symbol = ""
		} else {
			lastSymbol = row.Symbol
		}

		ageStr := row.Age.Round(100 * time.Millisecond).String()
		age := dimStyle.Render(fmt.Sprintf("%8s", ageStr))
		if row.Age > 3*time.Second {
			age = staleStyle.Render(fmt.Sprintf("%8s", ageStr))
		}

		sb.WriteString(fmt.Sprintf("  %-10s  %-8s  %14s  %14s  %s\n",
			symbol,
			row.Venue,
			row.Bid.StringFixed(4),
			row.Ask.StringFixed(4),
			age,
		))
	}

	return sb.String()
}
