// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// OpportunityRow represents an opportunity in the feed.
type OpportunityRow struct {
	Timestamp string
	Kind      string // "spread" or "cycle"
	Detail    string // direction or cycle path
	NetPct    decimal.Decimal
	Executed  bool
}

// OpportunitiesComponent renders the opportunity feed with scrolling.
type OpportunitiesComponent struct {
	rows    []OpportunityRow
	maxRows int
	offset  int
	visible int
}

// NewOpportunitiesComponent creates a new opportunities component.
func NewOpportunitiesComponent(maxRows int) *OpportunitiesComponent {
	return &OpportunitiesComponent{
		maxRows: maxRows,
		visible: 10,
	}
}

// Add prepends a new opportunity to the feed.
func (o *OpportunitiesComponent) Add(row OpportunityRow) {
	o.rows = append([]OpportunityRow{row}, o.rows...)
	if len(o.rows) > o.maxRows {
		o.rows = o.rows[:o.maxRows]
	}
}

// Clear drops all opportunities.
func (o *OpportunitiesComponent) Clear() {
	o.rows = nil
	o.offset = 0
}

// ScrollUp moves the view one row towards older entries.
func (o *OpportunitiesComponent) ScrollUp() {
	if o.offset+o.visible < len(o.rows) {
		o.offset++
	}
}

// ScrollDown moves the view one row towards the newest entries.
func (o *OpportunitiesComponent) ScrollDown() {
	if o.offset > 0 {
		o.offset--
	}
}

// View renders the opportunities component.
func (o *OpportunitiesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	positiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	tradeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("OPPORTUNITIES"))
	sb.WriteString("\n\n")

	if len(o.rows) == 0 {
		sb.WriteString(dimStyle.Render("  No opportunities detected yet..."))
		return sb.String()
	}

	end := o.offset + o.visible
	if end > len(o.rows) {
		end = len(o.rows)
	}

	for _, row := range o.rows[o.offset:end] {
		marker := " "
		if row.Executed {
			marker = tradeStyle.Render("»")
		}
		sb.WriteString(fmt.Sprintf(" %s %s  %-6s  %s  %s\n",
			marker,
			dimStyle.Render(row.Timestamp),
			row.Kind,
			positiveStyle.Render(fmt.Sprintf("%+7s%%", row.NetPct.StringFixed(4))),
			row.Detail,
		))
	}

	if o.offset > 0 || end < len(o.rows) {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  (%d-%d of %d)", o.offset+1, end, len(o.rows))))
		sb.WriteString("\n")
	}

	return sb.String()
}
