// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// QuoteRow is one venue in the quote table.
type QuoteRow struct {
	Venue         string
	Rate          float64
	TradingFeePct float64
	WithdrawalFee float64
	Excluded      bool
}

// Spread is the best buy-low/sell-high pair of the latest snapshot.
type Spread struct {
	BuyVenue  string
	SellVenue string
	Bps       float64
}

// QuotesComponent renders the venue quote table.
type QuotesComponent struct {
	rows   []QuoteRow
	pair   string
	spread *Spread
}

// NewQuotesComponent creates a new quotes component.
func NewQuotesComponent(pair string) *QuotesComponent {
	return &QuotesComponent{pair: pair}
}

// Update replaces the quote rows.
func (q *QuotesComponent) Update(rows []QuoteRow) {
	q.rows = rows
}

// SetSpread sets the spread line; nil hides it.
func (q *QuotesComponent) SetSpread(s *Spread) {
	q.spread = s
}

// MarkExcluded flags venues dropped from the last graph build.
func (q *QuotesComponent) MarkExcluded(venues []string) {
	excluded := make(map[string]bool, len(venues))
	for _, v := range venues {
		excluded[v] = true
	}
	for i := range q.rows {
		q.rows[i].Excluded = excluded[q.rows[i].Venue]
	}
}

// View renders the quotes component.
func (q *QuotesComponent) View() string {
	if len(q.rows) == 0 {
		return "Waiting for quotes..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	positiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	negativeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("QUOTES (%s)", q.pair)))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  %-12s  %14s  %8s  %10s\n", "Venue", "Rate", "Fee", "Withdraw"))
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 50)) + "\n")

	for _, row := range q.rows {
		line := fmt.Sprintf("  %-12s  %14s  %8s  %10s",
			row.Venue,
			fmt.Sprintf("%.2f", row.Rate),
			fmt.Sprintf("%.2f%%", row.TradingFeePct),
			fmt.Sprintf("%.2f", row.WithdrawalFee),
		)
		if row.Excluded {
			line = negativeStyle.Render(line + "  excluded")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	if q.spread == nil {
		b.WriteString(dimStyle.Render("  Spread: n/a") + "\n")
		return b.String()
	}

	style := positiveStyle
	if q.spread.Bps <= 0 {
		style = dimStyle
	}
	b.WriteString(fmt.Sprintf("  Spread: buy %s, sell %s %s\n",
		q.spread.BuyVenue,
		q.spread.SellVenue,
		style.Render(fmt.Sprintf("%+.1f bps", q.spread.Bps)),
	))
	return b.String()
}
