package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// OpportunityRow represents a detected cycle in the list.
type OpportunityRow struct {
	Time       string
	Path       string
	Hops       int
	ReturnBps  decimal.Decimal
	PerUnit    decimal.Decimal
	Profitable bool
}

// OpportunitiesComponent renders the detected cycles, newest first.
type OpportunitiesComponent struct {
	rows    []OpportunityRow
	maxRows int
	visible int
	offset  int
}

// NewOpportunitiesComponent keeps up to maxRows cycles and shows visible of them.
func NewOpportunitiesComponent(maxRows, visible int) *OpportunitiesComponent {
	return &OpportunitiesComponent{
		rows:    make([]OpportunityRow, 0),
		maxRows: maxRows,
		visible: visible,
	}
}

// Add adds a new opportunity to the list.
func (o *OpportunitiesComponent) Add(row OpportunityRow) {
	o.rows = append([]OpportunityRow{row}, o.rows...)
	if len(o.rows) > o.maxRows {
		o.rows = o.rows[:o.maxRows]
	}
}

// Len returns the number of stored rows.
func (o *OpportunitiesComponent) Len() int {
	return len(o.rows)
}

// Clear clears all opportunities.
func (o *OpportunitiesComponent) Clear() {
	o.rows = make([]OpportunityRow, 0)
	o.offset = 0
}

// ScrollUp moves the window towards newer rows.
func (o *OpportunitiesComponent) ScrollUp() {
	if o.offset > 0 {
		o.offset--
	}
}

// ScrollDown moves the window towards older rows.
func (o *OpportunitiesComponent) ScrollDown() {
	if o.offset+o.visible < len(o.rows) {
		o.offset++
	}
}

// View renders the opportunities component.
func (o *OpportunitiesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	if len(o.rows) == 0 {
		return headerStyle.Render("CYCLES") + "\n\nNo cycles detected yet..."
	}

	profitableStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	end := o.offset + o.visible
	if end > len(o.rows) {
		end = len(o.rows)
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("CYCLES (%d-%d of %d)", o.offset+1, end, len(o.rows))))
	b.WriteString("\n\n")

	for _, row := range o.rows[o.offset:end] {
		icon := "✗"
		style := dimStyle
		if row.Profitable {
			icon = "✓"
			style = profitableStyle
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			dimStyle.Render(row.Time),
			style.Render(icon),
			row.Path,
		))
		b.WriteString(dimStyle.Render(fmt.Sprintf("      %d hops  %+.2f bps  %s per unit",
			row.Hops,
			row.ReturnBps.InexactFloat64(),
			row.PerUnit.StringFixed(4),
		)))
		b.WriteString("\n")
	}

	return b.String()
}
