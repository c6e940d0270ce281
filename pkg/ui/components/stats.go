package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds scan statistics for display.
type Stats struct {
	Scans         int64
	Opportunities int64
	NoCycle       int64
	Insufficient  int64
	Failed        int64
	Excluded      int64
	LastScan      time.Duration
	totalScan     time.Duration
}

// Record adds one scan outcome.
func (s *Stats) Record(outcome string, excluded int, took time.Duration) {
	s.Scans++
	s.Excluded += int64(excluded)
	s.LastScan = took
	s.totalScan += took

	switch outcome {
	case "opportunity":
		s.Opportunities++
	case "no_cycle":
		s.NoCycle++
	case "insufficient_venues":
		s.Insufficient++
	default:
		s.Failed++
	}
}

// AvgScan returns the mean scan duration.
func (s *Stats) AvgScan() time.Duration {
	if s.Scans == 0 {
		return 0
	}
	return s.totalScan / time.Duration(s.Scans)
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Record forwards a scan outcome to the underlying stats.
func (s *StatsComponent) Record(outcome string, excluded int, took time.Duration) {
	s.stats.Record(outcome, excluded, took)
}

// Stats returns a copy of the current statistics.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	failed := valueStyle.Render(fmt.Sprintf("%d", s.stats.Failed))
	if s.stats.Failed > 0 {
		failed = errorStyle.Render(fmt.Sprintf("%d", s.stats.Failed))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Scans: %s  │  Cycles: %s  │  No cycle: %s  │  Too few venues: %s  │  Failed: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Scans)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Opportunities)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.NoCycle)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Insufficient)),
			failed,
		) +
		fmt.Sprintf("Last scan: %s  │  Avg scan: %s  │  Venues excluded: %s",
			valueStyle.Render(s.stats.LastScan.Round(time.Millisecond).String()),
			valueStyle.Render(s.stats.AvgScan().Round(time.Millisecond).String()),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Excluded)),
		)
}
