package infra

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/cycle-arb/business/arbitrage/app"
	"github.com/fd1az/cycle-arb/business/arbitrage/domain"
	"github.com/fd1az/cycle-arb/pkg/ui"
)

var _ app.Reporter = (*TUIReporter)(nil)

// TUIReporter implements Reporter by forwarding messages to the Bubble Tea
// program.
type TUIReporter struct {
	send func(tea.Msg)
}

// NewTUIReporter sends to the global ui program.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{send: ui.Send}
}

// Start marks the detector step as running.
func (r *TUIReporter) Start(ctx context.Context) error {
	r.send(ui.StartupMsg{Step: "detector", Status: "connected"})
	return nil
}

// Report sends an arbitrage opportunity to the TUI.
func (r *TUIReporter) Report(opp *domain.Opportunity) {
	r.send(ui.OpportunityMsg{Opportunity: opp})
}

// UpdateQuotes sends the latest quotes to the TUI.
func (r *TUIReporter) UpdateQuotes(snapshot *domain.QuoteSnapshot) {
	r.send(ui.QuotesMsg{Snapshot: snapshot})
}

// ReportScan flattens a scan summary into a ui.ScanMsg.
func (r *TUIReporter) ReportScan(s app.ScanSummary) {
	msg := ui.ScanMsg{
		At:       s.At,
		Duration: s.Duration,
		Outcome:  string(s.Outcome),
		Venues:   s.Venues,
		Edges:    s.Edges,
		Err:      s.Err,
	}
	for _, ex := range s.Excluded {
		msg.Excluded = append(msg.Excluded, string(ex.Venue))
	}
	if s.Spread != nil {
		msg.BuyVenue = string(s.Spread.BuyVenue)
		msg.SellVenue = string(s.Spread.SellVenue)
		msg.SpreadBps = s.Spread.BasisPoints.InexactFloat64()
	}
	r.send(msg)

	if s.Err != nil {
		r.send(ui.ErrorMsg{Error: s.Err})
	}
}

// UpdateConnectionStatus sends connection status to the TUI.
func (r *TUIReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.send(ui.ConnectionStatusMsg{Name: name, Connected: connected, Latency: latency})
}

// Stop is a no-op; the program is owned by main.
func (r *TUIReporter) Stop() error {
	return nil
}
