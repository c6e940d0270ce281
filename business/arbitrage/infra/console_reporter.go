package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fd1az/cycle-arb/business/arbitrage/app"
	"github.com/fd1az/cycle-arb/business/arbitrage/domain"
)

var _ app.Reporter = (*ConsoleReporter)(nil)

const rule = "================================================================================"

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter writes to w, or stdout when w is nil.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleReporter{out: w}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "Cycle Arbitrage Started")
	fmt.Fprintln(r.out, "=======================")
	return nil
}

// Report outputs an arbitrage opportunity to the console.
func (r *ConsoleReporter) Report(opp *domain.Opportunity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, "ARBITRAGE CYCLE DETECTED")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, "ID:             %s\n", opp.ID)
	fmt.Fprintf(r.out, "Timestamp:      %s\n", opp.DetectedAt.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Cycle:          %s\n", opp.Cycle.String())
	fmt.Fprintf(r.out, "Hops:           %d\n", opp.Cycle.Hops())
	fmt.Fprintf(r.out, "Total weight:   %.8f\n", opp.Cycle.TotalWeight)
	fmt.Fprintln(r.out, strings.Repeat("-", len(rule)))
	if opp.Profit != nil {
		fmt.Fprintln(r.out, "PROFIT")
		fmt.Fprintf(r.out, "  Multiplier:   %s\n", opp.Profit.Multiplier.StringFixed(8))
		fmt.Fprintf(r.out, "  Return:       %s bps\n", opp.Profit.ReturnBps.StringFixed(4))
		fmt.Fprintf(r.out, "  Per unit:     %s (start rate %.2f)\n", opp.Profit.PerUnit.StringFixed(6), opp.StartRate)
		fmt.Fprintf(r.out, "  Total:        %s for %s units\n", opp.Profit.Total.StringFixed(6), opp.TradeAmount.String())
		fmt.Fprintln(r.out, strings.Repeat("-", len(rule)))
	}
	fmt.Fprintln(r.out, "EXECUTION")
	for _, step := range opp.ExecutionSteps {
		fmt.Fprintf(r.out, "  %d. %s\n", step.Number, step.Description)
	}
	fmt.Fprintln(r.out, rule)
}

// UpdateQuotes prints the venue rates of a snapshot on one line.
func (r *ConsoleReporter) UpdateQuotes(snapshot *domain.QuoteSnapshot) {
	quotes := snapshot.Quotes()
	if len(quotes) == 0 {
		return
	}

	parts := make([]string, len(quotes))
	for i, q := range quotes {
		parts[i] = fmt.Sprintf("%s=%.2f", q.Venue, q.Rate)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%s] quotes %s\n", snapshot.TakenAt().Format("15:04:05"), strings.Join(parts, " "))
}

// ReportScan prints a one-line summary of a pass. Opportunities get the full
// block from Report instead.
func (r *ConsoleReporter) ReportScan(s app.ScanSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := s.At.Format("15:04:05")
	if s.Spread != nil {
		fmt.Fprintf(r.out, "[%s] spread buy %s @ %s, sell %s @ %s: %s (%s bps)\n",
			ts,
			s.Spread.BuyVenue, s.Spread.BuyRate.StringFixed(2),
			s.Spread.SellVenue, s.Spread.SellRate.StringFixed(2),
			s.Spread.Absolute.StringFixed(2), s.Spread.BasisPoints.StringFixed(2))
	}

	switch s.Outcome {
	case app.OutcomeNoCycle:
		fmt.Fprintf(r.out, "[%s] no arbitrage cycle (%d venues, %d edges, %s)\n", ts, s.Venues, s.Edges, s.Duration.Round(time.Microsecond))
	case app.OutcomeInsufficientVenues:
		fmt.Fprintf(r.out, "[%s] not enough venues to form a cycle (%d valid)\n", ts, s.Venues)
	case app.OutcomeFailed:
		fmt.Fprintf(r.out, "[%s] scan failed: %v\n", ts, s.Err)
	}

	for _, ex := range s.Excluded {
		fmt.Fprintf(r.out, "[%s]   excluded %s: %v\n", ts, ex.Venue, ex.Err)
	}
}

// UpdateConnectionStatus outputs connection status changes.
func (r *ConsoleReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	status := "disconnected"
	if connected {
		status = fmt.Sprintf("connected (%s)", latency)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%s] %s: %s\n", time.Now().Format("15:04:05"), name, status)
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Cycle Arbitrage Stopped")
	return nil
}
