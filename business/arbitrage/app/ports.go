// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"
	"time"

	"github.com/fd1az/cycle-arb/business/arbitrage/domain"
)

// QuoteSource produces a fresh snapshot per polling cycle. Venues that failed
// to quote are simply absent from it.
type QuoteSource interface {
	Snapshot(ctx context.Context) (*domain.QuoteSnapshot, error)
}

// Reporter defines the interface for reporting arbitrage opportunities.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report sends an arbitrage opportunity to be displayed/logged.
	Report(opp *domain.Opportunity)

	// UpdateQuotes updates the current quote display.
	UpdateQuotes(snapshot *domain.QuoteSnapshot)

	// ReportScan publishes the outcome of one detection pass.
	ReportScan(summary ScanSummary)

	// UpdateConnectionStatus updates a connection status display.
	UpdateConnectionStatus(name string, connected bool, latency time.Duration)

	// Stop gracefully shuts down the reporter.
	Stop() error
}

// Executor places a single order on a venue. Calls are independent; there is
// no atomicity across the orders of one cycle.
type Executor interface {
	PlaceOrder(ctx context.Context, order domain.Order) error
}

// OpportunityStore journals detected opportunities.
type OpportunityStore interface {
	Save(ctx context.Context, opp *domain.Opportunity) error
}

// ScanSummary describes one detection pass.
type ScanSummary struct {
	At          time.Time
	Duration    time.Duration
	Outcome     Outcome
	Venues      int
	Edges       int
	Excluded    []domain.RejectedVenue
	Spread      *domain.VenueSpread
	Opportunity *domain.Opportunity
	Err         error
}
