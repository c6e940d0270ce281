// Package ui provides the Bubble Tea TUI for the arbitrage engine.
package ui

import (
	"time"

	"github.com/fd1az/cycle-arb/business/arbitrage/domain"
)

// Message types for TUI updates

// OpportunityMsg is sent when an arbitrage cycle is detected.
type OpportunityMsg struct {
	Opportunity *domain.Opportunity
}

// QuotesMsg is sent with every fresh quote snapshot.
type QuotesMsg struct {
	Snapshot *domain.QuoteSnapshot
}

// ScanMsg summarizes one detection pass.
// All values are computed by the detector; the UI only displays them.
type ScanMsg struct {
	At       time.Time
	Duration time.Duration
	Outcome  string // "opportunity", "no_cycle", "insufficient_venues", "failed"
	Venues   int
	Edges    int
	Excluded []string
	Err      error

	// Best single-hop spread, empty BuyVenue when unavailable.
	BuyVenue  string
	SellVenue string
	SpreadBps float64
}

// ConnectionStatusMsg is sent when connection status changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // "config", "pricing", "detector"
	Status  string // "connecting", "connected", "failed"
	Message string
}
