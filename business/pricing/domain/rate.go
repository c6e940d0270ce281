package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Rate sources.
const (
	SourceCoinAPI = "coinapi"
	SourceStatic  = "static"
	SourceCache   = "cache"
)

// VenueRate is one venue's price for a pair.
type VenueRate struct {
	Venue      string
	Pair       Pair
	Rate       decimal.Decimal
	ObservedAt time.Time
	Source     string
}

// Age returns how old the rate is at now.
func (r VenueRate) Age(now time.Time) time.Duration {
	return now.Sub(r.ObservedAt)
}

// RateSnapshot is the result of one fan-out over the configured venues.
// Venues that failed appear in Failures and not in Rates.
type RateSnapshot struct {
	Pair     Pair
	Rates    []VenueRate
	Failures map[string]error
	TakenAt  time.Time
}

// NewRateSnapshot sorts rates by venue.
func NewRateSnapshot(pair Pair, takenAt time.Time, rates []VenueRate, failures map[string]error) *RateSnapshot {
	sorted := make([]VenueRate, len(rates))
	copy(sorted, rates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Venue < sorted[j].Venue })

	if failures == nil {
		failures = map[string]error{}
	}
	return &RateSnapshot{
		Pair:     pair,
		Rates:    sorted,
		Failures: failures,
		TakenAt:  takenAt,
	}
}

// Rate returns the rate for venue.
func (s *RateSnapshot) Rate(venue string) (VenueRate, bool) {
	for _, r := range s.Rates {
		if r.Venue == venue {
			return r, true
		}
	}
	return VenueRate{}, false
}
