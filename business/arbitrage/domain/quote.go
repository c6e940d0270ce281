// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fd1az/cycle-arb/internal/apperror"
)

// VenueID identifies a trading venue (exchange name).
type VenueID string

// VenueQuote is one venue's price for the pair plus its fee schedule.
// Rate is quote-currency per base unit, TradingFeePct is a percentage and
// WithdrawalFee is in quote-currency units.
type VenueQuote struct {
	Venue         VenueID
	Rate          float64
	TradingFeePct float64
	WithdrawalFee float64
	ObservedAt    time.Time
}

// Validate reports an InvalidVenueQuote error when the quote cannot enter
// the rate graph.
func (q VenueQuote) Validate() error {
	switch {
	case strings.TrimSpace(string(q.Venue)) == "":
		return invalidQuote(q.Venue, "empty venue id")
	case math.IsNaN(q.Rate) || math.IsInf(q.Rate, 0):
		return invalidQuote(q.Venue, fmt.Sprintf("rate is not finite: %v", q.Rate))
	case q.Rate <= 0:
		return invalidQuote(q.Venue, fmt.Sprintf("rate must be positive: %v", q.Rate))
	case math.IsNaN(q.TradingFeePct) || q.TradingFeePct < 0:
		return invalidQuote(q.Venue, fmt.Sprintf("trading fee must be non-negative: %v", q.TradingFeePct))
	case math.IsNaN(q.WithdrawalFee) || q.WithdrawalFee < 0:
		return invalidQuote(q.Venue, fmt.Sprintf("withdrawal fee must be non-negative: %v", q.WithdrawalFee))
	}
	return nil
}

func invalidQuote(venue VenueID, msg string) error {
	return apperror.New(apperror.CodeInvalidVenueQuote,
		apperror.WithMessage(msg),
		apperror.WithContext(string(venue)),
	)
}

// RejectedVenue is a venue dropped from a snapshot before graph build.
type RejectedVenue struct {
	Venue VenueID
	Err   error
}
