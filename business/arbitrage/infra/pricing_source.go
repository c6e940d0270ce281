// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"

	"github.com/fd1az/cycle-arb/business/arbitrage/app"
	"github.com/fd1az/cycle-arb/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/cycle-arb/business/pricing/domain"
	"github.com/fd1az/cycle-arb/internal/logger"
)

var _ app.QuoteSource = (*PricingQuoteSource)(nil)

// RateFetcher is the pricing context's fan-out.
type RateFetcher interface {
	FetchRates(ctx context.Context, pair pricingDomain.Pair) (*pricingDomain.RateSnapshot, error)
}

// VenueFees is a venue's fee schedule.
type VenueFees struct {
	TradingFeePct float64
	WithdrawalFee float64
}

// PricingQuoteSource turns pricing snapshots into quote snapshots by
// attaching each venue's fee schedule.
type PricingQuoteSource struct {
	fetcher RateFetcher
	pair    pricingDomain.Pair
	fees    map[string]VenueFees
	logger  logger.LoggerInterface
}

// NewPricingQuoteSource creates a new PricingQuoteSource.
func NewPricingQuoteSource(fetcher RateFetcher, pair pricingDomain.Pair, fees map[string]VenueFees, log logger.LoggerInterface) *PricingQuoteSource {
	return &PricingQuoteSource{
		fetcher: fetcher,
		pair:    pair,
		fees:    fees,
		logger:  log,
	}
}

// Snapshot implements app.QuoteSource. Venues that failed to quote are
// logged and left out.
func (s *PricingQuoteSource) Snapshot(ctx context.Context) (*domain.QuoteSnapshot, error) {
	rates, err := s.fetcher.FetchRates(ctx, s.pair)
	if err != nil {
		return nil, err
	}

	for venue, ferr := range rates.Failures {
		s.logger.Warn(ctx, "venue quote unavailable", "venue", venue, "error", ferr)
	}

	quotes := make([]domain.VenueQuote, 0, len(rates.Rates))
	for _, r := range rates.Rates {
		fees, ok := s.fees[r.Venue]
		if !ok {
			s.logger.Warn(ctx, "no fee schedule for venue, assuming zero fees", "venue", r.Venue)
		}
		quotes = append(quotes, domain.VenueQuote{
			Venue:         domain.VenueID(r.Venue),
			Rate:          r.Rate.InexactFloat64(),
			TradingFeePct: fees.TradingFeePct,
			WithdrawalFee: fees.WithdrawalFee,
			ObservedAt:    r.ObservedAt,
		})
	}

	return domain.NewQuoteSnapshot(rates.TakenAt, quotes...), nil
}
