// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"

	"github.com/fd1az/cycle-arb/business/pricing/domain"
)

// RateProvider fetches the current rate of a pair on one venue.
type RateProvider interface {
	Name() string
	GetRate(ctx context.Context, venue string, pair domain.Pair) (domain.VenueRate, error)
}

// RateCache keeps the latest rate per venue and pair.
type RateCache interface {
	Store(ctx context.Context, rate domain.VenueRate) error
	// Latest returns CACHE_MISS when nothing is stored.
	Latest(ctx context.Context, venue string, pair domain.Pair) (domain.VenueRate, error)
}
