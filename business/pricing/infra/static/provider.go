// Package static serves fixed venue rates from configuration. It backs demos
// and offline runs where no market data API is reachable.
package static

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cycle-arb/business/pricing/app"
	"github.com/fd1az/cycle-arb/business/pricing/domain"
	"github.com/fd1az/cycle-arb/internal/apperror"
)

var _ app.RateProvider = (*Provider)(nil)

// Provider returns the same rate for a venue on every call.
type Provider struct {
	rates map[string]decimal.Decimal
	now   func() time.Time
}

// NewProvider builds a provider from venue -> rate. Non-positive rates are
// rejected.
func NewProvider(rates map[string]float64) (*Provider, error) {
	p := &Provider{
		rates: make(map[string]decimal.Decimal, len(rates)),
		now:   time.Now,
	}
	for venue, r := range rates {
		d := decimal.NewFromFloat(r)
		if !d.IsPositive() {
			return nil, apperror.New(apperror.CodeInvalidRate,
				apperror.WithContext(venue))
		}
		p.rates[strings.ToUpper(venue)] = d
	}
	return p, nil
}

// Name implements app.RateProvider.
func (p *Provider) Name() string { return domain.SourceStatic }

// GetRate implements app.RateProvider. The pair is ignored.
func (p *Provider) GetRate(ctx context.Context, venue string, pair domain.Pair) (domain.VenueRate, error) {
	if err := ctx.Err(); err != nil {
		return domain.VenueRate{}, err
	}

	rate, ok := p.rates[strings.ToUpper(venue)]
	if !ok {
		return domain.VenueRate{}, apperror.New(apperror.CodeUnknownVenue,
			apperror.WithContext(venue))
	}

	return domain.VenueRate{
		Venue:      venue,
		Pair:       pair,
		Rate:       rate,
		ObservedAt: p.now(),
		Source:     domain.SourceStatic,
	}, nil
}
