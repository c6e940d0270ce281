package domain

import "github.com/shopspring/decimal"

// VenueSpread compares the cheapest and the richest venue of a snapshot:
// buy where the rate is lowest, sell where it is highest.
type VenueSpread struct {
	BuyVenue    VenueID
	BuyRate     decimal.Decimal
	SellVenue   VenueID
	SellRate    decimal.Decimal
	Absolute    decimal.Decimal // SellRate - BuyRate
	BasisPoints decimal.Decimal // Absolute / BuyRate * 10000
}

// SummarizeSpread scans the valid quotes of s. ok is false with fewer than
// two valid venues. Ties keep the venue that sorts first.
func SummarizeSpread(s *QuoteSnapshot) (VenueSpread, bool) {
	var (
		lo, hi VenueQuote
		count  int
	)
	for _, q := range s.Quotes() {
		if q.Validate() != nil {
			continue
		}
		if count == 0 || q.Rate < lo.Rate {
			lo = q
		}
		if count == 0 || q.Rate > hi.Rate {
			hi = q
		}
		count++
	}
	if count < 2 {
		return VenueSpread{}, false
	}

	buy := decimal.NewFromFloat(lo.Rate)
	sell := decimal.NewFromFloat(hi.Rate)
	absolute := sell.Sub(buy)

	return VenueSpread{
		BuyVenue:    lo.Venue,
		BuyRate:     buy,
		SellVenue:   hi.Venue,
		SellRate:    sell,
		Absolute:    absolute,
		BasisPoints: absolute.Div(buy).Mul(bpsFactor),
	}, true
}
