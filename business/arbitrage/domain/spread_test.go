package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSummarizeSpread(t *testing.T) {
	tests := []struct {
		name         string
		quotes       []VenueQuote
		wantOK       bool
		wantBuy      VenueID
		wantSell     VenueID
		wantAbsolute string
		wantBPS      string
	}{
		{
			name: "three_exchanges",
			quotes: []VenueQuote{
				quote("BITSTAMP", 64210, 0.4, 0),
				quote("COINBASE", 64352, 0.6, 0),
				quote("KRAKEN", 64190, 0.26, 0),
			},
			wantOK:       true,
			wantBuy:      "KRAKEN",
			wantSell:     "COINBASE",
			wantAbsolute: "162",
			wantBPS:      "25", // 162/64190 * 10000 = 25.24
		},
		{
			name:         "one_percent",
			quotes:       []VenueQuote{quote("A", 100, 0, 0), quote("B", 101, 0, 0)},
			wantOK:       true,
			wantBuy:      "A",
			wantSell:     "B",
			wantAbsolute: "1",
			wantBPS:      "100",
		},
		{
			name:         "equal_rates_no_spread",
			quotes:       []VenueQuote{quote("A", 3400, 0, 0), quote("B", 3400, 0, 0)},
			wantOK:       true,
			wantBuy:      "A",
			wantSell:     "A",
			wantAbsolute: "0",
			wantBPS:      "0",
		},
		{
			name:         "invalid_venues_skipped",
			quotes:       []VenueQuote{quote("A", 0, 0, 0), quote("B", 3000, 0, 0), quote("C", 3300, 0, 0), quote("D", math.Inf(1), 0, 0)},
			wantOK:       true,
			wantBuy:      "B",
			wantSell:     "C",
			wantAbsolute: "300",
			wantBPS:      "1000",
		},
		{
			name:   "single_valid_venue",
			quotes: []VenueQuote{quote("A", 100, 0, 0), quote("B", -1, 0, 0)},
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SummarizeSpread(snapshot(tt.quotes...))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}

			if got.BuyVenue != tt.wantBuy || got.SellVenue != tt.wantSell {
				t.Errorf("buy/sell = %s/%s, want %s/%s", got.BuyVenue, got.SellVenue, tt.wantBuy, tt.wantSell)
			}
			if want := decimal.RequireFromString(tt.wantAbsolute); !got.Absolute.Equal(want) {
				t.Errorf("Absolute = %s, want %s", got.Absolute, want)
			}
			if want := decimal.RequireFromString(tt.wantBPS); !got.BasisPoints.Round(0).Equal(want) {
				t.Errorf("BasisPoints = %s, want %s", got.BasisPoints, want)
			}
		})
	}
}
