package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/fd1az/cycle-arb/internal/apperror"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func snapshot(quotes ...VenueQuote) *QuoteSnapshot {
	return NewQuoteSnapshot(testTime, quotes...)
}

func quote(venue string, rate, feePct, withdrawal float64) VenueQuote {
	return VenueQuote{Venue: VenueID(venue), Rate: rate, TradingFeePct: feePct, WithdrawalFee: withdrawal}
}

func TestBuildRateGraph_EdgeCount(t *testing.T) {
	tests := []struct {
		name   string
		quotes []VenueQuote
		want   int
	}{
		{
			name:   "two_venues",
			quotes: []VenueQuote{quote("A", 100, 0, 0), quote("B", 101, 0, 0)},
			want:   2,
		},
		{
			name: "three_venues_with_fees",
			quotes: []VenueQuote{
				quote("BITSTAMP", 100, 0.40, 0),
				quote("COINBASE", 101, 0.60, 0),
				quote("KRAKEN", 99, 0.26, 0),
			},
			want: 6,
		},
		{
			name: "five_venues",
			quotes: []VenueQuote{
				quote("A", 100, 0.1, 0.01), quote("B", 101, 0.1, 0.01), quote("C", 99, 0.1, 0.01),
				quote("D", 100.5, 0.1, 0.01), quote("E", 98, 0.1, 0.01),
			},
			want: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, rejected, err := BuildRateGraph(snapshot(tt.quotes...))
			if err != nil {
				t.Fatalf("BuildRateGraph() error = %v", err)
			}
			if len(rejected) != 0 {
				t.Errorf("rejected = %v, want none", rejected)
			}
			if g.EdgeCount() != tt.want {
				t.Errorf("EdgeCount() = %d, want %d", g.EdgeCount(), tt.want)
			}

			edges := g.Edges()
			if len(edges) != tt.want {
				t.Fatalf("len(Edges()) = %d, want %d", len(edges), tt.want)
			}
			seen := make(map[[2]int]bool)
			for _, e := range edges {
				if e.From == e.To {
					t.Errorf("self loop at %s", g.Venue(e.From))
				}
				key := [2]int{e.From, e.To}
				if seen[key] {
					t.Errorf("duplicate edge %v", key)
				}
				seen[key] = true
			}
			for i := 0; i < g.Len(); i++ {
				if _, ok := g.Weight(i, i); ok {
					t.Errorf("Weight(%d,%d) reported a self loop", i, i)
				}
			}
		})
	}
}

func TestEdgeWeight_Formula(t *testing.T) {
	tests := []struct {
		name       string
		src, dst   VenueQuote
		wantFactor float64
	}{
		{
			name:       "zero_fees_is_rate_ratio",
			src:        quote("A", 100, 0, 0),
			dst:        quote("B", 101, 0, 0),
			wantFactor: 1.01,
		},
		{
			// (1.01*0.98 - 1/100) * 101/100 = 0.9798 * 1.01
			name:       "fees_and_withdrawal",
			src:        quote("A", 100, 1, 1),
			dst:        quote("B", 101, 2, 0),
			wantFactor: 0.989598,
		},
		{
			// withdrawal on dst is ignored; only the source pays it
			name:       "destination_withdrawal_ignored",
			src:        quote("A", 200, 0, 0),
			dst:        quote("B", 100, 0, 50),
			wantFactor: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EdgeFactor(tt.src, tt.dst)
			if math.Abs(got-tt.wantFactor) > 1e-12 {
				t.Errorf("EdgeFactor() = %.15f, want %.15f", got, tt.wantFactor)
			}

			w, err := EdgeWeight(tt.src, tt.dst)
			if err != nil {
				t.Fatalf("EdgeWeight() error = %v", err)
			}
			if want := -math.Log(tt.wantFactor); math.Abs(w-want) > 1e-12 {
				t.Errorf("EdgeWeight() = %v, want %v", w, want)
			}
		})
	}
}

func TestBuildRateGraph_Asymmetric(t *testing.T) {
	g, _, err := BuildRateGraph(snapshot(quote("A", 100, 0.4, 0), quote("B", 101, 0.6, 0)))
	if err != nil {
		t.Fatalf("BuildRateGraph() error = %v", err)
	}

	ab, _ := g.Weight(0, 1)
	ba, _ := g.Weight(1, 0)
	if math.Abs(ab+ba) < 1e-9 {
		t.Errorf("weight(A->B)=%v is the negation of weight(B->A)=%v", ab, ba)
	}
}

func TestBuildRateGraph_ExcludesInvalidVenues(t *testing.T) {
	tests := []struct {
		name         string
		quotes       []VenueQuote
		wantVenues   []VenueID
		wantRejected []VenueID
	}{
		{
			name:         "zero_rate",
			quotes:       []VenueQuote{quote("A", 100, 0, 0), quote("B", 0, 0, 0), quote("C", 99, 0, 0)},
			wantVenues:   []VenueID{"A", "C"},
			wantRejected: []VenueID{"B"},
		},
		{
			name:         "negative_rate_and_nan",
			quotes:       []VenueQuote{quote("A", -1, 0, 0), quote("B", math.NaN(), 0, 0), quote("C", 99, 0, 0), quote("D", 98, 0, 0)},
			wantVenues:   []VenueID{"C", "D"},
			wantRejected: []VenueID{"A", "B"},
		},
		{
			name:         "negative_fee",
			quotes:       []VenueQuote{quote("A", 100, -0.1, 0), quote("B", 101, 0, 0), quote("C", 99, 0, 0)},
			wantVenues:   []VenueID{"B", "C"},
			wantRejected: []VenueID{"A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, rejected, err := BuildRateGraph(snapshot(tt.quotes...))
			if err != nil {
				t.Fatalf("BuildRateGraph() error = %v", err)
			}

			if got := g.Venues(); !equalVenues(got, tt.wantVenues) {
				t.Errorf("venues = %v, want %v", got, tt.wantVenues)
			}
			if g.EdgeCount() != len(tt.wantVenues)*(len(tt.wantVenues)-1) {
				t.Errorf("EdgeCount() = %d", g.EdgeCount())
			}

			if len(rejected) != len(tt.wantRejected) {
				t.Fatalf("rejected = %v, want %v", rejected, tt.wantRejected)
			}
			for i, r := range rejected {
				if r.Venue != tt.wantRejected[i] {
					t.Errorf("rejected[%d] = %s, want %s", i, r.Venue, tt.wantRejected[i])
				}
				if apperror.GetCode(r.Err) != apperror.CodeInvalidVenueQuote {
					t.Errorf("rejected[%d] code = %s", i, apperror.GetCode(r.Err))
				}
			}

			for _, e := range g.Edges() {
				if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
					t.Errorf("edge %v has non-finite weight", e)
				}
			}
		})
	}
}

func TestBuildRateGraph_InvalidEdgeWeight(t *testing.T) {
	// withdrawal of 200 on a rate of 100 drives the fee factor below zero
	g, _, err := BuildRateGraph(snapshot(quote("A", 100, 0, 200), quote("B", 101, 0, 0)))
	if err == nil {
		t.Fatal("expected InvalidEdgeWeight")
	}
	if g != nil {
		t.Error("graph should be nil on failure")
	}
	if apperror.GetCode(err) != apperror.CodeInvalidEdgeWeight {
		t.Errorf("code = %s, want %s", apperror.GetCode(err), apperror.CodeInvalidEdgeWeight)
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Context != "A->B" {
		t.Errorf("error should name the pair A->B, got %v", err)
	}
}

func TestBuildRateGraph_TooFewVenues(t *testing.T) {
	tests := []struct {
		name   string
		quotes []VenueQuote
		want   int
	}{
		{name: "empty", want: 0},
		{name: "single_venue", quotes: []VenueQuote{quote("A", 100, 0, 0)}, want: 1},
		{name: "one_valid_one_invalid", quotes: []VenueQuote{quote("A", 100, 0, 0), quote("B", 0, 0, 0)}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, err := BuildRateGraph(snapshot(tt.quotes...))
			if err != nil {
				t.Fatalf("BuildRateGraph() error = %v", err)
			}
			if g.Len() != tt.want || g.EdgeCount() != 0 || len(g.Edges()) != 0 {
				t.Errorf("Len() = %d, EdgeCount() = %d", g.Len(), g.EdgeCount())
			}
		})
	}
}

func TestNewRateGraph_Validation(t *testing.T) {
	tests := []struct {
		name    string
		venues  []VenueID
		weights [][]float64
	}{
		{
			name:    "row_count_mismatch",
			venues:  []VenueID{"A", "B"},
			weights: [][]float64{{0, 1}},
		},
		{
			name:    "column_count_mismatch",
			venues:  []VenueID{"A", "B"},
			weights: [][]float64{{0, 1}, {1}},
		},
		{
			name:    "duplicate_venue",
			venues:  []VenueID{"A", "A"},
			weights: [][]float64{{0, 1}, {1, 0}},
		},
		{
			name:    "nan_weight",
			venues:  []VenueID{"A", "B"},
			weights: [][]float64{{0, math.NaN()}, {1, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRateGraph(tt.venues, tt.weights)
			if apperror.GetCode(err) != apperror.CodeInvalidGraph {
				t.Errorf("error = %v, want %s", err, apperror.CodeInvalidGraph)
			}
		})
	}
}

func equalVenues(a, b []VenueID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
