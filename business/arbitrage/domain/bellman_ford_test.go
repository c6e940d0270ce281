package domain

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/fd1az/cycle-arb/internal/apperror"
)

func mustGraph(t testing.TB, venues []VenueID, weights [][]float64) *RateGraph {
	t.Helper()
	g, err := NewRateGraph(venues, weights)
	if err != nil {
		t.Fatalf("NewRateGraph() error = %v", err)
	}
	return g
}

func mustBuild(t testing.TB, quotes ...VenueQuote) *RateGraph {
	t.Helper()
	g, _, err := BuildRateGraph(snapshot(quotes...))
	if err != nil {
		t.Fatalf("BuildRateGraph() error = %v", err)
	}
	return g
}

func TestFindNegativeCycle_NoFalsePositives(t *testing.T) {
	tests := []struct {
		name   string
		quotes []VenueQuote
	}{
		{
			// 101/100 * 99/101 * 100/99 == 1: equality must not detect
			name:   "zero_fees_product_exactly_one",
			quotes: []VenueQuote{quote("A", 100, 0, 0), quote("B", 101, 0, 0), quote("C", 99, 0, 0)},
		},
		{
			// rate ratios telescope around any loop, so wider spreads still
			// multiply to 1 when fees are zero
			name:   "zero_fees_wider_spread",
			quotes: []VenueQuote{quote("A", 100, 0, 0), quote("B", 102, 0, 0), quote("C", 99, 0, 0)},
		},
		{
			name: "zero_fees_five_venues",
			quotes: []VenueQuote{
				quote("A", 100, 0, 0), quote("B", 101, 0, 0), quote("C", 99, 0, 0),
				quote("D", 100.5, 0, 0), quote("E", 98.25, 0, 0),
			},
		},
		{
			name:   "uniform_rates",
			quotes: []VenueQuote{quote("A", 100, 0, 0), quote("B", 100, 0, 0), quote("C", 100, 0, 0)},
		},
		{
			name: "exchange_fees",
			quotes: []VenueQuote{
				quote("BITSTAMP", 64210.5, 0.40, 0),
				quote("COINBASE", 64350.1, 0.60, 0),
				quote("KRAKEN", 64190.0, 0.26, 0),
			},
		},
		{
			name: "fees_and_withdrawals",
			quotes: []VenueQuote{
				quote("A", 100, 0.1, 0.5), quote("B", 110, 0.2, 0.1), quote("C", 90, 0.3, 0),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustBuild(t, tt.quotes...)
			for start := 0; start < g.Len(); start++ {
				c, found, err := FindNegativeCycle(g, start)
				if err != nil {
					t.Fatalf("start %d: FindNegativeCycle() error = %v", start, err)
				}
				if found {
					t.Errorf("start %d: unexpected cycle %s (weight %g)", start, c, c.TotalWeight)
				}
			}
		})
	}
}

func TestFindNegativeCycle_SingleVenue(t *testing.T) {
	g := mustBuild(t, quote("A", 100, 0, 0))

	// the start index is not even checked: nothing is relaxed
	for _, start := range []int{0, 7} {
		_, found, err := FindNegativeCycle(g, start)
		if err != nil || found {
			t.Errorf("start %d: found = %v, err = %v", start, found, err)
		}
	}

	empty := mustBuild(t)
	if _, found, err := FindNegativeCycle(empty, 0); err != nil || found {
		t.Errorf("empty graph: found = %v, err = %v", found, err)
	}
}

func TestFindNegativeCycle_Detects(t *testing.T) {
	tests := []struct {
		name       string
		venues     []VenueID
		weights    [][]float64
		start      int
		wantVenues []VenueID
		wantWeight float64
	}{
		{
			name:   "three_venue_loop",
			venues: []VenueID{"A", "B", "C"},
			weights: [][]float64{
				{0, -0.01, 0.05},
				{0.05, 0, -0.01},
				{-0.01, 0.05, 0},
			},
			start:      0,
			wantVenues: []VenueID{"C", "A", "B", "C"},
			wantWeight: -0.03,
		},
		{
			name:   "two_venue_loop",
			venues: []VenueID{"A", "B"},
			weights: [][]float64{
				{0, -0.02},
				{0.01, 0},
			},
			start:      0,
			wantVenues: []VenueID{"A", "B", "A"},
			wantWeight: -0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustGraph(t, tt.venues, tt.weights)

			c, found, err := FindNegativeCycle(g, tt.start)
			if err != nil {
				t.Fatalf("FindNegativeCycle() error = %v", err)
			}
			if !found {
				t.Fatal("expected a negative cycle")
			}
			if !reflect.DeepEqual(c.Venues, tt.wantVenues) {
				t.Errorf("Venues = %v, want %v", c.Venues, tt.wantVenues)
			}
			if math.Abs(c.TotalWeight-tt.wantWeight) > 1e-12 {
				t.Errorf("TotalWeight = %v, want %v", c.TotalWeight, tt.wantWeight)
			}
			if c.Multiplier() <= 1 {
				t.Errorf("Multiplier() = %v, want > 1", c.Multiplier())
			}
		})
	}
}

func TestFindNegativeCycle_AnyStartNode(t *testing.T) {
	// only B -> C -> D -> B is negative; A merely feeds into it
	venues := []VenueID{"A", "B", "C", "D"}
	weights := [][]float64{
		{0, 0.1, 0.1, 0.1},
		{0.1, 0, -0.01, 0.1},
		{0.1, 0.1, 0, -0.01},
		{0.1, -0.01, 0.1, 0},
	}
	g := mustGraph(t, venues, weights)

	for start := range venues {
		t.Run(string(venues[start]), func(t *testing.T) {
			c, found, err := FindNegativeCycle(g, start)
			if err != nil {
				t.Fatalf("FindNegativeCycle() error = %v", err)
			}
			if !found {
				t.Fatal("expected a negative cycle")
			}
			if !c.IsClosed() {
				t.Errorf("cycle %s is not closed", c)
			}
			if c.Hops() != 3 {
				t.Errorf("Hops() = %d, want 3", c.Hops())
			}
			for _, v := range c.Venues {
				if v == "A" {
					t.Errorf("cycle %s should not pass through A", c)
				}
			}
			if math.Abs(c.TotalWeight+0.03) > 1e-12 {
				t.Errorf("TotalWeight = %v, want -0.03", c.TotalWeight)
			}
		})
	}
}

func TestFindNegativeCycle_ClosureAndDistinct(t *testing.T) {
	// the -0.05 edges form a 4-loop and also make some 2-loops negative
	venues := []VenueID{"V0", "V1", "V2", "V3", "V4", "V5"}
	weights := make([][]float64, len(venues))
	for i := range weights {
		weights[i] = make([]float64, len(venues))
		for j := range weights[i] {
			if i != j {
				weights[i][j] = 0.02 + 0.001*float64((i*7+j*3)%5)
			}
		}
	}
	weights[1][4] = -0.05
	weights[4][2] = -0.05
	weights[2][5] = -0.05
	weights[5][1] = -0.05
	g := mustGraph(t, venues, weights)

	for start := range venues {
		c, found, err := FindNegativeCycle(g, start)
		if err != nil || !found {
			t.Fatalf("start %d: found = %v, err = %v", start, found, err)
		}
		if c.Venues[0] != c.Venues[len(c.Venues)-1] {
			t.Errorf("start %d: cycle %s does not close", start, c)
		}
		if !c.IsClosed() {
			t.Errorf("start %d: cycle %s repeats an intermediate venue", start, c)
		}
		if c.TotalWeight >= 0 {
			t.Errorf("start %d: TotalWeight = %v", start, c.TotalWeight)
		}

		var sum float64
		for _, leg := range c.Legs() {
			from, _ := g.Index(leg.From)
			to, _ := g.Index(leg.To)
			w, ok := g.Weight(from, to)
			if !ok {
				t.Fatalf("leg %v is not an edge", leg)
			}
			sum += w
		}
		if math.Abs(sum-c.TotalWeight) > 1e-12 {
			t.Errorf("start %d: legs sum to %v, TotalWeight %v", start, sum, c.TotalWeight)
		}
	}
}

func TestFindNegativeCycle_Idempotent(t *testing.T) {
	g := mustGraph(t, []VenueID{"A", "B", "C"}, [][]float64{
		{0, -0.01, 0.05},
		{0.05, 0, -0.01},
		{-0.01, 0.05, 0},
	})

	r1, err := Relax(g, 1)
	if err != nil {
		t.Fatalf("Relax() error = %v", err)
	}
	r2, err := Relax(g, 1)
	if err != nil {
		t.Fatalf("Relax() error = %v", err)
	}
	if !reflect.DeepEqual(r1, r2) {
		t.Errorf("relaxation differs between runs:\n%+v\n%+v", r1, r2)
	}

	c1, f1, _ := FindNegativeCycle(g, 1)
	c2, f2, _ := FindNegativeCycle(g, 1)
	if f1 != f2 || !reflect.DeepEqual(c1, c2) {
		t.Errorf("cycle differs between runs: %s vs %s", c1, c2)
	}
}

func TestRelax_Distances(t *testing.T) {
	g := mustBuild(t, quote("A", 100, 0, 0), quote("B", 101, 0, 0), quote("C", 99, 0, 0))

	r, err := Relax(g, 0)
	if err != nil {
		t.Fatalf("Relax() error = %v", err)
	}
	if r.NegativeAt != NoPredecessor {
		t.Errorf("NegativeAt = %d, want none", r.NegativeAt)
	}
	if r.Predecessor[0] != NoPredecessor {
		t.Errorf("start has predecessor %d", r.Predecessor[0])
	}

	// with zero fees every path A->v costs ln(100) - ln(rate_v)
	for i, rate := range []float64{100, 101, 99} {
		want := math.Log(100) - math.Log(rate)
		if math.Abs(r.Distance[i]-want) > 1e-12 {
			t.Errorf("Distance[%d] = %v, want %v", i, r.Distance[i], want)
		}
	}
}

func TestRelax_InvalidStart(t *testing.T) {
	g := mustBuild(t, quote("A", 100, 0, 0), quote("B", 101, 0, 0))

	for _, start := range []int{-1, 2, 10} {
		if _, err := Relax(g, start); apperror.GetCode(err) != apperror.CodeInvalidStartNode {
			t.Errorf("Relax(%d) error = %v", start, err)
		}
		if _, _, err := FindNegativeCycle(g, start); apperror.GetCode(err) != apperror.CodeInvalidStartNode {
			t.Errorf("FindNegativeCycle(%d) error = %v", start, err)
		}
	}
}

func BenchmarkBuildRateGraph(b *testing.B) {
	for _, n := range []int{3, 10, 30} {
		s := benchSnapshot(n)
		b.Run(benchName(n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, _, err := BuildRateGraph(s); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkFindNegativeCycle(b *testing.B) {
	for _, n := range []int{3, 10, 30} {
		g, _, err := BuildRateGraph(benchSnapshot(n))
		if err != nil {
			b.Fatal(err)
		}
		b.Run(benchName(n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, _, err := FindNegativeCycle(g, 0); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func benchSnapshot(n int) *QuoteSnapshot {
	quotes := make([]VenueQuote, n)
	for i := range quotes {
		quotes[i] = quote(benchName(i), 64000+float64(i*13%97), 0.1+0.05*float64(i%4), 0)
	}
	return snapshot(quotes...)
}

func benchName(n int) string {
	return fmt.Sprintf("venues_%02d", n)
}
