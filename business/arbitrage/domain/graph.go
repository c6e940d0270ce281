package domain

import (
	"fmt"
	"math"

	"github.com/fd1az/cycle-arb/internal/apperror"
)

// RateGraph is a complete directed graph over the valid venues of one
// snapshot. Venues are addressed by a stable index for the graph's lifetime
// and weights live in a dense matrix; the diagonal is unused.
type RateGraph struct {
	venues  []VenueID
	index   map[VenueID]int
	weights [][]float64
}

// Edge is one directed, weighted edge between venue indexes.
type Edge struct {
	From   int
	To     int
	Weight float64
}

// BuildRateGraph drops invalid quotes and builds the graph over the rest.
// Fewer than two valid venues yields an edgeless graph and no error.
// A non-positive or non-finite edge factor aborts the build with
// InvalidEdgeWeight naming the pair.
func BuildRateGraph(s *QuoteSnapshot) (*RateGraph, []RejectedVenue, error) {
	var (
		valid    []VenueQuote
		rejected []RejectedVenue
	)
	for _, q := range s.Quotes() {
		if err := q.Validate(); err != nil {
			rejected = append(rejected, RejectedVenue{Venue: q.Venue, Err: err})
			continue
		}
		valid = append(valid, q)
	}

	n := len(valid)
	g := &RateGraph{
		venues:  make([]VenueID, n),
		index:   make(map[VenueID]int, n),
		weights: make([][]float64, n),
	}
	for i, q := range valid {
		g.venues[i] = q.Venue
		g.index[q.Venue] = i
		g.weights[i] = make([]float64, n)
	}

	for i, src := range valid {
		for j, dst := range valid {
			if i == j {
				continue
			}
			w, err := EdgeWeight(src, dst)
			if err != nil {
				return nil, rejected, err
			}
			g.weights[i][j] = w
		}
	}

	return g, rejected, nil
}

// EdgeFactor is the fee-adjusted multiplier for moving value from src to dst:
// (dst.rate/src.rate) * ((1+src.fee/100)*(1-dst.fee/100) - src.withdrawal/src.rate).
// The withdrawal fee is charged once per edge.
func EdgeFactor(src, dst VenueQuote) float64 {
	ratio := dst.Rate / src.Rate
	fee := (1+src.TradingFeePct/100)*(1-dst.TradingFeePct/100) - src.WithdrawalFee/src.Rate
	return ratio * fee
}

// EdgeWeight returns -ln(EdgeFactor(src, dst)).
func EdgeWeight(src, dst VenueQuote) (float64, error) {
	f := EdgeFactor(src, dst)
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, apperror.New(apperror.CodeInvalidEdgeWeight,
			apperror.WithMessage(fmt.Sprintf("edge factor %v outside log domain", f)),
			apperror.WithContext(fmt.Sprintf("%s->%s", src.Venue, dst.Venue)),
		)
	}
	return -math.Log(f), nil
}

// NewRateGraph builds a graph from explicit weights. weights must be n×n with
// finite off-diagonal entries; venue ids must be unique.
func NewRateGraph(venues []VenueID, weights [][]float64) (*RateGraph, error) {
	n := len(venues)
	if len(weights) != n {
		return nil, invalidGraph(fmt.Sprintf("have %d weight rows for %d venues", len(weights), n))
	}

	g := &RateGraph{
		venues:  make([]VenueID, n),
		index:   make(map[VenueID]int, n),
		weights: make([][]float64, n),
	}
	for i, v := range venues {
		if _, dup := g.index[v]; dup {
			return nil, invalidGraph(fmt.Sprintf("duplicate venue %s", v))
		}
		if len(weights[i]) != n {
			return nil, invalidGraph(fmt.Sprintf("row %d has %d columns, want %d", i, len(weights[i]), n))
		}
		g.venues[i] = v
		g.index[v] = i
		g.weights[i] = make([]float64, n)
		for j, w := range weights[i] {
			if i == j {
				continue
			}
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, invalidGraph(fmt.Sprintf("weight %s->%s is not finite", v, venues[j]))
			}
			g.weights[i][j] = w
		}
	}
	return g, nil
}

func invalidGraph(msg string) error {
	return apperror.New(apperror.CodeInvalidGraph, apperror.WithMessage(msg))
}

// Len returns the number of nodes.
func (g *RateGraph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.venues)
}

// Venue returns the venue at index i.
func (g *RateGraph) Venue(i int) VenueID {
	return g.venues[i]
}

// Venues returns the venue ids in index order.
func (g *RateGraph) Venues() []VenueID {
	out := make([]VenueID, len(g.venues))
	copy(out, g.venues)
	return out
}

// Index returns the node index of a venue.
func (g *RateGraph) Index(id VenueID) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Weight returns the weight of edge from→to. ok is false for self-loops and
// out-of-range indexes.
func (g *RateGraph) Weight(from, to int) (float64, bool) {
	n := g.Len()
	if from == to || from < 0 || to < 0 || from >= n || to >= n {
		return 0, false
	}
	return g.weights[from][to], true
}

// EdgeCount is n*(n-1).
func (g *RateGraph) EdgeCount() int {
	n := g.Len()
	if n < 2 {
		return 0
	}
	return n * (n - 1)
}

// Edges lists every edge in row-major order, the order relaxation uses.
func (g *RateGraph) Edges() []Edge {
	edges := make([]Edge, 0, g.EdgeCount())
	for i := range g.weights {
		for j, w := range g.weights[i] {
			if i == j {
				continue
			}
			edges = append(edges, Edge{From: i, To: j, Weight: w})
		}
	}
	return edges
}
