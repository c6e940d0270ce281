package domain

import (
	"fmt"
	"math"

	"github.com/fd1az/cycle-arb/internal/apperror"
)

// relaxTolerance absorbs float noise so that a cycle whose product is
// exactly 1 is not reported.
const relaxTolerance = 1e-12

// NoPredecessor marks a node never reached from the start node.
const NoPredecessor = -1

// Relaxation is the distance/predecessor table of one Bellman-Ford run.
// NegativeAt is the first node still relaxable after |V|-1 passes, or
// NoPredecessor when none is.
type Relaxation struct {
	Distance    []float64
	Predecessor []int
	NegativeAt  int
}

func relaxes(du, w, dv float64) bool {
	return du+w < dv-relaxTolerance
}

// Relax runs |V|-1 relaxation passes from start over the edges in row-major
// order, then one check pass. The first edge still relaxable in the check
// pass is applied so that NegativeAt's predecessor chain leads into the
// negative cycle.
func Relax(g *RateGraph, start int) (*Relaxation, error) {
	n := g.Len()
	if start < 0 || start >= n {
		return nil, apperror.New(apperror.CodeInvalidStartNode,
			apperror.WithMessage(fmt.Sprintf("start node %d outside [0,%d)", start, n)),
		)
	}

	r := &Relaxation{
		Distance:    make([]float64, n),
		Predecessor: make([]int, n),
		NegativeAt:  NoPredecessor,
	}
	for i := range r.Distance {
		r.Distance[i] = math.Inf(1)
		r.Predecessor[i] = NoPredecessor
	}
	r.Distance[start] = 0

	for pass := 0; pass < n-1; pass++ {
		for u := 0; u < n; u++ {
			du := r.Distance[u]
			if math.IsInf(du, 1) {
				continue
			}
			row := g.weights[u]
			for v := 0; v < n; v++ {
				if u == v {
					continue
				}
				if relaxes(du, row[v], r.Distance[v]) {
					r.Distance[v] = du + row[v]
					r.Predecessor[v] = u
				}
			}
		}
	}

	for u := 0; u < n; u++ {
		du := r.Distance[u]
		if math.IsInf(du, 1) {
			continue
		}
		for v := 0; v < n; v++ {
			if u == v {
				continue
			}
			if relaxes(du, g.weights[u][v], r.Distance[v]) {
				r.Distance[v] = du + g.weights[u][v]
				r.Predecessor[v] = u
				r.NegativeAt = v
				return r, nil
			}
		}
	}

	return r, nil
}

// FindNegativeCycle looks for one negative-weight cycle reachable from start.
// found is false when none exists; that is a normal outcome. Graphs with
// fewer than two nodes return immediately without relaxation.
func FindNegativeCycle(g *RateGraph, start int) (Cycle, bool, error) {
	if g.Len() < 2 {
		return Cycle{}, false, nil
	}

	r, err := Relax(g, start)
	if err != nil {
		return Cycle{}, false, err
	}
	if r.NegativeAt == NoPredecessor {
		return Cycle{}, false, nil
	}

	c, err := reconstructCycle(g, r.Predecessor, r.NegativeAt)
	if err != nil {
		return Cycle{}, false, err
	}
	return c, true, nil
}

// reconstructCycle walks predecessors from v until a node repeats. The
// segment from the first occurrence of the repeated node is the cycle in
// reverse; it is flipped into trading order and closed.
func reconstructCycle(g *RateGraph, pred []int, v int) (Cycle, error) {
	n := g.Len()
	pos := make([]int, n)
	for i := range pos {
		pos[i] = -1
	}

	path := make([]int, 0, n+1)
	cur := v
	for pos[cur] < 0 {
		pos[cur] = len(path)
		path = append(path, cur)
		cur = pred[cur]
		if cur == NoPredecessor {
			return Cycle{}, reconstructionFailed(fmt.Sprintf("predecessor chain from %s ends before closing", g.venues[v]))
		}
	}

	loop := path[pos[cur]:]
	if len(loop) < 2 {
		return Cycle{}, reconstructionFailed(fmt.Sprintf("degenerate loop at %s", g.venues[cur]))
	}

	venues := make([]VenueID, 0, len(loop)+1)
	for i := len(loop) - 1; i >= 0; i-- {
		venues = append(venues, g.venues[loop[i]])
	}
	venues = append(venues, venues[0])

	var total float64
	for i := len(loop) - 1; i > 0; i-- {
		total += g.weights[loop[i]][loop[i-1]]
	}
	total += g.weights[loop[0]][loop[len(loop)-1]]

	if !(total < 0) {
		return Cycle{}, reconstructionFailed(fmt.Sprintf("cycle weight %v is not negative", total))
	}

	return Cycle{Venues: venues, TotalWeight: total}, nil
}

func reconstructionFailed(msg string) error {
	return apperror.New(apperror.CodeCycleReconstructionFailed, apperror.WithMessage(msg))
}
