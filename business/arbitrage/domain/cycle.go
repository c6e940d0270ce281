package domain

import (
	"math"
	"strings"
)

// Cycle is a closed venue sequence: Venues[0] == Venues[len-1] and no
// intermediate venue repeats. TotalWeight is the sum of its edge weights.
type Cycle struct {
	Venues      []VenueID
	TotalWeight float64
}

// Leg is one hop of a cycle.
type Leg struct {
	From VenueID
	To   VenueID
}

// Hops returns the number of edges traversed.
func (c Cycle) Hops() int {
	if len(c.Venues) < 2 {
		return 0
	}
	return len(c.Venues) - 1
}

// Start returns the venue the loop begins and ends at.
func (c Cycle) Start() VenueID {
	if len(c.Venues) == 0 {
		return ""
	}
	return c.Venues[0]
}

// Multiplier is the compounded fee-adjusted rate around the loop,
// exp(-TotalWeight).
func (c Cycle) Multiplier() float64 {
	return math.Exp(-c.TotalWeight)
}

// Legs returns the hops in trading order.
func (c Cycle) Legs() []Leg {
	legs := make([]Leg, 0, c.Hops())
	for i := 0; i+1 < len(c.Venues); i++ {
		legs = append(legs, Leg{From: c.Venues[i], To: c.Venues[i+1]})
	}
	return legs
}

// IsClosed reports whether the sequence returns to its start without
// repeating an intermediate venue.
func (c Cycle) IsClosed() bool {
	if len(c.Venues) < 3 || c.Venues[0] != c.Venues[len(c.Venues)-1] {
		return false
	}
	seen := make(map[VenueID]bool, len(c.Venues))
	for _, v := range c.Venues[:len(c.Venues)-1] {
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func (c Cycle) String() string {
	parts := make([]string, len(c.Venues))
	for i, v := range c.Venues {
		parts[i] = string(v)
	}
	return strings.Join(parts, " -> ")
}
