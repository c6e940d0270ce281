package domain

import (
	"sort"
	"time"
)

// QuoteSnapshot is the immutable set of venue quotes for one polling cycle.
type QuoteSnapshot struct {
	quotes  map[VenueID]VenueQuote
	venues  []VenueID
	takenAt time.Time
}

// NewQuoteSnapshot copies quotes into a snapshot. A later quote for the same
// venue replaces an earlier one.
func NewQuoteSnapshot(takenAt time.Time, quotes ...VenueQuote) *QuoteSnapshot {
	s := &QuoteSnapshot{
		quotes:  make(map[VenueID]VenueQuote, len(quotes)),
		takenAt: takenAt,
	}
	for _, q := range quotes {
		if _, dup := s.quotes[q.Venue]; !dup {
			s.venues = append(s.venues, q.Venue)
		}
		s.quotes[q.Venue] = q
	}
	sort.Slice(s.venues, func(i, j int) bool { return s.venues[i] < s.venues[j] })
	return s
}

// Len returns the number of venues in the snapshot, valid or not.
func (s *QuoteSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.venues)
}

// Venues returns venue ids in ascending order.
func (s *QuoteSnapshot) Venues() []VenueID {
	if s == nil {
		return nil
	}
	out := make([]VenueID, len(s.venues))
	copy(out, s.venues)
	return out
}

// Quote returns the quote for a venue.
func (s *QuoteSnapshot) Quote(id VenueID) (VenueQuote, bool) {
	if s == nil {
		return VenueQuote{}, false
	}
	q, ok := s.quotes[id]
	return q, ok
}

// Quotes returns all quotes ordered by venue id.
func (s *QuoteSnapshot) Quotes() []VenueQuote {
	if s == nil {
		return nil
	}
	out := make([]VenueQuote, 0, len(s.venues))
	for _, id := range s.venues {
		out = append(out, s.quotes[id])
	}
	return out
}

// TakenAt returns when the snapshot was assembled.
func (s *QuoteSnapshot) TakenAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.takenAt
}
