// Package domain contains the core domain types for the marketdata context.
package domain

import (
	"sort"
	"time"
)

// Snapshot holds the quotes gathered in one round, keyed by symbol then venue.
type Snapshot struct {
	Quotes map[Symbol]map[string]Quote
	Taken  time.Time
}

// NewSnapshot creates an empty snapshot taken at the given instant.
func NewSnapshot(taken time.Time) *Snapshot {
	return &Snapshot{
		Quotes: make(map[Symbol]map[string]Quote),
		Taken:  taken,
	}
}

// Add inserts a quote, replacing an earlier quote from the same venue.
func (s *Snapshot) Add(q Quote) {
	byVenue, ok := s.Quotes[q.Symbol]
	if !ok {
		byVenue = make(map[string]Quote)
		s.Quotes[q.Symbol] = byVenue
	}
	byVenue[q.Venue] = q
}

// BySymbol returns the quotes for a symbol keyed by venue. May be nil.
func (s *Snapshot) BySymbol(sym Symbol) map[string]Quote {
	return s.Quotes[sym]
}

// ByVenue returns all quotes from one venue keyed by symbol.
func (s *Snapshot) ByVenue(venue string) map[Symbol]Quote {
	out := make(map[Symbol]Quote)
	for sym, byVenue := range s.Quotes {
		if q, ok := byVenue[venue]; ok {
			out[sym] = q
		}
	}
	return out
}

// Venues returns the sorted set of venues present in the snapshot.
func (s *Snapshot) Venues() []string {
	seen := make(map[string]struct{})
	for _, byVenue := range s.Quotes {
		for venue := range byVenue {
			seen[venue] = struct{}{}
		}
	}
	venues := make([]string, 0, len(seen))
	for venue := range seen {
		venues = append(venues, venue)
	}
	sort.Strings(venues)
	return venues
}

// Symbols returns the sorted symbols present in the snapshot.
func (s *Snapshot) Symbols() []Symbol {
	symbols := make([]Symbol, 0, len(s.Quotes))
	for sym := range s.Quotes {
		symbols = append(symbols, sym)
	}
	sort.Slice(symbols, func(i, j int) bool {
		return symbols[i].String() < symbols[j].String()
	})
	return symbols
}

// IsEmpty reports whether the snapshot has no quotes.
func (s *Snapshot) IsEmpty() bool {
	return len(s.Quotes) == 0
}

// Size returns the total number of quotes.
func (s *Snapshot) Size() int {
	n := 0
	for _, byVenue := range s.Quotes {
		n += len(byVenue)
	}
	return n
}
