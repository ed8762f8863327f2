package cache

import (
	"maps"
	"sync"
)

// Stats counts cache hits per canonical id, price computations and fired
// guards. It exists for tests and observability; Reset clears it.
type Stats struct {
	mu           sync.Mutex
	hits         map[string]int64
	computations int64
	guards       map[string]int64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	CacheHits         map[string]int64 `json:"cache_hits"`
	PriceComputations int64            `json:"price_computations"`
	GuardTriggered    map[string]int64 `json:"guard_triggered"`
}

// TotalHits sums cache hits over every canonical id.
func (s Snapshot) TotalHits() int64 {
	var n int64
	for _, v := range s.CacheHits {
		n += v
	}
	return n
}

// TotalGuards sums fired guards of every kind.
func (s Snapshot) TotalGuards() int64 {
	var n int64
	for _, v := range s.GuardTriggered {
		n += v
	}
	return n
}

// NewStats creates zeroed counters.
func NewStats() *Stats {
	return &Stats{
		hits:   make(map[string]int64),
		guards: make(map[string]int64),
	}
}

// RecordHit counts a cache hit for canonicalID.
func (s *Stats) RecordHit(canonicalID string) {
	s.mu.Lock()
	s.hits[canonicalID]++
	s.mu.Unlock()
}

// RecordComputation counts one price computation.
func (s *Stats) RecordComputation() {
	s.mu.Lock()
	s.computations++
	s.mu.Unlock()
}

// RecordGuard counts one fired guard.
func (s *Stats) RecordGuard(guard string) {
	s.mu.Lock()
	s.guards[guard]++
	s.mu.Unlock()
}

// Snapshot copies the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		CacheHits:         maps.Clone(s.hits),
		PriceComputations: s.computations,
		GuardTriggered:    maps.Clone(s.guards),
	}
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = make(map[string]int64)
	s.computations = 0
	s.guards = make(map[string]int64)
}
