package plugin

import "sync"

// Set is an insertion-ordered set of plugins keyed by identity.
// It is safe for concurrent use.
type Set struct {
	mu    sync.RWMutex
	index map[*Plugin]struct{}
	order []*Plugin

	// claims holds plugins reserved with Claim but not yet added.
	claims map[*Plugin]struct{}
}

// NewSet creates a set containing plugins, in order, without duplicates.
func NewSet(plugins ...*Plugin) *Set {
	s := &Set{index: make(map[*Plugin]struct{}, len(plugins))}
	for _, p := range plugins {
		s.Add(p)
	}
	return s
}

// Add inserts p. Returns false if p is nil or already present.
func (s *Set) Add(p *Plugin) bool {
	if p == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[p]; ok {
		return false
	}
	delete(s.claims, p)
	s.index[p] = struct{}{}
	s.order = append(s.order, p)
	return true
}

// Claim reserves p for the caller. It returns false if p is nil, already
// in the set or claimed by someone else. A claimed plugin is not listed
// until Add; Release gives the claim up.
func (s *Set) Claim(p *Plugin) bool {
	if p == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[p]; ok {
		return false
	}
	if _, ok := s.claims[p]; ok {
		return false
	}
	if s.claims == nil {
		s.claims = make(map[*Plugin]struct{})
	}
	s.claims[p] = struct{}{}
	return true
}

// Release drops a claim taken with Claim.
func (s *Set) Release(p *Plugin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, p)
}

// Has reports whether p is in the set.
func (s *Set) Has(p *Plugin) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[p]
	return ok
}

// Len returns the number of plugins in the set.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// List returns the plugins in insertion order.
func (s *Set) List() []*Plugin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Plugin(nil), s.order...)
}
