package dedup

import "sync"

// Guard marks table ids as processed.
//
// MarkIfNew atomically records id and reports whether it was not recorded
// before. Implementations must be safe for concurrent use.
type Guard interface {
	MarkIfNew(id string) bool
}

// GuardFunc adapts a function to Guard.
type GuardFunc func(id string) bool

// MarkIfNew calls f(id).
func (f GuardFunc) MarkIfNew(id string) bool { return f(id) }

// Set is an in-memory Guard. The zero value is ready to use.
type Set struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// MarkIfNew implements Guard.
func (s *Set) MarkIfNew(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}

// Seen reports whether id has been marked.
func (s *Set) Seen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[id]
	return ok
}

// Len returns the number of marked ids.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Reset forgets every marked id, ready for a new job.
func (s *Set) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[string]struct{})
}
