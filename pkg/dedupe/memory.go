package dedupe

import "sync"

// ProcessedSet remembers activity ids already hidden by this process, so a
// later cycle never re-hides or re-matches them. It only grows, and lives
// for the process lifetime; a restart starts empty.
type ProcessedSet struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{ids: make(map[int64]struct{})}
}

// Add marks an activity id as processed.
func (s *ProcessedSet) Add(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

// Contains reports whether an activity id was already processed.
func (s *ProcessedSet) Contains(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of processed ids.
func (s *ProcessedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
