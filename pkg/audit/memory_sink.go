package audit

import (
	"context"
	"slices"
	"sync"
)

// MemorySink keeps events in memory. It is unbounded; use it for tests and small deployments.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write implements Sink.
func (s *MemorySink) Write(_ context.Context, events []Event) error {
	s.mu.Lock()
	s.events = append(s.events, events...)
	s.mu.Unlock()
	return nil
}

// Query implements Querier.
func (s *MemorySink) Query(ctx context.Context, c Criteria) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, e := range s.events {
		if c.Matches(e) {
			out = append(out, e)
		}
	}
	return page(out, c), nil
}

// Events returns a copy of every stored event.
func (s *MemorySink) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

// Len returns the number of stored events.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
