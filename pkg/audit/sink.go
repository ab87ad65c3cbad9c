package audit

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"
)

// Sink persists batches of events. Implementations must be safe for concurrent use.
type Sink interface {
	Write(ctx context.Context, events []Event) error
}

// Querier is implemented by sinks that can search stored events.
// Results are ordered oldest first.
type Querier interface {
	Query(ctx context.Context, c Criteria) ([]Event, error)
}

// Criteria filters stored events. Zero fields match everything.
type Criteria struct {
	From    time.Time
	To      time.Time
	Types   []string
	KeyID   string
	Outcome Outcome
	Limit   int
	Offset  int
}

// DefaultQueryLimit caps queries that set no Limit.
const DefaultQueryLimit = 1000

func (c Criteria) limit() int {
	if c.Limit <= 0 {
		return DefaultQueryLimit
	}
	return c.Limit
}

// Matches reports whether e satisfies the criteria, ignoring Limit and Offset.
func (c Criteria) Matches(e Event) bool {
	if !c.From.IsZero() && e.Timestamp.Before(c.From) {
		return false
	}
	if !c.To.IsZero() && !e.Timestamp.Before(c.To) {
		return false
	}
	if len(c.Types) > 0 && !slices.Contains(c.Types, e.Type) {
		return false
	}
	if c.KeyID != "" && e.KeyID != c.KeyID {
		return false
	}
	if c.Outcome != "" && e.Outcome != c.Outcome {
		return false
	}
	return true
}

// MultiSink writes every batch to all sinks and joins their errors.
type MultiSink []Sink

// Write implements Sink.
func (m MultiSink) Write(ctx context.Context, events []Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Query delegates to the first sink implementing Querier.
func (m MultiSink) Query(ctx context.Context, c Criteria) ([]Event, error) {
	for _, s := range m {
		if q, ok := s.(Querier); ok {
			return q.Query(ctx, c)
		}
	}
	return nil, ErrQueryNotSupported
}

// sortEvents orders events by timestamp, then by emission sequence.
func sortEvents(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})
}

func page(events []Event, c Criteria) []Event {
	if c.Offset >= len(events) {
		return []Event{}
	}
	events = events[c.Offset:]
	if n := c.limit(); len(events) > n {
		events = events[:n]
	}
	return events
}
