package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
)

// Reader searches and exports stored events.
type Reader struct {
	sink Sink
}

// NewReader creates a reader over sink. Panics on nil sink.
func NewReader(sink Sink) *Reader {
	if sink == nil {
		panic("audit: sink cannot be nil")
	}
	return &Reader{sink: sink}
}

// Find returns events matching c, oldest first.
func (r *Reader) Find(ctx context.Context, c Criteria) ([]Event, error) {
	q, ok := r.sink.(Querier)
	if !ok {
		return nil, ErrQueryNotSupported
	}
	return q.Query(ctx, c)
}

// Export writes matching events to w as JSON lines and returns how many were written.
func (r *Reader) Export(ctx context.Context, c Criteria, w io.Writer) (int, error) {
	events, err := r.Find(ctx, c)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	for i, e := range events {
		if err := enc.Encode(e); err != nil {
			return i, errors.Join(ErrExportFailed, err)
		}
	}
	return len(events), nil
}
