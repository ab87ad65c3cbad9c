package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authz/pkg/logger"
)

// Emitter accepts events without blocking and writes them to a Sink in batches.
type Emitter struct {
	sink    Sink
	logger  *slog.Logger
	filter  *MetadataFilter
	now     func() time.Time
	chain   *chain
	opts    emitterOptions
	events  chan Event
	done    chan struct{}
	wg      sync.WaitGroup
	closed  atomic.Bool
	dropped atomic.Int64
	written atomic.Int64
	failed  atomic.Int64
}

// NewEmitter starts an emitter over sink. Panics on nil sink.
// Call Close on shutdown to flush buffered events.
func NewEmitter(sink Sink, opts ...EmitterOption) *Emitter {
	if sink == nil {
		panic("audit: sink cannot be nil")
	}

	o := defaultEmitterOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &Emitter{
		sink:   sink,
		logger: o.logger.With(logger.Component("audit.emitter")),
		filter: o.filter,
		now:    o.now,
		chain:  newChain(o.lastHash),
		opts:   o,
		events: make(chan Event, o.bufferSize),
		done:   make(chan struct{}),
	}

	e.wg.Add(1)
	go e.worker()
	return e
}

// Emit queues an event. It never blocks: when the buffer is full or the
// emitter is closed the event is dropped and the drop is logged.
func (e *Emitter) Emit(ctx context.Context, ev Event) {
	if err := ev.Validate(); err != nil {
		e.logger.ErrorContext(ctx, "invalid audit event", logger.EventType(ev.Type), logger.Error(err))
		return
	}
	if e.closed.Load() {
		e.drop(ctx, ev, "emitter closed")
		return
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.now()
	}
	// Millisecond precision survives every sink, so hashes verify after a round trip.
	ev.Timestamp = ev.Timestamp.UTC().Truncate(time.Millisecond)
	if e.filter != nil {
		ev.Metadata = e.filter.Filter(ev.Metadata)
	}

	select {
	case e.events <- ev:
	default:
		e.drop(ctx, ev, "buffer full")
	}
}

func (e *Emitter) drop(ctx context.Context, ev Event, why string) {
	e.dropped.Add(1)
	e.logger.WarnContext(ctx, "audit event dropped",
		slog.String("cause", why),
		logger.EventType(ev.Type),
		logger.KeyID(ev.KeyID),
		logger.Outcome(string(ev.Outcome)),
	)
}

// Stats reports emitter counters.
type Stats struct {
	Written int64
	Dropped int64
	Failed  int64
}

// Stats returns a snapshot of the counters.
func (e *Emitter) Stats() Stats {
	return Stats{
		Written: e.written.Load(),
		Dropped: e.dropped.Load(),
		Failed:  e.failed.Load(),
	}
}

func (e *Emitter) worker() {
	defer e.wg.Done()

	batch := make([]Event, 0, e.opts.batchSize)
	ticker := time.NewTicker(e.opts.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Chain links are assigned here so the order matches the write order.
		for i := range batch {
			e.chain.link(&batch[i])
		}

		// Detached from callers: request cancellation must not lose audit records.
		ctx, cancel := context.WithTimeout(context.Background(), e.opts.writeTimeout)
		defer cancel()

		if err := e.sink.Write(ctx, batch); err != nil {
			e.failed.Add(int64(len(batch)))
			e.logger.ErrorContext(ctx, "audit sink write failed",
				slog.Int("events", len(batch)), logger.Error(err))
		} else {
			e.written.Add(int64(len(batch)))
		}

		clear(batch)
		batch = batch[:0]
	}

	for {
		select {
		case ev := <-e.events:
			batch = append(batch, ev)
			if len(batch) >= e.opts.batchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-e.done:
			// Drain what was queued before Close.
			for {
				select {
				case ev := <-e.events:
					batch = append(batch, ev)
					if len(batch) >= e.opts.batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close stops accepting events and flushes the buffer.
// The context bounds how long Close waits for the final flush.
func (e *Emitter) Close(ctx context.Context) error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEmitterClosed
	}
	close(e.done)

	flushed := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(flushed)
	}()

	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
