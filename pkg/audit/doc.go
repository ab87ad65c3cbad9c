// Package audit records authorization decisions and administrative changes.
//
// An Emitter accepts events without blocking the caller, stamps each one with
// an id, a timestamp and a link in a SHA-256 hash chain, then hands batches to
// a Sink from a single background worker. When the buffer is full the event is
// dropped and the drop is logged; emission never returns an error to the
// request path.
//
// Sinks:
//
//   - MemorySink keeps events in process (tests, single-node deployments).
//   - LogSink writes events as structured slog records.
//   - RedisSink stores events as JSON with sorted-set indexes by time, type and key.
//   - PostgresSink appends to the audit_events table (see PostgresMigrations).
//   - OpenSearchSink indexes one document per event.
//   - MongoSink inserts into a collection.
//
// MultiSink fans a batch out to several sinks. Sinks that can answer queries
// implement Querier; Reader wraps one to find and export events:
//
//	sink := audit.NewMemorySink()
//	em := audit.NewEmitter(sink, audit.WithLogger(log))
//	defer em.Close(ctx)
//
//	em.Emit(ctx, audit.Event{
//	    Type:    audit.TypeAuthzDenied,
//	    KeyID:   key.ID,
//	    Action:  "reports:write",
//	    Outcome: audit.OutcomeFailure,
//	    Reason:  "insufficient_permission",
//	})
//
//	events, err := audit.NewReader(sink).Find(ctx, audit.Criteria{KeyID: key.ID})
//	err = audit.VerifyChain(events)
package audit
