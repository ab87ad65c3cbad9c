package audit

import "errors"

var (
	// ErrInvalidEvent indicates the event is missing required fields.
	ErrInvalidEvent = errors.New("audit.invalid_event")

	// ErrSinkUnavailable indicates the sink backend could not be reached.
	ErrSinkUnavailable = errors.New("audit.sink_unavailable")

	// ErrQueryNotSupported is returned by Reader when the sink cannot be queried.
	ErrQueryNotSupported = errors.New("audit.query_not_supported")

	// ErrChainBroken indicates a hash chain verification failure.
	ErrChainBroken = errors.New("audit.chain_broken")

	// ErrExportFailed indicates an export could not be written.
	ErrExportFailed = errors.New("audit.export_failed")

	// ErrEmitterClosed is returned when closing an emitter twice.
	ErrEmitterClosed = errors.New("audit.emitter_closed")
)
