package audit

import (
	"log/slog"
	"time"
)

type emitterOptions struct {
	logger        *slog.Logger
	filter        *MetadataFilter
	now           func() time.Time
	lastHash      string
	bufferSize    int
	batchSize     int
	flushInterval time.Duration
	writeTimeout  time.Duration
}

func defaultEmitterOptions() emitterOptions {
	return emitterOptions{
		logger:        slog.New(slog.DiscardHandler),
		filter:        NewMetadataFilter(),
		now:           time.Now,
		bufferSize:    1000,
		batchSize:     100,
		flushInterval: 100 * time.Millisecond,
		writeTimeout:  5 * time.Second,
	}
}

// EmitterOption configures an Emitter.
type EmitterOption func(*emitterOptions)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) EmitterOption {
	return func(o *emitterOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetadataFilter replaces the default credential filter. Nil disables filtering.
func WithMetadataFilter(f *MetadataFilter) EmitterOption {
	return func(o *emitterOptions) { o.filter = f }
}

// WithClock overrides the time source for event timestamps.
func WithClock(now func() time.Time) EmitterOption {
	return func(o *emitterOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLastHash continues an existing chain instead of starting from GenesisHash.
func WithLastHash(hash string) EmitterOption {
	return func(o *emitterOptions) { o.lastHash = hash }
}

// WithBufferSize sets how many events may wait for the worker before new ones are dropped.
func WithBufferSize(n int) EmitterOption {
	return func(o *emitterOptions) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithBatchSize sets the maximum number of events per sink write.
func WithBatchSize(n int) EmitterOption {
	return func(o *emitterOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithFlushInterval bounds how long a partial batch waits.
func WithFlushInterval(d time.Duration) EmitterOption {
	return func(o *emitterOptions) {
		if d > 0 {
			o.flushInterval = d
		}
	}
}

// WithWriteTimeout bounds each sink write.
func WithWriteTimeout(d time.Duration) EmitterOption {
	return func(o *emitterOptions) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}
