package rbac

import (
	"log/slog"
	"time"
)

// Option configures a Resolver or a Manager.
type Option func(*options)

type options struct {
	logger        *slog.Logger
	cacheCapacity int
	cacheTTL      time.Duration
	resolver      *Resolver
	now           func() time.Time
}

func newOptions(opts []Option) options {
	o := options{
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCache enables memoization of effective permission sets in the Resolver.
// ttl bounds how long a role change made by another process can go unnoticed.
// Non-positive values leave caching disabled.
func WithCache(capacity int, ttl time.Duration) Option {
	return func(o *options) {
		if capacity > 0 && ttl > 0 {
			o.cacheCapacity = capacity
			o.cacheTTL = ttl
		}
	}
}

// WithResolver lets a Manager invalidate the resolver cache after every write.
func WithResolver(r *Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
