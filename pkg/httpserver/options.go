package httpserver

import (
	"log/slog"
	"time"
)

// Option configures the Server.
type Option func(*config)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: addr cannot be empty")
	}
	return func(c *config) { c.addr = addr }
}

// WithReadHeaderTimeout bounds reading request headers.
func WithReadHeaderTimeout(d time.Duration) Option {
	mustPositive(d)
	return func(c *config) { c.readHeaderTimeout = d }
}

// WithReadTimeout bounds reading the whole request.
func WithReadTimeout(d time.Duration) Option {
	mustPositive(d)
	return func(c *config) { c.readTimeout = d }
}

// WithWriteTimeout bounds writing the response.
func WithWriteTimeout(d time.Duration) Option {
	mustPositive(d)
	return func(c *config) { c.writeTimeout = d }
}

// WithIdleTimeout bounds keep-alive idle time.
func WithIdleTimeout(d time.Duration) Option {
	mustPositive(d)
	return func(c *config) { c.idleTimeout = d }
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	mustPositive(d)
	return func(c *config) { c.shutdownTimeout = d }
}

// WithLogger sets the logger. Nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithShutdownHook registers fn to run after the listener stops, for example flushing
// the audit emitter. Hooks run in registration order.
func WithShutdownHook(fn func()) Option {
	if fn == nil {
		panic("httpserver: nil shutdown hook")
	}
	return func(c *config) { c.shutdownHooks = append(c.shutdownHooks, fn) }
}

func mustPositive(d time.Duration) {
	if d <= 0 {
		panic("httpserver: duration must be positive")
	}
}
