package store

import "time"

// Config holds store tuning parameters.
type Config struct {
	OpTimeout time.Duration `env:"STORE_OP_TIMEOUT" envDefault:"250ms"` // OpTimeout bounds every single store call.
	KeyPrefix string        `env:"STORE_KEY_PREFIX" envDefault:""`      // KeyPrefix is prepended to every key, e.g. "authz:".
}

// Option configures a store implementation.
type Option func(*options)

type options struct {
	opTimeout time.Duration
	prefix    string
}

func defaultOptions() options {
	return options{opTimeout: 250 * time.Millisecond}
}

// WithOpTimeout sets the per-operation timeout. Non-positive values are ignored.
func WithOpTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.opTimeout = d
		}
	}
}

// WithKeyPrefix namespaces every key and set name.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithConfig applies a Config loaded from the environment.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		WithOpTimeout(cfg.OpTimeout)(o)
		o.prefix = cfg.KeyPrefix
	}
}
