package audit

import "time"

// Sink names accepted in Config.Sinks.
const (
	SinkLog        = "log"
	SinkMemory     = "memory"
	SinkRedis      = "redis"
	SinkPostgres   = "postgres"
	SinkOpenSearch = "opensearch"
	SinkMongo      = "mongo"
)

// Config selects audit sinks and tunes the emitter.
type Config struct {
	Sinks          []string      `env:"AUDIT_SINKS" envSeparator:"," envDefault:"log"`
	BufferSize     int           `env:"AUDIT_BUFFER_SIZE" envDefault:"1000"`
	BatchSize      int           `env:"AUDIT_BATCH_SIZE" envDefault:"100"`
	FlushInterval  time.Duration `env:"AUDIT_FLUSH_INTERVAL" envDefault:"100ms"`
	WriteTimeout   time.Duration `env:"AUDIT_WRITE_TIMEOUT" envDefault:"5s"`
	RedisPrefix    string        `env:"AUDIT_REDIS_PREFIX" envDefault:"audit:"`
	RedisRetention time.Duration `env:"AUDIT_REDIS_RETENTION" envDefault:"720h"`
}

// Enabled reports whether the named sink is configured.
func (c Config) Enabled(sink string) bool {
	for _, s := range c.Sinks {
		if s == sink {
			return true
		}
	}
	return false
}

// WithConfig applies the emitter settings of cfg. Zero values keep the defaults.
func WithConfig(cfg Config) EmitterOption {
	return func(o *emitterOptions) {
		WithBufferSize(cfg.BufferSize)(o)
		WithBatchSize(cfg.BatchSize)(o)
		WithFlushInterval(cfg.FlushInterval)(o)
		WithWriteTimeout(cfg.WriteTimeout)(o)
	}
}
