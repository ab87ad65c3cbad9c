package pg

import "time"

// Config describes the Postgres pool backing the audit log.
type Config struct {
	ConnectionString  string        `env:"AUDIT_PG_URL,required"`
	MaxConns          int32         `env:"AUDIT_PG_MAX_CONNS" envDefault:"10"`
	MinConns          int32         `env:"AUDIT_PG_MIN_CONNS" envDefault:"1"`
	HealthCheckPeriod time.Duration `env:"AUDIT_PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"AUDIT_PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"AUDIT_PG_MAX_CONN_LIFETIME" envDefault:"30m"`

	RetryAttempts int           `env:"AUDIT_PG_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"AUDIT_PG_RETRY_INTERVAL" envDefault:"2s"`

	MigrationsTable string `env:"AUDIT_PG_MIGRATIONS_TABLE" envDefault:"audit_schema_migrations"`
}
