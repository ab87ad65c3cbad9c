package mongo

import "time"

// Config describes the MongoDB deployment receiving audit events.
type Config struct {
	ConnectionURL   string        `env:"AUDIT_MONGO_URL,required"`
	Database        string        `env:"AUDIT_MONGO_DATABASE" envDefault:"authz"`
	Collection      string        `env:"AUDIT_MONGO_COLLECTION" envDefault:"audit_events"`
	ConnectTimeout  time.Duration `env:"AUDIT_MONGO_CONNECT_TIMEOUT" envDefault:"10s"`
	MaxPoolSize     uint64        `env:"AUDIT_MONGO_MAX_POOL_SIZE" envDefault:"50"`
	MinPoolSize     uint64        `env:"AUDIT_MONGO_MIN_POOL_SIZE" envDefault:"1"`
	MaxConnIdleTime time.Duration `env:"AUDIT_MONGO_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	RetryAttempts   int           `env:"AUDIT_MONGO_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval   time.Duration `env:"AUDIT_MONGO_RETRY_INTERVAL" envDefault:"2s"`
}
