package opensearch

// Config describes the OpenSearch cluster receiving audit events.
type Config struct {
	Addresses    []string `env:"AUDIT_OPENSEARCH_ADDRESSES,required" envSeparator:","`
	Username     string   `env:"AUDIT_OPENSEARCH_USERNAME"`
	Password     string   `env:"AUDIT_OPENSEARCH_PASSWORD"`
	Index        string   `env:"AUDIT_OPENSEARCH_INDEX" envDefault:"audit-events"`
	MaxRetries   int      `env:"AUDIT_OPENSEARCH_MAX_RETRIES" envDefault:"3"`
	DisableRetry bool     `env:"AUDIT_OPENSEARCH_DISABLE_RETRY" envDefault:"false"`
}
