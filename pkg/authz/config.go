package authz

// Config holds request-layer settings.
type Config struct {
	APIKeyHeader   string   `env:"AUTHZ_API_KEY_HEADER" envDefault:"X-API-Key"`
	AllowBearer    bool     `env:"AUTHZ_ALLOW_BEARER" envDefault:"true"`
	TrustedProxies []string `env:"AUTHZ_TRUSTED_PROXIES" envSeparator:","`
}

// DefaultConfig returns the defaults used when no Config is supplied.
func DefaultConfig() Config {
	return Config{APIKeyHeader: "X-API-Key", AllowBearer: true}
}
