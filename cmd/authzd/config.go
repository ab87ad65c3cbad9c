package main

import (
	"time"

	"github.com/dmitrymomot/authz/pkg/audit"
	"github.com/dmitrymomot/authz/pkg/authz"
	"github.com/dmitrymomot/authz/pkg/config"
	"github.com/dmitrymomot/authz/pkg/httpserver"
	"github.com/dmitrymomot/authz/pkg/store"
)

// Store backends.
const (
	backendRedis  = "redis"
	backendMemory = "memory"
)

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Service  string `env:"APP_NAME" envDefault:"authzd"`
	LogLevel string `env:"LOG_LEVEL"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"redis"`

	// HashSecret is the base64 key for token digests, see cmd/keygen.
	HashSecret string `env:"APIKEY_HASH_SECRET"`

	RolesFile         string        `env:"AUTHZ_ROLES_FILE"`
	BootstrapAdminKey bool          `env:"AUTHZ_BOOTSTRAP_ADMIN_KEY" envDefault:"false"`
	RoleCacheSize     int           `env:"AUTHZ_ROLE_CACHE_SIZE" envDefault:"0"`
	RoleCacheTTL      time.Duration `env:"AUTHZ_ROLE_CACHE_TTL" envDefault:"0s"`
	ReadinessTimeout  time.Duration `env:"AUTHZ_READINESS_TIMEOUT" envDefault:"2s"`

	// TrustedCallers may pass client_ip to /v1/authorize for another client.
	TrustedCallers []string `env:"AUTHZ_TRUSTED_CALLERS" envSeparator:"," envDefault:"127.0.0.0/8,::1"`

	Store store.Config
	Authz authz.Config
	Audit audit.Config
	HTTP  httpserver.Config
}

func loadConfig() (appConfig, error) {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return appConfig{}, err
	}
	return cfg, nil
}
