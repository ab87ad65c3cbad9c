// Package config loads typed settings from environment variables.
//
// Structs declare their variables with caarlos0/env tags. Load reads ./.env through
// godotenv on first use, parses the struct and caches it per type, so every package can
// ask for its own Config without re-parsing:
//
//	type Config struct {
//		Addr      string        `env:"AUTHZ_HTTP_ADDR" envDefault:":8080"`
//		OpTimeout time.Duration `env:"STORE_OP_TIMEOUT" envDefault:"250ms"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// LoadEnv reads additional dotenv files explicitly. Parse bypasses the cache.
package config
