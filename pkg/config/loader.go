package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cacheMu sync.Mutex
	cache   = map[reflect.Type]any{}

	dotenvOnce sync.Once
)

// Load fills v from the environment, reading ./.env once per process first.
// Each struct type is parsed once; later calls receive a copy of the cached value.
//
//	var cfg store.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dotenvOnce.Do(func() { _ = godotenv.Load() })

	typ := reflect.TypeFor[T]()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[typ]; ok {
		*v = cached.(T)
		return nil
	}

	parsed, err := Parse[T]()
	if err != nil {
		return err
	}
	cache[typ] = parsed
	*v = parsed
	return nil
}

// MustLoad is Load that panics on error. Use it for settings the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// Parse reads T from the environment without touching the cache.
func Parse[T any]() (T, error) {
	var v T
	if err := env.Parse(&v); err != nil {
		return v, errors.Join(ErrParsingConfig, err)
	}
	return v, nil
}

// LoadEnv reads the given dotenv files into the process environment.
// Variables already set win, and earlier files win over later ones.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrEnvFile, err)
	}
	return nil
}

// ResetCache forgets every loaded type. Intended for tests.
func ResetCache() {
	cacheMu.Lock()
	clear(cache)
	cacheMu.Unlock()
}
