package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authz/pkg/config"
)

type appConfig struct {
	Name    string        `env:"CFGTEST_NAME" envDefault:"authz"`
	Port    int           `env:"CFGTEST_PORT" envDefault:"8080"`
	Tags    []string      `env:"CFGTEST_TAGS" envSeparator:","`
	Timeout time.Duration `env:"CFGTEST_TIMEOUT" envDefault:"250ms"`
}

type requiredConfig struct {
	Secret string `env:"CFGTEST_REQUIRED_SECRET,required"`
}

type cachedConfig struct {
	Value string `env:"CFGTEST_CACHED"`
}

// Tests mutate the process environment and the package cache, so they run sequentially.

func TestParse(t *testing.T) {
	t.Setenv("CFGTEST_PORT", "9000")
	t.Setenv("CFGTEST_TAGS", "x,y")

	cfg, err := config.Parse[appConfig]()
	require.NoError(t, err)
	assert.Equal(t, appConfig{Name: "authz", Port: 9000, Tags: []string{"x", "y"}, Timeout: 250 * time.Millisecond}, cfg)
}

func TestParse_Invalid(t *testing.T) {
	t.Setenv("CFGTEST_PORT", "not-a-number")

	_, err := config.Parse[appConfig]()
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_MissingRequired(t *testing.T) {
	config.ResetCache()

	var cfg requiredConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}

func TestLoad_CachesPerType(t *testing.T) {
	config.ResetCache()
	t.Setenv("CFGTEST_CACHED", "first")

	var a cachedConfig
	require.NoError(t, config.Load(&a))
	assert.Equal(t, "first", a.Value)

	t.Setenv("CFGTEST_CACHED", "second")
	var b cachedConfig
	require.NoError(t, config.Load(&b))
	assert.Equal(t, "first", b.Value)

	config.ResetCache()
	var c cachedConfig
	require.NoError(t, config.Load(&c))
	assert.Equal(t, "second", c.Value)
}

func TestLoad_NilPointer(t *testing.T) {
	assert.ErrorIs(t, config.Load[appConfig](nil), config.ErrNilPointer)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("CFGTEST_NAME", "from_env")
	unsetForTest(t, "CFGTEST_PORT", "CFGTEST_TAGS")

	require.NoError(t, config.LoadEnv("testdata/.env.test"))

	cfg, err := config.Parse[appConfig]()
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Name, "existing variables win")
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Tags)
}

// unsetForTest removes keys and restores their previous values when t ends.
func unsetForTest(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadEnv_MissingFile(t *testing.T) {
	assert.ErrorIs(t, config.LoadEnv("testdata/does-not-exist"), config.ErrEnvFile)
	assert.NoError(t, config.LoadEnv())
}
