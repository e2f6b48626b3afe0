package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/config"
)

type backendConfig struct {
	Backend   string        `env:"FLAGKIT_TEST_LOAD_BACKEND" envDefault:"memory"`
	CacheSize int           `env:"FLAGKIT_TEST_LOAD_CACHE_SIZE" envDefault:"128"`
	Async     bool          `env:"FLAGKIT_TEST_LOAD_ASYNC" envDefault:"true"`
	Flush     time.Duration `env:"FLAGKIT_TEST_LOAD_FLUSH" envDefault:"2s"`
}

type cachedConfig struct {
	Subject string `env:"FLAGKIT_TEST_CACHED_SUBJECT" envDefault:"flagkit.audit"`
}

type requiredConfig struct {
	URL string `env:"FLAGKIT_TEST_REQUIRED_URL,required"`
}

type envFileConfig struct {
	Backend      string   `env:"FLAGKIT_TEST_BACKEND"`
	CacheSize    int      `env:"FLAGKIT_TEST_CACHE_SIZE"`
	Groups       []string `env:"FLAGKIT_TEST_GROUPS" envSeparator:","`
	Quoted       string   `env:"FLAGKIT_TEST_QUOTED"`
	OnlyOverride string   `env:"FLAGKIT_TEST_ONLY_OVERRIDE"`
}

func unsetEnvFileVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"FLAGKIT_TEST_BACKEND",
		"FLAGKIT_TEST_CACHE_SIZE",
		"FLAGKIT_TEST_GROUPS",
		"FLAGKIT_TEST_QUOTED",
		"FLAGKIT_TEST_ONLY_OVERRIDE",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
	t.Cleanup(func() {
		for _, v := range vars {
			os.Unsetenv(v)
		}
		config.ResetCache()
	})
}

func TestLoad(t *testing.T) {
	t.Run("environment", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("FLAGKIT_TEST_LOAD_BACKEND", "postgres")
		t.Setenv("FLAGKIT_TEST_LOAD_CACHE_SIZE", "16")
		t.Setenv("FLAGKIT_TEST_LOAD_ASYNC", "false")
		t.Setenv("FLAGKIT_TEST_LOAD_FLUSH", "250ms")

		var cfg backendConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, backendConfig{Backend: "postgres", CacheSize: 16, Async: false, Flush: 250 * time.Millisecond}, cfg)
	})

	t.Run("defaults", func(t *testing.T) {
		config.ResetCache()

		var cfg backendConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, backendConfig{Backend: "memory", CacheSize: 128, Async: true, Flush: 2 * time.Second}, cfg)
	})

	t.Run("missing required", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *backendConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
		assert.ErrorIs(t, config.ForceReloadConfig(cfg), config.ErrNilPointer)
	})
}

func TestLoad_Cached(t *testing.T) {
	config.ResetCache()
	t.Setenv("FLAGKIT_TEST_CACHED_SUBJECT", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("FLAGKIT_TEST_CACHED_SUBJECT", "second")

	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Subject)

	var reloaded cachedConfig
	require.NoError(t, config.ForceReloadConfig(&reloaded))
	assert.Equal(t, "second", reloaded.Subject)

	var after cachedConfig
	require.NoError(t, config.Load(&after))
	assert.Equal(t, "second", after.Subject)
}

func TestLoadEnv(t *testing.T) {
	t.Run("single file", func(t *testing.T) {
		unsetEnvFileVars(t)
		require.NoError(t, config.LoadEnv("testdata/.env.base"))

		var cfg envFileConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "redis", cfg.Backend)
		assert.Equal(t, 64, cfg.CacheSize)
		assert.Equal(t, []string{"checkout", "search"}, cfg.Groups)
		assert.Equal(t, "with spaces", cfg.Quoted)
		assert.Empty(t, cfg.OnlyOverride)
	})

	t.Run("later files win", func(t *testing.T) {
		unsetEnvFileVars(t)
		require.NoError(t, config.LoadEnv("testdata/.env.base", "testdata/.env.override"))

		var cfg envFileConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "postgres", cfg.Backend)
		assert.Equal(t, 64, cfg.CacheSize)
		assert.Equal(t, "yes", cfg.OnlyOverride)
	})

	t.Run("missing file", func(t *testing.T) {
		assert.ErrorIs(t, config.LoadEnv("testdata/missing.env"), config.ErrLoadingEnvFile)
		assert.Panics(t, func() { config.MustLoadEnv("testdata/missing.env") })
	})
}
