package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	if yaml != "" {
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	}
	return v
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	cfg, err := Load(newViper(t, ""))
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".local/share/phonocorrect/phonocorrect.db"), cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.InDelta(t, 0.9, cfg.Matching.Bands.High, 1e-9)
	assert.InDelta(t, 0.7, cfg.Matching.Bands.Medium, 1e-9)
	assert.InDelta(t, 0.9, cfg.Matching.UserBaseConfidence, 1e-9)
	assert.Equal(t, SyncBackendFile, cfg.Sync.Backend)
	assert.Equal(t, "localhost:6379", cfg.Sync.Redis.Addr)
	assert.Equal(t, "en-US", cfg.Voice.Language)
	assert.Equal(t, "espeak-ng", cfg.Voice.Command)

	ec := cfg.Engine()
	assert.Equal(t, cfg.Matching.Concurrency, ec.Concurrency)
	assert.Equal(t, 3, cfg.RetryOptions().MaxAttempts)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	t.Setenv("PHONOCORRECT_LOGGING_LEVEL", "debug")
	t.Setenv("REDIS_ADDR", "cache.internal:6380")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load(newViper(t, `
database:
  path: /tmp/rules.db
matching:
  bands:
    high: 0.95
    medium: 0.6
  concurrency: 8
sync:
  backend: redis
voice:
  command: /usr/local/bin/say
  voice: calm
  rate: 1.25
`))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/rules.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.InDelta(t, 0.95, cfg.Matching.Bands.High, 1e-9)
	assert.Equal(t, 8, cfg.Matching.Concurrency)
	assert.Equal(t, SyncBackendRedis, cfg.Sync.Backend)
	assert.Equal(t, "cache.internal:6380", cfg.Sync.Redis.Addr)
	assert.Equal(t, 2, cfg.Sync.Redis.DB)
	assert.Equal(t, "calm", cfg.Voice.Voice)
	assert.InDelta(t, 1.25, cfg.Voice.Rate, 1e-9)
	assert.InDelta(t, 1.0, cfg.Voice.Pitch, 1e-9)
	assert.Equal(t, "/usr/local/bin/say", cfg.Voice.Command)
}

func TestLoad_PrefixedRedisAddressWins(t *testing.T) {
	t.Setenv("PHONOCORRECT_SYNC_REDIS_ADDR", "primary:6379")
	t.Setenv("REDIS_ADDR", "fallback:6379")

	cfg, err := Load(newViper(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "primary:6379", cfg.Sync.Redis.Addr)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(newViper(t, ""))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		mutate func(*Config)
		name   string
	}{
		{name: "empty database path", mutate: func(c *Config) { c.Database.Path = "" }},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }},
		{name: "inverted bands", mutate: func(c *Config) { c.Matching.Bands.Medium = 0.95 }},
		{name: "band above one", mutate: func(c *Config) { c.Matching.Bands.High = 1.5 }},
		{name: "zero base confidence", mutate: func(c *Config) { c.Matching.UserBaseConfidence = 0 }},
		{name: "zero concurrency", mutate: func(c *Config) { c.Matching.Concurrency = 0 }},
		{name: "unknown backend", mutate: func(c *Config) { c.Sync.Backend = "ftp" }},
		{name: "file backend without dir", mutate: func(c *Config) { c.Sync.Dir = "" }},
		{name: "redis without address", mutate: func(c *Config) {
			c.Sync.Backend = SyncBackendRedis
			c.Sync.Redis.Addr = ""
		}},
		{name: "zero attempts", mutate: func(c *Config) { c.Sync.Attempts = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), common.ErrInvalidConfig)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("PHONOCORRECT_TEST_DIR", "/data")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/rules.db", filepath.Join(home, "rules.db")},
		{"$PHONOCORRECT_TEST_DIR/rules.db", "/data/rules.db"},
		{"/abs/~/rules.db", "/abs/~/rules.db"},
		{"~other/rules.db", "~other/rules.db"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandPath(tt.in), tt.in)
	}
}
