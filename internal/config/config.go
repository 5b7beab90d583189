// Package config loads application settings from file, environment and flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/phonocorrect/internal/common"
	"github.com/Veraticus/phonocorrect/internal/engine"
	"github.com/Veraticus/phonocorrect/internal/pattern"
	"github.com/Veraticus/phonocorrect/internal/speech"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. PHONOCORRECT_DATABASE_PATH.
const EnvPrefix = "PHONOCORRECT"

// Sync backends.
const (
	SyncBackendFile  = "file"
	SyncBackendRedis = "redis"
)

// Config is the complete application configuration.
type Config struct {
	Sync     SyncConfig     `mapstructure:"sync"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Voice    VoiceConfig    `mapstructure:"voice"`
	Matching MatchingConfig `mapstructure:"matching"`
}

// DatabaseConfig locates the rule database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// VoiceConfig selects the read-back program and how it speaks.
type VoiceConfig struct {
	Command             string `mapstructure:"command"`
	speech.VoiceOptions `mapstructure:",squash"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MatchingConfig tunes confidence scoring and batch checks.
type MatchingConfig struct {
	Bands              pattern.Bands `mapstructure:"bands"`
	UserBaseConfidence float64       `mapstructure:"user_base_confidence"`
	Concurrency        int           `mapstructure:"concurrency"`
}

// SyncConfig selects where rules are pushed and pulled.
type SyncConfig struct {
	Backend  string      `mapstructure:"backend"`
	Dir      string      `mapstructure:"dir"`
	Redis    RedisConfig `mapstructure:"redis"`
	Attempts int         `mapstructure:"attempts"`
}

// RedisConfig addresses the Redis sync backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	Key      string `mapstructure:"key"`
	DB       int    `mapstructure:"db"`
}

// SetDefaults registers every default and environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	engineDefaults := engine.DefaultConfig()
	voice := speech.DefaultVoiceOptions()

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("matching.bands.high", engineDefaults.Bands.High)
	v.SetDefault("matching.bands.medium", engineDefaults.Bands.Medium)
	v.SetDefault("matching.user_base_confidence", engineDefaults.UserBaseConfidence)
	v.SetDefault("matching.concurrency", engineDefaults.Concurrency)
	v.SetDefault("sync.backend", SyncBackendFile)
	v.SetDefault("sync.dir", DefaultSyncDir)
	v.SetDefault("sync.attempts", 3)
	v.SetDefault("sync.redis.key", "phonocorrect:rules")
	// No defaults, so the REDIS_* fallbacks in Load can apply.
	_ = v.BindEnv("sync.redis.addr")
	_ = v.BindEnv("sync.redis.password")
	_ = v.BindEnv("sync.redis.db")
	v.SetDefault("voice.command", speech.DefaultSpeechCommand)
	v.SetDefault("voice.voice", voice.Voice)
	v.SetDefault("voice.language", voice.Language)
	v.SetDefault("voice.rate", voice.Rate)
	v.SetDefault("voice.pitch", voice.Pitch)
}

// Load decodes v into a Config, expands paths and validates the result.
//
// Redis credentials follow this precedence:
// 1. Viper configuration (config file or PHONOCORRECT_ env vars)
// 2. Direct environment variables (REDIS_ADDR, REDIS_PASSWORD, REDIS_DB)
// 3. Default values
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	if cfg.Sync.Redis.Addr == "" {
		cfg.Sync.Redis.Addr = os.Getenv("REDIS_ADDR")
	}
	if cfg.Sync.Redis.Addr == "" {
		cfg.Sync.Redis.Addr = "localhost:6379"
	}
	if cfg.Sync.Redis.Password == "" {
		cfg.Sync.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
	if !v.IsSet("sync.redis.db") {
		if db, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
			cfg.Sync.Redis.DB = db
		}
	}

	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Sync.Dir = ExpandPath(cfg.Sync.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", common.ErrInvalidConfig, c.Logging.Format)
	}
	if err := c.Matching.Bands.Validate(); err != nil {
		return err
	}
	if c.Matching.UserBaseConfidence <= 0 || c.Matching.UserBaseConfidence > 1 {
		return fmt.Errorf("%w: matching.user_base_confidence must be in (0, 1], got %.2f",
			common.ErrInvalidConfig, c.Matching.UserBaseConfidence)
	}
	if c.Matching.Concurrency < 1 {
		return fmt.Errorf("%w: matching.concurrency must be at least 1", common.ErrInvalidConfig)
	}
	switch c.Sync.Backend {
	case SyncBackendFile:
		if c.Sync.Dir == "" {
			return fmt.Errorf("%w: sync.dir is empty", common.ErrInvalidConfig)
		}
	case SyncBackendRedis:
		if c.Sync.Redis.Addr == "" {
			return fmt.Errorf("%w: sync.redis.addr is empty", common.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown sync backend %q", common.ErrInvalidConfig, c.Sync.Backend)
	}
	if c.Sync.Attempts < 1 {
		return fmt.Errorf("%w: sync.attempts must be at least 1", common.ErrInvalidConfig)
	}
	return nil
}

// Engine returns the engine settings.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		Bands:              c.Matching.Bands,
		UserBaseConfidence: c.Matching.UserBaseConfidence,
		Concurrency:        c.Matching.Concurrency,
	}
}

// Synthesizer returns the text-to-speech program used for read-back.
func (c *Config) Synthesizer() speech.Synthesizer {
	return speech.CommandSynthesizer{Path: c.Voice.Command}
}

// RetryOptions returns the retry policy for sync transports.
func (c *Config) RetryOptions() common.RetryOptions {
	return common.RetryOptions{MaxAttempts: c.Sync.Attempts}
}
