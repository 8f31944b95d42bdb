// Package config loads the schemacat configuration from schemacat.yml
// and the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full schemacat configuration.
type Config struct {
	Remote   RemoteConfig   `mapstructure:"remote"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Registry RegistryConfig `mapstructure:"registry"`
	Store    StoreConfig    `mapstructure:"store"`
	Hooks    HooksConfig    `mapstructure:"hooks"`
}

// RemoteConfig addresses the remote collection store.
type RemoteConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	CollectionID   string `mapstructure:"collection_id"`
	CallTimeoutSec int    `mapstructure:"call_timeout_seconds"`
}

// SyncConfig tunes the sync engine.
type SyncConfig struct {
	Concurrency   int `mapstructure:"concurrency"`
	MaxAttempts   int `mapstructure:"max_attempts"`
	BaseBackoffMS int `mapstructure:"base_backoff_ms"`
}

// RegistryConfig locates the registry index snapshot and shapes the
// generated tree.
type RegistryConfig struct {
	IndexPath string   `mapstructure:"index_path"`
	Grouping  string   `mapstructure:"grouping"` // "flat" or "module"
	SkipTypes []string `mapstructure:"skip_types"`
}

// StoreConfig configures the optional generator-record store.
type StoreConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// HooksConfig configures the registry-event hook server.
type HooksConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads schemacat.yml from the working directory, applying
// defaults and environment overrides.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("remote.call_timeout_seconds", 10)
	v.SetDefault("sync.concurrency", 4)
	v.SetDefault("sync.max_attempts", 4)
	v.SetDefault("sync.base_backoff_ms", 250)
	v.SetDefault("registry.index_path", "registry-index.json")
	v.SetDefault("registry.grouping", "flat")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("hooks.addr", ":8184")

	v.SetConfigName("schemacat")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SCHEMACAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig rejects settings the engine cannot run with.
func validateConfig(cfg *Config) error {
	if cfg.Remote.BaseURL != "" && !strings.HasPrefix(cfg.Remote.BaseURL, "http") {
		return fmt.Errorf("remote.base_url must be an http(s) URL, got: %s", cfg.Remote.BaseURL)
	}
	if cfg.Sync.Concurrency < 1 {
		return fmt.Errorf("sync.concurrency must be at least 1, got: %d", cfg.Sync.Concurrency)
	}
	if cfg.Sync.MaxAttempts < 1 {
		return fmt.Errorf("sync.max_attempts must be at least 1, got: %d", cfg.Sync.MaxAttempts)
	}
	switch cfg.Registry.Grouping {
	case "flat", "module":
	default:
		return fmt.Errorf("registry.grouping must be %q or %q, got: %s", "flat", "module", cfg.Registry.Grouping)
	}
	return nil
}
