package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
//
// Environment variables use the STREAKR_ prefix with underscores separating
// nested keys, e.g. STREAKR_DATABASE_URL, STREAKR_SYNC_SHARED_SECRET.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file alongside the binary or in /etc/streakr.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/streakr")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; env vars can carry the whole config.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("STREAKR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so bind the
	// full key set explicitly.
	for _, key := range []string{
		"server.port",
		"server.log_level",
		"database.url",
		"sync.base_url",
		"sync.shared_secret",
		"sync.timeout_seconds",
		"queue.default_batch_limit",
		"queue.retention_days",
		"queue.stuck_after_minutes",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for settings that have sensible values
// without operator input. Secrets and endpoints deliberately have none.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("sync.timeout_seconds", 30)
	v.SetDefault("queue.default_batch_limit", 5)
	v.SetDefault("queue.retention_days", 7)
	v.SetDefault("queue.stuck_after_minutes", 30)
}
