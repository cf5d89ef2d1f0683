package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Sync     SyncConfig     `mapstructure:"sync"     validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// SyncConfig describes how to reach the external sync handlers that perform
// the actual per-platform activity fetches. A missing secret or base URL is a
// configuration error and fails startup; no amount of task-level retrying
// fixes misconfiguration.
type SyncConfig struct {
	BaseURL        string `mapstructure:"base_url"        validate:"required,url"`
	SharedSecret   string `mapstructure:"shared_secret"   validate:"required,min=16"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"required,gt=0,lte=300"`
}

// QueueConfig contains tunables for the background sync task queue.
type QueueConfig struct {
	// DefaultBatchLimit caps how many tasks one trigger invocation processes
	// when the caller does not supply a limit.
	DefaultBatchLimit int `mapstructure:"default_batch_limit" validate:"required,gt=0"`

	// RetentionDays is how long terminal (completed/failed) rows are kept
	// before the garbage collector may delete them.
	RetentionDays int `mapstructure:"retention_days" validate:"required,gt=0"`

	// StuckAfterMinutes is how long a task may sit in processing before the
	// reclaim sweep considers its claim abandoned.
	StuckAfterMinutes int `mapstructure:"stuck_after_minutes" validate:"required,gt=0"`
}
