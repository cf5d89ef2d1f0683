// Package config defines the application configuration structure and loading.
//
// Configuration is loaded from an optional YAML file and from environment
// variables with the STREAKR_ prefix, with environment variables taking
// precedence. All loaded configuration is validated before use; validation
// failures are fatal at startup.
package config
