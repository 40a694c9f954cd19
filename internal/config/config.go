// Package config provides 12-factor configuration management for the
// channel runtime's ambient concerns: the demo's runtime tunables,
// logging verbosity, and scheduler defaults.
//
// Configuration is loaded from environment variables with sensible
// defaults, mirroring the envconfig-based layout used throughout this
// codebase.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("poll timeout %v\n", cfg.Runtime.PollTimeout)
//
// Environment Variables:
//   - CHRT_REGISTRY_CAPACITY, CHRT_ENCLAVE_CAPACITY, CHRT_POLL_TIMEOUT_MS
//   - CHRT_CONNECT_RETRY_MS
//   - LOG_LEVEL, LOG_DEV
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all ambient configuration for the channel runtime.
type Config struct {
	Runtime  RuntimeConfig
	Logging  LogConfig
	Defaults DefaultsConfig
}

// RuntimeConfig holds registry/scheduler capacity and timing knobs.
type RuntimeConfig struct {
	RegistryCapacity int           `envconfig:"CHRT_REGISTRY_CAPACITY" default:"16"`
	EnclaveCapacity  int           `envconfig:"CHRT_ENCLAVE_CAPACITY" default:"16"`
	PollTimeout      time.Duration `envconfig:"CHRT_POLL_TIMEOUT_MS" default:"1000ms"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// DefaultsConfig holds the framing/connect defaults that params applies
// when a config string omits them.
type DefaultsConfig struct {
	ConnectRetryInterval time.Duration `envconfig:"CHRT_CONNECT_RETRY_MS" default:"100ms"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			RegistryCapacity: 16,
			EnclaveCapacity:  16,
			PollTimeout:      time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Defaults: DefaultsConfig{
			ConnectRetryInterval: 100 * time.Millisecond,
		},
	}
}
