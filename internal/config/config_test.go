package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 16, cfg.Runtime.RegistryCapacity)
	assert.Equal(t, 16, cfg.Runtime.EnclaveCapacity)
	assert.Equal(t, time.Second, cfg.Runtime.PollTimeout)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.Equal(t, 100*time.Millisecond, cfg.Defaults.ConnectRetryInterval)
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, 16, cfg.Runtime.RegistryCapacity)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"CHRT_REGISTRY_CAPACITY": "32",
		"CHRT_ENCLAVE_CAPACITY":  "8",
		"CHRT_POLL_TIMEOUT_MS":   "2500ms",
		"CHRT_CONNECT_RETRY_MS":  "250ms",
		"LOG_LEVEL":              "debug",
		"LOG_DEV":                "true",
	}

	for key, value := range envVars {
		err := os.Setenv(key, value)
		require.NoError(t, err)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Runtime.RegistryCapacity)
	assert.Equal(t, 8, cfg.Runtime.EnclaveCapacity)
	assert.Equal(t, 2500*time.Millisecond, cfg.Runtime.PollTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Defaults.ConnectRetryInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	err := os.Setenv("CHRT_REGISTRY_CAPACITY", "4")
	require.NoError(t, err)
	defer os.Unsetenv("CHRT_REGISTRY_CAPACITY")

	err = os.Setenv("LOG_LEVEL", "warn")
	require.NoError(t, err)
	defer os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Runtime.RegistryCapacity)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Defaults still apply for everything untouched.
	assert.Equal(t, 16, cfg.Runtime.EnclaveCapacity)
	assert.Equal(t, time.Second, cfg.Runtime.PollTimeout)
}

func TestLoggingConfig(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		dev       string
		wantLevel string
		wantDev   bool
	}{
		{name: "default values", wantLevel: "info", wantDev: false},
		{name: "debug level", level: "debug", wantLevel: "debug", wantDev: false},
		{name: "development mode", dev: "true", wantLevel: "info", wantDev: true},
		{name: "error level production", level: "error", dev: "false", wantLevel: "error", wantDev: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("LOG_LEVEL")
			os.Unsetenv("LOG_DEV")

			if tt.level != "" {
				err := os.Setenv("LOG_LEVEL", tt.level)
				require.NoError(t, err)
				defer os.Unsetenv("LOG_LEVEL")
			}
			if tt.dev != "" {
				err := os.Setenv("LOG_DEV", tt.dev)
				require.NoError(t, err)
				defer os.Unsetenv("LOG_DEV")
			}

			cfg := LoadOrDefault()

			assert.Equal(t, tt.wantLevel, cfg.Logging.Level)
			assert.Equal(t, tt.wantDev, cfg.Logging.Development)
		})
	}
}

func TestRuntimeConfig(t *testing.T) {
	tests := []struct {
		name           string
		registryCap    string
		enclaveCap     string
		wantRegistry   int
		wantEnclaveCap int
	}{
		{name: "default values", wantRegistry: 16, wantEnclaveCap: 16},
		{name: "custom registry capacity", registryCap: "64", wantRegistry: 64, wantEnclaveCap: 16},
		{name: "custom enclave capacity", enclaveCap: "4", wantRegistry: 16, wantEnclaveCap: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("CHRT_REGISTRY_CAPACITY")
			os.Unsetenv("CHRT_ENCLAVE_CAPACITY")

			if tt.registryCap != "" {
				err := os.Setenv("CHRT_REGISTRY_CAPACITY", tt.registryCap)
				require.NoError(t, err)
				defer os.Unsetenv("CHRT_REGISTRY_CAPACITY")
			}
			if tt.enclaveCap != "" {
				err := os.Setenv("CHRT_ENCLAVE_CAPACITY", tt.enclaveCap)
				require.NoError(t, err)
				defer os.Unsetenv("CHRT_ENCLAVE_CAPACITY")
			}

			cfg := LoadOrDefault()

			assert.Equal(t, tt.wantRegistry, cfg.Runtime.RegistryCapacity)
			assert.Equal(t, tt.wantEnclaveCap, cfg.Runtime.EnclaveCapacity)
		})
	}
}
