package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithValidLevel(t *testing.T) {
	log, err := New(Config{Level: "debug", OutputPaths: []string{"stdout"}})
	require.NoError(t, err)
	assert.NotNil(t, log.Logger)
}

func TestNewWithInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "not-a-level", OutputPaths: []string{"stdout"}})
	assert.Error(t, err)
}

func TestNewDefaultAndDevelopment(t *testing.T) {
	assert.NotNil(t, NewDefault())
	assert.NotNil(t, NewDevelopment())
}

func TestDefaultConfigs(t *testing.T) {
	assert.Equal(t, "info", DefaultConfig().Level)
	assert.True(t, DevelopmentConfig().Development)
}

func TestForEnclave(t *testing.T) {
	log, err := New(Config{Level: "debug", OutputPaths: []string{"stdout"}})
	require.NoError(t, err)
	child := log.ForEnclave("alpha")
	assert.NotNil(t, child)
	assert.NotSame(t, log.Logger, child)
}
