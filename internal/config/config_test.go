package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 16000, cfg.SampleRate)
	assert.Equal(t, 16, cfg.Components)
	assert.Equal(t, 200, cfg.MaxIter)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 3, cfg.EnrollSamples)
	assert.Equal(t, -50.0, cfg.Threshold)
	assert.Equal(t, 3, cfg.Checks)
	assert.Equal(t, 0.7, cfg.PassRatio)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SAMPLE_RATE", "8000")
	t.Setenv("GMM_COMPONENTS", "8")
	t.Setenv("VERIFY_THRESHOLD", "-35.5")
	t.Setenv("SESSION_PASS_RATIO", "0.5")
	t.Setenv("STORE_IN_MEMORY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.SampleRate)
	assert.Equal(t, 8, cfg.Components)
	assert.Equal(t, -35.5, cfg.Threshold)
	assert.Equal(t, 0.5, cfg.PassRatio)
	assert.True(t, cfg.StoreInMemory)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SESSION_PASS_RATIO", "1.5")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMalformedEnvFallsBack(t *testing.T) {
	t.Setenv("GMM_COMPONENTS", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Components)
}
