package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "PROXIMITY_EXCELLENT_M", "PROXIMITY_THRESHOLD_M", "MAX_ACCURACY_M", "OFFICIAL_PASSWORD", "SESSION_SECRET", "GATE_IDLE_TTL"} {
		t.Setenv(k, "")
	}

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "9595", cfg.Port)
	assert.Equal(t, 50.0, cfg.Proximity.ExcellentMeters)
	assert.Equal(t, 100.0, cfg.Proximity.ThresholdMeters)
	assert.Equal(t, 0.0, cfg.Proximity.MaxAccuracyMeters)
	assert.Empty(t, cfg.OfficialPassword)
	assert.Equal(t, 30*time.Minute, cfg.GateIdleTTL)
}

func TestNew_SessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)

	assert.True(t, a.SecretGenerated)
	assert.Len(t, a.SessionSecret, 64)
	assert.NotEqual(t, a.SessionSecret, b.SessionSecret)

	t.Setenv("SESSION_SECRET", "from-env")
	c, err := New()
	require.NoError(t, err)
	assert.False(t, c.SecretGenerated)
	assert.Equal(t, "from-env", c.SessionSecret)
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("PROXIMITY_THRESHOLD_M", "150")
	t.Setenv("MAX_ACCURACY_M", "30.5")
	t.Setenv("GATE_IDLE_TTL", "5m")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "8088", cfg.Port)
	assert.Equal(t, 150.0, cfg.Proximity.ThresholdMeters)
	assert.Equal(t, 30.5, cfg.Proximity.MaxAccuracyMeters)
	assert.Equal(t, 5*time.Minute, cfg.GateIdleTTL)
}

func TestNew_InvalidNumber(t *testing.T) {
	t.Setenv("PROXIMITY_EXCELLENT_M", "fifty")
	_, err := New()
	assert.ErrorContains(t, err, "PROXIMITY_EXCELLENT_M")
}

func TestNew_InvalidDuration(t *testing.T) {
	t.Setenv("GATE_IDLE_TTL", "-1m")
	_, err := New()
	assert.ErrorContains(t, err, "GATE_IDLE_TTL")
}
