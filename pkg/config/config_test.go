package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Load validates internally; callers must not need a second Validate
// pass. Location is only resolved during validation, so a resolved
// location proves the pass ran.
func TestLoad_ReturnsValidatedConfig(t *testing.T) {
	cfg := Load("test")

	require.NotNil(t, cfg.Location)
	assert.Equal(t, cfg.Timezone, cfg.Location.String())
	assert.NotNil(t, cfg.Log)
	assert.NotNil(t, cfg.Client)
	assert.Positive(t, cfg.SweepBatchSize)
	assert.Positive(t, cfg.LookaheadDays)
}

func TestValidate_RejectsBadPolicy(t *testing.T) {
	cfg := Load("test")

	cfg.Timezone = "Neverland/Nowhere"
	require.Error(t, cfg.Validate())

	cfg = Load("test")
	cfg.DayStart = "21:00"
	cfg.DayEnd = "06:00"
	require.Error(t, cfg.Validate())

	cfg = Load("test")
	cfg.CancelNoticeHours = -1
	require.Error(t, cfg.Validate())
}
