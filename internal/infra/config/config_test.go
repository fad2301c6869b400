package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessDefaults(t *testing.T) {
	t.Setenv("TZ", "Asia/Shanghai")
	cfg, err := Process()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Analysis.Window)
	assert.Equal(t, 2, cfg.Analysis.MinMessages)
	assert.Equal(t, 50, cfg.Analysis.TargetDivisor)
	assert.Equal(t, 1.5, cfg.Score.DiversityBonus)
	assert.Equal(t, 10.0, cfg.Score.Max)
	assert.Equal(t, "http://127.0.0.1:5030", cfg.Chatlog.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Batch.RequestDelay)
	assert.Equal(t, "analysis_jobs", cfg.Queues.Analysis)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Shanghai", loc.String())
}

func TestProcessOverrides(t *testing.T) {
	t.Setenv("SESSION_WINDOW", "45m")
	t.Setenv("TOPIC_FIXED_TARGET", "3")
	t.Setenv("SCORE_MAX", "0")
	t.Setenv("TG_BOT_TOKEN", "token")

	cfg, err := Process()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, cfg.Analysis.Window)
	assert.Equal(t, 3, cfg.Analysis.FixedTarget)
	assert.Equal(t, 0.0, cfg.Score.Max)
	assert.Equal(t, "token", cfg.Telegram.Token)
}

func TestProcessRejectsBadDuration(t *testing.T) {
	t.Setenv("SESSION_WINDOW", "half an hour")
	_, err := Process()
	assert.Error(t, err)
}

func TestLocationInvalid(t *testing.T) {
	_, err := AppConfig{TZ: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}
