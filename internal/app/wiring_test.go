package app

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatlog-digest/internal/adapters/ranker"
	"chatlog-digest/internal/domain"
	"chatlog-digest/internal/infra/cache"
	"chatlog-digest/internal/infra/config"
)

func TestScorerConfigMatchesDefaults(t *testing.T) {
	cfg, err := config.Process()
	require.NoError(t, err)
	assert.Equal(t, ranker.DefaultConfig(), ScorerConfig(cfg))
}

func TestNewPipeline(t *testing.T) {
	t.Setenv("TZ", "Asia/Shanghai")
	cfg, err := config.Process()
	require.NoError(t, err)

	p, err := NewPipeline(cfg, cache.NewMemory(), zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, p.Analysis)
	assert.NotNil(t, p.Directory)
	assert.Equal(t, "Asia/Shanghai", p.Location.String())
}

func TestNewPipelineRejectsBadConfig(t *testing.T) {
	cfg, err := config.Process()
	require.NoError(t, err)

	bad := cfg
	bad.Analysis.Window = 0
	_, err = NewPipeline(bad, cache.NewMemory(), zerolog.Nop())
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)

	bad = cfg
	bad.Score.MessageAnchor = 0
	_, err = NewPipeline(bad, cache.NewMemory(), zerolog.Nop())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestNewQueueRequiresBackend(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	cfg, err := config.Process()
	require.NoError(t, err)
	_, _, err = NewQueue(cfg, nil)
	assert.ErrorIs(t, err, ErrNoQueue)
}

func TestNewCacheFallsBackToMemory(t *testing.T) {
	_, ok := NewCache(nil).(*cache.MemoryCache)
	assert.True(t, ok)
}
