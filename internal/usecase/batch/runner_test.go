package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatlog-digest/internal/adapters/report"
	"chatlog-digest/internal/domain"
	"chatlog-digest/internal/usecase/analysis"
)

type fakeAnalyzer struct {
	results map[string]error
	calls   []string
	cancel  context.CancelFunc
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, chat string, period domain.Period, targetCount int) (domain.Report, error) {
	f.calls = append(f.calls, chat)
	if f.cancel != nil {
		f.cancel()
	}
	rep := domain.Report{
		Chat:   chat,
		Period: period,
		Stats:  domain.ChatStats{TotalMessages: 10},
	}
	err := f.results[chat]
	if err == nil {
		rep.Topics = []domain.Topic{{Title: "话题", Summary: "内容", MessageCount: 10}}
	}
	return rep, err
}

var day = domain.SingleDay(time.Date(2025, 12, 11, 0, 0, 0, 0, time.UTC))

func newTestRunner(analyzer Analyzer, dir string) *Runner {
	html := report.NewHTMLRenderer()
	renderers := map[string]Renderer{"HTML": html, "JSON": report.JSONRenderer{}}
	return NewRunner(analyzer, renderers, html, report.NewWriter(dir), 0, 0, zerolog.Nop())
}

func TestRunContinuesAfterFailures(t *testing.T) {
	dir := t.TempDir()
	analyzer := &fakeAnalyzer{results: map[string]error{
		"空群": analysis.ErrNoMessages,
		"水群": analysis.ErrNoTopics,
		"坏群": errors.New("connection refused"),
	}}
	runner := newTestRunner(analyzer, dir)

	summary, err := runner.Run(context.Background(), []Target{
		{Chat: "技术讨论组", Period: day, Format: "HTML"},
		{Chat: "空群", Period: day, Format: "HTML"},
		{Chat: "水群", Period: day, Format: "HTML"},
		{Chat: "坏群", Period: day, Format: "HTML"},
		{Chat: "设计组", Period: day, Format: "json", DateFallback: true},
		{Chat: "产品团队", Period: day, Format: "pdf"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"技术讨论组", "空群", "水群", "坏群", "设计组"}, analyzer.calls)
	assert.Equal(t, 2, summary.Generated)
	assert.Equal(t, 4, summary.Skipped)
	require.Len(t, summary.Items, 6)

	assert.Equal(t, "技术讨论组_20251211.html", summary.Items[0].File)
	assert.Equal(t, 1, summary.Items[0].Topics)
	assert.Equal(t, reasonNoMessages, summary.Items[1].Skipped)
	assert.Equal(t, reasonNoTopics, summary.Items[2].Skipped)
	assert.Equal(t, 10, summary.Items[2].Messages)
	assert.Contains(t, summary.Items[3].Skipped, "connection refused")
	assert.Equal(t, "设计组_20251211.json", summary.Items[4].File)
	assert.Contains(t, summary.Items[5].Skipped, "pdf")

	for _, name := range []string{"技术讨论组_20251211.html", "设计组_20251211.json", IndexFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	index, err := os.ReadFile(filepath.Join(dir, IndexFile))
	require.NoError(t, err)
	assert.Contains(t, string(index), reasonNoTopics)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	analyzer := &fakeAnalyzer{cancel: cancel}
	runner := newTestRunner(analyzer, t.TempDir())
	runner.delay = time.Hour

	summary, err := runner.Run(ctx, []Target{
		{Chat: "a", Period: day, Format: "HTML"},
		{Chat: "b", Period: day, Format: "HTML"},
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a"}, analyzer.calls)
	assert.Equal(t, 1, summary.Generated)
}

func TestSleepHonoursContext(t *testing.T) {
	assert.NoError(t, sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
}
