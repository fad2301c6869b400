package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatlog-digest/internal/domain"
	"chatlog-digest/internal/usecase/analysis"
)

type fakeAnalyzer struct {
	err        error
	lastChat   string
	lastPeriod domain.Period
	lastTarget int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, chat string, period domain.Period, targetCount int) (domain.Report, error) {
	f.lastChat, f.lastPeriod, f.lastTarget = chat, period, targetCount
	rep := domain.Report{Chat: chat, Period: period, Stats: domain.ChatStats{TotalMessages: 3}}
	if f.err == nil {
		rep.Topics = []domain.Topic{{Title: "发布计划", Summary: "周五发布 | 回滚预案", MessageCount: 3}}
	}
	return rep, f.err
}

type fakeQueue struct {
	jobs []domain.AnalysisJob
}

func (q *fakeQueue) Enqueue(ctx context.Context, job domain.AnalysisJob) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Receive(ctx context.Context) (domain.AnalysisJob, domain.AckFunc, error) {
	return domain.AnalysisJob{}, nil, errors.New("not implemented")
}

type fakeRooms []domain.ChatRoom

func (f fakeRooms) Search(keyword string) []domain.ChatRoom {
	var out []domain.ChatRoom
	for _, room := range f {
		if strings.Contains(room.DisplayName(), keyword) {
			out = append(out, room)
		}
	}
	return out
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func newRouter(t *testing.T, analyzer Analyzer, queue domain.AnalysisQueue, token string) (http.Handler, *Handlers) {
	t.Helper()
	h := NewHandlers(analyzer, queue, fakeRooms{{Name: "1@chatroom", NickName: "技术讨论组"}}, fakePinger{}, time.UTC, zerolog.Nop())
	h.now = func() time.Time { return time.Date(2025, 12, 12, 10, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	h.Register(r, token)
	return r, h
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTopicsJSON(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	router, _ := newRouter(t, analyzer, nil, "")

	rec := do(t, router, http.MethodGet, "/api/v1/topics?chat=%E6%8A%80%E6%9C%AF%E8%AE%A8%E8%AE%BA%E7%BB%84&target=3", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var rep domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "技术讨论组", rep.Chat)
	assert.Len(t, rep.Topics, 1)
	assert.Equal(t, 3, analyzer.lastTarget)
	assert.Equal(t, "2025-12-11", analyzer.lastPeriod.String())
}

func TestTopicsFormats(t *testing.T) {
	router, _ := newRouter(t, &fakeAnalyzer{}, nil, "")

	rec := do(t, router, http.MethodGet, "/api/v1/topics?chat=a&time=2025-12-01,2025-12-03&format=html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<li>回滚预案</li>")

	rec = do(t, router, http.MethodGet, "/api/v1/topics?chat=a&format=text", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "今日热点话题")
	assert.NotContains(t, rec.Body.String(), "<b>")
}

func TestTopicsValidation(t *testing.T) {
	router, _ := newRouter(t, &fakeAnalyzer{}, nil, "")
	for _, target := range []string{
		"/api/v1/topics",
		"/api/v1/topics?chat=a&time=someday",
		"/api/v1/topics?chat=a&target=-1",
		"/api/v1/topics?chat=a&target=x",
		"/api/v1/topics?chat=a&format=pdf",
	} {
		rec := do(t, router, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestTopicsErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{analysis.ErrNoMessages, http.StatusNotFound},
		{domain.ErrChatNotFound, http.StatusNotFound},
		{analysis.ErrNoTopics, http.StatusOK},
		{errors.New("boom"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		router, _ := newRouter(t, &fakeAnalyzer{err: tt.err}, nil, "")
		rec := do(t, router, http.MethodGet, "/api/v1/topics?chat=a", "")
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
	}
}

func TestEnqueueJob(t *testing.T) {
	queue := &fakeQueue{}
	router, _ := newRouter(t, &fakeAnalyzer{}, queue, "")

	rec := do(t, router, http.MethodPost, "/api/v1/jobs", `{"chat":"技术讨论组","time":"前天","telegram_chat_id":42}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, queue.jobs, 1)
	job := queue.jobs[0]
	assert.Equal(t, job.ID, resp["job_id"])
	assert.Equal(t, "2025-12-10", job.Period.String())
	assert.Equal(t, int64(42), job.TelegramChatID)
	assert.Equal(t, domain.AnalysisCauseAPI, job.Cause)

	rec = do(t, router, http.MethodPost, "/api/v1/jobs", `{"chat":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, router, http.MethodPost, "/api/v1/jobs", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnqueueWithoutQueue(t *testing.T) {
	router, _ := newRouter(t, &fakeAnalyzer{}, nil, "")
	rec := do(t, router, http.MethodPost, "/api/v1/jobs", `{"chat":"a"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChatRooms(t *testing.T) {
	router, _ := newRouter(t, &fakeAnalyzer{}, nil, "")
	rec := do(t, router, http.MethodGet, "/api/v1/chatrooms?keyword=%E6%8A%80%E6%9C%AF", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1@chatroom")

	rec = do(t, router, http.MethodGet, "/api/v1/chatrooms?keyword=nothing", "")
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestTokenProtectsAPIButNotHealth(t *testing.T) {
	router, h := newRouter(t, &fakeAnalyzer{}, nil, "secret")

	rec := do(t, router, http.MethodGet, "/api/v1/topics?chat=a", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/topics?chat=a", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	h.pinger = fakePinger{err: errors.New("connection refused")}
	rec = do(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
