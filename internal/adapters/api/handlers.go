// Package api описывает HTTP-ручки сервиса тем.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatlog-digest/internal/adapters/checklist"
	"chatlog-digest/internal/adapters/report"
	"chatlog-digest/internal/domain"
	httpinfra "chatlog-digest/internal/infra/http"
	"chatlog-digest/internal/usecase/analysis"
)

// Analyzer строит отчёт по чату.
type Analyzer interface {
	Analyze(ctx context.Context, chat string, period domain.Period, targetCount int) (domain.Report, error)
}

// RoomSearcher ищет групповые чаты.
type RoomSearcher interface {
	Search(keyword string) []domain.ChatRoom
}

// Pinger проверяет доступность сервиса истории.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers — зависимости ручек. Jobs и Rooms необязательны.
type Handlers struct {
	analyzer Analyzer
	jobs     domain.AnalysisQueue
	rooms    RoomSearcher
	pinger   Pinger
	html     *report.HTMLRenderer
	loc      *time.Location
	now      func() time.Time
	log      zerolog.Logger
}

// NewHandlers создаёт набор ручек.
func NewHandlers(analyzer Analyzer, jobs domain.AnalysisQueue, rooms RoomSearcher, pinger Pinger, loc *time.Location, log zerolog.Logger) *Handlers {
	return &Handlers{
		analyzer: analyzer,
		jobs:     jobs,
		rooms:    rooms,
		pinger:   pinger,
		html:     report.NewHTMLRenderer(),
		loc:      loc,
		now:      time.Now,
		log:      log,
	}
}

// Register подключает ручки к роутеру. /healthz не требует токена.
func (h *Handlers) Register(r chi.Router, token string) {
	r.Get("/healthz", h.health)
	r.Group(func(protected chi.Router) {
		protected.Use(httpinfra.TokenAuthMiddleware(token))
		protected.Get("/api/v1/topics", h.topics)
		protected.Post("/api/v1/jobs", h.enqueue)
		protected.Get("/api/v1/chatrooms", h.chatRooms)
	})
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			httpinfra.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "chatlog": err.Error()})
			return
		}
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) topics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	chat := strings.TrimSpace(q.Get("chat"))
	if chat == "" {
		httpinfra.WriteError(w, http.StatusBadRequest, "chat is required")
		return
	}
	period, ok := h.period(q.Get("time"))
	if !ok {
		httpinfra.WriteError(w, http.StatusBadRequest, "invalid time")
		return
	}
	target, ok := parseTarget(q.Get("target"))
	if !ok {
		httpinfra.WriteError(w, http.StatusBadRequest, "target must be a non-negative integer")
		return
	}
	format := strings.ToLower(q.Get("format"))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "html" && format != "text" {
		httpinfra.WriteError(w, http.StatusBadRequest, "format must be json, html or text")
		return
	}

	rep, err := h.analyzer.Analyze(r.Context(), chat, period, target)
	switch {
	case err == nil, errors.Is(err, analysis.ErrNoTopics):
	case errors.Is(err, analysis.ErrNoMessages), errors.Is(err, domain.ErrChatNotFound):
		httpinfra.WriteError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, domain.ErrInvalidConfig):
		httpinfra.WriteError(w, http.StatusBadRequest, err.Error())
		return
	default:
		h.log.Error().Err(err).Str("chat", chat).Str("request_id", httpinfra.RequestID(r)).Msg("api: ошибка анализа")
		httpinfra.WriteError(w, http.StatusBadGateway, "analysis failed")
		return
	}

	switch format {
	case "html":
		page, err := h.html.Render(rep)
		if err != nil {
			httpinfra.WriteError(w, http.StatusInternalServerError, "render failed")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(analysis.FormatText(rep)))
	default:
		httpinfra.WriteJSON(w, http.StatusOK, rep)
	}
}

type jobRequest struct {
	Chat           string `json:"chat"`
	Time           string `json:"time"`
	Target         int    `json:"target"`
	TelegramChatID int64  `json:"telegram_chat_id"`
}

func (h *Handlers) enqueue(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		httpinfra.WriteError(w, http.StatusServiceUnavailable, "job queue is not configured")
		return
	}
	defer r.Body.Close()
	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Chat = strings.TrimSpace(req.Chat)
	if req.Chat == "" {
		httpinfra.WriteError(w, http.StatusBadRequest, "chat is required")
		return
	}
	if req.Target < 0 {
		httpinfra.WriteError(w, http.StatusBadRequest, "target must be non-negative")
		return
	}
	period, ok := h.period(req.Time)
	if !ok {
		httpinfra.WriteError(w, http.StatusBadRequest, "invalid time")
		return
	}

	job := domain.AnalysisJob{
		ID:             uuid.NewString(),
		Chat:           req.Chat,
		Period:         period,
		TargetCount:    req.Target,
		TelegramChatID: req.TelegramChatID,
		RequestedAt:    h.now().UTC(),
		Cause:          domain.AnalysisCauseAPI,
	}
	if err := h.jobs.Enqueue(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("chat", job.Chat).Msg("api: не удалось поставить задачу")
		httpinfra.WriteError(w, http.StatusServiceUnavailable, "failed to enqueue job")
		return
	}
	httpinfra.WriteJSON(w, http.StatusAccepted, map[string]any{
		"job_id": job.ID,
		"chat":   job.Chat,
		"period": job.Period.String(),
	})
}

func (h *Handlers) chatRooms(w http.ResponseWriter, r *http.Request) {
	if h.rooms == nil {
		httpinfra.WriteError(w, http.StatusServiceUnavailable, "chatroom directory is not configured")
		return
	}
	rooms := h.rooms.Search(r.URL.Query().Get("keyword"))
	if rooms == nil {
		rooms = []domain.ChatRoom{}
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"items": rooms})
}

// period разбирает выражение даты. Пустое значение означает вчерашний день.
func (h *Handlers) period(expr string) (domain.Period, bool) {
	now := h.now().In(h.loc)
	if strings.TrimSpace(expr) == "" {
		expr = "昨天"
	}
	return checklist.NormalizeDate(expr, now)
}

func parseTarget(raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
