// Package analysis собирает отчёт о темах чата: выгрузка, сегментация, оценка, статистика.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"chatlog-digest/internal/domain"
	"chatlog-digest/internal/infra/metrics"
)

// ErrNoMessages возвращается, если за период в чате нет сообщений.
var ErrNoMessages = errors.New("в чате нет сообщений за период")

// ErrNoTopics возвращается, если ни одна сессия не набрала достаточно содержательных сообщений.
// Отчёт при этом заполнен статистикой.
var ErrNoTopics = errors.New("не найдено тем для обсуждения")

// Service строит отчёты по чатам.
type Service struct {
	source      domain.MessageSource
	segmenter   domain.Segmenter
	scorer      domain.TopicScorer
	window      time.Duration
	targetCount int
	now         func() time.Time
	log         zerolog.Logger
}

// NewService создаёт сервис анализа. targetCount == 0 включает динамическое число тем.
func NewService(source domain.MessageSource, segmenter domain.Segmenter, scorer domain.TopicScorer, window time.Duration, targetCount int, log zerolog.Logger) *Service {
	return &Service{
		source:      source,
		segmenter:   segmenter,
		scorer:      scorer,
		window:      window,
		targetCount: targetCount,
		now:         time.Now,
		log:         log,
	}
}

// Analyze выгружает сообщения чата за период и строит отчёт.
// targetCount == 0 означает значение по умолчанию из конфигурации.
func (s *Service) Analyze(ctx context.Context, chat string, period domain.Period, targetCount int) (domain.Report, error) {
	if targetCount < 0 {
		return domain.Report{}, fmt.Errorf("%w: target count %d", domain.ErrInvalidConfig, targetCount)
	}
	chatID, messages, err := s.source.FetchMessages(ctx, chat, period)
	if err != nil {
		return domain.Report{}, fmt.Errorf("выгрузка сообщений %s: %w", chat, err)
	}
	s.log.Debug().
		Str("chat", chat).
		Str("chat_id", chatID).
		Str("period", period.String()).
		Int("messages", len(messages)).
		Msg("analysis: сообщения получены")

	rep, err := s.AnalyzeMessages(chat, period, messages, targetCount)
	rep.ChatID = chatID
	return rep, err
}

// AnalyzeMessages строит отчёт по уже выгруженным сообщениям.
func (s *Service) AnalyzeMessages(chat string, period domain.Period, messages []domain.Message, targetCount int) (domain.Report, error) {
	start := time.Now()
	rep := domain.Report{Chat: chat, Period: period, GeneratedAt: s.now()}

	stats := ComputeStats(messages)
	rep.Stats = stats
	if stats.TotalMessages-stats.Dropped == 0 {
		return rep, ErrNoMessages
	}

	if targetCount == 0 {
		targetCount = s.targetCount
	}
	groups, err := s.segmenter.Segment(messages, s.window)
	if err != nil {
		return domain.Report{}, fmt.Errorf("сегментация: %w", err)
	}
	topics, err := s.scorer.ScoreAndRank(groups, targetCount)
	if err != nil {
		return domain.Report{}, fmt.Errorf("ранжирование тем: %w", err)
	}
	rep.Topics = topics
	metrics.ObserveAnalysis(start, stats.TotalMessages, stats.Dropped, len(topics))

	s.log.Info().
		Str("chat", chat).
		Int("messages", stats.TotalMessages).
		Int("dropped", stats.Dropped).
		Int("sessions", len(groups)).
		Int("topics", len(topics)).
		Dur("took", time.Since(start)).
		Msg("analysis: отчёт построен")

	if len(topics) == 0 {
		return rep, ErrNoTopics
	}
	return rep, nil
}
