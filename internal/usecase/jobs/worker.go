// Package jobs обрабатывает очередь задач анализа: строит отчёт, сохраняет его и доставляет дайджест.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"chatlog-digest/internal/domain"
	"chatlog-digest/internal/infra/metrics"
	"chatlog-digest/internal/usecase/analysis"
)

const (
	// MaxAttempts — сколько раз задача берётся в работу, прежде чем от неё откажутся.
	MaxAttempts = 5

	deliveredTTL   = 7 * 24 * time.Hour
	receiveBackoff = time.Second
	reportExt      = "html"
)

var errRetry = errors.New("задача будет повторена")

// Analyzer строит отчёт по чату.
type Analyzer interface {
	Analyze(ctx context.Context, chat string, period domain.Period, targetCount int) (domain.Report, error)
}

// Renderer сериализует отчёт.
type Renderer interface {
	Render(rep domain.Report) ([]byte, error)
}

// ReportWriter сохраняет отчёт и возвращает путь к файлу.
type ReportWriter interface {
	WriteReport(rep domain.Report, ext string, data []byte) (string, error)
}

// Messenger доставляет дайджест и служебные ответы.
type Messenger interface {
	domain.Notifier
	SendPlain(ctx context.Context, chatID int64, text string) error
}

type outcome int

const (
	outcomeCompleted outcome = iota
	outcomeEmpty
	outcomeRetry
)

// Worker читает задачи из очереди и обрабатывает их по одной.
type Worker struct {
	queue     domain.AnalysisQueue
	cache     domain.Cache
	analyzer  Analyzer
	renderer  Renderer
	writer    ReportWriter
	messenger Messenger
	backoff   time.Duration
	log       zerolog.Logger
}

// NewWorker создаёт обработчик очереди. messenger может быть nil, тогда дайджесты не отправляются.
func NewWorker(queue domain.AnalysisQueue, cache domain.Cache, analyzer Analyzer, renderer Renderer, writer ReportWriter, messenger Messenger, log zerolog.Logger) *Worker {
	return &Worker{
		queue:     queue,
		cache:     cache,
		analyzer:  analyzer,
		renderer:  renderer,
		writer:    writer,
		messenger: messenger,
		backoff:   receiveBackoff,
		log:       log,
	}
}

// Run обрабатывает задачи до отмены контекста.
func (w *Worker) Run(ctx context.Context) {
	for {
		job, ack, err := w.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("worker: ошибка чтения очереди")
			w.pause(ctx)
			continue
		}
		w.Process(ctx, job, ack)
	}
}

// Process обрабатывает одну задачу и подтверждает её. Повторная доставка уже
// выполненной задачи подтверждается без работы.
func (w *Worker) Process(ctx context.Context, job domain.AnalysisJob, ack domain.AckFunc) {
	jobLog := w.log.With().
		Str("job_id", job.ID).
		Str("chat", job.Chat).
		Str("period", job.Period.String()).
		Str("cause", string(job.Cause)).
		Int("attempt", job.Attempt).
		Logger()

	if job.ID == "" {
		jobLog.Error().Msg("worker: получена задача без идентификатора, подтверждаем и пропускаем")
		w.ack(ack, true, jobLog)
		metrics.IncJob("invalid")
		return
	}

	ran := false
	var result outcome
	err := w.cache.Once(deliveredKey(job.ID), deliveredTTL, func() error {
		ran = true
		result = w.handle(ctx, job, jobLog)
		if result == outcomeRetry {
			return errRetry
		}
		return nil
	})

	switch {
	case err != nil && !errors.Is(err, errRetry):
		jobLog.Error().Err(err).Msg("worker: не удалось зарегистрировать задачу")
		w.ack(ack, false, jobLog)
		w.pause(ctx)
	case !ran:
		jobLog.Info().Msg("worker: задача уже была выполнена, подтверждаем")
		w.ack(ack, true, jobLog)
		metrics.IncJob("duplicate")
	case errors.Is(err, errRetry):
		w.retry(ctx, job, ack, jobLog)
	case result == outcomeEmpty:
		w.ack(ack, true, jobLog)
		metrics.IncJob("empty")
	default:
		w.ack(ack, true, jobLog)
		metrics.IncJob("completed")
	}
}

func (w *Worker) handle(ctx context.Context, job domain.AnalysisJob, jobLog zerolog.Logger) outcome {
	rep, err := w.analyzer.Analyze(ctx, job.Chat, job.Period, job.TargetCount)
	switch {
	case errors.Is(err, analysis.ErrNoMessages):
		jobLog.Info().Msg("worker: нет сообщений за период")
		w.notifyPlain(ctx, job, fmt.Sprintf("群聊「%s」在 %s 没有聊天记录", job.Chat, job.Period.String()), jobLog)
		return outcomeEmpty
	case errors.Is(err, analysis.ErrNoTopics):
		jobLog.Info().Int("messages", rep.Stats.TotalMessages).Msg("worker: темы не найдены")
		w.notifyPlain(ctx, job, fmt.Sprintf("群聊「%s」在 %s 没有值得整理的话题", job.Chat, job.Period.String()), jobLog)
		return outcomeEmpty
	case errors.Is(err, domain.ErrChatNotFound):
		jobLog.Warn().Err(err).Msg("worker: чат не найден")
		w.notifyPlain(ctx, job, fmt.Sprintf("未找到群聊「%s」", job.Chat), jobLog)
		return outcomeEmpty
	case errors.Is(err, domain.ErrInvalidConfig):
		jobLog.Warn().Err(err).Msg("worker: некорректные параметры задачи")
		w.notifyPlain(ctx, job, "请求参数无效", jobLog)
		return outcomeEmpty
	case err != nil:
		jobLog.Error().Err(err).Msg("worker: ошибка анализа")
		return outcomeRetry
	}

	data, err := w.renderer.Render(rep)
	if err != nil {
		jobLog.Error().Err(err).Msg("worker: ошибка рендера отчёта")
		return outcomeRetry
	}
	path, err := w.writer.WriteReport(rep, reportExt, data)
	if err != nil {
		jobLog.Error().Err(err).Msg("worker: не удалось сохранить отчёт")
		return outcomeRetry
	}
	jobLog.Info().Str("file", path).Int("topics", len(rep.Topics)).Msg("worker: отчёт сохранён")

	if job.TelegramChatID == 0 || w.messenger == nil {
		return outcomeCompleted
	}
	if err := w.messenger.SendDigest(ctx, job.TelegramChatID, analysis.FormatDigest(rep)); err != nil {
		if job.Cause == domain.AnalysisCauseManual && job.Attempt == 0 {
			w.notifyPlain(ctx, job, "暂时无法发送群聊精华，稍后会自动重试", jobLog)
		}
		jobLog.Error().Err(err).Msg("worker: отправка дайджеста")
		return outcomeRetry
	}
	return outcomeCompleted
}

func (w *Worker) retry(ctx context.Context, job domain.AnalysisJob, ack domain.AckFunc, jobLog zerolog.Logger) {
	job.Attempt++
	if job.Attempt >= MaxAttempts {
		jobLog.Error().Msg("worker: достигнут предел попыток, задача отброшена")
		w.ack(ack, true, jobLog)
		metrics.IncJob("failed")
		return
	}
	if err := w.queue.Enqueue(ctx, job); err != nil {
		jobLog.Error().Err(err).Msg("worker: не удалось переставить задачу, возвращаем в очередь")
		w.ack(ack, false, jobLog)
		return
	}
	jobLog.Warn().Int("next_attempt", job.Attempt).Msg("worker: задача завершилась ошибкой, повторим позже")
	w.ack(ack, true, jobLog)
	metrics.IncJob("retried")
}

func (w *Worker) notifyPlain(ctx context.Context, job domain.AnalysisJob, text string, jobLog zerolog.Logger) {
	if job.TelegramChatID == 0 || w.messenger == nil {
		return
	}
	if err := w.messenger.SendPlain(ctx, job.TelegramChatID, text); err != nil {
		jobLog.Error().Err(err).Msg("worker: не удалось отправить уведомление")
	}
}

func (w *Worker) ack(ack domain.AckFunc, success bool, jobLog zerolog.Logger) {
	if err := ack(success); err != nil {
		jobLog.Error().Err(err).Bool("success", success).Msg("worker: не удалось подтвердить задачу")
	}
}

func (w *Worker) pause(ctx context.Context) {
	timer := time.NewTimer(w.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func deliveredKey(id string) string {
	return "analysis:job:" + id
}
