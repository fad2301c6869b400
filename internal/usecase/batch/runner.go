// Package batch строит отчёты по списку чатов последовательно, с паузой между запросами.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chatlog-digest/internal/domain"
	"chatlog-digest/internal/infra/metrics"
	"chatlog-digest/internal/usecase/analysis"
)

const (
	// IndexFile — имя страницы-оглавления.
	IndexFile = "index.html"

	reasonNoMessages = "没有消息"
	reasonNoTopics   = "没有可用话题"
)

// Target — чат, по которому нужно построить отчёт.
type Target struct {
	Chat   string
	Period domain.Period
	// Format — HTML или JSON.
	Format string
	// DateFallback выставляется, если дата была задана с ошибкой и заменена вчерашним днём.
	DateFallback bool
}

// Analyzer строит отчёт по чату.
type Analyzer interface {
	Analyze(ctx context.Context, chat string, period domain.Period, targetCount int) (domain.Report, error)
}

// Renderer сериализует отчёт в один из форматов.
type Renderer interface {
	Render(rep domain.Report) ([]byte, error)
}

// IndexRenderer строит оглавление пакетного запуска.
type IndexRenderer interface {
	RenderIndex(summary domain.BatchSummary, generated time.Time) ([]byte, error)
}

// ReportWriter сохраняет файлы отчётов.
type ReportWriter interface {
	WriteReport(rep domain.Report, ext string, data []byte) (string, error)
	WriteFile(name string, data []byte) (string, error)
	Dir() string
}

// Runner обрабатывает список чатов: ошибка по одному чату не останавливает остальные.
type Runner struct {
	analyzer    Analyzer
	renderers   map[string]Renderer
	index       IndexRenderer
	writer      ReportWriter
	delay       time.Duration
	targetCount int
	now         func() time.Time
	log         zerolog.Logger
}

// NewRunner создаёт пакетный обработчик. Ключи renderers — форматы в верхнем регистре.
func NewRunner(analyzer Analyzer, renderers map[string]Renderer, index IndexRenderer, writer ReportWriter, delay time.Duration, targetCount int, log zerolog.Logger) *Runner {
	return &Runner{
		analyzer:    analyzer,
		renderers:   renderers,
		index:       index,
		writer:      writer,
		delay:       delay,
		targetCount: targetCount,
		now:         time.Now,
		log:         log,
	}
}

// Run строит отчёты по всем целям и пишет оглавление. Возвращает ошибку только
// при отмене контекста или если не удалось записать оглавление.
func (r *Runner) Run(ctx context.Context, targets []Target) (domain.BatchSummary, error) {
	summary := domain.BatchSummary{OutputDir: r.writer.Dir()}
	for i, target := range targets {
		if i > 0 && r.delay > 0 {
			if err := sleep(ctx, r.delay); err != nil {
				return summary, err
			}
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		item := r.process(ctx, target)
		if item.OK() {
			summary.Generated++
		} else {
			summary.Skipped++
		}
		summary.Items = append(summary.Items, item)
	}

	page, err := r.index.RenderIndex(summary, r.now())
	if err != nil {
		return summary, err
	}
	if _, err := r.writer.WriteFile(IndexFile, page); err != nil {
		return summary, err
	}
	r.log.Info().
		Int("generated", summary.Generated).
		Int("skipped", summary.Skipped).
		Str("dir", summary.OutputDir).
		Msg("batch: обработка завершена")
	return summary, nil
}

func (r *Runner) process(ctx context.Context, target Target) domain.BatchItem {
	item := domain.BatchItem{Chat: target.Chat, Period: target.Period.String()}
	log := r.log.With().Str("chat", target.Chat).Str("period", item.Period).Logger()
	if target.DateFallback {
		log.Warn().Msg("batch: дата не распознана, используется вчерашний день")
	}

	format := strings.ToUpper(target.Format)
	renderer, ok := r.renderers[format]
	if !ok {
		item.Skipped = fmt.Sprintf("неизвестный формат %q", target.Format)
		log.Warn().Str("format", target.Format).Msg("batch: неизвестный формат")
		metrics.IncReport("failed")
		return item
	}

	rep, err := r.analyzer.Analyze(ctx, target.Chat, target.Period, r.targetCount)
	item.Messages = rep.Stats.TotalMessages
	switch {
	case errors.Is(err, analysis.ErrNoMessages):
		item.Skipped = reasonNoMessages
		log.Warn().Msg("batch: нет сообщений за период")
		metrics.IncReport("skipped")
		return item
	case errors.Is(err, analysis.ErrNoTopics):
		item.Skipped = reasonNoTopics
		log.Warn().Int("messages", item.Messages).Msg("batch: темы не найдены")
		metrics.IncReport("skipped")
		return item
	case err != nil:
		item.Skipped = err.Error()
		log.Error().Err(err).Msg("batch: ошибка анализа")
		metrics.IncReport("failed")
		return item
	}

	data, err := renderer.Render(rep)
	if err == nil {
		var path string
		path, err = r.writer.WriteReport(rep, strings.ToLower(format), data)
		item.File = filepath.Base(path)
	}
	if err != nil {
		item.File = ""
		item.Skipped = err.Error()
		log.Error().Err(err).Msg("batch: ошибка сохранения отчёта")
		metrics.IncReport("failed")
		return item
	}

	item.Topics = len(rep.Topics)
	log.Info().Int("topics", item.Topics).Str("file", item.File).Msg("batch: отчёт сохранён")
	metrics.IncReport("generated")
	return item
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
