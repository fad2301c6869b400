// Package schedule раз в сутки ставит в очередь анализ вчерашнего дня по всем чатам списка.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatlog-digest/internal/domain"
)

// ErrInvalidTimezone возвращается, если указан некорректный часовой пояс.
var ErrInvalidTimezone = errors.New("invalid timezone")

// ErrInvalidTime возвращается, если время запуска не в формате ЧЧ:ММ.
var ErrInvalidTime = errors.New("invalid daily time")

const runKeyTTL = 48 * time.Hour

// ChatSource перечисляет чаты для ежедневного анализа.
type ChatSource interface {
	Chats() ([]string, error)
}

// ChatSourceFunc позволяет передать функцию как ChatSource.
type ChatSourceFunc func() ([]string, error)

// Chats вызывает функцию.
func (f ChatSourceFunc) Chats() ([]string, error) { return f() }

// Planner ставит задачи анализа по расписанию.
type Planner struct {
	queue        domain.AnalysisQueue
	cache        domain.Cache
	chats        ChatSource
	dailyAt      time.Time
	loc          *time.Location
	telegramChat int64
	log          zerolog.Logger
}

// NewPlanner создаёт планировщик. dailyAt — локальное время запуска ЧЧ:ММ в часовом поясе timezone.
func NewPlanner(queue domain.AnalysisQueue, cache domain.Cache, chats ChatSource, dailyAt, timezone string, telegramChat int64, log zerolog.Logger) (*Planner, error) {
	at, err := ParseLocalTime(dailyAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTime, dailyAt)
	}
	normalized, err := normalizeTimezone(timezone)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(normalized)
	if err != nil {
		return nil, fmt.Errorf("загрузка часового пояса: %w", err)
	}
	return &Planner{
		queue:        queue,
		cache:        cache,
		chats:        chats,
		dailyAt:      at,
		loc:          loc,
		telegramChat: telegramChat,
		log:          log,
	}, nil
}

// Run проверяет расписание с интервалом interval до отмены контекста.
func (p *Planner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := p.Tick(ctx, time.Now()); err != nil {
			p.log.Error().Err(err).Msg("scheduler: ошибка планирования")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Tick ставит задачи за вчерашний день, если время запуска наступило и сегодня
// задачи ещё не ставились. Возвращает число поставленных задач.
func (p *Planner) Tick(ctx context.Context, now time.Time) (int, error) {
	local := now.In(p.loc)
	if !p.due(local) {
		return 0, nil
	}

	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.loc)
	period := domain.SingleDay(today.AddDate(0, 0, -1))
	enqueued := 0
	err := p.cache.Once(runKey(today), runKeyTTL, func() error {
		chats, err := p.chats.Chats()
		if err != nil {
			return fmt.Errorf("список чатов: %w", err)
		}
		for _, chat := range chats {
			job := domain.AnalysisJob{
				ID:             jobID(period, chat),
				Chat:           chat,
				Period:         period,
				TelegramChatID: p.telegramChat,
				RequestedAt:    now.UTC(),
				Cause:          domain.AnalysisCauseScheduled,
			}
			if err := p.queue.Enqueue(ctx, job); err != nil {
				return fmt.Errorf("постановка задачи %s: %w", chat, err)
			}
			enqueued++
		}
		return nil
	})
	if err != nil {
		return enqueued, err
	}
	if enqueued > 0 {
		p.log.Info().Int("jobs", enqueued).Str("period", period.String()).Msg("scheduler: задачи поставлены")
	}
	return enqueued, nil
}

func (p *Planner) due(local time.Time) bool {
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= p.dailyAt.Hour()*60+p.dailyAt.Minute()
}

func runKey(day time.Time) string {
	return "schedule:daily:" + day.Format("20060102")
}

// jobID детерминирован для пары период-чат, чтобы повторная постановка не
// приводила к повторной доставке.
func jobID(period domain.Period, chat string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("chatlog-digest:"+period.Param()+":"+chat)).String()
}

// ParseLocalTime парсит время формата ЧЧ:ММ.
func ParseLocalTime(input string) (time.Time, error) {
	return time.Parse("15:04", strings.TrimSpace(input))
}

func normalizeTimezone(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", ErrInvalidTimezone
	}
	candidate = strings.ReplaceAll(candidate, " ", "_")
	if _, err := time.LoadLocation(candidate); err == nil {
		return candidate, nil
	}

	lower := strings.ToLower(candidate)
	parts := strings.Split(lower, "/")
	for i, part := range parts {
		segments := strings.Split(part, "_")
		for j, segment := range segments {
			pieces := strings.Split(segment, "-")
			for k, piece := range pieces {
				if piece == "" {
					continue
				}
				pieces[k] = strings.ToUpper(piece[:1]) + piece[1:]
			}
			segments[j] = strings.Join(pieces, "-")
		}
		parts[i] = strings.Join(segments, "_")
	}
	normalized := strings.Join(parts, "/")
	if _, err := time.LoadLocation(normalized); err == nil {
		return normalized, nil
	}
	return "", ErrInvalidTimezone
}
