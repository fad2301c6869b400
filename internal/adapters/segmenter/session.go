package segmenter

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"chatlog-digest/internal/domain"
)

// DefaultWindow — пауза, после которой начинается новая сессия.
const DefaultWindow = 30 * time.Minute

// SessionSegmenter группирует сообщения по паузам между соседними сообщениями.
type SessionSegmenter struct {
	log zerolog.Logger
}

// NewSession создаёт сегментатор.
func NewSession(log zerolog.Logger) *SessionSegmenter {
	return &SessionSegmenter{log: log}
}

// Segment сортирует сообщения по времени и режет поток там, где пауза
// между соседними сообщениями больше window. Сообщения без времени отбрасываются.
func (s *SessionSegmenter) Segment(messages []domain.Message, window time.Duration) ([]domain.SessionGroup, error) {
	if window <= 0 {
		return nil, domain.ErrInvalidWindow
	}
	timed, dropped := Parseable(messages)
	if dropped > 0 {
		s.log.Debug().Int("dropped", dropped).Msg("segmenter: отброшены сообщения без времени")
	}
	if len(timed) == 0 {
		return nil, nil
	}
	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].Timestamp.Before(timed[j].Timestamp)
	})

	var groups []domain.SessionGroup
	current := []domain.Message{timed[0]}
	last := timed[0].Timestamp
	for _, msg := range timed[1:] {
		if msg.Timestamp.Sub(last) > window {
			groups = append(groups, domain.SessionGroup{Messages: current})
			current = nil
		}
		current = append(current, msg)
		last = msg.Timestamp
	}
	groups = append(groups, domain.SessionGroup{Messages: current})
	return groups, nil
}

// Parseable возвращает копию сообщений с разобранным временем и число отброшенных.
func Parseable(messages []domain.Message) ([]domain.Message, int) {
	out := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if !m.HasTime() {
			continue
		}
		out = append(out, m)
	}
	return out, len(messages) - len(out)
}

var _ domain.Segmenter = (*SessionSegmenter)(nil)
