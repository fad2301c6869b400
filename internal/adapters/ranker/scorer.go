package ranker

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"chatlog-digest/internal/adapters/textutil"
	"chatlog-digest/internal/domain"
)

// Config задаёт коэффициенты оценки и правила отбора тем.
type Config struct {
	MessageAnchor float64
	MessageCap    float64
	MessageWeight float64

	LengthAnchor float64
	LengthCap    float64
	LengthWeight float64

	ParticipantAnchor float64
	ParticipantCap    float64
	ParticipantWeight float64

	// DiversityBonus применяется, когда участников больше DiversityThreshold.
	DiversityThreshold int
	DiversityBonus     float64

	// MaxScore ограничивает итоговую оценку; 0 отключает ограничение.
	MaxScore float64

	MinMessages int

	TargetDivisor int
	TargetMin     int
	TargetMax     int
}

// DefaultConfig возвращает коэффициенты по умолчанию.
func DefaultConfig() Config {
	return Config{
		MessageAnchor:      10,
		MessageCap:         3,
		MessageWeight:      1,
		LengthAnchor:       500,
		LengthCap:          2,
		LengthWeight:       1,
		ParticipantAnchor:  5,
		ParticipantCap:     2,
		ParticipantWeight:  1,
		DiversityThreshold: 2,
		DiversityBonus:     1.5,
		MaxScore:           10,
		MinMessages:        2,
		TargetDivisor:      50,
		TargetMin:          5,
		TargetMax:          20,
	}
}

// Validate проверяет, что коэффициенты имеют смысл.
func (c Config) Validate() error {
	switch {
	case c.MessageAnchor <= 0:
		return fmt.Errorf("%w: message anchor %v", domain.ErrInvalidConfig, c.MessageAnchor)
	case c.LengthAnchor <= 0:
		return fmt.Errorf("%w: length anchor %v", domain.ErrInvalidConfig, c.LengthAnchor)
	case c.ParticipantAnchor <= 0:
		return fmt.Errorf("%w: participant anchor %v", domain.ErrInvalidConfig, c.ParticipantAnchor)
	case c.MessageCap < 0 || c.LengthCap < 0 || c.ParticipantCap < 0:
		return fmt.Errorf("%w: отрицательный предел", domain.ErrInvalidConfig)
	case c.MessageWeight < 0 || c.LengthWeight < 0 || c.ParticipantWeight < 0:
		return fmt.Errorf("%w: отрицательный вес", domain.ErrInvalidConfig)
	case c.DiversityBonus <= 0:
		return fmt.Errorf("%w: diversity bonus %v", domain.ErrInvalidConfig, c.DiversityBonus)
	case c.MaxScore < 0:
		return fmt.Errorf("%w: max score %v", domain.ErrInvalidConfig, c.MaxScore)
	case c.MinMessages < 1:
		return fmt.Errorf("%w: min messages %d", domain.ErrInvalidConfig, c.MinMessages)
	case c.TargetDivisor <= 0:
		return fmt.Errorf("%w: target divisor %d", domain.ErrInvalidConfig, c.TargetDivisor)
	case c.TargetMin < 1 || c.TargetMax < c.TargetMin:
		return fmt.Errorf("%w: target bounds %d..%d", domain.ErrInvalidConfig, c.TargetMin, c.TargetMax)
	}
	return nil
}

// TopicScorer оценивает сессии и возвращает лучшие темы.
type TopicScorer struct {
	cfg        Config
	summarizer domain.Summarizer
	log        zerolog.Logger
}

// NewTopicScorer создаёт ранжировщик.
func NewTopicScorer(cfg Config, summarizer domain.Summarizer, log zerolog.Logger) (*TopicScorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if summarizer == nil {
		return nil, fmt.Errorf("%w: summarizer не задан", domain.ErrInvalidConfig)
	}
	return &TopicScorer{cfg: cfg, summarizer: summarizer, log: log}, nil
}

// ScoreAndRank описывает каждую подходящую сессию, сортирует темы по убыванию
// оценки и возвращает первые targetCount. При targetCount == 0 число тем
// вычисляется по общему объёму сообщений.
func (s *TopicScorer) ScoreAndRank(groups []domain.SessionGroup, targetCount int) ([]domain.Topic, error) {
	if targetCount < 0 {
		return nil, fmt.Errorf("%w: target count %d", domain.ErrInvalidConfig, targetCount)
	}
	total := 0
	topics := make([]domain.Topic, 0, len(groups))
	for _, g := range groups {
		total += g.Len()
		if g.Len() < s.cfg.MinMessages || !hasContent(g.Messages) {
			continue
		}
		topics = append(topics, s.describe(g))
	}
	sort.SliceStable(topics, func(i, j int) bool { return topics[i].Score > topics[j].Score })

	target := targetCount
	if target == 0 {
		target = s.DynamicTarget(total)
	}
	s.log.Debug().
		Int("groups", len(groups)).
		Int("qualified", len(topics)).
		Int("target", target).
		Msg("ranker: темы оценены")
	if len(topics) > target {
		topics = topics[:target]
	}
	return topics, nil
}

// DynamicTarget возвращает число тем для заданного объёма сообщений.
func (s *TopicScorer) DynamicTarget(totalMessages int) int {
	target := totalMessages / s.cfg.TargetDivisor
	if target < s.cfg.TargetMin {
		return s.cfg.TargetMin
	}
	if target > s.cfg.TargetMax {
		return s.cfg.TargetMax
	}
	return target
}

// Score вычисляет оценку сессии по числу сообщений, объёму текста и участникам.
func (s *TopicScorer) Score(messages []domain.Message) float64 {
	chars := 0
	for _, m := range messages {
		chars += textutil.RuneLen(m.Content)
	}
	participants := countParticipants(messages)
	c := s.cfg

	score := math.Min(float64(len(messages))/c.MessageAnchor, c.MessageCap)*c.MessageWeight +
		math.Min(float64(chars)/c.LengthAnchor, c.LengthCap)*c.LengthWeight +
		math.Min(float64(participants)/c.ParticipantAnchor, c.ParticipantCap)*c.ParticipantWeight
	if participants > c.DiversityThreshold {
		score *= c.DiversityBonus
	}
	if c.MaxScore > 0 {
		score = math.Min(score, c.MaxScore)
	}
	return score
}

func (s *TopicScorer) describe(g domain.SessionGroup) domain.Topic {
	summary := s.summarizer.Summarize(g.Messages)
	return domain.Topic{
		Title:            summary.Title,
		Summary:          summary.Summary,
		Keywords:         summary.Keywords,
		Score:            s.Score(g.Messages),
		MessageCount:     g.Len(),
		ParticipantCount: countParticipants(g.Messages),
		StartTime:        g.Start(),
		EndTime:          g.End(),
	}
}

func countParticipants(messages []domain.Message) int {
	seen := make(map[string]struct{}, len(messages))
	for _, m := range messages {
		sender := strings.TrimSpace(m.Sender)
		if sender == "" {
			sender = domain.UnknownSender
		}
		seen[sender] = struct{}{}
	}
	return len(seen)
}

func hasContent(messages []domain.Message) bool {
	for _, m := range messages {
		if !textutil.IsNoise(m.Content) {
			return true
		}
	}
	return false
}

var _ domain.TopicScorer = (*TopicScorer)(nil)
