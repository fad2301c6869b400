package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidWindow возвращается при неположительном окне сессии.
	ErrInvalidWindow = errors.New("окно сессии должно быть положительным")
	// ErrInvalidConfig возвращается при некорректных параметрах оценки.
	ErrInvalidConfig = errors.New("некорректная конфигурация")
	// ErrChatNotFound возвращается, если сервис истории не знает чат.
	ErrChatNotFound = errors.New("чат не найден")
	// ErrCacheMiss возвращается кэшем при отсутствии ключа.
	ErrCacheMiss = errors.New("ключ не найден в кэше")
)

// Segmenter разбивает поток сообщений на сессии.
type Segmenter interface {
	Segment(messages []Message, window time.Duration) ([]SessionGroup, error)
}

// TopicScorer превращает сессии в отсортированный список тем.
type TopicScorer interface {
	ScoreAndRank(groups []SessionGroup, targetCount int) ([]Topic, error)
}

// MessageSource выгружает сообщения чата за период.
type MessageSource interface {
	FetchMessages(ctx context.Context, chat string, period Period) (chatID string, messages []Message, err error)
}

// ChatRoomLister перечисляет групповые чаты сервиса истории.
type ChatRoomLister interface {
	ChatRooms(ctx context.Context) ([]ChatRoom, error)
}

// Notifier доставляет готовый текст получателю.
type Notifier interface {
	SendDigest(ctx context.Context, chatID int64, text string) error
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}

// TopicSummary — текстовое описание сессии.
type TopicSummary struct {
	Title    string
	Summary  string
	Keywords []string
}

// Summarizer строит заголовок, краткое содержание и ключевые слова сессии.
type Summarizer interface {
	Summarize(messages []Message) TopicSummary
}
