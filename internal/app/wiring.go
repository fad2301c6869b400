// Package app собирает зависимости сервисов из конфигурации.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"chatlog-digest/internal/adapters/chatlog"
	"chatlog-digest/internal/adapters/ranker"
	"chatlog-digest/internal/adapters/segmenter"
	"chatlog-digest/internal/adapters/summarizer"
	"chatlog-digest/internal/domain"
	"chatlog-digest/internal/infra/cache"
	"chatlog-digest/internal/infra/config"
	"chatlog-digest/internal/infra/queue"
	"chatlog-digest/internal/usecase/analysis"
)

// ErrNoQueue возвращается, если не задан ни RABBITMQ_URL, ни REDIS_ADDR.
var ErrNoQueue = errors.New("очередь не настроена: задайте RABBITMQ_URL или REDIS_ADDR")

// Pipeline — собранный конвейер анализа.
type Pipeline struct {
	Client    *chatlog.Client
	Directory *chatlog.Directory
	Analysis  *analysis.Service
	Location  *time.Location
}

// ScorerConfig переносит коэффициенты оценки из конфигурации.
func ScorerConfig(cfg config.AppConfig) ranker.Config {
	return ranker.Config{
		MessageAnchor:      cfg.Score.MessageAnchor,
		MessageCap:         cfg.Score.MessageCap,
		MessageWeight:      cfg.Score.MessageWeight,
		LengthAnchor:       cfg.Score.LengthAnchor,
		LengthCap:          cfg.Score.LengthCap,
		LengthWeight:       cfg.Score.LengthWeight,
		ParticipantAnchor:  cfg.Score.ParticipantAnchor,
		ParticipantCap:     cfg.Score.ParticipantCap,
		ParticipantWeight:  cfg.Score.ParticipantWeight,
		DiversityThreshold: cfg.Score.DiversityThreshold,
		DiversityBonus:     cfg.Score.DiversityBonus,
		MaxScore:           cfg.Score.Max,
		MinMessages:        cfg.Analysis.MinMessages,
		TargetDivisor:      cfg.Analysis.TargetDivisor,
		TargetMin:          cfg.Analysis.TargetMin,
		TargetMax:          cfg.Analysis.TargetMax,
	}
}

// NewPipeline создаёт клиент сервиса истории, каталог чатов и сервис анализа.
func NewPipeline(cfg config.AppConfig, c domain.Cache, logger zerolog.Logger) (*Pipeline, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if cfg.Analysis.Window <= 0 {
		return nil, fmt.Errorf("SESSION_WINDOW: %w", domain.ErrInvalidWindow)
	}
	if cfg.Analysis.FixedTarget < 0 {
		return nil, fmt.Errorf("%w: TOPIC_FIXED_TARGET %d", domain.ErrInvalidConfig, cfg.Analysis.FixedTarget)
	}

	client, err := chatlog.New(cfg.Chatlog.BaseURL, chatlog.WithTimeout(cfg.Chatlog.Timeout))
	if err != nil {
		return nil, fmt.Errorf("клиент сервиса истории: %w", err)
	}
	var mappings map[string]string
	if cfg.Chatlog.MappingFile != "" {
		mappings, err = chatlog.LoadMappings(cfg.Chatlog.MappingFile)
		if err != nil {
			return nil, err
		}
	}
	dir := chatlog.NewDirectory(client, c, cfg.Chatlog.CacheTTL, mappings, logger.With().Str("component", "directory").Logger())

	scorer, err := ranker.NewTopicScorer(ScorerConfig(cfg), summarizer.NewSimple(summarizer.DefaultConfig()), logger.With().Str("component", "ranker").Logger())
	if err != nil {
		return nil, err
	}
	source := chatlog.NewSource(client, dir, loc, logger.With().Str("component", "chatlog").Logger())
	service := analysis.NewService(
		source,
		segmenter.NewSession(logger.With().Str("component", "segmenter").Logger()),
		scorer,
		cfg.Analysis.Window,
		cfg.Analysis.FixedTarget,
		logger.With().Str("component", "analysis").Logger(),
	)
	return &Pipeline{Client: client, Directory: dir, Analysis: service, Location: loc}, nil
}

// NewRedisClient подключается к Redis или возвращает nil, если адрес не задан.
func NewRedisClient(ctx context.Context, cfg config.AppConfig) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("подключение к Redis %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

// NewCache возвращает кэш в Redis, а без Redis — в памяти процесса.
func NewCache(client *redis.Client) domain.Cache {
	if client == nil {
		return cache.NewMemory()
	}
	return cache.NewRedis(client)
}

// NewQueue выбирает RabbitMQ, если он настроен, иначе очередь в Redis.
// Возвращаемая функция закрывает соединение с брокером.
func NewQueue(cfg config.AppConfig, client *redis.Client) (domain.AnalysisQueue, func() error, error) {
	if cfg.RabbitURL != "" {
		q, err := queue.NewRabbitQueue(cfg.RabbitURL, cfg.Queues.Analysis)
		if err != nil {
			return nil, nil, err
		}
		return q, q.Close, nil
	}
	if client != nil {
		return queue.NewRedisQueue(client, cfg.Queues.Analysis), func() error { return nil }, nil
	}
	return nil, nil, ErrNoQueue
}
