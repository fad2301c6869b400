package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chatlog-digest/internal/domain"
	"chatlog-digest/internal/infra/metrics"
)

// RedisQueue реализует очередь задач анализа на базе Redis lists.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue создаёт очередь по указанному ключу.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

// Enqueue публикует задачу в очередь.
func (q *RedisQueue) Enqueue(ctx context.Context, job domain.AnalysisJob) error {
	payload, err := encodeJob(job)
	if err != nil {
		return err
	}
	start := time.Now()
	err = q.client.LPush(ctx, q.key, payload).Err()
	metrics.ObserveNetworkRequest("redis", "lpush", q.key, start, err)
	if err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Receive блокирующе читает задачу. Неуспешное подтверждение возвращает задачу в конец очереди.
func (q *RedisQueue) Receive(ctx context.Context) (domain.AnalysisJob, domain.AckFunc, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.AnalysisJob{}, nil, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.AnalysisJob{}, nil, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.AnalysisJob{}, nil, err
		}
		if len(res) != 2 {
			return domain.AnalysisJob{}, nil, errors.New("redis queue: unexpected response")
		}
		payload := []byte(res[1])
		job, err := decodeJob(payload)
		if err != nil {
			return domain.AnalysisJob{}, nil, err
		}
		ack := func(success bool) error {
			if success {
				return nil
			}
			return q.client.LPush(context.Background(), q.key, payload).Err()
		}
		return job, ack, nil
	}
}

var _ domain.AnalysisQueue = (*RedisQueue)(nil)
