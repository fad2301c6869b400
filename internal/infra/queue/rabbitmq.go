package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"chatlog-digest/internal/domain"
	"chatlog-digest/internal/infra/metrics"
)

// ErrQueueClosed возвращается, когда брокер закрыл канал доставки.
var ErrQueueClosed = errors.New("канал очереди закрыт")

// RabbitQueue реализует очередь задач анализа через AMQP.
type RabbitQueue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string

	publishMu  sync.Mutex
	consumeMu  sync.Mutex
	deliveries <-chan amqp.Delivery
}

// NewRabbitQueue подключается к брокеру и объявляет устойчивую очередь.
func NewRabbitQueue(url, queue string) (*RabbitQueue, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("подключение к RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("открытие канала: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("объявление очереди %s: %w", queue, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("настройка prefetch: %w", err)
	}
	return &RabbitQueue{conn: conn, ch: ch, queue: queue}, nil
}

// Enqueue публикует задачу в очередь.
func (q *RabbitQueue) Enqueue(ctx context.Context, job domain.AnalysisJob) error {
	payload, err := encodeJob(job)
	if err != nil {
		return err
	}
	q.publishMu.Lock()
	defer q.publishMu.Unlock()
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Receive ждёт очередную задачу. Неуспешное подтверждение возвращает её брокеру.
func (q *RabbitQueue) Receive(ctx context.Context) (domain.AnalysisJob, domain.AckFunc, error) {
	deliveries, err := q.consume()
	if err != nil {
		return domain.AnalysisJob{}, nil, err
	}
	select {
	case <-ctx.Done():
		return domain.AnalysisJob{}, nil, ctx.Err()
	case d, ok := <-deliveries:
		if !ok {
			return domain.AnalysisJob{}, nil, ErrQueueClosed
		}
		job, err := decodeJob(d.Body)
		if err != nil {
			_ = d.Nack(false, false)
			return domain.AnalysisJob{}, nil, err
		}
		ack := func(success bool) error {
			if success {
				return d.Ack(false)
			}
			return d.Nack(false, true)
		}
		return job, ack, nil
	}
}

func (q *RabbitQueue) consume() (<-chan amqp.Delivery, error) {
	q.consumeMu.Lock()
	defer q.consumeMu.Unlock()
	if q.deliveries != nil {
		return q.deliveries, nil
	}
	deliveries, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("подписка на очередь %s: %w", q.queue, err)
	}
	q.deliveries = deliveries
	return deliveries, nil
}

// Close закрывает соединение с брокером.
func (q *RabbitQueue) Close() error {
	if err := q.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	return q.conn.Close()
}

var _ domain.AnalysisQueue = (*RabbitQueue)(nil)
