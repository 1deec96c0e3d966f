package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/3gr1v750v/api-yamdb-docker/internal/metrics"
	"github.com/3gr1v750v/api-yamdb-docker/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultQueueKey = "mail:outbox"

// RedisQueue is a Sender that only enqueues; a Dispatcher does the delivery.
type RedisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(redisURL, key string) (*RedisQueue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, err
	}

	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{client: client, key: key}, nil
}

// Send pushes msg to the tail of the outbox list.
func (q *RedisQueue) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := q.client.RPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	metrics.MailMessagesTotal.WithLabelValues("queued").Inc()
	return nil
}

// Pop waits up to timeout for the next message. It returns (nil, nil) on timeout.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*Message, error) {
	result, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blpop outbox: %w", err)
	}
	if len(result) < 2 {
		return nil, fmt.Errorf("invalid blpop response: %v", result)
	}

	var msg Message
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		return nil, fmt.Errorf("unmarshal email: %w", err)
	}
	return &msg, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Dispatcher drains a RedisQueue into a delivering Sender.
type Dispatcher struct {
	queue       *RedisQueue
	sender      Sender
	pollTimeout time.Duration
	retryDelay  time.Duration
	sendTimeout time.Duration
}

func NewDispatcher(queue *RedisQueue, sender Sender) *Dispatcher {
	return &Dispatcher{
		queue:       queue,
		sender:      sender,
		pollTimeout: 2 * time.Second,
		retryDelay:  time.Second,
		sendTimeout: 30 * time.Second,
	}
}

// Run delivers queued messages until ctx is cancelled. A failed delivery is
// logged and dropped; the code can be requested again through signup.
func (d *Dispatcher) Run(ctx context.Context) {
	logger.Log.Info("Mail dispatcher started", zap.String("queue", d.queue.key))

	for {
		if ctx.Err() != nil {
			logger.Log.Info("Mail dispatcher stopped")
			return
		}

		msg, err := d.queue.Pop(ctx, d.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Log.Warn("Failed to read mail queue", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(d.retryDelay):
			}
			continue
		}
		if msg == nil {
			continue
		}

		d.deliver(ctx, *msg)
	}
}

// deliver sends a popped message. It is already off the queue, so shutdown
// must not abort it; only sendTimeout bounds the attempt.
func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.sendTimeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, msg); err != nil {
		logger.Log.Error("Failed to deliver queued email",
			zap.String("to", msg.To),
			zap.Error(err),
		)
	}
}
