package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "freight-reconciliation-service/pkg/errors"
)

// RedisQueue is a Redis list-backed Queue. Jobs are pushed on the left
// and popped from the right, so the list drains in FIFO order.
type RedisQueue struct {
	client redis.UniversalClient
	key    string
}

// NewRedisQueue creates a queue backed by the Redis list at key.
func NewRedisQueue(client redis.UniversalClient, key string) *RedisQueue {
	if key == "" {
		key = "freightrecon:documents"
	}
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return apperrors.QueueError(apperrors.CodeEnqueueFailed, q.key, err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return apperrors.QueueError(apperrors.CodeEnqueueFailed, q.key, err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	for {
		// A short poll timeout keeps the blocking pop responsive to
		// context cancellation.
		result, err := q.client.BRPop(ctx, 2*time.Second, q.key).Result()
		if err == redis.Nil {
			if ctx.Err() != nil {
				return Job{}, ctx.Err()
			}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Job{}, ctx.Err()
			}
			return Job{}, apperrors.QueueError(apperrors.CodeConsumeFailed, q.key, err)
		}

		// BRPop returns [key, value].
		var job Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			return Job{}, apperrors.QueueError(apperrors.CodeConsumeFailed, q.key, err)
		}
		return job, nil
	}
}

func (q *RedisQueue) Close() error {
	return nil
}
