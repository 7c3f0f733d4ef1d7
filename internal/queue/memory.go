package queue

import (
	"context"
	"sync"

	apperrors "freight-reconciliation-service/pkg/errors"
)

// MemoryQueue is an in-process channel-backed Queue.
type MemoryQueue struct {
	jobs      chan Job
	closeOnce sync.Once
	done      chan struct{}
}

// NewMemoryQueue creates an in-process queue with the given buffer size.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	return &MemoryQueue{
		jobs: make(chan Job, size),
		done: make(chan struct{}),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-q.done:
		return apperrors.QueueError(apperrors.CodeEnqueueFailed, "memory", nil).
			WithContext("reason", "queue closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case job := <-q.jobs:
		return job, nil
	case <-q.done:
		return Job{}, apperrors.QueueError(apperrors.CodeConsumeFailed, "memory", nil).
			WithContext("reason", "queue closed")
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}
