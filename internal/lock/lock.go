// Package lock serializes reconciliation passes. Passes for the same
// organization must not interleave, so workers take a per-organization
// lock before touching the shipment graph.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	apperrors "freight-reconciliation-service/pkg/errors"
)

// ReleaseFunc releases a held lock. Safe to call once.
type ReleaseFunc func(ctx context.Context) error

// Locker acquires named locks. Acquire blocks until the lock is held, the
// retry budget runs out, or the context is cancelled.
type Locker interface {
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)
}

// RedisLocker acquires distributed locks through Redis, so multiple
// worker processes can share one queue safely.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

// NewRedisLocker creates a distributed locker. The TTL bounds how long a
// crashed worker can hold a lock; it should comfortably exceed the
// longest expected reconciliation pass.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client: redislock.New(client),
		ttl:    ttl,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	lock, err := l.client.Obtain(ctx, "lock:"+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(250*time.Millisecond), 40),
	})
	if err == redislock.ErrNotObtained {
		return nil, apperrors.QueueError(apperrors.CodeLockContention, key, err)
	}
	if err != nil {
		return nil, apperrors.QueueError(apperrors.CodeLockContention, key, err)
	}

	return func(ctx context.Context) error {
		return lock.Release(ctx)
	}, nil
}

// MutexLocker is an in-process keyed mutex for single-process deployments
// and tests.
type MutexLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMutexLocker creates an in-process locker.
func NewMutexLocker() *MutexLocker {
	return &MutexLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *MutexLocker) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	l.mu.Lock()
	keyLock, ok := l.locks[key]
	if !ok {
		keyLock = &sync.Mutex{}
		l.locks[key] = keyLock
	}
	l.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		keyLock.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		var once sync.Once
		return func(ctx context.Context) error {
			once.Do(keyLock.Unlock)
			return nil
		}, nil
	case <-ctx.Done():
		// The goroutine will eventually take the mutex; release it again
		// so the key does not stay locked forever.
		go func() {
			<-acquired
			keyLock.Unlock()
		}()
		return nil, apperrors.QueueError(apperrors.CodeLockContention, key, ctx.Err())
	}
}
