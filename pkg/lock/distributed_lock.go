package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/TasksFlow/TasksFlowBackend/pkg/logger"
)

const (
	lockTTL            = 30 * time.Second
	lockAcquireTimeout = 5 * time.Second
	lockRenewInterval  = 10 * time.Second
)

// Lock guards a background job against concurrent execution across replicas
type Lock interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
	IsHeld() bool
}

// releaseScript deletes the key only when this instance still owns it
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// renewScript extends the TTL only when this instance still owns the key
const renewScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("expire", KEYS[1], ARGV[2])
else
	return 0
end`

// RedisLock is a SET NX EX lock with background renewal. A nil Redis client
// degrades to always-acquired, which is correct for single-instance
// deployments.
type RedisLock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration

	mu        sync.Mutex
	held      bool
	stopRenew chan struct{}
}

// NewRedisLock creates a lock identified by key; the value is unique per
// instance so one replica cannot release another's lock.
func NewRedisLock(client *redis.Client, key string) *RedisLock {
	return &RedisLock{
		client: client,
		key:    key,
		value:  uuid.NewString(),
		ttl:    lockTTL,
	}
}

// TryLock attempts a non-blocking acquire
func (l *RedisLock) TryLock(ctx context.Context) (bool, error) {
	if l.client == nil {
		logger.Debugf("no redis client, lock %s degrades to single-instance mode", l.key)
		l.mu.Lock()
		l.held = true
		l.mu.Unlock()
		return true, nil
	}

	acquireCtx, cancel := context.WithTimeout(ctx, lockAcquireTimeout)
	defer cancel()

	acquired, err := l.client.SetNX(acquireCtx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !acquired {
		return false, nil
	}

	l.mu.Lock()
	l.held = true
	l.stopRenew = make(chan struct{})
	l.mu.Unlock()

	go l.renew(ctx)
	return true, nil
}

// Unlock releases the lock; releasing an unheld lock is a no-op
func (l *RedisLock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	if !l.held {
		l.mu.Unlock()
		return nil
	}
	l.held = false
	if l.stopRenew != nil {
		close(l.stopRenew)
		l.stopRenew = nil
	}
	l.mu.Unlock()

	if l.client == nil {
		return nil
	}

	if _, err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.value).Result(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}

// IsHeld reports whether this instance currently owns the lock
func (l *RedisLock) IsHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

func (l *RedisLock) renew(ctx context.Context) {
	l.mu.Lock()
	stop := l.stopRenew
	l.mu.Unlock()

	ticker := time.NewTicker(lockRenewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := l.client.Eval(ctx, renewScript,
				[]string{l.key}, l.value, int(l.ttl.Seconds())).Result()
			if err != nil || result.(int64) == 0 {
				logger.Warnf("lock %s renewal failed, marking as lost: %v", l.key, err)
				l.mu.Lock()
				l.held = false
				l.mu.Unlock()
				return
			}
		}
	}
}
