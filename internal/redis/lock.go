package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("collection lock not acquired")
)

// RedisLocker guards a collection's read-modify-write cycle across server
// processes that share one backend. It satisfies store.Locker.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	// retries and backoff bound how long a caller waits for a busy key
	retries int
	backoff time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client:  client,
		ttl:     ttl,
		retries: 20,
		backoff: 25 * time.Millisecond,
	}
}

func (l *RedisLocker) WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:collection:%s", name)
	token := uuid.NewString()

	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}

	defer func() {
		_ = l.release(context.WithoutCancel(ctx), key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	for attempt := 0; ; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire collection lock: %w", err)
		}
		if ok {
			return nil
		}
		if attempt >= l.retries {
			return ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.backoff):
		}
	}
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *RedisLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release collection lock: %w", err)
	}
	return nil
}
