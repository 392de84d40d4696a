package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockHeld = errors.New("lock is held by another process")

// Locker guards a critical section across service instances.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// PayRunKey builds the lock key for batch operations on one company's period.
func PayRunKey(companyID, periodID string) string {
	return fmt.Sprintf("payroll:run:%s:%s", companyID, periodID)
}

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func() {
		// The caller's ctx may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}
	return release, nil
}

// Noop is used when no redis address is configured. The database row lock
// still serialises pay run transitions.
type Noop struct{}

func (Noop) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

// NewClient creates a redis client and verifies connectivity.
func NewClient(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("lock: ping redis: %w", err)
	}
	return client, nil
}
