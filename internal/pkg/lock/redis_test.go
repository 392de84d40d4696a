package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T, ttl time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), &redis.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, ttl), mr
}

func TestRedisLocker_ExclusiveUntilReleased(t *testing.T) {
	ctx := context.Background()
	locker, _ := newTestLocker(t, time.Minute)
	key := PayRunKey("company-1", "period-1")

	release, err := locker.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, key)
	assert.ErrorIs(t, err, ErrLockHeld)

	release()

	release2, err := locker.Acquire(ctx, key)
	require.NoError(t, err)
	release2()
}

func TestRedisLocker_ExpiredLockCanBeTaken(t *testing.T) {
	ctx := context.Background()
	locker, mr := newTestLocker(t, time.Second)
	key := PayRunKey("company-1", "period-1")

	staleRelease, err := locker.Acquire(ctx, key)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	release, err := locker.Acquire(ctx, key)
	require.NoError(t, err)

	// A stale holder must not drop the new holder's lock.
	staleRelease()
	assert.True(t, mr.Exists(key))

	release()
	assert.False(t, mr.Exists(key))
}

func TestPayRunKey(t *testing.T) {
	assert.Equal(t, "payroll:run:c:p", PayRunKey("c", "p"))
}

func TestNoop(t *testing.T) {
	release, err := Noop{}.Acquire(context.Background(), "anything")
	require.NoError(t, err)
	release()
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(context.Background(), &redis.Options{Addr: addr, MaxRetries: -1})
	assert.Error(t, err)
}
