package cron

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shareit/shareit-backend/pkg/config"
	pkgredis "github.com/shareit/shareit-backend/pkg/redis"
)

func newLockers(t *testing.T) (*RedisLocker, *RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client, err := pkgredis.New(context.Background(), config.RedisConfig{Address: s.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	a, err := NewRedisLocker(client, "dev")
	require.NoError(t, err)
	b, err := NewRedisLocker(client, "dev")
	require.NoError(t, err)
	return a, b, s
}

func TestRedisLockerExcludesSecondReplica(t *testing.T) {
	ctx := context.Background()
	first, second, s := newLockers(t)
	key := first.Key(BookingExpiryJobName)
	assert.Equal(t, "shareit:lock:cron:dev:booking-expiry", key)

	release, err := first.Lock(ctx, BookingExpiryJobName, 5*time.Minute)
	require.NoError(t, err)
	require.NotNil(t, release)
	assert.Equal(t, 5*time.Minute, s.TTL(key))

	blocked, err := second.Lock(ctx, BookingExpiryJobName, 5*time.Minute)
	require.NoError(t, err)
	assert.Nil(t, blocked)

	other, err := second.Lock(ctx, OutboxRetentionJobName, time.Hour)
	require.NoError(t, err)
	assert.NotNil(t, other, "jobs lock independently")

	require.NoError(t, release(ctx))
	assert.False(t, s.Exists(key))

	again, err := second.Lock(ctx, BookingExpiryJobName, 5*time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, again)
}

func TestRedisLockerReleaseKeepsForeignLock(t *testing.T) {
	ctx := context.Background()
	first, second, s := newLockers(t)
	key := first.Key(OutboxRetentionJobName)

	release, err := first.Lock(ctx, OutboxRetentionJobName, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, release)

	// The first lease expires and a second replica takes over.
	s.FastForward(2 * time.Minute)
	takeover, err := second.Lock(ctx, OutboxRetentionJobName, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, takeover)

	require.NoError(t, release(ctx))
	assert.True(t, s.Exists(key))
}

func TestNewRedisLockerValidates(t *testing.T) {
	_, err := NewRedisLocker(nil, "dev")
	assert.Error(t, err)
}
