package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseOwned(ctx context.Context, key, owner string) (bool, error)
	LockKey(name string) string
}

// ReleaseFunc gives a held job lock back.
type ReleaseFunc func(ctx context.Context) error

// RedisLocker hands out one lock per job and environment so two cron-worker
// replicas never cancel bookings or purge the outbox at the same time.
type RedisLocker struct {
	store lockStore
	env   string
}

func NewRedisLocker(store lockStore, env string) (*RedisLocker, error) {
	if store == nil {
		return nil, errors.New("redis client required for cron locks")
	}
	if env == "" {
		env = "local"
	}
	return &RedisLocker{store: store, env: env}, nil
}

// Key is the redis key guarding job.
func (l *RedisLocker) Key(job string) string {
	return l.store.LockKey("cron:" + l.env + ":" + job)
}

// Lock claims job for ttl. It returns a nil ReleaseFunc when another replica
// holds the lock.
func (l *RedisLocker) Lock(ctx context.Context, job string, ttl time.Duration) (ReleaseFunc, error) {
	key := l.Key(job)
	owner := uuid.NewString()
	ok, err := l.store.SetNX(ctx, key, owner, ttl)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", job, err)
	}
	if !ok {
		return nil, nil
	}
	return func(ctx context.Context) error {
		if _, err := l.store.ReleaseOwned(ctx, key, owner); err != nil {
			return fmt.Errorf("unlock %s: %w", job, err)
		}
		return nil
	}, nil
}
