package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"github.com/lborres/coupons/core"
)

const (
	lockPrefix     = keyPrefix + "lock:"
	lockRetryDelay = 50 * time.Millisecond
	lockTries      = 64
)

// Locker is a core.Locker backed by redsync.
type Locker struct {
	rs *redsync.Redsync
}

var _ core.Locker = (*Locker)(nil)

func NewLocker(rdb redis.UniversalClient) *Locker {
	return &Locker{rs: redsync.New(goredis.NewPool(rdb))}
}

// Lock retries until the lock is free, ctx ends or the tries run out.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	mutex := l.rs.NewMutex(
		lockPrefix+key,
		redsync.WithExpiry(ttl),
		redsync.WithTries(lockTries),
		redsync.WithRetryDelay(lockRetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrLockNotHeld, key, err)
	}

	return func(ctx context.Context) error {
		ok, err := mutex.UnlockContext(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return core.ErrLockNotHeld
		}
		return nil
	}, nil
}
