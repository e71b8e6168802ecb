package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lborres/coupons/core"
)

const lockPollInterval = 10 * time.Millisecond

// MemoryLocker is the single-process Locker used when no Redis is configured.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]lease
	epoch uint64
}

type lease struct {
	id      uint64
	expires time.Time
}

var _ core.Locker = (*MemoryLocker)(nil)

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]lease)}
}

// Lock waits until key is free or its holder's ttl lapsed, or ctx ends.
func (l *MemoryLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		if id, ok := l.tryLock(key, ttl); ok {
			return func(context.Context) error {
				l.unlock(key, id)
				return nil
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", core.ErrLockNotHeld, key, context.Cause(ctx))
		case <-ticker.C:
		}
	}
}

func (l *MemoryLocker) tryLock(key string, ttl time.Duration) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if cur, ok := l.held[key]; ok && now.Before(cur.expires) {
		return 0, false
	}
	l.epoch++
	l.held[key] = lease{id: l.epoch, expires: now.Add(ttl)}
	return l.epoch, true
}

// unlock only releases the lease it was handed, so a holder whose ttl lapsed
// cannot release a successor's lock.
func (l *MemoryLocker) unlock(key string, id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.held[key]; ok && cur.id == id {
		delete(l.held, key)
	}
}
