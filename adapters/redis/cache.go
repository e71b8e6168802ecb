package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lborres/coupons/core"
)

const sessionPrefix = keyPrefix + "session:"

// SessionCache is a core.Cache kept in Redis, so a revoked session is gone
// for every process at once.
type SessionCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

var _ core.Cache = (*SessionCache)(nil)

func NewSessionCache(rdb redis.UniversalClient, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SessionCache{rdb: rdb, ttl: ttl}
}

func (c *SessionCache) Get(tokenHash string) (*core.Session, error) {
	ctx := context.Background()

	raw, err := c.rdb.Get(ctx, sessionPrefix+tokenHash).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrCacheNotFound
		}
		return nil, err
	}

	session := &core.Session{}
	if err := json.Unmarshal(raw, session); err != nil {
		return nil, err
	}
	// the hash is never serialized
	session.TokenHash = tokenHash
	return session, nil
}

// Set keeps the entry no longer than the session itself lives.
func (c *SessionCache) Set(tokenHash string, session *core.Session) error {
	ctx := context.Background()

	ttl := c.ttl
	if left := time.Until(session.ExpiresAt); left < ttl {
		ttl = left
	}
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, sessionPrefix+tokenHash, raw, ttl).Err()
}

func (c *SessionCache) Delete(tokenHash string) error {
	return c.rdb.Del(context.Background(), sessionPrefix+tokenHash).Err()
}

func (c *SessionCache) Clear() error {
	ctx := context.Background()

	iter := c.rdb.Scan(ctx, 0, sessionPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
