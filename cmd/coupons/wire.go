package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3/log"

	"github.com/lborres/coupons"
	"github.com/lborres/coupons/adapters/memory"
	pgxadapter "github.com/lborres/coupons/adapters/pgx"
	redisadapter "github.com/lborres/coupons/adapters/redis"
	"github.com/lborres/coupons/core"
	"github.com/lborres/coupons/internal/config"
	"github.com/lborres/coupons/services"
)

var errDatabaseRequired = errors.New("DATABASE_URL is required for this command")

// deps are the storage-side collaborators shared by every command.
type deps struct {
	store  coupons.Storage
	pg     *pgxadapter.Adapter // nil on the in-memory store
	cache  core.Cache
	locker core.Locker

	closers []func()
}

func wireDeps(ctx context.Context, cfg config.Config) (*deps, error) {
	d := &deps{}

	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using the in-memory store; data is lost on exit")
		d.store = memory.New()
	} else {
		pool, err := pgxadapter.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, pool.Close)
		d.pg = pgxadapter.New(pool)
		d.store = d.pg
	}

	if cfg.RedisURL == "" {
		d.cache = coupons.NewInMemoryCache(coupons.CacheConfig{TTL: cfg.SessionCacheTTL, MaxSize: cfg.SessionCacheSize})
		d.locker = services.NewMemoryLocker()
	} else {
		rdb, err := redisadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			d.close()
			return nil, err
		}
		d.closers = append(d.closers, func() {
			if err := rdb.Close(); err != nil {
				log.Warnw("redis close failed", "error", err)
			}
		})
		d.cache = redisadapter.NewSessionCache(rdb, cfg.SessionCacheTTL)
		d.locker = redisadapter.NewLocker(rdb)
	}

	return d, nil
}

func (d *deps) migrate(ctx context.Context) error {
	if d.pg == nil {
		return errDatabaseRequired
	}
	if err := d.pg.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}
