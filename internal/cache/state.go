// Package cache keeps a short-lived redis snapshot of group order state for
// the read path. It is best effort: any redis failure degrades to a storage
// read, never to a request error.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cribnosh/group-ordering/internal/domain/model"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type StateCache struct {
	logger *slog.Logger
	rdb    *redis.Client
	ttl    time.Duration
}

func NewStateCache(ctx context.Context, log *slog.Logger, cfg *Config) (*StateCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &StateCache{logger: log, rdb: rdb, ttl: ttl}, nil
}

func (c *StateCache) Close() error {
	return c.rdb.Close()
}

func key(groupOrderID string) string {
	return "group_order:" + groupOrderID
}

func (c *StateCache) Get(ctx context.Context, groupOrderID string) (*model.GroupOrder, bool) {
	raw, err := c.rdb.Get(ctx, key(groupOrderID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache get failed", slog.Any("error", err))
		}
		return nil, false
	}

	var o model.GroupOrder
	if err = json.Unmarshal(raw, &o); err != nil {
		c.logger.Warn("cache entry corrupt, dropping", slog.String("group_order_id", groupOrderID))
		c.Invalidate(ctx, groupOrderID)
		return nil, false
	}
	return &o, true
}

func (c *StateCache) Set(ctx context.Context, o *model.GroupOrder) {
	raw, err := json.Marshal(o)
	if err != nil {
		c.logger.Warn("cache marshal failed", slog.Any("error", err))
		return
	}
	if err = c.rdb.Set(ctx, key(o.GroupOrderID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", slog.Any("error", err))
	}
}

func (c *StateCache) Invalidate(ctx context.Context, groupOrderID string) {
	if err := c.rdb.Del(ctx, key(groupOrderID)).Err(); err != nil {
		c.logger.Warn("cache invalidate failed", slog.Any("error", err))
	}
}
