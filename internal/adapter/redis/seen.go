// Package redis holds the fingerprint seen-cache in front of the message
// store. The cache may only short-circuit a known duplicate; the unique
// index on messages.fingerprint stays authoritative.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/heartmarshall/signalflow-backend/internal/config"
)

// SeenCache remembers recently stored fingerprints.
type SeenCache struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
	log    *slog.Logger
}

// NewSeenCache connects to redis and verifies the connection with a ping.
func NewSeenCache(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (*SeenCache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &SeenCache{
		rdb:    rdb,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.SeenTTL,
		log:    log.With("adapter", "redis"),
	}, nil
}

// Seen reports whether fingerprint was marked within the TTL.
func (c *SeenCache) Seen(ctx context.Context, fingerprint string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.prefix+fingerprint).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Mark records fingerprint as stored.
func (c *SeenCache) Mark(ctx context.Context, fingerprint string) error {
	if err := c.rdb.Set(ctx, c.prefix+fingerprint, 1, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the client.
func (c *SeenCache) Close() error {
	return c.rdb.Close()
}
