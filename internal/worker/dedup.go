package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"classnotify/internal/config"
)

// DedupStore remembers recently delivered correlation keys so a
// redelivered batch does not produce a second externally visible
// delivery.
type DedupStore interface {
	Seen(ctx context.Context, correlationID string) (bool, error)
	Mark(ctx context.Context, correlationID string) error
}

// RedisDedup keeps short-lived markers in the same Redis the broker runs
// on. Markers expire; the durable backstop is the API's delivery receipt
// keyed by correlation id.
type RedisDedup struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDedup(cfg *config.Config) *RedisDedup {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return &RedisDedup{
		rdb: rdb,
		ttl: 48 * time.Hour,
	}
}

func (d *RedisDedup) Seen(ctx context.Context, correlationID string) (bool, error) {
	n, err := d.rdb.Exists(ctx, dedupKey(correlationID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check dedup marker: %w", err)
	}
	return n > 0, nil
}

func (d *RedisDedup) Mark(ctx context.Context, correlationID string) error {
	if err := d.rdb.Set(ctx, dedupKey(correlationID), 1, d.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set dedup marker: %w", err)
	}
	return nil
}

func (d *RedisDedup) Close() error {
	return d.rdb.Close()
}

func dedupKey(correlationID string) string {
	return "classnotify:delivered:" + correlationID
}
