package queue

import (
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"classnotify/internal/config"
)

const (
	// TaskNotificationDelivery carries one dispatched batch for
	// out-of-band delivery.
	TaskNotificationDelivery = "notification:delivery"
	// TaskAssignmentDueReminder fires shortly before an assignment's
	// due date.
	TaskAssignmentDueReminder = "assignment:due_reminder"
)

// Client is the producer's handle on the broker. Construction fails when
// the broker is unreachable; the API refuses to start rather than
// silently degrade to no async delivery.
type Client struct {
	client *asynq.Client
}

func NewClient(cfg *config.Config) (*Client, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}

	client := asynq.NewClient(redisOpt)

	// Test connection
	if err := client.Ping(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	slog.Info("Successfully initialized task queue", "redis_addr", cfg.RedisAddr)
	return &Client{client: client}, nil
}

// RedisOpt rebuilds the connection options for the consumer side.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
