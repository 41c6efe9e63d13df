// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"workflow-chat/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the connection used for conversation memory and the
// response cache. Both are best-effort: a slow Redis should never stall a
// chat turn, so command timeouts are kept tight.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis builds a client from config. The pool stays small; each chat
// turn issues at most a handful of commands.
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Address,
		Password:        cfg.Password,
		DB:              cfg.DB,
		ClientName:      "workflow-chat",
		DialTimeout:     5 * time.Second,
		ReadTimeout:     2 * time.Second,
		WriteTimeout:    2 * time.Second,
		PoolSize:        10,
		MinIdleConns:    2,
		ConnMaxIdleTime: 5 * time.Minute,
	})

	return &RedisClient{Client: rdb}, nil
}

// Ping verifies connectivity before the conversation store is handed the
// client.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
