package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/TasksFlow/TasksFlowBackend/pkg/config"
)

// Client wraps the shared Redis connection
type Client struct {
	client *redis.Client
}

// NewClient connects to Redis and verifies the connection
func NewClient(cfg *config.Config) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{client: client}, nil
}

// GetClient retrieves the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.client
}

// Ping checks connection liveness
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}
