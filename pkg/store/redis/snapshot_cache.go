package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	overviewCacheKey   = "monitoring:overview:latest"
	snapshotCacheKey   = "monitoring:system:latest"
	defaultSnapshotTTL = 30 * time.Second
)

// ErrCacheMiss is returned when a cached entry is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// SnapshotCache holds the most recent monitoring payloads in Redis so that
// high-frequency readers (dashboard polls, websocket fanout) do not hit MySQL.
type SnapshotCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSnapshotCache creates a snapshot cache with the default TTL
func NewSnapshotCache(client *Client) *SnapshotCache {
	return &SnapshotCache{
		redis: client.GetClient(),
		ttl:   defaultSnapshotTTL,
	}
}

// SaveOverview caches the latest overview payload
func (c *SnapshotCache) SaveOverview(ctx context.Context, overview any) error {
	return c.save(ctx, overviewCacheKey, overview)
}

// LoadOverview reads the cached overview into dst. Returns ErrCacheMiss when
// nothing is cached.
func (c *SnapshotCache) LoadOverview(ctx context.Context, dst any) error {
	return c.load(ctx, overviewCacheKey, dst)
}

// SaveSystemSnapshot caches the latest raw system snapshot
func (c *SnapshotCache) SaveSystemSnapshot(ctx context.Context, snapshot any) error {
	return c.save(ctx, snapshotCacheKey, snapshot)
}

// LoadSystemSnapshot reads the cached system snapshot into dst
func (c *SnapshotCache) LoadSystemSnapshot(ctx context.Context, dst any) error {
	return c.load(ctx, snapshotCacheKey, dst)
}

// Invalidate drops both cached payloads
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	if err := c.redis.Del(ctx, overviewCacheKey, snapshotCacheKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate snapshot cache: %w", err)
	}
	return nil
}

func (c *SnapshotCache) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cached payload: %w", err)
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return nil
}

func (c *SnapshotCache) load(ctx context.Context, key string, dst any) error {
	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal cached payload: %w", err)
	}
	return nil
}
