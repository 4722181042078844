package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"wellness-service/internal/models"
)

// AvailabilityCache keeps contractor weekly busy-slot lists in redis.
// Writes bump a per-contractor version key, so stale entries are never
// served and never need explicit deletion.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewAvailabilityCache connects to redis. Returns nil when no address is
// configured; callers nil-check before use.
func NewAvailabilityCache(addr, password string, db int, ttl time.Duration, logger *logrus.Logger) *AvailabilityCache {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &AvailabilityCache{client: client, ttl: ttl, logger: logger}
}

func (c *AvailabilityCache) version(ctx context.Context, contractorID uuid.UUID) int64 {
	ver, err := c.client.Get(ctx, fmt.Sprintf("availability_ver:%s", contractorID)).Int64()
	if err != nil {
		return 0
	}
	return ver
}

func (c *AvailabilityCache) key(ctx context.Context, contractorID uuid.UUID, week string) string {
	return fmt.Sprintf("availability:%s:%d:%s", contractorID, c.version(ctx, contractorID), week)
}

// Get returns the cached busy slots for one contractor week, if present
func (c *AvailabilityCache) Get(ctx context.Context, contractorID uuid.UUID, week string) ([]models.Interval, bool) {
	data, err := c.client.Get(ctx, c.key(ctx, contractorID, week)).Bytes()
	if err != nil {
		return nil, false
	}
	var slots []models.Interval
	if err := json.Unmarshal(data, &slots); err != nil {
		c.logger.WithError(err).Warn("corrupt availability cache entry")
		return nil, false
	}
	return slots, true
}

// Set stores the busy slots for one contractor week
func (c *AvailabilityCache) Set(ctx context.Context, contractorID uuid.UUID, week string, slots []models.Interval) {
	data, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(ctx, contractorID, week), data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("failed to cache availability")
	}
}

// Invalidate drops every cached week of a contractor by bumping its version
func (c *AvailabilityCache) Invalidate(ctx context.Context, contractorID uuid.UUID) {
	if err := c.client.Incr(ctx, fmt.Sprintf("availability_ver:%s", contractorID)).Err(); err != nil {
		c.logger.WithError(err).Warn("failed to invalidate availability cache")
	}
}

// Ping checks the connection
func (c *AvailabilityCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
