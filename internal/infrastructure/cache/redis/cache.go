// Package redis caches dashboard aggregates so repeated stats reads skip the
// aggregate queries while documents are not changing.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmarchuk/legalintel/internal/core/domain"
)

type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StatsCache{client: client, ttl: ttl}
}

func statsKey(userID int64) string {
	return "dashboard_stats:user:" + strconv.FormatInt(userID, 10)
}

func (c *StatsCache) Get(ctx context.Context, userID int64) (*domain.DashboardStats, bool, error) {
	raw, err := c.client.Get(ctx, statsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("stats cache get: %w", err)
	}

	var stats domain.DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		return nil, false, nil
	}
	return &stats, true, nil
}

func (c *StatsCache) Set(ctx context.Context, userID int64, stats *domain.DashboardStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := c.client.Set(ctx, statsKey(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("stats cache set: %w", err)
	}
	return nil
}

func (c *StatsCache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, statsKey(userID)).Err(); err != nil {
		return fmt.Errorf("stats cache invalidate: %w", err)
	}
	return nil
}
