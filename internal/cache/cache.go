package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrCacheMiss is returned when a key is absent or Redis is not configured
var ErrCacheMiss = errors.New("cache miss")

// ReportCache caches reconciliation and forecast rollups in Redis. Rollups
// scan the full attribution/payout sets, so dashboards hitting them
// repeatedly would be expensive without it. A nil Redis client disables
// caching entirely.
type ReportCache struct {
	redis  *redis.Client
	logger *logrus.Logger
	ttl    time.Duration
}

// NewReportCache creates a new report cache
func NewReportCache(redisClient *redis.Client, logger *logrus.Logger, ttl time.Duration) *ReportCache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &ReportCache{redis: redisClient, logger: logger, ttl: ttl}
}

// ReconciliationKey builds the cache key for a reconciliation period
func ReconciliationKey(from, to time.Time) string {
	return fmt.Sprintf("report:reconciliation:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// ForecastKey builds the cache key for a forecast scenario
func ForecastKey(scenario string) string {
	return fmt.Sprintf("report:forecast:%s", scenario)
}

// Get unmarshals a cached report into dest, or returns ErrCacheMiss
func (c *ReportCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.redis == nil {
		return ErrCacheMiss
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Warn("Redis read failed")
		}
		return ErrCacheMiss
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return ErrCacheMiss
	}
	return nil
}

// Set caches a report under the configured TTL. Failures are logged, never
// propagated: the cache is best-effort.
func (c *ReportCache) Set(ctx context.Context, key string, value interface{}) {
	if c.redis == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal cached report")
		return
	}

	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis write failed")
	}
}

// InvalidateReports drops all cached rollups. Called after payout transitions
// and attribution recalculation so reports never serve stale money figures.
func (c *ReportCache) InvalidateReports(ctx context.Context) {
	if c.redis == nil {
		return
	}

	iter := c.redis.Scan(ctx, 0, "report:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.WithError(err).Warn("Redis scan failed during invalidation")
		return
	}
	if len(keys) > 0 {
		if err := c.redis.Del(ctx, keys...).Err(); err != nil {
			c.logger.WithError(err).Warn("Redis delete failed during invalidation")
		}
	}
}
