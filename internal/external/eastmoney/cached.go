package eastmoney

import (
	"context"
	"time"

	"github.com/wonny/soywatch/backend/internal/contracts"
	"github.com/wonny/soywatch/backend/pkg/logger"
	"github.com/wonny/soywatch/backend/pkg/redis"
)

// CachedClient serves repeated history requests for the same quote and day from Redis.
// Only successful, non-empty frames are cached; errors always reach the caller.
type CachedClient struct {
	next   contracts.MarketDataClient
	cache  *redis.Cache
	day    string
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedClient wraps next; day scopes cache keys (e.g. "2024-03-01")
func NewCachedClient(next contracts.MarketDataClient, cache *redis.Cache, day string, log *logger.Logger) *CachedClient {
	return &CachedClient{
		next:   next,
		cache:  cache,
		day:    day,
		ttl:    redis.TTLHistory,
		logger: log.WithField("module", "eastmoney_cache"),
	}
}

// GetHistory implements contracts.MarketDataClient
func (c *CachedClient) GetHistory(ctx context.Context, quoteID string) (*contracts.Frame, error) {
	key := redis.HistoryKey(quoteID, c.day)

	var cached contracts.Frame
	if found, err := c.cache.Get(ctx, key, &cached); err != nil {
		c.logger.WithError(err).WithField("quote_id", quoteID).Warn("Cache read failed")
	} else if found {
		c.logger.WithField("quote_id", quoteID).Debug("History served from cache")
		return &cached, nil
	}

	frame, err := c.next.GetHistory(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if frame.Len() > 0 {
		if err := c.cache.Set(ctx, key, frame, c.ttl); err != nil {
			c.logger.WithError(err).WithField("quote_id", quoteID).Warn("Cache write failed")
		}
	}
	return frame, nil
}
