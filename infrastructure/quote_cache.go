package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookmaker/domain/entities"

	"github.com/redis/go-redis/v9"
)

// quoteCacheTTL bounds staleness if an invalidation is ever missed.
const quoteCacheTTL = 30 * time.Second

// RedisQuoteCache implements the QuoteCache interface over Redis. Failures
// are returned to the caller, which treats them as cache misses.
type RedisQuoteCache struct {
	rdb *redis.Client
}

// NewRedisQuoteCache creates a new Redis-backed quote cache
func NewRedisQuoteCache(rdb *redis.Client) *RedisQuoteCache {
	return &RedisQuoteCache{rdb: rdb}
}

// ConnectRedis creates and pings a Redis client
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return rdb, nil
}

func quoteCacheKey(matchID int64) string {
	return fmt.Sprintf("quotes:match:%d", matchID)
}

// GetActiveByMatch returns the cached quote board for a match, or nil on a
// cache miss.
func (c *RedisQuoteCache) GetActiveByMatch(ctx context.Context, matchID int64) ([]*entities.MarketQuote, error) {
	data, err := c.rdb.Get(ctx, quoteCacheKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read quote cache: %w", err)
	}

	var quotes []*entities.MarketQuote
	if err := json.Unmarshal(data, &quotes); err != nil {
		return nil, fmt.Errorf("failed to decode cached quotes: %w", err)
	}

	return quotes, nil
}

// SetActiveByMatch stores the quote board for a match
func (c *RedisQuoteCache) SetActiveByMatch(ctx context.Context, matchID int64, quotes []*entities.MarketQuote) error {
	data, err := json.Marshal(quotes)
	if err != nil {
		return fmt.Errorf("failed to encode quotes for cache: %w", err)
	}

	if err := c.rdb.Set(ctx, quoteCacheKey(matchID), data, quoteCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to write quote cache: %w", err)
	}

	return nil
}

// InvalidateMatch drops the cached quote board for a match
func (c *RedisQuoteCache) InvalidateMatch(ctx context.Context, matchID int64) error {
	if err := c.rdb.Del(ctx, quoteCacheKey(matchID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate quote cache: %w", err)
	}
	return nil
}
