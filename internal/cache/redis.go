package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oggyb/matchmaker/internal/config"
	"github.com/redis/go-redis/v9"
)

const matchCountTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr:         cfg.Redis.Addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// KeyForMatchCount generates Redis key for a user's match count
func (c *RedisCache) KeyForMatchCount(userID uint64) string {
	return fmt.Sprintf("matches:count:%d", userID)
}

// KeyForSwipeWindow generates the fixed-window rate key for a swiper.
func (c *RedisCache) KeyForSwipeWindow(userID uint64, at time.Time) string {
	return fmt.Sprintf("swipes:rate:%d:%d", userID, at.Unix()/60)
}

func (c *RedisCache) SetMatchCount(ctx context.Context, userID uint64, count int64) error {
	// Always refresh TTL when updating
	return c.Client.Set(ctx, c.KeyForMatchCount(userID), count, matchCountTTL).Err()
}

// GetMatchCount returns the cached count and whether it was present.
func (c *RedisCache) GetMatchCount(ctx context.Context, userID uint64) (int64, bool, error) {
	key := c.KeyForMatchCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat garbage as a miss
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, matchCountTTL).Err()
	return n, true, nil
}

// InvalidateMatchCounts drops the cached counts of every given user.
func (c *RedisCache) InvalidateMatchCounts(ctx context.Context, userIDs ...uint64) error {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, c.KeyForMatchCount(id))
	}
	if len(keys) == 0 {
		return nil
	}
	return c.Del(ctx, keys...)
}

// IncrementSwipeWindow counts one swipe in the current one-minute window and
// returns the running total. The key expires with its window.
func (c *RedisCache) IncrementSwipeWindow(ctx context.Context, userID uint64, now time.Time) (int64, error) {
	key := c.KeyForSwipeWindow(userID, now)
	count, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment swipe window: %w", err)
	}
	if count == 1 {
		if err := c.Client.Expire(ctx, key, time.Minute).Err(); err != nil {
			return 0, fmt.Errorf("set swipe window ttl: %w", err)
		}
	}
	return count, nil
}
