package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"savn/backend/internal/domain"
)

type RedisAnalyticsCache struct {
	client *redis.Client
}

func NewRedisAnalyticsCache(addr string, password string, db int) *RedisAnalyticsCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisAnalyticsCache{client: client}
}

func (c *RedisAnalyticsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisAnalyticsCache) Close() error {
	return c.client.Close()
}

func (c *RedisAnalyticsCache) Get(ctx context.Context, key string) (*domain.AnalyticsReport, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var report domain.AnalyticsReport
	if err := json.Unmarshal([]byte(val), &report); err != nil {
		return nil, false, err
	}
	return &report, true, nil
}

func (c *RedisAnalyticsCache) Set(ctx context.Context, key string, value *domain.AnalyticsReport, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisAnalyticsCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
