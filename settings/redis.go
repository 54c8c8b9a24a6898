package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheKey is the Redis key holding the raw settings rows.
const DefaultCacheKey = "commission:settings"

// RedisCache shares the raw settings rows between processes. Each process
// still keeps its own decoded snapshot in its Provider.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisCache wraps client. A zero ttl keeps the entry until invalidated.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, key: DefaultCacheKey, ttl: ttl}
}

// NewRedisClient opens a client and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context) ([]Setting, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var rows []Setting
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false, fmt.Errorf("decode cached settings: %w", err)
	}
	return rows, len(rows) > 0, nil
}

func (c *RedisCache) Set(ctx context.Context, rows []Setting) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, data, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
