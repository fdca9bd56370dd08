package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanCount = 100

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte) error {
	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

// Version reads the shared version counter. A missing counter is version 0.
func (c *RedisCache) Version(ctx context.Context) (uint64, error) {
	v, err := c.client.Get(ctx, versionKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis GET %s: %w", versionKey, err)
	}
	return v, nil
}

// Invalidate bumps the version, then walks the keyspace with SCAN and
// deletes every cached response in one pipeline, so it never blocks Redis
// the way KEYS would. The version counter itself is kept.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	const scanPattern = keyPrefix + "*"

	if err := c.client.Incr(ctx, versionKey).Err(); err != nil {
		return fmt.Errorf("redis INCR %s: %w", versionKey, err)
	}

	var (
		keysToDelete []string
		cursor       uint64
	)
	for {
		currentKeys, next, err := c.client.Scan(ctx, cursor, scanPattern, scanCount).Result()
		if err != nil {
			return fmt.Errorf("redis SCAN %s: %w", scanPattern, err)
		}
		for _, key := range currentKeys {
			if key != versionKey {
				keysToDelete = append(keysToDelete, key)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(keysToDelete) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, key := range keysToDelete {
		pipe.Del(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline deleting %d keys: %w", len(keysToDelete), err)
	}
	return nil
}
