package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/yyvfuruta/employees/internal/env"
)

// Redis is a wrapper around the redis client.
type Redis struct {
	redis *redis.Client
	ttl   time.Duration
}

var _ Cache = (*Redis)(nil)

const scanBatch = 100

func New(ttl time.Duration) (*Redis, error) {
	vars, err := env.Require("REDIS_HOST", "REDIS_PORT")
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s:%s", vars["REDIS_HOST"], vars["REDIS_PORT"])
	rdb := redis.NewClient(&redis.Options{Addr: url})

	return NewWithClient(rdb, ttl), nil
}

func NewWithClient(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{redis: rdb, ttl: ttl}
}

// Get gets a value from the cache.
func (c *Redis) Get(ctx context.Context, ns Namespace, key string, dst any) (bool, error) {
	data, err := c.redis.Get(ctx, storageKey(ns, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	if err := decode(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Put sets a value in the cache.
func (c *Redis) Put(ctx context.Context, ns Namespace, key string, value any) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, storageKey(ns, key), data, c.ttl).Err()
}

func (c *Redis) Evict(ctx context.Context, ns Namespace, key string) error {
	return c.redis.Del(ctx, storageKey(ns, key)).Err()
}

// Clear scans the namespace prefix and deletes matches in batches.
func (c *Redis) Clear(ctx context.Context, ns Namespace) error {
	iter := c.redis.Scan(ctx, 0, namespacePrefix(ns)+"*", scanBatch).Iterator()

	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := c.redis.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(batch) > 0 {
		return c.redis.Del(ctx, batch...).Err()
	}
	return nil
}

// Ping pings the cache.
func (c *Redis) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.redis.Close()
}
