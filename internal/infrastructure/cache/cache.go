// Package cache provides read-through JSON caching on Redis.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
)

// Keys shared between the services that fill and the ones that invalidate.
const (
	KeyCategories = "cache:categories"
)

type Cache struct {
	rdb    *redis.Client
	logger *logrus.Logger
}

func New(rdb *redis.Client, logger *logrus.Logger) *Cache {
	return &Cache{rdb: rdb, logger: logger}
}

// GetOrLoad returns the cached value for key or calls load and stores its result for ttl.
// Redis failures degrade to calling load.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c == nil || c.rdb == nil {
		return load(ctx)
	}
	var cached T
	ok, err := helpers.RedisGetJSON(ctx, c.rdb, key, &cached)
	if err != nil {
		helpers.LogWarn(c.logger, "cache read failed", err, logrus.Fields{"key": key})
	}
	if ok {
		return cached, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if err := helpers.RedisSetJSON(ctx, c.rdb, key, v, ttl); err != nil {
		helpers.LogWarn(c.logger, "cache write failed", err, logrus.Fields{"key": key})
	}
	return v, nil
}

// Set overwrites key with v.
func Set[T any](ctx context.Context, c *Cache, key string, v T, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return helpers.RedisSetJSON(ctx, c.rdb, key, v, ttl)
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := helpers.RedisDel(ctx, c.rdb, keys...); err != nil {
		helpers.LogWarn(c.logger, "cache invalidate failed", err, logrus.Fields{"keys": keys})
	}
}
