package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/commercehub/backend/internal/domain/ordersync"
	"github.com/commercehub/backend/internal/infrastructure/config"
)

// StatusCacheFactory creates status caches based on configuration
type StatusCacheFactory struct {
	redisConfig           config.RedisConfig
	client                *redis.Client
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StatusCacheFactoryOption is a functional option for configuring the factory
type StatusCacheFactoryOption func(*StatusCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StatusCacheFactoryOption {
	return func(f *StatusCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) StatusCacheFactoryOption {
	return func(f *StatusCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithRedisClient makes the factory reuse an existing Redis client instead
// of dialing its own, so one connection pool can serve both the cache and
// health checks.
func WithRedisClient(client *redis.Client) StatusCacheFactoryOption {
	return func(f *StatusCacheFactory) {
		f.client = client
	}
}

// NewStatusCacheFactory creates a new factory
func NewStatusCacheFactory(cfg config.RedisConfig, ttl time.Duration, opts ...StatusCacheFactoryOption) *StatusCacheFactory {
	f := &StatusCacheFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed status cache. A client supplied
// via WithRedisClient is pinged and reused; otherwise the factory dials its
// own connection from config.
func (f *StatusCacheFactory) CreateRedisCache() (ordersync.StatusCache, error) {
	if f.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := f.client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		return NewRedisStatusCacheWithClient(f.client, "", f.ttl), nil
	}

	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	cache, err := NewRedisStatusCache(redisCfg, f.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis status cache: %w", err)
	}

	return cache, nil
}

// CreateInMemoryCache creates an in-memory status cache.
// WARNING: In-memory caches do not share state across process instances,
// so status reads served by another instance will fall back to the
// durable store.
func (f *StatusCacheFactory) CreateInMemoryCache() ordersync.StatusCache {
	return NewInMemoryStatusCache()
}

// CreateCache creates a status cache based on whether Redis is available.
// It tries Redis first and falls back to in-memory when allowed.
func (f *StatusCacheFactory) CreateCache() (ordersync.StatusCache, error) {
	cache, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis status cache")
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for status cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory status cache",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
