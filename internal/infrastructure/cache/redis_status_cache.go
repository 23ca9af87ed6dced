package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/commercehub/backend/internal/domain/ordersync"
)

// RedisStatusCache implements StatusCache using Redis.
// This is suitable for distributed deployments where multiple instances
// need to serve status reads for jobs running elsewhere.
type RedisStatusCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisStatusCache creates a new Redis-backed status cache
func NewRedisStatusCache(cfg RedisConfig, ttl time.Duration) (*RedisStatusCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStatusCacheWithClient(client, "", ttl), nil
}

// NewRedisStatusCacheWithClient creates a cache with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisStatusCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStatusCache {
	if keyPrefix == "" {
		keyPrefix = "ordersync:status:"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStatusCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get returns the cached job snapshot for the tenant,
// or ErrStatusNotCached when the key is missing or unreadable
func (c *RedisStatusCache) Get(ctx context.Context, tenantID uuid.UUID) (*ordersync.SyncJob, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+tenantID.String()).Bytes()
	if err == redis.Nil {
		return nil, ordersync.ErrStatusNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read status snapshot: %w", err)
	}

	var job ordersync.SyncJob
	if err := json.Unmarshal(raw, &job); err != nil {
		// A corrupt snapshot is treated as a miss so callers fall back
		// to the durable store.
		return nil, ordersync.ErrStatusNotCached
	}
	return &job, nil
}

// Set stores the job snapshot for its tenant with the configured TTL
func (c *RedisStatusCache) Set(ctx context.Context, job *ordersync.SyncJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode status snapshot: %w", err)
	}

	if err := c.client.Set(ctx, c.keyPrefix+job.TenantID.String(), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write status snapshot: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisStatusCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisStatusCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisStatusCache implements StatusCache
var _ ordersync.StatusCache = (*RedisStatusCache)(nil)
