package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/commercehub/backend/internal/domain/ordersync"
)

// InMemoryStatusCache implements StatusCache using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryStatusCache struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]ordersync.SyncJob
}

// NewInMemoryStatusCache creates a new in-memory status cache
func NewInMemoryStatusCache() *InMemoryStatusCache {
	return &InMemoryStatusCache{
		snapshots: make(map[uuid.UUID]ordersync.SyncJob),
	}
}

// Get returns the cached snapshot for the tenant or ErrStatusNotCached
func (c *InMemoryStatusCache) Get(ctx context.Context, tenantID uuid.UUID) (*ordersync.SyncJob, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	job, ok := c.snapshots[tenantID]
	if !ok {
		return nil, ordersync.ErrStatusNotCached
	}
	// Copy so callers cannot mutate the cached snapshot.
	out := job
	return &out, nil
}

// Set stores the snapshot for its tenant
func (c *InMemoryStatusCache) Set(ctx context.Context, job *ordersync.SyncJob) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshots[job.TenantID] = *job
	return nil
}

// Ensure InMemoryStatusCache implements StatusCache
var _ ordersync.StatusCache = (*InMemoryStatusCache)(nil)
