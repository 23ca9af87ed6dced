package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercehub/backend/internal/domain/ordersync"
)

func TestInMemoryStatusCache(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ErrStatusNotCached for unknown tenant", func(t *testing.T) {
		c := NewInMemoryStatusCache()

		_, err := c.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, ordersync.ErrStatusNotCached)
	})

	t.Run("stores and returns snapshot", func(t *testing.T) {
		c := NewInMemoryStatusCache()
		tenantID := uuid.New()
		job := ordersync.NewSyncJob(tenantID, ordersync.SyncModeFull, time.Now().AddDate(0, -3, 0))
		job.Status = ordersync.JobStatusSyncing
		job.ProcessedCount = 42

		require.NoError(t, c.Set(ctx, job))

		got, err := c.Get(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
		assert.Equal(t, ordersync.JobStatusSyncing, got.Status)
		assert.Equal(t, 42, got.ProcessedCount)
	})

	t.Run("returned snapshot is a copy", func(t *testing.T) {
		c := NewInMemoryStatusCache()
		tenantID := uuid.New()
		job := ordersync.NewSyncJob(tenantID, ordersync.SyncModeIncremental, time.Now().Add(-time.Hour))
		require.NoError(t, c.Set(ctx, job))

		first, err := c.Get(ctx, tenantID)
		require.NoError(t, err)
		first.ProcessedCount = 999

		second, err := c.Get(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, 0, second.ProcessedCount)
	})

	t.Run("newer snapshot replaces older one", func(t *testing.T) {
		c := NewInMemoryStatusCache()
		tenantID := uuid.New()

		job := ordersync.NewSyncJob(tenantID, ordersync.SyncModeFull, time.Now().AddDate(0, -3, 0))
		require.NoError(t, c.Set(ctx, job))

		job.Status = ordersync.JobStatusCompleted
		job.ProcessedCount = 120
		require.NoError(t, c.Set(ctx, job))

		got, err := c.Get(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, ordersync.JobStatusCompleted, got.Status)
		assert.Equal(t, 120, got.ProcessedCount)
	})

	t.Run("tenants do not share snapshots", func(t *testing.T) {
		c := NewInMemoryStatusCache()
		tenantA := uuid.New()
		tenantB := uuid.New()

		jobA := ordersync.NewSyncJob(tenantA, ordersync.SyncModeFull, time.Now().AddDate(0, -3, 0))
		require.NoError(t, c.Set(ctx, jobA))

		_, err := c.Get(ctx, tenantB)
		assert.ErrorIs(t, err, ordersync.ErrStatusNotCached)
	})
}
