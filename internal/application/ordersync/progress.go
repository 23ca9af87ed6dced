package ordersync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/commercehub/backend/internal/domain/ordersync"
)

// JobPatch is a partial update to a job snapshot. Nil fields are left
// untouched by Update.
type JobPatch struct {
	Status         *ordersync.JobStatus
	Stage          *ordersync.SyncStage
	TotalEstimate  *int
	ProcessedCount *int
	CurrentPage    *int
	NextPageURL    *string
	Message        *string
}

// ProgressTracker keeps the two views of job progress in step: the durable
// store that survives restarts and the cache that serves status polls.
// Both writes are best-effort; a failed progress write never fails the run.
type ProgressTracker struct {
	jobs   ordersync.SyncJobStore
	cache  ordersync.StatusCache
	logger *zap.Logger
}

// NewProgressTracker creates a new ProgressTracker
func NewProgressTracker(jobs ordersync.SyncJobStore, cache ordersync.StatusCache, logger *zap.Logger) *ProgressTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressTracker{
		jobs:   jobs,
		cache:  cache,
		logger: logger,
	}
}

// Update merges the patch into the job and publishes the result
func (t *ProgressTracker) Update(ctx context.Context, job *ordersync.SyncJob, patch JobPatch) {
	if patch.Status != nil {
		job.Status = *patch.Status
	}
	if patch.Stage != nil {
		job.Stage = *patch.Stage
	}
	if patch.TotalEstimate != nil {
		job.TotalEstimate = *patch.TotalEstimate
	}
	if patch.ProcessedCount != nil {
		job.ProcessedCount = *patch.ProcessedCount
	}
	if patch.CurrentPage != nil {
		job.CurrentPage = *patch.CurrentPage
	}
	if patch.NextPageURL != nil {
		job.NextPageURL = *patch.NextPageURL
	}
	if patch.Message != nil {
		job.Message = *patch.Message
	}
	t.Publish(ctx, job)
}

// Publish stamps the job and writes it to the durable store and the cache.
// Write failures are logged and swallowed so the sync loop keeps going.
func (t *ProgressTracker) Publish(ctx context.Context, job *ordersync.SyncJob) {
	job.UpdatedAt = time.Now().UTC()

	if err := t.jobs.Save(ctx, job); err != nil {
		t.logger.Warn("failed to persist job snapshot",
			zap.String("tenant_id", job.TenantID.String()),
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
	if err := t.cache.Set(ctx, job); err != nil {
		t.logger.Debug("failed to cache job snapshot",
			zap.String("tenant_id", job.TenantID.String()),
			zap.Error(err),
		)
	}
}

// Get returns the tenant's latest snapshot, cache first with a durable
// fallback. Returns ErrJobNotFound when the tenant has never synced.
func (t *ProgressTracker) Get(ctx context.Context, tenantID uuid.UUID) (*ordersync.SyncJob, error) {
	if job, err := t.cache.Get(ctx, tenantID); err == nil {
		return job, nil
	}

	job, err := t.jobs.FindLatestByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// Repopulate the cache so the next poll is cheap.
	if err := t.cache.Set(ctx, job); err != nil {
		t.logger.Debug("failed to repopulate status cache",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	}
	return job, nil
}
