package ordersync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/commercehub/backend/internal/domain/ordersync"
	"github.com/commercehub/backend/internal/infrastructure/telemetry"
)

const tracerName = "ordersync"

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// OrchestratorConfig holds the sync engine limits and windows
type OrchestratorConfig struct {
	// PageSize is how many orders to request per page
	PageSize int
	// MaxPages is the safety cap on pages per pass
	MaxPages int
	// MaxRateLimitRetries bounds consecutive 429 retries on one page
	MaxRateLimitRetries int
	// Lookback is the order history window of a full sync
	Lookback time.Duration
	// OverlapBuffer is subtracted from lastSyncAt for the incremental
	// lower bound so records written during the previous run are re-read
	OverlapBuffer time.Duration
	// StalenessThreshold is how long an active job may go without a
	// progress write before it is considered orphaned by a restart
	StalenessThreshold time.Duration
}

// Validate fills in defaults for zero values
func (c *OrchestratorConfig) Validate() {
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 500
	}
	if c.MaxRateLimitRetries <= 0 {
		c.MaxRateLimitRetries = 5
	}
	if c.Lookback <= 0 {
		c.Lookback = 90 * 24 * time.Hour
	}
	if c.OverlapBuffer < 0 {
		c.OverlapBuffer = 0
	} else if c.OverlapBuffer == 0 {
		c.OverlapBuffer = 10 * time.Minute
	}
	if c.StalenessThreshold <= 0 {
		c.StalenessThreshold = 30 * time.Minute
	}
}

// ---------------------------------------------------------------------------
// Job Handle
// ---------------------------------------------------------------------------

// jobHandle tracks one running sync goroutine. The handle is retained in
// the registry after completion so callers can still Wait on it. The
// starting snapshot is kept so concurrent Start calls have a value to
// return before the run's first progress write lands.
type jobHandle struct {
	done     chan struct{}
	starting ordersync.SyncJob
}

func (h *jobHandle) finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// SyncOrchestrator
// ---------------------------------------------------------------------------

// SyncOrchestrator drives order synchronization runs. It enforces one
// active run per tenant, walks the provider's cursor pagination page by
// page, and reports progress through the ProgressTracker.
type SyncOrchestrator struct {
	cfg         OrchestratorConfig
	fetcher     ordersync.PageFetcher
	jobs        ordersync.SyncJobStore
	connections ordersync.ConnectionStore
	progress    *ProgressTracker
	persister   *BatchPersister
	pacer       *RequestPacer
	connUpdater *ConnectionStatusUpdater
	logger      *zap.Logger
	metrics     *telemetry.SyncMetrics

	mu      sync.Mutex
	running map[uuid.UUID]*jobHandle
}

// OrchestratorOption configures optional orchestrator collaborators
type OrchestratorOption func(*SyncOrchestrator)

// WithSyncMetrics attaches sync engine instruments to the orchestrator
func WithSyncMetrics(m *telemetry.SyncMetrics) OrchestratorOption {
	return func(o *SyncOrchestrator) {
		o.metrics = m
	}
}

// NewSyncOrchestrator creates a new SyncOrchestrator
func NewSyncOrchestrator(
	cfg OrchestratorConfig,
	fetcher ordersync.PageFetcher,
	jobs ordersync.SyncJobStore,
	connections ordersync.ConnectionStore,
	progress *ProgressTracker,
	persister *BatchPersister,
	pacer *RequestPacer,
	connUpdater *ConnectionStatusUpdater,
	logger *zap.Logger,
	opts ...OrchestratorOption,
) *SyncOrchestrator {
	cfg.Validate()
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &SyncOrchestrator{
		cfg:         cfg,
		fetcher:     fetcher,
		jobs:        jobs,
		connections: connections,
		progress:    progress,
		persister:   persister,
		pacer:       pacer,
		connUpdater: connUpdater,
		logger:      logger,
		running:     make(map[uuid.UUID]*jobHandle),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ---------------------------------------------------------------------------
// Public API
// ---------------------------------------------------------------------------

// Start begins a sync run for the tenant. When a run is already active the
// call is a no-op returning the current snapshot. A stale interrupted run
// of the same mode with a persisted cursor is resumed instead of restarted.
// The run itself executes on its own goroutine; Start returns immediately
// with the initial snapshot.
func (o *SyncOrchestrator) Start(ctx context.Context, tenantID uuid.UUID, mode ordersync.SyncMode) (*ordersync.SyncJob, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", ordersync.ErrInvalidSyncMode, mode)
	}

	conn, err := o.connections.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// Fast path: this instance already runs a job for the tenant.
	if h := o.handle(tenantID); h != nil && !h.finished() {
		return o.currentSnapshot(ctx, tenantID, h), nil
	}

	// Durable check covers jobs started by other instances, and decides
	// whether a stale interrupted run should be resumed from its cursor.
	var job *ordersync.SyncJob
	resumed := false
	latest, err := o.jobs.FindLatestByTenant(ctx, tenantID)
	if err != nil && !errors.Is(err, ordersync.ErrJobNotFound) {
		return nil, err
	}
	if err == nil && latest.IsActive() {
		cutoff := time.Now().UTC().Add(-o.cfg.StalenessThreshold)
		if !latest.StaleSince(cutoff) {
			// Another run still holds the tenant's slot.
			return latest, nil
		}
		if latest.Mode == mode && latest.NextPageURL != "" {
			job = latest
			resumed = true
		} else {
			// Not resumable: close out the orphan so history reads clean.
			latest.Fail("abandoned after interruption")
			if err := o.jobs.Save(ctx, latest); err != nil {
				o.logger.Warn("failed to close abandoned job",
					zap.String("tenant_id", tenantID.String()),
					zap.Error(err),
				)
			}
		}
	}

	if job == nil {
		job = ordersync.NewSyncJob(tenantID, mode, o.lowerBound(mode, conn))
	}

	h := &jobHandle{done: make(chan struct{}), starting: *job}
	o.mu.Lock()
	if existing, ok := o.running[tenantID]; ok && !existing.finished() {
		o.mu.Unlock()
		return o.currentSnapshot(ctx, tenantID, existing), nil
	}
	o.running[tenantID] = h
	o.mu.Unlock()

	// The starting snapshot must be durable before the caller sees it.
	o.progress.Publish(ctx, job)
	snapshot := *job

	runCtx := context.WithoutCancel(ctx)
	go o.run(runCtx, h, job, conn.Credential(), resumed)

	return &snapshot, nil
}

// GetStatus returns the tenant's latest job snapshot, cache first with a
// durable fallback. Returns ErrJobNotFound when the tenant never synced.
func (o *SyncOrchestrator) GetStatus(ctx context.Context, tenantID uuid.UUID) (*ordersync.SyncJob, error) {
	return o.progress.Get(ctx, tenantID)
}

// History returns up to limit recent jobs for the tenant, newest first
func (o *SyncOrchestrator) History(ctx context.Context, tenantID uuid.UUID, limit int) ([]ordersync.SyncJob, error) {
	return o.jobs.FindRecentByTenant(ctx, tenantID, limit)
}

// Wait blocks until the tenant's current run finishes. Returns immediately
// when no run was started by this instance.
func (o *SyncOrchestrator) Wait(tenantID uuid.UUID) {
	if h := o.handle(tenantID); h != nil {
		<-h.done
	}
}

// currentSnapshot returns the tenant's live snapshot for a Start call that
// found a run in flight. The handle's starting snapshot covers the window
// between handle registration and the run's first progress write.
func (o *SyncOrchestrator) currentSnapshot(ctx context.Context, tenantID uuid.UUID, h *jobHandle) *ordersync.SyncJob {
	if job, err := o.progress.Get(ctx, tenantID); err == nil {
		return job
	}
	snap := h.starting
	return &snap
}

func (o *SyncOrchestrator) handle(tenantID uuid.UUID) *jobHandle {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running[tenantID]
}

// lowerBound computes the order window start for a new run
func (o *SyncOrchestrator) lowerBound(mode ordersync.SyncMode, conn *ordersync.StoreConnection) time.Time {
	now := time.Now().UTC()
	if mode == ordersync.SyncModeIncremental && conn.LastSyncAt != nil {
		return conn.LastSyncAt.Add(-o.cfg.OverlapBuffer)
	}
	// First sync of a tenant, or a full backfill: fixed lookback window.
	return now.Add(-o.cfg.Lookback)
}

// ---------------------------------------------------------------------------
// Run Loop
// ---------------------------------------------------------------------------

// syncPass is one sweep over the order window with a single filter
type syncPass struct {
	stage ordersync.SyncStage
	query ordersync.OrderQuery
}

// passesFor builds the pass list for a job. A full sync is one
// created-since sweep; an incremental sync runs a created-since sweep and
// then an updated-since sweep so edits to old orders are picked up too.
func (o *SyncOrchestrator) passesFor(job *ordersync.SyncJob) []syncPass {
	lower := job.DateLowerBound
	base := ordersync.OrderQuery{PageSize: o.cfg.PageSize}

	if job.Mode == ordersync.SyncModeIncremental {
		created := base
		created.CreatedAfter = &lower
		updated := base
		updated.UpdatedAfter = &lower
		return []syncPass{
			{stage: ordersync.SyncStageCreated, query: created},
			{stage: ordersync.SyncStageUpdated, query: updated},
		}
	}

	backfill := base
	backfill.CreatedAfter = &lower
	return []syncPass{{stage: ordersync.SyncStageBackfill, query: backfill}}
}

func (o *SyncOrchestrator) run(ctx context.Context, h *jobHandle, job *ordersync.SyncJob, cred ordersync.Credential, resumed bool) {
	defer close(h.done)

	ctx, span := telemetry.StartSpan(ctx, tracerName, "ordersync.run",
		telemetry.WithAttribute("tenant_id", job.TenantID.String()),
		telemetry.WithAttribute("sync.mode", job.Mode.String()),
		telemetry.WithAttribute("sync.resumed", resumed),
	)
	defer span.End()

	log := o.logger.With(
		zap.String("tenant_id", job.TenantID.String()),
		zap.String("job_id", job.ID.String()),
		zap.String("mode", job.Mode.String()),
	)
	log.Info("sync run started",
		zap.Bool("resumed", resumed),
		zap.Time("lower_bound", job.DateLowerBound),
	)

	passes := o.passesFor(job)

	// The count is advisory: it drives progress display and nothing else.
	// A resumed run keeps its persisted estimate so the observable status
	// never moves backward from SYNCING to COUNTING.
	if !resumed {
		counting := ordersync.JobStatusCounting
		countMsg := "estimating order count"
		o.progress.Update(ctx, job, JobPatch{Status: &counting, Message: &countMsg})

		estimate, err := o.fetcher.CountEstimate(ctx, cred, job.TenantID, passes[0].query)
		if err != nil {
			log.Warn("order count estimate failed", zap.Error(err))
			estimate = job.TotalEstimate
		}
		o.progress.Update(ctx, job, JobPatch{TotalEstimate: &estimate})
	}

	// A resumed job continues its interrupted pass from the persisted
	// cursor; passes that already completed are skipped.
	resumeURL := ""
	if resumed {
		resumeURL = job.NextPageURL
		for len(passes) > 1 && passes[0].stage != job.Stage {
			passes = passes[1:]
		}
	}

	for i := range passes {
		pass := passes[i]
		startURL := o.fetcher.FirstPageURL(cred, job.TenantID, pass.query)
		if i == 0 && resumeURL != "" {
			startURL = resumeURL
		} else {
			firstPage := 1
			noCursor := ""
			o.progress.Update(ctx, job, JobPatch{Stage: &pass.stage, CurrentPage: &firstPage, NextPageURL: &noCursor})
		}

		if err := o.runPass(ctx, job, cred, startURL, log); err != nil {
			job.Fail(err.Error())
			o.progress.Publish(ctx, job)
			telemetry.RecordError(ctx, err)
			if o.metrics != nil {
				o.metrics.RecordJobFailed(ctx, job.TenantID.String(), job.Mode.String(), time.Since(job.StartedAt))
			}
			log.Error("sync run failed",
				zap.String("stage", pass.stage.String()),
				zap.Int("page", job.CurrentPage),
				zap.Error(err),
			)
			return
		}
	}

	job.Complete()
	o.progress.Publish(ctx, job)
	if o.metrics != nil {
		o.metrics.RecordJobCompleted(ctx, job.TenantID.String(), job.Mode.String(), time.Since(job.StartedAt))
	}
	log.Info("sync run completed", zap.Int("processed", job.ProcessedCount))

	if job.CompletedAt != nil {
		// Best-effort: the run already completed, a failed stamp only
		// widens the next incremental window.
		_ = o.connUpdater.OnCompleted(ctx, job.TenantID, job.Mode, *job.CompletedAt)
	}
}

// runPass walks one pass page by page until the provider reports no more
// data: an empty page or a response without a rel="next" link.
func (o *SyncOrchestrator) runPass(ctx context.Context, job *ordersync.SyncJob, cred ordersync.Credential, pageURL string, log *zap.Logger) error {
	syncing := ordersync.JobStatusSyncing
	retries := 0

	for pageURL != "" {
		if job.CurrentPage > o.cfg.MaxPages {
			return fmt.Errorf("%w: page %d over cap %d", ordersync.ErrPageLimitExceeded, job.CurrentPage, o.cfg.MaxPages)
		}

		msg := fmt.Sprintf("syncing page %d", job.CurrentPage)
		o.progress.Update(ctx, job, JobPatch{Status: &syncing, Message: &msg})

		page, err := o.fetcher.FetchPage(ctx, pageURL, cred, job.TenantID)
		if errors.Is(err, ordersync.ErrRateLimited) {
			if o.metrics != nil {
				o.metrics.RecordRateLimitHit(ctx, job.TenantID.String(), job.Mode.String())
			}
			retries++
			if retries > o.cfg.MaxRateLimitRetries {
				return fmt.Errorf("%w: page %d", ordersync.ErrRateLimitRetriesUsed, job.CurrentPage)
			}
			limited := ordersync.JobStatusRateLimited
			cooldownMsg := fmt.Sprintf("rate limited, retrying page %d in %s", job.CurrentPage, o.pacer.CooldownDuration())
			o.progress.Update(ctx, job, JobPatch{Status: &limited, Message: &cooldownMsg})
			log.Warn("provider rate limited",
				zap.Int("page", job.CurrentPage),
				zap.Int("attempt", retries),
			)
			if err := o.pacer.Cooldown(ctx); err != nil {
				return fmt.Errorf("cancelled during rate limit cooldown: %w", err)
			}
			// Retry the same page.
			continue
		}
		if err != nil {
			return err
		}
		retries = 0
		if o.metrics != nil {
			o.metrics.RecordPageFetched(ctx, job.TenantID.String(), job.Mode.String(), job.Stage.String())
		}

		if len(page.Records) == 0 {
			return nil
		}

		stored := o.persister.Persist(ctx, job.TenantID, page.Records)
		processed := job.ProcessedCount + stored
		o.progress.Update(ctx, job, JobPatch{ProcessedCount: &processed, NextPageURL: &page.NextURL})
		if o.metrics != nil {
			o.metrics.RecordOrdersUpserted(ctx, job.TenantID.String(), job.Mode.String(), int64(stored))
		}

		if page.NextURL == "" {
			return nil
		}

		waiting := ordersync.JobStatusWaiting
		waitMsg := "waiting before next page"
		o.progress.Update(ctx, job, JobPatch{Status: &waiting, Message: &waitMsg})
		if err := o.pacer.WaitBetweenPages(ctx, job.Mode); err != nil {
			return fmt.Errorf("cancelled while pacing: %w", err)
		}

		pageURL = page.NextURL
		nextPage := job.CurrentPage + 1
		o.progress.Update(ctx, job, JobPatch{CurrentPage: &nextPage})
	}

	return nil
}
