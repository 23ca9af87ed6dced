package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/commercehub/backend/internal/domain/ordersync"
)

// SyncStarter starts a sync run for a tenant. Starting is idempotent while
// a run is active, so the trigger never has to dedupe itself against a run
// that is still going.
type SyncStarter interface {
	Start(ctx context.Context, tenantID uuid.UUID, mode ordersync.SyncMode) (*ordersync.SyncJob, error)
}

// ---------------------------------------------------------------------------
// SyncTriggerConfig
// ---------------------------------------------------------------------------

// SyncTriggerConfig holds configuration for the background sync trigger
type SyncTriggerConfig struct {
	// ScanInterval is how often connections are checked for due syncs
	ScanInterval time.Duration

	// SyncInterval is the minimum gap between incremental syncs per tenant
	SyncInterval time.Duration
}

// DefaultSyncTriggerConfig returns default configuration
func DefaultSyncTriggerConfig() SyncTriggerConfig {
	return SyncTriggerConfig{
		ScanInterval: 5 * time.Minute,
		SyncInterval: 24 * time.Hour,
	}
}

// ---------------------------------------------------------------------------
// SyncTrigger
// ---------------------------------------------------------------------------

// SyncTrigger periodically scans store connections and starts the sync run
// each connection is due for: a full backfill for connections that never
// completed one, an incremental catch-up once SyncInterval has elapsed
// since the last completed run.
type SyncTrigger struct {
	config      SyncTriggerConfig
	starter     SyncStarter
	connections ordersync.ConnectionStore
	logger      *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncTrigger creates a new sync trigger
func NewSyncTrigger(
	config SyncTriggerConfig,
	starter SyncStarter,
	connections ordersync.ConnectionStore,
	logger *zap.Logger,
) *SyncTrigger {
	if config.ScanInterval <= 0 {
		config.ScanInterval = 5 * time.Minute
	}
	if config.SyncInterval <= 0 {
		config.SyncInterval = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncTrigger{
		config:      config,
		starter:     starter,
		connections: connections,
		logger:      logger,
	}
}

// Start starts the trigger loop
func (t *SyncTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Sync trigger started",
		zap.Duration("scan_interval", t.config.ScanInterval),
		zap.Duration("sync_interval", t.config.SyncInterval),
	)

	return nil
}

// Stop stops the trigger loop and waits for it to finish
func (t *SyncTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Sync trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop periodically scans connections for due syncs
func (t *SyncTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.ScanInterval)
	defer ticker.Stop()

	// Scan immediately on start
	t.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.scan(ctx)
		}
	}
}

// scan starts the due sync for every connection
func (t *SyncTrigger) scan(ctx context.Context) {
	connections, err := t.connections.FindAll(ctx)
	if err != nil {
		t.logger.Error("Failed to list store connections", zap.Error(err))
		return
	}

	now := time.Now().UTC()
	for i := range connections {
		conn := &connections[i]

		mode, due := t.dueMode(conn, now)
		if !due {
			continue
		}

		job, err := t.starter.Start(ctx, conn.TenantID, mode)
		if err != nil {
			t.logger.Error("Failed to start scheduled sync",
				zap.String("tenant_id", conn.TenantID.String()),
				zap.String("mode", mode.String()),
				zap.Error(err),
			)
			continue
		}

		t.logger.Info("Scheduled sync started",
			zap.String("tenant_id", conn.TenantID.String()),
			zap.String("mode", mode.String()),
			zap.String("job_id", job.ID.String()),
			zap.String("status", job.Status.String()),
		)
	}
}

// dueMode decides whether the connection needs a run right now and which
// mode it should use
func (t *SyncTrigger) dueMode(conn *ordersync.StoreConnection, now time.Time) (ordersync.SyncMode, bool) {
	if !conn.InitialSyncCompleted {
		return ordersync.SyncModeFull, true
	}
	if conn.LastSyncAt == nil || now.Sub(*conn.LastSyncAt) >= t.config.SyncInterval {
		return ordersync.SyncModeIncremental, true
	}
	return "", false
}
