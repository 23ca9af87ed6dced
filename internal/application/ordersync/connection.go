package ordersync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/commercehub/backend/internal/domain/ordersync"
)

// ConnectionStatusUpdater records a finished run on the store connection
type ConnectionStatusUpdater struct {
	connections ordersync.ConnectionStore
	logger      *zap.Logger
}

// NewConnectionStatusUpdater creates a new ConnectionStatusUpdater
func NewConnectionStatusUpdater(connections ordersync.ConnectionStore, logger *zap.Logger) *ConnectionStatusUpdater {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionStatusUpdater{
		connections: connections,
		logger:      logger,
	}
}

// OnCompleted stamps lastSyncAt with the run's completion time. A full run
// additionally sets initialSyncCompleted; incremental runs never clear it.
func (u *ConnectionStatusUpdater) OnCompleted(ctx context.Context, tenantID uuid.UUID, mode ordersync.SyncMode, completedAt time.Time) error {
	markInitial := mode == ordersync.SyncModeFull

	if err := u.connections.MarkSynced(ctx, tenantID, completedAt, markInitial); err != nil {
		u.logger.Error("failed to record sync completion on connection",
			zap.String("tenant_id", tenantID.String()),
			zap.String("mode", mode.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
