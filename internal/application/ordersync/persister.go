package ordersync

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/commercehub/backend/internal/domain/ordersync"
)

// BatchPersister writes one page of normalized orders to the record store.
// Failures are per record: a broken record is logged and skipped so one
// bad row never aborts the page.
type BatchPersister struct {
	records ordersync.OrderRecordStore
	logger  *zap.Logger
}

// NewBatchPersister creates a new BatchPersister
func NewBatchPersister(records ordersync.OrderRecordStore, logger *zap.Logger) *BatchPersister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchPersister{
		records: records,
		logger:  logger,
	}
}

// Persist upserts every record of one page and returns how many were stored.
// Replaying a page is safe: the upsert is keyed by (tenantId, recordId).
func (p *BatchPersister) Persist(ctx context.Context, tenantID uuid.UUID, records []ordersync.OrderRecord) int {
	stored := 0
	for i := range records {
		if err := p.records.Upsert(ctx, &records[i]); err != nil {
			p.logger.Error("failed to persist order record",
				zap.String("tenant_id", tenantID.String()),
				zap.String("record_id", records[i].RecordID),
				zap.Error(err),
			)
			continue
		}
		stored++
	}
	return stored
}
