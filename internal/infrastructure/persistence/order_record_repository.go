package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/commercehub/backend/internal/domain/ordersync"
	"github.com/commercehub/backend/internal/infrastructure/persistence/models"
)

// GormOrderRecordRepository implements ordersync.OrderRecordStore using GORM.
// Writes are idempotent upserts on (tenant_id, record_id): replaying the
// same record leaves storage unchanged apart from payload and synced_at
// (last-write-wins).
type GormOrderRecordRepository struct {
	db *gorm.DB
}

// NewGormOrderRecordRepository creates a new GormOrderRecordRepository
func NewGormOrderRecordRepository(db *gorm.DB) *GormOrderRecordRepository {
	return &GormOrderRecordRepository{db: db}
}

// Upsert writes one normalized order keyed by (tenant_id, record_id)
func (r *GormOrderRecordRepository) Upsert(ctx context.Context, record *ordersync.OrderRecord) error {
	model := &models.OrderRecordModel{}
	model.FromDomain(record)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "record_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"source_timestamp", "payload", "synced_at",
			}),
		}).
		Create(model).Error
}

// CountByTenant returns how many records are stored for a tenant
func (r *GormOrderRecordRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderRecordModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

// Ensure GormOrderRecordRepository implements OrderRecordStore
var _ ordersync.OrderRecordStore = (*GormOrderRecordRepository)(nil)
