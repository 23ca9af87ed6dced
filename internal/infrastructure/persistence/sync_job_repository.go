package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/commercehub/backend/internal/domain/ordersync"
	"github.com/commercehub/backend/internal/infrastructure/persistence/models"
)

// GormSyncJobRepository implements ordersync.SyncJobStore using GORM.
// It is the durable side of progress tracking; the in-memory/redis cache
// sits in front of it.
type GormSyncJobRepository struct {
	db *gorm.DB
}

// NewGormSyncJobRepository creates a new GormSyncJobRepository
func NewGormSyncJobRepository(db *gorm.DB) *GormSyncJobRepository {
	return &GormSyncJobRepository{db: db}
}

// Save creates or updates the job snapshot, keyed by job ID
func (r *GormSyncJobRepository) Save(ctx context.Context, job *ordersync.SyncJob) error {
	model := models.SyncJobModelFromDomain(job)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// FindLatestByTenant returns the most recent job snapshot for a tenant
func (r *GormSyncJobRepository) FindLatestByTenant(ctx context.Context, tenantID uuid.UUID) (*ordersync.SyncJob, error) {
	var model models.SyncJobModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("started_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ordersync.ErrJobNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRecentByTenant returns up to limit job snapshots, newest first
func (r *GormSyncJobRepository) FindRecentByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]ordersync.SyncJob, error) {
	if limit <= 0 {
		limit = 20
	}
	var jobModels []models.SyncJobModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("started_at DESC").
		Limit(limit).
		Find(&jobModels).Error; err != nil {
		return nil, err
	}

	jobs := make([]ordersync.SyncJob, len(jobModels))
	for i, model := range jobModels {
		jobs[i] = *model.ToDomain()
	}
	return jobs, nil
}

// Ensure GormSyncJobRepository implements SyncJobStore
var _ ordersync.SyncJobStore = (*GormSyncJobRepository)(nil)
