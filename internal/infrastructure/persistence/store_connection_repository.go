package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commercehub/backend/internal/domain/ordersync"
	"github.com/commercehub/backend/internal/infrastructure/persistence/models"
)

// GormStoreConnectionRepository implements ordersync.ConnectionStore using GORM
type GormStoreConnectionRepository struct {
	db *gorm.DB
}

// NewGormStoreConnectionRepository creates a new GormStoreConnectionRepository
func NewGormStoreConnectionRepository(db *gorm.DB) *GormStoreConnectionRepository {
	return &GormStoreConnectionRepository{db: db}
}

// FindByTenant returns the tenant's store connection
func (r *GormStoreConnectionRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*ordersync.StoreConnection, error) {
	var model models.StoreConnectionModel
	if err := r.db.WithContext(ctx).First(&model, "tenant_id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ordersync.ErrConnectionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns every store connection, for the periodic trigger
func (r *GormStoreConnectionRepository) FindAll(ctx context.Context) ([]ordersync.StoreConnection, error) {
	var connectionModels []models.StoreConnectionModel
	if err := r.db.WithContext(ctx).
		Order("tenant_id ASC").
		Find(&connectionModels).Error; err != nil {
		return nil, err
	}

	connections := make([]ordersync.StoreConnection, len(connectionModels))
	for i, model := range connectionModels {
		connections[i] = *model.ToDomain()
	}
	return connections, nil
}

// Save creates or updates a store connection
func (r *GormStoreConnectionRepository) Save(ctx context.Context, conn *ordersync.StoreConnection) error {
	model := &models.StoreConnectionModel{}
	model.FromDomain(conn)
	return r.db.WithContext(ctx).Save(model).Error
}

// MarkSynced records a completed sync run on the connection.
// last_sync_at is always set; initial_sync_completed is only ever set to
// true, never cleared.
func (r *GormStoreConnectionRepository) MarkSynced(ctx context.Context, tenantID uuid.UUID, completedAt time.Time, markInitialCompleted bool) error {
	updates := map[string]interface{}{
		"last_sync_at": completedAt,
		"updated_at":   time.Now().UTC(),
	}
	if markInitialCompleted {
		updates["initial_sync_completed"] = true
	}

	result := r.db.WithContext(ctx).
		Model(&models.StoreConnectionModel{}).
		Where("tenant_id = ?", tenantID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ordersync.ErrConnectionNotFound
	}
	return nil
}

// Ensure GormStoreConnectionRepository implements ConnectionStore
var _ ordersync.ConnectionStore = (*GormStoreConnectionRepository)(nil)
