package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/commercehub/backend/internal/domain/ordersync"
	"github.com/commercehub/backend/internal/infrastructure/persistence/models"
)

// newMockSyncJobRepository creates a GormSyncJobRepository with a mocked SQL connection
func newMockSyncJobRepository(t *testing.T) (*GormSyncJobRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormSyncJobRepository(gormDB), mock, mockDB
}

func setupSyncJobTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.SyncJobModel{})
	require.NoError(t, err)

	return db
}

func TestGormSyncJobRepository_FindLatestByTenant_NotFound(t *testing.T) {
	repo, mock, mockDB := newMockSyncJobRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "sync_jobs" WHERE tenant_id = \$1 ORDER BY started_at DESC,.* LIMIT .*`).
		WithArgs(tenantID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindLatestByTenant(context.Background(), tenantID)
	assert.ErrorIs(t, err, ordersync.ErrJobNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSyncJobRepository_SaveAndFind(t *testing.T) {
	db := setupSyncJobTestDB(t)
	repo := NewGormSyncJobRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	job := ordersync.NewSyncJob(tenantID, ordersync.SyncModeFull, time.Now().UTC().AddDate(0, -3, 0))
	job.TotalEstimate = 120

	require.NoError(t, repo.Save(ctx, job))

	found, err := repo.FindLatestByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, found.ID)
	assert.Equal(t, ordersync.JobStatusStarting, found.Status)
	assert.Equal(t, 120, found.TotalEstimate)
}

func TestGormSyncJobRepository_SaveUpdatesSnapshot(t *testing.T) {
	db := setupSyncJobTestDB(t)
	repo := NewGormSyncJobRepository(db)
	ctx := context.Background()

	job := ordersync.NewSyncJob(uuid.New(), ordersync.SyncModeIncremental, time.Now().UTC())
	require.NoError(t, repo.Save(ctx, job))

	job.Status = ordersync.JobStatusSyncing
	job.ProcessedCount = 50
	job.CurrentPage = 2
	job.NextPageURL = "https://shop.example.com/api/orders.json?page_info=xyz"
	job.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.Save(ctx, job))

	found, err := repo.FindLatestByTenant(ctx, job.TenantID)
	require.NoError(t, err)
	assert.Equal(t, ordersync.JobStatusSyncing, found.Status)
	assert.Equal(t, 50, found.ProcessedCount)
	assert.Equal(t, "https://shop.example.com/api/orders.json?page_info=xyz", found.NextPageURL,
		"cursor must survive in the durable snapshot")

	var count int64
	require.NoError(t, db.Model(&models.SyncJobModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "saving the same job twice must not create a second row")
}

func TestGormSyncJobRepository_FindLatestPrefersNewest(t *testing.T) {
	db := setupSyncJobTestDB(t)
	repo := NewGormSyncJobRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	older := ordersync.NewSyncJob(tenantID, ordersync.SyncModeFull, time.Now().UTC())
	older.StartedAt = time.Now().UTC().Add(-2 * time.Hour)
	older.Complete()
	require.NoError(t, repo.Save(ctx, older))

	newer := ordersync.NewSyncJob(tenantID, ordersync.SyncModeIncremental, time.Now().UTC())
	require.NoError(t, repo.Save(ctx, newer))

	found, err := repo.FindLatestByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, found.ID)

	recent, err := repo.FindRecentByTenant(ctx, tenantID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, newer.ID, recent[0].ID)
	assert.Equal(t, older.ID, recent[1].ID)
}
