package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/commercehub/backend/internal/domain/ordersync"
)

// ---------------------------------------------------------------------------
// SyncJobModel
// ---------------------------------------------------------------------------

// SyncJobModel is the persistence model for the SyncJob snapshot.
// The pagination cursor is part of the durable snapshot so an interrupted
// run can resume instead of restarting.
type SyncJobModel struct {
	ID             uuid.UUID          `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID          `gorm:"type:uuid;not null;index:idx_sync_jobs_tenant_started,priority:1"`
	Mode           ordersync.SyncMode `gorm:"type:varchar(20);not null"`
	DateLowerBound time.Time          `gorm:"not null"`
	Status         ordersync.JobStatus `gorm:"type:varchar(20);not null;index"`
	Stage          ordersync.SyncStage `gorm:"type:varchar(20)"`
	TotalEstimate  int                `gorm:"not null;default:0"`
	ProcessedCount int                `gorm:"not null;default:0"`
	CurrentPage    int                `gorm:"not null;default:1"`
	NextPageURL    string             `gorm:"type:text"`
	Message        string             `gorm:"type:text"`
	StartedAt      time.Time          `gorm:"not null;index:idx_sync_jobs_tenant_started,priority:2,sort:desc"`
	CompletedAt    *time.Time
	ErrorAt        *time.Time
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncJobModel) TableName() string {
	return "sync_jobs"
}

// ToDomain converts the persistence model to a domain SyncJob
func (m *SyncJobModel) ToDomain() *ordersync.SyncJob {
	return &ordersync.SyncJob{
		ID:             m.ID,
		TenantID:       m.TenantID,
		Mode:           m.Mode,
		DateLowerBound: m.DateLowerBound,
		Status:         m.Status,
		Stage:          m.Stage,
		TotalEstimate:  m.TotalEstimate,
		ProcessedCount: m.ProcessedCount,
		CurrentPage:    m.CurrentPage,
		NextPageURL:    m.NextPageURL,
		Message:        m.Message,
		StartedAt:      m.StartedAt,
		CompletedAt:    m.CompletedAt,
		ErrorAt:        m.ErrorAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncJob
func (m *SyncJobModel) FromDomain(j *ordersync.SyncJob) {
	m.ID = j.ID
	m.TenantID = j.TenantID
	m.Mode = j.Mode
	m.DateLowerBound = j.DateLowerBound
	m.Status = j.Status
	m.Stage = j.Stage
	m.TotalEstimate = j.TotalEstimate
	m.ProcessedCount = j.ProcessedCount
	m.CurrentPage = j.CurrentPage
	m.NextPageURL = j.NextPageURL
	m.Message = j.Message
	m.StartedAt = j.StartedAt
	m.CompletedAt = j.CompletedAt
	m.ErrorAt = j.ErrorAt
	m.UpdatedAt = j.UpdatedAt
}

// SyncJobModelFromDomain creates a new persistence model from a domain SyncJob
func SyncJobModelFromDomain(j *ordersync.SyncJob) *SyncJobModel {
	m := &SyncJobModel{}
	m.FromDomain(j)
	return m
}

// ---------------------------------------------------------------------------
// OrderRecordModel
// ---------------------------------------------------------------------------

// OrderRecordModel is the persistence model for normalized orders.
// The composite unique index on (tenant_id, record_id) is the idempotency key.
type OrderRecordModel struct {
	TenantID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_order_records_tenant_record,priority:1"`
	RecordID        string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_order_records_tenant_record,priority:2"`
	SourceTimestamp time.Time `gorm:"not null;index"`
	PayloadJSON     string    `gorm:"type:jsonb;column:payload"`
	SyncedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderRecordModel) TableName() string {
	return "order_records"
}

// ToDomain converts the persistence model to a domain OrderRecord
func (m *OrderRecordModel) ToDomain() *ordersync.OrderRecord {
	record := &ordersync.OrderRecord{
		TenantID:        m.TenantID,
		RecordID:        m.RecordID,
		SourceTimestamp: m.SourceTimestamp,
		SyncedAt:        m.SyncedAt,
	}
	if m.PayloadJSON != "" {
		_ = json.Unmarshal([]byte(m.PayloadJSON), &record.Payload)
	}
	return record
}

// FromDomain populates the persistence model from a domain OrderRecord
func (m *OrderRecordModel) FromDomain(r *ordersync.OrderRecord) {
	m.TenantID = r.TenantID
	m.RecordID = r.RecordID
	m.SourceTimestamp = r.SourceTimestamp
	m.SyncedAt = r.SyncedAt
	if payload, err := json.Marshal(r.Payload); err == nil {
		m.PayloadJSON = string(payload)
	}
}

// ---------------------------------------------------------------------------
// StoreConnectionModel
// ---------------------------------------------------------------------------

// StoreConnectionModel is the persistence model for tenant store connections
type StoreConnectionModel struct {
	TenantID             uuid.UUID `gorm:"type:uuid;primary_key"`
	BaseURL              string    `gorm:"type:varchar(255);not null"`
	AccessToken          string    `gorm:"type:varchar(255);not null"`
	LastSyncAt           *time.Time
	InitialSyncCompleted bool      `gorm:"not null;default:false"`
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StoreConnectionModel) TableName() string {
	return "store_connections"
}

// ToDomain converts the persistence model to a domain StoreConnection
func (m *StoreConnectionModel) ToDomain() *ordersync.StoreConnection {
	return &ordersync.StoreConnection{
		TenantID:             m.TenantID,
		BaseURL:              m.BaseURL,
		AccessToken:          m.AccessToken,
		LastSyncAt:           m.LastSyncAt,
		InitialSyncCompleted: m.InitialSyncCompleted,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain StoreConnection
func (m *StoreConnectionModel) FromDomain(c *ordersync.StoreConnection) {
	m.TenantID = c.TenantID
	m.BaseURL = c.BaseURL
	m.AccessToken = c.AccessToken
	m.LastSyncAt = c.LastSyncAt
	m.InitialSyncCompleted = c.InitialSyncCompleted
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}
