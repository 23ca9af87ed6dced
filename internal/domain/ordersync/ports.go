package ordersync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// Provider errors
	ErrRateLimited     = errors.New("ordersync: provider rate limited")
	ErrRequestFailed   = errors.New("ordersync: provider request failed")
	ErrInvalidResponse = errors.New("ordersync: invalid provider response")

	// Engine errors
	ErrPageLimitExceeded    = errors.New("ordersync: page safety limit exceeded")
	ErrRateLimitRetriesUsed = errors.New("ordersync: rate limit retries exhausted")
	ErrInvalidSyncMode      = errors.New("ordersync: invalid sync mode")

	// Store errors
	ErrJobNotFound        = errors.New("ordersync: sync job not found")
	ErrConnectionNotFound = errors.New("ordersync: store connection not found")
	ErrStatusNotCached    = errors.New("ordersync: status not cached")
)

// ---------------------------------------------------------------------------
// PageFetcher Port
// ---------------------------------------------------------------------------

// OrderQuery describes the order window one pass pulls from the storefront
type OrderQuery struct {
	// CreatedAfter filters by record-creation time (created-since pass)
	CreatedAfter *time.Time
	// UpdatedAfter filters by record-modification time (updated-since pass)
	UpdatedAfter *time.Time
	// PageSize is how many orders to request per page
	PageSize int
}

// OrderPage is one page of normalized orders plus the opaque next-page cursor
type OrderPage struct {
	// Records are the normalized orders on this page
	Records []OrderRecord
	// NextURL is the provider-supplied cursor for the next page;
	// empty when this is the last page
	NextURL string
}

// PageFetcher pulls paginated orders from the storefront API.
// Pagination is cursor-driven: each page's request depends on the prior
// page's next link, so pages must be fetched strictly in sequence.
type PageFetcher interface {
	// FirstPageURL builds the URL of the first page for the given query
	FirstPageURL(cred Credential, tenantID uuid.UUID, q OrderQuery) string

	// FetchPage fetches one page and extracts the rel="next" cursor.
	// A 429 response maps to ErrRateLimited; timeouts, 5xx and network
	// failures map to ErrRequestFailed.
	FetchPage(ctx context.Context, pageURL string, cred Credential, tenantID uuid.UUID) (*OrderPage, error)

	// CountEstimate returns the advisory total for progress display.
	// Implementations fall back to a fixed default on failure; the
	// estimate never gates loop termination.
	CountEstimate(ctx context.Context, cred Credential, tenantID uuid.UUID, q OrderQuery) (int, error)
}

// ---------------------------------------------------------------------------
// Store Ports
// ---------------------------------------------------------------------------

// OrderRecordStore is the idempotent sink for normalized orders
type OrderRecordStore interface {
	// Upsert writes one record keyed by (TenantID, RecordID); replaying
	// the same record overwrites payload and synced_at
	Upsert(ctx context.Context, record *OrderRecord) error
}

// SyncJobStore is the durable side of progress tracking
type SyncJobStore interface {
	// Save creates or updates the job snapshot
	Save(ctx context.Context, job *SyncJob) error

	// FindLatestByTenant returns the most recent job for a tenant,
	// or ErrJobNotFound
	FindLatestByTenant(ctx context.Context, tenantID uuid.UUID) (*SyncJob, error)

	// FindRecentByTenant returns up to limit jobs, newest first
	FindRecentByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]SyncJob, error)
}

// StatusCache is the low-latency side of progress tracking.
// It is best-effort: a cold cache is repopulated from the durable store.
type StatusCache interface {
	// Get returns the cached snapshot or ErrStatusNotCached
	Get(ctx context.Context, tenantID uuid.UUID) (*SyncJob, error)

	// Set stores the snapshot for the tenant
	Set(ctx context.Context, job *SyncJob) error
}

// ConnectionStore provides store connections and records sync completion
type ConnectionStore interface {
	// FindByTenant returns the tenant's connection or ErrConnectionNotFound
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*StoreConnection, error)

	// FindAll returns every connection, for the periodic trigger
	FindAll(ctx context.Context) ([]StoreConnection, error)

	// MarkSynced sets last_sync_at; when markInitialCompleted is true the
	// initial_sync_completed flag is also set (it is never cleared)
	MarkSynced(ctx context.Context, tenantID uuid.UUID, completedAt time.Time, markInitialCompleted bool) error
}
