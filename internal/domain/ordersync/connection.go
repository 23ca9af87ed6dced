package ordersync

import (
	"time"

	"github.com/google/uuid"
)

// Credential carries what the sync engine needs to call the storefront API.
// It is produced by the connection/auth module and treated as opaque here.
type Credential struct {
	// BaseURL is the tenant's storefront API root, e.g. https://shop.example.com/api
	BaseURL string
	// AccessToken is the bearer token presented on every request
	AccessToken string
}

// StoreConnection links a tenant to its storefront shop.
// The sync engine only reads BaseURL/AccessToken and writes LastSyncAt and
// InitialSyncCompleted when a job finishes.
type StoreConnection struct {
	// TenantID is the tenant that owns this connection
	TenantID uuid.UUID
	// BaseURL is the storefront API root for this shop
	BaseURL string
	// AccessToken is the API credential, owned by the auth module
	AccessToken string
	// LastSyncAt is when the last job for this tenant completed
	LastSyncAt *time.Time
	// InitialSyncCompleted is set once a full backfill has finished;
	// incremental completions never clear it
	InitialSyncCompleted bool
	// CreatedAt is when the connection was established
	CreatedAt time.Time
	// UpdatedAt is when the connection was last modified
	UpdatedAt time.Time
}

// Credential returns the opaque credential for API calls
func (c *StoreConnection) Credential() Credential {
	return Credential{BaseURL: c.BaseURL, AccessToken: c.AccessToken}
}
