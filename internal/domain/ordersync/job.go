package ordersync

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Sync Mode
// ---------------------------------------------------------------------------

// SyncMode selects the synchronization strategy for a job
type SyncMode string

const (
	// SyncModeFull is a one-time historical backfill over a fixed lookback window
	SyncModeFull SyncMode = "FULL"
	// SyncModeIncremental is a periodic catch-up since the last successful run
	SyncModeIncremental SyncMode = "INCREMENTAL"
)

// IsValid returns true if the mode is valid
func (m SyncMode) IsValid() bool {
	switch m {
	case SyncModeFull, SyncModeIncremental:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncMode
func (m SyncMode) String() string {
	return string(m)
}

// ---------------------------------------------------------------------------
// Job Status
// ---------------------------------------------------------------------------

// JobStatus represents the state of a sync job.
// Statuses only move forward; the sole edge out of a terminal
// status is a fresh job.
type JobStatus string

const (
	// JobStatusIdle indicates no job has ever run for the tenant
	JobStatusIdle JobStatus = "IDLE"
	// JobStatusStarting indicates the job was created but has not fetched yet
	JobStatusStarting JobStatus = "STARTING"
	// JobStatusCounting indicates the advisory total estimate is being fetched
	JobStatusCounting JobStatus = "COUNTING"
	// JobStatusSyncing indicates pages are being fetched and persisted
	JobStatusSyncing JobStatus = "SYNCING"
	// JobStatusWaiting indicates the job is in its inter-page pacing delay
	JobStatusWaiting JobStatus = "WAITING"
	// JobStatusRateLimited indicates the provider returned 429 and the job
	// is cooling down before retrying the same page
	JobStatusRateLimited JobStatus = "RATE_LIMITED"
	// JobStatusCompleted indicates the job finished successfully
	JobStatusCompleted JobStatus = "COMPLETED"
	// JobStatusError indicates the job aborted with an unrecovered error
	JobStatusError JobStatus = "ERROR"
)

// IsValid returns true if the status is valid
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusIdle, JobStatusStarting, JobStatusCounting, JobStatusSyncing,
		JobStatusWaiting, JobStatusRateLimited, JobStatusCompleted, JobStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsActive returns true while the job still owns the tenant's sync slot.
// At most one job per tenant may be in an active status.
func (s JobStatus) IsActive() bool {
	switch s {
	case JobStatusStarting, JobStatusCounting, JobStatusSyncing,
		JobStatusWaiting, JobStatusRateLimited:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the status is a final state
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusError
}

// ---------------------------------------------------------------------------
// Sync Stage
// ---------------------------------------------------------------------------

// SyncStage names the pass a job is currently working through
type SyncStage string

const (
	// SyncStageBackfill is the single created-since pass of a full sync
	SyncStageBackfill SyncStage = "BACKFILL"
	// SyncStageCreated is the created-since pass of an incremental sync
	SyncStageCreated SyncStage = "CREATED"
	// SyncStageUpdated is the updated-since pass of an incremental sync
	SyncStageUpdated SyncStage = "UPDATED"
)

// String returns the string representation of SyncStage
func (s SyncStage) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// SyncJob
// ---------------------------------------------------------------------------

// SyncJob is the progress snapshot of one synchronization run.
// It is created by the orchestrator, mutated incrementally while the run
// advances, and kept in its terminal state until the next run supersedes it.
type SyncJob struct {
	// ID is the unique identifier of this run
	ID uuid.UUID
	// TenantID is the tenant whose orders are being synchronized
	TenantID uuid.UUID
	// Mode selects full backfill or incremental catch-up
	Mode SyncMode
	// DateLowerBound is the lower bound of the order window being pulled
	DateLowerBound time.Time
	// Status is the job state; moves only forward
	Status JobStatus
	// Stage names the pass currently in progress
	Stage SyncStage
	// TotalEstimate is the advisory order count used for progress display
	TotalEstimate int
	// ProcessedCount is the number of records committed so far;
	// monotonically non-decreasing within one job
	ProcessedCount int
	// CurrentPage is the 1-indexed page currently being processed
	CurrentPage int
	// NextPageURL is the persisted pagination cursor, kept durable so a
	// run interrupted by a crash can resume instead of restarting
	NextPageURL string
	// Message is a human-readable note shown to status pollers
	Message string
	// StartedAt is when the run was triggered
	StartedAt time.Time
	// CompletedAt is set when the run reaches COMPLETED
	CompletedAt *time.Time
	// ErrorAt is set when the run reaches ERROR
	ErrorAt *time.Time
	// UpdatedAt is stamped on every snapshot mutation
	UpdatedAt time.Time
}

// NewSyncJob creates a sync job in the STARTING state
func NewSyncJob(tenantID uuid.UUID, mode SyncMode, lowerBound time.Time) *SyncJob {
	now := time.Now().UTC()
	return &SyncJob{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Mode:           mode,
		DateLowerBound: lowerBound,
		Status:         JobStatusStarting,
		CurrentPage:    1,
		Message:        "sync starting",
		StartedAt:      now,
		UpdatedAt:      now,
	}
}

// Complete moves the job to its COMPLETED terminal state
func (j *SyncJob) Complete() {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.NextPageURL = ""
	j.Message = "sync completed"
}

// Fail moves the job to its ERROR terminal state with a message
func (j *SyncJob) Fail(message string) {
	now := time.Now().UTC()
	j.Status = JobStatusError
	j.ErrorAt = &now
	j.UpdatedAt = now
	j.Message = message
}

// IsActive returns true while the job holds the tenant's sync slot
func (j *SyncJob) IsActive() bool {
	return j.Status.IsActive()
}

// StaleSince reports whether the job stopped making progress before the
// given cutoff. Used to detect runs orphaned by a process restart.
func (j *SyncJob) StaleSince(cutoff time.Time) bool {
	return j.IsActive() && j.UpdatedAt.Before(cutoff)
}
