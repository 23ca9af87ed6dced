package dto

import (
	"time"

	"github.com/commercehub/backend/internal/domain/ordersync"
)

// TriggerSyncRequest is the body of a manual sync trigger
type TriggerSyncRequest struct {
	Mode string `json:"mode" binding:"required,oneof=FULL INCREMENTAL"`
}

// SyncStatusResponse is the progress snapshot returned to status pollers
type SyncStatusResponse struct {
	JobID          string     `json:"job_id,omitempty"`
	TenantID       string     `json:"tenant_id"`
	Mode           string     `json:"mode,omitempty"`
	Status         string     `json:"status"`
	Stage          string     `json:"stage,omitempty"`
	TotalEstimate  int        `json:"total_estimate"`
	ProcessedCount int        `json:"processed_count"`
	CurrentPage    int        `json:"current_page"`
	Message        string     `json:"message,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// NewSyncStatusResponse maps a job snapshot to its API representation
func NewSyncStatusResponse(job *ordersync.SyncJob) SyncStatusResponse {
	started := job.StartedAt
	updated := job.UpdatedAt
	return SyncStatusResponse{
		JobID:          job.ID.String(),
		TenantID:       job.TenantID.String(),
		Mode:           job.Mode.String(),
		Status:         job.Status.String(),
		Stage:          job.Stage.String(),
		TotalEstimate:  job.TotalEstimate,
		ProcessedCount: job.ProcessedCount,
		CurrentPage:    job.CurrentPage,
		Message:        job.Message,
		StartedAt:      &started,
		CompletedAt:    job.CompletedAt,
		UpdatedAt:      &updated,
	}
}

// NewIdleSyncStatusResponse is the snapshot for a tenant that never synced
func NewIdleSyncStatusResponse(tenantID string) SyncStatusResponse {
	return SyncStatusResponse{
		TenantID: tenantID,
		Status:   ordersync.JobStatusIdle.String(),
		Message:  "no sync has run yet",
	}
}

// SyncHistoryResponse is the recent-runs listing for a tenant
type SyncHistoryResponse struct {
	Jobs []SyncStatusResponse `json:"jobs"`
}

// NewSyncHistoryResponse maps recent job snapshots, newest first
func NewSyncHistoryResponse(jobs []ordersync.SyncJob) SyncHistoryResponse {
	out := SyncHistoryResponse{Jobs: make([]SyncStatusResponse, 0, len(jobs))}
	for i := range jobs {
		out.Jobs = append(out.Jobs, NewSyncStatusResponse(&jobs[i]))
	}
	return out
}
