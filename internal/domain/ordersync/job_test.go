package ordersync

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncMode_IsValid(t *testing.T) {
	tests := []struct {
		mode  SyncMode
		valid bool
	}{
		{SyncModeFull, true},
		{SyncModeIncremental, true},
		{SyncMode(""), false},
		{SyncMode("HOURLY"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.mode.IsValid())
		})
	}
}

func TestJobStatus_IsActive(t *testing.T) {
	tests := []struct {
		status JobStatus
		active bool
	}{
		{JobStatusIdle, false},
		{JobStatusStarting, true},
		{JobStatusCounting, true},
		{JobStatusSyncing, true},
		{JobStatusWaiting, true},
		{JobStatusRateLimited, true},
		{JobStatusCompleted, false},
		{JobStatusError, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.active, tt.status.IsActive())
		})
	}
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusError.IsTerminal())
	assert.False(t, JobStatusSyncing.IsTerminal())
	assert.False(t, JobStatusRateLimited.IsTerminal())
}

func TestNewSyncJob(t *testing.T) {
	tenantID := uuid.New()
	lower := time.Now().UTC().AddDate(0, -3, 0)

	job := NewSyncJob(tenantID, SyncModeFull, lower)

	require.NotNil(t, job)
	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.Equal(t, tenantID, job.TenantID)
	assert.Equal(t, SyncModeFull, job.Mode)
	assert.Equal(t, JobStatusStarting, job.Status)
	assert.Equal(t, lower, job.DateLowerBound)
	assert.Equal(t, 1, job.CurrentPage)
	assert.Zero(t, job.ProcessedCount)
	assert.True(t, job.IsActive())
	assert.Nil(t, job.CompletedAt)
	assert.Nil(t, job.ErrorAt)
}

func TestSyncJob_Complete(t *testing.T) {
	job := NewSyncJob(uuid.New(), SyncModeIncremental, time.Now())
	job.NextPageURL = "https://shop.example.com/api/orders?page_info=abc"

	job.Complete()

	assert.Equal(t, JobStatusCompleted, job.Status)
	require.NotNil(t, job.CompletedAt)
	assert.Empty(t, job.NextPageURL, "cursor must be cleared on completion")
	assert.False(t, job.IsActive())
}

func TestSyncJob_Fail(t *testing.T) {
	job := NewSyncJob(uuid.New(), SyncModeFull, time.Now())

	job.Fail("page fetch timed out")

	assert.Equal(t, JobStatusError, job.Status)
	require.NotNil(t, job.ErrorAt)
	assert.Equal(t, "page fetch timed out", job.Message)
	assert.Nil(t, job.CompletedAt)
}

func TestSyncJob_StaleSince(t *testing.T) {
	job := NewSyncJob(uuid.New(), SyncModeFull, time.Now())
	job.Status = JobStatusSyncing
	job.UpdatedAt = time.Now().UTC().Add(-time.Hour)

	assert.True(t, job.StaleSince(time.Now().UTC().Add(-10*time.Minute)))
	assert.False(t, job.StaleSince(time.Now().UTC().Add(-2*time.Hour)))

	job.Complete()
	assert.False(t, job.StaleSince(time.Now().UTC().Add(time.Hour)),
		"terminal jobs are never stale")
}
