package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SyncMetrics holds the instruments for the order synchronization engine.
type SyncMetrics struct {
	pagesFetched   *Counter
	ordersUpserted *Counter
	rateLimitHits  *Counter
	jobsCompleted  *Counter
	jobsFailed     *Counter
	jobDuration    *Histogram
}

// NewSyncMetrics creates all sync engine instruments on the given meter.
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	pagesFetched, err := NewCounter(meter,
		"sync.pages.fetched",
		"Number of provider pages fetched",
		"{page}",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pages fetched counter: %w", err)
	}

	ordersUpserted, err := NewCounter(meter,
		"sync.orders.upserted",
		"Number of order records written to local storage",
		"{record}",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create orders upserted counter: %w", err)
	}

	rateLimitHits, err := NewCounter(meter,
		"sync.rate_limit.hits",
		"Number of provider rate limit responses encountered",
		"{response}",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit counter: %w", err)
	}

	jobsCompleted, err := NewCounter(meter,
		"sync.jobs.completed",
		"Number of sync jobs that finished successfully",
		"{job}",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create jobs completed counter: %w", err)
	}

	jobsFailed, err := NewCounter(meter,
		"sync.jobs.failed",
		"Number of sync jobs that ended in error",
		"{job}",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create jobs failed counter: %w", err)
	}

	jobDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "sync.job.duration",
		Description: "End to end duration of sync jobs",
		Unit:        "s",
		Boundaries:  JobDurationBuckets,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create job duration histogram: %w", err)
	}

	return &SyncMetrics{
		pagesFetched:   pagesFetched,
		ordersUpserted: ordersUpserted,
		rateLimitHits:  rateLimitHits,
		jobsCompleted:  jobsCompleted,
		jobsFailed:     jobsFailed,
		jobDuration:    jobDuration,
	}, nil
}

// RecordPageFetched increments the fetched page counter.
func (m *SyncMetrics) RecordPageFetched(ctx context.Context, tenantID, mode, stage string) {
	m.pagesFetched.Inc(ctx,
		AttrTenantID.String(tenantID),
		AttrSyncMode.String(mode),
		AttrSyncStage.String(stage),
	)
}

// RecordOrdersUpserted adds the number of records persisted from one page.
func (m *SyncMetrics) RecordOrdersUpserted(ctx context.Context, tenantID, mode string, count int64) {
	m.ordersUpserted.Add(ctx, count,
		AttrTenantID.String(tenantID),
		AttrSyncMode.String(mode),
	)
}

// RecordRateLimitHit increments the rate limit counter.
func (m *SyncMetrics) RecordRateLimitHit(ctx context.Context, tenantID, mode string) {
	m.rateLimitHits.Inc(ctx,
		AttrTenantID.String(tenantID),
		AttrSyncMode.String(mode),
	)
}

// RecordJobCompleted records a successful job and its duration.
func (m *SyncMetrics) RecordJobCompleted(ctx context.Context, tenantID, mode string, d time.Duration) {
	m.jobsCompleted.Inc(ctx,
		AttrTenantID.String(tenantID),
		AttrSyncMode.String(mode),
	)
	m.jobDuration.RecordDuration(ctx, d,
		AttrSyncMode.String(mode),
		AttrJobStatus.String("COMPLETED"),
	)
}

// RecordJobFailed records a failed job and its duration.
func (m *SyncMetrics) RecordJobFailed(ctx context.Context, tenantID, mode string, d time.Duration) {
	m.jobsFailed.Inc(ctx,
		AttrTenantID.String(tenantID),
		AttrSyncMode.String(mode),
	)
	m.jobDuration.RecordDuration(ctx, d,
		AttrSyncMode.String(mode),
		AttrJobStatus.String("ERROR"),
	)
}
