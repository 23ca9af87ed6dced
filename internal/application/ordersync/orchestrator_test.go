package ordersync

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/commercehub/backend/internal/domain/ordersync"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fetchResult struct {
	page *ordersync.OrderPage
	err  error
}

// fakeFetcher serves a scripted sequence of pages keyed by URL. Each URL's
// results are consumed in order; the last result repeats.
type fakeFetcher struct {
	mu       sync.Mutex
	results  map[string][]fetchResult
	count    int
	countErr error

	fetchedURLs  []string
	firstQueries []ordersync.OrderQuery
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{results: make(map[string][]fetchResult), count: 10}
}

func (f *fakeFetcher) script(url string, results ...fetchResult) {
	f.results[url] = results
}

func (f *fakeFetcher) FirstPageURL(cred ordersync.Credential, tenantID uuid.UUID, q ordersync.OrderQuery) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.firstQueries = append(f.firstQueries, q)
	if q.UpdatedAfter != nil {
		return "page-1-updated"
	}
	return "page-1"
}

func (f *fakeFetcher) FetchPage(ctx context.Context, pageURL string, cred ordersync.Credential, tenantID uuid.UUID) (*ordersync.OrderPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchedURLs = append(f.fetchedURLs, pageURL)

	queue, ok := f.results[pageURL]
	if !ok || len(queue) == 0 {
		return &ordersync.OrderPage{}, nil
	}
	r := queue[0]
	if len(queue) > 1 {
		f.results[pageURL] = queue[1:]
	}
	return r.page, r.err
}

func (f *fakeFetcher) CountEstimate(ctx context.Context, cred ordersync.Credential, tenantID uuid.UUID, q ordersync.OrderQuery) (int, error) {
	return f.count, f.countErr
}

func (f *fakeFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetchedURLs...)
}

func (f *fakeFetcher) queries() []ordersync.OrderQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ordersync.OrderQuery(nil), f.firstQueries...)
}

// memJobStore keeps every saved snapshot so tests can assert on the
// sequence of observed statuses.
type memJobStore struct {
	mu      sync.Mutex
	latest  map[uuid.UUID]ordersync.SyncJob
	history []ordersync.SyncJob
}

func newMemJobStore() *memJobStore {
	return &memJobStore{latest: make(map[uuid.UUID]ordersync.SyncJob)}
}

func (s *memJobStore) Save(ctx context.Context, job *ordersync.SyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[job.TenantID] = *job
	s.history = append(s.history, *job)
	return nil
}

func (s *memJobStore) FindLatestByTenant(ctx context.Context, tenantID uuid.UUID) (*ordersync.SyncJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.latest[tenantID]
	if !ok {
		return nil, ordersync.ErrJobNotFound
	}
	out := job
	return &out, nil
}

func (s *memJobStore) FindRecentByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]ordersync.SyncJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var jobs []ordersync.SyncJob
	for i := len(s.history) - 1; i >= 0 && len(jobs) < limit; i-- {
		if s.history[i].TenantID == tenantID {
			jobs = append(jobs, s.history[i])
		}
	}
	return jobs, nil
}

func (s *memJobStore) statusCount(status ordersync.JobStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, j := range s.history {
		if j.Status == status {
			n++
		}
	}
	return n
}

type memStatusCache struct {
	mu        sync.Mutex
	snapshots map[uuid.UUID]ordersync.SyncJob
}

func newMemStatusCache() *memStatusCache {
	return &memStatusCache{snapshots: make(map[uuid.UUID]ordersync.SyncJob)}
}

func (c *memStatusCache) Get(ctx context.Context, tenantID uuid.UUID) (*ordersync.SyncJob, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.snapshots[tenantID]
	if !ok {
		return nil, ordersync.ErrStatusNotCached
	}
	out := job
	return &out, nil
}

func (c *memStatusCache) Set(ctx context.Context, job *ordersync.SyncJob) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[job.TenantID] = *job
	return nil
}

type memConnStore struct {
	mu          sync.Mutex
	connections map[uuid.UUID]*ordersync.StoreConnection
}

func newMemConnStore(conns ...*ordersync.StoreConnection) *memConnStore {
	s := &memConnStore{connections: make(map[uuid.UUID]*ordersync.StoreConnection)}
	for _, c := range conns {
		s.connections[c.TenantID] = c
	}
	return s
}

func (s *memConnStore) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*ordersync.StoreConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.connections[tenantID]
	if !ok {
		return nil, ordersync.ErrConnectionNotFound
	}
	out := *conn
	return &out, nil
}

func (s *memConnStore) FindAll(ctx context.Context) ([]ordersync.StoreConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ordersync.StoreConnection
	for _, c := range s.connections {
		out = append(out, *c)
	}
	return out, nil
}

func (s *memConnStore) MarkSynced(ctx context.Context, tenantID uuid.UUID, completedAt time.Time, markInitialCompleted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.connections[tenantID]
	if !ok {
		return ordersync.ErrConnectionNotFound
	}
	conn.LastSyncAt = &completedAt
	if markInitialCompleted {
		conn.InitialSyncCompleted = true
	}
	conn.UpdatedAt = time.Now().UTC()
	return nil
}

type memRecordStore struct {
	mu      sync.Mutex
	records map[string]ordersync.OrderRecord
	failIDs map[string]bool
	upserts int
}

func newMemRecordStore() *memRecordStore {
	return &memRecordStore{
		records: make(map[string]ordersync.OrderRecord),
		failIDs: make(map[string]bool),
	}
}

func (s *memRecordStore) Upsert(ctx context.Context, record *ordersync.OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if s.failIDs[record.RecordID] {
		return fmt.Errorf("write refused for %s", record.RecordID)
	}
	s.records[record.TenantID.String()+"/"+record.RecordID] = *record
	return nil
}

func (s *memRecordStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type testEnv struct {
	orchestrator *SyncOrchestrator
	fetcher      *fakeFetcher
	jobs         *memJobStore
	cache        *memStatusCache
	connections  *memConnStore
	records      *memRecordStore
	tenantID     uuid.UUID
}

func newTestEnv(t *testing.T, cfg OrchestratorConfig, conn *ordersync.StoreConnection) *testEnv {
	t.Helper()

	fetcher := newFakeFetcher()
	jobs := newMemJobStore()
	cache := newMemStatusCache()
	connections := newMemConnStore(conn)
	records := newMemRecordStore()

	log := zap.NewNop()
	progress := NewProgressTracker(jobs, cache, log)
	persister := NewBatchPersister(records, log)
	pacer := NewRequestPacer(PacerConfig{
		FullPageDelay:        time.Millisecond,
		IncrementalPageDelay: time.Millisecond,
		RateLimitCooldown:    time.Millisecond,
	})
	updater := NewConnectionStatusUpdater(connections, log)

	return &testEnv{
		orchestrator: NewSyncOrchestrator(cfg, fetcher, jobs, connections, progress, persister, pacer, updater, log),
		fetcher:      fetcher,
		jobs:         jobs,
		cache:        cache,
		connections:  connections,
		records:      records,
		tenantID:     conn.TenantID,
	}
}

func testConnection(lastSyncAt *time.Time) *ordersync.StoreConnection {
	now := time.Now().UTC()
	return &ordersync.StoreConnection{
		TenantID:    uuid.New(),
		BaseURL:     "https://demo-store.example.com",
		AccessToken: "shpat_test",
		LastSyncAt:  lastSyncAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func makeRecords(tenantID uuid.UUID, ids ...string) []ordersync.OrderRecord {
	now := time.Now().UTC()
	records := make([]ordersync.OrderRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, ordersync.OrderRecord{
			TenantID:        tenantID,
			RecordID:        id,
			SourceTimestamp: now,
			Payload:         ordersync.OrderPayload{OrderNumber: id},
			SyncedAt:        now,
		})
	}
	return records
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestSyncOrchestratorFullSync(t *testing.T) {
	conn := testConnection(nil)
	env := newTestEnv(t, OrchestratorConfig{PageSize: 2}, conn)
	tenant := conn.TenantID

	env.fetcher.script("page-1", fetchResult{page: &ordersync.OrderPage{
		Records: makeRecords(tenant, "1001", "1002"), NextURL: "page-2"}})
	env.fetcher.script("page-2", fetchResult{page: &ordersync.OrderPage{
		Records: makeRecords(tenant, "1003", "1004"), NextURL: "page-3"}})
	env.fetcher.script("page-3", fetchResult{page: &ordersync.OrderPage{
		Records: makeRecords(tenant, "1005", "1006")}})

	job, err := env.orchestrator.Start(context.Background(), tenant, ordersync.SyncModeFull)
	require.NoError(t, err)
	assert.Equal(t, ordersync.JobStatusStarting, job.Status)

	env.orchestrator.Wait(tenant)

	final, err := env.orchestrator.GetStatus(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, ordersync.JobStatusCompleted, final.Status)
	assert.Equal(t, 6, final.ProcessedCount)
	assert.Equal(t, 10, final.TotalEstimate)
	assert.Empty(t, final.NextPageURL)
	require.NotNil(t, final.CompletedAt)

	assert.Equal(t, 6, env.records.len())

	stored, err := env.connections.FindByTenant(context.Background(), tenant)
	require.NoError(t, err)
	assert.True(t, stored.InitialSyncCompleted)
	require.NotNil(t, stored.LastSyncAt)
	assert.WithinDuration(t, *final.CompletedAt, *stored.LastSyncAt, time.Second)
}

func TestSyncOrchestratorRateLimitRecovery(t *testing.T) {
	conn := testConnection(nil)
	env := newTestEnv(t, OrchestratorConfig{PageSize: 2}, conn)
	tenant := conn.TenantID

	env.fetcher.script("page-1", fetchResult{page: &ordersync.OrderPage{
		Records: makeRecords(tenant, "1001", "1002"), NextURL: "page-2"}})
	// First attempt at page 2 is throttled; the retry succeeds.
	env.fetcher.script("page-2",
		fetchResult{err: ordersync.ErrRateLimited},
		fetchResult{page: &ordersync.OrderPage{Records: makeRecords(tenant, "1003", "1004")}},
	)

	_, err := env.orchestrator.Start(context.Background(), tenant, ordersync.SyncModeFull)
	require.NoError(t, err)
	env.orchestrator.Wait(tenant)

	final, err := env.orchestrator.GetStatus(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, ordersync.JobStatusCompleted, final.Status)
	assert.Equal(t, 4, final.ProcessedCount)
	assert.Equal(t, 4, env.records.len())

	// The same page was retried, not skipped.
	assert.Equal(t, []string{"page-1", "page-2", "page-2"}, env.fetcher.fetched())
	// Exactly one rate-limited snapshot was reported.
	assert.Equal(t, 1, env.jobs.statusCount(ordersync.JobStatusRateLimited))
}

func TestSyncOrchestratorRateLimitRetriesExhausted(t *testing.T) {
	conn := testConnection(nil)
	env := newTestEnv(t, OrchestratorConfig{PageSize: 2, MaxRateLimitRetries: 2}, conn)
	tenant := conn.TenantID

	env.fetcher.script("page-1", fetchResult{err: ordersync.ErrRateLimited})

	_, err := env.orchestrator.Start(context.Background(), tenant, ordersync.SyncModeFull)
	require.NoError(t, err)
	env.orchestrator.Wait(tenant)

	final, err := env.orchestrator.GetStatus(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, ordersync.JobStatusError, final.Status)
	assert.Contains(t, final.Message, "rate limit retries exhausted")
	require.NotNil(t, final.ErrorAt)

	// Initial attempt plus two retries.
	assert.Len(t, env.fetcher.fetched(), 3)
}

func TestSyncOrchestratorRequestErrorIsFatal(t *testing.T) {
	conn := testConnection(nil)
	env := newTestEnv(t, OrchestratorConfig{PageSize: 2}, conn)
	tenant := conn.TenantID

	env.fetcher.script("page-1", fetchResult{page: &ordersync.OrderPage{
		Records: makeRecords(tenant, "1001"), NextURL: "page-2"}})
	env.fetcher.script("page-2", fetchResult{err: fmt.Errorf("%w: status 502", ordersync.ErrRequestFailed)})

	_, err := env.orchestrator.Start(context.Background(), tenant, ordersync.SyncModeFull)
	require.NoError(t, err)
	env.orchestrator.Wait(tenant)

	final, err := env.orchestrator.GetStatus(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, ordersync.JobStatusError, final.Status)
	assert.Contains(t, final.Message, "status 502")
	// Records stored before the failure stay stored.
	assert.Equal(t, 1, env.records.len())

	// Connection completion stamp is not written for failed runs.
	stored, err := env.connections.FindByTenant(context.Background(), tenant)
	require.NoError(t, err)
	assert.Nil(t, stored.LastSyncAt)
	assert.False(t, stored.InitialSyncCompleted)
}

func TestSyncOrchestratorPageCap(t *testing.T) {
	conn := testConnection(nil)
	env := newTestEnv(t, OrchestratorConfig{PageSize: 2, MaxPages: 2}, conn)
	tenant := conn.TenantID

	// Every page points at the next one; the cap has to stop the loop.
	env.fetcher.script("page-1", fetchResult{page: &ordersync.OrderPage{
		Records: makeRecords(tenant, "1001"), NextURL: "page-2"}})
	env.fetcher.script("page-2", fetchResult{page: &ordersync.OrderPage{
		Records: makeRecords(tenant, "1002"), NextURL: "page-3"}})
	env.fetcher.script("page-3", fetchResult{page: &ordersync.OrderPage{
		Records: makeRecords(tenant, "1003"), NextURL: "page-4"}})

	_, err := env.orchestrator.Start(context.Background(), tenant, ordersync.SyncModeFull)
	require.NoError(t, err)
	env.orchestrator.Wait(tenant)

	final, err := env.orchestrator.GetStatus(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, ordersync.JobStatusError, final.Status)
	assert.Contains(t, final.Message, "page safety limit exceeded")
	assert.Equal(t, 2, env.records.len())
}

func TestSyncOrchestratorMutualExclusion(t *testing.T) {
	conn := testConnection(nil)
	env := newTestEnv(t, OrchestratorConfig{PageSize: 2}, conn)
	tenant := conn.TenantID

	release := make(chan struct{})
	env.fetcher.script("page-1", fetchResult{page: &ordersync.OrderPage{
		Records: makeRecords(tenant, "1001"), NextURL: "page-2"}})
	env.fetcher.script("page-2", fetchResult{page: &ordersync.OrderPage{
		Records: makeRecords(tenant, "1002")}})

	// Hold the run in its pacing window by blocking the second fetch.
	blocking := &blockingFetcher{
		fakeFetcher: env.fetcher,
		blockOn:     "page-2",
		release:     release,
		blocked:     make(chan struct{}),
	}
	env.orchestrator.fetcher = blocking

	first, err := env.orchestrator.Start(context.Background(), tenant, ordersync.SyncModeFull)
	require.NoError(t, err)

	blocking.waitUntilBlocked(t)

	second, err := env.orchestrator.Start(context.Background(), tenant, ordersync.SyncModeFull)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Status.IsActive())

	close(release)
	env.orchestrator.Wait(tenant)

	final, err := env.orchestrator.GetStatus(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, ordersync.JobStatusCompleted, final.Status)
	// Only one run executed.
	assert.Equal(t, 2, final.ProcessedCount)
}

// blockingFetcher parks FetchPage on a chosen URL until released
type blockingFetcher struct {
	*fakeFetcher
	blockOn string
	release chan struct{}

	once    sync.Once
	blocked chan struct{}
}

func (b *blockingFetcher) FetchPage(ctx context.Context, pageURL string, cred ordersync.Credential, tenantID uuid.UUID) (*ordersync.OrderPage, error) {
	if pageURL == b.blockOn {
		b.once.Do(func() {
			if b.blocked != nil {
				close(b.blocked)
			}
		})
		<-b.release
	}
	return b.fakeFetcher.FetchPage(ctx, pageURL, cred, tenantID)
}

func (b *blockingFetcher) waitUntilBlocked(t *testing.T) {
	t.Helper()
	select {
	case <-b.blocked:
	case <-time.After(5 * time.Second):
		t.Fatal("run never reached the blocking page")
	}
}

func TestSyncOrchestratorIncrementalPasses(t *testing.T) {
	lastSync := time.Now().UTC().Add(-2 * time.Hour)
	conn := testConnection(&lastSync)
	conn.InitialSyncCompleted = true
	overlap := 10 * time.Minute
	env := newTestEnv(t, OrchestratorConfig{PageSize: 2, OverlapBuffer: overlap}, conn)
	tenant := conn.TenantID

	env.fetcher.script("page-1", fetchResult{page: &ordersync.OrderPage{
		Records: makeRecords(tenant, "2001", "2002")}})
	env.fetcher.script("page-1-updated", fetchResult{page: &ordersync.OrderPage{
		Records: makeRecords(tenant, "2001", "2003")}})

	_, err := env.orchestrator.Start(context.Background(), tenant, ordersync.SyncModeIncremental)
	require.NoError(t, err)
	env.orchestrator.Wait(tenant)

	final, err := env.orchestrator.GetStatus(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, ordersync.JobStatusCompleted, final.Status)
	assert.Equal(t, ordersync.SyncStageUpdated, final.Stage)

	// Created pass then updated pass.
	queries := env.fetcher.queries()
	require.Len(t, queries, 2)
	require.NotNil(t, queries[0].CreatedAfter)
	assert.Nil(t, queries[0].UpdatedAfter)
	require.NotNil(t, queries[1].UpdatedAfter)
	assert.Nil(t, queries[1].CreatedAfter)

	// Lower bound is lastSyncAt minus the overlap buffer, never later
	// than lastSyncAt itself.
	wantBound := lastSync.Add(-overlap)
	assert.WithinDuration(t, wantBound, *queries[0].CreatedAfter, time.Second)
	assert.False(t, queries[0].CreatedAfter.After(lastSync))

	// Order 2001 appeared in both passes; the upsert keeps one copy.
	assert.Equal(t, 3, env.records.len())
	assert.Equal(t, 4, final.ProcessedCount)

	// Incremental completion keeps initialSyncCompleted untouched and
	// advances lastSyncAt.
	stored, err := env.connections.FindByTenant(context.Background(), tenant)
	require.NoError(t, err)
	assert.True(t, stored.InitialSyncCompleted)
	require.NotNil(t, stored.LastSyncAt)
	assert.True(t, stored.LastSyncAt.After(lastSync))
}

func TestSyncOrchestratorIncrementalWithoutLastSyncUsesLookback(t *testing.T) {
	conn := testConnection(nil)
	lookback := 48 * time.Hour
	env := newTestEnv(t, OrchestratorConfig{PageSize: 2, Lookback: lookback}, conn)
	tenant := conn.TenantID

	_, err := env.orchestrator.Start(context.Background(), tenant, ordersync.SyncModeIncremental)
	require.NoError(t, err)
	env.orchestrator.Wait(tenant)

	queries := env.fetcher.queries()
	require.NotEmpty(t, queries)
	require.NotNil(t, queries[0].CreatedAfter)
	assert.WithinDuration(t, time.Now().UTC().Add(-lookback), *queries[0].CreatedAfter, time.Minute)
}

func TestSyncOrchestratorResumesStaleJob(t *testing.T) {
	conn := testConnection(nil)
	env := newTestEnv(t, OrchestratorConfig{PageSize: 2, StalenessThreshold: time.Minute}, conn)
	tenant := conn.TenantID

	// A run died after persisting its page-2 cursor.
	stale := ordersync.NewSyncJob(tenant, ordersync.SyncModeFull, time.Now().UTC().Add(-90*24*time.Hour))
	stale.Status = ordersync.JobStatusSyncing
	stale.Stage = ordersync.SyncStageBackfill
	stale.ProcessedCount = 2
	stale.CurrentPage = 2
	stale.NextPageURL = "page-2"
	stale.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, env.jobs.Save(context.Background(), stale))

	env.fetcher.script("page-2", fetchResult{page: &ordersync.OrderPage{
		Records: makeRecords(tenant, "1003", "1004")}})

	job, err := env.orchestrator.Start(context.Background(), tenant, ordersync.SyncModeFull)
	require.NoError(t, err)
	assert.Equal(t, stale.ID, job.ID)

	env.orchestrator.Wait(tenant)

	final, err := env.orchestrator.GetStatus(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, ordersync.JobStatusCompleted, final.Status)
	assert.Equal(t, stale.ID, final.ID)
	assert.Equal(t, 4, final.ProcessedCount)

	// The run picked up at the cursor instead of refetching page 1,
	// keeping the persisted estimate instead of regressing to COUNTING.
	assert.Equal(t, []string{"page-2"}, env.fetcher.fetched())
	assert.Equal(t, 0, env.jobs.statusCount(ordersync.JobStatusCounting))
}

func TestSyncOrchestratorStartReturnsStartingSnapshotBeforeFirstWrite(t *testing.T) {
	conn := testConnection(nil)
	env := newTestEnv(t, OrchestratorConfig{}, conn)
	tenant := conn.TenantID

	// A run holds the tenant's slot but has not written progress yet.
	pending := ordersync.NewSyncJob(tenant, ordersync.SyncModeFull, time.Now().UTC().Add(-90*24*time.Hour))
	h := &jobHandle{done: make(chan struct{}), starting: *pending}
	env.orchestrator.mu.Lock()
	env.orchestrator.running[tenant] = h
	env.orchestrator.mu.Unlock()
	defer close(h.done)

	job, err := env.orchestrator.Start(context.Background(), tenant, ordersync.SyncModeFull)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, job.ID)
	assert.Equal(t, ordersync.JobStatusStarting, job.Status)
}

func TestSyncOrchestratorAbandonsStaleJobOfOtherMode(t *testing.T) {
	lastSync := time.Now().UTC().Add(-2 * time.Hour)
	conn := testConnection(&lastSync)
	conn.InitialSyncCompleted = true
	env := newTestEnv(t, OrchestratorConfig{PageSize: 2, StalenessThreshold: time.Minute}, conn)
	tenant := conn.TenantID

	stale := ordersync.NewSyncJob(tenant, ordersync.SyncModeFull, time.Now().UTC().Add(-90*24*time.Hour))
	stale.Status = ordersync.JobStatusSyncing
	stale.Stage = ordersync.SyncStageBackfill
	stale.NextPageURL = "page-2"
	stale.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, env.jobs.Save(context.Background(), stale))

	job, err := env.orchestrator.Start(context.Background(), tenant, ordersync.SyncModeIncremental)
	require.NoError(t, err)
	assert.NotEqual(t, stale.ID, job.ID)

	env.orchestrator.Wait(tenant)

	// The orphan was closed out instead of left active forever.
	assert.Equal(t, 1, env.jobs.statusCount(ordersync.JobStatusError))

	final, err := env.orchestrator.GetStatus(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, ordersync.JobStatusCompleted, final.Status)
}

func TestSyncOrchestratorStartValidation(t *testing.T) {
	conn := testConnection(nil)
	env := newTestEnv(t, OrchestratorConfig{}, conn)

	t.Run("rejects invalid mode", func(t *testing.T) {
		_, err := env.orchestrator.Start(context.Background(), conn.TenantID, ordersync.SyncMode("BOGUS"))
		assert.ErrorIs(t, err, ordersync.ErrInvalidSyncMode)
	})

	t.Run("rejects unknown tenant", func(t *testing.T) {
		_, err := env.orchestrator.Start(context.Background(), uuid.New(), ordersync.SyncModeFull)
		assert.ErrorIs(t, err, ordersync.ErrConnectionNotFound)
	})
}

func TestSyncOrchestratorGetStatusUnknownTenant(t *testing.T) {
	conn := testConnection(nil)
	env := newTestEnv(t, OrchestratorConfig{}, conn)

	_, err := env.orchestrator.GetStatus(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ordersync.ErrJobNotFound)
}

func TestSyncOrchestratorHistory(t *testing.T) {
	conn := testConnection(nil)
	env := newTestEnv(t, OrchestratorConfig{PageSize: 2}, conn)
	tenant := conn.TenantID

	env.fetcher.script("page-1", fetchResult{page: &ordersync.OrderPage{
		Records: makeRecords(tenant, "1001")}})

	_, err := env.orchestrator.Start(context.Background(), tenant, ordersync.SyncModeFull)
	require.NoError(t, err)
	env.orchestrator.Wait(tenant)

	jobs, err := env.orchestrator.History(context.Background(), tenant, 5)
	require.NoError(t, err)
	require.NotEmpty(t, jobs)
	assert.Equal(t, ordersync.JobStatusCompleted, jobs[0].Status)
}
