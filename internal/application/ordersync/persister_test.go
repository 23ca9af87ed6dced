package ordersync

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBatchPersister(t *testing.T) {
	ctx := context.Background()

	t.Run("stores every record of the page", func(t *testing.T) {
		store := newMemRecordStore()
		persister := NewBatchPersister(store, zap.NewNop())
		tenant := uuid.New()

		stored := persister.Persist(ctx, tenant, makeRecords(tenant, "1", "2", "3"))

		assert.Equal(t, 3, stored)
		assert.Equal(t, 3, store.len())
	})

	t.Run("skips failing records and keeps going", func(t *testing.T) {
		store := newMemRecordStore()
		store.failIDs["2"] = true
		persister := NewBatchPersister(store, zap.NewNop())
		tenant := uuid.New()

		stored := persister.Persist(ctx, tenant, makeRecords(tenant, "1", "2", "3"))

		assert.Equal(t, 2, stored)
		assert.Equal(t, 2, store.len())
	})

	t.Run("replaying a page is idempotent", func(t *testing.T) {
		store := newMemRecordStore()
		persister := NewBatchPersister(store, zap.NewNop())
		tenant := uuid.New()
		records := makeRecords(tenant, "1", "2")

		first := persister.Persist(ctx, tenant, records)
		second := persister.Persist(ctx, tenant, records)

		assert.Equal(t, 2, first)
		assert.Equal(t, 2, second)
		assert.Equal(t, 2, store.len())
	})

	t.Run("empty page stores nothing", func(t *testing.T) {
		store := newMemRecordStore()
		persister := NewBatchPersister(store, zap.NewNop())

		stored := persister.Persist(ctx, uuid.New(), nil)

		assert.Equal(t, 0, stored)
		assert.Equal(t, 0, store.len())
	})
}
