package ordersync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercehub/backend/internal/domain/ordersync"
)

func TestRequestPacerPageDelay(t *testing.T) {
	pacer := NewRequestPacer(PacerConfig{
		FullPageDelay:        2 * time.Minute,
		IncrementalPageDelay: 30 * time.Second,
		RateLimitCooldown:    5 * time.Minute,
	})

	assert.Equal(t, 2*time.Minute, pacer.PageDelay(ordersync.SyncModeFull))
	assert.Equal(t, 30*time.Second, pacer.PageDelay(ordersync.SyncModeIncremental))
	assert.Equal(t, 5*time.Minute, pacer.CooldownDuration())
}

func TestRequestPacerDefaults(t *testing.T) {
	pacer := NewRequestPacer(PacerConfig{})

	assert.Equal(t, 2*time.Minute, pacer.PageDelay(ordersync.SyncModeFull))
	assert.Equal(t, 30*time.Second, pacer.PageDelay(ordersync.SyncModeIncremental))
	assert.Equal(t, 5*time.Minute, pacer.CooldownDuration())
}

func TestRequestPacerWaitCompletes(t *testing.T) {
	pacer := NewRequestPacer(PacerConfig{
		FullPageDelay:        time.Millisecond,
		IncrementalPageDelay: time.Millisecond,
		RateLimitCooldown:    time.Millisecond,
	})

	require.NoError(t, pacer.WaitBetweenPages(context.Background(), ordersync.SyncModeFull))
	require.NoError(t, pacer.Cooldown(context.Background()))
}

func TestRequestPacerWaitHonoursCancellation(t *testing.T) {
	pacer := NewRequestPacer(PacerConfig{
		FullPageDelay:        time.Hour,
		IncrementalPageDelay: time.Hour,
		RateLimitCooldown:    time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- pacer.WaitBetweenPages(ctx, ordersync.SyncModeFull)
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("wait did not return after cancellation")
	}
}
