package ordersync

import (
	"context"
	"time"

	"github.com/commercehub/backend/internal/domain/ordersync"
)

// PacerConfig holds the fixed pacing intervals of the sync engine
type PacerConfig struct {
	// FullPageDelay is the pause between pages during a full backfill
	FullPageDelay time.Duration
	// IncrementalPageDelay is the pause between pages during incremental sync
	IncrementalPageDelay time.Duration
	// RateLimitCooldown is the wait after a 429 before retrying the same page
	RateLimitCooldown time.Duration
}

// Validate fills in the platform-safe defaults for zero values
func (c *PacerConfig) Validate() {
	if c.FullPageDelay <= 0 {
		c.FullPageDelay = 2 * time.Minute
	}
	if c.IncrementalPageDelay <= 0 {
		c.IncrementalPageDelay = 30 * time.Second
	}
	if c.RateLimitCooldown <= 0 {
		c.RateLimitCooldown = 5 * time.Minute
	}
}

// RequestPacer spaces storefront API requests with fixed delays.
// Delays are deliberately not adaptive: the provider's rate budget is
// shared with interactive traffic, so the engine stays well under it
// instead of probing for the ceiling.
type RequestPacer struct {
	cfg PacerConfig
}

// NewRequestPacer creates a pacer with the given intervals
func NewRequestPacer(cfg PacerConfig) *RequestPacer {
	cfg.Validate()
	return &RequestPacer{cfg: cfg}
}

// PageDelay returns the inter-page delay for the given mode
func (p *RequestPacer) PageDelay(mode ordersync.SyncMode) time.Duration {
	if mode == ordersync.SyncModeIncremental {
		return p.cfg.IncrementalPageDelay
	}
	return p.cfg.FullPageDelay
}

// WaitBetweenPages blocks for the mode's inter-page delay.
// Returns the context error if cancelled while waiting.
func (p *RequestPacer) WaitBetweenPages(ctx context.Context, mode ordersync.SyncMode) error {
	return p.sleep(ctx, p.PageDelay(mode))
}

// Cooldown blocks for the rate limit cooldown.
// Returns the context error if cancelled while waiting.
func (p *RequestPacer) Cooldown(ctx context.Context) error {
	return p.sleep(ctx, p.cfg.RateLimitCooldown)
}

// CooldownDuration returns the configured 429 cooldown
func (p *RequestPacer) CooldownDuration() time.Duration {
	return p.cfg.RateLimitCooldown
}

func (p *RequestPacer) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
