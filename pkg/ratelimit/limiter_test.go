package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ptscraper/pkg/config"
)

func TestUnlimitedNeverBlocks(t *testing.T) {
	p := Unlimited()
	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRequestDelaySpacesRequests(t *testing.T) {
	p := New(config.RateLimitConfig{RequestDelay: 50 * time.Millisecond})

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	// first request is immediate, the next two wait one gap each
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

// waitBriefly reports whether Wait succeeds without a long delay
func waitBriefly(p *Pacer) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	return p.Wait(ctx) == nil
}

func TestWaitRespectsGap(t *testing.T) {
	p := New(config.RateLimitConfig{RequestDelay: time.Hour})
	assert.True(t, waitBriefly(p))
	assert.False(t, waitBriefly(p))
}

func TestRequestsPerMinuteBurst(t *testing.T) {
	p := New(config.RateLimitConfig{RequestsPerMinute: 1, BurstSize: 2})
	assert.True(t, waitBriefly(p))
	assert.True(t, waitBriefly(p))
	assert.False(t, waitBriefly(p))
}

func TestWaitCancelled(t *testing.T) {
	p := New(config.RateLimitConfig{RequestDelay: time.Hour})
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.Wait(ctx))
}
