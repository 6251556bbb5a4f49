package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
	"ptscraper/pkg/config"
)

// Limiter paces outgoing requests
type Limiter interface {
	// Wait blocks until the next request may be sent
	Wait(ctx context.Context) error
}

// Pacer enforces both a minimum gap between requests and a
// requests-per-minute ceiling
type Pacer struct {
	gap    *rate.Limiter
	minute *rate.Limiter
}

// New creates a pacer from configuration. Zero values disable the
// corresponding limit.
func New(cfg config.RateLimitConfig) *Pacer {
	p := &Pacer{
		gap:    rate.NewLimiter(rate.Inf, 1),
		minute: rate.NewLimiter(rate.Inf, 1),
	}
	if cfg.RequestDelay > 0 {
		p.gap = rate.NewLimiter(rate.Every(cfg.RequestDelay), 1)
	}
	if cfg.RequestsPerMinute > 0 {
		burst := cfg.BurstSize
		if burst <= 0 {
			burst = 1
		}
		p.minute = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), burst)
	}
	return p
}

// Unlimited returns a pacer that never blocks
func Unlimited() *Pacer {
	return New(config.RateLimitConfig{})
}

// Wait blocks until both limits allow another request
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.minute.Wait(ctx); err != nil {
		return err
	}
	return p.gap.Wait(ctx)
}
