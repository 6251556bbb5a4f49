package retry

import (
	"context"
	"fmt"
	"time"

	errs "ptscraper/pkg/errors"
	"ptscraper/pkg/logger"
)

// Operation performs a single attempt
type Operation func(ctx context.Context) error

// Config holds retry configuration
type Config struct {
	// MaxRetries is the number of re-attempts after the first failure
	MaxRetries int
	Backoff    BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	Logger  logger.Logger
}

// DefaultConfig returns one retry after a short constant pause
func DefaultConfig() *Config {
	return &Config{
		MaxRetries: 1,
		Backoff:    &ConstantBackoff{Delay: 2 * time.Second},
		RetryIf:    DefaultRetryIf,
		Logger:     logger.NewNopLogger(),
	}
}

// DefaultRetryIf retries transient server and network failures only
func DefaultRetryIf(err error) bool {
	return errs.IsRetryableError(err)
}

// Do executes op, retrying retryable failures up to cfg.MaxRetries times.
// The final error keeps its classification so callers can still inspect it.
func Do(ctx context.Context, cfg *Config, op Operation) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 0 {
				log.DebugWithFields("Operation succeeded after retry", map[string]interface{}{
					"attempt": attempt + 1,
				})
			}
			return nil
		}

		if !retryIf(err) {
			return err
		}
		if attempt >= cfg.MaxRetries {
			if cfg.MaxRetries == 0 {
				return err
			}
			return fmt.Errorf("giving up after %d attempts: %w", attempt+1, err)
		}

		var delay time.Duration
		if cfg.Backoff != nil {
			delay = cfg.Backoff.NextDelay(attempt + 1)
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, delay)
		}
		log.WarnWithFields("Retrying request", map[string]interface{}{
			"attempt":     attempt + 1,
			"max_retries": cfg.MaxRetries,
			"delay":       delay,
			"error":       err.Error(),
		})

		if werr := Wait(ctx, delay); werr != nil {
			return fmt.Errorf("retry cancelled: %w", werr)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](ctx context.Context, cfg *Config, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	return result, err
}
