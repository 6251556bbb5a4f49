package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "ptscraper/pkg/errors"
	"ptscraper/pkg/logger"
)

func fastConfig(retries int) *Config {
	return &Config{
		MaxRetries: retries,
		Backoff:    &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:    DefaultRetryIf,
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{5, 1 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoffJitterStaysInBounds(t *testing.T) {
	backoff := &ExponentialBackoff{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2, JitterFactor: 0.3}
	for i := 0; i < 20; i++ {
		d := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, d, 140*time.Millisecond)
		assert.LessOrEqual(t, d, 260*time.Millisecond)
	}
}

func TestBackoffFor(t *testing.T) {
	constant := BackoffFor("constant", 2*time.Second)
	assert.Equal(t, 2*time.Second, constant.NextDelay(1))
	assert.Equal(t, 2*time.Second, constant.NextDelay(3))
	assert.IsType(t, &ConstantBackoff{}, BackoffFor("", time.Second))

	exp, ok := BackoffFor("Exponential", 2*time.Second).(*ExponentialBackoff)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, exp.BaseDelay)
	assert.Equal(t, 30*time.Second, exp.MaxDelay)
	d := exp.NextDelay(3)
	assert.GreaterOrEqual(t, d, 7200*time.Millisecond)
	assert.LessOrEqual(t, d, 8800*time.Millisecond)
}

func TestTransientErrorRetriedOnce(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(1), func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return errs.NewTransientError(503, "unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestTransientErrorFatalAfterRetry(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(1), func(ctx context.Context) error {
		attempts++
		return errs.NewTransientError(500, "boom")
	})

	require.Error(t, err)
	assert.Equal(t, 2, attempts)
	assert.True(t, errs.IsTransient(err))
}

func TestAuthErrorNotRetried(t *testing.T) {
	attempts := 0
	authErr := errs.NewAuthError(401, "authentication required")
	err := Do(context.Background(), fastConfig(3), func(ctx context.Context) error {
		attempts++
		return authErr
	})

	assert.Same(t, authErr, err)
	assert.Equal(t, 1, attempts)
}

func TestPlainErrorsNotRetried(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(3), func(ctx context.Context) error {
		attempts++
		return errors.New("decode failure")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestOnRetryAndLogging(t *testing.T) {
	tl := logger.NewTestLogger()
	var calls []int
	cfg := fastConfig(2)
	cfg.Logger = tl
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) { calls = append(calls, attempt) }

	_ = Do(context.Background(), cfg, func(ctx context.Context) error {
		return errs.NewTransientError(502, "bad gateway")
	})

	assert.Equal(t, []int{1, 2}, calls)
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 2)
}

func TestRetryCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxRetries: 5, Backoff: &ConstantBackoff{Delay: time.Minute}}

	attempts := 0
	err := Do(ctx, cfg, func(ctx context.Context) error {
		attempts++
		cancel()
		return errs.NewTransientError(500, "boom")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(context.Background(), fastConfig(1), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", errs.Wrap(errs.ErrorTypeNetwork, errors.New("reset"), "request failed")
		}
		return "page", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "page", result)
}
