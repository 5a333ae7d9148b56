package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts  uint
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// OnRetry is invoked after each failed attempt.
	OnRetry func(attempt uint, err error)
}

// DefaultConfig suits short idempotent reads against the backend services.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	}
}

// Do executes fn with exponential backoff.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	onRetry := cfg.OnRetry
	if onRetry == nil {
		onRetry = func(uint, error) {}
	}
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxAttempts),
		retry.Delay(cfg.InitialDelay),
		retry.MaxDelay(cfg.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(onRetry),
	)
}

// DoWithResult executes fn with exponential backoff and returns its result.
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}
