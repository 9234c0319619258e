package courtlistener

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of send attempts (including the
	// initial request).
	MaxAttempts int

	// InitialBackoff is the delay after the first retryable failure.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential growth.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// nextBackoff computes the delay before retry number attempt (1-based: the
// delay after the attempt-th failed send). Pure function of its inputs so
// the backoff schedule is testable without wall-clock waits; jitter is
// applied separately by the caller.
func nextBackoff(attempt int, cfg RetryConfig) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	backoff := cfg.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if backoff >= cfg.MaxBackoff {
			return cfg.MaxBackoff
		}
	}
	if backoff > cfg.MaxBackoff {
		backoff = cfg.MaxBackoff
	}
	return backoff
}

// withJitter applies a ±20% randomized offset so concurrent deployments do
// not retry in lockstep.
func withJitter(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.8 + rand.Float64()*0.4))
}

// sleeper abstracts the suspension mechanism so tests can observe backoff
// delays without sleeping for real.
type sleeper interface {
	// Sleep waits for d or until the context is done, returning the context
	// error in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// clockSleeper is the production sleeper backed by the wall clock.
type clockSleeper struct{}

func (clockSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
