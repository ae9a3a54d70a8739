package batch

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/common"
)

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy defines a bounded retry with clamped exponential backoff.
// The wait before attempt n+1 is InitialBackoff * BackoffMultiplier^(n-1),
// clamped to [MinBackoff, MaxBackoff].
type RetryPolicy struct {
	MaxAttempts       int // total attempts including the first
	InitialBackoff    time.Duration
	MinBackoff        time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64

	// Sleep is used between attempts; nil means a context-aware timer
	Sleep SleepFunc
}

// NewDefaultRetryPolicy returns 3 attempts waiting between 4s and 10s
func NewDefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MinBackoff:        4 * time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// NewRetryPolicyFromConfig builds a policy from the [batch] config section
func NewRetryPolicyFromConfig(config *common.BatchConfig) *RetryPolicy {
	policy := NewDefaultRetryPolicy()
	if config == nil {
		return policy
	}
	if config.RetryAttempts > 0 {
		policy.MaxAttempts = config.RetryAttempts
	}
	if config.RetryMultiplier > 0 {
		policy.BackoffMultiplier = config.RetryMultiplier
	}
	policy.InitialBackoff = common.ParseDuration(config.RetryInitialWait, policy.InitialBackoff)
	policy.MinBackoff = common.ParseDuration(config.RetryMinWait, policy.MinBackoff)
	policy.MaxBackoff = common.ParseDuration(config.RetryMaxWait, policy.MaxBackoff)
	return policy
}

// CalculateBackoff returns the wait after the given failed attempt (1-based)
func (p *RetryPolicy) CalculateBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	multiplier := p.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}

	backoff := float64(p.InitialBackoff) * math.Pow(multiplier, float64(attempt-1))
	if p.MaxBackoff > 0 && backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}
	if backoff < float64(p.MinBackoff) {
		backoff = float64(p.MinBackoff)
	}

	return time.Duration(backoff)
}

// Do runs op until it succeeds or the policy's attempts are exhausted.
// The error of the final attempt is returned unchanged. Context cancellation
// stops retrying immediately.
func Do[T any](ctx context.Context, p *RetryPolicy, logger arbor.ILogger, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return zero, err
		}
		if attempt == maxAttempts {
			break
		}

		backoff := p.CalculateBackoff(attempt)
		logger.Warn().
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Err(err).
			Dur("backoff", backoff).
			Msg("Retrying after backoff")

		if sleepErr := sleep(ctx, backoff); sleepErr != nil {
			return zero, lastErr
		}
	}

	logger.Error().
		Int("attempts", maxAttempts).
		Err(lastErr).
		Msg("All retry attempts exhausted")

	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
