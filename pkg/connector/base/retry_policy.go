package base

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ajitpratap0/adreader/pkg/config"
)

// RetryPolicy defines capped exponential backoff. MaxAttempts of zero means
// attempts are bounded only by MaxElapsed.
type RetryPolicy struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	Multiplier      float64
	RandomizeFactor float64
	// MaxElapsed bounds the sum of all waits; zero means unbounded
	MaxElapsed time.Duration

	// Sleep waits for d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy creates a new retry policy with exponential backoff
func NewRetryPolicy(maxAttempts int, initialDelay time.Duration) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     maxAttempts,
		InitialDelay:    initialDelay,
		MaxDelay:        5 * time.Minute,
		Multiplier:      2.0,
		RandomizeFactor: 0.25,
	}
}

// PolicyFromConfig builds a jitter-free policy from a polling section.
func PolicyFromConfig(cfg config.PollingConfig) *RetryPolicy {
	return &RetryPolicy{
		InitialDelay: cfg.InitialDelay,
		MaxDelay:     cfg.MaxDelay,
		Multiplier:   cfg.Multiplier,
		MaxElapsed:   cfg.MaxElapsed,
	}
}

// HTTPPolicyFromConfig builds the policy used for transient HTTP failures.
func HTTPPolicyFromConfig(cfg config.ReliabilityConfig) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     cfg.RetryAttempts + 1,
		InitialDelay:    cfg.RetryDelay,
		MaxDelay:        cfg.RetryMaxDelay,
		Multiplier:      2.0,
		RandomizeFactor: 0.25,
	}
}

// Execute runs a function with the retry policy
func (rp *RetryPolicy) Execute(ctx context.Context, fn func() error) error {
	return rp.ExecuteWithCondition(ctx, fn, func(error) bool { return true })
}

// ExecuteWithCondition runs a function with retry only if condition is met
func (rp *RetryPolicy) ExecuteWithCondition(ctx context.Context, fn func() error, shouldRetry func(error) bool) error {
	var (
		lastErr error
		waited  time.Duration
	)

	for attempt := 0; rp.MaxAttempts <= 0 || attempt < rp.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !shouldRetry(err) {
			return err
		}

		// Don't retry on the last attempt
		if rp.MaxAttempts > 0 && attempt == rp.MaxAttempts-1 {
			break
		}

		delay := rp.calculateDelay(attempt)
		if rp.Exceeds(waited, delay) {
			return fmt.Errorf("retry budget of %s exhausted after %d attempts: %w", rp.MaxElapsed, attempt+1, lastErr)
		}
		if err := rp.Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
		waited += delay
	}

	return fmt.Errorf("all %d attempts failed: %w", rp.MaxAttempts, lastErr)
}

// Exceeds reports whether waiting delay after waited would pass MaxElapsed.
func (rp *RetryPolicy) Exceeds(waited, delay time.Duration) bool {
	return rp.MaxElapsed > 0 && waited+delay > rp.MaxElapsed
}

// Wait sleeps for d, returning early with ctx's error on cancellation.
func (rp *RetryPolicy) Wait(ctx context.Context, d time.Duration) error {
	if rp.Sleep != nil {
		return rp.Sleep(ctx, d)
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

// calculateDelay calculates the delay for a given attempt
func (rp *RetryPolicy) calculateDelay(attempt int) time.Duration {
	// Base delay calculation with exponential backoff
	delay := float64(rp.InitialDelay) * math.Pow(rp.Multiplier, float64(attempt))

	// Apply max delay cap
	if rp.MaxDelay > 0 && delay > float64(rp.MaxDelay) {
		delay = float64(rp.MaxDelay)
	}

	// Apply randomization factor (jitter)
	if rp.RandomizeFactor > 0 {
		delta := delay * rp.RandomizeFactor
		minDelay := delay - delta
		maxDelay := delay + delta

		// Random value between min and max
		delay = minDelay + (rand.Float64() * (maxDelay - minDelay))
	}

	return time.Duration(delay)
}

// GetDelay returns the delay before retry number attempt+1
func (rp *RetryPolicy) GetDelay(attempt int) time.Duration {
	return rp.calculateDelay(attempt)
}

// Clone creates a copy of the retry policy
func (rp *RetryPolicy) Clone() *RetryPolicy {
	policy := *rp
	return &policy
}

// WithSleep returns a new policy that waits with sleep
func (rp *RetryPolicy) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *RetryPolicy {
	policy := rp.Clone()
	policy.Sleep = sleep
	return policy
}

// DefaultRetryPolicy returns a sensible default retry policy
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     3,
		InitialDelay:    1 * time.Second,
		MaxDelay:        30 * time.Second,
		Multiplier:      2.0,
		RandomizeFactor: 0.25,
	}
}

// PollingPolicy returns the export job polling policy: 60s doubling to a
// 3600s cap, at most 10h of waiting, no jitter.
func PollingPolicy() *RetryPolicy {
	return &RetryPolicy{
		InitialDelay: 60 * time.Second,
		MaxDelay:     3600 * time.Second,
		Multiplier:   2.0,
		MaxElapsed:   10 * time.Hour,
	}
}

// NoRetryPolicy returns a policy that doesn't retry
func NoRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: 1,
	}
}
