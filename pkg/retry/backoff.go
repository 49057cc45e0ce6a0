// Package retry provides backoff algorithm implementations
package retry

import (
	"math"
	"time"
)

// BackoffStrategy defines the backoff strategy interface
type BackoffStrategy interface {
	// NextDelay calculates the delay before retry number attempt (1-based)
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff doubles the delay for every retry: initial × 2^(attempt−1).
// No jitter is applied.
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
}

// NewExponentialBackoff creates an exponential backoff strategy. A maxDelay of zero
// or less leaves the schedule uncapped.
func NewExponentialBackoff(initialDelay, maxDelay time.Duration) *ExponentialBackoff {
	if initialDelay < 0 {
		initialDelay = 0
	}
	return &ExponentialBackoff{
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
	}
}

// NextDelay calculates the delay for the next retry
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	delay := b.initialDelay
	for i := 1; i < attempt && delay > 0; i++ {
		if b.capped() && delay >= b.maxDelay {
			break
		}
		// saturate instead of wrapping around
		if delay > math.MaxInt64/2 {
			delay = math.MaxInt64
			break
		}
		delay *= 2
	}

	if b.capped() && delay > b.maxDelay {
		delay = b.maxDelay
	}
	return delay
}

// Schedule returns the delays for retries 1..retries
func (b *ExponentialBackoff) Schedule(retries int) []time.Duration {
	if retries <= 0 {
		return nil
	}
	delays := make([]time.Duration, retries)
	for i := range delays {
		delays[i] = b.NextDelay(i + 1)
	}
	return delays
}

func (b *ExponentialBackoff) capped() bool {
	return b.maxDelay > 0
}
