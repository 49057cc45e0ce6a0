// Package retry provides retry executor implementation
package retry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jzx17/pagecheck/pkg/types"
)

// RetryExecutor implements retry execution logic. It is meant to be owned by one
// test or page object; calls are not expected to overlap.
type RetryExecutor struct {
	classifier   FaultClassifier
	eventHandler EventHandler
	clock        types.Clock

	statsMu sync.Mutex
	stats   RetryStats
}

// Operation is an interaction that only reports failure
type Operation func(ctx context.Context) error

// ExecuteFunc is the function type to retry
type ExecuteFunc[T any] func(ctx context.Context) (T, error)

// RetryStats contains retry statistics
type RetryStats struct {
	TotalAttempts   int64         // total attempt count
	TotalRetries    int64         // total retry count
	TotalSuccesses  int64         // calls that ended with an accepted value
	TotalFailures   int64         // calls that ended with an error
	TotalExhausted  int64         // calls that ran out on unacceptable values
	LastRetryTime   time.Time     // last retry time
	TotalRetryDelay time.Duration // total retry delay time
}

// NewRetryExecutor creates a retry executor. Without options every failure is
// retryable and retries are logged through slog.Default().
func NewRetryExecutor(opts ...ExecutorOption) *RetryExecutor {
	executor := &RetryExecutor{
		classifier:   AnyFault,
		eventHandler: NewDefaultEventHandler(nil),
		clock:        types.NewRealClock(),
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Run executes op under policy and returns nil or the error that ended the call.
// The final error is returned as produced by op.
func (r *RetryExecutor) Run(ctx context.Context, policy Policy, op Operation) error {
	_, err := Execute(r, ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, nil)
	return err
}

// Execute executes fn under policy. A value rejected by accept is retried like a
// retryable fault; if the last attempt still produces a rejected value the outcome
// is StatusExhausted with that value and a nil error.
func Execute[T any](r *RetryExecutor, ctx context.Context, policy Policy, fn ExecuteFunc[T], accept ResultCondition[T]) (Outcome[T], error) {
	var zero T
	maxAttempts := policy.attempts()
	backoff := policy.backoff()
	retryOn := policy.RetryOn
	if retryOn == nil {
		retryOn = r.classifier
	}

	for attempt := 1; ; attempt++ {
		// check if context is cancelled
		select {
		case <-ctx.Done():
			return Outcome[T]{Value: zero, Status: StatusFailed, Attempts: attempt - 1}, ctx.Err()
		default:
		}

		r.updateStats(func(stats *RetryStats) {
			stats.TotalAttempts++
		})

		value, err := fn(ctx)

		var trigger Trigger
		if err == nil {
			if accept == nil || accept(value) {
				r.updateStats(func(stats *RetryStats) {
					stats.TotalSuccesses++
				})
				if attempt > 1 {
					r.eventHandler.OnSuccess(ctx, attempt)
				}
				return Outcome[T]{Value: value, Status: StatusSucceeded, Attempts: attempt}, nil
			}
			trigger = TriggerResult
		} else {
			if !retryOn(err) {
				r.giveUp(ctx, GiveUpEvent{Attempt: attempt, MaxAttempts: maxAttempts, Kind: kindOf(err), Err: err})
				return Outcome[T]{Value: zero, Status: StatusFailed, Attempts: attempt}, err
			}
			trigger = TriggerFault
		}

		// reached max attempts
		if attempt >= maxAttempts {
			if trigger == TriggerResult {
				r.updateStats(func(stats *RetryStats) {
					stats.TotalExhausted++
				})
				r.eventHandler.OnExhausted(ctx, attempt)
				return Outcome[T]{Value: value, Status: StatusExhausted, Attempts: attempt}, nil
			}
			r.giveUp(ctx, GiveUpEvent{Attempt: attempt, MaxAttempts: maxAttempts, Kind: kindOf(err), Err: err, Exhausted: true})
			return Outcome[T]{Value: zero, Status: StatusFailed, Attempts: attempt}, err
		}

		delay := backoff.NextDelay(attempt)
		event := RetryEvent{
			Attempt:     attempt,
			MaxAttempts: maxAttempts,
			Trigger:     trigger,
			Err:         err,
			Delay:       delay,
		}
		if trigger == TriggerFault {
			event.Kind = kindOf(err)
		}
		r.eventHandler.OnRetry(ctx, event)

		r.updateStats(func(stats *RetryStats) {
			stats.TotalRetries++
			stats.LastRetryTime = r.clock.Now()
			stats.TotalRetryDelay += delay
		})

		// wait for retry delay
		if delay > 0 {
			select {
			case <-ctx.Done():
				return Outcome[T]{Value: zero, Status: StatusFailed, Attempts: attempt}, ctx.Err()
			case <-r.clock.After(delay):
				// continue retrying
			}
		}
	}
}

// Stats returns a snapshot of the retry statistics
func (r *RetryExecutor) Stats() RetryStats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

// ResetStats resets statistics
func (r *RetryExecutor) ResetStats() {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	r.stats = RetryStats{}
}

// updateStats updates statistics (thread-safe)
func (r *RetryExecutor) updateStats(fn func(*RetryStats)) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	fn(&r.stats)
}

func (r *RetryExecutor) giveUp(ctx context.Context, event GiveUpEvent) {
	r.updateStats(func(stats *RetryStats) {
		stats.TotalFailures++
	})
	r.eventHandler.OnGiveUp(ctx, event)
}

func kindOf(err error) types.FaultKind {
	kind, _ := types.KindOf(err)
	return kind
}

// ExecutorOption is a configuration option for retry executor
type ExecutorOption func(*RetryExecutor)

// WithEventHandler sets the event handler
func WithEventHandler(handler EventHandler) ExecutorOption {
	return func(r *RetryExecutor) {
		if handler != nil {
			r.eventHandler = handler
		}
	}
}

// WithLogger routes retry events to logger through the default event handler
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(r *RetryExecutor) {
		r.eventHandler = NewDefaultEventHandler(logger)
	}
}

// WithFaultClassifier sets the classifier used by policies without their own
func WithFaultClassifier(classifier FaultClassifier) ExecutorOption {
	return func(r *RetryExecutor) {
		if classifier != nil {
			r.classifier = classifier
		}
	}
}

// WithClock sets the clock for time operations
func WithClock(clock types.Clock) ExecutorOption {
	return func(r *RetryExecutor) {
		r.clock = clock
	}
}
