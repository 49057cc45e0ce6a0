package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/jzx17/pagecheck/pkg/types"
)

// Trigger tells why an attempt was not accepted
type Trigger string

const (
	// TriggerFault means the attempt returned a retryable error
	TriggerFault Trigger = "fault"
	// TriggerResult means the attempt returned a value the result condition rejected
	TriggerResult Trigger = "result"
)

// RetryEvent describes a failed attempt that is about to be retried
type RetryEvent struct {
	Attempt     int
	MaxAttempts int
	Trigger     Trigger
	Kind        types.FaultKind // empty for result-triggered retries
	Err         error
	Delay       time.Duration
}

// GiveUpEvent describes a call that ends with an error
type GiveUpEvent struct {
	Attempt     int
	MaxAttempts int
	Kind        types.FaultKind
	Err         error

	// Exhausted is true when the error came from the final allowed attempt and
	// false when it was not retryable.
	Exhausted bool
}

// EventHandler handles retry events
type EventHandler interface {
	OnRetry(ctx context.Context, event RetryEvent)
	OnSuccess(ctx context.Context, attempt int)
	OnExhausted(ctx context.Context, attempts int)
	OnGiveUp(ctx context.Context, event GiveUpEvent)
}

// DefaultEventHandler logs every retry and terminal outcome
type DefaultEventHandler struct {
	logger *slog.Logger
}

// NewDefaultEventHandler creates a default event handler. A nil logger uses slog.Default().
func NewDefaultEventHandler(logger *slog.Logger) *DefaultEventHandler {
	return &DefaultEventHandler{logger: logger}
}

func (h *DefaultEventHandler) log() *slog.Logger {
	if h.logger == nil {
		return slog.Default()
	}
	return h.logger
}

// OnRetry handles retry attempt events
func (h *DefaultEventHandler) OnRetry(ctx context.Context, event RetryEvent) {
	attrs := []any{
		"attempt", event.Attempt,
		"max_attempts", event.MaxAttempts,
		"trigger", string(event.Trigger),
		"delay", event.Delay,
	}
	if event.Trigger == TriggerFault {
		attrs = append(attrs, "fault_kind", string(event.Kind), "error", event.Err)
		h.log().WarnContext(ctx, "Attempt failed, retrying", attrs...)
		return
	}
	h.log().WarnContext(ctx, "Result condition not met, retrying", attrs...)
}

// OnSuccess handles retry success events
func (h *DefaultEventHandler) OnSuccess(ctx context.Context, attempt int) {
	h.log().InfoContext(ctx, "Retry succeeded", "attempt", attempt)
}

// OnExhausted handles calls whose result condition was never met
func (h *DefaultEventHandler) OnExhausted(ctx context.Context, attempts int) {
	h.log().WarnContext(ctx, "Result condition not met after max attempts, returning last value", "attempts", attempts)
}

// OnGiveUp handles terminal failures
func (h *DefaultEventHandler) OnGiveUp(ctx context.Context, event GiveUpEvent) {
	if event.Exhausted {
		h.log().ErrorContext(ctx, "Max retry attempts reached",
			"attempt", event.Attempt, "max_attempts", event.MaxAttempts,
			"fault_kind", string(event.Kind), "error", event.Err)
		return
	}
	h.log().ErrorContext(ctx, "Non-retryable failure",
		"attempt", event.Attempt, "max_attempts", event.MaxAttempts,
		"fault_kind", string(event.Kind), "error", event.Err)
}
