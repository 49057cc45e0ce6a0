// Package retry provides retry mechanism strategies and implementations
package retry

import (
	"fmt"
	"strings"
	"time"

	"github.com/jzx17/pagecheck/pkg/types"
)

const (
	// DefaultMaxAttempts is the attempt limit used when none is configured
	DefaultMaxAttempts = 3
	// DefaultInitialDelay is the wait before the first retry
	DefaultInitialDelay = time.Second
	// DefaultMaxDelay caps a single backoff wait
	DefaultMaxDelay = 30 * time.Second
)

// Policy describes how a single call is retried
type Policy struct {
	// MaxAttempts is the total number of attempts including the first one
	MaxAttempts int

	// InitialDelay is the wait before the second attempt; later waits double
	InitialDelay time.Duration

	// MaxDelay clamps each individual wait. Zero or less disables the clamp.
	MaxDelay time.Duration

	// RetryOn decides whether a failure is retryable. Nil falls back to the
	// executor's classifier.
	RetryOn FaultClassifier
}

// DefaultPolicy returns 3 attempts starting at 1s, capped at 30s per wait
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
	}
}

// WithAttempts returns a copy of p with a different attempt limit
func (p Policy) WithAttempts(n int) Policy {
	p.MaxAttempts = n
	return p
}

// WithInitialDelay returns a copy of p with a different initial delay
func (p Policy) WithInitialDelay(d time.Duration) Policy {
	p.InitialDelay = d
	return p
}

// WithRetryOn returns a copy of p using classifier for fault decisions
func (p Policy) WithRetryOn(classifier FaultClassifier) Policy {
	p.RetryOn = classifier
	return p
}

// attempts returns the effective attempt limit
func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// backoff builds the delay schedule for this policy
func (p Policy) backoff() *ExponentialBackoff {
	return NewExponentialBackoff(p.InitialDelay, p.MaxDelay)
}

// FaultClassifier reports whether a failure is eligible for retry
type FaultClassifier func(error) bool

// ResultCondition reports whether a successfully returned value is acceptable.
// Returning false asks for another attempt.
type ResultCondition[T any] func(T) bool

// AnyFault classifies every non-nil error as retryable
func AnyFault(err error) bool {
	return err != nil
}

// NoFault never retries
func NoFault(error) bool {
	return false
}

// FaultKinds builds a classifier matching errors whose kind is one of kinds or a
// descendant of one of them.
func FaultKinds(kinds ...types.FaultKind) FaultClassifier {
	if len(kinds) == 0 {
		return AnyFault
	}
	allowed := append([]types.FaultKind(nil), kinds...)
	return func(err error) bool {
		kind, ok := types.KindOf(err)
		if !ok {
			return false
		}
		for _, k := range allowed {
			if kind.IsA(k) {
				return true
			}
		}
		return false
	}
}

// NewFaultClassifier resolves configured fault-kind names into a classifier. An
// empty list retries every failure.
func NewFaultClassifier(names []string) (FaultClassifier, error) {
	kinds := make([]types.FaultKind, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		kind, err := types.ParseFaultKind(name)
		if err != nil {
			return nil, fmt.Errorf("retryable faults: %w", err)
		}
		kinds = append(kinds, kind)
	}
	return FaultKinds(kinds...), nil
}
