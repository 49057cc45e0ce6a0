package retry

import (
	"errors"
	"fmt"
)

// ErrExhausted is matched by *ExhaustedError
var ErrExhausted = errors.New("result condition never satisfied")

// Status tags how a retried call ended
type Status int

const (
	// StatusSucceeded means an attempt returned without error and its value was accepted
	StatusSucceeded Status = iota + 1
	// StatusExhausted means every attempt returned without error but no value was accepted
	StatusExhausted
	// StatusFailed means the call ended with an error
	StatusFailed
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "Succeeded"
	case StatusExhausted:
		return "Exhausted"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Outcome is the tagged result of Execute. An exhausted outcome still carries the
// value produced by the final attempt.
type Outcome[T any] struct {
	Value    T
	Status   Status
	Attempts int
}

// Succeeded reports whether the value was accepted
func (o Outcome[T]) Succeeded() bool {
	return o.Status == StatusSucceeded
}

// Exhausted reports whether the attempts ran out on unacceptable values
func (o Outcome[T]) Exhausted() bool {
	return o.Status == StatusExhausted
}

// Must returns the value, turning exhaustion into an *ExhaustedError
func (o Outcome[T]) Must() (T, error) {
	if o.Status == StatusExhausted {
		return o.Value, &ExhaustedError{Attempts: o.Attempts, LastValue: o.Value}
	}
	return o.Value, nil
}

// ExhaustedError reports a result condition that was never met
type ExhaustedError struct {
	Attempts  int
	LastValue any
}

// Error implements the error interface
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("result condition not satisfied after %d attempts (last value: %v)", e.Attempts, e.LastValue)
}

// Is matches ErrExhausted
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}
