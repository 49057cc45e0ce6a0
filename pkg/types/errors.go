// Package types defines error types
package types

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Predefined errors
var (
	// ErrTimeout indicates a browser operation timed out
	ErrTimeout = errors.New("operation timeout")

	// ErrTargetClosed indicates the page, context or browser went away
	ErrTargetClosed = errors.New("target closed")

	// ErrElementNotFound indicates a locator matched nothing
	ErrElementNotFound = errors.New("element not found")

	// ErrStaleElement indicates a previously resolved element is detached
	ErrStaleElement = errors.New("stale element")

	// ErrNotInteractable indicates an element exists but cannot receive input
	ErrNotInteractable = errors.New("element not interactable")

	// ErrInvalidInput indicates invalid input
	ErrInvalidInput = errors.New("invalid input")
)

// FaultKind names a class of failure. Kinds form a tree rooted at FaultBrowser.
type FaultKind string

const (
	FaultBrowser                FaultKind = "Browser"
	FaultTimeout                FaultKind = "Timeout"
	FaultTargetClosed           FaultKind = "TargetClosed"
	FaultNavigation             FaultKind = "Navigation"
	FaultInteraction            FaultKind = "Interaction"
	FaultElementNotFound        FaultKind = "ElementNotFound"
	FaultStaleElement           FaultKind = "StaleElement"
	FaultElementNotInteractable FaultKind = "ElementNotInteractable"

	// FaultUnknown is reported for errors that carry no kind at all.
	FaultUnknown FaultKind = "Unknown"
)

var faultParents = map[FaultKind]FaultKind{
	FaultTimeout:                FaultBrowser,
	FaultTargetClosed:           FaultBrowser,
	FaultNavigation:             FaultBrowser,
	FaultInteraction:            FaultBrowser,
	FaultElementNotFound:        FaultInteraction,
	FaultStaleElement:           FaultInteraction,
	FaultElementNotInteractable: FaultInteraction,
}

// sentinel errors recognised without an explicit *Fault wrapper
var sentinelKinds = []struct {
	err  error
	kind FaultKind
}{
	{ErrTimeout, FaultTimeout},
	{context.DeadlineExceeded, FaultTimeout},
	{ErrTargetClosed, FaultTargetClosed},
	{ErrElementNotFound, FaultElementNotFound},
	{ErrStaleElement, FaultStaleElement},
	{ErrNotInteractable, FaultElementNotInteractable},
}

// Parent returns the direct ancestor of k. The root and unknown kinds have none.
func (k FaultKind) Parent() (FaultKind, bool) {
	p, ok := faultParents[k]
	return p, ok
}

// IsA reports whether k is ancestor or one of its descendants.
func (k FaultKind) IsA(ancestor FaultKind) bool {
	for cur := k; ; {
		if cur == ancestor {
			return true
		}
		next, ok := faultParents[cur]
		if !ok {
			return false
		}
		cur = next
	}
}

// Known reports whether k is part of the taxonomy.
func (k FaultKind) Known() bool {
	if k == FaultBrowser {
		return true
	}
	_, ok := faultParents[k]
	return ok
}

// FaultKinds lists every kind in the taxonomy, root first.
func FaultKinds() []FaultKind {
	return []FaultKind{
		FaultBrowser,
		FaultTimeout,
		FaultTargetClosed,
		FaultNavigation,
		FaultInteraction,
		FaultElementNotFound,
		FaultStaleElement,
		FaultElementNotInteractable,
	}
}

// faultAliases maps driver-style names onto the taxonomy
var faultAliases = map[string]FaultKind{
	"nosuchelement":           FaultElementNotFound,
	"staleelementreference":   FaultStaleElement,
	"elementnotvisible":       FaultElementNotInteractable,
	"elementclickintercepted": FaultElementNotInteractable,
	"invalidelementstate":     FaultElementNotInteractable,
	"nosuchwindow":            FaultTargetClosed,
	"nosuchframe":             FaultTargetClosed,
	"webdriver":               FaultBrowser,
}

// ParseFaultKind resolves a configured name such as "timeout", "TimeoutFault" or
// "StaleElementException" to a kind.
func ParseFaultKind(name string) (FaultKind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, suffix := range []string{"exception", "error", "fault"} {
		if trimmed := strings.TrimSuffix(n, suffix); trimmed != "" {
			n = trimmed
		}
	}
	for _, k := range FaultKinds() {
		if strings.ToLower(string(k)) == n {
			return k, nil
		}
	}
	if k, ok := faultAliases[n]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown fault kind %q", ErrInvalidInput, name)
}

// Fault is an error tagged with the kind of failure that produced it
type Fault struct {
	// Kind classifies the failure
	Kind FaultKind

	// Op is the interaction that failed, e.g. "click #login-button"
	Op string

	// Err is the underlying error
	Err error
}

// NewFault creates a new fault
func NewFault(kind FaultKind, op string, err error) *Fault {
	return &Fault{Kind: kind, Op: op, Err: err}
}

// Error implements the error interface
func (f *Fault) Error() string {
	if f.Op == "" {
		return fmt.Sprintf("%s fault: %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("%s fault in %s: %v", f.Kind, f.Op, f.Err)
}

// Unwrap returns the underlying error
func (f *Fault) Unwrap() error {
	return f.Err
}

// KindOf extracts the fault kind carried by err. Explicit *Fault wrappers win over
// recognised sentinel errors.
func KindOf(err error) (FaultKind, bool) {
	if err == nil {
		return "", false
	}

	var fault *Fault
	if errors.As(err, &fault) {
		return fault.Kind, true
	}

	for _, s := range sentinelKinds {
		if errors.Is(err, s.err) {
			return s.kind, true
		}
	}
	return FaultUnknown, false
}
