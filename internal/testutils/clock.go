package testutils

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/jzx17/pagecheck/pkg/types"
)

// NewMockClock creates a mock clock for testing
func NewMockClock(t testing.TB) *quartz.Mock {
	return quartz.NewMock(t)
}

// ClockWrapper wraps quartz.Mock to implement our Clock interface
type ClockWrapper struct {
	*quartz.Mock
}

var _ types.Clock = (*ClockWrapper)(nil)

// NewClockWrapper creates a new ClockWrapper
func NewClockWrapper(mock *quartz.Mock) *ClockWrapper {
	return &ClockWrapper{Mock: mock}
}

// After returns a channel that delivers the current time after the duration
func (c *ClockWrapper) After(d time.Duration) <-chan time.Time {
	timer := c.Mock.NewTimer(d)
	return timer.C
}

// Now returns the current time
func (c *ClockWrapper) Now() time.Time {
	return c.Mock.Now()
}

// Since returns the time elapsed since t
func (c *ClockWrapper) Since(t time.Time) time.Duration {
	return c.Mock.Since(t)
}

// AutoAdvanceClock is a ClockWrapper whose After advances the mock by the
// requested duration straight away. Every requested wait is recorded, so backoff
// schedules can be asserted without sleeping.
type AutoAdvanceClock struct {
	ClockWrapper

	mu    sync.Mutex
	waits []time.Duration
}

var _ types.Clock = (*AutoAdvanceClock)(nil)

// NewAutoAdvanceClock creates an auto-advancing mock clock
func NewAutoAdvanceClock(t testing.TB) *AutoAdvanceClock {
	return &AutoAdvanceClock{ClockWrapper: ClockWrapper{Mock: quartz.NewMock(t)}}
}

// After records d, fires the timer by advancing the mock and returns its channel
func (c *AutoAdvanceClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()

	timer := c.Mock.NewTimer(d)
	if d > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Mock.Advance(d).MustWait(ctx)
	}
	return timer.C
}

// Waits returns every duration passed to After, in order
func (c *AutoAdvanceClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

// TotalWait sums all recorded waits
func (c *AutoAdvanceClock) TotalWait() time.Duration {
	var total time.Duration
	for _, d := range c.Waits() {
		total += d
	}
	return total
}
