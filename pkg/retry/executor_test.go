package retry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jzx17/pagecheck/internal/testutils"
	"github.com/jzx17/pagecheck/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestExecutor(t *testing.T, opts ...ExecutorOption) (*RetryExecutor, *testutils.AutoAdvanceClock) {
	t.Helper()
	clock := testutils.NewAutoAdvanceClock(t)
	discard := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	opts = append([]ExecutorOption{WithClock(clock), WithLogger(discard)}, opts...)
	return NewRetryExecutor(opts...), clock
}

func TestRetryExecutor_Run_Success(t *testing.T) {
	executor, clock := newTestExecutor(t)

	calls := 0
	err := executor.Run(context.Background(), DefaultPolicy(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clock.Waits())

	stats := executor.Stats()
	assert.Equal(t, int64(1), stats.TotalAttempts)
	assert.Equal(t, int64(1), stats.TotalSuccesses)
	assert.Equal(t, int64(0), stats.TotalRetries)
}

func TestRetryExecutor_Run_SucceedsOnAttemptK(t *testing.T) {
	for k := 1; k <= 4; k++ {
		t.Run(fmt.Sprintf("attempt_%d", k), func(t *testing.T) {
			executor, clock := newTestExecutor(t)

			calls := 0
			outcome, err := Execute(executor, context.Background(), DefaultPolicy().WithAttempts(4),
				func(ctx context.Context) (string, error) {
					calls++
					if calls < k {
						return "", types.ErrStaleElement
					}
					return "done", nil
				}, nil)

			require.NoError(t, err)
			assert.Equal(t, "done", outcome.Value)
			assert.Equal(t, StatusSucceeded, outcome.Status)
			assert.Equal(t, k, outcome.Attempts)
			assert.Equal(t, k, calls)
			assert.Len(t, clock.Waits(), k-1)
		})
	}
}

func TestRetryExecutor_Run_AllAttemptsFail(t *testing.T) {
	executor, clock := newTestExecutor(t)

	failures := []error{
		errors.New("attempt 1 failed"),
		errors.New("attempt 2 failed"),
		errors.New("attempt 3 failed"),
	}

	start := clock.Now()
	calls := 0
	err := executor.Run(context.Background(), DefaultPolicy(), func(ctx context.Context) error {
		err := failures[calls]
		calls++
		return err
	})

	require.Error(t, err)
	assert.Same(t, failures[2], err, "final error must be the third attempt's error, unwrapped")
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, clock.Waits())
	assert.GreaterOrEqual(t, clock.Since(start), 3*time.Second)

	stats := executor.Stats()
	assert.Equal(t, int64(3), stats.TotalAttempts)
	assert.Equal(t, int64(2), stats.TotalRetries)
	assert.Equal(t, int64(1), stats.TotalFailures)
	assert.Equal(t, 3*time.Second, stats.TotalRetryDelay)
}

func TestRetryExecutor_Run_NonRetryableFault(t *testing.T) {
	executor, clock := newTestExecutor(t, WithFaultClassifier(FaultKinds(types.FaultTimeout)))

	sentinel := types.NewFault(types.FaultElementNotFound, "click #missing", errors.New("no match"))
	calls := 0
	err := executor.Run(context.Background(), DefaultPolicy(), func(ctx context.Context) error {
		calls++
		return sentinel
	})

	assert.Same(t, sentinel, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clock.Waits(), "non-retryable faults must not wait")
	assert.Equal(t, int64(0), executor.Stats().TotalRetries)
}

func TestRetryExecutor_ConfiguredFaultKinds(t *testing.T) {
	classifier, err := NewFaultClassifier([]string{"InteractionFault"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{"descendant kind is retried", types.NewFault(types.FaultStaleElement, "", errors.New("detached")), 3},
		{"listed kind is retried", types.NewFault(types.FaultInteraction, "", errors.New("blocked")), 3},
		{"sibling kind is not retried", types.ErrTimeout, 1},
		{"unclassified error is not retried", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor, _ := newTestExecutor(t, WithFaultClassifier(classifier))

			calls := 0
			err := executor.Run(context.Background(), DefaultPolicy(), func(ctx context.Context) error {
				calls++
				return tt.err
			})

			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestRetryExecutor_PolicyClassifierOverridesExecutor(t *testing.T) {
	executor, _ := newTestExecutor(t, WithFaultClassifier(NoFault))

	calls := 0
	err := executor.Run(context.Background(), DefaultPolicy().WithRetryOn(AnyFault), func(ctx context.Context) error {
		calls++
		return errors.New("flaky")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecute_ResultConditionNeverSatisfied(t *testing.T) {
	executor, clock := newTestExecutor(t)

	calls := 0
	outcome, err := Execute(executor, context.Background(), DefaultPolicy().WithAttempts(4),
		func(ctx context.Context) (int, error) {
			calls++
			return calls * 10, nil
		},
		func(v int) bool { return v > 100 })

	require.NoError(t, err, "exhaustion on result condition must not raise")
	assert.Equal(t, 4, calls)
	assert.Equal(t, StatusExhausted, outcome.Status)
	assert.True(t, outcome.Exhausted())
	assert.Equal(t, 40, outcome.Value, "last produced value is returned")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, clock.Waits())

	value, err := outcome.Must()
	assert.Equal(t, 40, value)
	assert.ErrorIs(t, err, ErrExhausted)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.Equal(t, int64(1), executor.Stats().TotalExhausted)
}

func TestExecute_ResultConditionSatisfiedLater(t *testing.T) {
	executor, clock := newTestExecutor(t)

	states := []string{"loading", "loading", "ready"}
	calls := 0
	outcome, err := Execute(executor, context.Background(), DefaultPolicy(),
		func(ctx context.Context) (string, error) {
			s := states[calls]
			calls++
			return s, nil
		},
		func(s string) bool { return s == "ready" })

	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, "ready", outcome.Value)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Len(t, clock.Waits(), 2)

	value, err := outcome.Must()
	require.NoError(t, err)
	assert.Equal(t, "ready", value)
}

func TestExecute_FaultAndResultBothTriggerRetry(t *testing.T) {
	executor, _ := newTestExecutor(t)

	calls := 0
	outcome, err := Execute(executor, context.Background(), DefaultPolicy().WithAttempts(5),
		func(ctx context.Context) (int, error) {
			calls++
			switch calls {
			case 1:
				return 0, types.ErrTimeout
			case 2:
				return 1, nil // rejected
			default:
				return 2, nil
			}
		},
		func(v int) bool { return v == 2 })

	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Value)
	assert.Equal(t, 3, calls)
}

func TestExecute_FinalFaultAfterRejectedResults(t *testing.T) {
	executor, _ := newTestExecutor(t)

	final := errors.New("gone")
	calls := 0
	outcome, err := Execute(executor, context.Background(), DefaultPolicy(),
		func(ctx context.Context) (int, error) {
			calls++
			if calls == 3 {
				return 0, final
			}
			return 1, nil
		},
		func(v int) bool { return false })

	assert.Same(t, final, err)
	assert.Equal(t, StatusFailed, outcome.Status)
}

func TestRetryExecutor_BackoffScheduleProperty(t *testing.T) {
	for _, initial := range []time.Duration{10 * time.Millisecond, time.Second, 3 * time.Second} {
		t.Run(initial.String(), func(t *testing.T) {
			executor, clock := newTestExecutor(t)
			policy := Policy{MaxAttempts: 6, InitialDelay: initial}

			_ = executor.Run(context.Background(), policy, func(ctx context.Context) error {
				return types.ErrTimeout
			})

			waits := clock.Waits()
			require.Len(t, waits, 5)
			for n := 1; n <= len(waits); n++ {
				want := initial * time.Duration(1<<(n-1))
				assert.Equal(t, want, waits[n-1], "wait before attempt %d", n+1)
			}
		})
	}
}

func TestRetryExecutor_MaxDelayClamp(t *testing.T) {
	executor, clock := newTestExecutor(t)
	policy := Policy{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: 3 * time.Second}

	_ = executor.Run(context.Background(), policy, func(ctx context.Context) error {
		return types.ErrTimeout
	})

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}, clock.Waits())
}

func TestRetryExecutor_MaxAttemptsBelowOne(t *testing.T) {
	executor, clock := newTestExecutor(t)

	calls := 0
	err := executor.Run(context.Background(), Policy{MaxAttempts: 0, InitialDelay: time.Second}, func(ctx context.Context) error {
		calls++
		return types.ErrTimeout
	})

	assert.ErrorIs(t, err, types.ErrTimeout)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clock.Waits())
}

func TestRetryExecutor_ContextCanceled(t *testing.T) {
	t.Run("before first attempt", func(t *testing.T) {
		executor, _ := newTestExecutor(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := executor.Run(ctx, DefaultPolicy(), func(ctx context.Context) error {
			calls++
			return nil
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, calls)
	})

	t.Run("during backoff", func(t *testing.T) {
		// timers on a plain wrapper never fire unless the mock is advanced
		mock := testutils.NewMockClock(t)
		executor := NewRetryExecutor(WithClock(testutils.NewClockWrapper(mock)), WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		calls := 0
		err := executor.Run(ctx, DefaultPolicy(), func(ctx context.Context) error {
			calls++
			cancel()
			return types.ErrTimeout
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestDefaultEventHandler_LogsEveryRetry(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	clock := testutils.NewAutoAdvanceClock(t)
	executor := NewRetryExecutor(WithClock(clock), WithLogger(logger))

	_, _ = Execute(executor, context.Background(), DefaultPolicy(),
		func(ctx context.Context) (bool, error) {
			return false, types.NewFault(types.FaultStaleElement, "click #add", errors.New("detached"))
		}, nil)

	var retries []map[string]any
	var terminal []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		switch record["msg"] {
		case "Attempt failed, retrying":
			retries = append(retries, record)
		case "Max retry attempts reached":
			terminal = append(terminal, record)
		}
	}

	require.Len(t, retries, 2)
	assert.EqualValues(t, 1, retries[0]["attempt"])
	assert.EqualValues(t, 3, retries[0]["max_attempts"])
	assert.Equal(t, "StaleElement", retries[0]["fault_kind"])
	assert.Equal(t, "fault", retries[0]["trigger"])
	assert.EqualValues(t, time.Second, retries[0]["delay"])
	assert.EqualValues(t, 2*time.Second, retries[1]["delay"])
	require.Len(t, terminal, 1)
	assert.Equal(t, "ERROR", terminal[0]["level"])
}

func TestDefaultEventHandler_LogsResultTrigger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	executor := NewRetryExecutor(WithClock(testutils.NewAutoAdvanceClock(t)), WithLogger(logger))

	_, err := Execute(executor, context.Background(), DefaultPolicy().WithAttempts(2),
		func(ctx context.Context) (int, error) { return 0, nil },
		func(int) bool { return false })

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, `"trigger":"result"`)
	assert.Contains(t, out, "Result condition not met, retrying")
	assert.Contains(t, out, "returning last value")
}

type recordingHandler struct {
	retries  []RetryEvent
	giveUps  []GiveUpEvent
	success  []int
	exhausts []int
}

func (h *recordingHandler) OnRetry(ctx context.Context, e RetryEvent) {
	h.retries = append(h.retries, e)
}

func (h *recordingHandler) OnSuccess(ctx context.Context, attempt int) {
	h.success = append(h.success, attempt)
}

func (h *recordingHandler) OnExhausted(ctx context.Context, n int) {
	h.exhausts = append(h.exhausts, n)
}

func (h *recordingHandler) OnGiveUp(ctx context.Context, e GiveUpEvent) {
	h.giveUps = append(h.giveUps, e)
}

func TestRetryExecutor_EventHandler(t *testing.T) {
	handler := &recordingHandler{}
	executor := NewRetryExecutor(WithClock(testutils.NewAutoAdvanceClock(t)), WithEventHandler(handler))

	calls := 0
	err := executor.Run(context.Background(), DefaultPolicy(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return types.ErrTargetClosed
		}
		return nil
	})

	require.NoError(t, err)
	require.Len(t, handler.retries, 1)
	assert.Equal(t, types.FaultTargetClosed, handler.retries[0].Kind)
	assert.Equal(t, TriggerFault, handler.retries[0].Trigger)
	assert.Equal(t, time.Second, handler.retries[0].Delay)
	assert.Equal(t, []int{2}, handler.success)
	assert.Empty(t, handler.giveUps)
}

func TestRetryExecutor_ResetStats(t *testing.T) {
	executor, _ := newTestExecutor(t)
	_ = executor.Run(context.Background(), DefaultPolicy(), func(ctx context.Context) error { return nil })
	require.Equal(t, int64(1), executor.Stats().TotalAttempts)

	executor.ResetStats()
	assert.Equal(t, RetryStats{}, executor.Stats())
}
