package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jzx17/pagecheck/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, time.Second, p.InitialDelay)
	assert.Equal(t, 30*time.Second, p.MaxDelay)
	assert.Nil(t, p.RetryOn)
}

func TestPolicy_WithHelpersCopy(t *testing.T) {
	base := DefaultPolicy()
	changed := base.WithAttempts(7).WithInitialDelay(250 * time.Millisecond).WithRetryOn(NoFault)

	assert.Equal(t, 3, base.MaxAttempts, "original policy must not change")
	assert.Equal(t, 7, changed.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, changed.InitialDelay)
	assert.NotNil(t, changed.RetryOn)
}

func TestAnyFault(t *testing.T) {
	assert.True(t, AnyFault(errors.New("x")))
	assert.True(t, AnyFault(context.DeadlineExceeded))
	assert.False(t, AnyFault(nil))
	assert.False(t, NoFault(errors.New("x")))
}

func TestNewFaultClassifier_Empty(t *testing.T) {
	for _, names := range [][]string{nil, {}, {"", "  "}} {
		classifier, err := NewFaultClassifier(names)
		require.NoError(t, err)
		assert.True(t, classifier(errors.New("anything")), "empty list retries every failure")
		assert.True(t, classifier(types.ErrTimeout))
	}
}

func TestNewFaultClassifier_UnknownName(t *testing.T) {
	_, err := NewFaultClassifier([]string{"Timeout", "WebDriverExplosion"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	assert.Contains(t, err.Error(), "WebDriverExplosion")
}

func TestNewFaultClassifier_Matching(t *testing.T) {
	classifier, err := NewFaultClassifier([]string{"TimeoutFault", "StaleElementException"})
	require.NoError(t, err)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout sentinel", types.ErrTimeout, true},
		{"wrapped timeout", fmt.Errorf("goto: %w", types.ErrTimeout), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"stale element fault", types.NewFault(types.FaultStaleElement, "", errors.New("x")), true},
		{"broader interaction fault", types.NewFault(types.FaultInteraction, "", errors.New("x")), false},
		{"element not found", types.ErrElementNotFound, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier(tt.err))
		})
	}
}

func TestFaultKinds_RootMatchesAllBrowserFaults(t *testing.T) {
	classifier := FaultKinds(types.FaultBrowser)

	for _, kind := range types.FaultKinds() {
		assert.True(t, classifier(types.NewFault(kind, "", errors.New("x"))), "kind %s", kind)
	}
	assert.False(t, classifier(errors.New("not a browser fault")))
}
