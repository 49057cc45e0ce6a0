// Package visualtest turns visual checkpoint verdicts into test results.
package visualtest

import (
	"context"
	"testing"

	"github.com/jzx17/pagecheck/pkg/visual"
)

// AssertMatch runs a checkpoint and fails t on any error. An automatically
// created baseline is logged as a warning and does not fail the test.
func AssertMatch(t testing.TB, engine *visual.Engine, cp visual.Checkpoint, spec visual.CaptureSpec) *visual.Report {
	t.Helper()
	return AssertMatchContext(context.Background(), t, engine, cp, spec)
}

// AssertMatchContext is AssertMatch with an explicit context
func AssertMatchContext(ctx context.Context, t testing.TB, engine *visual.Engine, cp visual.Checkpoint, spec visual.CaptureSpec) *visual.Report {
	t.Helper()

	report, err := engine.AssertMatch(ctx, cp, spec)
	if err != nil {
		t.Fatalf("visual checkpoint %s failed: %v", cp, err)
		return report
	}
	if report.Warning != "" {
		t.Logf("WARNING: %s", report.Warning)
	}
	return report
}
