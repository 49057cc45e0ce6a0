package batch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jzx17/pagecheck/internal/testutils"
	"github.com/jzx17/pagecheck/pkg/visual"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quietOptions(tol float64) Options {
	return Options{Tolerance: tol, Workers: 3, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestCompareDirs(t *testing.T) {
	root := t.TempDir()
	actualDir, baselineDir := filepath.Join(root, "actual"), filepath.Join(root, "baseline")
	base := testutils.GradientImage(50, 20)

	testutils.WritePNG(t, filepath.Join(baselineDir, "chromium", "same.png"), base)
	testutils.WritePNG(t, filepath.Join(actualDir, "chromium", "same.png"), base)
	testutils.WritePNG(t, filepath.Join(baselineDir, "chromium", "small.png"), base)
	testutils.WritePNG(t, filepath.Join(actualDir, "chromium", "small.png"), testutils.WithChangedPixels(base, 2))
	testutils.WritePNG(t, filepath.Join(baselineDir, "firefox", "big.png"), base)
	testutils.WritePNG(t, filepath.Join(actualDir, "firefox", "big.png"), testutils.WithChangedPixels(base, 10))
	testutils.WritePNG(t, filepath.Join(actualDir, "webkit", "new.png"), base)
	require.NoError(t, os.WriteFile(filepath.Join(actualDir, "notes.txt"), []byte("skip"), 0644))

	opts := quietOptions(0.5)
	opts.DiffDir = filepath.Join(root, "diffs")
	summary, err := CompareDirs(context.Background(), actualDir, baselineDir, opts)
	require.NoError(t, err)

	require.Len(t, summary.Pairs, 4)
	assert.Equal(t, 2, summary.Failed)

	byName := map[string]PairResult{}
	for _, p := range summary.Pairs {
		byName[p.Name] = p
	}
	assert.True(t, byName["chromium/same.png"].Passed())
	assert.True(t, byName["chromium/small.png"].Passed())
	assert.InDelta(t, 0.2, byName["chromium/small.png"].Result.Percentage, 1e-9)

	big := byName["firefox/big.png"]
	assert.False(t, big.Passed())
	assert.Equal(t, filepath.Join(root, "diffs", "firefox", "big_diff.png"), big.DiffPath)
	assert.FileExists(t, big.DiffPath)

	assert.ErrorIs(t, byName["webkit/new.png"].Err, visual.ErrMissingBaseline)
	assert.Equal(t, "chromium/same.png", summary.Pairs[0].Name, "pairs are sorted")
}

func TestCompareDirs_DimensionMismatch(t *testing.T) {
	root := t.TempDir()
	testutils.WritePNG(t, filepath.Join(root, "a", "x.png"), testutils.GradientImage(4, 4))
	testutils.WritePNG(t, filepath.Join(root, "b", "x.png"), testutils.GradientImage(4, 5))

	summary, err := CompareDirs(context.Background(), filepath.Join(root, "a"), filepath.Join(root, "b"), quietOptions(0))
	require.NoError(t, err)

	var dims *visual.DimensionMismatchError
	assert.ErrorAs(t, summary.Pairs[0].Err, &dims)
}

func TestCompareDirs_Errors(t *testing.T) {
	_, err := CompareDirs(context.Background(), t.TempDir(), t.TempDir(), quietOptions(101))
	assert.Error(t, err)

	_, err = CompareDirs(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir(), quietOptions(0))
	assert.Error(t, err)
}

func TestCompareDirs_Empty(t *testing.T) {
	summary, err := CompareDirs(context.Background(), t.TempDir(), t.TempDir(), quietOptions(0))
	require.NoError(t, err)
	assert.Empty(t, summary.Pairs)
	assert.Zero(t, summary.Failed)
}
