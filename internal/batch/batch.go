// Package batch compares whole directories of captures against baselines.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jzx17/pagecheck/pkg/visual"
	"github.com/jzx17/pagecheck/pkg/worker"
)

// Options configures a directory comparison
type Options struct {
	// Tolerance is the allowed share of differing pixels, 0..100
	Tolerance float64

	// DiffDir receives a diff mask per failing pair when set
	DiffDir string

	// Workers is the number of concurrent comparisons (default 4)
	Workers int

	Logger *slog.Logger
}

// PairResult is the verdict for one image pair
type PairResult struct {
	// Name is the path relative to both roots
	Name     string
	Result   visual.ComparisonResult
	DiffPath string
	Err      error
}

// Passed reports whether the pair compared within tolerance
func (r PairResult) Passed() bool {
	return r.Err == nil
}

// Summary collects all pair verdicts ordered by name
type Summary struct {
	Pairs  []PairResult
	Failed int
}

// CompareDirs compares every PNG under actualDir with the file at the same
// relative path under baselineDir.
func CompareDirs(ctx context.Context, actualDir, baselineDir string, opts Options) (*Summary, error) {
	if opts.Tolerance < 0 || opts.Tolerance > 100 {
		return nil, fmt.Errorf("tolerance must be within 0..100, got %g", opts.Tolerance)
	}
	if opts.Workers <= 0 {
		opts.Workers = worker.DefaultFixedPoolConfig().PoolSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	names, err := listPNGs(actualDir)
	if err != nil {
		return nil, err
	}

	pool, err := worker.NewFixedPool(worker.FixedPoolConfig{
		PoolSize:  opts.Workers,
		QueueSize: opts.Workers * 2,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	if err := pool.Start(ctx); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	summary := &Summary{}
	record := func(r PairResult) {
		mu.Lock()
		defer mu.Unlock()
		summary.Pairs = append(summary.Pairs, r)
		if !r.Passed() {
			summary.Failed++
		}
	}

	var submitErr error
	for _, name := range names {
		name := name
		err := pool.Submit(ctx, worker.NewTask(name, func(ctx context.Context) error {
			r := comparePair(ctx, actualDir, baselineDir, name, opts)
			record(r)
			return r.Err
		}))
		if err != nil {
			submitErr = err
			break
		}
	}
	pool.Close()
	if submitErr != nil {
		return nil, submitErr
	}

	sort.Slice(summary.Pairs, func(i, j int) bool { return summary.Pairs[i].Name < summary.Pairs[j].Name })
	opts.Logger.Info("Directory comparison finished", "pairs", len(summary.Pairs), "failed", summary.Failed)
	return summary, nil
}

func comparePair(ctx context.Context, actualDir, baselineDir, name string, opts Options) PairResult {
	r := PairResult{Name: name}
	if err := ctx.Err(); err != nil {
		r.Err = err
		return r
	}

	actual, err := readPNG(filepath.Join(actualDir, filepath.FromSlash(name)))
	if err != nil {
		r.Err = err
		return r
	}
	baselinePath := filepath.Join(baselineDir, filepath.FromSlash(name))
	baseline, err := readPNG(baselinePath)
	if errors.Is(err, fs.ErrNotExist) {
		r.Err = fmt.Errorf("%w: %s", visual.ErrMissingBaseline, baselinePath)
		return r
	}
	if err != nil {
		r.Err = err
		return r
	}

	r.Result, err = visual.Compare(actual, baseline)
	if err != nil {
		r.Err = err
		return r
	}
	if !r.Result.Exceeds(opts.Tolerance) {
		return r
	}

	r.Err = fmt.Errorf("%g%% of pixels differ, tolerance %g%%", r.Result.Percentage, opts.Tolerance)
	if opts.DiffDir != "" {
		diffPath := filepath.Join(opts.DiffDir, filepath.FromSlash(strings.TrimSuffix(name, ".png")+"_diff.png"))
		if err := writeDiff(diffPath, actual, baseline); err != nil {
			opts.Logger.Warn("Failed to write diff", "pair", name, "error", err)
		} else {
			r.DiffPath = diffPath
		}
	}
	return r
}

func listPNGs(root string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".png") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}
	return names, nil
}
