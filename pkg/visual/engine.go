// Package visual compares rendered browser surfaces against approved baseline
// images and manages the baseline, actual and diff artifacts of each checkpoint.
package visual

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jzx17/pagecheck/pkg/types"
)

const (
	actualsDir = "VisualActuals"
	diffsDir   = "VisualDiffs"

	timestampLayout = "20060102_150405.000"
)

// FrameCapturer grabs the rendered surface of the browser under test
type FrameCapturer interface {
	// CaptureSurface returns the current rendered surface as PNG bytes
	CaptureSurface(ctx context.Context) ([]byte, error)
	// ElementBounds returns the on-screen bounding box of selector in surface coordinates
	ElementBounds(ctx context.Context, selector string) (image.Rectangle, error)
}

// OutputDirs resolves per-test output directories
type OutputDirs interface {
	// TestOutputDir returns, creating it if needed, the output directory of testName
	TestOutputDir(testName string) (string, error)
}

// Status tags a non-failing AssertMatch
type Status int

const (
	// StatusMatched means the capture was within tolerance of the baseline
	StatusMatched Status = iota + 1
	// StatusBaselineCreated means no baseline existed and the capture became it
	StatusBaselineCreated
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusMatched:
		return "Matched"
	case StatusBaselineCreated:
		return "BaselineCreated"
	default:
		return "Unknown"
	}
}

// Report describes a finished AssertMatch
type Report struct {
	Checkpoint   Checkpoint
	Status       Status
	Tolerance    float64
	Result       *ComparisonResult // nil when no comparison ran
	BaselinePath string
	ActualPath   string
	DiffPath     string // set only when a diff was written

	// Warning is non-empty when the run should be flagged without failing
	Warning string
}

// Engine runs visual checkpoints. One engine serves one browser session; calls
// must not overlap.
type Engine struct {
	capturer FrameCapturer
	dirs     OutputDirs
	store    BaselineStore
	cfg      Config
	clock    types.Clock
	logger   *slog.Logger
}

// EngineOption is a configuration option for the engine
type EngineOption func(*Engine)

// WithClock sets the clock used for artifact timestamps
func WithClock(clock types.Clock) EngineOption {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a visual regression engine
func NewEngine(capturer FrameCapturer, dirs OutputDirs, store BaselineStore, cfg Config, opts ...EngineOption) *Engine {
	e := &Engine{
		capturer: capturer,
		dirs:     dirs,
		store:    store,
		cfg:      cfg,
		clock:    types.NewRealClock(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AssertMatch captures spec, stores it as the actual artifact and compares it
// with the checkpoint's baseline.
//
// A nil error means the capture matched or became the new baseline; check
// Report.Warning for the latter. Failures are *MissingBaselineError,
// *DimensionMismatchError, *ComparisonError, *MismatchError or
// *InvalidRegionError. The report is returned whenever an actual image was saved.
func (e *Engine) AssertMatch(ctx context.Context, cp Checkpoint, spec CaptureSpec) (*Report, error) {
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	tolerance := e.cfg.DefaultTolerancePercent
	if cp.Tolerance != nil {
		tolerance = *cp.Tolerance
	}
	if err := validateTolerance(tolerance); err != nil {
		return nil, err
	}

	key := cp.Key()
	report := &Report{
		Checkpoint:   cp,
		Tolerance:    tolerance,
		BaselinePath: e.store.Path(key),
	}

	testDir, err := e.dirs.TestOutputDir(cp.TestName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	stamp := e.clock.Now().Format(timestampLayout)
	browser, id := Sanitize(cp.BrowserName), Sanitize(cp.ID)
	report.ActualPath = filepath.Join(testDir, actualsDir, browser, fmt.Sprintf("%s_actual_%s.png", id, stamp))
	diffPath := filepath.Join(testDir, diffsDir, browser, fmt.Sprintf("%s_diff_%s.png", id, stamp))

	actualBytes, actual, err := e.capture(ctx, spec)
	if err != nil {
		e.logger.ErrorContext(ctx, "Visual capture failed", "checkpoint", cp.String(), "capture", spec.String(), "error", err)
		return nil, err
	}
	if err := writeArtifact(report.ActualPath, actualBytes); err != nil {
		return nil, err
	}

	exists, err := e.store.Exists(key)
	if err != nil {
		return report, err
	}
	if !exists {
		created, err := e.handleMissingBaseline(ctx, report, actualBytes)
		if created || err != nil {
			return report, err
		}
		// lost a creation race; compare against the winner
	}

	baselineBytes, err := e.store.Load(key)
	if err != nil {
		return report, &ComparisonError{Op: "load baseline", Err: err}
	}
	baseline, err := DecodePNG(baselineBytes)
	if err != nil {
		return report, &ComparisonError{Op: "decode baseline", Err: err}
	}
	if actual == nil {
		if actual, err = DecodePNG(actualBytes); err != nil {
			return report, &ComparisonError{Op: "decode actual", Err: err}
		}
	}

	result, err := Compare(actual, baseline)
	if err != nil {
		e.logger.ErrorContext(ctx, "Visual comparison failed", "checkpoint", cp.String(), "error", err)
		return report, err
	}
	report.Result = &result

	if result.Exceeds(tolerance) {
		mask, err := DiffMask(actual, baseline)
		if err != nil {
			return report, &ComparisonError{Op: "diff mask", Err: err}
		}
		maskBytes, err := EncodePNG(mask)
		if err != nil {
			return report, &ComparisonError{Op: "encode diff", Err: err}
		}
		if err := writeArtifact(diffPath, maskBytes); err != nil {
			return report, err
		}
		report.DiffPath = diffPath

		e.logger.ErrorContext(ctx, "Visual mismatch",
			"checkpoint", cp.String(),
			"percentage", result.Percentage,
			"tolerance", tolerance,
			"different_pixels", result.DifferentPixels,
			"diff", diffPath)
		return report, &MismatchError{
			Checkpoint: cp,
			Result:     result,
			Tolerance:  tolerance,
			DiffPath:   diffPath,
			ActualPath: report.ActualPath,
		}
	}

	report.Status = StatusMatched
	e.logger.DebugContext(ctx, "Visual checkpoint matched",
		"checkpoint", cp.String(), "percentage", result.Percentage, "tolerance", tolerance)
	return report, nil
}

// handleMissingBaseline applies the auto-creation policy. It reports whether the
// actual image became the baseline.
func (e *Engine) handleMissingBaseline(ctx context.Context, report *Report, actualBytes []byte) (bool, error) {
	cp := report.Checkpoint
	if !e.cfg.AutoCreateBaselineIfMissing {
		e.logger.ErrorContext(ctx, "Baseline missing", "checkpoint", cp.String(), "baseline", report.BaselinePath)
		return false, &MissingBaselineError{
			Checkpoint:   cp,
			BaselinePath: report.BaselinePath,
			ActualPath:   report.ActualPath,
		}
	}

	err := e.store.Create(cp.Key(), actualBytes)
	if errors.Is(err, ErrBaselineExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create baseline: %w", err)
	}

	report.Status = StatusBaselineCreated
	if e.cfg.WarnOnAutomaticBaselineCreation {
		report.Warning = fmt.Sprintf("baseline for checkpoint %s did not exist and was created at %s; review it before relying on this checkpoint",
			cp, report.BaselinePath)
		e.logger.WarnContext(ctx, "Baseline created automatically", "checkpoint", cp.String(), "baseline", report.BaselinePath)
	} else {
		e.logger.InfoContext(ctx, "Baseline created automatically", "checkpoint", cp.String(), "baseline", report.BaselinePath)
	}
	return true, nil
}

// capture returns the encoded actual image along with its decoded form. Frames
// that do not decode are rejected before anything is written.
func (e *Engine) capture(ctx context.Context, spec CaptureSpec) ([]byte, image.Image, error) {
	frame, err := e.capturer.CaptureSurface(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to capture surface: %w", err)
	}

	surface, err := DecodePNG(frame)
	if err != nil {
		return nil, nil, &ComparisonError{Op: "decode capture", Err: err}
	}

	var requested image.Rectangle
	switch spec.Kind {
	case RegionFull:
		return frame, surface, nil
	case RegionElement:
		requested, err = e.capturer.ElementBounds(ctx, spec.Selector)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to locate %s: %w", spec.Selector, err)
		}
	case RegionRect:
		requested = spec.Rect
	default:
		return nil, nil, fmt.Errorf("%w: unknown region kind %d", ErrInvalidRegion, spec.Kind)
	}

	region := requested.Intersect(surface.Bounds())
	if region.Empty() {
		return nil, nil, &InvalidRegionError{Spec: spec, Requested: requested, Surface: surface.Bounds()}
	}

	cropped := Crop(surface, region)
	data, err := EncodePNG(cropped)
	if err != nil {
		return nil, nil, err
	}
	return data, cropped, nil
}

func writeArtifact(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}
