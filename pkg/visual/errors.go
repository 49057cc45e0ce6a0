package visual

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrMissingBaseline is matched by *MissingBaselineError
	ErrMissingBaseline = errors.New("baseline missing")

	// ErrBaselineExists is returned when creating a baseline that is already stored
	ErrBaselineExists = errors.New("baseline already exists")

	// ErrInvalidRegion is matched by *InvalidRegionError
	ErrInvalidRegion = errors.New("invalid capture region")

	// ErrInvalidCheckpoint reports an unusable checkpoint or tolerance
	ErrInvalidCheckpoint = errors.New("invalid checkpoint")
)

// MissingBaselineError is raised when no baseline exists and auto-creation is off
type MissingBaselineError struct {
	Checkpoint   Checkpoint
	BaselinePath string
	ActualPath   string
}

func (e *MissingBaselineError) Error() string {
	return fmt.Sprintf("no baseline for checkpoint %s at %s (actual capture saved to %s)",
		e.Checkpoint, e.BaselinePath, e.ActualPath)
}

func (e *MissingBaselineError) Is(target error) bool {
	return target == ErrMissingBaseline
}

// DimensionMismatchError reports images of different sizes
type DimensionMismatchError struct {
	Actual   image.Point
	Baseline image.Point
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("image dimensions differ: actual %dx%d, baseline %dx%d",
		e.Actual.X, e.Actual.Y, e.Baseline.X, e.Baseline.Y)
}

// ComparisonError reports a comparison that could not be carried out
type ComparisonError struct {
	Op  string
	Err error
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("comparison failed: %s: %v", e.Op, e.Err)
}

func (e *ComparisonError) Unwrap() error {
	return e.Err
}

// MismatchError reports more differing pixels than the tolerance allows
type MismatchError struct {
	Checkpoint Checkpoint
	Result     ComparisonResult
	Tolerance  float64
	DiffPath   string
	ActualPath string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("visual mismatch for checkpoint %s: %g%% of pixels differ (%d of %d), tolerance %g%%; diff saved to %s",
		e.Checkpoint, e.Result.Percentage, e.Result.DifferentPixels, e.Result.TotalPixels, e.Tolerance, e.DiffPath)
}

// InvalidRegionError reports a requested region that does not overlap the surface
type InvalidRegionError struct {
	Spec      CaptureSpec
	Requested image.Rectangle
	Surface   image.Rectangle
}

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("%v: %s requested %v which does not overlap surface %v",
		ErrInvalidRegion, e.Spec, e.Requested, e.Surface)
}

func (e *InvalidRegionError) Is(target error) bool {
	return target == ErrInvalidRegion
}
