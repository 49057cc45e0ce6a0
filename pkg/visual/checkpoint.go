package visual

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// DefaultTolerancePercent is used when neither the checkpoint nor the
// configuration sets a tolerance.
const DefaultTolerancePercent = 0.1

// Config binds the engine settings
type Config struct {
	// BaselineRoot is the directory holding {browser}/{test}/{id}.png baselines
	BaselineRoot string

	// AutoCreateBaselineIfMissing stores the first capture as the baseline
	AutoCreateBaselineIfMissing bool

	// WarnOnAutomaticBaselineCreation flags auto-created baselines with a warning
	WarnOnAutomaticBaselineCreation bool

	// DefaultTolerancePercent is the allowed share of differing pixels, 0..100
	DefaultTolerancePercent float64
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		BaselineRoot:                    "baselines",
		AutoCreateBaselineIfMissing:     true,
		WarnOnAutomaticBaselineCreation: true,
		DefaultTolerancePercent:         DefaultTolerancePercent,
	}
}

// Checkpoint is a named visual assertion inside a test, scoped by browser
type Checkpoint struct {
	ID          string
	TestName    string
	BrowserName string

	// Tolerance overrides Config.DefaultTolerancePercent when set
	Tolerance *float64
}

// NewCheckpoint creates a checkpoint using the configured tolerance
func NewCheckpoint(id, testName, browserName string) Checkpoint {
	return Checkpoint{ID: id, TestName: testName, BrowserName: browserName}
}

// WithTolerance returns a copy of c with a tolerance override in percent
func (c Checkpoint) WithTolerance(percent float64) Checkpoint {
	c.Tolerance = &percent
	return c
}

// Key returns the baseline identity of the checkpoint
func (c Checkpoint) Key() BaselineKey {
	return BaselineKey{Browser: c.BrowserName, Test: c.TestName, ID: c.ID}
}

// Validate checks that the checkpoint can address a baseline
func (c Checkpoint) Validate() error {
	var missing []string
	if strings.TrimSpace(c.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(c.TestName) == "" {
		missing = append(missing, "test name")
	}
	if strings.TrimSpace(c.BrowserName) == "" {
		missing = append(missing, "browser name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidCheckpoint, strings.Join(missing, ", "))
	}
	if c.Tolerance != nil {
		if err := validateTolerance(*c.Tolerance); err != nil {
			return err
		}
	}
	return nil
}

func (c Checkpoint) String() string {
	return fmt.Sprintf("%s/%s/%s", c.BrowserName, c.TestName, c.ID)
}

func validateTolerance(percent float64) error {
	if percent < 0 || percent > 100 || math.IsNaN(percent) {
		return fmt.Errorf("%w: tolerance %.4g%% outside 0..100", ErrInvalidCheckpoint, percent)
	}
	return nil
}

// RegionKind selects what part of the rendered surface is captured
type RegionKind int

const (
	// RegionFull captures the whole rendered surface
	RegionFull RegionKind = iota
	// RegionElement crops to the bounding box of a named element
	RegionElement
	// RegionRect crops to an explicit rectangle
	RegionRect
)

// String returns the string representation of the region kind
func (k RegionKind) String() string {
	switch k {
	case RegionFull:
		return "full"
	case RegionElement:
		return "element"
	case RegionRect:
		return "rect"
	default:
		return "unknown"
	}
}

// CaptureSpec describes which part of the surface a checkpoint compares
type CaptureSpec struct {
	Kind     RegionKind
	Selector string
	Rect     image.Rectangle
}

// FullSurface captures everything that is rendered
func FullSurface() CaptureSpec {
	return CaptureSpec{Kind: RegionFull}
}

// ElementRegion captures the on-screen bounding box of selector
func ElementRegion(selector string) CaptureSpec {
	return CaptureSpec{Kind: RegionElement, Selector: selector}
}

// CropRegion captures rect
func CropRegion(rect image.Rectangle) CaptureSpec {
	return CaptureSpec{Kind: RegionRect, Rect: rect.Canon()}
}

func (s CaptureSpec) String() string {
	switch s.Kind {
	case RegionElement:
		return fmt.Sprintf("element(%s)", s.Selector)
	case RegionRect:
		return fmt.Sprintf("rect%v", s.Rect)
	default:
		return s.Kind.String()
	}
}
