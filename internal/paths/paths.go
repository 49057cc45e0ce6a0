// Package paths resolves where test artifacts are written.
package paths

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jzx17/pagecheck/pkg/visual"
)

// DefaultOutputRoot is used when no output root is configured
const DefaultOutputRoot = "TestOutput"

// OutputDirs places each test's artifacts in <root>/<sanitized test name>
type OutputDirs struct {
	root string
}

var _ visual.OutputDirs = (*OutputDirs)(nil)

// NewOutputDirs creates an OutputDirs under root
func NewOutputDirs(root string) *OutputDirs {
	if root == "" {
		root = DefaultOutputRoot
	}
	return &OutputDirs{root: root}
}

// Root returns the output root
func (o *OutputDirs) Root() string {
	return o.root
}

// TestOutputDir returns the directory for testName, creating it if needed
func (o *OutputDirs) TestOutputDir(testName string) (string, error) {
	dir := filepath.Join(o.root, visual.Sanitize(testName))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory for %q: %w", testName, err)
	}
	return dir, nil
}
