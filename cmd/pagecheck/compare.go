package main

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jzx17/pagecheck/pkg/visual"
	"github.com/spf13/cobra"
)

var (
	compareTolerance float64
	compareDiffPath  string
)

var compareCmd = &cobra.Command{
	Use:   "compare <actual.png> <baseline.png>",
	Short: "Compare two PNG images",
	Long: `Compare two PNG images pixel by pixel. The command fails when the share of
differing pixels exceeds the tolerance or the images differ in size.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().Float64Var(&compareTolerance, "tolerance", -1, "Allowed differing pixels in percent (default from config)")
	compareCmd.Flags().StringVar(&compareDiffPath, "diff", "", "Write a diff mask here when the images differ")
}

func runCompare(cmd *cobra.Command, args []string) error {
	tolerance := compareTolerance
	if tolerance < 0 {
		tolerance = cfg.Visual.DefaultTolerancePercent
	}
	if tolerance > 100 {
		return fmt.Errorf("tolerance must be within 0..100, got %g", tolerance)
	}

	actual, err := readPNG(args[0])
	if err != nil {
		return err
	}
	baseline, err := readPNG(args[1])
	if err != nil {
		return err
	}

	result, err := visual.Compare(actual, baseline)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Different pixels: %d of %d (%.4f%%)\n", result.DifferentPixels, result.TotalPixels, result.Percentage)
	fmt.Fprintf(out, "Tolerance:        %.4f%%\n", tolerance)

	if result.DifferentPixels > 0 && compareDiffPath != "" {
		if err := writeDiff(compareDiffPath, actual, baseline); err != nil {
			return err
		}
		fmt.Fprintf(out, "Diff written to %s\n", compareDiffPath)
	}

	if result.Exceeds(tolerance) {
		return fmt.Errorf("images differ by %g%%, tolerance %g%%", result.Percentage, tolerance)
	}
	fmt.Fprintln(out, "Images match.")
	return nil
}

func writeDiff(path string, actual, baseline image.Image) error {
	mask, err := visual.DiffMask(actual, baseline)
	if err != nil {
		return err
	}
	data, err := visual.EncodePNG(mask)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create diff directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write diff: %w", err)
	}
	slog.Debug("Diff written", "path", path)
	return nil
}

func readPNG(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	img, err := visual.DecodePNG(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}
