package main

import (
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jzx17/pagecheck/internal/pages"
	"github.com/jzx17/pagecheck/internal/paths"
	"github.com/jzx17/pagecheck/pkg/browser"
	"github.com/jzx17/pagecheck/pkg/retry"
	"github.com/jzx17/pagecheck/pkg/visual"
	"github.com/spf13/cobra"
)

var (
	checkTest      string
	checkID        string
	checkSelector  string
	checkRect      string
	checkTolerance float64
)

var checkCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Run one visual checkpoint against a live page",
	Long: `Open url in the configured browser, capture the page (or one element or
rectangle of it) and compare it with the stored baseline of the checkpoint.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkTest, "test", "", "Test name")
	checkCmd.Flags().StringVar(&checkID, "id", "", "Checkpoint id")
	checkCmd.Flags().StringVar(&checkSelector, "selector", "", "Capture only the element matching this selector")
	checkCmd.Flags().StringVar(&checkRect, "rect", "", "Capture only this rectangle: x,y,width,height")
	checkCmd.Flags().Float64Var(&checkTolerance, "tolerance", -1, "Allowed differing pixels in percent (default from config)")
	checkCmd.MarkFlagRequired("test")
	checkCmd.MarkFlagRequired("id")
}

func runCheck(cmd *cobra.Command, args []string) error {
	spec, err := captureSpec(checkSelector, checkRect)
	if err != nil {
		return err
	}
	policy, err := cfg.RetryPolicy()
	if err != nil {
		return err
	}

	cp := visual.NewCheckpoint(checkID, checkTest, cfg.Browser.Name)
	if checkTolerance >= 0 {
		cp = cp.WithTolerance(checkTolerance)
	}
	if err := cp.Validate(); err != nil {
		return err
	}

	store, err := visual.NewFSBaselineStore(cfg.Visual.BaselineRoot)
	if err != nil {
		return err
	}

	session, err := browser.Launch(browser.Options{
		Name:     cfg.Browser.Name,
		Headless: cfg.Browser.Headless,
		Timeout:  cfg.GetBrowserTimeout(),
		BaseURL:  cfg.Browser.BaseURL,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("Failed to close browser session", "error", err)
		}
	}()

	ctx := cmd.Context()
	executor := retry.NewRetryExecutor(retry.WithLogger(slog.Default()))
	page := pages.NewBasePage(session.Page(), executor, policy, cfg.Browser.BaseURL)
	if err := page.Navigate(ctx, args[0]); err != nil {
		return err
	}
	if spec.Kind == visual.RegionElement {
		if err := page.WaitVisible(ctx, spec.Selector); err != nil {
			return err
		}
	}

	engine := visual.NewEngine(session.Capturer(), paths.NewOutputDirs(cfg.Output.Root), store, cfg.EngineConfig())
	report, err := engine.AssertMatch(ctx, cp, spec)
	printReport(cmd, report)
	return err
}

func printReport(cmd *cobra.Command, report *visual.Report) {
	if report == nil {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Checkpoint: %s\n", report.Checkpoint)
	if report.Status != 0 {
		fmt.Fprintf(out, "Status:     %s\n", report.Status)
	}
	if report.Result != nil {
		fmt.Fprintf(out, "Difference: %.4f%% (tolerance %.4f%%)\n", report.Result.Percentage, report.Tolerance)
	}
	fmt.Fprintf(out, "Baseline:   %s\n", report.BaselinePath)
	fmt.Fprintf(out, "Actual:     %s\n", report.ActualPath)
	if report.DiffPath != "" {
		fmt.Fprintf(out, "Diff:       %s\n", report.DiffPath)
	}
	if report.Warning != "" {
		fmt.Fprintf(out, "WARNING: %s\n", report.Warning)
	}
}

// captureSpec builds the capture region from the --selector and --rect flags
func captureSpec(selector, rect string) (visual.CaptureSpec, error) {
	switch {
	case selector != "" && rect != "":
		return visual.CaptureSpec{}, fmt.Errorf("--selector and --rect are mutually exclusive")
	case selector != "":
		return visual.ElementRegion(selector), nil
	case rect != "":
		r, err := parseRect(rect)
		if err != nil {
			return visual.CaptureSpec{}, err
		}
		return visual.CropRegion(r), nil
	default:
		return visual.FullSurface(), nil
	}
}

func parseRect(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("rect %q: want x,y,width,height", s)
	}
	var n [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("rect %q: %w", s, err)
		}
		n[i] = v
	}
	if n[2] <= 0 || n[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("rect %q: width and height must be positive", s)
	}
	return image.Rect(n[0], n[1], n[0]+n[2], n[1]+n[3]), nil
}
