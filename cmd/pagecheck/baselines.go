package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/jzx17/pagecheck/pkg/visual"
	"github.com/spf13/cobra"
)

var (
	baselineRoot   string
	approveBrowser string
	approveTest    string
	approveID      string
)

var baselinesCmd = &cobra.Command{
	Use:   "baselines",
	Short: "Manage baseline images",
	Long: `Manage approved baseline images stored as <root>/<browser>/<test>/<id>.png.
Tests never replace an existing baseline; use approve to re-baseline explicitly.`,
}

var listBaselinesCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored baselines",
	Args:  cobra.NoArgs,
	RunE:  runListBaselines,
}

var approveBaselineCmd = &cobra.Command{
	Use:   "approve <image.png>",
	Short: "Approve an image as the baseline of a checkpoint",
	Long: `Copy an image, typically an actual capture from a failed run, over the
baseline of the given checkpoint. Any existing baseline is replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runApproveBaseline,
}

func init() {
	rootCmd.AddCommand(baselinesCmd)

	baselinesCmd.AddCommand(listBaselinesCmd)
	baselinesCmd.AddCommand(approveBaselineCmd)

	baselinesCmd.PersistentFlags().StringVar(&baselineRoot, "root", "", "Baseline root directory (default from config)")

	approveBaselineCmd.Flags().StringVar(&approveBrowser, "browser", "", "Browser name (default from config)")
	approveBaselineCmd.Flags().StringVar(&approveTest, "test", "", "Test name")
	approveBaselineCmd.Flags().StringVar(&approveID, "id", "", "Checkpoint id")
	approveBaselineCmd.MarkFlagRequired("test")
	approveBaselineCmd.MarkFlagRequired("id")
}

func openBaselineStore() (*visual.FSBaselineStore, error) {
	root := baselineRoot
	if root == "" {
		root = cfg.Visual.BaselineRoot
	}
	store, err := visual.NewFSBaselineStore(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open baseline store: %w", err)
	}
	return store, nil
}

func runListBaselines(cmd *cobra.Command, args []string) error {
	store, err := openBaselineStore()
	if err != nil {
		return err
	}

	entries, err := store.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No baselines found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BROWSER\tTEST\tID\tMODIFIED\tSIZE")
	fmt.Fprintln(w, "-------\t----\t--\t--------\t----")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Browser,
			e.Test,
			e.ID,
			e.ModTime.Format("2006-01-02 15:04:05"),
			formatBytes(e.Size),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal baselines: %d\n", len(entries))
	return nil
}

func runApproveBaseline(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	if _, err := visual.DecodePNG(data); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	browserName := approveBrowser
	if browserName == "" {
		browserName = cfg.Browser.Name
	}
	cp := visual.NewCheckpoint(approveID, approveTest, browserName)
	if err := cp.Validate(); err != nil {
		return err
	}

	store, err := openBaselineStore()
	if err != nil {
		return err
	}
	if err := store.Approve(cp.Key(), data); err != nil {
		return err
	}

	slog.Info("Baseline approved", "checkpoint", cp.String(), "source", args[0])
	fmt.Fprintf(cmd.OutOrStdout(), "Approved %s as baseline %s\n", args[0], store.Path(cp.Key()))
	return nil
}

// formatBytes formats byte count as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
