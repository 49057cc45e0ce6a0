package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jzx17/pagecheck/internal/batch"
	"github.com/spf13/cobra"
)

var (
	compareDirTolerance float64
	compareDirDiffDir   string
	compareDirWorkers   int
)

var compareDirCmd = &cobra.Command{
	Use:   "compare-dir <actual-dir> <baseline-dir>",
	Short: "Compare every PNG in a directory with its baseline",
	Long: `Compare each PNG under actual-dir with the file at the same relative path
under baseline-dir, using several workers. Fails if any pair fails.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompareDir,
}

func init() {
	rootCmd.AddCommand(compareDirCmd)

	compareDirCmd.Flags().Float64Var(&compareDirTolerance, "tolerance", -1, "Allowed differing pixels in percent (default from config)")
	compareDirCmd.Flags().StringVar(&compareDirDiffDir, "diff-dir", "", "Write diff masks for failing pairs here")
	compareDirCmd.Flags().IntVar(&compareDirWorkers, "workers", 4, "Number of concurrent comparisons")
}

func runCompareDir(cmd *cobra.Command, args []string) error {
	tolerance := compareDirTolerance
	if tolerance < 0 {
		tolerance = cfg.Visual.DefaultTolerancePercent
	}

	summary, err := batch.CompareDirs(cmd.Context(), args[0], args[1], batch.Options{
		Tolerance: tolerance,
		DiffDir:   compareDirDiffDir,
		Workers:   compareDirWorkers,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(summary.Pairs) == 0 {
		fmt.Fprintln(out, "No images found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IMAGE\tRESULT\tDIFFERENCE\tDETAIL")
	fmt.Fprintln(w, "-----\t------\t----------\t------")
	for _, p := range summary.Pairs {
		result, detail := "PASS", ""
		if !p.Passed() {
			result, detail = "FAIL", p.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%.4f%%\t%s\n", p.Name, result, p.Result.Percentage, detail)
	}
	w.Flush()

	fmt.Fprintf(out, "\nCompared %d image(s), %d failed.\n", len(summary.Pairs), summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d image(s) failed", summary.Failed, len(summary.Pairs))
	}
	return nil
}
