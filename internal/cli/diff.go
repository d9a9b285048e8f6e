package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/overlap/internal/fabric"
	"github.com/ppiankov/overlap/internal/pipeline"
)

var diffContext int

// diffCmd represents the diff command
var diffCmd = &cobra.Command{
	Use:   "diff <a> <b>",
	Short: "Compare the occupancy grids of two claim lists",
	Long: `Diff analyzes two claim sources and prints a unified diff of their
occupancy grids, drawn over the box covering both fabrics.

Grid cells: "." unclaimed, "o" claimed once, "X" contested.

Example:
  overlap diff before.txt after.txt
  overlap diff day3.txt https://example.com/day3.txt --context 1`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().IntVar(&diffContext, "context", 3, "lines of context around each change")
	diffCmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "skip malformed lines instead of failing")
	diffCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "timeout for loading each source")
}

func runDiff(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	applyFlags(cmd.Flags(), cfg, "timeout")
	// Both fabrics are needed, a cached report has none
	cfg.Cache.Enabled = false

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.HTTP.Timeout)
	defer cancel()

	p := pipeline.NewPipeline(cfg, logger)

	a, err := p.AnalyzeSource(ctx, args[0])
	if err != nil {
		return fmt.Errorf("analyze %s: %w", args[0], err)
	}
	b, err := p.AnalyzeSource(ctx, args[1])
	if err != nil {
		return fmt.Errorf("analyze %s: %w", args[1], err)
	}

	return writeGridDiff(cmd.OutOrStdout(), args[0], args[1], a, b, diffContext, cfg.Fabric.MaxGridCells)
}

// writeGridDiff prints the unified grid diff of two analyses followed by the
// change in contested squares
func writeGridDiff(w io.Writer, nameA, nameB string, a, b *pipeline.AnalysisResult, contextLines, maxCells int) error {
	gridA, gridB, err := renderPair(a.Fabric, b.Fabric, maxCells)
	if err != nil {
		return err
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(gridA),
		B:        difflib.SplitLines(gridB),
		FromFile: nameA,
		ToFile:   nameB,
		Context:  contextLines,
	})
	if err != nil {
		return fmt.Errorf("diff grids: %w", err)
	}

	if diff == "" {
		fmt.Fprintln(w, "Grids are identical")
	} else {
		fmt.Fprint(w, diff)
	}

	before, after := a.Report.OverlappingSquares, b.Report.OverlappingSquares
	fmt.Fprintf(w, "\nOverlapping squares: %d -> %d (%+d)\n", before, after, after-before)
	fmt.Fprintf(w, "Intact claims:       %d -> %d\n", len(a.Report.IntactClaims), len(b.Report.IntactClaims))

	return nil
}

// renderPair draws both fabrics over the same region so rows line up
func renderPair(a, b *fabric.Fabric, maxCells int) (string, string, error) {
	lo, hi, ok := fabric.UnionBounds(a, b)
	if !ok {
		return "", "", nil
	}

	gridA, err := a.RenderRegion(lo, hi, maxCells)
	if err != nil {
		return "", "", fmt.Errorf("render grid: %w", err)
	}
	gridB, err := b.RenderRegion(lo, hi, maxCells)
	if err != nil {
		return "", "", fmt.Errorf("render grid: %w", err)
	}
	return gridA, gridB, nil
}
