package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ppiankov/overlap/internal/model"
	"github.com/ppiankov/overlap/internal/pipeline"
)

var (
	outJSON     string
	outMD       string
	outGrid     string
	timeout     time.Duration
	maxBytes    int64
	workers     int
	maxWidth    int
	maxHeight   int
	maxCells    int
	skipInvalid bool
	noCache     bool
	noFooter    bool
	httpProxy   string
	httpsProxy  string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <source>",
	Short: "Analyze one claim list and report contested squares",
	Long: `Scan reads a claim list and:
- Parses one claim per line ("#id @ x,y: wxh")
- Validates ids, geometry and fabric bounds
- Claims every square on a shared fabric
- Counts squares covered by two or more claims
- Lists the claims that overlap no other claim

The source is a file path, "-" for stdin, or an http(s) URL.

Example:
  overlap scan claims.txt
  overlap scan claims.txt --json report.json --md report.md
  overlap scan claims.txt --grid - --workers 4
  cat claims.txt | overlap scan - --skip-invalid`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	// Output flags
	scanCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	scanCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	scanCmd.Flags().StringVar(&outGrid, "grid", "", `output occupancy grid path, "-" for stdout (optional)`)
	scanCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Analysis flags
	scanCmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "skip malformed lines instead of failing")
	scanCmd.Flags().IntVar(&workers, "workers", 1, "shards used to claim the fabric in parallel")
	scanCmd.Flags().IntVar(&maxWidth, "max-width", 0, "fabric width for bounds checks (0 = unbounded)")
	scanCmd.Flags().IntVar(&maxHeight, "max-height", 0, "fabric height for bounds checks (0 = unbounded)")
	scanCmd.Flags().IntVar(&maxCells, "max-cells", 10_000_000, "refuse claim sets whose summed area exceeds this (0 = unlimited)")
	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable report cache")

	// Loading flags
	scanCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall scan timeout")
	scanCmd.Flags().Int64Var(&maxBytes, "max-bytes", 10_000_000, "max input bytes to read")
	scanCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	scanCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// applyFlags overlays the flags the user actually set on cfg. timeoutFlag
// names the flag holding the per-source load timeout.
func applyFlags(flags *pflag.FlagSet, cfg *model.Config, timeoutFlag string) {
	set := func(name string, apply func()) {
		if f := flags.Lookup(name); f != nil && f.Changed {
			apply()
		}
	}

	set(timeoutFlag, func() { cfg.HTTP.Timeout = timeout })
	set("max-bytes", func() { cfg.HTTP.MaxBodyBytes = maxBytes })
	set("http-proxy", func() { cfg.HTTP.HTTPProxy = httpProxy })
	set("https-proxy", func() { cfg.HTTP.HTTPSProxy = httpsProxy })
	set("skip-invalid", func() { cfg.Parse.SkipInvalid = skipInvalid })
	set("workers", func() { cfg.Fabric.Workers = workers })
	set("max-width", func() { cfg.Fabric.MaxWidth = maxWidth })
	set("max-height", func() { cfg.Fabric.MaxHeight = maxHeight })
	set("max-cells", func() { cfg.Fabric.MaxCells = maxCells })
	set("no-cache", func() { cfg.Cache.Enabled = !noCache })
	set("no-footer", func() { cfg.Output.IncludeFooter = !noFooter })
	set("concurrency", func() { cfg.Concurrency.Workers = concurrency })
}

func runScan(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	applyFlags(cmd.Flags(), cfg, "timeout")
	cfg.Output.Verbose = verbose

	// A cached report has no fabric to draw
	if outGrid != "" {
		cfg.Cache.Enabled = false
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.HTTP.Timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning: %s\n", source)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", cfg.HTTP.Timeout)
		fmt.Fprintf(os.Stderr, "Workers: %d\n", cfg.Fabric.Workers)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg, logger)

	result, err := p.AnalyzeSource(ctx, source)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if verbose {
		report := result.Report
		if result.Cached {
			fmt.Fprintf(os.Stderr, "✓ Loaded cached report\n")
		}
		fmt.Fprintf(os.Stderr, "✓ Parsed %d claims (%d lines skipped)\n", report.Claims, len(report.ParseErrors))
		fmt.Fprintf(os.Stderr, "✓ Found %d validation issues\n", len(report.Issues))
		fmt.Fprintf(os.Stderr, "✓ Claimed %d squares\n", report.ClaimedSquares)
		fmt.Fprintln(os.Stderr)
	}

	if err := p.RenderReport(result.Report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if outGrid != "" {
		if err := p.RenderGrid(result.Fabric, outGrid, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if verbose && outGrid != "-" {
			fmt.Fprintf(os.Stderr, "✓ Wrote grid: %s\n", outGrid)
		}
	}

	return nil
}
