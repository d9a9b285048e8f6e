package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/overlap/internal/cache"
	"github.com/ppiankov/overlap/internal/extract"
	"github.com/ppiankov/overlap/internal/fabric"
	"github.com/ppiankov/overlap/internal/logging"
	"github.com/ppiankov/overlap/internal/model"
	"github.com/ppiankov/overlap/internal/score"
	"github.com/ppiankov/overlap/internal/validate"
)

// Pipeline orchestrates the complete analysis of a claim source
type Pipeline struct {
	loader    *Loader
	extractor *extract.ClaimExtractor
	validator *validate.Validator
	scorer    *score.Scorer
	renderer  *Renderer
	cache     *cache.ReportCache // nil when caching is disabled
	logger    *zap.Logger
	config    *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, logger *zap.Logger) *Pipeline {
	logger = logging.OrNop(logger)

	var reports *cache.ReportCache
	if cfg.Cache.Enabled {
		reports = cache.NewReportCache(cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL))
	}

	return &Pipeline{
		loader:    NewLoader(cfg.HTTP, logger),
		extractor: extract.NewClaimExtractor(cfg.Parse.SkipInvalid),
		validator: validate.NewValidator(cfg.Fabric),
		scorer:    score.NewScorer(),
		renderer:  NewRenderer(cfg.Output.IncludeFooter),
		cache:     reports,
		logger:    logger,
		config:    cfg,
	}
}

// AnalysisResult contains the complete analysis
type AnalysisResult struct {
	Report *model.Report
	Fabric *fabric.Fabric // nil when the report came from the cache
	Cached bool
}

// AnalyzeSource loads source and analyzes it
func (p *Pipeline) AnalyzeSource(ctx context.Context, source string) (*AnalysisResult, error) {
	loaded, err := p.loader.Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	result, err := p.Analyze(ctx, loaded.Data)
	if err != nil {
		return nil, err
	}

	result.Report.Subject = loaded.Subject
	result.Report.Source = loaded.Source
	return result, nil
}

// Analyze parses, validates and claims the input, then scores the fabric
func (p *Pipeline) Analyze(ctx context.Context, data []byte) (*AnalysisResult, error) {
	key := p.cacheKey(data)
	if p.cache != nil {
		if report, ok := p.cache.Get(key); ok {
			p.logger.Debug("Cache hit", zap.String("key", key))
			return &AnalysisResult{Report: report, Cached: true}, nil
		}
	}

	// 1. Parse claims
	claims, skipped, err := p.extractor.Extract(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	for _, perr := range skipped {
		p.logger.Warn("Skipping invalid line", zap.Int("line", perr.Line), zap.Error(perr.Err))
	}
	p.logger.Debug("Parsed claims", zap.Int("claims", len(claims)), zap.Int("skipped", len(skipped)))

	// 2. Validate the claim set
	issues := p.validator.Validate(claims)
	for _, issue := range issues {
		if issue.Severity != model.SeverityInfo {
			p.logger.Warn("Claim issue",
				zap.String("claim", string(issue.ClaimID)),
				zap.String("kind", string(issue.Kind)),
				zap.String("message", issue.Message))
		}
	}

	// 3. Claim the fabric
	if err := fabric.CheckBudget(claims, p.config.Fabric.MaxCells); err != nil {
		return nil, err
	}
	start := time.Now()
	f, err := fabric.ClaimAllParallel(ctx, claims, p.config.Fabric.Workers)
	if err != nil {
		return nil, fmt.Errorf("build fabric: %w", err)
	}
	p.logger.Debug("Fabric claimed",
		zap.Int("claims", f.Len()),
		zap.Int("claimed_squares", f.ClaimedSquares()),
		zap.Duration("elapsed", time.Since(start)))

	// 4. Score and build the report
	report := p.buildReport(f, data, issues, skipped)

	if p.cache != nil {
		if err := p.cache.Put(key, report); err != nil {
			p.logger.Warn("Failed to cache report", zap.Error(err))
		}
	}

	return &AnalysisResult{Report: report, Fabric: f}, nil
}

func (p *Pipeline) buildReport(f *fabric.Fabric, data []byte, issues []model.ValidationIssue, skipped []*extract.ParseError) *model.Report {
	report := &model.Report{
		AnalyzedAt:         time.Now().UTC(),
		InputHash:          cache.InputHash(data),
		Claims:             f.Len(),
		OverlappingSquares: f.OverlappingSquares(),
		ClaimedSquares:     f.ClaimedSquares(),
		IntactClaims:       f.IntactClaims(),
		ConflictingClaims:  len(f.ConflictingClaims()),
		Duplicates:         f.Duplicates(),
		Issues:             issues,
		Score:              p.scorer.Calculate(f, issues, len(skipped)),
	}

	for _, perr := range skipped {
		report.ParseErrors = append(report.ParseErrors, perr.Issue())
	}

	if lo, hi, ok := f.Bounds(); ok {
		report.Bounds = &model.Bounds{Min: lo, Max: hi}
	}

	return report
}

// cacheKey covers every setting that changes the report for the same input
func (p *Pipeline) cacheKey(data []byte) string {
	return cache.Key(data,
		"skip_invalid="+strconv.FormatBool(p.config.Parse.SkipInvalid),
		"max_width="+strconv.Itoa(p.config.Fabric.MaxWidth),
		"max_height="+strconv.Itoa(p.config.Fabric.MaxHeight),
	)
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(os.Stdout, report)

	return nil
}

// RenderGrid writes the occupancy grid of f to path, or to w when path is "-"
func (p *Pipeline) RenderGrid(f *fabric.Fabric, path string, w io.Writer) error {
	grid, err := f.Render(p.config.Fabric.MaxGridCells)
	if err != nil {
		return fmt.Errorf("render grid: %w", err)
	}

	if path == "-" {
		_, err := io.WriteString(w, grid)
		return err
	}
	return p.renderer.writeFile(path, []byte(grid))
}
