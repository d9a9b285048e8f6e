package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/overlap/internal/logging"
	"github.com/ppiankov/overlap/internal/model"
	"github.com/ppiankov/overlap/internal/pipeline"
)

// Analyzer defines the interface for analyzing one claim source
type Analyzer interface {
	AnalyzeSource(ctx context.Context, source string) (*pipeline.AnalysisResult, error)
}

// AnalyzeJob analyzes one source. Each job builds its own fabric.
type AnalyzeJob struct {
	Index    int
	Source   string
	Analyzer Analyzer
	Limiter  *Limiter
}

// Execute executes the analysis job
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	result := &AnalyzeResult{Index: j.Index, Source: j.Source}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Source); err != nil {
			result.Error = fmt.Errorf("rate limit: %w", err)
			return result
		}
	}

	analysis, err := j.Analyzer.AnalyzeSource(ctx, j.Source)
	if err != nil {
		result.Error = err
		return result
	}

	result.Report = analysis.Report
	result.Cached = analysis.Cached
	return result
}

// AnalyzeResult represents the result of an analysis job
type AnalyzeResult struct {
	Index  int
	Source string
	Report *model.Report
	Cached bool
	Error  error
}

// GetError returns the error from the analysis result
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple sources concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
	logger      *zap.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int, rates model.RateLimitingConfig, logger *zap.Logger) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		limiter:     NewLimiterFromConfig(rates),
		logger:      logging.OrNop(logger),
	}
}

// ProcessSources analyzes every source and returns one result per source, in
// input order. Sources that produced no result before ctx ended carry ctx's error.
func (b *BatchProcessor) ProcessSources(ctx context.Context, sources []string) []*AnalyzeResult {
	if len(sources) == 0 {
		return []*AnalyzeResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	jobs := make([]Job, len(sources))
	for i, source := range sources {
		jobs[i] = &AnalyzeJob{
			Index:    i,
			Source:   source,
			Analyzer: b.analyzer,
			Limiter:  b.limiter,
		}
	}

	results := make([]*AnalyzeResult, len(sources))
	for _, r := range pool.Collect(jobs) {
		res := r.(*AnalyzeResult)
		results[res.Index] = res
	}

	for i, res := range results {
		if res != nil {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		results[i] = &AnalyzeResult{Index: i, Source: sources[i], Error: fmt.Errorf("no result: %w", err)}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })

	for _, res := range results {
		if res.Error != nil {
			b.logger.Warn("Analysis failed", zap.String("source", res.Source), zap.Error(res.Error))
		} else {
			b.logger.Debug("Analysis done", zap.String("source", res.Source), zap.Bool("cached", res.Cached))
		}
	}

	return results
}

// ProcessFile reads sources from a list file and analyzes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalyzeResult, error) {
	sources, err := ReadSourcesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	return b.ProcessSources(ctx, sources), nil
}

// ReadSourcesFromFile reads one source (path or URL) per line, skipping blank
// lines and "#" comments and dropping duplicates
func ReadSourcesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return sources, nil
}
