package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yo-wrangle/yowrangle/internal/dataset"
	"github.com/yo-wrangle/yowrangle/internal/model"
)

// BatchProcessor handles concurrent processing of multiple dataset subsets.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-subset execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each subset.
	// We use a factory to ensure each subset gets a fresh pipeline instance.
	pipelineFactory func(subset dataset.Subset) *Pipeline

	// concurrency is the maximum number of subsets processed at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed subset reports.
	// Access is synchronized via mutex.
	results []*model.WrangleReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of subsets processed at once.
// Default is 4 if not specified: subset processing is I/O heavy, and the
// EXIF and hashing checks read every image in full.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each subset to create a fresh
// pipeline instance. This ensures that pipeline state doesn't leak between
// subsets and allows per-subset customization, e.g. a subset-specific
// export destination.
func NewBatchProcessor(pipelineFactory func(subset dataset.Subset) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     4,
		results:         make([]*model.WrangleReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs the pipeline over multiple subsets concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each subset gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns all reports collected, even for subsets that failed.
// The error return indicates whether the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, subsets []dataset.Subset) ([]*model.WrangleReport, error) {
	bp.logger.Info("starting batch processing",
		"total_subsets", len(subsets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*model.WrangleReport, len(subsets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, subset := range subsets {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("processing subset",
				"subset", subset.Name,
				"index", i+1,
				"total", len(subsets),
			)

			report := model.NewWrangleReport(subset.Name, subset.Path)

			pipeline := bp.pipelineFactory(subset)
			err := pipeline.Execute(ctx, report)

			// Store result regardless of error
			// The report contains error information if the subset failed
			bp.mu.Lock()
			bp.results[i] = report
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("subset failed",
					"subset", subset.Name,
					"error", err,
				)
				// Don't return the error to errgroup - we want the other
				// subsets to finish. The error is recorded in the report.
				return nil
			}

			bp.logger.Info("subset complete",
				"subset", subset.Name,
			)

			return nil
		})
	}

	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch processing complete",
		"total_subsets", len(subsets),
		"elapsed", elapsed,
	)

	return bp.results, err
}
