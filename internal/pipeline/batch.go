package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of documents processed at once.
// Page reading is mostly I/O bound, so a small multiple of one keeps the
// disk busy without holding many PDFs in memory.
const DefaultConcurrency = 4

// BatchProcessor runs many jobs concurrently, each through a fresh pipeline.
//
// Design decision: concurrency is bounded with errgroup.SetLimit rather
// than a hand-built worker pool. The group also carries the cancellation
// of the caller's context into every job, and its Wait gives a single
// point where the batch is known to be finished.
type BatchProcessor struct {
	// pipelineFactory builds the pipeline for one job.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of jobs running at once.
	concurrency int

	// logger receives batch start and completion records.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent jobs.
// Values below one are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor. pipelineFactory is called once
// per job so that no pipeline state is shared between documents.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// Concurrency returns the configured concurrency limit.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessBatch runs every job and returns them in input order. A failing
// job records its error in Job.Err and does not stop the others. The
// returned error is only set when ctx is cancelled.
//
// Jobs not yet started when ctx is cancelled get ctx.Err() as their
// Job.Err, so callers can report every document's outcome.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []*Job) ([]*Job, error) {
	err := bp.ProcessBatchWithCallback(ctx, jobs, nil)
	return jobs, err
}

// ProcessBatchWithCallback is ProcessBatch that also calls callback as each
// job finishes, from the goroutine that ran it. callback may run
// concurrently with itself and must synchronise any shared state.
//
// Design decision: a document failure is logged and swallowed inside the
// goroutine instead of being returned to the group. Returning it would
// cancel gctx and abort the rest of the batch, which is the wrong outcome
// for a user extracting from a folder with one corrupt PDF.
func (bp *BatchProcessor) ProcessBatchWithCallback(ctx context.Context, jobs []*Job, callback func(job *Job, index int)) error {
	bp.logger.Info("starting batch processing",
		"total_documents", len(jobs),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				job.Err = err
				return err
			}

			if err := bp.pipelineFactory().Execute(gctx, job); err != nil {
				bp.logger.Warn("document failed",
					"document", job.Name,
					"index", i+1,
					"error", err,
				)
			}
			if callback != nil {
				callback(job, i)
			}
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch processing complete",
		"total_documents", len(jobs),
		"elapsed", time.Since(startTime),
	)
	return err
}
