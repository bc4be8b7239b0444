package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Step is one stage of document processing.
// Steps run in sequence and each one sees the Job as the previous
// steps left it: StoreStep sets Path, ReadStep sets Pages, ExtractStep
// fills the Report.
//
// Design decision: Step is an interface rather than a function type so
// that a step can carry its collaborators (store, page reader, extractor,
// history database) and still report a stable Name() for logs and for
// Job.PerformedSteps.
type Step interface {
	// Do runs the step against job. Non-critical problems are logged and
	// nil is returned; a returned error stops the pipeline unless
	// continue-on-error is set.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline runs Steps in order against a Job.
// A Pipeline holds no per-job state, so one Pipeline may execute many
// jobs, but BatchProcessor builds one per job to keep steps independent.
type Pipeline struct {
	// steps is the ordered list of steps to execute.
	steps []Step

	// logger receives one record per step with its duration.
	logger *slog.Logger

	// continueOnError keeps later steps running after a failure.
	// When false the pipeline stops at the first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
// This follows the functional options pattern used across the module.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps running later steps after one fails.
// The failure is still recorded in Job.Err.
//
// Design decision: the default is to stop, since every extraction step
// depends on the output of the one before it (no pages means nothing to
// extract). The option exists for pipelines whose trailing steps are
// independent, such as persisting a partial report for later inspection.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// The pipeline starts empty; add steps with AddStep or AddSteps, or use
// Build for the standard extraction sequence.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step in order, checking for cancellation between
// steps. The failing step's error is recorded in job.Err and each
// completed step's duration in job.StepTimes.
//
// Cancellation is only observed between steps. A step that blocks must
// watch ctx itself; ReadStep and ExtractStep both do.
//
// Design decision: Execute returns the error as well as recording it on
// the job. Single-job callers such as the HTTP handler check the return
// value, while BatchProcessor ignores it and inspects each Job so that
// one failed document does not hide the others.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	for _, step := range p.steps {
		name := step.Name()
		if err := ctx.Err(); err != nil {
			p.logger.Warn("extraction cancelled",
				"step", name,
				"document", job.Name,
				"reason", err,
			)
			job.Err = err
			return err
		}

		start := time.Now()
		err := step.Do(ctx, job)
		elapsed := time.Since(start)
		if err != nil {
			p.logger.Error("step failed",
				"step", name,
				"document", job.Name,
				"elapsed", elapsed,
				"error", err,
			)
			job.Err = err
			if !p.continueOnError {
				return err
			}
		} else {
			p.logger.Debug("step done",
				"step", name,
				"document", job.Name,
				"elapsed", elapsed,
			)
		}
		job.recordStep(name, elapsed)
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
