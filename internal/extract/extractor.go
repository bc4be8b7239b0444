package extract

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/docpointer/internal/classify"
	"github.com/nao1215/docpointer/internal/model"
	"github.com/nao1215/docpointer/internal/pattern"
)

// Extractor is the extraction orchestrator.
// It classifies each pointer once, then scans every page with the
// detector of that category. An Extractor is safe for concurrent use.
//
// Design decision: classification and detection are both injectable
// (WithClassifier, WithRegistry) and the Extractor owns neither. The
// server and the CLI build one Extractor at startup from the configured
// detector selection and share it across requests.
type Extractor struct {
	// scanner runs the registry's detectors over one page.
	scanner *Scanner

	// classify routes a pointer to a field category.
	classify func(string) model.FieldCategory

	// workers is the number of concurrent page scans.
	workers int

	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRegistry sets the detector registry.
// Pointers whose category has no detector in registry get no matches.
// A nil registry keeps the built-in detectors.
func WithRegistry(registry *pattern.Registry) Option {
	return func(e *Extractor) {
		e.scanner = NewScanner(registry)
	}
}

// WithClassifier replaces the pointer classifier.
func WithClassifier(fn func(string) model.FieldCategory) Option {
	return func(e *Extractor) {
		if fn != nil {
			e.classify = fn
		}
	}
}

// WithWorkers sets the number of concurrent page scans.
// Values below 2 keep extraction sequential.
//
// Design decision: the parallel path produces byte-identical output to
// the sequential one, so workers is a pure throughput knob and never
// changes what a client sees.
func WithWorkers(n int) Option {
	return func(e *Extractor) {
		e.workers = n
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor using the built-in detectors and classifier.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		classify: classify.Classify,
		workers:  1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.scanner == nil {
		e.scanner = NewScanner(nil)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Parallel reports whether page scans are distributed over workers.
func (e *Extractor) Parallel() bool {
	return e.workers > 1
}

// Extract answers every pointer against pages. It never fails: an empty
// page list yields empty match lists and unclassified pointers are kept
// with no matches.
func (e *Extractor) Extract(pointers []string, pages []model.Page) *model.ExtractionResponse {
	resp, _ := e.ExtractContext(context.Background(), pointers, pages) //nolint:errcheck // background context is never cancelled
	return resp
}

// ExtractContext is Extract with cancellation. The only error it returns
// is ctx.Err(); the partial response is discarded in that case.
func (e *Extractor) ExtractContext(ctx context.Context, pointers []string, pages []model.Page) (*model.ExtractionResponse, error) {
	resp := model.NewExtractionResponse(pointers)
	for i, p := range pointers {
		resp.Pointers[i].Category = e.classify(p)
	}

	var err error
	if e.Parallel() {
		err = e.scanParallel(ctx, resp, pages)
	} else {
		err = e.scanSequential(ctx, resp, pages)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("extraction complete",
		"pointers", len(pointers),
		"pages", len(pages),
		"matches", resp.MatchCount(),
		"parallel", e.Parallel(),
	)
	return resp, nil
}

// scanSequential scans pointer by pointer, page by page.
func (e *Extractor) scanSequential(ctx context.Context, resp *model.ExtractionResponse, pages []model.Page) error {
	for i := range resp.Pointers {
		if err := ctx.Err(); err != nil {
			return err
		}
		result := &resp.Pointers[i]
		if !result.Category.IsClassified() {
			continue
		}
		for _, page := range pages {
			result.Matches = append(result.Matches, e.scanner.Scan(result.Category, page)...)
		}
	}
	return nil
}

// scanParallel fills one slot per (pointer, page) pair and concatenates
// the slots afterwards, so completion order never affects output order.
func (e *Extractor) scanParallel(ctx context.Context, resp *model.ExtractionResponse, pages []model.Page) error {
	slots := make([][][]model.Match, len(resp.Pointers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range resp.Pointers {
		category := resp.Pointers[i].Category
		if !category.IsClassified() {
			continue
		}
		slots[i] = make([][]model.Match, len(pages))
		for j, page := range pages {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				slots[i][j] = e.scanner.Scan(category, page)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, perPage := range slots {
		for _, matches := range perPage {
			resp.Pointers[i].Matches = append(resp.Pointers[i].Matches, matches...)
		}
	}
	return nil
}

// Extract answers pointers against pages with a sequential default Extractor.
func Extract(pointers []string, pages []model.Page) *model.ExtractionResponse {
	return defaultExtractor.Extract(pointers, pages)
}

// defaultExtractor backs the package-level Extract.
var defaultExtractor = New()
