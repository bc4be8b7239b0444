package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nao1215/docpointer/internal/model"
	"github.com/nao1215/docpointer/internal/storage"
)

// Sweeper removes expired uploads. *storage.Store implements it.
type Sweeper interface {
	Sweep(ctx context.Context) (storage.SweepStats, error)
}

// Uploader persists upload bodies. *storage.Store implements it.
type Uploader interface {
	Save(ctx context.Context, originalName string, r io.Reader) (*storage.StoredDocument, error)
}

// PageReader turns a document path into pages. *document.Registry implements it.
type PageReader interface {
	Pages(ctx context.Context, path string) ([]model.Page, error)
}

// Extractor answers pointers against pages. *extract.Extractor implements it.
type Extractor interface {
	ExtractContext(ctx context.Context, pointers []string, pages []model.Page) (*model.ExtractionResponse, error)
}

// ExtractionSaver persists reports. *database.HistoryDB implements it.
type ExtractionSaver interface {
	SaveExtraction(ctx context.Context, report *model.ExtractionReport) (int64, error)
}

// SweepStep removes expired uploads before a new one is stored. Sweep
// failures are logged and never fail the job.
//
// Design decision: sweeping on every request bounds disk usage even when
// the background schedule is disabled. The cost is one directory listing
// per upload, which is small next to reading a PDF.
type SweepStep struct {
	sweeper Sweeper
	logger  *slog.Logger
}

// NewSweepStep creates a SweepStep.
func NewSweepStep(sweeper Sweeper, logger *slog.Logger) *SweepStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SweepStep{sweeper: sweeper, logger: logger}
}

// Name returns the step name.
func (s *SweepStep) Name() string {
	return "sweep"
}

// Do runs one sweep.
func (s *SweepStep) Do(ctx context.Context, _ *Job) error {
	stats, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.logger.Warn("upload sweep failed", "error", err)
		return nil
	}
	if stats.Removed > 0 || stats.Failed > 0 {
		s.logger.Debug("upload sweep",
			"removed", stats.Removed,
			"failed", stats.Failed,
		)
	}
	return nil
}

// StoreStep saves the job's upload and points the job at the stored file.
// The stored name, digest and size are copied onto the report so the
// history records which bytes were scanned.
type StoreStep struct {
	uploader Uploader
}

// NewStoreStep creates a StoreStep.
func NewStoreStep(uploader Uploader) *StoreStep {
	return &StoreStep{uploader: uploader}
}

// Name returns the step name.
func (s *StoreStep) Name() string {
	return "store"
}

// Do stores job.Upload.
func (s *StoreStep) Do(ctx context.Context, job *Job) error {
	if job.Upload == nil {
		return ErrNoUpload
	}
	doc, err := s.uploader.Save(ctx, job.Name, job.Upload)
	if err != nil {
		return err
	}
	job.Stored = doc
	job.Path = doc.Path
	job.Report.StoredName = doc.StoredName
	job.Report.SHA3 = doc.SHA3
	job.Report.Size = doc.Size
	return nil
}

// DigestStep records the digest and size of a local document.
// It is the CLI counterpart of StoreStep: the file is hashed in place and
// never copied into the upload directory.
type DigestStep struct{}

// NewDigestStep creates a DigestStep.
func NewDigestStep() *DigestStep {
	return &DigestStep{}
}

// Name returns the step name.
func (s *DigestStep) Name() string {
	return "digest"
}

// Do hashes job.Path.
func (s *DigestStep) Do(_ context.Context, job *Job) error {
	if job.Path == "" {
		return ErrNoDocument
	}
	digest, size, err := storage.DigestFile(job.Path)
	if err != nil {
		return err
	}
	job.Report.SHA3 = digest
	job.Report.Size = size
	return nil
}

// ReadStep reads the document into pages.
type ReadStep struct {
	reader PageReader
}

// NewReadStep creates a ReadStep.
func NewReadStep(reader PageReader) *ReadStep {
	return &ReadStep{reader: reader}
}

// Name returns the step name.
func (s *ReadStep) Name() string {
	return "read"
}

// Do reads job.Path.
func (s *ReadStep) Do(ctx context.Context, job *Job) error {
	if job.Path == "" {
		return ErrNoDocument
	}
	pages, err := s.reader.Pages(ctx, job.Path)
	if err != nil {
		return err
	}
	job.Pages = pages
	job.Report.PageCount = len(pages)
	return nil
}

// ExtractStep answers the job's pointers against its pages.
// Report.Duration covers the whole job up to this point, not only the
// extraction, because that is what a caller waited for.
type ExtractStep struct {
	extractor Extractor
	now       func() time.Time
}

// NewExtractStep creates an ExtractStep.
func NewExtractStep(extractor Extractor) *ExtractStep {
	return &ExtractStep{extractor: extractor, now: time.Now}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do runs the extraction and stamps the report.
func (s *ExtractStep) Do(ctx context.Context, job *Job) error {
	resp, err := s.extractor.ExtractContext(ctx, job.Pointers, job.Pages)
	if err != nil {
		return err
	}
	now := s.now()
	job.Report.Response = resp
	job.Report.ExtractedAt = now
	job.Report.Duration = now.Sub(job.Started)
	return nil
}

// PersistStep saves the report to the history database.
// It runs last, so a failure here leaves a complete Report on the job
// and the caller decides whether the missing history entry matters.
type PersistStep struct {
	saver ExtractionSaver
}

// NewPersistStep creates a PersistStep.
func NewPersistStep(saver ExtractionSaver) *PersistStep {
	return &PersistStep{saver: saver}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do saves job.Report.
func (s *PersistStep) Do(ctx context.Context, job *Job) error {
	if _, err := s.saver.SaveExtraction(ctx, job.Report); err != nil {
		return fmt.Errorf("failed to save extraction history: %w", err)
	}
	return nil
}

// Deps are the collaborators Build wires into a pipeline.
// The small interfaces above let tests pass fakes for each one.
type Deps struct {
	// Store, when set, makes the pipeline sweep and store uploads.
	// Without it the pipeline expects local files and digests them.
	Store interface {
		Sweeper
		Uploader
	}

	// Pages reads documents. Required.
	Pages PageReader

	// Extractor answers pointers. Required.
	Extractor Extractor

	// History, when set, adds a persist step.
	History ExtractionSaver

	// Logger is passed to the pipeline and the sweep step.
	Logger *slog.Logger
}

// Build assembles the standard pipeline:
// sweep, store (or digest), read, extract, then persist.
func Build(deps Deps, opts ...Option) *Pipeline {
	if deps.Logger != nil {
		opts = append([]Option{WithLogger(deps.Logger)}, opts...)
	}
	p := New(opts...)

	if deps.Store != nil {
		p.AddSteps(NewSweepStep(deps.Store, deps.Logger), NewStoreStep(deps.Store))
	} else {
		p.AddStep(NewDigestStep())
	}
	p.AddSteps(NewReadStep(deps.Pages), NewExtractStep(deps.Extractor))
	if deps.History != nil {
		p.AddStep(NewPersistStep(deps.History))
	}
	return p
}
