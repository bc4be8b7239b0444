package pipeline

import (
	"errors"
	"io"
	"path/filepath"
	"time"

	"github.com/nao1215/docpointer/internal/model"
	"github.com/nao1215/docpointer/internal/storage"
)

var (
	// ErrNoUpload is returned by StoreStep when the job carries no upload body.
	ErrNoUpload = errors.New("job has no upload to store")

	// ErrNoDocument is returned when a step needs a document path and the
	// job has none.
	ErrNoDocument = errors.New("job has no document path")
)

// Job is one document moving through a Pipeline. Steps fill in Path,
// Stored, Pages and Report as they run.
//
// A Job is owned by one goroutine at a time. BatchProcessor hands each
// job to exactly one worker and only reads it back after the batch ends.
//
// Design decision: the job carries both the upload reader and the local
// path so the same step list serves the HTTP API (upload, then store)
// and the CLI (a file already on disk). StoreStep and DigestStep each
// skip the case they do not handle.
type Job struct {
	// Name is the client-facing document name.
	Name string

	// Path is the local document path. Set by the caller for local files
	// or by StoreStep for uploads.
	Path string

	// Upload is the upload body consumed by StoreStep.
	Upload io.Reader

	// Pointers are the queries to answer, in order.
	Pointers []string

	// Stored describes the stored upload, if any.
	Stored *storage.StoredDocument

	// Pages are the document pages once read.
	Pages []model.Page

	// Report accumulates the result. It is created with the job so a
	// failed job still has a document name to report.
	Report *model.ExtractionReport

	// Started is when the job was created.
	Started time.Time

	// Err is the last step error, if any.
	Err error

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string

	// StepTimes holds how long each performed step took.
	StepTimes map[string]time.Duration
}

// recordStep notes that a step ran and how long it took.
func (j *Job) recordStep(name string, elapsed time.Duration) {
	j.PerformedSteps = append(j.PerformedSteps, name)
	if j.StepTimes == nil {
		j.StepTimes = make(map[string]time.Duration)
	}
	j.StepTimes[name] = elapsed
}

func newJob(name, path string, upload io.Reader, pointers []string) *Job {
	return &Job{
		Name:     name,
		Path:     path,
		Upload:   upload,
		Pointers: pointers,
		Report:   model.NewExtractionReport(name),
		Started:  time.Now(),
	}
}

// NewFileJob creates a job for a document already on disk.
func NewFileJob(path string, pointers []string) *Job {
	return newJob(filepath.Base(path), path, nil, pointers)
}

// NewUploadJob creates a job for an upload that StoreStep will persist.
func NewUploadJob(name string, upload io.Reader, pointers []string) *Job {
	return newJob(name, "", upload, pointers)
}

// Failed reports whether any step failed.
// With continue-on-error a job can be Failed and still hold a Report.
func (j *Job) Failed() bool {
	return j.Err != nil
}
