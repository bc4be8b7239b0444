package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nao1215/docpointer/internal/document"
	"github.com/nao1215/docpointer/internal/extract"
	applog "github.com/nao1215/docpointer/internal/log"
)

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	factory := func() *Pipeline { return New() }

	if bp := NewBatchProcessor(factory); bp.Concurrency() != DefaultConcurrency {
		t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.Concurrency())
	}
	if bp := NewBatchProcessor(factory, WithConcurrency(5)); bp.Concurrency() != 5 {
		t.Errorf("expected concurrency 5, got %d", bp.Concurrency())
	}
	if bp := NewBatchProcessor(factory, WithConcurrency(0)); bp.Concurrency() != DefaultConcurrency {
		t.Errorf("expected default concurrency, got %d", bp.Concurrency())
	}
	if bp := NewBatchProcessor(factory, WithBatchLogger(nil)); bp.logger == nil {
		t.Error("expected non-nil logger")
	}
}

// TestBatchProcessorProcessBatch tests concurrent document processing.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("keeps input order and isolates failures", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		var jobs []*Job
		for i := range 6 {
			name := fmt.Sprintf("doc%d.txt", i)
			if i == 3 {
				name = "doc3.docx"
			}
			path := filepath.Join(dir, name)
			content := fmt.Sprintf("Contact: user%d@example.com", i)
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatalf("failed to write file: %v", err)
			}
			jobs = append(jobs, NewFileJob(path, []string{"email"}))
		}

		factory := func() *Pipeline {
			return Build(Deps{
				Pages:     document.NewDefaultRegistry(),
				Extractor: extract.New(),
				Logger:    applog.Discard(),
			})
		}
		bp := NewBatchProcessor(factory, WithConcurrency(3), WithBatchLogger(applog.Discard()))

		results, err := bp.ProcessBatch(context.Background(), jobs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != len(jobs) {
			t.Fatalf("expected %d results, got %d", len(jobs), len(results))
		}
		for i, job := range results {
			if i == 3 {
				if !errors.Is(job.Err, document.ErrUnsupportedFormat) {
					t.Errorf("job 3: expected ErrUnsupportedFormat, got %v", job.Err)
				}
				continue
			}
			if job.Err != nil {
				t.Errorf("job %d: unexpected error %v", i, job.Err)
				continue
			}
			want := fmt.Sprintf("user%d@example.com", i)
			if got := job.Report.Response.Pointers[0].Matches[0].Snippet; got != want {
				t.Errorf("job %d: expected %s, got %s", i, want, got)
			}
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var current, peak atomic.Int32
		factory := func() *Pipeline {
			p := New(WithLogger(applog.Discard()))
			p.AddStep(&mockStep{name: "track", doFunc: func(context.Context, *Job) error {
				n := current.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				current.Add(-1)
				return nil
			}})
			return p
		}

		jobs := make([]*Job, 20)
		for i := range jobs {
			jobs[i] = NewFileJob(fmt.Sprintf("%d.txt", i), nil)
		}
		bp := NewBatchProcessor(factory, WithConcurrency(2), WithBatchLogger(applog.Discard()))
		if _, err := bp.ProcessBatch(context.Background(), jobs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak.Load() > 2 {
			t.Errorf("expected at most 2 concurrent jobs, got %d", peak.Load())
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		jobs := []*Job{NewFileJob("a.txt", nil), NewFileJob("b.txt", nil)}
		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithBatchLogger(applog.Discard()))
		if _, err := bp.ProcessBatch(ctx, jobs); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		for i, job := range jobs {
			if !errors.Is(job.Err, context.Canceled) {
				t.Errorf("job %d: expected context.Canceled, got %v", i, job.Err)
			}
		}
	})
}

// TestProcessBatchWithCallback tests per-job callbacks.
func TestProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	jobs := make([]*Job, 5)
	for i := range jobs {
		jobs[i] = NewFileJob(fmt.Sprintf("%d.txt", i), nil)
	}

	var (
		mu   sync.Mutex
		seen = make(map[int]bool)
	)
	bp := NewBatchProcessor(func() *Pipeline { return New(WithLogger(applog.Discard())) }, WithBatchLogger(applog.Discard()))
	err := bp.ProcessBatchWithCallback(context.Background(), jobs, func(job *Job, index int) {
		mu.Lock()
		defer mu.Unlock()
		if jobs[index] != job {
			t.Errorf("callback index %d does not match job", index)
		}
		seen[index] = true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != len(jobs) {
		t.Errorf("expected %d callbacks, got %d", len(jobs), len(seen))
	}
}
