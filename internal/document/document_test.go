package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/docpointer/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

// writePDF builds a PDF with one page per entry. Empty entries become
// pages with no text.
func writePDF(t *testing.T, pages ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.pdf")
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		doc.AddPage()
		if text != "" {
			doc.Cell(0, 10, text)
		}
	}
	if err := doc.OutputFileAndClose(path); err != nil {
		t.Fatalf("failed to write PDF fixture: %v", err)
	}
	return path
}

// TestTextProvider tests form-feed page splitting.
func TestTextProvider(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		content  string
		expected []model.Page
	}{
		{
			name:     "form feed pages",
			content:  "Total: $10\fContact john@x.com\f",
			expected: model.NewPages("Total: $10", "Contact john@x.com"),
		},
		{
			name:     "blank middle page kept",
			content:  "one\f\fthree",
			expected: model.NewPages("one", "", "three"),
		},
		{
			name:     "empty file is one blank page",
			content:  "",
			expected: model.NewPages(""),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := writeFile(t, "doc.txt", tc.content)
			got, err := NewTextProvider().Pages(context.Background(), path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("Pages() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("invalid utf-8 is unreadable", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "doc.txt", "\xff\xfe\xfd")
		_, err := NewTextProvider().Pages(context.Background(), path)
		if !errors.Is(err, ErrDocumentUnreadable) {
			t.Errorf("expected ErrDocumentUnreadable, got %v", err)
		}
	})

	t.Run("missing file is unreadable", func(t *testing.T) {
		t.Parallel()

		_, err := NewTextProvider().Pages(context.Background(), filepath.Join(t.TempDir(), "gone.txt"))
		if !errors.Is(err, ErrDocumentUnreadable) {
			t.Errorf("expected ErrDocumentUnreadable, got %v", err)
		}
		var ue *UnreadableError
		if !errors.As(err, &ue) {
			t.Fatalf("expected *UnreadableError, got %T", err)
		}
		if ue.Format != "text" {
			t.Errorf("expected format text, got %q", ue.Format)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected cause to wrap os.ErrNotExist, got %v", err)
		}
	})
}

// TestHTMLProvider tests visible-text extraction and CSS page breaks.
func TestHTMLProvider(t *testing.T) {
	t.Parallel()

	content := `<html><head><title>Skip me</title><style>.x{}</style></head><body>
<h1>Invoice</h1><p>Total:   $1,200.50</p>
<div style="page-break-before: always"><p>Contact <b>john@x.com</b></p></div>
<script>var a = "x@y.com";</script>
</body></html>`

	path := writeFile(t, "doc.html", content)
	got, err := NewHTMLProvider().Pages(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := model.NewPages("Invoice\nTotal: $1,200.50", "Contact john@x.com")
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Pages() mismatch (-want +got):\n%s", diff)
	}
}

// TestPageBreaks tests CSS page-break parsing.
func TestPageBreaks(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		style  string
		before bool
		after  bool
	}{
		{"", false, false},
		{"page-break-before: always", true, false},
		{"color: red; PAGE-BREAK-AFTER: ALWAYS", false, true},
		{"break-before: page; break-after: page", true, true},
		{"page-break-before: auto", false, false},
	}

	for _, tc := range testCases {
		before, after := pageBreaks(tc.style)
		if before != tc.before || after != tc.after {
			t.Errorf("pageBreaks(%q): expected (%v, %v), got (%v, %v)", tc.style, tc.before, tc.after, before, after)
		}
	}
}

// TestMarkdownProvider tests thematic-break page splitting.
func TestMarkdownProvider(t *testing.T) {
	t.Parallel()

	content := "# Invoice\n\nTotal: $1,200.50\n\n---\n\nContact: john@x.com\nPhone: 555-123-4567\n"

	path := writeFile(t, "doc.md", content)
	got, err := NewMarkdownProvider().Pages(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := model.NewPages("Invoice\nTotal: $1,200.50", "Contact: john@x.com\nPhone: 555-123-4567")
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Pages() mismatch (-want +got):\n%s", diff)
	}
}

// TestPDFProvider tests PDF page text extraction.
func TestPDFProvider(t *testing.T) {
	t.Parallel()

	t.Run("reads pages in order", func(t *testing.T) {
		t.Parallel()

		path := writePDF(t, "Invoice dated 12/05/2023", "", "Contact john@x.com")
		got, err := NewPDFProvider().Pages(context.Background(), path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 pages, got %d", len(got))
		}
		if err := model.ValidatePages(got); err != nil {
			t.Errorf("unexpected numbering: %v", err)
		}
		if !strings.Contains(got[0].Text, "12/05/2023") {
			t.Errorf("expected page 1 to contain the date, got %q", got[0].Text)
		}
		if strings.TrimSpace(got[1].Text) != "" {
			t.Errorf("expected page 2 to be blank, got %q", got[1].Text)
		}
		if !strings.Contains(got[2].Text, "john@x.com") {
			t.Errorf("expected page 3 to contain the email, got %q", got[2].Text)
		}
	})

	t.Run("corrupt file is unreadable", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "broken.pdf", "this is not a pdf")
		for _, validate := range []bool{true, false} {
			_, err := NewPDFProvider(WithPDFValidation(validate)).Pages(context.Background(), path)
			if !errors.Is(err, ErrDocumentUnreadable) {
				t.Errorf("validate=%v: expected ErrDocumentUnreadable, got %v", validate, err)
			}
		}
	})
}

// TestRegistry tests provider selection by extension.
func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry()

	testCases := []struct {
		path     string
		expected string
	}{
		{"a.pdf", "pdf"},
		{"A.PDF", "pdf"},
		{"page.htm", "html"},
		{"page.html", "html"},
		{"notes.md", "markdown"},
		{"notes.markdown", "markdown"},
		{"dump.txt", "text"},
	}
	for _, tc := range testCases {
		p, err := r.ForPath(tc.path)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tc.path, err)
		}
		if p.Name() != tc.expected {
			t.Errorf("%s: expected %s, got %s", tc.path, tc.expected, p.Name())
		}
	}

	if _, err := r.ForPath("report.docx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if r.Supported("image.png") {
		t.Error("expected png to be unsupported")
	}
	if len(r.Extensions()) != 7 {
		t.Errorf("expected 7 extensions, got %v", r.Extensions())
	}

	path := writeFile(t, "doc.txt", "Call 555-123-4567")
	pages, err := r.Pages(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 || pages[0].Text != "Call 555-123-4567" {
		t.Errorf("unexpected pages: %+v", pages)
	}
}

// TestProvidersHonourCancellation tests that a cancelled context stops reading.
func TestProvidersHonourCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := writeFile(t, "doc.txt", "text")
	for _, p := range []Provider{NewTextProvider(), NewHTMLProvider(), NewMarkdownProvider(), NewPDFProvider()} {
		if _, err := p.Pages(ctx, path); !errors.Is(err, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", p.Name(), err)
		}
	}
}
