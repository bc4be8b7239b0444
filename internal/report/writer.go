package report

import (
	"io"

	"github.com/nao1215/docpointer/internal/model"
)

// Writer renders extraction reports.
// Implementations write one report per call in their own format.
//
// Design decision: Writer takes a whole report rather than exposing
// io.Writer, so each format controls its own framing. The JSON writers
// emit one value per report and the text writer one block per report.
// A workbook cannot be concatenated, so XLSXWriter also offers
// WriteReports for batches.
type Writer interface {
	// Write renders the report and returns the number of bytes written.
	// A nil Response is rendered as a report with no pointers.
	Write(report *model.ExtractionReport) (int, error)
}

// MultiWriter renders a report with several Writers in turn, for example
// a JSON file and the text report on the terminal ('extract --tee').
//
// Design decision: this is a separate type rather than io.MultiWriter
// because the writers below it render different formats. io.MultiWriter
// would copy one rendering to every destination.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the report with every writer and returns the byte total.
// It stops at the first error.
func (m *MultiWriter) Write(report *model.ExtractionReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteAll renders each report in order with w, stopping at the first error.
// It returns the bytes written up to and including the failing report.
func WriteAll(w Writer, reports []*model.ExtractionReport) (int, error) {
	var total int
	for _, r := range reports {
		n, err := w.Write(r)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds the destination shared by every writer.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// truncateString shortens s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
