package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/docpointer/internal/model"
)

// JSONWriter writes the extraction response in its wire shape:
// {"pointers":[{"query":...,"matches":[...]}]}. This is the body the HTTP
// API returns, so clients can consume CLI output unchanged.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables indented output with the given prefix and indent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report's response in wire shape.
func (w *JSONWriter) Write(report *model.ExtractionReport) (int, error) {
	resp := report.Response
	if resp == nil {
		resp = &model.ExtractionResponse{Pointers: []model.PointerResult{}}
	}
	return w.writeJSON(resp)
}

// writeJSON encodes v followed by a newline, so several reports form a
// stream that json.Decoder can read back.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}

// JSONReport wraps a report with the generating version and its summary.
//
// Design decision: the wire shape stays untouched inside Report.Response,
// so a consumer of 'extract --json --full' reads the same pointer list
// as an HTTP client and finds the metadata beside it, not mixed in.
type JSONReport struct {
	Version string                  `json:"version"`
	Report  *model.ExtractionReport `json:"report"`
	Summary model.Summary           `json:"summary"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(report *model.ExtractionReport, version string) *JSONReport {
	return &JSONReport{
		Version: version,
		Report:  report,
		Summary: report.Summary(),
	}
}

// FullJSONWriter outputs reports with document metadata and a summary.
// It is used whenever several documents share one output, since the bare
// wire shape does not name its document.
type FullJSONWriter struct {
	*JSONWriter
	version string
}

// NewFullJSONWriter creates a writer for complete reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the full report wrapped with metadata.
func (w *FullJSONWriter) Write(report *model.ExtractionReport) (int, error) {
	return w.writeJSON(NewJSONReport(report, w.version))
}
