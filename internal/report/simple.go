package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/docpointer/internal/model"
)

// SimpleWriter outputs plain-text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty lists pointers that produced no matches.
	showEmpty bool

	// verbose adds the rationale under each match.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to list pointers without matches.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.ExtractionReport) (int, error) {
	var sb strings.Builder

	summary := report.Summary()
	w.writeHeader(&sb, report)
	w.writeSummary(&sb, summary)
	w.writePointers(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func rule(sb *strings.Builder, c string) {
	sb.WriteString(strings.Repeat(c, 70))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ExtractionReport) {
	sb.WriteString("\n")
	rule(sb, "=")
	sb.WriteString("                        DOCPOINTER REPORT\n")
	rule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Document:       %s\n", report.Document)
	if report.StoredName != "" {
		fmt.Fprintf(sb, "Stored As:      %s\n", report.StoredName)
	}
	fmt.Fprintf(sb, "Extracted:      %s\n", report.ExtractedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Pages:          %d\n", report.PageCount)
	if w.verbose {
		fmt.Fprintf(sb, "Duration:       %s\n", report.Duration)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, summary model.Summary) {
	rule(sb, "-")
	sb.WriteString("MATCH SUMMARY\n")
	rule(sb, "-")
	sb.WriteString("\n")

	for _, c := range model.Categories {
		fmt.Fprintf(sb, "  %-16s %d\n", strings.ToUpper(c.Label())+":", summary.ByCategory[c])
	}
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:           %d matches for %d pointers\n", summary.Matches, summary.Pointers)
	if summary.Unclassified > 0 {
		fmt.Fprintf(sb, "  UNCLASSIFIED:    %d pointers\n", summary.Unclassified)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePointers(sb *strings.Builder, report *model.ExtractionReport) {
	if report.Response == nil || len(report.Response.Pointers) == 0 {
		return
	}

	rule(sb, "-")
	sb.WriteString("POINTERS\n")
	rule(sb, "-")
	sb.WriteString("\n")

	for _, p := range report.Response.Pointers {
		if len(p.Matches) == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "[%s] %q\n", p.Category, p.Query)
		if len(p.Matches) == 0 {
			sb.WriteString("  No matches\n\n")
			continue
		}
		for _, m := range p.Matches {
			fmt.Fprintf(sb, "  * p.%d  %s\n", m.Page, m.Snippet)
			if w.verbose {
				fmt.Fprintf(sb, "          %s\n", m.Rationale)
			}
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	rule(sb, "=")
	sb.WriteString("Report generated by docpointer\n")
	sb.WriteString("https://github.com/nao1215/docpointer\n")
	rule(sb, "=")
}
