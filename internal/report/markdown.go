package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/docpointer/internal/model"
)

// MarkdownWriter outputs reports as GitHub-flavored Markdown, with a
// mermaid pie chart of matches per category.
// Each report has a metadata table, a per-category summary with the
// chart, and one section per pointer listing its matches.
//
// The chart is drawn only when the report has matches. The alert that
// follows the summary says why a report came back empty.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ExtractionReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := report.Summary()

	w.writeHeader(md, report)
	w.writeSummary(md, summary)
	w.writePointers(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ExtractionReport) {
	md.H1("Extraction Report")
	md.PlainText("")

	rows := [][]string{
		{"Document", "`" + report.Document + "`"},
		{"Extracted", report.ExtractedAt.Format("2006-01-02 15:04:05 MST")},
		{"Pages", strconv.Itoa(report.PageCount)},
	}
	if report.StoredName != "" {
		rows = append(rows, []string{"Stored As", "`" + report.StoredName + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary model.Summary) {
	md.H2("Match Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(model.Categories)+1)
	for _, c := range model.Categories {
		rows = append(rows, []string{c.Label(), strconv.Itoa(summary.ByCategory[c])})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(summary.Matches) + "**"})
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Matches"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.Matches > 0 {
		w.writePieChart(md, summary)
	}
	w.writeAlert(md, summary)
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Matches by Category"),
		piechart.WithShowData(true),
	)
	for _, c := range model.Categories {
		if n := summary.ByCategory[c]; n > 0 {
			chart.LabelAndIntValue(c.Label(), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary model.Summary) {
	switch {
	case summary.Pointers == 0:
		md.Note("No pointers were requested.")
	case summary.Matches == 0:
		md.Warningf("None of the %d pointer(s) matched the document.", summary.Pointers)
	case summary.Unclassified > 0:
		md.Importantf("%d pointer(s) could not be classified and were not searched.", summary.Unclassified)
	case summary.Unmatched > 0:
		md.Note(strconv.Itoa(summary.Unmatched) + " pointer(s) produced no matches.")
	default:
		md.Tip("Every pointer produced at least one match.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePointers(md *markdown.Markdown, report *model.ExtractionReport) {
	md.H2("Pointers")
	md.PlainText("")

	if report.Response == nil || len(report.Response.Pointers) == 0 {
		md.PlainText("No pointers.")
		md.PlainText("")
		return
	}

	for _, p := range report.Response.Pointers {
		md.H3(p.Query + " (" + p.Category.Label() + ")")
		md.PlainText("")
		if len(p.Matches) == 0 {
			md.PlainText("No matches.")
			md.PlainText("")
			continue
		}

		rows := make([][]string, len(p.Matches))
		for i, m := range p.Matches {
			rows[i] = []string{
				strconv.Itoa(m.Page),
				truncateString(m.Snippet, 60),
				m.Rationale,
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Page", "Snippet", "Rationale"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [docpointer](https://github.com/nao1215/docpointer)*")
}
