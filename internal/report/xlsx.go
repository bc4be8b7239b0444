package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/docpointer/internal/model"
)

const (
	matchesSheet = "Matches"
	summarySheet = "Summary"
)

// XLSXWriter outputs an Excel workbook with a Matches sheet (one row per
// match, or one empty row per unmatched pointer) and a Summary sheet.
type XLSXWriter struct {
	baseWriter
}

// NewXLSXWriter creates an XLSXWriter that outputs to the given writer.
func NewXLSXWriter(output io.Writer) *XLSXWriter {
	return &XLSXWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs a workbook for a single report.
func (w *XLSXWriter) Write(report *model.ExtractionReport) (int, error) {
	return w.WriteReports([]*model.ExtractionReport{report})
}

// WriteReports outputs one workbook covering every report. Concatenated
// workbooks are not valid files, so batch output goes through here.
func (w *XLSXWriter) WriteReports(reports []*model.ExtractionReport) (int, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for _, sheet := range []string{matchesSheet, summarySheet} {
		if index, _ := f.GetSheetIndex(sheet); index == -1 {
			if _, err := f.NewSheet(sheet); err != nil {
				return 0, fmt.Errorf("failed to create sheet %s: %w", sheet, err)
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return 0, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	activeIndex, _ := f.GetSheetIndex(matchesSheet)
	f.SetActiveSheet(activeIndex)

	writeMatchesSheet(f, reports)
	writeSummarySheet(f, reports)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return 0, fmt.Errorf("failed to render workbook: %w", err)
	}
	return w.output.Write(buf.Bytes())
}

func setRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func writeMatchesSheet(f *excelize.File, reports []*model.ExtractionReport) {
	setRow(f, matchesSheet, 1, "Document", "Pointer", "Category", "Page", "Snippet", "Rationale")

	row := 2
	for _, r := range reports {
		if r.Response == nil {
			continue
		}
		for _, p := range r.Response.Pointers {
			if len(p.Matches) == 0 {
				setRow(f, matchesSheet, row, r.Document, p.Query, p.Category.String())
				row++
				continue
			}
			for _, m := range p.Matches {
				setRow(f, matchesSheet, row, r.Document, p.Query, p.Category.String(), m.Page, m.Snippet, m.Rationale)
				row++
			}
		}
	}

	_ = f.SetColWidth(matchesSheet, "A", "A", 32) // document
	_ = f.SetColWidth(matchesSheet, "B", "B", 24) // pointer
	_ = f.SetColWidth(matchesSheet, "C", "C", 16) // category
	_ = f.SetColWidth(matchesSheet, "D", "D", 6)  // page
	_ = f.SetColWidth(matchesSheet, "E", "E", 40) // snippet
	_ = f.SetColWidth(matchesSheet, "F", "F", 32) // rationale
}

func writeSummarySheet(f *excelize.File, reports []*model.ExtractionReport) {
	header := []any{"Document", "Pages", "Pointers", "Matches", "Unclassified"}
	for _, c := range model.Categories {
		header = append(header, c.Label())
	}
	setRow(f, summarySheet, 1, header...)

	for i, r := range reports {
		s := r.Summary()
		values := []any{r.Document, r.PageCount, s.Pointers, s.Matches, s.Unclassified}
		for _, c := range model.Categories {
			values = append(values, s.ByCategory[c])
		}
		setRow(f, summarySheet, i+2, values...)
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 32)
}
