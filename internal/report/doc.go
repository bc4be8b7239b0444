// Package report renders extraction reports.
//
// Writers:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: the HTTP wire shape, {"pointers":[...]}
//   - FullJSONWriter: wire shape plus document metadata and a summary
//   - MarkdownWriter: GitHub-flavored Markdown with a mermaid chart
//   - XLSXWriter: an Excel workbook, one row per match
//
// All writers implement Writer and can be combined with MultiWriter.
package report
