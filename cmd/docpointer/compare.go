package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/docpointer/internal/database"
	"github.com/nao1215/docpointer/internal/model"
)

// compareDateLayout formats timestamps in comparisons.
const compareDateLayout = "2006-01-02 15:04:05"

// NewCompareCmd creates the compare command.
// It compares stored extractions of the same document.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <document>",
		Short: "Compare stored extractions of a document",
		Long: `Compare shows how the matches for a document changed between two stored
extractions:
- New matches that appear only in the newer extraction
- Resolved matches that appear only in the older extraction
- Whether the document content itself changed (SHA3-256 digest)

Matches are compared by pointer, snippet and page. The comparison needs at
least two extractions recorded with --save.

Examples:
  # Compare the latest two extractions of a document
  docpointer compare contract.pdf

  # Compare the latest extraction with a specific one
  docpointer compare --with-id 5 contract.pdf

  # List stored extractions of the document
  docpointer compare --list contract.pdf

  # Output the comparison as JSON
  docpointer compare --json contract.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List stored extractions of the document")
	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare with a specific extraction by ID (use --list to see available IDs)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the comparison in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the comparison in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	documentName := args[0]

	listOnly, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	withID, err := cmd.Flags().GetInt64("with-id")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("conflicting output formats: choose one of --json, --markdown")
	}

	db, err := openExistingHistory(cmd)
	if err != nil {
		return err
	}
	if db == nil {
		return errors.New("no extraction history found (use 'docpointer extract --save' first)")
	}
	defer db.Close()

	ctx := context.Background()
	list, err := db.ListExtractions(ctx, database.ListOptions{Document: documentName})
	if err != nil {
		return fmt.Errorf("failed to list extractions: %w", err)
	}

	out := cmd.OutOrStdout()
	if listOnly {
		printHistory(out, list)
		return nil
	}

	result, err := compareStored(ctx, db, documentName, list, withID)
	if err != nil {
		return err
	}

	switch {
	case jsonOutput:
		return outputComparisonJSON(out, result)
	case markdownOutput:
		return outputComparisonMarkdown(out, result)
	default:
		outputComparisonText(out, result)
		return nil
	}
}

// compareStored loads the two extractions to compare. list is the
// document's history, newest first.
func compareStored(ctx context.Context, db *database.HistoryDB, documentName string, list []database.ExtractionMetadata, withID int64) (*ComparisonResult, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("no extractions found for %s", documentName)
	}
	if len(list) < 2 && withID == 0 {
		return nil, fmt.Errorf("at least 2 extractions are required for comparison (found %d)", len(list))
	}

	current, err := db.GetExtraction(ctx, list[0].ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load extraction %d: %w", list[0].ID, err)
	}

	previousID := withID
	if previousID == 0 {
		previousID = list[1].ID
	}
	previous, err := db.GetExtraction(ctx, previousID)
	if err != nil {
		return nil, fmt.Errorf("failed to load extraction %d: %w", previousID, err)
	}
	if previous.Document != documentName {
		return nil, fmt.Errorf("extraction %d belongs to %s, not %s", previousID, previous.Document, documentName)
	}

	return compareReports(previous, current), nil
}

// ComparisonResult holds the result of comparing two extraction reports.
type ComparisonResult struct {
	// Document is the compared document name.
	Document string `json:"document"`

	// Previous describes the older extraction.
	Previous ExtractionSnapshot `json:"previous"`

	// Current describes the newer extraction.
	Current ExtractionSnapshot `json:"current"`

	// DocumentChanged reports whether the document digests differ.
	DocumentChanged bool `json:"document_changed"`

	// NewMatches appear only in the current extraction.
	NewMatches []ComparedMatch `json:"new_matches,omitempty"`

	// ResolvedMatches appear only in the previous extraction.
	ResolvedMatches []ComparedMatch `json:"resolved_matches,omitempty"`

	// UnchangedCount is the number of matches present in both.
	UnchangedCount int `json:"unchanged_count"`
}

// ExtractionSnapshot contains metadata about one side of a comparison.
type ExtractionSnapshot struct {
	ID          int64     `json:"id"`
	ExtractedAt time.Time `json:"extracted_at"`
	SHA3        string    `json:"sha3"`
	Pages       int       `json:"pages"`
	Matches     int       `json:"matches"`
}

// ComparedMatch is a match together with the pointer that produced it.
type ComparedMatch struct {
	Pointer  string              `json:"pointer"`
	Category model.FieldCategory `json:"category"`
	Snippet  string              `json:"snippet"`
	Page     int                 `json:"page"`
}

func (m ComparedMatch) key() string {
	return m.Pointer + "\x00" + m.Snippet + "\x00" + strconv.Itoa(m.Page)
}

func newSnapshot(r *model.ExtractionReport) ExtractionSnapshot {
	return ExtractionSnapshot{
		ID:          r.ID,
		ExtractedAt: r.ExtractedAt,
		SHA3:        r.SHA3,
		Pages:       r.PageCount,
		Matches:     r.Response.MatchCount(),
	}
}

// flattenMatches lists every match of r in response order.
func flattenMatches(r *model.ExtractionReport) []ComparedMatch {
	var matches []ComparedMatch
	if r.Response == nil {
		return matches
	}
	for _, p := range r.Response.Pointers {
		for _, m := range p.Matches {
			matches = append(matches, ComparedMatch{
				Pointer:  p.Query,
				Category: p.Category,
				Snippet:  m.Snippet,
				Page:     m.Page,
			})
		}
	}
	return matches
}

// compareReports compares two extraction reports. Repeated identical
// matches are paired one to one, and both lists keep response order.
func compareReports(previous, current *model.ExtractionReport) *ComparisonResult {
	result := &ComparisonResult{
		Document:        current.Document,
		Previous:        newSnapshot(previous),
		Current:         newSnapshot(current),
		DocumentChanged: previous.SHA3 != current.SHA3,
	}

	previousMatches := flattenMatches(previous)
	currentMatches := flattenMatches(current)

	remaining := make(map[string]int, len(previousMatches))
	for _, m := range previousMatches {
		remaining[m.key()]++
	}
	for _, m := range currentMatches {
		if remaining[m.key()] > 0 {
			remaining[m.key()]--
			result.UnchangedCount++
			continue
		}
		result.NewMatches = append(result.NewMatches, m)
	}

	unmatched := make(map[string]int, len(currentMatches))
	for _, m := range currentMatches {
		unmatched[m.key()]++
	}
	for _, m := range previousMatches {
		if unmatched[m.key()] > 0 {
			unmatched[m.key()]--
			continue
		}
		result.ResolvedMatches = append(result.ResolvedMatches, m)
	}

	return result
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(out io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)
	md.H1("Extraction Comparison: " + result.Document)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"ID", strconv.FormatInt(result.Previous.ID, 10), strconv.FormatInt(result.Current.ID, 10), "-"},
			{"Date", result.Previous.ExtractedAt.Format(compareDateLayout), result.Current.ExtractedAt.Format(compareDateLayout), "-"},
			{"Pages", strconv.Itoa(result.Previous.Pages), strconv.Itoa(result.Current.Pages), formatDelta(result.Current.Pages - result.Previous.Pages)},
			{"**Matches**", "**" + strconv.Itoa(result.Previous.Matches) + "**", "**" + strconv.Itoa(result.Current.Matches) + "**", "**" + formatDelta(result.Current.Matches-result.Previous.Matches) + "**"},
		},
	})
	md.PlainText("")
	md.PlainText("**Document content:** " + formatDocumentChange(result.DocumentChanged))

	if len(result.NewMatches) > 0 {
		md.PlainText("")
		md.H2(fmt.Sprintf("New Matches (%d)", len(result.NewMatches)))
		md.PlainText("")
		md.BulletList(formatMatchLines(result.NewMatches, "**%s** p.%d: `%s`")...)
	}
	if len(result.ResolvedMatches) > 0 {
		md.PlainText("")
		md.H2(fmt.Sprintf("Resolved Matches (%d)", len(result.ResolvedMatches)))
		md.PlainText("")
		md.BulletList(formatMatchLines(result.ResolvedMatches, "~~**%s** p.%d: `%s`~~")...)
	}
	if result.UnchangedCount > 0 {
		md.PlainText("")
		md.HorizontalRule()
		md.PlainText("")
		md.PlainText(fmt.Sprintf("*%d matches unchanged*", result.UnchangedCount))
	}
	return md.Build()
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(out io.Writer, result *ComparisonResult) {
	fmt.Fprintf(out, "Extraction Comparison: %s\n", result.Document)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nDocument content: %s\n", formatDocumentChange(result.DocumentChanged))
	fmt.Fprintf(out, "\nPrevious extraction: #%d  %s\n", result.Previous.ID, result.Previous.ExtractedAt.Format(compareDateLayout))
	fmt.Fprintf(out, "Current extraction:  #%d  %s\n", result.Current.ID, result.Current.ExtractedAt.Format(compareDateLayout))

	fmt.Fprintln(out, "\nSummary:")
	fmt.Fprintf(out, "  %-10s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Pages",
		result.Previous.Pages, result.Current.Pages,
		formatDelta(result.Current.Pages-result.Previous.Pages))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Matches",
		result.Previous.Matches, result.Current.Matches,
		formatDelta(result.Current.Matches-result.Previous.Matches))

	if len(result.NewMatches) > 0 {
		fmt.Fprintf(out, "\nNew Matches (%d):\n", len(result.NewMatches))
		for _, line := range formatMatchLines(result.NewMatches, "  [+] %s p.%d: %s") {
			fmt.Fprintln(out, line)
		}
	}
	if len(result.ResolvedMatches) > 0 {
		fmt.Fprintf(out, "\nResolved Matches (%d):\n", len(result.ResolvedMatches))
		for _, line := range formatMatchLines(result.ResolvedMatches, "  [-] %s p.%d: %s") {
			fmt.Fprintln(out, line)
		}
	}
	if result.UnchangedCount > 0 {
		fmt.Fprintf(out, "\nUnchanged: %d matches\n", result.UnchangedCount)
	}
}

// formatMatchLines renders each match with format, which receives the
// pointer, the page and the snippet.
func formatMatchLines(matches []ComparedMatch, format string) []string {
	lines := make([]string, len(matches))
	for i, m := range matches {
		lines[i] = fmt.Sprintf(format, m.Pointer, m.Page, m.Snippet)
	}
	return lines
}

// formatDocumentChange describes whether the document digest changed.
func formatDocumentChange(changed bool) string {
	if changed {
		return "CHANGED (different SHA3-256 digest)"
	}
	return "UNCHANGED"
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
