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

	"github.com/spf13/cobra"

	"github.com/nao1215/docpointer/internal/config"
	"github.com/nao1215/docpointer/internal/database"
	"github.com/nao1215/docpointer/internal/model"
)

// historyDateLayout formats timestamps in history listings.
const historyDateLayout = "2006-01-02 15:04:05"

// noMatchesMessage is shown for extractions without matches.
const noMatchesMessage = "No matches"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List extractions stored in the history database",
		Long: `History lists extractions recorded with 'docpointer extract --save' or
'docpointer serve --save', newest first.

Examples:
  # The 20 most recent extractions
  docpointer history

  # Every extraction of one document
  docpointer history --document contract.pdf --limit 0

  # Show one extraction again
  docpointer history show 12

  # Delete extractions older than 30 days
  docpointer history prune --older-than 720h`,
		Args: cobra.NoArgs,
		RunE: runHistoryListCmd,
	}

	cmd.Flags().StringP("document", "d", "", "Only list extractions of this document name")
	cmd.Flags().String("sha3", "", "Only list extractions of the document with this SHA3-256 digest")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of extractions (0 lists all)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")

	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryPruneCmd())
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored extraction",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShowCmd,
	}
	cmd.Flags().BoolP("json", "j", false, "Output JSON (the HTTP API response shape)")
	cmd.Flags().Bool("full", false, "With --json, include document metadata and a summary")
	cmd.Flags().BoolP("markdown", "m", false, "Output a Markdown report")
	cmd.Flags().BoolP("xlsx", "x", false, "Output an Excel workbook (requires --output)")
	cmd.Flags().StringP("output", "o", "", "Write the report to the specified file")
	cmd.Flags().Bool("show-empty", false, "List pointers without matches in the text report")
	return cmd
}

func newHistoryPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete stored extractions older than a duration",
		Args:  cobra.NoArgs,
		RunE:  runHistoryPruneCmd,
	}
	cmd.Flags().Duration("older-than", 0, "Delete extractions older than this, e.g. 720h (required)")
	return cmd
}

// openExistingHistory opens the history database without creating it.
// It returns nil, nil when no database exists yet.
func openExistingHistory(cmd *cobra.Command) (*database.HistoryDB, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	db, err := openHistory(cfg, false)
	if errors.Is(err, database.ErrDatabaseNotFound) {
		return nil, nil
	}
	return db, err
}

// runHistoryListCmd executes the history command.
func runHistoryListCmd(cmd *cobra.Command, _ []string) error {
	var opts database.ListOptions
	var err error
	if opts.Document, err = cmd.Flags().GetString("document"); err != nil {
		return err
	}
	if opts.SHA3, err = cmd.Flags().GetString("sha3"); err != nil {
		return err
	}
	if opts.Limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return err
	}
	if opts.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := openExistingHistory(cmd)
	if err != nil {
		return err
	}

	var list []database.ExtractionMetadata
	if db != nil {
		defer db.Close()
		if list, err = db.ListExtractions(context.Background(), opts); err != nil {
			return fmt.Errorf("failed to list extractions: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if list == nil {
			list = []database.ExtractionMetadata{}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(list)
	}
	printHistory(out, list)
	return nil
}

// printHistory writes the listing as a table.
func printHistory(out io.Writer, list []database.ExtractionMetadata) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No extractions found in the database.")
		fmt.Fprintln(out, "\nUse 'docpointer extract --save' to record extractions.")
		return
	}

	fmt.Fprintf(out, "Extraction history (%d):\n\n", len(list))
	fmt.Fprintf(out, "  %-6s  %-19s  %5s  %-28s  %s\n", "ID", "Date", "Pages", "Matches", "Document")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 80))
	for _, meta := range list {
		fmt.Fprintf(out, "  %-6d  %-19s  %5d  %-28s  %s\n",
			meta.ID,
			meta.ExtractedAt.Local().Format(historyDateLayout),
			meta.PageCount,
			formatCategorySummary(meta.Summary),
			meta.Document,
		)
	}
	fmt.Fprintln(out, "\nUse 'docpointer history show <id>' to see an extraction.")
}

// formatCategorySummary formats per-category match counts such as
// "date:2 email:1".
func formatCategorySummary(summary model.Summary) string {
	var parts []string
	for _, c := range model.Categories {
		if n := summary.ByCategory[c]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", c, n))
		}
	}
	if len(parts) == 0 {
		return noMatchesMessage
	}
	return strings.Join(parts, " ")
}

// runHistoryShowCmd executes the history show command.
func runHistoryShowCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid extraction id: %q", args[0])
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	format, err := reportFormatFlag(cmd)
	if err != nil {
		return err
	}
	if format != "" {
		cfg.ReportFormat = format
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if cfg.ReportFormat == config.FormatXLSX && cfg.ReportFile == "" {
		return config.ErrXLSXNeedsFile
	}

	opts := &extractOptions{}
	if opts.full, err = cmd.Flags().GetBool("full"); err != nil {
		return err
	}
	if opts.showEmpty, err = cmd.Flags().GetBool("show-empty"); err != nil {
		return err
	}

	db, err := openHistory(cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	rep, err := db.GetExtraction(context.Background(), id)
	if err != nil {
		return fmt.Errorf("failed to load extraction %d: %w", id, err)
	}
	return outputReports(cmd, cfg, opts, []*model.ExtractionReport{rep})
}

// runHistoryPruneCmd executes the history prune command.
func runHistoryPruneCmd(cmd *cobra.Command, _ []string) error {
	olderThan, err := cmd.Flags().GetDuration("older-than")
	if err != nil {
		return err
	}
	if olderThan <= 0 {
		return errors.New("--older-than must be a positive duration")
	}

	db, err := openExistingHistory(cmd)
	if err != nil {
		return err
	}
	if db == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No extraction history found.")
		return nil
	}
	defer db.Close()

	cutoff := time.Now().Add(-olderThan)
	n, err := db.DeleteExtractionsBefore(context.Background(), cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d extractions recorded before %s\n",
		n, cutoff.Local().Format(historyDateLayout))
	return nil
}
