package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/docpointer/internal/classify"
	"github.com/nao1215/docpointer/internal/config"
	"github.com/nao1215/docpointer/internal/database"
	"github.com/nao1215/docpointer/internal/document"
	"github.com/nao1215/docpointer/internal/extract"
	"github.com/nao1215/docpointer/internal/model"
	"github.com/nao1215/docpointer/internal/pattern"
	"github.com/nao1215/docpointer/internal/pipeline"
	"github.com/nao1215/docpointer/internal/report"
)

var (
	errNoDocuments = errors.New("no documents provided (specify one or more files as arguments)")
	errNoPointers  = errors.New("missing pointers (use --pointers '[\"...\"]' or --pointer)")
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [document...]",
		Short: "Answer pointer queries against local documents",
		Long: `Extract reads each document's pages and answers every pointer against them.

Pointers are routed by keyword, first rule wins:
` + routingHelp() + `Other pointers are unclassified and return no matches.

Supported documents: .pdf, .html/.htm, .md/.markdown, .txt

Examples:
  # One pointer
  docpointer extract --pointer "total amount" invoice.pdf

  # A JSON pointer list, as accepted by the HTTP API
  docpointer extract --pointers '["date of signing","email"]' contract.pdf

  # Several documents, four at a time, as JSON
  docpointer extract -p "contact phone" --batch 4 --json a.pdf b.html c.md

  # Spreadsheet of every match
  docpointer extract -p amount -p date --xlsx -o matches.xlsx *.pdf

  # Record results in the history database
  docpointer extract -p email --save contract.pdf

  # Only look for dates and emails, keep a JSON copy and read the text report
  docpointer extract -p "signing date" --detectors date,email -j -o out.json --tee contract.pdf`,
		Args: cobra.ArbitraryArgs,
		RunE: runExtractCmd,
	}

	// Pointer flags
	cmd.Flags().StringP("pointers", "P", "",
		`Pointers as a JSON array of strings, e.g. '["total amount","email"]'`)
	cmd.Flags().StringArrayP("pointer", "p", nil,
		"Pointer query (repeatable, appended after --pointers)")

	// Processing flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of documents processed concurrently")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Concurrent page scans per document")
	cmd.Flags().BoolP("save", "s", false,
		"Record results in the history database")
	cmd.Flags().StringSlice("detectors", nil,
		"Only run these detectors: date, signature, currency_amount, email, phone (default: all)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (the HTTP API response shape)")
	cmd.Flags().Bool("full", false,
		"With --json, include document metadata and a summary")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output a Markdown report")
	cmd.Flags().BoolP("xlsx", "x", false,
		"Output an Excel workbook (requires --output)")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to the specified file (creates directories if needed)")
	cmd.Flags().Bool("show-empty", false,
		"List pointers without matches in the text report")
	cmd.Flags().Bool("tee", false,
		"With --output, also print the text report to stdout")

	return cmd
}

// extractOptions are the extract flags that are not part of Config.
type extractOptions struct {
	pointers  []string
	full      bool
	showEmpty bool
	tee       bool
}

// routingHelp renders the classifier rules for the help text.
func routingHelp() string {
	var b strings.Builder
	for _, r := range classify.Rules() {
		fmt.Fprintf(&b, "  %-36s-> %s\n", strings.Join(r.Keywords, ", "), r.Category.Label())
	}
	return b.String()
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errNoDocuments
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyExtractFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	opts, err := buildExtractOptions(cmd, cfg)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runExtract(ctx, cmd, cfg, args, opts, logger)
}

// applyExtractFlags copies changed flags onto cfg so that unchanged flags
// keep the configuration file's values.
func applyExtractFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return err
		}
	}
	if flags.Changed("save") {
		if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
			return err
		}
	}
	if flags.Changed("detectors") {
		if cfg.Detectors, err = flags.GetStringSlice("detectors"); err != nil {
			return err
		}
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return err
	}

	format, err := reportFormatFlag(cmd)
	if err != nil {
		return err
	}
	if format != "" {
		cfg.ReportFormat = format
	}
	return nil
}

// reportFormatFlag returns the format selected by --json, --markdown or
// --xlsx, or "" when none is set.
func reportFormatFlag(cmd *cobra.Command) (string, error) {
	var selected []string
	for _, f := range []struct{ flag, format string }{
		{"json", config.FormatJSON},
		{"markdown", config.FormatMarkdown},
		{"xlsx", config.FormatXLSX},
	} {
		on, err := cmd.Flags().GetBool(f.flag)
		if err != nil {
			return "", err
		}
		if on {
			selected = append(selected, f.format)
		}
	}
	switch len(selected) {
	case 0:
		return "", nil
	case 1:
		return selected[0], nil
	default:
		return "", config.ErrConflictingReportFormats
	}
}

// buildExtractOptions collects the pointer list and report switches.
func buildExtractOptions(cmd *cobra.Command, cfg *config.Config) (*extractOptions, error) {
	raw, err := cmd.Flags().GetString("pointers")
	if err != nil {
		return nil, err
	}
	single, err := cmd.Flags().GetStringArray("pointer")
	if err != nil {
		return nil, err
	}
	pointers, err := collectPointers(raw, single, cfg.MaxPointers)
	if err != nil {
		return nil, err
	}

	opts := &extractOptions{pointers: pointers}
	if opts.full, err = cmd.Flags().GetBool("full"); err != nil {
		return nil, err
	}
	if opts.showEmpty, err = cmd.Flags().GetBool("show-empty"); err != nil {
		return nil, err
	}
	if opts.tee, err = cmd.Flags().GetBool("tee"); err != nil {
		return nil, err
	}
	return opts, nil
}

// collectPointers merges the JSON list with repeated --pointer values.
func collectPointers(raw string, single []string, limit int) ([]string, error) {
	if raw == "" && len(single) == 0 {
		return nil, errNoPointers
	}

	var pointers []string
	if raw != "" {
		parsed, err := extract.ParsePointers([]byte(raw), 0)
		if err != nil {
			return nil, err
		}
		pointers = parsed
	}
	pointers = append(pointers, single...)

	if len(pointers) > limit {
		return nil, fmt.Errorf("%w: got %d, limit is %d", extract.ErrTooManyPointers, len(pointers), limit)
	}
	return pointers, nil
}

// runExtract processes every document and writes the reports.
func runExtract(ctx context.Context, cmd *cobra.Command, cfg *config.Config, paths []string, opts *extractOptions, logger *slog.Logger) error {
	logger.Info("starting extraction",
		"documents", len(paths),
		"pointers", len(opts.pointers),
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = openHistory(cfg, true)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	registry, err := pattern.Select(cfg.Detectors...)
	if err != nil {
		return err
	}
	pages := document.NewDefaultRegistry(document.WithPDFLogger(logger))
	extractor := extract.New(
		extract.WithRegistry(registry),
		extract.WithWorkers(cfg.Workers),
		extract.WithLogger(logger),
	)

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			deps := pipeline.Deps{
				Pages:     pages,
				Extractor: extractor,
				Logger:    logger,
			}
			if db != nil {
				deps.History = db
			}
			return pipeline.Build(deps)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	jobs := make([]*pipeline.Job, len(paths))
	for i, path := range paths {
		jobs[i] = pipeline.NewFileJob(path, opts.pointers)
	}

	startTime := time.Now()
	if _, err := bp.ProcessBatch(ctx, jobs); err != nil {
		return err
	}
	logger.Info("extraction finished", "elapsed", time.Since(startTime).Round(time.Millisecond))

	var (
		reports []*model.ExtractionReport
		failed  int
	)
	for _, job := range jobs {
		if job.Failed() {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "Extraction error for %s: %v\n", job.Path, job.Err)
			continue
		}
		reports = append(reports, job.Report)
	}

	if len(reports) > 0 {
		if err := outputReports(cmd, cfg, opts, reports); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(jobs))
	}
	return nil
}

// outputReports writes reports in the configured format. With --tee and
// --output the text report also goes to stdout.
func outputReports(cmd *cobra.Command, cfg *config.Config, opts *extractOptions, reports []*model.ExtractionReport) (err error) {
	out, closeOutput, err := openOutput(cmd, cfg.ReportFile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOutput(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	if !opts.tee || cfg.ReportFile == "" {
		_, err = renderReports(out, cfg, opts, reports)
		return err
	}

	terminal := newTextWriter(cmd.OutOrStdout(), cfg, opts)
	if cfg.ReportFormat == config.FormatXLSX {
		// A workbook is written whole, so the terminal copy follows it.
		if _, err = report.NewXLSXWriter(out).WriteReports(reports); err != nil {
			return err
		}
		_, err = report.WriteAll(terminal, reports)
		return err
	}
	_, err = report.WriteAll(report.NewMultiWriter(reportWriter(out, cfg, opts, len(reports)), terminal), reports)
	return err
}

// renderReports renders reports to out.
func renderReports(out io.Writer, cfg *config.Config, opts *extractOptions, reports []*model.ExtractionReport) (int, error) {
	if cfg.ReportFormat == config.FormatXLSX {
		return report.NewXLSXWriter(out).WriteReports(reports)
	}
	return report.WriteAll(reportWriter(out, cfg, opts, len(reports)), reports)
}

// reportWriter returns the per-report Writer for the configured format.
// The workbook format spans every report and has no per-report Writer.
func reportWriter(out io.Writer, cfg *config.Config, opts *extractOptions, count int) report.Writer {
	switch cfg.ReportFormat {
	case config.FormatJSON:
		// Several documents need their names next to the results.
		if opts.full || count > 1 {
			return report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
		}
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	case config.FormatMarkdown:
		return report.NewMarkdownWriter(out)
	default:
		return newTextWriter(out, cfg, opts)
	}
}

func newTextWriter(out io.Writer, cfg *config.Config, opts *extractOptions) report.Writer {
	return report.NewSimpleWriter(out,
		report.WithShowEmpty(opts.showEmpty),
		report.WithVerbose(cfg.Verbose),
	)
}
