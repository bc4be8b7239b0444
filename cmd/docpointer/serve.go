package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/docpointer/internal/config"
	"github.com/nao1215/docpointer/internal/database"
	applog "github.com/nao1215/docpointer/internal/log"
	"github.com/nao1215/docpointer/internal/server"
	"github.com/nao1215/docpointer/internal/storage"
)

// shutdownGrace is how long in-flight requests get after a shutdown signal.
const shutdownGrace = 15 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the extraction API over HTTP",
		Long: `Serve starts the HTTP API.

Routes:
  GET  /health                liveness check
  POST /api/extract           multipart form: "file" (the document) and
                              "pointers" (JSON array of strings)
  GET  /api/extractions       stored extractions (with --save)
  GET  /api/extractions/{id}  one stored extraction (with --save)

Uploads are kept for the retention window and deleted by a sweep that runs
before every extraction and on the sweep schedule.

Examples:
  # Listen on the default address (127.0.0.1:5000)
  docpointer serve

  # Listen on all interfaces, keep uploads for one hour
  docpointer serve --listen 0.0.0.0:8080 --retention 1h

  # Record every extraction in the history database
  docpointer serve --save

  curl -F file=@contract.pdf -F 'pointers=["date of signing","email"]' \
    http://127.0.0.1:5000/api/extract`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddr,
		"Listen address in host:port form")
	cmd.Flags().String("upload-dir", "",
		"Directory for uploaded documents (default: XDG data directory)")
	cmd.Flags().Duration("retention", config.DefaultRetention,
		"How long uploads are kept")
	cmd.Flags().String("sweep-schedule", config.DefaultSweepSchedule,
		"Cron schedule of the background upload sweep")
	cmd.Flags().DurationP("timeout", "t", config.DefaultRequestTimeout,
		"Deadline for one extraction request")
	cmd.Flags().Int64("max-upload-size", config.DefaultMaxUploadSize,
		"Largest accepted upload in bytes")
	cmd.Flags().Int("max-pointers", config.DefaultMaxPointers,
		"Largest accepted pointer list")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Concurrent page scans per extraction")
	cmd.Flags().BoolP("save", "s", false,
		"Record every extraction in the history database")
	cmd.Flags().StringSlice("detectors", nil,
		"Only run these detectors: date, signature, currency_amount, email, phone (default: all)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyServeFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupServerLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runServe(ctx, cfg, logger)
}

// applyServeFlags copies changed flags onto cfg.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("listen") {
		if cfg.ListenAddr, err = flags.GetString("listen"); err != nil {
			return err
		}
	}
	if flags.Changed("upload-dir") {
		if cfg.UploadDir, err = flags.GetString("upload-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("retention") {
		if cfg.Retention, err = flags.GetDuration("retention"); err != nil {
			return err
		}
	}
	if flags.Changed("sweep-schedule") {
		if cfg.SweepSchedule, err = flags.GetString("sweep-schedule"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.RequestTimeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("max-upload-size") {
		if cfg.MaxUploadSize, err = flags.GetInt64("max-upload-size"); err != nil {
			return err
		}
	}
	if flags.Changed("max-pointers") {
		if cfg.MaxPointers, err = flags.GetInt("max-pointers"); err != nil {
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
	return nil
}

// setupServerLogger logs JSON at info level, or debug when verbose, so
// that request logs are visible by default.
func setupServerLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(applog.NewSecureHandler(handler))
}

// newStore opens the upload store described by cfg.
func newStore(cfg *config.Config, logger *slog.Logger) (*storage.Store, error) {
	store, err := storage.New(cfg.UploadDir,
		storage.WithRetention(cfg.Retention),
		storage.WithMaxSize(cfg.MaxUploadSize),
		storage.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload store: %w", err)
	}
	return store, nil
}

// runServe serves until ctx is cancelled.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := newStore(cfg, logger)
	if err != nil {
		return err
	}

	sweeper, err := storage.NewSweeper(store, cfg.SweepSchedule, logger)
	if err != nil {
		return err
	}
	if stats, err := store.Sweep(ctx); err != nil {
		logger.Warn("initial upload sweep failed", "error", err)
	} else if stats.Removed > 0 {
		logger.Info("removed expired uploads", "removed", stats.Removed, "freed", stats.Freed)
	}
	sweeper.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := sweeper.Stop(stopCtx); err != nil {
			logger.Warn("sweep scheduler did not stop cleanly", "error", err)
		}
	}()
	logger.Info("upload sweep scheduled",
		"schedule", cfg.SweepSchedule,
		"retention", cfg.Retention,
		"next", sweeper.NextRun(),
	)

	opts := []server.Option{server.WithLogger(logger)}
	if cfg.SaveToDB {
		var db *database.HistoryDB
		db, err = openHistory(cfg, true)
		if err != nil {
			return err
		}
		defer db.Close()
		opts = append(opts, server.WithHistory(db))
		logger.Info("database opened", "path", db.Path())
	}

	return server.New(cfg, store, opts...).Run(ctx, shutdownGrace)
}
