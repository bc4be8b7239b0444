package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewSweepCmd creates the sweep command.
func NewSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete uploads older than the retention window",
		Long: `Sweep deletes stored uploads whose modification time is older than the
retention window. The server sweeps automatically; this command runs one
sweep now, for example from an external scheduler.

Examples:
  # Use the configured retention (default 24h)
  docpointer sweep

  # Delete everything older than one hour
  docpointer sweep --retention 1h`,
		Args: cobra.NoArgs,
		RunE: runSweepCmd,
	}

	cmd.Flags().String("upload-dir", "",
		"Directory for uploaded documents (default: XDG data directory)")
	cmd.Flags().Duration("retention", 0,
		"How long uploads are kept (default: configured retention)")

	return cmd
}

// runSweepCmd executes the sweep command.
func runSweepCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("upload-dir") {
		if cfg.UploadDir, err = cmd.Flags().GetString("upload-dir"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("retention") {
		if cfg.Retention, err = cmd.Flags().GetDuration("retention"); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	store, err := newStore(cfg, logger)
	if err != nil {
		return err
	}

	stats, err := store.Sweep(context.Background())
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Swept %s\n", store.Dir())
	fmt.Fprintf(out, "  scanned: %d\n", stats.Scanned)
	fmt.Fprintf(out, "  removed: %d (%d bytes)\n", stats.Removed, stats.Freed)
	if stats.Failed > 0 {
		fmt.Fprintf(out, "  failed:  %d\n", stats.Failed)
		return fmt.Errorf("%d uploads could not be removed", stats.Failed)
	}
	return nil
}
