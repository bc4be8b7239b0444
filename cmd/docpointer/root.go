package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for docpointer.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docpointer",
		Short: "Locate dates, amounts, signatures and contacts in documents",
		Long: `docpointer answers free-text "pointer" queries against the per-page text
of a document. Each pointer is routed to a category (date, signature,
currency amount, email or phone) by keyword, and every page is scanned for
that category's pattern. Results carry the matched snippet, its page and a
short rationale.

Run it locally with 'docpointer extract' or as an HTTP service with
'docpointer serve'.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .docpointer in current or home directory)")

	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSweepCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
