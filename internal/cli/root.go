// Package cli provides the command-line interface for logforge.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logforge/internal/cli/commands"
)

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return commands.CodeOf(err)
	}
	return commands.ExitOK
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "logforge",
		Short: "Summarize web access logs",
		Long: `logforge reads web server access logs and reports what happened.

For each run it computes:
  - Total, parsed and invalid line counts
  - Latency summary (min, avg, p50, p95, p99, max) from the request time
  - Requests per status code
  - The busiest endpoints
  - Requests per minute

Results are written as report.json plus CSV files, and a short summary is
printed to the terminal.

Exit codes:
  0 - Success
  2 - Bad arguments, configuration error, or unreadable input
  3 - Report files could not be written`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add subcommands
	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
