package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logforge/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a logforge configuration file without running analysis.

Checks:
  - YAML syntax
  - Known log format and summary mode
  - top_n and parallel are at least 1
  - Log level
  - Webhook URLs and triggers

LOGFORGE_* environment variables are applied before validation.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return usageError("validation failed: %w", err)
	}

	summary := cfg.Summary
	if summary == "" {
		summary = "auto"
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Format:    %s\n", cfg.Format)
	fmt.Fprintf(w, "  Top N:     %d\n", cfg.TopN)
	fmt.Fprintf(w, "  Out dir:   %s\n", cfg.OutDir)
	fmt.Fprintf(w, "  Summary:   %s\n", summary)
	fmt.Fprintf(w, "  Parallel:  %d\n", cfg.Parallel)
	fmt.Fprintf(w, "  Log level: %s\n", cfg.LogLevel)
	fmt.Fprintf(w, "  Webhooks:  %d\n", len(cfg.Webhooks))

	for i, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}
		fmt.Fprintf(w, "    %d. %s [%s]\n", i+1, name, wh.Trigger)
	}

	return nil
}
