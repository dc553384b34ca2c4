package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/logforge/internal/logging"
	"github.com/ccollicutt/logforge/pkg/analyzer"
	"github.com/ccollicutt/logforge/pkg/config"
	"github.com/ccollicutt/logforge/pkg/output"
	"github.com/ccollicutt/logforge/pkg/parser"
	"github.com/ccollicutt/logforge/pkg/webhook"
)

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	ConfigPath string
	OutDir     string
	TopN       int
	Bench      bool
	Format     string
	Summary    string
	Parallel   int
	LogLevel   string

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string

	// Clock times the run. Defaults to the wall clock.
	Clock clock.Clock
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <input>...",
		Short: "Analyze access logs and write a report",
		Long: `Analyze one or more access logs and write report.json plus CSV files.

Inputs may be files, glob patterns, or "-" for standard input. Files ending
in .gz, .zst or .zstd are decompressed on the fly.

Writes to the output directory:
  report.json              summary, latency, status codes, endpoints, minutes
  status_counts.csv        status,count
  top_endpoints.csv        endpoint,count
  requests_per_minute.csv  minute,count
  latency_summary.csv      key,value

Exit codes:
  0 - Report written (or benchmark finished)
  2 - Bad arguments, configuration error, or unreadable input
  3 - Report files could not be written`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	// Flags
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "Config file (default ./logforge.yaml or ~/.config/logforge/config.yaml)")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", config.DefaultOutDir, "Output directory for report files")
	cmd.Flags().IntVarP(&opts.TopN, "top", "n", config.DefaultTopN, "Number of endpoints to rank")
	cmd.Flags().BoolVar(&opts.Bench, "bench", false, "Only measure throughput, do not write reports")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", parser.DefaultFormat, "Log syntax (combined|json)")
	cmd.Flags().StringVar(&opts.Summary, "summary", "", "Terminal summary (text|json|quiet|none); default text on a terminal, quiet otherwise")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", config.DefaultParallel, "Number of input files to read concurrently")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", logging.DefaultLevel, "Diagnostic log level (debug|info|warn|error)")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnInvalid), "When to fire webhook (on_invalid|always|never)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stdout := cmd.OutOrStdout()

	cfg, err := loadAnalyzeConfig(ctx, cmd, opts)
	if err != nil {
		return err
	}

	webhooks, err := collectWebhooks(cfg, opts)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return usageError("%w", err)
	}
	defer func() { _ = logger.Sync() }()

	files, err := parser.ExpandInputs(args)
	if err != nil {
		return usageError("expanding inputs: %w", err)
	}

	p, err := parser.Lookup(cfg.Format)
	if err != nil {
		return usageError("%w", err)
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	a, err := analyzer.New(p,
		analyzer.WithTopN(cfg.TopN),
		analyzer.WithLogger(logger),
		analyzer.WithClock(clk),
		analyzer.WithParallelism(cfg.Parallel),
	)
	if err != nil {
		return usageError("creating analyzer: %w", err)
	}

	logger.Debug("starting analysis",
		zap.Strings("inputs", files),
		zap.String("format", cfg.Format),
		zap.Int("top_n", cfg.TopN),
		zap.Int("parallel", cfg.Parallel),
		zap.String("config", cfg.Source()),
	)

	var result *analyzer.Result
	if len(files) == 1 && files[0] == parser.StdinPath {
		source := parser.NewReaderSource(parser.StdinPath, cmd.InOrStdin())
		result, err = a.Analyze(ctx, source)
	} else {
		result, err = a.AnalyzeFiles(ctx, files)
	}
	if err != nil {
		return usageError("analysis failed: %w", err)
	}

	doc := output.NewDocument(result.Report)

	if opts.Bench {
		printBench(stdout, result)
		return nil
	}

	if _, err := output.WriteFiles(cfg.OutDir, doc); err != nil {
		return writeError("writing report: %w", err)
	}

	info := output.NewRunInfo(result, cfg.OutDir)

	formatter, err := output.NewFormatter(summaryMode(cfg.Summary, stdout))
	if err != nil {
		return usageError("%w", err)
	}
	if err := formatter.Format(ctx, doc, info, stdout); err != nil {
		return writeError("printing summary: %w", err)
	}

	// Send webhooks (errors logged but don't fail analysis)
	if len(webhooks) > 0 {
		webhook.NewClient(logger).Dispatch(ctx, webhooks, doc, info)
	}

	return nil
}

// loadAnalyzeConfig reads the config file, lets explicitly set flags
// override it and validates the result once.
func loadAnalyzeConfig(ctx context.Context, cmd *cobra.Command, opts *AnalyzeOptions) (*config.Config, error) {
	cfg, err := config.Read(ctx, opts.ConfigPath)
	if err != nil {
		return nil, usageError("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.OutDir = opts.OutDir
	}
	if flags.Changed("top") {
		cfg.TopN = opts.TopN
	}
	if flags.Changed("format") {
		cfg.Format = opts.Format
	}
	if flags.Changed("summary") {
		cfg.Summary = opts.Summary
	}
	if flags.Changed("parallel") {
		cfg.Parallel = opts.Parallel
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.LogLevel
	}

	if err := config.Validate(cfg); err != nil {
		return nil, usageError("invalid options: %w", err)
	}
	return cfg, nil
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *AnalyzeOptions) ([]config.WebhookConfig, error) {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		wh := config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: config.WebhookTrigger(opts.WebhookTrigger),
		}
		if err := config.ValidateWebhook(&wh); err != nil {
			return nil, usageError("webhook: %w", err)
		}
		webhooks = append(webhooks, wh)
	}

	return webhooks, nil
}

// summaryMode resolves the configured summary mode. An empty mode means text
// on a terminal and quiet when output is piped or redirected.
func summaryMode(mode string, w io.Writer) string {
	if mode != "" {
		return mode
	}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return output.SummaryText
	}
	return output.SummaryQuiet
}

func printBench(w io.Writer, result *analyzer.Result) {
	fmt.Fprintln(w, "BENCH")
	fmt.Fprintf(w, "  lines: %d\n", result.Report.TotalLines())
	fmt.Fprintf(w, "  invalid: %d\n", result.Report.InvalidLines())
	fmt.Fprintf(w, "  time: %d ms\n", result.Elapsed.Milliseconds())
	fmt.Fprintf(w, "  throughput: %.0f lines/s\n", result.LinesPerSecond())
}
