package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logforge/pkg/config"
	"github.com/ccollicutt/logforge/pkg/detector"
	"github.com/ccollicutt/logforge/pkg/parser"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Format     string
	Samples    int
	ConfigPath string
	Verbose    bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <log-file>",
		Short: "Explain why lines in a log file fail to parse",
		Long: `Parse every line of a log file and explain the invalid ones.

This command checks:
- The file exists and is readable
- Which log syntax fits the file (auto-detected unless --format is given)
- How many lines are rejected, grouped by reason, with sample lines
- Whether lines carry a request time for the latency summary
- Webhooks in the config file, if one is found

Example:
  logforge diagnose /var/log/nginx/access.log
  logforge diagnose --format json --samples 5 access.json.log
  logforge diagnose -v access.log  # verbose output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runDiagnose(ctx, cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Log syntax (combined|json); detected when empty")
	cmd.Flags().IntVar(&opts.Samples, "samples", 3, "Sample lines to show per rejection reason")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "Config file whose webhooks to check")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, logFile string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	// 1. Check log file
	result := checkLogFile(logFile)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 2. Pick and check the log syntax
	p, result := checkFormat(ctx, logFile, opts)
	results = append(results, result)
	if p == nil {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 3. Parse every line
	scan, err := scanLines(ctx, logFile, p, opts.Samples)
	if err != nil {
		return usageError("reading %s: %w", logFile, err)
	}
	results = append(results, checkParseRate(scan))
	results = append(results, checkRejections(scan)...)
	results = append(results, checkLatency(scan))

	// 4. Check webhooks configuration
	if cfg, result, ok := loadDiagnoseConfig(ctx, opts); ok {
		results = append(results, result)
		if cfg != nil {
			results = append(results, checkWebhooks(cfg, opts)...)
		}
	}

	printDiagnostics(w, results, opts)
	return nil
}

func checkLogFile(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Log File",
	}

	if path == parser.StdinPath {
		result.Status = "ok"
		result.Message = "Reading standard input"
		return result
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Log file not found: %s", path)
		result.Suggests = []string{"Check the file path is correct"}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access log file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		result.Suggests = []string{"Pass a single log file; use 'logforge analyze' with a glob for many"}
		return result
	}
	if info.Size() == 0 {
		result.Status = "warning"
		result.Message = "File is empty (0 bytes)"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkFormat(ctx context.Context, logFile string, opts *DiagnoseOptions) (parser.LineParser, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Log Syntax",
	}

	var detected *detector.DetectionResult
	if logFile != parser.StdinPath {
		if res, err := detector.New().DetectFromFile(ctx, logFile); err == nil {
			detected = res
		}
	}

	name := opts.Format
	if name == "" {
		if detected == nil || !detected.HasMatch() {
			name = parser.DefaultFormat
		} else {
			name = detected.BestMatch().Format.Name
		}
	}

	p, err := parser.Lookup(name)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		return nil, result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Using %s", name)
	if detected != nil && detected.HasMatch() {
		best := detected.BestMatch()
		result.Details = append(result.Details,
			fmt.Sprintf("Best detected syntax: %s (%.1f%% of %d sampled lines)",
				best.Format.Name, best.Confidence*100, detected.SampledLines))
		if best.Format.Name != name {
			result.Status = "warning"
			result.Message = fmt.Sprintf("Using %s, but the file looks like %s", name, best.Format.Name)
			result.Suggests = []string{fmt.Sprintf("Try --format %s", best.Format.Name)}
		}
	}
	return p, result
}

// lineScan is the outcome of parsing every line of a file.
type lineScan struct {
	total        int
	parsed       int
	latencyLines int
	reasons      []*reasonStats // in parser.Reasons order, then unknown reasons
}

type reasonStats struct {
	reason  error
	count   int
	samples []string
}

func scanLines(ctx context.Context, logFile string, p parser.LineParser, maxSamples int) (*lineScan, error) {
	source := parser.NewFileSource(logFile)
	defer source.Close()

	scan := &lineScan{}
	byReason := make(map[error]*reasonStats)
	for _, reason := range parser.Reasons() {
		stats := &reasonStats{reason: reason}
		byReason[reason] = stats
		scan.reasons = append(scan.reasons, stats)
	}

	for {
		line, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		scan.total++

		var rec parser.Record
		perr := parser.ErrLineTooLong
		if !line.TooLong {
			rec, perr = p.ParseLine(line.Content)
		}
		if perr == nil {
			scan.parsed++
			if rec.Latency.Known() {
				scan.latencyLines++
			}
			continue
		}

		stats := reasonFor(perr, byReason)
		if stats == nil {
			stats = &reasonStats{reason: perr}
			byReason[perr] = stats
			scan.reasons = append(scan.reasons, stats)
		}
		stats.count++
		if len(stats.samples) < maxSamples {
			stats.samples = append(stats.samples,
				fmt.Sprintf("line %d: %s", line.LineNum, truncate(line.Content, 120)))
		}
	}

	return scan, nil
}

func reasonFor(err error, byReason map[error]*reasonStats) *reasonStats {
	for _, reason := range parser.Reasons() {
		if errors.Is(err, reason) {
			return byReason[reason]
		}
	}
	return byReason[err]
}

func checkParseRate(scan *lineScan) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Parse Rate",
	}

	invalid := scan.total - scan.parsed
	switch {
	case scan.total == 0:
		result.Status = "warning"
		result.Message = "No lines to parse"
	case invalid == 0:
		result.Status = "ok"
		result.Message = fmt.Sprintf("All %d lines parsed", scan.total)
	case invalid*2 < scan.total:
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d of %d lines invalid (%.1f%%)",
			invalid, scan.total, 100*float64(invalid)/float64(scan.total))
	default:
		result.Status = "error"
		result.Message = fmt.Sprintf("%d of %d lines invalid (%.1f%%)",
			invalid, scan.total, 100*float64(invalid)/float64(scan.total))
		result.Suggests = []string{
			"Check the log syntax with 'logforge detect <log-file>'",
		}
	}
	return result
}

func checkRejections(scan *lineScan) []DiagnosticResult {
	results := []DiagnosticResult{}
	for _, stats := range scan.reasons {
		if stats.count == 0 {
			continue
		}
		results = append(results, DiagnosticResult{
			Check:   fmt.Sprintf("Rejected: %s", stats.reason),
			Status:  "warning",
			Message: fmt.Sprintf("%d line(s)", stats.count),
			Details: stats.samples,
		})
	}
	return results
}

func checkLatency(scan *lineScan) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Request Time",
	}

	switch {
	case scan.parsed == 0:
		result.Status = "ok"
		result.Message = "No parsed lines"
	case scan.latencyLines == 0:
		result.Status = "warning"
		result.Message = "No parsed line carries a request time; the latency summary will be empty"
		result.Suggests = []string{
			"Append $request_time to the nginx log_format",
		}
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("%d of %d parsed lines carry a request time", scan.latencyLines, scan.parsed)
	}
	return result
}

// loadDiagnoseConfig loads the config for the webhook checks. ok is false when
// no config file was given or found.
func loadDiagnoseConfig(ctx context.Context, opts *DiagnoseOptions) (*config.Config, DiagnosticResult, bool) {
	result := DiagnosticResult{
		Check: "Config File",
	}

	cfg, err := config.Load(ctx, opts.ConfigPath)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result, true
	}
	if cfg.Source() == "" {
		return nil, result, false
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Loaded %s", cfg.Source())
	return cfg, result, true
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== logforge Line Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before running analysis.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nThe file can be analyzed; warnings show what the report will miss.")
	} else {
		fmt.Fprintln(w, "\nThe file looks good!")
	}
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		// Webhooks are optional, just note they're not configured
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", name),
		}

		warnings := []string{}

		// Load already rejected invalid URLs and triggers; a token that is
		// still empty after expansion usually means an unset variable.
		if wh.Token == "" {
			warnings = append(warnings, "No token configured (or the token env var is unset)")
		}
		if wh.Trigger == config.WebhookTriggerNever {
			warnings = append(warnings, "Trigger is never; this webhook will not fire")
		}

		if len(warnings) > 0 {
			result.Status = "warning"
			result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
			result.Details = warnings
		} else {
			result.Status = "ok"
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout),
					"Token: configured",
				}
			}
		}

		results = append(results, result)
	}

	// Optionally test webhook connectivity
	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			name := wh.Name
			if name == "" {
				name = wh.URL
			}

			result := checkWebhookConnectivity(wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, result)
		}
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	if _, err := url.Parse(wh.URL); err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Invalid URL: %v", err)
		return result
	}

	// Just do a HEAD request to check if the endpoint is reachable
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
