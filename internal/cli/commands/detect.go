package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logforge/pkg/config"
	"github.com/ccollicutt/logforge/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Detect the log syntax of a file",
		Long: `Sample a log file and report which supported log syntax parses it.

Every registered syntax is tried on the sampled lines and ranked by the
fraction of lines it parses. The best match is printed with a sample line
and the record parsed from it.

Optionally generates a starter config file with --write-config.

Example:
  logforge detect /var/log/nginx/access.log
  logforge detect --sample 500 /var/log/nginx/access.log.gz
  logforge detect --write-config logforge.yaml /var/log/nginx/access.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", detector.DefaultSampleSize, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all matching syntaxes, not just the best match")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	logFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	if opts.Output != "text" && opts.Output != "json" {
		return usageError("unknown output format %q (use text or json)", opts.Output)
	}

	d := detector.New(detector.WithSampleSize(opts.SampleSize))

	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return usageError("detection failed: %w", err)
	}

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(w, result, opts.WriteConfig); err != nil {
			return err
		}
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(w, result, logFile, opts)
	default:
		outputDetectText(w, result, logFile, opts)
		return nil
	}
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) {
	fmt.Fprintln(w, "=== Log Syntax Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Lines parsed: %d\n", result.ParsedLines)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No supported log syntax detected.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Supported syntaxes, with an example line each:")
		for _, info := range detector.Examples() {
			fmt.Fprintf(w, "  %s: %s\n", info.Name, info.Description)
			fmt.Fprintf(w, "    %s\n", info.Example)
		}
		return
	}

	best := result.BestMatch()
	fmt.Fprintf(w, "Detected Format: %s\n", best.Format.Name)
	fmt.Fprintf(w, "Confidence: %.1f%% (%d/%d lines parsed)\n",
		best.Confidence*100, best.MatchCount, result.SampledLines)
	fmt.Fprintf(w, "Lines with request time: %d\n", best.LatencyCount)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sample match:\n  %s\n", truncate(best.SampleLine, 160))
	rec := best.SampleRecord
	fmt.Fprintf(w, "Parsed as: endpoint=%s status=%d latency=%s minute=%q\n",
		rec.Endpoint, rec.Status, rec.Latency, rec.MinuteKey)
	fmt.Fprintln(w)

	if result.LatencyNote != "" {
		fmt.Fprintf(w, "Note: %s\n", result.LatencyNote)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "--- Usage ---")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  logforge analyze --format %s %s\n", best.Format.Name, logFile)
	fmt.Fprintln(w)

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w, "--- Alternative syntaxes detected ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s (%.1f%% confidence)\n", i+2, m.Format.Name, m.Confidence*100)
		}
		fmt.Fprintln(w)
	}
}

// JSONMatch represents a syntax match in JSON output.
type JSONMatch struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Confidence   float64 `json:"confidence"`
	MatchCount   int     `json:"match_count"`
	LatencyCount int     `json:"latency_count"`
	SampleLine   string  `json:"sample_line"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File         string      `json:"file"`
	Matches      []JSONMatch `json:"matches"`
	SampledLines int         `json:"sampled_lines"`
	ParsedLines  int         `json:"parsed_lines"`
	LatencyNote  string      `json:"latency_note,omitempty"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	out := JSONOutput{
		File:         logFile,
		SampledLines: result.SampledLines,
		ParsedLines:  result.ParsedLines,
		LatencyNote:  result.LatencyNote,
		Matches:      make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1] // Only show best match
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, JSONMatch{
			Name:         m.Format.Name,
			Description:  m.Format.Description,
			Confidence:   m.Confidence,
			MatchCount:   m.MatchCount,
			LatencyCount: m.LatencyCount,
			SampleLine:   m.SampleLine,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// writeStarterConfig generates a starter config file with the detected syntax.
func writeStarterConfig(w io.Writer, result *detector.DetectionResult, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return usageError("config file already exists: %s (will not overwrite)", configPath)
	}

	if !result.HasMatch() {
		return usageError("cannot generate config: no log syntax detected")
	}

	best := result.BestMatch()
	if err := config.WriteStarter(configPath, best.Format.Name); err != nil {
		return writeError("%w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}
