package output

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// TextFormatter renders the summary as human-readable tables.
type TextFormatter struct{}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return SummaryText
}

// Format renders the summary as text.
func (f *TextFormatter) Format(ctx context.Context, doc *Document, info RunInfo, w io.Writer) error {
	// Header
	fmt.Fprintln(w, "=== logforge report ===")
	if len(info.Sources) > 0 {
		fmt.Fprintf(w, "Sources: %s\n", strings.Join(info.Sources, ", "))
	}
	fmt.Fprintf(w, "Lines: %d total, %d parsed, %d invalid\n",
		doc.Summary.TotalLines,
		doc.Summary.ParsedLines,
		doc.Summary.InvalidLines)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Latency (ms)")
	lat := doc.Latency
	if err := renderTable(w,
		[]string{"Count", "Min", "Avg", "P50", "P95", "P99", "Max"},
		[][]string{{
			strconv.FormatUint(lat.Count, 10),
			formatOptionalInt(lat.Min, "-"),
			formatOptionalFloat(lat.Avg, "-"),
			formatOptionalInt(lat.P50, "-"),
			formatOptionalInt(lat.P95, "-"),
			formatOptionalInt(lat.P99, "-"),
			formatOptionalInt(lat.Max, "-"),
		}},
	); err != nil {
		return err
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Status codes")
	rows := make([][]string, 0, len(doc.StatusCounts))
	for _, s := range doc.StatusCounts {
		rows = append(rows, []string{strconv.Itoa(s.Status), strconv.FormatUint(s.Count, 10)})
	}
	if err := renderTable(w, []string{"Status", "Count"}, rows); err != nil {
		return err
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Top %d endpoints\n", len(doc.TopEndpoints))
	rows = make([][]string, 0, len(doc.TopEndpoints))
	for i, e := range doc.TopEndpoints {
		rows = append(rows, []string{strconv.Itoa(i + 1), e.Endpoint, strconv.FormatUint(e.Count, 10)})
	}
	if err := renderTable(w, []string{"#", "Endpoint", "Count"}, rows); err != nil {
		return err
	}
	fmt.Fprintln(w)

	if peak, ok := peakMinute(doc.RequestsPerMinute); ok {
		fmt.Fprintf(w, "Minutes: %d, busiest %s (%d requests)\n",
			len(doc.RequestsPerMinute), peak.Minute, peak.Count)
	} else {
		fmt.Fprintln(w, "Minutes: none")
	}

	if info.OutDir != "" {
		fmt.Fprintf(w, "Wrote: %s/report.json + CSVs\n", info.OutDir)
	}
	if info.Elapsed > 0 {
		fmt.Fprintf(w, "Time: %d ms (%.0f lines/s)\n", info.ElapsedMs, info.LinesPerSecond)
	}

	return nil
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return nil
}

func peakMinute(minutes []MinuteCount) (MinuteCount, bool) {
	if len(minutes) == 0 {
		return MinuteCount{}, false
	}
	// Minutes are in ascending order, so the first maximum is the earliest.
	peak := minutes[0]
	for _, m := range minutes[1:] {
		if m.Count > peak.Count {
			peak = m
		}
	}
	return peak, true
}

// QuietFormatter prints a single summary line.
type QuietFormatter struct{}

// NewQuietFormatter creates a new quiet formatter.
func NewQuietFormatter() *QuietFormatter {
	return &QuietFormatter{}
}

// Name returns the format name.
func (f *QuietFormatter) Name() string {
	return SummaryQuiet
}

// Format renders the one-line summary.
func (f *QuietFormatter) Format(ctx context.Context, doc *Document, info RunInfo, w io.Writer) error {
	_, err := fmt.Fprintf(w, "logforge: total_lines=%d parsed=%d invalid=%d latency_count=%d avg=%s p95~=%s\n",
		doc.Summary.TotalLines,
		doc.Summary.ParsedLines,
		doc.Summary.InvalidLines,
		doc.Latency.Count,
		formatOptionalFloat(doc.Latency.Avg, "-"),
		formatOptionalInt(doc.Latency.P95, "-"))
	return err
}

func formatOptionalInt(v *int, missing string) string {
	if v == nil {
		return missing
	}
	return strconv.Itoa(*v)
}

func formatOptionalFloat(v *float64, missing string) string {
	if v == nil {
		return missing
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
