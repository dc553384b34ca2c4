// Package output renders analysis reports as report files and terminal summaries.
package output

import (
	"time"

	"github.com/ccollicutt/logforge/pkg/analyzer"
)

// Document is the serialized form of a report, as written to report.json.
// Field order is the order keys appear in the file.
type Document struct {
	Summary           Summary         `json:"summary"`
	Latency           Latency         `json:"latency_ms"`
	StatusCounts      []StatusCount   `json:"status_counts"`
	TopEndpoints      []EndpointCount `json:"top_endpoints"`
	RequestsPerMinute []MinuteCount   `json:"requests_per_minute"`
}

// Summary holds the line counters.
type Summary struct {
	TotalLines   uint64 `json:"total_lines"`
	ParsedLines  uint64 `json:"parsed_lines"`
	InvalidLines uint64 `json:"invalid_lines"`
}

// Latency holds the latency summary in milliseconds. Every field except
// Count is null when no line carried a request time.
type Latency struct {
	Count uint64   `json:"count"`
	Min   *int     `json:"min"`
	Avg   *float64 `json:"avg"`
	P50   *int     `json:"p50"`
	P95   *int     `json:"p95"`
	P99   *int     `json:"p99"`
	Max   *int     `json:"max"`
}

// StatusCount is one row of status_counts.
type StatusCount struct {
	Status int    `json:"status"`
	Count  uint64 `json:"count"`
}

// EndpointCount is one row of top_endpoints.
type EndpointCount struct {
	Endpoint string `json:"endpoint"`
	Count    uint64 `json:"count"`
}

// MinuteCount is one row of requests_per_minute.
type MinuteCount struct {
	Minute string `json:"minute"`
	Count  uint64 `json:"count"`
}

// NewDocument converts a finalized report to its serialized form.
func NewDocument(report *analyzer.Report) *Document {
	lat := report.Latency()
	doc := &Document{
		Summary: Summary{
			TotalLines:   report.TotalLines(),
			ParsedLines:  report.ParsedLines(),
			InvalidLines: report.InvalidLines(),
		},
		Latency: Latency{
			Count: lat.Count,
			Min:   lat.Min,
			Avg:   lat.Avg,
			P50:   lat.P50,
			P95:   lat.P95,
			P99:   lat.P99,
			Max:   lat.Max,
		},
		StatusCounts:      []StatusCount{},
		TopEndpoints:      []EndpointCount{},
		RequestsPerMinute: []MinuteCount{},
	}

	for _, s := range report.StatusCounts() {
		doc.StatusCounts = append(doc.StatusCounts, StatusCount{Status: s.Status, Count: s.Count})
	}
	for _, e := range report.TopEndpoints() {
		doc.TopEndpoints = append(doc.TopEndpoints, EndpointCount{Endpoint: e.Endpoint, Count: e.Count})
	}
	for _, m := range report.RequestsPerMinute() {
		doc.RequestsPerMinute = append(doc.RequestsPerMinute, MinuteCount{Minute: m.Minute, Count: m.Count})
	}

	return doc
}

// RunInfo describes how a report was produced. It is shown in terminal
// summaries and sent with webhooks, never written to report.json.
type RunInfo struct {
	Sources []string      `json:"sources"`
	OutDir  string        `json:"out_dir,omitempty"`
	Elapsed time.Duration `json:"-"`

	ElapsedMs      int64   `json:"elapsed_ms"`
	LinesPerSecond float64 `json:"lines_per_second"`
}

// NewRunInfo summarizes an analysis result.
func NewRunInfo(result *analyzer.Result, outDir string) RunInfo {
	return RunInfo{
		Sources:        result.Sources,
		OutDir:         outDir,
		Elapsed:        result.Elapsed,
		ElapsedMs:      result.Elapsed.Milliseconds(),
		LinesPerSecond: result.LinesPerSecond(),
	}
}
