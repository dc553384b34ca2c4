// Package detector identifies which registered log syntax a file is written in.
package detector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ccollicutt/logforge/pkg/parser"
)

// DefaultSampleSize is the number of lines sampled when none is configured.
const DefaultSampleSize = 100

// DetectionResult holds the result of analyzing a log file.
type DetectionResult struct {
	Matches      []FormatMatch // Syntaxes that parsed at least one line, by confidence descending
	SampledLines int           // Number of lines sampled
	ParsedLines  int           // Number of lines the best syntax parsed
	LatencyNote  string        // Warning when the best syntax finds no request times
}

// FormatMatch represents a syntax that parsed some lines, with its confidence score.
type FormatMatch struct {
	Format       FormatInfo
	Confidence   float64       // 0.0 to 1.0 (fraction of sampled lines parsed)
	MatchCount   int           // Number of lines parsed
	LatencyCount int           // Number of parsed lines carrying a request time
	SampleLine   string        // Example line that parsed
	SampleRecord parser.Record // Record parsed from SampleLine
}

// Detector samples log lines and tries every registered parser on them.
type Detector struct {
	parsers    []parser.LineParser
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithParsers replaces the registered parsers that are tried.
func WithParsers(parsers ...parser.LineParser) Option {
	return func(d *Detector) {
		if len(parsers) > 0 {
			d.parsers = parsers
		}
	}
}

// New creates a new Detector that tries every registered syntax.
func New(opts ...Option) *Detector {
	d := &Detector{
		parsers:    parser.All(),
		sampleSize: DefaultSampleSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile samples a log file and returns the syntaxes that parse it.
// Compressed files and "-" for stdin are handled like the analyze command does.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines tries every parser on lines. Blank lines are ignored.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{}

	type formatStats struct {
		matchCount   int
		latencyCount int
		sampleLine   string
		sampleRecord parser.Record
	}
	stats := make(map[string]*formatStats)

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		result.SampledLines++

		for _, p := range d.parsers {
			rec, ok := p.Parse(line)
			if !ok {
				continue
			}

			s := stats[p.Name()]
			if s == nil {
				s = &formatStats{sampleLine: line, sampleRecord: rec}
				stats[p.Name()] = s
			}
			s.matchCount++
			if rec.Latency.Known() {
				s.latencyCount++
			}
		}
	}

	if result.SampledLines == 0 {
		return result
	}

	for name, s := range stats {
		result.Matches = append(result.Matches, FormatMatch{
			Format:       Describe(name),
			Confidence:   float64(s.matchCount) / float64(result.SampledLines),
			MatchCount:   s.matchCount,
			LatencyCount: s.latencyCount,
			SampleLine:   s.sampleLine,
			SampleRecord: s.sampleRecord,
		})
	}

	// Sort by confidence descending, then by name for a stable order
	sort.Slice(result.Matches, func(i, j int) bool {
		if result.Matches[i].Confidence != result.Matches[j].Confidence {
			return result.Matches[i].Confidence > result.Matches[j].Confidence
		}
		return result.Matches[i].Format.Name < result.Matches[j].Format.Name
	})

	if best := result.BestMatch(); best != nil {
		result.ParsedLines = best.MatchCount
		if best.LatencyCount == 0 {
			result.LatencyNote = "No sampled line carries a request time. " +
				"The latency summary will be empty; add $request_time to the log format to populate it."
		}
	}

	return result
}

// sampleFile reads up to sampleSize non-blank lines.
// Uses simple head sampling for efficiency.
func (d *Detector) sampleFile(ctx context.Context, path string) ([]string, error) {
	source := parser.NewFileSource(path)
	defer source.Close()

	var lines []string
	for len(lines) < d.sampleSize {
		line, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sampling %s: %w", path, err)
		}
		if !line.TooLong && strings.TrimSpace(line.Content) != "" {
			lines = append(lines, line.Content)
		}
	}

	return lines, nil
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *DetectionResult) BestMatch() *FormatMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one syntax parsed a line.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}
