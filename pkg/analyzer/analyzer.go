package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/logforge/pkg/parser"
)

// DefaultTopN is the endpoint ranking length used when none is configured.
const DefaultTopN = 20

// Analyzer drives a LineParser over one or more line sources and folds the
// results into a Report.
type Analyzer struct {
	parser parser.LineParser

	// Options
	topN        int
	parallelism int
	logger      *zap.Logger
	clock       clock.Clock
}

// Option configures analyzer behavior.
type Option func(*Analyzer)

// WithTopN sets how many endpoints the report ranks.
func WithTopN(n int) Option {
	return func(a *Analyzer) {
		a.topN = n
	}
}

// WithLogger sets the logger. Invalid-line reasons are logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock sets the clock used to time the run.
func WithClock(c clock.Clock) Option {
	return func(a *Analyzer) {
		if c != nil {
			a.clock = c
		}
	}
}

// WithParallelism sets how many input files AnalyzeFiles folds at once.
// Values below 1 are treated as 1.
func WithParallelism(n int) Option {
	return func(a *Analyzer) {
		a.parallelism = n
	}
}

// New creates an analyzer for the given parser.
func New(p parser.LineParser, opts ...Option) (*Analyzer, error) {
	if p == nil {
		return nil, errors.New("analyzer: nil parser")
	}

	a := &Analyzer{
		parser:      p,
		topN:        DefaultTopN,
		parallelism: 1,
		logger:      zap.NewNop(),
		clock:       clock.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.parallelism < 1 {
		a.parallelism = 1
	}

	return a, nil
}

// Result is the outcome of one analysis run.
type Result struct {
	// Report holds the aggregated statistics.
	Report *Report

	// Sources lists the inputs that were read, in the order they were opened.
	Sources []string

	StartTime time.Time
	EndTime   time.Time

	// Elapsed is the wall time of the run as measured by the analyzer clock.
	Elapsed time.Duration
}

// LinesPerSecond returns the ingest throughput of the run.
func (r *Result) LinesPerSecond() float64 {
	secs := r.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.Report.TotalLines()) / secs
}

// Analyze folds every line of source into a single report.
func (a *Analyzer) Analyze(ctx context.Context, source parser.LineSource) (*Result, error) {
	start := a.clock.Now()

	agg := NewAggregator(a.topN)
	sources, err := a.fold(ctx, source, agg)
	if err != nil {
		return nil, err
	}

	return a.finish(agg, sources, start), nil
}

// AnalyzeFiles opens and folds each path. Result.Sources lists every path,
// including empty files. With parallelism above one,
// files are folded concurrently into separate aggregators that are merged
// before the report is built. Each file is still read in order.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, paths []string) (*Result, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input files")
	}

	if a.parallelism == 1 || len(paths) == 1 {
		source := parser.NewFileSource(paths...)
		defer source.Close()

		start := a.clock.Now()
		agg := NewAggregator(a.topN)
		if _, err := a.fold(ctx, source, agg); err != nil {
			return nil, err
		}
		return a.finish(agg, paths, start), nil
	}

	start := a.clock.Now()
	partials := make([]*Aggregator, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			source := parser.NewFileSource(path)
			defer source.Close()

			agg := NewAggregator(a.topN)
			if _, err := a.fold(gctx, source, agg); err != nil {
				return err
			}
			partials[i] = agg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := partials[0]
	for _, partial := range partials[1:] {
		total.Merge(partial)
	}

	return a.finish(total, paths, start), nil
}

// fold reads source to the end, adding every line to agg. It returns the
// distinct source names seen.
func (a *Analyzer) fold(ctx context.Context, source parser.LineSource, agg *Aggregator) ([]string, error) {
	var sources []string
	seen := make(map[string]bool)

	for {
		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading log source: %w", err)
		}

		if !seen[line.Source] {
			seen[line.Source] = true
			sources = append(sources, line.Source)
			a.logger.Info("reading source", zap.String("source", line.Source))
		}

		rec, perr := a.parseLine(line)
		if perr != nil {
			agg.AddInvalid()
			if ce := a.logger.Check(zap.DebugLevel, "invalid line"); ce != nil {
				ce.Write(
					zap.String("source", line.Source),
					zap.Int("line", line.LineNum),
					zap.Error(perr),
				)
			}
			continue
		}
		agg.AddValid(rec)
	}

	total, parsed, invalid := agg.Lines()
	a.logger.Info("finished sources",
		zap.Strings("sources", sources),
		zap.Uint64("lines", total),
		zap.Uint64("parsed", parsed),
		zap.Uint64("invalid", invalid),
	)

	return sources, nil
}

// parseLine parses one line. Lines cut short by the source are invalid
// without being parsed.
func (a *Analyzer) parseLine(line *parser.LogLine) (parser.Record, error) {
	if line.TooLong {
		return parser.Record{}, parser.ErrLineTooLong
	}
	return a.parser.ParseLine(line.Content)
}

func (a *Analyzer) finish(agg *Aggregator, sources []string, start time.Time) *Result {
	report := agg.Finalize()
	end := a.clock.Now()

	return &Result{
		Report:    report,
		Sources:   sources,
		StartTime: start,
		EndTime:   end,
		Elapsed:   end.Sub(start),
	}
}
