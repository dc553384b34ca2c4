package analyzer

import (
	"strings"

	"github.com/ccollicutt/logforge/pkg/parser"
)

// Aggregator accumulates statistics over a stream of parsed records.
//
// Memory grows with the number of distinct endpoints, minutes and status
// codes, never with the number of lines. An Aggregator is not safe for
// concurrent use; fold one stream per Aggregator and Merge them afterwards.
//
// Finalize hands the accumulated state to a Report. The Aggregator is
// unusable afterwards and any further call panics.
type Aggregator struct {
	topN int

	totalLines   uint64
	parsedLines  uint64
	invalidLines uint64

	statuses  map[int]uint64
	endpoints map[string]uint64
	minutes   map[string]uint64
	latency   *Histogram

	finalized bool
}

// NewAggregator creates an empty Aggregator. topN only affects how many
// endpoints the final report ranks, not what is accumulated.
func NewAggregator(topN int) *Aggregator {
	return &Aggregator{
		topN:      topN,
		statuses:  make(map[int]uint64),
		endpoints: make(map[string]uint64),
		minutes:   make(map[string]uint64),
		latency:   NewHistogram(),
	}
}

// AddValid folds one parsed record into the totals.
func (a *Aggregator) AddValid(rec parser.Record) {
	a.mustBeOpen()

	a.totalLines++
	a.parsedLines++

	a.statuses[rec.Status]++
	incrementKey(a.endpoints, rec.Endpoint, 1)
	if rec.MinuteKey != "" {
		incrementKey(a.minutes, rec.MinuteKey, 1)
	}

	if ms, ok := rec.Latency.Millis(); ok {
		a.latency.Add(ms)
	}
}

// AddInvalid counts one line that could not be parsed.
func (a *Aggregator) AddInvalid() {
	a.mustBeOpen()

	a.totalLines++
	a.invalidLines++
}

// Lines returns the running line counters.
func (a *Aggregator) Lines() (total, parsed, invalid uint64) {
	return a.totalLines, a.parsedLines, a.invalidLines
}

// Merge adds everything other has accumulated into a. other is left
// untouched and may still be finalized on its own.
func (a *Aggregator) Merge(other *Aggregator) {
	a.mustBeOpen()
	other.mustBeOpen()

	a.totalLines += other.totalLines
	a.parsedLines += other.parsedLines
	a.invalidLines += other.invalidLines

	for status, n := range other.statuses {
		a.statuses[status] += n
	}
	for endpoint, n := range other.endpoints {
		incrementKey(a.endpoints, endpoint, n)
	}
	for minute, n := range other.minutes {
		incrementKey(a.minutes, minute, n)
	}
	a.latency.Merge(other.latency)
}

// Finalize computes the derived latency statistics and returns the
// immutable Report.
func (a *Aggregator) Finalize() *Report {
	a.mustBeOpen()
	a.finalized = true

	h := a.latency
	mean, hasMean := h.Mean()
	minMs, hasMin := h.Min()
	maxMs, hasMax := h.Max()
	p50, has50 := h.Percentile(0.50)
	p95, has95 := h.Percentile(0.95)
	p99, has99 := h.Percentile(0.99)

	report := &Report{
		topN:           a.topN,
		totalLines:     a.totalLines,
		parsedLines:    a.parsedLines,
		invalidLines:   a.invalidLines,
		statusCounts:   a.statuses,
		endpointCounts: a.endpoints,
		minuteCounts:   a.minutes,
		latency: LatencySummary{
			Count: h.Count(),
			Min:   optionalInt(minMs, hasMin),
			Max:   optionalInt(maxMs, hasMax),
			Avg:   optionalFloat(mean, hasMean),
			P50:   optionalInt(p50, has50),
			P95:   optionalInt(p95, has95),
			P99:   optionalInt(p99, has99),
		},
		buckets: h.BucketCounts(),
	}

	// The report owns the maps now.
	a.statuses = nil
	a.endpoints = nil
	a.minutes = nil
	a.latency = nil

	return report
}

func (a *Aggregator) mustBeOpen() {
	if a.finalized {
		panic("analyzer: Aggregator used after Finalize")
	}
}

// incrementKey adds n to m[key], copying key on first insert so the map
// does not pin the line the key was sliced from.
func incrementKey(m map[string]uint64, key string, n uint64) {
	if _, ok := m[key]; ok {
		m[key] += n
		return
	}
	m[strings.Clone(key)] = n
}
