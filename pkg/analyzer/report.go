package analyzer

import "sort"

// Report is the immutable result of one analysis run. It exposes read-only
// views; every slice or map it returns is a fresh copy.
type Report struct {
	topN int

	totalLines   uint64
	parsedLines  uint64
	invalidLines uint64

	statusCounts   map[int]uint64
	endpointCounts map[string]uint64
	minuteCounts   map[string]uint64

	latency LatencySummary
	buckets []uint64
}

// TotalLines returns the number of lines read. Always ParsedLines + InvalidLines.
func (r *Report) TotalLines() uint64 { return r.totalLines }

// ParsedLines returns the number of lines that produced a record.
func (r *Report) ParsedLines() uint64 { return r.parsedLines }

// InvalidLines returns the number of lines that could not be parsed.
func (r *Report) InvalidLines() uint64 { return r.invalidLines }

// TopN returns the configured endpoint ranking length.
func (r *Report) TopN() int { return r.topN }

// Latency returns the latency summary.
func (r *Report) Latency() LatencySummary { return r.latency.clone() }

// LatencyBuckets returns the histogram bucket counts behind the latency
// summary. Bucket i covers [i*BucketWidthMs, (i+1)*BucketWidthMs); the last
// bucket holds everything at or above HistogramRangeMs.
func (r *Report) LatencyBuckets() []uint64 {
	out := make([]uint64, len(r.buckets))
	copy(out, r.buckets)
	return out
}

// StatusCounts returns per-status counts in ascending status order.
func (r *Report) StatusCounts() []StatusCount {
	out := make([]StatusCount, 0, len(r.statusCounts))
	for status, n := range r.statusCounts {
		out = append(out, StatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Status < out[j].Status
	})
	return out
}

// Endpoints returns every endpoint ranked by descending count, ties broken
// by ascending endpoint.
func (r *Report) Endpoints() []EndpointCount {
	out := make([]EndpointCount, 0, len(r.endpointCounts))
	for endpoint, n := range r.endpointCounts {
		out = append(out, EndpointCount{Endpoint: endpoint, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Endpoint < out[j].Endpoint
	})
	return out
}

// TopEndpoints returns the first TopN entries of Endpoints.
func (r *Report) TopEndpoints() []EndpointCount {
	ranked := r.Endpoints()
	if r.topN <= 0 {
		return ranked[:0]
	}
	if len(ranked) > r.topN {
		ranked = ranked[:r.topN]
	}
	return ranked
}

// RequestsPerMinute returns per-minute counts in chronological order.
func (r *Report) RequestsPerMinute() []MinuteCount {
	out := make([]MinuteCount, 0, len(r.minuteCounts))
	for minute, n := range r.minuteCounts {
		out = append(out, MinuteCount{Minute: minute, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Minute < out[j].Minute
	})
	return out
}

// StatusCount returns the count for one status code.
func (r *Report) StatusCount(status int) uint64 { return r.statusCounts[status] }

// EndpointCount returns the count for one endpoint.
func (r *Report) EndpointCount(endpoint string) uint64 { return r.endpointCounts[endpoint] }

// MinuteCount returns the count for one minute key.
func (r *Report) MinuteCount(minute string) uint64 { return r.minuteCounts[minute] }

// DistinctEndpoints returns how many different endpoints were seen.
func (r *Report) DistinctEndpoints() int { return len(r.endpointCounts) }

// PeakMinute returns the busiest minute, the earliest one on ties.
func (r *Report) PeakMinute() (MinuteCount, bool) {
	var peak MinuteCount
	found := false
	for minute, n := range r.minuteCounts {
		if !found || n > peak.Count || (n == peak.Count && minute < peak.Minute) {
			peak = MinuteCount{Minute: minute, Count: n}
			found = true
		}
	}
	return peak, found
}
