// Package analyzer folds parsed access-log records into aggregate statistics.
package analyzer

// StatusCount is the number of requests that returned one status code.
type StatusCount struct {
	Status int
	Count  uint64
}

// EndpointCount is the number of requests for one endpoint.
type EndpointCount struct {
	Endpoint string
	Count    uint64
}

// MinuteCount is the number of requests logged within one minute.
type MinuteCount struct {
	Minute string
	Count  uint64
}

// LatencySummary describes the latency distribution of a run, in
// milliseconds. Every field except Count is nil when Count is zero.
type LatencySummary struct {
	Count uint64
	Min   *int
	Max   *int
	Avg   *float64
	P50   *int
	P95   *int
	P99   *int
}

func (s LatencySummary) clone() LatencySummary {
	return LatencySummary{
		Count: s.Count,
		Min:   cloneInt(s.Min),
		Max:   cloneInt(s.Max),
		Avg:   cloneFloat(s.Avg),
		P50:   cloneInt(s.P50),
		P95:   cloneInt(s.P95),
		P99:   cloneInt(s.P99),
	}
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func optionalInt(v int, ok bool) *int {
	if !ok {
		return nil
	}
	return &v
}

func optionalFloat(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
