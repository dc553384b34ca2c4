// Package parser turns raw access-log lines into structured records and
// provides the buffered line sources the analyzer reads from.
package parser

import "strconv"

// Record is the structured form of one successfully parsed access-log line.
// A Record is always fully populated; a line that cannot produce every field
// produces no Record at all.
type Record struct {
	// Endpoint is the request path with any query string removed. Never empty.
	Endpoint string

	// Status is the HTTP status code.
	Status int

	// Latency is the request time, when the line carried one.
	Latency Latency

	// MinuteKey is the request timestamp truncated to the minute, formatted
	// as "YYYY-MM-DD HH:MM". Lexical order equals chronological order.
	MinuteKey string
}

// Latency is an optional request duration in whole milliseconds.
// The zero value means the latency is unknown.
type Latency struct {
	ms    int
	known bool
}

// KnownLatency returns a Latency holding ms milliseconds.
// Negative values are treated as unknown.
func KnownLatency(ms int) Latency {
	if ms < 0 {
		return Latency{}
	}
	return Latency{ms: ms, known: true}
}

// Millis returns the latency in milliseconds and whether it is known.
func (l Latency) Millis() (int, bool) {
	return l.ms, l.known
}

// Known reports whether the latency was present on the line.
func (l Latency) Known() bool {
	return l.known
}

func (l Latency) String() string {
	if !l.known {
		return "unknown"
	}
	return strconv.Itoa(l.ms) + "ms"
}

// LogLine is a raw line read from a log source, before parsing.
type LogLine struct {
	// Content is the raw line text without the line terminator.
	Content string

	// Source is the path the line came from ("-" for stdin).
	Source string

	// LineNum is the 1-based line number within Source.
	LineNum int

	// TooLong is set when the line exceeded MaxLineSize. Content then holds
	// only its first MaxLineSize bytes and the line must be counted invalid.
	TooLong bool
}
