package parser

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// LineParser extracts a Record from a single log line.
// Implementations are pure: they hold no per-line state and do no I/O, so the
// same line always yields the same result.
type LineParser interface {
	// Name returns the log syntax name used to select the parser.
	Name() string

	// Parse returns the Record for line, or false if the line is invalid.
	Parse(line string) (Record, bool)

	// ParseLine is Parse with the reason for rejection. The returned error
	// matches one of the Err* sentinels in this package via errors.Is.
	ParseLine(line string) (Record, error)
}

// LineSource provides sequential access to raw log lines.
// Implementations are not safe for concurrent use.
type LineSource interface {
	// Next returns the next line. Returns io.EOF when no lines remain.
	Next(ctx context.Context) (*LogLine, error)

	// Close releases any resources held by the source.
	Close() error
}

// DefaultFormat is the log syntax used when none is configured.
const DefaultFormat = "combined"

var registry = map[string]func() LineParser{
	"combined": func() LineParser { return NewCombinedParser() },
	"json":     func() LineParser { return NewJSONParser() },
}

// Lookup returns the parser registered under name.
func Lookup(name string) (LineParser, error) {
	newParser, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown log format %q (use %s)", name, strings.Join(Formats(), " or "))
	}
	return newParser(), nil
}

// Formats returns the registered log syntax names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns one instance of every registered parser, ordered by name.
func All() []LineParser {
	names := Formats()
	parsers := make([]LineParser, 0, len(names))
	for _, name := range names {
		parsers = append(parsers, registry[name]())
	}
	return parsers
}
