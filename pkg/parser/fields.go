package parser

import (
	"strconv"
	"strings"
)

// maxLatencySeconds bounds plausible request times; anything at or above it
// is treated as garbage rather than a latency.
const maxLatencySeconds = 3600.0

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func trimLeft(s string) string {
	for len(s) > 0 && isSpace(s[0]) {
		s = s[1:]
	}
	return s
}

func trimRight(s string) string {
	for len(s) > 0 && isSpace(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	return s
}

func trim(s string) string {
	return trimRight(trimLeft(s))
}

func parseInt(s string) (int, bool) {
	s = trim(s)
	if s == "" || s[0] == '+' {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseFloat accepts plain decimal and exponent notation only. A leading
// '+' and hex floats are rejected, as ParseFloat would otherwise take them.
func parseFloat(s string) (float64, bool) {
	s = trim(s)
	if s == "" || s[0] == '+' || strings.ContainsAny(s, "xX") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// lastToken returns the final whitespace-delimited token of line.
func lastToken(line string) string {
	line = trimRight(line)
	for i := len(line) - 1; i >= 0; i-- {
		if isSpace(line[i]) {
			return line[i+1:]
		}
	}
	return line
}

// firstToken returns the leading whitespace-delimited token of s.
func firstToken(s string) string {
	s = trimLeft(s)
	for i := 0; i < len(s); i++ {
		if isSpace(s[i]) {
			return s[:i]
		}
	}
	return s
}

// latencyFromSeconds converts a request time in seconds to whole
// milliseconds, truncating toward zero. Out-of-range values are unknown.
func latencyFromSeconds(sec float64) Latency {
	if !(sec >= 0 && sec < maxLatencySeconds) {
		return Latency{}
	}
	return KnownLatency(int(sec * 1000))
}

// endpointFromRequest extracts the endpoint from a request line such as
// "GET /a?b=1 HTTP/1.1".
func endpointFromRequest(request string) (string, error) {
	request = trim(request)

	sp1 := strings.IndexByte(request, ' ')
	sp2 := strings.LastIndexByte(request, ' ')
	if sp1 < 0 || sp1 == sp2 {
		return "", ErrMalformedRequest
	}

	path := trim(request[sp1+1 : sp2])
	if path == "" {
		return "", ErrMalformedRequest
	}

	return endpointFromPath(path), nil
}

// endpointFromPath reduces an absolute URL to its path and drops the
// query string. An empty result becomes "/".
func endpointFromPath(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		host := strings.Index(path, "://") + len("://")
		if slash := strings.IndexByte(path[host:], '/'); slash >= 0 {
			path = path[host+slash:]
		} else {
			path = "/"
		}
	}

	if q := strings.IndexByte(path, '?'); q >= 0 {
		path = path[:q]
	}
	if path == "" {
		return "/"
	}
	return path
}
