package parser

import "strings"

// CombinedParser parses the nginx/Apache combined access-log syntax:
//
//	<client> - <user> [<time>] "<request>" <status> <size> "<referer>" "<ua>" [<request_time>]
//
// Parsing is anchored on the bracketed timestamp and the first quoted span
// after it, never on the position of leading fields, so clients written as
// IPv6 addresses or hostnames do not matter.
type CombinedParser struct{}

// NewCombinedParser creates a combined-log parser.
func NewCombinedParser() *CombinedParser {
	return &CombinedParser{}
}

// Name returns the format name.
func (p *CombinedParser) Name() string {
	return "combined"
}

// Parse returns the Record for line, or false if the line is invalid.
func (p *CombinedParser) Parse(line string) (Record, bool) {
	rec, err := p.ParseLine(line)
	return rec, err == nil
}

// ParseLine parses line and reports why it was rejected, if it was.
func (p *CombinedParser) ParseLine(line string) (Record, error) {
	// Timestamp between [ and ].
	lb := strings.IndexByte(line, '[')
	if lb < 0 {
		return Record{}, ErrNoTimestamp
	}
	rb := indexByteFrom(line, ']', lb+1)
	if rb < 0 || rb == lb+1 {
		return Record{}, ErrNoTimestamp
	}

	minuteKey, err := MinuteKey(line[lb+1 : rb])
	if err != nil {
		return Record{}, err
	}

	// Request line: first quoted span after the timestamp.
	q1 := indexByteFrom(line, '"', rb)
	if q1 < 0 {
		return Record{}, ErrNoRequest
	}
	q2 := indexByteFrom(line, '"', q1+1)
	if q2 < 0 || q2 == q1+1 {
		return Record{}, ErrNoRequest
	}

	endpoint, err := endpointFromRequest(line[q1+1 : q2])
	if err != nil {
		return Record{}, err
	}

	// Status follows the closing quote.
	status, ok := parseInt(firstToken(line[q2+1:]))
	if !ok {
		return Record{}, ErrBadStatus
	}

	// Optional trailing request time, in seconds.
	var latency Latency
	if sec, ok := parseFloat(lastToken(line)); ok {
		latency = latencyFromSeconds(sec)
	}

	return Record{
		Endpoint:  endpoint,
		Status:    status,
		Latency:   latency,
		MinuteKey: minuteKey,
	}, nil
}
