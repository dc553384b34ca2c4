package parser

import (
	"github.com/tidwall/gjson"
)

// JSONParser parses access logs written one JSON object per line, as produced
// by an nginx log_format with escape=json:
//
//	{"time_local":"10/Oct/2000:13:55:36 -0700","request":"GET / HTTP/1.1","status":200,"request_time":0.004}
//
// Field values go through the same timestamp, request and latency rules as
// the combined syntax, so equivalent lines produce identical Records.
type JSONParser struct {
	timeField    string
	requestField string
	statusField  string
	latencyField string
}

// NewJSONParser creates a JSON-lines parser using the nginx field names.
func NewJSONParser() *JSONParser {
	return &JSONParser{
		timeField:    "time_local",
		requestField: "request",
		statusField:  "status",
		latencyField: "request_time",
	}
}

// Name returns the format name.
func (p *JSONParser) Name() string {
	return "json"
}

// Parse returns the Record for line, or false if the line is invalid.
func (p *JSONParser) Parse(line string) (Record, bool) {
	rec, err := p.ParseLine(line)
	return rec, err == nil
}

// ParseLine parses line and reports why it was rejected, if it was.
func (p *JSONParser) ParseLine(line string) (Record, error) {
	line = trim(line)
	if line == "" || line[0] != '{' || !gjson.Valid(line) {
		return Record{}, ErrInvalidJSON
	}

	fields := gjson.GetMany(line, p.timeField, p.requestField, p.statusField, p.latencyField)
	ts, request, status, requestTime := fields[0], fields[1], fields[2], fields[3]

	if ts.Type != gjson.String || ts.Str == "" {
		return Record{}, ErrNoTimestamp
	}
	minuteKey, err := MinuteKey(ts.Str)
	if err != nil {
		return Record{}, err
	}

	if request.Type != gjson.String || request.Str == "" {
		return Record{}, ErrNoRequest
	}
	endpoint, err := endpointFromRequest(request.Str)
	if err != nil {
		return Record{}, err
	}

	code, ok := jsonInt(status)
	if !ok {
		return Record{}, ErrBadStatus
	}

	var latency Latency
	if sec, ok := jsonFloat(requestTime); ok {
		latency = latencyFromSeconds(sec)
	}

	return Record{
		Endpoint:  endpoint,
		Status:    code,
		Latency:   latency,
		MinuteKey: minuteKey,
	}, nil
}

// jsonInt accepts integers written either as JSON numbers or as strings,
// since nginx emits every variable as a string unless told otherwise.
func jsonInt(r gjson.Result) (int, bool) {
	switch r.Type {
	case gjson.Number:
		return parseInt(r.Raw)
	case gjson.String:
		return parseInt(r.Str)
	}
	return 0, false
}

func jsonFloat(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Num, true
	case gjson.String:
		return parseFloat(r.Str)
	}
	return 0, false
}
