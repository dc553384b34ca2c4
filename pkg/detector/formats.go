package detector

import "github.com/ccollicutt/logforge/pkg/parser"

// FormatInfo describes a registered log syntax for humans.
type FormatInfo struct {
	Name        string
	Description string
	Example     string
}

var formatInfo = map[string]FormatInfo{
	"combined": {
		Name:        "combined",
		Description: "NCSA combined access log, optionally followed by the request time in seconds",
		Example:     `127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET /index.html HTTP/1.1" 200 2326 "-" "curl/8.0" 0.123`,
	},
	"json": {
		Name:        "json",
		Description: "one JSON object per line with time_local, request, status and request_time",
		Example:     `{"time_local":"10/Oct/2000:13:55:36 -0700","request":"GET /index.html HTTP/1.1","status":200,"request_time":0.123}`,
	},
}

// Describe returns the description of a registered log syntax.
func Describe(name string) FormatInfo {
	if info, ok := formatInfo[name]; ok {
		return info
	}
	return FormatInfo{Name: name}
}

// Examples returns one example line per registered log syntax, ordered by name.
func Examples() []FormatInfo {
	names := parser.Formats()
	out := make([]FormatInfo, 0, len(names))
	for _, name := range names {
		out = append(out, Describe(name))
	}
	return out
}
