package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// CSV file names written by WriteFiles.
const (
	StatusCountsCSV      = "status_counts.csv"
	TopEndpointsCSV      = "top_endpoints.csv"
	RequestsPerMinuteCSV = "requests_per_minute.csv"
	LatencySummaryCSV    = "latency_summary.csv"
)

// WriteStatusCSV writes status,count rows in ascending status order.
func WriteStatusCSV(doc *Document, w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("status,count\n")
	for _, s := range doc.StatusCounts {
		bw.WriteString(strconv.Itoa(s.Status))
		bw.WriteByte(',')
		bw.WriteString(strconv.FormatUint(s.Count, 10))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteEndpointsCSV writes endpoint,count rows in ranked order. Endpoints are
// always quoted.
func WriteEndpointsCSV(doc *Document, w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("endpoint,count\n")
	for _, e := range doc.TopEndpoints {
		bw.WriteString(quoteField(e.Endpoint))
		bw.WriteByte(',')
		bw.WriteString(strconv.FormatUint(e.Count, 10))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteMinutesCSV writes minute,count rows in chronological order. Minutes
// are always quoted.
func WriteMinutesCSV(doc *Document, w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("minute,count\n")
	for _, m := range doc.RequestsPerMinute {
		bw.WriteString(quoteField(m.Minute))
		bw.WriteByte(',')
		bw.WriteString(strconv.FormatUint(m.Count, 10))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteLatencyCSV writes the latency summary as key,value rows. Absent values
// are left empty.
func WriteLatencyCSV(doc *Document, w io.Writer) error {
	lat := doc.Latency
	rows := [][2]string{
		{"count", strconv.FormatUint(lat.Count, 10)},
		{"min_ms", formatOptionalInt(lat.Min, "")},
		{"avg_ms", formatOptionalFloat(lat.Avg, "")},
		{"p50_ms", formatOptionalInt(lat.P50, "")},
		{"p95_ms", formatOptionalInt(lat.P95, "")},
		{"p99_ms", formatOptionalInt(lat.P99, "")},
		{"max_ms", formatOptionalInt(lat.Max, "")},
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("key,value\n")
	for _, row := range rows {
		bw.WriteString(row[0])
		bw.WriteByte(',')
		bw.WriteString(row[1])
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// quoteField wraps s in double quotes, doubling any embedded quote.
func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
