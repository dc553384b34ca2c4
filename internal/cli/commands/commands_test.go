package commands

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/ccollicutt/logforge/pkg/detector"
	"github.com/ccollicutt/logforge/pkg/output"
)

const (
	lineA     = `10.0.0.1 - - [01/Jan/2025:00:00:05 +0000] "GET /a HTTP/1.1" 200 12 "-" "curl" 0.100`
	lineB     = `10.0.0.2 - - [01/Jan/2025:00:00:30 +0000] "POST /b?x=1 HTTP/1.1" 404 0 "-" "curl" 0.200`
	lineC     = `10.0.0.1 - - [01/Jan/2025:00:01:10 +0000] "GET /a HTTP/1.1" 200 12 "-" "curl" 0.300`
	noLatency = `10.0.0.1 - - [01/Jan/2025:00:00:05 +0000] "GET /a HTTP/1.1" 200 12 "-" "curl"`
)

// isolate runs the test in an empty working directory with an empty HOME so
// no config file is discovered.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())
	return dir
}

func writeFile(t *testing.T, name string, lines ...string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return name
}

func newTestRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "logforge",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewAnalyzeCommand())
	root.AddCommand(NewDetectCommand())
	root.AddCommand(NewDiagnoseCommand())
	root.AddCommand(NewValidateCommand())
	root.AddCommand(NewVersionCommand())
	return root
}

// execute runs a fresh command tree and returns stdout, stderr and the error.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	root := newTestRoot()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ExitOK, CodeOf(nil))
	assert.Equal(t, ExitUsage, CodeOf(errors.New("plain")))
	assert.Equal(t, ExitUsage, CodeOf(usageError("bad %s", "flag")))
	assert.Equal(t, ExitWriteFailed, CodeOf(writeError("disk full")))

	wrapped := errors.Join(errors.New("context"), writeError("disk full"))
	assert.Equal(t, ExitWriteFailed, CodeOf(wrapped))
}

func TestExitError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := usageError("loading: %w", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "loading: root cause", err.Error())
}

func TestAnalyze_WritesReport(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA, "MALFORMED", lineB, lineC)

	stdout, _, err := execute(t, nil, "analyze", "access.log", "--out", "report", "--summary", "quiet")
	require.NoError(t, err)
	assert.Equal(t, "logforge: total_lines=4 parsed=3 invalid=1 latency_count=3 avg=200 p95~=300\n", stdout)

	report := readFile(t, filepath.Join("report", output.ReportJSON))
	assert.Equal(t, int64(4), gjson.Get(report, "summary.total_lines").Int())
	assert.Equal(t, int64(1), gjson.Get(report, "summary.invalid_lines").Int())
	assert.Equal(t, "/a", gjson.Get(report, "top_endpoints.0.endpoint").String())
	assert.Equal(t, int64(100), gjson.Get(report, "latency_ms.min").Int())

	assert.Equal(t, "status,count\n200,2\n404,1\n", readFile(t, filepath.Join("report", output.StatusCountsCSV)))
	for _, name := range []string{output.TopEndpointsCSV, output.RequestsPerMinuteCSV, output.LatencySummaryCSV} {
		assert.FileExists(t, filepath.Join("report", name))
	}
}

func TestAnalyze_DefaultSummaryIsQuietWhenPiped(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA)

	stdout, _, err := execute(t, nil, "analyze", "access.log")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "logforge: total_lines=1 "), stdout)
	assert.FileExists(t, filepath.Join("out", output.ReportJSON))
}

func TestAnalyze_TextSummary(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA, lineB)

	stdout, _, err := execute(t, nil, "analyze", "access.log", "--summary", "text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "=== logforge report ===")
	assert.Contains(t, stdout, "Lines: 2 total, 2 parsed, 0 invalid")
	assert.Contains(t, stdout, "Wrote: out/report.json + CSVs")
}

func TestAnalyze_JSONSummary(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA, lineB)

	stdout, _, err := execute(t, nil, "analyze", "access.log", "--summary", "json")
	require.NoError(t, err)
	assert.True(t, gjson.Valid(stdout))
	assert.Equal(t, int64(2), gjson.Get(stdout, "summary.parsed_lines").Int())
}

func TestAnalyze_NoSummary(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA)

	stdout, _, err := execute(t, nil, "analyze", "access.log", "--summary", "none")
	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestAnalyze_Stdin(t *testing.T) {
	isolate(t)

	stdin := strings.NewReader(strings.Join([]string{lineA, lineC, "junk"}, "\n"))
	stdout, _, err := execute(t, stdin, "analyze", "-", "--summary", "quiet")
	require.NoError(t, err)
	assert.Contains(t, stdout, "total_lines=3 parsed=2 invalid=1")
}

func TestAnalyze_GlobAndParallel(t *testing.T) {
	isolate(t)
	require.NoError(t, os.Mkdir("logs", 0755))
	writeFile(t, filepath.Join("logs", "1.log"), lineA, lineB)
	writeFile(t, filepath.Join("logs", "2.log"), lineC)

	stdout, _, err := execute(t, nil, "analyze", "logs/*.log", "--parallel", "2", "--summary", "quiet")
	require.NoError(t, err)
	assert.Contains(t, stdout, "total_lines=3 parsed=3 invalid=0")
}

func TestAnalyze_Bench(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA, "MALFORMED")

	stdout, _, err := execute(t, nil, "analyze", "access.log", "--bench")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "BENCH\n"), stdout)
	assert.Contains(t, stdout, "  lines: 2\n")
	assert.Contains(t, stdout, "  invalid: 1\n")
	assert.Contains(t, stdout, "lines/s")
	assert.NoDirExists(t, "out")
}

func TestAnalyze_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing input", []string{"analyze", "missing.log"}, ExitUsage},
		{"top zero", []string{"analyze", "access.log", "--top", "0"}, ExitUsage},
		{"unknown format", []string{"analyze", "access.log", "--format", "xml"}, ExitUsage},
		{"unknown summary", []string{"analyze", "access.log", "--summary", "fancy"}, ExitUsage},
		{"bad webhook url", []string{"analyze", "access.log", "--webhook-url", "ftp://example.com"}, ExitUsage},
		{"missing config", []string{"analyze", "access.log", "--config", "nope.yaml"}, ExitUsage},
		{"unwritable out dir", []string{"analyze", "access.log", "--out", "blocker/report"}, ExitWriteFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			writeFile(t, "access.log", lineA)
			writeFile(t, "blocker", "not a directory")

			_, _, err := execute(t, nil, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))
		})
	}
}

func TestAnalyze_NoArgs(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, nil, "analyze")
	require.Error(t, err)
	assert.Equal(t, ExitUsage, CodeOf(err))
}

func TestAnalyze_ConfigFileAndOverrides(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA, lineB, lineC)
	writeFile(t, "logforge.yaml", "top_n: 1", "out_dir: from-config", "summary: none")

	_, _, err := execute(t, nil, "analyze", "access.log")
	require.NoError(t, err)
	report := readFile(t, filepath.Join("from-config", output.ReportJSON))
	assert.Len(t, gjson.Get(report, "top_endpoints").Array(), 1)

	// Explicit flags win over the config file.
	_, _, err = execute(t, nil, "analyze", "access.log", "--top", "2", "--out", "from-flag")
	require.NoError(t, err)
	report = readFile(t, filepath.Join("from-flag", output.ReportJSON))
	assert.Len(t, gjson.Get(report, "top_endpoints").Array(), 2)
}

func TestAnalyze_EnvOverride(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA, lineB)
	t.Setenv("LOGFORGE_TOP_N", "1")
	t.Setenv("LOGFORGE_OUT_DIR", "env-out")

	_, _, err := execute(t, nil, "analyze", "access.log", "--summary", "none")
	require.NoError(t, err)
	report := readFile(t, filepath.Join("env-out", output.ReportJSON))
	assert.Len(t, gjson.Get(report, "top_endpoints").Array(), 1)
}

func TestAnalyze_DebugLogging(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA, "MALFORMED")

	_, stderr, err := execute(t, nil, "analyze", "access.log", "--summary", "none", "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, stderr, "invalid line")
	assert.Contains(t, stderr, "no bracketed timestamp")
}

func TestAnalyze_Webhook(t *testing.T) {
	var received []byte
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	isolate(t)
	writeFile(t, "access.log", lineA, "MALFORMED")

	_, _, err := execute(t, nil, "analyze", "access.log", "--summary", "none",
		"--webhook-url", server.URL, "--webhook-token", "secret")
	require.NoError(t, err)

	require.NotEmpty(t, received, "webhook was not called")
	body := string(received)
	assert.Equal(t, "logforge.report", gjson.Get(body, "event").String())
	assert.Equal(t, int64(1), gjson.Get(body, "report.summary.invalid_lines").Int())
	assert.Equal(t, "Bearer secret", auth)
}

func TestAnalyze_WebhookNotFiredWithoutInvalidLines(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	isolate(t)
	writeFile(t, "access.log", lineA)

	_, _, err := execute(t, nil, "analyze", "access.log", "--summary", "none", "--webhook-url", server.URL)
	require.NoError(t, err)
	assert.False(t, called)
}

func TestAnalyze_WebhookFailureDoesNotFailRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	isolate(t)
	writeFile(t, "access.log", lineA)

	_, _, err := execute(t, nil, "analyze", "access.log", "--summary", "none",
		"--webhook-url", server.URL, "--webhook-trigger", "always")
	require.NoError(t, err)
}

func TestDetect_Text(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA, lineB)

	stdout, _, err := execute(t, nil, "detect", "access.log")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Detected Format: combined")
	assert.Contains(t, stdout, "Parsed as: endpoint=/a status=200 latency=100ms")
	assert.Contains(t, stdout, "logforge analyze --format combined access.log")
}

func TestDetect_JSONLines(t *testing.T) {
	isolate(t)
	writeFile(t, "access.json.log", detector.Describe("json").Example)

	stdout, _, err := execute(t, nil, "detect", "access.json.log", "--output", "json")
	require.NoError(t, err)
	assert.Equal(t, "json", gjson.Get(stdout, "matches.0.name").String())
	assert.Equal(t, int64(1), gjson.Get(stdout, "sampled_lines").Int())
}

func TestDetect_NoMatch(t *testing.T) {
	isolate(t)
	writeFile(t, "notes.txt", "hello", "world")

	stdout, _, err := execute(t, nil, "detect", "notes.txt")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No supported log syntax detected.")
	assert.Contains(t, stdout, detector.Describe("combined").Example)
}

func TestDetect_BadOutput(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA)

	_, _, err := execute(t, nil, "detect", "access.log", "--output", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitUsage, CodeOf(err))
}

func TestDetect_WriteConfig(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA)

	stdout, _, err := execute(t, nil, "detect", "access.log", "--write-config", "logforge.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote starter config to: logforge.yaml")

	// The starter config must load and drive analyze.
	_, _, err = execute(t, nil, "validate", "logforge.yaml")
	require.NoError(t, err)

	// Existing files are never overwritten.
	_, _, err = execute(t, nil, "detect", "access.log", "--write-config", "logforge.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitUsage, CodeOf(err))
}

func TestDiagnose_Rejections(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA, "MALFORMED", lineB, `10.0.0.1 - - [01/Foo/2025:00:00:05 +0000] "GET /a HTTP/1.1" 200 12`, lineC)

	stdout, _, err := execute(t, nil, "diagnose", "access.log")
	require.NoError(t, err)
	assert.Contains(t, stdout, "=== logforge Line Diagnostics ===")
	assert.Contains(t, stdout, "[PASS] Log File")
	assert.Contains(t, stdout, "[WARN] Parse Rate")
	assert.Contains(t, stdout, "2 of 5 lines invalid")
	assert.Contains(t, stdout, "[WARN] Rejected: no bracketed timestamp")
	assert.Contains(t, stdout, "line 2: MALFORMED")
	assert.Contains(t, stdout, "[WARN] Rejected: unknown month abbreviation")
}

func TestDiagnose_MostlyInvalid(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", "junk", "junk", lineA)

	stdout, _, err := execute(t, nil, "diagnose", "access.log", "--format", "combined")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[FAIL] Parse Rate")
}

func TestDiagnose_SampleLimit(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", "bad1", "bad2", "bad3", lineA)

	stdout, _, err := execute(t, nil, "diagnose", "access.log", "--samples", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "line 1: bad1")
	assert.NotContains(t, stdout, "line 2: bad2")
}

func TestDiagnose_NoRequestTime(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", noLatency, noLatency)

	stdout, _, err := execute(t, nil, "diagnose", "access.log")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[WARN] Request Time")
}

func TestDiagnose_FormatMismatch(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA, lineB)

	stdout, _, err := execute(t, nil, "diagnose", "access.log", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[WARN] Log Syntax")
	assert.Contains(t, stdout, "Try --format combined")
}

func TestDiagnose_MissingFile(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, nil, "diagnose", "missing.log")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[FAIL] Log File")
	assert.Contains(t, stdout, "1 errors")
}

func TestDiagnose_Webhooks(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA)
	writeFile(t, "hooks.yaml",
		"webhooks:",
		"  - name: silent",
		"    url: https://hooks.example.com/a",
		"    trigger: never",
	)

	stdout, _, err := execute(t, nil, "diagnose", "access.log", "--config", "hooks.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[PASS] Config File")
	assert.Contains(t, stdout, "[WARN] Webhook: silent")
	assert.Contains(t, stdout, "Trigger is never")
}

func TestDiagnose_WebhookConnectivity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	isolate(t)
	writeFile(t, "access.log", lineA)
	writeFile(t, "hooks.yaml",
		"webhooks:",
		"  - name: local",
		"    url: "+server.URL,
		"    token: secret",
	)

	stdout, _, err := execute(t, nil, "diagnose", "access.log", "--config", "hooks.yaml", "-v")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[PASS] Webhook Connectivity: local")
	assert.Contains(t, stdout, "Reachable (status 200)")
}

func TestDiagnose_BadConfig(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA)
	writeFile(t, "bad.yaml", "top_n: 0")

	stdout, _, err := execute(t, nil, "diagnose", "access.log", "--config", "bad.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[FAIL] Config File")
}

func TestValidate(t *testing.T) {
	isolate(t)
	writeFile(t, "good.yaml",
		"format: json",
		"top_n: 5",
		"out_dir: reports",
		"webhooks:",
		"  - name: ops",
		"    url: https://hooks.example.com/ops",
		"    trigger: always",
	)

	stdout, _, err := execute(t, nil, "validate", "good.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration valid!")
	assert.Contains(t, stdout, "Format:    json")
	assert.Contains(t, stdout, "Top N:     5")
	assert.Contains(t, stdout, "Summary:   auto")
	assert.Contains(t, stdout, "1. ops [always]")
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"zero top_n", []string{"top_n: 0"}},
		{"unknown format", []string{"format: xml"}},
		{"bad yaml", []string{"top_n: [1"}},
		{"bad trigger", []string{"webhooks:", "  - url: https://example.com", "    trigger: sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			writeFile(t, "bad.yaml", tt.lines...)

			_, _, err := execute(t, nil, "validate", "bad.yaml")
			require.Error(t, err)
			assert.Equal(t, ExitUsage, CodeOf(err))
		})
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, "logforge "+Version+"\n", stdout)
}

func TestAnalyze_FlagFixesInvalidConfig(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA, lineB)
	t.Setenv("LOGFORGE_TOP_N", "0")

	_, _, err := execute(t, nil, "analyze", "access.log", "--summary", "none")
	require.Error(t, err)
	assert.Equal(t, ExitUsage, CodeOf(err))

	_, _, err = execute(t, nil, "analyze", "access.log", "--summary", "none", "--top", "5")
	require.NoError(t, err)
	report := readFile(t, filepath.Join("out", output.ReportJSON))
	assert.Len(t, gjson.Get(report, "top_endpoints").Array(), 2)
}

func TestAnalyze_OversizedLineKeepsRun(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA, strings.Repeat("x", 2*1024*1024), lineC)

	stdout, _, err := execute(t, nil, "analyze", "access.log", "--summary", "quiet")
	require.NoError(t, err)
	assert.Contains(t, stdout, "total_lines=3 parsed=2 invalid=1")
}

func TestDiagnose_OversizedLine(t *testing.T) {
	isolate(t)
	writeFile(t, "access.log", lineA, strings.Repeat("x", 2*1024*1024), lineB, lineC)

	stdout, _, err := execute(t, nil, "diagnose", "access.log", "--format", "combined")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[WARN] Rejected: line longer than 1 MiB")
}
