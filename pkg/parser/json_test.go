package parser

import (
	"errors"
	"testing"
)

func TestJSONParser_Parse(t *testing.T) {
	p := NewJSONParser()

	line := `{"remote_addr":"2001:db8::1","time_local":"01/Jan/2025:00:00:59 -0300","request":"GET https://example.com/api/items?id=9 HTTP/1.1","status":200,"body_bytes_sent":10,"request_time":0.123}`
	rec, ok := p.Parse(line)
	if !ok {
		_, err := p.ParseLine(line)
		t.Fatalf("Parse() rejected line: %v", err)
	}

	if rec.Endpoint != "/api/items" {
		t.Errorf("Endpoint = %q, want /api/items", rec.Endpoint)
	}
	if rec.Status != 200 {
		t.Errorf("Status = %d, want 200", rec.Status)
	}
	if rec.MinuteKey != "2025-01-01 00:00" {
		t.Errorf("MinuteKey = %q, want 2025-01-01 00:00", rec.MinuteKey)
	}
	if ms, known := rec.Latency.Millis(); !known || ms != 123 {
		t.Errorf("Latency = %s, want 123ms", rec.Latency)
	}
}

func TestJSONParser_StringValues(t *testing.T) {
	p := NewJSONParser()

	rec, ok := p.Parse(`{"time_local":"10/Oct/2000:13:55:36 -0700","request":"GET /health HTTP/1.1","status":"304","request_time":""}`)
	if !ok {
		t.Fatal("Parse() rejected string-typed fields")
	}
	if rec.Status != 304 {
		t.Errorf("Status = %d, want 304", rec.Status)
	}
	if rec.Latency.Known() {
		t.Errorf("empty request_time should be unknown, got %s", rec.Latency)
	}
}

func TestJSONParser_MatchesCombined(t *testing.T) {
	combined := `127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET /a/b?c=d HTTP/1.1" 502 0 "-" "ua" 2.5`
	jsonLine := `{"time_local":"10/Oct/2000:13:55:36 -0700","request":"GET /a/b?c=d HTTP/1.1","status":502,"request_time":2.5}`

	want, ok := NewCombinedParser().Parse(combined)
	if !ok {
		t.Fatal("combined parser rejected line")
	}
	got, ok := NewJSONParser().Parse(jsonLine)
	if !ok {
		t.Fatal("json parser rejected line")
	}
	if got != want {
		t.Errorf("json record %+v differs from combined record %+v", got, want)
	}
}

func TestJSONParser_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr error
	}{
		{"not json", `127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET / HTTP/1.1" 200 0`, ErrInvalidJSON},
		{"truncated object", `{"time_local":"10/Oct/2000:13:55:36 -0700"`, ErrInvalidJSON},
		{"array", `[1,2,3]`, ErrInvalidJSON},
		{"missing time", `{"request":"GET / HTTP/1.1","status":200}`, ErrNoTimestamp},
		{"bad month", `{"time_local":"10/Okt/2000:13:55:36 -0700","request":"GET / HTTP/1.1","status":200}`, ErrUnknownMonth},
		{"missing request", `{"time_local":"10/Oct/2000:13:55:36 -0700","status":200}`, ErrNoRequest},
		{"malformed request", `{"time_local":"10/Oct/2000:13:55:36 -0700","request":"GET","status":200}`, ErrMalformedRequest},
		{"missing status", `{"time_local":"10/Oct/2000:13:55:36 -0700","request":"GET / HTTP/1.1"}`, ErrBadStatus},
		{"fractional status", `{"time_local":"10/Oct/2000:13:55:36 -0700","request":"GET / HTTP/1.1","status":200.5}`, ErrBadStatus},
	}

	p := NewJSONParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseLine(tt.line)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseLine() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	for _, name := range Formats() {
		p, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) error = %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("Lookup(%q).Name() = %q", name, p.Name())
		}
	}

	if _, err := Lookup("syslog"); err == nil {
		t.Error("Lookup(syslog) should fail")
	}
}

func TestFormats_Sorted(t *testing.T) {
	got := Formats()
	want := []string{"combined", "json"}
	if len(got) != len(want) {
		t.Fatalf("Formats() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Formats()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if len(All()) != len(want) {
		t.Errorf("All() returned %d parsers, want %d", len(All()), len(want))
	}
}
