package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":      zerolog.InfoLevel,
		"off":   zerolog.Disabled,
		"error": zerolog.ErrorLevel,
		"info":  zerolog.InfoLevel,
		"debug": zerolog.DebugLevel,
		"1":     zerolog.DebugLevel,
		"weird": zerolog.InfoLevel, // default
	}
	for in, want := range cases {
		if got := parseLevel(in, zerolog.InfoLevel); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?log=debug", nil)
	if got := requestLogLevel(r); got != zerolog.DebugLevel {
		t.Fatalf("query override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(r); got != zerolog.ErrorLevel {
		t.Fatalf("header override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x", nil)
	if got := requestLogLevel(r); got != defaultLogLevel {
		t.Fatalf("default level: %v", got)
	}
}

func TestLoggingMiddleware_WritesRequestLine(t *testing.T) {
	var buf bytes.Buffer
	orig := zlog
	defer func() { zlog = orig }()
	SetLogger(zerolog.New(&buf))

	r := NewMux(newSynthetic(t, 3))
	req := httptest.NewRequest(http.MethodGet, "/things/nope", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("log line is not json: %q", buf.String())
	}
	if line["message"] != "request" || line["status"] != float64(404) || line["path"] != "/things/nope" {
		t.Fatalf("unexpected log line: %v", line)
	}
	if _, ok := line["request_id"]; !ok {
		t.Fatalf("missing request_id: %v", line)
	}
}

func TestLoggingMiddleware_RespectsOffOverride(t *testing.T) {
	var buf bytes.Buffer
	orig := zlog
	defer func() { zlog = orig }()
	SetLogger(zerolog.New(&buf))

	r := NewMux(newSynthetic(t, 3))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz?log=off", nil))
	if buf.Len() != 0 {
		t.Fatalf("expected no log output, got %q", buf.String())
	}
}
