package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sqwerl/internal/catalog"
	"sqwerl/internal/config"
	"sqwerl/internal/httpapi"
)

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a,,c", []string{"a", "c"}},
		{"", nil},
	}
	for _, c := range cases {
		got := splitCSV(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, "warn", "json")
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"message":"shown"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if _, err := newLogger(&buf, "loud", "json"); err == nil {
		t.Fatalf("expected invalid level error")
	}
	if _, err := newLogger(&buf, "info", "xml"); err == nil {
		t.Fatalf("expected invalid format error")
	}
	if _, err := newLogger(&buf, "off", "console"); err != nil {
		t.Fatalf("off level: %v", err)
	}
}

func TestBuildCatalog(t *testing.T) {
	c, err := buildCatalog(config.Server{SyntheticSize: 7, SyntheticFanout: 2})
	if err != nil {
		t.Fatalf("synthetic: %v", err)
	}
	if n, err := c.Size(c.Root(), "children"); err != nil || n != 7 {
		t.Fatalf("size = %d, %v", n, err)
	}
	if _, err := buildCatalog(config.Server{DataFile: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatalf("expected error for missing data file")
	}
	if _, err := buildCatalog(config.Server{SyntheticSize: -1}); err == nil {
		t.Fatalf("expected error for negative size")
	}
}

func TestServeFlagsOverrideConfigFile(t *testing.T) {
	cmd := newServeCmd(&rootOptions{})
	if err := cmd.ParseFlags([]string{"--addr", ":9999"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	flags := config.Server{Addr: ":9999", SyntheticSize: 1000, MaxPageSize: httpapi.DefaultMaxPageSize}
	file := config.Server{Addr: ":7070", SyntheticSize: 5, MaxPageSize: 50, CORSEnabled: true}
	got := mergeServer(cmd, flags, file)
	if got.Addr != ":9999" {
		t.Fatalf("addr = %q, want flag value", got.Addr)
	}
	if got.SyntheticSize != 5 || got.MaxPageSize != 50 || !got.CORSEnabled {
		t.Fatalf("file values not applied: %+v", got)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), err
}

func newCatalogServer(t *testing.T, size int) *httptest.Server {
	t.Helper()
	c, err := catalog.NewSynthetic(size, 3)
	if err != nil {
		t.Fatalf("synthetic: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(c))
	t.Cleanup(srv.Close)
	return srv
}

func TestBrowsePrintsRequestedWindow(t *testing.T) {
	srv := newCatalogServer(t, 100)
	out, err := runCLI(t, "browse", "--log-level", "off", "--url", srv.URL,
		"--top", "40", "--rows", "5", "--quiet-period-ms", "10")
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	for _, want := range []string{"root.40", "Thing 44", "rows 40-45 of 100"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "root.45") {
		t.Fatalf("row outside viewport rendered:\n%s", out)
	}
}

func TestBrowseTopPastEndShowsLastRows(t *testing.T) {
	srv := newCatalogServer(t, 137)
	out, err := runCLI(t, "browse", "--log-level", "off", "--url", srv.URL,
		"--top", "500", "--rows", "10", "--quiet-period-ms", "10", "--wait", "5s")
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if !strings.Contains(out, "rows 127-137 of 137") || !strings.Contains(out, "root.136") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestBrowseScrollStepsEndAtFinalPosition(t *testing.T) {
	srv := newCatalogServer(t, 50)
	out, err := runCLI(t, "browse", "--log-level", "off", "--url", srv.URL,
		"--rows", "4", "--scroll-steps", "30", "--step", "1", "--quiet-period-ms", "20")
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if !strings.Contains(out, "rows 30-34 of 50") || !strings.Contains(out, "root.33") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestBrowseReadsConfigFile(t *testing.T) {
	srv := newCatalogServer(t, 10)
	p := filepath.Join(t.TempDir(), "sqwerl.yaml")
	cfg := "log_level: \"off\"\nloader:\n  url: " + srv.URL + "\n  quiet_period_ms: 10\n"
	if err := os.WriteFile(p, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := runCLI(t, "--config", p, "browse", "--rows", "20")
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if !strings.Contains(out, "rows 0-10 of 10") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestBrowseRejectsBadArgs(t *testing.T) {
	if _, err := runCLI(t, "browse", "--log-level", "off", "--rows", "0"); err == nil {
		t.Fatalf("expected error for zero rows")
	}
	if _, err := runCLI(t, "browse", "--log-level", "off", "--url", "ftp://x"); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
	if _, err := runCLI(t, "--config", "nope.ini", "browse"); err == nil {
		t.Fatalf("expected config error")
	}
}
