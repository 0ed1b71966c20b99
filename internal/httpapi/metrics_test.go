package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// scrape returns the default registry exposition.
func scrape(t *testing.T) []byte {
	t.Helper()
	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mrr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", mrr.Code)
	}
	return mrr.Body.Bytes()
}

func TestMetricsMiddleware_EmitsRequestCounters(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	rr := httptest.NewRecorder()
	MetricsMiddleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if body := scrape(t); !bytes.Contains(body, []byte("sqwerl_http_requests_total")) {
		t.Fatalf("expected sqwerl_http_requests_total in metrics")
	}
}

// TestMetricsMiddleware_UsesRoutePattern ensures ids in the path do not
// become label values.
func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/things/root.42", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := scrape(t)
	if !bytes.Contains(body, []byte(`path="/things/{id}"`)) {
		t.Fatalf("expected route pattern label in metrics")
	}
	if bytes.Contains(body, []byte(`path="/things/root.42"`)) {
		t.Fatalf("raw path leaked into labels")
	}
}

func TestMembersServedCounter(t *testing.T) {
	r := NewMux(newSynthetic(t, 50))
	if w := get(t, r, "/things/root?property=children&limit=5"); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if body := scrape(t); !bytes.Contains(body, []byte(`sqwerl_http_members_served_total{property="children"}`)) {
		t.Fatalf("expected members served counter")
	}
}
