package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sqwerl/internal/catalog"
	"sqwerl/internal/fetch"
	"sqwerl/internal/httpapi"
	"sqwerl/internal/window"
)

// pageCall is one collection request observed by the server.
type pageCall struct {
	Thing    string
	Property string
	Offset   int
	Limit    int
}

// recorder wraps the API mux, recording collection requests and optionally
// holding requests for one thing until its gate is closed.
type recorder struct {
	next http.Handler

	mu    sync.Mutex
	calls []pageCall
	gates map[string]chan struct{}
}

func (rec *recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if id, ok := strings.CutPrefix(r.URL.Path, "/things/"); ok && r.URL.Query().Has("property") {
		q := r.URL.Query()
		off, _ := strconv.Atoi(q.Get("offset"))
		lim, _ := strconv.Atoi(q.Get("limit"))
		rec.mu.Lock()
		rec.calls = append(rec.calls, pageCall{Thing: id, Property: q.Get("property"), Offset: off, Limit: lim})
		gate := rec.gates[id]
		rec.mu.Unlock()
		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
	}
	rec.next.ServeHTTP(w, r)
}

func (rec *recorder) hold(id string) (release func()) {
	ch := make(chan struct{})
	rec.mu.Lock()
	if rec.gates == nil {
		rec.gates = map[string]chan struct{}{}
	}
	rec.gates[id] = ch
	rec.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (rec *recorder) Calls() []pageCall {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]pageCall(nil), rec.calls...)
}

// newCatalogServer serves a synthetic catalog of size root children, each
// with fanout children of its own.
func newCatalogServer(t *testing.T, size, fanout int) (*httptest.Server, *recorder) {
	t.Helper()
	c, err := catalog.NewSynthetic(size, fanout)
	if err != nil {
		t.Fatalf("synthetic catalog: %v", err)
	}
	rec := &recorder{next: httpapi.NewMux(c)}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	return srv, rec
}

type loaderOpts struct {
	handle   window.Handle
	sched    window.Scheduler
	quiet    time.Duration
	events   window.EventPublisher
	pageSize int
}

func newLoader(t *testing.T, base string, o loaderOpts) *window.Loader {
	t.Helper()
	log := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.InfoLevel)
	client, err := fetch.New(fetch.Config{BaseURL: base, Timeout: 5 * time.Second, Logger: &log})
	if err != nil {
		t.Fatalf("fetch client: %v", err)
	}
	if o.handle.IsZero() {
		o.handle = window.Handle{ThingID: "root", Property: "children"}
	}
	l, err := window.New(window.Config{
		Handle:      o.handle,
		Fetcher:     client,
		PageSize:    o.pageSize,
		QuietPeriod: o.quiet,
		Scheduler:   o.sched,
		Events:      o.events,
		Logger:      &log,
	})
	if err != nil {
		t.Fatalf("loader: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
