package window

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sqwerl/pkg/types"
)

// fakeFetcher serves a synthetic collection of total items. When gate is
// set, responses wait until it is closed (or the fetch context ends).
type fakeFetcher struct {
	mu      sync.Mutex
	total   int
	err     error
	gate    chan struct{}
	mangle  func(Page) Page
	calls   []PageRequest
	started chan PageRequest
}

func newFakeFetcher(total int) *fakeFetcher {
	return &fakeFetcher{total: total, started: make(chan PageRequest, 64)}
}

func (f *fakeFetcher) FetchPage(ctx context.Context, req PageRequest) (Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	gate, err, total, mangle := f.gate, f.err, f.total, f.mangle
	f.mu.Unlock()
	f.started <- req
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Page{}, ctx.Err()
		}
	}
	if err != nil {
		return Page{}, err
	}
	p := makePage(req, total)
	if mangle != nil {
		p = mangle(p)
	}
	return p, nil
}

func (f *fakeFetcher) setTotal(n int) {
	f.mu.Lock()
	f.total = n
	f.mu.Unlock()
}

func (f *fakeFetcher) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeFetcher) Calls() []PageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PageRequest(nil), f.calls...)
}

func (f *fakeFetcher) waitStarted(t *testing.T) PageRequest {
	t.Helper()
	select {
	case req := <-f.started:
		return req
	case <-time.After(2 * time.Second):
		t.Fatalf("fetch did not start")
		return PageRequest{}
	}
}

func makePage(req PageRequest, total int) Page {
	end := req.Offset + req.Limit
	if end > total {
		end = total
	}
	var items []types.Item
	for o := req.Offset; o < end; o++ {
		items = append(items, types.Item{
			ID:      fmt.Sprintf("%s-%d", req.Handle.ThingID, o),
			Payload: map[string]any{"name": fmt.Sprintf("thing %d", o)},
		})
	}
	return Page{Items: items, Offset: req.Offset, TotalCount: total}
}

// manualScheduler holds the last scheduled fn until Fire.
type manualScheduler struct {
	mu    sync.Mutex
	fn    func()
	armed int
}

func (s *manualScheduler) Schedule(fn func()) {
	s.mu.Lock()
	s.fn = fn
	s.armed++
	s.mu.Unlock()
}

func (s *manualScheduler) CancelPending() {
	s.mu.Lock()
	s.fn = nil
	s.mu.Unlock()
}

// Take removes and returns the pending fn without running it.
func (s *manualScheduler) Take() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn := s.fn
	s.fn = nil
	return fn
}

func (s *manualScheduler) Fire() {
	s.mu.Lock()
	fn := s.fn
	s.fn = nil
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

var testHandle = Handle{ThingID: "root", Property: "children"}

func newTestLoader(t *testing.T, f PageFetcher, sched Scheduler, pub EventPublisher) *Loader {
	t.Helper()
	l, err := New(Config{Handle: testHandle, Fetcher: f, Scheduler: sched, Events: pub})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func waitLoaded(t *testing.T, l *Loader, start, stop int) {
	t.Helper()
	require.Eventually(t, func() bool {
		if _, known := l.TotalCount(); !known {
			return false
		}
		for _, s := range l.Slots(start, stop) {
			if !s.Loaded() {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)
}

func waitIdle(t *testing.T, l *Loader) {
	t.Helper()
	require.Eventually(t, func() bool { return l.Stats().InFlight == 0 }, 2*time.Second, 5*time.Millisecond)
}
