package window

import (
	"sync"
	"time"
)

// FetchKey is the logical identity of a window fetch.
type FetchKey struct {
	Handle Handle
	Offset int
}

// PendingFetch records one outstanding fetch.
type PendingFetch struct {
	Key       FetchKey
	Limit     int
	StartedAt time.Time
	token     uint64
}

// Covers reports whether offset falls inside the fetch window.
func (p PendingFetch) Covers(offset int) bool {
	return offset >= p.Key.Offset && offset < p.Key.Offset+p.Limit
}

// Tracker is the set of fetches currently in flight. At most one
// PendingFetch exists per key. Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	pending map[FetchKey]PendingFetch
	next    uint64
	now     func() time.Time
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{pending: make(map[FetchKey]PendingFetch), now: time.Now}
}

// TryAcquire records key with the given window length and returns true, or
// returns false when key is already pending; the caller must not fetch then.
func (t *Tracker) TryAcquire(key FetchKey, limit int) bool {
	_, ok := t.acquire(key, limit)
	return ok
}

// Release forgets key unconditionally.
func (t *Tracker) Release(key FetchKey) {
	t.mu.Lock()
	delete(t.pending, key)
	t.mu.Unlock()
}

// Acquire is the scoped form of TryAcquire. The returned release func must
// be deferred; it only frees this acquisition, so a release that runs after
// Reset and a fresh acquire of the same key leaves the newer entry alone.
func (t *Tracker) Acquire(key FetchKey, limit int) (func(), bool) {
	token, ok := t.acquire(key, limit)
	if !ok {
		return func() {}, false
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			if p, ok := t.pending[key]; ok && p.token == token {
				delete(t.pending, key)
			}
			t.mu.Unlock()
		})
	}, true
}

func (t *Tracker) acquire(key FetchKey, limit int) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.pending[key]; busy {
		return 0, false
	}
	t.next++
	t.pending[key] = PendingFetch{Key: key, Limit: limit, StartedAt: t.now(), token: t.next}
	return t.next, true
}

// Pending reports whether key is in flight.
func (t *Tracker) Pending(key FetchKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[key]
	return ok
}

// Covering returns the in-flight fetch of handle whose window contains
// offset, if any.
func (t *Tracker) Covering(h Handle, offset int) (PendingFetch, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, p := range t.pending {
		if k.Handle == h && p.Covers(offset) {
			return p, true
		}
	}
	return PendingFetch{}, false
}

// NextStart returns the smallest in-flight window start of handle that is
// greater than offset.
func (t *Tracker) NextStart(h Handle, offset int) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	best, found := 0, false
	for k := range t.pending {
		if k.Handle != h || k.Offset <= offset {
			continue
		}
		if !found || k.Offset < best {
			best, found = k.Offset, true
		}
	}
	return best, found
}

// Len is the number of fetches in flight.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Snapshot returns a copy of the pending set.
func (t *Tracker) Snapshot() []PendingFetch {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]PendingFetch, 0, len(t.pending))
	for _, p := range t.pending {
		out = append(out, p)
	}
	return out
}

// Reset forgets every pending fetch.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.pending = make(map[FetchKey]PendingFetch)
	t.mu.Unlock()
}
