package window

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RangeRequest is the desired half-open range [Start, Stop).
type RangeRequest struct {
	Start int
	Stop  int
}

// fetchWindow is one page to fetch.
type fetchWindow struct {
	offset int
	limit  int
}

type subscriber struct {
	id uint64
	fn func(Update)
}

// Loader windows over one remote collection. It owns the slot store and the
// in-flight set for its handle; consumers read slots and call RequestRange.
//
// Per fetch window the state machine is
//
//	Idle -> Scheduled -> InFlight -> {Merged | Failed} -> Idle
//
// and the Tracker guarantees no window is InFlight twice.
type Loader struct {
	mu       sync.Mutex
	handle   Handle
	gen      uint64
	store    *Store
	tracker  *Tracker
	desired  RangeRequest
	wanted   bool
	closed   bool
	subs     []subscriber
	nextSub  uint64
	pageSize int

	fetcher  PageFetcher
	sched    Scheduler
	debounce *Debouncer
	log      zerolog.Logger
	events   EventPublisher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Loader from cfg.
func New(cfg Config) (*Loader, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	l := &Loader{
		handle:   cfg.Handle,
		store:    NewStore(),
		tracker:  NewTracker(),
		pageSize: cfg.PageSize,
		fetcher:  cfg.Fetcher,
		sched:    cfg.Scheduler,
		log:      cfg.Logger.With().Str("component", "loader").Logger(),
		events:   cfg.Events,
	}
	if l.sched == nil {
		l.debounce = NewDebouncer(cfg.QuietPeriod)
		l.sched = l.debounce
	}
	l.ctx, l.cancel = context.WithCancel(cfg.Context)
	return l, nil
}

// RequestRange declares [start, stop) as wanted. It returns immediately; a
// fetch for the first missing window is scheduled unless the range is
// already loaded or its missing part is already in flight. Only misuse
// (negative offsets, start > stop) and use after Close return an error.
func (l *Loader) RequestRange(start, stop int) error {
	if start < 0 || stop < 0 || start > stop {
		return ErrInvalidRange(start, stop)
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return closedError{}
	}
	l.desired = RangeRequest{Start: start, Stop: stop}
	l.wanted = true
	_, need, deduped := l.nextWindowLocked(start, stop)
	h := l.handle
	l.mu.Unlock()

	if !need {
		if deduped {
			dedupedTotal.Inc()
			l.events.Publish(Event{Name: EventFetchDeduped, Handle: h, Fields: map[string]any{"start": start, "stop": stop}})
		}
		return nil
	}
	scheduledTotal.Inc()
	l.events.Publish(Event{Name: EventFetchScheduled, Handle: h, Fields: map[string]any{"start": start, "stop": stop}})
	l.sched.Schedule(l.flush)
	return nil
}

// nextWindowLocked finds the first placeholder in [start, stop) that no
// in-flight window covers and sizes a page window from it. deduped is set
// when placeholders exist but all of them are already being fetched.
func (l *Loader) nextWindowLocked(start, stop int) (w fetchWindow, need bool, deduped bool) {
	if l.store.Known() {
		if n := l.store.Len(); stop > n {
			stop = n
		}
		if start > stop {
			start = stop
		}
	}
	for o := start; o < stop; {
		first, ok := l.store.FirstPlaceholder(o, stop)
		if !ok {
			break
		}
		if p, busy := l.tracker.Covering(l.handle, first); busy {
			deduped = true
			o = p.Key.Offset + p.Limit
			continue
		}
		limit := l.pageSize
		if next, ok := l.tracker.NextStart(l.handle, first); ok && next-first < limit {
			limit = next - first
		}
		return fetchWindow{offset: first, limit: limit}, true, false
	}
	return fetchWindow{}, false, deduped
}

// flush runs when the scheduler fires. It recomputes the window from the
// latest desired range and the current generation so only the final position
// of a burst is fetched, whichever handle scheduled it.
func (l *Loader) flush() {
	l.mu.Lock()
	if l.closed || !l.wanted {
		l.mu.Unlock()
		return
	}
	w, need, _ := l.nextWindowLocked(l.desired.Start, l.desired.Stop)
	if !need {
		l.mu.Unlock()
		return
	}
	h, gen := l.handle, l.gen
	release, ok := l.tracker.Acquire(FetchKey{Handle: h, Offset: w.offset}, w.limit)
	if !ok {
		l.mu.Unlock()
		dedupedTotal.Inc()
		l.events.Publish(Event{Name: EventFetchDeduped, Handle: h, Fields: map[string]any{"offset": w.offset}})
		return
	}
	l.wg.Add(1)
	l.mu.Unlock()
	go l.fetch(gen, h, w, release)
}

func (l *Loader) fetch(gen uint64, h Handle, w fetchWindow, release func()) {
	defer l.wg.Done()
	defer release()

	req := PageRequest{Handle: h, Offset: w.offset, Limit: w.limit}
	l.log.Debug().Str("handle", h.String()).Int("offset", w.offset).Int("limit", w.limit).Msg("fetch start")
	l.events.Publish(Event{Name: EventFetchStarted, Handle: h, Fields: map[string]any{"offset": w.offset, "limit": w.limit}})
	inflightFetches.Inc()
	start := time.Now()
	page, err := l.fetcher.FetchPage(l.ctx, req)
	fetchDuration.Observe(time.Since(start).Seconds())
	inflightFetches.Dec()
	if err == nil {
		err = validatePage(req, page)
	}

	l.mu.Lock()
	if l.closed || gen != l.gen {
		l.mu.Unlock()
		fetchesTotal.WithLabelValues(resultStale).Inc()
		l.log.Debug().Str("handle", h.String()).Int("offset", w.offset).Msg("stale page discarded")
		l.events.Publish(Event{Name: EventFetchStale, Handle: h, Fields: map[string]any{"offset": w.offset}})
		return
	}
	if err != nil {
		l.mu.Unlock()
		result := resultFailed
		if IsMalformedPage(err) {
			result = resultMalformed
		}
		fetchesTotal.WithLabelValues(result).Inc()
		l.log.Warn().Err(err).Str("handle", h.String()).Int("offset", w.offset).Int("limit", w.limit).Msg("fetch failed")
		l.events.Publish(Event{Name: EventFetchFailed, Handle: h, Fields: map[string]any{"offset": w.offset, "error": err.Error()}})
		return
	}

	var updates []Update
	if !l.store.Known() || page.TotalCount != l.store.Len() {
		l.store.Resize(page.TotalCount)
		updates = append(updates, Update{Kind: UpdateResized, Handle: h, Generation: gen, TotalCount: page.TotalCount})
	}
	l.store.Merge(page.Offset, page.Items)
	updates = append(updates, Update{
		Kind:       UpdateMerged,
		Handle:     h,
		Generation: gen,
		Start:      page.Offset,
		Stop:       page.Offset + len(page.Items),
		TotalCount: l.store.Len(),
	})
	// Release before looking for more work so a short page does not keep
	// its unfilled tail marked as in flight.
	release()
	more := false
	if l.wanted && len(page.Items) > 0 {
		_, more, _ = l.nextWindowLocked(l.desired.Start, l.desired.Stop)
	}
	subs := append([]subscriber(nil), l.subs...)
	l.mu.Unlock()

	fetchesTotal.WithLabelValues(resultMerged).Inc()
	l.log.Debug().Str("handle", h.String()).Int("offset", page.Offset).Int("count", len(page.Items)).Int("total", page.TotalCount).Msg("page merged")
	l.events.Publish(Event{Name: EventFetchMerged, Handle: h, Fields: map[string]any{"offset": page.Offset, "count": len(page.Items), "total": page.TotalCount}})
	for _, u := range updates {
		for _, s := range subs {
			s.fn(u)
		}
	}
	if more {
		// The desired range spans more than one page; keep filling it.
		l.flush()
	}
}

func validatePage(req PageRequest, p Page) error {
	switch {
	case p.Offset < 0:
		return ErrMalformedPage("negative offset %d", p.Offset)
	case p.TotalCount < 0:
		return ErrMalformedPage("negative totalCount %d", p.TotalCount)
	case p.Offset != req.Offset:
		return ErrMalformedPage("page offset %d, requested %d", p.Offset, req.Offset)
	case len(p.Items) > req.Limit:
		return ErrMalformedPage("%d items exceed limit %d", len(p.Items), req.Limit)
	case len(p.Items) > 0 && p.Offset+len(p.Items) > p.TotalCount:
		return ErrMalformedPage("items [%d, %d) exceed totalCount %d", p.Offset, p.Offset+len(p.Items), p.TotalCount)
	}
	for i, it := range p.Items {
		if it.ID == "" {
			return ErrMalformedPage("item %d has no id", p.Offset+i)
		}
	}
	return nil
}

// Slot returns the slot at offset for rendering.
func (l *Loader) Slot(offset int) Slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Get(offset)
}

// Slots returns the slots in [start, stop), clamped to the known size.
func (l *Loader) Slots(start, stop int) []Slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store.Known() && stop > l.store.Len() {
		stop = l.store.Len()
	}
	if start < 0 {
		start = 0
	}
	if start >= stop {
		return nil
	}
	out := make([]Slot, 0, stop-start)
	for o := start; o < stop; o++ {
		out = append(out, l.store.Get(o))
	}
	return out
}

// TotalCount returns the collection size and whether it is known yet.
func (l *Loader) TotalCount() (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Len(), l.store.Known()
}

// Handle is the collection currently windowed.
func (l *Loader) Handle() Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handle
}

// Stats is a read-only projection of the loader state.
type Stats struct {
	Handle     Handle
	Generation uint64
	TotalCount int
	Known      bool
	Loaded     int
	InFlight   int
}

// Stats returns a snapshot of the loader state.
func (l *Loader) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, p := range l.tracker.Snapshot() {
		if p.Key.Handle == l.handle {
			n++
		}
	}
	return Stats{
		Handle:     l.handle,
		Generation: l.gen,
		TotalCount: l.store.Len(),
		Known:      l.store.Known(),
		Loaded:     l.store.LoadedCount(),
		InFlight:   n,
	}
}

// OnUpdate subscribes fn to store changes. fn runs on a fetch goroutine
// and must not block. The returned func unsubscribes.
func (l *Loader) OnUpdate(fn func(Update)) func() {
	l.mu.Lock()
	l.nextSub++
	id := l.nextSub
	l.subs = append(l.subs, subscriber{id: id, fn: fn})
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, s := range l.subs {
			if s.id == id {
				l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

// Switch retargets the loader to another collection. All slots, the desired
// range, scheduled work and in-flight records are discarded; responses for
// the previous handle are ignored when they arrive.
func (l *Loader) Switch(h Handle) error {
	if h.IsZero() {
		return configError{msg: "handle is required"}
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return closedError{}
	}
	prev := l.handle
	l.handle = h
	l.gen++
	gen := l.gen
	l.store.Reset()
	l.tracker.Reset()
	l.wanted = false
	subs := append([]subscriber(nil), l.subs...)
	l.mu.Unlock()

	l.sched.CancelPending()
	l.log.Debug().Str("from", prev.String()).Str("to", h.String()).Uint64("generation", gen).Msg("handle switched")
	l.events.Publish(Event{Name: EventHandleSwitched, Handle: h, Fields: map[string]any{"from": prev.String(), "generation": gen}})
	u := Update{Kind: UpdateReset, Handle: h, Generation: gen}
	for _, s := range subs {
		s.fn(u)
	}
	return nil
}

// Close disposes the loader: pending work is dropped, fetch contexts are
// canceled and Close waits for fetch goroutines to return.
func (l *Loader) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.gen++
	l.subs = nil
	l.mu.Unlock()

	if l.debounce != nil {
		l.debounce.Stop()
	} else {
		l.sched.CancelPending()
	}
	l.cancel()
	l.wg.Wait()
	return nil
}
