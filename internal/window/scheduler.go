package window

import (
	"sync"
	"time"
)

// Scheduler coalesces bursts of work. Schedule replaces any work that has
// not run yet; CancelPending drops it.
type Scheduler interface {
	Schedule(fn func())
	CancelPending()
}

// Debouncer runs only the last fn scheduled within a quiet period. Each
// Schedule invalidates the previous timer before arming a new one, so two
// timers never run fn for the same burst.
type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timer  *time.Timer
	gen    uint64
	closed bool
}

// NewDebouncer returns a Debouncer with the given quiet period
// (DefaultQuietPeriod when <= 0).
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultQuietPeriod
	}
	return &Debouncer{delay: delay}
}

// Delay is the quiet period.
func (d *Debouncer) Delay() time.Duration { return d.delay }

func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.invalidateLocked()
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// Stop may lose the race against an already fired timer; the
		// generation check drops such stale firings.
		if d.closed || gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
}

func (d *Debouncer) CancelPending() {
	d.mu.Lock()
	d.invalidateLocked()
	d.mu.Unlock()
}

// Pending reports whether a timer is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels pending work and rejects further scheduling.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.invalidateLocked()
	d.closed = true
	d.mu.Unlock()
}

func (d *Debouncer) invalidateLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Immediate runs work synchronously in the scheduling goroutine. It turns
// debouncing off.
type Immediate struct{}

func (Immediate) Schedule(fn func()) { fn() }
func (Immediate) CancelPending()     {}
