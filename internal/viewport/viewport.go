// Package viewport is the consumer side of the loader: it tracks which rows
// are visible, asks the loader for them and renders whatever is loaded,
// drawing placeholders for the rest.
package viewport

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/olekukonko/tablewriter"

	"sqwerl/internal/window"
)

// LoadingMarker is rendered in place of an unloaded row.
const LoadingMarker = "…"

// Source is the part of window.Loader the viewport uses.
type Source interface {
	RequestRange(start, stop int) error
	Slots(start, stop int) []window.Slot
	TotalCount() (int, bool)
	OnUpdate(fn func(window.Update)) func()
}

var _ Source = (*window.Loader)(nil)

// Viewport is a fixed-height window over a Source.
type Viewport struct {
	src     Source
	mu      sync.Mutex
	top     int
	height  int
	changed chan struct{}
	unsub   func()
}

// New subscribes to src and returns a viewport of height rows at the top of
// the collection. Nothing is requested until ScrollTo or Refresh.
func New(src Source, height int) *Viewport {
	if height < 1 {
		height = 1
	}
	v := &Viewport{src: src, height: height, changed: make(chan struct{}, 1)}
	v.unsub = src.OnUpdate(func(window.Update) {
		select {
		case v.changed <- struct{}{}:
		default:
		}
	})
	return v
}

// Close unsubscribes from the source.
func (v *Viewport) Close() { v.unsub() }

// Top is the first visible offset.
func (v *Viewport) Top() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.top
}

// Height is the number of visible rows.
func (v *Viewport) Height() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.height
}

// ScrollTo moves the first visible row to top, clamped so the window stays
// inside the collection once its size is known, and requests the rows.
func (v *Viewport) ScrollTo(top int) error {
	v.mu.Lock()
	v.top = v.clampLocked(top)
	start, stop := v.top, v.top+v.height
	v.mu.Unlock()
	return v.src.RequestRange(start, stop)
}

// ScrollBy moves the window by delta rows.
func (v *Viewport) ScrollBy(delta int) error {
	return v.ScrollTo(v.Top() + delta)
}

// Resize changes the number of visible rows and requests them.
func (v *Viewport) Resize(height int) error {
	if height < 1 {
		height = 1
	}
	v.mu.Lock()
	v.height = height
	v.mu.Unlock()
	return v.Refresh()
}

// Refresh re-requests the visible rows, e.g. after a failed fetch.
func (v *Viewport) Refresh() error {
	return v.ScrollTo(v.Top())
}

func (v *Viewport) clampLocked(top int) int {
	if n, known := v.src.TotalCount(); known && top > n-v.height {
		top = n - v.height
	}
	if top < 0 {
		top = 0
	}
	return top
}

func (v *Viewport) reclamp() error {
	v.mu.Lock()
	top := v.clampLocked(v.top)
	moved := top != v.top
	v.mu.Unlock()
	if !moved {
		return nil
	}
	return v.ScrollTo(top)
}

// Rows returns the visible slots. Before the collection size is known every
// row is a placeholder.
func (v *Viewport) Rows() []window.Slot {
	v.mu.Lock()
	start, stop := v.top, v.top+v.height
	v.mu.Unlock()
	return v.src.Slots(start, stop)
}

// Filled reports whether the size is known and every visible row is loaded.
func (v *Viewport) Filled() bool {
	if _, known := v.src.TotalCount(); !known {
		return false
	}
	for _, s := range v.Rows() {
		if !s.Loaded() {
			return false
		}
	}
	return true
}

// Wait blocks until the viewport is filled or ctx is done. A window that
// turns out to lie past the end once the size is known is pulled back inside
// the collection and re-requested.
func (v *Viewport) Wait(ctx context.Context) error {
	for {
		if err := v.reclamp(); err != nil {
			return err
		}
		if v.Filled() {
			return nil
		}
		select {
		case <-v.changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Render writes the visible rows as a table.
func (v *Viewport) Render(w io.Writer) error {
	rows := v.Rows()
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "ID", "Name", "Type"})
	table.SetAutoWrapText(false)
	for _, s := range rows {
		switch s.Kind {
		case window.SlotLoaded:
			table.Append([]string{strconv.Itoa(s.Offset), s.Item.ID, s.Item.Name(), s.Item.Type()})
		default:
			table.Append([]string{strconv.Itoa(s.Offset), LoadingMarker, LoadingMarker, ""})
		}
	}
	total := "?"
	if n, known := v.src.TotalCount(); known {
		total = strconv.Itoa(n)
	}
	caption := fmt.Sprintf("rows %d-%d of %s", v.Top(), v.Top()+len(rows), total)
	if len(rows) == 0 {
		caption = "no rows of " + total
	}
	table.SetCaption(true, caption)
	table.Render()
	return nil
}
