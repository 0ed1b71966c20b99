package window

import (
	"context"

	"sqwerl/pkg/types"
)

// Handle identifies the remote collection a loader windows over: the
// collection property of a parent thing.
type Handle struct {
	ThingID  string
	Property string
}

func (h Handle) String() string { return h.ThingID + "#" + h.Property }

// IsZero reports whether h names no collection.
func (h Handle) IsZero() bool { return h.ThingID == "" && h.Property == "" }

// SlotKind tags a Slot as a placeholder or a loaded item.
type SlotKind uint8

const (
	// SlotPlaceholder marks an item known to exist but not fetched yet.
	SlotPlaceholder SlotKind = iota
	// SlotLoaded marks a materialized item.
	SlotLoaded
)

func (k SlotKind) String() string {
	if k == SlotLoaded {
		return "loaded"
	}
	return "placeholder"
}

// Slot is the content of one collection offset. Item is only meaningful when
// Kind is SlotLoaded.
type Slot struct {
	Kind   SlotKind
	Offset int
	Item   types.Item
}

// Loaded reports whether the slot holds a fetched item.
func (s Slot) Loaded() bool { return s.Kind == SlotLoaded }

func placeholder(offset int) Slot { return Slot{Kind: SlotPlaceholder, Offset: offset} }

// PageRequest asks the fetcher for up to Limit items starting at Offset.
type PageRequest struct {
	Handle Handle
	Offset int
	Limit  int
}

// Page is a fetcher response: contiguous items starting at Offset plus the
// authoritative collection size.
type Page struct {
	Items      []types.Item
	Offset     int
	TotalCount int
}

// PageFetcher performs the network call for one window. Implementations own
// timeouts; the loader treats a slow response and a missing one alike.
type PageFetcher interface {
	FetchPage(ctx context.Context, req PageRequest) (Page, error)
}

// FetcherFunc adapts a function to PageFetcher.
type FetcherFunc func(ctx context.Context, req PageRequest) (Page, error)

func (f FetcherFunc) FetchPage(ctx context.Context, req PageRequest) (Page, error) {
	return f(ctx, req)
}

// UpdateKind says what changed in an Update.
type UpdateKind string

const (
	UpdateMerged  UpdateKind = "merged"
	UpdateResized UpdateKind = "resized"
	UpdateReset   UpdateKind = "reset"
)

// Update is delivered to OnUpdate subscribers after the store changed.
// [Start, Stop) is the merged range for UpdateMerged.
type Update struct {
	Kind       UpdateKind
	Handle     Handle
	Generation uint64
	Start      int
	Stop       int
	TotalCount int
}
