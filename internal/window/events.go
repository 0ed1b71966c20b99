package window

// Event names published by the Loader.
const (
	EventFetchScheduled = "fetch_scheduled"
	EventFetchStarted   = "fetch_started"
	EventFetchMerged    = "fetch_merged"
	EventFetchFailed    = "fetch_failed"
	EventFetchStale     = "fetch_stale"
	EventFetchDeduped   = "fetch_deduped"
	EventHandleSwitched = "handle_switched"
)

// Event represents a loader lifecycle event.
// Minimal and stable: name + collection handle and optional fields.
type Event struct {
	Name   string
	Handle Handle
	Fields map[string]any
}

// EventPublisher receives events from the loader. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
