package window

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultPageSize    = 20
	DefaultQuietPeriod = 500 * time.Millisecond
)

// Config encapsulates all tunables for Loader construction.
type Config struct {
	// Collection to window over. Required.
	Handle Handle
	// Fetcher performs page requests. Required.
	Fetcher PageFetcher
	// PageSize is the fixed fetch window length.
	PageSize int
	// QuietPeriod is the debounce delay used when Scheduler is nil.
	QuietPeriod time.Duration
	// Scheduler overrides the default Debouncer.
	Scheduler Scheduler
	// Context is the parent of every fetch context; Close cancels it.
	Context context.Context
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
	// Events defaults to dropping events.
	Events EventPublisher
}

func (c Config) withDefaults() (Config, error) {
	if c.Fetcher == nil {
		return c, configError{msg: "fetcher is required"}
	}
	if c.Handle.IsZero() {
		return c, configError{msg: "handle is required"}
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.QuietPeriod <= 0 {
		c.QuietPeriod = DefaultQuietPeriod
	}
	if c.Context == nil {
		c.Context = context.Background()
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	if c.Events == nil {
		c.Events = noopPublisher{}
	}
	return c, nil
}
