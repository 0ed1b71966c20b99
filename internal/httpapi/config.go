package httpapi

// Page size limits for collection windows.
const (
	DefaultPageSize    = 20
	DefaultMaxPageSize = 100
)

var (
	defaultPageSize = DefaultPageSize
	maxPageSize     = DefaultMaxPageSize
)

// SetPageSizes configures the limit applied when a request omits one and the
// upper bound for requested limits. Non-positive values restore defaults.
func SetPageSizes(def, max int) {
	if def <= 0 {
		def = DefaultPageSize
	}
	if max <= 0 {
		max = DefaultMaxPageSize
	}
	if def > max {
		def = max
	}
	defaultPageSize, maxPageSize = def, max
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server. Empty method
// and header lists fall back to GET/OPTIONS and Accept/Content-Type.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
	if len(corsAllowedMethods) == 0 {
		corsAllowedMethods = []string{"GET", "OPTIONS"}
	}
	if len(corsAllowedHeaders) == 0 {
		corsAllowedHeaders = []string{"Accept", "Content-Type"}
	}
}
