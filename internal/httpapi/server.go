package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sqwerl/internal/catalog"
	"sqwerl/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Root() string
	Thing(id string) (types.Thing, error)
	Properties(id string) []string
	Size(id, property string) (int, error)
	Members(id, property string, offset, limit int) ([]types.Item, int, error)
	Ready() bool
}

var _ Service = (catalog.Catalog)(nil)

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(LoggingMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	// @Summary  Get a thing, optionally with one windowed collection property
	// @Param    id        path   string true  "Thing id"
	// @Param    property  query  string false "Collection property to window (e.g. children)"
	// @Param    offset    query  int    false "First member offset"
	// @Param    limit     query  int    false "Maximum number of members"
	// @Success  200 {object} map[string]any
	// @Failure  400 {object} types.ErrorResponse
	// @Failure  404 {object} types.ErrorResponse
	// @Router   /things/{id} [get]
	r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		thing, err := svc.Thing(id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		doc := thingDocument(svc, thing)
		if prop := r.URL.Query().Get("property"); prop != "" {
			offset, limit, err := parseWindow(r)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			members, total, err := svc.Members(id, prop, offset, limit)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			if members == nil {
				members = []types.Item{}
			}
			membersServed.WithLabelValues(prop).Add(float64(len(members)))
			doc[prop] = types.CollectionPage{Members: members, Offset: offset, TotalCount: total}
		}
		writeJSON(w, http.StatusOK, doc)
	})

	r.Get("/things", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/things/"+svc.Root(), http.StatusFound)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// thingDocument is the JSON body for a thing: its attributes plus the size
// of every collection property.
func thingDocument(svc Service, t types.Thing) map[string]any {
	doc := map[string]any{"id": t.ID, "name": t.Name}
	if t.Type != "" {
		doc["type"] = t.Type
	}
	if t.Parent != "" {
		doc["parent"] = t.Parent
	}
	if len(t.Attributes) > 0 {
		doc["attributes"] = t.Attributes
	}
	sizes := map[string]int{}
	for _, p := range svc.Properties(t.ID) {
		if n, err := svc.Size(t.ID, p); err == nil {
			sizes[p] = n
		}
	}
	doc["collections"] = sizes
	return doc
}

// parseWindow reads offset and limit; limit defaults to defaultPageSize and
// is clamped to maxPageSize.
func parseWindow(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	offset, limit := 0, defaultPageSize
	if v := strings.TrimSpace(q.Get("offset")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, errBadQuery("offset must be a non-negative integer")
		}
		offset = n
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return 0, 0, errBadQuery("limit must be a positive integer")
		}
		limit = n
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return offset, limit, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
