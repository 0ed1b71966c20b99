package httpapi

import (
	"encoding/json"
	"net/http"

	"sqwerl/internal/catalog"
	"sqwerl/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

type badQueryError string

func (e badQueryError) Error() string   { return string(e) }
func (e badQueryError) StatusCode() int { return http.StatusBadRequest }

func errBadQuery(msg string) error { return badQueryError(msg) }

// statusFor maps well-known service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case catalog.IsNotFound(err):
		return http.StatusNotFound
	case catalog.IsInvalidWindow(err):
		return http.StatusBadRequest
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeServiceError maps err and logs server-side failures.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger := requestLogger(r)
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSONError(w, status, err.Error())
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
