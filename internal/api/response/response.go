package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/edvin/saasadmin/internal/core"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error             string `json:"error"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// ListResponse wraps a filtered page of a resource list.
type ListResponse struct {
	Items      any    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
	// Total counts every item matching the query, not just this page.
	Total   int `json:"total"`
	Summary any `json:"summary,omitempty"`
}

func WriteList(w http.ResponseWriter, resp ListResponse) {
	WriteJSON(w, http.StatusOK, resp)
}

// StatusFor maps a service error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrCooldown), errors.Is(err, core.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError writes err with the status StatusFor picks. Internal
// errors are logged with the request logger and hidden from the client.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		WriteError(w, status, "internal server error")
		return
	}

	body := ErrorResponse{Error: err.Error()}
	var cd *core.CooldownError
	if errors.As(err, &cd) {
		body.RetryAfterSeconds = cd.RetryAfterSeconds
		w.Header().Set("Retry-After", strconv.Itoa(cd.RetryAfterSeconds))
	}
	WriteJSON(w, status, body)
}
