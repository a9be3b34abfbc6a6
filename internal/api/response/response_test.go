package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/saasadmin/internal/core"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	payload := map[string]string{"hello": "world"}

	WriteJSON(w, http.StatusOK, payload)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "world", body["hello"])
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, http.StatusBadRequest, "something went wrong")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "something went wrong", body["error"])
	_, hasRetry := body["retry_after_seconds"]
	assert.False(t, hasRetry)
}

func TestWriteList(t *testing.T) {
	w := httptest.NewRecorder()

	WriteList(w, ListResponse{Items: []string{"a", "b"}, NextCursor: "b", HasMore: true, Total: 5})

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []any{"a", "b"}, body["items"])
	assert.Equal(t, "b", body["next_cursor"])
	assert.Equal(t, true, body["has_more"])
	assert.Equal(t, float64(5), body["total"])
	assert.NotContains(t, body, "summary")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("get tenant x: %w", core.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("create plan: %w", core.ErrConflict), http.StatusConflict},
		{core.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: name is required", core.ErrInvalidInput), http.StatusBadRequest},
		{&core.CooldownError{RetryAfterSeconds: 30}, http.StatusTooManyRequests},
		{core.ErrTooManyAttempts, http.StatusTooManyRequests},
		{core.ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestWriteServiceError_Cooldown(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/login/initiate", nil)

	WriteServiceError(w, r, &core.CooldownError{RetryAfterSeconds: 42})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 42, body.RetryAfterSeconds)
	assert.Equal(t, "42", w.Header().Get("Retry-After"))
}

func TestWriteServiceError_HidesInternal(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/tenants", nil)

	WriteServiceError(w, r, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Error)
}
