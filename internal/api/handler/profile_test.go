package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/saasadmin/internal/core"
)

func TestProfile_RequiresAdminSession(t *testing.T) {
	h := NewProfile(core.NewAdminUserService(&handlerMockDB{}, nil))
	handlers := map[string]http.HandlerFunc{
		"get":        h.Get,
		"update":     h.Update,
		"set avatar": h.SetAvatar,
		"avatar":     h.Avatar,
	}
	for name, fn := range handlers {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			fn(rec, withAPIKey(newRequest(http.MethodGet, "/me", nil), core.ScopeAll))

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, "admin session required", errorBody(rec)["error"])
		})
	}
}

func TestProfileUpdate_Validation(t *testing.T) {
	h := NewProfile(core.NewAdminUserService(&handlerMockDB{}, nil))
	rec := httptest.NewRecorder()
	h.Update(rec, withAdmin(newRequest(http.MethodPatch, "/me", map[string]any{"display_name": ""})))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func newTicketHandler(t *testing.T) *Ticket {
	t.Helper()
	return NewTicket(core.NewTicketService(&handlerMockDB{}, newTestRedis(t), nil))
}

func TestTicketDraft_RoundTrip(t *testing.T) {
	h := newTicketHandler(t)
	const ticketID = "tkt_1"

	rec := httptest.NewRecorder()
	h.GetDraft(rec, withURLParams(withAdmin(newRequest(http.MethodGet, "/tickets/tkt_1/draft", nil)), "id", ticketID))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r := withAdmin(newRequest(http.MethodPut, "/tickets/tkt_1/draft", map[string]any{"body": "Looking into it", "internal": true}))
	h.SaveDraft(rec, withURLParams(r, "id", ticketID))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.GetDraft(rec, withURLParams(withAdmin(newRequest(http.MethodGet, "/tickets/tkt_1/draft", nil)), "id", ticketID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"body":"Looking into it"`)
	assert.Contains(t, rec.Body.String(), `"internal":true`)

	rec = httptest.NewRecorder()
	h.DeleteDraft(rec, withURLParams(withAdmin(newRequest(http.MethodDelete, "/tickets/tkt_1/draft", nil)), "id", ticketID))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.GetDraft(rec, withURLParams(withAdmin(newRequest(http.MethodGet, "/tickets/tkt_1/draft", nil)), "id", ticketID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTicketDraft_RequiresAdminSession(t *testing.T) {
	h := newTicketHandler(t)
	rec := httptest.NewRecorder()
	r := withAPIKey(newRequest(http.MethodPut, "/tickets/tkt_1/draft", map[string]any{"body": "x"}), core.ScopeAll)
	h.SaveDraft(rec, withURLParams(r, "id", "tkt_1"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTicketReply_EmptyBody(t *testing.T) {
	h := newTicketHandler(t)
	rec := httptest.NewRecorder()
	r := withAdmin(newRequest(http.MethodPost, "/tickets/tkt_1/replies", map[string]any{"body": ""}))
	h.Reply(rec, withURLParams(r, "id", "tkt_1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsageRecord_Validation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"no samples", map[string]any{"samples": []any{}}},
		{"unknown metric", map[string]any{"samples": []any{map[string]any{"tenant_id": "ten_1", "metric": "cpu", "value": 1}}}},
		{"negative value", map[string]any{"samples": []any{map[string]any{"tenant_id": "ten_1", "metric": "api_calls", "value": -1}}}},
		{"missing tenant", map[string]any{"samples": []any{map[string]any{"metric": "api_calls", "value": 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUsage(core.NewUsageService(&handlerMockDB{}))
			rec := httptest.NewRecorder()
			h.Record(rec, newRequest(http.MethodPost, "/usage", tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSettingsUpdate_Empty(t *testing.T) {
	h := NewSettings(core.NewSettingsService(&handlerMockDB{}))
	rec := httptest.NewRecorder()
	h.Update(rec, newRequest(http.MethodPut, "/settings", map[string]any{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no settings given", errorBody(rec)["error"])
}

func TestSettingsUpdate_Validation(t *testing.T) {
	h := NewSettings(core.NewSettingsService(&handlerMockDB{}))
	rec := httptest.NewRecorder()
	h.Update(rec, newRequest(http.MethodPut, "/settings", map[string]any{"sla_hours": 0}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
