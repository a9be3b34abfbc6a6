package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/saasadmin/internal/model"
)

type recordingStore struct {
	mu      sync.Mutex
	entries []*model.AuditLog
}

func (s *recordingStore) Record(_ context.Context, entry *model.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *recordingStore) all() []*model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.AuditLog(nil), s.entries...)
}

func TestExtractResource_SimplePath(t *testing.T) {
	resType, resID := extractResource("/api/v1/tenants")
	require.NotNil(t, resType)
	assert.Equal(t, "tenants", *resType)
	assert.Nil(t, resID)
}

func TestExtractResource_WithID(t *testing.T) {
	resType, resID := extractResource("/api/v1/tenants/abc-123")
	require.NotNil(t, resType)
	assert.Equal(t, "tenants", *resType)
	require.NotNil(t, resID)
	assert.Equal(t, "abc-123", *resID)
}

func TestExtractResource_SubAction(t *testing.T) {
	resType, resID := extractResource("/api/v1/tickets/t-1/replies")
	require.NotNil(t, resType)
	assert.Equal(t, "tickets", *resType)
	require.NotNil(t, resID)
	assert.Equal(t, "t-1", *resID)
}

func TestExtractResource_Settings(t *testing.T) {
	resType, resID := extractResource("/api/v1/settings/webhooks/wh-1")
	require.NotNil(t, resType)
	assert.Equal(t, "webhooks", *resType)
	require.NotNil(t, resID)
	assert.Equal(t, "wh-1", *resID)
}

func TestExtractResource_Verb(t *testing.T) {
	resType, resID := extractResource("/api/v1/health/check")
	require.NotNil(t, resType)
	assert.Equal(t, "health", *resType)
	assert.Nil(t, resID)
}

func TestSanitizeBody(t *testing.T) {
	body := []byte(`{"name":"test","password":"secret123","otp":"123456","data_url":"data:image/png;base64,AA=="}`)
	sanitized := sanitizeBody(body)

	var result map[string]any
	require.NoError(t, json.Unmarshal(sanitized, &result))
	assert.Equal(t, "test", result["name"])
	assert.Equal(t, "[REDACTED]", result["password"])
	assert.Equal(t, "[REDACTED]", result["otp"])
	assert.Equal(t, "[REDACTED]", result["data_url"])
}

func TestAuditLogger_RecordsMutations(t *testing.T) {
	store := &recordingStore{}
	al := NewAuditLogger(store, zerolog.Nop())

	h := al.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants", strings.NewReader(`{"name":"Acme","secret":"x"}`))
	req.RemoteAddr = "10.0.0.7:5555"
	req = req.WithContext(WithIdentity(req.Context(), &Identity{Kind: KindAdmin, ID: "admin-1", Email: "root@example.com"}))
	h.ServeHTTP(httptest.NewRecorder(), req)

	// GETs are not audited.
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/tenants", nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	al.Close(ctx)

	entries := store.all()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "create", e.Action)
	assert.Equal(t, http.StatusCreated, e.StatusCode)
	assert.Equal(t, "10.0.0.7", e.IPAddress)
	assert.Equal(t, "root@example.com", e.ActorEmail)
	require.NotNil(t, e.ActorID)
	assert.Equal(t, "admin-1", *e.ActorID)
	require.NotNil(t, e.ResourceType)
	assert.Equal(t, "tenants", *e.ResourceType)
	assert.Contains(t, string(e.RequestBody), "[REDACTED]")
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, "create", actionFor(http.MethodPost))
	assert.Equal(t, "update", actionFor(http.MethodPatch))
	assert.Equal(t, "update", actionFor(http.MethodPut))
	assert.Equal(t, "delete", actionFor(http.MethodDelete))
	assert.Equal(t, "", actionFor(http.MethodGet))
}
