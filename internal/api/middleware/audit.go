package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/saasadmin/internal/metrics"
	"github.com/edvin/saasadmin/internal/model"
)

// AuditBufferSize is how many entries may wait for the writer before new
// ones are dropped.
const AuditBufferSize = 1024

type AuditRecorder interface {
	Record(ctx context.Context, entry *model.AuditLog) error
}

// AuditLogger is an async audit log writer.
type AuditLogger struct {
	store  AuditRecorder
	logger zerolog.Logger
	ch     chan *model.AuditLog
	done   chan struct{}
	once   sync.Once
}

func NewAuditLogger(store AuditRecorder, logger zerolog.Logger) *AuditLogger {
	al := &AuditLogger{
		store:  store,
		logger: logger.With().Str("component", "audit").Logger(),
		ch:     make(chan *model.AuditLog, AuditBufferSize),
		done:   make(chan struct{}),
	}
	go al.drain()
	return al
}

func (al *AuditLogger) drain() {
	defer close(al.done)
	for entry := range al.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := al.store.Record(ctx, entry); err != nil {
			al.logger.Error().Err(err).Msg("failed to write audit log")
		}
		cancel()
	}
}

// Close stops accepting entries and waits until the queue is written or ctx ends.
func (al *AuditLogger) Close(ctx context.Context) {
	al.once.Do(func() { close(al.ch) })
	select {
	case <-al.done:
	case <-ctx.Done():
		al.logger.Warn().Int("pending", len(al.ch)).Msg("audit log drain timed out")
	}
}

func actionFor(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return ""
	}
}

// Middleware returns a chi middleware that logs mutating API requests.
func (al *AuditLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := actionFor(r.Method)
		if action == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Read and re-buffer the request body.
		var bodyBytes []byte
		if r.Body != nil {
			bodyBytes, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		entry := &model.AuditLog{
			Method:     r.Method,
			Path:       r.URL.Path,
			Action:     action,
			StatusCode: sw.status,
			IPAddress:  clientIP(r),
		}
		entry.ResourceType, entry.ResourceID = extractResource(r.URL.Path)
		if identity := GetIdentity(r.Context()); identity != nil {
			id := identity.ID
			entry.ActorID = &id
			entry.ActorEmail = identity.Email
		}
		if len(bodyBytes) > 0 && json.Valid(bodyBytes) {
			entry.RequestBody = sanitizeBody(bodyBytes)
		}

		select {
		case al.ch <- entry:
		default:
			metrics.AuditDropped.Inc()
			al.logger.Warn().Str("path", entry.Path).Msg("audit log buffer full, dropping entry")
		}
	})
}

// clientIP strips the port chi's RealIP leaves on RemoteAddr.
func clientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i > 0 && !strings.HasSuffix(addr, "]") {
		addr = addr[:i]
	}
	return strings.Trim(addr, "[]")
}

func extractResource(path string) (*string, *string) {
	// /api/v1/tickets           -> type=tickets
	// /api/v1/tickets/abc       -> type=tickets, id=abc
	// /api/v1/tickets/abc/reply -> type=tickets, id=abc
	// /api/v1/settings/webhooks/def -> type=webhooks, id=def
	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, "/api/v1/"), "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return nil, nil
	}
	if parts[0] == "settings" && len(parts) > 1 {
		parts = parts[1:]
	}

	resourceType := parts[0]
	var resourceID *string
	if len(parts) > 1 && !isVerb(parts[1]) {
		id := parts[1]
		resourceID = &id
	}
	return &resourceType, resourceID
}

// isVerb reports path segments that name an action rather than an ID.
func isVerb(segment string) bool {
	switch segment {
	case "export", "summary", "check", "polling", "avatar", "test", "send":
		return true
	}
	return false
}

// sensitiveFields are fields that should be redacted from audit logs.
var sensitiveFields = map[string]bool{
	"password": true, "secret": true, "token": true, "api_key": true, "key": true,
	"otp": true, "challenge": true, "data_url": true,
}

func sanitizeBody(body []byte) json.RawMessage {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}
	for k := range data {
		if sensitiveFields[k] {
			data[k] = "[REDACTED]"
		}
	}
	sanitized, _ := json.Marshal(data)
	return sanitized
}
