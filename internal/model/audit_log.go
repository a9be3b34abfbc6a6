package model

import (
	"encoding/json"
	"time"
)

// AuditLog records one mutating API request.
type AuditLog struct {
	ID           string          `json:"id" db:"id"`
	ActorID      *string         `json:"actor_id,omitempty" db:"actor_id"`
	ActorEmail   string          `json:"actor_email" db:"actor_email"`
	Method       string          `json:"method" db:"method"`
	Path         string          `json:"path" db:"path"`
	Action       string          `json:"action" db:"action"`
	ResourceType *string         `json:"resource_type,omitempty" db:"resource_type"`
	ResourceID   *string         `json:"resource_id,omitempty" db:"resource_id"`
	StatusCode   int             `json:"status_code" db:"status_code"`
	IPAddress    string          `json:"ip_address" db:"ip_address"`
	RequestBody  json.RawMessage `json:"request_body,omitempty" db:"request_body"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
