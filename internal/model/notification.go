package model

import "time"

// Notification is a platform announcement sent to all tenants or one tenant.
type Notification struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Message     string     `json:"message" db:"message"`
	Type        string     `json:"type" db:"type"`
	Audience    string     `json:"audience" db:"audience"`
	TenantID    *string    `json:"tenant_id,omitempty" db:"tenant_id"`
	Status      string     `json:"status" db:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty" db:"scheduled_at"`
	SentAt      *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
