package request

import "time"

type Notification struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Message     string     `json:"message" validate:"required,max=5000"`
	Type        string     `json:"type" validate:"omitempty,oneof=info warning alert maintenance"`
	Audience    string     `json:"audience" validate:"omitempty,oneof=all tenant"`
	TenantID    *string    `json:"tenant_id"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}
