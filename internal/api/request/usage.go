package request

import "time"

type UsageSample struct {
	TenantID   string     `json:"tenant_id" validate:"required"`
	Metric     string     `json:"metric" validate:"required,oneof=api_calls storage_gb active_users bandwidth_gb"`
	Value      float64    `json:"value" validate:"min=0"`
	RecordedAt *time.Time `json:"recorded_at"`
}

type RecordUsage struct {
	Samples []UsageSample `json:"samples" validate:"required,min=1,max=1000,dive"`
}
