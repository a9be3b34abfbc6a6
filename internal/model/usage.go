package model

import "time"

// UsageMetric is a single usage sample reported for a tenant.
type UsageMetric struct {
	ID         string    `json:"id" db:"id"`
	TenantID   string    `json:"tenant_id" db:"tenant_id"`
	TenantName string    `json:"tenant_name" db:"-"`
	Metric     string    `json:"metric" db:"metric"`
	Value      float64   `json:"value" db:"value"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// TenantUsageSummary aggregates usage samples for one tenant.
type TenantUsageSummary struct {
	TenantID   string             `json:"tenant_id"`
	TenantName string             `json:"tenant_name"`
	Totals     map[string]float64 `json:"totals"`
	Samples    int                `json:"samples"`
}
