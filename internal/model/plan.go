package model

import "time"

// Plan is a subscription plan tenants are billed against.
type Plan struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description" db:"description"`
	PriceCents   int64     `json:"price_cents" db:"price_cents"`
	Currency     string    `json:"currency" db:"currency"`
	Interval     string    `json:"interval" db:"interval"`
	Features     []string  `json:"features" db:"features"`
	MaxUsers     int       `json:"max_users" db:"max_users"`
	MaxStorageGB int       `json:"max_storage_gb" db:"max_storage_gb"`
	Status       string    `json:"status" db:"status"`
	TenantCount  int       `json:"tenant_count" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// MonthlyCents normalises the plan price to a monthly amount.
func (p Plan) MonthlyCents() int64 {
	if p.Interval == IntervalYearly {
		return p.PriceCents / 12
	}
	return p.PriceCents
}
