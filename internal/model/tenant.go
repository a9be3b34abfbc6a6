package model

import "time"

// Tenant is a customer organisation on the platform.
type Tenant struct {
	ID         string     `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	Slug       string     `json:"slug" db:"slug"`
	Domain     string     `json:"domain" db:"domain"`
	OwnerEmail string     `json:"owner_email" db:"owner_email"`
	PlanID     *string    `json:"plan_id,omitempty" db:"plan_id"`
	PlanName   string     `json:"plan_name,omitempty" db:"-"`
	Status     string     `json:"status" db:"status"`
	UserCount  int        `json:"user_count" db:"user_count"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}
