package request

import "time"

type CreateInvoice struct {
	TenantID    string     `json:"tenant_id" validate:"required"`
	AmountCents int64      `json:"amount_cents" validate:"required,gt=0"`
	Currency    string     `json:"currency" validate:"omitempty,len=3"`
	IssuedAt    *time.Time `json:"issued_at"`
	DueAt       *time.Time `json:"due_at"`
	Notes       string     `json:"notes" validate:"max=2000"`
}

type UpdateInvoice struct {
	AmountCents *int64     `json:"amount_cents" validate:"omitempty,gt=0"`
	DueAt       *time.Time `json:"due_at"`
	Notes       *string    `json:"notes" validate:"omitempty,max=2000"`
}

type SetInvoiceStatus struct {
	Status string `json:"status" validate:"required,oneof=pending paid overdue cancelled"`
}
