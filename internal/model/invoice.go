package model

import "time"

// Invoice is a bill issued to a tenant.
type Invoice struct {
	ID          string     `json:"id" db:"id"`
	Number      string     `json:"number" db:"number"`
	TenantID    string     `json:"tenant_id" db:"tenant_id"`
	TenantName  string     `json:"tenant_name" db:"-"`
	AmountCents int64      `json:"amount_cents" db:"amount_cents"`
	Currency    string     `json:"currency" db:"currency"`
	Status      string     `json:"status" db:"status"`
	IssuedAt    time.Time  `json:"issued_at" db:"issued_at"`
	DueAt       time.Time  `json:"due_at" db:"due_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty" db:"paid_at"`
	Notes       string     `json:"notes" db:"notes"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

var invoiceTransitions = map[string][]string{
	InvoicePending: {InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceOverdue: {InvoicePaid, InvoiceCancelled},
}

// CanTransitionInvoice reports whether an invoice may move from one status to another.
// Paid and cancelled invoices are final.
func CanTransitionInvoice(from, to string) bool {
	for _, s := range invoiceTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
