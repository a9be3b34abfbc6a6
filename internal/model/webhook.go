package model

import "time"

// Webhook events.
const (
	EventTenantCreated    = "tenant.created"
	EventTenantSuspended  = "tenant.suspended"
	EventInvoicePaid      = "invoice.paid"
	EventInvoiceOverdue   = "invoice.overdue"
	EventNotificationSent = "notification.sent"
	EventWebhookTest      = "webhook.test"
)

// Webhook is an outbound HTTP integration subscribed to platform events.
type Webhook struct {
	ID          string    `json:"id" db:"id"`
	URL         string    `json:"url" db:"url"`
	Events      []string  `json:"events" db:"events"`
	Secret      string    `json:"-" db:"secret"`
	Active      bool      `json:"active" db:"active"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Subscribes reports whether the webhook wants the given event.
func (w Webhook) Subscribes(event string) bool {
	for _, e := range w.Events {
		if e == "*" || e == event {
			return true
		}
	}
	return false
}

// WebhookDelivery is the outcome of one delivery attempt.
type WebhookDelivery struct {
	WebhookID  string        `json:"webhook_id"`
	Event      string        `json:"event"`
	StatusCode int           `json:"status_code"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}
