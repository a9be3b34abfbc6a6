package model

// Tenant statuses.
const (
	TenantTrial     = "trial"
	TenantActive    = "active"
	TenantSuspended = "suspended"
	TenantCancelled = "cancelled"
)

// Plan statuses and billing intervals.
const (
	PlanActive   = "active"
	PlanArchived = "archived"

	IntervalMonthly = "monthly"
	IntervalYearly  = "yearly"
)

// Invoice statuses.
const (
	InvoicePending   = "pending"
	InvoicePaid      = "paid"
	InvoiceOverdue   = "overdue"
	InvoiceCancelled = "cancelled"
)

// Support ticket statuses.
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

// Support ticket priorities, lowest first.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Notification types, audiences and statuses.
const (
	NotificationInfo        = "info"
	NotificationWarning     = "warning"
	NotificationAlert       = "alert"
	NotificationMaintenance = "maintenance"

	AudienceAll    = "all"
	AudienceTenant = "tenant"

	NotificationDraft     = "draft"
	NotificationScheduled = "scheduled"
	NotificationSent      = "sent"
)

// Admin user statuses.
const (
	AdminActive   = "active"
	AdminDisabled = "disabled"
)

// Usage metric names.
const (
	MetricAPICalls    = "api_calls"
	MetricStorageGB   = "storage_gb"
	MetricActiveUsers = "active_users"
	MetricBandwidthGB = "bandwidth_gb"
)

// PriorityRank maps a ticket priority to its sort rank. Unknown priorities rank lowest.
func PriorityRank(priority string) int {
	switch priority {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}
