package model

import "time"

// SupportTicket is a tenant support request.
type SupportTicket struct {
	ID             string     `json:"id" db:"id"`
	Subject        string     `json:"subject" db:"subject"`
	Description    string     `json:"description" db:"description"`
	TenantID       *string    `json:"tenant_id,omitempty" db:"tenant_id"`
	TenantName     string     `json:"tenant_name" db:"-"`
	RequesterEmail string     `json:"requester_email" db:"requester_email"`
	Priority       string     `json:"priority" db:"priority"`
	Status         string     `json:"status" db:"status"`
	AssignedTo     *string    `json:"assigned_to,omitempty" db:"assigned_to"`
	ReplyCount     int        `json:"reply_count" db:"reply_count"`
	LastActivityAt time.Time  `json:"last_activity_at" db:"last_activity_at"`
	SLABreached    bool       `json:"sla_breached" db:"-"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
}

// SLABreachedAt reports whether an unresolved ticket has been idle longer than sla.
func (t SupportTicket) SLABreachedAt(now time.Time, sla time.Duration) bool {
	if t.Status != TicketOpen && t.Status != TicketInProgress {
		return false
	}
	return now.Sub(t.LastActivityAt) > sla
}

// TicketReply is one message in a ticket thread.
type TicketReply struct {
	ID        string    `json:"id" db:"id"`
	TicketID  string    `json:"ticket_id" db:"ticket_id"`
	Author    string    `json:"author" db:"author"`
	Body      string    `json:"body" db:"body"`
	Internal  bool      `json:"internal" db:"internal"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TicketDraft is an unsent reply kept for an admin between sessions.
type TicketDraft struct {
	TicketID  string    `json:"ticket_id"`
	Body      string    `json:"body"`
	Internal  bool      `json:"internal"`
	UpdatedAt time.Time `json:"updated_at"`
}
