package core

import (
	"context"
	"sync"
	"time"

	"github.com/edvin/saasadmin/internal/model"
)

var (
	fixedTime = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	validID   = "ten_1234567890"
)

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	data   []any
}

func (p *recordingPublisher) Publish(_ context.Context, event string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.data = append(p.data, data)
}

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func tenantScan(t model.Tenant) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = t.ID
		*(dest[1].(*string)) = t.Name
		*(dest[2].(*string)) = t.Slug
		*(dest[3].(*string)) = t.Domain
		*(dest[4].(*string)) = t.OwnerEmail
		*(dest[5].(**string)) = t.PlanID
		*(dest[6].(*string)) = t.PlanName
		*(dest[7].(*string)) = t.Status
		*(dest[8].(*int)) = t.UserCount
		*(dest[9].(*time.Time)) = t.CreatedAt
		*(dest[10].(*time.Time)) = t.UpdatedAt
		*(dest[11].(**time.Time)) = t.DeletedAt
		return nil
	}
}

func invoiceScan(i model.Invoice) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = i.ID
		*(dest[1].(*string)) = i.Number
		*(dest[2].(*string)) = i.TenantID
		*(dest[3].(*string)) = i.TenantName
		*(dest[4].(*int64)) = i.AmountCents
		*(dest[5].(*string)) = i.Currency
		*(dest[6].(*string)) = i.Status
		*(dest[7].(*time.Time)) = i.IssuedAt
		*(dest[8].(*time.Time)) = i.DueAt
		*(dest[9].(**time.Time)) = i.PaidAt
		*(dest[10].(*string)) = i.Notes
		*(dest[11].(*time.Time)) = i.CreatedAt
		*(dest[12].(*time.Time)) = i.UpdatedAt
		return nil
	}
}

func ticketScan(t model.SupportTicket) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = t.ID
		*(dest[1].(*string)) = t.Subject
		*(dest[2].(*string)) = t.Description
		*(dest[3].(**string)) = t.TenantID
		*(dest[4].(*string)) = t.TenantName
		*(dest[5].(*string)) = t.RequesterEmail
		*(dest[6].(*string)) = t.Priority
		*(dest[7].(*string)) = t.Status
		*(dest[8].(**string)) = t.AssignedTo
		*(dest[9].(*int)) = t.ReplyCount
		*(dest[10].(*time.Time)) = t.LastActivityAt
		*(dest[11].(*time.Time)) = t.CreatedAt
		*(dest[12].(*time.Time)) = t.UpdatedAt
		*(dest[13].(**time.Time)) = t.ResolvedAt
		return nil
	}
}

func notificationScan(n model.Notification) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = n.ID
		*(dest[1].(*string)) = n.Title
		*(dest[2].(*string)) = n.Message
		*(dest[3].(*string)) = n.Type
		*(dest[4].(*string)) = n.Audience
		*(dest[5].(**string)) = n.TenantID
		*(dest[6].(*string)) = n.Status
		*(dest[7].(**time.Time)) = n.ScheduledAt
		*(dest[8].(**time.Time)) = n.SentAt
		*(dest[9].(*time.Time)) = n.CreatedAt
		*(dest[10].(*time.Time)) = n.UpdatedAt
		return nil
	}
}

func adminScan(u model.AdminUser) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = u.ID
		*(dest[1].(*string)) = u.Email
		*(dest[2].(*string)) = u.PasswordHash
		*(dest[3].(*string)) = u.DisplayName
		*(dest[4].(**string)) = u.AvatarKey
		*(dest[5].(*string)) = u.Status
		*(dest[6].(**time.Time)) = u.LastLoginAt
		*(dest[7].(*time.Time)) = u.CreatedAt
		*(dest[8].(*time.Time)) = u.UpdatedAt
		return nil
	}
}

func settingScan(key, value string) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = key
		*(dest[1].(*string)) = value
		*(dest[2].(*time.Time)) = fixedTime
		return nil
	}
}

func strPtr(s string) *string { return &s }
