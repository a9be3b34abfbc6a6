package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/saasadmin/internal/metrics"
)

type InvoiceSweeper interface {
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}

type NotificationSender interface {
	SendDue(ctx context.Context, now time.Time) (int, error)
}

type SLACounter interface {
	CountSLABreached(ctx context.Context) (int, error)
}

// Deps are what the built-in jobs act on. Invalidate, when set, is called
// after a job changed data shown on the dashboard.
type Deps struct {
	Invoices      InvoiceSweeper
	Notifications NotificationSender
	Tickets       SLACounter
	Invalidate    func()
	Logger        zerolog.Logger
	Now           func() time.Time
}

// Job names.
const (
	JobOverdueInvoices   = "overdue-invoices"
	JobDueNotifications  = "due-notifications"
	JobSLABreachedTicket = "sla-breached-tickets"
)

// DefaultJobs returns the overdue sweep (hourly), scheduled notification
// delivery (every minute) and the SLA gauge refresh (every 5 minutes).
func DefaultJobs(d Deps) []Job {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	invalidate := d.Invalidate
	if invalidate == nil {
		invalidate = func() {}
	}

	return []Job{
		{
			Name:     JobOverdueInvoices,
			Schedule: "@hourly",
			Run: func(ctx context.Context) error {
				n, err := d.Invoices.MarkOverdue(ctx, now().UTC())
				if err != nil {
					return err
				}
				if n > 0 {
					d.Logger.Info().Int("count", n).Msg("invoices marked overdue")
					invalidate()
				}
				return nil
			},
		},
		{
			Name:     JobDueNotifications,
			Schedule: "@every 1m",
			Run: func(ctx context.Context) error {
				n, err := d.Notifications.SendDue(ctx, now().UTC())
				if n > 0 {
					d.Logger.Info().Int("count", n).Msg("scheduled notifications sent")
					invalidate()
				}
				return err
			},
		},
		{
			Name:     JobSLABreachedTicket,
			Schedule: "@every 5m",
			Run: func(ctx context.Context) error {
				n, err := d.Tickets.CountSLABreached(ctx)
				if err != nil {
					return err
				}
				metrics.SLABreachedTickets.Set(float64(n))
				return nil
			},
		},
	}
}
