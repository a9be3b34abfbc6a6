package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edvin/saasadmin/internal/listfilter"
	"github.com/edvin/saasadmin/internal/model"
	"github.com/edvin/saasadmin/internal/platform"
)

// NotificationSchema describes how notification lists are searched, filtered and sorted.
var NotificationSchema = listfilter.Schema[model.Notification]{
	ID: func(n model.Notification) string { return n.ID },
	Search: []func(model.Notification) string{
		func(n model.Notification) string { return n.Title },
		func(n model.Notification) string { return n.Message },
	},
	Categories: map[string]func(model.Notification) string{
		"type":      func(n model.Notification) string { return n.Type },
		"status":    func(n model.Notification) string { return n.Status },
		"audience":  func(n model.Notification) string { return n.Audience },
		"tenant_id": func(n model.Notification) string { return derefOr(n.TenantID, "none") },
	},
	Dates: map[string]func(model.Notification) time.Time{
		"date": func(n model.Notification) time.Time { return n.CreatedAt },
	},
	Sorts: map[string]func(a, b model.Notification) int{
		"created_at": func(a, b model.Notification) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"title":      func(a, b model.Notification) int { return strings.Compare(a.Title, b.Title) },
		"sent_at": func(a, b model.Notification) int {
			return timePtrOr(a.SentAt).Compare(timePtrOr(b.SentAt))
		},
	},
	DefaultSort: "created_at",
}

func timePtrOr(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

type NotificationService struct {
	db     DB
	events Publisher
	now    func() time.Time
}

func NewNotificationService(db DB, events Publisher) *NotificationService {
	return &NotificationService{db: db, events: orNop(events), now: time.Now}
}

const notificationColumns = `id, title, message, type, audience, tenant_id, status, scheduled_at, sent_at, created_at, updated_at`

func scanNotification(row interface{ Scan(...any) error }, n *model.Notification) error {
	return row.Scan(&n.ID, &n.Title, &n.Message, &n.Type, &n.Audience, &n.TenantID, &n.Status,
		&n.ScheduledAt, &n.SentAt, &n.CreatedAt, &n.UpdatedAt)
}

func validateNotification(n *model.Notification) error {
	if strings.TrimSpace(n.Title) == "" {
		return invalid("title is required")
	}
	if strings.TrimSpace(n.Message) == "" {
		return invalid("message is required")
	}
	switch n.Type {
	case model.NotificationInfo, model.NotificationWarning, model.NotificationAlert, model.NotificationMaintenance:
	default:
		return invalid("unknown type %q", n.Type)
	}
	switch n.Audience {
	case model.AudienceAll:
		n.TenantID = nil
	case model.AudienceTenant:
		if n.TenantID == nil || *n.TenantID == "" {
			return invalid("tenant_id is required when audience is tenant")
		}
	default:
		return invalid("unknown audience %q", n.Audience)
	}
	return nil
}

// Create stores a draft, or a scheduled notification when ScheduledAt is set.
func (s *NotificationService) Create(ctx context.Context, n *model.Notification) error {
	if n.Type == "" {
		n.Type = model.NotificationInfo
	}
	if n.Audience == "" {
		n.Audience = model.AudienceAll
	}
	if err := validateNotification(n); err != nil {
		return err
	}
	now := s.now()
	n.ID = platform.NewName("ntf_")
	n.Status = model.NotificationDraft
	if n.ScheduledAt != nil {
		n.Status = model.NotificationScheduled
	}
	n.SentAt = nil
	n.CreatedAt, n.UpdatedAt = now, now

	_, err := s.db.Exec(ctx,
		`INSERT INTO notifications (`+notificationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		n.ID, n.Title, n.Message, n.Type, n.Audience, n.TenantID, n.Status, n.ScheduledAt, n.SentAt, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return dbErr("create notification", err)
	}
	return nil
}

func (s *NotificationService) GetByID(ctx context.Context, id string) (*model.Notification, error) {
	var n model.Notification
	row := s.db.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	if err := scanNotification(row, &n); err != nil {
		return nil, dbErr(fmt.Sprintf("get notification %s", id), err)
	}
	return &n, nil
}

func (s *NotificationService) List(ctx context.Context) ([]model.Notification, error) {
	return s.query(ctx, `SELECT `+notificationColumns+` FROM notifications ORDER BY created_at DESC`)
}

func (s *NotificationService) query(ctx context.Context, sql string, args ...any) ([]model.Notification, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := scanNotification(rows, &n); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

// Update replaces the content of an unsent notification.
func (s *NotificationService) Update(ctx context.Context, n *model.Notification) error {
	cur, err := s.GetByID(ctx, n.ID)
	if err != nil {
		return err
	}
	if cur.Status == model.NotificationSent {
		return fmt.Errorf("update notification %s: %w: already sent", n.ID, ErrInvalidTransition)
	}
	if err := validateNotification(n); err != nil {
		return err
	}
	n.Status = model.NotificationDraft
	if n.ScheduledAt != nil {
		n.Status = model.NotificationScheduled
	}
	n.CreatedAt = cur.CreatedAt
	n.UpdatedAt = s.now()

	ct, err := s.db.Exec(ctx,
		`UPDATE notifications SET title = $2, message = $3, type = $4, audience = $5, tenant_id = $6,
		        status = $7, scheduled_at = $8, updated_at = $9
		 WHERE id = $1 AND status <> 'sent'`,
		n.ID, n.Title, n.Message, n.Type, n.Audience, n.TenantID, n.Status, n.ScheduledAt, n.UpdatedAt,
	)
	if err != nil {
		return dbErr(fmt.Sprintf("update notification %s", n.ID), err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("update notification %s: %w: already sent", n.ID, ErrInvalidTransition)
	}
	return nil
}

// Send marks a notification sent and dispatches the notification.sent event.
func (s *NotificationService) Send(ctx context.Context, id string) (*model.Notification, error) {
	n, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status == model.NotificationSent {
		return nil, fmt.Errorf("send notification %s: %w: already sent", id, ErrInvalidTransition)
	}
	if err := s.markSent(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NotificationService) markSent(ctx context.Context, n *model.Notification) error {
	now := s.now()
	tag, err := s.db.Exec(ctx,
		`UPDATE notifications SET status = 'sent', sent_at = $2, updated_at = $2 WHERE id = $1 AND status <> 'sent'`,
		n.ID, now)
	if err != nil {
		return fmt.Errorf("send notification %s: %w", n.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("send notification %s: %w", n.ID, ErrConflict)
	}
	n.Status = model.NotificationSent
	n.SentAt = &now
	n.UpdatedAt = now
	s.events.Publish(ctx, model.EventNotificationSent, n)
	return nil
}

// SendDue sends every scheduled notification whose time has come and returns
// how many went out. Notifications sent meanwhile by someone else are skipped.
func (s *NotificationService) SendDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.query(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE status = 'scheduled' AND scheduled_at <= $1 ORDER BY scheduled_at`, now)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range due {
		err := s.markSent(ctx, &due[i])
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (s *NotificationService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM notifications WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete notification %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete notification %s: %w", id, ErrNotFound)
	}
	return nil
}
