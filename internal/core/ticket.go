package core

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/edvin/saasadmin/internal/listfilter"
	"github.com/edvin/saasadmin/internal/model"
	"github.com/edvin/saasadmin/internal/platform"
)

// TicketSchema describes how ticket lists are searched, filtered and sorted.
var TicketSchema = listfilter.Schema[model.SupportTicket]{
	ID: func(t model.SupportTicket) string { return t.ID },
	Search: []func(model.SupportTicket) string{
		func(t model.SupportTicket) string { return t.Subject },
		func(t model.SupportTicket) string { return t.RequesterEmail },
		func(t model.SupportTicket) string { return t.TenantName },
	},
	Categories: map[string]func(model.SupportTicket) string{
		"status":      func(t model.SupportTicket) string { return t.Status },
		"priority":    func(t model.SupportTicket) string { return t.Priority },
		"tenant_id":   func(t model.SupportTicket) string { return derefOr(t.TenantID, "none") },
		"assigned_to": func(t model.SupportTicket) string { return derefOr(t.AssignedTo, "unassigned") },
		"sla": func(t model.SupportTicket) string {
			if t.SLABreached {
				return "breached"
			}
			return "ok"
		},
	},
	Dates: map[string]func(model.SupportTicket) time.Time{
		"date": func(t model.SupportTicket) time.Time { return t.CreatedAt },
	},
	Sorts: map[string]func(a, b model.SupportTicket) int{
		"created_at": func(a, b model.SupportTicket) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"priority": func(a, b model.SupportTicket) int {
			return cmp.Compare(model.PriorityRank(a.Priority), model.PriorityRank(b.Priority))
		},
		"replies":          func(a, b model.SupportTicket) int { return cmp.Compare(a.ReplyCount, b.ReplyCount) },
		"last_activity_at": func(a, b model.SupportTicket) int { return a.LastActivityAt.Compare(b.LastActivityAt) },
	},
	DefaultSort: "created_at",
}

func validPriority(p string) bool {
	switch p {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityUrgent:
		return true
	}
	return false
}

func validTicketStatus(s string) bool {
	switch s {
	case model.TicketOpen, model.TicketInProgress, model.TicketResolved, model.TicketClosed:
		return true
	}
	return false
}

const draftTTL = 7 * 24 * time.Hour

type TicketService struct {
	db       DB
	rdb      *redis.Client
	settings *SettingsService
	now      func() time.Time
}

func NewTicketService(db DB, rdb *redis.Client, settings *SettingsService) *TicketService {
	return &TicketService{db: db, rdb: rdb, settings: settings, now: time.Now}
}

const ticketColumns = `s.id, s.subject, s.description, s.tenant_id, COALESCE(t.name, ''), s.requester_email,
	s.priority, s.status, s.assigned_to, s.reply_count, s.last_activity_at, s.created_at, s.updated_at, s.resolved_at`

func scanTicket(row interface{ Scan(...any) error }, t *model.SupportTicket) error {
	return row.Scan(&t.ID, &t.Subject, &t.Description, &t.TenantID, &t.TenantName, &t.RequesterEmail,
		&t.Priority, &t.Status, &t.AssignedTo, &t.ReplyCount, &t.LastActivityAt, &t.CreatedAt, &t.UpdatedAt, &t.ResolvedAt)
}

func (s *TicketService) sla(ctx context.Context) time.Duration {
	if s.settings != nil {
		if d, err := s.settings.SLA(ctx); err == nil {
			return d
		}
	}
	return time.Duration(model.DefaultPlatformSettings().SLAHours) * time.Hour
}

func (s *TicketService) Create(ctx context.Context, t *model.SupportTicket) error {
	if strings.TrimSpace(t.Subject) == "" {
		return invalid("subject is required")
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if !validPriority(t.Priority) {
		return invalid("unknown priority %q", t.Priority)
	}
	now := s.now()
	t.ID = platform.NewName("tkt_")
	t.Status = model.TicketOpen
	t.ReplyCount = 0
	t.LastActivityAt, t.CreatedAt, t.UpdatedAt = now, now, now

	_, err := s.db.Exec(ctx,
		`INSERT INTO support_tickets (id, subject, description, tenant_id, requester_email, priority, status,
		                              assigned_to, reply_count, last_activity_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10, $11)`,
		t.ID, t.Subject, t.Description, t.TenantID, t.RequesterEmail, t.Priority, t.Status,
		t.AssignedTo, t.LastActivityAt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return dbErr("create ticket", err)
	}
	return nil
}

func (s *TicketService) GetByID(ctx context.Context, id string) (*model.SupportTicket, error) {
	var t model.SupportTicket
	row := s.db.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM support_tickets s LEFT JOIN tenants t ON t.id = s.tenant_id WHERE s.id = $1`, id)
	if err := scanTicket(row, &t); err != nil {
		return nil, dbErr(fmt.Sprintf("get ticket %s", id), err)
	}
	t.SLABreached = t.SLABreachedAt(s.now(), s.sla(ctx))
	return &t, nil
}

// List returns all tickets with their SLA flag evaluated against the
// configured response window.
func (s *TicketService) List(ctx context.Context) ([]model.SupportTicket, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+ticketColumns+` FROM support_tickets s LEFT JOIN tenants t ON t.id = s.tenant_id ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []model.SupportTicket
	for rows.Next() {
		var t model.SupportTicket
		if err := scanTicket(rows, &t); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}

	now, sla := s.now(), s.sla(ctx)
	for i := range tickets {
		tickets[i].SLABreached = tickets[i].SLABreachedAt(now, sla)
	}
	return tickets, nil
}

// TicketUpdate holds optional field changes.
type TicketUpdate struct {
	Status     *string
	Priority   *string
	AssignedTo *string
}

func (s *TicketService) Update(ctx context.Context, id string, upd TicketUpdate) (*model.SupportTicket, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if upd.Priority != nil {
		if !validPriority(*upd.Priority) {
			return nil, invalid("unknown priority %q", *upd.Priority)
		}
		t.Priority = *upd.Priority
	}
	if upd.Status != nil && *upd.Status != t.Status {
		if !validTicketStatus(*upd.Status) {
			return nil, invalid("unknown status %q", *upd.Status)
		}
		if t.Status == model.TicketClosed {
			return nil, fmt.Errorf("ticket %s: %w: closed tickets cannot change status", id, ErrInvalidTransition)
		}
		t.Status = *upd.Status
		if t.Status == model.TicketResolved || t.Status == model.TicketClosed {
			t.ResolvedAt = &now
		} else {
			t.ResolvedAt = nil
		}
	}
	if upd.AssignedTo != nil {
		if *upd.AssignedTo == "" {
			t.AssignedTo = nil
		} else {
			t.AssignedTo = upd.AssignedTo
		}
	}
	t.UpdatedAt = now

	_, err = s.db.Exec(ctx,
		`UPDATE support_tickets SET status = $2, priority = $3, assigned_to = $4, resolved_at = $5, updated_at = $6
		 WHERE id = $1`,
		t.ID, t.Status, t.Priority, t.AssignedTo, t.ResolvedAt, t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update ticket %s: %w", id, err)
	}
	t.SLABreached = t.SLABreachedAt(now, s.sla(ctx))
	return t, nil
}

// Reply appends a message to the thread and bumps activity. A public reply
// on a resolved ticket reopens it.
func (s *TicketService) Reply(ctx context.Context, ticketID, author, body string, internal bool) (*model.TicketReply, error) {
	if strings.TrimSpace(body) == "" {
		return nil, invalid("reply body is required")
	}
	t, err := s.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status == model.TicketClosed {
		return nil, fmt.Errorf("reply to ticket %s: %w: ticket is closed", ticketID, ErrInvalidTransition)
	}

	now := s.now()
	reply := &model.TicketReply{
		ID:        platform.NewID(),
		TicketID:  ticketID,
		Author:    author,
		Body:      body,
		Internal:  internal,
		CreatedAt: now,
	}
	// The reply row and the thread bump land in one statement. The insert is
	// gated on the ticket still being open to replies.
	ct, err := s.db.Exec(ctx,
		`WITH r AS (
			INSERT INTO ticket_replies (id, ticket_id, author, body, internal, created_at)
			SELECT $1::text, id, $3::text, $4::text, $5::boolean, $6::timestamptz
			FROM support_tickets WHERE id = $2 AND status <> 'closed'
			RETURNING ticket_id
		)
		UPDATE support_tickets t SET
			reply_count = t.reply_count + 1,
			last_activity_at = $6,
			updated_at = $6,
			status = CASE WHEN $7::boolean AND t.status = 'resolved' THEN 'open' ELSE t.status END,
			resolved_at = CASE WHEN $7::boolean AND t.status = 'resolved' THEN NULL ELSE t.resolved_at END
		FROM r WHERE t.id = r.ticket_id`,
		reply.ID, reply.TicketID, reply.Author, reply.Body, reply.Internal, reply.CreatedAt, !internal)
	if err != nil {
		return nil, dbErr("create ticket reply", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, fmt.Errorf("reply to ticket %s: %w: ticket is closed", ticketID, ErrInvalidTransition)
	}
	return reply, nil
}

// Replies returns the thread oldest first.
func (s *TicketService) Replies(ctx context.Context, ticketID string) ([]model.TicketReply, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, ticket_id, author, body, internal, created_at FROM ticket_replies
		 WHERE ticket_id = $1 ORDER BY created_at`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list ticket replies: %w", err)
	}
	defer rows.Close()

	replies := []model.TicketReply{}
	for rows.Next() {
		var r model.TicketReply
		if err := rows.Scan(&r.ID, &r.TicketID, &r.Author, &r.Body, &r.Internal, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket reply: %w", err)
		}
		replies = append(replies, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticket replies: %w", err)
	}
	return replies, nil
}

func (s *TicketService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM support_tickets WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete ticket %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete ticket %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountSLABreached counts unresolved tickets idle longer than the SLA.
func (s *TicketService) CountSLABreached(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.sla(ctx))
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM support_tickets WHERE status IN ($1, $2) AND last_activity_at < $3`,
		model.TicketOpen, model.TicketInProgress, cutoff,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sla breached tickets: %w", err)
	}
	return n, nil
}

func draftKey(adminID, ticketID string) string {
	return "ticket_draft:" + adminID + ":" + ticketID
}

// SaveDraft keeps an unsent reply for an admin for a week.
func (s *TicketService) SaveDraft(ctx context.Context, adminID string, d *model.TicketDraft) error {
	d.UpdatedAt = s.now()
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.rdb.Set(ctx, draftKey(adminID, d.TicketID), data, draftTTL).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *TicketService) GetDraft(ctx context.Context, adminID, ticketID string) (*model.TicketDraft, error) {
	data, err := s.rdb.Get(ctx, draftKey(adminID, ticketID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get draft for ticket %s: %w", ticketID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	var d model.TicketDraft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

func (s *TicketService) DeleteDraft(ctx context.Context, adminID, ticketID string) error {
	if err := s.rdb.Del(ctx, draftKey(adminID, ticketID)).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
