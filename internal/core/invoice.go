package core

import (
	"cmp"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edvin/saasadmin/internal/listfilter"
	"github.com/edvin/saasadmin/internal/model"
	"github.com/edvin/saasadmin/internal/platform"
)

// InvoiceSchema describes how invoice lists are searched, filtered and sorted.
var InvoiceSchema = listfilter.Schema[model.Invoice]{
	ID: func(i model.Invoice) string { return i.ID },
	Search: []func(model.Invoice) string{
		func(i model.Invoice) string { return i.Number },
		func(i model.Invoice) string { return i.TenantName },
		func(i model.Invoice) string { return i.Notes },
	},
	Categories: map[string]func(model.Invoice) string{
		"status":    func(i model.Invoice) string { return i.Status },
		"tenant_id": func(i model.Invoice) string { return i.TenantID },
		"currency":  func(i model.Invoice) string { return i.Currency },
	},
	Dates: map[string]func(model.Invoice) time.Time{
		"date": func(i model.Invoice) time.Time { return i.IssuedAt },
		"due":  func(i model.Invoice) time.Time { return i.DueAt },
	},
	Sorts: map[string]func(a, b model.Invoice) int{
		"issued_at": func(a, b model.Invoice) int { return a.IssuedAt.Compare(b.IssuedAt) },
		"due_at":    func(a, b model.Invoice) int { return a.DueAt.Compare(b.DueAt) },
		"amount":    func(a, b model.Invoice) int { return cmp.Compare(a.AmountCents, b.AmountCents) },
		"number":    func(a, b model.Invoice) int { return strings.Compare(a.Number, b.Number) },
	},
	DefaultSort: "issued_at",
}

type InvoiceService struct {
	db     DB
	events Publisher
}

func NewInvoiceService(db DB, events Publisher) *InvoiceService {
	return &InvoiceService{db: db, events: orNop(events)}
}

const invoiceColumns = `i.id, i.number, i.tenant_id, COALESCE(t.name, ''), i.amount_cents, i.currency, i.status,
	i.issued_at, i.due_at, i.paid_at, i.notes, i.created_at, i.updated_at`

func scanInvoice(row interface{ Scan(...any) error }, i *model.Invoice) error {
	return row.Scan(&i.ID, &i.Number, &i.TenantID, &i.TenantName, &i.AmountCents, &i.Currency, &i.Status,
		&i.IssuedAt, &i.DueAt, &i.PaidAt, &i.Notes, &i.CreatedAt, &i.UpdatedAt)
}

// Create issues a pending invoice with the next invoice number.
func (s *InvoiceService) Create(ctx context.Context, inv *model.Invoice) error {
	if inv.TenantID == "" {
		return invalid("tenant_id is required")
	}
	if inv.AmountCents <= 0 {
		return invalid("amount_cents must be positive")
	}
	now := time.Now()
	if inv.IssuedAt.IsZero() {
		inv.IssuedAt = now
	}
	if inv.DueAt.IsZero() {
		inv.DueAt = inv.IssuedAt.AddDate(0, 0, 30)
	}
	if inv.DueAt.Before(inv.IssuedAt) {
		return invalid("due_at must not be before issued_at")
	}
	if inv.Currency == "" {
		inv.Currency = "USD"
	}

	var seq int64
	if err := s.db.QueryRow(ctx, "SELECT nextval('invoice_number_seq')").Scan(&seq); err != nil {
		return fmt.Errorf("next invoice number: %w", err)
	}

	inv.ID = platform.NewName("inv_")
	inv.Number = platform.InvoiceNumber(inv.IssuedAt, seq)
	inv.Status = model.InvoicePending
	inv.PaidAt = nil
	inv.CreatedAt, inv.UpdatedAt = now, now

	_, err := s.db.Exec(ctx,
		`INSERT INTO invoices (id, number, tenant_id, amount_cents, currency, status, issued_at, due_at, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		inv.ID, inv.Number, inv.TenantID, inv.AmountCents, inv.Currency, inv.Status,
		inv.IssuedAt, inv.DueAt, inv.Notes, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return dbErr("create invoice", err)
	}
	return nil
}

func (s *InvoiceService) GetByID(ctx context.Context, id string) (*model.Invoice, error) {
	var inv model.Invoice
	row := s.db.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices i LEFT JOIN tenants t ON t.id = i.tenant_id WHERE i.id = $1`, id)
	if err := scanInvoice(row, &inv); err != nil {
		return nil, dbErr(fmt.Sprintf("get invoice %s", id), err)
	}
	return &inv, nil
}

func (s *InvoiceService) List(ctx context.Context) ([]model.Invoice, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+invoiceColumns+` FROM invoices i LEFT JOIN tenants t ON t.id = i.tenant_id ORDER BY i.issued_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []model.Invoice
	for rows.Next() {
		var inv model.Invoice
		if err := scanInvoice(rows, &inv); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return invoices, nil
}

// Update edits amount, due date and notes of a pending invoice.
func (s *InvoiceService) Update(ctx context.Context, id string, amountCents *int64, dueAt *time.Time, notes *string) (*model.Invoice, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != model.InvoicePending {
		return nil, fmt.Errorf("update invoice %s: %w: only pending invoices can be edited", id, ErrInvalidTransition)
	}
	if amountCents != nil {
		if *amountCents <= 0 {
			return nil, invalid("amount_cents must be positive")
		}
		inv.AmountCents = *amountCents
	}
	if dueAt != nil {
		if dueAt.Before(inv.IssuedAt) {
			return nil, invalid("due_at must not be before issued_at")
		}
		inv.DueAt = *dueAt
	}
	if notes != nil {
		inv.Notes = *notes
	}
	inv.UpdatedAt = time.Now()

	_, err = s.db.Exec(ctx,
		"UPDATE invoices SET amount_cents = $2, due_at = $3, notes = $4, updated_at = $5 WHERE id = $1",
		inv.ID, inv.AmountCents, inv.DueAt, inv.Notes, inv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update invoice %s: %w", id, err)
	}
	return inv, nil
}

// SetStatus applies a status transition. Paying records paid_at.
func (s *InvoiceService) SetStatus(ctx context.Context, id, status string) (*model.Invoice, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanTransitionInvoice(inv.Status, status) {
		return nil, fmt.Errorf("invoice %s: %w: %s -> %s", id, ErrInvalidTransition, inv.Status, status)
	}

	now := time.Now()
	var paidAt *time.Time
	if status == model.InvoicePaid {
		paidAt = &now
	}
	// Only applies if the status is unchanged since it was read.
	tag, err := s.db.Exec(ctx,
		"UPDATE invoices SET status = $2, paid_at = $3, updated_at = $4 WHERE id = $1 AND status = $5",
		id, status, paidAt, now, inv.Status)
	if err != nil {
		return nil, fmt.Errorf("set invoice %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("invoice %s: %w: status changed concurrently", id, ErrConflict)
	}

	inv.Status = status
	inv.PaidAt = paidAt
	inv.UpdatedAt = now
	switch status {
	case model.InvoicePaid:
		s.events.Publish(ctx, model.EventInvoicePaid, inv)
	case model.InvoiceOverdue:
		s.events.Publish(ctx, model.EventInvoiceOverdue, inv)
	}
	return inv, nil
}

// Delete removes a pending or cancelled invoice.
func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM invoices WHERE id = $1 AND status IN ($2, $3)", id, model.InvoicePending, model.InvoiceCancelled)
	if err != nil {
		return fmt.Errorf("delete invoice %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("delete invoice %s: %w: paid and overdue invoices are kept", id, ErrInvalidTransition)
	}
	return nil
}

// MarkOverdue moves pending invoices past their due date to overdue and
// returns how many changed.
func (s *InvoiceService) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	rows, err := s.db.Query(ctx,
		`UPDATE invoices SET status = $1, updated_at = $2
		 WHERE status = $3 AND due_at < $2
		 RETURNING id, number, tenant_id, amount_cents, currency, due_at`,
		model.InvoiceOverdue, now, model.InvoicePending)
	if err != nil {
		return 0, fmt.Errorf("mark invoices overdue: %w", err)
	}
	defer rows.Close()

	var changed []model.Invoice
	for rows.Next() {
		inv := model.Invoice{Status: model.InvoiceOverdue}
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.TenantID, &inv.AmountCents, &inv.Currency, &inv.DueAt); err != nil {
			return 0, fmt.Errorf("scan overdue invoice: %w", err)
		}
		changed = append(changed, inv)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate overdue invoices: %w", err)
	}
	for i := range changed {
		s.events.Publish(ctx, model.EventInvoiceOverdue, &changed[i])
	}
	return len(changed), nil
}
