package core

import (
	"cmp"
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/edvin/saasadmin/internal/listfilter"
	"github.com/edvin/saasadmin/internal/model"
	"github.com/edvin/saasadmin/internal/platform"
)

// TenantSchema describes how tenant lists are searched, filtered and sorted.
var TenantSchema = listfilter.Schema[model.Tenant]{
	ID: func(t model.Tenant) string { return t.ID },
	Search: []func(model.Tenant) string{
		func(t model.Tenant) string { return t.Name },
		func(t model.Tenant) string { return t.Slug },
		func(t model.Tenant) string { return t.Domain },
		func(t model.Tenant) string { return t.OwnerEmail },
	},
	Categories: map[string]func(model.Tenant) string{
		"status":  func(t model.Tenant) string { return t.Status },
		"plan_id": func(t model.Tenant) string { return derefOr(t.PlanID, "none") },
	},
	Dates: map[string]func(model.Tenant) time.Time{
		"date": func(t model.Tenant) time.Time { return t.CreatedAt },
	},
	Sorts: map[string]func(a, b model.Tenant) int{
		"created_at": func(a, b model.Tenant) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"name":       func(a, b model.Tenant) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
		"users":      func(a, b model.Tenant) int { return cmp.Compare(a.UserCount, b.UserCount) },
	},
	DefaultSort: "created_at",
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

type TenantService struct {
	db     DB
	events Publisher
}

func NewTenantService(db DB, events Publisher) *TenantService {
	return &TenantService{db: db, events: orNop(events)}
}

const tenantColumns = `t.id, t.name, t.slug, t.domain, t.owner_email, t.plan_id, COALESCE(p.name, ''),
	t.status, t.user_count, t.created_at, t.updated_at, t.deleted_at`

func scanTenant(row interface{ Scan(...any) error }, t *model.Tenant) error {
	return row.Scan(&t.ID, &t.Name, &t.Slug, &t.Domain, &t.OwnerEmail, &t.PlanID, &t.PlanName,
		&t.Status, &t.UserCount, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
}

func validateTenant(t *model.Tenant) error {
	if strings.TrimSpace(t.Name) == "" {
		return invalid("name is required")
	}
	if !platform.ValidSlug(t.Slug) {
		return invalid("slug %q must be lowercase letters, digits and dashes, starting with a letter", t.Slug)
	}
	if _, err := mail.ParseAddress(t.OwnerEmail); err != nil {
		return invalid("owner_email is not a valid address")
	}
	return nil
}

// Create inserts a tenant in trial status. A missing slug is derived from the name.
func (s *TenantService) Create(ctx context.Context, t *model.Tenant) error {
	if t.Slug == "" {
		t.Slug = platform.Slugify(t.Name)
	}
	if err := validateTenant(t); err != nil {
		return err
	}
	if t.PlanID != nil && *t.PlanID != "" {
		if err := s.requireActivePlan(ctx, *t.PlanID); err != nil {
			return err
		}
	} else {
		t.PlanID = nil
	}

	t.ID = platform.NewName("ten_")
	t.Status = model.TenantTrial
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now

	_, err := s.db.Exec(ctx,
		`INSERT INTO tenants (id, name, slug, domain, owner_email, plan_id, status, user_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Name, t.Slug, t.Domain, t.OwnerEmail, t.PlanID, t.Status, t.UserCount, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return dbErr("create tenant", err)
	}
	s.events.Publish(ctx, model.EventTenantCreated, t)
	return nil
}

func (s *TenantService) requireActivePlan(ctx context.Context, planID string) error {
	var status string
	err := s.db.QueryRow(ctx, "SELECT status FROM plans WHERE id = $1", planID).Scan(&status)
	if err != nil {
		return dbErr(fmt.Sprintf("get plan %s", planID), err)
	}
	if status != model.PlanActive {
		return invalid("plan %s is archived", planID)
	}
	return nil
}

func (s *TenantService) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	var t model.Tenant
	row := s.db.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants t LEFT JOIN plans p ON p.id = t.plan_id
		 WHERE t.id = $1 AND t.deleted_at IS NULL`, id)
	if err := scanTenant(row, &t); err != nil {
		return nil, dbErr(fmt.Sprintf("get tenant %s", id), err)
	}
	return &t, nil
}

// List returns all tenants that have not been deleted.
func (s *TenantService) List(ctx context.Context) ([]model.Tenant, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants t LEFT JOIN plans p ON p.id = t.plan_id
		 WHERE t.deleted_at IS NULL ORDER BY t.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []model.Tenant
	for rows.Next() {
		var t model.Tenant
		if err := scanTenant(rows, &t); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}
	return tenants, nil
}

// Update stores the editable fields. Status and plan have their own operations.
func (s *TenantService) Update(ctx context.Context, t *model.Tenant) error {
	if err := validateTenant(t); err != nil {
		return err
	}
	t.UpdatedAt = time.Now()
	tag, err := s.db.Exec(ctx,
		`UPDATE tenants SET name = $2, slug = $3, domain = $4, owner_email = $5, user_count = $6, updated_at = $7
		 WHERE id = $1 AND deleted_at IS NULL`,
		t.ID, t.Name, t.Slug, t.Domain, t.OwnerEmail, t.UserCount, t.UpdatedAt,
	)
	if err != nil {
		return dbErr(fmt.Sprintf("update tenant %s", t.ID), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update tenant %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

var tenantTransitions = map[string][]string{
	model.TenantTrial:     {model.TenantActive, model.TenantSuspended, model.TenantCancelled},
	model.TenantActive:    {model.TenantSuspended, model.TenantCancelled},
	model.TenantSuspended: {model.TenantActive, model.TenantCancelled},
}

func canTransitionTenant(from, to string) bool {
	for _, s := range tenantTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SetStatus moves a tenant to a new status. Cancelled tenants cannot be revived.
func (s *TenantService) SetStatus(ctx context.Context, id, status string) (*model.Tenant, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransitionTenant(t.Status, status) {
		return nil, fmt.Errorf("tenant %s: %w: %s -> %s", id, ErrInvalidTransition, t.Status, status)
	}
	_, err = s.db.Exec(ctx,
		"UPDATE tenants SET status = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL", id, status)
	if err != nil {
		return nil, fmt.Errorf("set tenant %s status: %w", id, err)
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	if status == model.TenantSuspended {
		s.events.Publish(ctx, model.EventTenantSuspended, t)
	}
	return t, nil
}

func (s *TenantService) Suspend(ctx context.Context, id string) (*model.Tenant, error) {
	return s.SetStatus(ctx, id, model.TenantSuspended)
}

func (s *TenantService) Activate(ctx context.Context, id string) (*model.Tenant, error) {
	return s.SetStatus(ctx, id, model.TenantActive)
}

// ChangePlan moves a tenant to another active plan.
func (s *TenantService) ChangePlan(ctx context.Context, id, planID string) (*model.Tenant, error) {
	if err := s.requireActivePlan(ctx, planID); err != nil {
		return nil, err
	}
	tag, err := s.db.Exec(ctx,
		"UPDATE tenants SET plan_id = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL", id, planID)
	if err != nil {
		return nil, fmt.Errorf("change tenant %s plan: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("change tenant %s plan: %w", id, ErrNotFound)
	}
	return s.GetByID(ctx, id)
}

// Delete soft-deletes a tenant. Invoices and tickets keep referencing it.
func (s *TenantService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE tenants SET deleted_at = now(), status = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL",
		id, model.TenantCancelled)
	if err != nil {
		return fmt.Errorf("delete tenant %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete tenant %s: %w", id, ErrNotFound)
	}
	return nil
}
