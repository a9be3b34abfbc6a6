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

// PlanSchema describes how plan lists are searched and sorted.
var PlanSchema = listfilter.Schema[model.Plan]{
	ID: func(p model.Plan) string { return p.ID },
	Search: []func(model.Plan) string{
		func(p model.Plan) string { return p.Name },
		func(p model.Plan) string { return p.Description },
	},
	Categories: map[string]func(model.Plan) string{
		"status":   func(p model.Plan) string { return p.Status },
		"interval": func(p model.Plan) string { return p.Interval },
	},
	Dates: map[string]func(model.Plan) time.Time{
		"date": func(p model.Plan) time.Time { return p.CreatedAt },
	},
	Sorts: map[string]func(a, b model.Plan) int{
		"price":      func(a, b model.Plan) int { return cmp.Compare(a.MonthlyCents(), b.MonthlyCents()) },
		"name":       func(a, b model.Plan) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
		"tenants":    func(a, b model.Plan) int { return cmp.Compare(a.TenantCount, b.TenantCount) },
		"created_at": func(a, b model.Plan) int { return a.CreatedAt.Compare(b.CreatedAt) },
	},
	DefaultSort:  "price",
	DefaultOrder: listfilter.OrderAsc,
}

type PlanService struct {
	db DB
}

func NewPlanService(db DB) *PlanService {
	return &PlanService{db: db}
}

const planColumns = `p.id, p.name, p.description, p.price_cents, p.currency, p.interval, p.features,
	p.max_users, p.max_storage_gb, p.status, p.created_at, p.updated_at,
	(SELECT count(*) FROM tenants t WHERE t.plan_id = p.id AND t.deleted_at IS NULL)`

func scanPlan(row interface{ Scan(...any) error }, p *model.Plan) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Currency, &p.Interval, &p.Features,
		&p.MaxUsers, &p.MaxStorageGB, &p.Status, &p.CreatedAt, &p.UpdatedAt, &p.TenantCount)
}

func validatePlan(p *model.Plan) error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name is required")
	}
	if p.PriceCents < 0 {
		return invalid("price_cents must not be negative")
	}
	if p.Interval != model.IntervalMonthly && p.Interval != model.IntervalYearly {
		return invalid("interval must be monthly or yearly")
	}
	if p.Status != model.PlanActive && p.Status != model.PlanArchived {
		return invalid("status must be active or archived")
	}
	return nil
}

// Create inserts a plan. ID, status and currency get defaults when empty.
func (s *PlanService) Create(ctx context.Context, p *model.Plan) error {
	if p.ID == "" {
		p.ID = platform.NewName("plan_")
	}
	if p.Status == "" {
		p.Status = model.PlanActive
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if p.Interval == "" {
		p.Interval = model.IntervalMonthly
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if err := validatePlan(p); err != nil {
		return err
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := s.db.Exec(ctx,
		`INSERT INTO plans (id, name, description, price_cents, currency, interval, features, max_users, max_storage_gb, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Name, p.Description, p.PriceCents, p.Currency, p.Interval, p.Features,
		p.MaxUsers, p.MaxStorageGB, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return dbErr("create plan", err)
	}
	return nil
}

func (s *PlanService) GetByID(ctx context.Context, id string) (*model.Plan, error) {
	var p model.Plan
	row := s.db.QueryRow(ctx, `SELECT `+planColumns+` FROM plans p WHERE p.id = $1`, id)
	if err := scanPlan(row, &p); err != nil {
		return nil, dbErr(fmt.Sprintf("get plan %s", id), err)
	}
	return &p, nil
}

// List returns all plans with their live tenant counts.
func (s *PlanService) List(ctx context.Context) ([]model.Plan, error) {
	rows, err := s.db.Query(ctx, `SELECT `+planColumns+` FROM plans p ORDER BY p.price_cents`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []model.Plan
	for rows.Next() {
		var p model.Plan
		if err := scanPlan(rows, &p); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return plans, nil
}

func (s *PlanService) Update(ctx context.Context, p *model.Plan) error {
	if err := validatePlan(p); err != nil {
		return err
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	p.UpdatedAt = time.Now()
	tag, err := s.db.Exec(ctx,
		`UPDATE plans SET name = $2, description = $3, price_cents = $4, currency = $5, interval = $6,
		        features = $7, max_users = $8, max_storage_gb = $9, status = $10, updated_at = $11
		 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.PriceCents, p.Currency, p.Interval,
		p.Features, p.MaxUsers, p.MaxStorageGB, p.Status, p.UpdatedAt,
	)
	if err != nil {
		return dbErr(fmt.Sprintf("update plan %s", p.ID), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update plan %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

// Archive hides a plan from new sign-ups without touching existing tenants.
func (s *PlanService) Archive(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE plans SET status = $2, updated_at = now() WHERE id = $1", id, model.PlanArchived)
	if err != nil {
		return fmt.Errorf("archive plan %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("archive plan %s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a plan that no live tenant is subscribed to.
func (s *PlanService) Delete(ctx context.Context, id string) error {
	var inUse int
	err := s.db.QueryRow(ctx,
		"SELECT count(*) FROM tenants WHERE plan_id = $1 AND deleted_at IS NULL", id,
	).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("count tenants on plan %s: %w", id, err)
	}
	if inUse > 0 {
		return fmt.Errorf("delete plan %s: %w: %d tenants are on this plan", id, ErrConflict, inUse)
	}

	tag, err := s.db.Exec(ctx, "DELETE FROM plans WHERE id = $1", id)
	if err != nil {
		return dbErr(fmt.Sprintf("delete plan %s", id), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete plan %s: %w", id, ErrNotFound)
	}
	return nil
}
