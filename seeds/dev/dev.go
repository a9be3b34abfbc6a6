// Command dev loads seed.yaml into a development database. It is idempotent:
// every row has a fixed ID and existing rows are left alone.
package main

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/edvin/saasadmin/internal/core"
	"github.com/edvin/saasadmin/internal/model"
	"github.com/edvin/saasadmin/internal/platform"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Admins []struct {
		ID          string `yaml:"id"`
		Email       string `yaml:"email"`
		DisplayName string `yaml:"display_name"`
		Password    string `yaml:"password"`
	} `yaml:"admins"`
	Plans []struct {
		ID           string   `yaml:"id"`
		Name         string   `yaml:"name"`
		Description  string   `yaml:"description"`
		PriceCents   int64    `yaml:"price_cents"`
		Interval     string   `yaml:"interval"`
		Features     []string `yaml:"features"`
		MaxUsers     int      `yaml:"max_users"`
		MaxStorageGB int      `yaml:"max_storage_gb"`
		Status       string   `yaml:"status"`
	} `yaml:"plans"`
	Tenants []struct {
		ID             string `yaml:"id"`
		Name           string `yaml:"name"`
		Slug           string `yaml:"slug"`
		Domain         string `yaml:"domain"`
		OwnerEmail     string `yaml:"owner_email"`
		PlanID         string `yaml:"plan_id"`
		Status         string `yaml:"status"`
		UserCount      int    `yaml:"user_count"`
		CreatedDaysAgo int    `yaml:"created_days_ago"`
	} `yaml:"tenants"`
	Invoices []struct {
		TenantID      string `yaml:"tenant_id"`
		AmountCents   int64  `yaml:"amount_cents"`
		Status        string `yaml:"status"`
		IssuedDaysAgo int    `yaml:"issued_days_ago"`
	} `yaml:"invoices"`
	Tickets []struct {
		ID             string `yaml:"id"`
		Subject        string `yaml:"subject"`
		Description    string `yaml:"description"`
		TenantID       string `yaml:"tenant_id"`
		RequesterEmail string `yaml:"requester_email"`
		Priority       string `yaml:"priority"`
		Status         string `yaml:"status"`
		IdleHours      int    `yaml:"idle_hours"`
	} `yaml:"tickets"`
	Notifications []struct {
		Title    string `yaml:"title"`
		Message  string `yaml:"message"`
		Type     string `yaml:"type"`
		Audience string `yaml:"audience"`
		TenantID string `yaml:"tenant_id"`
		Status   string `yaml:"status"`
	} `yaml:"notifications"`
	Usage struct {
		Tenants []string `yaml:"tenants"`
		Days    int      `yaml:"days"`
	} `yaml:"usage"`
}

func parseSeed(data []byte) (*seedFile, error) {
	var s seedFile
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &s, nil
}

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	seed, err := parseSeed(seedYAML)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	fmt.Println("Seeding admin database...")
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return apply(ctx, tx, seed, time.Now().UTC())
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Done.")
}

func apply(ctx context.Context, tx pgx.Tx, s *seedFile, now time.Time) error {
	day := 24 * time.Hour

	fmt.Println("  Inserting admins...")
	for _, a := range s.Admins {
		hash, err := core.HashPassword(a.Password)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO admin_users (id, email, password_hash, display_name) VALUES ($1, $2, $3, $4)
			 ON CONFLICT DO NOTHING`,
			a.ID, core.NormalizeEmail(a.Email), hash, a.DisplayName); err != nil {
			return fmt.Errorf("insert admin %s: %w", a.Email, err)
		}
	}

	fmt.Println("  Inserting plans...")
	for _, p := range s.Plans {
		if _, err := tx.Exec(ctx,
			`INSERT INTO plans (id, name, description, price_cents, interval, features, max_users, max_storage_gb, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT DO NOTHING`,
			p.ID, p.Name, p.Description, p.PriceCents, or(p.Interval, model.IntervalMonthly),
			nonNil(p.Features), p.MaxUsers, p.MaxStorageGB, or(p.Status, model.PlanActive)); err != nil {
			return fmt.Errorf("insert plan %s: %w", p.ID, err)
		}
	}

	fmt.Println("  Inserting tenants...")
	for _, t := range s.Tenants {
		created := now.Add(-time.Duration(t.CreatedDaysAgo) * day)
		if _, err := tx.Exec(ctx,
			`INSERT INTO tenants (id, name, slug, domain, owner_email, plan_id, status, user_count, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $9) ON CONFLICT DO NOTHING`,
			t.ID, t.Name, t.Slug, t.Domain, t.OwnerEmail, t.PlanID, t.Status, t.UserCount, created); err != nil {
			return fmt.Errorf("insert tenant %s: %w", t.ID, err)
		}
	}

	fmt.Println("  Inserting invoices...")
	for i, inv := range s.Invoices {
		issued := now.Add(-time.Duration(inv.IssuedDaysAgo) * day)
		var paidAt *time.Time
		if inv.Status == model.InvoicePaid {
			t := issued.Add(2 * day)
			paidAt = &t
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO invoices (id, number, tenant_id, amount_cents, status, issued_at, due_at, paid_at, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $6, $6) ON CONFLICT DO NOTHING`,
			fmt.Sprintf("inv_dev_%03d", i+1), platform.InvoiceNumber(issued, int64(90000+i+1)),
			inv.TenantID, inv.AmountCents, inv.Status, issued, issued.Add(30*day), paidAt); err != nil {
			return fmt.Errorf("insert invoice for %s: %w", inv.TenantID, err)
		}
	}

	fmt.Println("  Inserting tickets...")
	for _, t := range s.Tickets {
		activity := now.Add(-time.Duration(t.IdleHours) * time.Hour)
		var resolvedAt *time.Time
		if t.Status == model.TicketResolved || t.Status == model.TicketClosed {
			resolvedAt = &activity
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO support_tickets (id, subject, description, tenant_id, requester_email, priority, status,
			 last_activity_at, resolved_at, created_at, updated_at)
			 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $8, $8) ON CONFLICT DO NOTHING`,
			t.ID, t.Subject, t.Description, t.TenantID, t.RequesterEmail,
			or(t.Priority, model.PriorityMedium), or(t.Status, model.TicketOpen), activity, resolvedAt); err != nil {
			return fmt.Errorf("insert ticket %s: %w", t.ID, err)
		}
	}

	fmt.Println("  Inserting notifications...")
	for i, n := range s.Notifications {
		var sentAt *time.Time
		if n.Status == model.NotificationSent {
			sentAt = &now
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO notifications (id, title, message, type, audience, tenant_id, status, sent_at)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8) ON CONFLICT DO NOTHING`,
			fmt.Sprintf("ntf_dev_%03d", i+1), n.Title, n.Message, or(n.Type, model.NotificationInfo),
			or(n.Audience, model.AudienceAll), n.TenantID, or(n.Status, model.NotificationDraft), sentAt); err != nil {
			return fmt.Errorf("insert notification %q: %w", n.Title, err)
		}
	}

	fmt.Println("  Inserting usage metrics...")
	for _, u := range usageSamples(s.Usage.Tenants, s.Usage.Days, now) {
		if _, err := tx.Exec(ctx,
			`INSERT INTO usage_metrics (id, tenant_id, metric, value, recorded_at) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT DO NOTHING`,
			u.ID, u.TenantID, u.Metric, u.Value, u.RecordedAt); err != nil {
			return fmt.Errorf("insert usage for %s: %w", u.TenantID, err)
		}
	}
	return nil
}

// usageSamples produces one sample per tenant, metric and day. Values follow
// a weekly wave so charts have some shape.
func usageSamples(tenants []string, days int, now time.Time) []model.UsageMetric {
	base := map[string]float64{
		model.MetricAPICalls:    12000,
		model.MetricStorageGB:   40,
		model.MetricActiveUsers: 25,
		model.MetricBandwidthGB: 8,
	}
	metricsOrder := []string{model.MetricAPICalls, model.MetricStorageGB, model.MetricActiveUsers, model.MetricBandwidthGB}
	today := now.Truncate(24 * time.Hour)

	var out []model.UsageMetric
	for ti, tenant := range tenants {
		scale := float64(ti + 1)
		for d := 0; d < days; d++ {
			wave := 1 + 0.25*math.Sin(float64(d)*2*math.Pi/7)
			for _, m := range metricsOrder {
				out = append(out, model.UsageMetric{
					ID:         fmt.Sprintf("use_dev_%s_%s_%02d", tenant, m, d),
					TenantID:   tenant,
					Metric:     m,
					Value:      math.Round(base[m]*scale*wave*100) / 100,
					RecordedAt: today.Add(-time.Duration(d) * 24 * time.Hour),
				})
			}
		}
	}
	return out
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
