package core

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
)

// DashboardStats holds the headline numbers of the overview page.
type DashboardStats struct {
	Tenants              int            `json:"tenants"`
	TenantsByStatus      map[string]int `json:"tenants_by_status"`
	MRRCents             int64          `json:"mrr_cents"`
	OutstandingCents     int64          `json:"outstanding_cents"`
	OverdueCents         int64          `json:"overdue_cents"`
	OpenTickets          int            `json:"open_tickets"`
	SLABreachedTickets   int            `json:"sla_breached_tickets"`
	NotificationsSent30d int            `json:"notifications_sent_30d"`
	Signups30d           int            `json:"signups_30d"`
	GeneratedAt          time.Time      `json:"generated_at"`
}

const dashboardCacheTTL = 30 * time.Second

// DashboardService computes aggregate stats and caches them briefly.
type DashboardService struct {
	db       DB
	settings *SettingsService
	cache    *expirable.LRU[string, *DashboardStats]
	now      func() time.Time
}

func NewDashboardService(db DB, settings *SettingsService) *DashboardService {
	return &DashboardService{
		db:       db,
		settings: settings,
		cache:    expirable.NewLRU[string, *DashboardStats](1, nil, dashboardCacheTTL),
		now:      time.Now,
	}
}

// Invalidate drops the cached stats.
func (s *DashboardService) Invalidate() {
	s.cache.Purge()
}

// Stats returns cached stats when fresh, otherwise queries them.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	if st, ok := s.cache.Get("stats"); ok {
		return st, nil
	}
	st, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Add("stats", st)
	return st, nil
}

func (s *DashboardService) compute(ctx context.Context) (*DashboardStats, error) {
	now := s.now()
	sla := 24 * time.Hour
	if s.settings != nil {
		if d, err := s.settings.SLA(ctx); err == nil {
			sla = d
		}
	}

	const countsQuery = `
		WITH mrr AS (
			SELECT COALESCE(sum(CASE WHEN p.interval = 'yearly' THEN p.price_cents / 12 ELSE p.price_cents END), 0) AS c
			FROM tenants t JOIN plans p ON p.id = t.plan_id
			WHERE t.status = 'active' AND t.deleted_at IS NULL
		), outstanding AS (
			SELECT COALESCE(sum(amount_cents), 0) AS c FROM invoices WHERE status IN ('pending', 'overdue')
		), overdue AS (
			SELECT COALESCE(sum(amount_cents), 0) AS c FROM invoices WHERE status = 'overdue'
		), open_tickets AS (
			SELECT count(*) AS c FROM support_tickets WHERE status IN ('open', 'in_progress')
		), breached AS (
			SELECT count(*) AS c FROM support_tickets
			WHERE status IN ('open', 'in_progress') AND last_activity_at < $1
		), sent AS (
			SELECT count(*) AS c FROM notifications WHERE status = 'sent' AND sent_at >= $2
		), signups AS (
			SELECT count(*) AS c FROM tenants WHERE deleted_at IS NULL AND created_at >= $2
		)
		SELECT
			(SELECT c FROM mrr),
			(SELECT c FROM outstanding),
			(SELECT c FROM overdue),
			(SELECT c FROM open_tickets),
			(SELECT c FROM breached),
			(SELECT c FROM sent),
			(SELECT c FROM signups)`

	stats := &DashboardStats{TenantsByStatus: map[string]int{}, GeneratedAt: now}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.db.QueryRow(gctx, countsQuery, now.Add(-sla), now.AddDate(0, 0, -30)).Scan(
			&stats.MRRCents,
			&stats.OutstandingCents,
			&stats.OverdueCents,
			&stats.OpenTickets,
			&stats.SLABreachedTickets,
			&stats.NotificationsSent30d,
			&stats.Signups30d,
		)
		if err != nil {
			return fmt.Errorf("dashboard counts: %w", err)
		}
		return nil
	})

	byStatus := map[string]int{}
	g.Go(func() error {
		rows, err := s.db.Query(gctx,
			`SELECT status, count(*) FROM tenants WHERE deleted_at IS NULL GROUP BY status ORDER BY status`)
		if err != nil {
			return fmt.Errorf("tenants by status: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var status string
			var n int
			if err := rows.Scan(&status, &n); err != nil {
				return fmt.Errorf("scan tenant status count: %w", err)
			}
			byStatus[status] = n
		}
		return rows.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	stats.TenantsByStatus = byStatus
	for _, n := range byStatus {
		stats.Tenants += n
	}
	return stats, nil
}
