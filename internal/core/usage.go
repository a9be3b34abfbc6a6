package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/edvin/saasadmin/internal/listfilter"
	"github.com/edvin/saasadmin/internal/model"
	"github.com/edvin/saasadmin/internal/platform"
)

// UsageSchema describes how usage samples are filtered and sorted.
var UsageSchema = listfilter.Schema[model.UsageMetric]{
	ID: func(u model.UsageMetric) string { return u.ID },
	Search: []func(model.UsageMetric) string{
		func(u model.UsageMetric) string { return u.TenantName },
	},
	Categories: map[string]func(model.UsageMetric) string{
		"tenant_id": func(u model.UsageMetric) string { return u.TenantID },
		"metric":    func(u model.UsageMetric) string { return u.Metric },
	},
	Dates: map[string]func(model.UsageMetric) time.Time{
		"date": func(u model.UsageMetric) time.Time { return u.RecordedAt },
	},
	Sorts: map[string]func(a, b model.UsageMetric) int{
		"recorded_at": func(a, b model.UsageMetric) int { return a.RecordedAt.Compare(b.RecordedAt) },
		"value": func(a, b model.UsageMetric) int {
			switch {
			case a.Value < b.Value:
				return -1
			case a.Value > b.Value:
				return 1
			}
			return 0
		},
	},
	DefaultSort: "recorded_at",
}

func validMetric(m string) bool {
	switch m {
	case model.MetricAPICalls, model.MetricStorageGB, model.MetricActiveUsers, model.MetricBandwidthGB:
		return true
	}
	return false
}

type UsageService struct {
	db DB
}

func NewUsageService(db DB) *UsageService {
	return &UsageService{db: db}
}

// Record stores a batch of samples. RecordedAt defaults to now.
func (s *UsageService) Record(ctx context.Context, samples []model.UsageMetric) error {
	if len(samples) == 0 {
		return invalid("at least one sample is required")
	}
	for _, u := range samples {
		if u.TenantID == "" {
			return invalid("tenant_id is required")
		}
		if !validMetric(u.Metric) {
			return invalid("unknown metric %q", u.Metric)
		}
		if u.Value < 0 {
			return invalid("value must not be negative")
		}
	}
	now := time.Now()
	for i := range samples {
		u := &samples[i]
		u.ID = platform.NewID()
		if u.RecordedAt.IsZero() {
			u.RecordedAt = now
		}
		_, err := s.db.Exec(ctx,
			`INSERT INTO usage_metrics (id, tenant_id, metric, value, recorded_at) VALUES ($1, $2, $3, $4, $5)`,
			u.ID, u.TenantID, u.Metric, u.Value, u.RecordedAt)
		if err != nil {
			return dbErr("record usage", err)
		}
	}
	return nil
}

// List returns samples recorded since the given time, newest first.
func (s *UsageService) List(ctx context.Context, since time.Time) ([]model.UsageMetric, error) {
	rows, err := s.db.Query(ctx,
		`SELECT u.id, u.tenant_id, t.name, u.metric, u.value, u.recorded_at
		 FROM usage_metrics u JOIN tenants t ON t.id = u.tenant_id
		 WHERE u.recorded_at >= $1 ORDER BY u.recorded_at DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	defer rows.Close()

	var out []model.UsageMetric
	for rows.Next() {
		var u model.UsageMetric
		if err := rows.Scan(&u.ID, &u.TenantID, &u.TenantName, &u.Metric, &u.Value, &u.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage: %w", err)
	}
	return out, nil
}

// Summarize folds samples into per-tenant totals ordered by tenant name.
func Summarize(samples []model.UsageMetric) []model.TenantUsageSummary {
	byTenant := map[string]*model.TenantUsageSummary{}
	for _, u := range samples {
		sum, ok := byTenant[u.TenantID]
		if !ok {
			sum = &model.TenantUsageSummary{TenantID: u.TenantID, TenantName: u.TenantName, Totals: map[string]float64{}}
			byTenant[u.TenantID] = sum
		}
		sum.Totals[u.Metric] += u.Value
		sum.Samples++
	}
	out := make([]model.TenantUsageSummary, 0, len(byTenant))
	for _, sum := range byTenant {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TenantName != out[j].TenantName {
			return out[i].TenantName < out[j].TenantName
		}
		return out[i].TenantID < out[j].TenantID
	})
	return out
}
