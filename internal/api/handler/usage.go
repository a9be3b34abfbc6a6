package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/edvin/saasadmin/internal/api/request"
	"github.com/edvin/saasadmin/internal/api/response"
	"github.com/edvin/saasadmin/internal/core"
	"github.com/edvin/saasadmin/internal/csvexport"
	"github.com/edvin/saasadmin/internal/listfilter"
	"github.com/edvin/saasadmin/internal/model"
)

type Usage struct {
	svc *core.UsageService
	*listing[model.UsageMetric]
}

var usageColumns = []csvexport.Column[model.UsageMetric]{
	csvexport.Col("Tenant ID", func(u model.UsageMetric) string { return u.TenantID }),
	csvexport.Col("Tenant", func(u model.UsageMetric) string { return u.TenantName }),
	csvexport.Col("Metric", func(u model.UsageMetric) string { return u.Metric }),
	csvexport.Col("Value", func(u model.UsageMetric) string { return strconv.FormatFloat(u.Value, 'f', -1, 64) }),
	csvexport.Col("Recorded At", func(u model.UsageMetric) string { return csvexport.Time(u.RecordedAt) }),
}

func NewUsage(svc *core.UsageService) *Usage {
	return &Usage{
		svc: svc,
		listing: &listing[model.UsageMetric]{
			resource: "usage",
			schema:   core.UsageSchema,
			load: func(ctx context.Context, r *http.Request) ([]model.UsageMetric, error) {
				return svc.List(ctx, since(r, time.Now()))
			},
			columns: usageColumns,
			summary: func(items []model.UsageMetric) any {
				return listfilter.SumBy(items,
					func(u model.UsageMetric) string { return u.Metric },
					func(u model.UsageMetric) float64 { return u.Value })
			},
		},
	}
}

// Record stores a batch of samples pushed by a metering client.
func (h *Usage) Record(w http.ResponseWriter, r *http.Request) {
	var req request.RecordUsage
	if !decode(w, r, &req) {
		return
	}

	samples := make([]model.UsageMetric, len(req.Samples))
	for i, s := range req.Samples {
		samples[i] = model.UsageMetric{TenantID: s.TenantID, Metric: s.Metric, Value: s.Value}
		if s.RecordedAt != nil {
			samples[i].RecordedAt = *s.RecordedAt
		}
	}
	if err := h.svc.Record(r.Context(), samples); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]int{"recorded": len(samples)})
}

// Summary folds the filtered samples into per-tenant totals.
func (h *Usage) Summary(w http.ResponseWriter, r *http.Request) {
	items, _, err := h.filtered(r)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	summary := core.Summarize(items)
	if summary == nil {
		summary = []model.TenantUsageSummary{}
	}
	response.WriteJSON(w, http.StatusOK, summary)
}
