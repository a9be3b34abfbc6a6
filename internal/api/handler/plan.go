package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/edvin/saasadmin/internal/api/request"
	"github.com/edvin/saasadmin/internal/api/response"
	"github.com/edvin/saasadmin/internal/core"
	"github.com/edvin/saasadmin/internal/csvexport"
	"github.com/edvin/saasadmin/internal/listfilter"
	"github.com/edvin/saasadmin/internal/model"
)

type Plan struct {
	svc *core.PlanService
	*listing[model.Plan]
}

var planColumns = []csvexport.Column[model.Plan]{
	csvexport.Col("ID", func(p model.Plan) string { return p.ID }),
	csvexport.Col("Name", func(p model.Plan) string { return p.Name }),
	csvexport.Col("Price", func(p model.Plan) string { return csvexport.Cents(p.PriceCents) }),
	csvexport.Col("Currency", func(p model.Plan) string { return p.Currency }),
	csvexport.Col("Interval", func(p model.Plan) string { return p.Interval }),
	csvexport.Col("Features", func(p model.Plan) string { return strings.Join(p.Features, "; ") }),
	csvexport.Col("Max Users", func(p model.Plan) string { return strconv.Itoa(p.MaxUsers) }),
	csvexport.Col("Max Storage GB", func(p model.Plan) string { return strconv.Itoa(p.MaxStorageGB) }),
	csvexport.Col("Status", func(p model.Plan) string { return p.Status }),
	csvexport.Col("Tenants", func(p model.Plan) string { return strconv.Itoa(p.TenantCount) }),
}

func NewPlan(svc *core.PlanService) *Plan {
	return &Plan{
		svc: svc,
		listing: &listing[model.Plan]{
			resource: "plans",
			schema:   core.PlanSchema,
			load: func(ctx context.Context, _ *http.Request) ([]model.Plan, error) {
				return svc.List(ctx)
			},
			columns: planColumns,
			summary: func(items []model.Plan) any {
				return map[string]any{
					"tenants_by_plan": listfilter.SumBy(items,
						func(p model.Plan) string { return p.ID },
						func(p model.Plan) int { return p.TenantCount }),
					"by_status": listfilter.CountBy(items, func(p model.Plan) string { return p.Status }),
				}
			},
		},
	}
}

func planFromRequest(req request.Plan, p *model.Plan) {
	p.Name = req.Name
	p.Description = req.Description
	p.PriceCents = req.PriceCents
	p.Features = req.Features
	p.MaxUsers = req.MaxUsers
	p.MaxStorageGB = req.MaxStorageGB
	if req.Currency != "" {
		p.Currency = strings.ToUpper(req.Currency)
	}
	if req.Interval != "" {
		p.Interval = req.Interval
	}
	if req.Status != "" {
		p.Status = req.Status
	}
}

func (h *Plan) Create(w http.ResponseWriter, r *http.Request) {
	var req request.Plan
	if !decode(w, r, &req) {
		return
	}

	plan := &model.Plan{}
	planFromRequest(req, plan)
	if err := h.svc.Create(r.Context(), plan); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, plan)
}

func (h *Plan) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	plan, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, plan)
}

func (h *Plan) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req request.Plan
	if !decode(w, r, &req) {
		return
	}

	plan, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	planFromRequest(req, plan)

	if err := h.svc.Update(r.Context(), plan); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, plan)
}

func (h *Plan) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Archive(r.Context(), id); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	plan, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, plan)
}

// Delete fails with 409 while any tenant is subscribed to the plan.
func (h *Plan) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
