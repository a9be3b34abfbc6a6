package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/edvin/saasadmin/internal/api/request"
	"github.com/edvin/saasadmin/internal/api/response"
	"github.com/edvin/saasadmin/internal/core"
	"github.com/edvin/saasadmin/internal/csvexport"
	"github.com/edvin/saasadmin/internal/listfilter"
	"github.com/edvin/saasadmin/internal/model"
)

type Tenant struct {
	svc *core.TenantService
	*listing[model.Tenant]
}

var tenantColumns = []csvexport.Column[model.Tenant]{
	csvexport.Col("ID", func(t model.Tenant) string { return t.ID }),
	csvexport.Col("Name", func(t model.Tenant) string { return t.Name }),
	csvexport.Col("Slug", func(t model.Tenant) string { return t.Slug }),
	csvexport.Col("Domain", func(t model.Tenant) string { return t.Domain }),
	csvexport.Col("Owner Email", func(t model.Tenant) string { return t.OwnerEmail }),
	csvexport.Col("Plan", func(t model.Tenant) string { return t.PlanName }),
	csvexport.Col("Status", func(t model.Tenant) string { return t.Status }),
	csvexport.Col("Users", func(t model.Tenant) string { return strconv.Itoa(t.UserCount) }),
	csvexport.Col("Created At", func(t model.Tenant) string { return csvexport.Time(t.CreatedAt) }),
}

func NewTenant(svc *core.TenantService) *Tenant {
	return &Tenant{
		svc: svc,
		listing: &listing[model.Tenant]{
			resource: "tenants",
			schema:   core.TenantSchema,
			load: func(ctx context.Context, _ *http.Request) ([]model.Tenant, error) {
				return svc.List(ctx)
			},
			columns: tenantColumns,
			summary: func(items []model.Tenant) any {
				return map[string]any{
					"by_status": listfilter.CountBy(items, func(t model.Tenant) string { return t.Status }),
					"users":     listfilter.Sum(items, func(t model.Tenant) int { return t.UserCount }),
				}
			},
		},
	}
}

func (h *Tenant) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTenant
	if !decode(w, r, &req) {
		return
	}

	tenant := &model.Tenant{
		Name:       req.Name,
		Slug:       req.Slug,
		Domain:     req.Domain,
		OwnerEmail: req.OwnerEmail,
		PlanID:     req.PlanID,
		UserCount:  req.UserCount,
	}
	if err := h.svc.Create(r.Context(), tenant); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, tenant)
}

func (h *Tenant) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	tenant, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, tenant)
}

func (h *Tenant) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req request.UpdateTenant
	if !decode(w, r, &req) {
		return
	}

	tenant, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	tenant.Name = req.Name
	tenant.Slug = req.Slug
	tenant.Domain = req.Domain
	tenant.OwnerEmail = req.OwnerEmail
	tenant.UserCount = req.UserCount

	if err := h.svc.Update(r.Context(), tenant); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, tenant)
}

func (h *Tenant) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *Tenant) Suspend(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Suspend)
}

func (h *Tenant) Activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Activate)
}

func (h *Tenant) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req request.SetTenantStatus
	if !decode(w, r, &req) {
		return
	}
	h.transition(w, r, func(ctx context.Context, id string) (*model.Tenant, error) {
		return h.svc.SetStatus(ctx, id, req.Status)
	})
}

func (h *Tenant) ChangePlan(w http.ResponseWriter, r *http.Request) {
	var req request.ChangePlan
	if !decode(w, r, &req) {
		return
	}
	h.transition(w, r, func(ctx context.Context, id string) (*model.Tenant, error) {
		return h.svc.ChangePlan(ctx, id, req.PlanID)
	})
}

func (h *Tenant) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*model.Tenant, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	tenant, err := fn(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, tenant)
}
