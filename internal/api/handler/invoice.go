package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/edvin/saasadmin/internal/api/request"
	"github.com/edvin/saasadmin/internal/api/response"
	"github.com/edvin/saasadmin/internal/core"
	"github.com/edvin/saasadmin/internal/csvexport"
	"github.com/edvin/saasadmin/internal/listfilter"
	"github.com/edvin/saasadmin/internal/model"
)

type Invoice struct {
	svc *core.InvoiceService
	*listing[model.Invoice]
}

var invoiceColumns = []csvexport.Column[model.Invoice]{
	csvexport.Col("Number", func(i model.Invoice) string { return i.Number }),
	csvexport.Col("Tenant", func(i model.Invoice) string { return i.TenantName }),
	csvexport.Col("Amount", func(i model.Invoice) string { return csvexport.Cents(i.AmountCents) }),
	csvexport.Col("Currency", func(i model.Invoice) string { return i.Currency }),
	csvexport.Col("Status", func(i model.Invoice) string { return i.Status }),
	csvexport.Col("Issued At", func(i model.Invoice) string { return csvexport.Time(i.IssuedAt) }),
	csvexport.Col("Due At", func(i model.Invoice) string { return csvexport.Time(i.DueAt) }),
	csvexport.Col("Paid At", func(i model.Invoice) string { return csvexport.TimePtr(i.PaidAt) }),
	csvexport.Col("Notes", func(i model.Invoice) string { return i.Notes }),
}

// invoiceSummary holds per-status totals in cents.
type invoiceSummary struct {
	Count       map[string]int   `json:"count"`
	AmountCents map[string]int64 `json:"amount_cents"`
	TotalCents  int64            `json:"total_cents"`
}

func summarizeInvoices(items []model.Invoice) any {
	status := func(i model.Invoice) string { return i.Status }
	amount := func(i model.Invoice) int64 { return i.AmountCents }
	return invoiceSummary{
		Count:       listfilter.CountBy(items, status),
		AmountCents: listfilter.SumBy(items, status, amount),
		TotalCents:  listfilter.Sum(items, amount),
	}
}

func NewInvoice(svc *core.InvoiceService) *Invoice {
	return &Invoice{
		svc: svc,
		listing: &listing[model.Invoice]{
			resource: "invoices",
			schema:   core.InvoiceSchema,
			load: func(ctx context.Context, _ *http.Request) ([]model.Invoice, error) {
				return svc.List(ctx)
			},
			columns: invoiceColumns,
			summary: summarizeInvoices,
		},
	}
}

func (h *Invoice) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateInvoice
	if !decode(w, r, &req) {
		return
	}

	inv := &model.Invoice{
		TenantID:    req.TenantID,
		AmountCents: req.AmountCents,
		Currency:    strings.ToUpper(req.Currency),
		Notes:       req.Notes,
	}
	if req.IssuedAt != nil {
		inv.IssuedAt = *req.IssuedAt
	}
	if req.DueAt != nil {
		inv.DueAt = *req.DueAt
	}
	if err := h.svc.Create(r.Context(), inv); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, inv)
}

func (h *Invoice) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	inv, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, inv)
}

// Update edits amount, due date or notes of a pending invoice.
func (h *Invoice) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req request.UpdateInvoice
	if !decode(w, r, &req) {
		return
	}

	inv, err := h.svc.Update(r.Context(), id, req.AmountCents, req.DueAt, req.Notes)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, inv)
}

func (h *Invoice) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req request.SetInvoiceStatus
	if !decode(w, r, &req) {
		return
	}

	inv, err := h.svc.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, inv)
}

func (h *Invoice) Delete(w http.ResponseWriter, r *http.Request) {
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
