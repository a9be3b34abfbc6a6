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

type Ticket struct {
	svc *core.TicketService
	*listing[model.SupportTicket]
}

var ticketColumns = []csvexport.Column[model.SupportTicket]{
	csvexport.Col("ID", func(t model.SupportTicket) string { return t.ID }),
	csvexport.Col("Subject", func(t model.SupportTicket) string { return t.Subject }),
	csvexport.Col("Tenant", func(t model.SupportTicket) string { return t.TenantName }),
	csvexport.Col("Requester", func(t model.SupportTicket) string { return t.RequesterEmail }),
	csvexport.Col("Priority", func(t model.SupportTicket) string { return t.Priority }),
	csvexport.Col("Status", func(t model.SupportTicket) string { return t.Status }),
	csvexport.Col("Assigned To", func(t model.SupportTicket) string { return csvexport.Str(t.AssignedTo) }),
	csvexport.Col("Replies", func(t model.SupportTicket) string { return strconv.Itoa(t.ReplyCount) }),
	csvexport.Col("SLA Breached", func(t model.SupportTicket) string { return strconv.FormatBool(t.SLABreached) }),
	csvexport.Col("Last Activity", func(t model.SupportTicket) string { return csvexport.Time(t.LastActivityAt) }),
	csvexport.Col("Created At", func(t model.SupportTicket) string { return csvexport.Time(t.CreatedAt) }),
}

func NewTicket(svc *core.TicketService) *Ticket {
	return &Ticket{
		svc: svc,
		listing: &listing[model.SupportTicket]{
			resource: "tickets",
			schema:   core.TicketSchema,
			load: func(ctx context.Context, _ *http.Request) ([]model.SupportTicket, error) {
				return svc.List(ctx)
			},
			columns: ticketColumns,
			summary: func(items []model.SupportTicket) any {
				breached := 0
				for _, t := range items {
					if t.SLABreached {
						breached++
					}
				}
				return map[string]any{
					"by_status":    listfilter.CountBy(items, func(t model.SupportTicket) string { return t.Status }),
					"by_priority":  listfilter.CountBy(items, func(t model.SupportTicket) string { return t.Priority }),
					"sla_breached": breached,
				}
			},
		},
	}
}

func (h *Ticket) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTicket
	if !decode(w, r, &req) {
		return
	}

	ticket := &model.SupportTicket{
		Subject:        req.Subject,
		Description:    req.Description,
		TenantID:       req.TenantID,
		RequesterEmail: req.RequesterEmail,
		Priority:       req.Priority,
		AssignedTo:     req.AssignedTo,
	}
	if err := h.svc.Create(r.Context(), ticket); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, ticket)
}

type ticketWithReplies struct {
	*model.SupportTicket
	Replies []model.TicketReply `json:"replies"`
}

// Get returns the ticket with its reply thread.
func (h *Ticket) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ticket, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	replies, err := h.svc.Replies(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	if replies == nil {
		replies = []model.TicketReply{}
	}

	response.WriteJSON(w, http.StatusOK, ticketWithReplies{SupportTicket: ticket, Replies: replies})
}

func (h *Ticket) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req request.UpdateTicket
	if !decode(w, r, &req) {
		return
	}

	ticket, err := h.svc.Update(r.Context(), id, core.TicketUpdate{
		Status:     req.Status,
		Priority:   req.Priority,
		AssignedTo: req.AssignedTo,
	})
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, ticket)
}

// Reply posts a message to the thread and clears the caller's draft.
func (h *Ticket) Reply(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req request.TicketReply
	if !decode(w, r, &req) {
		return
	}

	reply, err := h.svc.Reply(r.Context(), id, actor(r), req.Body, req.Internal)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	if identity, ok := adminIdentity(r); ok {
		if err := h.svc.DeleteDraft(r.Context(), identity.ID, id); err != nil {
			logFor(r).Warn().Err(err).Str("ticket_id", id).Msg("failed to clear reply draft")
		}
	}

	response.WriteJSON(w, http.StatusCreated, reply)
}

func (h *Ticket) Replies(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	replies, err := h.svc.Replies(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	if replies == nil {
		replies = []model.TicketReply{}
	}

	response.WriteJSON(w, http.StatusOK, replies)
}

func (h *Ticket) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *Ticket) GetDraft(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	draft, err := h.svc.GetDraft(r.Context(), identity.ID, id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, draft)
}

func (h *Ticket) SaveDraft(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req request.TicketDraft
	if !decode(w, r, &req) {
		return
	}

	draft := &model.TicketDraft{TicketID: id, Body: req.Body, Internal: req.Internal}
	if err := h.svc.SaveDraft(r.Context(), identity.ID, draft); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, draft)
}

func (h *Ticket) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteDraft(r.Context(), identity.ID, id); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
