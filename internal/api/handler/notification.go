package handler

import (
	"context"
	"net/http"

	"github.com/edvin/saasadmin/internal/api/request"
	"github.com/edvin/saasadmin/internal/api/response"
	"github.com/edvin/saasadmin/internal/core"
	"github.com/edvin/saasadmin/internal/csvexport"
	"github.com/edvin/saasadmin/internal/listfilter"
	"github.com/edvin/saasadmin/internal/model"
)

type Notification struct {
	svc *core.NotificationService
	*listing[model.Notification]
}

var notificationColumns = []csvexport.Column[model.Notification]{
	csvexport.Col("ID", func(n model.Notification) string { return n.ID }),
	csvexport.Col("Title", func(n model.Notification) string { return n.Title }),
	csvexport.Col("Message", func(n model.Notification) string { return n.Message }),
	csvexport.Col("Type", func(n model.Notification) string { return n.Type }),
	csvexport.Col("Audience", func(n model.Notification) string { return n.Audience }),
	csvexport.Col("Tenant ID", func(n model.Notification) string { return csvexport.Str(n.TenantID) }),
	csvexport.Col("Status", func(n model.Notification) string { return n.Status }),
	csvexport.Col("Scheduled At", func(n model.Notification) string { return csvexport.TimePtr(n.ScheduledAt) }),
	csvexport.Col("Sent At", func(n model.Notification) string { return csvexport.TimePtr(n.SentAt) }),
	csvexport.Col("Created At", func(n model.Notification) string { return csvexport.Time(n.CreatedAt) }),
}

func NewNotification(svc *core.NotificationService) *Notification {
	return &Notification{
		svc: svc,
		listing: &listing[model.Notification]{
			resource: "notifications",
			schema:   core.NotificationSchema,
			load: func(ctx context.Context, _ *http.Request) ([]model.Notification, error) {
				return svc.List(ctx)
			},
			columns: notificationColumns,
			summary: func(items []model.Notification) any {
				return map[string]any{
					"by_status": listfilter.CountBy(items, func(n model.Notification) string { return n.Status }),
					"by_type":   listfilter.CountBy(items, func(n model.Notification) string { return n.Type }),
				}
			},
		},
	}
}

func notificationFromRequest(req request.Notification, n *model.Notification) {
	n.Title = req.Title
	n.Message = req.Message
	if req.Type != "" {
		n.Type = req.Type
	}
	if req.Audience != "" {
		n.Audience = req.Audience
	}
	n.TenantID = req.TenantID
	n.ScheduledAt = req.ScheduledAt
}

// Create stores a draft, or a scheduled notification when scheduled_at is set.
func (h *Notification) Create(w http.ResponseWriter, r *http.Request) {
	var req request.Notification
	if !decode(w, r, &req) {
		return
	}

	n := &model.Notification{}
	notificationFromRequest(req, n)
	if err := h.svc.Create(r.Context(), n); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, n)
}

func (h *Notification) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	n, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, n)
}

func (h *Notification) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req request.Notification
	if !decode(w, r, &req) {
		return
	}

	n, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	notificationFromRequest(req, n)

	if err := h.svc.Update(r.Context(), n); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, n)
}

func (h *Notification) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	n, err := h.svc.Send(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, n)
}

func (h *Notification) Delete(w http.ResponseWriter, r *http.Request) {
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
