package handler

import (
	"net/http"

	"github.com/edvin/saasadmin/internal/api/request"
	"github.com/edvin/saasadmin/internal/api/response"
	"github.com/edvin/saasadmin/internal/core"
	"github.com/edvin/saasadmin/internal/model"
)

type Webhook struct {
	svc *core.WebhookService
}

func NewWebhook(svc *core.WebhookService) *Webhook {
	return &Webhook{svc: svc}
}

type createWebhookResponse struct {
	*model.Webhook
	Secret string `json:"secret"`
}

// Create registers a webhook. The signing secret is returned only here.
func (h *Webhook) Create(w http.ResponseWriter, r *http.Request) {
	var req request.Webhook
	if !decode(w, r, &req) {
		return
	}

	hook := &model.Webhook{
		URL:         req.URL,
		Events:      req.Events,
		Secret:      req.Secret,
		Description: req.Description,
	}
	secret, err := h.svc.Create(r.Context(), hook)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, createWebhookResponse{Webhook: hook, Secret: secret})
}

func (h *Webhook) List(w http.ResponseWriter, r *http.Request) {
	hooks, err := h.svc.List(r.Context())
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	if hooks == nil {
		hooks = []model.Webhook{}
	}

	response.WriteJSON(w, http.StatusOK, hooks)
}

func (h *Webhook) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	hook, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, hook)
}

func (h *Webhook) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req request.Webhook
	if !decode(w, r, &req) {
		return
	}

	hook, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	hook.URL = req.URL
	hook.Events = req.Events
	hook.Description = req.Description
	hook.Secret = req.Secret
	if req.Active != nil {
		hook.Active = *req.Active
	}

	if err := h.svc.Update(r.Context(), hook); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, hook)
}

func (h *Webhook) Delete(w http.ResponseWriter, r *http.Request) {
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

// Test delivers a webhook.test event synchronously and reports the outcome.
func (h *Webhook) Test(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	delivery, err := h.svc.Test(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, delivery)
}
