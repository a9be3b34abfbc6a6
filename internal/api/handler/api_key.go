package handler

import (
	"net/http"

	"github.com/edvin/saasadmin/internal/api/request"
	"github.com/edvin/saasadmin/internal/api/response"
	"github.com/edvin/saasadmin/internal/core"
	"github.com/edvin/saasadmin/internal/model"
)

type APIKey struct {
	svc *core.APIKeyService
}

func NewAPIKey(svc *core.APIKeyService) *APIKey {
	return &APIKey{svc: svc}
}

// createAPIKeyResponse carries the raw key. It is only ever shown once.
type createAPIKeyResponse struct {
	*model.APIKey
	Key string `json:"key"`
}

func (h *APIKey) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAPIKey
	if !decode(w, r, &req) {
		return
	}

	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = []string{core.ScopeRead}
	}
	key, raw, err := h.svc.Create(r.Context(), req.Name, scopes)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, createAPIKeyResponse{APIKey: key, Key: raw})
}

func (h *APIKey) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.svc.List(r.Context())
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	if keys == nil {
		keys = []model.APIKey{}
	}

	response.WriteJSON(w, http.StatusOK, keys)
}

func (h *APIKey) Revoke(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Revoke(r.Context(), id); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
