package handler

import (
	"net/http"

	"github.com/edvin/saasadmin/internal/api/request"
	"github.com/edvin/saasadmin/internal/api/response"
	"github.com/edvin/saasadmin/internal/core"
)

type Settings struct {
	svc *core.SettingsService
}

func NewSettings(svc *core.SettingsService) *Settings {
	return &Settings{svc: svc}
}

func (h *Settings) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Load(r.Context())
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, settings)
}

func (h *Settings) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateSettings
	if !decode(w, r, &req) {
		return
	}

	values := req.Values()
	if len(values) == 0 {
		response.WriteError(w, http.StatusBadRequest, "no settings given")
		return
	}
	if err := h.svc.Update(r.Context(), values); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	settings, err := h.svc.Load(r.Context())
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, settings)
}
