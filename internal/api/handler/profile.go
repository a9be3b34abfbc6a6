package handler

import (
	"io"
	"net/http"

	"github.com/edvin/saasadmin/internal/api/request"
	"github.com/edvin/saasadmin/internal/api/response"
	"github.com/edvin/saasadmin/internal/core"
)

// Profile serves the signed-in admin's own account.
type Profile struct {
	svc *core.AdminUserService
}

func NewProfile(svc *core.AdminUserService) *Profile {
	return &Profile{svc: svc}
}

func (h *Profile) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentAdmin(w, r)
	if !ok {
		return
	}

	admin, err := h.svc.GetByID(r.Context(), identity.ID)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, admin)
}

func (h *Profile) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentAdmin(w, r)
	if !ok {
		return
	}

	var req request.UpdateProfile
	if !decode(w, r, &req) {
		return
	}

	admin, err := h.svc.UpdateProfile(r.Context(), identity.ID, req.DisplayName)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, admin)
}

// SetAvatar stores a data-URL encoded image as the admin's avatar.
func (h *Profile) SetAvatar(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentAdmin(w, r)
	if !ok {
		return
	}

	var req request.SetAvatar
	if !decode(w, r, &req) {
		return
	}

	admin, err := h.svc.SetAvatar(r.Context(), identity.ID, req.DataURL)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, admin)
}

func (h *Profile) Avatar(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentAdmin(w, r)
	if !ok {
		return
	}

	body, contentType, err := h.svc.Avatar(r.Context(), identity.ID)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		logFor(r).Warn().Err(err).Msg("write avatar")
	}
}
