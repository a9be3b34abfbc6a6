package handler

import (
	"net/http"

	"github.com/edvin/saasadmin/internal/api/request"
	"github.com/edvin/saasadmin/internal/api/response"
	"github.com/edvin/saasadmin/internal/core"
	"github.com/edvin/saasadmin/internal/model"
)

// Auth serves the three login steps. None of them require a session.
type Auth struct {
	svc *core.AuthService
}

func NewAuth(svc *core.AuthService) *Auth {
	return &Auth{svc: svc}
}

// Initiate sends a one-time code to the email. Unknown emails get the same
// answer as known ones.
func (h *Auth) Initiate(w http.ResponseWriter, r *http.Request) {
	var req request.InitiateLogin
	if !decode(w, r, &req) {
		return
	}

	result, err := h.svc.Initiate(r.Context(), req.Email)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusAccepted, result)
}

func (h *Auth) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyOTP
	if !decode(w, r, &req) {
		return
	}

	challenge, err := h.svc.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"step": "password", "challenge": challenge})
}

type loginResponse struct {
	Token string           `json:"token"`
	Admin *model.AdminUser `json:"admin"`
}

func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req request.Login
	if !decode(w, r, &req) {
		return
	}

	token, admin, err := h.svc.Login(r.Context(), req.Challenge, req.Password)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, loginResponse{Token: token, Admin: admin})
}
