package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	mw "github.com/edvin/saasadmin/internal/api/middleware"
	"github.com/edvin/saasadmin/internal/api/request"
	"github.com/edvin/saasadmin/internal/api/response"
)

func logFor(r *http.Request) *zerolog.Logger {
	return zerolog.Ctx(r.Context())
}

// pathID reads the {id} URL parameter, writing a 400 when it is missing.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}

// decode parses the body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := request.Decode(r, v); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// currentAdmin returns the signed-in admin or writes a 403.
func currentAdmin(w http.ResponseWriter, r *http.Request) (*mw.Identity, bool) {
	identity := mw.GetIdentity(r.Context())
	if !identity.IsAdmin() {
		response.WriteError(w, http.StatusForbidden, "admin session required")
		return nil, false
	}
	return identity, true
}

// actor names the caller in ticket replies and similar records.
func actor(r *http.Request) string {
	if identity := mw.GetIdentity(r.Context()); identity != nil && identity.Email != "" {
		return identity.Email
	}
	return "system"
}

// adminIdentity returns the signed-in admin without writing a response.
func adminIdentity(r *http.Request) (*mw.Identity, bool) {
	identity := mw.GetIdentity(r.Context())
	return identity, identity.IsAdmin()
}
