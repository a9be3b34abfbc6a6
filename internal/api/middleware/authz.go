package middleware

import (
	"net/http"

	"github.com/edvin/saasadmin/internal/api/response"
	"github.com/edvin/saasadmin/internal/core"
)

// HasScope checks the identity against a required scope. Admins hold every scope.
func HasScope(identity *Identity, scope string) bool {
	if identity == nil {
		return false
	}
	return core.HasScope(identity.Scopes, scope)
}

// RequireScope returns middleware that checks the caller has the given scope.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !HasScope(GetIdentity(r.Context()), scope) {
				response.WriteError(w, http.StatusForbidden, "insufficient scope: requires "+scope)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ReadWrite lets read-scoped API keys use safe methods and requires full
// access for everything else.
func ReadWrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := core.ScopeAll
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			scope = core.ScopeRead
		}
		if !HasScope(GetIdentity(r.Context()), scope) {
			response.WriteError(w, http.StatusForbidden, "insufficient scope: requires "+scope)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin restricts a route to signed-in admin users.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetIdentity(r.Context()).IsAdmin() {
			response.WriteError(w, http.StatusForbidden, "admin session required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
