package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/edvin/saasadmin/internal/api/response"
	"github.com/edvin/saasadmin/internal/core"
	"github.com/edvin/saasadmin/internal/model"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity kinds.
const (
	KindAdmin  = "admin"
	KindAPIKey = "api_key"
)

// Identity is the authenticated caller of an API request.
type Identity struct {
	Kind   string
	ID     string
	Email  string
	Scopes []string
}

// IsAdmin reports whether the caller signed in as an admin user.
func (i *Identity) IsAdmin() bool { return i != nil && i.Kind == KindAdmin }

func GetIdentity(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityKey).(*Identity)
	return identity
}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

type TokenValidator interface {
	ValidateToken(token string) (*core.Claims, error)
}

type KeyAuthenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*model.APIKey, error)
}

// Auth accepts either an admin session (Authorization: Bearer <jwt>) or an
// API key (X-API-Key).
func Auth(tokens TokenValidator, keys KeyAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var identity *Identity

			authHeader := r.Header.Get("Authorization")
			// Browsers cannot set headers on WebSocket upgrades.
			if authHeader == "" && strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
				if token := r.URL.Query().Get("token"); token != "" {
					authHeader = "Bearer " + token
				}
			}

			if authHeader != "" {
				token := strings.TrimPrefix(authHeader, "Bearer ")
				if token == authHeader {
					response.WriteError(w, http.StatusUnauthorized, "invalid authorization format")
					return
				}
				claims, err := tokens.ValidateToken(token)
				if err != nil {
					response.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
					return
				}
				identity = &Identity{Kind: KindAdmin, ID: claims.Subject, Email: claims.Email, Scopes: []string{core.ScopeAll}}
			} else if raw := r.Header.Get("X-API-Key"); raw != "" {
				key, err := keys.Authenticate(r.Context(), raw)
				if err != nil {
					response.WriteError(w, http.StatusUnauthorized, "invalid API key")
					return
				}
				identity = &Identity{Kind: KindAPIKey, ID: key.ID, Email: "api-key:" + key.Name, Scopes: key.Scopes}
			} else {
				response.WriteError(w, http.StatusUnauthorized, "missing credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}
