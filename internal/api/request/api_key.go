package request

// CreateAPIKey is the body of POST /api-keys. An empty scope list means
// read-only access.
type CreateAPIKey struct {
	Name   string   `json:"name" validate:"required,min=1,max=255"`
	Scopes []string `json:"scopes" validate:"omitempty,max=3,unique,dive,oneof=* read usage:write"`
}
