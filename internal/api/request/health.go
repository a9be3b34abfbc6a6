package request

type SetPolling struct {
	Enabled *bool `json:"enabled" validate:"required"`
}
