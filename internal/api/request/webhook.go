package request

type Webhook struct {
	URL         string   `json:"url" validate:"required,url"`
	Events      []string `json:"events" validate:"required,min=1,dive,required"`
	Secret      string   `json:"secret" validate:"omitempty,min=16"`
	Active      *bool    `json:"active"`
	Description string   `json:"description" validate:"max=500"`
}
