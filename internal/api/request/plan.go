package request

type Plan struct {
	Name         string   `json:"name" validate:"required,min=1,max=100"`
	Description  string   `json:"description" validate:"max=1000"`
	PriceCents   int64    `json:"price_cents" validate:"min=0"`
	Currency     string   `json:"currency" validate:"omitempty,len=3"`
	Interval     string   `json:"interval" validate:"omitempty,oneof=monthly yearly"`
	Features     []string `json:"features"`
	MaxUsers     int      `json:"max_users" validate:"min=0"`
	MaxStorageGB int      `json:"max_storage_gb" validate:"min=0"`
	Status       string   `json:"status" validate:"omitempty,oneof=active archived"`
}
