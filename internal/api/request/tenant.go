package request

type CreateTenant struct {
	Name       string  `json:"name" validate:"required,min=1,max=200"`
	Slug       string  `json:"slug" validate:"omitempty,slug"`
	Domain     string  `json:"domain" validate:"omitempty,fqdn"`
	OwnerEmail string  `json:"owner_email" validate:"required,email"`
	PlanID     *string `json:"plan_id"`
	UserCount  int     `json:"user_count" validate:"min=0"`
}

type UpdateTenant struct {
	Name       string `json:"name" validate:"required,min=1,max=200"`
	Slug       string `json:"slug" validate:"required,slug"`
	Domain     string `json:"domain" validate:"omitempty,fqdn"`
	OwnerEmail string `json:"owner_email" validate:"required,email"`
	UserCount  int    `json:"user_count" validate:"min=0"`
}

type ChangePlan struct {
	PlanID string `json:"plan_id" validate:"required"`
}

type SetTenantStatus struct {
	Status string `json:"status" validate:"required,oneof=trial active suspended cancelled"`
}
