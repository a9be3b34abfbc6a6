package request

type CreateTicket struct {
	Subject        string  `json:"subject" validate:"required,min=1,max=300"`
	Description    string  `json:"description" validate:"max=20000"`
	TenantID       *string `json:"tenant_id"`
	RequesterEmail string  `json:"requester_email" validate:"required,email"`
	Priority       string  `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssignedTo     *string `json:"assigned_to"`
}

type UpdateTicket struct {
	Status     *string `json:"status" validate:"omitempty,oneof=open in_progress resolved closed"`
	Priority   *string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssignedTo *string `json:"assigned_to"`
}

type TicketReply struct {
	Body     string `json:"body" validate:"required,max=20000"`
	Internal bool   `json:"internal"`
}

type TicketDraft struct {
	Body     string `json:"body" validate:"max=20000"`
	Internal bool   `json:"internal"`
}
