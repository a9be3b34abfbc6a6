package core

import (
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

type Services struct {
	Settings     *SettingsService
	Plan         *PlanService
	Tenant       *TenantService
	Invoice      *InvoiceService
	Ticket       *TicketService
	Notification *NotificationService
	Usage        *UsageService
	APIKey       *APIKeyService
	Webhook      *WebhookService
	Audit        *AuditService
	AdminUser    *AdminUserService
	Auth         *AuthService
	Dashboard    *DashboardService
}

// Deps are the external collaborators of the service layer.
type Deps struct {
	DB      DB
	Redis   *redis.Client
	Avatars AvatarStore
	Mailer  CodeSender
	HTTP    *http.Client
	Logger  zerolog.Logger
	Auth    AuthConfig
}

func NewServices(d Deps) *Services {
	settings := NewSettingsService(d.DB)
	webhooks := NewWebhookService(d.DB, d.HTTP, d.Logger)
	admins := NewAdminUserService(d.DB, d.Avatars)
	return &Services{
		Settings:     settings,
		Plan:         NewPlanService(d.DB),
		Tenant:       NewTenantService(d.DB, webhooks),
		Invoice:      NewInvoiceService(d.DB, webhooks),
		Ticket:       NewTicketService(d.DB, d.Redis, settings),
		Notification: NewNotificationService(d.DB, webhooks),
		Usage:        NewUsageService(d.DB),
		APIKey:       NewAPIKeyService(d.DB),
		Webhook:      webhooks,
		Audit:        NewAuditService(d.DB),
		AdminUser:    admins,
		Auth:         NewAuthService(d.Redis, admins, d.Mailer, d.Auth),
		Dashboard:    NewDashboardService(d.DB, settings),
	}
}
