package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/edvin/saasadmin/internal/api/handler"
	mw "github.com/edvin/saasadmin/internal/api/middleware"
	"github.com/edvin/saasadmin/internal/config"
	"github.com/edvin/saasadmin/internal/core"
	"github.com/edvin/saasadmin/internal/health"
	"github.com/edvin/saasadmin/internal/metrics"
)

// ReadyCheck reports whether a dependency can serve requests.
type ReadyCheck func(ctx context.Context) error

type Server struct {
	router      chi.Router
	logger      zerolog.Logger
	services    *core.Services
	monitor     *health.Monitor
	cfg         *config.Config
	ready       map[string]ReadyCheck
	auditLogger *mw.AuditLogger
}

func NewServer(logger zerolog.Logger, cfg *config.Config, services *core.Services, monitor *health.Monitor, ready map[string]ReadyCheck) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		services:    services,
		monitor:     monitor,
		cfg:         cfg,
		ready:       ready,
		auditLogger: mw.NewAuditLogger(services.Audit, logger),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
	s.router.Use(mw.CORS(s.cfg.CORSOrigins))
}

func (s *Server) setupRoutes() {
	if s.cfg.MetricsListenAddr == "" {
		s.router.Handle("/metrics", metrics.Handler(prometheus.DefaultGatherer))
	}

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	auth := handler.NewAuth(s.services.Auth)
	s.router.Route("/auth/login", func(r chi.Router) {
		r.Post("/", auth.Login)
		r.Post("/initiate", auth.Initiate)
		r.Post("/verify-otp", auth.VerifyOTP)
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.services.Auth, s.services.APIKey))
		r.Use(s.auditLogger.Middleware)
		r.Use(mw.InvalidateOnMutation(s.services.Dashboard.Invalidate))

		usage := handler.NewUsage(s.services.Usage)

		// Metering clients push samples with a usage:write key.
		r.With(mw.RequireScope(core.ScopeUsageWrite)).Post("/usage", usage.Record)

		r.Group(func(r chi.Router) {
			r.Use(mw.ReadWrite)

			// Dashboard
			dashboard := handler.NewDashboard(s.services.Dashboard)
			r.Get("/dashboard/stats", dashboard.Stats)

			// Own profile
			profile := handler.NewProfile(s.services.AdminUser)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireAdmin)
				r.Get("/me", profile.Get)
				r.Patch("/me", profile.Update)
				r.Get("/me/avatar", profile.Avatar)
				r.Put("/me/avatar", profile.SetAvatar)
			})

			// Tenants
			tenant := handler.NewTenant(s.services.Tenant)
			r.Get("/tenants", tenant.List)
			r.Get("/tenants/export", tenant.Export)
			r.Post("/tenants", tenant.Create)
			r.Get("/tenants/{id}", tenant.Get)
			r.Put("/tenants/{id}", tenant.Update)
			r.Delete("/tenants/{id}", tenant.Delete)
			r.Post("/tenants/{id}/suspend", tenant.Suspend)
			r.Post("/tenants/{id}/activate", tenant.Activate)
			r.Put("/tenants/{id}/status", tenant.SetStatus)
			r.Put("/tenants/{id}/plan", tenant.ChangePlan)

			// Plans
			plan := handler.NewPlan(s.services.Plan)
			r.Get("/plans", plan.List)
			r.Get("/plans/export", plan.Export)
			r.Post("/plans", plan.Create)
			r.Get("/plans/{id}", plan.Get)
			r.Put("/plans/{id}", plan.Update)
			r.Delete("/plans/{id}", plan.Delete)
			r.Post("/plans/{id}/archive", plan.Archive)

			// Invoices
			invoice := handler.NewInvoice(s.services.Invoice)
			r.Get("/invoices", invoice.List)
			r.Get("/invoices/export", invoice.Export)
			r.Post("/invoices", invoice.Create)
			r.Get("/invoices/{id}", invoice.Get)
			r.Patch("/invoices/{id}", invoice.Update)
			r.Delete("/invoices/{id}", invoice.Delete)
			r.Put("/invoices/{id}/status", invoice.SetStatus)

			// Support tickets
			ticket := handler.NewTicket(s.services.Ticket)
			r.Get("/tickets", ticket.List)
			r.Get("/tickets/export", ticket.Export)
			r.Post("/tickets", ticket.Create)
			r.Get("/tickets/{id}", ticket.Get)
			r.Patch("/tickets/{id}", ticket.Update)
			r.Delete("/tickets/{id}", ticket.Delete)
			r.Get("/tickets/{id}/replies", ticket.Replies)
			r.Post("/tickets/{id}/replies", ticket.Reply)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireAdmin)
				r.Get("/tickets/{id}/draft", ticket.GetDraft)
				r.Put("/tickets/{id}/draft", ticket.SaveDraft)
				r.Delete("/tickets/{id}/draft", ticket.DeleteDraft)
			})

			// Notifications
			notification := handler.NewNotification(s.services.Notification)
			r.Get("/notifications", notification.List)
			r.Get("/notifications/export", notification.Export)
			r.Post("/notifications", notification.Create)
			r.Get("/notifications/{id}", notification.Get)
			r.Put("/notifications/{id}", notification.Update)
			r.Delete("/notifications/{id}", notification.Delete)
			r.Post("/notifications/{id}/send", notification.Send)

			// Usage
			r.Get("/usage", usage.List)
			r.Get("/usage/export", usage.Export)
			r.Get("/usage/summary", usage.Summary)

			// Audit logs
			audit := handler.NewAudit(s.services.Audit)
			r.Get("/audit-logs", audit.List)
			r.Get("/audit-logs/export", audit.Export)

			// Settings and integrations
			settings := handler.NewSettings(s.services.Settings)
			r.Get("/settings", settings.Get)
			r.Put("/settings", settings.Update)

			apiKey := handler.NewAPIKey(s.services.APIKey)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireAdmin)
				r.Get("/settings/api-keys", apiKey.List)
				r.Post("/settings/api-keys", apiKey.Create)
				r.Delete("/settings/api-keys/{id}", apiKey.Revoke)
			})

			webhook := handler.NewWebhook(s.services.Webhook)
			r.Get("/settings/webhooks", webhook.List)
			r.Post("/settings/webhooks", webhook.Create)
			r.Get("/settings/webhooks/{id}", webhook.Get)
			r.Put("/settings/webhooks/{id}", webhook.Update)
			r.Delete("/settings/webhooks/{id}", webhook.Delete)
			r.Post("/settings/webhooks/{id}/test", webhook.Test)

			// Component health
			healthH := handler.NewHealth(s.monitor)
			r.Get("/health", healthH.Get)
			r.Get("/health/history", healthH.History)
			r.Get("/health/stream", healthH.Stream)
			r.Post("/health/check", healthH.Check)
			r.Put("/health/polling", healthH.SetPolling)
		})
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.ready))
	for name := range s.ready {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := map[string]string{}
	healthy := true
	for _, name := range names {
		if err := s.ready[name](ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
		} else {
			checks[name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

// Close flushes pending audit entries.
func (s *Server) Close(ctx context.Context) {
	s.auditLogger.Close(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
