package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/edvin/saasadmin/internal/core"
	"github.com/edvin/saasadmin/internal/csvexport"
	"github.com/edvin/saasadmin/internal/listfilter"
	"github.com/edvin/saasadmin/internal/model"
)

// Audit is read-only; entries are written by the audit middleware.
type Audit struct {
	*listing[model.AuditLog]
}

var auditColumns = []csvexport.Column[model.AuditLog]{
	csvexport.Col("Time", func(a model.AuditLog) string { return csvexport.Time(a.CreatedAt) }),
	csvexport.Col("Actor", func(a model.AuditLog) string { return a.ActorEmail }),
	csvexport.Col("Action", func(a model.AuditLog) string { return a.Action }),
	csvexport.Col("Method", func(a model.AuditLog) string { return a.Method }),
	csvexport.Col("Path", func(a model.AuditLog) string { return a.Path }),
	csvexport.Col("Resource Type", func(a model.AuditLog) string { return csvexport.Str(a.ResourceType) }),
	csvexport.Col("Resource ID", func(a model.AuditLog) string { return csvexport.Str(a.ResourceID) }),
	csvexport.Col("Status", func(a model.AuditLog) string { return strconv.Itoa(a.StatusCode) }),
	csvexport.Col("IP Address", func(a model.AuditLog) string { return a.IPAddress }),
}

func NewAudit(svc *core.AuditService) *Audit {
	return &Audit{
		listing: &listing[model.AuditLog]{
			resource: "audit-logs",
			schema:   core.AuditSchema,
			load: func(ctx context.Context, r *http.Request) ([]model.AuditLog, error) {
				return svc.List(ctx, since(r, time.Now()))
			},
			columns: auditColumns,
			summary: func(items []model.AuditLog) any {
				return listfilter.CountBy(items, func(a model.AuditLog) string { return a.Action })
			},
		},
	}
}
