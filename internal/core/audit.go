package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edvin/saasadmin/internal/listfilter"
	"github.com/edvin/saasadmin/internal/model"
)

// AuditSchema describes how audit entries are searched, filtered and sorted.
var AuditSchema = listfilter.Schema[model.AuditLog]{
	ID: func(a model.AuditLog) string { return a.ID },
	Search: []func(model.AuditLog) string{
		func(a model.AuditLog) string { return a.Path },
		func(a model.AuditLog) string { return a.ActorEmail },
	},
	Categories: map[string]func(model.AuditLog) string{
		"action":        func(a model.AuditLog) string { return a.Action },
		"resource_type": func(a model.AuditLog) string { return derefOr(a.ResourceType, "none") },
		"actor_id":      func(a model.AuditLog) string { return derefOr(a.ActorID, "none") },
	},
	Dates: map[string]func(model.AuditLog) time.Time{
		"date": func(a model.AuditLog) time.Time { return a.CreatedAt },
	},
	Sorts: map[string]func(a, b model.AuditLog) int{
		"created_at": func(a, b model.AuditLog) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"actor":      func(a, b model.AuditLog) int { return strings.Compare(a.ActorEmail, b.ActorEmail) },
	},
	DefaultSort: "created_at",
}

// AuditService reads the audit trail written by the API middleware.
type AuditService struct {
	db DB
}

func NewAuditService(db DB) *AuditService {
	return &AuditService{db: db}
}

// List returns entries newer than since, newest first.
func (s *AuditService) List(ctx context.Context, since time.Time) ([]model.AuditLog, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, actor_id, actor_email, method, path, action, resource_type, resource_id,
		        status_code, ip_address, request_body, created_at
		 FROM audit_logs WHERE created_at >= $1 ORDER BY created_at DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []model.AuditLog
	for rows.Next() {
		var a model.AuditLog
		if err := rows.Scan(&a.ID, &a.ActorID, &a.ActorEmail, &a.Method, &a.Path, &a.Action,
			&a.ResourceType, &a.ResourceID, &a.StatusCode, &a.IPAddress, &a.RequestBody, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}
	return logs, nil
}

// Record writes one audit entry. ID and CreatedAt are assigned by the database.
func (s *AuditService) Record(ctx context.Context, a *model.AuditLog) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, actor_email, method, path, action, resource_type, resource_id,
		                         status_code, ip_address, request_body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())`,
		a.ActorID, a.ActorEmail, a.Method, a.Path, a.Action, a.ResourceType, a.ResourceID,
		a.StatusCode, a.IPAddress, a.RequestBody,
	)
	if err != nil {
		return fmt.Errorf("record audit log %s %s: %w", a.Method, a.Path, err)
	}
	return nil
}
