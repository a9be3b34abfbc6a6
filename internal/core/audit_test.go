package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/saasadmin/internal/listfilter"
	"github.com/edvin/saasadmin/internal/model"
)

func TestAuditService_List(t *testing.T) {
	db := &mockDB{}
	svc := NewAuditService(db)
	ctx := context.Background()

	rows := newMockRows(
		func(dest ...any) error {
			*(dest[0].(*string)) = "a1"
			*(dest[2].(*string)) = "ops@example.com"
			*(dest[5].(*string)) = "create"
			return nil
		},
		func(dest ...any) error {
			*(dest[0].(*string)) = "a2"
			*(dest[2].(*string)) = "billing@example.com"
			*(dest[5].(*string)) = "delete"
			return nil
		},
	)
	db.On("Query", ctx, mock.AnythingOfType("string"), []any{fixedTime}).Return(rows, nil)

	logs, err := svc.List(ctx, fixedTime)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	deletes := listfilter.Filter(logs, AuditSchema, listfilter.Query{}.Where("action", "delete"))
	require.Len(t, deletes, 1)
	assert.Equal(t, "a2", deletes[0].ID)
	db.AssertExpectations(t)
}

func TestAuditService_Record(t *testing.T) {
	db := &mockDB{}
	svc := NewAuditService(db)
	ctx := context.Background()

	actor := "adm_1"
	rt, rid := "tenants", "ten_1"
	entry := &model.AuditLog{
		ActorID: &actor, ActorEmail: "ops@example.com", Method: "DELETE", Path: "/api/v1/tenants/ten_1",
		Action: "delete", ResourceType: &rt, ResourceID: &rid, StatusCode: 204, IPAddress: "10.0.0.1",
		RequestBody: json.RawMessage(`{}`),
	}
	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{
		entry.ActorID, entry.ActorEmail, entry.Method, entry.Path, entry.Action, entry.ResourceType,
		entry.ResourceID, entry.StatusCode, entry.IPAddress, entry.RequestBody,
	}).Return(tag("INSERT 0 1"), nil).Once()

	require.NoError(t, svc.Record(ctx, entry))
	db.AssertExpectations(t)
}

func TestAuditService_Record_Error(t *testing.T) {
	db := &mockDB{}
	svc := NewAuditService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(tag(""), errors.New("db down"))

	err := svc.Record(ctx, &model.AuditLog{Method: "POST", Path: "/api/v1/plans"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record audit log POST /api/v1/plans")
}
