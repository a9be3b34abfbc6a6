package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/saasadmin/internal/model"
)

func TestSettingsService_Load(t *testing.T) {
	db := &mockDB{}
	svc := NewSettingsService(db)
	ctx := context.Background()

	rows := newMockRows(
		settingScan(model.SettingPlatformName, "Acme Cloud"),
		settingScan(model.SettingSLAHours, "8"),
		settingScan(model.SettingTrialDays, "not-a-number"),
		settingScan(model.SettingMaintenanceMode, "true"),
	)
	db.On("Query", ctx, mock.AnythingOfType("string"), []any(nil)).Return(rows, nil)

	st, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Acme Cloud", st.PlatformName)
	assert.Equal(t, 8, st.SLAHours)
	assert.Equal(t, 14, st.TrialDays)
	assert.True(t, st.MaintenanceMode)
}

func TestSettingsService_SLA_Default(t *testing.T) {
	db := &mockDB{}
	svc := NewSettingsService(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.AnythingOfType("string"), []any(nil)).Return(newEmptyMockRows(), nil)

	sla, err := svc.SLA(ctx)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, sla)
}

func TestSettingsService_Update_RejectsBeforeWriting(t *testing.T) {
	db := &mockDB{}
	svc := NewSettingsService(db)

	err := svc.Update(context.Background(), map[string]string{
		model.SettingPlatformName: "New Name",
		"favourite_colour":        "blue",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettingsService_Update(t *testing.T) {
	db := &mockDB{}
	svc := NewSettingsService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{model.SettingSLAHours, "12"}).Return(tag("INSERT 0 1"), nil)
	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{model.SettingSupportEmail, "help@acme.test"}).Return(tag("INSERT 0 1"), nil)

	require.NoError(t, svc.Update(ctx, map[string]string{
		model.SettingSLAHours:     "12",
		model.SettingSupportEmail: "help@acme.test",
	}))
	db.AssertExpectations(t)
}

func TestValidateSetting(t *testing.T) {
	tests := []struct {
		key, value string
		ok         bool
	}{
		{model.SettingTrialDays, "0", true},
		{model.SettingTrialDays, "366", false},
		{model.SettingSLAHours, "0", false},
		{model.SettingMaintenanceMode, "yes", false},
		{model.SettingSupportEmail, "nope", false},
		{model.SettingDefaultPlanID, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := validateSetting(tt.key, tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidInput)
			}
		})
	}
}
