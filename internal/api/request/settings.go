package request

import (
	"strconv"

	"github.com/edvin/saasadmin/internal/model"
)

// UpdateSettings changes only the fields that are present.
type UpdateSettings struct {
	PlatformName    *string `json:"platform_name" validate:"omitempty,min=1,max=100"`
	SupportEmail    *string `json:"support_email" validate:"omitempty,email"`
	DefaultPlanID   *string `json:"default_plan_id"`
	TrialDays       *int    `json:"trial_days" validate:"omitempty,min=0,max=365"`
	SLAHours        *int    `json:"sla_hours" validate:"omitempty,min=1,max=720"`
	MaintenanceMode *bool   `json:"maintenance_mode"`
}

// Values returns the present fields keyed by setting name.
func (u UpdateSettings) Values() map[string]string {
	values := map[string]string{}
	if u.PlatformName != nil {
		values[model.SettingPlatformName] = *u.PlatformName
	}
	if u.SupportEmail != nil {
		values[model.SettingSupportEmail] = *u.SupportEmail
	}
	if u.DefaultPlanID != nil {
		values[model.SettingDefaultPlanID] = *u.DefaultPlanID
	}
	if u.TrialDays != nil {
		values[model.SettingTrialDays] = strconv.Itoa(*u.TrialDays)
	}
	if u.SLAHours != nil {
		values[model.SettingSLAHours] = strconv.Itoa(*u.SLAHours)
	}
	if u.MaintenanceMode != nil {
		values[model.SettingMaintenanceMode] = strconv.FormatBool(*u.MaintenanceMode)
	}
	return values
}
