package model

import "time"

// Setting keys.
const (
	SettingPlatformName    = "platform_name"
	SettingSupportEmail    = "support_email"
	SettingDefaultPlanID   = "default_plan_id"
	SettingTrialDays       = "trial_days"
	SettingSLAHours        = "sla_hours"
	SettingMaintenanceMode = "maintenance_mode"
)

// Setting is one platform-wide key/value pair.
type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PlatformSettings is the typed view of all settings.
type PlatformSettings struct {
	PlatformName    string `json:"platform_name"`
	SupportEmail    string `json:"support_email"`
	DefaultPlanID   string `json:"default_plan_id"`
	TrialDays       int    `json:"trial_days"`
	SLAHours        int    `json:"sla_hours"`
	MaintenanceMode bool   `json:"maintenance_mode"`
}

// DefaultPlatformSettings are used for keys missing from the store.
func DefaultPlatformSettings() PlatformSettings {
	return PlatformSettings{
		PlatformName: "SaaS Platform",
		TrialDays:    14,
		SLAHours:     24,
	}
}
