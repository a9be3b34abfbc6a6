package core

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strconv"
	"time"

	"github.com/edvin/saasadmin/internal/model"
)

// SettingsService stores platform-wide settings as key/value rows.
type SettingsService struct {
	db DB
}

func NewSettingsService(db DB) *SettingsService {
	return &SettingsService{db: db}
}

func (s *SettingsService) Get(ctx context.Context, key string) (*model.Setting, error) {
	var st model.Setting
	err := s.db.QueryRow(ctx,
		"SELECT key, value, updated_at FROM platform_settings WHERE key = $1", key,
	).Scan(&st.Key, &st.Value, &st.UpdatedAt)
	if err != nil {
		return nil, dbErr(fmt.Sprintf("get setting %q", key), err)
	}
	return &st, nil
}

func (s *SettingsService) GetAll(ctx context.Context) ([]model.Setting, error) {
	rows, err := s.db.Query(ctx, "SELECT key, value, updated_at FROM platform_settings ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []model.Setting
	for rows.Next() {
		var st model.Setting
		if err := rows.Scan(&st.Key, &st.Value, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings = append(settings, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return settings, nil
}

// Load returns the typed settings, falling back to defaults for missing or
// unparseable values.
func (s *SettingsService) Load(ctx context.Context) (*model.PlatformSettings, error) {
	rows, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := model.DefaultPlatformSettings()
	for _, st := range rows {
		switch st.Key {
		case model.SettingPlatformName:
			out.PlatformName = st.Value
		case model.SettingSupportEmail:
			out.SupportEmail = st.Value
		case model.SettingDefaultPlanID:
			out.DefaultPlanID = st.Value
		case model.SettingTrialDays:
			if n, err := strconv.Atoi(st.Value); err == nil {
				out.TrialDays = n
			}
		case model.SettingSLAHours:
			if n, err := strconv.Atoi(st.Value); err == nil && n > 0 {
				out.SLAHours = n
			}
		case model.SettingMaintenanceMode:
			out.MaintenanceMode = st.Value == "true"
		}
	}
	return &out, nil
}

// SLA returns the ticket response window.
func (s *SettingsService) SLA(ctx context.Context) (time.Duration, error) {
	settings, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	return time.Duration(settings.SLAHours) * time.Hour, nil
}

// Update validates and stores the given settings. Unknown keys are rejected
// before anything is written.
func (s *SettingsService) Update(ctx context.Context, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k, v := range values {
		if err := validateSetting(k, v); err != nil {
			return err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		_, err := s.db.Exec(ctx,
			`INSERT INTO platform_settings (key, value, updated_at) VALUES ($1, $2, now())
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
			k, values[k],
		)
		if err != nil {
			return fmt.Errorf("set setting %q: %w", k, err)
		}
	}
	return nil
}

func validateSetting(key, value string) error {
	switch key {
	case model.SettingPlatformName:
		if value == "" || len(value) > 100 {
			return invalid("platform_name must be 1-100 characters")
		}
	case model.SettingSupportEmail:
		if _, err := mail.ParseAddress(value); err != nil {
			return invalid("support_email is not a valid address")
		}
	case model.SettingDefaultPlanID:
	case model.SettingTrialDays:
		if n, err := strconv.Atoi(value); err != nil || n < 0 || n > 365 {
			return invalid("trial_days must be between 0 and 365")
		}
	case model.SettingSLAHours:
		if n, err := strconv.Atoi(value); err != nil || n < 1 || n > 720 {
			return invalid("sla_hours must be between 1 and 720")
		}
	case model.SettingMaintenanceMode:
		if value != "true" && value != "false" {
			return invalid("maintenance_mode must be true or false")
		}
	default:
		return invalid("unknown setting %q", key)
	}
	return nil
}
