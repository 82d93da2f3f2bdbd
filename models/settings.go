package models

import "time"

// Settings keys as stored in the settings table
const (
	SettingDefaultProvider = "default_provider"
	SettingLocale          = "locale"
)

// Settings holds the user's persisted preferences
type Settings struct {
	DefaultProvider string    `json:"default_provider"`
	Locale          string    `json:"locale"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewSettings returns settings with the given fallbacks
func NewSettings(defaultProvider, locale string) *Settings {
	return &Settings{
		DefaultProvider: defaultProvider,
		Locale:          locale,
	}
}

// Values flattens the settings into key/value rows
func (s *Settings) Values() map[string]string {
	return map[string]string{
		SettingDefaultProvider: s.DefaultProvider,
		SettingLocale:          s.Locale,
	}
}

// Apply sets a stored key/value row; unknown keys are ignored
func (s *Settings) Apply(key, value string) {
	switch key {
	case SettingDefaultProvider:
		s.DefaultProvider = value
	case SettingLocale:
		s.Locale = value
	}
}
