package driving

import "github.com/trita-a/ricerca/internal/core/domain"

// SettingsService manages persisted search settings.
type SettingsService interface {
	// Get retrieves the current settings.
	Get() (domain.Settings, error)

	// Save persists settings.
	Save(settings domain.Settings) error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings

	// Path returns where settings are stored.
	Path() string
}
