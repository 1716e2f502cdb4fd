package driving

import "github.com/nutrigenie/nutrigenie-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings with defaults applied.
	// API keys are resolved from the environment.
	Get() (*domain.AppSettings, error)

	// Set stores a single setting by its config key after validating it.
	Set(key, value string) error

	// Validate checks that the current settings can start a chat session.
	Validate() error

	// GetDefaults returns the default settings.
	GetDefaults() domain.AppSettings
}
