package extension

import "time"

// Config holds the feeledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.feeledger" or "feeledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Currency is the currency of new records (default: "inr").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// Timezone is the IANA zone whose calendar defines days and months for
	// aggregation and overdue checks (default: "Local").
	Timezone string `json:"timezone" mapstructure:"timezone" yaml:"timezone"`

	// TrendMonths is the default window of the monthly trend (default: 6).
	TrendMonths int `json:"trend_months" mapstructure:"trend_months" yaml:"trend_months"`

	// PluginTimeout bounds every plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// Driver selects the store backend: "postgres", "sqlite" or "mongo"
	// around a grove.DB passed with WithGroveDB, or "firestore" around a
	// Firebase app passed with WithFirebaseApp (default: "postgres").
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// FirestoreStrict fails listings that meet a malformed document instead
	// of skipping it.
	FirestoreStrict bool `json:"firestore_strict" mapstructure:"firestore_strict" yaml:"firestore_strict"`

	// UseFallbackSchedule reconciles students without a fee structure
	// against the default quarterly schedule.
	UseFallbackSchedule bool `json:"use_fallback_schedule" mapstructure:"use_fallback_schedule" yaml:"use_fallback_schedule"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Currency:      "inr",
		Timezone:      "Local",
		TrendMonths:   6,
		PluginTimeout: 5 * time.Second,
		Driver:        DriverPostgres,
	}
}
