package extension

import (
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/xraph/grove"

	"github.com/xraph/feeledger"
	"github.com/xraph/feeledger/plugin"
	"github.com/xraph/feeledger/store"
)

// Option configures the feeledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB builds the store around db using the configured driver.
func WithGroveDB(db *grove.DB) Option {
	return func(e *Extension) {
		e.groveDB = db
	}
}

// WithFirebaseApp builds a Firestore store from app when the driver is
// "firestore".
func WithFirebaseApp(app *firebase.App) Option {
	return func(e *Extension) {
		e.firebaseApp = app
	}
}

// WithEngineOption passes a feeledger.Option through to the underlying engine.
func WithEngineOption(opt feeledger.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a feeledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, feeledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithCurrency sets the currency of new records.
func WithCurrency(currency string) Option {
	return func(e *Extension) { e.config.Currency = currency }
}

// WithTimezone sets the IANA zone used for calendar days.
func WithTimezone(name string) Option {
	return func(e *Extension) { e.config.Timezone = name }
}

// WithTrendMonths sets the default monthly trend window.
func WithTrendMonths(n int) Option {
	return func(e *Extension) { e.config.TrendMonths = n }
}

// WithPluginTimeout bounds every plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithDriver selects the grove store backend.
func WithDriver(driver string) Option {
	return func(e *Extension) { e.config.Driver = driver }
}

// WithFallbackSchedule enables the default quarterly schedule.
func WithFallbackSchedule() Option {
	return func(e *Extension) { e.config.UseFallbackSchedule = true }
}

// WithFirestoreStrict fails Firestore listings on malformed documents.
func WithFirestoreStrict() Option {
	return func(e *Extension) { e.config.FirestoreStrict = true }
}
