// Package extension provides the Forge extension adapter for feeledger.
//
// It implements the forge.Extension interface to integrate the fee ledger
// engine into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.feeledger" or
// "feeledger" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/feeledger"
	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/store"
	"github.com/xraph/feeledger/store/firestore"
	"github.com/xraph/feeledger/store/memory"
	"github.com/xraph/feeledger/store/mongo"
	"github.com/xraph/feeledger/store/postgres"
	"github.com/xraph/feeledger/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "feeledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "School fee ledger and reconciliation engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Store drivers accepted in Config.Driver.
const (
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
	DriverMongo     = "mongo"
	DriverFirestore = "firestore"
)

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts feeledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config      Config
	engine      *feeledger.Engine
	store       store.Store
	groveDB     *grove.DB
	firebaseApp *firebase.App
	engineOpts  []feeledger.Option
}

// New creates a new feeledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *feeledger.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.resolveStore(context.Background()); err != nil {
		return err
	}

	opts, err := e.buildEngineOpts()
	if err != nil {
		return err
	}

	e.engine = feeledger.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*feeledger.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("feeledger: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("feeledger: store not initialized")
	}
	return e.store.Ping(ctx)
}

// resolveStore picks the store: an explicit WithStore wins, then Firestore
// when the driver is "firestore", then a grove database wrapped by the
// configured driver, then the in-memory store.
func (e *Extension) resolveStore(ctx context.Context) error {
	if e.store != nil {
		return nil
	}
	if e.config.Driver == DriverFirestore {
		s, err := newFirestoreStore(ctx, e.firebaseApp, e.config)
		if err != nil {
			return err
		}
		e.store = s
		return nil
	}
	if e.groveDB == nil {
		e.Logger().Warn("feeledger: no store configured, using in-memory store")
		e.store = memory.New()
		return nil
	}

	s, err := newGroveStore(e.config.Driver, e.groveDB)
	if err != nil {
		return err
	}
	e.store = s
	return nil
}

func newFirestoreStore(ctx context.Context, app *firebase.App, cfg Config) (store.Store, error) {
	if app == nil {
		return nil, errors.New("feeledger: firestore driver requires WithFirebaseApp")
	}
	opts := []firestore.Option{firestore.WithCurrency(cfg.Currency)}
	if cfg.FirestoreStrict {
		opts = append(opts, firestore.WithStrict())
	}
	return firestore.NewFromApp(ctx, app, opts...)
}

func newGroveStore(driver string, db *grove.DB) (store.Store, error) {
	switch driver {
	case DriverPostgres, "pg", "":
		return postgres.New(db), nil
	case DriverSQLite:
		return sqlite.New(db), nil
	case DriverMongo, "mongodb":
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("feeledger: unknown store driver %q", driver)
	}
}

// buildEngineOpts constructs feeledger.Option values from the resolved config.
// Pass-through options come last so they override config values.
func (e *Extension) buildEngineOpts() ([]feeledger.Option, error) {
	loc, err := loadLocation(e.config.Timezone)
	if err != nil {
		return nil, err
	}

	opts := make([]feeledger.Option, 0, len(e.engineOpts)+6)
	opts = append(opts,
		feeledger.WithCurrency(e.config.Currency),
		feeledger.WithLocation(loc),
		feeledger.WithTrendMonths(e.config.TrendMonths),
		feeledger.WithPluginTimeout(e.config.PluginTimeout),
		feeledger.WithMigrateOnStart(!e.config.DisableMigrate),
	)
	if e.config.UseFallbackSchedule {
		opts = append(opts, feeledger.WithFallbackSchedule(feestructure.DefaultSchedule(e.config.Currency)))
	}

	return append(opts, e.engineOpts...), nil
}

func loadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("feeledger: timezone %q: %w", name, err)
	}
	return loc, nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("feeledger: configuration is required but not found in config files; " +
				"ensure 'extensions.feeledger' or 'feeledger' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("feeledger: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("currency", e.config.Currency),
		forge.F("timezone", e.config.Timezone),
		forge.F("trend_months", e.config.TrendMonths),
		forge.F("plugin_timeout", e.config.PluginTimeout),
		forge.F("driver", e.config.Driver),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.feeledger", "feeledger"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("feeledger: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("feeledger: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Currency == "" {
		cfg.Currency = defaults.Currency
	}
	if cfg.Timezone == "" {
		cfg.Timezone = defaults.Timezone
	}
	if cfg.TrendMonths <= 0 {
		cfg.TrendMonths = defaults.TrendMonths
	}
	if cfg.PluginTimeout <= 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	if cfg.Driver == "" {
		cfg.Driver = defaults.Driver
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps and
// programmatic bool flags override when true.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.UseFallbackSchedule {
		yamlConfig.UseFallbackSchedule = true
	}
	if programmaticConfig.FirestoreStrict {
		yamlConfig.FirestoreStrict = true
	}

	if yamlConfig.Currency == "" {
		yamlConfig.Currency = programmaticConfig.Currency
	}
	if yamlConfig.Timezone == "" {
		yamlConfig.Timezone = programmaticConfig.Timezone
	}
	if yamlConfig.Driver == "" {
		yamlConfig.Driver = programmaticConfig.Driver
	}
	if yamlConfig.TrendMonths == 0 {
		yamlConfig.TrendMonths = programmaticConfig.TrendMonths
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	return mergeWithDefaults(yamlConfig)
}
