package feeledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/xraph/feeledger/aggregate"
	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/plugin"
	"github.com/xraph/feeledger/store"
	"github.com/xraph/feeledger/types"
)

// Engine is the fee ledger. It owns no data: every call reads from or writes
// to the injected store, and derived views are computed on a point-in-time
// snapshot of what the store returned.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   clock.Clock

	// Configuration
	location       *time.Location
	currency       string
	trendMonths    int
	fallback       *feestructure.FeeStructure
	migrateOnStart bool
}

// New creates a new Engine over s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:          s,
		plugins:        plugin.NewRegistry(),
		logger:         slog.Default(),
		clock:          clock.New(),
		location:       time.Local,
		currency:       types.DefaultCurrency,
		trendMonths:    aggregate.DefaultTrendMonths,
		migrateOnStart: true,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.plugins.WithTimeout(d)
	}
}

// WithClock sets the clock used for record timestamps and "today".
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLocation sets the location whose calendar days and months are used
// for daily totals, monthly trends and overdue checks.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

// WithCurrency sets the currency assumed when an input does not name one.
func WithCurrency(currency string) Option {
	return func(e *Engine) {
		if currency != "" {
			e.currency = strings.ToLower(currency)
		}
	}
}

// WithTrendMonths sets how many months MonthlyTrend returns by default.
func WithTrendMonths(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.trendMonths = n
		}
	}
}

// WithFallbackSchedule sets the schedule statements are computed against
// when a student's class section has no fee structure. Such statements are
// flagged reconcile.ScheduleFallback.
func WithFallbackSchedule(fs *feestructure.FeeStructure) Option {
	return func(e *Engine) {
		e.fallback = fs
	}
}

// WithMigrateOnStart controls whether Start runs store migrations.
func WithMigrateOnStart(migrate bool) Option {
	return func(e *Engine) {
		e.migrateOnStart = migrate
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if e.migrateOnStart {
		if err := e.store.Migrate(ctx); err != nil {
			return e.storeError(ctx, "migrate", err)
		}
	}

	if err := e.store.Ping(ctx); err != nil {
		return e.storeError(ctx, "ping", err)
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("feeledger started",
		"currency", e.currency,
		"location", e.location.String(),
		"trend_months", e.trendMonths,
		"fallback_schedule", e.fallback != nil,
		"plugins", e.plugins.Count(),
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Location returns the location calendar days are computed in.
func (e *Engine) Location() *time.Location { return e.location }

// Currency returns the default currency.
func (e *Engine) Currency() string { return e.currency }

// Now returns the current time of the engine clock.
func (e *Engine) Now() time.Time { return e.clock.Now() }

// today returns the current calendar day in the engine location.
func (e *Engine) today() types.Date {
	return types.DateOf(e.clock.Now().In(e.location))
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// storeError passes not-found, validation and malformed-record errors
// through unchanged and marks everything else as ErrStoreUnavailable. Store
// failures are logged and reported to plugins; they are never retried.
func (e *Engine) storeError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) || IsValidation(err) || errors.Is(err, ErrAlreadyExists) {
		return err
	}
	if errors.Is(err, ErrMalformedRecord) {
		e.logger.Warn("feeledger: malformed record",
			"op", op,
			"error", err,
		)
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if !IsStoreUnavailable(err) {
		err = fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
	}

	e.logger.Error("feeledger: store operation failed",
		"op", op,
		"error", err,
	)
	e.plugins.EmitStoreError(ctx, op, err)

	return err
}
