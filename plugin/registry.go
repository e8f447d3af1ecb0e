package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/reconcile"
)

// DefaultTimeout bounds a single plugin call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It caches each plugin's hook interfaces at registration time.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onFeeStructureSaved   []OnFeeStructureSaved
	onFeeStructureDeleted []OnFeeStructureDeleted
	onPaymentRecorded     []OnPaymentRecorded
	onPaymentDeleted      []OnPaymentDeleted
	paymentValidators     []PaymentValidator
	onStatementReconciled []OnStatementReconciled
	onAnomalyDetected     []OnAnomalyDetected
	onStoreError          []OnStoreError
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call plugin timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnFeeStructureSaved); ok {
		r.onFeeStructureSaved = append(r.onFeeStructureSaved, v)
	}
	if v, ok := p.(OnFeeStructureDeleted); ok {
		r.onFeeStructureDeleted = append(r.onFeeStructureDeleted, v)
	}
	if v, ok := p.(OnPaymentRecorded); ok {
		r.onPaymentRecorded = append(r.onPaymentRecorded, v)
	}
	if v, ok := p.(OnPaymentDeleted); ok {
		r.onPaymentDeleted = append(r.onPaymentDeleted, v)
	}
	if v, ok := p.(PaymentValidator); ok {
		r.paymentValidators = append(r.paymentValidators, v)
	}
	if v, ok := p.(OnStatementReconciled); ok {
		r.onStatementReconciled = append(r.onStatementReconciled, v)
	}
	if v, ok := p.(OnAnomalyDetected); ok {
		r.onAnomalyDetected = append(r.onAnomalyDetected, v)
	}
	if v, ok := p.(OnStoreError); ok {
		r.onStoreError = append(r.onStoreError, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnFeeStructureSaved", reflect.TypeOf((*OnFeeStructureSaved)(nil)).Elem()},
	{"OnFeeStructureDeleted", reflect.TypeOf((*OnFeeStructureDeleted)(nil)).Elem()},
	{"OnPaymentRecorded", reflect.TypeOf((*OnPaymentRecorded)(nil)).Elem()},
	{"OnPaymentDeleted", reflect.TypeOf((*OnPaymentDeleted)(nil)).Elem()},
	{"PaymentValidator", reflect.TypeOf((*PaymentValidator)(nil)).Elem()},
	{"OnStatementReconciled", reflect.TypeOf((*OnStatementReconciled)(nil)).Elem()},
	{"OnAnomalyDetected", reflect.TypeOf((*OnAnomalyDetected)(nil)).Elem()},
	{"OnStoreError", reflect.TypeOf((*OnStoreError)(nil)).Elem()},
}

// implementedInterfaces returns the names of the hooks p implements.
func implementedInterfaces(p Plugin) []string {
	var names []string
	t := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if t.Implements(h.typ) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnInit", func() error {
			return p.OnInit(ctx, engine)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnShutdown", func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitFeeStructureSaved emits a fee structure saved event.
func (r *Registry) EmitFeeStructureSaved(ctx context.Context, fs *feestructure.FeeStructure, created bool) {
	r.mu.RLock()
	plugins := r.onFeeStructureSaved
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnFeeStructureSaved", func() error {
			return p.OnFeeStructureSaved(ctx, fs, created)
		})
	}
}

// EmitFeeStructureDeleted emits a fee structure deleted event.
func (r *Registry) EmitFeeStructureDeleted(ctx context.Context, fsID id.FeeStructureID) {
	r.mu.RLock()
	plugins := r.onFeeStructureDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnFeeStructureDeleted", func() error {
			return p.OnFeeStructureDeleted(ctx, fsID)
		})
	}
}

// EmitPaymentRecorded emits a payment recorded event.
func (r *Registry) EmitPaymentRecorded(ctx context.Context, pay *payment.Payment) {
	r.mu.RLock()
	plugins := r.onPaymentRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPaymentRecorded", func() error {
			return p.OnPaymentRecorded(ctx, pay)
		})
	}
}

// EmitPaymentDeleted emits a payment deleted event.
func (r *Registry) EmitPaymentDeleted(ctx context.Context, payID id.PaymentID) {
	r.mu.RLock()
	plugins := r.onPaymentDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPaymentDeleted", func() error {
			return p.OnPaymentDeleted(ctx, payID)
		})
	}
}

// ValidatePayment runs every PaymentValidator and joins their rejections.
// Unlike the Emit methods, failures are returned rather than logged.
func (r *Registry) ValidatePayment(ctx context.Context, pay *payment.Payment) error {
	r.mu.RLock()
	validators := r.paymentValidators
	r.mu.RUnlock()

	var errs []error
	for _, v := range validators {
		if err := r.callWithTimeout(ctx, v.Name(), func() error {
			return v.ValidatePayment(ctx, pay)
		}); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// EmitStatementReconciled emits a statement reconciled event.
func (r *Registry) EmitStatementReconciled(ctx context.Context, st *reconcile.Statement, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onStatementReconciled
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnStatementReconciled", func() error {
			return p.OnStatementReconciled(ctx, st, elapsed)
		})
	}
}

// EmitAnomalyDetected emits an anomaly detected event.
func (r *Registry) EmitAnomalyDetected(ctx context.Context, a reconcile.Anomaly) {
	r.mu.RLock()
	plugins := r.onAnomalyDetected
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnAnomalyDetected", func() error {
			return p.OnAnomalyDetected(ctx, a)
		})
	}
}

// EmitStoreError emits a store error event.
func (r *Registry) EmitStoreError(ctx context.Context, op string, storeErr error) {
	r.mu.RLock()
	plugins := r.onStoreError
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnStoreError", func() error {
			return p.OnStoreError(ctx, op, storeErr)
		})
	}
}

func (r *Registry) dispatch(ctx context.Context, pluginName, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins must never block a payment or reconciliation.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
