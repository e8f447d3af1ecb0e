// Package observability provides a metrics extension for feeledger that
// records fee and payment activity through a MetricFactory.
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/plugin"
	"github.com/xraph/feeledger/reconcile"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnFeeStructureSaved   = (*MetricsExtension)(nil)
	_ plugin.OnFeeStructureDeleted = (*MetricsExtension)(nil)
	_ plugin.OnPaymentRecorded     = (*MetricsExtension)(nil)
	_ plugin.OnPaymentDeleted      = (*MetricsExtension)(nil)
	_ plugin.OnStatementReconciled = (*MetricsExtension)(nil)
	_ plugin.OnAnomalyDetected     = (*MetricsExtension)(nil)
	_ plugin.OnStoreError          = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records fee ledger metrics.
// Register it as a feeledger plugin to track collections automatically.
type MetricsExtension struct {
	factory MetricFactory

	// Fee structure metrics
	FeeStructureCreated Counter
	FeeStructureUpdated Counter
	FeeStructureDeleted Counter

	// Payment metrics
	PaymentRecorded Counter
	PaymentDeleted  Counter
	PaymentAmount   Histogram

	// Reconciliation metrics
	StatementsReconciled Counter
	StatementsOverdue    Counter
	ReconcileLatency     Histogram

	// Error metrics
	StoreErrors Counter

	mu        sync.Mutex
	anomalies map[reconcile.AnomalyKind]Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		FeeStructureCreated: factory.Counter("feeledger.fee_structure.created"),
		FeeStructureUpdated: factory.Counter("feeledger.fee_structure.updated"),
		FeeStructureDeleted: factory.Counter("feeledger.fee_structure.deleted"),

		PaymentRecorded: factory.Counter("feeledger.payment.recorded"),
		PaymentDeleted:  factory.Counter("feeledger.payment.deleted"),
		PaymentAmount:   factory.Histogram("feeledger.payment.amount"),

		StatementsReconciled: factory.Counter("feeledger.statement.reconciled"),
		StatementsOverdue:    factory.Counter("feeledger.statement.overdue"),
		ReconcileLatency:     factory.Histogram("feeledger.statement.latency_ms"),

		StoreErrors: factory.Counter("feeledger.store.errors"),

		anomalies: make(map[reconcile.AnomalyKind]Counter),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Fee structure hooks
// ──────────────────────────────────────────────────

// OnFeeStructureSaved implements plugin.OnFeeStructureSaved.
func (m *MetricsExtension) OnFeeStructureSaved(_ context.Context, _ *feestructure.FeeStructure, created bool) error {
	if created {
		m.FeeStructureCreated.Inc()
	} else {
		m.FeeStructureUpdated.Inc()
	}
	return nil
}

// OnFeeStructureDeleted implements plugin.OnFeeStructureDeleted.
func (m *MetricsExtension) OnFeeStructureDeleted(_ context.Context, _ id.FeeStructureID) error {
	m.FeeStructureDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded implements plugin.OnPaymentRecorded. Amounts are
// observed in major units.
func (m *MetricsExtension) OnPaymentRecorded(_ context.Context, p *payment.Payment) error {
	m.PaymentRecorded.Inc()
	m.PaymentAmount.Observe(p.Amount.Decimal().InexactFloat64())
	return nil
}

// OnPaymentDeleted implements plugin.OnPaymentDeleted.
func (m *MetricsExtension) OnPaymentDeleted(_ context.Context, _ id.PaymentID) error {
	m.PaymentDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Reconciliation hooks
// ──────────────────────────────────────────────────

// OnStatementReconciled implements plugin.OnStatementReconciled.
func (m *MetricsExtension) OnStatementReconciled(_ context.Context, st *reconcile.Statement, elapsed time.Duration) error {
	m.StatementsReconciled.Inc()
	m.ReconcileLatency.Observe(float64(elapsed.Milliseconds()))
	for _, inst := range st.Installments {
		if inst.Overdue {
			m.StatementsOverdue.Inc()
			break
		}
	}
	return nil
}

// OnAnomalyDetected implements plugin.OnAnomalyDetected.
func (m *MetricsExtension) OnAnomalyDetected(_ context.Context, a reconcile.Anomaly) error {
	m.anomalyCounter(a.Kind).Inc()
	return nil
}

// OnStoreError implements plugin.OnStoreError.
func (m *MetricsExtension) OnStoreError(_ context.Context, _ string, _ error) error {
	m.StoreErrors.Inc()
	return nil
}

// anomalyCounter returns the counter of one anomaly kind, creating it on
// first use.
func (m *MetricsExtension) anomalyCounter(kind reconcile.AnomalyKind) Counter {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.anomalies[kind]
	if !ok {
		c = m.factory.Counter("feeledger.anomaly." + string(kind))
		m.anomalies[kind] = c
	}
	return c
}
