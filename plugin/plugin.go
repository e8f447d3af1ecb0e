// Package plugin provides an extensible plugin system for feeledger.
// Plugins can hook into fee structure, payment and reconciliation events.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/reconcile"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. engine is the *feeledger.Engine.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Fee structure hooks
// ──────────────────────────────────────────────────

// OnFeeStructureSaved is called after a fee structure is created or updated.
type OnFeeStructureSaved interface {
	Plugin
	OnFeeStructureSaved(ctx context.Context, fs *feestructure.FeeStructure, created bool) error
}

// OnFeeStructureDeleted is called after a fee structure is deleted.
type OnFeeStructureDeleted interface {
	Plugin
	OnFeeStructureDeleted(ctx context.Context, fsID id.FeeStructureID) error
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded is called after a payment is recorded.
type OnPaymentRecorded interface {
	Plugin
	OnPaymentRecorded(ctx context.Context, p *payment.Payment) error
}

// OnPaymentDeleted is called after a payment is deleted.
type OnPaymentDeleted interface {
	Plugin
	OnPaymentDeleted(ctx context.Context, payID id.PaymentID) error
}

// PaymentValidator applies business rules before a payment is recorded.
// Returning an error rejects the payment. The engine itself only checks
// that the input is well-typed.
type PaymentValidator interface {
	Plugin
	ValidatePayment(ctx context.Context, p *payment.Payment) error
}

// ──────────────────────────────────────────────────
// Reconciliation hooks
// ──────────────────────────────────────────────────

// OnStatementReconciled is called after a student statement is computed.
type OnStatementReconciled interface {
	Plugin
	OnStatementReconciled(ctx context.Context, st *reconcile.Statement, elapsed time.Duration) error
}

// OnAnomalyDetected is called once per anomaly found while reconciling.
type OnAnomalyDetected interface {
	Plugin
	OnAnomalyDetected(ctx context.Context, a reconcile.Anomaly) error
}

// ──────────────────────────────────────────────────
// Store hooks
// ──────────────────────────────────────────────────

// OnStoreError is called when a store operation fails with anything other
// than a not-found error.
type OnStoreError interface {
	Plugin
	OnStoreError(ctx context.Context, op string, err error) error
}
