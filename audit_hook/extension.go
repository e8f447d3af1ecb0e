// Package audithook bridges feeledger events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any audit system directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/plugin"
	"github.com/xraph/feeledger/reconcile"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnFeeStructureSaved   = (*Extension)(nil)
	_ plugin.OnFeeStructureDeleted = (*Extension)(nil)
	_ plugin.OnPaymentRecorded     = (*Extension)(nil)
	_ plugin.OnPaymentDeleted      = (*Extension)(nil)
	_ plugin.OnAnomalyDetected     = (*Extension)(nil)
	_ plugin.OnStoreError          = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one entry of the audit trail.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension records fee structure changes, payments, anomalies and store
// failures as audit events.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Fee structure hooks
// ──────────────────────────────────────────────────

// OnFeeStructureSaved implements plugin.OnFeeStructureSaved.
func (e *Extension) OnFeeStructureSaved(ctx context.Context, fs *feestructure.FeeStructure, created bool) error {
	action := ActionFeeStructureUpdated
	if created {
		action = ActionFeeStructureCreated
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceFeeStructure, fs.ID.String(), CategoryFees, nil,
		"class_section_id", fs.ClassSectionID,
		"academic_year", fs.AcademicYear,
		"total_amount", fs.TotalAmount.String(),
		"installments", len(fs.Installments),
	)
}

// OnFeeStructureDeleted implements plugin.OnFeeStructureDeleted.
func (e *Extension) OnFeeStructureDeleted(ctx context.Context, fsID id.FeeStructureID) error {
	return e.record(ctx, ActionFeeStructureDeleted, SeverityWarning, OutcomeSuccess,
		ResourceFeeStructure, fsID.String(), CategoryFees, nil,
	)
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (e *Extension) OnPaymentRecorded(ctx context.Context, p *payment.Payment) error {
	return e.record(ctx, ActionPaymentRecorded, SeverityInfo, OutcomeSuccess,
		ResourcePayment, p.ID.String(), CategoryPayment, nil,
		"student_id", p.StudentID,
		"class_section_id", p.ClassSectionID,
		"installment", p.InstallmentNumber,
		"amount", p.Amount.String(),
		"payment_date", p.PaymentDate,
	)
}

// OnPaymentDeleted implements plugin.OnPaymentDeleted. Deleting a payment
// changes a student's balance, so it is recorded as a warning.
func (e *Extension) OnPaymentDeleted(ctx context.Context, payID id.PaymentID) error {
	return e.record(ctx, ActionPaymentDeleted, SeverityWarning, OutcomeSuccess,
		ResourcePayment, payID.String(), CategoryPayment, nil,
	)
}

// ──────────────────────────────────────────────────
// Reconciliation and storage hooks
// ──────────────────────────────────────────────────

// OnAnomalyDetected implements plugin.OnAnomalyDetected.
func (e *Extension) OnAnomalyDetected(ctx context.Context, a reconcile.Anomaly) error {
	resource, resourceID := ResourceStudent, a.StudentID
	if a.Kind == reconcile.AnomalyDuplicateFeeStructure {
		resource, resourceID = ResourceFeeStructure, a.KeptID
	}
	return e.record(ctx, ActionAnomalyDetected, SeverityWarning, OutcomeSuccess,
		resource, resourceID, CategoryReconciliation, nil,
		"kind", string(a.Kind),
		"class_section_id", a.ClassSectionID,
		"installment", a.InstallmentNumber,
		"kept_id", a.KeptID,
		"ignored_ids", a.IgnoredIDs,
		"message", a.Message,
	)
}

// OnStoreError implements plugin.OnStoreError.
func (e *Extension) OnStoreError(ctx context.Context, op string, err error) error {
	return e.record(ctx, ActionStoreError, SeverityError, OutcomeFailure,
		ResourceStore, "", CategorySystem, err,
		"op", op,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
