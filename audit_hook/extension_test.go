package audithook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/reconcile"
	"github.com/xraph/feeledger/types"
)

type memRecorder struct {
	events []*AuditEvent
	err    error
}

func (r *memRecorder) Record(_ context.Context, evt *AuditEvent) error {
	r.events = append(r.events, evt)
	return r.err
}

func TestExtensionEvents(t *testing.T) {
	ctx := context.Background()
	fs := &feestructure.FeeStructure{
		ID:             id.NewFeeStructureID(),
		ClassSectionID: "cs_10a",
		AcademicYear:   "2025",
		TotalAmount:    types.Major(40000, "inr"),
	}
	pay := &payment.Payment{
		ID:                id.NewPaymentID(),
		StudentID:         "u_asha",
		InstallmentNumber: 1,
		Amount:            types.Major(10000, "inr"),
	}

	tests := []struct {
		name         string
		emit         func(e *Extension) error
		action       string
		resource     string
		resourceID   string
		severity     string
		outcome      string
		wantMetadata map[string]any
	}{
		{
			name:       "fee structure created",
			emit:       func(e *Extension) error { return e.OnFeeStructureSaved(ctx, fs, true) },
			action:     ActionFeeStructureCreated,
			resource:   ResourceFeeStructure,
			resourceID: fs.ID.String(),
			severity:   SeverityInfo,
			outcome:    OutcomeSuccess,
			wantMetadata: map[string]any{
				"class_section_id": "cs_10a",
				"academic_year":    "2025",
				"total_amount":     "₹40000.00",
			},
		},
		{
			name:       "fee structure updated",
			emit:       func(e *Extension) error { return e.OnFeeStructureSaved(ctx, fs, false) },
			action:     ActionFeeStructureUpdated,
			resource:   ResourceFeeStructure,
			resourceID: fs.ID.String(),
			severity:   SeverityInfo,
			outcome:    OutcomeSuccess,
		},
		{
			name:       "fee structure deleted",
			emit:       func(e *Extension) error { return e.OnFeeStructureDeleted(ctx, fs.ID) },
			action:     ActionFeeStructureDeleted,
			resource:   ResourceFeeStructure,
			resourceID: fs.ID.String(),
			severity:   SeverityWarning,
			outcome:    OutcomeSuccess,
		},
		{
			name:       "payment recorded",
			emit:       func(e *Extension) error { return e.OnPaymentRecorded(ctx, pay) },
			action:     ActionPaymentRecorded,
			resource:   ResourcePayment,
			resourceID: pay.ID.String(),
			severity:   SeverityInfo,
			outcome:    OutcomeSuccess,
			wantMetadata: map[string]any{
				"student_id":  "u_asha",
				"installment": 1,
				"amount":      "₹10000.00",
			},
		},
		{
			name:       "payment deleted",
			emit:       func(e *Extension) error { return e.OnPaymentDeleted(ctx, pay.ID) },
			action:     ActionPaymentDeleted,
			resource:   ResourcePayment,
			resourceID: pay.ID.String(),
			severity:   SeverityWarning,
			outcome:    OutcomeSuccess,
		},
		{
			name: "duplicate payment anomaly",
			emit: func(e *Extension) error {
				return e.OnAnomalyDetected(ctx, reconcile.Anomaly{
					Kind:      reconcile.AnomalyDuplicatePayment,
					StudentID: "u_asha",
					KeptID:    "pay_a",
				})
			},
			action:       ActionAnomalyDetected,
			resource:     ResourceStudent,
			resourceID:   "u_asha",
			severity:     SeverityWarning,
			outcome:      OutcomeSuccess,
			wantMetadata: map[string]any{"kind": "duplicate_payment"},
		},
		{
			name: "duplicate fee structure anomaly",
			emit: func(e *Extension) error {
				return e.OnAnomalyDetected(ctx, reconcile.Anomaly{
					Kind:   reconcile.AnomalyDuplicateFeeStructure,
					KeptID: "fee_a",
				})
			},
			action:     ActionAnomalyDetected,
			resource:   ResourceFeeStructure,
			resourceID: "fee_a",
			severity:   SeverityWarning,
			outcome:    OutcomeSuccess,
		},
		{
			name:         "store error",
			emit:         func(e *Extension) error { return e.OnStoreError(ctx, "list payments", errors.New("timeout")) },
			action:       ActionStoreError,
			resource:     ResourceStore,
			severity:     SeverityError,
			outcome:      OutcomeFailure,
			wantMetadata: map[string]any{"op": "list payments", "error": "timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &memRecorder{}
			e := New(rec)

			if err := tt.emit(e); err != nil {
				t.Fatalf("hook returned %v", err)
			}
			if len(rec.events) != 1 {
				t.Fatalf("events: got %d, want 1", len(rec.events))
			}

			evt := rec.events[0]
			if evt.Action != tt.action {
				t.Errorf("Action: got %s, want %s", evt.Action, tt.action)
			}
			if evt.Resource != tt.resource {
				t.Errorf("Resource: got %s, want %s", evt.Resource, tt.resource)
			}
			if evt.ResourceID != tt.resourceID {
				t.Errorf("ResourceID: got %s, want %s", evt.ResourceID, tt.resourceID)
			}
			if evt.Severity != tt.severity {
				t.Errorf("Severity: got %s, want %s", evt.Severity, tt.severity)
			}
			if evt.Outcome != tt.outcome {
				t.Errorf("Outcome: got %s, want %s", evt.Outcome, tt.outcome)
			}
			for k, want := range tt.wantMetadata {
				if got := evt.Metadata[k]; got != want {
					t.Errorf("Metadata[%s]: got %v, want %v", k, got, want)
				}
			}
		})
	}
}

func TestActionFilters(t *testing.T) {
	ctx := context.Background()
	payID := id.NewPaymentID()

	tests := []struct {
		name string
		opts []Option
		want int
	}{
		{"all enabled", nil, 2},
		{"enabled subset", []Option{WithEnabledActions(ActionPaymentDeleted)}, 1},
		{"disabled", []Option{WithDisabledActions(ActionPaymentDeleted)}, 1},
		{"nothing enabled", []Option{WithEnabledActions()}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &memRecorder{}
			e := New(rec, tt.opts...)

			_ = e.OnPaymentDeleted(ctx, payID)
			_ = e.OnStoreError(ctx, "ping", errors.New("down"))

			if len(rec.events) != tt.want {
				t.Errorf("events: got %d, want %d", len(rec.events), tt.want)
			}
		})
	}
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	rec := &memRecorder{err: errors.New("audit backend down")}
	e := New(rec, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	if err := e.OnPaymentDeleted(context.Background(), id.NewPaymentID()); err != nil {
		t.Errorf("got %v, want nil", err)
	}
}

func TestRecorderFunc(t *testing.T) {
	var got string
	e := New(RecorderFunc(func(_ context.Context, evt *AuditEvent) error {
		got = evt.Action
		return nil
	}))

	_ = e.OnFeeStructureDeleted(context.Background(), id.NewFeeStructureID())
	if got != ActionFeeStructureDeleted {
		t.Errorf("got %q, want %q", got, ActionFeeStructureDeleted)
	}
}
