package feeledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/reconcile"
	"github.com/xraph/feeledger/student"
	"github.com/xraph/feeledger/types"
)

// ──────────────────────────────────────────────────
// Fee Structures
// ──────────────────────────────────────────────────

// SaveFeeStructure validates and upserts a fee structure.
//
// The installments must add up to the total exactly; any violation is
// returned as a *ValidationError listing every offending field and nothing is
// written. A structure with an ID updates that record. A structure without
// one updates the existing structure of the same class section and academic
// year if there is one, and is created otherwise. Saving a second structure
// for a (class section, academic year) pair under a different ID is rejected,
// and so is a structure in a currency other than the ledger's.
func (e *Engine) SaveFeeStructure(ctx context.Context, fs *feestructure.FeeStructure) error {
	fs.ClassSectionID = strings.TrimSpace(fs.ClassSectionID)
	fs.AcademicYear = strings.TrimSpace(fs.AcademicYear)
	fs.Normalize(e.currency)

	issues := fs.Validate()
	if fs.Currency != e.currency {
		issues = append(issues, Issue{
			Field:   "currency",
			Message: fmt.Sprintf("currency %q does not match ledger currency %q", fs.Currency, e.currency),
		})
	}
	if err := NewValidationError(issues); err != nil {
		return err
	}

	existing, err := e.store.ListFeeStructures(ctx, feestructure.ListOpts{
		ClassSectionID: fs.ClassSectionID,
		AcademicYear:   fs.AcademicYear,
	})
	if err != nil {
		return e.storeError(ctx, "list fee structures", err)
	}

	now := e.clock.Now()
	created := false

	switch {
	case !fs.ID.IsNil():
		for _, other := range existing {
			if other.ID != fs.ID {
				return NewValidationError([]Issue{{
					Field: "academic_year",
					Message: fmt.Sprintf("fee structure %s already exists for class section %s, academic year %s",
						other.ID, fs.ClassSectionID, fs.AcademicYear),
				}})
			}
		}
		prev, err := e.store.GetFeeStructure(ctx, fs.ID)
		if err != nil {
			return e.storeError(ctx, "get fee structure", err)
		}
		fs.CreatedAt = prev.CreatedAt
		fs.Touch(now)
		if err := e.store.UpdateFeeStructure(ctx, fs); err != nil {
			return e.storeError(ctx, "update fee structure", err)
		}

	case len(existing) > 0:
		prev, _ := reconcile.ResolveStructure(existing, fs.ClassSectionID, fs.AcademicYear)
		fs.ID = prev.ID
		fs.CreatedAt = prev.CreatedAt
		fs.Touch(now)
		if err := e.store.UpdateFeeStructure(ctx, fs); err != nil {
			return e.storeError(ctx, "update fee structure", err)
		}

	default:
		fs.ID = id.NewFeeStructureID()
		fs.Entity = types.NewEntity(now)
		if err := e.store.CreateFeeStructure(ctx, fs); err != nil {
			return e.storeError(ctx, "create fee structure", err)
		}
		created = true
	}

	e.logger.Info("fee structure saved",
		"fee_structure_id", fs.ID.String(),
		"class_section_id", fs.ClassSectionID,
		"academic_year", fs.AcademicYear,
		"total", fs.TotalAmount.String(),
		"installments", len(fs.Installments),
		"created", created,
	)

	e.plugins.EmitFeeStructureSaved(ctx, fs, created)
	return nil
}

// FindFeeStructure returns the structure that applies to a class section in
// an academic year. An empty academicYear selects the most recent year.
// Duplicate structures are resolved deterministically and reported to
// plugins; ErrFeeStructureNotFound is returned when none exists.
func (e *Engine) FindFeeStructure(ctx context.Context, classSectionID, academicYear string) (*feestructure.FeeStructure, error) {
	classSectionID = strings.TrimSpace(classSectionID)
	if classSectionID == "" {
		return nil, NewValidationError([]Issue{{Field: "class_section_id", Message: "is required"}})
	}

	fs, anomalies, err := e.resolveStructure(ctx, classSectionID, strings.TrimSpace(academicYear))
	if err != nil {
		return nil, err
	}
	e.reportAnomalies(ctx, anomalies)

	if fs == nil {
		return nil, ErrFeeStructureNotFound
	}
	return fs, nil
}

// GetFeeStructure retrieves a fee structure by ID.
func (e *Engine) GetFeeStructure(ctx context.Context, fsID id.FeeStructureID) (*feestructure.FeeStructure, error) {
	fs, err := e.store.GetFeeStructure(ctx, fsID)
	if err != nil {
		return nil, e.storeError(ctx, "get fee structure", err)
	}
	return fs, nil
}

// ListFeeStructures lists fee structures, most recent academic year first.
func (e *Engine) ListFeeStructures(ctx context.Context, opts feestructure.ListOpts) ([]*feestructure.FeeStructure, error) {
	list, err := e.store.ListFeeStructures(ctx, opts)
	if err != nil {
		return nil, e.storeError(ctx, "list fee structures", err)
	}
	return list, nil
}

// DeleteFeeStructure removes a fee structure. Payments are left untouched;
// statements of the affected students fall back to no schedule.
func (e *Engine) DeleteFeeStructure(ctx context.Context, fsID id.FeeStructureID) error {
	if err := e.store.DeleteFeeStructure(ctx, fsID); err != nil {
		return e.storeError(ctx, "delete fee structure", err)
	}

	e.logger.Info("fee structure deleted", "fee_structure_id", fsID.String())
	e.plugins.EmitFeeStructureDeleted(ctx, fsID)
	return nil
}

func (e *Engine) resolveStructure(ctx context.Context, classSectionID, academicYear string) (*feestructure.FeeStructure, []reconcile.Anomaly, error) {
	candidates, err := e.store.ListFeeStructures(ctx, feestructure.ListOpts{
		ClassSectionID: classSectionID,
		AcademicYear:   academicYear,
	})
	if err != nil {
		return nil, nil, e.storeError(ctx, "list fee structures", err)
	}

	fs, anomalies := reconcile.ResolveStructure(candidates, classSectionID, academicYear)
	return fs, anomalies, nil
}

// ──────────────────────────────────────────────────
// Payments
// ──────────────────────────────────────────────────

// RecordPayment appends a payment to the ledger.
//
// Only the shape of the input is checked: a student ID, a positive
// installment number, a positive amount and a payment date. The fee
// structure is not consulted, so over-payments, payments for installments
// that do not exist and second payments for the same installment are all
// accepted; reconciliation reports the latter as anomalies. The amount must
// be in the ledger currency so every recorded payment is counted by
// reconciliation and aggregation. Registered PaymentValidator plugins may
// still reject a payment.
func (e *Engine) RecordPayment(ctx context.Context, in payment.Input) (*payment.Payment, error) {
	in.Normalize(e.currency)
	issues := in.Validate()
	if in.Amount.Currency != e.currency {
		issues = append(issues, Issue{
			Field:   "amount",
			Message: fmt.Sprintf("currency %q does not match ledger currency %q", in.Amount.Currency, e.currency),
		})
	}
	if err := NewValidationError(issues); err != nil {
		return nil, err
	}

	st, err := e.store.GetStudent(ctx, in.StudentID)
	if err != nil {
		return nil, e.storeError(ctx, "get student", err)
	}

	p := &payment.Payment{
		Entity:            types.NewEntity(e.clock.Now()),
		ID:                id.NewPaymentID(),
		StudentID:         st.ID,
		StudentName:       st.Name,
		ClassSectionID:    st.ClassSectionID,
		ClassSectionName:  st.ClassSectionName,
		InstallmentNumber: in.InstallmentNumber,
		Amount:            in.Amount,
		PaymentDate:       in.PaymentDate,
	}

	if err := e.plugins.ValidatePayment(ctx, p); err != nil {
		return nil, NewValidationError([]Issue{{Message: err.Error()}})
	}

	if err := e.store.CreatePayment(ctx, p); err != nil {
		return nil, e.storeError(ctx, "create payment", err)
	}

	e.logger.Info("payment recorded",
		"payment_id", p.ID.String(),
		"student_id", p.StudentID,
		"installment", p.InstallmentNumber,
		"amount", p.Amount.String(),
	)

	e.plugins.EmitPaymentRecorded(ctx, p)
	return p, nil
}

// GetPayment retrieves a payment by ID.
func (e *Engine) GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Payment, error) {
	p, err := e.store.GetPayment(ctx, payID)
	if err != nil {
		return nil, e.storeError(ctx, "get payment", err)
	}
	return p, nil
}

// ListPayments lists payments, newest payment date first.
func (e *Engine) ListPayments(ctx context.Context, opts payment.ListOpts) ([]*payment.Payment, error) {
	list, err := e.store.ListPayments(ctx, opts)
	if err != nil {
		return nil, e.storeError(ctx, "list payments", err)
	}
	return list, nil
}

// DeletePayment permanently removes a payment.
func (e *Engine) DeletePayment(ctx context.Context, payID id.PaymentID) error {
	if err := e.store.DeletePayment(ctx, payID); err != nil {
		return e.storeError(ctx, "delete payment", err)
	}

	e.logger.Info("payment deleted", "payment_id", payID.String())
	e.plugins.EmitPaymentDeleted(ctx, payID)
	return nil
}

// ──────────────────────────────────────────────────
// Students
// ──────────────────────────────────────────────────

// GetStudent retrieves a student by ID.
func (e *Engine) GetStudent(ctx context.Context, studentID string) (*student.Student, error) {
	st, err := e.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, e.storeError(ctx, "get student", err)
	}
	return st, nil
}

// ListStudents lists students ordered by name.
func (e *Engine) ListStudents(ctx context.Context, opts student.ListOpts) ([]*student.Student, error) {
	list, err := e.store.ListStudents(ctx, opts)
	if err != nil {
		return nil, e.storeError(ctx, "list students", err)
	}
	student.SortByName(list)
	return list, nil
}

// SearchStudents returns the students whose name, class section, serial
// number or roll number contains query, ignoring case.
func (e *Engine) SearchStudents(ctx context.Context, query string) ([]*student.Student, error) {
	all, err := e.ListStudents(ctx, student.ListOpts{})
	if err != nil {
		return nil, err
	}

	out := make([]*student.Student, 0, len(all))
	for _, st := range all {
		if st.Matches(query) {
			out = append(out, st)
		}
	}
	return out, nil
}
