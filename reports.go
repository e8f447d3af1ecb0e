package feeledger

import (
	"context"
	"strings"

	"github.com/xraph/feeledger/aggregate"
	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/reconcile"
	"github.com/xraph/feeledger/student"
	"github.com/xraph/feeledger/types"
)

// ──────────────────────────────────────────────────
// Reconciliation
// ──────────────────────────────────────────────────

// Reconcile computes the fee statement of one student for an academic year.
// An empty academicYear uses the most recent year of the student's class
// section.
//
// A missing student is ErrStudentNotFound. A missing fee structure is not an
// error: the statement is flagged reconcile.ScheduleNone, or
// reconcile.ScheduleFallback when a fallback schedule is configured.
// Anomalies are attached to the statement and reported to plugins.
func (e *Engine) Reconcile(ctx context.Context, studentID, academicYear string) (*reconcile.Statement, error) {
	start := e.clock.Now()

	st, err := e.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, e.storeError(ctx, "get student", err)
	}

	var (
		fs        *feestructure.FeeStructure
		anomalies []reconcile.Anomaly
	)
	if st.ClassSectionID != "" {
		fs, anomalies, err = e.resolveStructure(ctx, st.ClassSectionID, strings.TrimSpace(academicYear))
		if err != nil {
			return nil, err
		}
	}

	payments, err := e.store.ListPayments(ctx, payment.ListOpts{StudentID: st.ID})
	if err != nil {
		return nil, e.storeError(ctx, "list payments", err)
	}

	stmt := e.statement(st, fs, payments, anomalies)

	e.logger.Debug("statement reconciled",
		"student_id", st.ID,
		"schedule", string(stmt.Schedule),
		"total_paid", stmt.TotalPaid.String(),
		"balance", stmt.Balance.String(),
		"anomalies", len(stmt.Anomalies),
	)

	e.reportAnomalies(ctx, stmt.Anomalies)
	e.plugins.EmitStatementReconciled(ctx, stmt, e.clock.Since(start))

	return stmt, nil
}

// ReconcileClass computes statements for every student of a class section,
// or of the whole school when classSectionID is empty, ordered by student
// name. All statements are computed from a single load of structures and
// payments.
func (e *Engine) ReconcileClass(ctx context.Context, classSectionID, academicYear string) ([]*reconcile.Statement, error) {
	start := e.clock.Now()
	academicYear = strings.TrimSpace(academicYear)

	students, err := e.store.ListStudents(ctx, student.ListOpts{ClassSectionID: classSectionID})
	if err != nil {
		return nil, e.storeError(ctx, "list students", err)
	}
	student.SortByName(students)

	structures, err := e.store.ListFeeStructures(ctx, feestructure.ListOpts{
		ClassSectionID: classSectionID,
		AcademicYear:   academicYear,
	})
	if err != nil {
		return nil, e.storeError(ctx, "list fee structures", err)
	}

	// Payments carry the class section at record time; students may have
	// moved since, so group all payments by student instead of filtering.
	payments, err := e.store.ListPayments(ctx, payment.ListOpts{})
	if err != nil {
		return nil, e.storeError(ctx, "list payments", err)
	}
	byStudent := make(map[string][]*payment.Payment)
	for _, p := range payments {
		byStudent[p.StudentID] = append(byStudent[p.StudentID], p)
	}

	type resolved struct {
		fs        *feestructure.FeeStructure
		anomalies []reconcile.Anomaly
	}
	byClass := make(map[string]resolved)

	out := make([]*reconcile.Statement, 0, len(students))
	var anomalies []reconcile.Anomaly
	for _, st := range students {
		r, ok := byClass[st.ClassSectionID]
		if !ok && st.ClassSectionID != "" {
			r.fs, r.anomalies = reconcile.ResolveStructure(structures, st.ClassSectionID, academicYear)
			byClass[st.ClassSectionID] = r
			anomalies = append(anomalies, r.anomalies...)
		}

		stmt := e.statement(st, r.fs, byStudent[st.ID], nil)
		anomalies = append(anomalies, stmt.Anomalies...)
		stmt.Anomalies = append(append([]reconcile.Anomaly(nil), r.anomalies...), stmt.Anomalies...)
		out = append(out, stmt)
	}

	e.logger.Debug("class reconciled",
		"class_section_id", classSectionID,
		"academic_year", academicYear,
		"students", len(out),
		"anomalies", len(anomalies),
	)

	e.reportAnomalies(ctx, anomalies)
	elapsed := e.clock.Since(start)
	for _, stmt := range out {
		e.plugins.EmitStatementReconciled(ctx, stmt, elapsed)
	}

	return out, nil
}

func (e *Engine) statement(st *student.Student, fs *feestructure.FeeStructure, payments []*payment.Payment, anomalies []reconcile.Anomaly) *reconcile.Statement {
	stmt := reconcile.Reconcile(reconcile.Input{
		Student:   st,
		Structure: fs,
		Fallback:  e.fallback,
		Payments:  payments,
		AsOf:      e.today(),
		Currency:  e.currency,
	})
	if len(anomalies) > 0 {
		stmt.Anomalies = append(append([]reconcile.Anomaly(nil), anomalies...), stmt.Anomalies...)
	}
	return stmt
}

func (e *Engine) reportAnomalies(ctx context.Context, anomalies []reconcile.Anomaly) {
	for _, a := range anomalies {
		e.logger.Warn("feeledger: anomaly detected",
			"kind", string(a.Kind),
			"student_id", a.StudentID,
			"class_section_id", a.ClassSectionID,
			"installment", a.InstallmentNumber,
			"kept_id", a.KeptID,
			"ignored_ids", a.IgnoredIDs,
		)
		e.plugins.EmitAnomalyDetected(ctx, a)
	}
}

// ──────────────────────────────────────────────────
// Aggregation
// ──────────────────────────────────────────────────

// DailyTotal sums the payments whose payment date falls on day, using the
// engine location's calendar.
func (e *Engine) DailyTotal(ctx context.Context, day types.Date) (aggregate.DayTotal, error) {
	from := day.In(e.location)
	payments, err := e.store.ListPayments(ctx, payment.ListOpts{
		From: from,
		To:   from.AddDate(0, 0, 1),
	})
	if err != nil {
		return aggregate.DayTotal{}, e.storeError(ctx, "list payments", err)
	}

	return aggregate.DailyTotal(payments, day, e.location, e.currency), nil
}

// Today is DailyTotal for the current day of the engine clock.
func (e *Engine) Today(ctx context.Context) (aggregate.DayTotal, error) {
	return e.DailyTotal(ctx, e.today())
}

// MonthlyTrend returns collection totals of the most recent n months that
// have payments, oldest first. n <= 0 uses the configured default. Months
// without payments are absent; see aggregate.FillGaps.
func (e *Engine) MonthlyTrend(ctx context.Context, n int) ([]aggregate.MonthTotal, error) {
	if n <= 0 {
		n = e.trendMonths
	}

	payments, err := e.store.ListPayments(ctx, payment.ListOpts{})
	if err != nil {
		return nil, e.storeError(ctx, "list payments", err)
	}

	return aggregate.MonthlyTrend(payments, n, e.location, e.currency), nil
}
