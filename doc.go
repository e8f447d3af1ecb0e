// Package feeledger reconciles school fee payments against installment
// plans.
//
// feeledger is a library, not a service. Import it into the application that
// serves the admin, principal and student views; it reads and writes through a
// store.Store and derives everything else on demand:
//
//   - Fee structures: one installment plan per class section and academic
//     year, validated so the installments add up to the total exactly
//   - Payment ledger: immutable payment records per student and installment
//   - Reconciliation: per-student PAID/PENDING status, total paid, balance
//     and next due installment, with duplicate records surfaced as anomalies
//   - Aggregation: daily collection totals and a monthly collection trend
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/feeledger"
//	    "github.com/xraph/feeledger/store/postgres"
//	)
//
//	s := postgres.New(db)
//
//	e := feeledger.New(s, feeledger.WithLocation(ist))
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
// # Core Concepts
//
// A fee structure is the plan a class section owes for an academic year:
//
//	fs := &feestructure.FeeStructure{
//	    ClassSectionID: "cs_10a",
//	    AcademicYear:   "2025",
//	    TotalAmount:    feeledger.Major(40000, "inr"),
//	    Installments: []feestructure.Installment{
//	        {Number: 1, Amount: feeledger.Major(20000, "inr"), DueDate: feeledger.NewDate(2025, time.June, 15)},
//	        {Number: 2, Amount: feeledger.Major(20000, "inr"), DueDate: feeledger.NewDate(2025, time.December, 15)},
//	    },
//	}
//	err := e.SaveFeeStructure(ctx, fs)
//
// Payments name a student and an installment number:
//
//	p, err := e.RecordPayment(ctx, payment.Input{
//	    StudentID:         "u_asha",
//	    InstallmentNumber: 1,
//	    Amount:            feeledger.Major(20000, "inr"),
//	    PaymentDate:       time.Now(),
//	})
//
// A statement joins the two:
//
//	st, err := e.Reconcile(ctx, "u_asha", "2025")
//	if st.NextDue != nil {
//	    // installment st.NextDue.Number is pending
//	}
//
// Any payment marks its installment PAID regardless of amount. The balance is
// the schedule total minus everything the student paid and goes negative on
// over-payment.
//
// # Errors
//
// Invalid input is a *ValidationError listing every problem. Missing records
// match IsNotFound. Store failures wrap ErrStoreUnavailable and are never
// retried by the engine. Duplicate payments and duplicate fee structures do
// not fail a call: they are resolved deterministically (earliest payment,
// most recent structure) and attached to the result as Anomaly values.
//
// All monetary calculations use integer arithmetic in the smallest currency
// unit, so sums are exact.
//
// # TypeID
//
// Fee structures and payments use TypeIDs:
//
//	fee_01h2xcejqtf2nbrexx3vqjhp41  // Fee structure ID
//	pay_01h455vb4pex5vsknk084sn02q  // Payment ID
//
// Students and class sections keep the identifiers of the user-management
// system.
package feeledger
