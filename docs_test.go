package feeledger_test

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/feeledger"
	"github.com/xraph/feeledger/aggregate"
	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/store/memory"
	"github.com/xraph/feeledger/student"
	"github.com/xraph/feeledger/types"
)

// TestDocumentationExamples verifies that the examples in the package
// documentation compile and behave as described.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL or Firestore in production)
		store := memory.New()
		store.PutStudents(&student.Student{
			ID:               "u_asha",
			Name:             "Asha",
			ClassSectionID:   "cs_10a",
			ClassSectionName: "10-A",
		})

		e := feeledger.New(store,
			feeledger.WithLogger(slog.Default()),
			feeledger.WithCurrency("inr"),
			feeledger.WithTrendMonths(6),
		)

		ctx := context.Background()
		if err := e.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer e.Stop()

		fs := &feestructure.FeeStructure{
			ClassSectionID: "cs_10a",
			AcademicYear:   "2025",
			TotalAmount:    feeledger.Major(40000, "inr"),
			Installments: []feestructure.Installment{
				{Number: 1, Amount: feeledger.Major(20000, "inr"), DueDate: feeledger.NewDate(2025, time.June, 15)},
				{Number: 2, Amount: feeledger.Major(20000, "inr"), DueDate: feeledger.NewDate(2025, time.December, 15)},
			},
		}
		if err := e.SaveFeeStructure(ctx, fs); err != nil {
			t.Fatal(err)
		}

		p, err := e.RecordPayment(ctx, payment.Input{
			StudentID:         "u_asha",
			InstallmentNumber: 1,
			Amount:            feeledger.Major(20000, "inr"),
			PaymentDate:       time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("Payment recorded: %s %s\n", p.ID, p.Amount)

		st, err := e.Reconcile(ctx, "u_asha", "2025")
		if err != nil {
			t.Fatal(err)
		}
		if st.NextDue == nil || st.NextDue.Number != 2 {
			t.Errorf("NextDue: got %+v, want installment 2", st.NextDue)
		}
		log.Printf("Balance: %s\n", st.Balance)

		trend, err := e.MonthlyTrend(ctx, 0)
		if err != nil {
			t.Fatal(err)
		}
		for _, m := range aggregate.FillGaps(trend) {
			log.Printf("%s: %s\n", m.Label(), m.Total)
		}
	})

	t.Run("MoneyExamples", func(t *testing.T) {
		// Constructors
		_ = types.INR(1000000)        // ₹10000.00
		_ = types.Major(40000, "inr") // ₹40000.00
		_ = types.Zero("inr")         // ₹0.00

		m, err := types.ParseMoney("10000.50", "inr")
		if err != nil {
			t.Fatal(err)
		}

		// Arithmetic
		total := types.Sum("inr", m, types.INR(50))
		if total.FormatMajor() != "10001.00" {
			t.Errorf("Sum: got %s", total.FormatMajor())
		}

		// Formatting
		_ = m.String()      // "₹10000.50"
		_ = m.FormatMajor() // "10000.50"
	})
}
