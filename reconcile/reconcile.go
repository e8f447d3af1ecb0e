// Package reconcile derives a student's fee statement from a snapshot of
// their fee structure and payments.
//
// Everything here is a pure function: the same snapshot always yields the
// same statement, and nothing is read from or written to a store.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/student"
	"github.com/xraph/feeledger/types"
)

// Schedule says which installment plan a statement was computed against.
type Schedule string

const (
	ScheduleStructure Schedule = "structure" // the class section's fee structure
	ScheduleFallback  Schedule = "fallback"  // the configured default schedule
	ScheduleNone      Schedule = "none"      // no schedule; no installment slots
)

// Status of one installment slot.
type Status string

const (
	StatusPaid    Status = "PAID"
	StatusPending Status = "PENDING"
)

// Input is the snapshot a statement is computed from.
type Input struct {
	Student *student.Student
	// Structure is the resolved fee structure, or nil when none exists.
	Structure *feestructure.FeeStructure
	// Fallback is used in place of a nil Structure when set.
	Fallback *feestructure.FeeStructure
	// Payments may include other students' payments; they are ignored.
	Payments []*payment.Payment
	// AsOf is the day overdue flags are computed against. Zero disables them.
	AsOf types.Date
	// Currency is used when neither a schedule nor a payment names one.
	Currency string
}

// Installment is one slot of the schedule with its reconciled status.
type Installment struct {
	Number  int              `json:"number"`
	Amount  types.Money      `json:"amount"`
	DueDate types.Date       `json:"due_date"`
	Status  Status           `json:"status"`
	Overdue bool             `json:"overdue"`
	Payment *payment.Payment `json:"payment,omitempty"`
}

// Statement is the derived fee position of one student.
type Statement struct {
	StudentID    string                     `json:"student_id"`
	Student      *student.Student           `json:"student,omitempty"`
	Schedule     Schedule                   `json:"schedule"`
	Structure    *feestructure.FeeStructure `json:"structure,omitempty"`
	Currency     string                     `json:"currency"`
	Installments []Installment              `json:"installments"`
	TotalAmount  types.Money                `json:"total_amount"`
	TotalPaid    types.Money                `json:"total_paid"`
	Balance      types.Money                `json:"balance"`
	NextDue      *Installment               `json:"next_due,omitempty"`
	Unmatched    []*payment.Payment         `json:"unmatched,omitempty"`
	Anomalies    []Anomaly                  `json:"anomalies,omitempty"`
	AsOf         types.Date                 `json:"as_of"`
}

// Overpaid reports whether the student paid more than the schedule total.
func (s *Statement) Overpaid() bool { return s.Balance.IsNegative() }

// FullyPaid reports whether every installment slot is paid.
func (s *Statement) FullyPaid() bool { return s.NextDue == nil }

// PaidCount returns the number of paid installment slots.
func (s *Statement) PaidCount() int {
	n := 0
	for _, inst := range s.Installments {
		if inst.Status == StatusPaid {
			n++
		}
	}
	return n
}

// Reconcile computes the statement for in.Student.
//
// Each installment is PAID when at least one of the student's payments names
// its number, PENDING otherwise. When several do, the earliest recorded is
// kept and a duplicate_payment anomaly lists the rest. TotalPaid counts every
// payment of the student, including duplicates and payments for installments
// the schedule does not contain; the latter are listed as Unmatched.
func Reconcile(in Input) *Statement {
	st := &Statement{
		Student:  in.Student,
		Schedule: ScheduleNone,
		AsOf:     in.AsOf,
	}
	if in.Student != nil {
		st.StudentID = in.Student.ID
	}

	schedule := in.Structure
	switch {
	case schedule != nil:
		st.Schedule = ScheduleStructure
	case in.Fallback != nil:
		schedule = in.Fallback
		st.Schedule = ScheduleFallback
	}
	st.Structure = schedule

	mine := studentPayments(in.Payments, st.StudentID)
	st.Currency = statementCurrency(schedule, mine, in.Currency)
	st.TotalAmount = types.Zero(st.Currency)
	st.TotalPaid = types.Zero(st.Currency)

	byInstallment := make(map[int][]*payment.Payment)
	for _, p := range mine {
		if p.Amount.Currency != st.Currency {
			st.Anomalies = append(st.Anomalies, Anomaly{
				Kind:              AnomalyCurrencyMismatch,
				StudentID:         st.StudentID,
				InstallmentNumber: p.InstallmentNumber,
				IgnoredIDs:        []string{p.ID.String()},
				Message:           fmt.Sprintf("payment %s is in %q, statement is in %q", p.ID, p.Amount.Currency, st.Currency),
			})
			st.Unmatched = append(st.Unmatched, p)
			continue
		}
		st.TotalPaid = st.TotalPaid.Add(p.Amount)
		byInstallment[p.InstallmentNumber] = append(byInstallment[p.InstallmentNumber], p)
	}

	if schedule != nil {
		st.TotalAmount = schedule.TotalAmount
		st.Installments = make([]Installment, 0, len(schedule.Installments))

		inSchedule := make(map[int]bool, len(schedule.Installments))
		for _, si := range schedule.Installments {
			inSchedule[si.Number] = true

			slot := Installment{
				Number:  si.Number,
				Amount:  si.Amount,
				DueDate: si.DueDate,
				Status:  StatusPending,
			}
			if matches := byInstallment[si.Number]; len(matches) > 0 {
				slot.Status = StatusPaid
				slot.Payment = matches[0]
				if len(matches) > 1 {
					st.Anomalies = append(st.Anomalies, duplicatePayment(st.StudentID, si.Number, matches))
				}
			} else if !in.AsOf.IsZero() && si.DueDate.Before(in.AsOf) {
				slot.Overdue = true
			}
			st.Installments = append(st.Installments, slot)
		}
		sort.SliceStable(st.Installments, func(i, j int) bool {
			return st.Installments[i].Number < st.Installments[j].Number
		})

		for number, matches := range byInstallment {
			if !inSchedule[number] {
				st.Unmatched = append(st.Unmatched, matches...)
			}
		}
	} else {
		for _, matches := range byInstallment {
			st.Unmatched = append(st.Unmatched, matches...)
		}
	}

	sortEarliest(st.Unmatched)
	sort.SliceStable(st.Anomalies, func(i, j int) bool {
		return st.Anomalies[i].InstallmentNumber < st.Anomalies[j].InstallmentNumber
	})

	st.Balance = st.TotalAmount.Subtract(st.TotalPaid)
	for i := range st.Installments {
		if st.Installments[i].Status == StatusPending {
			st.NextDue = &st.Installments[i]
			break
		}
	}

	return st
}

// studentPayments returns the payments of studentID ordered earliest first.
func studentPayments(all []*payment.Payment, studentID string) []*payment.Payment {
	out := make([]*payment.Payment, 0, len(all))
	for _, p := range all {
		if p != nil && p.StudentID == studentID {
			out = append(out, p)
		}
	}
	sortEarliest(out)
	return out
}

func sortEarliest(payments []*payment.Payment) {
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].EarlierThan(payments[j])
	})
}

func statementCurrency(schedule *feestructure.FeeStructure, payments []*payment.Payment, fallback string) string {
	if schedule != nil && schedule.TotalAmount.Currency != "" {
		return schedule.TotalAmount.Currency
	}
	if len(payments) > 0 && payments[0].Amount.Currency != "" {
		return payments[0].Amount.Currency
	}
	if fallback != "" {
		return fallback
	}
	return types.DefaultCurrency
}

func duplicatePayment(studentID string, number int, matches []*payment.Payment) Anomaly {
	ignored := make([]string, 0, len(matches)-1)
	for _, p := range matches[1:] {
		ignored = append(ignored, p.ID.String())
	}
	return Anomaly{
		Kind:              AnomalyDuplicatePayment,
		StudentID:         studentID,
		InstallmentNumber: number,
		KeptID:            matches[0].ID.String(),
		IgnoredIDs:        ignored,
		Message:           fmt.Sprintf("%d payments recorded for installment %d", len(matches), number),
	}
}
