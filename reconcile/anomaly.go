package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAnomalyDetected matches every Anomaly via errors.Is.
var ErrAnomalyDetected = errors.New("feeledger: anomaly detected")

// AnomalyKind names the kind of data inconsistency found.
type AnomalyKind string

const (
	// AnomalyDuplicatePayment: several payments for one student and installment.
	AnomalyDuplicatePayment AnomalyKind = "duplicate_payment"
	// AnomalyDuplicateFeeStructure: several structures for one class section and year.
	AnomalyDuplicateFeeStructure AnomalyKind = "duplicate_fee_structure"
	// AnomalyCurrencyMismatch: a payment in a currency other than the statement's.
	AnomalyCurrencyMismatch AnomalyKind = "currency_mismatch"
)

// Anomaly describes an inconsistency that reconciliation tolerated. It is
// reported alongside a result, never instead of one.
type Anomaly struct {
	Kind              AnomalyKind `json:"kind"`
	StudentID         string      `json:"student_id,omitempty"`
	ClassSectionID    string      `json:"class_section_id,omitempty"`
	AcademicYear      string      `json:"academic_year,omitempty"`
	InstallmentNumber int         `json:"installment_number,omitempty"`
	KeptID            string      `json:"kept_id,omitempty"`
	IgnoredIDs        []string    `json:"ignored_ids,omitempty"`
	Message           string      `json:"message"`
}

func (a Anomaly) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "feeledger: %s: %s", a.Kind, a.Message)
	if a.KeptID != "" {
		fmt.Fprintf(&b, " (kept %s", a.KeptID)
		if len(a.IgnoredIDs) > 0 {
			fmt.Fprintf(&b, ", ignored %s", strings.Join(a.IgnoredIDs, ", "))
		}
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap lets errors.Is(a, ErrAnomalyDetected) succeed.
func (a Anomaly) Unwrap() error { return ErrAnomalyDetected }
