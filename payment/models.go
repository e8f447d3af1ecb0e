// Package payment defines recorded fee payments and the queries over them.
package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/types"
)

// Payment is one recorded fee payment. Student and class-section names are
// copied from the student at record time.
type Payment struct {
	types.Entity
	ID                id.PaymentID `json:"id"`
	StudentID         string       `json:"student_id"`
	StudentName       string       `json:"student_name"`
	ClassSectionID    string       `json:"class_section_id"`
	ClassSectionName  string       `json:"class_section_name"`
	InstallmentNumber int          `json:"installment_number"`
	Amount            types.Money  `json:"amount"`
	PaymentDate       time.Time    `json:"payment_date"`
}

// Input is what a caller supplies to record a payment.
type Input struct {
	StudentID         string      `json:"student_id" validate:"required"`
	InstallmentNumber int         `json:"installment_number" validate:"gt=0"`
	Amount            types.Money `json:"amount"`
	PaymentDate       time.Time   `json:"payment_date" validate:"required"`
}

// Validate checks that the input is well-typed. It never consults a fee
// structure, so over-payments and unknown installments pass.
func (in *Input) Validate() []types.Issue {
	issues := types.ValidateStruct(in)
	if !in.Amount.IsPositive() {
		issues = append(issues, types.Issue{
			Field:   "amount",
			Message: fmt.Sprintf("invalid payment amount %s", in.Amount),
		})
	}
	return issues
}

// Normalize trims the student id and fills an unset currency.
func (in *Input) Normalize(defaultCurrency string) {
	in.StudentID = strings.TrimSpace(in.StudentID)
	in.Amount.Currency = strings.ToLower(in.Amount.Currency)
	if in.Amount.Currency == "" {
		in.Amount.Currency = strings.ToLower(defaultCurrency)
	}
}

// EarlierThan orders payments for keep-earliest duplicate resolution:
// earlier creation time, then earlier payment date, then lower id.
func (p *Payment) EarlierThan(other *Payment) bool {
	if !p.CreatedAt.Equal(other.CreatedAt) {
		return p.CreatedAt.Before(other.CreatedAt)
	}
	if !p.PaymentDate.Equal(other.PaymentDate) {
		return p.PaymentDate.Before(other.PaymentDate)
	}
	return p.ID.Compare(other.ID) < 0
}
