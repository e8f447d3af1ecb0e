// Package feestructure defines the installment plan a class section owes for
// an academic year.
package feestructure

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/types"
)

type FeeStructure struct {
	types.Entity
	ID               id.FeeStructureID `json:"id"`
	ClassSectionID   string            `json:"class_section_id" validate:"required"`
	ClassSectionName string            `json:"class_section_name"`
	AcademicYear     string            `json:"academic_year" validate:"required"`
	Currency         string            `json:"currency"`
	TotalAmount      types.Money       `json:"total_amount"`
	Installments     []Installment     `json:"installments" validate:"required,min=1,dive"`
}

type Installment struct {
	Number  int         `json:"number"`
	Amount  types.Money `json:"amount"`
	DueDate types.Date  `json:"due_date" validate:"required"`
}

// Normalize lower-cases the currency, fills it from the total amount when
// unset, and orders installments by number.
func (fs *FeeStructure) Normalize(defaultCurrency string) {
	fs.Currency = strings.ToLower(fs.Currency)
	if fs.Currency == "" {
		fs.Currency = fs.TotalAmount.Currency
	}
	if fs.Currency == "" {
		fs.Currency = strings.ToLower(defaultCurrency)
	}
	if fs.TotalAmount.Currency == "" {
		fs.TotalAmount.Currency = fs.Currency
	}
	for i := range fs.Installments {
		if fs.Installments[i].Amount.Currency == "" {
			fs.Installments[i].Amount.Currency = fs.Currency
		}
	}
	sort.SliceStable(fs.Installments, func(i, j int) bool {
		return fs.Installments[i].Number < fs.Installments[j].Number
	})
}

// Validate reports every problem with the structure. Installment numbers must
// be positive and unique, all amounts positive and in the structure currency,
// and the installments must add up to the total exactly.
func (fs *FeeStructure) Validate() []types.Issue {
	issues := types.ValidateStruct(fs)

	if !fs.TotalAmount.IsPositive() {
		issues = append(issues, types.Issue{
			Field:   "total_amount",
			Message: fmt.Sprintf("invalid total amount %s", fs.TotalAmount),
		})
	}
	if fs.TotalAmount.Currency != fs.Currency {
		issues = append(issues, types.Issue{
			Field:   "total_amount",
			Message: fmt.Sprintf("currency %q does not match structure currency %q", fs.TotalAmount.Currency, fs.Currency),
		})
	}

	seen := make(map[int]bool, len(fs.Installments))
	sumable := fs.TotalAmount.Currency == fs.Currency
	for i, inst := range fs.Installments {
		field := fmt.Sprintf("installments[%d]", i)

		switch {
		case inst.Number <= 0:
			issues = append(issues, types.Issue{
				Field:   field + ".number",
				Message: fmt.Sprintf("invalid installment number %d", inst.Number),
			})
		case seen[inst.Number]:
			issues = append(issues, types.Issue{
				Field:   field + ".number",
				Message: fmt.Sprintf("duplicate installment number %d", inst.Number),
			})
		}
		seen[inst.Number] = true

		if inst.Amount.Currency != fs.Currency {
			sumable = false
			issues = append(issues, types.Issue{
				Field:   field + ".amount",
				Message: fmt.Sprintf("currency %q does not match structure currency %q for installment %d", inst.Amount.Currency, fs.Currency, inst.Number),
			})
			continue
		}
		if !inst.Amount.IsPositive() {
			issues = append(issues, types.Issue{
				Field:   field + ".amount",
				Message: fmt.Sprintf("invalid installment amount %s for installment %d", inst.Amount, inst.Number),
			})
		}
	}

	if sumable && len(fs.Installments) > 0 {
		if sum := fs.InstallmentSum(); !sum.Equal(fs.TotalAmount) {
			issues = append(issues, types.Issue{
				Field:   "installments",
				Message: fmt.Sprintf("sum of installment amounts (%s) does not match the total fee amount (%s)", sum, fs.TotalAmount),
			})
		}
	}

	return issues
}

// InstallmentSum adds up the installment amounts in the structure currency.
func (fs *FeeStructure) InstallmentSum() types.Money {
	sum := types.Zero(fs.Currency)
	for _, inst := range fs.Installments {
		sum = sum.Add(inst.Amount)
	}
	return sum
}

// FindInstallment returns the installment with the given number.
func (fs *FeeStructure) FindInstallment(number int) (Installment, bool) {
	for _, inst := range fs.Installments {
		if inst.Number == number {
			return inst, true
		}
	}
	return Installment{}, false
}

// Clone returns a deep copy of the structure.
func (fs *FeeStructure) Clone() *FeeStructure {
	out := *fs
	out.Installments = append([]Installment(nil), fs.Installments...)
	return &out
}
