package payment

import (
	"context"
	"sort"
	"time"

	"github.com/xraph/feeledger/id"
)

type Store interface {
	CreatePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, payID id.PaymentID) (*Payment, error)
	ListPayments(ctx context.Context, opts ListOpts) ([]*Payment, error)
	DeletePayment(ctx context.Context, payID id.PaymentID) error
}

// ListOpts filters payments. Zero fields match everything; From is
// inclusive and To exclusive.
type ListOpts struct {
	StudentID         string
	ClassSectionID    string
	InstallmentNumber int
	From              time.Time
	To                time.Time
	Limit             int
	Offset            int
}

// Matches reports whether p passes every filter of o.
func (o ListOpts) Matches(p *Payment) bool {
	if o.StudentID != "" && p.StudentID != o.StudentID {
		return false
	}
	if o.ClassSectionID != "" && p.ClassSectionID != o.ClassSectionID {
		return false
	}
	if o.InstallmentNumber != 0 && p.InstallmentNumber != o.InstallmentNumber {
		return false
	}
	if !o.From.IsZero() && p.PaymentDate.Before(o.From) {
		return false
	}
	if !o.To.IsZero() && !p.PaymentDate.Before(o.To) {
		return false
	}
	return true
}

// SortNewestFirst orders payments by payment date descending, newest
// creation first on ties.
func SortNewestFirst(payments []*Payment) {
	sort.SliceStable(payments, func(i, j int) bool {
		a, b := payments[i], payments[j]
		if !a.PaymentDate.Equal(b.PaymentDate) {
			return a.PaymentDate.After(b.PaymentDate)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
