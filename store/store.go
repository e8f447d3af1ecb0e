// Package store defines the unified persistence contract of feeledger.
//
// Backends live in subpackages (memory, mongo, postgres, sqlite, firestore).
// Every backend returns the feeledger not-found sentinels for missing records
// and wraps I/O failures with feeledger.ErrStoreUnavailable.
package store

import (
	"context"

	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/student"
)

// Store is the unified storage interface for all feeledger entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Fee structure methods
	CreateFeeStructure(ctx context.Context, fs *feestructure.FeeStructure) error
	GetFeeStructure(ctx context.Context, fsID id.FeeStructureID) (*feestructure.FeeStructure, error)
	ListFeeStructures(ctx context.Context, opts feestructure.ListOpts) ([]*feestructure.FeeStructure, error)
	UpdateFeeStructure(ctx context.Context, fs *feestructure.FeeStructure) error
	DeleteFeeStructure(ctx context.Context, fsID id.FeeStructureID) error

	// Payment methods
	CreatePayment(ctx context.Context, p *payment.Payment) error
	GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Payment, error)
	ListPayments(ctx context.Context, opts payment.ListOpts) ([]*payment.Payment, error)
	DeletePayment(ctx context.Context, payID id.PaymentID) error

	// Student methods (read-only)
	GetStudent(ctx context.Context, studentID string) (*student.Student, error)
	ListStudents(ctx context.Context, opts student.ListOpts) ([]*student.Student, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Compile-time checks that Store satisfies the per-entity contracts.
var (
	_ feestructure.Store = (Store)(nil)
	_ payment.Store      = (Store)(nil)
	_ student.Store      = (Store)(nil)
)
