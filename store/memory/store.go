// Package memory provides an in-memory store.Store. It is safe for
// concurrent use and intended for tests and local development.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/feeledger"
	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/store"
	"github.com/xraph/feeledger/student"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	closed bool

	// Fee structure storage
	feeStructures map[string]*feestructure.FeeStructure

	// Payment storage
	payments map[string]*payment.Payment

	// Student read model, seeded by the caller
	students map[string]*student.Student
}

func New() *Store {
	return &Store{
		feeStructures: make(map[string]*feestructure.FeeStructure),
		payments:      make(map[string]*payment.Payment),
		students:      make(map[string]*student.Student),
	}
}

// PutStudents inserts or replaces students. Students are owned by the
// user-management system, so this is the only way they enter the store.
func (s *Store) PutStudents(students ...*student.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range students {
		cp := *st
		s.students[st.ID] = &cp
	}
}

// Fee structure Store implementation
func (s *Store) CreateFeeStructure(_ context.Context, fs *feestructure.FeeStructure) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return feeledger.ErrStoreClosed
	}
	if _, exists := s.feeStructures[fs.ID.String()]; exists {
		return feeledger.ErrAlreadyExists
	}
	s.feeStructures[fs.ID.String()] = fs.Clone()
	return nil
}

func (s *Store) GetFeeStructure(_ context.Context, fsID id.FeeStructureID) (*feestructure.FeeStructure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, feeledger.ErrStoreClosed
	}
	if fs, ok := s.feeStructures[fsID.String()]; ok {
		return fs.Clone(), nil
	}
	return nil, feeledger.ErrFeeStructureNotFound
}

func (s *Store) ListFeeStructures(_ context.Context, opts feestructure.ListOpts) ([]*feestructure.FeeStructure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, feeledger.ErrStoreClosed
	}

	result := make([]*feestructure.FeeStructure, 0)
	for _, fs := range s.feeStructures {
		if opts.Matches(fs) {
			result = append(result, fs.Clone())
		}
	}

	return opts.Window(result), nil
}

func (s *Store) UpdateFeeStructure(_ context.Context, fs *feestructure.FeeStructure) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return feeledger.ErrStoreClosed
	}
	if _, exists := s.feeStructures[fs.ID.String()]; !exists {
		return feeledger.ErrFeeStructureNotFound
	}
	s.feeStructures[fs.ID.String()] = fs.Clone()
	return nil
}

func (s *Store) DeleteFeeStructure(_ context.Context, fsID id.FeeStructureID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return feeledger.ErrStoreClosed
	}
	if _, exists := s.feeStructures[fsID.String()]; !exists {
		return feeledger.ErrFeeStructureNotFound
	}
	delete(s.feeStructures, fsID.String())
	return nil
}

// Payment Store implementation
func (s *Store) CreatePayment(_ context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return feeledger.ErrStoreClosed
	}
	if _, exists := s.payments[p.ID.String()]; exists {
		return feeledger.ErrAlreadyExists
	}
	cp := *p
	s.payments[p.ID.String()] = &cp
	return nil
}

func (s *Store) GetPayment(_ context.Context, payID id.PaymentID) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, feeledger.ErrStoreClosed
	}
	if p, ok := s.payments[payID.String()]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, feeledger.ErrPaymentNotFound
}

func (s *Store) ListPayments(_ context.Context, opts payment.ListOpts) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, feeledger.ErrStoreClosed
	}

	result := make([]*payment.Payment, 0)
	for _, p := range s.payments {
		if opts.Matches(p) {
			cp := *p
			result = append(result, &cp)
		}
	}

	payment.SortNewestFirst(result)
	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) DeletePayment(_ context.Context, payID id.PaymentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return feeledger.ErrStoreClosed
	}
	if _, exists := s.payments[payID.String()]; !exists {
		return feeledger.ErrPaymentNotFound
	}
	delete(s.payments, payID.String())
	return nil
}

// Student Store implementation
func (s *Store) GetStudent(_ context.Context, studentID string) (*student.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, feeledger.ErrStoreClosed
	}
	if st, ok := s.students[studentID]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, feeledger.ErrStudentNotFound
}

func (s *Store) ListStudents(_ context.Context, opts student.ListOpts) ([]*student.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, feeledger.ErrStoreClosed
	}

	result := make([]*student.Student, 0)
	for _, st := range s.students {
		if opts.ClassSectionID == "" || st.ClassSectionID == opts.ClassSectionID {
			cp := *st
			result = append(result, &cp)
		}
	}

	student.SortByName(result)
	return page(result, opts.Offset, opts.Limit), nil
}

// Core methods
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return feeledger.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// page applies offset and limit. A limit of zero or less means no limit.
func page[T any](result []T, offset, limit int) []T {
	start := max(offset, 0)
	if start > len(result) {
		start = len(result)
	}
	end := start + limit
	if limit <= 0 || end > len(result) {
		end = len(result)
	}
	return result[start:end]
}
