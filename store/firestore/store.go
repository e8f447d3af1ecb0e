// Package firestore implements store.Store on Cloud Firestore, reading the
// feeStructures, feePayments and users collections shared with the school
// dashboard.
//
// Firestore has no schema, so every document is checked for its required
// fields before it is decoded. List operations skip malformed documents and
// log them; with WithStrict they fail with a feeledger.MultiError instead.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gfs "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/xraph/feeledger"
	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/payment"
	feeledgerstore "github.com/xraph/feeledger/store"
	"github.com/xraph/feeledger/student"
	"github.com/xraph/feeledger/types"
)

// Collection names.
const (
	colFeeStructures = "feeStructures"
	colPayments      = "feePayments"
	colUsers         = "users"
	colClassSections = "classSections"
)

const roleStudent = "student"

// compile-time interface check
var _ feeledgerstore.Store = (*Store)(nil)

// Store implements store.Store on a Firestore client.
type Store struct {
	client   *gfs.Client
	currency string
	logger   *slog.Logger
	strict   bool
}

// Option configures a Store.
type Option func(*Store)

// WithCurrency sets the currency of documents that carry no currency field.
func WithCurrency(currency string) Option {
	return func(s *Store) { s.currency = currency }
}

// WithLogger sets the logger used to report skipped documents.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithStrict makes list operations fail on malformed documents.
func WithStrict() Option {
	return func(s *Store) { s.strict = true }
}

// New creates a Store on an existing Firestore client.
func New(client *gfs.Client, opts ...Option) *Store {
	s := &Store{
		client:   client,
		currency: types.DefaultCurrency,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromApp creates a Store from an initialized Firebase app.
func NewFromApp(ctx context.Context, app *firebase.App, opts ...Option) (*Store, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, unavailable("open firestore client", err)
	}
	return New(client, opts...), nil
}

// Client returns the underlying Firestore client.
func (s *Store) Client() *gfs.Client { return s.client }

// Migrate is a no-op: Firestore collections are created on first write.
// Range queries on paymentDate combined with a studentId or classSectionId
// filter need a composite index declared in the Firebase project.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reads at most one document to check connectivity.
func (s *Store) Ping(ctx context.Context) error {
	iter := s.client.Collection(colUsers).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return unavailable("ping", err)
	}
	return nil
}

// Close closes the Firestore client.
func (s *Store) Close() error {
	return s.client.Close()
}

// ==================== Fee Structure Store ====================

func (s *Store) CreateFeeStructure(ctx context.Context, fs *feestructure.FeeStructure) error {
	_, err := s.client.Collection(colFeeStructures).Doc(fs.ID.String()).Create(ctx, toFeeStructureDoc(fs))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return feeledger.ErrAlreadyExists
		}
		return unavailable("create fee structure", err)
	}
	return nil
}

func (s *Store) GetFeeStructure(ctx context.Context, fsID id.FeeStructureID) (*feestructure.FeeStructure, error) {
	snap, err := s.client.Collection(colFeeStructures).Doc(fsID.String()).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, feeledger.ErrFeeStructureNotFound
		}
		return nil, unavailable("get fee structure", err)
	}
	return fromFeeStructureDoc(snap, s.currency)
}

func (s *Store) ListFeeStructures(ctx context.Context, opts feestructure.ListOpts) ([]*feestructure.FeeStructure, error) {
	q := s.client.Collection(colFeeStructures).Query
	if opts.ClassSectionID != "" {
		q = q.Where("classSectionId", "==", opts.ClassSectionID)
	}
	if opts.AcademicYear != "" {
		q = q.Where("academicYear", "==", opts.AcademicYear)
	}

	list, err := collect(ctx, s, q, "list fee structures", func(snap *gfs.DocumentSnapshot) (*feestructure.FeeStructure, error) {
		return fromFeeStructureDoc(snap, s.currency)
	})
	if err != nil {
		return nil, err
	}

	return opts.Window(list), nil
}

// UpdateFeeStructure replaces an existing document. The existence check and
// the write run in one transaction.
func (s *Store) UpdateFeeStructure(ctx context.Context, fs *feestructure.FeeStructure) error {
	ref := s.client.Collection(colFeeStructures).Doc(fs.ID.String())
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Set(ref, toFeeStructureDoc(fs))
	})
	if err != nil {
		if isNotFound(err) {
			return feeledger.ErrFeeStructureNotFound
		}
		return unavailable("update fee structure", err)
	}
	return nil
}

func (s *Store) DeleteFeeStructure(ctx context.Context, fsID id.FeeStructureID) error {
	_, err := s.client.Collection(colFeeStructures).Doc(fsID.String()).Delete(ctx, gfs.Exists)
	if err != nil {
		if isNotFound(err) {
			return feeledger.ErrFeeStructureNotFound
		}
		return unavailable("delete fee structure", err)
	}
	return nil
}

// ==================== Payment Store ====================

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	_, err := s.client.Collection(colPayments).Doc(p.ID.String()).Create(ctx, toPaymentDoc(p))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return feeledger.ErrAlreadyExists
		}
		return unavailable("create payment", err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Payment, error) {
	snap, err := s.client.Collection(colPayments).Doc(payID.String()).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, feeledger.ErrPaymentNotFound
		}
		return nil, unavailable("get payment", err)
	}
	return fromPaymentDoc(snap, s.currency)
}

func (s *Store) ListPayments(ctx context.Context, opts payment.ListOpts) ([]*payment.Payment, error) {
	q := s.client.Collection(colPayments).Query
	if opts.StudentID != "" {
		q = q.Where("studentId", "==", opts.StudentID)
	}
	if opts.ClassSectionID != "" {
		q = q.Where("classSectionId", "==", opts.ClassSectionID)
	}
	if opts.InstallmentNumber > 0 {
		q = q.Where("installmentNumber", "==", opts.InstallmentNumber)
	}
	if !opts.From.IsZero() {
		q = q.Where("paymentDate", ">=", opts.From)
	}
	if !opts.To.IsZero() {
		q = q.Where("paymentDate", "<", opts.To)
	}

	list, err := collect(ctx, s, q, "list payments", func(snap *gfs.DocumentSnapshot) (*payment.Payment, error) {
		return fromPaymentDoc(snap, s.currency)
	})
	if err != nil {
		return nil, err
	}

	payment.SortNewestFirst(list)
	return page(list, opts.Offset, opts.Limit), nil
}

func (s *Store) DeletePayment(ctx context.Context, payID id.PaymentID) error {
	_, err := s.client.Collection(colPayments).Doc(payID.String()).Delete(ctx, gfs.Exists)
	if err != nil {
		if isNotFound(err) {
			return feeledger.ErrPaymentNotFound
		}
		return unavailable("delete payment", err)
	}
	return nil
}

// ==================== Student Store ====================

// GetStudent reads a user document with role student. A missing class
// section name is looked up in the classSections collection.
func (s *Store) GetStudent(ctx context.Context, studentID string) (*student.Student, error) {
	if studentID == "" {
		return nil, feeledger.ErrStudentNotFound
	}
	snap, err := s.client.Collection(colUsers).Doc(studentID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, feeledger.ErrStudentNotFound
		}
		return nil, unavailable("get student", err)
	}
	if role, _ := snap.Data()["role"].(string); role != roleStudent {
		return nil, feeledger.ErrStudentNotFound
	}

	st, err := fromStudentDoc(snap)
	if err != nil {
		return nil, err
	}
	if st.ClassSectionName == "" && st.ClassSectionID != "" {
		cs, err := s.client.Collection(colClassSections).Doc(st.ClassSectionID).Get(ctx)
		switch {
		case err == nil:
			var d classSectionDoc
			if err := cs.DataTo(&d); err == nil {
				st.ClassSectionName = d.Name
			}
		case !isNotFound(err):
			return nil, unavailable("get class section", err)
		}
	}
	return st, nil
}

func (s *Store) ListStudents(ctx context.Context, opts student.ListOpts) ([]*student.Student, error) {
	q := s.client.Collection(colUsers).Where("role", "==", roleStudent)
	if opts.ClassSectionID != "" {
		q = q.Where("classSectionId", "==", opts.ClassSectionID)
	}

	list, err := collect(ctx, s, q, "list students", fromStudentDoc)
	if err != nil {
		return nil, err
	}

	names, err := s.classSectionNames(ctx, list)
	if err != nil {
		return nil, err
	}
	for _, st := range list {
		if st.ClassSectionName == "" {
			st.ClassSectionName = names[st.ClassSectionID]
		}
	}

	student.SortByName(list)
	return page(list, opts.Offset, opts.Limit), nil
}

// classSectionNames loads the names of the class sections referenced by
// students that carry no denormalized name.
func (s *Store) classSectionNames(ctx context.Context, students []*student.Student) (map[string]string, error) {
	seen := make(map[string]bool)
	var refs []*gfs.DocumentRef
	for _, st := range students {
		if st.ClassSectionName != "" || st.ClassSectionID == "" || seen[st.ClassSectionID] {
			continue
		}
		seen[st.ClassSectionID] = true
		refs = append(refs, s.client.Collection(colClassSections).Doc(st.ClassSectionID))
	}

	names := make(map[string]string, len(refs))
	if len(refs) == 0 {
		return names, nil
	}
	snaps, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, unavailable("get class sections", err)
	}
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		var d classSectionDoc
		if err := snap.DataTo(&d); err == nil {
			names[snap.Ref.ID] = d.Name
		}
	}
	return names, nil
}

// ==================== Helpers ====================

// collect runs q and decodes every document. Malformed documents are logged
// and skipped, or collected into a feeledger.MultiError in strict mode.
func collect[T any](ctx context.Context, s *Store, q gfs.Query, op string, decode func(*gfs.DocumentSnapshot) (T, error)) ([]T, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var (
		out  []T
		errs feeledger.MultiError
	)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, unavailable(op, err)
		}

		v, err := decode(snap)
		if err != nil {
			if !errors.Is(err, ErrMalformedDocument) {
				return nil, err
			}
			if s.strict {
				errs.Add(err)
				continue
			}
			s.logger.Warn("feeledger/firestore: skipping malformed document",
				"op", op,
				"path", snap.Ref.Path,
				"error", err,
			)
			continue
		}
		out = append(out, v)
	}

	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

func page[T any](list []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return list[:0]
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func unavailable(op string, err error) error {
	return fmt.Errorf("feeledger/firestore: %s: %w: %w", op, feeledger.ErrStoreUnavailable, err)
}
