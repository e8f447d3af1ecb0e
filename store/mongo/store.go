package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/feeledger"
	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/payment"
	feeledgerstore "github.com/xraph/feeledger/store"
	"github.com/xraph/feeledger/student"
)

// Collection name constants.
const (
	colFeeStructures = "feeledger_fee_structures"
	colPayments      = "feeledger_payments"
	colUsers         = "users"
)

const roleStudent = "student"

// compile-time interface check
var _ feeledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all feeledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("feeledger/mongo: migrate %s indexes: %w: %w", col, feeledger.ErrMigrationFailed, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Fee Structure Store ====================

func (s *Store) CreateFeeStructure(ctx context.Context, fs *feestructure.FeeStructure) error {
	m := toFeeStructureModel(fs)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return feeledger.ErrAlreadyExists
		}
		return unavailable("create fee structure", err)
	}
	return nil
}

func (s *Store) GetFeeStructure(ctx context.Context, fsID id.FeeStructureID) (*feestructure.FeeStructure, error) {
	var m feeStructureModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": fsID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, feeledger.ErrFeeStructureNotFound
		}
		return nil, unavailable("get fee structure", err)
	}
	return fromFeeStructureModel(&m)
}

func (s *Store) ListFeeStructures(ctx context.Context, opts feestructure.ListOpts) ([]*feestructure.FeeStructure, error) {
	var models []feeStructureModel

	filter := bson.M{}
	if opts.ClassSectionID != "" {
		filter["class_section_id"] = opts.ClassSectionID
	}
	if opts.AcademicYear != "" {
		filter["academic_year"] = opts.AcademicYear
	}

	// Ordering and paging happen after the scan: academic_year is a string.
	if err := s.mdb.NewFind(&models).Filter(filter).Scan(ctx); err != nil {
		return nil, unavailable("list fee structures", err)
	}

	result := make([]*feestructure.FeeStructure, len(models))
	for i := range models {
		fs, err := fromFeeStructureModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = fs
	}
	return opts.Window(result), nil
}

func (s *Store) UpdateFeeStructure(ctx context.Context, fs *feestructure.FeeStructure) error {
	m := toFeeStructureModel(fs)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return unavailable("update fee structure", err)
	}
	if res.MatchedCount() == 0 {
		return feeledger.ErrFeeStructureNotFound
	}
	return nil
}

func (s *Store) DeleteFeeStructure(ctx context.Context, fsID id.FeeStructureID) error {
	res, err := s.mdb.NewDelete((*feeStructureModel)(nil)).
		Filter(bson.M{"_id": fsID.String()}).
		Exec(ctx)
	if err != nil {
		return unavailable("delete fee structure", err)
	}
	if res.DeletedCount() == 0 {
		return feeledger.ErrFeeStructureNotFound
	}
	return nil
}

// ==================== Payment Store ====================

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	m := toPaymentModel(p)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return feeledger.ErrAlreadyExists
		}
		return unavailable("create payment", err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Payment, error) {
	var m paymentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": payID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, feeledger.ErrPaymentNotFound
		}
		return nil, unavailable("get payment", err)
	}
	return fromPaymentModel(&m)
}

func (s *Store) ListPayments(ctx context.Context, opts payment.ListOpts) ([]*payment.Payment, error) {
	var models []paymentModel

	filter := bson.M{}
	if opts.StudentID != "" {
		filter["student_id"] = opts.StudentID
	}
	if opts.ClassSectionID != "" {
		filter["class_section_id"] = opts.ClassSectionID
	}
	if opts.InstallmentNumber > 0 {
		filter["installment_number"] = opts.InstallmentNumber
	}
	if !opts.From.IsZero() || !opts.To.IsZero() {
		dateFilter := bson.M{}
		if !opts.From.IsZero() {
			dateFilter["$gte"] = opts.From
		}
		if !opts.To.IsZero() {
			dateFilter["$lt"] = opts.To
		}
		filter["payment_date"] = dateFilter
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "payment_date", Value: -1}, {Key: "created_at", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, unavailable("list payments", err)
	}

	result := make([]*payment.Payment, len(models))
	for i := range models {
		p, err := fromPaymentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) DeletePayment(ctx context.Context, payID id.PaymentID) error {
	res, err := s.mdb.NewDelete((*paymentModel)(nil)).
		Filter(bson.M{"_id": payID.String()}).
		Exec(ctx)
	if err != nil {
		return unavailable("delete payment", err)
	}
	if res.DeletedCount() == 0 {
		return feeledger.ErrPaymentNotFound
	}
	return nil
}

// ==================== Student Store ====================

func (s *Store) GetStudent(ctx context.Context, studentID string) (*student.Student, error) {
	var m studentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": studentID, "role": roleStudent}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, feeledger.ErrStudentNotFound
		}
		return nil, unavailable("get student", err)
	}
	return fromStudentModel(&m), nil
}

func (s *Store) ListStudents(ctx context.Context, opts student.ListOpts) ([]*student.Student, error) {
	var models []studentModel

	filter := bson.M{"role": roleStudent}
	if opts.ClassSectionID != "" {
		filter["class_section_id"] = opts.ClassSectionID
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, unavailable("list students", err)
	}

	result := make([]*student.Student, len(models))
	for i := range models {
		result[i] = fromStudentModel(&models[i])
	}
	return result, nil
}

// ==================== Helpers ====================

func unavailable(op string, err error) error {
	return fmt.Errorf("feeledger/mongo: %s: %w: %w", op, feeledger.ErrStoreUnavailable, err)
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all feeledger collections.
// The users collection is owned elsewhere; only the lookup index used here is
// ensured.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colFeeStructures: {
			{Keys: bson.D{{Key: "class_section_id", Value: 1}, {Key: "academic_year", Value: -1}}},
		},
		colPayments: {
			{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "installment_number", Value: 1}}},
			{Keys: bson.D{{Key: "class_section_id", Value: 1}}},
			{Keys: bson.D{{Key: "payment_date", Value: -1}, {Key: "created_at", Value: -1}}},
		},
		colUsers: {
			{
				Keys:    bson.D{{Key: "role", Value: 1}, {Key: "class_section_id", Value: 1}},
				Options: options.Index().SetName("feeledger_role_class"),
			},
		},
	}
}
