package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/feeledger"
	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/payment"
	feeledgerstore "github.com/xraph/feeledger/store"
	"github.com/xraph/feeledger/student"
)

// compile-time interface check
var _ feeledgerstore.Store = (*Store)(nil)

const roleStudent = "student"

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("feeledger/sqlite: create migration executor: %w: %w", feeledger.ErrMigrationFailed, err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("feeledger/sqlite: %w: %w", feeledger.ErrMigrationFailed, err)
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
	m, err := toFeeStructureModel(fs)
	if err != nil {
		return err
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		if s.exists(ctx, new(feeStructureModel), m.ID) {
			return feeledger.ErrAlreadyExists
		}
		return unavailable("create fee structure", err)
	}
	return nil
}

func (s *Store) GetFeeStructure(ctx context.Context, fsID id.FeeStructureID) (*feestructure.FeeStructure, error) {
	m := new(feeStructureModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", fsID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, feeledger.ErrFeeStructureNotFound
		}
		return nil, unavailable("get fee structure", err)
	}
	return fromFeeStructureModel(m)
}

func (s *Store) ListFeeStructures(ctx context.Context, opts feestructure.ListOpts) ([]*feestructure.FeeStructure, error) {
	var models []feeStructureModel
	q := s.sdb.NewSelect(&models)

	if opts.ClassSectionID != "" {
		q = q.Where("class_section_id = ?", opts.ClassSectionID)
	}
	if opts.AcademicYear != "" {
		q = q.Where("academic_year = ?", opts.AcademicYear)
	}

	// Ordering and paging happen after the scan: academic_year is text.
	if err := q.Scan(ctx); err != nil {
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
	m, err := toFeeStructureModel(fs)
	if err != nil {
		return err
	}
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return unavailable("update fee structure", err)
	}
	return affected(res, "update fee structure", feeledger.ErrFeeStructureNotFound)
}

func (s *Store) DeleteFeeStructure(ctx context.Context, fsID id.FeeStructureID) error {
	res, err := s.sdb.NewDelete((*feeStructureModel)(nil)).
		Where("id = ?", fsID.String()).
		Exec(ctx)
	if err != nil {
		return unavailable("delete fee structure", err)
	}
	return affected(res, "delete fee structure", feeledger.ErrFeeStructureNotFound)
}

// ==================== Payment Store ====================

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	m := toPaymentModel(p)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		if s.exists(ctx, new(paymentModel), m.ID) {
			return feeledger.ErrAlreadyExists
		}
		return unavailable("create payment", err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Payment, error) {
	m := new(paymentModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", payID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, feeledger.ErrPaymentNotFound
		}
		return nil, unavailable("get payment", err)
	}
	return fromPaymentModel(m)
}

func (s *Store) ListPayments(ctx context.Context, opts payment.ListOpts) ([]*payment.Payment, error) {
	var models []paymentModel
	q := s.sdb.NewSelect(&models)

	if opts.StudentID != "" {
		q = q.Where("student_id = ?", opts.StudentID)
	}
	if opts.ClassSectionID != "" {
		q = q.Where("class_section_id = ?", opts.ClassSectionID)
	}
	if opts.InstallmentNumber > 0 {
		q = q.Where("installment_number = ?", opts.InstallmentNumber)
	}
	if !opts.From.IsZero() {
		q = q.Where("payment_date >= ?", opts.From.UTC())
	}
	if !opts.To.IsZero() {
		q = q.Where("payment_date < ?", opts.To.UTC())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("payment_date DESC, created_at DESC")

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
	res, err := s.sdb.NewDelete((*paymentModel)(nil)).
		Where("id = ?", payID.String()).
		Exec(ctx)
	if err != nil {
		return unavailable("delete payment", err)
	}
	return affected(res, "delete payment", feeledger.ErrPaymentNotFound)
}

// ==================== Student Store ====================

func (s *Store) GetStudent(ctx context.Context, studentID string) (*student.Student, error) {
	m := new(studentModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", studentID).
		Where("role = ?", roleStudent).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, feeledger.ErrStudentNotFound
		}
		return nil, unavailable("get student", err)
	}
	return fromStudentModel(m), nil
}

func (s *Store) ListStudents(ctx context.Context, opts student.ListOpts) ([]*student.Student, error) {
	var models []studentModel
	q := s.sdb.NewSelect(&models).Where("role = ?", roleStudent)

	if opts.ClassSectionID != "" {
		q = q.Where("class_section_id = ?", opts.ClassSectionID)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("name COLLATE NOCASE ASC, id ASC")

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

func (s *Store) exists(ctx context.Context, model any, rowID string) bool {
	return s.sdb.NewSelect(model).Where("id = ?", rowID).Scan(ctx) == nil
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

// affected maps a zero-row write to notFound.
func affected(res rowsAffecter, op string, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return unavailable(op, err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("feeledger/sqlite: %s: %w: %w", op, feeledger.ErrStoreUnavailable, err)
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
