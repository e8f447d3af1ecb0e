package firestore

import (
	"fmt"
	"time"

	gfs "cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"

	"github.com/xraph/feeledger"
	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/student"
	"github.com/xraph/feeledger/types"
)

// ErrMalformedDocument is returned for documents that cannot be mapped onto
// a domain record, such as ones missing a required field.
var ErrMalformedDocument = fmt.Errorf("feeledger/firestore: %w", feeledger.ErrMalformedRecord)

// Documents keep the camelCase field names and major-unit numeric amounts
// used by the web dashboard that shares these collections.
// Documents the dashboard created with auto-ids decode with legacy IDs.

// ==================== Fee structure documents ====================

type feeStructureDoc struct {
	ClassSectionID   string           `firestore:"classSectionId"`
	ClassSectionName string           `firestore:"classSectionName"`
	AcademicYear     string           `firestore:"academicYear"`
	Currency         string           `firestore:"currency,omitempty"`
	TotalAmount      float64          `firestore:"totalAmount"`
	Installments     []installmentDoc `firestore:"installments"`
	CreatedAt        time.Time        `firestore:"createdAt"`
	UpdatedAt        time.Time        `firestore:"updatedAt"`
}

type installmentDoc struct {
	Number  int     `firestore:"number"`
	Amount  float64 `firestore:"amount"`
	DueDate string  `firestore:"dueDate"`
}

var feeStructureRequired = []string{"classSectionId", "academicYear", "totalAmount", "installments"}

func toFeeStructureDoc(fs *feestructure.FeeStructure) *feeStructureDoc {
	d := &feeStructureDoc{
		ClassSectionID:   fs.ClassSectionID,
		ClassSectionName: fs.ClassSectionName,
		AcademicYear:     fs.AcademicYear,
		Currency:         fs.Currency,
		TotalAmount:      fs.TotalAmount.Decimal().InexactFloat64(),
		Installments:     make([]installmentDoc, len(fs.Installments)),
		CreatedAt:        fs.CreatedAt,
		UpdatedAt:        fs.UpdatedAt,
	}
	for i, inst := range fs.Installments {
		d.Installments[i] = installmentDoc{
			Number:  inst.Number,
			Amount:  inst.Amount.Decimal().InexactFloat64(),
			DueDate: inst.DueDate.String(),
		}
	}
	return d
}

func fromFeeStructureDoc(snap *gfs.DocumentSnapshot, defaultCurrency string) (*feestructure.FeeStructure, error) {
	if err := requireFields(snap, feeStructureRequired...); err != nil {
		return nil, err
	}
	var d feeStructureDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, malformed(snap, err)
	}
	fs, err := d.toDomain(snap.Ref.ID, defaultCurrency)
	if err != nil {
		return nil, malformed(snap, err)
	}
	return fs, nil
}

// toDomain maps a decoded document stored under key.
func (d *feeStructureDoc) toDomain(key, defaultCurrency string) (*feestructure.FeeStructure, error) {
	fsID, err := id.ParseKey(key, id.PrefixFeeStructure)
	if err != nil {
		return nil, err
	}

	cur := d.Currency
	if cur == "" {
		cur = defaultCurrency
	}
	total, err := majorToMoney(d.TotalAmount, cur)
	if err != nil {
		return nil, fmt.Errorf("totalAmount: %w", err)
	}

	updated := d.UpdatedAt
	if updated.IsZero() {
		updated = d.CreatedAt
	}
	fs := &feestructure.FeeStructure{
		Entity:           types.Entity{CreatedAt: d.CreatedAt, UpdatedAt: updated},
		ID:               fsID,
		ClassSectionID:   d.ClassSectionID,
		ClassSectionName: d.ClassSectionName,
		AcademicYear:     d.AcademicYear,
		Currency:         cur,
		TotalAmount:      total,
		Installments:     make([]feestructure.Installment, len(d.Installments)),
	}
	for i, inst := range d.Installments {
		amount, err := majorToMoney(inst.Amount, cur)
		if err != nil {
			return nil, fmt.Errorf("installment %d: %w", inst.Number, err)
		}
		due, err := types.ParseDate(inst.DueDate)
		if err != nil {
			return nil, fmt.Errorf("installment %d: %w", inst.Number, err)
		}
		fs.Installments[i] = feestructure.Installment{Number: inst.Number, Amount: amount, DueDate: due}
	}
	return fs, nil
}

// ==================== Payment documents ====================

type paymentDoc struct {
	StudentID         string    `firestore:"studentId"`
	StudentName       string    `firestore:"studentName"`
	ClassSectionID    string    `firestore:"classSectionId"`
	ClassSectionName  string    `firestore:"classSectionName"`
	Amount            float64   `firestore:"amount"`
	Currency          string    `firestore:"currency,omitempty"`
	InstallmentNumber int       `firestore:"installmentNumber"`
	PaymentDate       time.Time `firestore:"paymentDate"`
	CreatedAt         time.Time `firestore:"createdAt"`
}

var paymentRequired = []string{"studentId", "amount", "installmentNumber", "paymentDate"}

func toPaymentDoc(p *payment.Payment) *paymentDoc {
	return &paymentDoc{
		StudentID:         p.StudentID,
		StudentName:       p.StudentName,
		ClassSectionID:    p.ClassSectionID,
		ClassSectionName:  p.ClassSectionName,
		Amount:            p.Amount.Decimal().InexactFloat64(),
		Currency:          p.Amount.Currency,
		InstallmentNumber: p.InstallmentNumber,
		PaymentDate:       p.PaymentDate,
		CreatedAt:         p.CreatedAt,
	}
}

func fromPaymentDoc(snap *gfs.DocumentSnapshot, defaultCurrency string) (*payment.Payment, error) {
	if err := requireFields(snap, paymentRequired...); err != nil {
		return nil, err
	}
	var d paymentDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, malformed(snap, err)
	}

	// Records without createdAt fall back to the document creation time.
	if d.CreatedAt.IsZero() {
		d.CreatedAt = snap.CreateTime
	}
	p, err := d.toDomain(snap.Ref.ID, defaultCurrency)
	if err != nil {
		return nil, malformed(snap, err)
	}
	p.UpdatedAt = snap.UpdateTime
	return p, nil
}

// toDomain maps a decoded document stored under key.
func (d *paymentDoc) toDomain(key, defaultCurrency string) (*payment.Payment, error) {
	payID, err := id.ParseKey(key, id.PrefixPayment)
	if err != nil {
		return nil, err
	}

	cur := d.Currency
	if cur == "" {
		cur = defaultCurrency
	}
	amount, err := majorToMoney(d.Amount, cur)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}

	return &payment.Payment{
		Entity:            types.Entity{CreatedAt: d.CreatedAt, UpdatedAt: d.CreatedAt},
		ID:                payID,
		StudentID:         d.StudentID,
		StudentName:       d.StudentName,
		ClassSectionID:    d.ClassSectionID,
		ClassSectionName:  d.ClassSectionName,
		InstallmentNumber: d.InstallmentNumber,
		Amount:            amount,
		PaymentDate:       d.PaymentDate,
	}, nil
}

// ==================== Student documents ====================

type studentDoc struct {
	Name             string `firestore:"name"`
	Email            string `firestore:"email"`
	Role             string `firestore:"role"`
	ClassSectionID   string `firestore:"classSectionId"`
	ClassSectionName string `firestore:"classSectionName"`
	SrNo             string `firestore:"srNo"`
	RollNo           string `firestore:"rollNo"`
}

type classSectionDoc struct {
	Name string `firestore:"name"`
}

func fromStudentDoc(snap *gfs.DocumentSnapshot) (*student.Student, error) {
	if err := requireFields(snap, "name", "role"); err != nil {
		return nil, err
	}
	var d studentDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, malformed(snap, err)
	}
	return &student.Student{
		ID:               snap.Ref.ID,
		Name:             d.Name,
		Email:            d.Email,
		ClassSectionID:   d.ClassSectionID,
		ClassSectionName: d.ClassSectionName,
		SrNo:             d.SrNo,
		RollNo:           d.RollNo,
	}, nil
}

// ==================== Helpers ====================

// majorToMoney converts a numeric major-unit amount. Amounts are parsed from
// their shortest decimal representation so 0.1 stays 0.1.
func majorToMoney(v float64, currency string) (types.Money, error) {
	return types.FromDecimal(decimal.NewFromFloat(v), currency)
}

func requireFields(snap *gfs.DocumentSnapshot, fields ...string) error {
	data := snap.Data()
	var missing []string
	for _, f := range fields {
		if v, ok := data[f]; !ok || v == nil {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s: missing %v", ErrMalformedDocument, snap.Ref.Path, missing)
	}
	return nil
}

func malformed(snap *gfs.DocumentSnapshot, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrMalformedDocument, snap.Ref.Path, err)
}
