package postgres

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/feeledger"
	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/student"
	"github.com/xraph/feeledger/types"
)

// ==================== Fee structure models ====================

type feeStructureModel struct {
	grove.BaseModel `grove:"table:feeledger_fee_structures"`

	ID               string          `grove:"id,pk"`
	ClassSectionID   string          `grove:"class_section_id"`
	ClassSectionName string          `grove:"class_section_name"`
	AcademicYear     string          `grove:"academic_year"`
	Currency         string          `grove:"currency"`
	TotalAmount      int64           `grove:"total_amount"`
	Installments     json.RawMessage `grove:"installments,type:jsonb"`
	CreatedAt        time.Time       `grove:"created_at"`
	UpdatedAt        time.Time       `grove:"updated_at"`
}

// installmentModel is the JSON shape of one installment. Amounts are in the
// smallest unit of the structure currency.
type installmentModel struct {
	Number  int    `json:"number"`
	Amount  int64  `json:"amount"`
	DueDate string `json:"due_date"`
}

func toFeeStructureModel(fs *feestructure.FeeStructure) (*feeStructureModel, error) {
	installments := make([]installmentModel, len(fs.Installments))
	for i, inst := range fs.Installments {
		installments[i] = installmentModel{
			Number:  inst.Number,
			Amount:  inst.Amount.Amount,
			DueDate: inst.DueDate.String(),
		}
	}
	raw, err := json.Marshal(installments)
	if err != nil {
		return nil, fmt.Errorf("encode installments: %w", err)
	}

	return &feeStructureModel{
		ID:               fs.ID.String(),
		ClassSectionID:   fs.ClassSectionID,
		ClassSectionName: fs.ClassSectionName,
		AcademicYear:     fs.AcademicYear,
		Currency:         fs.Currency,
		TotalAmount:      fs.TotalAmount.Amount,
		Installments:     raw,
		CreatedAt:        fs.CreatedAt,
		UpdatedAt:        fs.UpdatedAt,
	}, nil
}

func fromFeeStructureModel(m *feeStructureModel) (*feestructure.FeeStructure, error) {
	fsID, err := id.ParseFeeStructureID(m.ID)
	if err != nil {
		return nil, malformed(m.ID, err)
	}

	// Unknown fields mean the row was not written by this store.
	var installments []installmentModel
	dec := json.NewDecoder(bytes.NewReader(m.Installments))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&installments); err != nil {
		return nil, malformed(m.ID, fmt.Errorf("decode installments: %w", err))
	}

	fs := &feestructure.FeeStructure{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:               fsID,
		ClassSectionID:   m.ClassSectionID,
		ClassSectionName: m.ClassSectionName,
		AcademicYear:     m.AcademicYear,
		Currency:         m.Currency,
		TotalAmount:      types.Money{Amount: m.TotalAmount, Currency: m.Currency},
		Installments:     make([]feestructure.Installment, len(installments)),
	}
	for i, inst := range installments {
		due, err := types.ParseDate(inst.DueDate)
		if err != nil {
			return nil, malformed(m.ID, fmt.Errorf("installment %d: %w", inst.Number, err))
		}
		fs.Installments[i] = feestructure.Installment{
			Number:  inst.Number,
			Amount:  types.Money{Amount: inst.Amount, Currency: m.Currency},
			DueDate: due,
		}
	}
	return fs, nil
}

// ==================== Payment models ====================

type paymentModel struct {
	grove.BaseModel `grove:"table:feeledger_payments"`

	ID                string    `grove:"id,pk"`
	StudentID         string    `grove:"student_id"`
	StudentName       string    `grove:"student_name"`
	ClassSectionID    string    `grove:"class_section_id"`
	ClassSectionName  string    `grove:"class_section_name"`
	InstallmentNumber int       `grove:"installment_number"`
	Amount            int64     `grove:"amount"`
	Currency          string    `grove:"currency"`
	PaymentDate       time.Time `grove:"payment_date"`
	CreatedAt         time.Time `grove:"created_at"`
	UpdatedAt         time.Time `grove:"updated_at"`
}

func toPaymentModel(p *payment.Payment) *paymentModel {
	return &paymentModel{
		ID:                p.ID.String(),
		StudentID:         p.StudentID,
		StudentName:       p.StudentName,
		ClassSectionID:    p.ClassSectionID,
		ClassSectionName:  p.ClassSectionName,
		InstallmentNumber: p.InstallmentNumber,
		Amount:            p.Amount.Amount,
		Currency:          p.Amount.Currency,
		PaymentDate:       p.PaymentDate,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	payID, err := id.ParsePaymentID(m.ID)
	if err != nil {
		return nil, malformed(m.ID, err)
	}

	return &payment.Payment{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                payID,
		StudentID:         m.StudentID,
		StudentName:       m.StudentName,
		ClassSectionID:    m.ClassSectionID,
		ClassSectionName:  m.ClassSectionName,
		InstallmentNumber: m.InstallmentNumber,
		Amount:            types.Money{Amount: m.Amount, Currency: m.Currency},
		PaymentDate:       m.PaymentDate,
	}, nil
}

// ==================== Student models ====================

// studentModel maps the users table owned by the user-management system.
// Only rows with role 'student' are read.
type studentModel struct {
	grove.BaseModel `grove:"table:users"`

	ID               string `grove:"id,pk"`
	Name             string `grove:"name"`
	Email            string `grove:"email"`
	Role             string `grove:"role"`
	ClassSectionID   string `grove:"class_section_id"`
	ClassSectionName string `grove:"class_section_name"`
	SrNo             string `grove:"sr_no"`
	RollNo           string `grove:"roll_no"`
}

func fromStudentModel(m *studentModel) *student.Student {
	return &student.Student{
		ID:               m.ID,
		Name:             m.Name,
		Email:            m.Email,
		ClassSectionID:   m.ClassSectionID,
		ClassSectionName: m.ClassSectionName,
		SrNo:             m.SrNo,
		RollNo:           m.RollNo,
	}
}

// malformed marks a stored row that cannot be mapped onto a domain record.
func malformed(rowID string, err error) error {
	return fmt.Errorf("feeledger/postgres: %s: %w: %w", rowID, feeledger.ErrMalformedRecord, err)
}
