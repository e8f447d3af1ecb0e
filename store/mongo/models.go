package mongo

import (
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

	ID               string             `grove:"id,pk"              bson:"_id"`
	ClassSectionID   string             `grove:"class_section_id"   bson:"class_section_id"`
	ClassSectionName string             `grove:"class_section_name" bson:"class_section_name"`
	AcademicYear     string             `grove:"academic_year"      bson:"academic_year"`
	Currency         string             `grove:"currency"           bson:"currency"`
	TotalAmount      int64              `grove:"total_amount"       bson:"total_amount"`
	Installments     []installmentModel `grove:"installments"       bson:"installments"`
	CreatedAt        time.Time          `grove:"created_at"         bson:"created_at"`
	UpdatedAt        time.Time          `grove:"updated_at"         bson:"updated_at"`
}

type installmentModel struct {
	Number  int    `bson:"number"`
	Amount  int64  `bson:"amount"`
	DueDate string `bson:"due_date"`
}

func toFeeStructureModel(fs *feestructure.FeeStructure) *feeStructureModel {
	installments := make([]installmentModel, len(fs.Installments))
	for i, inst := range fs.Installments {
		installments[i] = installmentModel{
			Number:  inst.Number,
			Amount:  inst.Amount.Amount,
			DueDate: inst.DueDate.String(),
		}
	}

	return &feeStructureModel{
		ID:               fs.ID.String(),
		ClassSectionID:   fs.ClassSectionID,
		ClassSectionName: fs.ClassSectionName,
		AcademicYear:     fs.AcademicYear,
		Currency:         fs.Currency,
		TotalAmount:      fs.TotalAmount.Amount,
		Installments:     installments,
		CreatedAt:        fs.CreatedAt,
		UpdatedAt:        fs.UpdatedAt,
	}
}

func fromFeeStructureModel(m *feeStructureModel) (*feestructure.FeeStructure, error) {
	fsID, err := id.ParseFeeStructureID(m.ID)
	if err != nil {
		return nil, malformed(m.ID, err)
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
	}
	if len(m.Installments) > 0 {
		fs.Installments = make([]feestructure.Installment, len(m.Installments))
		for i, inst := range m.Installments {
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
	}
	return fs, nil
}

// ==================== Payment models ====================

type paymentModel struct {
	grove.BaseModel `grove:"table:feeledger_payments"`

	ID                string    `grove:"id,pk"              bson:"_id"`
	StudentID         string    `grove:"student_id"         bson:"student_id"`
	StudentName       string    `grove:"student_name"       bson:"student_name"`
	ClassSectionID    string    `grove:"class_section_id"   bson:"class_section_id"`
	ClassSectionName  string    `grove:"class_section_name" bson:"class_section_name"`
	InstallmentNumber int       `grove:"installment_number" bson:"installment_number"`
	Amount            int64     `grove:"amount"             bson:"amount"`
	Currency          string    `grove:"currency"           bson:"currency"`
	PaymentDate       time.Time `grove:"payment_date"       bson:"payment_date"`
	CreatedAt         time.Time `grove:"created_at"         bson:"created_at"`
	UpdatedAt         time.Time `grove:"updated_at"         bson:"updated_at"`
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

type studentModel struct {
	grove.BaseModel `grove:"table:users"`

	ID               string `grove:"id,pk"              bson:"_id"`
	Name             string `grove:"name"               bson:"name"`
	Email            string `grove:"email"              bson:"email"`
	Role             string `grove:"role"               bson:"role"`
	ClassSectionID   string `grove:"class_section_id"   bson:"class_section_id"`
	ClassSectionName string `grove:"class_section_name" bson:"class_section_name"`
	SrNo             string `grove:"sr_no"              bson:"sr_no,omitempty"`
	RollNo           string `grove:"roll_no"            bson:"roll_no,omitempty"`
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
	return fmt.Errorf("feeledger/mongo: %s: %w: %w", rowID, feeledger.ErrMalformedRecord, err)
}
