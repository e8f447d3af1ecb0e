package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/feeledger"
	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/student"
	"github.com/xraph/feeledger/types"
)

var t0 = time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)

func structure(cs, year string, updated time.Time) *feestructure.FeeStructure {
	fs := feestructure.DefaultSchedule("inr")
	fs.ID = id.NewFeeStructureID()
	fs.ClassSectionID = cs
	fs.AcademicYear = year
	fs.Entity = types.Entity{CreatedAt: updated, UpdatedAt: updated}
	return fs
}

func pay(studentID string, n int, paid time.Time) *payment.Payment {
	return &payment.Payment{
		Entity:            types.NewEntity(paid),
		ID:                id.NewPaymentID(),
		StudentID:         studentID,
		InstallmentNumber: n,
		Amount:            types.Major(10000, "inr"),
		PaymentDate:       paid,
	}
}

func TestFeeStructureCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	fs := structure("cs_10a", "2025", t0)

	if err := s.CreateFeeStructure(ctx, fs); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.CreateFeeStructure(ctx, fs); !errors.Is(err, feeledger.ErrAlreadyExists) {
		t.Errorf("duplicate Create: got %v, want ErrAlreadyExists", err)
	}

	got, err := s.GetFeeStructure(ctx, fs.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Installments[0].Amount = types.Major(1, "inr")
	again, _ := s.GetFeeStructure(ctx, fs.ID)
	if again.Installments[0].Amount.Equal(types.Major(1, "inr")) {
		t.Error("Get returned a shared copy")
	}

	fs.ClassSectionName = "10-A"
	if err := s.UpdateFeeStructure(ctx, fs); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = s.GetFeeStructure(ctx, fs.ID)
	if got.ClassSectionName != "10-A" {
		t.Errorf("ClassSectionName: got %q, want 10-A", got.ClassSectionName)
	}

	if err := s.DeleteFeeStructure(ctx, fs.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.GetFeeStructure(ctx, fs.ID); !errors.Is(err, feeledger.ErrFeeStructureNotFound) {
		t.Errorf("Get after delete: got %v, want ErrFeeStructureNotFound", err)
	}
	if err := s.UpdateFeeStructure(ctx, fs); !errors.Is(err, feeledger.ErrFeeStructureNotFound) {
		t.Errorf("Update after delete: got %v, want ErrFeeStructureNotFound", err)
	}
	if err := s.DeleteFeeStructure(ctx, fs.ID); !errors.Is(err, feeledger.ErrFeeStructureNotFound) {
		t.Errorf("Delete after delete: got %v, want ErrFeeStructureNotFound", err)
	}
}

func TestListFeeStructures(t *testing.T) {
	ctx := context.Background()
	s := New()

	y9 := structure("cs_10a", "9", t0)
	y10 := structure("cs_10a", "10", t0)
	y10b := structure("cs_10a", "10", t0.Add(time.Hour))
	other := structure("cs_9b", "2025", t0)
	for _, fs := range []*feestructure.FeeStructure{y9, y10, y10b, other} {
		if err := s.CreateFeeStructure(ctx, fs); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name string
		opts feestructure.ListOpts
		want []id.ID
	}{
		{"class newest first", feestructure.ListOpts{ClassSectionID: "cs_10a"}, []id.ID{y10b.ID, y10.ID, y9.ID}},
		{"class and year", feestructure.ListOpts{ClassSectionID: "cs_10a", AcademicYear: "9"}, []id.ID{y9.ID}},
		{"limit", feestructure.ListOpts{ClassSectionID: "cs_10a", Limit: 1}, []id.ID{y10b.ID}},
		{"offset", feestructure.ListOpts{ClassSectionID: "cs_10a", Offset: 2}, []id.ID{y9.ID}},
		{"offset past end", feestructure.ListOpts{ClassSectionID: "cs_10a", Offset: 5}, nil},
		{"other class", feestructure.ListOpts{ClassSectionID: "cs_9b"}, []id.ID{other.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListFeeStructures(ctx, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d structures, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i].ID != tt.want[i] {
					t.Errorf("[%d]: got %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestPayments(t *testing.T) {
	ctx := context.Background()
	s := New()

	p1 := pay("u_asha", 1, t0)
	p2 := pay("u_asha", 2, t0.AddDate(0, 1, 0))
	p3 := pay("u_bilal", 1, t0.Add(2*time.Hour))
	for _, p := range []*payment.Payment{p1, p2, p3} {
		if err := s.CreatePayment(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.CreatePayment(ctx, p1); !errors.Is(err, feeledger.ErrAlreadyExists) {
		t.Errorf("duplicate Create: got %v, want ErrAlreadyExists", err)
	}

	tests := []struct {
		name string
		opts payment.ListOpts
		want []id.ID
	}{
		{"all newest first", payment.ListOpts{}, []id.ID{p2.ID, p3.ID, p1.ID}},
		{"student", payment.ListOpts{StudentID: "u_asha"}, []id.ID{p2.ID, p1.ID}},
		{"installment", payment.ListOpts{InstallmentNumber: 1}, []id.ID{p3.ID, p1.ID}},
		{"day range", payment.ListOpts{From: t0.Truncate(24 * time.Hour), To: t0.Truncate(24 * time.Hour).AddDate(0, 0, 1)}, []id.ID{p3.ID, p1.ID}},
		{"page", payment.ListOpts{Limit: 1, Offset: 1}, []id.ID{p3.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListPayments(ctx, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d payments, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i].ID != tt.want[i] {
					t.Errorf("[%d]: got %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}

	if err := s.DeletePayment(ctx, p1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.GetPayment(ctx, p1.ID); !errors.Is(err, feeledger.ErrPaymentNotFound) {
		t.Errorf("Get after delete: got %v, want ErrPaymentNotFound", err)
	}
}

func TestStudents(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutStudents(
		&student.Student{ID: "u_chen", Name: "chen", ClassSectionID: "cs_9b"},
		&student.Student{ID: "u_bilal", Name: "Bilal", ClassSectionID: "cs_10a"},
		&student.Student{ID: "u_asha", Name: "Asha", ClassSectionID: "cs_10a"},
	)

	all, err := s.ListStudents(ctx, student.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	wantOrder := []string{"u_asha", "u_bilal", "u_chen"}
	for i, want := range wantOrder {
		if all[i].ID != want {
			t.Errorf("[%d]: got %s, want %s", i, all[i].ID, want)
		}
	}

	tests := []struct {
		name string
		opts student.ListOpts
		want int
	}{
		{"negative offset", student.ListOpts{Offset: -1}, 3},
		{"negative limit", student.ListOpts{Limit: -2}, 3},
		{"negative offset with limit", student.ListOpts{Offset: -5, Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListStudents(ctx, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d students, want %d", len(got), tt.want)
			}
		})
	}

	class, _ := s.ListStudents(ctx, student.ListOpts{ClassSectionID: "cs_10a"})
	if len(class) != 2 {
		t.Errorf("class students: got %d, want 2", len(class))
	}

	if _, err := s.GetStudent(ctx, "u_nobody"); !errors.Is(err, feeledger.ErrStudentNotFound) {
		t.Errorf("GetStudent: got %v, want ErrStudentNotFound", err)
	}
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	checks := []struct {
		name string
		err  error
	}{
		{"Ping", s.Ping(ctx)},
		{"CreatePayment", s.CreatePayment(ctx, pay("u_asha", 1, t0))},
		{"DeleteFeeStructure", s.DeleteFeeStructure(ctx, id.NewFeeStructureID())},
	}
	for _, c := range checks {
		if !errors.Is(c.err, feeledger.ErrStoreClosed) {
			t.Errorf("%s: got %v, want ErrStoreClosed", c.name, c.err)
		}
	}

	if _, err := s.ListPayments(ctx, payment.ListOpts{}); !feeledger.IsStoreUnavailable(err) {
		t.Errorf("ListPayments: got %v, want a store unavailable error", err)
	}
}
