package aggregate

import (
	"testing"
	"time"

	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/types"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func paidAt(t time.Time, major int64) *payment.Payment {
	return &payment.Payment{StudentID: "u1", InstallmentNumber: 1, Amount: types.Major(major, "inr"), PaymentDate: t}
}

func TestDailyTotalUsesCalendarDay(t *testing.T) {
	day := types.NewDate(2025, time.June, 10)
	payments := []*payment.Payment{
		paidAt(time.Date(2025, 6, 10, 0, 1, 0, 0, ist), 1000),
		paidAt(time.Date(2025, 6, 10, 23, 59, 0, 0, ist), 2000),
		paidAt(time.Date(2025, 6, 9, 23, 59, 0, 0, ist), 4000),  // previous evening
		paidAt(time.Date(2025, 6, 11, 0, 0, 0, 0, ist), 8000),   // next midnight
		paidAt(time.Date(2025, 6, 10, 1, 0, 0, 0, time.UTC), 16), // 06:30 IST
	}

	got := DailyTotal(payments, day, ist, "inr")

	if !got.Total.Equal(types.Major(3016, "inr")) {
		t.Errorf("Total: got %v, want ₹3016.00", got.Total)
	}
	if got.Count != 3 || len(got.Payments) != 3 {
		t.Errorf("Count: got %d (%d payments), want 3", got.Count, len(got.Payments))
	}
}

func TestDailyTotalLocationShiftsDay(t *testing.T) {
	// 20:00 UTC on 31 Jan is 1 Feb in IST.
	p := paidAt(time.Date(2025, 1, 31, 20, 0, 0, 0, time.UTC), 500)

	if got := DailyTotal([]*payment.Payment{p}, types.NewDate(2025, 1, 31), time.UTC, "inr"); got.Count != 1 {
		t.Errorf("UTC: got count %d, want 1", got.Count)
	}
	if got := DailyTotal([]*payment.Payment{p}, types.NewDate(2025, 2, 1), ist, "inr"); got.Count != 1 {
		t.Errorf("IST: got count %d, want 1", got.Count)
	}
}

func TestDailyTotalEmpty(t *testing.T) {
	got := DailyTotal(nil, types.NewDate(2025, 6, 10), ist, "inr")
	if !got.Total.IsZero() || got.Count != 0 || got.Total.Currency != "inr" {
		t.Errorf("got %+v", got)
	}
}

func TestMonthlyTrendIsSparse(t *testing.T) {
	payments := []*payment.Payment{
		paidAt(time.Date(2025, 3, 5, 10, 0, 0, 0, ist), 700),
		paidAt(time.Date(2025, 1, 15, 10, 0, 0, 0, ist), 100),
		paidAt(time.Date(2025, 1, 20, 10, 0, 0, 0, ist), 200),
	}

	got := MonthlyTrend(payments, 6, ist, "inr")

	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(got), got)
	}
	if got[0].Label() != "Jan 2025" || !got[0].Total.Equal(types.Major(300, "inr")) || got[0].Count != 2 {
		t.Errorf("first: got %s %v x%d", got[0].Label(), got[0].Total, got[0].Count)
	}
	if got[1].Label() != "Mar 2025" || !got[1].Total.Equal(types.Major(700, "inr")) {
		t.Errorf("second: got %s %v", got[1].Label(), got[1].Total)
	}
}

func TestMonthlyTrendKeepsMostRecent(t *testing.T) {
	var payments []*payment.Payment
	for m := time.January; m <= time.December; m++ {
		payments = append(payments, paidAt(time.Date(2024, m, 10, 0, 0, 0, 0, ist), int64(m)))
	}
	payments = append(payments, paidAt(time.Date(2025, 2, 10, 0, 0, 0, 0, ist), 99))

	tests := []struct {
		n         int
		wantLen   int
		wantFirst string
	}{
		{3, 3, "Nov 2024"},
		{0, DefaultTrendMonths, "Aug 2024"},
		{-1, DefaultTrendMonths, "Aug 2024"},
		{100, 13, "Jan 2024"},
	}
	for _, tt := range tests {
		got := MonthlyTrend(payments, tt.n, ist, "inr")
		if len(got) != tt.wantLen {
			t.Errorf("n=%d: got %d entries, want %d", tt.n, len(got), tt.wantLen)
			continue
		}
		if got[0].Label() != tt.wantFirst {
			t.Errorf("n=%d: first %s, want %s", tt.n, got[0].Label(), tt.wantFirst)
		}
		if got[len(got)-1].Label() != "Feb 2025" {
			t.Errorf("n=%d: last %s, want Feb 2025", tt.n, got[len(got)-1].Label())
		}
	}
}

func TestFillGaps(t *testing.T) {
	series := []MonthTotal{
		{Year: 2024, Month: time.November, Total: types.Major(1, "inr"), Count: 1},
		{Year: 2025, Month: time.February, Total: types.Major(2, "inr"), Count: 1},
	}

	got := FillGaps(series)

	want := []string{"Nov 2024", "Dec 2024", "Jan 2025", "Feb 2025"}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i, label := range want {
		if got[i].Label() != label {
			t.Errorf("entry %d: got %s, want %s", i, got[i].Label(), label)
		}
	}
	if !got[1].Total.IsZero() || got[1].Count != 0 {
		t.Errorf("gap entry: got %+v", got[1])
	}
}
