package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-15")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d != NewDate(2025, time.June, 15) {
		t.Errorf("got %+v", d)
	}
	if d.String() != "2025-06-15" {
		t.Errorf("String: got %q", d.String())
	}

	if _, err := ParseDate("15/06/2025"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestDateOrdering(t *testing.T) {
	tests := []struct {
		a, b   Date
		before bool
		after  bool
	}{
		{NewDate(2025, 6, 15), NewDate(2025, 9, 15), true, false},
		{NewDate(2026, 3, 15), NewDate(2025, 12, 15), false, true},
		{NewDate(2025, 6, 15), NewDate(2025, 6, 15), false, false},
		{NewDate(2025, 6, 14), NewDate(2025, 6, 15), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.a.String()+"_"+tt.b.String(), func(t *testing.T) {
			if got := tt.a.Before(tt.b); got != tt.before {
				t.Errorf("Before: got %v, want %v", got, tt.before)
			}
			if got := tt.a.After(tt.b); got != tt.after {
				t.Errorf("After: got %v, want %v", got, tt.after)
			}
		})
	}
}

func TestDateOfUsesLocation(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC on 31 Jan is already 1 Feb in IST.
	ts := time.Date(2025, time.January, 31, 20, 0, 0, 0, time.UTC)

	if got := DateOf(ts); got != NewDate(2025, time.January, 31) {
		t.Errorf("UTC: got %v", got)
	}
	if got := DateOf(ts.In(kolkata)); got != NewDate(2025, time.February, 1) {
		t.Errorf("IST: got %v", got)
	}
}

func TestDateJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Due Date `json:"dueDate"`
	}{NewDate(2025, 12, 15)})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"dueDate":"2025-12-15"}` {
		t.Errorf("got %s", data)
	}

	var out struct {
		Due Date `json:"dueDate"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Due != NewDate(2025, 12, 15) {
		t.Errorf("round trip: got %v", out.Due)
	}
}
