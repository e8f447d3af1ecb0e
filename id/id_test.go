package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/feeledger/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"FeeStructureID", id.NewFeeStructureID, "fee_"},
		{"PaymentID", id.NewPaymentID, "pay_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"FeeStructureID", id.NewFeeStructureID, id.ParseFeeStructureID},
		{"PaymentID", id.NewPaymentID, id.ParsePaymentID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	if _, err := id.ParsePaymentID(id.NewFeeStructureID().String()); err == nil {
		t.Error("ParsePaymentID accepted a fee_ id")
	}
	if _, err := id.ParseFeeStructureID(id.NewPaymentID().String()); err == nil {
		t.Error("ParseFeeStructureID accepted a pay_ id")
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}
	if i.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", i.Prefix())
	}
}

func TestCompareOrdersByTimestamp(t *testing.T) {
	a := id.MustParse("pay_01h2xcejqtf2nbrexx3vqjhp41")
	b := id.MustParse("pay_01h455vb4pex5vsknk084sn02q")
	if a.Compare(b) >= 0 {
		t.Errorf("expected %q < %q", a, b)
	}
	if a.Compare(a) != 0 {
		t.Error("expected id to compare equal to itself")
	}
	if id.Nil.Compare(a) >= 0 {
		t.Error("expected Nil to sort first")
	}
}

func TestMarshalUnmarshalText(t *testing.T) {
	original := id.NewFeeStructureID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var restored id.ID
	if unmarshalErr := restored.UnmarshalText(data); unmarshalErr != nil {
		t.Fatalf("UnmarshalText failed: %v", unmarshalErr)
	}
	if restored.String() != original.String() {
		t.Errorf("mismatch: %q != %q", restored.String(), original.String())
	}

	var nilID id.ID
	data, err = nilID.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText(nil) failed: %v", err)
	}
	var restored2 id.ID
	if err := restored2.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText(nil) failed: %v", err)
	}
	if !restored2.IsNil() {
		t.Error("expected nil after round-trip of nil ID")
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewPaymentID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if scanErr := scanned.Scan(val); scanErr != nil {
		t.Fatalf("Scan failed: %v", scanErr)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	var scanned2 id.ID
	if err := scanned2.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if !scanned2.IsNil() {
		t.Error("expected nil after scan of nil")
	}
}

func TestParseKey(t *testing.T) {
	fee := id.NewFeeStructureID()

	tests := []struct {
		name       string
		in         string
		wantLegacy bool
		wantErr    bool
	}{
		{"typeid", fee.String(), false, false},
		{"firestore auto-id", "7pXq2LrK9sZa1BcD3eFg", true, false},
		{"other record type", id.NewPaymentID().String(), false, true},
		{"empty", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := id.ParseKey(tt.in, id.PrefixFeeStructure)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.String() != tt.in {
				t.Errorf("String: got %q, want %q", got.String(), tt.in)
			}
			if got.IsLegacy() != tt.wantLegacy {
				t.Errorf("IsLegacy: got %v, want %v", got.IsLegacy(), tt.wantLegacy)
			}
			if got.Prefix() != id.PrefixFeeStructure {
				t.Errorf("Prefix: got %q", got.Prefix())
			}
		})
	}
}

func TestLegacyIDText(t *testing.T) {
	legacy, err := id.Legacy(id.PrefixPayment, "7pXq2LrK9sZa1BcD3eFg")
	if err != nil {
		t.Fatal(err)
	}

	text, err := legacy.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "7pXq2LrK9sZa1BcD3eFg" {
		t.Errorf("MarshalText: got %q", text)
	}

	again, _ := id.Legacy(id.PrefixPayment, "7pXq2LrK9sZa1BcD3eFg")
	if legacy != again || legacy.Compare(again) != 0 {
		t.Error("equal legacy keys should compare equal")
	}
	if legacy.IsNil() {
		t.Error("legacy ID reported as nil")
	}
}
