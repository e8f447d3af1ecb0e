// Package id defines TypeID-based identity types for feeledger records.
//
// Fee structures and payments are identified by a single ID struct whose
// prefix names the record type. IDs are K-sortable (UUIDv7-based), so
// comparing their string forms orders them by creation.
//
// Students and class sections are owned by the user-management system and
// keep their own opaque string identifiers. Records created by other tools
// in a shared store keep their original key as a legacy ID.
package id

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the record type encoded in a TypeID.
type Prefix string

// Prefix constants for feeledger record types.
const (
	PrefixFeeStructure Prefix = "fee" // Installment plan of a class section
	PrefixPayment      Prefix = "pay" // Recorded fee payment
)

// ID is the primary identifier type for feeledger records.
// It wraps a TypeID in the format "prefix_suffix", or a legacy key.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool

	// legacy is set for keys that were not generated by feeledger.
	legacy string
	prefix Prefix
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "pay_01h2xcejqtf2nbrexx3vqjhp41").
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// Legacy wraps a key assigned by another system, such as a Firestore
// auto-id, as an ID of the given record type. The key is kept verbatim.
func Legacy(prefix Prefix, key string) (ID, error) {
	if key == "" {
		return Nil, fmt.Errorf("id: legacy %s key: empty string", prefix)
	}

	return ID{valid: true, legacy: key, prefix: prefix}, nil
}

// ParseKey parses s as a TypeID with the expected prefix. A key that is not a
// TypeID at all is accepted as a legacy ID; a TypeID of another record type
// is still an error.
func ParseKey(s string, expected Prefix) (ID, error) {
	if _, err := typeid.Parse(s); err != nil {
		return Legacy(expected, s)
	}

	return ParseWithPrefix(s, expected)
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// FeeStructureID identifies a fee structure (prefix: "fee").
type FeeStructureID = ID

// PaymentID identifies a payment (prefix: "pay").
type PaymentID = ID

// NewFeeStructureID generates a new unique fee structure ID.
func NewFeeStructureID() ID { return New(PrefixFeeStructure) }

// NewPaymentID generates a new unique payment ID.
func NewPaymentID() ID { return New(PrefixPayment) }

// ParseFeeStructureID parses a string and validates the "fee" prefix.
func ParseFeeStructureID(s string) (ID, error) { return ParseWithPrefix(s, PrefixFeeStructure) }

// ParsePaymentID parses a string and validates the "pay" prefix.
func ParsePaymentID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPayment) }

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	if i.legacy != "" {
		return i.legacy
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	if i.legacy != "" {
		return i.prefix
	}

	return Prefix(i.inner.Prefix())
}

// IsLegacy reports whether the ID is a key assigned outside feeledger.
func (i ID) IsLegacy() bool {
	return i.legacy != ""
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// Compare orders IDs by their string form, which for IDs of the same prefix
// is creation order. Nil sorts first.
func (i ID) Compare(other ID) int {
	return strings.Compare(i.String(), other.String())
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
