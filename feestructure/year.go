package feestructure

import (
	"sort"
	"strconv"
	"strings"

	"github.com/xraph/feeledger/types"
)

// CompareAcademicYears orders two academic-year labels. Labels that both
// parse as integers compare numerically ("9" < "10"); anything else, such as
// "2024-25", compares lexicographically.
func CompareAcademicYears(a, b string) int {
	ai, aErr := strconv.Atoi(strings.TrimSpace(a))
	bi, bErr := strconv.Atoi(strings.TrimSpace(b))
	if aErr == nil && bErr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// Less reports whether a should be preferred less than b when several
// structures exist for the same class section: lower academic year first,
// then older update time, then lower id.
func Less(a, b *FeeStructure) bool {
	if c := CompareAcademicYears(a.AcademicYear, b.AcademicYear); c != 0 {
		return c < 0
	}
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.Before(b.UpdatedAt)
	}
	return a.ID.Compare(b.ID) < 0
}

// SortNewestFirst orders structures with the preferred one first.
func SortNewestFirst(list []*FeeStructure) {
	sort.SliceStable(list, func(i, j int) bool {
		return Less(list[j], list[i])
	})
}

// DefaultSchedule is the schedule used for students whose class section has
// no fee structure: 40000 in four quarterly installments of 10000.
func DefaultSchedule(currency string) *FeeStructure {
	installment := func(n int, due string) Installment {
		return Installment{Number: n, Amount: types.Major(10000, currency), DueDate: types.MustParseDate(due)}
	}
	fs := &FeeStructure{
		Currency:    currency,
		TotalAmount: types.Major(40000, currency),
		Installments: []Installment{
			installment(1, "2025-06-15"),
			installment(2, "2025-09-15"),
			installment(3, "2025-12-15"),
			installment(4, "2026-03-15"),
		},
	}
	fs.Normalize(currency)
	return fs
}
