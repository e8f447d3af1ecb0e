package feestructure

import (
	"context"

	"github.com/xraph/feeledger/id"
)

type Store interface {
	CreateFeeStructure(ctx context.Context, fs *FeeStructure) error
	GetFeeStructure(ctx context.Context, fsID id.FeeStructureID) (*FeeStructure, error)
	ListFeeStructures(ctx context.Context, opts ListOpts) ([]*FeeStructure, error)
	UpdateFeeStructure(ctx context.Context, fs *FeeStructure) error
	DeleteFeeStructure(ctx context.Context, fsID id.FeeStructureID) error
}

// ListOpts filters fee structures. Empty fields match everything.
type ListOpts struct {
	ClassSectionID string
	AcademicYear   string
	Limit          int
	Offset         int
}

// Matches reports whether fs passes the ClassSectionID and AcademicYear filters.
func (o ListOpts) Matches(fs *FeeStructure) bool {
	if o.ClassSectionID != "" && fs.ClassSectionID != o.ClassSectionID {
		return false
	}
	if o.AcademicYear != "" && fs.AcademicYear != o.AcademicYear {
		return false
	}
	return true
}

// Window orders list newest first and applies Offset and Limit. Academic
// years compare numerically where a database would compare them as text, so
// backends page fee structures here instead of in their queries.
func (o ListOpts) Window(list []*FeeStructure) []*FeeStructure {
	SortNewestFirst(list)

	start := min(max(o.Offset, 0), len(list))
	list = list[start:]
	if o.Limit > 0 && o.Limit < len(list) {
		list = list[:o.Limit]
	}
	return list
}
