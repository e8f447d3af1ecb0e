package reconcile

import (
	"fmt"

	"github.com/xraph/feeledger/feestructure"
)

// ResolveStructure picks the fee structure that applies to a class section.
//
// With an empty academicYear every year of the class section is a candidate
// and the highest year wins. Among structures of the chosen year the most
// recently updated wins, then the highest id. A duplicate_fee_structure
// anomaly is returned when more than one structure shares the chosen year.
// It returns nil when no structure matches.
func ResolveStructure(structures []*feestructure.FeeStructure, classSectionID, academicYear string) (*feestructure.FeeStructure, []Anomaly) {
	opts := feestructure.ListOpts{ClassSectionID: classSectionID, AcademicYear: academicYear}

	var chosen *feestructure.FeeStructure
	for _, fs := range structures {
		if fs == nil || !opts.Matches(fs) {
			continue
		}
		if chosen == nil || feestructure.Less(chosen, fs) {
			chosen = fs
		}
	}
	if chosen == nil {
		return nil, nil
	}

	var ignored []string
	for _, fs := range structures {
		if fs == nil || fs == chosen || !opts.Matches(fs) {
			continue
		}
		if feestructure.CompareAcademicYears(fs.AcademicYear, chosen.AcademicYear) == 0 {
			ignored = append(ignored, fs.ID.String())
		}
	}
	if len(ignored) == 0 {
		return chosen, nil
	}

	return chosen, []Anomaly{{
		Kind:           AnomalyDuplicateFeeStructure,
		ClassSectionID: chosen.ClassSectionID,
		AcademicYear:   chosen.AcademicYear,
		KeptID:         chosen.ID.String(),
		IgnoredIDs:     ignored,
		Message: fmt.Sprintf("%d fee structures for class section %s, academic year %s",
			len(ignored)+1, chosen.ClassSectionID, chosen.AcademicYear),
	}}
}
