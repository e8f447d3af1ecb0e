// Package student holds the read model of students. Students are owned by
// the user-management system; feeledger only reads them.
package student

import (
	"context"
	"sort"
	"strings"
)

type Student struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email,omitempty"`
	ClassSectionID   string `json:"class_section_id"`
	ClassSectionName string `json:"class_section_name"`
	SrNo             string `json:"sr_no,omitempty"`
	RollNo           string `json:"roll_no,omitempty"`
}

// Matches reports whether the student matches a free-text search: a
// case-insensitive substring of the name, class section, serial number or
// roll number. An empty query matches everyone.
func (s *Student) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{s.Name, s.ClassSectionName, s.SrNo, s.RollNo} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

type Store interface {
	GetStudent(ctx context.Context, studentID string) (*Student, error)
	ListStudents(ctx context.Context, opts ListOpts) ([]*Student, error)
}

// ListOpts filters students. An empty ClassSectionID lists every class.
type ListOpts struct {
	ClassSectionID string
	Limit          int
	Offset         int
}

// SortByName orders students by name, then id.
func SortByName(students []*Student) {
	sort.SliceStable(students, func(i, j int) bool {
		a, b := strings.ToLower(students[i].Name), strings.ToLower(students[j].Name)
		if a != b {
			return a < b
		}
		return students[i].ID < students[j].ID
	})
}
