package student

import "testing"

func TestMatches(t *testing.T) {
	s := &Student{ID: "u1", Name: "Asha Verma", ClassSectionName: "10-A", SrNo: "SR-0042", RollNo: "17"}

	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"asha", true},
		{"VERMA", true},
		{"10-a", true},
		{"sr-00", true},
		{"17", true},
		{"  asha  ", true},
		{"ravi", false},
		{"10-b", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := s.Matches(tt.query); got != tt.want {
				t.Errorf("Matches(%q): got %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestSortByName(t *testing.T) {
	students := []*Student{
		{ID: "3", Name: "charu"},
		{ID: "2", Name: "Bina"},
		{ID: "1", Name: "bina"},
		{ID: "4", Name: "Arjun"},
	}
	SortByName(students)

	want := []string{"4", "1", "2", "3"}
	for i, id := range want {
		if students[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, students[i].ID, id)
		}
	}
}
