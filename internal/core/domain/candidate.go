package domain

import "strings"

type Candidate struct {
	ElectionID  string `json:"electionID"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
}

// Choice is the identifier a voter submits for this candidate. Two candidates
// with the same name and designation share a choice.
func (c Candidate) Choice() string {
	return c.Name + "|" + c.Designation
}

// ParseChoice splits a choice back into name and designation.
func ParseChoice(choice string) (name, designation string, ok bool) {
	name, designation, ok = strings.Cut(choice, "|")
	return
}

func CandidatesFor(candidates []Candidate, electionID string) []Candidate {
	out := make([]Candidate, 0)
	for _, c := range candidates {
		if c.ElectionID == electionID {
			out = append(out, c)
		}
	}
	return out
}
