package ports

import (
	"context"

	"github.com/vncsmyrnk/voteportal/internal/core/domain"
)

type AddElectionInput struct {
	ID     string
	Name   string
	Status domain.ElectionStatus
	Date   string
}

type AddCandidateInput struct {
	ElectionID  string
	Name        string
	Designation string
}

type AddVoterInput struct {
	Name  string
	Class string
	Color string
}

// CandidateRow is a candidate as listed in the admin panel, with the
// election's display name resolved.
type CandidateRow struct {
	Index        int              `json:"index"`
	ElectionName string           `json:"election_name"`
	Candidate    domain.Candidate `json:"candidate"`
}

type AdminService interface {
	ListElections(ctx context.Context) []domain.Election
	AddElection(ctx context.Context, input AddElectionInput) (*domain.Election, error)
	DeleteElection(ctx context.Context, id string) error

	ListCandidates(ctx context.Context) []domain.Candidate
	CandidateRows(ctx context.Context) []CandidateRow
	AddCandidate(ctx context.Context, input AddCandidateInput) (*domain.Candidate, error)
	DeleteCandidate(ctx context.Context, index int) error

	ListVoters(ctx context.Context) []domain.Voter
	AddVoter(ctx context.Context, input AddVoterInput) (*domain.Voter, error)
	DeleteVoter(ctx context.Context, uid string) error
}

type UIDGenerator interface {
	Next(ctx context.Context) (string, error)
}
