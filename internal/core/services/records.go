package services

import (
	"context"
	"sync"

	"github.com/vncsmyrnk/voteportal/internal/core/domain"
)

// Records gives typed access to the three record lists. Mutations go through
// a single lock so that read-modify-write cycles of one process do not
// interleave; other processes still win by writing last.
type Records struct {
	store *Store
	mu    sync.Mutex
}

func NewRecords(store *Store) *Records {
	return &Records{store: store}
}

func (r *Records) Store() *Store {
	return r.store
}

func (r *Records) Elections(ctx context.Context) []domain.Election {
	return Get(ctx, r.store, domain.KeyElections, []domain.Election{})
}

func (r *Records) Candidates(ctx context.Context) []domain.Candidate {
	return Get(ctx, r.store, domain.KeyCandidates, []domain.Candidate{})
}

func (r *Records) Voters(ctx context.Context) []domain.Voter {
	return Get(ctx, r.store, domain.KeyVoters, []domain.Voter{})
}

func (r *Records) SetVoters(ctx context.Context, voters []domain.Voter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	Set(ctx, r.store, domain.KeyVoters, voters)
}

func (r *Records) UpdateElections(ctx context.Context, fn func([]domain.Election) []domain.Election) {
	r.mu.Lock()
	defer r.mu.Unlock()
	Set(ctx, r.store, domain.KeyElections, fn(r.Elections(ctx)))
}

func (r *Records) UpdateCandidates(ctx context.Context, fn func([]domain.Candidate) []domain.Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	Set(ctx, r.store, domain.KeyCandidates, fn(r.Candidates(ctx)))
}

func (r *Records) UpdateVoters(ctx context.Context, fn func([]domain.Voter) []domain.Voter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	Set(ctx, r.store, domain.KeyVoters, fn(r.Voters(ctx)))
}

// DeleteElection removes every election with the id and every candidate
// referencing it. It reports whether an election was removed.
func (r *Records) DeleteElection(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	elections := r.Elections(ctx)
	kept := make([]domain.Election, 0, len(elections))
	for _, e := range elections {
		if e.ID != id {
			kept = append(kept, e)
		}
	}

	candidates := r.Candidates(ctx)
	keptCandidates := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ElectionID != id {
			keptCandidates = append(keptCandidates, c)
		}
	}

	if len(kept) != len(elections) {
		Set(ctx, r.store, domain.KeyElections, kept)
	}
	if len(keptCandidates) != len(candidates) {
		Set(ctx, r.store, domain.KeyCandidates, keptCandidates)
	}
	return len(kept) != len(elections)
}
