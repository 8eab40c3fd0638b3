package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vncsmyrnk/voteportal/internal/core/domain"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
)

const (
	MsgAlreadyVoted      = "You have already voted in this election!"
	MsgSelectCandidate   = "Please select a candidate to vote."
	msgVoteSubmittedTmpl = "Vote submitted successfully! Thank you. You will be logged out in %d seconds."
)

// BoothState is what the voter dashboard renders.
type BoothState struct {
	Voter             string             `json:"voter"`
	Elections         []domain.Election  `json:"elections"`
	SelectedElection  string             `json:"selected_election"`
	Candidates        []domain.Candidate `json:"candidates"`
	SelectedCandidate string             `json:"selected_candidate"`
	HasVoted          bool               `json:"has_voted"`
	Message           string             `json:"message"`
	CanSubmit         bool               `json:"can_submit"`
}

// VotingBooth is the voter dashboard of one tab. Eligibility is tracked per
// (election, voter) through vote markers in session storage.
type VotingBooth struct {
	records     *Records
	auth        *AuthController
	session     ports.SessionStorage
	scheduler   Scheduler
	logoutDelay time.Duration
	logger      *slog.Logger

	mu        sync.Mutex
	mountedAs domain.Identity
	election  string
	candidate string
	hasVoted  bool
	message   string
}

func NewVotingBooth(records *Records, auth *AuthController, session ports.SessionStorage, scheduler Scheduler, logoutDelay time.Duration, logger *slog.Logger) *VotingBooth {
	if logger == nil {
		logger = slog.Default()
	}
	return &VotingBooth{
		records:     records,
		auth:        auth,
		session:     session,
		scheduler:   scheduler,
		logoutDelay: logoutDelay,
		logger:      logger.With("component", "booth"),
	}
}

// Mount resets the dashboard for the current identity and selects the first
// active election.
func (b *VotingBooth) Mount(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mount(ctx)
}

func (b *VotingBooth) mount(ctx context.Context) {
	b.mountedAs = b.auth.Identity()
	b.election = ""
	b.candidate = ""
	if active := domain.ActiveElections(b.records.Elections(ctx)); len(active) > 0 {
		b.election = active[0].ID
	}
	b.evaluate()
}

func (b *VotingBooth) ensureMounted(ctx context.Context) {
	if b.mountedAs != b.auth.Identity() {
		b.mount(ctx)
	}
}

// evaluate refreshes hasVoted and the message for the selected election.
func (b *VotingBooth) evaluate() {
	uid := string(b.mountedAs)
	if b.election != "" && uid != "" {
		if _, voted := b.session.Get(domain.VotedKey(b.election, uid)); voted {
			b.hasVoted = true
			b.message = MsgAlreadyVoted
			return
		}
	}
	b.hasVoted = false
	b.message = ""
}

func (b *VotingBooth) SelectElection(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureMounted(ctx)

	found := false
	for _, e := range domain.ActiveElections(b.records.Elections(ctx)) {
		if e.ID == id {
			found = true
			break
		}
	}
	if !found {
		return domain.ErrElectionNotActive
	}

	b.election = id
	b.candidate = ""
	b.evaluate()
	return nil
}

func (b *VotingBooth) SelectCandidate(ctx context.Context, choice string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureMounted(ctx)
	b.candidate = choice
}

// Submit casts the selected candidate for the selected election. On success
// the tab is logged out after the configured delay.
func (b *VotingBooth) Submit(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureMounted(ctx)

	identity := b.mountedAs
	if !identity.IsVoter() {
		return domain.ErrNotVoter
	}
	if b.hasVoted {
		b.message = MsgAlreadyVoted
		return domain.ErrAlreadyVoted
	}
	if b.candidate == "" {
		b.message = MsgSelectCandidate
		return domain.ErrNoCandidateSelected
	}

	election, ok := b.activeElection(ctx)
	if !ok {
		return domain.ErrElectionNotActive
	}
	if !b.isCandidate(ctx, election.ID, b.candidate) {
		return domain.ErrInvalidCandidate
	}

	vote := domain.Vote{ElectionID: election.ID, VoterUID: string(identity), Choice: b.candidate}
	if _, exists := b.session.Get(vote.Key()); exists {
		b.hasVoted = true
		b.message = MsgAlreadyVoted
		return domain.ErrAlreadyVoted
	}
	b.session.Set(vote.Key(), vote.Choice)

	b.hasVoted = true
	b.message = fmt.Sprintf(msgVoteSubmittedTmpl, int(b.logoutDelay/time.Second))
	b.logger.Info("vote cast", "election", vote.ElectionID, "voter", vote.VoterUID)

	b.scheduler.AfterFunc(b.logoutDelay, b.auth.Logout)
	return nil
}

func (b *VotingBooth) activeElection(ctx context.Context) (domain.Election, bool) {
	for _, e := range b.records.Elections(ctx) {
		if e.ID == b.election && e.IsActive() {
			return e, true
		}
	}
	return domain.Election{}, false
}

func (b *VotingBooth) isCandidate(ctx context.Context, electionID, choice string) bool {
	for _, c := range domain.CandidatesFor(b.records.Candidates(ctx), electionID) {
		if c.Choice() == choice {
			return true
		}
	}
	return false
}

func (b *VotingBooth) State(ctx context.Context) BoothState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureMounted(ctx)

	active := domain.ActiveElections(b.records.Elections(ctx))
	candidates := make([]domain.Candidate, 0)
	if b.election != "" {
		candidates = domain.CandidatesFor(b.records.Candidates(ctx), b.election)
	}

	return BoothState{
		Voter:             string(b.mountedAs),
		Elections:         active,
		SelectedElection:  b.election,
		Candidates:        candidates,
		SelectedCandidate: b.candidate,
		HasVoted:          b.hasVoted,
		Message:           b.message,
		CanSubmit:         !b.hasVoted && len(active) > 0,
	}
}
