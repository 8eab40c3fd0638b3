package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/vncsmyrnk/voteportal/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/voteportal/internal/adapters/session"
	"github.com/vncsmyrnk/voteportal/internal/core/domain"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// manualScheduler runs scheduled funcs only when Fire is called.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []scheduledTask
}

type scheduledTask struct {
	delay time.Duration
	fn    func()
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, scheduledTask{delay: d, fn: f})
}

func (s *manualScheduler) Pending() []scheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scheduledTask(nil), s.tasks...)
}

func (s *manualScheduler) Fire() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()
	for _, t := range tasks {
		t.fn()
	}
}

// flakyBackend wraps a backend and fails on demand.
type flakyBackend struct {
	ports.KVBackend
	failReads  bool
	failWrites bool
}

var errBackend = errors.New("backend unavailable")

func (b *flakyBackend) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if b.failReads {
		return nil, false, errBackend
	}
	return b.KVBackend.Read(ctx, key)
}

func (b *flakyBackend) Write(ctx context.Context, key string, value []byte) error {
	if b.failWrites {
		return errBackend
	}
	return b.KVBackend.Write(ctx, key, value)
}

func newTestStore() *Store {
	return NewStore(memory.NewKVRepository(nil), discardLogger)
}

func newTestRecords() *Records {
	return NewRecords(newTestStore())
}

type staticVerifier struct{ user, pass string }

func (v staticVerifier) VerifyAdmin(_ context.Context, u, p string) bool {
	return u == v.user && p == v.pass
}

var testVerifier = staticVerifier{user: "admin", pass: "admin123"}

func newTestAuth(records *Records) (*AuthController, ports.SessionStorage) {
	s := session.NewMemory()
	return NewAuthController(records, testVerifier, s, discardLogger), s
}

func seedRoster(t *testing.T, records *Records, voters ...domain.Voter) {
	t.Helper()
	records.SetVoters(context.Background(), voters)
}

func portsVoter(name string) ports.AddVoterInput {
	return ports.AddVoterInput{Name: name, Class: "5A", Color: "RED"}
}

func portsElection(id string) ports.AddElectionInput {
	return ports.AddElectionInput{ID: id, Name: "Election " + id, Status: domain.StatusActive, Date: "2024-02-01"}
}

func portsCandidate(electionID, name, designation string) ports.AddCandidateInput {
	return ports.AddCandidateInput{ElectionID: electionID, Name: name, Designation: designation}
}
