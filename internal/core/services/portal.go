package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/voteportal/internal/core/domain"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
)

const (
	DefaultLogoutDelay      = 3 * time.Second
	DefaultStatusClearDelay = 3 * time.Second
	DefaultMaxTabsPerClient = 32
)

type PortalConfig struct {
	LogoutDelay      time.Duration
	StatusClearDelay time.Duration
	// MaxTabsPerClient bounds the open tabs of one client address. Opening
	// one more closes that client's least recently used tab.
	MaxTabsPerClient int
	Scheduler        Scheduler
	Logger           *slog.Logger
}

// UserImportView is the admin dashboard's generated user list.
type UserImportView struct {
	mu     sync.RWMutex
	users  []domain.GeneratedUser
	filter string
}

func (v *UserImportView) Replace(users []domain.GeneratedUser) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.users = users
}

func (v *UserImportView) SetFilter(filter string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = filter
}

func (v *UserImportView) Filter() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filter
}

// Filtered returns the users matching the current filter.
func (v *UserImportView) Filtered() []domain.GeneratedUser {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]domain.GeneratedUser, 0, len(v.users))
	for _, u := range v.users {
		if u.Matches(v.filter) {
			out = append(out, u)
		}
	}
	return out
}

// Tab is one browser tab: its own session storage and controllers over the
// shared records.
type Tab struct {
	ID          string
	Session     ports.SessionStorage
	Auth        *AuthController
	Booth       *VotingBooth
	Users       *UserImportView
	VoterStatus *StatusLine
	UserStatus  *StatusLine

	client   string
	lastSeen time.Time
}

// Portal owns the shared services and the open tabs.
type Portal struct {
	Records    *Records
	Admin      ports.AdminService
	Roster     ports.RosterService
	verifier   ports.CredentialVerifier
	newSession func() ports.SessionStorage
	cfg        PortalConfig
	logger     *slog.Logger

	mu   sync.Mutex
	tabs map[string]*Tab
}

// NewPortal wires the shared services. newSession builds the session storage
// of every new tab.
func NewPortal(records *Records, verifier ports.CredentialVerifier, newSession func() ports.SessionStorage, cfg PortalConfig) *Portal {
	if cfg.LogoutDelay <= 0 {
		cfg.LogoutDelay = DefaultLogoutDelay
	}
	if cfg.StatusClearDelay <= 0 {
		cfg.StatusClearDelay = DefaultStatusClearDelay
	}
	if cfg.MaxTabsPerClient <= 0 {
		cfg.MaxTabsPerClient = DefaultMaxTabsPerClient
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = SystemScheduler{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	uids := NewUIDGenerator(records)
	return &Portal{
		Records:    records,
		Admin:      NewAdminService(records, uids, cfg.Logger),
		Roster:     NewRosterService(records, uids, cfg.Logger),
		verifier:   verifier,
		newSession: newSession,
		cfg:        cfg,
		logger:     cfg.Logger.With("component", "portal"),
		tabs:       make(map[string]*Tab),
	}
}

// OpenTab registers a new tab for client, usually the remote address.
func (p *Portal) OpenTab(client string) *Tab {
	session := p.newSession()
	auth := NewAuthController(p.Records, p.verifier, session, p.cfg.Logger)
	tab := &Tab{
		ID:          uuid.NewString(),
		Session:     session,
		Auth:        auth,
		Booth:       NewVotingBooth(p.Records, auth, session, p.cfg.Scheduler, p.cfg.LogoutDelay, p.cfg.Logger),
		Users:       &UserImportView{},
		VoterStatus: NewStatusLine(p.cfg.Scheduler, p.cfg.StatusClearDelay),
		UserStatus:  NewStatusLine(p.cfg.Scheduler, p.cfg.StatusClearDelay),
		client:      client,
		lastSeen:    time.Now(),
	}

	p.mu.Lock()
	evicted := p.evictOverLimit(client)
	p.tabs[tab.ID] = tab
	p.mu.Unlock()

	if evicted != "" {
		p.logger.Info("tab limit reached, closed least recently used tab", "client", client, "tab", evicted)
	}
	p.logger.Debug("tab opened", "tab", tab.ID, "client", client)
	return tab
}

// evictOverLimit makes room for one more tab of client. It must be called
// with p.mu held and returns the id of the closed tab, if any.
func (p *Portal) evictOverLimit(client string) string {
	var (
		oldest *Tab
		count  int
	)
	for _, tab := range p.tabs {
		if tab.client != client {
			continue
		}
		count++
		if oldest == nil || tab.lastSeen.Before(oldest.lastSeen) {
			oldest = tab
		}
	}
	if count < p.cfg.MaxTabsPerClient {
		return ""
	}
	delete(p.tabs, oldest.ID)
	return oldest.ID
}

func (p *Portal) Tab(id string) (*Tab, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tab, ok := p.tabs[id]
	if !ok {
		return nil, domain.ErrTabNotFound
	}
	tab.lastSeen = time.Now()
	return tab, nil
}

// CloseTab drops the tab and its session storage.
func (p *Portal) CloseTab(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.tabs, id)
}

// PruneIdle closes tabs not used for longer than maxIdle and returns how many
// were closed.
func (p *Portal) PruneIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for id, tab := range p.tabs {
		if tab.lastSeen.Before(cutoff) {
			delete(p.tabs, id)
			n++
		}
	}
	return n
}

// ImportVoters replaces the roster from the uploaded file and posts the
// outcome on the tab's voter status line.
func (p *Portal) ImportVoters(ctx context.Context, tab *Tab, codec ports.TableCodec, r io.Reader) (ports.ImportResult, error) {
	result, err := p.Roster.ImportVoters(ctx, codec, r)
	if err != nil {
		p.logger.Warn("voter import failed", "tab", tab.ID, "error", err)
	}
	tab.VoterStatus.Post(ImportStatusMessage(err))
	return result, err
}

// GenerateUsers fills the tab's user import view from the uploaded file.
func (p *Portal) GenerateUsers(ctx context.Context, tab *Tab, codec ports.TableCodec, r io.Reader) ([]domain.GeneratedUser, error) {
	users, err := p.Roster.GenerateUsers(ctx, codec, r)
	if err != nil {
		p.logger.Warn("user import failed", "tab", tab.ID, "error", err)
	} else {
		tab.Users.Replace(users)
	}
	tab.UserStatus.Post(ImportStatusMessage(err))
	return users, err
}
