package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vncsmyrnk/voteportal/internal/core/domain"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
)

const (
	MsgInvalidAdmin = "Invalid admin credentials!"
	MsgInvalidVoter = "Invalid Voter UID!"
)

// AuthController holds the identity and view flag of one tab.
type AuthController struct {
	records  *Records
	verifier ports.CredentialVerifier
	session  ports.SessionStorage
	logger   *slog.Logger

	mu       sync.RWMutex
	identity domain.Identity
	view     domain.View
}

func NewAuthController(records *Records, verifier ports.CredentialVerifier, session ports.SessionStorage, logger *slog.Logger) *AuthController {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthController{
		records:  records,
		verifier: verifier,
		session:  session,
		logger:   logger.With("component", "auth"),
		view:     domain.ViewLanding,
	}
}

// Login never fails loudly: a false return leaves the state untouched and
// the caller shows the matching message. There is no attempt limit.
func (c *AuthController) Login(ctx context.Context, kind domain.LoginKind, creds domain.Credentials) bool {
	switch kind {
	case domain.LoginAdmin:
		if !c.verifier.VerifyAdmin(ctx, creds.Username, creds.Password) {
			c.logger.Warn("admin login rejected", "username", creds.Username)
			return false
		}
		c.setIdentity(domain.AdminIdentity)
		c.logger.Info("admin logged in")
		return true

	case domain.LoginVoter:
		uid := domain.CanonicalUID(creds.UID)
		voter, ok := domain.FindVoter(c.records.Voters(ctx), uid)
		if !ok || uid == "" {
			c.logger.Warn("voter login rejected", "uid", uid)
			return false
		}
		c.setIdentity(domain.Identity(voter.UID))
		c.session.Set(domain.SessionVoterKey, voter.UID)
		c.logger.Info("voter logged in", "uid", voter.UID)
		return true
	}

	return false
}

// Restore re-attaches a voter identity remembered in session storage, as a
// page reload would. It only has an effect when the session storage outlives
// the controller: Logout clears both, so a controller never leaves voterID
// behind on its own. It reports whether an identity was restored.
func (c *AuthController) Restore(ctx context.Context) bool {
	uid, ok := c.session.Get(domain.SessionVoterKey)
	if !ok || !c.Identity().Empty() {
		return false
	}
	if _, found := domain.FindVoter(c.records.Voters(ctx), uid); !found {
		return false
	}
	c.setIdentity(domain.Identity(uid))
	return true
}

func (c *AuthController) Logout() {
	c.mu.Lock()
	previous := c.identity
	c.identity = domain.NoIdentity
	c.view = domain.ViewLanding
	c.mu.Unlock()

	c.session.Remove(domain.SessionVoterKey)
	if !previous.Empty() {
		c.logger.Info("logged out", "identity", string(previous))
	}
}

func (c *AuthController) ShowLogin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = domain.ViewLogin
}

func (c *AuthController) Identity() domain.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

func (c *AuthController) View() domain.View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

func (c *AuthController) Screen() domain.Screen {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ResolveScreen(c.view, c.identity)
}

func (c *AuthController) setIdentity(id domain.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = id
}

// ResolveScreen picks the screen a tab shows.
func ResolveScreen(view domain.View, identity domain.Identity) domain.Screen {
	switch {
	case view == domain.ViewLanding:
		return domain.ScreenLanding
	case identity.Empty():
		return domain.ScreenLogin
	case identity.IsAdmin():
		return domain.ScreenAdmin
	case identity.IsVoter():
		return domain.ScreenVoter
	}
	return domain.ScreenLogin
}
