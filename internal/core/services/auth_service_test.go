package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/voteportal/internal/core/domain"
)

func TestAuthInitialState(t *testing.T) {
	auth, _ := newTestAuth(newTestRecords())

	assert.Equal(t, domain.ViewLanding, auth.View())
	assert.True(t, auth.Identity().Empty())
	assert.Equal(t, domain.ScreenLanding, auth.Screen())
}

func TestAuthAdminLoginRejectsOtherCredentials(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuth(newTestRecords())
	auth.ShowLogin()

	cases := []domain.Credentials{
		{Username: "admin", Password: "admin"},
		{Username: "Admin", Password: "admin123"},
		{Username: "admin", Password: "admin123 "},
		{Username: "", Password: ""},
		{Username: "root", Password: "admin123"},
	}
	for _, creds := range cases {
		assert.False(t, auth.Login(ctx, domain.LoginAdmin, creds), "%+v", creds)
		assert.True(t, auth.Identity().Empty())
	}
	assert.Equal(t, domain.ScreenLogin, auth.Screen())
}

func TestAuthAdminLogin(t *testing.T) {
	auth, _ := newTestAuth(newTestRecords())
	auth.ShowLogin()

	require.True(t, auth.Login(context.Background(), domain.LoginAdmin, domain.Credentials{Username: "admin", Password: "admin123"}))
	assert.Equal(t, domain.AdminIdentity, auth.Identity())
	assert.Equal(t, domain.ScreenAdmin, auth.Screen())
}

func TestAuthVoterLoginAnyCasing(t *testing.T) {
	ctx := context.Background()
	records := newTestRecords()
	seedRoster(t, records,
		domain.Voter{UID: "V001", Name: "ALICE", Class: "5A", Color: "RED"},
		domain.Voter{UID: "V002", Name: "BOB", Class: "5B", Color: "BLUE"},
	)

	for _, typed := range []string{"V001", "v001", "  v001  ", "\tV001\n"} {
		auth, sess := newTestAuth(records)
		require.True(t, auth.Login(ctx, domain.LoginVoter, domain.Credentials{UID: typed}), typed)
		assert.Equal(t, domain.Identity("V001"), auth.Identity())

		stored, ok := sess.Get(domain.SessionVoterKey)
		require.True(t, ok)
		assert.Equal(t, "V001", stored)
	}
}

func TestAuthVoterLoginUnknownUID(t *testing.T) {
	ctx := context.Background()
	records := newTestRecords()
	seedRoster(t, records, domain.Voter{UID: "V001", Name: "ALICE", Class: "5A", Color: "RED"})

	auth, sess := newTestAuth(records)
	assert.False(t, auth.Login(ctx, domain.LoginVoter, domain.Credentials{UID: "V009"}))
	assert.False(t, auth.Login(ctx, domain.LoginVoter, domain.Credentials{UID: ""}))
	assert.True(t, auth.Identity().Empty())
	assert.Empty(t, sess.Keys())
}

func TestAuthLogout(t *testing.T) {
	ctx := context.Background()
	records := newTestRecords()
	seedRoster(t, records, domain.Voter{UID: "V001", Name: "ALICE", Class: "5A", Color: "RED"})

	auth, sess := newTestAuth(records)
	auth.ShowLogin()
	require.True(t, auth.Login(ctx, domain.LoginVoter, domain.Credentials{UID: "v001"}))
	sess.Set(domain.VotedKey("E1", "V001"), "Bob|President")

	auth.Logout()

	assert.True(t, auth.Identity().Empty())
	assert.Equal(t, domain.ViewLanding, auth.View())
	_, ok := sess.Get(domain.SessionVoterKey)
	assert.False(t, ok)
	_, ok = sess.Get(domain.VotedKey("E1", "V001"))
	assert.True(t, ok, "vote markers outlive the login")
}

func TestAuthShowLoginKeepsIdentity(t *testing.T) {
	auth, _ := newTestAuth(newTestRecords())
	require.True(t, auth.Login(context.Background(), domain.LoginAdmin, domain.Credentials{Username: "admin", Password: "admin123"}))

	auth.ShowLogin()

	assert.Equal(t, domain.AdminIdentity, auth.Identity())
	assert.Equal(t, domain.ScreenAdmin, auth.Screen())
}

func TestAuthRestore(t *testing.T) {
	ctx := context.Background()
	records := newTestRecords()
	seedRoster(t, records, domain.Voter{UID: "V001", Name: "ALICE", Class: "5A", Color: "RED"})

	auth, sess := newTestAuth(records)
	assert.False(t, auth.Restore(ctx))

	sess.Set(domain.SessionVoterKey, "V001")
	require.True(t, auth.Restore(ctx))
	assert.Equal(t, domain.Identity("V001"), auth.Identity())

	other, otherSess := newTestAuth(records)
	otherSess.Set(domain.SessionVoterKey, "V404")
	assert.False(t, other.Restore(ctx))
}

func TestAuthRestoreWithSurvivingSession(t *testing.T) {
	ctx := context.Background()
	records := newTestRecords()
	seedRoster(t, records, domain.Voter{UID: "V001", Name: "ALICE", Class: "5A", Color: "RED"})

	first, sess := newTestAuth(records)
	require.True(t, first.Login(ctx, domain.LoginVoter, domain.Credentials{UID: "v001"}))

	reloaded := NewAuthController(records, testVerifier, sess, discardLogger)
	require.True(t, reloaded.Restore(ctx))
	assert.Equal(t, domain.Identity("V001"), reloaded.Identity())

	reloaded.Logout()
	again := NewAuthController(records, testVerifier, sess, discardLogger)
	assert.False(t, again.Restore(ctx), "logout forgets the remembered uid")
}

func TestResolveScreen(t *testing.T) {
	cases := []struct {
		view     domain.View
		identity domain.Identity
		want     domain.Screen
	}{
		{domain.ViewLanding, domain.NoIdentity, domain.ScreenLanding},
		{domain.ViewLanding, domain.AdminIdentity, domain.ScreenLanding},
		{domain.ViewLogin, domain.NoIdentity, domain.ScreenLogin},
		{domain.ViewLogin, domain.AdminIdentity, domain.ScreenAdmin},
		{domain.ViewLogin, domain.Identity("V001"), domain.ScreenVoter},
		{domain.ViewLogin, domain.Identity("X001"), domain.ScreenLogin},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ResolveScreen(c.view, c.identity), "%s/%s", c.view, c.identity)
	}
}
