package credentials

import (
	"context"
	"crypto/subtle"

	"github.com/vncsmyrnk/voteportal/internal/core/ports"
)

const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
)

// StaticVerifier accepts exactly one username/password pair.
type StaticVerifier struct {
	username string
	password string
}

func NewStaticVerifier(username, password string) ports.CredentialVerifier {
	return &StaticVerifier{username: username, password: password}
}

// NewDefaultVerifier accepts admin/admin123.
func NewDefaultVerifier() ports.CredentialVerifier {
	return NewStaticVerifier(DefaultAdminUsername, DefaultAdminPassword)
}

func (v *StaticVerifier) VerifyAdmin(_ context.Context, username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(v.password)) == 1
	return userOK && passOK
}
