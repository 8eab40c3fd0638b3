package credentials

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vncsmyrnk/voteportal/internal/core/ports"
	"golang.org/x/crypto/bcrypt"
)

// BcryptVerifier checks the admin password against a bcrypt hash.
type BcryptVerifier struct {
	username string
	hash     []byte
	logger   *slog.Logger
}

func NewBcryptVerifier(username, hash string, logger *slog.Logger) (ports.CredentialVerifier, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("failed to parse admin password hash: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BcryptVerifier{
		username: username,
		hash:     []byte(hash),
		logger:   logger.With("component", "credentials"),
	}, nil
}

func (v *BcryptVerifier) VerifyAdmin(_ context.Context, username, password string) bool {
	if username != v.username {
		return false
	}
	err := bcrypt.CompareHashAndPassword(v.hash, []byte(password))
	if err != nil && err != bcrypt.ErrMismatchedHashAndPassword {
		v.logger.Error("failed to compare admin password", "error", err)
	}
	return err == nil
}

// HashPassword is used by tooling to produce a hash for the config file.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
