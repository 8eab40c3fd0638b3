package ports

import "context"

type CredentialVerifier interface {
	VerifyAdmin(ctx context.Context, username, password string) bool
}
