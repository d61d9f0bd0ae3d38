package auth

import (
	"context"
)

// Authenticator defines the interface for coordinator authentication.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Authenticate verifies the credential and returns the authenticated subject.
	// Returns ErrInvalidCredentials if authentication fails.
	Authenticate(ctx context.Context, credential string) (string, error)
}
