// Package auth registers users, checks their passwords and issues the JWTs
// that identify the acting user on every ledger call.
package auth

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// The service layer only sees this interface, so the credential scheme can
// change without touching it.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	// Returns ErrEmailExists when the email is taken.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user.
	// Returns ErrInvalidCredentials when the email is unknown or the
	// credential does not match.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
