package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingField       = errors.New("missing required field")
	ErrNotSignedIn        = errors.New("not signed in")
)

// Backend is the credential store behind the application: account creation,
// password checks and account removal. The user's profile record lives in
// the document store, not here.
type Backend interface {
	// CreateAccount registers a credential and returns the new user id.
	CreateAccount(ctx context.Context, email, password string) (string, error)
	// Authenticate verifies a credential and returns the user id.
	Authenticate(ctx context.Context, email, password string) (string, error)
	// Reauthenticate re-verifies the password of an existing user, as
	// required before destructive operations.
	Reauthenticate(ctx context.Context, userID, password string) error
	UpdateEmail(ctx context.Context, userID, email string) error
	UpdatePassword(ctx context.Context, userID, password string) error
	DeleteAccount(ctx context.Context, userID string) error
}
