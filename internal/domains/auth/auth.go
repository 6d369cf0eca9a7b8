// Package auth defines the authentication provider contract and the error
// codes it reports. The provider owns credentials and sign-in state; the
// auth service maps its codes onto user-facing messages.
package auth

import "context"

// Identity is an authenticated principal. UserID doubles as the user
// document id.
type Identity struct {
	UserID string
	Email  string
}

// AuthChangeFunc observes sign-in state. It receives the current identity,
// or nil when signed out, whenever the state changes.
type AuthChangeFunc func(*Identity)

// Provider is the authentication service contract.
type Provider interface {
	// OnAuthChange registers a listener for sign-in state transitions.
	OnAuthChange(cb AuthChangeFunc)

	// SignUp creates credentials and signs the new identity in.
	SignUp(ctx context.Context, email, password string) (Identity, error)

	// SignIn authenticates existing credentials.
	SignIn(ctx context.Context, email, password string) (Identity, error)

	// SignOut clears the current identity.
	SignOut(ctx context.Context) error
}

// Provider error codes, mapped to user-facing messages by the auth
// service. Unmapped codes fall back to a generic message.
const (
	CodeInvalidEmail  = "auth/invalid-email"
	CodeWeakPassword  = "auth/weak-password"
	CodeEmailInUse    = "auth/email-already-in-use"
	CodeUserNotFound  = "auth/user-not-found"
	CodeWrongPassword = "auth/wrong-password"
)
