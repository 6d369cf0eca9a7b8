package service

import (
	"context"

	"qwitter-backend/internal/domains/auth/model"
)

// AuthService runs the registration and sign-in flows against the auth
// provider and the users collection.
type AuthService interface {
	// Register validates the username, pre-checks its uniqueness,
	// creates the auth identity, and persists the public user document
	// keyed by that identity.
	Register(ctx context.Context, req model.RegisterRequest) (model.Session, error)

	// Login authenticates existing credentials and resolves the public
	// username for the session.
	Login(ctx context.Context, req model.LoginRequest) (model.Session, error)

	// Logout clears the current identity.
	Logout(ctx context.Context) error
}
