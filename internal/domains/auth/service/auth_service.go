package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qwitter-backend/internal/domains/auth"
	"qwitter-backend/internal/domains/auth/model"
	usermodel "qwitter-backend/internal/domains/user/model"
	"qwitter-backend/internal/infrastructure/docstore"
	"qwitter-backend/internal/shared/apperrors"
)

// authMessages is the fixed provider-code to user-facing-message mapping.
// Any unmapped code falls through to the generic fallback.
var authMessages = map[string]string{
	auth.CodeInvalidEmail:  "Invalid email address",
	auth.CodeWeakPassword:  "Password must be at least 6 characters",
	auth.CodeEmailInUse:    "User already exists with this email",
	auth.CodeUserNotFound:  "Invalid credentials",
	auth.CodeWrongPassword: "Invalid credentials",
}

const fallbackMessage = "Something went wrong"

type authService struct {
	provider auth.Provider
	docs     docstore.Store
}

// NewAuthService creates the auth command dispatcher.
func NewAuthService(provider auth.Provider, docs docstore.Store) AuthService {
	return &authService{provider: provider, docs: docs}
}

// userDocument is the public user shape persisted at registration. The
// email stays with the auth provider; it is never stored for display.
type userDocument struct {
	Name          string   `json:"name"`
	Username      string   `json:"username"`
	Bio           string   `json:"bio,omitempty"`
	ProfilePicURL string   `json:"profilePicUrl,omitempty"`
	CoverPicURL   string   `json:"coverPicUrl,omitempty"`
	Followers     []string `json:"followers"`
	Following     []string `json:"following"`
	CreatedAt     string   `json:"createdAt"`
}

func (s *authService) Register(ctx context.Context, req model.RegisterRequest) (model.Session, error) {
	if err := usermodel.ValidateUsername(req.Username); err != nil {
		return model.Session{}, apperrors.Validation(err.Error())
	}

	// Uniqueness pre-check. Two concurrent registrations of the same
	// username can both pass it; the window is accepted, not closed.
	taken, err := s.docs.Query(ctx, docstore.CollectionUsers, "username", req.Username)
	if err != nil {
		return model.Session{}, apperrors.RemoteRead(fmt.Errorf("check username: %w", err))
	}
	if len(taken) > 0 {
		return model.Session{}, apperrors.Validation("Username is taken")
	}

	identity, err := s.provider.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return model.Session{}, mapAuthError(err)
	}

	// The user document is keyed by the auth identity, making id lookups
	// from session state direct.
	doc := userDocument{
		Name:      req.Name,
		Username:  req.Username,
		Followers: []string{},
		Following: []string{},
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.docs.InsertWithID(ctx, docstore.CollectionUsers, identity.UserID, doc); err != nil {
		return model.Session{}, apperrors.RemoteWrite(fmt.Errorf("store user: %w", err))
	}

	return model.Session{UserID: identity.UserID, Email: identity.Email, Username: req.Username}, nil
}

func (s *authService) Login(ctx context.Context, req model.LoginRequest) (model.Session, error) {
	identity, err := s.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return model.Session{}, mapAuthError(err)
	}

	sess := model.Session{UserID: identity.UserID, Email: identity.Email}

	// Resolve the public username for the session token. A missing user
	// document only degrades the token; sign-in itself already succeeded.
	var u usermodel.User
	if err := s.docs.GetByID(ctx, docstore.CollectionUsers, identity.UserID, &u); err == nil {
		sess.Username = u.Username
	}

	return sess, nil
}

func (s *authService) Logout(ctx context.Context) error {
	return s.provider.SignOut(ctx)
}

// mapAuthError rewrites provider failures through the fixed message table.
// Non-auth errors (remote read/write failures) pass through unchanged.
func mapAuthError(err error) error {
	var e *apperrors.Error
	if !errors.As(err, &e) || e.Kind != apperrors.KindAuth {
		return err
	}

	msg, ok := authMessages[e.Code]
	if !ok {
		msg = fallbackMessage
	}
	return apperrors.Auth(e.Code, msg)
}
