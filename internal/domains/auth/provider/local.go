// Package provider implements the authentication contract over the
// document store: bcrypt-hashed credentials in their own collection,
// listeners notified on every sign-in state transition.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/crypto/bcrypt"

	"qwitter-backend/internal/domains/auth"
	"qwitter-backend/internal/infrastructure/docstore"
	"qwitter-backend/internal/shared/apperrors"
)

// MinPasswordLength matches the weak-password rule.
const MinPasswordLength = 6

type credentialDocument struct {
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    string `json:"createdAt"`
}

type credentialRecord struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// Local is the docstore-backed auth provider.
type Local struct {
	docs docstore.Store

	mu        sync.Mutex
	listeners []auth.AuthChangeFunc
	current   *auth.Identity
}

// NewLocal creates a signed-out provider.
func NewLocal(docs docstore.Store) *Local {
	return &Local{docs: docs}
}

func (l *Local) OnAuthChange(cb auth.AuthChangeFunc) {
	l.mu.Lock()
	l.listeners = append(l.listeners, cb)
	current := l.current
	l.mu.Unlock()

	// New listeners immediately learn the current state.
	cb(current)
}

func (l *Local) SignUp(ctx context.Context, email, password string) (auth.Identity, error) {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return auth.Identity{}, apperrors.Auth(auth.CodeInvalidEmail, "Invalid email address")
	}
	if len(password) < MinPasswordLength {
		return auth.Identity{}, apperrors.Auth(auth.CodeWeakPassword,
			fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}

	existing, err := l.docs.Query(ctx, docstore.CollectionCredentials, "email", email)
	if err != nil {
		return auth.Identity{}, apperrors.RemoteRead(fmt.Errorf("check email: %w", err))
	}
	if len(existing) > 0 {
		return auth.Identity{}, apperrors.Auth(auth.CodeEmailInUse, "User already exists with this email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	id, err := l.docs.Insert(ctx, docstore.CollectionCredentials, credentialDocument{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return auth.Identity{}, apperrors.RemoteWrite(fmt.Errorf("store credentials: %w", err))
	}

	identity := auth.Identity{UserID: id, Email: email}
	l.setCurrent(&identity)
	return identity, nil
}

func (l *Local) SignIn(ctx context.Context, email, password string) (auth.Identity, error) {
	matches, err := l.docs.Query(ctx, docstore.CollectionCredentials, "email", email)
	if err != nil {
		return auth.Identity{}, apperrors.RemoteRead(fmt.Errorf("look up credentials: %w", err))
	}
	if len(matches) == 0 {
		return auth.Identity{}, apperrors.Auth(auth.CodeUserNotFound, "Invalid credentials")
	}

	var rec credentialRecord
	if err := json.Unmarshal(matches[0], &rec); err != nil {
		return auth.Identity{}, apperrors.RemoteRead(fmt.Errorf("decode credentials: %w", err))
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return auth.Identity{}, apperrors.Auth(auth.CodeWrongPassword, "Invalid credentials")
	}

	identity := auth.Identity{UserID: rec.ID, Email: rec.Email}
	l.setCurrent(&identity)
	return identity, nil
}

func (l *Local) SignOut(ctx context.Context) error {
	l.setCurrent(nil)
	return nil
}

// Current returns the current identity, or nil when signed out.
func (l *Local) Current() *auth.Identity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

func (l *Local) setCurrent(identity *auth.Identity) {
	l.mu.Lock()
	l.current = identity
	listeners := make([]auth.AuthChangeFunc, len(l.listeners))
	copy(listeners, l.listeners)
	l.mu.Unlock()

	for _, cb := range listeners {
		cb(identity)
	}
}
