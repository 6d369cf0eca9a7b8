// Package session ties the lifecycle of the entity stores to the
// authenticated identity: subscriptions open when the auth provider
// reports a signed-in user and are torn down, with both stores reset, on
// sign-out. Events straggling in after teardown are dropped, never applied
// to a disposed store.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"qwitter-backend/internal/domains/auth"
	postmodel "qwitter-backend/internal/domains/post/model"
	usermodel "qwitter-backend/internal/domains/user/model"
	"qwitter-backend/internal/infrastructure/docstore"
	"qwitter-backend/internal/shared/entitystore"
)

// Session owns the reconciled mirrors and the subscriptions feeding them.
type Session struct {
	docs     docstore.Store
	provider auth.Provider
	prefs    *Prefs

	Users *entitystore.Store[usermodel.User]
	Posts *entitystore.Store[postmodel.Post]

	mu       sync.Mutex
	root     context.Context
	cancel   context.CancelFunc
	identity *auth.Identity
	gen      uint64 // increments on every teardown; stale handlers check it
}

// New creates a signed-out session with empty stores.
func New(docs docstore.Store, provider auth.Provider, prefs *Prefs) *Session {
	return &Session{
		docs:     docs,
		provider: provider,
		prefs:    prefs,
		Users:    entitystore.New[usermodel.User](),
		Posts:    entitystore.New[postmodel.Post](),
	}
}

// Start registers for auth transitions. ctx bounds every subscription the
// session will ever open.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	s.root = ctx
	s.mu.Unlock()

	s.provider.OnAuthChange(s.handleAuthChange)
}

// Identity returns the current authenticated identity, or nil.
func (s *Session) Identity() *auth.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// CurrentUser resolves the authenticated identity against the users
// mirror. The bool is false while signed out or before the user's own
// "added" event has arrived.
func (s *Session) CurrentUser() (usermodel.User, bool) {
	identity := s.Identity()
	if identity == nil {
		return usermodel.User{}, false
	}
	return s.Users.Get(identity.UserID)
}

// Prefs exposes the local preference store.
func (s *Session) Prefs() *Prefs { return s.prefs }

func (s *Session) handleAuthChange(identity *auth.Identity) {
	if identity != nil {
		s.open(identity)
		return
	}
	s.close()
}

// open starts the live subscriptions for a freshly authenticated identity.
func (s *Session) open(identity *auth.Identity) {
	s.mu.Lock()
	if s.cancel != nil {
		// Already subscribed (e.g. token refresh); keep the mirrors.
		s.identity = identity
		s.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(s.root)
	s.cancel = cancel
	s.identity = identity
	gen := s.gen
	s.mu.Unlock()

	if s.prefs != nil {
		if err := s.prefs.SetAuthenticated(true); err != nil {
			log.Warn().Err(err).Msg("failed to persist authenticated flag")
		}
	}

	err := s.docs.Subscribe(ctx, docstore.CollectionUsers, s.guard(gen, s.applyUserEvent))
	if err != nil {
		log.Error().Err(err).Msg("failed to subscribe to users")
	}
	err = s.docs.Subscribe(ctx, docstore.CollectionPosts, s.guard(gen, s.applyPostEvent))
	if err != nil {
		log.Error().Err(err).Msg("failed to subscribe to posts")
	}
}

// close tears the subscriptions down and resets both mirrors.
func (s *Session) close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.identity = nil
	s.gen++
	s.mu.Unlock()

	s.Users.Reset()
	s.Posts.Reset()

	if s.prefs != nil {
		if err := s.prefs.SetAuthenticated(false); err != nil {
			log.Warn().Err(err).Msg("failed to persist authenticated flag")
		}
	}
}

// guard wraps an event handler with a generation check so events delivered
// after teardown — by a slow transport or a source that outlives its
// context — are dropped instead of reviving a reset store.
func (s *Session) guard(gen uint64, h docstore.Handler) docstore.Handler {
	return func(evt docstore.Event) {
		s.mu.Lock()
		live := s.gen == gen
		s.mu.Unlock()
		if !live {
			return
		}
		h(evt)
	}
}

func (s *Session) applyUserEvent(evt docstore.Event) {
	if evt.Type == docstore.EventRemoved {
		s.Users.ApplyRemoved(evt.ID)
		return
	}

	u, err := usermodel.Parse(evt.Data)
	if err != nil {
		// Malformed events are dropped; the next snapshot self-heals.
		log.Debug().Err(err).Str("id", evt.ID).Msg("dropping malformed user event")
		return
	}

	switch evt.Type {
	case docstore.EventAdded:
		s.Users.ApplyAdded(u)
	case docstore.EventModified:
		s.Users.ApplyModified(u)
	}
}

func (s *Session) applyPostEvent(evt docstore.Event) {
	if evt.Type == docstore.EventRemoved {
		s.Posts.ApplyRemoved(evt.ID)
		return
	}

	p, err := postmodel.Parse(evt.Data)
	if err != nil {
		log.Debug().Err(err).Str("id", evt.ID).Msg("dropping malformed post event")
		return
	}

	switch evt.Type {
	case docstore.EventAdded:
		s.Posts.ApplyAdded(p)
	case docstore.EventModified:
		s.Posts.ApplyModified(p)
	}
}
