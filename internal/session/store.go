// Package session owns the client's only process-wide mutable state: the
// authentication credential and the cached current user. All mutation goes
// through the Store; consumers observe changes through subscriptions.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mkravets/binderbot/internal/domain"
)

// AuthAPI is the slice of the marketplace gateway the store needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
	SocialExchange(ctx context.Context, providerToken string) (domain.Session, error)
	Logout(ctx context.Context) error
}

// EventType identifies a session state change.
type EventType string

const (
	EventLogin       EventType = "login"
	EventLogout      EventType = "logout"
	EventUserUpdated EventType = "user_updated"
)

// Event is broadcast to subscribers on every session change.
type Event struct {
	Type EventType
	User *domain.UserSummary // nil on logout
}

// Store holds the session and broadcasts changes. It is safe for concurrent
// use.
type Store struct {
	api    AuthAPI
	vault  Vault
	logger *slog.Logger

	mu      sync.RWMutex
	session domain.Session
	subs    map[int]func(Event)
	nextSub int
}

// NewStore creates a Store. vault may not be nil; use NewFileVault with a
// temp path in tests.
func NewStore(api AuthAPI, vault Vault, logger *slog.Logger) *Store {
	return &Store{
		api:    api,
		vault:  vault,
		logger: logger.With(slog.String("component", "session")),
		subs:   make(map[int]func(Event)),
	}
}

// Subscribe registers fn to be called synchronously on every session event.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Restore loads a previously persisted session from the vault, if any.
func (s *Store) Restore() (bool, error) {
	sess, ok, err := s.vault.Load()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	s.logger.Info("session restored from vault", slog.String("user_id", sess.User.ID))
	s.broadcast(Event{Type: EventLogin, User: sess.User})
	return true, nil
}

// Login authenticates with email and password. Empty inputs are rejected
// before any network dispatch. On success the session is persisted and
// subscribers are notified.
func (s *Store) Login(ctx context.Context, email, password string) (domain.UserSummary, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return domain.UserSummary{}, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	sess, err := s.api.Login(ctx, email, password)
	if err != nil {
		return domain.UserSummary{}, err
	}
	return s.adopt(sess)
}

// SocialExchange authenticates by exchanging a third-party identity provider
// token. Same contract as Login, alternate credential source.
func (s *Store) SocialExchange(ctx context.Context, providerToken string) (domain.UserSummary, error) {
	if strings.TrimSpace(providerToken) == "" {
		return domain.UserSummary{}, fmt.Errorf("%w: provider token is required", domain.ErrValidation)
	}

	sess, err := s.api.SocialExchange(ctx, providerToken)
	if err != nil {
		return domain.UserSummary{}, err
	}
	return s.adopt(sess)
}

// adopt installs a freshly authenticated session and broadcasts the login.
func (s *Store) adopt(sess domain.Session) (domain.UserSummary, error) {
	if sess.User == nil {
		return domain.UserSummary{}, fmt.Errorf("session: server returned no user")
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	if err := s.vault.Save(sess); err != nil {
		// The in-memory session is still valid; only persistence failed.
		s.logger.Warn("persisting session failed", slog.String("error", err.Error()))
	}

	s.broadcast(Event{Type: EventLogin, User: sess.User})
	return *sess.User, nil
}

// Logout notifies the server (best effort, failure ignored) and always clears
// the local session, notifying subscribers synchronously.
func (s *Store) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		s.logger.Warn("server logout failed, clearing locally anyway",
			slog.String("error", err.Error()),
		)
	}
	s.teardown()
}

// ForceLogout clears the session without a server round trip. It is the
// teardown hook the gateway fires on an authentication-rejected response.
// Idempotent: only the first call per authenticated period has any effect, so
// a burst of concurrent 401s produces a single logout broadcast.
func (s *Store) ForceLogout() {
	if s.teardown() {
		s.logger.Warn("session torn down after authentication rejection")
	}
}

// teardown clears local state and reports whether there was a session to
// clear.
func (s *Store) teardown() bool {
	s.mu.Lock()
	if !s.session.Authenticated() {
		s.mu.Unlock()
		return false
	}
	s.session = domain.Session{}
	s.mu.Unlock()

	if err := s.vault.Clear(); err != nil {
		s.logger.Warn("clearing session vault failed", slog.String("error", err.Error()))
	}

	s.broadcast(Event{Type: EventLogout})
	return true
}

// UpdateUser merges partial profile edits into the cached user and persists
// the result, so every consumer sees the change without a re-fetch.
func (s *Store) UpdateUser(patch domain.UserPatch) {
	s.mu.Lock()
	if s.session.User == nil {
		s.mu.Unlock()
		return
	}
	updated := *s.session.User
	patch.Apply(&updated)
	s.session.User = &updated
	sess := s.session
	s.mu.Unlock()

	if err := s.vault.Save(sess); err != nil {
		s.logger.Warn("persisting updated user failed", slog.String("error", err.Error()))
	}

	s.broadcast(Event{Type: EventUserUpdated, User: &updated})
}

// Token returns the current credential. ok is false when not authenticated.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token, s.session.Authenticated()
}

// CurrentUser returns a copy of the cached user. ok is false when not
// authenticated.
func (s *Store) CurrentUser() (domain.UserSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session.User == nil {
		return domain.UserSummary{}, false
	}
	return *s.session.User, true
}

// Authenticated reports whether a credential is held.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Authenticated()
}

// broadcast calls every subscriber with the event. Subscribers run outside
// the store lock so they may call back into the store.
func (s *Store) broadcast(ev Event) {
	s.mu.RLock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
