// Package session owns the client's authentication state: the startup
// re-validation of a stored token, login, logout and profile refresh, and the
// fan-out of every change to subscribed consumers.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/naveenspark/investa/internal/logging"
	"github.com/naveenspark/investa/internal/tokenstore"
	"github.com/naveenspark/investa/pkg/domain"
)

// Status is the coarse session state consumers gate on.
type Status int

const (
	Initializing Status = iota
	Unauthenticated
	Authenticated
	// Error is Unauthenticated plus the last failure reason, for display.
	Error
)

func (s Status) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case Error:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

var (
	// ErrNotAuthenticated is returned by operations that need an authenticated session.
	ErrNotAuthenticated = errors.New("session: not authenticated")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session: closed")
	// ErrSuperseded is returned when the token a caller acted on is no longer
	// the session's token.
	ErrSuperseded = errors.New("session: superseded")
)

// Snapshot is an immutable view of the session at one point in time.
// Token and User are both set exactly when Status is Authenticated.
type Snapshot struct {
	Status Status
	Token  string
	User   *domain.User
	Err    error
}

// Authenticated reports whether the snapshot carries a validated session.
func (s Snapshot) Authenticated() bool {
	return s.Status == Authenticated
}

// clone gives each reader its own copy of the user record.
func (s Snapshot) clone() Snapshot {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// API is the subset of the auth client the session calls itself.
type API interface {
	Me(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
}

// Session is the single mutable session cell. All methods are safe for
// concurrent use.
//
// Every method that changes state bumps a generation counter. Start records the
// generation before validating and drops its result if it has moved, so an
// explicit login or logout always supersedes a startup validation that is
// still in flight. RefreshUser and Expire serve callers that fetched with a
// token they read earlier; they only apply while that token is still current.
type Session struct {
	store  tokenstore.Store
	api    API
	logger *slog.Logger

	mu      sync.Mutex
	gen     uint64
	state   Snapshot
	started bool
	closed  bool
	subs    map[int]chan Snapshot
	nextSub int

	ready     chan struct{}
	readyOnce sync.Once
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the structured logger for transitions and recovered failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a session in the Initializing state. Call Start to validate any
// stored token.
func New(store tokenstore.Store, api API, opts ...Option) *Session {
	s := &Session{
		store:  store,
		api:    api,
		logger: logging.Discard(),
		state:  Snapshot{Status: Initializing},
		subs:   make(map[int]chan Snapshot),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the startup validation. It blocks until the stored token has been
// accepted or rejected. Failures are logged and leave the session
// Unauthenticated; they are never returned. Only the first call does anything.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.closed || s.state.Status != Initializing {
		s.started = true
		s.mu.Unlock()
		return
	}
	s.started = true
	gen := s.gen
	token, _ := s.store.Read()
	if token == "" {
		s.setLocked(Snapshot{Status: Unauthenticated}, "startup: no stored token")
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	user, err := s.api.Me(ctx, token)
	if err == nil && user == nil {
		err = errors.New("empty profile in validation response")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.gen != gen {
		s.logger.Info("session.startup superseded", "gen", gen, "current_gen", s.gen)
		return
	}
	if err != nil {
		s.logger.Warn("session.startup validation failed", "error", err)
		s.resetLocked("startup: token rejected")
		return
	}
	if err := s.store.Write(token, *user); err != nil {
		s.logger.Error("session.startup persist failed", "error", err)
		s.resetLocked("startup: persist failed")
		return
	}
	s.setLocked(Snapshot{Status: Authenticated, Token: token, User: user}, "startup: token accepted")
}

// Login commits a server-issued token and profile. It is valid from any state,
// including Authenticated. If the record cannot be persisted the session falls
// back to Unauthenticated and the error is returned.
func (s *Session) Login(token string, user domain.User) error {
	if token == "" {
		return fmt.Errorf("session.Login: %w", &domain.ValidationError{Field: "token", Message: "token is required"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session.Login: %w", ErrClosed)
	}
	s.gen++
	if err := s.store.Write(token, user); err != nil {
		s.logger.Error("session.login persist failed", "error", err)
		s.resetLocked("login: persist failed")
		return fmt.Errorf("session.Login: %w", err)
	}
	s.setLocked(Snapshot{Status: Authenticated, Token: token, User: &user}, "login")
	return nil
}

// Logout ends the session. Local state and the store are cleared before the
// server is contacted, so the result is the same whether or not the server call
// succeeds. The returned error only reports the server-side invalidation; the
// session is Unauthenticated either way.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session.Logout: %w", ErrClosed)
	}
	s.gen++
	token := s.state.Token
	if token == "" {
		// Logout while startup validation is still pending.
		token, _ = s.store.Read()
	}
	s.resetLocked("logout")
	s.mu.Unlock()

	if token == "" {
		return nil
	}
	if err := s.api.Logout(ctx, token); err != nil {
		s.logger.Warn("session.logout server invalidation failed", "error", err)
		return fmt.Errorf("session.Logout: %w", err)
	}
	return nil
}

// UpdateUser replaces the profile of an authenticated session.
func (s *Session) UpdateUser(user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session.UpdateUser: %w", ErrClosed)
	}
	if s.state.Status != Authenticated {
		return fmt.Errorf("session.UpdateUser: %w", ErrNotAuthenticated)
	}
	if err := s.updateUserLocked(user); err != nil {
		return fmt.Errorf("session.UpdateUser: %w", err)
	}
	return nil
}

// RefreshUser is UpdateUser for a profile fetched with token. If the session
// has logged out or moved to another token since, it is left untouched and
// ErrSuperseded is returned.
func (s *Session) RefreshUser(token string, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session.RefreshUser: %w", ErrClosed)
	}
	if s.state.Status != Authenticated || token == "" || s.state.Token != token {
		s.logger.Info("session.refresh superseded", "gen", s.gen)
		return fmt.Errorf("session.RefreshUser: %w", ErrSuperseded)
	}
	if err := s.updateUserLocked(user); err != nil {
		return fmt.Errorf("session.RefreshUser: %w", err)
	}
	return nil
}

// Expire ends the session after the server rejected token. The server is not
// contacted. If token is no longer the session's token nothing changes and
// ErrSuperseded is returned.
func (s *Session) Expire(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session.Expire: %w", ErrClosed)
	}
	if s.state.Status != Authenticated || token == "" || s.state.Token != token {
		s.logger.Info("session.expire superseded", "gen", s.gen)
		return fmt.Errorf("session.Expire: %w", ErrSuperseded)
	}
	s.gen++
	s.resetLocked("token rejected")
	return nil
}

// updateUserLocked persists user against the current token. s.mu must be held
// and the session must be Authenticated.
func (s *Session) updateUserLocked(user domain.User) error {
	s.gen++
	token := s.state.Token
	if err := s.store.Write(token, user); err != nil {
		s.logger.Error("session.update persist failed", "error", err)
		s.resetLocked("update: persist failed")
		return err
	}
	s.setLocked(Snapshot{Status: Authenticated, Token: token, User: &user}, "profile refresh")
	return nil
}

// Fail records a failed sign-in attempt for display. It has no effect on an
// authenticated or still initializing session.
func (s *Session) Fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	switch s.state.Status {
	case Unauthenticated, Error:
		s.gen++
		s.setLocked(Snapshot{Status: Error, Err: err}, "sign-in failed")
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Ready is closed once the session has left Initializing.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// Subscribe returns a channel that receives the current snapshot immediately and
// every later one. The channel holds only the newest snapshot, so a slow reader
// skips intermediate states but never blocks a transition. Call the returned
// func to unsubscribe; the channel is then closed.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		ch <- s.state.clone()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.state.clone()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close tears the session down: subscribers are closed and later transitions
// return ErrClosed. The persisted record is left as is.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.markReady()
}

// resetLocked clears the store and moves to Unauthenticated.
func (s *Session) resetLocked(reason string) {
	if err := s.store.Clear(); err != nil {
		s.logger.Error("session.clear store failed", "error", err)
	}
	s.setLocked(Snapshot{Status: Unauthenticated}, reason)
}

// setLocked installs next and publishes it to every subscriber before returning.
func (s *Session) setLocked(next Snapshot, reason string) {
	from := s.state.Status
	s.state = next.clone()
	s.logger.Info("session.transition",
		"from", from.String(),
		"to", next.Status.String(),
		"reason", reason,
		"gen", s.gen,
	)
	for _, ch := range s.subs {
		// Drop the unread snapshot, if any; we are the only sender so the
		// send below cannot block.
		select {
		case <-ch:
		default:
		}
		ch <- s.state.clone()
	}
	if next.Status != Initializing {
		s.markReady()
	}
}

func (s *Session) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}
