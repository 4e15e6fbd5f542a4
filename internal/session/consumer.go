package session

import (
	"context"
	"fmt"

	"github.com/naveenspark/investa/pkg/domain"
)

// Authenticator is the part of the auth client that sign-in forms call.
type Authenticator interface {
	Login(ctx context.Context, phone, password string) (*domain.LoginResponse, error)
	Register(ctx context.Context, phone, password, name string) (*domain.LoginResponse, error)
}

// SignIn logs in with phone and password and commits the result to s. On
// failure the session moves to Error with the reason and the error is returned
// for display.
func SignIn(ctx context.Context, s *Session, auth Authenticator, phone, password string) (*domain.User, error) {
	resp, err := auth.Login(ctx, phone, password)
	if err != nil {
		s.Fail(err)
		return nil, fmt.Errorf("session.SignIn: %w", err)
	}
	return commit(s, resp, "session.SignIn")
}

// SignUp registers an account and commits its first session to s.
func SignUp(ctx context.Context, s *Session, auth Authenticator, phone, password, name string) (*domain.User, error) {
	resp, err := auth.Register(ctx, phone, password, name)
	if err != nil {
		s.Fail(err)
		return nil, fmt.Errorf("session.SignUp: %w", err)
	}
	return commit(s, resp, "session.SignUp")
}

func commit(s *Session, resp *domain.LoginResponse, op string) (*domain.User, error) {
	if err := s.Login(resp.AccessToken, resp.User); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u := resp.User
	return &u, nil
}

// RequireAuth returns the authenticated snapshot, or ErrNotAuthenticated.
// Consumers that need a signed-in user call it and redirect on error.
func RequireAuth(s *Session) (Snapshot, error) {
	snap := s.Snapshot()
	if !snap.Authenticated() {
		return snap, ErrNotAuthenticated
	}
	return snap, nil
}
