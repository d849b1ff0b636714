package users

import (
	"context"
	"errors"
	"fmt"

	"moodtunes/internal/session"
	"moodtunes/internal/store"
)

// ErrUnauthenticated indicates the request carries no usable session.
var ErrUnauthenticated = errors.New("unauthenticated")

// Store describes the account operations required by the user service.
type Store interface {
	CreateUser(ctx context.Context, username, password, email string) (store.User, error)
	Authenticate(ctx context.Context, username, password string) (store.User, error)
	Profile(ctx context.Context, username string) (store.User, error)
	UpdateProfile(ctx context.Context, username string, update store.ProfileUpdate) (store.User, error)
}

// Service exposes account and session workflows. Tokens returned by Register
// and Login identify the user on later calls.
type Service interface {
	Register(ctx context.Context, username, password, email string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string) (store.User, error)
	UpdateProfile(ctx context.Context, token string, update store.ProfileUpdate) (store.User, error)
}

type service struct {
	store    Store
	sessions session.Manager
}

// New wires a Service backed by the provided Store and session manager.
func New(store Store, sessions session.Manager) Service {
	return &service{store: store, sessions: sessions}
}

func (s *service) Register(ctx context.Context, username, password, email string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	user, err := s.store.CreateUser(ctx, username, password, email)
	if err != nil {
		return "", err
	}
	return s.issue(user.Username)
}

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	user, err := s.store.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	return s.issue(user.Username)
}

func (s *service) Logout(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.sessions.Revoke(token); err != nil && !errors.Is(err, session.ErrInvalidSession) {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *service) Resolve(ctx context.Context, token string) (store.User, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, err
	}

	username, err := s.username(token)
	if err != nil {
		return store.User{}, err
	}

	user, err := s.store.Profile(ctx, username)
	if err != nil {
		// The token outlived its account, e.g. across a restart.
		if errors.Is(err, store.ErrUserNotFound) {
			return store.User{}, ErrUnauthenticated
		}
		return store.User{}, fmt.Errorf("load profile: %w", err)
	}
	return user, nil
}

func (s *service) UpdateProfile(ctx context.Context, token string, update store.ProfileUpdate) (store.User, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, err
	}

	username, err := s.username(token)
	if err != nil {
		return store.User{}, err
	}

	user, err := s.store.UpdateProfile(ctx, username, update)
	if errors.Is(err, store.ErrUserNotFound) {
		return store.User{}, ErrUnauthenticated
	}
	return user, err
}

func (s *service) username(token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	username, err := s.sessions.Resolve(token)
	if err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			return "", ErrUnauthenticated
		}
		return "", fmt.Errorf("resolve session: %w", err)
	}
	return username, nil
}

func (s *service) issue(username string) (string, error) {
	token, err := s.sessions.Issue(username)
	if err != nil {
		return "", fmt.Errorf("issue session: %w", err)
	}
	return token, nil
}
