package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUserExists signals the username is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidUser indicates a registration with missing fields.
	ErrInvalidUser = errors.New("username and password are required")
	// ErrUserNotFound indicates no profile exists for the username.
	ErrUserNotFound = errors.New("user not found")

	dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")
)

// User is the public profile of an account.
type User struct {
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Name           string   `json:"name"`
	Bio            string   `json:"bio"`
	FavoriteGenres []string `json:"favoriteGenres"`
	FavoriteMoods  []string `json:"favoriteMoods"`
	// Playlists is reserved and never populated.
	Playlists []string `json:"playlists"`
}

// ProfileUpdate carries the editable profile fields. Favorites replace the
// stored sets wholesale.
type ProfileUpdate struct {
	Name           string
	Email          string
	Bio            string
	FavoriteGenres []string
	FavoriteMoods  []string
}

type account struct {
	user         User
	passwordHash []byte
}

// Store keeps user accounts in memory for the lifetime of the process.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account
	cost     int
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[string]*account),
		cost:     bcrypt.DefaultCost,
	}
}

// CreateUser registers a new account with an empty profile.
func (s *Store) CreateUser(_ context.Context, username, password, email string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, ErrInvalidUser
	}

	s.mu.RLock()
	_, exists := s.accounts[username]
	s.mu.RUnlock()
	if exists {
		return User{}, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the write lock; hashing ran unlocked.
	if _, exists := s.accounts[username]; exists {
		return User{}, ErrUserExists
	}

	acct := &account{
		user: User{
			Username:       username,
			Email:          strings.TrimSpace(email),
			Name:           username,
			FavoriteGenres: []string{},
			FavoriteMoods:  []string{},
			Playlists:      []string{},
		},
		passwordHash: hash,
	}
	s.accounts[username] = acct

	return cloneUser(acct.user), nil
}

// Authenticate validates credentials and returns the matching profile.
func (s *Store) Authenticate(_ context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)

	s.mu.RLock()
	acct, ok := s.accounts[username]
	var (
		hash []byte
		user User
	)
	if ok {
		hash = acct.passwordHash
		user = cloneUser(acct.user)
	}
	s.mu.RUnlock()

	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
		return User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// Profile returns the profile stored for username.
func (s *Store) Profile(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return cloneUser(acct.user), nil
}

// UpdateProfile overwrites the editable fields of a profile. An empty name
// falls back to the username.
func (s *Store) UpdateProfile(_ context.Context, username string, update ProfileUpdate) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[username]
	if !ok {
		return User{}, ErrUserNotFound
	}

	name := strings.TrimSpace(update.Name)
	if name == "" {
		name = username
	}

	acct.user.Name = name
	acct.user.Email = strings.TrimSpace(update.Email)
	acct.user.Bio = update.Bio
	acct.user.FavoriteGenres = dedupe(update.FavoriteGenres)
	acct.user.FavoriteMoods = dedupe(update.FavoriteMoods)

	return cloneUser(acct.user), nil
}

func dedupe(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(result, v) {
			continue
		}
		result = append(result, v)
	}
	return result
}

func cloneUser(src User) User {
	clone := src
	clone.FavoriteGenres = slices.Clone(src.FavoriteGenres)
	clone.FavoriteMoods = slices.Clone(src.FavoriteMoods)
	clone.Playlists = slices.Clone(src.Playlists)
	return clone
}
