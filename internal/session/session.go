// Package session maps opaque session tokens to usernames.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL matches the lifetime of a browser session cookie.
const DefaultTTL = 14 * 24 * time.Hour

// ErrInvalidSession indicates a missing, malformed, expired or revoked token.
var ErrInvalidSession = errors.New("invalid session")

// Manager issues and resolves session tokens.
type Manager interface {
	Issue(username string) (string, error)
	Resolve(token string) (string, error)
	Revoke(token string) error
}

// JWTManager signs sessions as HS256 tokens. Revoked token ids are kept in
// memory until they would have expired anyway.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewJWTManager creates a manager signing with secret. A non-positive ttl
// selects DefaultTTL.
func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &JWTManager{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// Issue creates a token identifying username.
func (m *JWTManager) Issue(username string) (string, error) {
	if username == "" {
		return "", errors.New("username is required")
	}

	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Resolve returns the username a valid token was issued for.
func (m *JWTManager) Resolve(token string) (string, error) {
	claims, err := m.parse(token)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	_, revoked := m.revoked[claims.ID]
	m.mu.Unlock()
	if revoked {
		return "", ErrInvalidSession
	}

	return claims.Subject, nil
}

// Revoke invalidates a token before its expiry.
func (m *JWTManager) Revoke(token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, expiry := range m.revoked {
		if now.After(expiry) {
			delete(m.revoked, id)
		}
	}
	m.revoked[claims.ID] = claims.ExpiresAt.Time
	return nil
}

func (m *JWTManager) parse(token string) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
