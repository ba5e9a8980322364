// Package session reads the identity signals the client needs: is a
// user present, who are they, and are they privileged. The token is
// issued and verified by the server; the client only decodes its
// claims for display and gating, it never validates the signature.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession means no token is stored: the user is logged out.
var ErrNoSession = errors.New("no stored session")

// User is the current identity as reported by the token claims.
type User struct {
	Email     string
	Superuser bool
}

// Store keeps the session token in a single file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write session token: %w", err)
	}
	return nil
}

func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session token: %w", err)
	}
	return nil
}

func (s *Store) Token() (string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("read session token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", ErrNoSession
	}
	return token, nil
}

// CurrentUser loads the stored token and decodes its claims.
func (s *Store) CurrentUser() (User, error) {
	token, err := s.Token()
	if err != nil {
		return User{}, err
	}
	return ParseUser(token)
}

// ParseUser decodes identity claims without verifying the signature.
func ParseUser(token string) (User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return User{}, fmt.Errorf("decode session token: %w", err)
	}

	u := User{}
	if email, ok := claims["email"].(string); ok {
		u.Email = email
	} else if sub, ok := claims["sub"].(string); ok {
		u.Email = sub
	}
	if super, ok := claims["is_superuser"].(bool); ok {
		u.Superuser = super
	}
	return u, nil
}
