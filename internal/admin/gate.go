// Package admin implements the static-credential gate in front of the admin
// view. It keeps casual visitors out and nothing more.
package admin

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var ErrUnauthorized = errors.New("unauthorized")

// Session is the explicit admin state handed to admin operations.
type Session struct {
	Authenticated bool      `json:"authenticated"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// Require returns ErrUnauthorized unless the session is authenticated and
// not expired.
func (s Session) Require() error {
	return s.RequireAt(time.Now())
}

// RequireAt is Require evaluated at now.
func (s Session) RequireAt(now time.Time) error {
	if !s.Authenticated {
		return ErrUnauthorized
	}
	if !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt) {
		return fmt.Errorf("%w: session expired", ErrUnauthorized)
	}
	return nil
}

// Gate checks the configured credential. A bcrypt hash takes precedence
// over a plain password.
type Gate struct {
	password string
	hash     []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewGate(password, passwordHash string, ttl time.Duration) *Gate {
	g := &Gate{password: password, ttl: ttl, now: time.Now}
	if passwordHash != "" {
		g.hash = []byte(passwordHash)
	}
	return g
}

// Login returns an authenticated session when password matches.
func (g *Gate) Login(password string) (Session, error) {
	if !g.check(password) {
		return Session{}, ErrUnauthorized
	}
	s := Session{Authenticated: true}
	if g.ttl > 0 {
		s.ExpiresAt = g.now().Add(g.ttl)
	}
	return s, nil
}

func (g *Gate) check(password string) bool {
	if g.hash != nil {
		return bcrypt.CompareHashAndPassword(g.hash, []byte(password)) == nil
	}
	if g.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(g.password), []byte(password)) == 1
}

// HashPassword returns a bcrypt hash suitable for admin.password_hash.
func HashPassword(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
