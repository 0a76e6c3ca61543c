package admin

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenSubject = "admin"

// Tokens encodes sessions as HMAC-signed JWTs.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

// NewTokens uses secret as the signing key. An empty secret gets a random
// key, so tokens do not survive a restart.
func NewTokens(secret string) (*Tokens, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
	}
	return &Tokens{secret: key, now: time.Now}, nil
}

// Issue signs s. Unauthenticated sessions are refused.
func (t *Tokens) Issue(s Session) (string, error) {
	if !s.Authenticated {
		return "", ErrUnauthorized
	}
	claims := jwt.RegisteredClaims{
		Subject:  tokenSubject,
		IssuedAt: jwt.NewNumericDate(t.now()),
	}
	if !s.ExpiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(s.ExpiresAt)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse validates tokenString and returns the session it carries.
func (t *Tokens) Parse(tokenString string) (Session, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithSubject(tokenSubject))
	if err != nil || !token.Valid {
		return Session{}, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}

	s := Session{Authenticated: true}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}
