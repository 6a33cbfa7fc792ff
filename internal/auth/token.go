// Package auth issues and verifies the bearer tokens guarding the /debug
// group. Tokens are HS256 JWTs signed with DEBUG_TOKEN_SECRET; no user
// model, just a scope claim.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const ScopeDebug = "debug"

type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

type Manager struct {
	secret []byte
}

func NewManager(secret string) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("auth: token secret is required")
	}
	return &Manager{secret: []byte(secret)}, nil
}

// Issue mints a debug token, typically from an operator's shell.
func (m *Manager) Issue(now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Scope: ScopeDebug,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30*time.Second),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	if claims.Scope != ScopeDebug {
		return Claims{}, errors.New("auth: scope mismatch")
	}
	return claims, nil
}
