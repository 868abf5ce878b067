// Package auth issues and validates editing-session tokens. The builder
// has no user accounts: one durable store, one logical editor. A session
// token marks who currently holds that editing seat, optionally behind a
// shared gate password.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionService signs and verifies HS256 session tokens.
type SessionService struct {
	secret     []byte
	sessionTTL time.Duration
}

// SessionClaims carries the session identity inside the JWT.
type SessionClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// NewSessionService validates the shared secret and builds the service.
func NewSessionService(secret string, ttl time.Duration) (*SessionService, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &SessionService{secret: []byte(secret), sessionTTL: ttl}, nil
}

// IssueToken mints a token for a fresh session id.
func (s *SessionService) IssueToken() (token, sessionID string, err error) {
	now := time.Now()
	sessionID = uuid.NewString()
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, sessionID, nil
}

// ValidateToken parses and verifies a session token.
func (s *SessionService) ValidateToken(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, errors.New("token string is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// SessionTTL exposes the configured token lifetime.
func (s *SessionService) SessionTTL() time.Duration {
	return s.sessionTTL
}
