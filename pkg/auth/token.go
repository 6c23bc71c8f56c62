// Package auth implements the session token layer and the authorizer
// policy builder. Tokens are thin: a JWT carries only the session id and
// user id, and the session row in the store stays the authority on
// whether a login is still valid.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "lumina-backend/pkg/errors"
)

// TokenIssuer signs and parses session tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(secret, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret must not be empty")
	}
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

// TTL returns the lifetime stamped on issued tokens.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue creates a signed token binding a user to a session.
func (t *TokenIssuer) Issue(sessionID, userID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Subject:   userID,
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns the session and user ids it binds.
// Any defect, wrong signature, wrong issuer, expired, malformed, is a
// uniform Unauthorized.
func (t *TokenIssuer) Parse(tokenString string) (sessionID, userID string, err error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", "", apperrors.NewUnauthorizedError("invalid session token")
	}
	if claims.ID == "" || claims.Subject == "" {
		return "", "", apperrors.NewUnauthorizedError("invalid session token")
	}
	return claims.ID, claims.Subject, nil
}
