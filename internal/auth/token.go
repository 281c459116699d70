// Package auth issues and verifies the signed session tokens that stand in
// for the hosted identity provider's opaque identity references.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Maheshi13/UNIVISTA-Project/internal/domain"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const (
	purposeSession = "session"
	purposeReset   = "password_reset"
)

type TokenManager struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
}

func NewTokenManager(secret string, sessionTTL, resetTTL time.Duration) *TokenManager {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}

	if resetTTL <= 0 {
		resetTTL = 30 * time.Minute
	}

	return &TokenManager{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
	}
}

type sessionClaims struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Faculty string `json:"faculty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// IssueSession signs a session token carrying the profile's identity.
func (m *TokenManager) IssueSession(p *domain.Profile) (string, error) {
	claims := sessionClaims{
		Name:    p.Name,
		Role:    string(p.Role),
		Faculty: p.Faculty,
		Purpose: purposeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.secret)
}

// ParseSession verifies a session token and reconstructs the identity.
func (m *TokenManager) ParseSession(tokenString string) (*domain.Identity, error) {
	var claims sessionClaims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid || claims.Purpose != purposeSession {
		return nil, ErrInvalidToken
	}

	return &domain.Identity{
		UID:     claims.Subject,
		Name:    claims.Name,
		Role:    domain.Role(claims.Role),
		Faculty: claims.Faculty,
	}, nil
}

// IssueReset signs a short-lived password-reset token bound to a uid.
func (m *TokenManager) IssueReset(uid string) (string, error) {
	claims := sessionClaims{
		Purpose: purposeReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.resetTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.secret)
}

// ParseReset verifies a password-reset token and returns the bound uid.
func (m *TokenManager) ParseReset(tokenString string) (string, error) {
	var claims sessionClaims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid || claims.Purpose != purposeReset {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
