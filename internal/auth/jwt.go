// Package auth is the narrow identity collaborator: it resolves an opaque
// bearer token into {id, role}. The engine trusts this input and enforces
// only ownership and role rules downstream.
package auth

import (
	"fmt"
	"sync"
	"time"

	"busline/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var (
	secretMu sync.RWMutex
	secret   = []byte("super-secret-key-change-me")
)

// SetSecret installs the signing secret from config at startup.
func SetSecret(s string) {
	if s == "" {
		return
	}
	secretMu.Lock()
	secret = []byte(s)
	secretMu.Unlock()
}

func signingSecret() []byte {
	secretMu.RLock()
	defer secretMu.RUnlock()
	return secret
}

// Sign issues a token for the given actor, valid 24 hours.
func Sign(userID int64, role domain.Role) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString(signingSecret())
}

// Parse validates a token and extracts the actor.
func Parse(tokenString string) (domain.RequestContext, error) {
	var rc domain.RequestContext

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return signingSecret(), nil
	})
	if err != nil || !token.Valid {
		return rc, domain.ForbiddenError{Msg: "invalid token"}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return rc, domain.ForbiddenError{Msg: "invalid token claims"}
	}
	if id, ok := claims["user_id"].(float64); ok {
		rc.UserID = int64(id)
	}
	if role, ok := claims["role"].(string); ok {
		rc.Role = domain.ParseRole(role)
	}
	if rc.UserID <= 0 {
		return rc, domain.ForbiddenError{Msg: "invalid token subject"}
	}
	return rc, nil
}
