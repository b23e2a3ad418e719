// Package tokens signs and verifies the short-lived access tokens that bind
// a request to a user and the session it was issued under.
package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aegis-admin/aegis-admin/internal/shared"
)

// Claims carried by an access token. SessionID lets the gate kill access
// tokens whose owning session has been revoked before the token's own TTL.
type Claims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager mints and verifies HMAC-signed access tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager constructs a Manager.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Mint issues a signed access token for the user/session pair.
func (m *Manager) Mint(userID, sessionID string) (string, error) {
	now := m.now().UTC()
	claims := Claims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("tokens: sign: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims. Any parse or
// signature failure maps to the authentication error so callers never leak
// the distinction.
func (m *Manager) Verify(raw string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil || !token.Valid {
		return Claims{}, shared.ErrAuthentication
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return Claims{}, shared.ErrAuthentication
	}
	return claims, nil
}

// TTL exposes the configured access token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
