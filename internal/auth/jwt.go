package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrTokenRevoked = errors.New("session token revoked")

type Claims struct {
	UserID    string   `json:"uid"`
	Roles     []string `json:"roles"`
	TokenType string   `json:"typ"`
	JTI       string   `json:"jti"`
	jwt.RegisteredClaims
}

// Denylist remembers revoked session ids until their natural expiry.
// Kept as a small interface so tests can fake it.
type Denylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Manager mints and revokes session credentials. The credential is an HS256
// JWT under the hood; callers treat it as an opaque string.
type Manager struct {
	secret     []byte
	sessionTTL time.Duration
	denylist   Denylist // nil disables revocation checks
}

func NewManager(secret string, sessionTTL time.Duration, denylist Denylist) *Manager {
	return &Manager{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		denylist:   denylist,
	}
}

func (m *Manager) GenerateSessionToken(userID string, roles []string) (string, error) {
	now := time.Now().UTC()

	if roles == nil {
		roles = []string{}
	}

	claims := Claims{
		UserID:    userID,
		Roles:     roles,
		TokenType: "session",
		JTI:       uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.sessionTTL)),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) parseAndValidate(tokenStr string) (claims *Claims, err error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return
	}
	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		err = errors.New("invalid token")
		return
	}

	if claims.TokenType != "session" {
		err = errors.New("invalid token type")
		return
	}

	if claims.JTI == "" {
		err = errors.New("missing jti")
		return
	}

	return
}

// VerifySessionToken validates signature, expiry and revocation state.
func (m *Manager) VerifySessionToken(ctx context.Context, tokenStr string) (*Claims, error) {
	claims, err := m.parseAndValidate(tokenStr)

	if err != nil {
		return nil, err
	}

	if m.denylist != nil {
		revoked, err := m.denylist.IsRevoked(ctx, claims.JTI)

		if err != nil {
			return nil, err
		}

		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

// InvalidateSessionToken revokes a token for the rest of its lifetime.
// An expired or malformed token is already unusable, so that case is a no-op.
func (m *Manager) InvalidateSessionToken(ctx context.Context, tokenStr string) error {
	claims, err := m.parseAndValidate(tokenStr)

	if err != nil {
		return nil
	}

	if m.denylist == nil {
		return nil
	}

	ttl := m.sessionTTL

	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}

	if ttl <= 0 {
		return nil
	}

	return m.denylist.Revoke(ctx, claims.JTI, ttl)
}
