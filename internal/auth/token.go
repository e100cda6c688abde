// Package auth covers credential checks, JWT issuance/verification and
// token revocation.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gasflowhq/gasflow-api/internal/user"
)

const (
	tokenTTL      = 24 * time.Hour
	resetTokenTTL = time.Hour

	// claim type marking single-use password reset tokens
	typePasswordReset = "password-reset"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

func (t *TokenIssuer) sign(u *user.User, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps tokens minted in the same second distinct, so
			// revoking one never invalidates another.
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Issue signs a session token for u.
func (t *TokenIssuer) Issue(u *user.User) (string, error) {
	return t.sign(u, "", tokenTTL)
}

// IssueReset signs a short-lived password reset token for u.
func (t *TokenIssuer) IssueReset(u *user.User) (string, error) {
	return t.sign(u, typePasswordReset, resetTokenTTL)
}

// Verify checks signature and expiry and returns the claims.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
