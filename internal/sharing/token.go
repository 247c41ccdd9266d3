// Package sharing issues client share links and accepts sign-off against a locked baseline.
package sharing

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("share link is invalid or expired")
	ErrNoSecret     = errors.New("share token secret is not configured")
)

type ShareClaims struct {
	VisitID          string     `json:"visit_id"`
	BaselineLockedAt *time.Time `json:"baseline_locked_at,omitempty"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (ti *TokenIssuer) Issue(visitID uuid.UUID, lockedAt *time.Time) (string, time.Time, error) {
	if len(ti.secret) == 0 {
		return "", time.Time{}, ErrNoSecret
	}
	now := ti.now()
	exp := now.Add(ti.ttl)
	claims := ShareClaims{
		VisitID:          visitID.String(),
		BaselineLockedAt: lockedAt,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   visitID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign share token: %w", err)
	}
	return signed, exp, nil
}

func (ti *TokenIssuer) Parse(tokenString string) (*ShareClaims, uuid.UUID, error) {
	if len(ti.secret) == 0 {
		return nil, uuid.Nil, ErrNoSecret
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ti.now),
	)
	claims := &ShareClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return ti.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.VisitID)
	if err != nil {
		return nil, uuid.Nil, ErrInvalidToken
	}
	return claims, id, nil
}
