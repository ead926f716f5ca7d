package credential

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the diagnostic view of an access token. It is decoded without
// signature verification and must never drive authorization.
type Claims struct {
	Subject   string
	UserID    string
	TokenType string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

type accessClaims struct {
	UserID    any    `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Inspect decodes the payload of a JWT access token.
func Inspect(access string) (Claims, error) {
	var raw accessClaims
	if _, _, err := jwt.NewParser(jwt.WithJSONNumber()).ParseUnverified(access, &raw); err != nil {
		return Claims{}, fmt.Errorf("decode access token: %w", err)
	}

	c := Claims{
		Subject:   raw.Subject,
		TokenType: raw.TokenType,
	}
	if raw.UserID != nil {
		c.UserID = fmt.Sprint(raw.UserID)
	}
	if raw.ExpiresAt != nil {
		c.ExpiresAt = raw.ExpiresAt.Time
	}
	if raw.IssuedAt != nil {
		c.IssuedAt = raw.IssuedAt.Time
	}
	return c, nil
}

// ExpiresIn reports how long until expiry; negative once expired, zero when
// the token carries no exp claim.
func (c Claims) ExpiresIn(now time.Time) time.Duration {
	if c.ExpiresAt.IsZero() {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// Expired reports whether the exp claim lies in the past.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
