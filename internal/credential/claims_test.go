package credential

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return s
}

func TestInspect(t *testing.T) {
	iat := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	exp := iat.Add(5 * time.Minute)
	token := signToken(t, jwt.MapClaims{
		"token_type": "access",
		"user_id":    42,
		"sub":        "student@example.com",
		"iat":        iat.Unix(),
		"exp":        exp.Unix(),
	})

	c, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "access", c.TokenType)
	assert.Equal(t, "42", c.UserID)
	assert.Equal(t, "student@example.com", c.Subject)
	assert.True(t, c.IssuedAt.Equal(iat))
	assert.True(t, c.ExpiresAt.Equal(exp))

	assert.Equal(t, 2*time.Minute, c.ExpiresIn(iat.Add(3*time.Minute)))
	assert.False(t, c.Expired(iat))
	assert.True(t, c.Expired(exp))
}

func TestInspect_StringUserID(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"user_id": "b7f1c2"})

	c, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "b7f1c2", c.UserID)
	assert.True(t, c.ExpiresAt.IsZero())
	assert.Zero(t, c.ExpiresIn(time.Now()))
	assert.False(t, c.Expired(time.Now()))
}

func TestInspect_Malformed(t *testing.T) {
	for _, in := range []string{"", "opaque-token", "a.b.c"} {
		_, err := Inspect(in)
		assert.Error(t, err, in)
	}
}
