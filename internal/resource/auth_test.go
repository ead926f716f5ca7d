package resource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/coursehub/pkg/errors"
)

func TestSendCode(t *testing.T) {
	var sawAuth atomic.Bool
	var got map[string]string
	r := chi.NewRouter()
	r.Post("/api/v1/auth/send-code/", func(w http.ResponseWriter, r *http.Request) {
		sawAuth.Store(r.Header.Get("Authorization") != "")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	})
	env := newTestEnv(t, r)
	ctx := context.Background()
	require.NoError(t, env.store.SetTokens(ctx, "stale-access", "stale-refresh"))

	require.NoError(t, env.api.Auth.SendCode(ctx, SendCodeInput{Email: "ann@example.com"}))
	assert.False(t, sawAuth.Load(), "send-code must go out without a bearer")
	assert.Equal(t, map[string]string{"email": "ann@example.com"}, got)
}

func TestSendCode_Validation(t *testing.T) {
	h, calls := recordingBackend()
	env := newTestEnv(t, h)
	ctx := context.Background()

	tests := []struct {
		name string
		in   SendCodeInput
	}{
		{"neither", SendCodeInput{}},
		{"bad email", SendCodeInput{Email: "not-an-email"}},
		{"bad phone", SendCodeInput{Phone: "12345"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.api.Auth.SendCode(ctx, tt.in)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
		})
	}

	require.NoError(t, env.api.Auth.SendCode(ctx, SendCodeInput{Phone: "+37120000000"}))
	assert.Len(t, calls(), 1)
}

func TestCheckCode_InstallsTokens(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/v1/auth/check-code/", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		assert.Equal(t, "1234", in["code"])
		_, _ = w.Write([]byte(`{"access":"a1","refresh":"r1","user":{"id":7,"email":"ann@example.com","first_name":"Ann"}}`))
	})
	env := newTestEnv(t, r)
	ctx := context.Background()

	user, err := env.api.Auth.CheckCode(ctx, CheckCodeInput{Email: "ann@example.com", Code: "1234"})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "Ann", user.FullName())

	require.Len(t, env.session.logins, 1)
	assert.Equal(t, "a1", env.session.logins[0].AccessToken)

	pair, err := env.store.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1", pair.AccessToken)
	assert.Equal(t, "r1", pair.RefreshToken)
}

func TestCheckCode_WithoutUser(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/v1/auth/check-code/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access":"a1"}`))
	})
	env := newTestEnv(t, r)
	ctx := context.Background()

	user, err := env.api.Auth.CheckCode(ctx, CheckCodeInput{Phone: "+37120000000", Code: "9999"})
	require.NoError(t, err)
	assert.Nil(t, user)

	_, ok, err := env.store.RefreshToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckCode_NoTokens(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/v1/auth/check-code/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"detail":"ok"}`))
	})
	env := newTestEnv(t, r)

	_, err := env.api.Auth.CheckCode(context.Background(), CheckCodeInput{Email: "ann@example.com", Code: "1234"})
	assert.ErrorIs(t, err, ErrNoTokensIssued)
	assert.Empty(t, env.session.logins)
}

func TestCheckCode_WrongCode(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/v1/auth/check-code/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"invalid_code","detail":"Code is wrong or expired."}`))
	})
	env := newTestEnv(t, r)

	_, err := env.api.Auth.CheckCode(context.Background(), CheckCodeInput{Email: "ann@example.com", Code: "0000"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Equal(t, "invalid_code", apperrors.CodeOf(err))
	assert.Empty(t, env.session.logins)
}

func TestCheckCode_Validation(t *testing.T) {
	h, calls := recordingBackend()
	env := newTestEnv(t, h)

	_, err := env.api.Auth.CheckCode(context.Background(), CheckCodeInput{Email: "ann@example.com", Code: "12"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Empty(t, calls())
}

func logoutBackend(status int, body string, seen *atomic.Value) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/auth/logout/", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		seen.Store(in["refresh"])
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
	return r
}

func TestLogout(t *testing.T) {
	var seen atomic.Value
	env := newTestEnv(t, logoutBackend(http.StatusOK, `{}`, &seen))
	ctx := context.Background()
	require.NoError(t, env.store.SetTokens(ctx, "a1", "r1"))

	require.NoError(t, env.api.Auth.Logout(ctx))
	assert.Equal(t, "r1", seen.Load())
	assert.Equal(t, 1, env.session.logouts)

	_, ok, err := env.store.AccessToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogout_ExpiredSessionIsNotAnError(t *testing.T) {
	var seen atomic.Value
	env := newTestEnv(t, logoutBackend(http.StatusUnauthorized, `{"code":"token_not_valid"}`, &seen))
	ctx := context.Background()
	require.NoError(t, env.store.SetTokens(ctx, "a1", "r1"))

	assert.NoError(t, env.api.Auth.Logout(ctx))
	assert.Equal(t, 1, env.session.logouts)
}

func TestLogout_ServerFailureStillClearsLocally(t *testing.T) {
	var seen atomic.Value
	env := newTestEnv(t, logoutBackend(http.StatusBadGateway, `bad gateway`, &seen))
	ctx := context.Background()
	require.NoError(t, env.store.SetTokens(ctx, "a1", "r1"))

	err := env.api.Auth.Logout(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServer))
	assert.Equal(t, 1, env.session.logouts)

	_, ok, err := env.store.AccessToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogout_NoRefreshTokenSkipsServer(t *testing.T) {
	h, calls := recordingBackend()
	env := newTestEnv(t, h)

	require.NoError(t, env.api.Auth.Logout(context.Background()))
	assert.Empty(t, calls())
	assert.Equal(t, 1, env.session.logouts)
}

func TestMe(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/users/me/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer a1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":7,"email":"ann@example.com","role":"student"}`))
	})
	env := newTestEnv(t, r)
	ctx := context.Background()
	require.NoError(t, env.store.SetTokens(ctx, "a1", "r1"))

	me, err := env.api.Auth.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", me.FullName())
}
