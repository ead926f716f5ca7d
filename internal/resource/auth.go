package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/utafrali/coursehub/internal/credential"
	"github.com/utafrali/coursehub/internal/domain"
	apperrors "github.com/utafrali/coursehub/pkg/errors"
	"github.com/utafrali/coursehub/pkg/httpclient"
	"github.com/utafrali/coursehub/pkg/validator"
)

// SendCodeInput requests a one-time login code by email or phone.
type SendCodeInput struct {
	Email string `json:"email,omitempty" validate:"required_without=Phone,omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"required_without=Email,omitempty,e164"`
}

// CheckCodeInput exchanges a received code for a session.
type CheckCodeInput struct {
	Email string `json:"email,omitempty" validate:"required_without=Phone,omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"required_without=Email,omitempty,e164"`
	Code  string `json:"code" validate:"required,min=4,max=8"`
}

type loginResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    *domain.User `json:"user"`
}

// ErrNoTokensIssued is returned when check-code succeeds without tokens.
var ErrNoTokensIssued = errors.New("login response carries no access token")

// Auth covers code-based login, logout and the current user.
type Auth struct {
	req     Requester
	session Session
	tokens  TokenReader
}

// SendCode asks the backend to deliver a login code.
func (a *Auth) SendCode(ctx context.Context, in SendCodeInput) error {
	if err := validator.Validate(in); err != nil {
		return err
	}
	_, err := a.req.Do(ctx, &httpclient.Request{
		Method: http.MethodPost,
		Path:   "auth/send-code/",
		Body:   in,
		NoAuth: true,
	})
	return err
}

// CheckCode verifies the code and installs the issued tokens. The returned
// user is nil when the backend does not embed it in the response.
func (a *Auth) CheckCode(ctx context.Context, in CheckCodeInput) (*domain.User, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	body, err := a.req.Do(ctx, &httpclient.Request{
		Method: http.MethodPost,
		Path:   "auth/check-code/",
		Body:   in,
		NoAuth: true,
	})
	if err != nil {
		return nil, err
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode auth/check-code/ response: %w", err)
	}
	if resp.Access == "" {
		return nil, ErrNoTokensIssued
	}
	if err := a.session.Login(ctx, credential.Pair{AccessToken: resp.Access, RefreshToken: resp.Refresh}); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}
	return resp.User, nil
}

// Logout revokes the refresh token server-side and always forgets the local
// pair. A backend that already considers the session dead is not an error.
func (a *Auth) Logout(ctx context.Context) error {
	var remoteErr error
	if token, ok, err := a.tokens.RefreshToken(ctx); err != nil {
		remoteErr = err
	} else if ok {
		remoteErr = exec(ctx, a.req, http.MethodPost, "auth/logout/", map[string]string{"refresh": token})
		if errors.Is(remoteErr, apperrors.ErrUnauthorized) || errors.Is(remoteErr, apperrors.ErrSessionInvalid) {
			remoteErr = nil
		}
	}

	if err := a.session.Logout(ctx); err != nil {
		return errors.Join(remoteErr, err)
	}
	return remoteErr
}

// Me returns the authenticated user.
func (a *Auth) Me(ctx context.Context) (*domain.User, error) {
	return get[domain.User](ctx, a.req, "users/me/", nil)
}
